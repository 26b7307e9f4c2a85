package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dproquant/tradecheck/internal/merge"
)

var (
	mergeTradesFile string
	mergeTxnsFile   string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Backfill open times for closed trades (best effort)",
	Long: `Matches closed P&L records to position-opening fills by naive
nearest-time search: same product (substring), same price, earlier time,
closest wins. Unmatched trades print N/A.

Input CSVs:
  --trades:       trade_time, product_name, open_price
  --transactions: transaction_time, product_name, price, position_type

Example:
  tradecheck merge --trades closed.csv --transactions fills.csv`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeTradesFile, "trades", "", "closed trades CSV (required)")
	mergeCmd.Flags().StringVar(&mergeTxnsFile, "transactions", "", "transaction ledger CSV (required)")
	_ = mergeCmd.MarkFlagRequired("trades")
	_ = mergeCmd.MarkFlagRequired("transactions")
}

func runMerge(cmd *cobra.Command, args []string) error {
	_, log, _, err := initDeps()
	if err != nil {
		return err
	}

	closed, err := readClosedTrades(mergeTradesFile)
	if err != nil {
		return err
	}
	txns, err := readTransactions(mergeTxnsFile)
	if err != nil {
		return err
	}

	results := merge.Backfill(closed, txns, log)

	matched := 0
	for _, res := range results {
		openTime := "N/A"
		if res.Matched {
			matched++
			openTime = res.OpenTime.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %s  open=%s\n",
			res.Trade.CloseTime.Format("2006-01-02 15:04:05"),
			res.Trade.ProductName, openTime)
	}
	fmt.Printf("\nMatched %d of %d trades\n", matched, len(results))
	return nil
}

func readClosedTrades(path string) ([]merge.ClosedTrade, error) {
	rows, index, err := readCSV(path, []string{"trade_time", "product_name", "open_price"})
	if err != nil {
		return nil, err
	}

	var trades []merge.ClosedTrade
	for i, row := range rows {
		ts, err := parseMergeTime(row[index["trade_time"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(row[index["open_price"]], ",", ""))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid open_price", path, i+2)
		}
		trades = append(trades, merge.ClosedTrade{
			CloseTime:   ts,
			ProductName: row[index["product_name"]],
			OpenPrice:   price,
		})
	}
	return trades, nil
}

func readTransactions(path string) ([]merge.Transaction, error) {
	rows, index, err := readCSV(path, []string{"transaction_time", "product_name", "price", "position_type"})
	if err != nil {
		return nil, err
	}

	var txns []merge.Transaction
	for i, row := range rows {
		ts, err := parseMergeTime(row[index["transaction_time"]])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		price, err := decimal.NewFromString(strings.ReplaceAll(row[index["price"]], ",", ""))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid price", path, i+2)
		}
		txns = append(txns, merge.Transaction{
			Time:         ts,
			ProductName:  row[index["product_name"]],
			Price:        price,
			PositionType: row[index["position_type"]],
		})
	}
	return txns, nil
}

func readCSV(path string, required []string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}

	index := make(map[string]int)
	for i, col := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	return records[1:], index, nil
}

func parseMergeTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006/01/02 15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable time %q", s)
}
