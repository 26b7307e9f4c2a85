package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dproquant/tradecheck/internal/engine"
	"github.com/dproquant/tradecheck/internal/loader"
)

var (
	auditFile      string
	auditDir       string
	auditCapital   float64
	auditScale     string
	auditContracts int
	auditOutput    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run a D-Pro Protocol audit over a transaction file",
	Long: `Audits a CSV transaction export against the rulebook and prints
the report.

When --file is omitted the most recently modified .csv in --dir is used.

Example:
  tradecheck audit --file tradedata/202512.csv --capital 173000 --scale S1
  tradecheck audit --dir tradedata --capital 100000 --scale S2 --output json`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditFile, "file", "", "transaction CSV file")
	auditCmd.Flags().StringVar(&auditDir, "dir", "tradedata", "directory to search when --file is omitted")
	auditCmd.Flags().Float64Var(&auditCapital, "capital", 0, "monthly start capital (default: config)")
	auditCmd.Flags().StringVar(&auditScale, "scale", "", "current capital scale, e.g. S1 (default: config)")
	auditCmd.Flags().IntVar(&auditContracts, "contracts", 0, "operation contracts for stress testing (default: config)")
	auditCmd.Flags().StringVar(&auditOutput, "output", "text", "output format (text, json)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, log, rb, err := initDeps()
	if err != nil {
		return err
	}

	// Flag values win over config defaults.
	capital := cfg.Account.MonthlyStartCapital
	if auditCapital > 0 {
		capital = auditCapital
	}
	scale := cfg.Account.Scale
	if auditScale != "" {
		scale = auditScale
	}
	contracts := cfg.Account.OperationContracts
	if auditContracts > 0 {
		contracts = auditContracts
	}

	account := engine.Account{
		MonthlyStartCapital: decimal.NewFromFloat(capital),
		Scale:               scale,
		OperationContracts:  contracts,
	}

	auditor, err := engine.NewAuditor(rb, account, log)
	if err != nil {
		return err
	}

	path := auditFile
	if path == "" {
		path, err = findLatestTradeFile(auditDir)
		if err != nil {
			return err
		}
		fmt.Printf("Using latest trade file: %s\n", path)
	}

	trades, err := loader.New(log).LoadFile(path)
	if err != nil {
		return err
	}

	report, err := auditor.Run(trades)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	if auditOutput == "json" {
		data, err := report.ToJSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(report.ToSummary())
	}

	return nil
}

// findLatestTradeFile returns the most recently modified .csv in dir.
func findLatestTradeFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no trade files (.csv) found in %s", dir)
	}

	latest := ""
	var latestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest = m
			latestMod = mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no readable trade files in %s", dir)
	}
	return latest, nil
}
