// Package loader normalizes broker transaction exports into engine trade
// records. It owns column mapping and numeric coercion so the engine never
// sees malformed input.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dproquant/tradecheck/internal/engine"
	"github.com/dproquant/tradecheck/pkg/logger"
)

// Broker exports carry Chinese headers; re-exports from the web UI carry
// the normalized English ones. Both are accepted.
var columnAliases = map[string]string{
	"成交時間":   "trade_time",
	"買賣別":    "action",
	"平倉損益淨額": "net_pnl",
	"口數":     "contracts",
	"商品名稱":   "product_name",

	"trade_time":   "trade_time",
	"action":       "action",
	"net_pnl":      "net_pnl",
	"contracts":    "contracts",
	"product_name": "product_name",
}

var requiredColumns = []string{"trade_time", "action", "net_pnl"}

var timeLayouts = []string{
	"2006/01/02 15:04:05",
	"2006-01-02 15:04:05",
	"2006/1/2 15:04:05",
}

// Loader reads trade records from CSV files.
type Loader struct {
	logger *logger.Logger
}

// New creates a Loader.
func New(log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{logger: log}
}

// LoadFile reads and normalizes a CSV transaction file.
func (l *Loader) LoadFile(path string) ([]engine.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trade file: %w", err)
	}
	defer f.Close()

	return l.Load(f)
}

// Load reads and normalizes CSV transaction data from a reader.
func (l *Loader) Load(r io.Reader) ([]engine.Trade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	index := make(map[string]int)
	for i, col := range header {
		name := strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		if canonical, ok := columnAliases[name]; ok {
			index[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var trades []engine.Trade
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line+1, err)
		}
		line++

		trade, err := l.parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trades = append(trades, trade)
	}

	l.logger.WithField("trades", len(trades)).Info("Loaded transaction file")
	return trades, nil
}

func (l *Loader) parseRecord(record []string, index map[string]int) (engine.Trade, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ts, err := parseTime(field("trade_time"))
	if err != nil {
		return engine.Trade{}, err
	}

	// Malformed P&L coerces to zero rather than failing the whole import.
	pnl := decimal.Zero
	rawPnL := strings.ReplaceAll(field("net_pnl"), ",", "")
	if rawPnL != "" {
		if v, err := decimal.NewFromString(rawPnL); err == nil {
			pnl = v
		} else {
			l.logger.WithField("value", rawPnL).Warn("Malformed net_pnl coerced to 0")
		}
	}

	contracts := 0
	if raw := field("contracts"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			contracts = v
		} else {
			l.logger.WithField("value", raw).Warn("Malformed contract count coerced to 0")
		}
	}

	return engine.Trade{
		Timestamp:   ts,
		Action:      field("action"),
		NetPnL:      pnl,
		Contracts:   contracts,
		ProductName: field("product_name"),
	}, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty trade time")
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable trade time %q", s)
}
