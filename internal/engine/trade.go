package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a normalized closed-position record. The loader guarantees a
// parsed timestamp and a finite NetPnL (malformed values are coerced to 0
// upstream); the engine treats the record as immutable.
type Trade struct {
	Timestamp   time.Time       `json:"timestamp"`
	Action      string          `json:"action"`
	NetPnL      decimal.Decimal `json:"net_pnl"`
	Contracts   int             `json:"contracts"`
	ProductName string          `json:"product_name"`

	// Points is NetPnL normalized per contract per the product's point
	// value. Nil when the product cannot be resolved against the rulebook
	// table; such trades are excluded from DNA diagnosis but remain in
	// every other check.
	Points *decimal.Decimal `json:"points,omitempty"`
}

// Date returns the trade's local calendar date at midnight.
func (t Trade) Date() time.Time {
	y, m, d := t.Timestamp.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Timestamp.Location())
}

// MonthKey returns the calendar-month bucket key, e.g. "2025-12".
func (t Trade) MonthKey() string {
	return t.Timestamp.Format("2006-01")
}

// YearKey returns the calendar-year bucket key, e.g. "2025".
func (t Trade) YearKey() string {
	return t.Timestamp.Format("2006")
}

// clockSeconds returns the local clock time as seconds since midnight.
func (t Trade) clockSeconds() int {
	return t.Timestamp.Hour()*3600 + t.Timestamp.Minute()*60 + t.Timestamp.Second()
}
