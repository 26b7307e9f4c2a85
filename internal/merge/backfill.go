// Package merge implements the best-effort open-time backfill: closed P&L
// records are matched to position-opening transactions by naive nearest-time
// search. It is a standalone utility, deliberately outside the audit engine.
package merge

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dproquant/tradecheck/pkg/logger"
)

// OpeningPositionType is the broker label for a new position.
const OpeningPositionType = "新倉"

// ClosedTrade is a P&L record missing its open time.
type ClosedTrade struct {
	CloseTime   time.Time
	ProductName string
	OpenPrice   decimal.Decimal
}

// Transaction is a raw fill from the transaction ledger.
type Transaction struct {
	Time         time.Time
	ProductName  string
	Price        decimal.Decimal
	PositionType string
}

// Result pairs a closed trade with its matched open time, if any.
type Result struct {
	Trade    ClosedTrade
	OpenTime time.Time
	Matched  bool
}

// Backfill matches each closed trade to the nearest earlier opening
// transaction with the same product (substring) and the same price.
// Unmatched trades are reported with Matched=false; the operation never
// fails as a whole.
func Backfill(closed []ClosedTrade, txns []Transaction, log *logger.Logger) []Result {
	if log == nil {
		log = logger.NewNop()
	}

	openings := make([]Transaction, 0, len(txns))
	for _, tx := range txns {
		if tx.PositionType == OpeningPositionType {
			openings = append(openings, tx)
		}
	}

	results := make([]Result, 0, len(closed))
	matched := 0
	for _, ct := range closed {
		res := Result{Trade: ct}
		var bestDiff time.Duration

		for _, tx := range openings {
			if !containsProduct(tx.ProductName, ct.ProductName) {
				continue
			}
			if !tx.Price.Equal(ct.OpenPrice) {
				continue
			}
			if !tx.Time.Before(ct.CloseTime) {
				continue
			}
			diff := ct.CloseTime.Sub(tx.Time)
			if !res.Matched || diff < bestDiff {
				res.Matched = true
				res.OpenTime = tx.Time
				bestDiff = diff
			}
		}

		if res.Matched {
			matched++
		}
		results = append(results, res)
	}

	log.WithFields(map[string]interface{}{
		"total":   len(closed),
		"matched": matched,
	}).Info("Open-time backfill completed")

	return results
}

func containsProduct(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
