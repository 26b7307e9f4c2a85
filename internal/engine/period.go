package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MonthlySummary re-evaluates the audit components over one calendar-month
// bucket. Historical buckets are judged under the overall account context
// (start capital, scale, contracts), not a reconstructed historical one.
type MonthlySummary struct {
	Month      string            `json:"month"`
	KPI        KPIResult         `json:"kpi"`
	Safety     SafetyResult      `json:"safety"`
	Capital    CapitalAssessment `json:"capital"`
	Incentive  IncentiveResult   `json:"incentive"`
	TradeCount int               `json:"trade_count"`
	Trades     []Trade           `json:"trades"`
}

// YearlySummary is the annual KPI rollup.
type YearlySummary struct {
	Year       string    `json:"year"`
	KPI        KPIResult `json:"kpi"`
	TradeCount int       `json:"trade_count"`
}

// summarizeMonths groups trades by calendar month, re-runs the component
// set per bucket, and returns summaries sorted by period descending.
func (a *Auditor) summarizeMonths(trades []Trade, currentCapital decimal.Decimal) ([]MonthlySummary, error) {
	buckets := make(map[string][]Trade)
	for _, t := range trades {
		key := t.MonthKey()
		buckets[key] = append(buckets[key], t)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	summaries := make([]MonthlySummary, 0, len(keys))
	for _, key := range keys {
		group := buckets[key]
		summary, err := a.summarizeMonth(key, group, currentCapital)
		if err != nil {
			// A bucket that cannot be evaluated fails the whole audit; a
			// partial report presented as complete would mislead.
			return nil, fmt.Errorf("month %s: %w", key, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (a *Auditor) summarizeMonth(key string, group []Trade, currentCapital decimal.Decimal) (MonthlySummary, error) {
	if len(group) == 0 {
		return MonthlySummary{}, fmt.Errorf("empty bucket")
	}

	kpi := a.CalculateKPIs(group)

	latest := group[0].Timestamp
	for _, t := range group[1:] {
		if t.Timestamp.After(latest) {
			latest = t.Timestamp
		}
	}

	// Capital is the overall derived figure, per the rulebook's
	// current-lens policy for historical buckets.
	return MonthlySummary{
		Month:      key,
		KPI:        kpi,
		Safety:     a.CheckSafetyValves(group),
		Capital:    a.EvaluateCapital(currentCapital, kpi.WinRate, kpi.RiskReward, latest),
		Incentive:  a.EvaluateIncentive(kpi.NetPnL, kpi.WinRate, kpi.RiskReward),
		TradeCount: len(group),
		Trades:     group,
	}, nil
}

// summarizeYears groups trades by calendar year, sorted descending.
func (a *Auditor) summarizeYears(trades []Trade) []YearlySummary {
	buckets := make(map[string][]Trade)
	for _, t := range trades {
		key := t.YearKey()
		buckets[key] = append(buckets[key], t)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	summaries := make([]YearlySummary, 0, len(keys))
	for _, key := range keys {
		group := buckets[key]
		summaries = append(summaries, YearlySummary{
			Year:       key,
			KPI:        a.CalculateKPIs(group),
			TradeCount: len(group),
		})
	}
	return summaries
}
