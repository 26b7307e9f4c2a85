package engine

import "github.com/shopspring/decimal"

// Incentive statuses.
const (
	IncentivePaid     = "eligible"
	IncentiveLocked   = "profit locked: full reinvestment during moat period"
	IncentiveReserved = "profit reserved pending KPI retake"
	IncentiveNoProfit = "no profit this period"
)

// IncentiveResult is the profit-sharing outcome for one period.
type IncentiveResult struct {
	Eligible bool            `json:"eligible"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
	KPIMet   bool            `json:"kpi_met"`
}

// EvaluateIncentive computes the happiness incentive: 10% of period profit
// when both profitability and the current tier's KPI keys are met. The
// amount is rounded half-to-even to whole currency units. During the moat
// window, positive profit is locked before the ladder is consulted.
func (a *Auditor) EvaluateIncentive(netPnL decimal.Decimal, winRate float64, riskReward Ratio) IncentiveResult {
	if !netPnL.IsPositive() {
		return IncentiveResult{Amount: decimal.Zero, Status: IncentiveNoProfit}
	}

	if a.rulebook.Moat.Enabled {
		now := a.clock()
		if !now.Before(a.rulebook.Moat.Start) && !now.After(a.rulebook.Moat.End) {
			return IncentiveResult{Amount: decimal.Zero, Status: IncentiveLocked}
		}
	}

	criteria := a.criteria
	kpiMet := riskReward.AtLeast(criteria.RiskRewardThreshold) && winRate >= criteria.WinRateThreshold
	if !kpiMet {
		return IncentiveResult{Amount: decimal.Zero, Status: IncentiveReserved}
	}

	amount := netPnL.Mul(a.rulebook.IncentiveRate).RoundBank(0)
	return IncentiveResult{
		Eligible: true,
		Amount:   amount,
		Status:   IncentivePaid,
		KPIMet:   true,
	}
}
