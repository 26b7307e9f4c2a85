package engine

import "github.com/shopspring/decimal"

// KPIResult is the headline metric triple for one trade set.
type KPIResult struct {
	WinRate    float64         `json:"win_rate"`
	RiskReward Ratio           `json:"risk_reward_ratio"`
	NetPnL     decimal.Decimal `json:"net_pnl"`
	TradeCount int             `json:"trade_count"`
}

// CalculateKPIs derives win rate, risk/reward ratio and net P&L. An empty
// set yields the zero triple. The ratio is Infinite whenever there are no
// losing trades in a non-empty set; downstream threshold checks treat that
// as always satisfied.
func (a *Auditor) CalculateKPIs(trades []Trade) KPIResult {
	if len(trades) == 0 {
		return KPIResult{RiskReward: ZeroRatio(), NetPnL: decimal.Zero}
	}

	var (
		wins, losses    int
		sumWin, sumLoss decimal.Decimal
		total           decimal.Decimal
	)
	for _, t := range trades {
		total = total.Add(t.NetPnL)
		switch {
		case t.NetPnL.IsPositive():
			wins++
			sumWin = sumWin.Add(t.NetPnL)
		case t.NetPnL.IsNegative():
			losses++
			sumLoss = sumLoss.Add(t.NetPnL.Abs())
		}
	}

	winRate := float64(wins) / float64(len(trades))

	avgWin := decimal.Zero
	if wins > 0 {
		avgWin = sumWin.Div(decimal.NewFromInt(int64(wins)))
	}
	avgLoss := decimal.Zero
	if losses > 0 {
		avgLoss = sumLoss.Div(decimal.NewFromInt(int64(losses)))
	}

	rr := InfiniteRatio()
	if avgLoss.IsPositive() {
		rr = FiniteRatio(avgWin.Div(avgLoss))
	}

	return KPIResult{
		WinRate:    winRate,
		RiskReward: rr,
		NetPnL:     total,
		TradeCount: len(trades),
	}
}
