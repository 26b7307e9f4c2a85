package engine

import "github.com/shopspring/decimal"

// Trading-DNA verdicts.
const (
	VerdictStuckInNoise  = "stuck in the noise zone"
	VerdictGoodDefense   = "good defense"
	VerdictProfitCore    = "profit core"
	VerdictMissedTrends  = "missed trends"
	VerdictNotApplicable = "N/A"
)

// DNAResult is the behavioral diagnosis for one trade set. Only trades with
// resolvable points participate; the counts below refer to that subset.
type DNAResult struct {
	DiagnosedTrades int `json:"diagnosed_trades"`
	ExcludedTrades  int `json:"excluded_trades"`

	NoiseTrades  int             `json:"noise_trades"`
	NoiseShare   float64         `json:"noise_share"`
	NoisePnL     decimal.Decimal `json:"noise_pnl"`
	NoiseVerdict string          `json:"noise_verdict"`

	TrendTrades  int     `json:"trend_trades"`
	TrendWinRate float64 `json:"trend_win_rate"`
	TrendVerdict string  `json:"trend_verdict"`

	TotalPoints        decimal.Decimal `json:"total_points_achieved"`
	MonthlyPointTarget decimal.Decimal `json:"monthly_point_target"`
}

// DiagnoseDNA partitions trades into noise and trend zones by absolute
// point magnitude and evaluates the behavioral verdicts.
func (a *Auditor) DiagnoseDNA(trades []Trade) DNAResult {
	res := DNAResult{
		NoiseVerdict:       VerdictNotApplicable,
		TrendVerdict:       VerdictNotApplicable,
		NoisePnL:           decimal.Zero,
		TotalPoints:        decimal.Zero,
		MonthlyPointTarget: a.rulebook.DNA.MonthlyPointTarget,
	}

	var trendWins int
	for _, t := range trades {
		if t.Points == nil {
			res.ExcludedTrades++
			continue
		}
		res.DiagnosedTrades++
		res.TotalPoints = res.TotalPoints.Add(*t.Points)

		if t.Points.Abs().LessThanOrEqual(a.rulebook.DNA.NoisePoints) {
			res.NoiseTrades++
			res.NoisePnL = res.NoisePnL.Add(t.NetPnL)
		} else {
			res.TrendTrades++
			if t.NetPnL.IsPositive() {
				trendWins++
			}
		}
	}

	if res.DiagnosedTrades > 0 {
		res.NoiseShare = float64(res.NoiseTrades) / float64(res.DiagnosedTrades)
	}

	if res.NoiseTrades > 0 {
		if res.NoiseShare > a.rulebook.DNA.NoiseShare && res.NoisePnL.IsNegative() {
			res.NoiseVerdict = VerdictStuckInNoise
		} else {
			res.NoiseVerdict = VerdictGoodDefense
		}
	}

	if res.TrendTrades > 0 {
		res.TrendWinRate = float64(trendWins) / float64(res.TrendTrades)
		if res.TrendWinRate >= a.rulebook.DNA.TrendWinRate {
			res.TrendVerdict = VerdictProfitCore
		} else {
			res.TrendVerdict = VerdictMissedTrends
		}
	}

	return res
}
