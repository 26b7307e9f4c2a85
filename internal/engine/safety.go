package engine

import "github.com/shopspring/decimal"

// Circuit breaker statuses.
const (
	BreakerSafe     = "SAFE"
	BreakerBreached = "BREACHED"
)

// SafetyResult carries the safety-valve verdicts for one trade set.
type SafetyResult struct {
	// DailyStopViolationDays counts calendar dates with more than the
	// permitted number of losing trades.
	DailyStopViolationDays int  `json:"daily_stop_violation_days"`
	DailyStopTriggered     bool `json:"daily_stop_triggered"`

	// StrategyCircuitBreaker trips when the violated-day count strictly
	// exceeds the rulebook threshold.
	StrategyCircuitBreaker bool `json:"strategy_circuit_breaker"`

	MonthlyCircuitBreaker string          `json:"monthly_circuit_breaker"`
	NetPnL                decimal.Decimal `json:"net_pnl"`
	MonthlyLossThreshold  decimal.Decimal `json:"monthly_loss_threshold"`
}

// CheckSafetyValves evaluates the daily-loss stop, the strategy circuit
// breaker and the monthly capital circuit breaker.
func (a *Auditor) CheckSafetyValves(trades []Trade) SafetyResult {
	lossCounts := make(map[string]int)
	total := decimal.Zero
	for _, t := range trades {
		total = total.Add(t.NetPnL)
		if t.NetPnL.IsNegative() {
			lossCounts[t.Timestamp.Format("2006-01-02")]++
		}
	}

	violatedDays := 0
	for _, n := range lossCounts {
		if n > a.rulebook.DailyLossStopCount {
			violatedDays++
		}
	}

	// Inclusive bound: hitting the drawdown threshold exactly is a breach.
	threshold := a.account.MonthlyStartCapital.Mul(a.rulebook.MonthlyDrawdownRate).Neg()
	breaker := BreakerSafe
	if total.LessThanOrEqual(threshold) {
		breaker = BreakerBreached
	}

	return SafetyResult{
		DailyStopViolationDays: violatedDays,
		DailyStopTriggered:     violatedDays > 0,
		StrategyCircuitBreaker: violatedDays > a.rulebook.StrategyBreakerDays,
		MonthlyCircuitBreaker:  breaker,
		NetPnL:                 total,
		MonthlyLossThreshold:   threshold,
	}
}
