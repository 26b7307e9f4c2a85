package engine

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckSafetyValves_DailyStopBoundary(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	lossesOn := func(day string, n int) []Trade {
		var trades []Trade
		for i := 0; i < n; i++ {
			trades = append(trades, mkTrade(t,
				fmt.Sprintf("%s 1%d:00:00", day, i), -100, 1, "小型臺指"))
		}
		return trades
	}

	t.Run("three losses on a date is allowed", func(t *testing.T) {
		res := a.CheckSafetyValves(lossesOn("2025/12/01", 3))
		assert.Equal(t, 0, res.DailyStopViolationDays)
		assert.False(t, res.DailyStopTriggered)
	})

	t.Run("fourth loss violates the day", func(t *testing.T) {
		res := a.CheckSafetyValves(lossesOn("2025/12/01", 4))
		assert.Equal(t, 1, res.DailyStopViolationDays)
		assert.True(t, res.DailyStopTriggered)
		assert.False(t, res.StrategyCircuitBreaker)
	})

	t.Run("wins on the same date do not count", func(t *testing.T) {
		trades := lossesOn("2025/12/01", 3)
		trades = append(trades, mkTrade(t, "2025/12/01 14:00:00", 500, 1, "小型臺指"))
		res := a.CheckSafetyValves(trades)
		assert.Equal(t, 0, res.DailyStopViolationDays)
	})
}

func TestCheckSafetyValves_StrategyCircuitBreaker(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	violatedDays := func(days int) []Trade {
		var trades []Trade
		for d := 1; d <= days; d++ {
			for i := 0; i < 4; i++ {
				trades = append(trades, mkTrade(t,
					fmt.Sprintf("2025/12/%02d 1%d:00:00", d, i), -10, 1, "小型臺指"))
			}
		}
		return trades
	}

	t.Run("ten violated days stay under the breaker", func(t *testing.T) {
		res := a.CheckSafetyValves(violatedDays(10))
		assert.Equal(t, 10, res.DailyStopViolationDays)
		assert.False(t, res.StrategyCircuitBreaker)
	})

	t.Run("eleventh violated day trips it", func(t *testing.T) {
		res := a.CheckSafetyValves(violatedDays(11))
		assert.Equal(t, 11, res.DailyStopViolationDays)
		assert.True(t, res.StrategyCircuitBreaker)
	})
}

func TestCheckSafetyValves_MonthlyBreakerInclusiveBoundary(t *testing.T) {
	// Start capital 100000 at a 15% drawdown rate puts the line at -15000.
	a := newTestAuditor(t, testAccount())

	tests := []struct {
		name   string
		pnl    float64
		status string
	}{
		{"above the line", -14999, BreakerSafe},
		{"exactly on the line breaches", -15000, BreakerBreached},
		{"below the line", -15001, BreakerBreached},
		{"profit", 2500, BreakerSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.CheckSafetyValves([]Trade{
				mkTrade(t, "2025/12/01 10:00:00", tt.pnl, 1, "小型臺指"),
			})
			assert.Equal(t, tt.status, res.MonthlyCircuitBreaker)
			assert.True(t, res.MonthlyLossThreshold.Equal(decimal.NewFromInt(-15000)))
		})
	}
}

func TestCheckSafetyValves_EmptySet(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	res := a.CheckSafetyValves(nil)

	assert.Equal(t, 0, res.DailyStopViolationDays)
	assert.Equal(t, BreakerSafe, res.MonthlyCircuitBreaker)
	assert.True(t, res.NetPnL.IsZero())
}
