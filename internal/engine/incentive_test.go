package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateIncentive_NoProfit(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	for _, pnl := range []int64{0, -5000} {
		res := a.EvaluateIncentive(decimal.NewFromInt(pnl), 0.90, InfiniteRatio())
		assert.False(t, res.Eligible)
		assert.True(t, res.Amount.IsZero())
		assert.Equal(t, IncentiveNoProfit, res.Status)
	}
}

func TestEvaluateIncentive_Paid(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	res := a.EvaluateIncentive(decimal.NewFromInt(2500), 0.30, FiniteRatio(decimal.NewFromFloat(2.0)))

	assert.True(t, res.Eligible)
	assert.True(t, res.KPIMet)
	assert.Equal(t, IncentivePaid, res.Status)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(250)))
}

func TestEvaluateIncentive_ReservedWhenKPINotMet(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	// Profitable but below the S1 win-rate key.
	res := a.EvaluateIncentive(decimal.NewFromInt(2500), 0.20, InfiniteRatio())

	assert.False(t, res.Eligible)
	assert.True(t, res.Amount.IsZero())
	assert.Equal(t, IncentiveReserved, res.Status)
}

func TestEvaluateIncentive_MoatWindowLocksProfit(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	tests := []struct {
		name   string
		now    time.Time
		status string
	}{
		{"before window", time.Date(2025, time.December, 31, 23, 59, 59, 0, time.Local), IncentivePaid},
		{"window start", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local), IncentiveLocked},
		{"mid window", time.Date(2026, time.May, 10, 12, 0, 0, 0, time.Local), IncentiveLocked},
		{"window end", time.Date(2026, time.August, 31, 23, 59, 59, 0, time.Local), IncentiveLocked},
		{"after window", time.Date(2026, time.September, 1, 0, 0, 0, 0, time.Local), IncentivePaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			a.WithClock(func() time.Time { return now })
			res := a.EvaluateIncentive(decimal.NewFromInt(2500), 0.90, InfiniteRatio())
			assert.Equal(t, tt.status, res.Status)
		})
	}
}

func TestEvaluateIncentive_MoatDisabled(t *testing.T) {
	rb := DefaultRulebook()
	rb.Moat.Enabled = false
	a, err := NewAuditor(rb, testAccount(), nil)
	assert.NoError(t, err)
	a.WithClock(func() time.Time {
		return time.Date(2026, time.May, 10, 12, 0, 0, 0, time.Local)
	})

	res := a.EvaluateIncentive(decimal.NewFromInt(2500), 0.90, InfiniteRatio())
	assert.Equal(t, IncentivePaid, res.Status)
}

func TestEvaluateIncentive_BankersRounding(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	tests := []struct {
		name   string
		pnl    int64
		amount int64
	}{
		{"half rounds to even down", 125, 12},  // 12.5 -> 12
		{"half rounds to even up", 135, 14},    // 13.5 -> 14
		{"below half rounds down", 1234, 123},  // 123.4 -> 123
		{"above half rounds up", 1236, 124},    // 123.6 -> 124
		{"exact tenth untouched", 2500, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.EvaluateIncentive(decimal.NewFromInt(tt.pnl), 0.90, InfiniteRatio())
			assert.True(t, res.Amount.Equal(decimal.NewFromInt(tt.amount)),
				"got %s, want %d", res.Amount, tt.amount)
		})
	}
}
