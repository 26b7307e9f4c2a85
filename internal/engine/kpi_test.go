package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateKPIs_EmptySet(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	kpi := a.CalculateKPIs(nil)

	assert.Equal(t, 0, kpi.TradeCount)
	assert.Equal(t, 0.0, kpi.WinRate)
	assert.True(t, kpi.NetPnL.IsZero())
	// Empty set yields the finite zero ratio, not the sentinel.
	assert.False(t, kpi.RiskReward.IsInfinite())
}

func TestCalculateKPIs_Mixed(t *testing.T) {
	a := newTestAuditor(t, testAccount())
	trades := []Trade{
		mkTrade(t, "2025/12/01 10:00:00", 1000, 1, "小型臺指"),
		mkTrade(t, "2025/12/02 10:00:00", -500, 1, "小型臺指"),
		mkTrade(t, "2025/12/03 10:00:00", 2000, 2, "小型臺指"),
	}

	kpi := a.CalculateKPIs(trades)

	assert.Equal(t, 3, kpi.TradeCount)
	assert.InDelta(t, 2.0/3.0, kpi.WinRate, 1e-9)
	assert.True(t, kpi.NetPnL.Equal(decimal.NewFromInt(2500)))

	// avg win 1500 over avg loss 500.
	rr, ok := kpi.RiskReward.Value()
	require.True(t, ok)
	assert.True(t, rr.Equal(decimal.NewFromInt(3)))
}

func TestCalculateKPIs_NoLossesIsInfinite(t *testing.T) {
	a := newTestAuditor(t, testAccount())
	trades := []Trade{
		mkTrade(t, "2025/12/01 10:00:00", 1000, 1, "小型臺指"),
		mkTrade(t, "2025/12/02 10:00:00", 500, 1, "小型臺指"),
	}

	kpi := a.CalculateKPIs(trades)

	assert.True(t, kpi.RiskReward.IsInfinite())
	assert.Equal(t, 1.0, kpi.WinRate)
	// The sentinel satisfies every tier threshold.
	assert.True(t, kpi.RiskReward.AtLeast(decimal.NewFromFloat(2.5)))
}

func TestCalculateKPIs_BreakEvenTradesCountInWinRateDenominator(t *testing.T) {
	a := newTestAuditor(t, testAccount())
	trades := []Trade{
		mkTrade(t, "2025/12/01 10:00:00", 1000, 1, "小型臺指"),
		mkTrade(t, "2025/12/02 10:00:00", 0, 1, "小型臺指"),
	}

	kpi := a.CalculateKPIs(trades)

	assert.Equal(t, 0.5, kpi.WinRate)
	// No losses either, so the ratio is still the sentinel.
	assert.True(t, kpi.RiskReward.IsInfinite())
}
