package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dproquant/tradecheck/pkg/logger"
)

// Shared test fixtures. The clock is pinned outside the moat window so
// incentive tests exercise the normal eligibility ladder unless they opt in.
var testClock = func() time.Time {
	return time.Date(2025, time.December, 15, 10, 0, 0, 0, time.Local)
}

func testAccount() Account {
	return Account{
		MonthlyStartCapital: decimal.NewFromInt(100000),
		Scale:               "S1",
		OperationContracts:  1,
	}
}

func newTestAuditor(t *testing.T, account Account) *Auditor {
	t.Helper()
	a, err := NewAuditor(DefaultRulebook(), account, logger.NewNop())
	require.NoError(t, err)
	return a.WithClock(testClock)
}

func mkTrade(t *testing.T, ts string, pnl float64, contracts int, product string) Trade {
	t.Helper()
	parsed, err := time.ParseInLocation("2006/01/02 15:04:05", ts, time.Local)
	require.NoError(t, err)
	return Trade{
		Timestamp:   parsed,
		Action:      "Buy",
		NetPnL:      decimal.NewFromFloat(pnl),
		Contracts:   contracts,
		ProductName: product,
	}
}

func TestNewAuditor_InvalidScale(t *testing.T) {
	account := testAccount()
	account.Scale = "S9"

	_, err := NewAuditor(DefaultRulebook(), account, logger.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "S9")
	// The failure message must enumerate the valid ladder.
	require.Contains(t, err.Error(), "S1")
	require.Contains(t, err.Error(), "S5")
}

func TestRun_RejectsZeroTimestamp(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	_, err := a.Run([]Trade{{NetPnL: decimal.NewFromInt(100)}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timestamp")
}
