package merge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, ts string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.Local)
	require.NoError(t, err)
	return parsed
}

func TestBackfill_NearestEarlierOpeningWins(t *testing.T) {
	closed := []ClosedTrade{
		{
			CloseTime:   at(t, "2025-12-01 14:00:00"),
			ProductName: "小型臺指",
			OpenPrice:   decimal.NewFromInt(23000),
		},
	}
	txns := []Transaction{
		{Time: at(t, "2025-12-01 09:00:00"), ProductName: "小型臺指2512", Price: decimal.NewFromInt(23000), PositionType: OpeningPositionType},
		{Time: at(t, "2025-12-01 11:00:00"), ProductName: "小型臺指2512", Price: decimal.NewFromInt(23000), PositionType: OpeningPositionType},
		// Later than the close; never a candidate.
		{Time: at(t, "2025-12-01 15:00:00"), ProductName: "小型臺指2512", Price: decimal.NewFromInt(23000), PositionType: OpeningPositionType},
	}

	results := Backfill(closed, txns, nil)
	require.Len(t, results, 1)
	require.True(t, results[0].Matched)
	assert.Equal(t, at(t, "2025-12-01 11:00:00"), results[0].OpenTime)
}

func TestBackfill_FiltersNonOpenings(t *testing.T) {
	closed := []ClosedTrade{
		{CloseTime: at(t, "2025-12-01 14:00:00"), ProductName: "小型臺指", OpenPrice: decimal.NewFromInt(23000)},
	}
	txns := []Transaction{
		{Time: at(t, "2025-12-01 11:00:00"), ProductName: "小型臺指", Price: decimal.NewFromInt(23000), PositionType: "平倉"},
	}

	results := Backfill(closed, txns, nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
}

func TestBackfill_PriceMustMatchExactly(t *testing.T) {
	closed := []ClosedTrade{
		{CloseTime: at(t, "2025-12-01 14:00:00"), ProductName: "小型臺指", OpenPrice: decimal.NewFromInt(23000)},
	}
	txns := []Transaction{
		{Time: at(t, "2025-12-01 11:00:00"), ProductName: "小型臺指", Price: decimal.NewFromInt(23001), PositionType: OpeningPositionType},
	}

	results := Backfill(closed, txns, nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
}

func TestBackfill_ProductSubstringMatch(t *testing.T) {
	closed := []ClosedTrade{
		{CloseTime: at(t, "2025-12-01 14:00:00"), ProductName: "臺指", OpenPrice: decimal.NewFromInt(23000)},
		{CloseTime: at(t, "2025-12-01 14:00:00"), ProductName: "黃金", OpenPrice: decimal.NewFromInt(23000)},
	}
	txns := []Transaction{
		{Time: at(t, "2025-12-01 11:00:00"), ProductName: "小型臺指2512", Price: decimal.NewFromInt(23000), PositionType: OpeningPositionType},
	}

	results := Backfill(closed, txns, nil)
	require.Len(t, results, 2)
	assert.True(t, results[0].Matched)
	assert.False(t, results[1].Matched)
}

func TestBackfill_NeverFailsOnEmptyInput(t *testing.T) {
	assert.Empty(t, Backfill(nil, nil, nil))

	results := Backfill([]ClosedTrade{
		{CloseTime: at(t, "2025-12-01 14:00:00"), ProductName: "小型臺指", OpenPrice: decimal.NewFromInt(23000)},
	}, nil, nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Matched)
}
