package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulebook_Validates(t *testing.T) {
	require.NoError(t, DefaultRulebook().Validate())
}

func TestRulebook_PointValueOrdering(t *testing.T) {
	rb := DefaultRulebook()

	tests := []struct {
		product string
		value   int64
	}{
		{"小型臺指2512", 50},
		{"微型臺指2512", 10},
		{"臺指期貨2512", 200},
	}

	for _, tt := range tests {
		t.Run(tt.product, func(t *testing.T) {
			v, ok := rb.pointValue(tt.product)
			require.True(t, ok)
			assert.True(t, v.Equal(decimal.NewFromInt(tt.value)))
		})
	}

	_, ok := rb.pointValue("黃金期貨")
	assert.False(t, ok)
}

func TestRulebook_ValidScalesSorted(t *testing.T) {
	assert.Equal(t, []string{"S1", "S2", "S3", "S4", "S5"}, DefaultRulebook().ValidScales())
}

func TestRulebook_TierLadderChains(t *testing.T) {
	rb := DefaultRulebook()
	scale := "S1"
	visited := map[string]bool{}
	for {
		require.False(t, visited[scale], "ladder cycles at %s", scale)
		visited[scale] = true
		c, ok := rb.Criteria(scale)
		require.True(t, ok)
		if c.NextScale == "" {
			assert.Equal(t, "S5", scale)
			return
		}
		scale = c.NextScale
	}
}

func TestRulebook_ValidateRejectsBrokenLadder(t *testing.T) {
	rb := DefaultRulebook()
	rb.Tiers["S4"] = TierCriteria{NextScale: "S99"}
	err := rb.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S99")
}

func TestRulebook_ValidateRejectsUnknownBaseProduct(t *testing.T) {
	rb := DefaultRulebook()
	rb.Stress.BaseProduct = "原油"
	require.Error(t, rb.Validate())
}

func TestRulebook_ValidateRejectsInvertedWindow(t *testing.T) {
	rb := DefaultRulebook()
	rb.NightWindows = []NightWindow{
		{Name: "backwards", Start: mustClock("22:00:00"), End: mustClock("21:00:00")},
	}
	require.Error(t, rb.Validate())
}

func TestRulebook_IsQuarterEnd(t *testing.T) {
	rb := DefaultRulebook()
	assert.True(t, rb.IsQuarterEnd(time.March))
	assert.True(t, rb.IsQuarterEnd(time.December))
	assert.False(t, rb.IsQuarterEnd(time.January))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("21:15:00")
	require.NoError(t, err)
	assert.Equal(t, ClockTime(21*3600+15*60), c)
	assert.Equal(t, "21:15:00", c.String())

	_, err = ParseClock("25:00:00")
	assert.Error(t, err)
}

const testRulebookYAML = `version: "D-Pro V7.3-test"
point_values:
  - product: "小型臺指"
    value: 50
  - product: "臺指"
    value: 200
tiers:
  S1:
    next_scale: "S2"
    capital_threshold: 200000
    rr_threshold: 1.5
    wr_threshold: 0.25
  S2:
    capital_threshold: 400000
    rr_threshold: 2.0
    wr_threshold: 0.30
night_windows:
  - name: "US Market Open"
    start: "21:15:00"
    end: "21:45:00"
night_check_opening_only: false
dna:
  noise_point_threshold: 10
  noise_share_threshold: 0.6
  trend_win_rate_threshold: 0.5
  monthly_point_target: 100
stress:
  max_exposure_points: 100
  base_product: "小型臺指"
  risk_ratio_alarm: 0.2
  contract_scale_factor: 2
daily_loss_stop_count: 3
strategy_breaker_days: 10
monthly_drawdown_rate: 0.15
quarterly_cost: 25000
quarter_end_months: [3, 6, 9, 12]
incentive_rate: 0.1
moat_rule:
  enabled: true
  start: "2026-01-01"
  end: "2026-08-31"
`

func writeRulebook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulebook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRulebook(t *testing.T) {
	rb, err := LoadRulebook(writeRulebook(t, testRulebookYAML))
	require.NoError(t, err)

	assert.Equal(t, "D-Pro V7.3-test", rb.Version)

	c, ok := rb.Criteria("S1")
	require.True(t, ok)
	assert.Equal(t, "S2", c.NextScale)
	assert.True(t, c.CapitalThreshold.Equal(decimal.NewFromInt(200000)))

	require.Len(t, rb.NightWindows, 1)
	assert.Equal(t, mustClock("21:15:00"), rb.NightWindows[0].Start)

	assert.True(t, rb.Moat.Enabled)
	// The end date covers the whole final day.
	assert.Equal(t, time.Date(2026, time.August, 31, 23, 59, 59, 0, time.Local), rb.Moat.End)
}

func TestLoadRulebook_RejectsUnknownField(t *testing.T) {
	_, err := LoadRulebook(writeRulebook(t, testRulebookYAML+"surprise_field: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse rulebook")
}

func TestLoadRulebook_RejectsBadClock(t *testing.T) {
	bad := `version: "x"
point_values:
  - product: "小型臺指"
    value: 50
tiers:
  S1:
    capital_threshold: 1
    rr_threshold: 1
    wr_threshold: 0.1
night_windows:
  - name: "w"
    start: "nope"
    end: "21:45:00"
stress:
  max_exposure_points: 100
  base_product: "小型臺指"
  risk_ratio_alarm: 0.2
  contract_scale_factor: 2
`
	_, err := LoadRulebook(writeRulebook(t, bad))
	require.Error(t, err)
}

func TestLoadRulebook_MissingFile(t *testing.T) {
	_, err := LoadRulebook(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
