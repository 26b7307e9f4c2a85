package engine

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio_Comparisons(t *testing.T) {
	tests := []struct {
		name      string
		ratio     Ratio
		threshold float64
		atLeast   bool
		greater   bool
	}{
		{"finite above", FiniteRatio(decimal.NewFromFloat(2.0)), 1.5, true, true},
		{"finite equal", FiniteRatio(decimal.NewFromFloat(1.5)), 1.5, true, false},
		{"finite below", FiniteRatio(decimal.NewFromFloat(1.0)), 1.5, false, false},
		{"zero vs zero", ZeroRatio(), 0, true, false},
		{"infinite satisfies any threshold", InfiniteRatio(), 9999, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threshold := decimal.NewFromFloat(tt.threshold)
			assert.Equal(t, tt.atLeast, tt.ratio.AtLeast(threshold))
			assert.Equal(t, tt.greater, tt.ratio.GreaterThan(threshold))
		})
	}
}

func TestRatio_String(t *testing.T) {
	assert.Equal(t, "Infinite", InfiniteRatio().String())
	assert.Equal(t, "1.50", FiniteRatio(decimal.NewFromFloat(1.5)).String())
	assert.Equal(t, "0.00", ZeroRatio().String())
}

func TestRatio_JSONRoundTrip(t *testing.T) {
	t.Run("infinite", func(t *testing.T) {
		data, err := json.Marshal(InfiniteRatio())
		require.NoError(t, err)
		assert.Equal(t, `"Infinite"`, string(data))

		var r Ratio
		require.NoError(t, json.Unmarshal(data, &r))
		assert.True(t, r.IsInfinite())
	})

	t.Run("finite", func(t *testing.T) {
		data, err := json.Marshal(FiniteRatio(decimal.NewFromFloat(2.75)))
		require.NoError(t, err)

		var r Ratio
		require.NoError(t, json.Unmarshal(data, &r))
		assert.False(t, r.IsInfinite())
		v, ok := r.Value()
		require.True(t, ok)
		assert.True(t, v.Equal(decimal.NewFromFloat(2.75)))
	})
}

func TestRatio_ValueOfSentinel(t *testing.T) {
	_, ok := InfiniteRatio().Value()
	assert.False(t, ok)
}
