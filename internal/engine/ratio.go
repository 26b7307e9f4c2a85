package engine

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Ratio is a risk/reward style quotient that is either a finite decimal or
// the Infinite sentinel. The sentinel arises when the divisor is zero (all
// wins and no losses, or zero capital) and must compare as "always satisfies
// >= threshold". It is never represented as a floating-point infinity.
type Ratio struct {
	infinite bool
	value    decimal.Decimal
}

// FiniteRatio wraps a concrete decimal value.
func FiniteRatio(v decimal.Decimal) Ratio {
	return Ratio{value: v}
}

// InfiniteRatio returns the sentinel value.
func InfiniteRatio() Ratio {
	return Ratio{infinite: true}
}

// ZeroRatio is the finite zero value used for empty trade sets.
func ZeroRatio() Ratio {
	return Ratio{value: decimal.Zero}
}

// IsInfinite reports whether the ratio is the sentinel.
func (r Ratio) IsInfinite() bool {
	return r.infinite
}

// Value returns the finite value and true, or zero and false for the sentinel.
func (r Ratio) Value() (decimal.Decimal, bool) {
	if r.infinite {
		return decimal.Zero, false
	}
	return r.value, true
}

// AtLeast reports whether the ratio satisfies a >= threshold comparison.
// The Infinite sentinel satisfies every threshold.
func (r Ratio) AtLeast(threshold decimal.Decimal) bool {
	if r.infinite {
		return true
	}
	return r.value.GreaterThanOrEqual(threshold)
}

// GreaterThan reports a strict > comparison. The sentinel exceeds everything.
func (r Ratio) GreaterThan(threshold decimal.Decimal) bool {
	if r.infinite {
		return true
	}
	return r.value.GreaterThan(threshold)
}

func (r Ratio) String() string {
	if r.infinite {
		return "Infinite"
	}
	return r.value.StringFixed(2)
}

// MarshalJSON emits a tagged string for the sentinel and a decimal string
// otherwise, so serialized reports never contain non-finite numbers.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.infinite {
		return json.Marshal("Infinite")
	}
	return r.value.MarshalJSON()
}

// UnmarshalJSON accepts the tagged form produced by MarshalJSON.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s == "Infinite" {
		*r = InfiniteRatio()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*r = FiniteRatio(v)
	return nil
}
