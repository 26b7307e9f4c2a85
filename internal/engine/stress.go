package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StressResult projects worst-case exposure under the two sizing policies.
type StressResult struct {
	// SOPARisk is the single-contract worst-case loss.
	SOPARisk decimal.Decimal `json:"sop_a_risk"`

	// SOPBContracts and SOPBRisk scale the operating size by the rulebook
	// factor.
	SOPBContracts int             `json:"sop_b_contracts"`
	SOPBRisk      decimal.Decimal `json:"sop_b_risk"`

	RiskRatio Ratio  `json:"risk_ratio"`
	Warning   string `json:"warning,omitempty"`
}

// RunStressTest computes the exposure projections against the post-audit
// capital. The point value is anchored to the rulebook's designated base
// product, not inferred per trade.
func (a *Auditor) RunStressTest(currentCapital decimal.Decimal) StressResult {
	basePoint, _ := a.rulebook.pointValue(a.rulebook.Stress.BaseProduct)
	maxPoints := a.rulebook.Stress.MaxExposurePoints

	res := StressResult{
		SOPARisk:      maxPoints.Mul(basePoint),
		SOPBContracts: a.account.OperationContracts * a.rulebook.Stress.ContractScaleFactor,
	}
	res.SOPBRisk = maxPoints.Mul(basePoint).Mul(decimal.NewFromInt(int64(res.SOPBContracts)))

	// Non-positive capital yields the Infinite sentinel and, deliberately,
	// no alarm string; the capital breach surfaces elsewhere.
	if currentCapital.IsPositive() {
		res.RiskRatio = FiniteRatio(res.SOPBRisk.Div(currentCapital))
		if ratio, ok := res.RiskRatio.Value(); ok && ratio.GreaterThan(a.rulebook.Stress.AlarmRatio) {
			res.Warning = fmt.Sprintf(
				"scaled exposure %s is %s%% of capital, above the %s%% alarm line",
				res.SOPBRisk.StringFixed(0),
				ratio.Mul(decimal.NewFromInt(100)).StringFixed(1),
				a.rulebook.Stress.AlarmRatio.Mul(decimal.NewFromInt(100)).StringFixed(1),
			)
		}
	} else {
		res.RiskRatio = InfiniteRatio()
	}

	return res
}
