package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CapitalAssessment is the tier-upgrade evaluation, including the quarterly
// cost deduction applied before the capital-key comparison.
type CapitalAssessment struct {
	Scale     string `json:"scale"`
	NextScale string `json:"next_scale,omitempty"`

	CapitalBefore decimal.Decimal `json:"capital_before"`
	QuarterlyCost decimal.Decimal `json:"quarterly_cost_deducted"`
	CapitalAfter  decimal.Decimal `json:"capital_after"`
	QuarterEnd    bool            `json:"quarter_end"`

	Eligible bool   `json:"upgrade_eligible"`
	Reason   string `json:"reason"`
}

// EvaluateCapital checks double-key upgrade eligibility. latestTrade is the
// timestamp of the newest trade in the evaluated set; a zero value (empty
// set) never triggers the quarterly deduction. The risk/reward sentinel
// satisfies any threshold.
func (a *Auditor) EvaluateCapital(currentCapital decimal.Decimal, winRate float64, riskReward Ratio, latestTrade time.Time) CapitalAssessment {
	criteria := a.criteria

	res := CapitalAssessment{
		Scale:         a.account.Scale,
		NextScale:     criteria.NextScale,
		CapitalBefore: currentCapital,
		QuarterlyCost: decimal.Zero,
		CapitalAfter:  currentCapital,
	}

	if !latestTrade.IsZero() && a.rulebook.IsQuarterEnd(latestTrade.Month()) {
		res.QuarterEnd = true
		res.QuarterlyCost = a.rulebook.QuarterlyCost
		res.CapitalAfter = currentCapital.Sub(a.rulebook.QuarterlyCost)
	}

	if criteria.NextScale == "" {
		res.Reason = "no further upgrade path from this scale"
		return res
	}

	capitalOK := res.CapitalAfter.GreaterThanOrEqual(criteria.CapitalThreshold)
	perfOK := riskReward.AtLeast(criteria.RiskRewardThreshold) && winRate >= criteria.WinRateThreshold

	if capitalOK && perfOK {
		res.Eligible = true
		res.Reason = fmt.Sprintf("all conditions met for %s", criteria.NextScale)
		return res
	}

	var reasons []string
	if !capitalOK {
		reasons = append(reasons, fmt.Sprintf(
			"capital key not met (%s < %s)",
			res.CapitalAfter.StringFixed(0), criteria.CapitalThreshold.StringFixed(0)))
	}
	if !perfOK {
		reasons = append(reasons, fmt.Sprintf(
			"performance key not met (RR: %s vs %s, WR: %.2f%% vs %.2f%%)",
			riskReward, criteria.RiskRewardThreshold.StringFixed(2),
			winRate*100, criteria.WinRateThreshold*100))
	}
	res.Reason = strings.Join(reasons, ", ")
	return res
}
