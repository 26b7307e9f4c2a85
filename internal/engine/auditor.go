package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dproquant/tradecheck/pkg/logger"
)

// Account is the caller-supplied context for one audit. Current capital is
// never an input: the engine derives it from the start capital plus the
// audited set's total net P&L.
type Account struct {
	MonthlyStartCapital decimal.Decimal `json:"monthly_start_capital"`
	Scale               string          `json:"scale"`
	OperationContracts  int             `json:"operation_contracts"`
}

// Auditor evaluates a trade set against the D-Pro Protocol rulebook. It is
// a pure synchronous transformation: one Run call performs no I/O beyond
// logging and mutates nothing shared across calls.
type Auditor struct {
	rulebook *Rulebook
	account  Account
	criteria TierCriteria
	logger   *logger.Logger
	clock    func() time.Time
}

// NewAuditor validates the account context against the rulebook and fails
// fast on an unknown scale.
func NewAuditor(rb *Rulebook, account Account, log *logger.Logger) (*Auditor, error) {
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	criteria, ok := rb.Criteria(account.Scale)
	if !ok {
		return nil, fmt.Errorf("invalid scale %q: must be one of %s",
			account.Scale, strings.Join(rb.ValidScales(), ", "))
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Auditor{
		rulebook: rb,
		account:  account,
		criteria: criteria,
		logger:   log,
		clock:    time.Now,
	}, nil
}

// WithClock overrides the wall clock, for reproducible reports in tests.
func (a *Auditor) WithClock(clock func() time.Time) *Auditor {
	a.clock = clock
	return a
}

// AccountStatus echoes the account context plus the derived capital.
type AccountStatus struct {
	Scale               string          `json:"scale"`
	MonthlyStartCapital decimal.Decimal `json:"monthly_start_capital"`
	OperationContracts  int             `json:"operation_contracts"`
	TotalNetPnL         decimal.Decimal `json:"total_net_pnl"`
	CurrentCapital      decimal.Decimal `json:"current_capital"`
}

// Report is the read-only audit result. It is constructed once per Run call
// and never mutated afterwards.
type Report struct {
	GeneratedAt    time.Time `json:"generated_at"`
	RulesetVersion string    `json:"ruleset_version"`

	Account AccountStatus `json:"account_status"`

	KPI             KPIResult         `json:"kpi_metrics"`
	Safety          SafetyResult      `json:"safety_checks"`
	NightViolations []NightViolation  `json:"night_session_violations"`
	DNA             DNAResult         `json:"trading_dna"`
	Stress          StressResult      `json:"risk_stress_test"`
	Capital         CapitalAssessment `json:"capital_management"`
	Incentive       IncentiveResult   `json:"happiness_incentive"`

	Monthly []MonthlySummary `json:"monthly_summary"`
	Yearly  []YearlySummary  `json:"yearly_summary"`

	// Rulebook echoes the constant set the report was produced under.
	Rulebook *Rulebook `json:"rulebook"`
}

// Run executes the full audit over the supplied trade set.
func (a *Auditor) Run(trades []Trade) (*Report, error) {
	for i, t := range trades {
		if t.Timestamp.IsZero() {
			return nil, fmt.Errorf("trade %d has no resolvable timestamp", i)
		}
	}

	annotated := a.annotatePoints(trades)

	kpi := a.CalculateKPIs(annotated)
	currentCapital := a.account.MonthlyStartCapital.Add(kpi.NetPnL)

	var latest time.Time
	for _, t := range annotated {
		if t.Timestamp.After(latest) {
			latest = t.Timestamp
		}
	}

	monthly, err := a.summarizeMonths(annotated, currentCapital)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:    a.clock(),
		RulesetVersion: a.rulebook.Version,
		Account: AccountStatus{
			Scale:               a.account.Scale,
			MonthlyStartCapital: a.account.MonthlyStartCapital,
			OperationContracts:  a.account.OperationContracts,
			TotalNetPnL:         kpi.NetPnL,
			CurrentCapital:      currentCapital,
		},
		KPI:             kpi,
		Safety:          a.CheckSafetyValves(annotated),
		NightViolations: a.CheckNightSessions(annotated),
		DNA:             a.DiagnoseDNA(annotated),
		Stress:          a.RunStressTest(currentCapital),
		Capital:         a.EvaluateCapital(currentCapital, kpi.WinRate, kpi.RiskReward, latest),
		Incentive:       a.EvaluateIncentive(kpi.NetPnL, kpi.WinRate, kpi.RiskReward),
		Monthly:         monthly,
		Yearly:          a.summarizeYears(annotated),
		Rulebook:        a.rulebook,
	}

	a.logger.WithFields(map[string]interface{}{
		"trades":          len(trades),
		"net_pnl":         kpi.NetPnL.String(),
		"win_rate":        kpi.WinRate,
		"current_capital": currentCapital.String(),
	}).Info("Audit completed")

	return report, nil
}

// annotatePoints derives per-trade points against the product table. A
// zero-contract trade gets zero points; an unresolvable product leaves
// points undefined. Both are soft failures.
func (a *Auditor) annotatePoints(trades []Trade) []Trade {
	annotated := make([]Trade, len(trades))
	for i, t := range trades {
		if t.Contracts == 0 {
			zero := decimal.Zero
			t.Points = &zero
			a.logger.WithField("timestamp", t.Timestamp).Warn("Zero-contract trade, points set to 0")
			annotated[i] = t
			continue
		}

		pv, ok := a.rulebook.pointValue(t.ProductName)
		if !ok || !pv.IsPositive() {
			t.Points = nil
			a.logger.WithField("product", t.ProductName).Warn("No point value for product, trade excluded from DNA diagnosis")
			annotated[i] = t
			continue
		}

		points := t.NetPnL.Div(decimal.NewFromInt(int64(t.Contracts)).Mul(pv))
		t.Points = &points
		annotated[i] = t
	}
	return annotated
}

// ToJSON serializes the report with indentation.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ToSummary renders a human-readable digest for CLI output.
func (r *Report) ToSummary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== D-Pro Audit Report (%s) ===\n", r.RulesetVersion)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "Account: scale=%s start=%s pnl=%s capital=%s\n",
		r.Account.Scale,
		r.Account.MonthlyStartCapital.StringFixed(0),
		r.Account.TotalNetPnL.StringFixed(2),
		r.Account.CurrentCapital.StringFixed(2))

	fmt.Fprintf(&b, "KPI: win_rate=%.2f%% rr=%s trades=%d\n",
		r.KPI.WinRate*100, r.KPI.RiskReward, r.KPI.TradeCount)

	fmt.Fprintf(&b, "Safety: daily_stop_days=%d strategy_breaker=%v monthly=%s\n",
		r.Safety.DailyStopViolationDays, r.Safety.StrategyCircuitBreaker, r.Safety.MonthlyCircuitBreaker)

	fmt.Fprintf(&b, "Night violations: %d\n", len(r.NightViolations))
	for _, v := range r.NightViolations {
		fmt.Fprintf(&b, "  - %s at %s (%s)\n", v.Rule, v.Time.Format("2006-01-02 15:04:05"), v.Action)
	}

	fmt.Fprintf(&b, "DNA: noise=%s trend=%s points=%s/%s\n",
		r.DNA.NoiseVerdict, r.DNA.TrendVerdict,
		r.DNA.TotalPoints.StringFixed(1), r.DNA.MonthlyPointTarget.StringFixed(0))

	fmt.Fprintf(&b, "Stress: sop_a=%s sop_b=%s ratio=%s\n",
		r.Stress.SOPARisk.StringFixed(0), r.Stress.SOPBRisk.StringFixed(0), r.Stress.RiskRatio)
	if r.Stress.Warning != "" {
		fmt.Fprintf(&b, "  ⚠️ %s\n", r.Stress.Warning)
	}

	fmt.Fprintf(&b, "Upgrade: eligible=%v (%s)\n", r.Capital.Eligible, r.Capital.Reason)
	fmt.Fprintf(&b, "Incentive: %s amount=%s\n", r.Incentive.Status, r.Incentive.Amount.StringFixed(0))

	fmt.Fprintf(&b, "\nMonthly summary (%d):\n", len(r.Monthly))
	for _, m := range r.Monthly {
		fmt.Fprintf(&b, "  %s: pnl=%s wr=%.2f%% rr=%s trades=%d\n",
			m.Month, m.KPI.NetPnL.StringFixed(2), m.KPI.WinRate*100, m.KPI.RiskReward, m.TradeCount)
	}

	return b.String()
}
