package engine

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ClockTime is a local wall-clock time expressed as seconds since midnight.
type ClockTime int

// ParseClock parses a "15:04:05" clock string.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(c)/3600, int(c)/60%60, int(c)%60)
}

// MarshalJSON serializes the clock time in its "15:04:05" form.
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// PointValue maps a product-name substring to its currency value per point.
// The table is ordered: the first entry whose product string is contained in
// a trade's product name wins, so more specific names must come first.
type PointValue struct {
	Product string          `json:"product"`
	Value   decimal.Decimal `json:"value"`
}

// TierCriteria holds the double-key upgrade thresholds for one scale.
// A tier with an empty NextScale is terminal.
type TierCriteria struct {
	NextScale           string          `json:"next_scale,omitempty"`
	CapitalThreshold    decimal.Decimal `json:"capital_threshold"`
	RiskRewardThreshold decimal.Decimal `json:"rr_threshold"`
	WinRateThreshold    float64         `json:"wr_threshold"`
}

// NightWindow is a restricted trading window in local clock time,
// bounds inclusive.
type NightWindow struct {
	Name  string    `json:"name"`
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Contains reports whether the clock second falls inside the window,
// start and end inclusive.
func (w NightWindow) Contains(c ClockTime) bool {
	return w.Start <= c && c <= w.End
}

// DNAThresholds parameterize the trading-DNA diagnosis.
type DNAThresholds struct {
	NoisePoints        decimal.Decimal `json:"noise_point_threshold"`
	NoiseShare         float64         `json:"noise_share_threshold"`
	TrendWinRate       float64         `json:"trend_win_rate_threshold"`
	MonthlyPointTarget decimal.Decimal `json:"monthly_point_target"`
}

// StressParams parameterize the risk stress test. BaseProduct names the
// designated instrument whose point value anchors the exposure figures.
type StressParams struct {
	MaxExposurePoints   decimal.Decimal `json:"max_exposure_points"`
	BaseProduct         string          `json:"base_product"`
	AlarmRatio          decimal.Decimal `json:"risk_ratio_alarm"`
	ContractScaleFactor int             `json:"contract_scale_factor"`
}

// MoatRule locks positive-period profit into full reinvestment during a
// fixed calendar window.
type MoatRule struct {
	Enabled bool      `json:"enabled"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Rulebook is the complete, immutable D-Pro Protocol constant set. It is
// constructed once at process start and passed explicitly into the auditor;
// nothing in the engine reads it as global state.
type Rulebook struct {
	Version string `json:"version"`

	PointValues []PointValue            `json:"point_values"`
	Tiers       map[string]TierCriteria `json:"tiers"`

	NightWindows          []NightWindow `json:"night_windows"`
	NightCheckOpeningOnly bool          `json:"night_check_opening_only"`
	OpeningActions        []string      `json:"opening_actions,omitempty"`

	DNA    DNAThresholds `json:"dna"`
	Stress StressParams  `json:"stress"`

	DailyLossStopCount  int             `json:"daily_loss_stop_count"`
	StrategyBreakerDays int             `json:"strategy_breaker_days"`
	MonthlyDrawdownRate decimal.Decimal `json:"monthly_drawdown_rate"`

	QuarterlyCost    decimal.Decimal `json:"quarterly_cost"`
	QuarterEndMonths []time.Month    `json:"quarter_end_months"`

	IncentiveRate decimal.Decimal `json:"incentive_rate"`
	Moat          MoatRule        `json:"moat_rule"`
}

// DefaultRulebook returns the built-in D-Pro Protocol V7.3 constant set.
func DefaultRulebook() *Rulebook {
	return &Rulebook{
		Version: "D-Pro V7.3",

		// Taiwan index futures. 小型/微型 must precede 臺指 because the
		// lookup is first-substring-match.
		PointValues: []PointValue{
			{Product: "小型臺指", Value: decimal.NewFromInt(50)},
			{Product: "微型臺指", Value: decimal.NewFromInt(10)},
			{Product: "臺指", Value: decimal.NewFromInt(200)},
		},

		Tiers: map[string]TierCriteria{
			"S1": {NextScale: "S2", CapitalThreshold: decimal.NewFromInt(200000), RiskRewardThreshold: decimal.NewFromFloat(1.5), WinRateThreshold: 0.25},
			"S2": {NextScale: "S3", CapitalThreshold: decimal.NewFromInt(400000), RiskRewardThreshold: decimal.NewFromFloat(2.0), WinRateThreshold: 0.30},
			"S3": {NextScale: "S4", CapitalThreshold: decimal.NewFromInt(600000), RiskRewardThreshold: decimal.NewFromFloat(2.0), WinRateThreshold: 0.33},
			"S4": {NextScale: "S5", CapitalThreshold: decimal.NewFromInt(800000), RiskRewardThreshold: decimal.NewFromFloat(2.5), WinRateThreshold: 0.35},
			// Terminal tier keeps performance keys for incentive checks.
			"S5": {CapitalThreshold: decimal.NewFromInt(800000), RiskRewardThreshold: decimal.NewFromFloat(2.5), WinRateThreshold: 0.35},
		},

		NightWindows: []NightWindow{
			{Name: "US Market Open", Start: mustClock("21:15:00"), End: mustClock("21:45:00")},
			{Name: "FOMC Announcement", Start: mustClock("01:45:00"), End: mustClock("02:15:00")},
		},
		NightCheckOpeningOnly: false,
		OpeningActions:        []string{"新倉", "Buy", "買進"},

		DNA: DNAThresholds{
			NoisePoints:        decimal.NewFromInt(10),
			NoiseShare:         0.60,
			TrendWinRate:       0.50,
			MonthlyPointTarget: decimal.NewFromInt(100),
		},

		Stress: StressParams{
			MaxExposurePoints:   decimal.NewFromInt(100),
			BaseProduct:         "小型臺指",
			AlarmRatio:          decimal.NewFromFloat(0.20),
			ContractScaleFactor: 2,
		},

		DailyLossStopCount:  3,
		StrategyBreakerDays: 10,
		MonthlyDrawdownRate: decimal.NewFromFloat(0.15),

		QuarterlyCost:    decimal.NewFromInt(25000),
		QuarterEndMonths: []time.Month{time.March, time.June, time.September, time.December},

		IncentiveRate: decimal.NewFromFloat(0.10),
		Moat: MoatRule{
			Enabled: true,
			Start:   time.Date(2026, time.January, 1, 0, 0, 0, 0, time.Local),
			End:     time.Date(2026, time.August, 31, 23, 59, 59, 0, time.Local),
		},
	}
}

func mustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate checks internal consistency of the rulebook.
func (rb *Rulebook) Validate() error {
	if len(rb.PointValues) == 0 {
		return fmt.Errorf("rulebook: point value table is empty")
	}
	if len(rb.Tiers) == 0 {
		return fmt.Errorf("rulebook: tier ladder is empty")
	}
	for scale, c := range rb.Tiers {
		if c.NextScale == "" {
			continue
		}
		if _, ok := rb.Tiers[c.NextScale]; !ok {
			return fmt.Errorf("rulebook: tier %s points to unknown tier %s", scale, c.NextScale)
		}
	}
	if _, ok := rb.pointValue(rb.Stress.BaseProduct); !ok {
		return fmt.Errorf("rulebook: stress base product %q not in point value table", rb.Stress.BaseProduct)
	}
	for _, w := range rb.NightWindows {
		if w.Start > w.End {
			return fmt.Errorf("rulebook: night window %q starts after it ends", w.Name)
		}
	}
	if rb.ContractScaleFactor() <= 0 {
		return fmt.Errorf("rulebook: contract scale factor must be positive")
	}
	return nil
}

func (rb *Rulebook) ContractScaleFactor() int {
	return rb.Stress.ContractScaleFactor
}

// ValidScales returns the tier ladder keys in ascending order.
func (rb *Rulebook) ValidScales() []string {
	scales := make([]string, 0, len(rb.Tiers))
	for s := range rb.Tiers {
		scales = append(scales, s)
	}
	sort.Strings(scales)
	return scales
}

// Criteria looks up the upgrade criteria for a scale.
func (rb *Rulebook) Criteria(scale string) (TierCriteria, bool) {
	c, ok := rb.Tiers[scale]
	return c, ok
}

// pointValue resolves a product name against the ordered table by
// substring match; first match wins.
func (rb *Rulebook) pointValue(productName string) (decimal.Decimal, bool) {
	for _, pv := range rb.PointValues {
		if pv.Product != "" && strings.Contains(productName, pv.Product) {
			return pv.Value, true
		}
	}
	return decimal.Zero, false
}

// IsQuarterEnd reports whether the month triggers the quarterly cost.
func (rb *Rulebook) IsQuarterEnd(m time.Month) bool {
	for _, qm := range rb.QuarterEndMonths {
		if qm == m {
			return true
		}
	}
	return false
}

// isOpeningAction reports whether an action label marks a position-opening
// trade, for the legacy opening-only night check.
func (rb *Rulebook) isOpeningAction(action string) bool {
	for _, a := range rb.OpeningActions {
		if a == action {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// YAML loading

// rulebookFile is the on-disk YAML shape; decimals travel as floats and
// clock times as strings.
type rulebookFile struct {
	Version     string `yaml:"version"`
	PointValues []struct {
		Product string  `yaml:"product"`
		Value   float64 `yaml:"value"`
	} `yaml:"point_values"`
	Tiers map[string]struct {
		NextScale           string  `yaml:"next_scale"`
		CapitalThreshold    float64 `yaml:"capital_threshold"`
		RiskRewardThreshold float64 `yaml:"rr_threshold"`
		WinRateThreshold    float64 `yaml:"wr_threshold"`
	} `yaml:"tiers"`
	NightWindows []struct {
		Name  string `yaml:"name"`
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"night_windows"`
	NightCheckOpeningOnly bool     `yaml:"night_check_opening_only"`
	OpeningActions        []string `yaml:"opening_actions"`
	DNA                   struct {
		NoisePoints        float64 `yaml:"noise_point_threshold"`
		NoiseShare         float64 `yaml:"noise_share_threshold"`
		TrendWinRate       float64 `yaml:"trend_win_rate_threshold"`
		MonthlyPointTarget float64 `yaml:"monthly_point_target"`
	} `yaml:"dna"`
	Stress struct {
		MaxExposurePoints   float64 `yaml:"max_exposure_points"`
		BaseProduct         string  `yaml:"base_product"`
		AlarmRatio          float64 `yaml:"risk_ratio_alarm"`
		ContractScaleFactor int     `yaml:"contract_scale_factor"`
	} `yaml:"stress"`
	DailyLossStopCount  int     `yaml:"daily_loss_stop_count"`
	StrategyBreakerDays int     `yaml:"strategy_breaker_days"`
	MonthlyDrawdownRate float64 `yaml:"monthly_drawdown_rate"`
	QuarterlyCost       float64 `yaml:"quarterly_cost"`
	QuarterEndMonths    []int   `yaml:"quarter_end_months"`
	IncentiveRate       float64 `yaml:"incentive_rate"`
	Moat                struct {
		Enabled bool   `yaml:"enabled"`
		Start   string `yaml:"start"`
		End     string `yaml:"end"`
	} `yaml:"moat_rule"`
}

// LoadRulebook reads a full rulebook from a YAML file. Unknown fields fail
// immediately so a typo cannot silently fall back to a default.
func LoadRulebook(path string) (*Rulebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}

	var rf rulebookFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return nil, fmt.Errorf("parse rulebook: %w", err)
	}

	rb := &Rulebook{
		Version:               rf.Version,
		NightCheckOpeningOnly: rf.NightCheckOpeningOnly,
		OpeningActions:        rf.OpeningActions,
		DNA: DNAThresholds{
			NoisePoints:        decimal.NewFromFloat(rf.DNA.NoisePoints),
			NoiseShare:         rf.DNA.NoiseShare,
			TrendWinRate:       rf.DNA.TrendWinRate,
			MonthlyPointTarget: decimal.NewFromFloat(rf.DNA.MonthlyPointTarget),
		},
		Stress: StressParams{
			MaxExposurePoints:   decimal.NewFromFloat(rf.Stress.MaxExposurePoints),
			BaseProduct:         rf.Stress.BaseProduct,
			AlarmRatio:          decimal.NewFromFloat(rf.Stress.AlarmRatio),
			ContractScaleFactor: rf.Stress.ContractScaleFactor,
		},
		DailyLossStopCount:  rf.DailyLossStopCount,
		StrategyBreakerDays: rf.StrategyBreakerDays,
		MonthlyDrawdownRate: decimal.NewFromFloat(rf.MonthlyDrawdownRate),
		QuarterlyCost:       decimal.NewFromFloat(rf.QuarterlyCost),
		IncentiveRate:       decimal.NewFromFloat(rf.IncentiveRate),
	}

	for _, pv := range rf.PointValues {
		rb.PointValues = append(rb.PointValues, PointValue{
			Product: pv.Product,
			Value:   decimal.NewFromFloat(pv.Value),
		})
	}

	rb.Tiers = make(map[string]TierCriteria, len(rf.Tiers))
	for scale, t := range rf.Tiers {
		rb.Tiers[scale] = TierCriteria{
			NextScale:           t.NextScale,
			CapitalThreshold:    decimal.NewFromFloat(t.CapitalThreshold),
			RiskRewardThreshold: decimal.NewFromFloat(t.RiskRewardThreshold),
			WinRateThreshold:    t.WinRateThreshold,
		}
	}

	for _, w := range rf.NightWindows {
		start, err := ParseClock(w.Start)
		if err != nil {
			return nil, fmt.Errorf("night window %q: %w", w.Name, err)
		}
		end, err := ParseClock(w.End)
		if err != nil {
			return nil, fmt.Errorf("night window %q: %w", w.Name, err)
		}
		rb.NightWindows = append(rb.NightWindows, NightWindow{Name: w.Name, Start: start, End: end})
	}

	for _, m := range rf.QuarterEndMonths {
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("invalid quarter-end month %d", m)
		}
		rb.QuarterEndMonths = append(rb.QuarterEndMonths, time.Month(m))
	}

	if rf.Moat.Enabled {
		start, err := time.ParseInLocation("2006-01-02", rf.Moat.Start, time.Local)
		if err != nil {
			return nil, fmt.Errorf("moat rule start: %w", err)
		}
		end, err := time.ParseInLocation("2006-01-02", rf.Moat.End, time.Local)
		if err != nil {
			return nil, fmt.Errorf("moat rule end: %w", err)
		}
		rb.Moat = MoatRule{Enabled: true, Start: start, End: end.Add(24*time.Hour - time.Second)}
	}

	if err := rb.Validate(); err != nil {
		return nil, err
	}

	return rb, nil
}
