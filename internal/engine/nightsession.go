package engine

import "time"

// NightViolation records one trade falling inside a restricted window.
// A single trade can violate more than one window.
type NightViolation struct {
	Rule   string    `json:"rule"`
	Time   time.Time `json:"violation_time"`
	Action string    `json:"action"`
}

// CheckNightSessions flags trades whose local clock time falls inside a
// configured restricted window, bounds inclusive. Every trade is checked
// unless the rulebook restores the legacy opening-actions-only behavior.
func (a *Auditor) CheckNightSessions(trades []Trade) []NightViolation {
	violations := make([]NightViolation, 0)
	for _, t := range trades {
		if a.rulebook.NightCheckOpeningOnly && !a.rulebook.isOpeningAction(t.Action) {
			continue
		}
		clock := ClockTime(t.clockSeconds())
		for _, w := range a.rulebook.NightWindows {
			if w.Contains(clock) {
				violations = append(violations, NightViolation{
					Rule:   w.Name,
					Time:   t.Timestamp,
					Action: t.Action,
				})
			}
		}
	}
	return violations
}
