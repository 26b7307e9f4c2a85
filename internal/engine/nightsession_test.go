package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckNightSessions_WindowBoundsInclusive(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	tests := []struct {
		name     string
		ts       string
		violates bool
		rule     string
	}{
		{"before US open window", "2025/12/01 21:14:59", false, ""},
		{"US open window start", "2025/12/01 21:15:00", true, "US Market Open"},
		{"inside US open window", "2025/12/01 21:30:00", true, "US Market Open"},
		{"US open window end", "2025/12/01 21:45:00", true, "US Market Open"},
		{"after US open window", "2025/12/01 21:45:01", false, ""},
		{"FOMC window start", "2025/12/02 01:45:00", true, "FOMC Announcement"},
		{"FOMC window end", "2025/12/02 02:15:00", true, "FOMC Announcement"},
		{"day session", "2025/12/01 10:30:00", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := a.CheckNightSessions([]Trade{
				mkTrade(t, tt.ts, -100, 1, "小型臺指"),
			})
			if !tt.violates {
				assert.Empty(t, violations)
				return
			}
			require.Len(t, violations, 1)
			assert.Equal(t, tt.rule, violations[0].Rule)
		})
	}
}

func TestCheckNightSessions_ChecksAllActionsByDefault(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	closing := mkTrade(t, "2025/12/01 21:30:00", 100, 1, "小型臺指")
	closing.Action = "平倉"

	violations := a.CheckNightSessions([]Trade{closing})
	assert.Len(t, violations, 1)
}

func TestCheckNightSessions_OpeningOnlyMode(t *testing.T) {
	rb := DefaultRulebook()
	rb.NightCheckOpeningOnly = true
	a, err := NewAuditor(rb, testAccount(), nil)
	require.NoError(t, err)

	opening := mkTrade(t, "2025/12/01 21:30:00", 100, 1, "小型臺指")
	opening.Action = "新倉"
	closing := mkTrade(t, "2025/12/01 21:35:00", 100, 1, "小型臺指")
	closing.Action = "平倉"

	violations := a.CheckNightSessions([]Trade{opening, closing})
	require.Len(t, violations, 1)
	assert.Equal(t, "新倉", violations[0].Action)
}

func TestCheckNightSessions_EmptySliceNotNil(t *testing.T) {
	a := newTestAuditor(t, testAccount())

	violations := a.CheckNightSessions(nil)
	// Serializes as [] rather than null.
	assert.NotNil(t, violations)
	assert.Empty(t, violations)
}
