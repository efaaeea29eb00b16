package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 3, 1, hour, 30, 0, 0, time.UTC)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	agg := NewAggregator(9, 23)
	agg.clock = fixedClock(12)

	summary := agg.Summarize(nil)

	assert.Empty(t, summary.MostCommonAction)
	assert.Nil(t, summary.ActionCounts)
	assert.False(t, summary.ActiveHours)
}

func TestSummarizeMostCommonAction(t *testing.T) {
	agg := NewAggregator(9, 23)
	agg.clock = fixedClock(12)

	summary := agg.Summarize([]Interaction{
		{ActionType: ActionPlay},
		{ActionType: ActionLike},
		{ActionType: ActionLike},
		{ActionType: ActionSkip},
		{ActionType: ActionLike},
	})

	assert.Equal(t, ActionLike, summary.MostCommonAction)
	assert.Equal(t, map[string]int{
		ActionPlay: 1,
		ActionLike: 3,
		ActionSkip: 1,
	}, summary.ActionCounts)
}

func TestSummarizeTieKeepsFirstEncountered(t *testing.T) {
	tests := []struct {
		name    string
		actions []string
		want    string
	}{
		// Interleaved so the later-encountered action reaches the top
		// count first; insertion order still decides the tie.
		{"tie peaks on later action", []string{ActionPlay, ActionSkip, ActionSkip, ActionPlay}, ActionPlay},
		{"tie peaks on earlier action", []string{ActionSkip, ActionPlay, ActionPlay, ActionSkip}, ActionSkip},
		{"three-way tie", []string{ActionLike, ActionPlay, ActionSkip}, ActionLike},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(9, 23)
			agg.clock = fixedClock(12)

			interactions := make([]Interaction, len(tt.actions))
			for i, action := range tt.actions {
				interactions[i] = Interaction{ActionType: action}
			}

			summary := agg.Summarize(interactions)
			assert.Equal(t, tt.want, summary.MostCommonAction)
		})
	}
}

func TestSummarizeNormalizesEmptyAction(t *testing.T) {
	agg := NewAggregator(9, 23)
	agg.clock = fixedClock(12)

	summary := agg.Summarize([]Interaction{
		{ActionType: ""},
		{ActionType: ""},
		{ActionType: ActionPlay},
	})

	assert.Equal(t, "unknown", summary.MostCommonAction)
	assert.Equal(t, 2, summary.ActionCounts["unknown"])
}

func TestActiveHoursWindow(t *testing.T) {
	tests := []struct {
		name   string
		hour   int
		active bool
	}{
		{"before window", 8, false},
		{"window start inclusive", 9, true},
		{"midday", 14, true},
		{"window end inclusive", 23, true},
		{"after midnight", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(9, 23)
			agg.clock = fixedClock(tt.hour)

			summary := agg.Summarize([]Interaction{{ActionType: ActionPlay}})
			assert.Equal(t, tt.active, summary.ActiveHours)
		})
	}
}
