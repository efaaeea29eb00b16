package recommend

import "time"

// InteractionSummary is the compact behavioral summary consumed by the
// scoring engine
type InteractionSummary struct {
	MostCommonAction string         `json:"most_common_interaction,omitempty"`
	ActionCounts     map[string]int `json:"action_counts,omitempty"`
	ActiveHours      bool           `json:"active_hours"`
}

// Aggregator reduces a time-windowed interaction log into an
// InteractionSummary. It is a pure read-side reducer apart from reading the
// clock for the active-hours flag.
type Aggregator struct {
	activeStartHour int
	activeEndHour   int
	clock           func() time.Time
}

// NewAggregator creates an aggregator with the given local active-hours
// window (inclusive start and end hours).
func NewAggregator(activeStartHour, activeEndHour int) *Aggregator {
	return &Aggregator{
		activeStartHour: activeStartHour,
		activeEndHour:   activeEndHour,
		clock:           time.Now,
	}
}

// Summarize counts action types and selects the most common one. Ties are
// broken first-encountered-wins, stable over the input order. Empty input
// yields an empty summary with the flag false.
func (a *Aggregator) Summarize(interactions []Interaction) InteractionSummary {
	if len(interactions) == 0 {
		return InteractionSummary{}
	}

	counts := make(map[string]int, 8)
	var order []string
	for _, interaction := range interactions {
		action := interaction.ActionType
		if action == "" {
			action = "unknown"
		}
		if counts[action] == 0 {
			order = append(order, action)
		}
		counts[action]++
	}

	// Resolve after counting, walking first-occurrence order so the
	// earliest-seen action wins ties regardless of when counts peaked
	mostCommon := ""
	best := 0
	for _, action := range order {
		if counts[action] > best {
			best = counts[action]
			mostCommon = action
		}
	}

	return InteractionSummary{
		MostCommonAction: mostCommon,
		ActionCounts:     counts,
		ActiveHours:      a.withinActiveHours(),
	}
}

func (a *Aggregator) withinActiveHours() bool {
	hour := a.clock().Hour()
	return hour >= a.activeStartHour && hour <= a.activeEndHour
}
