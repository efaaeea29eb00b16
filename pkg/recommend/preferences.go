package recommend

import (
	"fmt"
	"time"
)

// DefaultPreferences returns the profile created on first access for a
// user: empty genre list, tempo range [60,180], energy range [0,1],
// balanced discovery, zero confidence.
func DefaultPreferences(userID string, now time.Time) *UserPreferences {
	return &UserPreferences{
		UserID:            userID,
		GenrePreferences:  []string{},
		TempoRange:        Range{Min: 60.0, Max: 180.0},
		EnergyRange:       Range{Min: 0.0, Max: 1.0},
		ValenceRange:      Range{Min: 0.0, Max: 1.0},
		LoudnessRange:     Range{Min: -60.0, Max: 0.0},
		DanceabilityRange: Range{Min: 0.0, Max: 1.0},
		DiscoveryMode:     DiscoveryBalanced,
		ConfidenceScore:   0.0,
		InteractionCount:  0,
		LearningEnabled:   true,
		LastUpdated:       now,
	}
}

// PreferenceUpdate is one allow-listed, validated mutation of a preference
// profile. Unknown fields never reach a profile: callers construct updates
// from this closed set only.
type PreferenceUpdate interface {
	Field() string
	apply(p *UserPreferences) error
}

// SetGenrePreferences replaces the preferred genre list
type SetGenrePreferences struct{ Genres []string }

func (u SetGenrePreferences) Field() string { return "genrePreferences" }

func (u SetGenrePreferences) apply(p *UserPreferences) error {
	for _, g := range u.Genres {
		if g == "" {
			return fmt.Errorf("genrePreferences: empty genre name")
		}
	}
	p.GenrePreferences = append([]string(nil), u.Genres...)
	return nil
}

// SetTempoRange replaces the tempo window (BPM)
type SetTempoRange struct{ Range Range }

func (u SetTempoRange) Field() string { return "tempoRange" }

func (u SetTempoRange) apply(p *UserPreferences) error {
	if err := validateRange("tempoRange", u.Range, 0, 400); err != nil {
		return err
	}
	p.TempoRange = u.Range
	return nil
}

// SetEnergyRange replaces the energy window
type SetEnergyRange struct{ Range Range }

func (u SetEnergyRange) Field() string { return "energyRange" }

func (u SetEnergyRange) apply(p *UserPreferences) error {
	if err := validateRange("energyRange", u.Range, 0, 1); err != nil {
		return err
	}
	p.EnergyRange = u.Range
	return nil
}

// SetValenceRange replaces the valence window
type SetValenceRange struct{ Range Range }

func (u SetValenceRange) Field() string { return "valenceRange" }

func (u SetValenceRange) apply(p *UserPreferences) error {
	if err := validateRange("valenceRange", u.Range, 0, 1); err != nil {
		return err
	}
	p.ValenceRange = u.Range
	return nil
}

// SetLoudnessRange replaces the loudness window (dBFS)
type SetLoudnessRange struct{ Range Range }

func (u SetLoudnessRange) Field() string { return "loudnessRange" }

func (u SetLoudnessRange) apply(p *UserPreferences) error {
	if err := validateRange("loudnessRange", u.Range, -60, 0); err != nil {
		return err
	}
	p.LoudnessRange = u.Range
	return nil
}

// SetDanceabilityRange replaces the danceability window
type SetDanceabilityRange struct{ Range Range }

func (u SetDanceabilityRange) Field() string { return "danceabilityRange" }

func (u SetDanceabilityRange) apply(p *UserPreferences) error {
	if err := validateRange("danceabilityRange", u.Range, 0, 1); err != nil {
		return err
	}
	p.DanceabilityRange = u.Range
	return nil
}

// SetDiscoveryMode switches the discovery mode
type SetDiscoveryMode struct{ Mode DiscoveryMode }

func (u SetDiscoveryMode) Field() string { return "discoveryMode" }

func (u SetDiscoveryMode) apply(p *UserPreferences) error {
	switch u.Mode {
	case DiscoveryExplore, DiscoveryBalanced, DiscoveryExploit:
		p.DiscoveryMode = u.Mode
		return nil
	}
	return fmt.Errorf("discoveryMode: unknown mode %q", u.Mode)
}

// SetConfidenceScore sets profile confidence, bounded to [0,1]
type SetConfidenceScore struct{ Score float64 }

func (u SetConfidenceScore) Field() string { return "confidenceScore" }

func (u SetConfidenceScore) apply(p *UserPreferences) error {
	if u.Score < 0 || u.Score > 1 {
		return fmt.Errorf("confidenceScore: %v outside [0,1]", u.Score)
	}
	p.ConfidenceScore = u.Score
	return nil
}

// SetLearningEnabled toggles preference learning
type SetLearningEnabled struct{ Enabled bool }

func (u SetLearningEnabled) Field() string { return "learningEnabled" }

func (u SetLearningEnabled) apply(p *UserPreferences) error {
	p.LearningEnabled = u.Enabled
	return nil
}

// ApplyUpdates validates and applies the given updates. Any invalid update
// rejects the whole batch, leaving the profile untouched. A successful
// batch increments the interaction counter and refreshes the timestamp.
func ApplyUpdates(p *UserPreferences, now time.Time, updates ...PreferenceUpdate) error {
	staged := *p
	staged.GenrePreferences = append([]string(nil), p.GenrePreferences...)

	for _, u := range updates {
		if err := u.apply(&staged); err != nil {
			return err
		}
	}

	staged.InteractionCount++
	staged.LastUpdated = now
	*p = staged
	return nil
}

func validateRange(field string, r Range, lo, hi float64) error {
	if r.Min > r.Max {
		return fmt.Errorf("%s: min %v greater than max %v", field, r.Min, r.Max)
	}
	if r.Min < lo || r.Max > hi {
		return fmt.Errorf("%s: [%v,%v] outside [%v,%v]", field, r.Min, r.Max, lo, hi)
	}
	return nil
}
