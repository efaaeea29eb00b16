package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrooms/resonance/pkg/recommend"
)

func TestGetOrCreatePreferences(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefs, err := s.GetOrCreatePreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", prefs.UserID)
	assert.Equal(t, recommend.Range{Min: 60.0, Max: 180.0}, prefs.TempoRange)
	assert.Equal(t, recommend.DiscoveryBalanced, prefs.DiscoveryMode)
	assert.True(t, prefs.LearningEnabled)

	// Repeat call returns the persisted record, not a fresh default.
	again, err := s.GetOrCreatePreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, prefs.LastUpdated.UTC(), again.LastUpdated.UTC())

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM user_preferences`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSavePreferencesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefs, err := s.GetOrCreatePreferences(ctx, "user-1")
	require.NoError(t, err)

	prefs.GenrePreferences = []string{"jazz", "blues"}
	prefs.TempoRange = recommend.Range{Min: 90, Max: 140}
	prefs.DiscoveryMode = recommend.DiscoveryExplore
	prefs.ConfidenceScore = 0.8
	require.NoError(t, s.SavePreferences(ctx, prefs))

	loaded, err := s.GetOrCreatePreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"jazz", "blues"}, loaded.GenrePreferences)
	assert.Equal(t, recommend.Range{Min: 90, Max: 140}, loaded.TempoRange)
	assert.Equal(t, recommend.DiscoveryExplore, loaded.DiscoveryMode)
	assert.Equal(t, 0.8, loaded.ConfidenceScore)
}

func TestSavePreferencesValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.SavePreferences(ctx, nil))
	assert.Error(t, s.SavePreferences(ctx, &recommend.UserPreferences{}))

	_, err := s.GetOrCreatePreferences(ctx, "")
	assert.Error(t, err)
}
