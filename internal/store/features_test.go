package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrooms/resonance/pkg/audio/features"
)

func TestUpsertFeaturesInsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	set := features.MockFeatureSet()
	record, err := s.UpsertFeatures(ctx, "audio-1", set)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "audio-1", record.AudioFileID)
	assert.Equal(t, features.AnalysisVersion, record.Version)
	assert.Equal(t, DegradedAnalysisConfidence, record.Confidence)

	loaded, err := s.GetFeatures(ctx, "audio-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, loaded.ID)
	assert.Equal(t, set.Basic.Duration, loaded.Features.Basic.Duration)
	assert.Equal(t, set.FeatureVector, loaded.Features.FeatureVector)
	assert.Equal(t, record.CreatedAt.UTC(), loaded.CreatedAt.UTC())
}

func TestUpsertFeaturesConfidenceReflectsDegradation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	full := features.MockFeatureSet()
	full.Degraded = false
	record, err := s.UpsertFeatures(ctx, "audio-full", full)
	require.NoError(t, err)
	assert.Equal(t, FullAnalysisConfidence, record.Confidence)

	degraded := features.MockFeatureSet()
	degraded.Degraded = true
	record, err = s.UpsertFeatures(ctx, "audio-degraded", degraded)
	require.NoError(t, err)
	assert.Equal(t, DegradedAnalysisConfidence, record.Confidence)
}

func TestUpsertFeaturesReplacePreservesIdentity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertFeatures(ctx, "audio-1", features.MockFeatureSet())
	require.NoError(t, err)

	updated := features.MockFeatureSet()
	updated.Degraded = false
	updated.Basic.Tempo = 95.0
	second, err := s.UpsertFeatures(ctx, "audio-1", updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, FullAnalysisConfidence, second.Confidence)

	loaded, err := s.GetFeatures(ctx, "audio-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, loaded.ID)
	assert.Equal(t, 95.0, loaded.Features.Basic.Tempo)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM audio_features`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetFeaturesNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetFeatures(context.Background(), "audio-missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertFeaturesValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertFeatures(ctx, "", features.MockFeatureSet())
	assert.Error(t, err)

	_, err = s.UpsertFeatures(ctx, "audio-1", nil)
	assert.Error(t, err)
}
