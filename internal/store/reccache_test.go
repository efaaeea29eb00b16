package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrooms/resonance/pkg/recommend"
)

func cachedSet(userID string, ttl time.Duration) *recommend.CachedRecommendations {
	now := time.Now().UTC()
	return &recommend.CachedRecommendations{
		UserID:             userID,
		RecommendationType: "rooms",
		RecommendedRooms: []recommend.RoomRecommendation{
			{RoomID: "room-1", RoomName: "Room 1", Score: 0.9},
		},
		TotalRecommendations: 1,
		AlgorithmVersion:     recommend.AlgorithmVersion,
		CreatedAt:            now,
		ExpiresAt:            now.Add(ttl),
		LastAccessed:         now,
		IsValid:              true,
	}
}

func TestCachedRecommendationsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cached := cachedSet("user-1", time.Hour)
	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", cached))

	loaded, err := s.GetCachedRecommendations(ctx, "user-1", "rooms:10")
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.UserID)
	assert.Equal(t, recommend.AlgorithmVersion, loaded.AlgorithmVersion)
	require.Len(t, loaded.RecommendedRooms, 1)
	assert.Equal(t, "room-1", loaded.RecommendedRooms[0].RoomID)
}

func TestCachedRecommendationsKeyedByContext(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", cachedSet("user-1", time.Hour)))

	_, err := s.GetCachedRecommendations(ctx, "user-1", "rooms:5")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachedRecommendationsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", cachedSet("user-1", time.Hour)))

	replacement := cachedSet("user-1", 2*time.Hour)
	replacement.RecommendedRooms = append(replacement.RecommendedRooms,
		recommend.RoomRecommendation{RoomID: "room-2", RoomName: "Room 2", Score: 0.85})
	replacement.TotalRecommendations = 2
	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", replacement))

	loaded, err := s.GetCachedRecommendations(ctx, "user-1", "rooms:10")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalRecommendations)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM recommendation_cache`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCachedRecommendationsExpiredBehavesAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	expired := cachedSet("user-1", -time.Minute)
	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", expired))

	_, err := s.GetCachedRecommendations(ctx, "user-1", "rooms:10")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCachedRecommendationsInvalidBehavesAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	invalid := cachedSet("user-1", time.Hour)
	invalid.IsValid = false
	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", invalid))

	_, err := s.GetCachedRecommendations(ctx, "user-1", "rooms:10")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPurgeExpiredRecommendations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", cachedSet("user-1", -time.Minute)))
	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", cachedSet("user-2", -time.Minute)))
	require.NoError(t, s.PutCachedRecommendations(ctx, "rooms:10", cachedSet("user-3", time.Hour)))

	removed, err := s.PurgeExpiredRecommendations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetCachedRecommendations(ctx, "user-3", "rooms:10")
	assert.NoError(t, err)

	removed, err = s.PurgeExpiredRecommendations(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPutCachedRecommendationsValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.PutCachedRecommendations(ctx, "rooms:10", nil))
	assert.Error(t, s.PutCachedRecommendations(ctx, "rooms:10", &recommend.CachedRecommendations{}))
}
