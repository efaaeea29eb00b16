package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrooms/resonance/pkg/recommend"
)

func TestAppendAndQueryInteractions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	records := []recommend.Interaction{
		{UserID: "user-1", RoomID: "room-a", ActionType: recommend.ActionJoin, Timestamp: now.Add(-3 * time.Hour)},
		{UserID: "user-1", AudioFileID: "audio-1", ActionType: recommend.ActionPlay, Timestamp: now.Add(-2 * time.Hour)},
		{UserID: "user-1", RoomID: "room-b", ActionType: recommend.ActionLike, Timestamp: now.Add(-time.Hour),
			Metadata: map[string]any{"genre": "jazz"}},
		{UserID: "user-2", RoomID: "room-a", ActionType: recommend.ActionJoin, Timestamp: now},
	}
	for i := range records {
		require.NoError(t, s.AppendInteraction(ctx, &records[i]))
	}

	interactions, err := s.RecentInteractions(ctx, "user-1", 30, 100)
	require.NoError(t, err)
	require.Len(t, interactions, 3)

	// Newest first, scoped to the requesting user.
	assert.Equal(t, recommend.ActionLike, interactions[0].ActionType)
	assert.Equal(t, recommend.ActionPlay, interactions[1].ActionType)
	assert.Equal(t, recommend.ActionJoin, interactions[2].ActionType)
	assert.Equal(t, "jazz", interactions[0].Metadata["genre"])
	assert.Equal(t, "audio-1", interactions[1].AudioFileID)
}

func TestRecentInteractionsWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := recommend.Interaction{UserID: "user-1", RoomID: "room-a", ActionType: recommend.ActionJoin,
		Timestamp: now.AddDate(0, 0, -45)}
	fresh := recommend.Interaction{UserID: "user-1", RoomID: "room-b", ActionType: recommend.ActionJoin,
		Timestamp: now.Add(-time.Hour)}
	require.NoError(t, s.AppendInteraction(ctx, &old))
	require.NoError(t, s.AppendInteraction(ctx, &fresh))

	windowed, err := s.RecentInteractions(ctx, "user-1", 30, 100)
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, "room-b", windowed[0].RoomID)

	// daysBack <= 0 lifts the time bound.
	all, err := s.RecentInteractions(ctx, "user-1", 0, 100)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecentInteractionsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		interaction := recommend.Interaction{
			UserID:     "user-1",
			RoomID:     "room-a",
			ActionType: recommend.ActionPlay,
			Timestamp:  now.Add(time.Duration(-i) * time.Minute),
		}
		require.NoError(t, s.AppendInteraction(ctx, &interaction))
	}

	interactions, err := s.RecentInteractions(ctx, "user-1", 0, 2)
	require.NoError(t, err)
	assert.Len(t, interactions, 2)
	assert.Equal(t, now.Format(time.RFC3339Nano), interactions[0].Timestamp.UTC().Format(time.RFC3339Nano))
}

func TestAppendInteractionDefaultsTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	interaction := recommend.Interaction{UserID: "user-1", RoomID: "room-a", ActionType: recommend.ActionJoin}
	require.NoError(t, s.AppendInteraction(ctx, &interaction))
	assert.False(t, interaction.Timestamp.IsZero())
}

func TestAppendInteractionValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.AppendInteraction(ctx, nil))
	assert.Error(t, s.AppendInteraction(ctx, &recommend.Interaction{ActionType: recommend.ActionJoin}))
	assert.Error(t, s.AppendInteraction(ctx, &recommend.Interaction{UserID: "user-1"}))

	_, err := s.RecentInteractions(ctx, "", 30, 100)
	assert.Error(t, err)
}
