package store

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/soundrooms/resonance/pkg/recommend"
)

// AppendInteraction records one interaction. Records are append-only;
// there is no update or delete path.
func (s *Store) AppendInteraction(ctx context.Context, interaction *recommend.Interaction) error {
	if interaction == nil || interaction.UserID == "" {
		return fmt.Errorf("interaction with user id is required")
	}
	if interaction.ActionType == "" {
		return fmt.Errorf("interaction action type is required")
	}
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now().UTC()
	}

	itemID := interaction.RoomID
	if itemID == "" {
		itemID = interaction.AudioFileID
	}

	payload, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("encode interaction: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_interactions (id, user_id, item_id, action, occurred_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), interaction.UserID, itemID, interaction.ActionType,
		interaction.Timestamp.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns the user's interactions from the last daysBack
// days, newest first, capped at limit. daysBack <= 0 means no time bound
// and limit <= 0 falls back to 100.
func (s *Store) RecentInteractions(ctx context.Context, userID string, daysBack, limit int) ([]recommend.Interaction, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if limit <= 0 {
		limit = 100
	}

	cutoff := ""
	if daysBack > 0 {
		cutoff = time.Now().UTC().AddDate(0, 0, -daysBack).Format(time.RFC3339Nano)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM user_interactions
		WHERE user_id = ? AND occurred_at >= ?
		ORDER BY occurred_at DESC
		LIMIT ?`, userID, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []recommend.Interaction
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		var interaction recommend.Interaction
		if err := json.Unmarshal([]byte(payload), &interaction); err != nil {
			return nil, fmt.Errorf("decode interaction: %w", err)
		}
		interactions = append(interactions, interaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return interactions, nil
}
