package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/pkg/recommend"
)

// GetOrCreatePreferences loads the preference profile for userID, creating
// and persisting the default profile when none exists yet. The call is
// idempotent: repeated calls for the same user return the same record.
func (s *Store) GetOrCreatePreferences(ctx context.Context, userID string) (*recommend.UserPreferences, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	prefs, err := s.getPreferences(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	prefs = recommend.DefaultPreferences(userID, now)
	if err := s.SavePreferences(ctx, prefs); err != nil {
		return nil, err
	}
	s.logger.Debug("created default preferences", logging.Fields{"user_id": userID})
	return prefs, nil
}

// SavePreferences writes the full preference profile for its user
func (s *Store) SavePreferences(ctx context.Context, prefs *recommend.UserPreferences) error {
	if prefs == nil || prefs.UserID == "" {
		return fmt.Errorf("preferences with user id are required")
	}

	payload, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		prefs.UserID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

func (s *Store) getPreferences(ctx context.Context, userID string) (*recommend.UserPreferences, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM user_preferences WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}

	var prefs recommend.UserPreferences
	if err := json.Unmarshal([]byte(payload), &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &prefs, nil
}
