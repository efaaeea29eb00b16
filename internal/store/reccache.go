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

// PutCachedRecommendations writes one cache row keyed on (user, context),
// superseding any previous row for the same key.
func (s *Store) PutCachedRecommendations(ctx context.Context, contextKey string, cached *recommend.CachedRecommendations) error {
	if cached == nil || cached.UserID == "" {
		return fmt.Errorf("cached recommendations with user id are required")
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode cached recommendations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recommendation_cache (user_id, context, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, context) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		cached.UserID, contextKey, string(payload),
		cached.ExpiresAt.UTC().Format(time.RFC3339Nano),
		cached.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save cached recommendations: %w", err)
	}
	return nil
}

// GetCachedRecommendations loads the cache row for (userID, contextKey).
// Expired or invalidated rows behave as absent. The in-memory cache is
// authoritative for serving; this read exists to inspect the persisted
// write-through (operators, offline analysis) and is never used to
// rehydrate the in-memory cache, which would resurrect stale TTLs.
func (s *Store) GetCachedRecommendations(ctx context.Context, userID, contextKey string) (*recommend.CachedRecommendations, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM recommendation_cache
		WHERE user_id = ? AND context = ?`, userID, contextKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cached recommendations: %w", err)
	}

	var cached recommend.CachedRecommendations
	if err := json.Unmarshal([]byte(payload), &cached); err != nil {
		return nil, fmt.Errorf("decode cached recommendations: %w", err)
	}
	if !cached.IsValid || !time.Now().UTC().Before(cached.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &cached, nil
}

// PurgeExpiredRecommendations removes all cache rows past their expiry and
// returns how many were removed.
func (s *Store) PurgeExpiredRecommendations(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM recommendation_cache WHERE expires_at <= ?`,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("purge recommendation cache: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count purged rows: %w", err)
	}
	if removed > 0 {
		s.logger.Debug("purged expired cached recommendations", logging.Fields{"removed": removed})
	}
	return int(removed), nil
}
