// Package store persists audio features, user preferences, interactions
// and cached recommendations in SQLite. The recommendation core never
// queries it directly; the service layer fetches records here and hands
// the core plain values.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/soundrooms/resonance/internal/logging"
)

// Store manages service persistence backed by SQLite
type Store struct {
	db     *sql.DB
	path   string
	logger logging.Logger
}

// ErrNotFound marks an explicit absent result; callers decide 404-vs-create
var ErrNotFound = fmt.Errorf("record not found")

// Open initializes or connects to the database and applies the schema
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:   db,
		path: path,
		logger: logging.WithFields(logging.Fields{
			"component": "store",
			"db_path":   path,
		}),
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.Info("store opened")
	return store, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
