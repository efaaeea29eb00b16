package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/soundrooms/resonance/pkg/audio/features"
)

// Confidence assigned to stored analyses. Degraded analyses (mock
// fallback) keep a low score so downstream ranking can discount them.
const (
	FullAnalysisConfidence     = 0.8
	DegradedAnalysisConfidence = 0.1
)

// FeatureRecord is a stored analysis result for one audio file
type FeatureRecord struct {
	ID          string               `json:"id"`
	AudioFileID string               `json:"audioFileId"`
	Features    *features.FeatureSet `json:"features"`
	Confidence  float64              `json:"confidence"`
	Version     string               `json:"version"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// UpsertFeatures stores the analysis for audioFileID, replacing any
// previous record for the same file while keeping its original id and
// creation time.
func (s *Store) UpsertFeatures(ctx context.Context, audioFileID string, set *features.FeatureSet) (*FeatureRecord, error) {
	if audioFileID == "" {
		return nil, fmt.Errorf("audio file id is required")
	}
	if set == nil {
		return nil, fmt.Errorf("feature set is required")
	}

	payload, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("encode feature payload: %w", err)
	}

	confidence := FullAnalysisConfidence
	if set.Degraded {
		confidence = DegradedAnalysisConfidence
	}

	now := time.Now().UTC()
	record := &FeatureRecord{
		AudioFileID: audioFileID,
		Features:    set,
		Confidence:  confidence,
		Version:     features.AnalysisVersion,
		UpdatedAt:   now,
	}

	existing, err := s.GetFeatures(ctx, audioFileID)
	switch {
	case errors.Is(err, ErrNotFound):
		record.ID = uuid.NewString()
		record.CreatedAt = now
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO audio_features (id, audio_file_id, payload, confidence, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ID, audioFileID, string(payload), record.Confidence, record.Version,
			now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("insert features: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		_, err = s.db.ExecContext(ctx, `
			UPDATE audio_features
			SET payload = ?, confidence = ?, version = ?, updated_at = ?
			WHERE audio_file_id = ?`,
			string(payload), record.Confidence, record.Version,
			now.Format(time.RFC3339Nano), audioFileID)
		if err != nil {
			return nil, fmt.Errorf("update features: %w", err)
		}
	}

	return record, nil
}

// GetFeatures loads the stored analysis for audioFileID, or ErrNotFound
func (s *Store) GetFeatures(ctx context.Context, audioFileID string) (*FeatureRecord, error) {
	var (
		record     FeatureRecord
		payload    string
		createdRaw string
		updatedRaw string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, audio_file_id, payload, confidence, version, created_at, updated_at
		FROM audio_features
		WHERE audio_file_id = ?`, audioFileID).
		Scan(&record.ID, &record.AudioFileID, &payload, &record.Confidence,
			&record.Version, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}

	var set features.FeatureSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, fmt.Errorf("decode feature payload: %w", err)
	}
	record.Features = &set

	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdRaw); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedRaw); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &record, nil
}
