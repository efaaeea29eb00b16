package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/pkg/recommend"
)

// interactionRequest is the wire shape of a recorded interaction
type interactionRequest struct {
	UserID      string         `json:"userId" validate:"required"`
	RoomID      string         `json:"roomId,omitempty"`
	AudioFileID string         `json:"audioFileId,omitempty"`
	ActionType  string         `json:"actionType" validate:"required"`
	Duration    *int           `json:"duration,omitempty"`
	Rating      *int           `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	SessionID   string         `json:"sessionId,omitempty"`
	DeviceType  string         `json:"deviceType,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	prefs, err := s.store.GetOrCreatePreferences(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load user preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be a JSON object")
		return
	}

	updates, err := parsePreferenceUpdates(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPDATE", err.Error())
		return
	}
	if len(updates) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_UPDATE", "no preference fields provided")
		return
	}

	prefs, err := s.store.GetOrCreatePreferences(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load user preferences")
		return
	}

	if err := recommend.ApplyUpdates(prefs, time.Now().UTC(), updates...); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPDATE", err.Error())
		return
	}

	if err := s.store.SavePreferences(r.Context(), prefs); err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not save user preferences")
		return
	}

	// any stale recommendation lists built on the old profile are dropped
	s.cache.InvalidateUser(userID)

	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "userId and actionType are required")
		return
	}

	interaction := &recommend.Interaction{
		UserID:      req.UserID,
		RoomID:      req.RoomID,
		AudioFileID: req.AudioFileID,
		ActionType:  req.ActionType,
		Timestamp:   time.Now().UTC(),
		Duration:    req.Duration,
		Rating:      req.Rating,
		SessionID:   req.SessionID,
		DeviceType:  req.DeviceType,
		Metadata:    req.Metadata,
	}
	if err := s.store.AppendInteraction(r.Context(), interaction); err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not record interaction")
		return
	}

	// new activity changes what the engine would rank next time
	s.cache.InvalidateUser(req.UserID)

	s.logger.Debug("interaction recorded", logging.Fields{
		"user_id": req.UserID,
		"action":  req.ActionType,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":    "recorded",
		"userId":    req.UserID,
		"timestamp": interaction.Timestamp,
	})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	interactions, err := s.store.RecentInteractions(r.Context(), userID, 0, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load user interactions")
		return
	}

	writeJSON(w, http.StatusOK, s.engine.Stats(userID, interactions))
}

// parsePreferenceUpdates maps request fields onto the allow-listed
// preference update operations. Unknown fields reject the whole request.
func parsePreferenceUpdates(raw map[string]json.RawMessage) ([]recommend.PreferenceUpdate, error) {
	updates := make([]recommend.PreferenceUpdate, 0, len(raw))

	for field, value := range raw {
		switch field {
		case "genrePreferences":
			var genres []string
			if err := json.Unmarshal(value, &genres); err != nil {
				return nil, fmt.Errorf("genrePreferences must be a list of strings")
			}
			updates = append(updates, recommend.SetGenrePreferences{Genres: genres})
		case "tempoRange":
			r, err := parseRange(field, value)
			if err != nil {
				return nil, err
			}
			updates = append(updates, recommend.SetTempoRange{Range: r})
		case "energyRange":
			r, err := parseRange(field, value)
			if err != nil {
				return nil, err
			}
			updates = append(updates, recommend.SetEnergyRange{Range: r})
		case "valenceRange":
			r, err := parseRange(field, value)
			if err != nil {
				return nil, err
			}
			updates = append(updates, recommend.SetValenceRange{Range: r})
		case "loudnessRange":
			r, err := parseRange(field, value)
			if err != nil {
				return nil, err
			}
			updates = append(updates, recommend.SetLoudnessRange{Range: r})
		case "danceabilityRange":
			r, err := parseRange(field, value)
			if err != nil {
				return nil, err
			}
			updates = append(updates, recommend.SetDanceabilityRange{Range: r})
		case "discoveryMode":
			var mode string
			if err := json.Unmarshal(value, &mode); err != nil {
				return nil, fmt.Errorf("discoveryMode must be a string")
			}
			updates = append(updates, recommend.SetDiscoveryMode{Mode: recommend.DiscoveryMode(mode)})
		case "confidenceScore":
			var score float64
			if err := json.Unmarshal(value, &score); err != nil {
				return nil, fmt.Errorf("confidenceScore must be a number")
			}
			updates = append(updates, recommend.SetConfidenceScore{Score: score})
		case "learningEnabled":
			var enabled bool
			if err := json.Unmarshal(value, &enabled); err != nil {
				return nil, fmt.Errorf("learningEnabled must be a boolean")
			}
			updates = append(updates, recommend.SetLearningEnabled{Enabled: enabled})
		default:
			return nil, fmt.Errorf("unknown preference field %q", field)
		}
	}
	return updates, nil
}

func parseRange(field string, value json.RawMessage) (recommend.Range, error) {
	var r recommend.Range
	if err := json.Unmarshal(value, &r); err != nil {
		return recommend.Range{}, fmt.Errorf("%s must be an object with min and max", field)
	}
	return r, nil
}
