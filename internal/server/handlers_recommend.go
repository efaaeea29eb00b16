package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/pkg/recommend"
)

const roomRecommendationType = "rooms"

type roomRecommendationsResponse struct {
	UserID               string                         `json:"user_id"`
	Recommendations      []recommend.RoomRecommendation `json:"recommendations"`
	TotalRecommendations int                            `json:"total_recommendations"`
	AlgorithmVersion     string                         `json:"algorithm_version"`
	Cached               bool                           `json:"cached"`
}

type similarRoomsResponse struct {
	RoomID       string                  `json:"room_id"`
	SimilarRooms []recommend.SimilarRoom `json:"similar_rooms"`
	Total        int                     `json:"total"`
}

// parseLimit reads the optional limit query parameter, bounded to
// [1, max]. Out-of-range and non-numeric values are rejected rather
// than clamped so callers notice bad requests.
func (s *Server) parseLimit(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer")
	}
	if limit < 1 || limit > s.cfg.Recommend.MaxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", s.cfg.Recommend.MaxLimit)
	}
	return limit, nil
}

func (s *Server) handleRoomRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	limit, err := s.parseLimit(r, s.cfg.Recommend.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", err.Error())
		return
	}

	cacheKey := fmt.Sprintf("%s:%d", roomRecommendationType, limit)
	if cached, ok := s.cache.Get(userID, cacheKey); ok {
		cacheEvents.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, roomRecommendationsResponse{
			UserID:               userID,
			Recommendations:      cached.RecommendedRooms,
			TotalRecommendations: cached.TotalRecommendations,
			AlgorithmVersion:     cached.AlgorithmVersion,
			Cached:               true,
		})
		return
	}
	cacheEvents.WithLabelValues("miss").Inc()

	prefs, err := s.store.GetOrCreatePreferences(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load user preferences")
		return
	}

	recent, err := s.store.RecentInteractions(r.Context(), userID,
		s.cfg.Recommend.InteractionDays, s.cfg.Recommend.InteractionLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load user interactions")
		return
	}

	recommendations, err := s.engine.RecommendRooms(userID, limit, prefs, recent, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENGINE_FAILED", "could not generate recommendations")
		return
	}

	cached := s.cache.Put(userID, cacheKey, recommendations, s.cfg.Cache.TTL)
	if err := s.store.PutCachedRecommendations(r.Context(), cacheKey, cached); err != nil {
		// cached reply already lives in memory; persistence is best-effort
		s.logger.Warn("persist cached recommendations", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	writeJSON(w, http.StatusOK, roomRecommendationsResponse{
		UserID:               userID,
		Recommendations:      recommendations,
		TotalRecommendations: len(recommendations),
		AlgorithmVersion:     recommend.AlgorithmVersion,
		Cached:               false,
	})
}

func (s *Server) handleSimilarRooms(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	limit, err := s.parseLimit(r, s.cfg.Recommend.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", err.Error())
		return
	}

	similar, err := s.engine.SimilarRooms(roomID, limit, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ENGINE_FAILED", "could not find similar rooms")
		return
	}

	writeJSON(w, http.StatusOK, similarRoomsResponse{
		RoomID:       roomID,
		SimilarRooms: similar,
		Total:        len(similar),
	})
}
