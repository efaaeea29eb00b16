package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrooms/resonance/configs"
	"github.com/soundrooms/resonance/internal/store"
	"github.com/soundrooms/resonance/pkg/audio/features"
	"github.com/soundrooms/resonance/pkg/recommend"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := configs.GetDefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "resonance.db")
	cfg.Extractor.Workers = 1

	st, err := store.Open(context.Background(), cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	extractor := features.NewExtractor(features.Config{
		Workers:          cfg.Extractor.Workers,
		QueueSize:        cfg.Extractor.QueueSize,
		WindowSize:       cfg.Extractor.WindowSize,
		HopSize:          cfg.Extractor.HopSize,
		MFCCCoefficients: cfg.Extractor.MFCCCoefficients,
		ContrastBands:    cfg.Extractor.ContrastBands,
	})
	t.Cleanup(extractor.Close)

	aggregator := recommend.NewAggregator(cfg.Recommend.ActiveStartHour, cfg.Recommend.ActiveEndHour)
	engine := recommend.NewEngine(aggregator)

	return New(cfg, st, extractor, engine, recommend.NewCache())
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s.Router(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "resonance", body["service"])
	assert.Equal(t, features.AnalysisVersion, body["version"])
}

func TestUploadFeaturesDegradesOnGarbage(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/audio/audio-1/features",
		[]byte("definitely not audio"))
	require.Equal(t, http.StatusOK, rec.Code)

	var record store.FeatureRecord
	decodeBody(t, rec, &record)
	assert.Equal(t, "audio-1", record.AudioFileID)
	assert.True(t, record.Features.Degraded)
	assert.Equal(t, store.DegradedAnalysisConfidence, record.Confidence)
	assert.Len(t, record.Features.FeatureVector, features.VectorDim)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/audio/audio-1/features", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var loaded store.FeatureRecord
	decodeBody(t, rec, &loaded)
	assert.Equal(t, record.ID, loaded.ID)
}

func TestGetFeaturesNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s.Router(), http.MethodGet, "/api/v1/audio/audio-missing/features", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "NOT_FOUND", body.Error)
}

func TestSimilarityMatrix(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	for _, id := range []string{"audio-1", "audio-2"} {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/audio/"+id+"/features",
			[]byte("unparseable payload"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	payload, _ := json.Marshal(map[string]any{"audio_file_ids": []string{"audio-1", "audio-2"}})
	rec := doRequest(t, router, http.MethodPost, "/api/v1/audio/similarity", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var body similarityResponse
	decodeBody(t, rec, &body)
	require.Len(t, body.SimilarityMatrix, 2)
	assert.Equal(t, 1.0, body.SimilarityMatrix[0][0])
	assert.Equal(t, 1.0, body.SimilarityMatrix[1][1])
	// Identical degraded vectors are fully similar
	assert.InDelta(t, 1.0, body.SimilarityMatrix[0][1], 1e-9)
}

func TestSimilarityValidation(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	payload, _ := json.Marshal(map[string]any{"audio_file_ids": []string{"only-one"}})
	rec := doRequest(t, router, http.MethodPost, "/api/v1/audio/similarity", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/audio/similarity", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload, _ = json.Marshal(map[string]any{"audio_file_ids": []string{"missing-a", "missing-b"}})
	rec = doRequest(t, router, http.MethodPost, "/api/v1/audio/similarity", payload)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComparisonVectorFallsBackToReconstruction(t *testing.T) {
	set := features.MockFeatureSet()
	assert.Equal(t, set.FeatureVector, comparisonVector(set))

	legacy := features.MockFeatureSet()
	legacy.FeatureVector = nil
	rebuilt := comparisonVector(legacy)
	require.Len(t, rebuilt, 19)
	assert.InDelta(t, legacy.Basic.Tempo/200.0, rebuilt[0], 1e-9)
}

func TestRoomRecommendations(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/recommendations/rooms/user-1?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body roomRecommendationsResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "user-1", body.UserID)
	assert.False(t, body.Cached)
	assert.Equal(t, recommend.AlgorithmVersion, body.AlgorithmVersion)
	require.Len(t, body.Recommendations, 3)

	// Fresh user, no interactions: the plain base sequence applies.
	assert.Equal(t, 0.90, body.Recommendations[0].Score)
	assert.Equal(t, 0.85, body.Recommendations[1].Score)
	assert.Equal(t, 0.80, body.Recommendations[2].Score)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/recommendations/rooms/user-1?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cached roomRecommendationsResponse
	decodeBody(t, rec, &cached)
	assert.True(t, cached.Cached)
	assert.Equal(t, body.Recommendations, cached.Recommendations)
}

func TestRoomRecommendationsLimitValidation(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	for _, limit := range []string{"0", "-1", "999", "abc"} {
		rec := doRequest(t, router, http.MethodGet, "/api/v1/recommendations/rooms/user-1?limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)

		var body errorResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "INVALID_LIMIT", body.Error)
	}
}

func TestSimilarRoomsPlaceholderRanking(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s.Router(), http.MethodGet, "/api/v1/recommendations/similar-rooms/room-42", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body similarRoomsResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "room-42", body.RoomID)
	require.Equal(t, 3, body.Total)
	assert.Equal(t, 0.8, body.SimilarRooms[0].SimilarityScore)
	assert.Equal(t, 0.7, body.SimilarRooms[1].SimilarityScore)
}

func TestPreferencesLifecycle(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	rec := doRequest(t, router, http.MethodGet, "/api/v1/recommendations/preferences/user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var prefs recommend.UserPreferences
	decodeBody(t, rec, &prefs)
	assert.Equal(t, "user-1", prefs.UserID)
	assert.Equal(t, recommend.DiscoveryBalanced, prefs.DiscoveryMode)

	update, _ := json.Marshal(map[string]any{
		"genrePreferences": []string{"jazz", "blues"},
		"tempoRange":       map[string]float64{"min": 90, "max": 140},
		"discoveryMode":    "explore",
	})
	rec = doRequest(t, router, http.MethodPut, "/api/v1/recommendations/preferences/user-1", update)
	require.Equal(t, http.StatusOK, rec.Code)

	decodeBody(t, rec, &prefs)
	assert.Equal(t, []string{"jazz", "blues"}, prefs.GenrePreferences)
	assert.Equal(t, recommend.Range{Min: 90, Max: 140}, prefs.TempoRange)
	assert.Equal(t, recommend.DiscoveryExplore, prefs.DiscoveryMode)
	assert.Equal(t, 1, prefs.InteractionCount)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/recommendations/preferences/user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &prefs)
	assert.Equal(t, []string{"jazz", "blues"}, prefs.GenrePreferences)
}

func TestUpdatePreferencesRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"favoriteColor":"blue"}`},
		{"empty object", `{}`},
		{"invalid range", `{"tempoRange":{"min":200,"max":100}}`},
		{"wrong type", `{"genrePreferences":"jazz"}`},
		{"not json", `{broken`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPut, "/api/v1/recommendations/preferences/user-1",
				[]byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRecordInteraction(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	payload, _ := json.Marshal(map[string]any{
		"userId":     "user-1",
		"roomId":     "room-a",
		"actionType": "join",
	})
	rec := doRequest(t, router, http.MethodPost, "/api/v1/recommendations/interactions", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "recorded", body["status"])
	assert.Equal(t, "user-1", body["userId"])

	for _, invalid := range []string{
		`{"roomId":"room-a","actionType":"join"}`,
		`{"userId":"user-1"}`,
		`{"userId":"user-1","actionType":"play","rating":9}`,
	} {
		rec := doRequest(t, router, http.MethodPost, "/api/v1/recommendations/interactions", []byte(invalid))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%s", invalid)
	}
}

func TestInteractionInvalidatesCachedRecommendations(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	doRequest(t, router, http.MethodGet, "/api/v1/recommendations/rooms/user-1?limit=3", nil)
	rec := doRequest(t, router, http.MethodGet, "/api/v1/recommendations/rooms/user-1?limit=3", nil)

	var body roomRecommendationsResponse
	decodeBody(t, rec, &body)
	require.True(t, body.Cached)

	payload, _ := json.Marshal(map[string]any{
		"userId":     "user-1",
		"roomId":     "room-a",
		"actionType": "join",
	})
	rec = doRequest(t, router, http.MethodPost, "/api/v1/recommendations/interactions", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/recommendations/rooms/user-1?limit=3", nil)
	decodeBody(t, rec, &body)
	assert.False(t, body.Cached)
}

func TestUserStats(t *testing.T) {
	s := newTestServer(t)
	router := s.Router()

	for _, interaction := range []map[string]any{
		{"userId": "user-1", "roomId": "room-a", "actionType": "join"},
		{"userId": "user-1", "roomId": "room-b", "actionType": "join"},
		{"userId": "user-1", "actionType": "feedback", "rating": 4},
	} {
		payload, _ := json.Marshal(interaction)
		rec := doRequest(t, router, http.MethodPost, "/api/v1/recommendations/interactions", payload)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/recommendations/stats/user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats recommend.UserStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, "user-1", stats.UserID)
	assert.Equal(t, 3, stats.TotalInteractions)
	assert.Equal(t, 2, stats.RoomsJoined)
	assert.Equal(t, 1, stats.RecommendationsClicked)
}
