package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/internal/store"
	"github.com/soundrooms/resonance/pkg/audio/features"
	"github.com/soundrooms/resonance/pkg/similarity"
)

// similarityRequest asks for the pairwise similarity of stored analyses
type similarityRequest struct {
	AudioFileIDs []string `json:"audio_file_ids" validate:"required,min=2,dive,required"`
}

type similarityResponse struct {
	AudioFileIDs     []string    `json:"audio_file_ids"`
	SimilarityMatrix [][]float64 `json:"similarity_matrix"`
}

func (s *Server) handleUploadFeatures(w http.ResponseWriter, r *http.Request) {
	audioFileID := chi.URLParam(r, "audioFileID")

	audio, filename, err := readUpload(r, s.cfg.Server.MaxUploadBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}

	set := s.extractor.Extract(r.Context(), audio, filename)
	outcome := "full"
	if set.Degraded {
		outcome = "degraded"
	}
	extractionsTotal.WithLabelValues(outcome).Inc()

	record, err := s.store.UpsertFeatures(r.Context(), audioFileID, set)
	if err != nil {
		s.logger.Error("persist features", logging.Fields{
			"audio_file_id": audioFileID,
			"error":         err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not persist audio features")
		return
	}

	s.logger.Info("audio features stored", logging.Fields{
		"audio_file_id": audioFileID,
		"degraded":      set.Degraded,
	})
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleGetFeatures(w http.ResponseWriter, r *http.Request) {
	audioFileID := chi.URLParam(r, "audioFileID")

	record, err := s.store.GetFeatures(r.Context(), audioFileID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no features stored for audio file "+audioFileID)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load audio features")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "at least 2 audio file ids are required")
		return
	}

	vectors := make([][]float64, 0, len(req.AudioFileIDs))
	for _, id := range req.AudioFileIDs {
		record, err := s.store.GetFeatures(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no features stored for audio file "+id)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "STORE_FAILED", "could not load audio features")
			return
		}
		vectors = append(vectors, comparisonVector(record.Features))
	}

	writeJSON(w, http.StatusOK, similarityResponse{
		AudioFileIDs:     req.AudioFileIDs,
		SimilarityMatrix: similarity.Matrix(vectors),
	})
}

// comparisonVector returns the precomputed feature vector, or rebuilds a
// comparison vector from the stored sub-feature statistics when a record
// predates full-vector persistence.
func comparisonVector(set *features.FeatureSet) []float64 {
	if len(set.FeatureVector) > 0 {
		return set.FeatureVector
	}
	return similarity.Reconstruct(&similarity.StoredFeatures{
		Tempo:         &set.Basic.Tempo,
		Duration:      &set.Basic.Duration,
		MFCCMeans:     set.MFCC.Mean,
		CentroidMean:  &set.Spectral.CentroidMean,
		RolloffMean:   &set.Spectral.RolloffMean,
		BandwidthMean: &set.Spectral.BandwidthMean,
	})
}

// readUpload accepts either a multipart form with a "file" part or a raw
// binary body, bounded by maxBytes either way.
func readUpload(r *http.Request, maxBytes int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err == nil {
		file, header, formErr := r.FormFile("file")
		if formErr != nil {
			return nil, "", errors.New("multipart form must carry a \"file\" part")
		}
		defer file.Close()

		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return nil, "", readErr
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}
