package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/soundrooms/resonance/internal/logging"
	"github.com/soundrooms/resonance/pkg/similarity"
)

// AlgorithmVersion tags scored result sets written to the cache
const AlgorithmVersion = "v2.0"

// Score composition weights of the canonical combination function
const (
	weightContent       = 0.4
	weightCollaborative = 0.4
	weightContext       = 0.2
)

// Heuristic scoring constants for the no-signal path
const (
	baseScore        = 0.90
	scoreStep        = 0.05
	genreBoost       = 0.10
	activeHoursBoost = 0.05
	maxHeuristicRows = 10
)

// Placeholder signal levels until real collaborative filtering lands
const (
	placeholderCollaborative = 0.65
	defaultContextScore      = 0.5
)

// Engine blends content similarity, collaborative signal and contextual
// session factors into ranked, explainable recommendation lists. It holds
// no mutable state; all inputs arrive as already-fetched values.
type Engine struct {
	aggregator *Aggregator
	logger     logging.Logger
}

// NewEngine creates a scoring engine using the given aggregator for
// interaction pattern analysis
func NewEngine(aggregator *Aggregator) *Engine {
	return &Engine{
		aggregator: aggregator,
		logger: logging.WithFields(logging.Fields{
			"component": "recommendation_engine",
		}),
	}
}

// RecommendRooms produces a ranked room list for the user. Limit must
// already be validated to [1,50] by the boundary. With candidate vectors
// and interaction history available it scores through the weighted
// combination law; otherwise it falls back to the rank-sequence heuristic.
//
// Heuristic scores are deliberately not renormalized after boosts and may
// exceed the top of the base sequence.
func (e *Engine) RecommendRooms(userID string, limit int, prefs *UserPreferences, recent []Interaction, rooms []RoomProfile) ([]RoomRecommendation, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	summary := e.aggregator.Summarize(recent)

	if scored := e.contentScoredRooms(limit, recent, rooms, summary); scored != nil {
		return scored, nil
	}
	return e.heuristicRooms(userID, limit, prefs, summary), nil
}

// heuristicRooms is the degraded/no-signal path: descending base scores
// with fixed preference and active-hours boosts. The genre boost requires a
// stored genre signal; the fallback genres shown for a user without a
// preference record fill the display fields only and never trigger it.
func (e *Engine) heuristicRooms(userID string, limit int, prefs *UserPreferences, summary InteractionSummary) []RoomRecommendation {
	var (
		preferredGenres []string
		tempoRange      = [2]float64{60.0, 180.0}
		energyLevel     = 0.5
	)
	if prefs != nil {
		preferredGenres = prefs.GenrePreferences
		tempoRange = [2]float64{prefs.TempoRange.Min, prefs.TempoRange.Max}
		energyLevel = prefs.EnergyRange.Min // min as baseline
	}

	genres := preferredGenres
	if len(genres) > 2 {
		genres = genres[:2]
	}
	if len(genres) == 0 {
		genres = []string{"electronic", "ambient"}
	}

	reasoning := "Based on your preferences"
	if len(preferredGenres) > 0 {
		top := preferredGenres
		if len(top) > 2 {
			top = top[:2]
		}
		reasoning = "Matches your preference for " + strings.Join(top, ", ")
	}

	count := limit
	if count > maxHeuristicRows {
		count = maxHeuristicRows
	}

	recommendations := make([]RoomRecommendation, 0, count)
	for i := 0; i < count; i++ {
		score := baseScore - float64(i)*scoreStep
		if len(preferredGenres) > 0 {
			score += genreBoost
		}
		if summary.ActiveHours {
			score += activeHoursBoost
		}

		recommendations = append(recommendations, RoomRecommendation{
			RoomID:       fmt.Sprintf("rec_room_%s_%d", userID, i+1),
			RoomName:     fmt.Sprintf("Recommended Room %d", i+1),
			Score:        round3(score),
			Reasoning:    reasoning,
			Participants: 3 + (i % 8),
			Genres:       genres,
			TempoRange:   tempoRange,
			EnergyLevel:  energyLevel,
		})
	}

	e.logger.Debug("heuristic recommendations generated", logging.Fields{
		"user_id": userID,
		"count":   len(recommendations),
	})

	return recommendations
}

// contentScoredRooms scores candidates through the canonical weighted
// combination when a content signal is derivable: candidate vectors plus a
// taste vector built from recently interacted rooms. Returns nil when the
// signal is unavailable.
func (e *Engine) contentScoredRooms(limit int, recent []Interaction, rooms []RoomProfile, summary InteractionSummary) []RoomRecommendation {
	taste := e.tasteVector(recent, rooms)
	if taste == nil {
		return nil
	}

	recentRooms := make(map[string]bool, len(recent))
	for _, interaction := range recent {
		if interaction.RoomID != "" {
			recentRooms[interaction.RoomID] = true
		}
	}

	contextScore := defaultContextScore
	if summary.ActiveHours {
		contextScore += activeHoursBoost
	}

	type scoredRoom struct {
		profile RoomProfile
		content float64
		score   float64
	}

	var scored []scoredRoom
	for _, room := range rooms {
		if room.Vector == nil || recentRooms[room.RoomID] {
			continue
		}
		content := similarity.Cosine(taste, room.Vector)
		scored = append(scored, scoredRoom{
			profile: room,
			content: content,
			score:   e.CombineScores(content, placeholderCollaborative, contextScore),
		})
	}
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	recommendations := make([]RoomRecommendation, 0, len(scored))
	for _, s := range scored {
		recommendations = append(recommendations, RoomRecommendation{
			RoomID:       s.profile.RoomID,
			RoomName:     s.profile.RoomName,
			Score:        round3(s.score),
			Reasoning:    fmt.Sprintf("Sounds like rooms you joined recently (%d%% content match)", int(math.Round(s.content*100))),
			Participants: s.profile.Participants,
			Genres:       s.profile.Genres,
			TempoRange:   s.profile.TempoRange,
			EnergyLevel:  s.profile.EnergyLevel,
		})
	}
	return recommendations
}

// tasteVector averages the vectors of rooms the user recently interacted
// with. Nil when no interacted room has a vector.
func (e *Engine) tasteVector(recent []Interaction, rooms []RoomProfile) []float64 {
	vectorsByRoom := make(map[string][]float64, len(rooms))
	for _, room := range rooms {
		if room.Vector != nil {
			vectorsByRoom[room.RoomID] = room.Vector
		}
	}

	var (
		taste []float64
		n     int
	)
	for _, interaction := range recent {
		vec, ok := vectorsByRoom[interaction.RoomID]
		if !ok {
			continue
		}
		if taste == nil {
			taste = make([]float64, len(vec))
		}
		if len(vec) != len(taste) {
			continue
		}
		for i, v := range vec {
			taste[i] += v
		}
		n++
	}
	if n == 0 {
		return nil
	}
	for i := range taste {
		taste[i] /= float64(n)
	}
	return taste
}

// SimilarRooms ranks rooms by content similarity to the reference room.
// Without usable vectors it returns the fixed-decay placeholder ranking;
// both paths share the same result shape.
func (e *Engine) SimilarRooms(roomID string, limit int, rooms []RoomProfile) ([]SimilarRoom, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var reference *RoomProfile
	for i := range rooms {
		if rooms[i].RoomID == roomID {
			reference = &rooms[i]
			break
		}
	}

	if reference == nil || reference.Vector == nil {
		return placeholderSimilarRooms(limit), nil
	}

	type candidate struct {
		profile RoomProfile
		sim     float64
	}
	var candidates []candidate
	for _, room := range rooms {
		if room.RoomID == roomID || room.Vector == nil {
			continue
		}
		candidates = append(candidates, candidate{
			profile: room,
			sim:     similarity.Cosine(reference.Vector, room.Vector),
		})
	}
	if len(candidates) == 0 {
		return placeholderSimilarRooms(limit), nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].sim > candidates[j].sim
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]SimilarRoom, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, SimilarRoom{
			RoomID:          c.profile.RoomID,
			RoomName:        c.profile.RoomName,
			SimilarityScore: round3(c.sim),
			SharedFeatures:  sharedFeatureTags(reference.Vector, c.profile.Vector),
			Participants:    c.profile.Participants,
		})
	}
	return results, nil
}

func placeholderSimilarRooms(limit int) []SimilarRoom {
	count := limit
	if count > 3 {
		count = 3
	}
	rooms := make([]SimilarRoom, 0, count)
	for i := 0; i < count; i++ {
		rooms = append(rooms, SimilarRoom{
			RoomID:          fmt.Sprintf("similar_room_%d", i+1),
			RoomName:        fmt.Sprintf("Similar Room %d", i+1),
			SimilarityScore: round3(0.8 - float64(i)*0.1),
			SharedFeatures:  []string{"tempo", "genre"},
			Participants:    3 + i,
		})
	}
	return rooms
}

// SimilarAudio ranks audio items by cosine similarity to a reference
// vector. Candidates without vectors are skipped.
func (e *Engine) SimilarAudio(reference []float64, limit int, candidates []AudioProfile) ([]SimilarAudio, error) {
	if limit < 1 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("reference vector is empty")
	}

	type candidateSim struct {
		profile AudioProfile
		sim     float64
	}
	var sims []candidateSim
	for _, c := range candidates {
		if c.Vector == nil {
			continue
		}
		sims = append(sims, candidateSim{
			profile: c,
			sim:     similarity.Cosine(reference, c.Vector),
		})
	}

	sort.SliceStable(sims, func(i, j int) bool {
		return sims[i].sim > sims[j].sim
	})
	if len(sims) > limit {
		sims = sims[:limit]
	}

	results := make([]SimilarAudio, 0, len(sims))
	for _, s := range sims {
		results = append(results, SimilarAudio{
			AudioFileID:     s.profile.AudioFileID,
			Filename:        s.profile.Filename,
			SimilarityScore: round3(s.sim),
			SharedFeatures:  sharedFeatureTags(reference, s.profile.Vector),
		})
	}
	return results, nil
}

// CombineScores is the canonical score composition: weighted sum of
// content, collaborative and context signals, clamped to [0,1]. Use it
// whenever more than one score source is available; the rank-sequence
// heuristic is the degraded case and follows its own law.
func (e *Engine) CombineScores(content, collaborative, context float64) float64 {
	combined := content*weightContent + collaborative*weightCollaborative + context*weightContext
	return math.Min(math.Max(combined, 0.0), 1.0)
}

// Stats reduces stored interactions into the user activity summary
func (e *Engine) Stats(userID string, interactions []Interaction) UserStats {
	stats := UserStats{UserID: userID, FavoriteGenres: []string{}}

	joined := make(map[string]bool)
	genreCounts := make(map[string]int)
	var genreOrder []string
	for _, interaction := range interactions {
		stats.TotalInteractions++
		if interaction.Timestamp.After(stats.LastActivity) {
			stats.LastActivity = interaction.Timestamp
		}
		if interaction.ActionType == ActionJoin && interaction.RoomID != "" {
			joined[interaction.RoomID] = true
		}
		if interaction.ActionType == ActionFeedback {
			stats.RecommendationsClicked++
		}
		if genre, ok := interaction.Metadata["genre"].(string); ok && genre != "" {
			if genreCounts[genre] == 0 {
				genreOrder = append(genreOrder, genre)
			}
			genreCounts[genre]++
		}
	}
	stats.RoomsJoined = len(joined)
	if stats.TotalInteractions > 0 {
		stats.ClickThroughRate = round3(float64(stats.RecommendationsClicked) / float64(stats.TotalInteractions))
	}

	sort.SliceStable(genreOrder, func(i, j int) bool {
		return genreCounts[genreOrder[i]] > genreCounts[genreOrder[j]]
	})
	if len(genreOrder) > 3 {
		genreOrder = genreOrder[:3]
	}
	stats.FavoriteGenres = genreOrder

	return stats
}

// sharedFeatureTags names the vector regions two items agree on. Tags are
// coarse labels for reasoning strings, not a similarity measure.
func sharedFeatureTags(a, b []float64) []string {
	tags := []string{}
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return []string{"tempo", "genre"}
	}

	// Layout: index 0 tempo, 2-4 spectral shape, 19-30 chroma (genre/harmony)
	if math.Abs(a[0]-b[0]) < 0.05 {
		tags = append(tags, "tempo")
	}
	if len(a) >= 31 {
		if similarity.Cosine(a[19:31], b[19:31]) > 0.8 {
			tags = append(tags, "genre")
		}
		if similarity.Cosine(a[2:5], b[2:5]) > 0.9 {
			tags = append(tags, "timbre")
		}
	}
	if len(tags) == 0 {
		tags = append(tags, "energy")
	}
	return tags
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
