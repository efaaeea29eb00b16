// Package recommend implements the recommendation core: user preference
// records and their allow-listed updates, interaction pattern aggregation,
// the room/audio scoring engine and the recommendation cache.
package recommend

import "time"

// DiscoveryMode dials between exposing familiar and novel recommendations
type DiscoveryMode string

const (
	DiscoveryExplore  DiscoveryMode = "explore"
	DiscoveryBalanced DiscoveryMode = "balanced"
	DiscoveryExploit  DiscoveryMode = "exploit"
)

// Known interaction action types. The field is free-form on ingest but
// normally drawn from this set.
const (
	ActionPlay     = "play"
	ActionLike     = "like"
	ActionDislike  = "dislike"
	ActionSkip     = "skip"
	ActionShare    = "share"
	ActionJoin     = "join"
	ActionFeedback = "feedback"
)

// Range is a numeric preference window
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UserPreferences is the per-user preference profile. Serialized field
// names follow the canonical camelCase schema and must not change;
// external collaborators depend on them.
type UserPreferences struct {
	UserID            string        `json:"userId"`
	GenrePreferences  []string      `json:"genrePreferences"`
	TempoRange        Range         `json:"tempoRange"`
	EnergyRange       Range         `json:"energyRange"`
	ValenceRange      Range         `json:"valenceRange"`
	LoudnessRange     Range         `json:"loudnessRange"`
	DanceabilityRange Range         `json:"danceabilityRange"`
	DiscoveryMode     DiscoveryMode `json:"discoveryMode"`
	ConfidenceScore   float64       `json:"confidenceScore"`
	InteractionCount  int           `json:"interactionCount"`
	LearningEnabled   bool          `json:"learningEnabled"`
	LastUpdated       time.Time     `json:"lastUpdated"`
}

// Interaction is one append-only user interaction record
type Interaction struct {
	UserID      string         `json:"userId"`
	RoomID      string         `json:"roomId,omitempty"`
	AudioFileID string         `json:"audioFileId,omitempty"`
	ActionType  string         `json:"actionType"`
	Timestamp   time.Time      `json:"timestamp"`
	Duration    *int           `json:"duration,omitempty"` // seconds
	Rating      *int           `json:"rating,omitempty"`
	SessionID   string         `json:"sessionId,omitempty"`
	DeviceType  string         `json:"deviceType,omitempty"`
	TimeOfDay   string         `json:"timeOfDay,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RoomRecommendation is one scored candidate in a ranked recommendation list
type RoomRecommendation struct {
	RoomID       string     `json:"room_id"`
	RoomName     string     `json:"room_name"`
	Score        float64    `json:"score"`
	Reasoning    string     `json:"reasoning"`
	Participants int        `json:"participants"`
	Genres       []string   `json:"genres"`
	TempoRange   [2]float64 `json:"tempo_range"`
	EnergyLevel  float64    `json:"energy_level"`
}

// SimilarRoom is one entry of a similar-rooms ranking
type SimilarRoom struct {
	RoomID          string   `json:"room_id"`
	RoomName        string   `json:"room_name"`
	SimilarityScore float64  `json:"similarity_score"`
	SharedFeatures  []string `json:"shared_features"`
	Participants    int      `json:"participants"`
}

// SimilarAudio is one entry of a similar-audio ranking
type SimilarAudio struct {
	AudioFileID     string   `json:"audio_file_id"`
	Filename        string   `json:"filename"`
	SimilarityScore float64  `json:"similarity_score"`
	SharedFeatures  []string `json:"shared_features"`
}

// RoomProfile is the candidate view the engine scores: identity, display
// metadata and an optional content vector. A nil vector excludes the room
// from content-driven paths.
type RoomProfile struct {
	RoomID       string
	RoomName     string
	Genres       []string
	Participants int
	TempoRange   [2]float64
	EnergyLevel  float64
	Vector       []float64
}

// AudioProfile is the candidate view for similar-audio lookups
type AudioProfile struct {
	AudioFileID string
	Filename    string
	Vector      []float64
}

// UserStats summarizes a user's recommendation-relevant activity
type UserStats struct {
	UserID                 string    `json:"user_id"`
	TotalInteractions      int       `json:"total_interactions"`
	RoomsJoined            int       `json:"rooms_joined"`
	RecommendationsClicked int       `json:"recommendations_clicked"`
	ClickThroughRate       float64   `json:"click_through_rate"`
	FavoriteGenres         []string  `json:"favorite_genres"`
	LastActivity           time.Time `json:"last_activity"`
}
