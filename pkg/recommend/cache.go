package recommend

import (
	"sync"
	"time"

	"github.com/soundrooms/resonance/internal/logging"
)

// CachedRecommendations is one cached scored result set. Serialized field
// names follow the canonical camelCase schema.
type CachedRecommendations struct {
	UserID               string               `json:"userId"`
	RecommendationType   string               `json:"recommendationType"`
	RecommendedRooms     []RoomRecommendation `json:"recommendedRooms"`
	TotalRecommendations int                  `json:"totalRecommendations"`
	AlgorithmVersion     string               `json:"algorithmVersion"`
	ContentScore         *float64             `json:"contentScore,omitempty"`
	CollaborativeScore   *float64             `json:"collaborativeScore,omitempty"`
	SessionScore         *float64             `json:"sessionScore,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	ExpiresAt            time.Time            `json:"expiresAt"`
	HitCount             int                  `json:"hitCount"`
	LastAccessed         time.Time            `json:"lastAccessed"`
	IsValid              bool                 `json:"isValid"`
}

// CacheStats tracks cache effectiveness
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Purged  int64 `json:"purged"`
	Entries int   `json:"entries"`
}

type cacheKey struct {
	userID  string
	recType string
}

// Cache stores scored recommendation sets keyed by (user, type) with
// absolute expiry. Reading a live entry mutates it: the hit counter and
// last-accessed time advance, but expiry never slides. The cache schedules
// nothing itself; an external scheduler drives PurgeExpired.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*CachedRecommendations
	stats   CacheStats
	clock   func() time.Time
	logger  logging.Logger
}

// NewCache creates an empty recommendation cache
func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]*CachedRecommendations),
		clock:   time.Now,
		logger: logging.WithFields(logging.Fields{
			"component": "recommendation_cache",
		}),
	}
}

// Get returns the live entry for (user, type), or absent. A hit is a
// read-triggered mutation: hitCount increments and lastAccessed refreshes,
// while expiresAt is untouched. Expired or invalidated entries are misses
// even before a sweep removes them.
func (c *Cache) Get(userID, recommendationType string) (*CachedRecommendations, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey{userID: userID, recType: recommendationType}]
	now := c.clock()
	if !ok || !entry.IsValid || !now.Before(entry.ExpiresAt) {
		c.stats.Misses++
		return nil, false
	}

	entry.HitCount++
	entry.LastAccessed = now
	c.stats.Hits++

	snapshot := *entry
	snapshot.RecommendedRooms = append([]RoomRecommendation(nil), entry.RecommendedRooms...)
	return &snapshot, true
}

// Put stores a fresh entry for (user, type), superseding any previous one.
// Expiry is absolute: creation time plus ttl.
func (c *Cache) Put(userID, recommendationType string, recommendations []RoomRecommendation, ttl time.Duration) *CachedRecommendations {
	now := c.clock()
	entry := &CachedRecommendations{
		UserID:               userID,
		RecommendationType:   recommendationType,
		RecommendedRooms:     append([]RoomRecommendation(nil), recommendations...),
		TotalRecommendations: len(recommendations),
		AlgorithmVersion:     AlgorithmVersion,
		CreatedAt:            now,
		ExpiresAt:            now.Add(ttl),
		HitCount:             0,
		LastAccessed:         now,
		IsValid:              true,
	}

	c.mu.Lock()
	c.entries[cacheKey{userID: userID, recType: recommendationType}] = entry
	c.mu.Unlock()

	c.logger.Debug("recommendations cached", logging.Fields{
		"user_id": userID,
		"type":    recommendationType,
		"count":   len(recommendations),
		"ttl":     ttl.String(),
	})

	snapshot := *entry
	return &snapshot
}

// Invalidate marks the entry for (user, type) unusable without removing it
func (c *Cache) Invalidate(userID, recommendationType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[cacheKey{userID: userID, recType: recommendationType}]; ok {
		entry.IsValid = false
	}
}

// InvalidateUser marks every entry belonging to userID unusable
func (c *Cache) InvalidateUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.entries {
		if key.userID == userID {
			entry.IsValid = false
		}
	}
}

// PurgeExpired removes entries whose expiry has passed or that were
// invalidated, returning the removed count. Called by an external
// scheduler; the cache never sweeps on its own.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for key, entry := range c.entries {
		if !entry.IsValid || !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Purged += int64(removed)
	return removed
}

// Stats returns a snapshot of cache counters
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}
