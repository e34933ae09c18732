package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ridesharing/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants
const (
	DriverCacheTTL = 30 * time.Second // Availability and ride count change frequently
	TripCacheTTL   = 10 * time.Second // Trip state changes during the lifecycle
)

// Key prefixes
const (
	driverCachePrefix  = "cache:driver:"
	tripCachePrefix    = "cache:trip:"
	availableDriverSet = "drivers:available"
)

// CachedDriver represents a cached driver profile.
type CachedDriver struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Rating          float64 `json:"rating"`
	ActiveRideCount int     `json:"activeRideCount"`
	Available       bool    `json:"available"`
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	key := driverCachePrefix + driverID
	return s.client.Del(ctx, key).Err()
}

// GetTrip retrieves a trip from cache. Returns nil on a cache miss.
func (s *CacheStore) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	key := tripCachePrefix + tripID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var trip domain.Trip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, err
	}
	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *domain.Trip) error {
	key := tripCachePrefix + trip.ID
	data, err := json.Marshal(trip)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, TripCacheTTL).Err()
}

// InvalidateTrip removes a trip from cache.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID string) error {
	key := tripCachePrefix + tripID
	return s.client.Del(ctx, key).Err()
}

// GetDriversBatch retrieves multiple drivers from cache using a pipeline.
// Returns a map of driverID -> CachedDriver, and a slice of missing IDs.
func (s *CacheStore) GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*CachedDriver, []string, error) {
	if len(driverIDs) == 0 {
		return make(map[string]*CachedDriver), nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(driverIDs))

	for _, id := range driverIDs {
		key := driverCachePrefix + id
		cmds[id] = pipe.Get(ctx, key)
	}

	// Pipeline exec returns redis.Nil when any key is missing; per-command
	// results below distinguish misses from real errors.
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, nil, err
	}

	result := make(map[string]*CachedDriver)
	var missing []string

	for id, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, id)
			continue
		}

		var driver CachedDriver
		if err := json.Unmarshal(data, &driver); err != nil {
			missing = append(missing, id)
			continue
		}
		result[id] = &driver
	}

	return result, missing, nil
}

// SetDriversBatch stores multiple drivers in cache using a pipeline.
func (s *CacheStore) SetDriversBatch(ctx context.Context, drivers []*CachedDriver) error {
	if len(drivers) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()

	for _, driver := range drivers {
		key := driverCachePrefix + driver.ID
		data, err := json.Marshal(driver)
		if err != nil {
			continue // Skip invalid entries
		}
		pipe.Set(ctx, key, data, DriverCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// AddAvailableDriver adds a driver to the available set.
func (s *CacheStore) AddAvailableDriver(ctx context.Context, driverID string) error {
	return s.client.SAdd(ctx, availableDriverSet, driverID).Err()
}

// RemoveAvailableDriver removes a driver from the available set.
func (s *CacheStore) RemoveAvailableDriver(ctx context.Context, driverID string) error {
	return s.client.SRem(ctx, availableDriverSet, driverID).Err()
}

// GetAvailableDrivers returns all available driver IDs.
func (s *CacheStore) GetAvailableDrivers(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, availableDriverSet).Result()
}
