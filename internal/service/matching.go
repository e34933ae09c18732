package service

import (
	"context"
	"sort"
	"sync"

	"ridesharing/internal/domain"
	"ridesharing/internal/matching"
	"ridesharing/internal/redis"
	"ridesharing/internal/repository"
	"ridesharing/internal/tracker"
)

// defaultMatchRadiusKm bounds how far from the pickup point a driver may be
// and still be considered for a trip.
const defaultMatchRadiusKm = 10.0

// MatchingService assembles driver candidates and runs a matching strategy
// over them. Driver positions come from the in-memory tracker; profile data
// comes from the cache with a database fallback.
type MatchingService struct {
	tracker    *tracker.Tracker
	driverRepo repository.DriverRepository
	cacheStore redis.CacheStoreInterface

	mu             sync.RWMutex
	riderLocations map[string]domain.GeoPoint
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(
	trk *tracker.Tracker,
	driverRepo repository.DriverRepository,
	cacheStore redis.CacheStoreInterface,
) *MatchingService {
	return &MatchingService{
		tracker:        trk,
		driverRepo:     driverRepo,
		cacheStore:     cacheStore,
		riderLocations: make(map[string]domain.GeoPoint),
	}
}

// UpdateRiderLocation records a rider's last known position for matching.
func (s *MatchingService) UpdateRiderLocation(riderID string, point domain.GeoPoint) error {
	if riderID == "" {
		return ErrInvalidRiderID
	}
	if !point.Complete() {
		return ErrInvalidLocation
	}

	s.mu.Lock()
	s.riderLocations[riderID] = point
	s.mu.Unlock()
	return nil
}

// RiderLocation returns the rider's last known position, if any.
func (s *MatchingService) RiderLocation(riderID string) (domain.GeoPoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.riderLocations[riderID]
	return p, ok
}

// Candidates assembles the matchable driver pool: available profiles joined
// with their latest tracked position. With a known pickup point, drivers
// outside the search radius and drivers without any tracked position are
// excluded; with an unknown pickup every available driver qualifies.
func (s *MatchingService) Candidates(ctx context.Context, near domain.GeoPoint, radiusKm float64) ([]domain.DriverCandidate, error) {
	profiles, ok := s.cachedAvailableProfiles(ctx)
	if !ok {
		var err error
		profiles, err = s.driverRepo.GetAvailable(ctx)
		if err != nil {
			return nil, err
		}
		s.cacheAvailableProfiles(ctx, profiles)
	}

	if radiusKm <= 0 {
		radiusKm = defaultMatchRadiusKm
	}

	candidates := make([]domain.DriverCandidate, 0, len(profiles))
	for _, p := range profiles {
		c := domain.DriverCandidate{
			DriverID:        p.ID,
			Rating:          p.Rating,
			ActiveRideCount: p.ActiveRideCount,
			Available:       p.Available,
		}

		if sample, ok := s.tracker.Latest(p.ID); ok {
			c.Point = sample.Point
		}

		// With a known pickup point, exclude drivers with a position
		// outside the search radius. Drivers without a position are
		// excluded too: they cannot be dispatched to a pickup.
		if near.Complete() {
			if domain.DistanceKm(near, c.Point) > radiusKm {
				continue
			}
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}

// Match selects a driver for the rider using the named strategy. Unknown
// strategy keys fall back to nearest.
func (s *MatchingService) Match(ctx context.Context, rider domain.RiderContext, strategyKey string) (*domain.DriverCandidate, error) {
	if rider.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	if !rider.Point.Complete() {
		if p, ok := s.RiderLocation(rider.RiderID); ok {
			rider.Point = p
		}
	}

	candidates, err := s.Candidates(ctx, rider.Point, defaultMatchRadiusKm)
	if err != nil {
		return nil, err
	}

	chosen := matching.ForKey(strategyKey).Match(rider, candidates)
	if chosen == nil {
		return nil, ErrNoDriverAvailable
	}

	return chosen, nil
}

// NearbyDrivers returns the latest tracked positions within radiusKm of center.
func (s *MatchingService) NearbyDrivers(center domain.GeoPoint, radiusKm float64) ([]domain.LocationSample, error) {
	if !center.Complete() {
		return nil, ErrInvalidLocation
	}
	return s.tracker.Nearby(center, radiusKm), nil
}

// cachedAvailableProfiles reads the available-driver pool from the cache:
// set membership for the IDs, then a pipelined profile fetch. Any miss or
// error falls back to the database so staleness never hides a driver.
func (s *MatchingService) cachedAvailableProfiles(ctx context.Context) ([]*domain.DriverProfile, bool) {
	if s.cacheStore == nil {
		return nil, false
	}

	ids, err := s.cacheStore.GetAvailableDrivers(ctx)
	if err != nil || len(ids) == 0 {
		return nil, false
	}

	cached, missing, err := s.cacheStore.GetDriversBatch(ctx, ids)
	if err != nil || len(missing) > 0 {
		return nil, false
	}

	profiles := make([]*domain.DriverProfile, 0, len(cached))
	for _, d := range cached {
		if !d.Available {
			continue
		}
		profiles = append(profiles, &domain.DriverProfile{
			ID:              d.ID,
			Name:            d.Name,
			Rating:          d.Rating,
			ActiveRideCount: d.ActiveRideCount,
			Available:       d.Available,
		})
	}
	// Stable order, matching the repository's ordered listing.
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })
	return profiles, true
}

// cacheAvailableProfiles refreshes the driver cache and the available set
// after a database read. Failures are ignored: the cache is an optimization,
// not a source of truth.
func (s *MatchingService) cacheAvailableProfiles(ctx context.Context, profiles []*domain.DriverProfile) {
	if s.cacheStore == nil {
		return
	}

	cached := make([]*redis.CachedDriver, 0, len(profiles))
	for _, p := range profiles {
		cached = append(cached, &redis.CachedDriver{
			ID:              p.ID,
			Name:            p.Name,
			Rating:          p.Rating,
			ActiveRideCount: p.ActiveRideCount,
			Available:       p.Available,
		})
		_ = s.cacheStore.AddAvailableDriver(ctx, p.ID)
	}
	_ = s.cacheStore.SetDriversBatch(ctx, cached)
}
