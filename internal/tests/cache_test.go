package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ridesharing/internal/domain"
	"ridesharing/internal/redis"
	"ridesharing/internal/service"
	"ridesharing/internal/tracker"
)

// cachedMatchingFixture wires a MatchingService against the mock cache so
// the cache read path is observable.
type cachedMatchingFixture struct {
	drivers *MockDriverRepository
	cache   *MockCacheStore
	tracker *tracker.Tracker
	matcher *service.MatchingService
}

func newCachedMatchingFixture() *cachedMatchingFixture {
	drivers := NewMockDriverRepository()
	cache := NewMockCacheStore()
	trk := tracker.New()

	return &cachedMatchingFixture{
		drivers: drivers,
		cache:   cache,
		tracker: trk,
		matcher: service.NewMatchingService(trk, drivers, cache),
	}
}

func (f *cachedMatchingFixture) track(driverID string, lat, lng float64) {
	f.tracker.Ingest(domain.LocationSample{
		DriverID:  driverID,
		Point:     domain.NewGeoPoint(lat, lng),
		Timestamp: time.Now(),
	})
}

func TestCandidates_ServedFromCache(t *testing.T) {
	t.Parallel()

	f := newCachedMatchingFixture()
	f.cache.SeedDriver(&redis.CachedDriver{ID: "driver-1", Name: "Asha", Rating: 4.8, Available: true})
	f.track("driver-1", 28.6320, 77.2170)

	// The database is down; the cached pool must still serve matching.
	f.drivers.GetError = errors.New("connection refused")

	candidates, err := f.matcher.Candidates(context.Background(), domain.NewGeoPoint(28.6315, 77.2167), 0)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].DriverID != "driver-1" {
		t.Fatalf("candidates = %+v, want driver-1", candidates)
	}
	if n := atomic.LoadInt32(&f.cache.DriversBatchCallCount); n == 0 {
		t.Error("cache batch read never happened")
	}
}

func TestCandidates_DatabaseReadRefreshesCache(t *testing.T) {
	t.Parallel()

	f := newCachedMatchingFixture()
	f.drivers.AddDriver(&domain.DriverProfile{ID: "driver-1", Name: "Asha", Rating: 4.8, Available: true})
	f.track("driver-1", 28.6320, 77.2170)

	if _, err := f.matcher.Candidates(context.Background(), domain.NewGeoPoint(28.6315, 77.2167), 0); err != nil {
		t.Fatalf("Candidates: %v", err)
	}

	if !f.cache.AvailableContains("driver-1") {
		t.Error("driver not added to the cached available set")
	}

	// The refreshed cache now serves the pool on its own.
	f.drivers.GetError = errors.New("connection refused")
	candidates, err := f.matcher.Candidates(context.Background(), domain.NewGeoPoint(28.6315, 77.2167), 0)
	if err != nil {
		t.Fatalf("Candidates from cache: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
}

func TestCandidates_PartialCacheFallsBackToDatabase(t *testing.T) {
	t.Parallel()

	f := newCachedMatchingFixture()
	f.drivers.AddDriver(&domain.DriverProfile{ID: "driver-1", Available: true})
	f.drivers.AddDriver(&domain.DriverProfile{ID: "driver-2", Available: true})
	f.track("driver-1", 28.6320, 77.2170)
	f.track("driver-2", 28.6330, 77.2180)

	// The available set knows both drivers but one profile entry expired.
	f.cache.SeedDriver(&redis.CachedDriver{ID: "driver-1", Available: true})
	if err := f.cache.AddAvailableDriver(context.Background(), "driver-2"); err != nil {
		t.Fatal(err)
	}
	if err := f.cache.InvalidateDriver(context.Background(), "driver-2"); err != nil {
		t.Fatal(err)
	}

	candidates, err := f.matcher.Candidates(context.Background(), domain.NewGeoPoint(28.6315, 77.2167), 0)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want both drivers from the database", len(candidates))
	}
}

func TestGetTrip_CacheHitSkipsRepository(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := domain.NewTrip("trip-1", "rider-1",
		domain.NewGeoPoint(28.6315, 77.2167),
		domain.NewGeoPoint(28.6129, 77.2295))
	f.cache.SeedTrip(trip)

	// The repository errors; only the cached copy can satisfy the read.
	f.uow.Trips.GetError = errors.New("connection refused")

	got, err := f.trips.GetTrip(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if got.ID != "trip-1" || got.RiderID != "rider-1" {
		t.Errorf("got trip %+v", got)
	}
}

func TestGetTrip_MissLoadsAndCaches(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := domain.NewTrip("trip-1", "rider-1",
		domain.NewGeoPoint(28.6315, 77.2167),
		domain.NewGeoPoint(28.6129, 77.2295))
	f.uow.Trips.AddTrip(trip)

	if _, err := f.trips.GetTrip(context.Background(), "trip-1"); err != nil {
		t.Fatalf("GetTrip: %v", err)
	}

	if f.cache.CachedTrip("trip-1") == nil {
		t.Error("trip not cached after repository read")
	}
}

func TestTripTransitions_InvalidateCachedTrip(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	trip := requestNearbyTrip(t, f, "rider-1")
	if _, err := f.trips.GetTrip(ctx, trip.ID); err != nil {
		t.Fatal(err)
	}
	if f.cache.CachedTrip(trip.ID) == nil {
		t.Fatal("trip not cached after read")
	}

	if _, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}
	if f.cache.CachedTrip(trip.ID) != nil {
		t.Error("stale trip copy survived the accept transition")
	}

	// A fresh read caches the accepted state.
	got, err := f.trips.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != domain.TripStateAccepted {
		t.Errorf("state = %s, want ACCEPTED", got.State)
	}
}

func TestTripLifecycle_MaintainsAvailableSet(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	if err := f.cache.AddAvailableDriver(ctx, "driver-1"); err != nil {
		t.Fatal(err)
	}

	trip := requestNearbyTrip(t, f, "rider-1")

	if _, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}
	if f.cache.AvailableContains("driver-1") {
		t.Error("busy driver still in the cached available set")
	}

	if _, err := f.trips.StartTrip(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.trips.CompleteTrip(ctx, trip.ID, "driver-1", ""); err != nil {
		t.Fatal(err)
	}
	if !f.cache.AvailableContains("driver-1") {
		t.Error("driver not returned to the cached available set after completion")
	}
}

func TestCancelTrip_ReturnsDriverToAvailableSet(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	trip := requestNearbyTrip(t, f, "rider-1")
	if _, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.trips.CancelTrip(ctx, trip.ID, "rider-1", "waited too long"); err != nil {
		t.Fatal(err)
	}

	if !f.cache.AvailableContains("driver-1") {
		t.Error("driver not returned to the cached available set after cancel")
	}
}
