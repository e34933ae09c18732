package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridesharing/internal/domain"
	"ridesharing/internal/service"
	"ridesharing/internal/tracker"
)

// tripFixture wires a TripService against the mock repositories, the real
// in-memory tracker, and a real MatchingService. The unit of work hands the
// service the same mocks, so assertions see every write.
type tripFixture struct {
	uow       *MockUnitOfWork
	users     *MockUserRepository
	locks     *MockLockStore
	cache     *MockCacheStore
	publisher *MockPublisher
	tracker   *tracker.Tracker
	matcher   *service.MatchingService
	trips     *service.TripService
}

func newTripFixture() *tripFixture {
	uow := NewMockUnitOfWork()
	users := NewMockUserRepository()
	locks := NewMockLockStore()
	cache := NewMockCacheStore()
	publisher := NewMockPublisher()
	trk := tracker.New()
	matcher := service.NewMatchingService(trk, uow.Drivers, nil)

	return &tripFixture{
		uow:       uow,
		users:     users,
		locks:     locks,
		cache:     cache,
		publisher: publisher,
		tracker:   trk,
		matcher:   matcher,
		trips:     service.NewTripService(uow, uow.Trips, uow.Drivers, users, matcher, locks, cache, publisher),
	}
}

// addRider registers a rider account.
func (f *tripFixture) addRider(id string) {
	f.users.AddUser(&domain.User{
		ID:    id,
		Name:  "Rider " + id,
		Email: id + "@example.com",
	})
}

// addDriver registers an available driver profile and a tracked position.
func (f *tripFixture) addDriver(id string, lat, lng, rating float64) {
	f.uow.Drivers.AddDriver(&domain.DriverProfile{
		ID:        id,
		Name:      "Driver " + id,
		Rating:    rating,
		Available: true,
	})
	f.tracker.Ingest(domain.LocationSample{
		DriverID:  id,
		Point:     domain.NewGeoPoint(lat, lng),
		Timestamp: time.Now(),
	})
}

// addStartedTrip seeds a trip already in STARTED state with its driver
// marked busy, bypassing matching.
func (f *tripFixture) addStartedTrip(t *testing.T, tripID, riderID, driverID string) *domain.Trip {
	t.Helper()

	trip := domain.NewTrip(tripID, riderID,
		domain.NewGeoPoint(28.6315, 77.2167),
		domain.NewGeoPoint(28.6129, 77.2295))
	if err := trip.Accept(driverID); err != nil {
		t.Fatal(err)
	}
	if err := trip.Start(); err != nil {
		t.Fatal(err)
	}
	f.uow.Trips.AddTrip(trip)
	f.uow.Drivers.AddDriver(&domain.DriverProfile{
		ID:              driverID,
		Available:       false,
		ActiveRideCount: 1,
	})
	return trip
}

func requestNearbyTrip(t *testing.T, f *tripFixture, riderID string) *domain.Trip {
	t.Helper()

	f.addRider(riderID)
	trip, err := f.trips.RequestTrip(context.Background(), service.RequestTripRequest{
		RiderID: riderID,
		Pickup:  domain.NewGeoPoint(28.6315, 77.2167),
		Dropoff: domain.NewGeoPoint(28.6129, 77.2295),
	})
	if err != nil {
		t.Fatalf("RequestTrip: %v", err)
	}
	return trip
}

func TestTripLifecycle_RequestToCompletion(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	trip := requestNearbyTrip(t, f, "rider-1")
	if trip.State != domain.TripStateRequested {
		t.Fatalf("state after request = %s, want REQUESTED", trip.State)
	}
	if trip.DriverID != "driver-1" {
		t.Fatalf("matched driver = %q, want driver-1", trip.DriverID)
	}

	trip, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1")
	if err != nil {
		t.Fatalf("AcceptTrip: %v", err)
	}
	if trip.State != domain.TripStateAccepted {
		t.Fatalf("state after accept = %s, want ACCEPTED", trip.State)
	}

	driver := f.uow.Drivers.Driver("driver-1")
	if driver.Available {
		t.Error("driver still available after accept")
	}
	if driver.ActiveRideCount != 1 {
		t.Errorf("active ride count = %d, want 1", driver.ActiveRideCount)
	}

	trip, err = f.trips.StartTrip(ctx, trip.ID, "driver-1")
	if err != nil {
		t.Fatalf("StartTrip: %v", err)
	}
	if trip.State != domain.TripStateStarted {
		t.Fatalf("state after start = %s, want STARTED", trip.State)
	}

	trip, err = f.trips.CompleteTrip(ctx, trip.ID, "driver-1", "")
	if err != nil {
		t.Fatalf("CompleteTrip: %v", err)
	}
	if trip.State != domain.TripStateCompleted {
		t.Fatalf("state after complete = %s, want COMPLETED", trip.State)
	}

	wantFare := 50.0 + trip.DistanceKm*15.0
	if trip.FareAmount != wantFare {
		t.Errorf("settled fare = %v, want %v", trip.FareAmount, wantFare)
	}

	driver = f.uow.Drivers.Driver("driver-1")
	if !driver.Available {
		t.Error("driver not freed after completion")
	}
	if driver.ActiveRideCount != 0 {
		t.Errorf("active ride count = %d after completion, want 0", driver.ActiveRideCount)
	}

	wantEvents := []string{"REQUESTED", "ACCEPTED", "STARTED", "COMPLETED"}
	events := f.publisher.Events()
	if len(events) != len(wantEvents) {
		t.Fatalf("published events = %v, want %v", events, wantEvents)
	}
	for i, want := range wantEvents {
		if events[i] != want {
			t.Errorf("event[%d] = %s, want %s", i, events[i], want)
		}
	}

	if f.locks.Held("trip:" + trip.ID) {
		t.Error("trip lock not released")
	}
}

func TestAcceptTrip_WrongDriver(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	f.addDriver("driver-2", 28.6400, 77.2200, 4.5)

	trip := requestNearbyTrip(t, f, "rider-1")
	wrong := "driver-2"
	if trip.DriverID == wrong {
		wrong = "driver-1"
	}

	_, err := f.trips.AcceptTrip(context.Background(), trip.ID, wrong)
	if !errors.Is(err, service.ErrDriverMismatch) {
		t.Fatalf("err = %v, want ErrDriverMismatch", err)
	}

	stored, _ := f.uow.Trips.GetByID(context.Background(), trip.ID)
	if stored.State != domain.TripStateRequested {
		t.Errorf("trip state = %s after rejected accept, want REQUESTED", stored.State)
	}
}

func TestAcceptTrip_DriverNoLongerAvailable(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)

	trip := requestNearbyTrip(t, f, "rider-1")

	// Driver went offline between matching and acceptance.
	if err := f.uow.Drivers.SetAvailability(context.Background(), "driver-1", false); err != nil {
		t.Fatal(err)
	}

	_, err := f.trips.AcceptTrip(context.Background(), trip.ID, "driver-1")
	if !errors.Is(err, service.ErrDriverNotAvailable) {
		t.Fatalf("err = %v, want ErrDriverNotAvailable", err)
	}
}

func TestStartTrip_BeforeAcceptFails(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)

	trip := requestNearbyTrip(t, f, "rider-1")

	_, err := f.trips.StartTrip(context.Background(), trip.ID, "driver-1")
	var transErr *domain.StateTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("err = %v, want StateTransitionError", err)
	}
	if transErr.From != domain.TripStateRequested || transErr.To != domain.TripStateStarted {
		t.Errorf("transition error = %s -> %s", transErr.From, transErr.To)
	}

	stored, _ := f.uow.Trips.GetByID(context.Background(), trip.ID)
	if stored.State != domain.TripStateRequested {
		t.Errorf("trip state = %s, want REQUESTED", stored.State)
	}
}

func TestCancelTrip_AfterStartFails(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := f.addStartedTrip(t, "trip-1", "rider-1", "driver-1")

	_, err := f.trips.CancelTrip(context.Background(), trip.ID, "rider-1", "changed my mind")
	var transErr *domain.StateTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("err = %v, want StateTransitionError", err)
	}

	stored, _ := f.uow.Trips.GetByID(context.Background(), trip.ID)
	if stored.State != domain.TripStateStarted {
		t.Errorf("trip state = %s, want STARTED", stored.State)
	}
	if driver := f.uow.Drivers.Driver("driver-1"); driver.Available {
		t.Error("driver freed despite rejected cancel")
	}
}

func TestCancelTrip_UnauthorizedCaller(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)

	trip := requestNearbyTrip(t, f, "rider-1")

	_, err := f.trips.CancelTrip(context.Background(), trip.ID, "someone-else", "not my trip")
	if !errors.Is(err, service.ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}

	stored, _ := f.uow.Trips.GetByID(context.Background(), trip.ID)
	if stored.State != domain.TripStateRequested {
		t.Errorf("trip state = %s, want REQUESTED", stored.State)
	}
}

func TestCancelTrip_AcceptedTripFreesDriver(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	trip := requestNearbyTrip(t, f, "rider-1")
	if _, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}

	cancelled, err := f.trips.CancelTrip(ctx, trip.ID, "rider-1", "waited too long")
	if err != nil {
		t.Fatalf("CancelTrip: %v", err)
	}
	if cancelled.State != domain.TripStateCancelled {
		t.Fatalf("state = %s, want CANCELLED", cancelled.State)
	}
	if cancelled.CancelledBy != domain.CancelledByRider {
		t.Errorf("cancelledBy = %s, want RIDER", cancelled.CancelledBy)
	}
	if cancelled.CancellationReason != "waited too long" {
		t.Errorf("reason = %q", cancelled.CancellationReason)
	}

	driver := f.uow.Drivers.Driver("driver-1")
	if !driver.Available {
		t.Error("driver not freed after cancel")
	}
	if driver.ActiveRideCount != 0 {
		t.Errorf("active ride count = %d, want 0", driver.ActiveRideCount)
	}
}

func TestCancelTrip_ByDriver(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)

	trip := requestNearbyTrip(t, f, "rider-1")

	cancelled, err := f.trips.CancelTrip(context.Background(), trip.ID, "driver-1", "vehicle breakdown")
	if err != nil {
		t.Fatalf("CancelTrip: %v", err)
	}
	if cancelled.CancelledBy != domain.CancelledByDriver {
		t.Errorf("cancelledBy = %s, want DRIVER", cancelled.CancelledBy)
	}
}

func TestTripOperations_LockContention(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	trip := requestNearbyTrip(t, f, "rider-1")

	// Another worker holds the trip lock.
	if ok, _ := f.locks.AcquireTripLock(ctx, trip.ID, time.Second); !ok {
		t.Fatal("could not seed the lock")
	}

	if _, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1"); !errors.Is(err, service.ErrTripLocked) {
		t.Errorf("AcceptTrip err = %v, want ErrTripLocked", err)
	}
	if _, err := f.trips.CancelTrip(ctx, trip.ID, "rider-1", "x"); !errors.Is(err, service.ErrTripLocked) {
		t.Errorf("CancelTrip err = %v, want ErrTripLocked", err)
	}

	// The lock holder finishes; the operation goes through.
	if err := f.locks.ReleaseTripLock(ctx, trip.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.trips.AcceptTrip(ctx, trip.ID, "driver-1"); err != nil {
		t.Errorf("AcceptTrip after release: %v", err)
	}
}

func TestTripQueries(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.addDriver("driver-1", 28.6320, 77.2170, 4.8)
	ctx := context.Background()

	trip := requestNearbyTrip(t, f, "rider-1")

	got, err := f.trips.GetTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("GetTrip: %v", err)
	}
	if got.ID != trip.ID {
		t.Errorf("GetTrip returned %s, want %s", got.ID, trip.ID)
	}

	active, err := f.trips.ActiveTripByRider(ctx, "rider-1")
	if err != nil {
		t.Fatalf("ActiveTripByRider: %v", err)
	}
	if active == nil || active.ID != trip.ID {
		t.Error("active trip not found for rider")
	}

	none, err := f.trips.ActiveTripByRider(ctx, "rider-2")
	if err != nil {
		t.Fatalf("ActiveTripByRider(rider-2): %v", err)
	}
	if none != nil {
		t.Error("expected no active trip for rider-2")
	}

	history, err := f.trips.TripHistoryByRider(ctx, "rider-1")
	if err != nil {
		t.Fatalf("TripHistoryByRider: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history length = %d, want 1", len(history))
	}
}
