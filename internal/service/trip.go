package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"ridesharing/internal/domain"
	"ridesharing/internal/fare"
	"ridesharing/internal/observability"
	"ridesharing/internal/redis"
	"ridesharing/internal/repository"
)

const (
	tripLockTTL   = 10 * time.Second
	driverLockTTL = 10 * time.Second
	riderLockTTL  = 10 * time.Second

	defaultHistoryLimit = 50
)

// TripService drives trips through their lifecycle. Every transition runs
// under a Redis trip lock plus a row-locking transaction, so concurrent
// operations on the same trip serialize into valid single steps.
type TripService struct {
	uow        UnitOfWork
	tripRepo   repository.TripRepository
	driverRepo repository.DriverRepository
	userRepo   repository.UserRepository
	matcher    *MatchingService
	lockStore  redis.LockStoreInterface
	cacheStore redis.CacheStoreInterface
	publisher  redis.PublisherInterface
}

// NewTripService creates a new TripService.
func NewTripService(
	uow UnitOfWork,
	tripRepo repository.TripRepository,
	driverRepo repository.DriverRepository,
	userRepo repository.UserRepository,
	matcher *MatchingService,
	lockStore redis.LockStoreInterface,
	cacheStore redis.CacheStoreInterface,
	publisher redis.PublisherInterface,
) *TripService {
	return &TripService{
		uow:        uow,
		tripRepo:   tripRepo,
		driverRepo: driverRepo,
		userRepo:   userRepo,
		matcher:    matcher,
		lockStore:  lockStore,
		cacheStore: cacheStore,
		publisher:  publisher,
	}
}

// RequestTripRequest contains the parameters for requesting a trip.
type RequestTripRequest struct {
	RiderID     string
	Pickup      domain.GeoPoint
	Dropoff     domain.GeoPoint
	StrategyKey string
}

// RequestTrip creates a trip for the rider: it matches a driver near the
// pickup point and persists the trip in REQUESTED state with that driver
// assigned. If no driver can be matched, nothing is persisted. The rider
// lock serializes concurrent requests from the same rider so the
// one-active-trip rule cannot be raced past.
func (s *TripService) RequestTrip(ctx context.Context, req RequestTripRequest) (*domain.Trip, error) {
	if req.RiderID == "" {
		return nil, ErrInvalidRiderID
	}
	if !req.Pickup.Complete() {
		return nil, ErrInvalidPickupLocation
	}
	if !req.Dropoff.Complete() {
		return nil, ErrInvalidDropoffLocation
	}

	if _, err := s.userRepo.GetByID(ctx, req.RiderID); err != nil {
		return nil, err
	}

	locked, err := s.lockStore.AcquireRiderLock(ctx, req.RiderID, riderLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrRiderHasActiveTrip
	}
	defer func() { _ = s.lockStore.ReleaseRiderLock(ctx, req.RiderID) }()

	active, err := s.tripRepo.GetActiveByRiderID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrRiderHasActiveTrip
	}

	chosen, err := s.matcher.Match(ctx, domain.RiderContext{
		RiderID: req.RiderID,
		Point:   req.Pickup,
	}, req.StrategyKey)
	if err != nil {
		if err == ErrNoDriverAvailable {
			observability.MatchFailures.Inc()
		}
		return nil, err
	}

	trip := domain.NewTrip(uuid.New().String(), req.RiderID, req.Pickup, req.Dropoff)
	trip.DriverID = chosen.DriverID

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	observability.TripsRequested.Inc()
	s.publishTripEvent(ctx, trip)

	return trip, nil
}

// AcceptTrip transitions the trip to ACCEPTED on behalf of the matched
// driver, marking the driver busy.
func (s *TripService) AcceptTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	release, err := s.lockTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer release()

	locked, err := s.lockStore.AcquireDriverLock(ctx, driverID, driverLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrDriverNotAvailable
	}
	defer func() { _ = s.lockStore.ReleaseDriverLock(ctx, driverID) }()

	var trip *domain.Trip
	err = s.uow.Run(ctx, func(repos Repos) error {
		t, err := repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}

		if t.DriverID != driverID {
			return ErrDriverMismatch
		}

		driver, err := repos.Drivers.GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if !driver.Available {
			return ErrDriverNotAvailable
		}

		other, err := repos.Trips.GetActiveByDriverID(ctx, driverID)
		if err != nil {
			return err
		}
		if other != nil && other.ID != t.ID && other.State != domain.TripStateRequested {
			return ErrDriverHasActiveTrip
		}

		if err := t.Accept(driverID); err != nil {
			return err
		}

		if err := repos.Trips.Update(ctx, t); err != nil {
			return err
		}
		if err := repos.Drivers.SetAvailability(ctx, driverID, false); err != nil {
			return err
		}
		if err := repos.Drivers.AdjustActiveRides(ctx, driverID, 1); err != nil {
			return err
		}

		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.driverBusy(ctx, driverID)
	s.invalidateTrip(ctx, trip.ID)
	s.publishTripEvent(ctx, trip)

	return trip, nil
}

// StartTrip transitions the trip to STARTED. Only the assigned driver may
// start it.
func (s *TripService) StartTrip(ctx context.Context, tripID, driverID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	release, err := s.lockTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer release()

	var trip *domain.Trip
	err = s.uow.Run(ctx, func(repos Repos) error {
		t, err := repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}

		if t.DriverID != driverID {
			return ErrDriverMismatch
		}

		if err := t.Start(); err != nil {
			return err
		}

		if err := repos.Trips.Update(ctx, t); err != nil {
			return err
		}

		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTrip(ctx, trip.ID)
	s.publishTripEvent(ctx, trip)

	return trip, nil
}

// CompleteTrip transitions the trip to COMPLETED, settles the fare, applies
// an optional coupon, and frees the driver. The coupon usage counter is
// incremented inside the same transaction as the settlement, so a shared
// coupon can never be redeemed past its usage limit.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, driverID, couponCode string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	release, err := s.lockTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer release()

	var trip *domain.Trip
	err = s.uow.Run(ctx, func(repos Repos) error {
		t, err := repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}

		if t.DriverID != driverID {
			return ErrDriverMismatch
		}

		if err := t.Complete(); err != nil {
			return err
		}

		if couponCode != "" {
			t.FareAmount = s.redeemCoupon(ctx, repos, couponCode, t.FareAmount)
		}

		if err := repos.Trips.Update(ctx, t); err != nil {
			return err
		}
		if err := repos.Drivers.SetAvailability(ctx, driverID, true); err != nil {
			return err
		}
		if err := repos.Drivers.AdjustActiveRides(ctx, driverID, -1); err != nil {
			return err
		}

		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.TripsCompleted.Inc()
	s.driverFreed(ctx, driverID)
	s.invalidateTrip(ctx, trip.ID)
	s.publishTripEvent(ctx, trip)

	return trip, nil
}

// redeemCoupon applies a coupon to the settled fare. A coupon that is
// unknown, outside its validity window, or already at its usage limit leaves
// the fare untouched: settlement must not fail over a discount.
func (s *TripService) redeemCoupon(ctx context.Context, repos Repos, code string, settledFare float64) float64 {
	coupon, err := repos.Coupons.GetByCode(ctx, code)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("coupon lookup failed for %q: %v", code, err)
		}
		return settledFare
	}

	now := time.Now()
	if !coupon.IsValidAt(now) {
		return settledFare
	}

	redeemed, err := repos.Coupons.IncrementUsage(ctx, code)
	if err != nil {
		log.Printf("coupon redemption failed for %q: %v", code, err)
		return settledFare
	}
	if !redeemed {
		return settledFare
	}

	b := fare.ApplyDiscount(fare.Breakdown{Subtotal: settledFare, FinalFare: settledFare}, coupon, now)
	return b.FinalFare
}

// CancelTrip transitions the trip to CANCELLED. Only the rider or the
// assigned driver may cancel, and only before the trip starts.
func (s *TripService) CancelTrip(ctx context.Context, tripID, callerID, reason string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	if callerID == "" {
		return nil, ErrNotAuthorized
	}

	release, err := s.lockTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer release()

	var trip *domain.Trip
	var freedDriver string
	err = s.uow.Run(ctx, func(repos Repos) error {
		t, err := repos.Trips.GetByIDForUpdate(ctx, tripID)
		if err != nil {
			return err
		}

		var by domain.CancelledBy
		switch callerID {
		case t.RiderID:
			by = domain.CancelledByRider
		case t.DriverID:
			by = domain.CancelledByDriver
		default:
			return ErrNotAuthorized
		}

		wasAccepted := t.State == domain.TripStateAccepted

		if err := t.Cancel(reason, by); err != nil {
			return err
		}

		if err := repos.Trips.Update(ctx, t); err != nil {
			return err
		}

		// The driver is only occupied once the trip was accepted.
		if wasAccepted && t.DriverID != "" {
			if err := repos.Drivers.SetAvailability(ctx, t.DriverID, true); err != nil {
				return err
			}
			if err := repos.Drivers.AdjustActiveRides(ctx, t.DriverID, -1); err != nil {
				return err
			}
			freedDriver = t.DriverID
		}

		trip = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.TripsCancelled.Inc()
	if freedDriver != "" {
		s.driverFreed(ctx, freedDriver)
	}
	s.invalidateTrip(ctx, trip.ID)
	s.publishTripEvent(ctx, trip)

	return trip, nil
}

// GetTrip retrieves a trip by ID, reading through the cache. Lifecycle
// transitions invalidate the cached copy, so a hit is at most one TTL stale.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}

	if s.cacheStore != nil {
		if cached, err := s.cacheStore.GetTrip(ctx, tripID); err == nil && cached != nil {
			return cached, nil
		}
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.SetTrip(ctx, trip)
	}

	return trip, nil
}

// ActiveTripByRider retrieves the rider's in-flight trip, nil when none.
func (s *TripService) ActiveTripByRider(ctx context.Context, riderID string) (*domain.Trip, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.tripRepo.GetActiveByRiderID(ctx, riderID)
}

// ActiveTripByDriver retrieves the driver's in-flight trip, nil when none.
func (s *TripService) ActiveTripByDriver(ctx context.Context, driverID string) (*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.tripRepo.GetActiveByDriverID(ctx, driverID)
}

// TripHistoryByRider retrieves the rider's trips, most recent first.
func (s *TripService) TripHistoryByRider(ctx context.Context, riderID string) ([]*domain.Trip, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}
	return s.tripRepo.ListByRiderID(ctx, riderID, defaultHistoryLimit)
}

// TripHistoryByDriver retrieves the driver's trips, most recent first.
func (s *TripService) TripHistoryByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	return s.tripRepo.ListByDriverID(ctx, driverID, defaultHistoryLimit)
}

// lockTrip acquires the Redis trip lock and returns its release func.
func (s *TripService) lockTrip(ctx context.Context, tripID string) (func(), error) {
	locked, err := s.lockStore.AcquireTripLock(ctx, tripID, tripLockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrTripLocked
	}
	return func() { _ = s.lockStore.ReleaseTripLock(ctx, tripID) }, nil
}

// publishTripEvent broadcasts a lifecycle event. Failures are logged, never
// propagated: event delivery is best effort.
func (s *TripService) publishTripEvent(ctx context.Context, trip *domain.Trip) {
	if s.publisher == nil || trip == nil {
		return
	}
	if err := s.publisher.PublishTripEvent(ctx, trip); err != nil {
		log.Printf("trip event publish failed for %s: %v", trip.ID, err)
	}
}

// driverBusy drops the driver's cache entries when they take a trip.
func (s *TripService) driverBusy(ctx context.Context, driverID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateDriver(ctx, driverID)
	_ = s.cacheStore.RemoveAvailableDriver(ctx, driverID)
}

// driverFreed returns the driver to the available set when their trip ends.
// The profile entry is dropped rather than rewritten; the next matching pass
// reloads it.
func (s *TripService) driverFreed(ctx context.Context, driverID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateDriver(ctx, driverID)
	_ = s.cacheStore.AddAvailableDriver(ctx, driverID)
}

// invalidateTrip drops the cached trip copy after a lifecycle transition.
func (s *TripService) invalidateTrip(ctx context.Context, tripID string) {
	if s.cacheStore == nil {
		return
	}
	_ = s.cacheStore.InvalidateTrip(ctx, tripID)
}
