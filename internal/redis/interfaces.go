package redis

import (
	"context"
	"time"

	"ridesharing/internal/domain"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
	AcquireTripLock(ctx context.Context, tripID string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID string) error
	AcquireRiderLock(ctx context.Context, riderID string, ttl time.Duration) (bool, error)
	ReleaseRiderLock(ctx context.Context, riderID string) error
}

// CacheStoreInterface defines the interface for entity caching.
type CacheStoreInterface interface {
	GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*CachedDriver, []string, error)
	SetDriversBatch(ctx context.Context, drivers []*CachedDriver) error
	InvalidateDriver(ctx context.Context, driverID string) error
	GetAvailableDrivers(ctx context.Context) ([]string, error)
	AddAvailableDriver(ctx context.Context, driverID string) error
	RemoveAvailableDriver(ctx context.Context, driverID string) error
	GetTrip(ctx context.Context, tripID string) (*domain.Trip, error)
	SetTrip(ctx context.Context, trip *domain.Trip) error
	InvalidateTrip(ctx context.Context, tripID string) error
}

// PublisherInterface defines the interface for event publication.
type PublisherInterface interface {
	PublishLocation(ctx context.Context, sample domain.LocationSample) error
	PublishTripEvent(ctx context.Context, trip *domain.Trip) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
	_ PublisherInterface  = (*Publisher)(nil)
)
