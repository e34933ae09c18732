package repository

import (
	"context"

	"ridesharing/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByIDForUpdate retrieves a trip by ID, taking a row lock when the
	// repository is transaction-scoped.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetActiveByRiderID retrieves the rider's non-terminal trip.
	// Returns nil if no active trip exists.
	GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Trip, error)

	// GetActiveByDriverID retrieves the driver's non-terminal trip.
	// Returns nil if no active trip exists.
	GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error)

	// ListByRiderID retrieves a rider's trips, most recent first.
	ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Trip, error)

	// ListByDriverID retrieves a driver's trips, most recent first.
	ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Trip, error)
}
