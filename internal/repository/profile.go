package repository

import (
	"context"

	"ridesharing/internal/domain"
)

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	// Create adds a new driver profile.
	Create(ctx context.Context, driver *domain.DriverProfile) error

	// GetByID retrieves a driver profile by ID.
	GetByID(ctx context.Context, id string) (*domain.DriverProfile, error)

	// GetAvailable retrieves all drivers currently marked available.
	GetAvailable(ctx context.Context) ([]*domain.DriverProfile, error)

	// SetAvailability flips a driver's availability flag.
	SetAvailability(ctx context.Context, id string, available bool) error

	// AdjustActiveRides adds delta to the driver's active ride counter.
	AdjustActiveRides(ctx context.Context, id string, delta int) error
}

// UserRepository defines the persistence operations for rider accounts.
type UserRepository interface {
	// Create adds a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
