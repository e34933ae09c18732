package repository

import (
	"context"

	"ridesharing/internal/domain"
)

// CouponRepository defines the persistence operations for coupons.
type CouponRepository interface {
	// Create persists a new coupon.
	Create(ctx context.Context, coupon *domain.Coupon) error

	// GetByCode retrieves a coupon by its code.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// GetAll retrieves all coupons.
	GetAll(ctx context.Context) ([]*domain.Coupon, error)

	// Update updates an existing coupon.
	Update(ctx context.Context, coupon *domain.Coupon) error

	// IncrementUsage atomically increments the coupon's usage counter,
	// but only while the usage limit has not been reached. Returns false
	// when the limit was already exhausted.
	IncrementUsage(ctx context.Context, code string) (bool, error)

	// Delete removes a coupon.
	Delete(ctx context.Context, code string) error
}
