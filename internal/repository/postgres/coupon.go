package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridesharing/internal/domain"
	"ridesharing/internal/repository"
)

const couponColumns = `
	id, code, COALESCE(description, ''), discount_type, discount_value,
	minimum_fare, maximum_discount, valid_from, valid_until,
	usage_limit, used_count, active, created_at, updated_at
`

// CouponRepository is a PostgreSQL implementation of repository.CouponRepository.
type CouponRepository struct {
	q Querier
}

// NewCouponRepository creates a new PostgreSQL coupon repository.
func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{q: db}
}

// NewCouponRepositoryWithTx creates a coupon repository using a transaction.
func NewCouponRepositoryWithTx(tx *sql.Tx) *CouponRepository {
	return &CouponRepository{q: tx}
}

// Create persists a new coupon.
func (r *CouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		INSERT INTO coupons (
			id, code, description, discount_type, discount_value,
			minimum_fare, maximum_discount, valid_from, valid_until,
			usage_limit, used_count, active, created_at, updated_at
		)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.q.ExecContext(ctx, query,
		coupon.ID,
		coupon.Code,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MinimumFare,
		coupon.MaximumDiscount,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.UsageLimit,
		coupon.UsedCount,
		coupon.Active,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	)

	return err
}

// GetByCode retrieves a coupon by its code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.q.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return coupon, nil
}

// GetAll retrieves all coupons.
func (r *CouponRepository) GetAll(ctx context.Context) ([]*domain.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY code`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*domain.Coupon
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}

	return coupons, rows.Err()
}

// Update updates an existing coupon.
func (r *CouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	query := `
		UPDATE coupons
		SET description = NULLIF($1, ''), discount_type = $2, discount_value = $3,
			minimum_fare = $4, maximum_discount = $5, valid_from = $6, valid_until = $7,
			usage_limit = $8, active = $9, updated_at = $10
		WHERE code = $11
	`

	result, err := r.q.ExecContext(ctx, query,
		coupon.Description,
		coupon.DiscountType,
		coupon.DiscountValue,
		coupon.MinimumFare,
		coupon.MaximumDiscount,
		coupon.ValidFrom,
		coupon.ValidUntil,
		coupon.UsageLimit,
		coupon.Active,
		coupon.UpdatedAt,
		coupon.Code,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// IncrementUsage atomically increments the coupon's usage counter while the
// usage limit has not been reached. The guard lives in the WHERE clause so
// two concurrent settlements can never push used_count past the limit.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE code = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := r.q.ExecContext(ctx, query, code)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// Delete removes a coupon.
func (r *CouponRepository) Delete(ctx context.Context, code string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var coupon domain.Coupon
	var minimumFare, maximumDiscount sql.NullFloat64
	var usageLimit sql.NullInt64

	err := row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Description,
		&coupon.DiscountType,
		&coupon.DiscountValue,
		&minimumFare,
		&maximumDiscount,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&usageLimit,
		&coupon.UsedCount,
		&coupon.Active,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if minimumFare.Valid {
		coupon.MinimumFare = &minimumFare.Float64
	}
	if maximumDiscount.Valid {
		coupon.MaximumDiscount = &maximumDiscount.Float64
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		coupon.UsageLimit = &limit
	}

	return &coupon, nil
}

// Ensure CouponRepository implements repository.CouponRepository.
var _ repository.CouponRepository = (*CouponRepository)(nil)
