package domain

import "time"

// DiscountType determines how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountPercentage  DiscountType = "PERCENTAGE"
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

// Coupon is a discount voucher applied against a fare subtotal. Validity is
// derived, never stored: recompute with IsValidAt on every use.
type Coupon struct {
	ID            string
	Code          string
	Description   string
	DiscountType  DiscountType
	DiscountValue float64

	MinimumFare     *float64
	MaximumDiscount *float64

	ValidFrom  time.Time
	ValidUntil time.Time

	UsageLimit *int
	UsedCount  int

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidAt reports whether the coupon can be applied at the given instant:
// active, inside its validity window, and under its usage limit.
func (c *Coupon) IsValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}
