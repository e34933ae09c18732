package fare

import (
	"time"

	"ridesharing/internal/domain"
)

// ApplyDiscount applies a coupon to a breakdown's subtotal. It is a pure
// preview: the coupon's usage counter is untouched, so repeated quotes with
// the same coupon are idempotent. Usage is incremented separately at
// settlement.
//
// The breakdown is returned unchanged when the coupon is invalid at now or
// the subtotal is under the coupon's minimum fare.
func ApplyDiscount(b Breakdown, coupon *domain.Coupon, now time.Time) Breakdown {
	if coupon == nil || !coupon.IsValidAt(now) {
		return b
	}
	if coupon.MinimumFare != nil && b.Subtotal < *coupon.MinimumFare {
		return b
	}

	var discount float64
	switch coupon.DiscountType {
	case domain.DiscountPercentage:
		discount = b.Subtotal * coupon.DiscountValue / 100
	case domain.DiscountFixedAmount:
		discount = coupon.DiscountValue
	default:
		return b
	}

	if coupon.MaximumDiscount != nil && discount > *coupon.MaximumDiscount {
		discount = *coupon.MaximumDiscount
	}

	b.DiscountAmount = discount
	b.AppliedCouponCode = coupon.Code
	b.FinalFare = b.Subtotal - discount
	if b.FinalFare < 0 {
		b.FinalFare = 0
	}

	return b
}
