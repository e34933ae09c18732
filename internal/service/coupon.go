package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridesharing/internal/domain"
	"ridesharing/internal/repository"
)

// CouponService manages the coupon catalog. Redemption accounting lives in
// trip settlement; this service only handles the catalog lifecycle.
type CouponService struct {
	couponRepo repository.CouponRepository
}

// NewCouponService creates a new CouponService.
func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// CreateCouponRequest contains the parameters for creating a coupon.
type CreateCouponRequest struct {
	Code            string
	Description     string
	DiscountType    domain.DiscountType
	DiscountValue   float64
	MinimumFare     *float64
	MaximumDiscount *float64
	ValidFrom       time.Time
	ValidUntil      time.Time
	UsageLimit      *int
}

// CreateCoupon validates and persists a new coupon.
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validate(code, req); err != nil {
		return nil, err
	}

	if _, err := s.couponRepo.GetByCode(ctx, code); err == nil {
		return nil, ErrCouponCodeExists
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	now := time.Now()
	coupon := &domain.Coupon{
		ID:              uuid.New().String(),
		Code:            code,
		Description:     req.Description,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
		MinimumFare:     req.MinimumFare,
		MaximumDiscount: req.MaximumDiscount,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		UsageLimit:      req.UsageLimit,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	return coupon, nil
}

// GetCoupon retrieves a coupon by code.
func (s *CouponService) GetCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	if code == "" {
		return nil, ErrInvalidCouponCode
	}
	return s.couponRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// ListCoupons retrieves all coupons.
func (s *CouponService) ListCoupons(ctx context.Context) ([]*domain.Coupon, error) {
	return s.couponRepo.GetAll(ctx)
}

// ListValidCoupons retrieves the coupons usable right now.
func (s *CouponService) ListValidCoupons(ctx context.Context) ([]*domain.Coupon, error) {
	all, err := s.couponRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	valid := make([]*domain.Coupon, 0, len(all))
	for _, c := range all {
		if c.IsValidAt(now) {
			valid = append(valid, c)
		}
	}
	return valid, nil
}

// UpdateCouponRequest contains the mutable coupon fields.
type UpdateCouponRequest struct {
	Description     string
	DiscountType    domain.DiscountType
	DiscountValue   float64
	MinimumFare     *float64
	MaximumDiscount *float64
	ValidFrom       time.Time
	ValidUntil      time.Time
	UsageLimit      *int
	Active          bool
}

// UpdateCoupon validates and applies changes to an existing coupon.
func (s *CouponService) UpdateCoupon(ctx context.Context, code string, req UpdateCouponRequest) (*domain.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := s.validate(code, CreateCouponRequest{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	}); err != nil {
		return nil, err
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	coupon.Description = req.Description
	coupon.DiscountType = req.DiscountType
	coupon.DiscountValue = req.DiscountValue
	coupon.MinimumFare = req.MinimumFare
	coupon.MaximumDiscount = req.MaximumDiscount
	coupon.ValidFrom = req.ValidFrom
	coupon.ValidUntil = req.ValidUntil
	coupon.UsageLimit = req.UsageLimit
	coupon.Active = req.Active
	coupon.UpdatedAt = time.Now()

	if err := s.couponRepo.Update(ctx, coupon); err != nil {
		return nil, err
	}

	return coupon, nil
}

// DeleteCoupon removes a coupon from the catalog.
func (s *CouponService) DeleteCoupon(ctx context.Context, code string) error {
	if code == "" {
		return ErrInvalidCouponCode
	}
	return s.couponRepo.Delete(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// validate enforces the catalog rules: non-empty code, known discount type,
// positive value (percentages capped at 100), ordered validity window.
func (s *CouponService) validate(code string, req CreateCouponRequest) error {
	if code == "" {
		return ErrInvalidCouponCode
	}

	switch req.DiscountType {
	case domain.DiscountPercentage:
		if req.DiscountValue <= 0 || req.DiscountValue > 100 {
			return ErrInvalidDiscountValue
		}
	case domain.DiscountFixedAmount:
		if req.DiscountValue <= 0 {
			return ErrInvalidDiscountValue
		}
	default:
		return ErrInvalidDiscountType
	}

	if !req.ValidFrom.Before(req.ValidUntil) {
		return ErrInvalidValidityWindow
	}

	return nil
}
