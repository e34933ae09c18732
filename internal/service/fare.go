package service

import (
	"context"
	"time"

	"ridesharing/internal/fare"
	"ridesharing/internal/repository"
)

// FareService produces fare quotes: strategy-based calculation plus an
// optional coupon preview. Quoting never consumes coupon usage; redemption
// happens at trip settlement.
type FareService struct {
	calculator *fare.Calculator
	couponRepo repository.CouponRepository
}

// NewFareService creates a new FareService.
func NewFareService(calculator *fare.Calculator, couponRepo repository.CouponRepository) *FareService {
	return &FareService{
		calculator: calculator,
		couponRepo: couponRepo,
	}
}

// Calculate computes a fare breakdown for the request. When a coupon code is
// present and resolves to a currently valid coupon, the discount is applied
// to the quote; unknown or invalid codes leave the quote undiscounted.
func (s *FareService) Calculate(ctx context.Context, req fare.Request) (fare.Breakdown, error) {
	b, err := s.calculator.Calculate(req)
	if err != nil {
		return fare.Breakdown{}, err
	}

	if req.CouponCode == "" {
		return b, nil
	}

	coupon, err := s.couponRepo.GetByCode(ctx, req.CouponCode)
	if err != nil {
		if err == repository.ErrNotFound {
			return b, nil
		}
		return fare.Breakdown{}, err
	}

	return fare.ApplyDiscount(b, coupon, time.Now()), nil
}

// Strategies lists the registered strategy names in priority order.
func (s *FareService) Strategies() []string {
	strategies := s.calculator.Strategies()
	names := make([]string, 0, len(strategies))
	for _, st := range strategies {
		names = append(names, st.Name())
	}
	return names
}
