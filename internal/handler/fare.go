package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridesharing/internal/domain"
	"ridesharing/internal/fare"
	"ridesharing/internal/service"
)

// FareHandler handles HTTP requests for fare quotes and the coupon catalog.
type FareHandler struct {
	fareService   *service.FareService
	couponService *service.CouponService
}

// NewFareHandler creates a new FareHandler.
func NewFareHandler(fareService *service.FareService, couponService *service.CouponService) *FareHandler {
	return &FareHandler{
		fareService:   fareService,
		couponService: couponService,
	}
}

// Calculate handles POST /v1/fare/calculate
func (h *FareHandler) Calculate(c *gin.Context) {
	var req fare.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid fare request"})
		return
	}

	breakdown, err := h.fareService.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, breakdown)
}

// Strategies handles GET /v1/fare/strategies
func (h *FareHandler) Strategies(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{"strategies": h.fareService.Strategies()})
}

// CouponResponse is the HTTP representation of a coupon.
type CouponResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Description     string    `json:"description,omitempty"`
	DiscountType    string    `json:"discountType"`
	DiscountValue   float64   `json:"discountValue"`
	MinimumFare     *float64  `json:"minimumFare,omitempty"`
	MaximumDiscount *float64  `json:"maximumDiscount,omitempty"`
	ValidFrom       time.Time `json:"validFrom"`
	ValidUntil      time.Time `json:"validUntil"`
	UsageLimit      *int      `json:"usageLimit,omitempty"`
	UsedCount       int       `json:"usedCount"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toCouponResponse(coupon *domain.Coupon) CouponResponse {
	return CouponResponse{
		ID:              coupon.ID,
		Code:            coupon.Code,
		Description:     coupon.Description,
		DiscountType:    string(coupon.DiscountType),
		DiscountValue:   coupon.DiscountValue,
		MinimumFare:     coupon.MinimumFare,
		MaximumDiscount: coupon.MaximumDiscount,
		ValidFrom:       coupon.ValidFrom,
		ValidUntil:      coupon.ValidUntil,
		UsageLimit:      coupon.UsageLimit,
		UsedCount:       coupon.UsedCount,
		Active:          coupon.Active,
		CreatedAt:       coupon.CreatedAt,
		UpdatedAt:       coupon.UpdatedAt,
	}
}

func toCouponResponses(coupons []*domain.Coupon) []CouponResponse {
	out := make([]CouponResponse, 0, len(coupons))
	for _, coupon := range coupons {
		out = append(out, toCouponResponse(coupon))
	}
	return out
}

// CouponBody is the request body for creating and updating coupons.
type CouponBody struct {
	Code            string    `json:"code"`
	Description     string    `json:"description,omitempty"`
	DiscountType    string    `json:"discountType" binding:"required"`
	DiscountValue   float64   `json:"discountValue" binding:"required"`
	MinimumFare     *float64  `json:"minimumFare,omitempty"`
	MaximumDiscount *float64  `json:"maximumDiscount,omitempty"`
	ValidFrom       time.Time `json:"validFrom" binding:"required"`
	ValidUntil      time.Time `json:"validUntil" binding:"required"`
	UsageLimit      *int      `json:"usageLimit,omitempty"`
	Active          *bool     `json:"active,omitempty"`
}

// CreateCoupon handles POST /v1/fare/coupons
func (h *FareHandler) CreateCoupon(c *gin.Context) {
	var body CouponBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid coupon request"})
		return
	}

	coupon, err := h.couponService.CreateCoupon(c.Request.Context(), service.CreateCouponRequest{
		Code:            body.Code,
		Description:     body.Description,
		DiscountType:    domain.DiscountType(body.DiscountType),
		DiscountValue:   body.DiscountValue,
		MinimumFare:     body.MinimumFare,
		MaximumDiscount: body.MaximumDiscount,
		ValidFrom:       body.ValidFrom,
		ValidUntil:      body.ValidUntil,
		UsageLimit:      body.UsageLimit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCouponResponse(coupon))
}

// GetCoupon handles GET /v1/fare/coupons/:code
func (h *FareHandler) GetCoupon(c *gin.Context) {
	coupon, err := h.couponService.GetCoupon(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCouponResponse(coupon))
}

// ListCoupons handles GET /v1/fare/coupons. With ?valid=true only coupons
// usable right now are returned.
func (h *FareHandler) ListCoupons(c *gin.Context) {
	var coupons []*domain.Coupon
	var err error

	if c.Query("valid") == "true" {
		coupons, err = h.couponService.ListValidCoupons(c.Request.Context())
	} else {
		coupons, err = h.couponService.ListCoupons(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCouponResponses(coupons))
}

// UpdateCoupon handles PUT /v1/fare/coupons/:code
func (h *FareHandler) UpdateCoupon(c *gin.Context) {
	var body CouponBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid coupon request"})
		return
	}

	active := true
	if body.Active != nil {
		active = *body.Active
	}

	coupon, err := h.couponService.UpdateCoupon(c.Request.Context(), c.Param("code"), service.UpdateCouponRequest{
		Description:     body.Description,
		DiscountType:    domain.DiscountType(body.DiscountType),
		DiscountValue:   body.DiscountValue,
		MinimumFare:     body.MinimumFare,
		MaximumDiscount: body.MaximumDiscount,
		ValidFrom:       body.ValidFrom,
		ValidUntil:      body.ValidUntil,
		UsageLimit:      body.UsageLimit,
		Active:          active,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toCouponResponse(coupon))
}

// DeleteCoupon handles DELETE /v1/fare/coupons/:code
func (h *FareHandler) DeleteCoupon(c *gin.Context) {
	if err := h.couponService.DeleteCoupon(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
