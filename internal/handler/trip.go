package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridesharing/internal/domain"
	"ridesharing/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID                       string          `json:"id"`
	State                    string          `json:"state"`
	RiderID                  string          `json:"riderId"`
	DriverID                 string          `json:"driverId,omitempty"`
	PickupLocation           domain.GeoPoint `json:"pickupLocation"`
	DropoffLocation          domain.GeoPoint `json:"dropoffLocation"`
	RequestedAt              time.Time       `json:"requestedAt"`
	AcceptedAt               *time.Time      `json:"acceptedAt,omitempty"`
	StartedAt                *time.Time      `json:"startedAt,omitempty"`
	CompletedAt              *time.Time      `json:"completedAt,omitempty"`
	CancelledAt              *time.Time      `json:"cancelledAt,omitempty"`
	FareAmount               float64         `json:"fareAmount"`
	DistanceKm               float64         `json:"distanceKm"`
	EstimatedDurationMinutes int             `json:"estimatedDurationMinutes"`
	CancellationReason       string          `json:"cancellationReason,omitempty"`
	CancelledBy              string          `json:"cancelledBy,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:                       trip.ID,
		State:                    string(trip.State),
		RiderID:                  trip.RiderID,
		DriverID:                 trip.DriverID,
		PickupLocation:           trip.Pickup,
		DropoffLocation:          trip.Dropoff,
		RequestedAt:              trip.RequestedAt,
		AcceptedAt:               timePtr(trip.AcceptedAt),
		StartedAt:                timePtr(trip.StartedAt),
		CompletedAt:              timePtr(trip.CompletedAt),
		CancelledAt:              timePtr(trip.CancelledAt),
		FareAmount:               trip.FareAmount,
		DistanceKm:               trip.DistanceKm,
		EstimatedDurationMinutes: trip.EstimatedDurationMinutes,
		CancellationReason:       trip.CancellationReason,
		CancelledBy:              string(trip.CancelledBy),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// RequestTripBody is the request body for POST /v1/trips.
type RequestTripBody struct {
	RiderID         string          `json:"riderId" binding:"required"`
	PickupLocation  domain.GeoPoint `json:"pickupLocation"`
	DropoffLocation domain.GeoPoint `json:"dropoffLocation"`
	Strategy        string          `json:"strategy,omitempty"`
}

// RequestTrip handles POST /v1/trips
func (h *TripHandler) RequestTrip(c *gin.Context) {
	var body RequestTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidRiderID)
		return
	}

	trip, err := h.tripService.RequestTrip(c.Request.Context(), service.RequestTripRequest{
		RiderID:     body.RiderID,
		Pickup:      body.PickupLocation,
		Dropoff:     body.DropoffLocation,
		StrategyKey: body.Strategy,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// DriverActionBody carries the acting driver for accept/start/complete.
type DriverActionBody struct {
	DriverID   string `json:"driverId" binding:"required"`
	CouponCode string `json:"couponCode,omitempty"`
}

// AcceptTrip handles PATCH /v1/trips/:id/accept
func (h *TripHandler) AcceptTrip(c *gin.Context) {
	var body DriverActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	trip, err := h.tripService.AcceptTrip(c.Request.Context(), c.Param("id"), body.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// StartTrip handles PATCH /v1/trips/:id/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	var body DriverActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	trip, err := h.tripService.StartTrip(c.Request.Context(), c.Param("id"), body.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CompleteTrip handles PATCH /v1/trips/:id/complete
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	var body DriverActionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	trip, err := h.tripService.CompleteTrip(c.Request.Context(), c.Param("id"), body.DriverID, body.CouponCode)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// CancelTripBody is the request body for PATCH /v1/trips/:id/cancel.
type CancelTripBody struct {
	CallerID string `json:"callerId" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

// CancelTrip handles PATCH /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var body CancelTripBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrNotAuthorized)
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), c.Param("id"), body.CallerID, body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ActiveByRider handles GET /v1/trips/rider/:riderId/active
func (h *TripHandler) ActiveByRider(c *gin.Context) {
	trip, err := h.tripService.ActiveTripByRider(c.Request.Context(), c.Param("riderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if trip == nil {
		respondJSON(c, http.StatusNotFound, ErrorResponse{Error: "no active trip"})
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ActiveByDriver handles GET /v1/trips/driver/:driverId/active
func (h *TripHandler) ActiveByDriver(c *gin.Context) {
	trip, err := h.tripService.ActiveTripByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if trip == nil {
		respondJSON(c, http.StatusNotFound, ErrorResponse{Error: "no active trip"})
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// HistoryByRider handles GET /v1/trips/rider/:riderId/history
func (h *TripHandler) HistoryByRider(c *gin.Context) {
	trips, err := h.tripService.TripHistoryByRider(c.Request.Context(), c.Param("riderId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

// HistoryByDriver handles GET /v1/trips/driver/:driverId/history
func (h *TripHandler) HistoryByDriver(c *gin.Context) {
	trips, err := h.tripService.TripHistoryByDriver(c.Request.Context(), c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponses(trips))
}

func toTripResponses(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripResponse(t))
	}
	return out
}
