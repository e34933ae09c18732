package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ridesharing/internal/domain"
	"ridesharing/internal/service"
)

// MatchingHandler handles HTTP requests for driver matching.
type MatchingHandler struct {
	matchingService *service.MatchingService
	locationService *service.LocationService
}

// NewMatchingHandler creates a new MatchingHandler.
func NewMatchingHandler(matchingService *service.MatchingService, locationService *service.LocationService) *MatchingHandler {
	return &MatchingHandler{
		matchingService: matchingService,
		locationService: locationService,
	}
}

// LocationBody is a latitude/longitude pair in a request body.
type LocationBody struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (b LocationBody) point() domain.GeoPoint {
	return domain.GeoPoint{Latitude: b.Latitude, Longitude: b.Longitude}
}

// UpdateDriverLocation handles PATCH /v1/matching/driver/:id/location
func (h *MatchingHandler) UpdateDriverLocation(c *gin.Context) {
	var body LocationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	accepted, err := h.locationService.Ingest(c.Request.Context(), domain.LocationSample{
		DriverID: c.Param("id"),
		Point:    body.point(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"accepted": accepted})
}

// UpdateRiderLocation handles PATCH /v1/matching/rider/:id/location
func (h *MatchingHandler) UpdateRiderLocation(c *gin.Context) {
	var body LocationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	if err := h.matchingService.UpdateRiderLocation(c.Param("id"), body.point()); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// NearbyDrivers handles GET /v1/matching/drivers/nearby?latitude=..&longitude=..&radiusKm=..
func (h *MatchingHandler) NearbyDrivers(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("longitude"), 64)
	if latErr != nil || lngErr != nil {
		respondError(c, service.ErrInvalidLocation)
		return
	}

	radiusKm := 5.0
	if raw := c.Query("radiusKm"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			radiusKm = parsed
		}
	}

	samples, err := h.matchingService.NearbyDrivers(domain.NewGeoPoint(lat, lng), radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, samples)
}

// MatchBody is the request body for POST /v1/matching/match/:strategy.
type MatchBody struct {
	RiderID  string        `json:"riderId" binding:"required"`
	Location *LocationBody `json:"location,omitempty"`
}

// MatchResponse reports the selected driver.
type MatchResponse struct {
	DriverID        string          `json:"driverId"`
	Rating          float64         `json:"rating"`
	ActiveRideCount int             `json:"activeRideCount"`
	Location        domain.GeoPoint `json:"location"`
}

// Match handles POST /v1/matching/match/:strategy
func (h *MatchingHandler) Match(c *gin.Context) {
	var body MatchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidRiderID)
		return
	}

	rider := domain.RiderContext{RiderID: body.RiderID}
	if body.Location != nil {
		rider.Point = body.Location.point()
	}

	chosen, err := h.matchingService.Match(c.Request.Context(), rider, c.Param("strategy"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, MatchResponse{
		DriverID:        chosen.DriverID,
		Rating:          chosen.Rating,
		ActiveRideCount: chosen.ActiveRideCount,
		Location:        chosen.Point,
	})
}
