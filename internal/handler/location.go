package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridesharing/internal/domain"
	"ridesharing/internal/service"
)

// LocationHandler handles HTTP requests for driver location tracking.
type LocationHandler struct {
	locationService *service.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// IngestBody is the request body for POST /v1/locations.
type IngestBody struct {
	DriverID  string       `json:"driverId" binding:"required"`
	TripID    string       `json:"tripId,omitempty"`
	Location  LocationBody `json:"location"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Speed     *float64     `json:"speed,omitempty"`
	Heading   *float64     `json:"heading,omitempty"`
}

// Ingest handles POST /v1/locations
func (h *LocationHandler) Ingest(c *gin.Context) {
	var body IngestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidDriverID)
		return
	}

	sample := domain.LocationSample{
		DriverID: body.DriverID,
		TripID:   body.TripID,
		Point:    body.Location.point(),
		Speed:    body.Speed,
		Heading:  body.Heading,
	}
	if body.Timestamp != nil {
		sample.Timestamp = *body.Timestamp
	}

	accepted, err := h.locationService.Ingest(c.Request.Context(), sample)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"accepted": accepted})
}

// Latest handles GET /v1/locations/driver/:driverId/latest
func (h *LocationHandler) Latest(c *gin.Context) {
	sample, ok, err := h.locationService.Latest(c.Param("driverId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondJSON(c, http.StatusNotFound, ErrorResponse{Error: "no location for driver"})
		return
	}

	respondJSON(c, http.StatusOK, sample)
}

// defaultHistoryLimit applies when the history query omits ?limit.
const defaultHistoryLimit = 10

// History handles GET /v1/locations/driver/:driverId/history?limit=N
func (h *LocationHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	samples, err := h.locationService.History(c.Param("driverId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, samples)
}

// Active handles GET /v1/locations/active?windowSeconds=N
func (h *LocationHandler) Active(c *gin.Context) {
	var window time.Duration
	if raw := c.Query("windowSeconds"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			window = time.Duration(parsed) * time.Second
		}
	}

	respondJSON(c, http.StatusOK, gin.H{"drivers": h.locationService.ActiveDrivers(window)})
}

// Remove handles DELETE /v1/locations/driver/:driverId
func (h *LocationHandler) Remove(c *gin.Context) {
	if err := h.locationService.Remove(c.Param("driverId")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Stats handles GET /v1/locations/stats
func (h *LocationHandler) Stats(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.locationService.Stats())
}
