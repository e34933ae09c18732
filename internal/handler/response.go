package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesharing/internal/domain"
	"ridesharing/internal/repository"
	"ridesharing/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var transition *domain.StateTransitionError
	if errors.As(err, &transition) {
		return http.StatusConflict
	}

	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidPickupLocation),
		errors.Is(err, service.ErrInvalidDropoffLocation),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidCouponCode),
		errors.Is(err, service.ErrInvalidDiscountType),
		errors.Is(err, service.ErrInvalidDiscountValue),
		errors.Is(err, service.ErrInvalidValidityWindow):
		return http.StatusBadRequest

	// Conflict errors - valid request, wrong world state
	case errors.Is(err, service.ErrRiderHasActiveTrip),
		errors.Is(err, service.ErrDriverHasActiveTrip),
		errors.Is(err, service.ErrDriverNotAvailable),
		errors.Is(err, service.ErrTripLocked),
		errors.Is(err, service.ErrCouponCodeExists),
		errors.Is(err, service.ErrCouponExhausted),
		errors.Is(err, service.ErrNoDriverAvailable):
		return http.StatusConflict

	// Forbidden - caller is not a party to the trip
	case errors.Is(err, service.ErrDriverMismatch),
		errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
