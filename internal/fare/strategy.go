// Package fare implements quote-time fare calculation: a closed set of
// pricing strategies selected by an explicit priority order, plus the coupon
// discount engine applied to a computed subtotal.
package fare

import (
	"strings"
	"time"
)

// Request carries the inputs to a fare quote.
type Request struct {
	DistanceKm       float64 `json:"distance"`
	DurationMinutes  int     `json:"duration"`
	RideTime         string  `json:"rideTime,omitempty"`         // ISO-8601, optional
	WeatherCondition string  `json:"weatherCondition,omitempty"` // CLEAR, RAIN, SNOW, ...
	RideType         string  `json:"rideType,omitempty"`         // ECONOMY, PREMIUM, LUXURY
	BaseRatePerKm    float64 `json:"baseRate"`
	CouponCode       string  `json:"couponCode,omitempty"`
}

// Breakdown is the result of a fare quote. It is returned to the caller and
// never persisted by this core.
type Breakdown struct {
	BaseFare           float64   `json:"baseFare"`
	DistanceFare       float64   `json:"distanceFare"`
	TimeFare           float64   `json:"timeFare"`
	WeatherMultiplier  float64   `json:"weatherMultiplier"`
	TimeMultiplier     float64   `json:"timeMultiplier"`
	RideTypeMultiplier float64   `json:"rideTypeMultiplier"`
	Subtotal           float64   `json:"subtotal"`
	DiscountAmount     float64   `json:"discountAmount"`
	AppliedCouponCode  string    `json:"appliedCouponCode,omitempty"`
	FinalFare          float64   `json:"finalFare"`
	StrategyUsed       string    `json:"strategyUsed"`
	CalculatedAt       time.Time `json:"calculatedAt"`
	AppliedDiscounts   []string  `json:"appliedDiscounts,omitempty"`
}

// Strategy is one pricing scheme. IsApplicable decides whether the scheme
// fits the request; Calculate produces the breakdown. Selection among
// applicable strategies is the Calculator's job.
type Strategy interface {
	Name() string
	IsApplicable(req Request) bool
	Calculate(req Request) Breakdown
}

// rideTypeMultiplier maps a ride type to its fare multiplier. Unknown types
// price as economy.
func rideTypeMultiplier(rideType string) float64 {
	switch strings.ToUpper(rideType) {
	case "PREMIUM":
		return 1.5
	case "LUXURY":
		return 2.0
	default:
		return 1.0
	}
}

// Ride times arrive either with an offset or as a bare local datetime.
var rideTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// parseRideTime parses the optional request timestamp. ok is false for an
// absent or unparsable value.
func parseRideTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range rideTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
