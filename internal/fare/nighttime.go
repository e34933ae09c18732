package fare

import (
	"fmt"
	"time"
)

// Nighttime applies surge rates to rides between 22:00 and 06:00. A missing
// or unparsable ride time never selects this strategy.
type Nighttime struct{}

const (
	nightBaseFare      = 3.0
	nightPerMinuteRate = 0.75
	nightMultiplier    = 1.5
)

// Name implements Strategy.
func (Nighttime) Name() string { return "NIGHTTIME" }

// IsApplicable implements Strategy.
func (Nighttime) IsApplicable(req Request) bool {
	ts, ok := parseRideTime(req.RideTime)
	if !ok {
		return false
	}
	hour := ts.Hour()
	return hour >= 22 || hour < 6
}

// Calculate implements Strategy.
func (n Nighttime) Calculate(req Request) Breakdown {
	b := Breakdown{
		StrategyUsed:       n.Name(),
		BaseFare:           nightBaseFare,
		WeatherMultiplier:  1.0,
		TimeMultiplier:     nightMultiplier,
		RideTypeMultiplier: rideTypeMultiplier(req.RideType),
		CalculatedAt:       time.Now(),
	}

	b.DistanceFare = req.DistanceKm * req.BaseRatePerKm * nightMultiplier
	b.TimeFare = float64(req.DurationMinutes) * nightPerMinuteRate * nightMultiplier
	b.Subtotal = (b.BaseFare + b.DistanceFare + b.TimeFare) * b.RideTypeMultiplier
	b.FinalFare = b.Subtotal

	b.AppliedDiscounts = append(b.AppliedDiscounts,
		fmt.Sprintf("Nighttime surcharge: %.0f%%", (nightMultiplier-1)*100))
	if b.RideTypeMultiplier != 1.0 {
		b.AppliedDiscounts = append(b.AppliedDiscounts,
			fmt.Sprintf("Ride type multiplier: %.1f", b.RideTypeMultiplier))
	}

	return b
}
