package fare

import (
	"fmt"
	"time"
)

// Daytime is the standard-rate strategy for rides between 06:00 and 22:00.
// It is also the fallback when the ride time is absent or unparsable.
type Daytime struct{}

const (
	daytimeBaseFare      = 2.0
	daytimePerMinuteRate = 0.5
)

// Name implements Strategy.
func (Daytime) Name() string { return "DAYTIME" }

// IsApplicable implements Strategy.
func (Daytime) IsApplicable(req Request) bool {
	ts, ok := parseRideTime(req.RideTime)
	if !ok {
		return true
	}
	hour := ts.Hour()
	return hour >= 6 && hour < 22
}

// Calculate implements Strategy.
func (d Daytime) Calculate(req Request) Breakdown {
	b := Breakdown{
		StrategyUsed:       d.Name(),
		BaseFare:           daytimeBaseFare,
		WeatherMultiplier:  1.0,
		TimeMultiplier:     1.0,
		RideTypeMultiplier: rideTypeMultiplier(req.RideType),
		CalculatedAt:       time.Now(),
	}

	b.DistanceFare = req.DistanceKm * req.BaseRatePerKm
	b.TimeFare = float64(req.DurationMinutes) * daytimePerMinuteRate
	b.Subtotal = (b.BaseFare + b.DistanceFare + b.TimeFare) * b.RideTypeMultiplier
	b.FinalFare = b.Subtotal

	if b.RideTypeMultiplier != 1.0 {
		b.AppliedDiscounts = append(b.AppliedDiscounts,
			fmt.Sprintf("Ride type multiplier: %.1f", b.RideTypeMultiplier))
	}

	return b
}
