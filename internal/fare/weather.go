package fare

import (
	"fmt"
	"strings"
	"time"
)

// WeatherBased applies surge pricing driven by weather conditions. It only
// activates for conditions severe enough to warrant a surcharge; mild
// conditions leave pricing to the time-of-day strategies.
type WeatherBased struct{}

const (
	weatherBaseFare      = 2.0
	weatherPerMinuteRate = 0.5
)

// surgeConditions are the conditions that make this strategy applicable.
var surgeConditions = map[string]bool{
	"RAIN":       true,
	"SNOW":       true,
	"STORM":      true,
	"FOG":        true,
	"HEAVY_RAIN": true,
	"BLIZZARD":   true,
}

// Name implements Strategy.
func (WeatherBased) Name() string { return "WEATHER_BASED" }

// IsApplicable implements Strategy.
func (WeatherBased) IsApplicable(req Request) bool {
	return surgeConditions[strings.ToUpper(req.WeatherCondition)]
}

// weatherMultiplier maps a condition to its surcharge multiplier. Unknown
// conditions price as clear weather.
func weatherMultiplier(condition string) float64 {
	switch strings.ToUpper(condition) {
	case "CLEAR", "SUNNY", "PARTLY_CLOUDY":
		return 1.0
	case "CLOUDY", "OVERCAST":
		return 1.1
	case "RAIN", "DRIZZLE":
		return 1.3
	case "HEAVY_RAIN", "STORM":
		return 1.5
	case "SNOW", "LIGHT_SNOW":
		return 1.4
	case "BLIZZARD", "HEAVY_SNOW":
		return 1.8
	case "FOG", "MIST":
		return 1.2
	default:
		return 1.0
	}
}

// Calculate implements Strategy.
func (w WeatherBased) Calculate(req Request) Breakdown {
	b := Breakdown{
		StrategyUsed:       w.Name(),
		BaseFare:           weatherBaseFare,
		WeatherMultiplier:  weatherMultiplier(req.WeatherCondition),
		TimeMultiplier:     1.0,
		RideTypeMultiplier: rideTypeMultiplier(req.RideType),
		CalculatedAt:       time.Now(),
	}

	b.DistanceFare = req.DistanceKm * req.BaseRatePerKm * b.WeatherMultiplier
	b.TimeFare = float64(req.DurationMinutes) * weatherPerMinuteRate
	b.Subtotal = (b.BaseFare + b.DistanceFare + b.TimeFare) * b.RideTypeMultiplier
	b.FinalFare = b.Subtotal

	if b.WeatherMultiplier != 1.0 {
		b.AppliedDiscounts = append(b.AppliedDiscounts,
			fmt.Sprintf("Weather surcharge (%s): %.0f%%",
				strings.ToUpper(req.WeatherCondition), (b.WeatherMultiplier-1)*100))
	}
	if b.RideTypeMultiplier != 1.0 {
		b.AppliedDiscounts = append(b.AppliedDiscounts,
			fmt.Sprintf("Ride type multiplier: %.1f", b.RideTypeMultiplier))
	}

	return b
}
