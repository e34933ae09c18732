package fare

import "errors"

// ErrNoStrategy is returned when the calculator has no strategies registered.
var ErrNoStrategy = errors.New("no fare strategy registered")

// Calculator selects a strategy by an explicit priority order and delegates
// the computation to it. The order is configuration, not registration
// accident: weather surge outranks nighttime, which outranks daytime.
type Calculator struct {
	// strategies in descending priority; the first applicable one wins.
	strategies []Strategy
}

// NewCalculator builds a calculator with the default priority order.
func NewCalculator() *Calculator {
	return &Calculator{
		strategies: []Strategy{WeatherBased{}, Nighttime{}, Daytime{}},
	}
}

// NewCalculatorWithStrategies builds a calculator with a custom priority
// order, highest first.
func NewCalculatorWithStrategies(strategies ...Strategy) *Calculator {
	return &Calculator{strategies: strategies}
}

// Select returns the highest-priority applicable strategy. When none is
// applicable it falls back to the first registered strategy.
func (c *Calculator) Select(req Request) (Strategy, error) {
	if len(c.strategies) == 0 {
		return nil, ErrNoStrategy
	}

	for _, s := range c.strategies {
		if s.IsApplicable(req) {
			return s, nil
		}
	}

	return c.strategies[0], nil
}

// Calculate picks a strategy for the request and returns its breakdown. A
// request matching both weather and nighttime rules resolves to weather
// alone; surcharges are never compounded.
func (c *Calculator) Calculate(req Request) (Breakdown, error) {
	strategy, err := c.Select(req)
	if err != nil {
		return Breakdown{}, err
	}
	return strategy.Calculate(req), nil
}

// Strategies returns the configured priority order.
func (c *Calculator) Strategies() []Strategy {
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}
