// Package matching holds the driver-matching strategies. Each strategy maps
// a rider and a pre-filtered list of available candidates to at most one
// driver; the candidate list is never mutated.
package matching

import (
	"strings"

	"ridesharing/internal/domain"
)

// Strategy selects one driver for a rider from the available candidates.
// Returns nil when no suitable driver exists.
type Strategy interface {
	Match(rider domain.RiderContext, candidates []domain.DriverCandidate) *domain.DriverCandidate
}

// Strategy keys accepted by ForKey.
const (
	KeyNearest    = "nearest"
	KeyLeastBusy  = "least-busy"
	KeyHighRating = "high-rating"
)

// ForKey returns the strategy registered under key. Unknown or empty keys
// fall back to nearest.
func ForKey(key string) Strategy {
	switch strings.ToLower(key) {
	case KeyLeastBusy:
		return LeastBusy{}
	case KeyHighRating:
		return HighRating{}
	default:
		return Nearest{}
	}
}

// Nearest picks the candidate closest to the rider. When the rider's
// location is unknown it falls back to the first candidate.
type Nearest struct{}

// Match implements Strategy.
func (Nearest) Match(rider domain.RiderContext, candidates []domain.DriverCandidate) *domain.DriverCandidate {
	if len(candidates) == 0 {
		return nil
	}

	if !rider.Point.Complete() {
		first := candidates[0]
		return &first
	}

	var best *domain.DriverCandidate
	bestDist := domain.UnreachableDistance

	for i := range candidates {
		if !candidates[i].Point.Complete() {
			continue
		}
		dist := domain.DistanceKm(rider.Point, candidates[i].Point)
		// Strict < keeps ties stable on input order.
		if dist < bestDist {
			bestDist = dist
			best = &candidates[i]
		}
	}

	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

// LeastBusy picks the candidate with the fewest active rides.
type LeastBusy struct{}

// Match implements Strategy.
func (LeastBusy) Match(rider domain.RiderContext, candidates []domain.DriverCandidate) *domain.DriverCandidate {
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ActiveRideCount < best.ActiveRideCount {
			best = c
		}
	}
	return &best
}

// HighRating picks the candidate with the highest rating.
type HighRating struct{}

// Match implements Strategy.
func (HighRating) Match(rider domain.RiderContext, candidates []domain.DriverCandidate) *domain.DriverCandidate {
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Rating > best.Rating {
			best = c
		}
	}
	return &best
}
