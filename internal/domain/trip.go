package domain

import (
	"fmt"
	"math"
	"time"
)

// TripState represents a trip's position in its lifecycle.
type TripState string

const (
	TripStateRequested TripState = "REQUESTED"
	TripStateAccepted  TripState = "ACCEPTED"
	TripStateStarted   TripState = "STARTED"
	TripStateCompleted TripState = "COMPLETED"
	TripStateCancelled TripState = "CANCELLED"
)

// Terminal reports whether no further transition can leave the state.
func (s TripState) Terminal() bool {
	return s == TripStateCompleted || s == TripStateCancelled
}

// CancelledBy identifies which party cancelled a trip.
type CancelledBy string

const (
	CancelledByRider  CancelledBy = "RIDER"
	CancelledByDriver CancelledBy = "DRIVER"
)

// StateTransitionError is returned when a transition outside the lifecycle
// table is attempted. It names both states so callers can report the exact
// violation.
type StateTransitionError struct {
	From TripState
	To   TripState
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition trip from %s to %s", e.From, e.To)
}

// Settlement fare constants. The settlement formula is intentionally distinct
// from the quote-time fare strategies.
const (
	settlementBaseFare  = 50.0
	settlementPerKmRate = 15.0
)

// Trip is the central entity: a ride request moving through the
// REQUESTED -> ACCEPTED -> STARTED -> COMPLETED lifecycle, with
// REQUESTED/ACCEPTED also able to reach CANCELLED. All state changes go
// through transitionTo; no other code path may set State directly.
type Trip struct {
	ID       string
	State    TripState
	RiderID  string
	DriverID string // empty until a driver is matched

	Pickup  GeoPoint
	Dropoff GeoPoint

	RequestedAt time.Time
	AcceptedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	CancelledAt time.Time

	FareAmount               float64 // zero until settlement
	DistanceKm               float64
	EstimatedDurationMinutes int

	CancellationReason string
	CancelledBy        CancelledBy
}

// NewTrip creates a trip in REQUESTED state with distance and duration
// estimates derived from the pickup/dropoff pair.
func NewTrip(id, riderID string, pickup, dropoff GeoPoint) *Trip {
	distance := DistanceKm(pickup, dropoff)
	return &Trip{
		ID:          id,
		State:       TripStateRequested,
		RiderID:     riderID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		RequestedAt: time.Now(),
		DistanceKm:  distance,
		// Rough estimate: 2 minutes per kilometer.
		EstimatedDurationMinutes: int(math.Round(distance * 2)),
	}
}

// CanTransitionTo reports whether the lifecycle table allows moving to next.
func (t *Trip) CanTransitionTo(next TripState) bool {
	switch t.State {
	case TripStateRequested:
		return next == TripStateAccepted || next == TripStateCancelled
	case TripStateAccepted:
		return next == TripStateStarted || next == TripStateCancelled
	case TripStateStarted:
		return next == TripStateCompleted
	default:
		// COMPLETED and CANCELLED are terminal.
		return false
	}
}

// transitionTo is the single enforcement point for the FSM. It stamps the
// "at" timestamp for the state being entered.
func (t *Trip) transitionTo(next TripState) error {
	if !t.CanTransitionTo(next) {
		return &StateTransitionError{From: t.State, To: next}
	}

	t.State = next
	now := time.Now()

	switch next {
	case TripStateAccepted:
		t.AcceptedAt = now
	case TripStateStarted:
		t.StartedAt = now
	case TripStateCompleted:
		t.CompletedAt = now
	case TripStateCancelled:
		t.CancelledAt = now
	}

	return nil
}

// Accept assigns the driver and moves the trip to ACCEPTED.
func (t *Trip) Accept(driverID string) error {
	if err := t.transitionTo(TripStateAccepted); err != nil {
		return err
	}
	t.DriverID = driverID
	return nil
}

// Start moves the trip to STARTED.
func (t *Trip) Start() error {
	return t.transitionTo(TripStateStarted)
}

// Complete moves the trip to COMPLETED and settles the fare using the flat
// settlement formula.
func (t *Trip) Complete() error {
	if err := t.transitionTo(TripStateCompleted); err != nil {
		return err
	}
	t.FareAmount = settlementBaseFare + t.DistanceKm*settlementPerKmRate
	return nil
}

// Cancel moves the trip to CANCELLED recording the reason and which party
// cancelled.
func (t *Trip) Cancel(reason string, by CancelledBy) error {
	if err := t.transitionTo(TripStateCancelled); err != nil {
		return err
	}
	t.CancellationReason = reason
	t.CancelledBy = by
	return nil
}

// Active reports whether the trip still occupies its rider and driver.
func (t *Trip) Active() bool {
	return !t.State.Terminal()
}
