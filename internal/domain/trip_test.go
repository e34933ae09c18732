package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestTrip() *Trip {
	return NewTrip("trip-1", "rider-1",
		NewGeoPoint(28.6315, 77.2167),
		NewGeoPoint(28.6129, 77.2295))
}

func TestNewTrip_InitialState(t *testing.T) {
	t.Parallel()

	trip := newTestTrip()

	if trip.State != TripStateRequested {
		t.Errorf("new trip state = %s, want REQUESTED", trip.State)
	}
	if trip.RequestedAt.IsZero() {
		t.Error("RequestedAt not stamped")
	}
	if trip.DistanceKm <= 0 {
		t.Errorf("DistanceKm = %v, want > 0", trip.DistanceKm)
	}
	if trip.EstimatedDurationMinutes <= 0 {
		t.Errorf("EstimatedDurationMinutes = %d, want > 0", trip.EstimatedDurationMinutes)
	}
	if trip.FareAmount != 0 {
		t.Errorf("FareAmount = %v before settlement, want 0", trip.FareAmount)
	}
}

func TestTrip_TransitionTable(t *testing.T) {
	t.Parallel()

	allowed := map[TripState][]TripState{
		TripStateRequested: {TripStateAccepted, TripStateCancelled},
		TripStateAccepted:  {TripStateStarted, TripStateCancelled},
		TripStateStarted:   {TripStateCompleted},
		TripStateCompleted: {},
		TripStateCancelled: {},
	}
	states := []TripState{
		TripStateRequested, TripStateAccepted, TripStateStarted,
		TripStateCompleted, TripStateCancelled,
	}

	for from, targets := range allowed {
		permitted := make(map[TripState]bool, len(targets))
		for _, s := range targets {
			permitted[s] = true
		}
		for _, to := range states {
			trip := newTestTrip()
			trip.State = from
			if got := trip.CanTransitionTo(to); got != permitted[to] {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, permitted[to])
			}
		}
	}
}

func TestTrip_FullLifecycle(t *testing.T) {
	t.Parallel()

	trip := newTestTrip()

	if err := trip.Accept("driver-1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if trip.DriverID != "driver-1" {
		t.Errorf("DriverID = %q, want driver-1", trip.DriverID)
	}
	if trip.AcceptedAt.IsZero() {
		t.Error("AcceptedAt not stamped")
	}

	if err := trip.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if trip.StartedAt.IsZero() {
		t.Error("StartedAt not stamped")
	}

	if err := trip.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if trip.State != TripStateCompleted {
		t.Errorf("final state = %s, want COMPLETED", trip.State)
	}

	want := 50.0 + trip.DistanceKm*15.0
	if trip.FareAmount != want {
		t.Errorf("settled fare = %v, want %v", trip.FareAmount, want)
	}
}

func TestTrip_IllegalTransitionsLeaveTripUnchanged(t *testing.T) {
	t.Parallel()

	trip := newTestTrip()

	// Cannot start or complete straight from REQUESTED.
	if err := trip.Start(); err == nil {
		t.Fatal("Start from REQUESTED should fail")
	}
	if err := trip.Complete(); err == nil {
		t.Fatal("Complete from REQUESTED should fail")
	}

	var transErr *StateTransitionError
	err := trip.Complete()
	if !errors.As(err, &transErr) {
		t.Fatalf("expected StateTransitionError, got %v", err)
	}
	if transErr.From != TripStateRequested || transErr.To != TripStateCompleted {
		t.Errorf("error states = %s -> %s, want REQUESTED -> COMPLETED", transErr.From, transErr.To)
	}

	if trip.State != TripStateRequested {
		t.Errorf("state mutated to %s after rejected transition", trip.State)
	}
	if trip.FareAmount != 0 {
		t.Errorf("fare mutated to %v after rejected transition", trip.FareAmount)
	}
	if !trip.StartedAt.IsZero() || !trip.CompletedAt.IsZero() {
		t.Error("timestamps stamped despite rejected transition")
	}
}

func TestTrip_CancelFromStartedFails(t *testing.T) {
	t.Parallel()

	trip := newTestTrip()
	if err := trip.Accept("driver-1"); err != nil {
		t.Fatal(err)
	}
	if err := trip.Start(); err != nil {
		t.Fatal(err)
	}

	if err := trip.Cancel("changed my mind", CancelledByRider); err == nil {
		t.Fatal("Cancel from STARTED should fail")
	}
	if trip.State != TripStateStarted {
		t.Errorf("state = %s, want STARTED", trip.State)
	}
	if trip.CancellationReason != "" {
		t.Error("cancellation reason recorded for rejected cancel")
	}
}

func TestTrip_CancelRecordsReasonAndParty(t *testing.T) {
	t.Parallel()

	trip := newTestTrip()
	if err := trip.Cancel("waited too long", CancelledByRider); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if trip.State != TripStateCancelled {
		t.Errorf("state = %s, want CANCELLED", trip.State)
	}
	if trip.CancellationReason != "waited too long" {
		t.Errorf("reason = %q", trip.CancellationReason)
	}
	if trip.CancelledBy != CancelledByRider {
		t.Errorf("cancelledBy = %s, want RIDER", trip.CancelledBy)
	}
	if trip.CancelledAt.IsZero() {
		t.Error("CancelledAt not stamped")
	}
}

func TestTrip_TerminalStatesAreFinal(t *testing.T) {
	t.Parallel()

	completed := newTestTrip()
	completed.State = TripStateCompleted
	cancelled := newTestTrip()
	cancelled.State = TripStateCancelled

	for _, trip := range []*Trip{completed, cancelled} {
		if trip.Active() {
			t.Errorf("trip in %s reported active", trip.State)
		}
		if err := trip.Cancel("late cancel", CancelledByDriver); err == nil {
			t.Errorf("Cancel from %s should fail", trip.State)
		}
		if err := trip.Accept("driver-2"); err == nil {
			t.Errorf("Accept from %s should fail", trip.State)
		}
	}
}

func TestCoupon_IsValidAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limit := 5

	base := Coupon{
		Code:          "MARCH10",
		DiscountType:  DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		Active:        true,
	}

	cases := []struct {
		name   string
		mutate func(*Coupon)
		want   bool
	}{
		{"valid", func(c *Coupon) {}, true},
		{"inactive", func(c *Coupon) { c.Active = false }, false},
		{"not yet started", func(c *Coupon) { c.ValidFrom = now.Add(time.Minute) }, false},
		{"expired", func(c *Coupon) { c.ValidUntil = now.Add(-time.Minute) }, false},
		{"under limit", func(c *Coupon) { c.UsageLimit = &limit; c.UsedCount = 4 }, true},
		{"at limit", func(c *Coupon) { c.UsageLimit = &limit; c.UsedCount = 5 }, false},
		{"unlimited", func(c *Coupon) { c.UsedCount = 1000000 }, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := base
			tc.mutate(&c)
			if got := c.IsValidAt(now); got != tc.want {
				t.Errorf("IsValidAt = %v, want %v", got, tc.want)
			}
		})
	}
}
