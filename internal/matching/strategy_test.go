package matching

import (
	"testing"

	"ridesharing/internal/domain"
)

func candidate(id string, lat, lng float64) domain.DriverCandidate {
	return domain.DriverCandidate{
		DriverID:  id,
		Point:     domain.NewGeoPoint(lat, lng),
		Available: true,
	}
}

func TestNearest_PicksClosestDriver(t *testing.T) {
	t.Parallel()

	rider := domain.RiderContext{
		RiderID: "rider-1",
		Point:   domain.NewGeoPoint(28.61, 77.23),
	}
	candidates := []domain.DriverCandidate{
		candidate("d2", 28.70, 77.30),
		candidate("d1", 28.62, 77.24),
	}

	got := Nearest{}.Match(rider, candidates)
	if got == nil {
		t.Fatal("expected a match")
	}
	if got.DriverID != "d1" {
		t.Errorf("expected d1, got %s", got.DriverID)
	}
}

func TestNearest_EmptyCandidates(t *testing.T) {
	t.Parallel()

	rider := domain.RiderContext{RiderID: "rider-1", Point: domain.NewGeoPoint(28.61, 77.23)}
	if got := (Nearest{}).Match(rider, nil); got != nil {
		t.Errorf("expected no match, got %s", got.DriverID)
	}
}

func TestNearest_RiderWithoutLocationFallsBackToFirst(t *testing.T) {
	t.Parallel()

	rider := domain.RiderContext{RiderID: "rider-1"}
	candidates := []domain.DriverCandidate{
		candidate("first", 28.70, 77.30),
		candidate("closest-if-known", 28.61, 77.23),
	}

	got := Nearest{}.Match(rider, candidates)
	if got == nil || got.DriverID != "first" {
		t.Fatalf("expected fallback to first candidate, got %v", got)
	}
}

func TestNearest_SkipsCandidatesWithoutLocation(t *testing.T) {
	t.Parallel()

	rider := domain.RiderContext{RiderID: "rider-1", Point: domain.NewGeoPoint(28.61, 77.23)}
	candidates := []domain.DriverCandidate{
		{DriverID: "no-point", Available: true},
		candidate("located", 28.62, 77.24),
	}

	got := Nearest{}.Match(rider, candidates)
	if got == nil || got.DriverID != "located" {
		t.Fatalf("expected located driver, got %v", got)
	}
}

func TestNearest_AllCandidatesWithoutLocation(t *testing.T) {
	t.Parallel()

	rider := domain.RiderContext{RiderID: "rider-1", Point: domain.NewGeoPoint(28.61, 77.23)}
	candidates := []domain.DriverCandidate{
		{DriverID: "a", Available: true},
		{DriverID: "b", Available: true},
	}

	if got := (Nearest{}).Match(rider, candidates); got != nil {
		t.Errorf("expected no match, got %s", got.DriverID)
	}
}

func TestLeastBusy_PicksLowestActiveRides(t *testing.T) {
	t.Parallel()

	candidates := []domain.DriverCandidate{
		{DriverID: "busy", ActiveRideCount: 3, Available: true},
		{DriverID: "idle", ActiveRideCount: 0, Available: true},
		{DriverID: "also-idle", ActiveRideCount: 0, Available: true},
	}

	got := LeastBusy{}.Match(domain.RiderContext{RiderID: "rider-1"}, candidates)
	if got == nil {
		t.Fatal("expected a match")
	}
	// Ties break on input order.
	if got.DriverID != "idle" {
		t.Errorf("expected idle, got %s", got.DriverID)
	}
}

func TestHighRating_PicksBestRated(t *testing.T) {
	t.Parallel()

	candidates := []domain.DriverCandidate{
		{DriverID: "ok", Rating: 4.1, Available: true},
		{DriverID: "best", Rating: 4.9, Available: true},
		{DriverID: "unrated", Available: true},
	}

	got := HighRating{}.Match(domain.RiderContext{RiderID: "rider-1"}, candidates)
	if got == nil || got.DriverID != "best" {
		t.Fatalf("expected best, got %v", got)
	}
}

func TestMatch_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	rider := domain.RiderContext{RiderID: "rider-1", Point: domain.NewGeoPoint(28.61, 77.23)}
	candidates := []domain.DriverCandidate{
		candidate("d1", 28.62, 77.24),
		candidate("d2", 28.70, 77.30),
	}
	snapshot := make([]domain.DriverCandidate, len(candidates))
	copy(snapshot, candidates)

	for _, s := range []Strategy{Nearest{}, LeastBusy{}, HighRating{}} {
		s.Match(rider, candidates)
	}

	for i := range candidates {
		if candidates[i].DriverID != snapshot[i].DriverID {
			t.Fatalf("candidate slice mutated at index %d", i)
		}
	}
}

func TestForKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  string
		want Strategy
	}{
		{"nearest", Nearest{}},
		{"least-busy", LeastBusy{}},
		{"high-rating", HighRating{}},
		{"HIGH-RATING", HighRating{}},
		{"", Nearest{}},
		{"bogus", Nearest{}},
	}

	for _, tc := range cases {
		if got := ForKey(tc.key); got != tc.want {
			t.Errorf("ForKey(%q) = %T, want %T", tc.key, got, tc.want)
		}
	}
}
