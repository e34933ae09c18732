package tracker

import (
	"fmt"
	"testing"
	"time"

	"ridesharing/internal/domain"
)

// fakeClock lets tests advance time explicitly.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	tr := New()
	tr.now = clock.now
	return tr, clock
}

func sampleAt(driverID string, lat, lng float64) domain.LocationSample {
	return domain.LocationSample{
		DriverID: driverID,
		Point:    domain.NewGeoPoint(lat, lng),
	}
}

func TestIngest_RejectsMissingDriverID(t *testing.T) {
	tr, _ := newTestTracker()

	if tr.Ingest(sampleAt("", 28.61, 77.23)) {
		t.Error("expected sample without driver id to be rejected")
	}
	if got := tr.Stats().TotalDrivers; got != 0 {
		t.Errorf("expected no tracked drivers, got %d", got)
	}
}

func TestIngest_FirstSampleAlwaysAccepted(t *testing.T) {
	tr, _ := newTestTracker()

	if !tr.Ingest(sampleAt("driver-1", 28.61, 77.23)) {
		t.Fatal("expected first sample to be accepted")
	}

	latest, ok := tr.Latest("driver-1")
	if !ok {
		t.Fatal("expected latest sample")
	}
	if *latest.Point.Latitude != 28.61 {
		t.Errorf("unexpected latitude %v", *latest.Point.Latitude)
	}
}

func TestIngest_RejectsTooSoon(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Ingest(sampleAt("driver-1", 28.61, 77.23))

	// Far enough to clear the distance bar, but only 1s later.
	clock.advance(1 * time.Second)
	if tr.Ingest(sampleAt("driver-1", 28.70, 77.30)) {
		t.Error("expected sample under the 2s interval to be rejected")
	}

	clock.advance(2 * time.Second)
	if !tr.Ingest(sampleAt("driver-1", 28.70, 77.30)) {
		t.Error("expected sample past the interval to be accepted")
	}
}

func TestIngest_RejectsJitter(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Ingest(sampleAt("driver-1", 28.610000, 77.230000))
	clock.advance(5 * time.Second)

	// ~1m of movement: under the 10m displacement bar.
	if tr.Ingest(sampleAt("driver-1", 28.610009, 77.230000)) {
		t.Error("expected sub-10m displacement to be rejected")
	}

	// A teleport clears the bar instantly once the interval has elapsed.
	clock.advance(5 * time.Second)
	if !tr.Ingest(sampleAt("driver-1", 28.70, 77.30)) {
		t.Error("expected large displacement to be accepted")
	}
}

func TestHistory_BoundedAndOrdered(t *testing.T) {
	tr, clock := newTestTracker()

	// Ingest 150 well-separated samples; only the last 100 should remain.
	for i := 0; i < 150; i++ {
		s := sampleAt("driver-1", 28.0+float64(i)*0.01, 77.0)
		s.Timestamp = clock.t
		if !tr.Ingest(s) {
			t.Fatalf("sample %d unexpectedly rejected", i)
		}
		clock.advance(3 * time.Second)
	}

	history := tr.History("driver-1", 200)
	if len(history) != 100 {
		t.Fatalf("expected history capped at 100, got %d", len(history))
	}

	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Fatalf("history out of order at index %d", i)
		}
	}

	// Limit smaller than the history returns the most recent entries.
	tail := tr.History("driver-1", 5)
	if len(tail) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(tail))
	}
	if !tail[4].Timestamp.Equal(history[99].Timestamp) {
		t.Error("expected limited history to end at the newest sample")
	}
}

func TestNearby_FiltersByRadius(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Ingest(sampleAt("close", 28.62, 77.24))
	tr.Ingest(sampleAt("far", 28.70, 77.30))

	center := domain.NewGeoPoint(28.61, 77.23)
	nearby := tr.Nearby(center, 3.0)

	if len(nearby) != 1 {
		t.Fatalf("expected 1 nearby driver, got %d", len(nearby))
	}
	if nearby[0].DriverID != "close" {
		t.Errorf("expected driver close, got %s", nearby[0].DriverID)
	}
}

func TestNearby_SkipsIncompletePoints(t *testing.T) {
	tr, _ := newTestTracker()

	lat := 28.62
	tr.Ingest(domain.LocationSample{
		DriverID: "partial",
		Point:    domain.GeoPoint{Latitude: &lat},
	})

	nearby := tr.Nearby(domain.NewGeoPoint(28.61, 77.23), 100.0)
	if len(nearby) != 0 {
		t.Errorf("expected incomplete points to be skipped, got %d", len(nearby))
	}
}

func TestActiveDrivers_Window(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Ingest(sampleAt("stale", 28.61, 77.23))
	clock.advance(10 * time.Minute)
	tr.Ingest(sampleAt("fresh", 28.62, 77.24))

	active := tr.ActiveDrivers(0) // default 5 minute window
	if len(active) != 1 {
		t.Fatalf("expected 1 active driver, got %d", len(active))
	}
	if active[0] != "fresh" {
		t.Errorf("expected fresh, got %s", active[0])
	}
}

func TestRemove(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Ingest(sampleAt("driver-1", 28.61, 77.23))
	tr.Remove("driver-1")

	if _, ok := tr.Latest("driver-1"); ok {
		t.Error("expected no latest sample after removal")
	}
	if got := len(tr.History("driver-1", 10)); got != 0 {
		t.Errorf("expected empty history after removal, got %d", got)
	}
}

func TestIngest_DriversAreIndependent(t *testing.T) {
	tr, _ := newTestTracker()

	// Back-to-back ingests for distinct drivers must not gate each other.
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("driver-%d", i)
		if !tr.Ingest(sampleAt(id, 28.0+float64(i), 77.0)) {
			t.Fatalf("first sample for %s unexpectedly rejected", id)
		}
	}

	if got := tr.Stats().TotalDrivers; got != 20 {
		t.Errorf("expected 20 tracked drivers, got %d", got)
	}
}
