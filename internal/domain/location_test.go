package domain

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownPair(t *testing.T) {
	t.Parallel()

	// Connaught Place to India Gate, roughly 2.2 km.
	a := NewGeoPoint(28.6315, 77.2167)
	b := NewGeoPoint(28.6129, 77.2295)

	d := DistanceKm(a, b)
	if d < 1.5 || d > 3.0 {
		t.Errorf("distance = %v km, expected roughly 2.2", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	t.Parallel()

	a := NewGeoPoint(12.9716, 77.5946)
	b := NewGeoPoint(13.0827, 80.2707)

	if DistanceKm(a, b) != DistanceKm(b, a) {
		t.Error("distance must be symmetric")
	}
}

func TestDistanceKm_IdenticalPoints(t *testing.T) {
	t.Parallel()

	p := NewGeoPoint(51.5074, -0.1278)
	if d := DistanceKm(p, p); d > 1e-9 {
		t.Errorf("distance between identical points = %v, want ~0", d)
	}
}

func TestDistanceKm_IncompletePoint(t *testing.T) {
	t.Parallel()

	lat := 10.0
	incomplete := GeoPoint{Latitude: &lat}
	full := NewGeoPoint(10.0, 20.0)

	if d := DistanceKm(incomplete, full); !math.IsInf(d, 1) {
		t.Errorf("expected UnreachableDistance, got %v", d)
	}
	if d := DistanceKm(full, GeoPoint{}); !math.IsInf(d, 1) {
		t.Errorf("expected UnreachableDistance, got %v", d)
	}
}
