package domain

import (
	"math"
	"time"
)

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// UnreachableDistance is returned by DistanceKm when either point is missing
// a coordinate. Callers must treat it as "cannot compare", never as zero.
var UnreachableDistance = math.Inf(1)

// GeoPoint is an immutable latitude/longitude pair. Coordinates are pointers
// because upstream producers may omit either one; a nil coordinate means the
// point cannot participate in distance computations.
type GeoPoint struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// NewGeoPoint builds a fully specified point.
func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Latitude: &lat, Longitude: &lng}
}

// Complete reports whether both coordinates are present.
func (p GeoPoint) Complete() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// DistanceKm computes the great-circle distance between two points using the
// Haversine formula. Returns UnreachableDistance if either point is missing
// a coordinate.
func DistanceKm(a, b GeoPoint) float64 {
	if !a.Complete() || !b.Complete() {
		return UnreachableDistance
	}

	lat1 := *a.Latitude * math.Pi / 180
	lat2 := *b.Latitude * math.Pi / 180
	dLat := (*b.Latitude - *a.Latitude) * math.Pi / 180
	dLng := (*b.Longitude - *a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// LocationSample is a single position report from a driver's device.
type LocationSample struct {
	DriverID  string    `json:"driverId"`
	TripID    string    `json:"tripId,omitempty"`
	Point     GeoPoint  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Speed     *float64  `json:"speed,omitempty"`   // km/h
	Heading   *float64  `json:"heading,omitempty"` // degrees
}
