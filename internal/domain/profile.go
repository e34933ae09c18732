package domain

import "time"

// User represents an account in the system. Registration and authentication
// live outside this core; trips reference users only by ID.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// DriverProfile is the persisted driver record. Rating and ActiveRideCount
// feed the matching strategies; Available gates whether the driver is
// considered at all.
type DriverProfile struct {
	ID              string
	Name            string
	Phone           string
	VehiclePlate    string
	Rating          float64
	ActiveRideCount int
	Available       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DriverCandidate is a read-only projection of a driver used during matching.
// The profile store owns the underlying record.
type DriverCandidate struct {
	DriverID        string
	Point           GeoPoint
	Rating          float64
	ActiveRideCount int
	Available       bool
}

// RiderContext carries the rider-side inputs to matching. The point is
// optional; strategies must tolerate its absence.
type RiderContext struct {
	RiderID string
	Point   GeoPoint
}
