package service

import "errors"

var (
	// ErrNoDriverAvailable is returned when no driver can be matched.
	ErrNoDriverAvailable = errors.New("no driver available")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidPickupLocation is returned when pickup coordinates are missing.
	ErrInvalidPickupLocation = errors.New("invalid pickup location")

	// ErrInvalidDropoffLocation is returned when dropoff coordinates are missing.
	ErrInvalidDropoffLocation = errors.New("invalid dropoff location")

	// ErrInvalidLocation is returned when location coordinates are missing.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrRiderHasActiveTrip is returned when the rider already has a trip in flight.
	ErrRiderHasActiveTrip = errors.New("rider already has an active trip")

	// ErrDriverHasActiveTrip is returned when the driver already has a trip in flight.
	ErrDriverHasActiveTrip = errors.New("driver already has an active trip")

	// ErrDriverNotAvailable is returned when the driver is not accepting trips.
	ErrDriverNotAvailable = errors.New("driver not available")

	// ErrDriverMismatch is returned when the caller is not the driver assigned to the trip.
	ErrDriverMismatch = errors.New("driver not assigned to this trip")

	// ErrNotAuthorized is returned when the caller is neither the rider nor the driver of record.
	ErrNotAuthorized = errors.New("caller not authorized for this trip")

	// ErrTripLocked is returned when a concurrent operation holds the trip lock.
	ErrTripLocked = errors.New("trip is being modified by another operation")

	// ErrInvalidCouponCode is returned when a coupon code is empty.
	ErrInvalidCouponCode = errors.New("invalid coupon code")

	// ErrCouponCodeExists is returned when creating a coupon with a duplicate code.
	ErrCouponCodeExists = errors.New("coupon code already exists")

	// ErrInvalidDiscountType is returned when the discount type is unknown.
	ErrInvalidDiscountType = errors.New("invalid discount type")

	// ErrInvalidDiscountValue is returned when the discount value is out of range.
	ErrInvalidDiscountValue = errors.New("invalid discount value")

	// ErrInvalidValidityWindow is returned when validFrom is not before validUntil.
	ErrInvalidValidityWindow = errors.New("invalid coupon validity window")

	// ErrCouponExhausted is returned when a coupon's usage limit has been reached.
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)
