package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridesharing/internal/domain"
	"ridesharing/internal/repository"
)

const tripColumns = `
	id, state, rider_id, COALESCE(driver_id, ''),
	pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
	requested_at, accepted_at, started_at, completed_at, cancelled_at,
	fare_amount, distance_km, estimated_duration_minutes,
	COALESCE(cancellation_reason, ''), COALESCE(cancelled_by, '')
`

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (
			id, state, rider_id, driver_id,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			requested_at, accepted_at, started_at, completed_at, cancelled_at,
			fare_amount, distance_km, estimated_duration_minutes,
			cancellation_reason, cancelled_by
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NULLIF($17, ''), NULLIF($18, ''))
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.State,
		trip.RiderID,
		trip.DriverID,
		coord(trip.Pickup.Latitude),
		coord(trip.Pickup.Longitude),
		coord(trip.Dropoff.Latitude),
		coord(trip.Dropoff.Longitude),
		trip.RequestedAt,
		nullTime(trip.AcceptedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		trip.FareAmount,
		trip.DistanceKm,
		trip.EstimatedDurationMinutes,
		trip.CancellationReason,
		string(trip.CancelledBy),
	)

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetByIDForUpdate retrieves a trip by ID with SELECT ... FOR UPDATE so that
// concurrent lifecycle transitions serialize on the row. Only meaningful on a
// transaction-scoped repository.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET state = $1, driver_id = NULLIF($2, ''),
			accepted_at = $3, started_at = $4, completed_at = $5, cancelled_at = $6,
			fare_amount = $7, cancellation_reason = NULLIF($8, ''), cancelled_by = NULLIF($9, '')
		WHERE id = $10
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.State,
		trip.DriverID,
		nullTime(trip.AcceptedAt),
		nullTime(trip.StartedAt),
		nullTime(trip.CompletedAt),
		nullTime(trip.CancelledAt),
		trip.FareAmount,
		trip.CancellationReason,
		string(trip.CancelledBy),
		trip.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetActiveByRiderID retrieves the rider's non-terminal trip.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE rider_id = $1 AND state NOT IN ($2, $3) LIMIT 1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, riderID, domain.TripStateCompleted, domain.TripStateCancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// GetActiveByDriverID retrieves the driver's non-terminal trip.
// Returns nil if no active trip exists.
func (r *TripRepository) GetActiveByDriverID(ctx context.Context, driverID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 AND state NOT IN ($2, $3) LIMIT 1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID, domain.TripStateCompleted, domain.TripStateCancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// ListByRiderID retrieves a rider's trips, most recent first.
func (r *TripRepository) ListByRiderID(ctx context.Context, riderID string, limit int) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE rider_id = $1 ORDER BY requested_at DESC LIMIT $2`
	return r.list(ctx, query, riderID, limit)
}

// ListByDriverID retrieves a driver's trips, most recent first.
func (r *TripRepository) ListByDriverID(ctx context.Context, driverID string, limit int) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE driver_id = $1 ORDER BY requested_at DESC LIMIT $2`
	return r.list(ctx, query, driverID, limit)
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var pickupLat, pickupLng, dropoffLat, dropoffLng float64
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime
	var cancelledBy string

	err := row.Scan(
		&trip.ID,
		&trip.State,
		&trip.RiderID,
		&trip.DriverID,
		&pickupLat,
		&pickupLng,
		&dropoffLat,
		&dropoffLng,
		&trip.RequestedAt,
		&acceptedAt,
		&startedAt,
		&completedAt,
		&cancelledAt,
		&trip.FareAmount,
		&trip.DistanceKm,
		&trip.EstimatedDurationMinutes,
		&trip.CancellationReason,
		&cancelledBy,
	)
	if err != nil {
		return nil, err
	}

	trip.Pickup = domain.NewGeoPoint(pickupLat, pickupLng)
	trip.Dropoff = domain.NewGeoPoint(dropoffLat, dropoffLng)
	trip.CancelledBy = domain.CancelledBy(cancelledBy)

	if acceptedAt.Valid {
		trip.AcceptedAt = acceptedAt.Time
	}
	if startedAt.Valid {
		trip.StartedAt = startedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// coord dereferences an optional coordinate; trips are validated before
// persistence so a nil here never occurs in practice.
func coord(c *float64) float64 {
	if c == nil {
		return 0
	}
	return *c
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
