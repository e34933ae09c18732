package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridesharing/internal/domain"
	"ridesharing/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

// Create adds a new driver profile.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.DriverProfile) error {
	query := `
		INSERT INTO drivers (id, name, phone, vehicle_plate, rating, active_ride_count, available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Phone,
		driver.VehiclePlate,
		driver.Rating,
		driver.ActiveRideCount,
		driver.Available,
		driver.CreatedAt,
		driver.UpdatedAt,
	)
	return err
}

// GetByID retrieves a driver profile by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.DriverProfile, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(vehicle_plate, ''),
			rating, active_ride_count, available, created_at, updated_at
		FROM drivers WHERE id = $1
	`

	var driver domain.DriverProfile
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.VehiclePlate,
		&driver.Rating,
		&driver.ActiveRideCount,
		&driver.Available,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// GetAvailable retrieves all drivers currently marked available.
func (r *DriverRepository) GetAvailable(ctx context.Context) ([]*domain.DriverProfile, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(vehicle_plate, ''),
			rating, active_ride_count, available, created_at, updated_at
		FROM drivers WHERE available = TRUE ORDER BY id
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.DriverProfile
	for rows.Next() {
		var driver domain.DriverProfile
		if err := rows.Scan(
			&driver.ID,
			&driver.Name,
			&driver.Phone,
			&driver.VehiclePlate,
			&driver.Rating,
			&driver.ActiveRideCount,
			&driver.Available,
			&driver.CreatedAt,
			&driver.UpdatedAt,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}

	return drivers, rows.Err()
}

// SetAvailability flips a driver's availability flag.
func (r *DriverRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET available = $1, updated_at = NOW() WHERE id = $2`, available, id)
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

// AdjustActiveRides adds delta to the driver's active ride counter. The
// counter is floored at zero in SQL so retries can never drive it negative.
func (r *DriverRepository) AdjustActiveRides(ctx context.Context, id string, delta int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE drivers SET active_ride_count = GREATEST(active_ride_count + $1, 0), updated_at = NOW() WHERE id = $2`,
		delta, id)
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

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.CreatedAt)
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, COALESCE(name, ''), COALESCE(email, ''), created_at FROM users WHERE id = $1`

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// Ensure interfaces are satisfied.
var (
	_ repository.DriverRepository = (*DriverRepository)(nil)
	_ repository.UserRepository   = (*UserRepository)(nil)
)
