package service

import (
	"context"
	"database/sql"

	"ridesharing/internal/repository"
	"ridesharing/internal/repository/postgres"
)

// Repos bundles the repositories participating in one unit of work. Inside a
// transaction all three are scoped to the same *sql.Tx.
type Repos struct {
	Trips   repository.TripRepository
	Drivers repository.DriverRepository
	Coupons repository.CouponRepository
}

// UnitOfWork runs fn against repositories that share a single transaction.
// fn returning an error rolls the transaction back.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// SQLUnitOfWork implements UnitOfWork over database/sql, handing fn
// transaction-scoped postgres repositories.
type SQLUnitOfWork struct {
	db *sql.DB
}

// NewSQLUnitOfWork creates a SQLUnitOfWork.
func NewSQLUnitOfWork(db *sql.DB) *SQLUnitOfWork {
	return &SQLUnitOfWork{db: db}
}

// Run begins a transaction, executes fn with transaction-scoped repositories,
// and commits. Any error from fn rolls back.
func (u *SQLUnitOfWork) Run(ctx context.Context, fn func(repos Repos) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	repos := Repos{
		Trips:   postgres.NewTripRepositoryWithTx(tx),
		Drivers: postgres.NewDriverRepositoryWithTx(tx),
		Coupons: postgres.NewCouponRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Ensure SQLUnitOfWork implements UnitOfWork.
var _ UnitOfWork = (*SQLUnitOfWork)(nil)
