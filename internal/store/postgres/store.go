// Package postgres implements store.Store on PostgreSQL. Referential
// integrity lives in the schema: ownership edges are ON DELETE CASCADE,
// optional references ON DELETE SET NULL, and enum columns are CHECK
// constrained string values. Every request runs inside one pgx transaction.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forizec/forizec/internal/store"
)

// Store is the PostgreSQL backend. All stores share one bounded pool.
type Store struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewStore wraps an existing connection pool.
func NewStore(pool *pgxpool.Pool, acquireTimeout time.Duration) *Store {
	if acquireTimeout <= 0 {
		acquireTimeout = 5 * time.Second
	}
	return &Store{pool: pool, acquireTimeout: acquireTimeout}
}

// WithinTx opens one transaction, runs fn, and commits on success. On any
// error the transaction is rolled back before the error propagates, so a
// half-applied cascade is never visible. Waiting for a pooled connection is
// bounded; exceeding the bound fails with ErrPoolExhausted instead of
// blocking the request.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	tx, err := s.pool.Begin(acquireCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return store.ErrPoolExhausted
		}
		return mapPostgresError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPostgresError(err)
	}
	return nil
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapPostgresError(err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Tx implements store.Tx over a single pgx transaction. It is owned by one
// request for its lifetime.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Compliance() store.ComplianceStore { return (*complianceStore)(t) }
func (t *Tx) Users() store.UserStore            { return (*userStore)(t) }
func (t *Tx) Documents() store.DocumentStore    { return (*documentStore)(t) }
func (t *Tx) Schedules() store.ScheduleStore    { return (*scheduleStore)(t) }

// nullableTime lets a zero time fall through to a SQL-side default.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
