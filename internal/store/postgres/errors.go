package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/forizec/forizec/internal/store"
)

// mapPostgresError maps PostgreSQL-specific errors to the store sentinels the
// HTTP responder classifies on. Returns the original error if it's not a
// PostgreSQL error and doesn't match known patterns.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", store.ErrTimeout, err.Error())
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		// Dial/socket failures never reach the server, so there is no
		// PgError to inspect. Treat any non-protocol failure as an outage.
		var connectErr *pgconn.ConnectError
		if errors.As(err, &connectErr) {
			return fmt.Errorf("%w: %s", store.ErrUnavailable, err.Error())
		}
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation,
		pgerrcode.ForeignKeyViolation,
		pgerrcode.CheckViolation,
		pgerrcode.NotNullViolation:
		return &store.ConstraintError{
			Constraint: pgErr.ConstraintName,
			Detail:     pgErr.Message,
		}

	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.CannotConnectNow,
		pgerrcode.SQLClientUnableToEstablishSQLConnection,
		pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown:
		return fmt.Errorf("%w: %s", store.ErrUnavailable, pgErr.Message)

	case pgerrcode.TooManyConnections,
		pgerrcode.InsufficientResources,
		pgerrcode.OutOfMemory:
		return fmt.Errorf("%w: %s", store.ErrPoolExhausted, pgErr.Message)

	case pgerrcode.QueryCanceled:
		return fmt.Errorf("%w: %s", store.ErrTimeout, pgErr.Message)

	default:
		return fmt.Errorf("postgres error [%s]: %s: %w", pgErr.Code, pgErr.Message, err)
	}
}
