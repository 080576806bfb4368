// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps driver errors that carry domain meaning onto domain sentinels.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", domainerror.ErrConcurrentModification, pgErr.Message)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
