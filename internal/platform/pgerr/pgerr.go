// Package pgerr translates pgx failures into shared domain errors.
package pgerr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

const (
	CodeConflict           = "CONFLICT"
	CodeReferenceViolation = "REFERENCE_VIOLATION"
)

// Uniques maps a unique constraint name to the domain code reported when it fires.
type Uniques map[string]string

func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsRetryable reports serialization failures, deadlocks and lock timeouts.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

// Map leaves errors that already carry a domain code untouched.
func Map(op string, err error, uniques Uniques) error {
	if err == nil {
		return nil
	}
	if shared.CodeOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return shared.Infrastructure(op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			code := uniques[pgErr.ConstraintName]
			if code == "" {
				code = CodeConflict
			}
			return &shared.Error{Kind: shared.KindConflict, Code: code, Message: pgErr.Detail, Cause: err}
		case "23503":
			return &shared.Error{Kind: shared.KindConflict, Code: CodeReferenceViolation, Message: pgErr.Detail, Cause: err}
		}
	}
	return shared.Infrastructure(op, err)
}
