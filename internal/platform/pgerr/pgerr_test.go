package pgerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

func TestMapUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "discounts_code_key", Detail: "Key (code)=(SAVE) already exists."})

	mapped := Map("discount.save", err, Uniques{"discounts_code_key": "DUPLICATE_DISCOUNT_CODE"})
	assert.True(t, shared.IsCode(mapped, "DUPLICATE_DISCOUNT_CODE"))
	assert.True(t, shared.IsKind(mapped, shared.KindConflict))

	mapped = Map("discount.save", err, nil)
	assert.True(t, shared.IsCode(mapped, CodeConflict))
}

func TestMapKeepsDomainErrors(t *testing.T) {
	domainErr := shared.Validation("INVALID_CART", "bad")
	assert.Same(t, domainErr, Map("op", domainErr, nil))
}

func TestMapInfrastructure(t *testing.T) {
	assert.True(t, shared.IsKind(Map("op", errors.New("conn refused"), nil), shared.KindInfrastructure))
	assert.True(t, shared.IsKind(Map("op", context.DeadlineExceeded, nil), shared.KindInfrastructure))
	assert.NoError(t, Map("op", nil, nil))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
}
