// Package auth carries the authenticated principal through a request context.
package auth

import (
	"context"
	"strings"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeFieldMissing     = "PRINCIPAL_FIELD_MISSING"
)

// Principal is the caller a verified access token speaks for.
type Principal struct {
	UserID        string
	Email         string
	EmailVerified bool
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || strings.TrimSpace(p.UserID) == "" {
		return Principal{}, shared.NewError(shared.KindUnauthorized, CodeNotAuthenticated, "authentication required")
	}
	return p, nil
}

// Field reads one attribute of the principal. A zero value counts as missing.
func Field[T comparable](ctx context.Context, name string, selector func(Principal) T) (T, error) {
	var zero T
	p, err := PrincipalFrom(ctx)
	if err != nil {
		return zero, err
	}
	v := selector(p)
	if v == zero {
		return zero, shared.NewError(shared.KindUnauthorized, CodeFieldMissing, "principal has no "+name)
	}
	return v, nil
}

func UserID(ctx context.Context) (string, error) {
	return Field(ctx, "user id", func(p Principal) string { return p.UserID })
}

func Email(ctx context.Context) (string, error) {
	return Field(ctx, "email", func(p Principal) string { return p.Email })
}
