// Package cache serves the auth read model from the shared cache under the
// auth:user prefix.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront-core/internal/auth/application"
	"github.com/dmehra2102/storefront-core/internal/auth/domain"
	"github.com/dmehra2102/storefront-core/internal/cacheinvalidation"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/cache"
)

type Source interface {
	FindByID(ctx context.Context, id domain.CredentialID) (*domain.Credential, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
}

type Reader struct {
	log    *slog.Logger
	source Source
	cache  cache.Cache
	ttl    time.Duration
}

func NewReader(log *slog.Logger, source Source, c cache.Cache, ttl time.Duration) *Reader {
	return &Reader{log: log, source: source, cache: c, ttl: ttl}
}

func (r *Reader) ByID(ctx context.Context, rawID string) (application.View, error) {
	id, err := shared.ParseID[domain.Credential]("user id", rawID)
	if err != nil {
		return application.View{}, err
	}
	key := cacheinvalidation.IDKey(cacheinvalidation.AuthUserPrefix, id.String())
	return cache.GetOrLoad(ctx, r.log, r.cache, key, r.ttl, func(ctx context.Context) (application.View, error) {
		c, err := r.source.FindByID(ctx, id)
		if err != nil {
			return application.View{}, err
		}
		return application.ToView(c), nil
	})
}

func (r *Reader) ByEmail(ctx context.Context, email string) (application.View, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return application.View{}, err
	}
	key := cacheinvalidation.EmailKey(cacheinvalidation.AuthUserPrefix, normalized)
	return cache.GetOrLoad(ctx, r.log, r.cache, key, r.ttl, func(ctx context.Context) (application.View, error) {
		c, err := r.source.FindByEmail(ctx, normalized)
		if err != nil {
			return application.View{}, err
		}
		return application.ToView(c), nil
	})
}
