package application

import (
	"context"

	"github.com/dmehra2102/storefront-core/internal/user/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	FindForUpdate(ctx context.Context, id domain.UserID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, u *domain.User) error
	// Delete removes the row and stores the pending UserDeleted event.
	Delete(ctx context.Context, u *domain.User) error
}

// Reader serves the profile read model, usually through a cache.
type Reader interface {
	ByID(ctx context.Context, id string) (View, error)
	ByEmail(ctx context.Context, email string) (View, error)
}
