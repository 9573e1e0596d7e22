package application

import (
	"context"

	"github.com/dmehra2102/storefront-core/internal/payment/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error)
	FindByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error)
	// FindByProviderRefForUpdate locks the row for the ambient transaction.
	FindByProviderRefForUpdate(ctx context.Context, providerRef string) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error)
	ExistsByProviderRef(ctx context.Context, providerRef string) (bool, error)
	Save(ctx context.Context, p *domain.Payment) error
	// Delete removes the row and publishes what MarkDeleted recorded.
	Delete(ctx context.Context, p *domain.Payment) error
}

// Deduplicator claims delivery keys; see pkg/idempotency.
type Deduplicator interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}
