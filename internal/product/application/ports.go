package application

import (
	"context"

	"github.com/dmehra2102/storefront-core/internal/product/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
	// FindForUpdate locks the row for the rest of the ambient transaction.
	FindForUpdate(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Product, error)
	Save(ctx context.Context, p *domain.Product) error
	// Delete removes the row and publishes what MarkDeleted recorded.
	Delete(ctx context.Context, p *domain.Product) error
}
