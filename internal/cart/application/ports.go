package application

import (
	"context"

	"github.com/dmehra2102/storefront-core/internal/cart/domain"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.CartID) (*domain.Cart, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	// FindByUserIDForUpdate locks the cart row for the ambient transaction.
	FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Cart, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	Save(ctx context.Context, c *domain.Cart) error
	Delete(ctx context.Context, id domain.CartID) error
}

// Products is the slice of the product context the cart needs to vet lines.
type Products interface {
	FindByID(ctx context.Context, id productdomain.ProductID) (*productdomain.Product, error)
}
