package application

import (
	"context"

	"github.com/dmehra2102/storefront-core/internal/order/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	// FindForUpdate locks the order row for the ambient transaction.
	FindForUpdate(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error)
	Exists(ctx context.Context, id domain.OrderID) (bool, error)
	Save(ctx context.Context, o *domain.Order) error
	// Delete removes the order with its lines and publishes what MarkDeleted recorded.
	Delete(ctx context.Context, o *domain.Order) error
}
