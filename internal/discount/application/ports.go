package application

import (
	"context"

	"github.com/dmehra2102/storefront-core/internal/discount/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.DiscountID) (*domain.Discount, error)
	FindByCode(ctx context.Context, code string) (*domain.Discount, error)
	// FindByCodeForUpdate locks the row so concurrent checkouts cannot
	// overrun the usage limit.
	FindByCodeForUpdate(ctx context.Context, code string) (*domain.Discount, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, d *domain.Discount) error
	Delete(ctx context.Context, d *domain.Discount) error
}
