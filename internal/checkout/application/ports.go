package application

import (
	"context"
	"time"

	cartdomain "github.com/dmehra2102/storefront-core/internal/cart/domain"
	orderdomain "github.com/dmehra2102/storefront-core/internal/order/domain"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
)

type Carts interface {
	FindByUserIDForUpdate(ctx context.Context, userID string) (*cartdomain.Cart, error)
	Save(ctx context.Context, c *cartdomain.Cart) error
}

type Products interface {
	FindForUpdate(ctx context.Context, id productdomain.ProductID) (*productdomain.Product, error)
	Save(ctx context.Context, p *productdomain.Product) error
}

type Discounts interface {
	Redeem(ctx context.Context, code string, purchase shared.Money, productIDs []string) (shared.Money, error)
}

type Orders interface {
	Place(ctx context.Context, p orderdomain.PlaceParams) (*orderdomain.Order, error)
}

type OrderReader interface {
	FindByID(ctx context.Context, id orderdomain.OrderID) (*orderdomain.Order, error)
}

type Payments interface {
	Initiate(ctx context.Context, in paymentapp.InitiateInput) (paymentapp.View, error)
}

// Charge is what the gateway hands back for a new payment request.
type Charge struct {
	ProviderRef string
	ExpiresAt   time.Time
}

type Gateway interface {
	Provider() string
	CreateCharge(ctx context.Context, orderID string, amount shared.Money) (Charge, error)
}
