package cacheinvalidation

import (
	"context"

	authdomain "github.com/dmehra2102/storefront-core/internal/auth/domain"
	discountdomain "github.com/dmehra2102/storefront-core/internal/discount/domain"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	userdomain "github.com/dmehra2102/storefront-core/internal/user/domain"
	"github.com/dmehra2102/storefront-core/pkg/eventbus"
)

type Subscriber interface {
	Subscribe(eventName, listener string, h eventbus.Handler, opts ...eventbus.SubscribeOption)
}

var (
	userEvents = []string{
		authdomain.EventUserRegistered,
		authdomain.EventPasswordChanged,
		authdomain.EventEmailVerified,
		userdomain.EventUserProfileUpdated,
		userdomain.EventUserEmailChanged,
		userdomain.EventUserDeleted,
	}
	productEvents = []string{
		productdomain.EventProductCreated,
		productdomain.EventProductUpdated,
		productdomain.EventProductPriceChanged,
		productdomain.EventProductStockAdjusted,
		productdomain.EventProductStatusChanged,
		productdomain.EventProductDeleted,
	}
	discountEvents = []string{
		discountdomain.EventDiscountCreated,
		discountdomain.EventDiscountUpdated,
		discountdomain.EventDiscountActivated,
		discountdomain.EventDiscountDeactivated,
		discountdomain.EventDiscountExpired,
		discountdomain.EventDiscountApplied,
		discountdomain.EventDiscountDeleted,
	}
)

// Register subscribes the invalidation listeners. Errors are returned to the
// bus, which logs and counts them; the write that raised the event has
// already committed.
func Register(bus Subscriber, svc *Service) {
	for _, name := range userEvents {
		bus.Subscribe(name, "cache.user", func(ctx context.Context, e shared.Event) error {
			return svc.InvalidateUser(ctx, e.String("userId"), e.String("email"), e.String("previousEmail"))
		})
	}
	for _, name := range productEvents {
		bus.Subscribe(name, "cache.product", func(ctx context.Context, e shared.Event) error {
			return svc.InvalidateProduct(ctx, e.AggregateID(), e.String("sku"))
		})
	}
	for _, name := range discountEvents {
		bus.Subscribe(name, "cache.discount", func(ctx context.Context, e shared.Event) error {
			return svc.InvalidateDiscount(ctx, e.AggregateID(), e.String("code"))
		})
	}
}
