package application

import (
	"context"
	"log/slog"

	orderdomain "github.com/dmehra2102/storefront-core/internal/order/domain"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/eventbus"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

type Subscriber interface {
	Subscribe(eventName, listener string, h eventbus.Handler, opts ...eventbus.SubscribeOption)
}

// Restocker returns reserved units to stock when an unpaid order ends.
type Restocker struct {
	log      *slog.Logger
	uow      *uow.UnitOfWork
	orders   OrderReader
	products Products
}

func NewRestocker(log *slog.Logger, u *uow.UnitOfWork, orders OrderReader, products Products) *Restocker {
	return &Restocker{log: log, uow: u, orders: orders, products: products}
}

// Register subscribes the restocker with retry. A failed attempt rolls back,
// so a redelivery never returns the same units twice.
func (r *Restocker) Register(bus Subscriber) {
	for _, name := range []string{orderdomain.EventOrderCancelled, orderdomain.EventOrderExpired} {
		bus.Subscribe(name, "checkout.restock", func(ctx context.Context, e shared.Event) error {
			return r.Restock(ctx, e.AggregateID())
		}, eventbus.Durable())
	}
}

func (r *Restocker) Restock(ctx context.Context, rawOrderID string) error {
	id, err := shared.ParseID[orderdomain.Order]("order id", rawOrderID)
	if err != nil {
		return err
	}
	return r.uow.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := r.orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		for _, l := range o.Lines() {
			pid, err := shared.ParseID[productdomain.Product]("product id", l.ProductID)
			if err != nil {
				return err
			}
			p, err := r.products.FindForUpdate(ctx, pid)
			if shared.IsCode(err, productdomain.CodeProductNotFound) {
				r.log.Warn("restock skipped for deleted product", "order_id", rawOrderID, "product_id", l.ProductID)
				continue
			}
			if err != nil {
				return err
			}
			err = p.AdjustStock(l.Quantity, "order "+rawOrderID+" released")
			if shared.IsCode(err, productdomain.CodeProductNotAvailable) {
				r.log.Info("restock skipped for discontinued product", "order_id", rawOrderID, "product_id", l.ProductID)
				continue
			}
			if err != nil {
				return err
			}
			if err := r.products.Save(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
