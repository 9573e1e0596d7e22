package application

import (
	"context"

	paymentdomain "github.com/dmehra2102/storefront-core/internal/payment/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/eventbus"
)

type Subscriber interface {
	Subscribe(eventName, listener string, h eventbus.Handler, opts ...eventbus.SubscribeOption)
}

// Register moves orders along with their payments. The listeners retry on
// failure; every step is safe to repeat.
func Register(bus Subscriber, svc *Service) {
	on := func(name string, h func(ctx context.Context, e shared.Event) error) {
		bus.Subscribe(name, "order.payment", svc.forKnownOrder(h), eventbus.Durable())
	}
	on(paymentdomain.EventPaymentSettled, func(ctx context.Context, e shared.Event) error {
		_, err := svc.MarkPaid(ctx, e.String("orderId"), e.AggregateID())
		return err
	})
	on(paymentdomain.EventPaymentExpired, func(ctx context.Context, e shared.Event) error {
		_, err := svc.Close(ctx, e.String("orderId"), true, "")
		return err
	})
	for _, name := range []string{paymentdomain.EventPaymentCancelled, paymentdomain.EventPaymentDenied, paymentdomain.EventPaymentFailed} {
		on(name, func(ctx context.Context, e shared.Event) error {
			reason := e.String("reason")
			if reason == "" {
				reason = "payment " + e.Name()
			}
			_, err := svc.Close(ctx, e.String("orderId"), false, reason)
			return err
		})
	}
	on(paymentdomain.EventPaymentRefunded, func(ctx context.Context, e shared.Event) error {
		_, err := svc.Refund(ctx, e.String("orderId"), e.String("reason"))
		return err
	})
}

// forKnownOrder drops payment events whose order has been deleted so a
// retrying bus does not spin on them.
func (s *Service) forKnownOrder(h eventbus.Handler) eventbus.Handler {
	return func(ctx context.Context, e shared.Event) error {
		ok, err := s.Exists(ctx, e.String("orderId"))
		if err != nil {
			return err
		}
		if !ok {
			s.log.Warn("payment event for unknown order dropped", "event", e.Name(), "order_id", e.String("orderId"))
			return nil
		}
		return h(ctx, e)
	}
}
