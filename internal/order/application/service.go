package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront-core/internal/order/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

type LineView struct {
	ProductID string       `json:"productId"`
	SKU       string       `json:"sku"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice shared.Money `json:"unitPrice"`
	Subtotal  shared.Money `json:"subtotal"`
}

type View struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	Lines          []LineView   `json:"lines"`
	Subtotal       shared.Money `json:"subtotal"`
	DiscountCode   string       `json:"discountCode,omitempty"`
	DiscountAmount shared.Money `json:"discountAmount"`
	Total          shared.Money `json:"total"`
	Status         string       `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
}

func ToView(o *domain.Order) View {
	lines := make([]LineView, 0, len(o.Lines()))
	for _, l := range o.Lines() {
		lines = append(lines, LineView(l))
	}
	return View{
		ID:             o.ID().String(),
		UserID:         o.UserID(),
		Lines:          lines,
		Subtotal:       o.Subtotal(),
		DiscountCode:   o.DiscountCode(),
		DiscountAmount: o.DiscountAmount(),
		Total:          o.Total(),
		Status:         string(o.Status()),
		CreatedAt:      o.CreatedAt(),
	}
}

type Service struct {
	log  *slog.Logger
	repo Repository
	uow  *uow.UnitOfWork
}

func NewService(log *slog.Logger, repo Repository, u *uow.UnitOfWork) *Service {
	return &Service{log: log, repo: repo, uow: u}
}

// Place persists a priced order in the ambient transaction.
func (s *Service) Place(ctx context.Context, p domain.PlaceParams) (*domain.Order, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (*domain.Order, error) {
		o, err := domain.Place(p)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, o); err != nil {
			return nil, err
		}
		return o, nil
	})
}

// Get returns the order when it belongs to userID. Another user's order is
// reported as missing.
func (s *Service) Get(ctx context.Context, userID, rawID string) (View, error) {
	id, err := shared.ParseID[domain.Order]("order id", rawID)
	if err != nil {
		return View{}, err
	}
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	if o.UserID() != userID {
		return View{}, shared.NotFound(domain.CodeOrderNotFound, "order not found")
	}
	return ToView(o), nil
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]View, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToView(o))
	}
	return out, nil
}

// Exists reports whether the order is still on record. Malformed ids are
// validation errors.
func (s *Service) Exists(ctx context.Context, rawID string) (bool, error) {
	id, err := shared.ParseID[domain.Order]("order id", rawID)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, id)
}

// Delete removes an order that no longer holds reserved stock.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := shared.ParseID[domain.Order]("order id", rawID)
	if err != nil {
		return err
	}
	return s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.Status() == domain.StatusPendingPayment {
			return shared.StateConflict(domain.CodeAwaitingPayment, "order is awaiting payment")
		}
		o.MarkDeleted()
		return s.repo.Delete(ctx, o)
	})
}

func (s *Service) mutate(ctx context.Context, rawID string, fn func(o *domain.Order) error) (View, error) {
	id, err := shared.ParseID[domain.Order]("order id", rawID)
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		o, err := s.repo.FindForUpdate(ctx, id)
		if err != nil {
			return View{}, err
		}
		if err := fn(o); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, o); err != nil {
			return View{}, err
		}
		return ToView(o), nil
	})
}

// Cancel is the customer facing cancellation; only the owner may cancel.
func (s *Service) Cancel(ctx context.Context, userID, id, reason string) (View, error) {
	return s.mutate(ctx, id, func(o *domain.Order) error {
		if o.UserID() != userID {
			return shared.NotFound(domain.CodeOrderNotFound, "order not found")
		}
		return o.Cancel(reason)
	})
}

func (s *Service) MarkPaid(ctx context.Context, id, paymentID string) (View, error) {
	return s.mutate(ctx, id, func(o *domain.Order) error {
		if o.Status() == domain.StatusPaid {
			return nil
		}
		return o.MarkPaid(paymentID)
	})
}

// Close ends an unpaid order after its payment failed. Orders no longer
// awaiting payment are left alone.
func (s *Service) Close(ctx context.Context, id string, expired bool, reason string) (View, error) {
	return s.mutate(ctx, id, func(o *domain.Order) error {
		if o.Status() != domain.StatusPendingPayment {
			s.log.Info("order already settled, close skipped", "order_id", id, "status", o.Status())
			return nil
		}
		if expired {
			return o.Expire()
		}
		return o.Cancel(reason)
	})
}

func (s *Service) Refund(ctx context.Context, id, reason string) (View, error) {
	return s.mutate(ctx, id, func(o *domain.Order) error { return o.Refund(reason) })
}
