package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/payment/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/idempotency"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

const CodeUnknownGatewayStatus = "UNKNOWN_GATEWAY_STATUS"

// gatewayStatuses maps the transaction_status values a gateway reports.
var gatewayStatuses = map[string]domain.StatusValue{
	"pending":        domain.StatusPending,
	"capture":        domain.StatusSettlement,
	"settlement":     domain.StatusSettlement,
	"cancel":         domain.StatusCancel,
	"expire":         domain.StatusExpire,
	"deny":           domain.StatusDeny,
	"refund":         domain.StatusRefund,
	"partial_refund": domain.StatusRefund,
	"failure":        domain.StatusFailed,
}

func ParseGatewayStatus(raw string) (domain.Status, error) {
	v, ok := gatewayStatuses[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return domain.Status{}, shared.Validation(CodeUnknownGatewayStatus, "unknown gateway status %q", raw)
	}
	return domain.ParseStatus(string(v))
}

type View struct {
	ID            string       `json:"id"`
	OrderID       string       `json:"orderId"`
	Provider      string       `json:"provider"`
	ProviderRef   string       `json:"providerRef"`
	Amount        shared.Money `json:"amount"`
	Status        string       `json:"status"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	FailureReason string       `json:"failureReason,omitempty"`
	PaidAt        *time.Time   `json:"paidAt,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

func ToView(p *domain.Payment) View {
	return View{
		ID:            p.ID().String(),
		OrderID:       p.OrderID(),
		Provider:      p.Provider(),
		ProviderRef:   p.ProviderRef(),
		Amount:        p.Amount(),
		Status:        p.Status().String(),
		PaymentMethod: p.PaymentMethod(),
		FailureReason: p.FailureReason(),
		PaidAt:        p.PaidAt(),
		ExpiresAt:     p.ExpiresAt(),
	}
}

type Service struct {
	log   *slog.Logger
	repo  Repository
	uow   *uow.UnitOfWork
	dedup Deduplicator
}

func NewService(log *slog.Logger, repo Repository, u *uow.UnitOfWork, dedup Deduplicator) *Service {
	return &Service{log: log, repo: repo, uow: u, dedup: dedup}
}

type InitiateInput struct {
	OrderID       string
	Provider      string
	ProviderRef   string
	Amount        shared.Money
	PaymentMethod string
	ExpiresAt     *time.Time
}

// Initiate records a payment the gateway has accepted and now awaits. It
// joins the caller's transaction when there is one.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (View, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		p, err := domain.New(domain.NewParams(in))
		if err != nil {
			return View{}, err
		}
		taken, err := s.repo.ExistsByProviderRef(ctx, p.ProviderRef())
		if err != nil {
			return View{}, err
		}
		if taken {
			return View{}, shared.Conflict(domain.CodeDuplicateProviderRef, "provider ref %q already recorded", p.ProviderRef())
		}
		if err := p.MarkPending(); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, p); err != nil {
			return View{}, err
		}
		return ToView(p), nil
	})
}

func (s *Service) Get(ctx context.Context, rawID string) (View, error) {
	id, err := shared.ParseID[domain.Payment]("payment id", rawID)
	if err != nil {
		return View{}, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	return ToView(p), nil
}

// Delete removes a payment the gateway can no longer move.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := shared.ParseID[domain.Payment]("payment id", rawID)
	if err != nil {
		return err
	}
	return s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.Status().IsTerminal() {
			return shared.StateConflict(domain.CodePaymentInFlight, "payment is still %s", p.Status())
		}
		p.MarkDeleted()
		return s.repo.Delete(ctx, p)
	})
}

func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]View, error) {
	payments, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToView(p))
	}
	return out, nil
}

// Notification is a gateway status report as received on the wire.
type Notification struct {
	Provider      string        `json:"provider"`
	ProviderRef   string        `json:"orderId"`
	TransactionID string        `json:"transactionId"`
	Status        string        `json:"transactionStatus"`
	Amount        *shared.Money `json:"grossAmount,omitempty"`
	FailureReason string        `json:"statusMessage,omitempty"`
	ReceivedAt    time.Time     `json:"receivedAt"`
}

// Result reports what a notification did. Duplicate deliveries are
// acknowledged without touching the payment.
type Result struct {
	Payment   View `json:"payment"`
	Duplicate bool `json:"duplicate"`
	Changed   bool `json:"changed"`
}

// HandleNotification applies a gateway report once. A repeated report is
// skipped; a report whose processing fails releases its claim so the
// gateway's retry is handled.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (Result, error) {
	reported, err := ParseGatewayStatus(n.Status)
	if err != nil {
		return Result{}, err
	}
	key := idempotency.NotificationKey(n.Provider, n.ProviderRef, n.TransactionID, n.Status)
	seen, err := s.dedup.Seen(ctx, key)
	if err != nil {
		return Result{}, shared.Infrastructure("payment.dedup", err)
	}
	if seen {
		s.log.Info("duplicate payment notification skipped", "provider_ref", n.ProviderRef, "status", n.Status)
		p, err := s.repo.FindByProviderRef(ctx, n.ProviderRef)
		if err != nil {
			return Result{}, err
		}
		return Result{Payment: ToView(p), Duplicate: true}, nil
	}

	res, err := uow.Run(ctx, s.uow, func(ctx context.Context) (Result, error) {
		return s.apply(ctx, n, reported)
	})
	if err != nil {
		if ferr := s.dedup.Forget(context.WithoutCancel(ctx), key); ferr != nil {
			s.log.Warn("releasing notification claim failed", "key", key, "err", ferr)
		}
		return Result{}, err
	}
	return res, nil
}

func (s *Service) apply(ctx context.Context, n Notification, reported domain.Status) (Result, error) {
	p, err := s.repo.FindByProviderRefForUpdate(ctx, n.ProviderRef)
	if err != nil {
		return Result{}, err
	}
	receivedAt := n.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	note := domain.Notification{
		ProviderRef:   n.ProviderRef,
		TransactionID: n.TransactionID,
		Status:        reported,
		ReceivedAt:    receivedAt,
	}
	if n.Amount != nil {
		note.Amount = *n.Amount
	}
	if err := p.RecordWebhook(note); err != nil {
		return Result{}, err
	}

	changed := false
	switch {
	case p.Status() == reported:
	case p.Status().CanTransitionTo(reported):
		if err := p.TransitionTo(reported, n.FailureReason); err != nil {
			return Result{}, err
		}
		changed = true
	case p.Status().IsTerminal() || reported.Value() == domain.StatusPending:
		// Gateways redeliver out of order; a late report never rewinds a payment.
		s.log.Warn("stale payment notification ignored", "provider_ref", n.ProviderRef, "current", p.Status().String(), "reported", reported.String())
	default:
		_, err := p.Status().TransitionTo(reported)
		return Result{}, err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return Result{}, err
	}
	return Result{Payment: ToView(p), Changed: changed}, nil
}
