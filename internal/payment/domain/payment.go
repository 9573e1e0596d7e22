package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type PaymentID = shared.ID[Payment]

const maxProviderRefLength = 255

type Payment struct {
	shared.AggregateRoot

	id            PaymentID
	orderID       string
	provider      string
	providerRef   string
	amount        shared.Money
	status        Status
	paymentMethod string
	failureReason string
	paidAt        *time.Time
	expiresAt     *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

type NewParams struct {
	OrderID       string
	Provider      string
	ProviderRef   string
	Amount        shared.Money
	PaymentMethod string
	ExpiresAt     *time.Time
}

// New starts a payment in INITIATED and records PaymentCreated.
func New(p NewParams) (*Payment, error) {
	now := time.Now().UTC()
	pay := &Payment{
		id:            shared.NewID[Payment](),
		orderID:       strings.TrimSpace(p.OrderID),
		provider:      strings.ToUpper(strings.TrimSpace(p.Provider)),
		providerRef:   strings.TrimSpace(p.ProviderRef),
		amount:        p.Amount,
		status:        InitiatedStatus(),
		paymentMethod: strings.TrimSpace(p.PaymentMethod),
		expiresAt:     p.ExpiresAt,
		createdAt:     now,
		updatedAt:     now,
	}
	if err := pay.validate(); err != nil {
		return nil, err
	}
	pay.Record(pay.event(EventPaymentCreated, map[string]any{
		"paymentId":   pay.id.String(),
		"orderId":     pay.orderID,
		"provider":    pay.provider,
		"providerRef": pay.providerRef,
		"amount":      pay.amount,
		"status":      pay.status.String(),
	}))
	return pay, nil
}

type ReconstructParams struct {
	ID            PaymentID
	OrderID       string
	Provider      string
	ProviderRef   string
	Amount        shared.Money
	Status        Status
	PaymentMethod string
	FailureReason string
	PaidAt        *time.Time
	ExpiresAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func Reconstruct(p ReconstructParams) (*Payment, error) {
	pay := &Payment{
		id:            p.ID,
		orderID:       p.OrderID,
		provider:      p.Provider,
		providerRef:   p.ProviderRef,
		amount:        p.Amount,
		status:        p.Status,
		paymentMethod: p.PaymentMethod,
		failureReason: p.FailureReason,
		paidAt:        p.PaidAt,
		expiresAt:     p.ExpiresAt,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}
	if err := pay.validate(); err != nil {
		return nil, err
	}
	return pay, nil
}

func (p *Payment) validate() error {
	switch {
	case p.id.IsZero():
		return shared.Validation(CodeInvalidPayment, "payment id is required")
	case p.orderID == "":
		return shared.Validation(CodeInvalidPayment, "order id is required")
	case p.provider == "":
		return shared.Validation(CodeInvalidPayment, "payment provider is required")
	case p.providerRef == "" || len(p.providerRef) > maxProviderRefLength:
		return shared.Validation(CodeInvalidPayment, "provider reference must be 1-%d characters", maxProviderRefLength)
	case !p.amount.Currency().Valid():
		return shared.Validation(shared.CodeInvalidCurrency, "payment amount is required")
	case p.amount.IsZero():
		return shared.Validation(shared.CodeInvalidMoneyAmount, "payment amount must be positive")
	case p.status.Value() == "":
		return shared.Validation(CodeInvalidStatus, "payment status is required")
	case p.createdAt.IsZero() || p.updatedAt.Before(p.createdAt):
		return shared.Validation(shared.CodeInvalidTimestamp, "payment timestamps are inconsistent")
	}
	return nil
}

func (p *Payment) event(name string, payload map[string]any) shared.Event {
	return shared.NewEvent(name, AggregateType, p.id.String(), payload)
}

// MarkDeleted records the deletion; the repository removes the row.
func (p *Payment) MarkDeleted() {
	p.Record(p.event(EventPaymentDeleted, map[string]any{
		"paymentId":   p.id.String(),
		"orderId":     p.orderID,
		"providerRef": p.providerRef,
	}))
}

// TransitionTo is the only way a payment changes status. It records exactly
// one event: the status specific one when defined, PaymentStatusChanged otherwise.
func (p *Payment) TransitionTo(next Status, reason string) error {
	from := p.status
	to, err := p.status.TransitionTo(next)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	p.status = to
	p.updatedAt = now
	if reason = strings.TrimSpace(reason); reason != "" {
		p.failureReason = reason
	}
	if to.IsPaid() {
		p.paidAt = &now
	}

	name, ok := transitionEvents[to.Value()]
	if !ok {
		name = EventPaymentStatusChanged
	}
	payload := map[string]any{
		"paymentId":   p.id.String(),
		"orderId":     p.orderID,
		"providerRef": p.providerRef,
		"amount":      p.amount,
		"from":        from.String(),
		"to":          to.String(),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	p.Record(p.event(name, payload))
	return nil
}

func (p *Payment) MarkPending() error         { return p.TransitionTo(PendingStatus(), "") }
func (p *Payment) Settle() error              { return p.TransitionTo(SettlementStatus(), "") }
func (p *Payment) Cancel(reason string) error { return p.TransitionTo(CancelStatus(), reason) }
func (p *Payment) Expire() error              { return p.TransitionTo(ExpireStatus(), "") }
func (p *Payment) Deny(reason string) error   { return p.TransitionTo(DenyStatus(), reason) }
func (p *Payment) Refund(reason string) error { return p.TransitionTo(RefundStatus(), reason) }
func (p *Payment) Fail(reason string) error   { return p.TransitionTo(FailedStatus(), reason) }

// Notification is a status report pushed by the payment gateway.
type Notification struct {
	ProviderRef   string
	TransactionID string
	Status        Status
	Amount        shared.Money
	ReceivedAt    time.Time
}

// RecordWebhook records that the gateway reported on this payment. It does
// not move the status; callers follow up with TransitionTo.
func (p *Payment) RecordWebhook(n Notification) error {
	if n.ProviderRef != p.providerRef {
		return shared.Validation(CodeInvalidPayment, "notification for %s delivered to payment %s", n.ProviderRef, p.providerRef)
	}
	if n.Amount.Currency().Valid() {
		same, err := n.Amount.Equals(p.amount)
		if err != nil {
			return err
		}
		if !same {
			return shared.Validation(CodeAmountMismatch, "gateway reported %s, payment is %s", n.Amount, p.amount)
		}
	}
	p.updatedAt = time.Now().UTC()
	p.Record(p.event(EventPaymentWebhookReceived, map[string]any{
		"paymentId":      p.id.String(),
		"orderId":        p.orderID,
		"providerRef":    p.providerRef,
		"transactionId":  n.TransactionID,
		"reportedStatus": n.Status.String(),
		"currentStatus":  p.status.String(),
		"receivedAt":     n.ReceivedAt,
	}))
	return nil
}

func (p *Payment) ID() PaymentID         { return p.id }
func (p *Payment) OrderID() string       { return p.orderID }
func (p *Payment) Provider() string      { return p.provider }
func (p *Payment) ProviderRef() string   { return p.providerRef }
func (p *Payment) Amount() shared.Money  { return p.amount }
func (p *Payment) Status() Status        { return p.status }
func (p *Payment) PaymentMethod() string { return p.paymentMethod }
func (p *Payment) FailureReason() string { return p.failureReason }
func (p *Payment) PaidAt() *time.Time    { return p.paidAt }
func (p *Payment) ExpiresAt() *time.Time { return p.expiresAt }
func (p *Payment) CreatedAt() time.Time  { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time  { return p.updatedAt }
