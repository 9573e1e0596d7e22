package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type StatusValue string

const (
	StatusPendingPayment StatusValue = "PENDING_PAYMENT"
	StatusPaid           StatusValue = "PAID"
	StatusCancelled      StatusValue = "CANCELLED"
	StatusExpired        StatusValue = "EXPIRED"
	StatusRefunded       StatusValue = "REFUNDED"
)

var statusMachine = shared.NewStateMachine(CodeInvalidStatusTransition, false, map[StatusValue][]StatusValue{
	StatusPendingPayment: {StatusPaid, StatusCancelled, StatusExpired},
	StatusPaid:           {StatusRefunded},
	StatusCancelled:      {},
	StatusExpired:        {},
	StatusRefunded:       {},
})

func ParseStatus(raw string) (StatusValue, error) {
	v := StatusValue(strings.ToUpper(strings.TrimSpace(raw)))
	if !statusMachine.Known(v) {
		return "", shared.Validation(CodeInvalidStatus, "unknown order status %q", raw)
	}
	return v, nil
}

func AllStatuses() []StatusValue { return statusMachine.Statuses() }

type OrderID = shared.ID[Order]

// Line is a priced order line, frozen at the time the order is placed.
type Line struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	UnitPrice shared.Money
	Subtotal  shared.Money
}

type Order struct {
	shared.AggregateRoot

	id             OrderID
	userID         string
	lines          []Line
	subtotal       shared.Money
	discountCode   string
	discountAmount shared.Money
	total          shared.Money
	status         StatusValue
	createdAt      time.Time
	updatedAt      time.Time
}

type LineInput struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  shared.Quantity
	UnitPrice shared.Money
}

type PlaceParams struct {
	UserID         string
	Currency       shared.Currency
	Lines          []LineInput
	DiscountCode   string
	DiscountAmount *shared.Money
}

// Place prices the lines, applies an already computed discount and records OrderPlaced.
func Place(p PlaceParams) (*Order, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return nil, shared.Validation(CodeInvalidOrder, "user id is required")
	}
	if len(p.Lines) == 0 {
		return nil, shared.Validation(CodeEmptyOrder, "order must contain at least one line")
	}
	currency := p.Currency
	if currency == "" {
		currency = shared.DefaultCurrency
	}

	subtotal, err := shared.ZeroMoney(currency)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(p.Lines))
	for _, in := range p.Lines {
		lineTotal, err := in.UnitPrice.MultiplyInt(in.Quantity.Int())
		if err != nil {
			return nil, err
		}
		if subtotal, err = subtotal.Add(lineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, Line{
			ProductID: in.ProductID,
			SKU:       in.SKU,
			Name:      in.Name,
			Quantity:  in.Quantity.Int(),
			UnitPrice: in.UnitPrice,
			Subtotal:  lineTotal,
		})
	}

	discount, err := shared.ZeroMoney(currency)
	if err != nil {
		return nil, err
	}
	if p.DiscountAmount != nil {
		if discount, err = p.DiscountAmount.Min(subtotal); err != nil {
			return nil, err
		}
	}
	total, err := subtotal.Subtract(discount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		id:             shared.NewID[Order](),
		userID:         strings.TrimSpace(p.UserID),
		lines:          lines,
		subtotal:       subtotal,
		discountCode:   strings.TrimSpace(p.DiscountCode),
		discountAmount: discount,
		total:          total,
		status:         StatusPendingPayment,
		createdAt:      now,
		updatedAt:      now,
	}
	o.Record(shared.NewEvent(EventOrderPlaced, AggregateType, o.id.String(), map[string]any{
		"orderId":        o.id.String(),
		"userId":         o.userID,
		"subtotal":       o.subtotal,
		"discountCode":   o.discountCode,
		"discountAmount": o.discountAmount,
		"total":          o.total,
		"lineCount":      len(o.lines),
	}))
	return o, nil
}

type ReconstructParams struct {
	ID             OrderID
	UserID         string
	Lines          []Line
	Subtotal       shared.Money
	DiscountCode   string
	DiscountAmount shared.Money
	Total          shared.Money
	Status         StatusValue
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func Reconstruct(p ReconstructParams) (*Order, error) {
	if p.ID.IsZero() || p.UserID == "" {
		return nil, shared.Validation(CodeInvalidOrder, "order id and user id are required")
	}
	if !statusMachine.Known(p.Status) {
		return nil, shared.Validation(CodeInvalidStatus, "unknown order status %q", p.Status)
	}
	return &Order{
		id:             p.ID,
		userID:         p.UserID,
		lines:          p.Lines,
		subtotal:       p.Subtotal,
		discountCode:   p.DiscountCode,
		discountAmount: p.DiscountAmount,
		total:          p.Total,
		status:         p.Status,
		createdAt:      p.CreatedAt,
		updatedAt:      p.UpdatedAt,
	}, nil
}

func (o *Order) transition(to StatusValue, eventName string, extra map[string]any) error {
	from := o.status
	next, err := statusMachine.Transition(from, to)
	if err != nil {
		return err
	}
	o.status = next
	o.updatedAt = time.Now().UTC()
	payload := map[string]any{
		"orderId": o.id.String(),
		"userId":  o.userID,
		"from":    string(from),
		"to":      string(next),
		"total":   o.total,
	}
	for k, v := range extra {
		payload[k] = v
	}
	o.Record(shared.NewEvent(eventName, AggregateType, o.id.String(), payload))
	return nil
}

func (o *Order) MarkPaid(paymentID string) error {
	return o.transition(StatusPaid, EventOrderPaid, map[string]any{"paymentId": paymentID})
}

func (o *Order) Cancel(reason string) error {
	return o.transition(StatusCancelled, EventOrderCancelled, map[string]any{"reason": reason})
}

func (o *Order) Expire() error {
	return o.transition(StatusExpired, EventOrderExpired, nil)
}

func (o *Order) Refund(reason string) error {
	return o.transition(StatusRefunded, EventOrderRefunded, map[string]any{"reason": reason})
}

func (o *Order) ID() OrderID                  { return o.id }
func (o *Order) UserID() string               { return o.userID }
func (o *Order) Lines() []Line                { return append([]Line(nil), o.lines...) }
func (o *Order) Subtotal() shared.Money       { return o.subtotal }
func (o *Order) DiscountCode() string         { return o.discountCode }
func (o *Order) DiscountAmount() shared.Money { return o.discountAmount }
func (o *Order) Total() shared.Money          { return o.total }
func (o *Order) Status() StatusValue          { return o.status }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) UpdatedAt() time.Time         { return o.updatedAt }

// MarkDeleted records the deletion. Lines go with the row.
func (o *Order) MarkDeleted() {
	o.Record(shared.NewEvent(EventOrderDeleted, AggregateType, o.id.String(), map[string]any{
		"orderId": o.id.String(),
		"userId":  o.userID,
		"status":  string(o.status),
	}))
}
