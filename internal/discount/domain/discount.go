package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type DiscountID = shared.ID[Discount]

const maxCodeLength = 100

var codePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// NormalizeCode upper-cases and validates a discount code.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" || len(code) > maxCodeLength || !codePattern.MatchString(code) {
		return "", shared.Validation(CodeInvalidCode, "discount code %q must match [A-Z0-9_-]+ and be at most %d characters", raw, maxCodeLength)
	}
	return code, nil
}

type Discount struct {
	shared.AggregateRoot

	id            DiscountID
	code          string
	name          string
	description   string
	value         Value
	applicability Applicability
	period        Period
	status        Status
	usageLimit    int
	usageCount    int
	createdAt     time.Time
	updatedAt     time.Time
}

type NewParams struct {
	Code          string
	Name          string
	Description   string
	Value         Value
	Applicability Applicability
	Period        Period
	// UsageLimit of zero means unlimited.
	UsageLimit int
}

func New(p NewParams) (*Discount, error) {
	code, err := NormalizeCode(p.Code)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d := &Discount{
		id:            shared.NewID[Discount](),
		code:          code,
		name:          strings.TrimSpace(p.Name),
		description:   strings.TrimSpace(p.Description),
		value:         p.Value,
		applicability: p.Applicability,
		period:        p.Period,
		status:        ActiveStatus(),
		usageLimit:    p.UsageLimit,
		createdAt:     now,
		updatedAt:     now,
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	d.Record(d.event(EventDiscountCreated, map[string]any{
		"discountId": d.id.String(),
		"code":       d.code,
		"type":       string(d.value.Type()),
		"startDate":  d.period.Start(),
		"endDate":    d.period.End(),
	}))
	return d, nil
}

type ReconstructParams struct {
	ID            DiscountID
	Code          string
	Name          string
	Description   string
	Value         Value
	Applicability Applicability
	Period        Period
	Status        Status
	UsageLimit    int
	UsageCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func Reconstruct(p ReconstructParams) (*Discount, error) {
	code, err := NormalizeCode(p.Code)
	if err != nil {
		return nil, err
	}
	d := &Discount{
		id:            p.ID,
		code:          code,
		name:          strings.TrimSpace(p.Name),
		description:   strings.TrimSpace(p.Description),
		value:         p.Value,
		applicability: p.Applicability,
		period:        p.Period,
		status:        p.Status,
		usageLimit:    p.UsageLimit,
		usageCount:    p.UsageCount,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Discount) validate() error {
	switch {
	case d.id.IsZero():
		return shared.Validation(CodeInvalidDiscount, "discount id is required")
	case d.name == "":
		return shared.Validation(CodeInvalidDiscount, "discount name is required")
	case d.value.Type() == "":
		return shared.Validation(CodeInvalidValue, "discount value is required")
	case d.period.Start().IsZero():
		return shared.Validation(CodeInvalidPeriod, "discount period is required")
	case d.status.Value() == "":
		return shared.Validation(CodeInvalidStatus, "discount status is required")
	case d.usageLimit < 0 || d.usageCount < 0:
		return shared.Validation(CodeInvalidDiscount, "usage counters must not be negative")
	case d.createdAt.IsZero() || d.updatedAt.Before(d.createdAt):
		return shared.Validation(shared.CodeInvalidTimestamp, "discount timestamps are inconsistent")
	}
	return nil
}

func (d *Discount) event(name string, payload map[string]any) shared.Event {
	return shared.NewEvent(name, AggregateType, d.id.String(), payload)
}

func (d *Discount) transition(next Status, eventName string, extra map[string]any) error {
	from := d.status
	to, err := d.status.TransitionTo(next)
	if err != nil {
		return err
	}
	d.status = to
	d.updatedAt = time.Now().UTC()
	payload := map[string]any{
		"discountId": d.id.String(),
		"code":       d.code,
		"from":       from.String(),
		"to":         to.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	d.Record(d.event(eventName, payload))
	return nil
}

func (d *Discount) Activate() error {
	if d.period.HasEnded(time.Now().UTC()) {
		return shared.StateConflict(CodeDiscountExpired, "discount %s period has ended", d.code)
	}
	return d.transition(ActiveStatus(), EventDiscountActivated, nil)
}

func (d *Discount) Deactivate() error {
	return d.transition(InactiveStatus(), EventDiscountDeactivated, nil)
}

func (d *Discount) Expire() error {
	return d.transition(ExpiredStatus(), EventDiscountExpired, nil)
}

// MarkDeleted records the deletion; the repository removes the row.
func (d *Discount) MarkDeleted() {
	d.Record(d.event(EventDiscountDeleted, map[string]any{
		"discountId": d.id.String(),
		"code":       d.code,
	}))
}

func (d *Discount) UpdateDetails(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.Validation(CodeInvalidDiscount, "discount name is required")
	}
	d.name = name
	d.description = strings.TrimSpace(description)
	d.updatedAt = time.Now().UTC()
	d.Record(d.event(EventDiscountUpdated, map[string]any{
		"discountId": d.id.String(),
		"code":       d.code,
		"name":       d.name,
	}))
	return nil
}

// CheckApplicable reports why the discount cannot be used for a purchase, or nil.
func (d *Discount) CheckApplicable(purchase shared.Money, productIDs []string, at time.Time) error {
	switch {
	case d.status.Value() == StatusExpired || d.period.HasEnded(at):
		return shared.StateConflict(CodeDiscountExpired, "discount %s has expired", d.code)
	case d.status.Value() == StatusInactive:
		return shared.StateConflict(CodeDiscountInactive, "discount %s is inactive", d.code)
	case !d.period.HasStarted(at):
		return shared.StateConflict(CodeDiscountNotStarted, "discount %s is not valid yet", d.code)
	case d.usageLimit > 0 && d.usageCount >= d.usageLimit:
		return shared.StateConflict(CodeDiscountUsageLimit, "discount %s reached its usage limit", d.code)
	case !d.applicability.coversProducts(productIDs):
		return shared.StateConflict(CodeDiscountNotApplicable, "discount %s does not apply to these products", d.code)
	}
	if min, ok := d.applicability.MinimumPurchase(); ok {
		enough, err := purchase.IsGreaterThanOrEqual(min)
		if err != nil {
			return err
		}
		if !enough {
			return shared.StateConflict(CodeDiscountMinPurchaseUnmet, "discount %s needs a purchase of at least %s", d.code, min)
		}
	}
	return nil
}

// CalculateDiscount is the side-effect free amount for a purchase.
func (d *Discount) CalculateDiscount(purchase shared.Money) (shared.Money, error) {
	return d.value.CalculateDiscount(purchase)
}

// Apply validates the purchase, consumes one use and returns the discount amount.
func (d *Discount) Apply(purchase shared.Money, productIDs []string, at time.Time) (shared.Money, error) {
	if err := d.CheckApplicable(purchase, productIDs, at); err != nil {
		return shared.Money{}, err
	}
	amount, err := d.value.CalculateDiscount(purchase)
	if err != nil {
		return shared.Money{}, err
	}
	d.usageCount++
	d.updatedAt = time.Now().UTC()
	d.Record(d.event(EventDiscountApplied, map[string]any{
		"discountId":     d.id.String(),
		"code":           d.code,
		"purchaseAmount": purchase,
		"discountAmount": amount,
		"usageCount":     d.usageCount,
	}))
	return amount, nil
}

func (d *Discount) ID() DiscountID               { return d.id }
func (d *Discount) Code() string                 { return d.code }
func (d *Discount) Name() string                 { return d.name }
func (d *Discount) Description() string          { return d.description }
func (d *Discount) Value() Value                 { return d.value }
func (d *Discount) Applicability() Applicability { return d.applicability }
func (d *Discount) Period() Period               { return d.period }
func (d *Discount) Status() Status               { return d.status }
func (d *Discount) UsageLimit() int              { return d.usageLimit }
func (d *Discount) UsageCount() int              { return d.usageCount }
func (d *Discount) CreatedAt() time.Time         { return d.createdAt }
func (d *Discount) UpdatedAt() time.Time         { return d.updatedAt }
func (d *Discount) IsValidAt(at time.Time) bool  { return d.status.IsActive() && d.period.Contains(at) }
func (d *Discount) HasReachedUsageLimit() bool   { return d.usageLimit > 0 && d.usageCount >= d.usageLimit }
