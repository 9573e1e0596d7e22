package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type ValueType string

const (
	ValuePercentage  ValueType = "PERCENTAGE"
	ValueFixedAmount ValueType = "FIXED_AMOUNT"
)

func ParseValueType(raw string) (ValueType, error) {
	switch v := ValueType(strings.ToUpper(strings.TrimSpace(raw))); v {
	case ValuePercentage, ValueFixedAmount:
		return v, nil
	}
	return "", shared.Validation(CodeInvalidValue, "unknown discount type %q", raw)
}

// Value describes how much a discount takes off a purchase.
type Value struct {
	kind        ValueType
	percent     decimal.Decimal
	amount      shared.Money
	maxDiscount *shared.Money
}

// NewPercentageValue builds a percentage discount in (0, 100], optionally capped.
func NewPercentageValue(percent decimal.Decimal, maxDiscount *shared.Money) (Value, error) {
	if !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return Value{}, shared.Validation(CodeInvalidValue, "percentage must be in (0, 100], got %s", percent.String())
	}
	if maxDiscount != nil && maxDiscount.IsZero() {
		return Value{}, shared.Validation(CodeInvalidValue, "max discount must be positive")
	}
	return Value{kind: ValuePercentage, percent: percent, maxDiscount: maxDiscount}, nil
}

func NewFixedAmountValue(amount shared.Money) (Value, error) {
	if amount.IsZero() {
		return Value{}, shared.Validation(CodeInvalidValue, "fixed discount must be positive")
	}
	return Value{kind: ValueFixedAmount, amount: amount}, nil
}

func (v Value) Type() ValueType          { return v.kind }
func (v Value) Percent() decimal.Decimal { return v.percent }
func (v Value) Amount() shared.Money     { return v.amount }

func (v Value) MaxDiscount() (shared.Money, bool) {
	if v.maxDiscount == nil {
		return shared.Money{}, false
	}
	return *v.maxDiscount, true
}

// CalculateDiscount never returns more than the purchase amount, and for
// percentage values never more than the cap.
func (v Value) CalculateDiscount(purchase shared.Money) (shared.Money, error) {
	switch v.kind {
	case ValuePercentage:
		d, err := purchase.Percentage(v.percent)
		if err != nil {
			return shared.Money{}, err
		}
		if v.maxDiscount != nil {
			if d, err = d.Min(*v.maxDiscount); err != nil {
				return shared.Money{}, err
			}
		}
		return d.Min(purchase)
	case ValueFixedAmount:
		return v.amount.Min(purchase)
	}
	return shared.Money{}, shared.Validation(CodeInvalidValue, "discount value has no type")
}

// Period is the half-open validity window [start, end).
type Period struct {
	start time.Time
	end   time.Time
}

func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, shared.Validation(CodeInvalidPeriod, "discount period needs both dates")
	}
	if !start.Before(end) {
		return Period{}, shared.Validation(CodeInvalidPeriod, "discount must start before it ends")
	}
	return Period{start: start.UTC(), end: end.UTC()}, nil
}

func (p Period) Start() time.Time { return p.start }
func (p Period) End() time.Time   { return p.end }

func (p Period) HasStarted(at time.Time) bool { return !at.Before(p.start) }
func (p Period) HasEnded(at time.Time) bool   { return !at.Before(p.end) }
func (p Period) Contains(at time.Time) bool   { return p.HasStarted(at) && !p.HasEnded(at) }

// Applicability restricts which purchases a discount can be used on.
// No product ids means every product.
type Applicability struct {
	productIDs  []string
	minPurchase *shared.Money
}

func AllProducts() Applicability { return Applicability{} }

func ForProducts(productIDs ...string) Applicability {
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if id = strings.TrimSpace(id); id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return Applicability{productIDs: ids}
}

func (a Applicability) WithMinimumPurchase(m shared.Money) Applicability {
	a.minPurchase = &m
	return a
}

func (a Applicability) ProductIDs() []string { return slices.Clone(a.productIDs) }

func (a Applicability) MinimumPurchase() (shared.Money, bool) {
	if a.minPurchase == nil {
		return shared.Money{}, false
	}
	return *a.minPurchase, true
}

func (a Applicability) coversProducts(productIDs []string) bool {
	if len(a.productIDs) == 0 {
		return true
	}
	for _, id := range productIDs {
		if slices.Contains(a.productIDs, id) {
			return true
		}
	}
	return false
}
