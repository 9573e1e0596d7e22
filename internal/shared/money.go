package shared

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	IDR Currency = "IDR"
	USD Currency = "USD"
	EUR Currency = "EUR"
	SGD Currency = "SGD"
	MYR Currency = "MYR"
)

const DefaultCurrency = IDR

const moneyScale = 2

var supportedCurrencies = map[Currency]struct{}{
	IDR: {}, USD: {}, EUR: {}, SGD: {}, MYR: {},
}

var hundred = decimal.NewFromInt(100)

func ParseCurrency(raw string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := supportedCurrencies[c]; !ok {
		return "", Validation(CodeInvalidCurrency, "unsupported currency %q", raw)
	}
	return c, nil
}

func (c Currency) Valid() bool {
	_, ok := supportedCurrencies[c]
	return ok
}

// Money is an immutable, currency-tagged amount with two decimal places.
// The zero value is not a valid Money; use NewMoney or ZeroMoney.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.Valid() {
		return Money{}, Validation(CodeInvalidCurrency, "unsupported currency %q", currency)
	}
	rounded := amount.Round(moneyScale)
	if rounded.IsNegative() {
		return Money{}, Validation(CodeInvalidMoneyAmount, "amount must not be negative, got %s", amount.String())
	}
	return Money{amount: rounded, currency: currency}, nil
}

// NewIDR builds Money in the default currency.
func NewIDR(amount int64) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), IDR)
}

func MoneyFromFloat(amount float64, currency Currency) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, Validation(CodeInvalidMoneyAmount, "amount must be finite")
	}
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

func MoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, Validation(CodeInvalidMoneyAmount, "amount %q is not a number", amount)
	}
	return NewMoney(d, currency)
}

// MoneyFromMinor builds Money from an integer count of cents.
func MoneyFromMinor(minor int64, currency Currency) (Money, error) {
	return NewMoney(decimal.New(minor, -moneyScale), currency)
}

// ZeroMoney is the additive identity in currency. Unsupported currencies are
// rejected like NewMoney rejects them.
func ZeroMoney(currency Currency) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// MustZeroMoney panics on an unsupported currency.
func MustZeroMoney(currency Currency) Money {
	m, err := ZeroMoney(currency)
	if err != nil {
		panic(err)
	}
	return m
}

// MustMoney panics on invalid input. Intended for constants and tests.
func MustMoney(amount int64, currency Currency) Money {
	m, err := NewMoney(decimal.NewFromInt(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }

// MinorUnits returns the amount in cents.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(moneyScale).IntPart()
}

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) String() string {
	return m.amount.StringFixed(moneyScale) + " " + string(m.currency)
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return Validation(CodeCurrencyMismatch, "currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Add(other.amount), m.currency)
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return NewMoney(m.amount.Sub(other.amount), m.currency)
}

func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	return NewMoney(m.amount.Mul(factor), m.currency)
}

func (m Money) MultiplyInt(n int) (Money, error) {
	return m.Multiply(decimal.NewFromInt(int64(n)))
}

// Percentage returns p percent of m, p in [0, 100].
func (m Money) Percentage(p decimal.Decimal) (Money, error) {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return Money{}, Validation(CodeInvalidPercentage, "percentage must be between 0 and 100, got %s", p.String())
	}
	return NewMoney(m.amount.Mul(p).Div(hundred), m.currency)
}

func (m Money) Min(other Money) (Money, error) {
	less, err := m.IsLessThanOrEqual(other)
	if err != nil {
		return Money{}, err
	}
	if less {
		return m, nil
	}
	return other, nil
}

func (m Money) Equals(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.Equal(other.amount), nil
}

func (m Money) IsGreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) IsGreaterThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

func (m Money) IsLessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) IsLessThanOrEqual(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThanOrEqual(other.amount), nil
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(moneyScale), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := MoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
