package postgres

import (
	"github.com/dmehra2102/storefront-core/internal/shared"
)

// Amounts are exchanged with Postgres as text so NUMERIC keeps exact scale.

func MoneyArg(m shared.Money) string {
	return m.Amount().StringFixed(2)
}

func OptionalMoneyArg(m shared.Money, ok bool) *string {
	if !ok {
		return nil
	}
	s := MoneyArg(m)
	return &s
}

func ScanMoney(amount, currency string) (shared.Money, error) {
	cur, err := shared.ParseCurrency(currency)
	if err != nil {
		return shared.Money{}, err
	}
	return shared.MoneyFromString(amount, cur)
}

func ScanOptionalMoney(amount *string, currency string) (*shared.Money, error) {
	if amount == nil {
		return nil, nil
	}
	m, err := ScanMoney(*amount, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
