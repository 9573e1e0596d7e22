package shared

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyRoundsToTwoPlaces(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("10.456"), USD)
	require.NoError(t, err)
	assert.Equal(t, "10.46", m.Amount().StringFixed(2))
	assert.Equal(t, USD, m.Currency())
	assert.Equal(t, int64(1046), m.MinorUnits())
}

func TestNewMoneyRoundTripsAndIsStableUnderZero(t *testing.T) {
	for _, cur := range []Currency{IDR, USD, EUR, SGD, MYR} {
		for _, amt := range []string{"0", "0.01", "1", "99999.99", "123456789.5"} {
			m, err := NewMoney(decimal.RequireFromString(amt), cur)
			require.NoError(t, err)
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(amt).Round(2)))
			assert.Equal(t, cur, m.Currency())

			same := m
			for i := 0; i < 3; i++ {
				same, err = same.Add(MustZeroMoney(cur))
				require.NoError(t, err)
			}
			eq, err := same.Equals(m)
			require.NoError(t, err)
			assert.True(t, eq)
		}
	}
}

func TestNewMoneyRejectsInvalidInput(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(-1), IDR)
	assert.True(t, IsCode(err, CodeInvalidMoneyAmount))
	assert.True(t, IsKind(err, KindValidation))

	_, err = NewMoney(decimal.NewFromInt(1), Currency("JPY"))
	assert.True(t, IsCode(err, CodeInvalidCurrency))

	_, err = MoneyFromFloat(math.NaN(), IDR)
	assert.True(t, IsCode(err, CodeInvalidMoneyAmount))

	_, err = MoneyFromFloat(math.Inf(1), IDR)
	assert.True(t, IsCode(err, CodeInvalidMoneyAmount))

	_, err = MoneyFromString("abc", IDR)
	assert.True(t, IsCode(err, CodeInvalidMoneyAmount))
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	idr := MustMoney(100, IDR)
	usd := MustMoney(100, USD)

	_, err := idr.Add(usd)
	assert.True(t, IsCode(err, CodeCurrencyMismatch))
	_, err = idr.Subtract(usd)
	assert.True(t, IsCode(err, CodeCurrencyMismatch))
	_, err = idr.IsGreaterThan(usd)
	assert.True(t, IsCode(err, CodeCurrencyMismatch))
	_, err = idr.IsLessThan(usd)
	assert.True(t, IsCode(err, CodeCurrencyMismatch))
	_, err = idr.Equals(usd)
	assert.True(t, IsCode(err, CodeCurrencyMismatch))
	_, err = idr.Min(usd)
	assert.True(t, IsCode(err, CodeCurrencyMismatch))

	_, err = idr.Add(MustMoney(1, IDR))
	assert.NoError(t, err)
	_, err = idr.IsGreaterThanOrEqual(MustMoney(1, IDR))
	assert.NoError(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustMoney(150, IDR)
	b := MustMoney(50, IDR)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "200.00 IDR", sum.String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "100.00 IDR", diff.String())

	_, err = b.Subtract(a)
	assert.True(t, IsCode(err, CodeInvalidMoneyAmount))

	tripled, err := b.MultiplyInt(3)
	require.NoError(t, err)
	assert.Equal(t, "150.00 IDR", tripled.String())

	half, err := a.Multiply(decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, "75.00 IDR", half.String())

	min, err := a.Min(b)
	require.NoError(t, err)
	assert.Equal(t, b, min)

	assert.Equal(t, "150.00 IDR", a.String(), "operands are not mutated")
}

func TestMoneyPercentage(t *testing.T) {
	m := MustMoney(100000, IDR)

	p, err := m.Percentage(decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.Equal(t, "15000.00 IDR", p.String())

	p, err = m.Percentage(decimal.Zero)
	require.NoError(t, err)
	assert.True(t, p.IsZero())

	_, err = m.Percentage(decimal.NewFromInt(101))
	assert.True(t, IsCode(err, CodeInvalidPercentage))
	_, err = m.Percentage(decimal.NewFromInt(-1))
	assert.True(t, IsCode(err, CodeInvalidPercentage))
}

func TestMoneyJSON(t *testing.T) {
	m := MustMoney(20000, IDR)
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"20000.00","currency":"IDR"}`, string(raw))

	var back Money
	require.NoError(t, json.Unmarshal(raw, &back))
	eq, err := back.Equals(m)
	require.NoError(t, err)
	assert.True(t, eq)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"-1","currency":"IDR"}`), &back))
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("GBP")
	assert.True(t, IsCode(err, CodeInvalidCurrency))
}

func TestZeroMoneyRejectsUnsupportedCurrency(t *testing.T) {
	z, err := ZeroMoney(SGD)
	require.NoError(t, err)
	assert.True(t, z.IsZero())
	assert.Equal(t, SGD, z.Currency())

	_, err = ZeroMoney("XYZ")
	assert.True(t, IsCode(err, CodeInvalidCurrency))
	assert.True(t, IsKind(err, KindValidation))

	_, err = ZeroMoney("")
	assert.True(t, IsCode(err, CodeInvalidCurrency))

	assert.Panics(t, func() { MustZeroMoney("XYZ") })
}
