package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

func idr(n int64) shared.Money { return shared.MustMoney(n, shared.IDR) }

func openPeriod(t *testing.T) Period {
	t.Helper()
	now := time.Now().UTC()
	p, err := NewPeriod(now.Add(-time.Hour), now.Add(24*time.Hour))
	require.NoError(t, err)
	return p
}

func newDiscount(t *testing.T, mutate func(*NewParams)) *Discount {
	t.Helper()
	v, err := NewPercentageValue(decimal.NewFromInt(10), nil)
	require.NoError(t, err)
	p := NewParams{Code: "save10", Name: "Save 10", Value: v, Period: openPeriod(t)}
	if mutate != nil {
		mutate(&p)
	}
	d, err := New(p)
	require.NoError(t, err)
	return d
}

func TestPercentageWithCap(t *testing.T) {
	max := idr(20000)
	v, err := NewPercentageValue(decimal.NewFromInt(50), &max)
	require.NoError(t, err)

	got, err := v.CalculateDiscount(idr(100000))
	require.NoError(t, err)
	assert.Equal(t, "20000.00 IDR", got.String())
}

func TestCalculateDiscountBounds(t *testing.T) {
	max := idr(500)
	capped, _ := NewPercentageValue(decimal.NewFromInt(100), &max)
	uncapped, _ := NewPercentageValue(decimal.NewFromInt(100), nil)
	fixed, _ := NewFixedAmountValue(idr(1000))

	for _, purchase := range []int64{0, 1, 250, 499, 500, 999, 1000, 100000} {
		p := idr(purchase)

		d, err := capped.CalculateDiscount(p)
		require.NoError(t, err)
		limit, _ := max.Min(p)
		over, _ := d.IsGreaterThan(limit)
		assert.False(t, over, "capped %d", purchase)

		d, err = uncapped.CalculateDiscount(p)
		require.NoError(t, err)
		over, _ = d.IsGreaterThan(p)
		assert.False(t, over, "uncapped %d", purchase)

		d, err = fixed.CalculateDiscount(p)
		require.NoError(t, err)
		over, _ = d.IsGreaterThan(p)
		assert.False(t, over, "fixed %d", purchase)
	}
}

func TestCalculateDiscountCurrencyMismatch(t *testing.T) {
	fixed, _ := NewFixedAmountValue(shared.MustMoney(5, shared.USD))
	_, err := fixed.CalculateDiscount(idr(100))
	assert.True(t, shared.IsCode(err, shared.CodeCurrencyMismatch))
}

func TestValueValidation(t *testing.T) {
	_, err := NewPercentageValue(decimal.Zero, nil)
	assert.True(t, shared.IsCode(err, CodeInvalidValue))
	_, err = NewPercentageValue(decimal.NewFromInt(101), nil)
	assert.True(t, shared.IsCode(err, CodeInvalidValue))
	_, err = NewFixedAmountValue(shared.MustZeroMoney(shared.IDR))
	assert.True(t, shared.IsCode(err, CodeInvalidValue))

	now := time.Now()
	_, err = NewPeriod(now, now)
	assert.True(t, shared.IsCode(err, CodeInvalidPeriod))
}

func TestNormalizeCode(t *testing.T) {
	code, err := NormalizeCode("  summer-sale_2024 ")
	require.NoError(t, err)
	assert.Equal(t, "SUMMER-SALE_2024", code)

	for _, bad := range []string{"", "has space", "emoji✓", string(make([]byte, 101))} {
		_, err := NormalizeCode(bad)
		assert.True(t, shared.IsCode(err, CodeInvalidCode), "code %q", bad)
	}
}

func TestDiscountStatusGraph(t *testing.T) {
	cases := map[StatusValue][]StatusValue{
		StatusActive:   {StatusInactive, StatusExpired},
		StatusInactive: {StatusActive},
		StatusExpired:  {},
	}
	for from, allowed := range cases {
		for _, to := range AllStatuses() {
			f, _ := ParseStatus(string(from))
			n, _ := ParseStatus(string(to))
			want := false
			for _, a := range allowed {
				want = want || a == to
			}
			assert.Equal(t, want, f.CanTransitionTo(n), "%s -> %s", from, to)
		}
	}
	_, err := ParseStatus("PAUSED")
	assert.True(t, shared.IsCode(err, CodeInvalidStatus))
}

func TestNewDiscountRecordsCreated(t *testing.T) {
	d := newDiscount(t, nil)
	assert.Equal(t, "SAVE10", d.Code())
	assert.True(t, d.Status().IsActive())
	assert.Equal(t, []string{EventDiscountCreated}, shared.EventNames(d.PullDomainEvents()))
}

func TestApplyConsumesUsage(t *testing.T) {
	d := newDiscount(t, func(p *NewParams) { p.UsageLimit = 1 })
	_ = d.PullDomainEvents()

	amount, err := d.Apply(idr(1000), nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "100.00 IDR", amount.String())
	assert.Equal(t, 1, d.UsageCount())
	assert.Equal(t, []string{EventDiscountApplied}, shared.EventNames(d.PullDomainEvents()))

	_, err = d.Apply(idr(1000), nil, time.Now())
	assert.True(t, shared.IsCode(err, CodeDiscountUsageLimit))
	assert.Equal(t, 1, d.UsageCount())
}

func TestApplyRejections(t *testing.T) {
	d := newDiscount(t, nil)
	_, err := d.Apply(idr(1000), nil, d.Period().End().Add(time.Second))
	assert.True(t, shared.IsCode(err, CodeDiscountExpired))

	_, err = d.Apply(idr(1000), nil, d.Period().Start().Add(-time.Second))
	assert.True(t, shared.IsCode(err, CodeDiscountNotStarted))

	require.NoError(t, d.Deactivate())
	_, err = d.Apply(idr(1000), nil, time.Now())
	assert.True(t, shared.IsCode(err, CodeDiscountInactive))

	scoped := newDiscount(t, func(p *NewParams) {
		p.Applicability = ForProducts("p1").WithMinimumPurchase(idr(500))
	})
	_, err = scoped.Apply(idr(1000), []string{"p2"}, time.Now())
	assert.True(t, shared.IsCode(err, CodeDiscountNotApplicable))
	_, err = scoped.Apply(idr(100), []string{"p1"}, time.Now())
	assert.True(t, shared.IsCode(err, CodeDiscountMinPurchaseUnmet))
	_, err = scoped.Apply(idr(1000), []string{"p1", "p2"}, time.Now())
	assert.NoError(t, err)
}

func TestDiscountTransitions(t *testing.T) {
	d := newDiscount(t, nil)
	_ = d.PullDomainEvents()

	require.NoError(t, d.Deactivate())
	require.NoError(t, d.Activate())
	require.NoError(t, d.Expire())
	assert.Equal(t, []string{EventDiscountDeactivated, EventDiscountActivated, EventDiscountExpired}, shared.EventNames(d.PullDomainEvents()))

	err := d.Activate()
	var te *shared.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "EXPIRED", te.From)
	assert.Equal(t, "ACTIVE", te.To)
	assert.Empty(t, d.PendingEvents())
}
