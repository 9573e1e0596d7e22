package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/internal/cacheinvalidation"
	"github.com/dmehra2102/storefront-core/internal/discount/application"
	"github.com/dmehra2102/storefront-core/internal/discount/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/cache"
	"github.com/dmehra2102/storefront-core/pkg/eventbus"
	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/uow"
	"github.com/dmehra2102/storefront-core/pkg/uow/uowtest"
)

type repo struct {
	mu      sync.Mutex
	byCode  map[string]*domain.Discount
	lookups int
}

func (r *repo) FindByID(_ context.Context, id domain.DiscountID) (*domain.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.byCode {
		if d.ID() == id {
			return d, nil
		}
	}
	return nil, shared.NotFound(domain.CodeDiscountNotFound, "discount not found")
}

func (r *repo) FindByCode(_ context.Context, code string) (*domain.Discount, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if d, ok := r.byCode[normalized]; ok {
		return d, nil
	}
	return nil, shared.NotFound(domain.CodeDiscountNotFound, "discount not found")
}

func (r *repo) FindByCodeForUpdate(ctx context.Context, code string) (*domain.Discount, error) {
	return r.FindByCode(ctx, code)
}

func (r *repo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byCode[code]
	return ok, nil
}

func (r *repo) Save(ctx context.Context, d *domain.Discount) error {
	r.mu.Lock()
	r.byCode[d.Code()] = d
	r.mu.Unlock()
	return uow.Collect(ctx, d.PullDomainEvents()...)
}

func (r *repo) Delete(ctx context.Context, d *domain.Discount) error {
	r.mu.Lock()
	delete(r.byCode, d.Code())
	r.mu.Unlock()
	return uow.Collect(ctx, d.PullDomainEvents()...)
}

type published struct {
	mu    sync.Mutex
	names []string
}

func (p *published) Publish(_ context.Context, events ...shared.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, shared.EventNames(events)...)
}

func setup() (*application.Service, *repo, *cache.Memory, *published) {
	r := &repo{byCode: map[string]*domain.Discount{}}
	c := cache.NewMemory(64)
	pub := &published{}
	u := uow.New(logging.Discard(), uowtest.NewDB(), pub, nil)
	return application.NewService(logging.Discard(), r, u, c, time.Minute), r, c, pub
}

func tenPercent(code string, limit int) application.CreateInput {
	now := time.Now()
	capAmount := shared.MustMoney(50000, shared.IDR)
	return application.CreateInput{
		Code:        code,
		Name:        "Ten off",
		Type:        "percentage",
		Percent:     decimal.NewFromInt(10),
		MaxDiscount: &capAmount,
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(24 * time.Hour),
		UsageLimit:  limit,
	}
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	svc, _, _, pub := setup()
	ctx := context.Background()

	v, err := svc.Create(ctx, tenPercent("hemat10", 0))
	require.NoError(t, err)
	assert.Equal(t, "HEMAT10", v.Code)
	assert.Equal(t, "ACTIVE", v.Status)
	assert.Equal(t, "10", v.Percent)

	_, err = svc.Create(ctx, tenPercent(" HEMAT10 ", 0))
	assert.Equal(t, domain.CodeDuplicateCode, shared.CodeOf(err))
	assert.Equal(t, []string{domain.EventDiscountCreated}, pub.names)
}

func TestCreateValidatesValueAndPeriod(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()

	in := tenPercent("BAD1", 0)
	in.Percent = decimal.NewFromInt(120)
	_, err := svc.Create(ctx, in)
	assert.Equal(t, domain.CodeInvalidValue, shared.CodeOf(err))

	in = tenPercent("BAD2", 0)
	in.EndDate = in.StartDate
	_, err = svc.Create(ctx, in)
	assert.Equal(t, domain.CodeInvalidPeriod, shared.CodeOf(err))

	in = tenPercent("BAD3", 0)
	in.Type = "bogo"
	_, err = svc.Create(ctx, in)
	assert.Equal(t, domain.CodeInvalidValue, shared.CodeOf(err))
}

func TestGetByCodeReadsThroughCache(t *testing.T) {
	svc, r, c, _ := setup()
	ctx := context.Background()
	_, err := svc.Create(ctx, tenPercent("HEMAT10", 0))
	require.NoError(t, err)
	r.lookups = 0

	for range 2 {
		v, err := svc.GetByCode(ctx, "hemat10")
		require.NoError(t, err)
		assert.Equal(t, "HEMAT10", v.Code)
	}
	assert.Equal(t, 1, r.lookups)

	ok, err := c.Exists(ctx, cacheinvalidation.SecondaryKey(cacheinvalidation.DiscountsPrefix, "code", "HEMAT10"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuoteDoesNotConsumeUse(t *testing.T) {
	svc, r, _, _ := setup()
	ctx := context.Background()
	_, err := svc.Create(ctx, tenPercent("HEMAT10", 1))
	require.NoError(t, err)

	amount, err := svc.Quote(ctx, "HEMAT10", shared.MustMoney(100000, shared.IDR), nil)
	require.NoError(t, err)
	assert.Equal(t, "10000.00", amount.Amount().StringFixed(2))
	assert.Equal(t, 0, r.byCode["HEMAT10"].UsageCount())
}

func TestRedeemHonoursUsageLimit(t *testing.T) {
	svc, _, _, pub := setup()
	ctx := context.Background()
	_, err := svc.Create(ctx, tenPercent("ONCE", 1))
	require.NoError(t, err)

	amount, err := svc.Redeem(ctx, "ONCE", shared.MustMoney(1000000, shared.IDR), nil)
	require.NoError(t, err)
	assert.Equal(t, "50000.00", amount.Amount().StringFixed(2), "capped by max discount")

	_, err = svc.Redeem(ctx, "ONCE", shared.MustMoney(1000000, shared.IDR), nil)
	assert.Equal(t, domain.CodeDiscountUsageLimit, shared.CodeOf(err))
	assert.Equal(t, []string{domain.EventDiscountCreated, domain.EventDiscountApplied}, pub.names)
}

func TestDeactivateBlocksRedemption(t *testing.T) {
	svc, _, _, _ := setup()
	ctx := context.Background()
	v, err := svc.Create(ctx, tenPercent("PAUSE", 0))
	require.NoError(t, err)

	v, err = svc.Deactivate(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "INACTIVE", v.Status)

	_, err = svc.Redeem(ctx, "PAUSE", shared.MustMoney(1000, shared.IDR), nil)
	assert.Equal(t, domain.CodeDiscountInactive, shared.CodeOf(err))

	_, err = svc.Expire(ctx, v.ID)
	assert.Equal(t, domain.CodeInvalidStatusTransition, shared.CodeOf(err))
}

func TestDeleteInvalidatesCodeLookup(t *testing.T) {
	ctx := context.Background()
	r := &repo{byCode: map[string]*domain.Discount{}}
	c := cache.NewMemory(64)
	bus := eventbus.New(logging.Discard(), nil)
	inv := cacheinvalidation.NewService(logging.Discard(), c, nil, nil, time.Hour)
	cacheinvalidation.Register(bus, inv)
	svc := application.NewService(logging.Discard(), r, uow.New(logging.Discard(), uowtest.NewDB(), bus, nil), c, time.Minute)

	v, err := svc.Create(ctx, tenPercent("HEMAT10", 0))
	require.NoError(t, err)
	bus.Wait()
	_, err = svc.GetByCode(ctx, "HEMAT10")
	require.NoError(t, err)
	codeKey := cacheinvalidation.SecondaryKey(cacheinvalidation.DiscountsPrefix, "code", "HEMAT10")
	cached, err := c.Exists(ctx, codeKey)
	require.NoError(t, err)
	require.True(t, cached)
	before, err := inv.ListVersion(ctx, cacheinvalidation.DiscountsPrefix)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, v.ID))
	bus.Wait()

	cached, err = c.Exists(ctx, codeKey)
	require.NoError(t, err)
	assert.False(t, cached)
	after, err := inv.ListVersion(ctx, cacheinvalidation.DiscountsPrefix)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	_, err = svc.GetByCode(ctx, "HEMAT10")
	assert.Equal(t, domain.CodeDiscountNotFound, shared.CodeOf(err))
}
