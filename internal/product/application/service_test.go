package application_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/internal/cacheinvalidation"
	"github.com/dmehra2102/storefront-core/internal/product/application"
	"github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/cache"
	"github.com/dmehra2102/storefront-core/pkg/eventbus"
	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/uow"
	"github.com/dmehra2102/storefront-core/pkg/uow/uowtest"
)

type memRepo struct {
	mu       sync.Mutex
	byID     map[domain.ProductID]*domain.Product
	finds    int
	listings int
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[domain.ProductID]*domain.Product{}}
}

func (r *memRepo) FindByID(_ context.Context, id domain.ProductID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	return nil, shared.NotFound(domain.CodeProductNotFound, "product not found")
}

func (r *memRepo) FindBySKU(_ context.Context, sku string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.SKU() == strings.ToUpper(strings.TrimSpace(sku)) {
			return p, nil
		}
	}
	return nil, shared.NotFound(domain.CodeProductNotFound, "product not found")
}

func (r *memRepo) FindForUpdate(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings++
	out := make([]*domain.Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *memRepo) Save(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	r.byID[p.ID()] = p
	r.mu.Unlock()
	return uow.Collect(ctx, p.PullDomainEvents()...)
}

func (r *memRepo) Delete(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	delete(r.byID, p.ID())
	r.mu.Unlock()
	return uow.Collect(ctx, p.PullDomainEvents()...)
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

func setup() (*application.Service, *memRepo, *cache.Memory, *published) {
	repo := newMemRepo()
	c := cache.NewMemory(128)
	pub := &published{}
	u := uow.New(logging.Discard(), uowtest.NewDB(), pub, nil)
	return application.NewService(logging.Discard(), repo, u, c, time.Minute), repo, c, pub
}

func create(t *testing.T, svc *application.Service, sku string, stock int) application.View {
	t.Helper()
	v, err := svc.Create(context.Background(), application.CreateInput{
		SKU:   sku,
		Name:  "Kopi Susu",
		Price: shared.MustMoney(25000, shared.IDR),
		Stock: stock,
	})
	require.NoError(t, err)
	return v
}

func TestCreatePublishesAfterCommit(t *testing.T) {
	svc, _, _, pub := setup()

	v := create(t, svc, "kopi-1", 3)
	assert.Equal(t, "KOPI-1", v.SKU)
	assert.Equal(t, "ACTIVE", v.Status)
	assert.Equal(t, []string{domain.EventProductCreated}, pub.names)
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	svc, _, _, pub := setup()
	create(t, svc, "kopi-1", 3)

	_, err := svc.Create(context.Background(), application.CreateInput{
		SKU:   " KOPI-1 ",
		Name:  "Other",
		Price: shared.MustMoney(1000, shared.IDR),
	})
	require.Error(t, err)
	assert.Equal(t, domain.CodeDuplicateSKU, shared.CodeOf(err))
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	assert.Len(t, pub.names, 1)
}

func TestGetReadsThroughCache(t *testing.T) {
	svc, repo, c, _ := setup()
	v := create(t, svc, "kopi-1", 3)

	for range 3 {
		got, err := svc.Get(context.Background(), v.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, got.ID)
	}
	assert.Equal(t, 1, repo.finds)

	ok, err := c.Exists(context.Background(), cacheinvalidation.IDKey(cacheinvalidation.ProductsPrefix, v.ID))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc, _, _, _ := setup()
	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestListIsOrphanedByVersionBump(t *testing.T) {
	svc, repo, c, _ := setup()
	create(t, svc, "kopi-1", 3)
	ctx := context.Background()

	_, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	_, err = svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listings)

	_, err = c.Incr(ctx, cacheinvalidation.ListVersionKey(cacheinvalidation.ProductsPrefix), time.Hour)
	require.NoError(t, err)
	_, err = svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listings)
}

func TestAdjustStockToZeroMovesOutOfStock(t *testing.T) {
	svc, _, _, pub := setup()
	v := create(t, svc, "kopi-1", 2)

	got, err := svc.AdjustStock(context.Background(), v.ID, -2, "count")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.Equal(t, "OUT_OF_STOCK", got.Status)
	assert.Equal(t, []string{domain.EventProductCreated, domain.EventProductStockAdjusted}, pub.names)
}

func TestFailedMutationPublishesNothing(t *testing.T) {
	svc, _, _, pub := setup()
	v := create(t, svc, "kopi-1", 2)

	_, err := svc.AdjustStock(context.Background(), v.ID, -5, "oversell")
	assert.Equal(t, domain.CodeInsufficientStock, shared.CodeOf(err))

	_, err = svc.ChangeStatus(context.Background(), v.ID, "DISCONTINUED")
	require.NoError(t, err)
	_, err = svc.ChangeStatus(context.Background(), v.ID, "ACTIVE")
	assert.Equal(t, domain.CodeInvalidStatusTransition, shared.CodeOf(err))

	assert.Equal(t, []string{domain.EventProductCreated, domain.EventProductStatusChanged}, pub.names)
}

func TestDeleteInvalidatesCachedReads(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	c := cache.NewMemory(128)
	bus := eventbus.New(logging.Discard(), nil)
	inv := cacheinvalidation.NewService(logging.Discard(), c, nil, nil, time.Hour)
	cacheinvalidation.Register(bus, inv)
	svc := application.NewService(logging.Discard(), repo, uow.New(logging.Discard(), uowtest.NewDB(), bus, nil), c, time.Minute)

	v := create(t, svc, "kopi-1", 3)
	bus.Wait()
	_, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	idKey := cacheinvalidation.IDKey(cacheinvalidation.ProductsPrefix, v.ID)
	cached, err := c.Exists(ctx, idKey)
	require.NoError(t, err)
	require.True(t, cached)
	before, err := inv.ListVersion(ctx, cacheinvalidation.ProductsPrefix)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, v.ID))
	bus.Wait()

	cached, err = c.Exists(ctx, idKey)
	require.NoError(t, err)
	assert.False(t, cached)
	after, err := inv.ListVersion(ctx, cacheinvalidation.ProductsPrefix)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	_, err = svc.Get(ctx, v.ID)
	assert.Equal(t, domain.CodeProductNotFound, shared.CodeOf(err))
}

func TestDeleteRecordsEvent(t *testing.T) {
	svc, _, _, pub := setup()
	v := create(t, svc, "kopi-1", 3)

	require.NoError(t, svc.Delete(context.Background(), v.ID))
	assert.Equal(t, []string{domain.EventProductCreated, domain.EventProductDeleted}, pub.names)

	err := svc.Delete(context.Background(), v.ID)
	assert.Equal(t, domain.CodeProductNotFound, shared.CodeOf(err))
}
