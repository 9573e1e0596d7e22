package application_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/internal/cart/application"
	"github.com/dmehra2102/storefront-core/internal/cart/domain"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/uow"
	"github.com/dmehra2102/storefront-core/pkg/uow/uowtest"
)

type cartRepo struct {
	mu     sync.Mutex
	byUser map[string]*domain.Cart
	saveFn func(c *domain.Cart) error
}

func (r *cartRepo) FindByID(_ context.Context, id domain.CartID) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byUser {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, shared.NotFound(domain.CodeCartNotFound, "cart not found")
}

func (r *cartRepo) FindByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byUser[userID]; ok {
		return c, nil
	}
	return nil, shared.NotFound(domain.CodeCartNotFound, "cart not found")
}

func (r *cartRepo) FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.FindByUserID(ctx, userID)
}

func (r *cartRepo) ExistsForUser(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUser[userID]
	return ok, nil
}

func (r *cartRepo) Save(ctx context.Context, c *domain.Cart) error {
	if r.saveFn != nil {
		if err := r.saveFn(c); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.byUser[c.UserID()] = c
	r.mu.Unlock()
	return uow.Collect(ctx, c.PullDomainEvents()...)
}

func (r *cartRepo) Delete(_ context.Context, id domain.CartID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.byUser {
		if c.ID() == id {
			delete(r.byUser, k)
		}
	}
	return nil
}

type products map[productdomain.ProductID]*productdomain.Product

func (p products) FindByID(_ context.Context, id productdomain.ProductID) (*productdomain.Product, error) {
	if prod, ok := p[id]; ok {
		return prod, nil
	}
	return nil, shared.NotFound(productdomain.CodeProductNotFound, "product not found")
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

type fixture struct {
	svc      *application.Service
	repo     *cartRepo
	products products
	pub      *published
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: &cartRepo{byUser: map[string]*domain.Cart{}}, products: products{}, pub: &published{}}
	u := uow.New(logging.Discard(), uowtest.NewDB(), f.pub, nil)
	f.svc = application.NewService(logging.Discard(), f.repo, f.products, u)
	return f
}

func (f *fixture) product(t *testing.T, stock int) string {
	t.Helper()
	p, err := productdomain.New(productdomain.NewParams{SKU: "sku-" + shared.NewID[struct{}]().String()[:8], Name: "Teh", Price: shared.MustMoney(8000, shared.IDR), Stock: stock})
	require.NoError(t, err)
	f.products[p.ID()] = p
	return p.ID().String()
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	second, err := f.svc.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{domain.EventCartCreated}, f.pub.names)
}

func TestGetOrCreateReadsBackConcurrentWinner(t *testing.T) {
	f := newFixture(t)
	winner, err := domain.New("u1")
	require.NoError(t, err)
	f.repo.saveFn = func(*domain.Cart) error {
		f.repo.mu.Lock()
		f.repo.byUser["u1"] = winner
		f.repo.mu.Unlock()
		return shared.Conflict(domain.CodeCartAlreadyExists, "cart exists")
	}

	v, err := f.svc.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, winner.ID().String(), v.ID)
	assert.Empty(t, f.pub.names)
}

func TestAddItemMergesLines(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, 10)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u1", pid, 2)
	require.NoError(t, err)
	v, err := f.svc.AddItem(ctx, "u1", pid, 3)
	require.NoError(t, err)

	require.Len(t, v.Items, 1)
	assert.Equal(t, 5, v.Items[0].Quantity)
	assert.Equal(t, 5, v.TotalQuantity)
	assert.Equal(t, []string{domain.EventCartCreated, domain.EventCartItemAdded, domain.EventCartItemQuantityUpdated}, f.pub.names)
}

func TestAddItemChecksStockAgainstMergedQuantity(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, 4)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u1", pid, 3)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "u1", pid, 2)
	assert.Equal(t, productdomain.CodeInsufficientStock, shared.CodeOf(err))

	v, err := f.svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, v.TotalQuantity)
}

func TestAddItemRejectsUnsellableProduct(t *testing.T) {
	f := newFixture(t)
	pid := f.product(t, 4)
	id, err := shared.ParseID[productdomain.Product]("product id", pid)
	require.NoError(t, err)
	require.NoError(t, f.products[id].Deactivate())

	_, err = f.svc.AddItem(context.Background(), "u1", pid, 1)
	assert.Equal(t, productdomain.CodeProductNotAvailable, shared.CodeOf(err))
	assert.Empty(t, f.pub.names)
}

func TestAddItemValidatesInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddItem(context.Background(), "u1", "nope", 1)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = f.svc.AddItem(context.Background(), "u1", f.product(t, 1), 0)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestUpdateRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	a, b := f.product(t, 10), f.product(t, 10)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u1", a, 1)
	require.NoError(t, err)
	v, err := f.svc.AddItem(ctx, "u1", b, 1)
	require.NoError(t, err)
	require.Len(t, v.Items, 2)

	v, err = f.svc.UpdateItemQuantity(ctx, "u1", v.Items[0].ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 8, v.TotalQuantity)

	_, err = f.svc.UpdateItemQuantity(ctx, "u1", v.Items[0].ID, 11)
	assert.Equal(t, productdomain.CodeInsufficientStock, shared.CodeOf(err))

	v, err = f.svc.RemoveItem(ctx, "u1", v.Items[1].ID)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)

	_, err = f.svc.RemoveItem(ctx, "u1", shared.NewID[domain.Item]().String())
	assert.Equal(t, domain.CodeCartItemNotFound, shared.CodeOf(err))

	v, err = f.svc.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Equal(t, domain.EventCartCleared, f.pub.names[len(f.pub.names)-1])
}

func TestMutatingMissingCartIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Clear(context.Background(), "ghost")
	assert.Equal(t, domain.CodeCartNotFound, shared.CodeOf(err))
}
