package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/dmehra2102/storefront-core/internal/cart/domain"
	"github.com/dmehra2102/storefront-core/internal/checkout/application"
	orderdomain "github.com/dmehra2102/storefront-core/internal/order/domain"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/uow"
	"github.com/dmehra2102/storefront-core/pkg/uow/uowtest"
)

type carts struct{ byUser map[string]*cartdomain.Cart }

func (c *carts) FindByUserIDForUpdate(_ context.Context, userID string) (*cartdomain.Cart, error) {
	if cart, ok := c.byUser[userID]; ok {
		return cart, nil
	}
	return nil, shared.NotFound(cartdomain.CodeCartNotFound, "cart not found")
}

func (c *carts) Save(ctx context.Context, cart *cartdomain.Cart) error {
	c.byUser[cart.UserID()] = cart
	return uow.Collect(ctx, cart.PullDomainEvents()...)
}

type products struct{ byID map[productdomain.ProductID]*productdomain.Product }

func (p *products) FindForUpdate(_ context.Context, id productdomain.ProductID) (*productdomain.Product, error) {
	if prod, ok := p.byID[id]; ok {
		return prod, nil
	}
	return nil, shared.NotFound(productdomain.CodeProductNotFound, "product not found")
}

func (p *products) Save(ctx context.Context, prod *productdomain.Product) error {
	p.byID[prod.ID()] = prod
	return uow.Collect(ctx, prod.PullDomainEvents()...)
}

type discounts struct {
	amount shared.Money
	err    error
	seen   []string
}

func (d *discounts) Redeem(_ context.Context, code string, _ shared.Money, productIDs []string) (shared.Money, error) {
	d.seen = productIDs
	return d.amount, d.err
}

type orders struct{ placed map[orderdomain.OrderID]*orderdomain.Order }

func (o *orders) Place(ctx context.Context, p orderdomain.PlaceParams) (*orderdomain.Order, error) {
	order, err := orderdomain.Place(p)
	if err != nil {
		return nil, err
	}
	o.placed[order.ID()] = order
	return order, uow.Collect(ctx, order.PullDomainEvents()...)
}

func (o *orders) FindByID(_ context.Context, id orderdomain.OrderID) (*orderdomain.Order, error) {
	if order, ok := o.placed[id]; ok {
		return order, nil
	}
	return nil, shared.NotFound(orderdomain.CodeOrderNotFound, "order not found")
}

type payments struct {
	err error
	got paymentapp.InitiateInput
}

func (p *payments) Initiate(_ context.Context, in paymentapp.InitiateInput) (paymentapp.View, error) {
	p.got = in
	if p.err != nil {
		return paymentapp.View{}, p.err
	}
	return paymentapp.View{OrderID: in.OrderID, ProviderRef: in.ProviderRef, Amount: in.Amount, Status: "PENDING"}, nil
}

type gateway struct{}

func (gateway) Provider() string { return "MIDTRANS" }

func (gateway) CreateCharge(_ context.Context, orderID string, _ shared.Money) (application.Charge, error) {
	return application.Charge{ProviderRef: "ref-" + orderID, ExpiresAt: time.Now().Add(time.Hour)}, nil
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
	svc       *application.Service
	uow       *uow.UnitOfWork
	carts     *carts
	products  *products
	discounts *discounts
	orders    *orders
	payments  *payments
	pub       *published
}

func newFixture() *fixture {
	f := &fixture{
		carts:     &carts{byUser: map[string]*cartdomain.Cart{}},
		products:  &products{byID: map[productdomain.ProductID]*productdomain.Product{}},
		discounts: &discounts{},
		orders:    &orders{placed: map[orderdomain.OrderID]*orderdomain.Order{}},
		payments:  &payments{},
		pub:       &published{},
	}
	f.uow = uow.New(logging.Discard(), uowtest.NewDB(), f.pub, nil)
	f.svc = application.NewService(logging.Discard(), f.uow, application.Deps{
		Carts:     f.carts,
		Products:  f.products,
		Discounts: f.discounts,
		Orders:    f.orders,
		Payments:  f.payments,
		Gateway:   gateway{},
	})
	return f
}

func (f *fixture) product(t *testing.T, sku string, price int64, stock int) *productdomain.Product {
	t.Helper()
	p, err := productdomain.New(productdomain.NewParams{SKU: sku, Name: sku, Price: shared.MustMoney(price, shared.IDR), Stock: stock})
	require.NoError(t, err)
	p.PullDomainEvents()
	f.products.byID[p.ID()] = p
	return p
}

func (f *fixture) cart(t *testing.T, userID string, lines map[*productdomain.Product]int) *cartdomain.Cart {
	t.Helper()
	c, err := cartdomain.New(userID)
	require.NoError(t, err)
	for p, n := range lines {
		q, err := shared.NewQuantity(n)
		require.NoError(t, err)
		require.NoError(t, c.AddItem(p.ID().String(), q))
	}
	c.PullDomainEvents()
	f.carts.byUser[userID] = c
	return c
}

func TestCheckoutPlacesOrderAndEmptiesCart(t *testing.T) {
	f := newFixture()
	kopi := f.product(t, "KOPI", 25000, 5)
	teh := f.product(t, "TEH", 8000, 5)
	cart := f.cart(t, "u1", map[*productdomain.Product]int{kopi: 2, teh: 1})

	res, err := f.svc.Checkout(context.Background(), application.Input{UserID: "u1", PaymentMethod: "qris"})
	require.NoError(t, err)

	assert.Equal(t, "58000.00", res.Order.Total.Amount().StringFixed(2))
	assert.Equal(t, "PENDING_PAYMENT", res.Order.Status)
	assert.Len(t, res.Order.Lines, 2)
	assert.Equal(t, "ref-"+res.Order.ID, res.Payment.ProviderRef)
	assert.Equal(t, "MIDTRANS", f.payments.got.Provider)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, 3, kopi.Stock())
	assert.Equal(t, 4, teh.Stock())

	assert.ElementsMatch(t, []string{
		productdomain.EventProductStockAdjusted,
		productdomain.EventProductStockAdjusted,
		orderdomain.EventOrderPlaced,
		cartdomain.EventCartCleared,
	}, f.pub.names)
}

func TestCheckoutAppliesDiscount(t *testing.T) {
	f := newFixture()
	kopi := f.product(t, "KOPI", 25000, 5)
	f.cart(t, "u1", map[*productdomain.Product]int{kopi: 4})
	f.discounts.amount = shared.MustMoney(10000, shared.IDR)

	res, err := f.svc.Checkout(context.Background(), application.Input{UserID: "u1", DiscountCode: "hemat10"})
	require.NoError(t, err)

	assert.Equal(t, "HEMAT10", res.Order.DiscountCode)
	assert.Equal(t, "90000.00", res.Order.Total.Amount().StringFixed(2))
	assert.Equal(t, "90000.00", f.payments.got.Amount.Amount().StringFixed(2))
	assert.Equal(t, []string{kopi.ID().String()}, f.discounts.seen)
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	f := newFixture()
	f.cart(t, "u1", nil)

	_, err := f.svc.Checkout(context.Background(), application.Input{UserID: "u1"})
	assert.Equal(t, application.CodeEmptyCart, shared.CodeOf(err))
	assert.Empty(t, f.pub.names)
}

func TestCheckoutFailurePublishesNothing(t *testing.T) {
	cases := map[string]func(f *fixture){
		"insufficient stock": func(f *fixture) {},
		"discount rejected": func(f *fixture) {
			f.discounts.err = shared.StateConflict("DISCOUNT_EXPIRED", "expired")
		},
		"payment failed": func(f *fixture) {
			f.payments.err = shared.Infrastructure("payment.save", errors.New("db down"))
		},
	}
	for name, arrange := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			stock := 10
			if name == "insufficient stock" {
				stock = 1
			}
			kopi := f.product(t, "KOPI", 25000, stock)
			f.cart(t, "u1", map[*productdomain.Product]int{kopi: 2})
			arrange(f)

			_, err := f.svc.Checkout(context.Background(), application.Input{UserID: "u1", DiscountCode: "X"})
			require.Error(t, err)
			assert.Empty(t, f.pub.names)
		})
	}
}

func TestRestockReturnsReservedUnits(t *testing.T) {
	f := newFixture()
	kopi := f.product(t, "KOPI", 25000, 2)
	f.cart(t, "u1", map[*productdomain.Product]int{kopi: 2})

	res, err := f.svc.Checkout(context.Background(), application.Input{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 0, kopi.Stock())
	assert.Equal(t, "OUT_OF_STOCK", kopi.Status().String())

	r := application.NewRestocker(logging.Discard(), f.uow, f.orders, f.products)
	require.NoError(t, r.Restock(context.Background(), res.Order.ID))
	assert.Equal(t, 2, kopi.Stock())
	assert.Equal(t, "ACTIVE", kopi.Status().String())
}
