// Package application turns a cart into an order awaiting payment.
package application

import (
	"context"
	"log/slog"
	"strings"

	cartdomain "github.com/dmehra2102/storefront-core/internal/cart/domain"
	orderapp "github.com/dmehra2102/storefront-core/internal/order/application"
	orderdomain "github.com/dmehra2102/storefront-core/internal/order/domain"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

const CodeEmptyCart = "EMPTY_CART"

type Input struct {
	UserID        string
	DiscountCode  string
	PaymentMethod string
}

type Result struct {
	Order   orderapp.View   `json:"order"`
	Payment paymentapp.View `json:"payment"`
}

type Service struct {
	log       *slog.Logger
	uow       *uow.UnitOfWork
	carts     Carts
	products  Products
	discounts Discounts
	orders    Orders
	payments  Payments
	gateway   Gateway
}

type Deps struct {
	Carts     Carts
	Products  Products
	Discounts Discounts
	Orders    Orders
	Payments  Payments
	Gateway   Gateway
}

func NewService(log *slog.Logger, u *uow.UnitOfWork, d Deps) *Service {
	return &Service{
		log:       log,
		uow:       u,
		carts:     d.Carts,
		products:  d.Products,
		discounts: d.Discounts,
		orders:    d.Orders,
		payments:  d.Payments,
		gateway:   d.Gateway,
	}
}

// Checkout reserves stock for every cart line, redeems the discount, places
// the order, opens its payment and empties the cart in one transaction. Any
// failure leaves all of them untouched.
func (s *Service) Checkout(ctx context.Context, in Input) (Result, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (Result, error) {
		cart, err := s.carts.FindByUserIDForUpdate(ctx, in.UserID)
		if err != nil {
			return Result{}, err
		}
		if cart.IsEmpty() {
			return Result{}, shared.Validation(CodeEmptyCart, "cart is empty")
		}

		lines, subtotal, err := s.reserve(ctx, cart)
		if err != nil {
			return Result{}, err
		}

		params := orderdomain.PlaceParams{UserID: in.UserID, Currency: subtotal.Currency(), Lines: lines}
		if code := strings.TrimSpace(in.DiscountCode); code != "" {
			productIDs := make([]string, 0, len(lines))
			for _, l := range lines {
				productIDs = append(productIDs, l.ProductID)
			}
			amount, err := s.discounts.Redeem(ctx, code, subtotal, productIDs)
			if err != nil {
				return Result{}, err
			}
			params.DiscountCode = strings.ToUpper(code)
			params.DiscountAmount = &amount
		}

		order, err := s.orders.Place(ctx, params)
		if err != nil {
			return Result{}, err
		}

		charge, err := s.gateway.CreateCharge(ctx, order.ID().String(), order.Total())
		if err != nil {
			return Result{}, shared.Infrastructure("checkout.create_charge", err)
		}
		expiresAt := charge.ExpiresAt
		payment, err := s.payments.Initiate(ctx, paymentapp.InitiateInput{
			OrderID:       order.ID().String(),
			Provider:      s.gateway.Provider(),
			ProviderRef:   charge.ProviderRef,
			Amount:        order.Total(),
			PaymentMethod: in.PaymentMethod,
			ExpiresAt:     &expiresAt,
		})
		if err != nil {
			return Result{}, err
		}

		cart.Clear()
		if err := s.carts.Save(ctx, cart); err != nil {
			return Result{}, err
		}
		s.log.Info("checkout completed", "order_id", order.ID().String(), "user_id", in.UserID, "total", order.Total().String())
		return Result{Order: orderapp.ToView(order), Payment: payment}, nil
	})
}

func (s *Service) reserve(ctx context.Context, cart *cartdomain.Cart) ([]orderdomain.LineInput, shared.Money, error) {
	var (
		lines    []orderdomain.LineInput
		subtotal shared.Money
	)
	for i, item := range cart.Items() {
		id, err := shared.ParseID[productdomain.Product]("product id", item.ProductID())
		if err != nil {
			return nil, shared.Money{}, err
		}
		p, err := s.products.FindForUpdate(ctx, id)
		if err != nil {
			return nil, shared.Money{}, err
		}
		if err := p.Reserve(item.Quantity()); err != nil {
			return nil, shared.Money{}, err
		}
		if err := s.products.Save(ctx, p); err != nil {
			return nil, shared.Money{}, err
		}

		lineTotal, err := p.Price().MultiplyInt(item.Quantity().Int())
		if err != nil {
			return nil, shared.Money{}, err
		}
		if i == 0 {
			if subtotal, err = shared.ZeroMoney(p.Price().Currency()); err != nil {
				return nil, shared.Money{}, err
			}
		}
		if subtotal, err = subtotal.Add(lineTotal); err != nil {
			return nil, shared.Money{}, err
		}
		lines = append(lines, orderdomain.LineInput{
			ProductID: p.ID().String(),
			SKU:       p.SKU(),
			Name:      p.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: p.Price(),
		})
	}
	return lines, subtotal, nil
}
