package application

import (
	"context"
	"log/slog"

	"github.com/dmehra2102/storefront-core/internal/cart/domain"
	productdomain "github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

type ItemView struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type View struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Items         []ItemView `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
}

func ToView(c *domain.Cart) View {
	items := make([]ItemView, 0, c.ItemCount())
	for _, it := range c.Items() {
		items = append(items, ItemView{ID: it.ID().String(), ProductID: it.ProductID(), Quantity: it.Quantity().Int()})
	}
	return View{ID: c.ID().String(), UserID: c.UserID(), Items: items, TotalQuantity: c.TotalQuantity()}
}

type Service struct {
	log      *slog.Logger
	repo     Repository
	products Products
	uow      *uow.UnitOfWork
}

func NewService(log *slog.Logger, repo Repository, products Products, u *uow.UnitOfWork) *Service {
	return &Service{log: log, repo: repo, products: products, uow: u}
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
// A concurrent creation that wins the unique constraint is read back.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (View, error) {
	v, err := uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		c, err := s.loadOrNew(ctx, userID, false)
		if err != nil {
			return View{}, err
		}
		return ToView(c), nil
	})
	if shared.IsCode(err, domain.CodeCartAlreadyExists) && uow.StateOf(ctx) != uow.StateInTransaction {
		s.log.Info("cart created concurrently, reading back", "userId", userID)
		return s.Get(ctx, userID)
	}
	return v, err
}

func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	c, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return View{}, err
	}
	return ToView(c), nil
}

// loadOrNew locks the existing cart or persists a fresh one in the ambient
// transaction.
func (s *Service) loadOrNew(ctx context.Context, userID string, lock bool) (*domain.Cart, error) {
	find := s.repo.FindByUserID
	if lock {
		find = s.repo.FindByUserIDForUpdate
	}
	c, err := find(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !shared.IsCode(err, domain.CodeCartNotFound) {
		return nil, err
	}
	if c, err = domain.New(userID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddItem adds qty of a product, merging with an existing line. The product
// must be sellable with enough stock for the merged quantity.
func (s *Service) AddItem(ctx context.Context, userID, rawProductID string, qty int) (View, error) {
	productID, err := shared.ParseID[productdomain.Product]("product id", rawProductID)
	if err != nil {
		return View{}, err
	}
	q, err := shared.NewQuantity(qty)
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		c, err := s.loadOrNew(ctx, userID, true)
		if err != nil {
			return View{}, err
		}
		wanted := q.Int()
		if existing, ok := c.ItemByProduct(productID.String()); ok {
			wanted += existing.Quantity().Int()
		}
		if err := s.checkAvailable(ctx, productID, wanted); err != nil {
			return View{}, err
		}
		if err := c.AddItem(productID.String(), q); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return View{}, err
		}
		return ToView(c), nil
	})
}

func (s *Service) checkAvailable(ctx context.Context, id productdomain.ProductID, qty int) error {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.Status().IsSellable() {
		return shared.StateConflict(productdomain.CodeProductNotAvailable, "product %s is %s", p.SKU(), p.Status())
	}
	if p.Stock() < qty {
		return shared.StateConflict(productdomain.CodeInsufficientStock, "product %s has %d in stock, %d requested", p.SKU(), p.Stock(), qty)
	}
	return nil
}

func (s *Service) UpdateItemQuantity(ctx context.Context, userID, rawItemID string, qty int) (View, error) {
	itemID, err := shared.ParseID[domain.Item]("cart item id", rawItemID)
	if err != nil {
		return View{}, err
	}
	q, err := shared.NewQuantity(qty)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, userID, func(ctx context.Context, c *domain.Cart) error {
		for _, it := range c.Items() {
			if it.ID() == itemID {
				pid, err := shared.ParseID[productdomain.Product]("product id", it.ProductID())
				if err != nil {
					return err
				}
				if err := s.checkAvailable(ctx, pid, q.Int()); err != nil {
					return err
				}
			}
		}
		return c.UpdateItemQuantity(itemID, q)
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, rawItemID string) (View, error) {
	itemID, err := shared.ParseID[domain.Item]("cart item id", rawItemID)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, userID, func(_ context.Context, c *domain.Cart) error {
		return c.RemoveItem(itemID)
	})
}

func (s *Service) Clear(ctx context.Context, userID string) (View, error) {
	return s.mutate(ctx, userID, func(_ context.Context, c *domain.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(ctx context.Context, c *domain.Cart) error) (View, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		c, err := s.repo.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			return View{}, err
		}
		if err := fn(ctx, c); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return View{}, err
		}
		return ToView(c), nil
	})
}
