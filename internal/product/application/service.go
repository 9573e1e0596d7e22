package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront-core/internal/cacheinvalidation"
	"github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/cache"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

// View is the cached read model of a product.
type View struct {
	ID          string       `json:"id"`
	SKU         string       `json:"sku"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Price       shared.Money `json:"price"`
	Stock       int          `json:"stock"`
	Status      string       `json:"status"`
}

func ToView(p *domain.Product) View {
	return View{
		ID:          p.ID().String(),
		SKU:         p.SKU(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price(),
		Stock:       p.Stock(),
		Status:      p.Status().String(),
	}
}

type Service struct {
	log   *slog.Logger
	repo  Repository
	uow   *uow.UnitOfWork
	cache cache.Cache
	ttl   time.Duration
}

func NewService(log *slog.Logger, repo Repository, u *uow.UnitOfWork, c cache.Cache, ttl time.Duration) *Service {
	return &Service{log: log, repo: repo, uow: u, cache: c, ttl: ttl}
}

type CreateInput struct {
	SKU         string
	Name        string
	Description string
	Price       shared.Money
	Stock       int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		if _, err := s.repo.FindBySKU(ctx, in.SKU); err == nil {
			return View{}, shared.Conflict(domain.CodeDuplicateSKU, "sku %q already exists", in.SKU)
		} else if !shared.IsCode(err, domain.CodeProductNotFound) {
			return View{}, err
		}
		p, err := domain.New(domain.NewParams(in))
		if err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, p); err != nil {
			return View{}, err
		}
		return ToView(p), nil
	})
}

func (s *Service) Get(ctx context.Context, rawID string) (View, error) {
	id, err := shared.ParseID[domain.Product]("product id", rawID)
	if err != nil {
		return View{}, err
	}
	key := cacheinvalidation.IDKey(cacheinvalidation.ProductsPrefix, id.String())
	return cache.GetOrLoad(ctx, s.log, s.cache, key, s.ttl, func(ctx context.Context) (View, error) {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return View{}, err
		}
		return ToView(p), nil
	})
}

// List pages are cached under the current list version, so any product
// write orphans them without a key scan.
func (s *Service) List(ctx context.Context, limit, offset int) ([]View, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	version := s.listVersion(ctx)
	key := cacheinvalidation.ListKey(cacheinvalidation.ProductsPrefix, version, fmt.Sprintf("limit=%d&offset=%d", limit, offset))
	return cache.GetOrLoad(ctx, s.log, s.cache, key, s.ttl, func(ctx context.Context) ([]View, error) {
		products, err := s.repo.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		out := make([]View, 0, len(products))
		for _, p := range products {
			out = append(out, ToView(p))
		}
		return out, nil
	})
}

func (s *Service) listVersion(ctx context.Context) int64 {
	raw, ok, err := s.cache.Get(ctx, cacheinvalidation.ListVersionKey(cacheinvalidation.ProductsPrefix))
	if err != nil || !ok {
		return 0
	}
	var v int64
	_, _ = fmt.Sscanf(string(raw), "%d", &v)
	return v
}

func (s *Service) mutate(ctx context.Context, rawID string, fn func(p *domain.Product) error) (View, error) {
	id, err := shared.ParseID[domain.Product]("product id", rawID)
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		p, err := s.repo.FindForUpdate(ctx, id)
		if err != nil {
			return View{}, err
		}
		if err := fn(p); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, p); err != nil {
			return View{}, err
		}
		return ToView(p), nil
	})
}

func (s *Service) ChangePrice(ctx context.Context, id string, price shared.Money) (View, error) {
	return s.mutate(ctx, id, func(p *domain.Product) error { return p.ChangePrice(price) })
}

func (s *Service) AdjustStock(ctx context.Context, id string, delta int, reason string) (View, error) {
	return s.mutate(ctx, id, func(p *domain.Product) error { return p.AdjustStock(delta, reason) })
}

func (s *Service) ChangeStatus(ctx context.Context, id, status string) (View, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return View{}, err
	}
	return s.mutate(ctx, id, func(p *domain.Product) error { return p.ChangeStatus(next) })
}

func (s *Service) UpdateDetails(ctx context.Context, id, name, description string) (View, error) {
	return s.mutate(ctx, id, func(p *domain.Product) error { return p.UpdateDetails(name, description) })
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := shared.ParseID[domain.Product]("product id", rawID)
	if err != nil {
		return err
	}
	return s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		p.MarkDeleted()
		return s.repo.Delete(ctx, p)
	})
}
