package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-core/internal/cacheinvalidation"
	"github.com/dmehra2102/storefront-core/internal/discount/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/cache"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

type View struct {
	ID          string        `json:"id"`
	Code        string        `json:"code"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        string        `json:"type"`
	Percent     string        `json:"percent,omitempty"`
	Amount      *shared.Money `json:"amount,omitempty"`
	MaxDiscount *shared.Money `json:"maxDiscount,omitempty"`
	ProductIDs  []string      `json:"productIds"`
	MinPurchase *shared.Money `json:"minPurchase,omitempty"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
	Status      string        `json:"status"`
	UsageLimit  int           `json:"usageLimit"`
	UsageCount  int           `json:"usageCount"`
}

func ToView(d *domain.Discount) View {
	v := View{
		ID:          d.ID().String(),
		Code:        d.Code(),
		Name:        d.Name(),
		Description: d.Description(),
		Type:        string(d.Value().Type()),
		ProductIDs:  d.Applicability().ProductIDs(),
		StartDate:   d.Period().Start(),
		EndDate:     d.Period().End(),
		Status:      d.Status().String(),
		UsageLimit:  d.UsageLimit(),
		UsageCount:  d.UsageCount(),
	}
	switch d.Value().Type() {
	case domain.ValuePercentage:
		v.Percent = d.Value().Percent().String()
		if m, ok := d.Value().MaxDiscount(); ok {
			v.MaxDiscount = &m
		}
	case domain.ValueFixedAmount:
		amount := d.Value().Amount()
		v.Amount = &amount
	}
	if m, ok := d.Applicability().MinimumPurchase(); ok {
		v.MinPurchase = &m
	}
	return v
}

type Service struct {
	log   *slog.Logger
	repo  Repository
	uow   *uow.UnitOfWork
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewService(log *slog.Logger, repo Repository, u *uow.UnitOfWork, c cache.Cache, ttl time.Duration) *Service {
	return &Service{log: log, repo: repo, uow: u, cache: c, ttl: ttl, now: time.Now}
}

type CreateInput struct {
	Code        string
	Name        string
	Description string
	Type        string
	// Percent is used by PERCENTAGE discounts, Amount by FIXED_AMOUNT ones.
	Percent     decimal.Decimal
	Amount      shared.Money
	MaxDiscount *shared.Money
	ProductIDs  []string
	MinPurchase *shared.Money
	StartDate   time.Time
	EndDate     time.Time
	UsageLimit  int
}

func (in CreateInput) params() (domain.NewParams, error) {
	kind, err := domain.ParseValueType(in.Type)
	if err != nil {
		return domain.NewParams{}, err
	}
	var value domain.Value
	if kind == domain.ValuePercentage {
		value, err = domain.NewPercentageValue(in.Percent, in.MaxDiscount)
	} else {
		value, err = domain.NewFixedAmountValue(in.Amount)
	}
	if err != nil {
		return domain.NewParams{}, err
	}
	period, err := domain.NewPeriod(in.StartDate, in.EndDate)
	if err != nil {
		return domain.NewParams{}, err
	}
	scope := domain.ForProducts(in.ProductIDs...)
	if in.MinPurchase != nil {
		scope = scope.WithMinimumPurchase(*in.MinPurchase)
	}
	return domain.NewParams{
		Code:          in.Code,
		Name:          in.Name,
		Description:   in.Description,
		Value:         value,
		Applicability: scope,
		Period:        period,
		UsageLimit:    in.UsageLimit,
	}, nil
}

// Create registers a discount under a code no other discount uses. The
// unique index backs the pre-check against concurrent creators.
func (s *Service) Create(ctx context.Context, in CreateInput) (View, error) {
	params, err := in.params()
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		code, err := domain.NormalizeCode(params.Code)
		if err != nil {
			return View{}, err
		}
		taken, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return View{}, err
		}
		if taken {
			return View{}, shared.Conflict(domain.CodeDuplicateCode, "discount code %s already exists", code)
		}
		d, err := domain.New(params)
		if err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, d); err != nil {
			return View{}, err
		}
		return ToView(d), nil
	})
}

func (s *Service) Get(ctx context.Context, rawID string) (View, error) {
	id, err := shared.ParseID[domain.Discount]("discount id", rawID)
	if err != nil {
		return View{}, err
	}
	key := cacheinvalidation.IDKey(cacheinvalidation.DiscountsPrefix, id.String())
	return cache.GetOrLoad(ctx, s.log, s.cache, key, s.ttl, func(ctx context.Context) (View, error) {
		d, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return View{}, err
		}
		return ToView(d), nil
	})
}

func (s *Service) GetByCode(ctx context.Context, raw string) (View, error) {
	code, err := domain.NormalizeCode(raw)
	if err != nil {
		return View{}, err
	}
	key := cacheinvalidation.SecondaryKey(cacheinvalidation.DiscountsPrefix, "code", code)
	return cache.GetOrLoad(ctx, s.log, s.cache, key, s.ttl, func(ctx context.Context) (View, error) {
		d, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			return View{}, err
		}
		return ToView(d), nil
	})
}

// Quote is the amount the discount would take off a purchase right now,
// without consuming a use.
func (s *Service) Quote(ctx context.Context, code string, purchase shared.Money, productIDs []string) (shared.Money, error) {
	d, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return shared.Money{}, err
	}
	if err := d.CheckApplicable(purchase, productIDs, s.now()); err != nil {
		return shared.Money{}, err
	}
	return d.CalculateDiscount(purchase)
}

// Redeem applies the discount inside the ambient transaction, consuming one
// use. It is meant to run as part of a larger unit of work such as checkout.
func (s *Service) Redeem(ctx context.Context, code string, purchase shared.Money, productIDs []string) (shared.Money, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (shared.Money, error) {
		d, err := s.repo.FindByCodeForUpdate(ctx, code)
		if err != nil {
			return shared.Money{}, err
		}
		amount, err := d.Apply(purchase, productIDs, s.now())
		if err != nil {
			return shared.Money{}, err
		}
		if err := s.repo.Save(ctx, d); err != nil {
			return shared.Money{}, err
		}
		return amount, nil
	})
}

func (s *Service) mutate(ctx context.Context, rawID string, fn func(d *domain.Discount) error) (View, error) {
	id, err := shared.ParseID[domain.Discount]("discount id", rawID)
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		d, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return View{}, err
		}
		if err := fn(d); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, d); err != nil {
			return View{}, err
		}
		return ToView(d), nil
	})
}

func (s *Service) Activate(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, (*domain.Discount).Activate)
}

func (s *Service) Deactivate(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, (*domain.Discount).Deactivate)
}

func (s *Service) Expire(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, (*domain.Discount).Expire)
}

func (s *Service) UpdateDetails(ctx context.Context, id, name, description string) (View, error) {
	return s.mutate(ctx, id, func(d *domain.Discount) error { return d.UpdateDetails(name, description) })
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := shared.ParseID[domain.Discount]("discount id", rawID)
	if err != nil {
		return err
	}
	return s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		d, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		d.MarkDeleted()
		return s.repo.Delete(ctx, d)
	})
}
