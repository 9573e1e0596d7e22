package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront-core/internal/discount/domain"
	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var (
	statuses = shared.MustEnumMap("discount status", domain.AllStatuses(), map[domain.StatusValue]string{
		domain.StatusActive:   "active",
		domain.StatusInactive: "inactive",
		domain.StatusExpired:  "expired",
	})
	valueTypes = shared.MustEnumMap("discount value type", []domain.ValueType{domain.ValuePercentage, domain.ValueFixedAmount}, map[domain.ValueType]string{
		domain.ValuePercentage:  "percentage",
		domain.ValueFixedAmount: "fixed_amount",
	})
)

var uniques = pgerr.Uniques{"discounts_code_key": domain.CodeDuplicateCode}

const selectDiscount = `SELECT id, code, name, description, value_type, value::text, max_discount::text, currency,
	product_ids, min_purchase::text, start_date, end_date, status, usage_limit, usage_count, created_at, updated_at
	FROM discounts`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.DiscountID) (*domain.Discount, error) {
	return r.one(ctx, "discount.find_by_id", selectDiscount+` WHERE id=$1`, id.UUID())
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "discount.find_by_code", selectDiscount+` WHERE code=$1`, normalized)
}

func (r *Repository) FindByCodeForUpdate(ctx context.Context, code string) (*domain.Discount, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "discount.find_by_code_for_update", selectDiscount+` WHERE code=$1 FOR UPDATE`, normalized)
}

func (r *Repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var ok bool
	err := uow.Querier(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM discounts WHERE code=$1)`, code).Scan(&ok)
	return ok, pgerr.Map("discount.exists_by_code", err, nil)
}

func (r *Repository) one(ctx context.Context, op, sql string, args ...any) (*domain.Discount, error) {
	d, err := scan(uow.Querier(ctx, r.pool).QueryRow(ctx, sql, args...))
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodeDiscountNotFound, "discount not found")
	}
	return d, pgerr.Map(op, err, nil)
}

func scan(row pgx.Row) (*domain.Discount, error) {
	var (
		p                          domain.ReconstructParams
		id                         uuid.UUID
		valueType, value, currency string
		status                     string
		maxDiscount, minPurchase   *string
		productIDs                 []string
		startDate, endDate         time.Time
	)
	if err := row.Scan(&id, &p.Code, &p.Name, &p.Description, &valueType, &value, &maxDiscount, &currency,
		&productIDs, &minPurchase, &startDate, &endDate, &status, &p.UsageLimit, &p.UsageCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID = shared.IDFromUUID[domain.Discount](id)

	capAmount, err := platform.ScanOptionalMoney(maxDiscount, currency)
	if err != nil {
		return nil, err
	}
	if p.Value, err = scanValue(valueType, value, currency, capAmount); err != nil {
		return nil, err
	}

	p.Applicability = domain.ForProducts(productIDs...)
	minAmount, err := platform.ScanOptionalMoney(minPurchase, currency)
	if err != nil {
		return nil, err
	}
	if minAmount != nil {
		p.Applicability = p.Applicability.WithMinimumPurchase(*minAmount)
	}

	if p.Period, err = domain.NewPeriod(startDate, endDate); err != nil {
		return nil, err
	}
	sv, err := statuses.ToDomain(status)
	if err != nil {
		return nil, err
	}
	if p.Status, err = domain.ParseStatus(string(sv)); err != nil {
		return nil, err
	}
	return domain.Reconstruct(p)
}

func scanValue(valueType, value, currency string, capAmount *shared.Money) (domain.Value, error) {
	kind, err := valueTypes.ToDomain(valueType)
	if err != nil {
		return domain.Value{}, err
	}
	if kind == domain.ValuePercentage {
		percent, err := decimal.NewFromString(value)
		if err != nil {
			return domain.Value{}, shared.Validation(domain.CodeInvalidValue, "stored percentage %q: %v", value, err)
		}
		return domain.NewPercentageValue(percent, capAmount)
	}
	amount, err := platform.ScanMoney(value, currency)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.NewFixedAmountValue(amount)
}

// currencyOf picks the one currency column every money field of the row is
// stored in. Percentage discounts without a cap or minimum default to IDR.
func currencyOf(d *domain.Discount) shared.Currency {
	if d.Value().Type() == domain.ValueFixedAmount {
		return d.Value().Amount().Currency()
	}
	if m, ok := d.Value().MaxDiscount(); ok {
		return m.Currency()
	}
	if m, ok := d.Applicability().MinimumPurchase(); ok {
		return m.Currency()
	}
	return shared.IDR
}

func (r *Repository) Save(ctx context.Context, d *domain.Discount) error {
	status, err := statuses.ToStore(d.Status().Value())
	if err != nil {
		return err
	}
	valueType, err := valueTypes.ToStore(d.Value().Type())
	if err != nil {
		return err
	}
	value := d.Value().Percent().StringFixed(2)
	if d.Value().Type() == domain.ValueFixedAmount {
		value = platform.MoneyArg(d.Value().Amount())
	}
	maxDiscount, hasMax := d.Value().MaxDiscount()
	minPurchase, hasMin := d.Applicability().MinimumPurchase()
	productIDs := d.Applicability().ProductIDs()
	if productIDs == nil {
		productIDs = []string{}
	}

	return platform.SaveAggregate(ctx, r.uow, d, func(ctx context.Context, q uow.DB) error {
		_, err := q.Exec(ctx, `INSERT INTO discounts (id, code, name, description, value_type, value, max_discount, currency,
				product_ids, min_purchase, start_date, end_date, status, usage_limit, usage_count, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8,$9,$10::numeric,$11,$12,$13,$14,$15,$16,$17)
			ON CONFLICT (id) DO UPDATE SET name=$3, description=$4, status=$13, usage_limit=$14, usage_count=$15, updated_at=$17`,
			d.ID().UUID(), d.Code(), d.Name(), d.Description(), valueType, value,
			platform.OptionalMoneyArg(maxDiscount, hasMax), string(currencyOf(d)),
			productIDs, platform.OptionalMoneyArg(minPurchase, hasMin),
			d.Period().Start(), d.Period().End(), status, d.UsageLimit(), d.UsageCount(), d.CreatedAt(), d.UpdatedAt())
		return pgerr.Map("discount.save", err, uniques)
	})
}

func (r *Repository) Delete(ctx context.Context, d *domain.Discount) error {
	return platform.SaveAggregate(ctx, r.uow, d, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `DELETE FROM discounts WHERE id=$1`, d.ID().UUID())
		if err != nil {
			return pgerr.Map("discount.delete", err, nil)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodeDiscountNotFound, "discount not found")
		}
		return nil
	})
}
