package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/product/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var statuses = shared.MustEnumMap("product status", domain.AllStatuses(), map[domain.StatusValue]string{
	domain.StatusActive:       "active",
	domain.StatusInactive:     "inactive",
	domain.StatusOutOfStock:   "out_of_stock",
	domain.StatusDiscontinued: "discontinued",
})

var uniques = pgerr.Uniques{"products_sku_key": domain.CodeDuplicateSKU}

const selectProduct = `SELECT id, sku, name, description, price::text, currency, stock, status, created_at, updated_at FROM products`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	return r.one(ctx, "product.find_by_id", selectProduct+` WHERE id=$1`, id.UUID())
}

func (r *Repository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.one(ctx, "product.find_by_sku", selectProduct+` WHERE sku=upper(trim($1))`, sku)
}

func (r *Repository) FindForUpdate(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	return r.one(ctx, "product.find_for_update", selectProduct+` WHERE id=$1 FOR UPDATE`, id.UUID())
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	rows, err := uow.Querier(ctx, r.pool).Query(ctx, selectProduct+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, pgerr.Map("product.list", err, nil)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, pgerr.Map("product.list", rows.Err(), nil)
}

func (r *Repository) one(ctx context.Context, op, sql string, args ...any) (*domain.Product, error) {
	p, err := scan(uow.Querier(ctx, r.pool).QueryRow(ctx, sql, args...))
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodeProductNotFound, "product not found")
	}
	return p, pgerr.Map(op, err, nil)
}

func scan(row pgx.Row) (*domain.Product, error) {
	var (
		p                       domain.ReconstructParams
		rawID                   [16]byte
		price, currency, status string
		createdAt, updatedAt    time.Time
	)
	if err := row.Scan(&rawID, &p.SKU, &p.Name, &p.Description, &price, &currency, &p.Stock, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	p.ID = shared.IDFromUUID[domain.Product](rawID)
	if p.Price, err = platform.ScanMoney(price, currency); err != nil {
		return nil, err
	}
	value, err := statuses.ToDomain(status)
	if err != nil {
		return nil, err
	}
	if p.Status, err = domain.ParseStatus(string(value)); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = createdAt, updatedAt
	return domain.Reconstruct(p)
}

func (r *Repository) Save(ctx context.Context, p *domain.Product) error {
	status, err := statuses.ToStore(p.Status().Value())
	if err != nil {
		return err
	}
	return platform.SaveAggregate(ctx, r.uow, p, func(ctx context.Context, q uow.DB) error {
		_, err := q.Exec(ctx, `INSERT INTO products (id, sku, name, description, price, currency, stock, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET sku=$2, name=$3, description=$4, price=$5::numeric, currency=$6, stock=$7, status=$8, updated_at=$10`,
			p.ID().UUID(), p.SKU(), p.Name(), p.Description(), platform.MoneyArg(p.Price()), string(p.Price().Currency()),
			p.Stock(), status, p.CreatedAt(), p.UpdatedAt())
		return pgerr.Map("product.save", err, uniques)
	})
}

func (r *Repository) Delete(ctx context.Context, p *domain.Product) error {
	return platform.SaveAggregate(ctx, r.uow, p, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `DELETE FROM products WHERE id=$1`, p.ID().UUID())
		if err != nil {
			return pgerr.Map("product.delete", err, nil)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodeProductNotFound, "product not found")
		}
		return nil
	})
}
