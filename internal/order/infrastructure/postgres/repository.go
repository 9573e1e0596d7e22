package postgres

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/order/domain"
	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var statuses = shared.MustEnumMap("order status", domain.AllStatuses(), map[domain.StatusValue]string{
	domain.StatusPendingPayment: "pending_payment",
	domain.StatusPaid:           "paid",
	domain.StatusCancelled:      "cancelled",
	domain.StatusExpired:        "expired",
	domain.StatusRefunded:       "refunded",
})

const selectOrder = `SELECT id, user_id, currency, subtotal::text, discount_code, discount_amount::text, total::text,
	status, created_at, updated_at FROM orders`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	return r.one(ctx, "order.find_by_id", selectOrder+` WHERE id=$1`, id.UUID())
}

func (r *Repository) FindForUpdate(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	return r.one(ctx, "order.find_for_update", selectOrder+` WHERE id=$1 FOR UPDATE`, id.UUID())
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, error) {
	q := uow.Querier(ctx, r.pool)
	rows, err := q.Query(ctx, selectOrder+` WHERE user_id=$1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, pgerr.Map("order.list_by_user", err, nil)
	}
	var out []*domain.Order
	var params []domain.ReconstructParams
	for rows.Next() {
		p, err := scanHeader(rows)
		if err != nil {
			rows.Close()
			return nil, pgerr.Map("order.list_by_user", err, nil)
		}
		params = append(params, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, pgerr.Map("order.list_by_user", err, nil)
	}
	for _, p := range params {
		o, err := r.withLines(ctx, q, p)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *Repository) Exists(ctx context.Context, id domain.OrderID) (bool, error) {
	var ok bool
	err := uow.Querier(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id.UUID()).Scan(&ok)
	return ok, pgerr.Map("order.exists", err, nil)
}

func (r *Repository) one(ctx context.Context, op, sql string, args ...any) (*domain.Order, error) {
	q := uow.Querier(ctx, r.pool)
	p, err := scanHeader(q.QueryRow(ctx, sql, args...))
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodeOrderNotFound, "order not found")
	}
	if err != nil {
		return nil, pgerr.Map(op, err, nil)
	}
	return r.withLines(ctx, q, p)
}

func scanHeader(row pgx.Row) (domain.ReconstructParams, error) {
	var (
		p                               domain.ReconstructParams
		id                              uuid.UUID
		currency, status                string
		subtotal, discountAmount, total string
	)
	if err := row.Scan(&id, &p.UserID, &currency, &subtotal, &p.DiscountCode, &discountAmount, &total,
		&status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return p, err
	}
	var err error
	p.ID = shared.IDFromUUID[domain.Order](id)
	if p.Subtotal, err = platform.ScanMoney(subtotal, currency); err != nil {
		return p, err
	}
	if p.DiscountAmount, err = platform.ScanMoney(discountAmount, currency); err != nil {
		return p, err
	}
	if p.Total, err = platform.ScanMoney(total, currency); err != nil {
		return p, err
	}
	p.Status, err = statuses.ToDomain(status)
	return p, err
}

func (r *Repository) withLines(ctx context.Context, q uow.DB, p domain.ReconstructParams) (*domain.Order, error) {
	rows, err := q.Query(ctx, `SELECT product_id, sku, name, quantity, unit_price::text, subtotal::text
		FROM order_lines WHERE order_id=$1 ORDER BY line_no`, p.ID.UUID())
	if err != nil {
		return nil, pgerr.Map("order.lines", err, nil)
	}
	defer rows.Close()

	currency := string(p.Total.Currency())
	for rows.Next() {
		var (
			l              domain.Line
			unit, subtotal string
		)
		if err := rows.Scan(&l.ProductID, &l.SKU, &l.Name, &l.Quantity, &unit, &subtotal); err != nil {
			return nil, pgerr.Map("order.lines", err, nil)
		}
		if l.UnitPrice, err = platform.ScanMoney(unit, currency); err != nil {
			return nil, err
		}
		if l.Subtotal, err = platform.ScanMoney(subtotal, currency); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Map("order.lines", err, nil)
	}
	return domain.Reconstruct(p)
}

// Save upserts the order header. Lines are frozen at placement, so they are
// only written the first time.
func (r *Repository) Save(ctx context.Context, o *domain.Order) error {
	status, err := statuses.ToStore(o.Status())
	if err != nil {
		return err
	}
	return platform.SaveAggregate(ctx, r.uow, o, func(ctx context.Context, q uow.DB) error {
		_, err := q.Exec(ctx, `INSERT INTO orders (id, user_id, currency, subtotal, discount_code, discount_amount, total, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4::numeric,$5,$6::numeric,$7::numeric,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET status=$8, updated_at=$10`,
			o.ID().UUID(), o.UserID(), string(o.Total().Currency()), platform.MoneyArg(o.Subtotal()), o.DiscountCode(),
			platform.MoneyArg(o.DiscountAmount()), platform.MoneyArg(o.Total()), status, o.CreatedAt(), o.UpdatedAt())
		if err != nil {
			return pgerr.Map("order.save", err, nil)
		}

		batch := &pgx.Batch{}
		for i, l := range o.Lines() {
			batch.Queue(`INSERT INTO order_lines (order_id, line_no, product_id, sku, name, quantity, unit_price, subtotal)
				VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric)
				ON CONFLICT (order_id, line_no) DO NOTHING`,
				o.ID().UUID(), i+1, l.ProductID, l.SKU, l.Name, l.Quantity, platform.MoneyArg(l.UnitPrice), platform.MoneyArg(l.Subtotal))
		}
		return pgerr.Map("order.save_lines", platform.ExecBatch(ctx, q, batch), nil)
	})
}

func (r *Repository) Delete(ctx context.Context, o *domain.Order) error {
	return platform.SaveAggregate(ctx, r.uow, o, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `DELETE FROM orders WHERE id=$1`, o.ID().UUID())
		if err != nil {
			return pgerr.Map("order.delete", err, nil)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodeOrderNotFound, "order not found")
		}
		return nil
	})
}
