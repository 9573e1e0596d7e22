package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/cart/domain"
	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var uniques = pgerr.Uniques{
	"carts_user_id_key":           domain.CodeCartAlreadyExists,
	"cart_items_cart_product_key": domain.CodeInvalidCart,
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.CartID) (*domain.Cart, error) {
	return r.load(ctx, "cart.find_by_id", `SELECT id, user_id, created_at, updated_at FROM carts WHERE id=$1`, id.UUID())
}

func (r *Repository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.load(ctx, "cart.find_by_user", `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id=$1`, userID)
}

func (r *Repository) FindByUserIDForUpdate(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.load(ctx, "cart.find_by_user_for_update", `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id=$1 FOR UPDATE`, userID)
}

func (r *Repository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := uow.Querier(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE user_id=$1)`, userID).Scan(&ok)
	return ok, pgerr.Map("cart.exists_for_user", err, nil)
}

func (r *Repository) load(ctx context.Context, op, sql string, arg any) (*domain.Cart, error) {
	q := uow.Querier(ctx, r.pool)

	var (
		id                   uuid.UUID
		userID               string
		createdAt, updatedAt time.Time
	)
	err := q.QueryRow(ctx, sql, arg).Scan(&id, &userID, &createdAt, &updatedAt)
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodeCartNotFound, "cart not found")
	}
	if err != nil {
		return nil, pgerr.Map(op, err, nil)
	}

	rows, err := q.Query(ctx, `SELECT id, product_id, quantity, created_at, updated_at FROM cart_items WHERE cart_id=$1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, pgerr.Map(op, err, nil)
	}
	defer rows.Close()

	var items []domain.ItemSnapshot
	for rows.Next() {
		var (
			s      domain.ItemSnapshot
			itemID uuid.UUID
		)
		if err := rows.Scan(&itemID, &s.ProductID, &s.Quantity, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, pgerr.Map(op, err, nil)
		}
		s.ID = shared.IDFromUUID[domain.Item](itemID)
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Map(op, err, nil)
	}
	return domain.Reconstruct(shared.IDFromUUID[domain.Cart](id), userID, items, createdAt, updatedAt)
}

// Save upserts the cart row and replaces its lines.
func (r *Repository) Save(ctx context.Context, c *domain.Cart) error {
	return platform.SaveAggregate(ctx, r.uow, c, func(ctx context.Context, q uow.DB) error {
		if _, err := q.Exec(ctx, `INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET updated_at=$4`,
			c.ID().UUID(), c.UserID(), c.CreatedAt(), c.UpdatedAt()); err != nil {
			return pgerr.Map("cart.save", err, uniques)
		}
		if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, c.ID().UUID()); err != nil {
			return pgerr.Map("cart.save_items", err, nil)
		}
		for _, it := range c.Snapshot() {
			if _, err := q.Exec(ctx, `INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
				it.ID.UUID(), c.ID().UUID(), it.ProductID, it.Quantity, it.CreatedAt, it.UpdatedAt); err != nil {
				return pgerr.Map("cart.save_items", err, uniques)
			}
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, id domain.CartID) error {
	ct, err := uow.Querier(ctx, r.pool).Exec(ctx, `DELETE FROM carts WHERE id=$1`, id.UUID())
	if err != nil {
		return pgerr.Map("cart.delete", err, nil)
	}
	if ct.RowsAffected() == 0 {
		return shared.NotFound(domain.CodeCartNotFound, "cart not found")
	}
	return nil
}
