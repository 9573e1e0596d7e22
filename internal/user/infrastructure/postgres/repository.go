package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/internal/user/domain"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var uniques = pgerr.Uniques{"users_email_key": domain.CodeEmailTaken}

const selectUser = `SELECT id, email, full_name, phone, created_at, updated_at FROM users`

// Repository reads and writes the profile columns of the users table.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.one(ctx, "user.find_by_id", selectUser+` WHERE id=$1`, id.UUID())
}

func (r *Repository) FindForUpdate(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return r.one(ctx, "user.find_for_update", selectUser+` WHERE id=$1 FOR UPDATE`, id.UUID())
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "user.find_by_email", selectUser+` WHERE email=$1`, normalized)
}

// EmailByUserID lets cache invalidation recover the email key of a row.
func (r *Repository) EmailByUserID(ctx context.Context, userID string) (string, error) {
	id, err := shared.ParseID[domain.User]("user id", userID)
	if err != nil {
		return "", err
	}
	var email string
	err = uow.Querier(ctx, r.pool).QueryRow(ctx, `SELECT email FROM users WHERE id=$1`, id.UUID()).Scan(&email)
	if pgerr.IsNoRows(err) {
		return "", shared.NotFound(domain.CodeUserNotFound, "user not found")
	}
	return email, pgerr.Map("user.email_by_id", err, nil)
}

func (r *Repository) one(ctx context.Context, op, sql string, args ...any) (*domain.User, error) {
	u, err := scan(uow.Querier(ctx, r.pool).QueryRow(ctx, sql, args...))
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodeUserNotFound, "user not found")
	}
	return u, pgerr.Map(op, err, nil)
}

func scan(row pgx.Row) (*domain.User, error) {
	var (
		p                    domain.ReconstructParams
		rawID                [16]byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&rawID, &p.Email, &p.FullName, &p.Phone, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ID = shared.IDFromUUID[domain.User](rawID)
	p.CreatedAt, p.UpdatedAt = createdAt, updatedAt
	return domain.Reconstruct(p)
}

func (r *Repository) Save(ctx context.Context, u *domain.User) error {
	return platform.SaveAggregate(ctx, r.uow, u, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `UPDATE users SET email=$2, full_name=$3, phone=$4, updated_at=$5 WHERE id=$1`,
			u.ID().UUID(), u.Email(), u.FullName(), u.Phone(), u.UpdatedAt())
		if err != nil {
			return pgerr.Map("user.save", err, uniques)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodeUserNotFound, "user not found")
		}
		return nil
	})
}

func (r *Repository) Delete(ctx context.Context, u *domain.User) error {
	return platform.SaveAggregate(ctx, r.uow, u, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `DELETE FROM users WHERE id=$1`, u.ID().UUID())
		if err != nil {
			return pgerr.Map("user.delete", err, nil)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodeUserNotFound, "user not found")
		}
		return nil
	})
}
