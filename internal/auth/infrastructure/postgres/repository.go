package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/auth/domain"
	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var uniques = pgerr.Uniques{"users_email_key": domain.CodeEmailTaken}

const selectCredential = `SELECT id, email, password_hash, email_verified, created_at, updated_at FROM users`

// Repository reads and writes the credential columns of the users table.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.CredentialID) (*domain.Credential, error) {
	return r.one(ctx, "credential.find_by_id", selectCredential+` WHERE id=$1`, id.UUID())
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return r.one(ctx, "credential.find_by_email", selectCredential+` WHERE email=$1`, normalized)
}

func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ok bool
	err := uow.Querier(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`, email).Scan(&ok)
	return ok, pgerr.Map("credential.exists_by_email", err, nil)
}

func (r *Repository) one(ctx context.Context, op, sql string, args ...any) (*domain.Credential, error) {
	c, err := scan(uow.Querier(ctx, r.pool).QueryRow(ctx, sql, args...))
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodeCredentialNotFound, "account not found")
	}
	return c, pgerr.Map(op, err, nil)
}

func scan(row pgx.Row) (*domain.Credential, error) {
	var (
		p                    domain.ReconstructParams
		rawID                [16]byte
		hash                 string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&rawID, &p.Email, &hash, &p.EmailVerified, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.ID = shared.IDFromUUID[domain.Credential](rawID)
	p.PasswordHash = domain.PasswordHash(hash)
	p.CreatedAt, p.UpdatedAt = createdAt, updatedAt
	return domain.Reconstruct(p)
}

func (r *Repository) Create(ctx context.Context, c *domain.Credential, fullName string) error {
	return platform.SaveAggregate(ctx, r.uow, c, func(ctx context.Context, q uow.DB) error {
		_, err := q.Exec(ctx, `INSERT INTO users (id, email, password_hash, email_verified, full_name, created_at, updated_at)
			VALUES ($1,$2,$3,$4,trim($5),$6,$7)`,
			c.ID().UUID(), c.Email(), string(c.PasswordHash()), c.EmailVerified(), fullName, c.CreatedAt(), c.UpdatedAt())
		return pgerr.Map("credential.create", err, uniques)
	})
}

// Save updates the credential columns only; profile columns belong to the
// users context.
func (r *Repository) Save(ctx context.Context, c *domain.Credential) error {
	return platform.SaveAggregate(ctx, r.uow, c, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `UPDATE users SET email=$2, password_hash=$3, email_verified=$4, updated_at=$5 WHERE id=$1`,
			c.ID().UUID(), c.Email(), string(c.PasswordHash()), c.EmailVerified(), c.UpdatedAt())
		if err != nil {
			return pgerr.Map("credential.save", err, uniques)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodeCredentialNotFound, "account not found")
		}
		return nil
	})
}
