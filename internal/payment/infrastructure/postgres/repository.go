package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/payment/domain"
	"github.com/dmehra2102/storefront-core/internal/platform/pgerr"
	platform "github.com/dmehra2102/storefront-core/internal/platform/postgres"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

var statuses = shared.MustEnumMap("payment status", domain.AllStatuses(), map[domain.StatusValue]string{
	domain.StatusInitiated:  "initiated",
	domain.StatusPending:    "pending",
	domain.StatusSettlement: "settlement",
	domain.StatusCancel:     "cancel",
	domain.StatusExpire:     "expire",
	domain.StatusDeny:       "deny",
	domain.StatusRefund:     "refund",
	domain.StatusFailed:     "failed",
})

var uniques = pgerr.Uniques{"payments_provider_ref_key": domain.CodeDuplicateProviderRef}

const selectPayment = `SELECT id, order_id, provider, provider_ref, amount::text, currency, status, payment_method,
	failure_reason, paid_at, expires_at, created_at, updated_at FROM payments`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	uow  *uow.UnitOfWork
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool, u *uow.UnitOfWork) *Repository {
	return &Repository{log: log, pool: pool, uow: u}
}

func (r *Repository) FindByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	return r.one(ctx, "payment.find_by_id", selectPayment+` WHERE id=$1`, id.UUID())
}

func (r *Repository) FindByProviderRef(ctx context.Context, ref string) (*domain.Payment, error) {
	return r.one(ctx, "payment.find_by_provider_ref", selectPayment+` WHERE provider_ref=$1`, ref)
}

func (r *Repository) FindByProviderRefForUpdate(ctx context.Context, ref string) (*domain.Payment, error) {
	return r.one(ctx, "payment.find_by_provider_ref_for_update", selectPayment+` WHERE provider_ref=$1 FOR UPDATE`, ref)
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.Payment, error) {
	rows, err := uow.Querier(ctx, r.pool).Query(ctx, selectPayment+` WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, pgerr.Map("payment.find_by_order", err, nil)
	}
	defer rows.Close()

	var out []*domain.Payment
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, pgerr.Map("payment.find_by_order", rows.Err(), nil)
}

func (r *Repository) ExistsByProviderRef(ctx context.Context, ref string) (bool, error) {
	var ok bool
	err := uow.Querier(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE provider_ref=$1)`, ref).Scan(&ok)
	return ok, pgerr.Map("payment.exists_by_provider_ref", err, nil)
}

func (r *Repository) one(ctx context.Context, op, sql string, args ...any) (*domain.Payment, error) {
	p, err := scan(uow.Querier(ctx, r.pool).QueryRow(ctx, sql, args...))
	if pgerr.IsNoRows(err) {
		return nil, shared.NotFound(domain.CodePaymentNotFound, "payment not found")
	}
	return p, pgerr.Map(op, err, nil)
}

func scan(row pgx.Row) (*domain.Payment, error) {
	var (
		p                       domain.ReconstructParams
		id                      uuid.UUID
		amount, currency, state string
	)
	if err := row.Scan(&id, &p.OrderID, &p.Provider, &p.ProviderRef, &amount, &currency, &state, &p.PaymentMethod,
		&p.FailureReason, &p.PaidAt, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	p.ID = shared.IDFromUUID[domain.Payment](id)
	if p.Amount, err = platform.ScanMoney(amount, currency); err != nil {
		return nil, err
	}
	sv, err := statuses.ToDomain(state)
	if err != nil {
		return nil, err
	}
	if p.Status, err = domain.ParseStatus(string(sv)); err != nil {
		return nil, err
	}
	return domain.Reconstruct(p)
}

func (r *Repository) Save(ctx context.Context, p *domain.Payment) error {
	status, err := statuses.ToStore(p.Status().Value())
	if err != nil {
		return err
	}
	return platform.SaveAggregate(ctx, r.uow, p, func(ctx context.Context, q uow.DB) error {
		_, err := q.Exec(ctx, `INSERT INTO payments (id, order_id, provider, provider_ref, amount, currency, status, payment_method,
				failure_reason, paid_at, expires_at, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5::numeric,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (id) DO UPDATE SET status=$7, payment_method=$8, failure_reason=$9, paid_at=$10, expires_at=$11, updated_at=$13`,
			p.ID().UUID(), p.OrderID(), p.Provider(), p.ProviderRef(), platform.MoneyArg(p.Amount()), string(p.Amount().Currency()),
			status, p.PaymentMethod(), p.FailureReason(), utcPtr(p.PaidAt()), utcPtr(p.ExpiresAt()), p.CreatedAt(), p.UpdatedAt())
		return pgerr.Map("payment.save", err, uniques)
	})
}

func (r *Repository) Delete(ctx context.Context, p *domain.Payment) error {
	return platform.SaveAggregate(ctx, r.uow, p, func(ctx context.Context, q uow.DB) error {
		ct, err := q.Exec(ctx, `DELETE FROM payments WHERE id=$1`, p.ID().UUID())
		if err != nil {
			return pgerr.Map("payment.delete", err, nil)
		}
		if ct.RowsAffected() == 0 {
			return shared.NotFound(domain.CodePaymentNotFound, "payment not found")
		}
		return nil
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
