// Package postgres holds the pgx plumbing shared by every repository: pool
// setup, embedded migrations and the save-with-outbox step.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/outbox"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

//go:embed migrations/*.sql
var migrations embed.FS

func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction.
func Migrate(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return err
	}
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		var applied bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, name).Scan(&applied); err != nil {
			return err
		}
		if applied {
			continue
		}
		body, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(body)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		log.Info("migration applied", "version", name)
	}
	return nil
}

// SaveAggregate runs write and the outbox insert for agg's pending events in
// the ambient transaction, opening one when none is active. The events are
// handed to the unit of work for publication after commit.
func SaveAggregate(ctx context.Context, u *uow.UnitOfWork, agg shared.EventSource, write func(ctx context.Context, q uow.DB) error) error {
	return u.WithTransaction(ctx, func(ctx context.Context) error {
		tx, ok := uow.Tx(ctx)
		if !ok {
			return uow.ErrNoTransaction
		}
		if err := write(ctx, tx); err != nil {
			return err
		}
		events := agg.PullDomainEvents()
		if err := outbox.Append(ctx, tx, events); err != nil {
			return shared.Infrastructure("outbox.append", err)
		}
		return uow.Collect(ctx, events...)
	})
}

// ExecBatch sends batch in one round trip when q is a transaction and falls
// back to one statement at a time otherwise.
func ExecBatch(ctx context.Context, q uow.DB, batch *pgx.Batch) error {
	if tx, ok := q.(pgx.Tx); ok {
		return tx.SendBatch(ctx, batch).Close()
	}
	for _, qq := range batch.QueuedQueries {
		if _, err := q.Exec(ctx, qq.SQL, qq.Arguments...); err != nil {
			return err
		}
	}
	return nil
}
