// Package uow runs repository work inside one pgx transaction that travels in
// the context.Context, and publishes collected domain events after commit.
package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
)

type State string

const (
	StateIdle          State = "IDLE"
	StateInTransaction State = "IN_TRANSACTION"
	StateCommitted     State = "COMMITTED"
	StateRolledBack    State = "ROLLED_BACK"
)

var ErrNoTransaction = errors.New("uow: no active transaction")

// Beginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is the query surface shared by pgx.Tx and *pgxpool.Pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Publisher interface {
	Publish(ctx context.Context, events ...shared.Event)
}

type scopeKey struct{}

type scope struct {
	mu     sync.Mutex
	tx     pgx.Tx
	state  State
	events []shared.Event
}

func (s *scope) current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// finish moves the scope to a terminal state and hands back whatever was collected.
func (s *scope) finish(to State) []shared.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = to
	out := s.events
	s.events = nil
	return out
}

type UnitOfWork struct {
	log     *slog.Logger
	db      Beginner
	pub     Publisher
	metrics *metrics.Metrics
}

func New(log *slog.Logger, db Beginner, pub Publisher, m *metrics.Metrics) *UnitOfWork {
	if m == nil {
		m = metrics.NewNop()
	}
	return &UnitOfWork{log: log, db: db, pub: pub, metrics: m}
}

func active(ctx context.Context) *scope {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok || s.current() != StateInTransaction {
		return nil
	}
	return s
}

// StateOf reports the state of the scope carried by ctx. A context that never
// entered a unit of work is idle; one captured inside a finished scope reports
// that scope's terminal state and no longer exposes its transaction.
func StateOf(ctx context.Context) State {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return StateIdle
	}
	return s.current()
}

// Tx returns the ambient transaction, if any.
func Tx(ctx context.Context) (pgx.Tx, bool) {
	s := active(ctx)
	if s == nil {
		return nil, false
	}
	return s.tx, true
}

// Querier returns the ambient transaction or fallback when none is active.
// A pgx.Tx must not be used from more than one goroutine at a time.
func Querier(ctx context.Context, fallback DB) DB {
	if tx, ok := Tx(ctx); ok {
		return tx
	}
	return fallback
}

// Collect enlists events for publication once the ambient transaction commits.
func Collect(ctx context.Context, events ...shared.Event) error {
	s := active(ctx)
	if s == nil {
		return ErrNoTransaction
	}
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	return nil
}

// WithTransaction runs work inside one transaction. A nested call reuses the
// enclosing transaction. Collected events are published only after Commit
// succeeds; on error or panic the transaction is rolled back and nothing is
// published.
func (u *UnitOfWork) WithTransaction(ctx context.Context, work func(ctx context.Context) error) (err error) {
	if active(ctx) != nil {
		return work(ctx)
	}

	ctx, span := otel.Tracer("storefront/uow").Start(ctx, "uow.transaction")
	defer span.End()

	tx, err := u.db.Begin(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "begin")
		u.metrics.Transactions.WithLabelValues("begin_failed").Inc()
		return shared.Infrastructure("uow.begin", err)
	}
	s := &scope{tx: tx, state: StateInTransaction}
	txCtx := context.WithValue(ctx, scopeKey{}, s)

	defer func() {
		if p := recover(); p != nil {
			u.rollback(ctx, s, fmt.Errorf("panic: %v", p))
			span.SetStatus(codes.Error, "panic")
			panic(p)
		}
	}()

	if err := work(txCtx); err != nil {
		u.rollback(ctx, s, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.finish(StateRolledBack)
		u.metrics.Transactions.WithLabelValues("commit_failed").Inc()
		u.log.Error("transaction commit failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		return shared.Infrastructure("uow.commit", err)
	}

	events := s.finish(StateCommitted)
	u.metrics.Transactions.WithLabelValues("committed").Inc()
	if len(events) > 0 && u.pub != nil {
		u.pub.Publish(ctx, events...)
	}
	return nil
}

func (u *UnitOfWork) rollback(ctx context.Context, s *scope, cause error) {
	dropped := s.finish(StateRolledBack)
	u.metrics.Transactions.WithLabelValues("rolled_back").Inc()
	if err := s.tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		u.log.Error("transaction rollback failed", "err", err, "cause", cause)
		return
	}
	u.log.Debug("transaction rolled back", "cause", cause, "dropped_events", len(dropped))
}

// Run is WithTransaction for work that produces a value.
func Run[T any](ctx context.Context, u *UnitOfWork, work func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := u.WithTransaction(ctx, func(ctx context.Context) error {
		v, err := work(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
