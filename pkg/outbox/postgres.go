package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/tracing"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

const maxRetries = 10

// Append writes domain events into the outbox through q, which must be the
// transaction that persists the aggregate.
func Append(ctx context.Context, q uow.DB, events []shared.Event) error {
	if len(events) == 0 {
		return nil
	}
	traceparent := tracing.Traceparent(ctx)
	batch := &pgx.Batch{}
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		headers := map[string]string{"aggregate_type": e.AggregateType()}
		batch.Queue(`INSERT INTO outbox (event_id, aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,$7,'pending')`,
			e.ID(), e.AggregateType(), e.AggregateID(), e.Name(), payload, headers, traceparent)
	}
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

type PostgresStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewPostgresStore(log *slog.Logger, pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{log: log, pool: pool}
}

// LockBatch claims pending rows, failed rows still under the retry limit, and
// rows whose lease expired in another relay.
func (s *PostgresStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, event_id::text, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at, retry_count
		FROM outbox
		WHERE (status IN ('pending','failed') AND retry_count < $2)
		   OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var headers map[string]string
		if err := rows.Scan(&event.ID, &event.EventID, &event.AggregateType, &event.AggregateID, &event.Type,
			&event.Payload, &headers, &event.Traceparent, &event.CreatedAt, &event.RetryCount); err != nil {
			return nil, err
		}
		event.Headers = headers
		event.RelayID = relayID
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `UPDATE outbox SET status='in_progress', relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`,
		relayID, lease.String(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PostgresStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status='sent', sent_at=now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("no rows updated")
	}
	return nil
}

// MarkFailed records the error; permanent failures skip further retries.
func (s *PostgresStore) MarkFailed(ctx context.Context, id int64, errMsg string, permanent bool) error {
	retryBump := 1
	if permanent {
		retryBump = maxRetries
	}
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET status='failed', last_error=$2, retry_count=retry_count+$3 WHERE id=$1`, id, errMsg, retryBump)
	return err
}

func (s *PostgresStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox SET lease_until=now() + $1::interval WHERE id = ANY($2) AND relay_id=$3`, lease.String(), ids, relayID)
	return err
}
