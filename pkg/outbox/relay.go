package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront-core/pkg/metrics"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string, permanent bool) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	metrics   *metrics.Metrics
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
}

func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, m *metrics.Metrics, relayID string) *Relay {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		metrics:   m,
		relayID:   relayID,
		batchSize: 100,
		interval:  500 * time.Millisecond,
		lease:     5 * time.Second,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.Tick(ctx); err != nil {
				r.log.Error("relay tick error", "err", err)
			}
		}
	}
}

// Tick relays one batch and reports how many rows were sent.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(events))
	for i, e := range events {
		if i > 0 && i%25 == 0 {
			pending := make([]int64, 0, len(events)-i)
			for _, rest := range events[i:] {
				pending = append(pending, rest.ID)
			}
			if err := r.store.ExtendLease(ctx, r.relayID, pending, r.lease); err != nil {
				r.log.Warn("relay extend lease failed", "err", err)
			}
		}
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			r.metrics.OutboxDispatched.WithLabelValues("failed").Inc()
			if markErr := r.store.MarkFailed(ctx, e.ID, err.Error(), errors.Is(err, ErrPermanent)); markErr != nil {
				r.log.Error("relay mark failed error", "id", e.ID, "err", markErr)
			}
			continue
		}
		r.metrics.OutboxDispatched.WithLabelValues("sent").Inc()
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
