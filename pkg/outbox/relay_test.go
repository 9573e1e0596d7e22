package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
)

type memStore struct {
	mu      sync.Mutex
	pending []Event
	sent    []int64
	failed  map[int64]bool
	leases  int
}

func (s *memStore) LockBatch(_ context.Context, _ string, n int, _ time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.pending) {
		n = len(s.pending)
	}
	out := s.pending[:n]
	s.pending = s.pending[n:]
	return out, nil
}

func (s *memStore) MarkSent(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *memStore) MarkFailed(_ context.Context, id int64, _ string, permanent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = permanent
	return nil
}

func (s *memStore) ExtendLease(context.Context, string, []int64, time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases++
	return nil
}

type producer struct {
	msgs []kafka.Message
	fail map[string]error
}

func (p *producer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if err := p.fail[string(m.Key)]; err != nil {
			return err
		}
	}
	p.msgs = append(p.msgs, msgs...)
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestRelayTickSendsAndMarks(t *testing.T) {
	store := &memStore{failed: map[int64]bool{}}
	for i := 1; i <= 3; i++ {
		store.pending = append(store.pending, Event{
			ID: int64(i), EventID: fmt.Sprintf("e%d", i), AggregateID: fmt.Sprintf("agg-%d", i),
			Type: "CartCreated", Payload: []byte(`{}`), Traceparent: "00-abc-def-01",
		})
	}
	prod := &producer{fail: map[string]error{
		"agg-2": errors.New("broker down"),
		"agg-3": fmt.Errorf("schema: %w", ErrPermanent),
	}}
	m := metrics.NewNop()
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), prod, "storefront.events"), m, "relay-1")

	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, map[int64]bool{2: false, 3: true}, store.failed)

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "storefront.events", msg.Topic)
	assert.Equal(t, "agg-1", string(msg.Key))
	assert.Equal(t, "CartCreated", header(msg, "event_type"))
	assert.Equal(t, "e1", header(msg, "event_id"))
	assert.Equal(t, "00-abc-def-01", header(msg, "traceparent"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxDispatched.WithLabelValues("failed")))
}

func TestRelayExtendsLeaseOnLargeBatches(t *testing.T) {
	store := &memStore{failed: map[int64]bool{}}
	for i := 1; i <= 60; i++ {
		store.pending = append(store.pending, Event{ID: int64(i), AggregateID: "a"})
	}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), &producer{}, "t"), nil, "relay-1")

	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, n)
	assert.Equal(t, 2, store.leases)
}

func TestRelayTickEmpty(t *testing.T) {
	relay := NewRelay(logging.Discard(), &memStore{failed: map[int64]bool{}}, NewDispatcher(logging.Discard(), &producer{}, "t"), nil, "r")
	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
