package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
)

type Handler func(ctx context.Context, e shared.Event) error

type subscription struct {
	listener string
	handler  Handler
	retry    retryPolicy
}

type retryPolicy struct {
	attempts int
	delay    time.Duration
}

const (
	DefaultAttempts = 5
	DefaultDelay    = 200 * time.Millisecond
	maxDelay        = 5 * time.Second
)

type SubscribeOption func(*retryPolicy)

// Durable redelivers an event to a failing listener up to DefaultAttempts
// times, doubling DefaultDelay between tries.
func Durable() SubscribeOption {
	return Retry(DefaultAttempts, DefaultDelay)
}

// Retry bounds redelivery to attempts tries, starting delay apart. Only
// errors without a kind, panics and infrastructure errors are retried.
func Retry(attempts int, delay time.Duration) SubscribeOption {
	return func(p *retryPolicy) {
		p.attempts = max(attempts, 1)
		p.delay = delay
	}
}

// Bus delivers committed domain events to in-process listeners. Each
// listener gets its own goroutine per Publish call and sees its events in
// the order they were published; a failing listener never affects another.
type Bus struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	mu   sync.RWMutex
	subs map[string][]subscription
	wg   sync.WaitGroup
}

func New(log *slog.Logger, m *metrics.Metrics) *Bus {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Bus{log: log, metrics: m, subs: map[string][]subscription{}}
}

func (b *Bus) Subscribe(eventName, listener string, h Handler, opts ...SubscribeOption) {
	policy := retryPolicy{attempts: 1}
	for _, o := range opts {
		o(&policy)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], subscription{listener: listener, handler: h, retry: policy})
}

type delivery struct {
	listener string
	calls    []call
}

type call struct {
	handler Handler
	retry   retryPolicy
	event   shared.Event
}

// Publish returns immediately. Listeners run on a context that keeps ctx's
// values but not its cancellation.
func (b *Bus) Publish(ctx context.Context, events ...shared.Event) {
	b.mu.RLock()
	byListener := map[string]*delivery{}
	var order []*delivery
	for _, e := range events {
		for _, s := range b.subs[e.Name()] {
			d, ok := byListener[s.listener]
			if !ok {
				d = &delivery{listener: s.listener}
				byListener[s.listener] = d
				order = append(order, d)
			}
			d.calls = append(d.calls, call{handler: s.handler, retry: s.retry, event: e})
		}
	}
	b.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, d := range order {
		b.wg.Add(1)
		go func(d *delivery) {
			defer b.wg.Done()
			for _, c := range d.calls {
				b.invoke(detached, d.listener, c)
			}
		}(d)
	}
}

func (b *Bus) invoke(ctx context.Context, listener string, c call) {
	delay := c.retry.delay
	for attempt := 1; ; attempt++ {
		err := safeCall(ctx, c)
		if err == nil {
			return
		}
		if attempt < c.retry.attempts && retryable(err) {
			b.log.Warn("event listener failed, retrying",
				"listener", listener,
				"event", c.event.Name(),
				"event_id", c.event.ID(),
				"attempt", attempt,
				"err", err)
			time.Sleep(delay)
			delay = min(delay*2, maxDelay)
			continue
		}
		b.metrics.ListenerFailures.WithLabelValues(listener, c.event.Name()).Inc()
		b.log.Error("event listener failed",
			"listener", listener,
			"event", c.event.Name(),
			"event_id", c.event.ID(),
			"aggregate_id", c.event.AggregateID(),
			"attempts", attempt,
			"err", err)
		return
	}
}

func safeCall(ctx context.Context, c call) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panic: %v", p)
		}
	}()
	return c.handler(ctx, c.event)
}

// retryable keeps domain refusals from being redelivered; they would fail
// the same way again.
func retryable(err error) bool {
	switch shared.KindOf(err) {
	case "", shared.KindInfrastructure:
		return true
	default:
		return false
	}
}

// Wait blocks until every delivery started so far has finished.
func (b *Bus) Wait() {
	b.wg.Wait()
}
