package cache

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a size-bounded process-local Cache used by tests and single
// instance deployments.
type Memory struct {
	mu  sync.Mutex
	lru *lru.Cache[string, memEntry]
	now func() time.Time
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 10_000
	}
	c, _ := lru.New[string, memEntry](size)
	return &Memory{lru: c, now: time.Now}
}

// WithClock replaces the time source; tests use it to expire entries.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) load(key string) (memEntry, bool) {
	e, ok := m.lru.Get(key)
	if !ok {
		return memEntry{}, false
	}
	if e.expired(m.now()) {
		m.lru.Remove(key)
		return memEntry{}, false
	}
	return e, true
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.load(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.lru.Remove(k)
	}
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.load(key)
	if !ok {
		e = memEntry{value: []byte("0")}
		if ttl > 0 {
			e.expiresAt = m.now().Add(ttl)
		}
	}
	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0, shared.Infrastructure("cache.incr", fmt.Errorf("value at %q is not an integer: %w", key, err))
	}
	n++
	e.value = []byte(strconv.FormatInt(n, 10))
	m.lru.Add(key, e)
	return n, nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.load(key)
	return ok, nil
}

func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, k := range m.lru.Keys() {
		if _, ok := m.load(k); !ok {
			continue
		}
		if ok, err := path.Match(pattern, k); err == nil && ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// TTL reports the remaining lifetime of key, zero when it never expires.
func (m *Memory) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.load(key)
	if !ok {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return 0, true
	}
	return e.expiresAt.Sub(m.now()), true
}
