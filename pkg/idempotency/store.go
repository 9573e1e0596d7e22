// Package idempotency remembers which deliveries were already handled so a
// redelivered Kafka message or a retried gateway notification runs once.
package idempotency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// MessageKey identifies one Kafka record.
func MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// NotificationKey identifies one gateway report. The same transaction
// reported with a new status is a distinct notification.
func NotificationKey(provider, providerRef, transactionID, status string) string {
	return fmt.Sprintf("idem:notify:%s:%s:%s:%s",
		strings.ToLower(strings.TrimSpace(provider)),
		strings.TrimSpace(providerRef),
		strings.TrimSpace(transactionID),
		strings.ToLower(strings.TrimSpace(status)))
}

// Seen claims key and reports whether an earlier caller already held it.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Forget releases a claim whose processing failed so a redelivery is handled.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
