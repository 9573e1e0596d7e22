// Package kafka builds the segmentio writer the outbox relay publishes
// through.
package kafka

import (
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type WriterConfig struct {
	Brokers []string
	// BatchTimeout bounds how long a partial batch waits. The relay writes
	// one message at a time, so the library default of 1s is too slow.
	BatchTimeout time.Duration
	AutoCreate   bool
}

// NewWriter returns a writer that hashes on message key, so every event of
// one aggregate lands on the same partition in relay order.
func NewWriter(log *slog.Logger, cfg WriterConfig) *kafka.Writer {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: cfg.AutoCreate,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Error("kafka writer", "detail", fmtArgs(msg, args...))
		}),
	}
}
