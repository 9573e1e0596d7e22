package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/dmehra2102/storefront-core/pkg/logging"
)

func TestNewWriterKeysByAggregate(t *testing.T) {
	w := NewWriter(logging.Discard(), WriterConfig{Brokers: []string{"a:9092", "b:9092"}})
	defer w.Close()

	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.False(t, w.AllowAutoTopicCreation)
}

func TestFmtArgs(t *testing.T) {
	assert.Equal(t, "plain", fmtArgs("plain"))
	assert.Equal(t, "retry 3 of 5", fmtArgs("retry %d of %d", 3, 5))
}
