package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront-core/internal/payment/application"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/tracing"
)

type NotificationHandler interface {
	HandleNotification(ctx context.Context, n application.Notification) (application.Result, error)
}

// Consumer applies gateway notifications relayed onto a Kafka topic.
type Consumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	svc    NotificationHandler
	tracer trace.Tracer
}

func NewConsumer(log *slog.Logger, brokers []string, topic, group string, svc NotificationHandler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &Consumer{
		log:    log,
		reader: r,
		svc:    svc,
		tracer: otel.Tracer("payment-notification-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if err := c.handle(ctx, msg); err != nil {
			// Infrastructure failures stay uncommitted and are redelivered.
			c.log.Error("notification left uncommitted", "offset", msg.Offset, "err", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Error("commit failed", "offset", msg.Offset, "err", err)
		}
	}
}

// handle returns an error only when the message should be redelivered.
// Malformed payloads and business rejections are logged and acknowledged.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "ConsumePaymentNotification")
	defer span.End()

	var n application.Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		c.log.Error("unmarshal failed", "offset", msg.Offset, "err", err)
		span.RecordError(err)
		return nil
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = msg.Time.UTC()
		if n.ReceivedAt.IsZero() {
			n.ReceivedAt = time.Now().UTC()
		}
	}
	span.SetAttributes(
		attribute.String("payment.provider_ref", n.ProviderRef),
		attribute.String("payment.reported_status", n.Status),
	)

	res, err := c.svc.HandleNotification(msgCtx, n)
	switch {
	case err == nil:
		c.log.Info("payment notification applied",
			"provider_ref", n.ProviderRef, "status", res.Payment.Status, "duplicate", res.Duplicate, "changed", res.Changed)
		return nil
	case shared.IsKind(err, shared.KindInfrastructure):
		span.SetStatus(codes.Error, err.Error())
		return err
	default:
		c.log.Warn("payment notification rejected", "provider_ref", n.ProviderRef, "code", shared.CodeOf(err), "err", err)
		span.RecordError(err)
		return nil
	}
}
