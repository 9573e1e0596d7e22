package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmehra2102/storefront-core/internal/app"
	"github.com/dmehra2102/storefront-core/internal/config"
	paymentkafka "github.com/dmehra2102/storefront-core/internal/payment/infrastructure/kafka"
	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
	"github.com/dmehra2102/storefront-core/pkg/shutdown"
	"github.com/dmehra2102/storefront-core/pkg/tracing"
)

// The worker applies gateway notifications relayed onto Kafka. Order and
// stock listeners run here too, so a settlement marks the order PAID in the
// same process that recorded it.
func main() {
	cfg, err := config.Load("payment-notification-worker")
	log := logging.New("payment-notification-worker", cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	// Schema is owned by storefront-service.
	cfg.MigrateOnStart = false

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	stopTracing, err := tracing.Init(ctx, log, tracing.Config{
		Service:     cfg.Service,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
		SampleRatio: cfg.TraceRatio,
	})
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = stopTracing(context.Background()) }()

	a, err := app.Build(ctx, log, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer a.Close()

	consumer := paymentkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.PaymentNotificationTopic, cfg.PaymentNotificationGroup, a.Services.Payments)

	ops := chi.NewRouter()
	ops.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	ops.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: ops, ReadHeaderTimeout: 5 * time.Second}

	err = shutdown.Run(ctx, log,
		shutdown.Task{Name: "notification consumer", Run: consumer.Run},
		shutdown.Task{Name: "outbox relay", Run: a.Relay.Run},
		shutdown.HTTPServer(srv, 5*time.Second),
	)
	if err != nil {
		log.Error("payment-notification-worker stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("payment-notification-worker shutdown complete")
}
