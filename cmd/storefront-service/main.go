package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmehra2102/storefront-core/internal/app"
	"github.com/dmehra2102/storefront-core/internal/config"
	"github.com/dmehra2102/storefront-core/pkg/logging"
	"github.com/dmehra2102/storefront-core/pkg/shutdown"
	"github.com/dmehra2102/storefront-core/pkg/tracing"
)

func main() {
	cfg, err := config.Load("storefront-service")
	log := logging.New("storefront-service", cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

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

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           a.Handler().Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	err = shutdown.Run(ctx, log,
		shutdown.HTTPServer(srv, 10*time.Second),
		shutdown.Task{Name: "outbox relay", Run: a.Relay.Run},
	)
	if err != nil {
		log.Error("storefront-service stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("storefront-service shutdown complete")
}
