// Package app assembles the storefront from configuration. Both binaries
// build the same graph so in-process listeners react to events no matter
// which process committed them.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	segkafka "github.com/segmentio/kafka-go"

	authapp "github.com/dmehra2102/storefront-core/internal/auth/application"
	authcache "github.com/dmehra2102/storefront-core/internal/auth/infrastructure/cache"
	authpg "github.com/dmehra2102/storefront-core/internal/auth/infrastructure/postgres"
	"github.com/dmehra2102/storefront-core/internal/auth/infrastructure/token"
	"github.com/dmehra2102/storefront-core/internal/cacheinvalidation"
	cartapp "github.com/dmehra2102/storefront-core/internal/cart/application"
	cartpg "github.com/dmehra2102/storefront-core/internal/cart/infrastructure/postgres"
	checkoutapp "github.com/dmehra2102/storefront-core/internal/checkout/application"
	"github.com/dmehra2102/storefront-core/internal/checkout/infrastructure/gateway"
	"github.com/dmehra2102/storefront-core/internal/config"
	discountapp "github.com/dmehra2102/storefront-core/internal/discount/application"
	discountpg "github.com/dmehra2102/storefront-core/internal/discount/infrastructure/postgres"
	storehttp "github.com/dmehra2102/storefront-core/internal/http"
	orderapp "github.com/dmehra2102/storefront-core/internal/order/application"
	orderpg "github.com/dmehra2102/storefront-core/internal/order/infrastructure/postgres"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
	paymentpg "github.com/dmehra2102/storefront-core/internal/payment/infrastructure/postgres"
	"github.com/dmehra2102/storefront-core/internal/platform/kafka"
	"github.com/dmehra2102/storefront-core/internal/platform/postgres"
	productapp "github.com/dmehra2102/storefront-core/internal/product/application"
	productpg "github.com/dmehra2102/storefront-core/internal/product/infrastructure/postgres"
	userapp "github.com/dmehra2102/storefront-core/internal/user/application"
	usercache "github.com/dmehra2102/storefront-core/internal/user/infrastructure/cache"
	userpg "github.com/dmehra2102/storefront-core/internal/user/infrastructure/postgres"
	"github.com/dmehra2102/storefront-core/pkg/cache"
	"github.com/dmehra2102/storefront-core/pkg/eventbus"
	"github.com/dmehra2102/storefront-core/pkg/idempotency"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
	"github.com/dmehra2102/storefront-core/pkg/outbox"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

type Services struct {
	Auth      *authapp.Service
	Users     *userapp.Service
	Products  *productapp.Service
	Discounts *discountapp.Service
	Carts     *cartapp.Service
	Checkout  *checkoutapp.Service
	Orders    *orderapp.Service
	Payments  *paymentapp.Service
}

type App struct {
	Log      *slog.Logger
	Config   config.Config
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Bus      *eventbus.Bus
	Metrics  *metrics.Metrics
	Services Services
	Relay    *outbox.Relay

	writer *segkafka.Writer
}

// Build connects to Postgres and Redis, runs migrations when configured and
// wires every service, listener and the outbox relay. Close releases what
// Build opened.
func Build(ctx context.Context, log *slog.Logger, cfg config.Config, reg prometheus.Registerer) (*App, error) {
	pool, err := postgres.Connect(ctx, cfg.PGURL)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, log, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	a := &App{Log: log, Config: cfg, Pool: pool, Redis: rdb}
	if err := a.wire(reg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(reg prometheus.Registerer) error {
	log, cfg := a.Log, a.Config

	a.Metrics = metrics.New(reg)
	a.Bus = eventbus.New(log, a.Metrics)
	u := uow.New(log, a.Pool, a.Bus, a.Metrics)
	store := cache.NewRedis(a.Redis)

	tokens, err := token.NewJWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		return err
	}

	credentials := authpg.NewRepository(log, a.Pool, u)
	users := userpg.NewRepository(log, a.Pool, u)
	products := productpg.NewRepository(log, a.Pool, u)
	discounts := discountpg.NewRepository(log, a.Pool, u)
	carts := cartpg.NewRepository(log, a.Pool, u)
	orders := orderpg.NewRepository(log, a.Pool, u)
	payments := paymentpg.NewRepository(log, a.Pool, u)

	s := Services{
		Auth:      authapp.NewService(log, credentials, authcache.NewReader(log, credentials, store, cfg.CacheTTL), u, tokens),
		Users:     userapp.NewService(log, users, usercache.NewReader(log, users, store, cfg.CacheTTL), u),
		Products:  productapp.NewService(log, products, u, store, cfg.CacheTTL),
		Discounts: discountapp.NewService(log, discounts, u, store, cfg.CacheTTL),
		Orders:    orderapp.NewService(log, orders, u),
		Payments:  paymentapp.NewService(log, payments, u, idempotency.NewStore(a.Redis, cfg.IdempotencyTTL)),
	}
	s.Carts = cartapp.NewService(log, carts, products, u)
	s.Checkout = checkoutapp.NewService(log, u, checkoutapp.Deps{
		Carts:     carts,
		Products:  products,
		Discounts: s.Discounts,
		Orders:    s.Orders,
		Payments:  s.Payments,
		Gateway:   gateway.NewReference(cfg.PaymentProvider, cfg.PaymentExpiry),
	})
	a.Services = s

	cacheinvalidation.Register(a.Bus, cacheinvalidation.NewService(log, store, users, a.Metrics, cfg.ListVersionTTL))
	orderapp.Register(a.Bus, s.Orders)
	checkoutapp.NewRestocker(log, u, orders, products).Register(a.Bus)

	a.writer = kafka.NewWriter(log, kafka.WriterConfig{Brokers: cfg.KafkaBrokers})
	dispatch := outbox.NewDispatcher(log, a.writer, cfg.OutboxTopic)
	a.Relay = outbox.NewRelay(log, outbox.NewPostgresStore(log, a.Pool), dispatch, a.Metrics, cfg.RelayID)
	return nil
}

// Handler is the HTTP surface over every service.
func (a *App) Handler() *storehttp.Handler {
	s := a.Services
	return storehttp.NewHandler(a.Log, storehttp.Deps{
		Auth:      s.Auth,
		Users:     s.Users,
		Products:  s.Products,
		Discounts: s.Discounts,
		Carts:     s.Carts,
		Checkout:  s.Checkout,
		Orders:    s.Orders,
		Payments:  s.Payments,
		Metrics:   a.Metrics,
	})
}

// Close waits for in-flight listeners, then releases connections.
func (a *App) Close() {
	if a.Bus != nil {
		a.Bus.Wait()
	}
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.Log.Warn("kafka writer close", "err", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}
