//go:build integration

package integration

import (
	"context"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront-core/internal/app"
	authapp "github.com/dmehra2102/storefront-core/internal/auth/application"
	checkoutapp "github.com/dmehra2102/storefront-core/internal/checkout/application"
	"github.com/dmehra2102/storefront-core/internal/config"
	orderdomain "github.com/dmehra2102/storefront-core/internal/order/domain"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
	productapp "github.com/dmehra2102/storefront-core/internal/product/application"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/logging"
)

const topic = "storefront.events.it"

var env *Env

func TestMain(m *testing.M) {
	var err error
	env, err = Setup(context.Background())
	if err != nil {
		panic(err)
	}
	code := m.Run()
	env.Teardown(context.Background())
	os.Exit(code)
}

func newApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Config{
		Service:         "storefront-it",
		Environment:     "test",
		PGURL:           env.PGURL,
		MigrateOnStart:  true,
		RedisAddr:       env.RedisAddr,
		KafkaBrokers:    env.Brokers,
		OutboxTopic:     topic,
		RelayID:         "it-relay",
		CacheTTL:        time.Minute,
		ListVersionTTL:  time.Hour,
		IdempotencyTTL:  time.Hour,
		JWTSecret:       "integration-secret-at-least-32-bytes",
		JWTIssuer:       "storefront-it",
		AccessTokenTTL:  time.Minute,
		PaymentProvider: "MIDTRANS",
		PaymentExpiry:   time.Hour,
	}
	a, err := app.Build(context.Background(), logging.Discard(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func createTopic(t *testing.T) {
	t.Helper()
	conn, err := kafka.Dial("tcp", env.Brokers[0])
	require.NoError(t, err)
	defer conn.Close()
	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()
	require.NoError(t, cc.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func TestCheckoutSettlementAndRelay(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	s := a.Services
	createTopic(t)

	user, err := s.Auth.Register(ctx, authapp.RegisterInput{Email: "Budi@Example.com", Password: "s3cret-pass", FullName: "Budi"})
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", user.Email)

	price, err := shared.NewIDR(25000)
	require.NoError(t, err)
	product, err := s.Products.Create(ctx, productapp.CreateInput{SKU: "KOPI-250", Name: "Kopi Gayo", Price: price, Stock: 5})
	require.NoError(t, err)

	_, err = s.Carts.AddItem(ctx, user.ID, product.ID, 2)
	require.NoError(t, err)

	res, err := s.Checkout.Checkout(ctx, checkoutapp.Input{UserID: user.ID, PaymentMethod: "bank_transfer"})
	require.NoError(t, err)
	assert.Equal(t, "50000.00", res.Order.Total.Amount().StringFixed(2))
	assert.Equal(t, "PENDING_PAYMENT", res.Order.Status)

	reloaded, err := s.Products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Stock)

	n := paymentapp.Notification{
		Provider:      res.Payment.Provider,
		ProviderRef:   res.Payment.ProviderRef,
		TransactionID: "trx-1",
		Status:        "settlement",
		ReceivedAt:    time.Now().UTC(),
	}
	_, err = s.Payments.HandleNotification(ctx, n)
	require.NoError(t, err)
	again, err := s.Payments.HandleNotification(ctx, n)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)

	a.Bus.Wait()
	order, err := s.Orders.Get(ctx, user.ID, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", order.Status)

	sent, err := a.Relay.Tick(ctx)
	require.NoError(t, err)
	require.Positive(t, sent)

	r := kafka.NewReader(kafka.ReaderConfig{Brokers: env.Brokers, Topic: topic, Partition: 0, MaxBytes: 10e6})
	defer r.Close()
	rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	seen := map[string]bool{}
	for !seen[orderdomain.EventOrderPlaced] {
		msg, err := r.ReadMessage(rctx)
		require.NoError(t, err)
		for _, h := range msg.Headers {
			if h.Key == "event_type" {
				seen[string(h.Value)] = true
			}
		}
	}
	assert.True(t, seen[orderdomain.EventOrderPlaced])
}

func TestDuplicateEmailIsConflict(t *testing.T) {
	ctx := context.Background()
	s := newApp(t).Services

	_, err := s.Auth.Register(ctx, authapp.RegisterInput{Email: "sari@example.com", Password: "s3cret-pass", FullName: "Sari"})
	require.NoError(t, err)
	_, err = s.Auth.Register(ctx, authapp.RegisterInput{Email: "SARI@example.com", Password: "other-pass1", FullName: "Sari 2"})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.KindConflict))
}
