//go:build integration

// Package integration runs the storefront against real Postgres, Redis and
// Kafka containers.
package integration

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type Env struct {
	PG    *postgres.PostgresContainer
	Redis *tcredis.RedisContainer
	Kafka *kafka.KafkaContainer

	PGURL     string
	RedisAddr string
	Brokers   []string
}

func Setup(ctx context.Context) (env *Env, err error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	env = &Env{}
	defer func() {
		if err != nil {
			env.Teardown(context.Background())
			env = nil
		}
	}()

	env.PG, err = postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return env, err
	}
	if env.PGURL, err = env.PG.ConnectionString(ctx, "sslmode=disable"); err != nil {
		return env, err
	}

	env.Redis, err = tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return env, err
	}
	if env.RedisAddr, err = env.Redis.Endpoint(ctx, ""); err != nil {
		return env, err
	}

	env.Kafka, err = kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("storefront-it"))
	if err != nil {
		return env, err
	}
	env.Brokers, err = env.Kafka.Brokers(ctx)
	return env, err
}

func (e *Env) Teardown(ctx context.Context) {
	if e.Kafka != nil {
		_ = e.Kafka.Terminate(ctx)
	}
	if e.Redis != nil {
		_ = e.Redis.Terminate(ctx)
	}
	if e.PG != nil {
		_ = e.PG.Terminate(ctx)
	}
}
