package store

import (
	"context"
	"fmt"

	"github.com/marcelsud/webhook-inspector/config"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/memory"
	"github.com/marcelsud/webhook-inspector/webhook/postgres"
	"github.com/marcelsud/webhook-inspector/webhook/redis"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Open connects the webhook store selected by STORE_DRIVER.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (webhook.Repository, error) {
	switch cfg.StoreDriver {
	case DriverPostgres:
		repo, err := postgres.NewRepositoryWithPoolConfig(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.PostgresMaxOpenConns,
			MaxIdleConns:    cfg.PostgresMaxIdleConns,
			ConnMaxLifetime: cfg.PostgresConnMaxLifetime(),
		})
		if err != nil {
			return nil, err
		}
		if err := repo.CreateTable(ctx); err != nil {
			repo.Close(ctx)
			return nil, err
		}
		return repo, nil
	case DriverRedis:
		return redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case DriverMemory:
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
