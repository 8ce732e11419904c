// Package infra opens the optional external stores: Postgres for wallet
// names and Redis for idempotency keys.
package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/walletsync/internal/config"
)

const (
	connectTimeout   = 5 * time.Second
	maxPostgresConns = 4
)

// Resources holds the optional external stores. A nil field means the
// matching URL was not configured and in-process fallbacks are used.
type Resources struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
}

// Open connects to the configured stores. Config validation already
// rejected missing URLs outside development.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Resources, error) {
	res := &Resources{}

	if cfg.DatabaseURL != "" {
		db, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		res.DB = db
		logger.Info("postgres connected", slog.Int("max_conns", int(db.Config().MaxConns)))
	} else {
		logger.Warn("DATABASE_URL not set, wallet names are kept in memory")
	}

	if cfg.RedisURL != "" {
		cache, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			res.Close(logger)
			return nil, err
		}
		res.Cache = cache
		logger.Info("redis connected", slog.String("addr", cache.Options().Addr))
	} else {
		logger.Warn("REDIS_URL not set, idempotency keys are not enforced")
	}

	return res, nil
}

// Close releases every open connection.
func (r *Resources) Close(logger *slog.Logger) {
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
	if r.DB != nil {
		r.DB.Close()
	}
}

func openPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = maxPostgresConns

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
