package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edumatrix/edumatrix-backend/internal/config"
)

// NewRedisClient connects to cfg.RedisURL and pings it. Redis backs session
// tracking, the quiz caches, and the worker queues, so startup fails hard
// when it is unreachable.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("connected to Redis")
	return rdb, nil
}
