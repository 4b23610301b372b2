package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// popJSON blocks up to timeout for one job on a Redis list queue and decodes
// it into v. Returns false on poll timeout, shutdown, or a malformed payload;
// malformed jobs are dropped after logging since replaying them cannot help.
func popJSON(ctx context.Context, rdb *redis.Client, queue string, timeout time.Duration, v interface{}, log zerolog.Logger) bool {
	item, err := rdb.BLPop(ctx, timeout, queue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			log.Error().Err(err).Str("queue", queue).Msg("queue pop failed")
		}
		return false
	}
	if len(item) < 2 {
		return false
	}
	if err := json.Unmarshal([]byte(item[1]), v); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dropping malformed job")
		return false
	}
	return true
}

// requeue pushes a job back onto the tail of its queue for a later retry.
func requeue(ctx context.Context, rdb *redis.Client, queue string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	rdb.RPush(ctx, queue, raw)
}
