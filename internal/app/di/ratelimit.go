package di

import (
	"github.com/redis/go-redis/v9"

	"account_backend/internal/platform/ratelimit"
)

// NewLimiter はRedisが利用可能であればRedisLimiterを、そうでなければMemoryLimiterを返します。
func NewLimiter(rdb *redis.Client, cfg ratelimit.Config) ratelimit.Limiter {
	if rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, cfg, "ratelimit")
	}
	return ratelimit.NewMemoryLimiter(cfg)
}
