package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter 以固定時間窗口限制每個 key 的請求數
// 狀態放在 Redis，多實例部署時配額是共享的
type FixedWindowLimiter struct {
	limit  int
	window time.Duration

	redisClient *redis.Client
	redisPrefix string
}

// NewFixedWindowLimiter 建立一個 Redis 後端的限流器
func NewFixedWindowLimiter(addr, password string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		redisClient: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		redisPrefix: "blogpulse:ratelimit",
	}, nil
}

// Allow 判斷 key 是否還在配額內
// Redis 出錯時採保守策略，直接拒絕
func (l *FixedWindowLimiter) Allow(key string) bool {
	if l == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	redisKey := fmt.Sprintf("%s:%s", l.redisPrefix, key)
	count, err := fixedWindowScript.Run(ctx, l.redisClient,
		[]string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate limiter redis error")
		return false
	}
	return count <= int64(l.limit)
}
