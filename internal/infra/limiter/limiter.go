package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

type ILimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type LimiterConfig struct {
	Prefix   string
	Capacity int64
	RatePS   float64 // tokens/秒
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix:   "ratelimit",
		Capacity: 5,
		RatePS:   2,
	}
}

// RedisClient 介面定義
type RedisClient interface {
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd
	ScriptLoad(ctx context.Context, script string) *redis.StringCmd
	EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
}

// RsBucketToken redis token bucket, 每個 key 一個 bucket
type RsBucketToken struct {
	LimiterConfig
	client RedisClient
	now    func() time.Time
}

func NewRsBucketToken(client RedisClient, config *LimiterConfig) *RsBucketToken {
	rb := &RsBucketToken{
		client: client,
		now:    time.Now,
	}

	if config != nil {
		rb.LimiterConfig = *config
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	if rb.Capacity <= 0 {
		rb.Capacity = 1
	}
	if rb.RatePS <= 0 {
		rb.RatePS = 1
	}
	if rb.Prefix == "" {
		rb.Prefix = "ratelimit"
	}

	return rb
}

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens
	local elapsedSeconds = math.max(0, now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

func (r *RsBucketToken) Allow(ctx context.Context, key string) (bool, error) {
	// bucket 補滿後即可丟棄
	ttl := int64(math.Ceil(float64(r.Capacity)/r.RatePS)) + 1

	result, err := tokenBucketScript.Run(
		ctx,
		r.client,
		[]string{fmt.Sprintf("%s:%s", r.Prefix, key)},
		r.Capacity,
		r.RatePS,
		r.now().UnixMilli(),
		ttl,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	return result == 1, nil
}

// UserKey 每個使用者一個 bucket
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
