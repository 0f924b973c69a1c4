package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"rostering_backend/internal/config"
	"rostering_backend/pkg/utils"
)

// tokenBucket refills one token per interval up to capacity and takes one per call.
// Returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals)
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateLimit limits requests per client IP with a Redis token bucket.
// With no client, or when disabled, it passes every request through;
// a Redis error also lets the request through.
func RateLimit(cfg config.RedisConfig, rdb *redis.Client) gin.HandlerFunc {
	if !cfg.LoginRateLimitOn || rdb == nil {
		return func(c *gin.Context) { c.Next() }
	}

	ttl := int64(math.Ceil((time.Duration(cfg.LoginRateCapacity) * cfg.LoginRateRefill).Seconds()))
	if ttl < 1 {
		ttl = 1
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := fmt.Sprintf("%s:%s", cfg.LoginRateKeyPrefix, ip)

		vals, err := tokenBucket.Run(c.Request.Context(), rdb, []string{key},
			time.Now().UnixMilli(), cfg.LoginRateCapacity, cfg.LoginRateRefill.Milliseconds(), ttl,
		).Int64Slice()
		if err != nil || len(vals) != 3 {
			utils.LogWarn(err, "Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.LoginRateCapacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))

		if vals[0] != 1 {
			secs := int64(math.Ceil(float64(vals[2]) / 1000.0))
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			utils.RespondWithError(c, utils.NewAPIError(http.StatusTooManyRequests, utils.ErrCodeTooManyRequests,
				"Too many requests, try again later", fmt.Sprintf("retry after %ds", secs)))
			return
		}
		c.Next()
	}
}
