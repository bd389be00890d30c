package middleware

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/provider-sync/internal/config"
)

// Rate limit scopes accepted by RATE_LIMIT_KEY_STRATEGY.
const (
    ScopeProvider      = "provider"       // one bucket per provider
    ScopeProviderRoute = "provider_route" // one bucket per provider and route
)

// takeToken refills the bucket in whole intervals, then takes one token.
// It returns {allowed, tokens left, ms until the next refill when blocked}.
var takeToken = redis.NewScript(`
local capacity, refill, interval = tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local now = tonumber(ARGV[1])
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens') or capacity)
local last = tonumber(redis.call('HGET', KEYS[1], 'last') or now)

local steps = math.floor(math.max(0, now - last) / interval)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    last = last + steps * interval
end

local allowed, wait = 0, 0
if tokens > 0 then
    allowed, tokens = 1, tokens - 1
else
    wait = math.max(0, interval - (now - last))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'last', last)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {allowed, tokens, wait}
`)

// NewTokenBucket returns a Redis-backed token bucket limiter keyed by the
// authenticated provider, so it must run after JWTAuth.  Without Redis, or
// with the limiter disabled, it passes every request through.  Redis errors
// fail open.  Blocked requests get 429 with Retry-After, which the agent's
// HTTP client honours before retrying.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := bucketKey(cfg, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                if cfg.Debug {
                    c.Logger().Warnf("ratelimit: key=%s: %v", key, err)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }

            secs := retryAfterSeconds(res[2])
            h.Set("Retry-After", strconv.FormatInt(secs, 10))
            if cfg.Debug {
                c.Logger().Infof("ratelimit: blocked key=%s retry=%ds", key, secs)
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// retryAfterSeconds rounds a millisecond wait up to whole seconds, at least 1.
func retryAfterSeconds(ms int64) int64 {
    secs := (ms + 999) / 1000
    if secs < 1 {
        secs = 1
    }
    return secs
}

// bucketKey names the bucket for the calling provider.  Unknown scopes use
// ScopeProviderRoute.
func bucketKey(cfg config.RateLimitConfig, c echo.Context) string {
    who := "anon"
    if id := ProviderID(c); id != 0 {
        who = strconv.FormatUint(id, 10)
    }
    key := cfg.Prefix + ":p:" + who
    if strings.ToLower(cfg.KeyStrategy) == ScopeProvider {
        return key
    }
    return key + ":" + c.Request().Method + " " + c.Path()
}
