package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/hookgw/hookgw/internal/logger"
	"github.com/hookgw/hookgw/internal/metrics"
	"github.com/hookgw/hookgw/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	slugKeyPrefix = "rl:slug:"
	ipKeyPrefix   = "rl:ip:"
	acctKeyPrefix = "rl:acct:"

	window = time.Minute
)

// Result reports one layer's admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns whole seconds until the window resets, at least 1.
func (r *Result) RetryAfter(now time.Time) int {
	secs := int(r.ResetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limits carries the per-layer window sizes (requests per minute).
type Limits struct {
	Slug int
	IP   int
	Free int
	Pro  int
}

// Limiter checks minute windows in Redis, falling back to a best-effort
// in-process window when Redis is unavailable. The fallback bounds abuse
// during a partial outage; it is scoped to this instance and is not a
// correctness guarantee.
type Limiter struct {
	rdb      redis.Cmdable // nil disables the shared store entirely
	limits   Limits
	fallback *localWindow
}

// New constructs a Limiter. rdb may be nil (dev / degraded boot), in which
// case every check runs against the local fallback window.
func New(rdb redis.Cmdable, limits Limits) *Limiter {
	return &Limiter{
		rdb:      rdb,
		limits:   limits,
		fallback: newLocalWindow(window),
	}
}

// CheckSlug applies the per-endpoint window.
func (l *Limiter) CheckSlug(ctx context.Context, slug string) *Result {
	return l.check(ctx, "slug", slugKeyPrefix+slug, l.limits.Slug)
}

// CheckIP applies the per-source window. Callers skip it entirely when no
// source IP could be determined.
func (l *Limiter) CheckIP(ctx context.Context, ip string) *Result {
	return l.check(ctx, "ip", ipKeyPrefix+ip, l.limits.IP)
}

// CheckAccount applies the plan-tiered window. A per-account override, when
// present, wins over the tier default.
func (l *Limiter) CheckAccount(ctx context.Context, userID string, plan model.Plan, override *int) *Result {
	limit := l.limits.Free
	if plan == model.PlanPro {
		limit = l.limits.Pro
	}
	if override != nil && *override > 0 {
		limit = *override
	}
	return l.check(ctx, "account", acctKeyPrefix+userID, limit)
}

// check runs one INCR+EXPIRE round against Redis on a minute-bucketed key.
// nil means the layer is unavailable (limit not configured).
func (l *Limiter) check(ctx context.Context, layer, key string, limit int) *Result {
	if limit <= 0 {
		return nil
	}

	now := time.Now()
	resetAt := now.Truncate(window).Add(window)

	if l.rdb == nil {
		return l.fallbackCheck(layer, key, limit, now)
	}

	// bucketed key: rl:{layer}:{id}:{unix_minute}
	bucketKey := key + ":" + strconv.FormatInt(now.Unix()/60, 10)

	pipe := l.rdb.Pipeline()
	cnt := pipe.Incr(ctx, bucketKey)
	pipe.Expire(ctx, bucketKey, window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.L().Warn("rate limit store unavailable, using local fallback",
			zap.String("layer", layer), zap.Error(err))
		return l.fallbackCheck(layer, key, limit, now)
	}

	count := cnt.Val()
	res := &Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining(limit, count),
		ResetAt:   resetAt,
	}
	metrics.RateLimitChecks.WithLabelValues(layer, outcome(res.Allowed)).Inc()
	return res
}

func (l *Limiter) fallbackCheck(layer, key string, limit int, now time.Time) *Result {
	count, resetAt := l.fallback.incr(key, now)
	res := &Result{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: remaining(limit, count),
		ResetAt:   resetAt,
	}
	metrics.RateLimitChecks.WithLabelValues(layer, outcome(res.Allowed)+"_fallback").Inc()
	return res
}

func remaining(limit int, count int64) int {
	r := int64(limit) - count
	if r < 0 {
		r = 0
	}
	return int(r)
}

func outcome(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "limited"
}

// MostRestrictive picks the result to surface in response headers: lowest
// remaining, ties broken by the later reset time. Nil entries (unavailable
// layers) are skipped; returns nil when no layer produced a result.
func MostRestrictive(results ...*Result) *Result {
	var worst *Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if worst == nil ||
			r.Remaining < worst.Remaining ||
			(r.Remaining == worst.Remaining && r.ResetAt.After(worst.ResetAt)) {
			worst = r
		}
	}
	return worst
}
