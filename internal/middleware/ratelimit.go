package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"pedbook/internal/errors"
)

// IPRateLimiter manages per-IP rate limiting. Limiters idle for longer than
// it takes to refill their bucket are dropped on a later lookup.
type IPRateLimiter struct {
	limiters  sync.Map // ip -> *visitor
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep atomic.Int64
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		idle:  idleAfter(r, burst),
		now:   time.Now,
	}
}

// idleAfter is how long an unused limiter takes to refill, and at least a minute.
func idleAfter(r rate.Limit, burst int) time.Duration {
	d := time.Minute
	if r > 0 && r != rate.Inf {
		if refill := time.Duration(float64(burst) / float64(r) * float64(time.Second)); refill > d {
			d = refill
		}
	}
	return d
}

// PerMinute allows n requests per minute per IP, in bursts of up to n.
// n <= 0 disables limiting.
func PerMinute(n int) *IPRateLimiter {
	if n <= 0 {
		return NewIPRateLimiter(rate.Inf, 0)
	}
	return NewIPRateLimiter(rate.Limit(float64(n)/60), n)
}

// GetLimiter returns the rate limiter for a given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	now := l.now()
	l.sweep(now)
	v, ok := l.limiters.Load(ip)
	if !ok {
		v, _ = l.limiters.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(l.rate, l.burst)})
	}
	entry := v.(*visitor)
	entry.lastSeen.Store(now.UnixNano())
	return entry.limiter
}

// sweep drops idle limiters, at most once per idle period.
func (l *IPRateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if last == 0 {
		l.lastSweep.CompareAndSwap(0, now.UnixNano())
		return
	}
	if now.UnixNano()-last < int64(l.idle) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.idle).UnixNano()
	l.limiters.Range(func(key, value any) bool {
		if value.(*visitor).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
		}
		return true
	})
}

// retryAfter is the number of seconds until one more request is allowed.
func (l *IPRateLimiter) retryAfter() int {
	if l.rate <= 0 || l.rate == rate.Inf {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(l.rate)-1e-9)))
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *IPRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l.rate == rate.Inf {
				return next(c)
			}
			if !l.GetLimiter(c.RealIP()).Allow() {
				c.Response().Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
				return echo.NewHTTPError(http.StatusTooManyRequests, errors.ErrorResponse{
					Error: "too many requests",
					Code:  "RATE_LIMITED",
				})
			}
			return next(c)
		}
	}
}
