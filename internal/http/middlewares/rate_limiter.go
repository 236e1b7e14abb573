package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// Counter counts hits on key inside a fixed window and reports the total so
// far and the time until the window resets.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// MemoryCounter is a per-process Counter for single-instance deployments and tests.
type MemoryCounter struct {
	mu        sync.Mutex
	now       func() time.Time
	clients   map[string]*clientBucket
	lastSweep time.Time
}

// memorySweepEvery bounds how often a new key triggers a scan for expired buckets.
const memorySweepEvery = time.Second

type clientBucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{now: time.Now, clients: make(map[string]*clientBucket)}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.clients[key]
	if !ok {
		m.sweepLocked(now)
	}
	if !ok || !now.Before(b.windowEnd) {
		b = &clientBucket{windowEnd: now.Add(window)}
		m.clients[key] = b
	}
	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}

// sweepLocked drops buckets whose window has ended.
func (m *MemoryCounter) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < memorySweepEvery {
		return
	}
	m.lastSweep = now

	for k, b := range m.clients {
		if !now.Before(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}

type RateLimiter struct {
	counter Counter
	name    string
	limit   int64
	window  time.Duration
}

// NewRateLimiter limits each key to limit hits per window. name scopes the
// keys so separate limiters can share one Counter.
func NewRateLimiter(counter Counter, name string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: counter, name: name, limit: int64(limit), window: window}
}

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		n, ttl, err := rl.counter.Incr(c.Request.Context(), rl.name+":"+key, rl.window)
		if err != nil {
			// fail open: a counter outage must not lock users out
			slog.Default().WarnContext(c.Request.Context(), "rate limiter unavailable", "limiter", rl.name, "err", err)
			c.Next()
			return
		}

		if n > rl.limit {
			retryAfter := int(ttl.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			handlers.RespondError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again shortly.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)
	if ok && id != "" {
		return "user:" + id
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}
