package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 50,
		BurstSize:         100,
	}
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter tracks a token-bucket limiter per client IP and evicts entries
// that have been idle longer than staleAfter.
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	rps        rate.Limit
	burst      int
	staleAfter time.Duration
}

// NewRateLimiter creates a RateLimiter with the given per-client rate.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		clients:    make(map[string]*client),
		rps:        rate.Limit(cfg.RequestsPerSecond),
		burst:      cfg.BurstSize,
		staleAfter: 3 * time.Minute,
	}
}

// Allow reports whether the client identified by ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[ip] = c
	}
	c.seen = time.Now()
	rl.mu.Unlock()
	return c.lim.Allow()
}

// Evict removes clients not seen since the staleness window. Called
// periodically from the cleanup goroutine; exported for tests.
func (rl *RateLimiter) Evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.clients {
		if now.Sub(c.seen) > rl.staleAfter {
			delete(rl.clients, ip)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimit returns echo middleware enforcing a per-client request rate.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	rl := NewRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for t := range ticker.C {
			rl.Evict(t)
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
