package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RateLimitConfig defines the limit for a specific route or group.
type RateLimitConfig struct {
	Max    int                      // Maximum requests allowed in the window
	Window time.Duration            // Time window for the limit
	KeyFn  func(c fiber.Ctx) string // Returns the key to rate limit on (IP, session, etc.)
}

// entry tracks request count and window start for a single key.
type entry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is an in-memory fixed-window rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	config  RateLimitConfig
}

// NewRateLimiter creates a rate limiter with the given config.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		entries: make(map[string]*entry),
		config:  cfg,
	}
	// Background cleanup every 5 minutes
	go rl.cleanup()
	return rl
}

// Handler returns a Fiber middleware handler that enforces the rate limit.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		remaining, resetAt := rl.take(rl.config.KeyFn(c), time.Now())
		setRateLimitHeaders(c, rl.config.Max, remaining, resetAt)

		if remaining < 0 {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":       "RATE_LIMITED",
					"message":    fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
					"retryAfter": retryAfter,
				},
			})
		}

		return c.Next()
	}
}

// Allow checks if a request with the given key is allowed (for testing).
func (rl *RateLimiter) Allow(key string) bool {
	remaining, _ := rl.take(key, time.Now())
	return remaining >= 0
}

// take counts one request against key and returns how many remain in the
// current window (negative once exceeded) and when the window ends.
func (rl *RateLimiter) take(key string, now time.Time) (int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.entries[key]
	if !exists || now.After(e.windowEnd) {
		e = &entry{windowEnd: now.Add(rl.config.Window)}
		rl.entries[key] = e
	}
	e.count++
	return rl.config.Max - e.count, e.windowEnd
}

func setRateLimitHeaders(c fiber.Ctx, limit, remaining int, resetAt time.Time) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, e := range rl.entries {
			if now.After(e.windowEnd) {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// KeyByIP returns a key function that limits on the resolved client IP.
func KeyByIP(clientIP ClientIPFunc) func(c fiber.Ctx) string {
	return func(c fiber.Ctx) string {
		return "ip:" + clientIP(c)
	}
}

// KeyBySession limits on the CAPTCHA session cookie, falling back to the
// client IP when no cookie is present.
func KeyBySession(clientIP ClientIPFunc) func(c fiber.Ctx) string {
	return func(c fiber.Ctx) string {
		if id := c.Cookies(SessionCookie); id != "" {
			return "session:" + id
		}
		return "ip:" + clientIP(c)
	}
}

// --- Pre-configured rate limiters for the public API ---

// NewMintRateLimiter: 10 req/min per IP. Every mint costs a siteverify call.
func NewMintRateLimiter(clientIP ClientIPFunc) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    10,
		Window: time.Minute,
		KeyFn:  KeyByIP(clientIP),
	})
}

// NewVoteRateLimiter: 30 req/min per session
func NewVoteRateLimiter(clientIP ClientIPFunc) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    30,
		Window: time.Minute,
		KeyFn:  KeyBySession(clientIP),
	})
}

// NewSubmitRateLimiter: 5 req/min per IP
func NewSubmitRateLimiter(clientIP ClientIPFunc) *RateLimiter {
	return NewRateLimiter(RateLimitConfig{
		Max:    5,
		Window: time.Minute,
		KeyFn:  KeyByIP(clientIP),
	})
}
