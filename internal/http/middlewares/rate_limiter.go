package middlewares

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]window
}

type window struct {
	hits int
	ends time.Time
}

const maxTrackedClients = 10000

func NewRateLimiter(limit int, per time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  per,
		now:     time.Now,
		windows: make(map[string]window),
	}
}

// allow records a hit for key. When the key is over its limit it reports how
// long until the window resets.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.ends) {
		if len(rl.windows) >= maxTrackedClients {
			rl.dropExpired(now)
		}
		rl.windows[key] = window{hits: 1, ends: now.Add(rl.window)}
		return true, 0
	}

	if w.hits >= rl.limit {
		return false, w.ends.Sub(now)
	}

	w.hits++
	rl.windows[key] = w
	return true, 0
}

func (rl *RateLimiter) dropExpired(now time.Time) {
	for k, w := range rl.windows {
		if !now.Before(w.ends) {
			delete(rl.windows, k)
		}
	}
}

// RateLimiterMiddleware rejects with 429 once keyFn's key is over the limit.
// An empty key falls back to the client IP.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)
		if key == "" {
			key = clientIP(c)
		}

		ok, wait := rl.allow(key)
		if ok {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": gin.H{
				"code":      "rate_limited",
				"message":   "Too many requests. Please try again shortly.",
				"requestId": c.GetString(CtxRequestID),
			},
		})
	}
}

func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// KeyByUserOrIP keys authenticated routes by user so one attendee behind a
// shared NAT does not exhaust everyone's budget.
func KeyByUserOrIP(c *gin.Context) string {
	if id, ok := UserIDFromContext(c); ok && id != "" {
		return "user:" + id
	}
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}
