// file: internal/server/middleware/ratelimit.go
// version: 2.0.0
// guid: 1331705a-85cb-4158-92f5-5ce203d8a0e7

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a per-client token bucket limiter for the search API.
// Incremental search sends a request per keystroke, so the defaults allow
// short bursts well above the sustained rate.
type IPRateLimiter struct {
	mu             sync.Mutex
	entries        map[string]*limiterEntry
	requestsPerMin int
	burst          int
	idleTTL        time.Duration
	lastSweep      time.Time
	now            func() time.Time
}

// NewIPRateLimiter creates a limiter allowing requestsPerMinute sustained
// requests per client with the given burst.
func NewIPRateLimiter(requestsPerMinute int, burst int) *IPRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		entries:        make(map[string]*limiterEntry),
		requestsPerMin: requestsPerMinute,
		burst:          burst,
		idleTTL:        15 * time.Minute,
		now:            time.Now,
	}
}

func (r *IPRateLimiter) limiterFor(key string) *rate.Limiter {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Idle clients are swept at most once per idle TTL.
	if now.Sub(r.lastSweep) > r.idleTTL {
		for k, entry := range r.entries {
			if now.Sub(entry.lastSeen) > r.idleTTL {
				delete(r.entries, k)
			}
		}
		r.lastSweep = now
	}

	entry, ok := r.entries[key]
	if !ok {
		perSecond := float64(r.requestsPerMin) / 60.0
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), r.burst)}
		r.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Clients returns the number of tracked clients.
func (r *IPRateLimiter) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Middleware returns a Gin middleware that enforces the configured limit.
// Rejected requests get a 429 with a Retry-After hint in seconds.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		lim := r.limiterFor(ip)
		if !lim.Allow() {
			retry := math.Ceil(60.0 / float64(r.requestsPerMin))
			c.Header("Retry-After", strconv.Itoa(int(retry)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":  "rate limit exceeded",
				"code":   "RATE_LIMITED",
				"status": http.StatusTooManyRequests,
			})
			return
		}
		c.Next()
	}
}
