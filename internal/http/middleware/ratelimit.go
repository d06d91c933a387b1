// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the edge rate limiter: an in-memory token bucket per
// identity with opportunistic eviction of idle buckets. It protects the
// process from floods. Brute-force protection of access-key redemption lives
// in the redemption engine and is shared across replicas through Redis.
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

const (
	defaultBucketTTL = 10 * time.Minute
	gcEvery          = 5000
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the authenticated user and falls back to the client
// IP. Keys are namespaced ("user:", "ip:") so the two never collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if uid := c.GetString(userIDKey); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	exempt   map[string]struct{}
	ttl      time.Duration
	lookups  uint64
	now      func() time.Time
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		exempt:   make(map[string]struct{}),
		ttl:      defaultBucketTTL,
		now:      time.Now,
	}
}

// Exempt excludes routes (as registered, e.g. "/health") from limiting.
func (rl *RateLimiter) Exempt(routes ...string) *RateLimiter {
	for _, r := range routes {
		rl.exempt[r] = struct{}{}
	}
	return rl
}

// getVisitor returns the bucket for key. Eviction runs before the lookup so a
// stale bucket is dropped even when it is the one being requested.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= gcEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the limit and answers 429 with a Retry-After hint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.exempt[c.FullPath()]; ok {
			c.Next()
			return
		}

		lim := rl.getVisitor(rl.keyFn(c))
		if lim.AllowN(rl.now(), 1) {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfter(rl.rps)))
		abortJSON(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}

// retryAfter is the whole number of seconds until one token is back.
func retryAfter(rps rate.Limit) int {
	if rps <= 0 || rps == rate.Inf {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(rps))))
}
