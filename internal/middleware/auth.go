package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fayedaihall/tesseracts-world/internal/repository"
)

const apiKeyContextKey = "apiKey"

// rateLimiter tracks request timestamps per API key over a sliding minute.
type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{requests: make(map[string][]time.Time)}
}

// allow records the request and reports whether the key stays within its
// per-minute limit.
func (rl *rateLimiter) allow(key string, perMinute int) bool {
	now := time.Now()
	cutoff := now.Add(-time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	if len(recent) >= perMinute {
		rl.requests[key] = recent
		return false
	}
	rl.requests[key] = append(recent, now)
	return true
}

// AuthMiddleware returns middleware that authenticates requests with a Bearer
// API key and enforces the key's rate limit.
func AuthMiddleware(keys repository.APIKeyRepository) gin.HandlerFunc {
	limiter := newRateLimiter()

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		key, err := keys.GetByKey(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication unavailable"})
			return
		}
		if !key.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API key is disabled"})
			return
		}
		if !limiter.allow(key.Key, key.RateLimitPerMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		// Best effort; a failed touch never blocks the request.
		_ = keys.TouchLastUsed(c.Request.Context(), key.Key)

		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}
