package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	// ResetEvery drops all per-IP limiters so idle clients do not accumulate.
	ResetEvery time.Duration
}

type ipLimiter struct {
	mu        sync.Mutex
	cfg       RateLimitConfig
	limiters  map[string]*rate.Limiter
	lastReset time.Time
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.ResetEvery > 0 && now.Sub(l.lastReset) > l.cfg.ResetEvery {
		l.limiters = make(map[string]*rate.Limiter)
		l.lastReset = now
	}
	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.cfg.PerSecond), l.cfg.Burst)
		l.limiters[ip] = lim
	}
	return lim
}

// RateLimit throttles requests per client IP. A non-positive rate disables it.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.PerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.ResetEvery == 0 {
		cfg.ResetEvery = time.Hour
	}
	l := &ipLimiter{cfg: cfg, limiters: make(map[string]*rate.Limiter), lastReset: time.Now()}
	return func(c *gin.Context) {
		if !l.get(c.ClientIP(), time.Now()).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "too many requests", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}
