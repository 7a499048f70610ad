package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/SAP-F-2025/competency-assessment/internal/config"
	"github.com/SAP-F-2025/competency-assessment/internal/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter throttles each caller separately, keyed by user id or
// client IP for anonymous requests.
type UserRateLimiter struct {
	BaseHandler
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewUserRateLimiter(cfg config.RateLimitConfig, logger utils.Logger) *UserRateLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		BaseHandler: NewBaseHandler(logger),
		limit:       rate.Limit(cfg.Rate),
		burst:       burst,
		visitors:    make(map[string]*visitor),
		now:         time.Now,
	}
}

func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(userIDKey)
		if key == "" {
			key = c.ClientIP()
		}
		if !l.allow(key) {
			c.Header("Retry-After", "1")
			l.RespondWithError(c, http.StatusTooManyRequests, "rate_limited", "Too many requests", nil)
			return
		}
		c.Next()
	}
}

func (l *UserRateLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep forgets callers idle for longer than idle.
func (l *UserRateLimiter) Sweep(idle time.Duration) {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// Run sweeps idle callers every interval until stop is closed.
func (l *UserRateLimiter) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep(3 * interval)
		case <-stop:
			return
		}
	}
}
