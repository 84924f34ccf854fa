package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// UserRateLimiter keeps one token bucket per authenticated user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[int]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewUserRateLimiter allows perMinute requests per user with the given
// burst.
func NewUserRateLimiter(perMinute float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limiters: make(map[int]*rate.Limiter),
		every:    rate.Every(time.Duration(float64(time.Minute) / perMinute)),
		burst:    burst,
	}
}

func (l *UserRateLimiter) limiter(userID int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[userID] = lim
	}
	return lim
}

// Allow reports whether userID may make a request now.
func (l *UserRateLimiter) Allow(userID int) bool {
	return l.limiter(userID).Allow()
}

// Middleware rejects requests over the limit with 429. It must run after
// AuthRequired.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if !l.Allow(userID) {
			slog.Info("rate limit exceeded", "user_id", userID, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}
