package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	MessagesPerMinute int           // Max messages per session per minute
	BurstSize         int           // Allow burst of N requests
	CleanupInterval   time.Duration // How often to drop idle limiters
	IdleAfter         time.Duration // Limiters unused for this long are dropped
}

type sessionLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionRateLimiter manages rate limits per session
type SessionRateLimiter struct {
	config      RateLimiterConfig
	limiters    map[uuid.UUID]*sessionLimiter
	mu          sync.Mutex
	logger      *zap.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewSessionRateLimiter creates a new session-based rate limiter
func NewSessionRateLimiter(config RateLimiterConfig, logger *zap.Logger) *SessionRateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	if config.IdleAfter <= 0 {
		config.IdleAfter = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := &SessionRateLimiter{
		config:      config,
		limiters:    make(map[uuid.UUID]*sessionLimiter),
		logger:      logger,
		stopCleanup: make(chan struct{}),
		now:         time.Now,
	}

	// Start cleanup goroutine
	go limiter.cleanupRoutine()

	return limiter
}

// cleanupRoutine periodically removes stale entries
func (srl *SessionRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(srl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			srl.cleanup()
		case <-srl.stopCleanup:
			return
		}
	}
}

// cleanup drops limiters of sessions that have gone quiet
func (srl *SessionRateLimiter) cleanup() int {
	srl.mu.Lock()
	defer srl.mu.Unlock()

	cutoff := srl.now().Add(-srl.config.IdleAfter)
	removed := 0
	for id, l := range srl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(srl.limiters, id)
			removed++
		}
	}
	if removed > 0 {
		srl.logger.Debug("Dropped idle rate limiters", zap.Int("removed", removed))
	}
	return removed
}

// Stop stops the cleanup routine
func (srl *SessionRateLimiter) Stop() {
	srl.stopOnce.Do(func() { close(srl.stopCleanup) })
}

func (srl *SessionRateLimiter) limiterFor(sessionID uuid.UUID) *rate.Limiter {
	srl.mu.Lock()
	defer srl.mu.Unlock()

	l, ok := srl.limiters[sessionID]
	if !ok {
		// Refill MessagesPerMinute tokens per minute up to BurstSize
		every := rate.Limit(float64(srl.config.MessagesPerMinute) / 60.0)
		if srl.config.MessagesPerMinute <= 0 {
			every = rate.Inf
		}
		l = &sessionLimiter{limiter: rate.NewLimiter(every, srl.config.BurstSize)}
		srl.limiters[sessionID] = l
	}
	l.lastSeen = srl.now()
	return l.limiter
}

// AllowMessage checks if a message can be sent for the given session
func (srl *SessionRateLimiter) AllowMessage(sessionID uuid.UUID) bool {
	return srl.limiterFor(sessionID).Allow()
}

// Remaining returns the whole tokens left for a session
func (srl *SessionRateLimiter) Remaining(sessionID uuid.UUID) int {
	tokens := srl.limiterFor(sessionID).Tokens()
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// RateLimitMiddleware creates a Gin middleware limiting messages per session
func RateLimitMiddleware(limiter *SessionRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := SessionID(c)
		if !ok {
			// Session middleware should run before this
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session not initialized"})
			return
		}

		allowed := limiter.AllowMessage(sessionID)
		limit := limiter.config.BurstSize
		remaining := limiter.Remaining(sessionID)

		// Add rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			if zapLogger := loggerFrom(c); zapLogger != nil {
				zapLogger.Warn("Rate limit exceeded",
					zap.String("session_id", sessionID.String()),
					zap.Int("limit", limit))
			}

			c.Header("Retry-After", "60") // Suggest retry after 60 seconds
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}

func loggerFrom(c *gin.Context) *zap.Logger {
	v, ok := c.Get("logger")
	if !ok {
		return nil
	}
	logger, _ := v.(*zap.Logger)
	return logger
}
