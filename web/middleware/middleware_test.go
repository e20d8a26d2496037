package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionMiddleware())
	r.GET("/", func(c *gin.Context) {
		id, ok := SessionID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestSessionMiddleware(t *testing.T) {
	r := sessionRouter()
	existing := uuid.New()

	tests := []struct {
		name       string
		cookie     string
		wantCookie bool
		wantBody   string
	}{
		{"new visitor", "", true, ""},
		{"returning visitor", existing.String(), false, existing.String()},
		{"malformed cookie", "not-a-uuid", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			cookies := rec.Result().Cookies()
			assert.Equal(t, tt.wantCookie, len(cookies) == 1)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				_, err := uuid.Parse(rec.Body.String())
				assert.NoError(t, err)
			}
		})
	}
}

func TestRateLimiterPerSession(t *testing.T) {
	limiter := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 1, BurstSize: 2}, nil)
	defer limiter.Stop()

	a, b := uuid.New(), uuid.New()
	assert.True(t, limiter.AllowMessage(a))
	assert.True(t, limiter.AllowMessage(a))
	assert.False(t, limiter.AllowMessage(a))
	assert.True(t, limiter.AllowMessage(b), "sessions have independent budgets")
	assert.Equal(t, 0, limiter.Remaining(a))
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 10, BurstSize: 1, IdleAfter: time.Minute}, nil)
	defer limiter.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.AllowMessage(uuid.New())
	now = now.Add(2 * time.Minute)
	limiter.AllowMessage(uuid.New())

	assert.Equal(t, 1, limiter.cleanup())
}

func TestRateLimitMiddlewareRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewSessionRateLimiter(RateLimiterConfig{MessagesPerMinute: 10, BurstSize: 1}, nil)
	defer limiter.Stop()

	r := gin.New()
	r.POST("/chat", RateLimitMiddleware(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
