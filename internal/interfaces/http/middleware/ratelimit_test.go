package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) *RateLimiter {
	t.Helper()
	limiter := NewRateLimiter(limit, window)
	t.Cleanup(limiter.Stop)
	return limiter
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := newTestLimiter(t, 3, time.Minute)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := newTestLimiter(t, 2, time.Minute)
		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := newTestLimiter(t, 1, time.Minute)
		now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return now }

		assert.True(t, limiter.Allow("client"))
		assert.False(t, limiter.Allow("client"))

		now = now.Add(time.Minute)
		assert.True(t, limiter.Allow("client"))
	})

	t.Run("remaining returns correct count", func(t *testing.T) {
		limiter := newTestLimiter(t, 5, time.Minute)
		assert.Equal(t, 5, limiter.Remaining("newclient"))
		limiter.Allow("newclient")
		limiter.Allow("newclient")
		assert.Equal(t, 3, limiter.Remaining("newclient"))
	})

	t.Run("evicts idle clients", func(t *testing.T) {
		limiter := newTestLimiter(t, 5, time.Minute)
		now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return now }
		limiter.Allow("idle")
		assert.Equal(t, 1, limiter.Len())

		now = now.Add(3 * time.Minute)
		limiter.evictIdle()
		assert.Zero(t, limiter.Len())
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		limiter.Stop()
		assert.NotPanics(t, limiter.Stop)
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := newTestLimiter(t, 100, time.Minute)
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("concurrent-client") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := newTestLimiter(t, 2, time.Minute)
	router := gin.New()
	router.Use(RequestID(), RateLimit(limiter))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))
}
