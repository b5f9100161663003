package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)

		assert.True(t, rl.Allow("client-1"))
		assert.True(t, rl.Allow("client-1"))
		assert.True(t, rl.Allow("client-1"))
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		rl := NewRateLimiter(2, time.Minute)

		assert.True(t, rl.Allow("client-1"))
		assert.True(t, rl.Allow("client-1"))
		assert.False(t, rl.Allow("client-1"))
	})

	t.Run("tracks keys independently", func(t *testing.T) {
		rl := NewRateLimiter(1, time.Minute)

		assert.True(t, rl.Allow("client-1"))
		assert.False(t, rl.Allow("client-1"))
		assert.True(t, rl.Allow("client-2"))
	})

	t.Run("resets after window", func(t *testing.T) {
		rl := NewRateLimiter(1, 50*time.Millisecond)

		assert.True(t, rl.Allow("client-1"))
		assert.False(t, rl.Allow("client-1"))

		time.Sleep(60 * time.Millisecond)
		assert.True(t, rl.Allow("client-1"))
	})

	t.Run("remaining reflects consumed tokens", func(t *testing.T) {
		rl := NewRateLimiter(3, time.Minute)

		assert.Equal(t, 3, rl.Remaining("client-1"))
		rl.Allow("client-1")
		assert.Equal(t, 2, rl.Remaining("client-1"))
		rl.Allow("client-1")
		rl.Allow("client-1")
		assert.Equal(t, 0, rl.Remaining("client-1"))
	})

	t.Run("safe under concurrent access", func(t *testing.T) {
		rl := NewRateLimiter(100, time.Minute)

		var wg sync.WaitGroup
		allowed := make(chan bool, 200)

		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				allowed <- rl.Allow("client-1")
			}()
		}
		wg.Wait()
		close(allowed)

		count := 0
		for ok := range allowed {
			if ok {
				count++
			}
		}
		assert.Equal(t, 100, count)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(rl *RateLimiter) *gin.Engine {
		router := gin.New()
		router.Use(RequestID(), RateLimit(rl))
		router.GET("/advances", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})
		return router
	}

	t.Run("returns 429 when limit exceeded", func(t *testing.T) {
		router := newRouter(NewRateLimiter(2, time.Minute))

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/advances", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/advances", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("sets rate limit headers on allowed requests", func(t *testing.T) {
		router := newRouter(NewRateLimiter(5, time.Minute))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/advances", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("limits per client IP", func(t *testing.T) {
		router := newRouter(NewRateLimiter(1, time.Minute))

		send := func(addr string) int {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/advances", nil)
			req.RemoteAddr = fmt.Sprintf("%s:1234", addr)
			router.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, send("10.0.0.3"))
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.3"))
		assert.Equal(t, http.StatusOK, send("10.0.0.4"))
	})
}
