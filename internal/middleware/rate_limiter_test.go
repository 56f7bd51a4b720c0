package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRateLimiter creates a rate limiter with miniredis for testing
func setupTestRateLimiter(tb testing.TB, scope string, maxRequests int, window time.Duration) (*RateLimiter, *miniredis.Miniredis) {
	mr := miniredis.RunT(tb)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	tb.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, RateLimiterConfig{
		Scope:       scope,
		MaxRequests: maxRequests,
		Window:      window,
	})

	return rl, mr
}

func newLimitedRouter(rl *RateLimiter, preset gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	if preset != nil {
		router.Use(preset)
	}
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestRateLimiter_AllowsRequestsUnderLimit tests that requests under the limit are allowed
func TestRateLimiter_AllowsRequestsUnderLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, "auth", 5, time.Minute)
	router := newLimitedRouter(rl, nil)

	for i := 0; i < 5; i++ {
		w := doRequest(router, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}
}

// TestRateLimiter_BlocksRequestsOverLimit tests that requests over the limit are blocked
func TestRateLimiter_BlocksRequestsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, "auth", 5, time.Minute)
	router := newLimitedRouter(rl, nil)

	for i := 0; i < 5; i++ {
		w := doRequest(router, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should succeed", i+1)
	}

	w := doRequest(router, "192.168.1.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "6th request should be rate limited")
	assert.NotEmpty(t, w.Header().Get("Retry-After"), "Should have Retry-After header")
	assert.Contains(t, w.Body.String(), `"success":false`)
}

// TestRateLimiter_DifferentIPsIndependent tests that different IPs have independent limits
func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, "auth", 3, time.Minute)
	router := newLimitedRouter(rl, nil)

	for i := 0; i < 3; i++ {
		w := doRequest(router, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code, "IP1 request %d should succeed", i+1)
	}
	for i := 0; i < 3; i++ {
		w := doRequest(router, "192.168.1.2:12345")
		assert.Equal(t, http.StatusOK, w.Code, "IP2 request %d should succeed", i+1)
	}

	w := doRequest(router, "192.168.1.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "IP1 4th request should be rate limited")
}

// TestRateLimiter_KeysAuthenticatedUsersByID tests that users behind one IP get separate quotas
func TestRateLimiter_KeysAuthenticatedUsersByID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, "write", 1, time.Minute)
	current := "alice"
	router := newLimitedRouter(rl, func(c *gin.Context) {
		c.Set("user_id", current)
		c.Next()
	})

	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(router, "10.0.0.1:1").Code)

	current = "bob"
	assert.Equal(t, http.StatusOK, doRequest(router, "10.0.0.1:1").Code)
}

// TestRateLimiter_ScopesIndependent tests that limiters with different scopes share nothing
func TestRateLimiter_ScopesIndependent(t *testing.T) {
	auth, mr := setupTestRateLimiter(t, "auth", 1, time.Minute)
	write := NewRateLimiter(auth.redis, RateLimiterConfig{Scope: "write", MaxRequests: 1, Window: time.Minute})
	ctx := context.Background()

	allowed, _, err := auth.CheckLimit(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = write.CheckLimit(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.True(t, mr.Exists("ratelimit:auth:ip:1.2.3.4"))
	assert.True(t, mr.Exists("ratelimit:write:ip:1.2.3.4"))
}

// TestRateLimiter_CheckLimit tests the CheckLimit method directly
func TestRateLimiter_CheckLimit(t *testing.T) {
	rl, _ := setupTestRateLimiter(t, "auth", 3, time.Minute)
	ctx := context.Background()
	client := "ip:192.168.1.100"

	for i := 0; i < 3; i++ {
		allowed, _, err := rl.CheckLimit(ctx, client)
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	allowed, retryAfter, err := rl.CheckLimit(ctx, client)
	require.NoError(t, err)
	assert.False(t, allowed, "4th request should be denied")
	assert.Greater(t, retryAfter, time.Duration(0), "Should have retry-after duration")
}

// TestRateLimiter_WindowExpiry tests that rate limit resets after window expires
func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl, mr := setupTestRateLimiter(t, "auth", 2, time.Second)
	ctx := context.Background()
	client := "ip:192.168.1.100"

	for i := 0; i < 2; i++ {
		allowed, _, err := rl.CheckLimit(ctx, client)
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	allowed, _, err := rl.CheckLimit(ctx, client)
	require.NoError(t, err)
	assert.False(t, allowed, "3rd request should be denied")

	// Fast-forward time in miniredis
	mr.FastForward(2 * time.Second)

	allowed, _, err = rl.CheckLimit(ctx, client)
	require.NoError(t, err)
	assert.True(t, allowed, "Request should be allowed after window expires")
}

// TestRateLimiter_FailsOpen tests that requests pass when Redis is down
func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, mr := setupTestRateLimiter(t, "auth", 1, time.Minute)
	router := newLimitedRouter(rl, nil)
	mr.Close()

	for i := 0; i < 3; i++ {
		w := doRequest(router, "192.168.1.1:12345")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

// TestRateLimiter_ExactQuota tests that exactly MaxRequests pass in one window
func TestRateLimiter_ExactQuota(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl, _ := setupTestRateLimiter(t, "auth", 10, time.Minute)
	router := newLimitedRouter(rl, nil)

	successCount := 0
	rateLimitedCount := 0
	for i := 0; i < 20; i++ {
		switch doRequest(router, "192.168.1.1:12345").Code {
		case http.StatusOK:
			successCount++
		case http.StatusTooManyRequests:
			rateLimitedCount++
		}
	}

	assert.Equal(t, 10, successCount, "Should allow exactly 10 requests")
	assert.Equal(t, 10, rateLimitedCount, "Should block exactly 10 requests")
}

// BenchmarkRateLimiter_CheckLimit benchmarks the CheckLimit method
func BenchmarkRateLimiter_CheckLimit(b *testing.B) {
	rl, _ := setupTestRateLimiter(b, "bench", 1000000, time.Minute)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = rl.CheckLimit(ctx, "ip:192.168.1.100")
	}
}

// BenchmarkRateLimiter_Middleware benchmarks the middleware
func BenchmarkRateLimiter_Middleware(b *testing.B) {
	gin.SetMode(gin.ReleaseMode)

	rl, _ := setupTestRateLimiter(b, "bench", 1000000, time.Minute)
	router := newLimitedRouter(rl, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		doRequest(router, "192.168.1.1:12345")
	}
}
