package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("admin:1"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("admin:1"))

	// Keys are independent
	assert.True(t, rl.Allow("admin:2"))
}

func TestRateLimiter_BurstDefaultsToLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, 0)

	assert.Equal(t, 2, rl.Remaining("ip:10.0.0.1"))
	assert.True(t, rl.Allow("ip:10.0.0.1"))
	assert.True(t, rl.Allow("ip:10.0.0.1"))
	assert.False(t, rl.Allow("ip:10.0.0.1"))
	assert.Equal(t, 0, rl.Remaining("ip:10.0.0.1"))
}

func TestRateLimit_Middleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RateLimit(NewRateLimiter(1, time.Minute, 1)))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeRateLimited, resp.Error.Code)
}

func TestRateLimit_KeysByAdmin(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTSubjectKey, c.GetHeader("X-Test-Admin"))
		c.Next()
	})
	router.Use(RateLimit(NewRateLimiter(1, time.Minute, 1)))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	request := func(admin string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Test-Admin", admin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, request("alice"))
	assert.Equal(t, http.StatusTooManyRequests, request("alice"))
	// Same client IP, different admin
	assert.Equal(t, http.StatusOK, request("bob"))
}
