package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newRateLimitRouter(limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	// Nothing listens on this address, so every Redis call errors and
	// the limiter's fail-open branch runs.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})

	router := gin.New()
	router.Use(RateLimitMiddleware(rdb, limit, time.Minute))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/documents", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	router := newRateLimitRouter(1)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimitSkipsHealth(t *testing.T) {
	router := newRateLimitRouter(0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
