package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

func cacheTestRouter(store *cache.ResponseCache) (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	hits := 0

	engine := gin.New()
	g := engine.Group("/things")
	g.Use(ResponseCache(store, "things", nil))
	g.GET("", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})
	g.GET("/missing", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusNotFound, gin.H{"error": "missing"})
	})
	return engine, &hits
}

// unreachableCache returns a cache whose backend always errors. The
// middleware must degrade to direct execution, never fail the request.
func unreachableCache() *cache.ResponseCache {
	client := redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     50 * time.Millisecond,
		ReadTimeout:     50 * time.Millisecond,
		WriteTimeout:    50 * time.Millisecond,
		MaxRetries:      -1,
		PoolTimeout:     50 * time.Millisecond,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Millisecond,
	})
	return cache.NewResponseCache(client, time.Hour, zap.NewNop())
}

func TestResponseCache_NilStorePassesThrough(t *testing.T) {
	engine, hits := cacheTestRouter(nil)

	for range 2 {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 2, *hits)
}

func TestResponseCache_BackendFailureDegrades(t *testing.T) {
	engine, hits := cacheTestRouter(unreachableCache())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *hits)
	assert.Contains(t, rec.Body.String(), `"hits":1`)
}

func TestResponseCache_NonOKNotCached(t *testing.T) {
	engine, hits := cacheTestRouter(unreachableCache())

	for range 2 {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	assert.Equal(t, 2, *hits)
}
