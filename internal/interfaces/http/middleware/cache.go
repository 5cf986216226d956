// Package middleware provides the HTTP middleware of the API: response
// caching, cookie authentication, telemetry, and the usual transport
// concerns (CORS, request IDs, body and rate limits).
package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taxgeo/backend/internal/infrastructure/cache"
	"github.com/taxgeo/backend/internal/infrastructure/telemetry"
)

// ResponseCache serves GET responses from Redis under the given
// namespace. The key is derived from method, path and sorted query
// items only; headers and body never participate. Non-GET requests and
// non-200 responses bypass the cache entirely.
func ResponseCache(store *cache.ResponseCache, namespace string, metrics *telemetry.APIMetrics) gin.HandlerFunc {
	if store == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cache.Key(namespace, c.Request.Method, c.Request.URL.Path, c.Request.URL.Query())

		if payload, ok := store.Get(ctx, key); ok {
			metrics.RecordCacheLookup(ctx, namespace, true)
			c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
			c.Abort()
			return
		}
		metrics.RecordCacheLookup(ctx, namespace, false)

		capture := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		if capture.Status() == http.StatusOK && capture.body.Len() > 0 {
			store.Set(ctx, key, capture.body.Bytes())
		}
	}
}

// bodyCaptureWriter tees the response body so a successful payload can
// be written to the cache after the handler runs
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
