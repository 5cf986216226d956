package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taxgeo/backend/internal/infrastructure/config"
)

type stubRegistrar struct {
	mounted bool
}

func (s *stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	s.mounted = true
	rg.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HTTP.MaxBodySize = 1 << 20
	return cfg
}

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(newTestConfig(), zap.NewNop(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Setup().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRegistrarsMountUnderVersionedGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(newTestConfig(), zap.NewNop(), nil)
	reg := &stubRegistrar{}
	r.Register(reg)
	engine := r.Setup()

	require.True(t, reg.mounted)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIVersionOption(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(newTestConfig(), zap.NewNop(), nil, WithAPIVersion("v2"))
	r.Register(&stubRegistrar{})
	engine := r.Setup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIinBinBindingTag(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(newTestConfig(), zap.NewNop(), nil)
	engine := r.Engine()

	type payload struct {
		Bin string `json:"bin" binding:"required,iin_bin"`
	}
	engine.POST("/check", func(c *gin.Context) {
		var p payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"bin": p.Bin})
	})

	tests := []struct {
		name string
		bin  string
		want int
	}{
		{"valid twelve digits", "123456789012", http.StatusOK},
		{"too short", "12345", http.StatusBadRequest},
		{"letters rejected", "12345678901a", http.StatusBadRequest},
		{"thirteen digits", "1234567890123", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			body := `{"bin":"` + tt.bin + `"}`
			req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
