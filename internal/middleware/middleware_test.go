package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/developer-mesh/mcp-github-server/internal/auth"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
)

func TestConnectionLimiter(t *testing.T) {
	l := NewConnectionLimiter(RateLimitConfig{RPS: 1, Burst: 2})

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestConnectionLimiter_Disabled(t *testing.T) {
	l := NewConnectionLimiter(RateLimitConfig{RPS: 0, Burst: 10})
	assert.Nil(t, l)
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow())
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	assert.True(t, cfg.Enabled())
	assert.Equal(t, 100, cfg.Burst)
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	logger := observability.NewNoopLogger()
	router.Use(RequestLogger(logger))
	router.GET("/rpc", RequireAuth(auth.NewCredentialAuthenticator("id", "tok"), logger), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rpc", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	req.Header.Set("X-Auth-Id", "id")
	req.Header.Set("X-Auth-Token", "tok")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/rpc", RequireJSON(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		name        string
		contentType string
		want        int
	}{
		{"json", "application/json", http.StatusOK},
		{"json with charset", "application/json; charset=utf-8", http.StatusOK},
		{"plain text", "text/plain", http.StatusUnsupportedMediaType},
		{"form", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing", "", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"id":1,"method":"utils.timestamp"}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
