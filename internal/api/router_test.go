package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer-mesh/mcp-github-server/internal/auth"
	"github.com/developer-mesh/mcp-github-server/internal/mcp"
	"github.com/developer-mesh/mcp-github-server/internal/metrics"
	"github.com/developer-mesh/mcp-github-server/internal/models"
)

func newTestServer(t *testing.T, authenticator auth.Authenticator, allowedOrigins ...string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := fullRegistry(t)
	reg := prometheus.NewRegistry()
	handler := mcp.NewHandler(registry, nil, mcp.Options{
		Metrics: metrics.New(reg, registry.Names()),
	})

	router := NewRouter(RouterConfig{
		Handler:        handler,
		Health:         NewHealthChecker(registry, handler, nil, "1.0.0"),
		Authenticator:  authenticator,
		AllowedOrigins: allowedOrigins,
		Gatherer:       reg,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestRouter_RPC(t *testing.T) {
	server := newTestServer(t, auth.NewCredentialAuthenticator("", ""))

	resp, err := http.Post(server.URL+"/rpc", "application/json",
		strings.NewReader(`{"id":7,"method":"utils.base64Encode","params":{"text":"hello"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "7", string(body.ID))
	assert.Equal(t, map[string]interface{}{"encoded": "aGVsbG8="}, body.Result)
}

func TestRouter_RequiresCredentials(t *testing.T) {
	server := newTestServer(t, auth.NewCredentialAuthenticator("gw", "secret"))

	resp, err := http.Post(server.URL+"/rpc", "application/json", strings.NewReader(`{"id":1,"method":"utils.timestamp"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, wsResp, err := websocket.Dial(ctx, wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, wsResp)
	assert.Equal(t, http.StatusUnauthorized, wsResp.StatusCode)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"X-Auth-Id":     []string{"gw"},
			"Authorization": []string{"Bearer secret"},
		},
	})
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{"id": "a", "method": "utils.serverInfo"}))
	var reply models.Response
	require.NoError(t, wsjson.Read(ctx, conn, &reply))
	assert.Equal(t, `"a"`, string(reply.ID))
	assert.Nil(t, reply.Error)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newTestServer(t, auth.NewCredentialAuthenticator("gw", "secret"))

	resp, err := http.Get(server.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// exercise a request so the counters have samples
	req, _ := http.NewRequest(http.MethodPost, server.URL+"/rpc", strings.NewReader(`{"id":1,"method":"utils.timestamp"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Id", "gw")
	req.Header.Set("X-Auth-Token", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gateway_requests_total{method="utils.timestamp",status="success"} 1`)
}

func TestRouter_RPCRequiresJSON(t *testing.T) {
	server := newTestServer(t, auth.NewCredentialAuthenticator("", ""))

	resp, err := http.Post(server.URL+"/rpc", "text/plain",
		strings.NewReader(`{"id":1,"method":"utils.timestamp"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "content-type must be application/json", body["error"])
}

func TestRouter_WebSocketOrigin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dial := func(server *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
		wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
		return websocket.Dial(ctx, wsURL, &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{origin}},
		})
	}

	t.Run("foreign origin rejected by default", func(t *testing.T) {
		server := newTestServer(t, auth.NewCredentialAuthenticator("", ""))

		_, resp, err := dial(server, "http://evil.example")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("same host accepted", func(t *testing.T) {
		server := newTestServer(t, auth.NewCredentialAuthenticator("", ""))

		conn, _, err := dial(server, server.URL)
		require.NoError(t, err)
		conn.CloseNow()
	})

	t.Run("allowlisted origin accepted", func(t *testing.T) {
		server := newTestServer(t, auth.NewCredentialAuthenticator("", ""), "console.example")

		conn, _, err := dial(server, "https://console.example")
		require.NoError(t, err)
		defer conn.CloseNow()

		require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{"id": 1, "method": "utils.timestamp"}))
		var reply models.Response
		require.NoError(t, wsjson.Read(ctx, conn, &reply))
		assert.Nil(t, reply.Error)

		_, resp, err := dial(server, "https://other.example")
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
