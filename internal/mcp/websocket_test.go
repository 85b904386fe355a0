package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/developer-mesh/mcp-github-server/internal/middleware"
	"github.com/developer-mesh/mcp-github-server/internal/models"
)

func serve(t *testing.T, h *Handler) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		h.HandleConnection(r.Context(), conn)
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func readResponses(t *testing.T, conn *websocket.Conn, n int) []models.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := make([]models.Response, 0, n)
	for i := 0; i < n; i++ {
		var resp models.Response
		require.NoError(t, wsjson.Read(ctx, conn, &resp))
		out = append(out, resp)
	}
	return out
}

func ignoreHTTPGoroutines() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	}
}

func TestWebSocket_EndToEnd(t *testing.T) {
	leakOpts := ignoreHTTPGoroutines()
	h := newTestHandler(t, Options{})
	url := serve(t, h)
	conn := dial(t, url)

	ctx := context.Background()
	frames := []string{
		`{"id":1,"method":"utils.base64Encode","params":{"text":"hello"}}`,
		`{"id":2,"method":"github.listIssues","params":{"owner":"o"}}`,
		`this is not json`,
		`{"id":3,"method":"github.mergePullRequest","params":{"owner":"o","repo":"r","pull_number":5}}`,
	}
	for _, f := range frames {
		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(f)))
	}

	byID := map[string]models.Response{}
	var malformed int
	for _, resp := range readResponses(t, conn, len(frames)) {
		if resp.ID == nil {
			malformed++
			assert.Equal(t, models.ErrorCodeParse, resp.Error.Code)
			continue
		}
		byID[string(resp.ID)] = resp
	}

	assert.Equal(t, 1, malformed)
	require.Len(t, byID, 3)
	assert.Nil(t, byID["1"].Error)
	assert.Equal(t, map[string]interface{}{"encoded": "aGVsbG8="}, byID["1"].Result)
	require.NotNil(t, byID["2"].Error)
	assert.Equal(t, models.ErrorCodeValidation, byID["2"].Error.Code)
	assert.Equal(t, map[string]interface{}{"merged": true, "sha": "abc", "message": "ok"}, byID["3"].Result)

	// the connection survives a malformed frame
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"id":"again","method":"utils.timestamp"}`)))
	again := readResponses(t, conn, 1)
	assert.Equal(t, `"again"`, string(again[0].ID))

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return h.ActiveConnections() == 0 }, 5*time.Second, 10*time.Millisecond)

	goleak.VerifyNone(t, leakOpts...)
}

func TestWebSocket_RateLimited(t *testing.T) {
	h := newTestHandler(t, Options{RateLimit: middleware.RateLimitConfig{RPS: 0.001, Burst: 1}})
	conn := dial(t, serve(t, h))
	defer conn.CloseNow()

	ctx := context.Background()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"id":1,"method":"utils.timestamp"}`)))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"id":2,"method":"utils.timestamp"}`)))

	byID := map[string]models.Response{}
	for _, resp := range readResponses(t, conn, 2) {
		byID[string(resp.ID)] = resp
	}
	assert.Nil(t, byID["1"].Error)
	require.NotNil(t, byID["2"].Error)
	assert.Equal(t, models.ErrorCodeRateLimited, byID["2"].Error.Code)
}

func TestWebSocket_CloseCancelsInFlight(t *testing.T) {
	leakOpts := ignoreHTTPGoroutines()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	blocking := executorFunc(func(ctx context.Context, name string, params json.RawMessage) (interface{}, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})

	h := NewHandler(blocking, nil, Options{})
	conn := dial(t, serve(t, h))

	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte(`{"id":1,"method":"github.listRepos"}`)))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request was not dispatched")
	}

	require.NoError(t, conn.CloseNow())

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request was not cancelled")
	}
	require.Eventually(t, func() bool { return h.ActiveConnections() == 0 }, 5*time.Second, 10*time.Millisecond)

	goleak.VerifyNone(t, leakOpts...)
}

func TestHandler_Shutdown(t *testing.T) {
	h := newTestHandler(t, Options{})
	conn := dial(t, serve(t, h))
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return h.ActiveConnections() == 1 }, 5*time.Second, 10*time.Millisecond)

	readErr := make(chan error, 1)
	go func() {
		_, _, err := conn.Read(context.Background())
		readErr <- err
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))
	assert.Equal(t, 0, h.ActiveConnections())

	select {
	case err := <-readErr:
		assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
	case <-time.After(5 * time.Second):
		t.Fatal("client did not observe close")
	}

	// new connections are refused once shutting down
	late := dial(t, serve(t, h))
	defer late.CloseNow()
	_, _, err := late.Read(context.Background())
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}
