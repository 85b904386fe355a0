package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/developer-mesh/mcp-github-server/internal/metrics"
	"github.com/developer-mesh/mcp-github-server/internal/middleware"
	"github.com/developer-mesh/mcp-github-server/internal/models"
	"github.com/developer-mesh/mcp-github-server/internal/observability"
	"github.com/developer-mesh/mcp-github-server/internal/tracing"
)

const (
	// DefaultReadLimit bounds a single inbound envelope; file contents travel
	// inside envelopes so the websocket library default is too small.
	DefaultReadLimit int64 = 8 << 20

	defaultPingInterval = 30 * time.Second
	writeTimeout        = 10 * time.Second
)

// Executor runs one method by name
type Executor interface {
	Execute(ctx context.Context, name string, params json.RawMessage) (interface{}, error)
}

// Options configures a Handler
type Options struct {
	// Development adds stack traces to error envelopes
	Development  bool
	RateLimit    middleware.RateLimitConfig
	Metrics      *metrics.Metrics
	Tracer       *tracing.TracerProvider
	ReadLimit    int64
	PingInterval time.Duration
}

type connectionIDKey struct{}

type connection struct {
	id     string
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// Handler serves envelopes over WebSocket, HTTP and stdio
type Handler struct {
	executor Executor
	logger   observability.Logger
	opts     Options
	// methods bounds span names; anything else is traced as "unknown"
	methods map[string]struct{}

	connsMu sync.Mutex
	conns   map[string]*connection
	closing bool
	active  sync.WaitGroup
}

// NewHandler creates a new handler
func NewHandler(executor Executor, logger observability.Logger, opts Options) *Handler {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	methods := make(map[string]struct{})
	if named, ok := executor.(interface{ Names() []string }); ok {
		for _, name := range named.Names() {
			methods[name] = struct{}{}
		}
	}
	return &Handler{
		executor: executor,
		logger:   logger.WithPrefix("mcp-handler"),
		opts:     opts,
		methods:  methods,
		conns:    make(map[string]*connection),
	}
}

func (h *Handler) methodLabel(method string) string {
	if _, ok := h.methods[method]; ok {
		return method
	}
	return "unknown"
}

// Dispatch handles one raw envelope and returns the response to send.
// It never returns nil and never panics.
func (h *Handler) Dispatch(ctx context.Context, raw []byte, transport string) *models.Response {
	req, err := models.ParseRequest(raw)
	if err != nil {
		h.opts.Metrics.RecordError(string(models.CodeOf(err)))
		h.logger.Warn("Malformed envelope", map[string]interface{}{
			"transport": transport,
			"error":     err.Error(),
		})
		var id json.RawMessage
		if req != nil {
			id = req.ID
		}
		return models.NewErrorResponse(id, err, h.opts.Development)
	}
	if req.Method == "" {
		err := models.NewInvalidRequestError("method is required")
		h.opts.Metrics.RecordError(string(err.Code))
		return models.NewErrorResponse(req.ID, err, h.opts.Development)
	}

	connectionID, _ := ctx.Value(connectionIDKey{}).(string)
	ctx, span := h.opts.Tracer.StartRequestSpan(ctx, h.methodLabel(req.Method), string(req.ID), transport, connectionID)
	done := h.opts.Metrics.StartRequestTimer(req.Method)
	start := time.Now()

	result, err := h.execute(ctx, req)

	var code string
	if err != nil {
		code = string(models.CodeOf(err))
	}
	done(code)
	tracing.EndSpan(span, code, err)

	if err != nil {
		fields := map[string]interface{}{
			"method":      req.Method,
			"transport":   transport,
			"code":        code,
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if code == string(models.ErrorCodeInternal) {
			h.logger.Error("Request failed", fields)
		} else {
			h.logger.Debug("Request failed", fields)
		}
		return models.NewErrorResponse(req.ID, err, h.opts.Development)
	}

	h.logger.Debug("Request handled", map[string]interface{}{
		"method":      req.Method,
		"transport":   transport,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return models.NewResult(req.ID, result)
}

// execute converts handler panics into internal errors
func (h *Handler) execute(ctx context.Context, req *models.Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &models.Error{
				Code:    models.ErrorCodeInternal,
				Message: fmt.Sprintf("internal error: %v", r),
				Stack:   string(debug.Stack()),
			}
		}
	}()
	return h.executor.Execute(ctx, req.Method, req.Params)
}

func rateLimitedResponse(raw []byte) *models.Response {
	var id json.RawMessage
	if req, _ := models.ParseRequest(raw); req != nil {
		id = req.ID
	}
	return models.NewErrorResponse(id, models.NewError(models.ErrorCodeRateLimited, "rate limit exceeded"), false)
}

// HandleConnection serves one WebSocket connection until the peer goes away,
// ctx is cancelled or Shutdown closes it. Every frame is dispatched on its
// own goroutine; all of them have finished when HandleConnection returns.
func (h *Handler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &connection{id: uuid.New().String(), conn: conn, cancel: cancel}
	if !h.track(c) {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.untrack(c)
	ctx = context.WithValue(ctx, connectionIDKey{}, c.id)

	logger := h.logger.With(map[string]interface{}{"connection_id": c.id})
	logger.Info("Connection opened", nil)

	h.opts.Metrics.RecordConnectionStart()
	defer h.opts.Metrics.RecordConnectionEnd()

	conn.SetReadLimit(h.opts.ReadLimit)
	limiter := middleware.NewConnectionLimiter(h.opts.RateLimit)

	var inflight sync.WaitGroup
	defer func() {
		// In-flight upstream calls observe the cancelled context; their
		// results are discarded.
		cancel()
		inflight.Wait()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		logger.Info("Connection closed", nil)
	}()

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		h.keepAlive(ctx, conn)
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if !isExpectedClose(ctx, err) {
				logger.Warn("WebSocket read failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}
		h.opts.Metrics.RecordMessageReceived()

		if !limiter.Allow() {
			h.opts.Metrics.RecordError(string(models.ErrorCodeRateLimited))
			h.write(ctx, conn, rateLimitedResponse(data), logger)
			continue
		}

		inflight.Add(1)
		go func(frame []byte) {
			defer inflight.Done()
			resp := h.Dispatch(ctx, frame, "websocket")
			if ctx.Err() != nil {
				return
			}
			h.write(ctx, conn, resp, logger)
		}(data)
	}
}

func (h *Handler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, resp *models.Response, logger observability.Logger) {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, resp); err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed to write response", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}
	h.opts.Metrics.RecordMessageSent()
}

func isExpectedClose(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

func (h *Handler) track(c *connection) bool {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()
	if h.closing {
		return false
	}
	h.conns[c.id] = c
	h.active.Add(1)
	return true
}

func (h *Handler) untrack(c *connection) {
	h.connsMu.Lock()
	delete(h.conns, c.id)
	h.connsMu.Unlock()
	h.active.Done()
}

// ActiveConnections returns the number of open WebSocket connections
func (h *Handler) ActiveConnections() int {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()
	return len(h.conns)
}

// Shutdown closes every connection with StatusGoingAway and waits for their
// loops to finish. Connections still open when ctx expires are cancelled.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.connsMu.Lock()
	h.closing = true
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.connsMu.Unlock()

	var closers sync.WaitGroup
	for _, c := range conns {
		closers.Add(1)
		go func(c *connection) {
			defer closers.Done()
			_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		}(c)
	}

	done := make(chan struct{})
	go func() {
		closers.Wait()
		h.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, c := range conns {
			c.cancel()
		}
		<-done
		return ctx.Err()
	}
}

// HandleHTTP serves one envelope per POST body
func (h *Handler) HandleHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.ReadLimit))
	var resp *models.Response
	if err != nil {
		resp = models.NewErrorResponse(nil, models.NewInvalidRequestError("failed to read body: "+err.Error()), false)
	} else {
		h.opts.Metrics.RecordMessageReceived()
		resp = h.Dispatch(r.Context(), body, "http")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to write HTTP response", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	h.opts.Metrics.RecordMessageSent()
}
