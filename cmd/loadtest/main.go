// Command loadtest drives concurrent WebSocket clients against a running
// gateway and reports latency and error counts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/developer-mesh/mcp-github-server/internal/models"
)

type loadConfig struct {
	URL       string
	AuthID    string
	AuthToken string
	Method    string
	Params    json.RawMessage
	Messages  int
	Interval  time.Duration
}

// Stats is updated concurrently by every client
type Stats struct {
	ConnectionsCreated atomic.Int64
	ConnectionsFailed  atomic.Int64
	MessagesSent       atomic.Int64
	MessagesReceived   atomic.Int64
	Errors             atomic.Int64

	totalLatency atomic.Int64 // microseconds
	latencyCount atomic.Int64
	minLatency   atomic.Int64
	maxLatency   atomic.Int64
}

// RecordLatency folds one round trip into the aggregates
func (s *Stats) RecordLatency(latency time.Duration) {
	us := latency.Microseconds()
	s.totalLatency.Add(us)
	s.latencyCount.Add(1)

	for {
		cur := s.minLatency.Load()
		if cur != 0 && us >= cur {
			break
		}
		if s.minLatency.CompareAndSwap(cur, us) {
			break
		}
	}
	for {
		cur := s.maxLatency.Load()
		if us <= cur {
			break
		}
		if s.maxLatency.CompareAndSwap(cur, us) {
			break
		}
	}
}

// Latency returns the average, minimum and maximum round trip
func (s *Stats) Latency() (avg, lo, hi time.Duration) {
	count := s.latencyCount.Load()
	if count == 0 {
		return 0, 0, 0
	}
	return time.Duration(s.totalLatency.Load()/count) * time.Microsecond,
		time.Duration(s.minLatency.Load()) * time.Microsecond,
		time.Duration(s.maxLatency.Load()) * time.Microsecond
}

// ErrorRate is the share of sent envelopes that failed
func (s *Stats) ErrorRate() float64 {
	sent := s.MessagesSent.Load()
	if sent == 0 {
		return 0
	}
	return float64(s.Errors.Load()) / float64(sent)
}

func runClient(ctx context.Context, id int, cfg loadConfig, stats *Stats) {
	opts := &websocket.DialOptions{HTTPHeader: http.Header{}}
	if cfg.AuthID != "" {
		opts.HTTPHeader.Set("X-Auth-Id", cfg.AuthID)
		opts.HTTPHeader.Set("Authorization", "Bearer "+cfg.AuthToken)
	}

	conn, _, err := websocket.Dial(ctx, cfg.URL, opts)
	if err != nil {
		stats.ConnectionsFailed.Add(1)
		fmt.Fprintf(os.Stderr, "client %d: failed to connect: %v\n", id, err)
		return
	}
	defer func() {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()
	stats.ConnectionsCreated.Add(1)

	for i := 0; i < cfg.Messages; i++ {
		if ctx.Err() != nil {
			return
		}

		envelope := models.Request{
			ID:     json.RawMessage(fmt.Sprintf("%q", uuid.New().String())),
			Method: cfg.Method,
			Params: cfg.Params,
		}

		start := time.Now()
		if err := wsjson.Write(ctx, conn, envelope); err != nil {
			stats.Errors.Add(1)
			continue
		}
		stats.MessagesSent.Add(1)

		var resp models.Response
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			stats.Errors.Add(1)
			continue
		}
		stats.MessagesReceived.Add(1)
		stats.RecordLatency(time.Since(start))

		if resp.Error != nil {
			stats.Errors.Add(1)
		}

		if cfg.Interval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(cfg.Interval):
			}
		}
	}
}

// runLoad starts clients staggered by stagger and waits for all of them
func runLoad(ctx context.Context, cfg loadConfig, clients int, stagger time.Duration) *Stats {
	stats := &Stats{}
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < clients; i++ {
		g.Go(func() error {
			runClient(gctx, i, cfg, stats)
			return nil
		})
		if stagger > 0 {
			time.Sleep(stagger)
		}
	}
	_ = g.Wait()
	return stats
}

func report(w io.Writer, stats *Stats, elapsed time.Duration) {
	fmt.Fprintln(w, "=== Load Test Results ===")
	fmt.Fprintf(w, "Duration: %v\n", elapsed)
	fmt.Fprintf(w, "Connections: created %d, failed %d\n", stats.ConnectionsCreated.Load(), stats.ConnectionsFailed.Load())
	fmt.Fprintf(w, "Messages: sent %d, received %d, errors %d\n",
		stats.MessagesSent.Load(), stats.MessagesReceived.Load(), stats.Errors.Load())

	avg, lo, hi := stats.Latency()
	fmt.Fprintf(w, "Latency: avg %v, min %v, max %v\n", avg, lo, hi)
	if elapsed > 0 {
		fmt.Fprintf(w, "Throughput: %.2f msg/s\n", float64(stats.MessagesSent.Load())/elapsed.Seconds())
	}
}

func main() {
	var (
		url         = flag.String("url", "ws://localhost:3000/ws", "Gateway WebSocket URL")
		authID      = flag.String("auth-id", os.Getenv("AUTH_ID"), "Gateway credential id")
		authToken   = flag.String("auth-token", os.Getenv("AUTH_TOKEN"), "Gateway credential token")
		method      = flag.String("method", "utils.timestamp", "Method to call")
		params      = flag.String("params", "{}", "JSON params for every call")
		connections = flag.Int("connections", 10, "Number of concurrent connections")
		messages    = flag.Int("messages", 100, "Messages per connection")
		interval    = flag.Duration("interval", 100*time.Millisecond, "Delay between messages on one connection")
		duration    = flag.Duration("duration", 60*time.Second, "Test duration")
	)
	flag.Parse()

	if !json.Valid([]byte(*params)) {
		fmt.Fprintln(os.Stderr, "-params must be valid JSON")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	stats := runLoad(ctx, loadConfig{
		URL:       *url,
		AuthID:    *authID,
		AuthToken: *authToken,
		Method:    *method,
		Params:    json.RawMessage(*params),
		Messages:  *messages,
		Interval:  *interval,
	}, *connections, 50*time.Millisecond)
	report(os.Stdout, stats, time.Since(start))

	if rate := stats.ErrorRate(); rate > 0.1 {
		fmt.Fprintf(os.Stderr, "high error rate: %.2f%%\n", rate*100)
		os.Exit(1)
	}
}
