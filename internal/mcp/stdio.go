package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
)

// HandleStdio serves newline-delimited envelopes from in, writing one
// response line per request to out. Requests run concurrently; it returns
// once in is exhausted and every response has been written.
func (h *Handler) HandleStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), int(h.opts.ReadLimit))

	var (
		writeMu  sync.Mutex
		inflight sync.WaitGroup
	)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame := append([]byte(nil), line...)
		h.opts.Metrics.RecordMessageReceived()

		inflight.Add(1)
		go func() {
			defer inflight.Done()
			resp := h.Dispatch(ctx, frame, "stdio")

			writeMu.Lock()
			defer writeMu.Unlock()
			if err := encoder.Encode(resp); err != nil {
				h.logger.Error("Failed to write stdio response", map[string]interface{}{
					"error": err.Error(),
				})
				return
			}
			h.opts.Metrics.RecordMessageSent()
		}()

		if ctx.Err() != nil {
			break
		}
	}

	inflight.Wait()
	if err := scanner.Err(); err != nil {
		return err
	}
	return ctx.Err()
}
