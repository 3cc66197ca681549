package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// errCancelledByClient is the cancel cause for a notifications/cancelled.
var errCancelledByClient = errors.New("request cancelled by client")

// CancelledParams are the params of a notifications/cancelled message.
type CancelledParams struct {
	RequestID interface{} `json:"requestId"`
	Reason    string      `json:"reason,omitempty"`
}

// inflight tracks the tools/call requests still running so clients can
// cancel them by id.
type inflight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	cancel context.CancelCauseFunc
}

func newInflight() *inflight {
	return &inflight{calls: make(map[string]*call)}
}

// requestKey maps a JSON-RPC id to a map key. Numbers and strings with the
// same text stay distinct.
func requestKey(id interface{}) string {
	b, _ := json.Marshal(id)
	return string(b)
}

// start registers id and returns its context and a release func. A reused
// id replaces the older entry for cancellation.
func (f *inflight) start(ctx context.Context, id interface{}) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	c := &call{cancel: cancel}
	key := requestKey(id)

	f.mu.Lock()
	f.calls[key] = c
	f.mu.Unlock()

	return ctx, func() {
		f.mu.Lock()
		if f.calls[key] == c {
			delete(f.calls, key)
		}
		f.mu.Unlock()
		cancel(nil)
	}
}

// cancel cancels the running request with the given id. It reports false
// when no such request is running.
func (f *inflight) cancel(id interface{}) bool {
	f.mu.Lock()
	c, ok := f.calls[requestKey(id)]
	f.mu.Unlock()
	if ok {
		c.cancel(errCancelledByClient)
	}
	return ok
}

// running returns the number of requests in flight.
func (f *inflight) running() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// responseWriter serializes responses from concurrent handlers onto one
// stream, one JSON object per line.
type responseWriter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	logger  *slog.Logger
}

func newResponseWriter(w io.Writer, logger *slog.Logger) *responseWriter {
	return &responseWriter{encoder: json.NewEncoder(w), logger: logger}
}

func (rw *responseWriter) write(resp *MCPResponse) {
	if resp == nil {
		return
	}
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if err := rw.encoder.Encode(resp); err != nil {
		rw.logger.Error("failed to encode response", "id", resp.ID, "error", err)
	}
}
