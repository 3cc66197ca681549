package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// blockingImageServer never answers a request until the client gives up.
// Every request is signalled on the returned channel.
func blockingImageServer(t *testing.T) (*httptest.Server, <-chan struct{}) {
	t.Helper()
	hit := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case hit <- struct{}{}:
		default:
		}
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv, hit
}

// serveAsync runs Serve on a pipe and returns the pipe writer plus a func
// that closes it and waits for Serve to finish.
func serveAsync(t *testing.T, s *Server) (io.Writer, func() []MCPResponse) {
	t.Helper()
	pr, pw := io.Pipe()
	var out bytes.Buffer
	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(context.Background(), pr, &out)
	}()

	return pw, func() []MCPResponse {
		t.Helper()
		pw.Close()
		select {
		case err := <-errc:
			if err != nil {
				t.Fatalf("Serve failed: %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("Serve did not return")
		}

		var responses []MCPResponse
		scanner := bufio.NewScanner(&out)
		for scanner.Scan() {
			var resp MCPResponse
			if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response line %q: %v", scanner.Text(), err)
			}
			responses = append(responses, resp)
		}
		return responses
	}
}

func writeLine(t *testing.T, w io.Writer, format string, args ...interface{}) {
	t.Helper()
	if _, err := fmt.Fprintf(w, format+"\n", args...); err != nil {
		t.Fatalf("failed to write request: %v", err)
	}
}

func waitFor(t *testing.T, hit <-chan struct{}) {
	t.Helper()
	select {
	case <-hit:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the image server")
	}
}

// toolText decodes the JSON text content of a tools/call response.
func toolText(t *testing.T, resp MCPResponse) map[string]interface{} {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("tool failed: %+v", resp.Error)
	}
	content := resp.Result.(map[string]interface{})["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatalf("tool output is not a JSON object: %v", err)
	}
	return out
}

func TestServe_LaterSubmitSupersedes(t *testing.T) {
	s := newTestServer(t)
	slow, hit := blockingImageServer(t)
	photo := redDiscFile(t)

	w, finish := serveAsync(t, s)
	writeLine(t, w, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"disc_submit","arguments":{"slot":0,"source":%q}}}`, slow.URL+"/ace.png")
	waitFor(t, hit)
	writeLine(t, w, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"disc_submit","arguments":{"slot":0,"source":%q}}}`, photo)
	responses := finish()

	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	superseded := map[float64]bool{}
	for _, resp := range responses {
		superseded[resp.ID.(float64)] = toolText(t, resp)["superseded"] == true
	}
	if !superseded[1] {
		t.Error("the first submission should be superseded")
	}
	if superseded[2] {
		t.Error("the latest submission should be current")
	}
	if n := s.sequencer.Pending(); n != 0 {
		t.Errorf("sequencer still has %d pending slots", n)
	}
}

func TestServe_SubmitsForDifferentSlots(t *testing.T) {
	s := newTestServer(t)
	photo := redDiscFile(t)

	w, finish := serveAsync(t, s)
	for i := 0; i < 3; i++ {
		writeLine(t, w, `{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"disc_submit","arguments":{"slot":%d,"source":%q}}}`, i+1, i, photo)
	}
	responses := finish()

	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	for _, resp := range responses {
		out := toolText(t, resp)
		if out["superseded"] != false {
			t.Errorf("id %v: submissions for different slots must not supersede each other", resp.ID)
		}
	}
}

func TestServe_CancelledRequest(t *testing.T) {
	s := newTestServer(t)
	slow, hit := blockingImageServer(t)

	w, finish := serveAsync(t, s)
	writeLine(t, w, `{"jsonrpc":"2.0","id":"slow-1","method":"tools/call","params":{"name":"disc_process","arguments":{"source":%q}}}`, slow.URL+"/ace.png")
	waitFor(t, hit)
	writeLine(t, w, `{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":"slow-1","reason":"user replaced the photo"}}`)
	writeLine(t, w, `{"jsonrpc":"2.0","id":3,"method":"ping"}`)

	start := time.Now()
	responses := finish()
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("cancellation did not stop the fetch (took %v)", elapsed)
	}

	if len(responses) != 1 {
		t.Fatalf("expected only the ping response, got %d", len(responses))
	}
	if responses[0].ID != float64(3) {
		t.Errorf("unexpected response: %+v", responses[0])
	}
	if n := s.calls.running(); n != 0 {
		t.Errorf("%d calls still registered", n)
	}
}

func TestInflight(t *testing.T) {
	f := newInflight()

	ctx, done := f.start(context.Background(), float64(1))
	_, doneStr := f.start(context.Background(), "1")
	if n := f.running(); n != 2 {
		t.Fatalf("numeric and string ids must stay distinct, got %d calls", n)
	}

	if f.cancel(float64(2)) {
		t.Error("cancel of an unknown id should report false")
	}
	if !f.cancel(float64(1)) {
		t.Fatal("cancel of a running id should report true")
	}
	if context.Cause(ctx) != errCancelledByClient {
		t.Errorf("cause: got %v", context.Cause(ctx))
	}

	done()
	doneStr()
	if n := f.running(); n != 0 {
		t.Errorf("expected no running calls, got %d", n)
	}
}

func TestHandleCancelled_Invalid(t *testing.T) {
	s := newTestServer(t)
	for _, params := range []string{`{}`, `not json`, `{"requestId":42}`} {
		resp := s.handleRequest(context.Background(), &MCPRequest{
			JSONRPC: "2.0",
			Method:  "notifications/cancelled",
			Params:  json.RawMessage(params),
		})
		if resp != nil {
			t.Errorf("params %s: notifications must not be answered", params)
		}
	}
}
