package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ironsheep/disc-photo-mcp/internal/catalog"
	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	"github.com/ironsheep/disc-photo-mcp/internal/pipeline"
	"github.com/ironsheep/disc-photo-mcp/internal/stamp"
)

// Name is reported in the initialize handshake.
const Name = "disc-photo-mcp"

// Server handles MCP protocol communication
type Server struct {
	cache     *imaging.ImageCache
	pipeline  *pipeline.Pipeline
	batch     *pipeline.BatchProcessor
	sequencer *pipeline.Sequencer
	catalog   *catalog.Catalog
	reader    *stamp.Reader
	logger    *slog.Logger
	version   string
	calls     *inflight
}

// Option configures a Server.
type Option func(*Server)

// WithPipeline sets the pipeline used by the disc tools. Its load options
// should share the server's cache; see Cache.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Server) {
		s.pipeline = p
	}
}

// WithBatchProcessor sets the processor behind disc_process_batch.
func WithBatchProcessor(bp *pipeline.BatchProcessor) Option {
	return func(s *Server) {
		s.batch = bp
	}
}

// WithCatalog replaces the embedded disc catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithStampReader sets the OCR reader.
func WithStampReader(r *stamp.Reader) Option {
	return func(s *Server) {
		s.reader = r
	}
}

// WithCache sets the decoded image cache.
func WithCache(c *imaging.ImageCache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. Components not set by an option
// get defaults: a fresh cache, a pipeline reading through it, the embedded
// catalog and an English stamp reader.
func New(opts ...Option) *Server {
	s := &Server{version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.cache == nil {
		s.cache = imaging.NewImageCache()
	}
	if s.pipeline == nil {
		s.pipeline = pipeline.New(
			pipeline.WithLogger(s.logger),
			pipeline.WithLoadOptions(imaging.LoadOptions{Cache: s.cache}),
		)
	}
	if s.batch == nil {
		s.batch = pipeline.NewBatchProcessor(s.pipeline, pipeline.WithBatchLogger(s.logger))
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.reader == nil {
		s.reader = stamp.NewReader()
	}
	s.sequencer = pipeline.NewSequencer(s.pipeline)
	s.calls = newInflight()
	return s
}

// Run serves MCP on stdin and stdout until stdin closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to w.
//
// Each tools/call runs in its own goroutine with a context that
// notifications/cancelled can cancel, so a later disc_submit for a slot can
// supersede one still running. A cancelled call gets no response. Other
// methods are answered in order. Serve returns once r is exhausted and
// every running call has answered, or when ctx is done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Requests can carry uploaded photos as data URIs.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	out := newResponseWriter(w, s.logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	defer wg.Wait()

	s.logger.Info("MCP server started", "version", s.version, "discs", s.catalog.Len())
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			cancel()
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			out.write(s.errorResponse(nil, -32700, "Parse error", err.Error()))
			continue
		}

		if req.Method != "tools/call" {
			out.write(s.handleRequest(ctx, &req))
			continue
		}

		callCtx, done := s.calls.start(ctx, req.ID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer done()
			resp := s.handleRequest(callCtx, &req)
			if errors.Is(context.Cause(callCtx), errCancelledByClient) {
				s.logger.Debug("dropping response to cancelled request", "id", req.ID)
				return
			}
			out.write(resp)
		}()
	}

	if err := scanner.Err(); err != nil {
		cancel()
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", "method", req.Method, "id", req.ID)
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Notifications get no response
		return nil
	case "notifications/cancelled":
		s.handleCancelled(req)
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleCancelled cancels the running tools/call named by the notification.
func (s *Server) handleCancelled(req *MCPRequest) {
	var params CancelledParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.RequestID == nil {
		s.logger.Warn("invalid cancellation", "params", string(req.Params))
		return
	}
	if !s.calls.cancel(params.RequestID) {
		s.logger.Debug("cancellation for unknown request", "id", params.RequestID)
		return
	}
	s.logger.Debug("request cancelled", "id", params.RequestID, "reason", params.Reason)
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": s.version,
			},
		},
	}
}

// handleToolsList returns the tool catalog
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
