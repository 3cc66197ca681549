package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/disc-photo-mcp/internal/bag"
	"github.com/ironsheep/disc-photo-mcp/internal/catalog"
	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	"github.com/ironsheep/disc-photo-mcp/internal/pipeline"
)

// defaultMatchLimit is the disc_identify_stamp limit when none is given.
const defaultMatchLimit = 5

var errNoSource = errors.New("source is required")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "disc_process", "catalog_search").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// The disc pipeline tools never fail that way; their fallbacks are part of
// the result.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Disc photo pipeline
	case "disc_process":
		return s.handleDiscProcess(ctx, args)
	case "disc_process_batch":
		return s.handleDiscProcessBatch(ctx, args)
	case "disc_submit":
		return s.handleDiscSubmit(ctx, args)

	// Analysis
	case "disc_analyze":
		return s.handleDiscAnalyze(ctx, args)
	case "disc_dominant_color":
		return s.handleDiscDominantColor(ctx, args)
	case "disc_overlay":
		return s.handleDiscOverlay(ctx, args)
	case "disc_identify_stamp":
		return s.handleDiscIdentifyStamp(ctx, args)

	// Catalog
	case "catalog_search":
		return s.handleCatalogSearch(args)
	case "catalog_info":
		return s.handleCatalogInfo()

	// Bag
	case "bag_load":
		return s.handleBagLoad(args)
	case "bag_share_url":
		return s.handleBagShareURL(args)
	case "bag_set_photo":
		return s.handleBagSetPhoto(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Disc Pipeline Handlers ===

type sourceArgs struct {
	Source string `json:"source"`
}

func (a sourceArgs) parse() (imaging.Source, error) {
	if a.Source == "" {
		return imaging.Source{}, errNoSource
	}
	return imaging.ParseSource(a.Source), nil
}

type discProcessArgs struct {
	Source  string `json:"source"`
	Format  string `json:"format"`
	Quality int    `json:"quality"`
}

func (s *Server) handleDiscProcess(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a discProcessArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := sourceArgs{Source: a.Source}.parse()
	if err != nil {
		return nil, err
	}

	p := s.pipeline
	if a.Format != "" || a.Quality != 0 {
		opts := p.RenderOptions()
		if a.Format != "" {
			opts.Format = a.Format
		}
		if a.Quality != 0 {
			opts.Quality = a.Quality
		}
		p = p.With(pipeline.WithRenderOptions(opts))
	}
	return p.Process(ctx, src), nil
}

type discProcessBatchArgs struct {
	Sources []string `json:"sources"`
}

func (s *Server) handleDiscProcessBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a discProcessBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Sources) == 0 {
		return nil, errors.New("sources must not be empty")
	}

	sources := make([]imaging.Source, len(a.Sources))
	for i, ref := range a.Sources {
		sources[i] = imaging.ParseSource(ref)
	}
	results, err := s.batch.ProcessBatch(ctx, sources)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"count":   len(results),
		"results": results,
	}, nil
}

type discSubmitArgs struct {
	Slot   int    `json:"slot"`
	Source string `json:"source"`
}

func (s *Server) handleDiscSubmit(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a discSubmitArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := sourceArgs{Source: a.Source}.parse()
	if err != nil {
		return nil, err
	}

	result, current := s.sequencer.Submit(ctx, a.Slot, src)
	return map[string]interface{}{
		"slot":       a.Slot,
		"superseded": !current,
		"result":     result,
	}, nil
}

// === Analysis Handlers ===

func (s *Server) load(ctx context.Context, args json.RawMessage) (*imaging.Loaded, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := a.parse()
	if err != nil {
		return nil, err
	}
	return s.pipeline.Load(ctx, src)
}

func (s *Server) handleDiscAnalyze(ctx context.Context, args json.RawMessage) (interface{}, error) {
	loaded, err := s.load(ctx, args)
	if err != nil {
		return nil, err
	}
	analysis := pipeline.Analyze(loaded.Image)
	out := map[string]interface{}{
		"format":      loaded.Format,
		"orientation": loaded.Orientation,
		"analysis":    analysis,
	}
	if loc, ok := imaging.LocateDisc(imaging.NewRasterImage(loaded.Image), analysis.Background); ok {
		out["location"] = loc
		out["centered"] = loc.Centered()
	}
	return out, nil
}

// dominantColorResult is the disc_dominant_color payload. Fallback and
// Error are set when the photo could not be loaded.
type dominantColorResult struct {
	imaging.DominantColor
	Fallback pipeline.Fallback `json:"fallback,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func (s *Server) handleDiscDominantColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := a.parse()
	if err != nil {
		return nil, err
	}

	loaded, err := s.pipeline.Load(ctx, src)
	if err != nil {
		s.logger.Debug("dominant color fallback", "source", src.Ref(), "error", err)
		return dominantColorResult{
			DominantColor: imaging.DefaultDominantColor(),
			Fallback:      pipeline.Classify(err),
			Error:         err.Error(),
		}, nil
	}
	return dominantColorResult{DominantColor: imaging.SampleDominantColor(loaded.Image)}, nil
}

func (s *Server) handleDiscOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	loaded, err := s.load(ctx, args)
	if err != nil {
		return nil, err
	}
	analysis := pipeline.Analyze(loaded.Image)
	overlay, err := imaging.Overlay(loaded.Image, analysis.DiscRadius, analysis.Crop)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"analysis": analysis,
		"overlay":  overlay,
	}, nil
}

type discIdentifyArgs struct {
	Source string `json:"source"`
	Limit  int    `json:"limit"`
}

func (s *Server) handleDiscIdentifyStamp(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a discIdentifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = defaultMatchLimit
	}
	src, err := sourceArgs{Source: a.Source}.parse()
	if err != nil {
		return nil, err
	}
	loaded, err := s.pipeline.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	// Read from the cropped disc so background text is left out.
	img := loaded.Image
	analysis := pipeline.Analyze(img)
	if rendered, err := imaging.Rasterize(img, analysis.Crop, imaging.RenderOptions{Format: imaging.FormatPNG}); err == nil {
		img = rendered.Image
	}
	return s.reader.Identify(img, s.catalog, a.Limit)
}

// === Catalog Handlers ===

func (s *Server) handleCatalogSearch(args json.RawMessage) (interface{}, error) {
	var f catalog.Filter
	if err := json.Unmarshal(args, &f); err != nil {
		return nil, err
	}
	discs := s.catalog.Filter(f)
	return map[string]interface{}{
		"count": len(discs),
		"discs": discs,
	}, nil
}

func (s *Server) handleCatalogInfo() (interface{}, error) {
	return map[string]interface{}{
		"count":         s.catalog.Len(),
		"manufacturers": s.catalog.Manufacturers(),
		"types":         catalog.Types,
	}, nil
}

// === Bag Handlers ===

type bagLoadArgs struct {
	URL string `json:"url"`
}

func (s *Server) handleBagLoad(args json.RawMessage) (interface{}, error) {
	var a bagLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return bag.ParseShareURL(a.URL)
}

type bagShareArgs struct {
	Bag  *bag.Bag `json:"bag"`
	Base string   `json:"base"`
}

func (s *Server) handleBagShareURL(args json.RawMessage) (interface{}, error) {
	var a bagShareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Bag == nil {
		return nil, errors.New("bag is required")
	}
	u, err := a.Bag.ShareURL(a.Base)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"url": u}, nil
}

type bagSetPhotoArgs struct {
	Bag    *bag.Bag `json:"bag"`
	Slot   int      `json:"slot"`
	Source string   `json:"source"`
}

func (s *Server) handleBagSetPhoto(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a bagSetPhotoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Bag == nil {
		return nil, errors.New("bag is required")
	}
	if _, err := a.Bag.Slot(a.Slot); err != nil {
		return nil, err
	}
	src, err := sourceArgs{Source: a.Source}.parse()
	if err != nil {
		return nil, err
	}

	result, current := s.sequencer.Submit(ctx, a.Slot, src)
	if current {
		if err := a.Bag.ApplyResult(a.Slot, result); err != nil {
			return nil, err
		}
	}
	return map[string]interface{}{
		"bag":        a.Bag,
		"superseded": !current,
		"result":     result,
	}, nil
}
