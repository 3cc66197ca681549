package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/disc-photo-mcp/internal/bag"
)

// createDiscFile writes a PNG of a centered disc on a uniform background
// and returns its path.
func createDiscFile(t *testing.T, width, height int, bg, disc color.RGBA, radius float64) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	cx, cy := float64(width)/2, float64(height)/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, disc)
			} else {
				img.SetRGBA(x, y, bg)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "disc.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func redDiscFile(t *testing.T) string {
	t.Helper()
	return createDiscFile(t, 200, 200, color.RGBA{40, 120, 40, 255}, color.RGBA{200, 40, 40, 255}, 60)
}

// callTool runs a tools/call request and decodes the text content.
func callTool(t *testing.T, s *Server, name string, args interface{}) (map[string]interface{}, *MCPError) {
	t.Helper()

	params, _ := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	resp := s.handleRequest(t.Context(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &out); err != nil {
		t.Fatalf("tool output is not a JSON object: %v", err)
	}
	return out, nil
}

func mustCall(t *testing.T, s *Server, name string, args interface{}) map[string]interface{} {
	t.Helper()
	out, mcpErr := callTool(t, s, name, args)
	if mcpErr != nil {
		t.Fatalf("%s failed: %v (%v)", name, mcpErr.Message, mcpErr.Data)
	}
	return out
}

func TestHandleToolsCall_DiscProcess(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "disc_process", map[string]interface{}{"source": redDiscFile(t)})

	if out["cropped"] != true {
		t.Fatalf("expected a cropped result, got %v", out)
	}
	if !strings.HasPrefix(out["croppedImageData"].(string), "data:image/jpeg;base64,") {
		t.Errorf("croppedImageData: %.40s", out["croppedImageData"])
	}
	if out["dominantColorHex"] != "#C02020" {
		t.Errorf("dominantColorHex: got %v, want #C02020", out["dominantColorHex"])
	}
	if out["source"] != "path" {
		t.Errorf("source: got %v, want path", out["source"])
	}
}

func TestHandleToolsCall_DiscProcessFormat(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "disc_process", map[string]interface{}{"source": redDiscFile(t), "format": "png"})

	if !strings.HasPrefix(out["croppedImageData"].(string), "data:image/png;base64,") {
		t.Errorf("croppedImageData: %.40s", out["croppedImageData"])
	}
	// The override must not leak into the shared pipeline.
	if s.pipeline.RenderOptions().Format != "" {
		t.Errorf("shared pipeline format changed to %q", s.pipeline.RenderOptions().Format)
	}
}

func TestHandleToolsCall_DiscProcessFallback(t *testing.T) {
	s := newTestServer(t)
	ref := filepath.Join(t.TempDir(), "missing.jpg")
	out := mustCall(t, s, "disc_process", map[string]interface{}{"source": ref})

	if out["cropped"] != false || out["croppedImageData"] != ref {
		t.Errorf("expected the original reference, got %v", out["croppedImageData"])
	}
	if out["dominantColorHex"] != "#6366F1" {
		t.Errorf("dominantColorHex: got %v, want #6366F1", out["dominantColorHex"])
	}
	if out["fallback"] != "load" {
		t.Errorf("fallback: got %v, want load", out["fallback"])
	}
}

func TestHandleToolsCall_DiscProcessNoSource(t *testing.T) {
	s := newTestServer(t)
	_, mcpErr := callTool(t, s, "disc_process", map[string]interface{}{})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Errorf("expected a tool error, got %v", mcpErr)
	}
}

func TestHandleToolsCall_DiscProcessBatch(t *testing.T) {
	s := newTestServer(t)
	blue := createDiscFile(t, 160, 160, color.RGBA{250, 250, 250, 255}, color.RGBA{30, 30, 220, 255}, 50)
	out := mustCall(t, s, "disc_process_batch", map[string]interface{}{
		"sources": []string{redDiscFile(t), "/nonexistent/disc.png", blue},
	})

	if out["count"] != float64(3) {
		t.Fatalf("count: got %v, want 3", out["count"])
	}
	results := out["results"].([]interface{})
	wantColors := []string{"#C02020", "#6366F1", "#2020E0"}
	for i, r := range results {
		if got := r.(map[string]interface{})["dominantColorHex"]; got != wantColors[i] {
			t.Errorf("result %d: got %v, want %s", i, got, wantColors[i])
		}
	}

	if _, mcpErr := callTool(t, s, "disc_process_batch", map[string]interface{}{"sources": []string{}}); mcpErr == nil {
		t.Error("empty sources should fail")
	}
}

func TestHandleToolsCall_DiscSubmit(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "disc_submit", map[string]interface{}{"slot": 2, "source": redDiscFile(t)})

	if out["superseded"] != false || out["slot"] != float64(2) {
		t.Errorf("unexpected output: %v", out)
	}
	if r := out["result"].(map[string]interface{}); r["dominantColorHex"] != "#C02020" {
		t.Errorf("dominantColorHex: got %v", r["dominantColorHex"])
	}
}

func TestHandleToolsCall_DiscAnalyze(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "disc_analyze", map[string]interface{}{"source": redDiscFile(t)})

	if out["format"] != "png" {
		t.Errorf("format: got %v, want png", out["format"])
	}
	analysis := out["analysis"].(map[string]interface{})
	if r := analysis["discRadius"].(float64); r < 57 || r > 63 {
		t.Errorf("discRadius: got %.2f, want about 60", r)
	}
	if analysis["width"] != float64(200) {
		t.Errorf("width: got %v", analysis["width"])
	}
	if out["centered"] != true {
		t.Errorf("centered: got %v, want true", out["centered"])
	}
	if _, ok := out["location"].(map[string]interface{}); !ok {
		t.Errorf("expected a location, got %v", out["location"])
	}

	if _, mcpErr := callTool(t, s, "disc_analyze", map[string]interface{}{"source": "/nonexistent.png"}); mcpErr == nil {
		t.Error("disc_analyze should fail for a missing file")
	}
}

func TestHandleToolsCall_DiscDominantColor(t *testing.T) {
	s := newTestServer(t)
	solid := color.RGBA{100, 200, 60, 255}
	path := createDiscFile(t, 640, 480, solid, solid, 0)
	out := mustCall(t, s, "disc_dominant_color", map[string]interface{}{"source": path})

	if out["hex"] != "#60C040" {
		t.Errorf("hex: got %v, want #60C040", out["hex"])
	}
	if out["default"] != false {
		t.Error("default should be false")
	}
}

func TestHandleToolsCall_DiscDominantColor_Fallback(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name, source, fallback string
	}{
		{"undecodable data URI", "data:image/png;base64,AAAA", "decode"},
		{"missing file", "/nonexistent/disc.png", "load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustCall(t, s, "disc_dominant_color", map[string]interface{}{"source": tt.source})
			if out["hex"] != "#6366F1" {
				t.Errorf("hex: got %v, want #6366F1", out["hex"])
			}
			if out["default"] != true {
				t.Error("default should be true")
			}
			if out["fallback"] != tt.fallback {
				t.Errorf("fallback: got %v, want %s", out["fallback"], tt.fallback)
			}
		})
	}

	if _, mcpErr := callTool(t, s, "disc_dominant_color", map[string]interface{}{}); mcpErr == nil {
		t.Error("a missing source is still an error")
	}
}

func TestHandleToolsCall_DiscOverlay(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "disc_overlay", map[string]interface{}{"source": redDiscFile(t)})

	overlay := out["overlay"].(map[string]interface{})
	if overlay["mime_type"] != "image/png" || overlay["image_base64"] == "" {
		t.Errorf("unexpected overlay: %v", overlay["mime_type"])
	}
	if overlay["width"] != float64(200) {
		t.Errorf("width: got %v", overlay["width"])
	}
}

func TestHandleToolsCall_CatalogSearch(t *testing.T) {
	s := newTestServer(t)

	out := mustCall(t, s, "catalog_search", map[string]interface{}{"search": "DESTROYER"})
	if out["count"] != float64(1) {
		t.Fatalf("count: got %v, want 1", out["count"])
	}
	d := out["discs"].([]interface{})[0].(map[string]interface{})
	if d["name"] != "Destroyer" || d["manufacturer"] != "Innova" {
		t.Errorf("unexpected disc: %v", d)
	}

	out = mustCall(t, s, "catalog_search", map[string]interface{}{"type": "Putter"})
	for _, v := range out["discs"].([]interface{}) {
		if typ := v.(map[string]interface{})["type"]; typ != "Putter" {
			t.Errorf("type filter leaked %v", typ)
		}
	}

	all := mustCall(t, s, "catalog_search", map[string]interface{}{})
	if all["count"] != float64(s.catalog.Len()) {
		t.Errorf("empty filter: got %v, want %d", all["count"], s.catalog.Len())
	}
}

func TestHandleToolsCall_CatalogInfo(t *testing.T) {
	s := newTestServer(t)
	out := mustCall(t, s, "catalog_info", nil)

	if len(out["manufacturers"].([]interface{})) == 0 {
		t.Error("manufacturers should not be empty")
	}
	if len(out["types"].([]interface{})) != 4 {
		t.Errorf("types: got %v", out["types"])
	}
}

func TestHandleToolsCall_BagShareAndLoad(t *testing.T) {
	s := newTestServer(t)

	b := bag.New(2)
	b.Name = "Weekend"
	_ = b.SelectDisc(0, 1)
	_ = b.SetPlastic(0, "Star")

	out := mustCall(t, s, "bag_share_url", map[string]interface{}{"bag": b, "base": "https://bagr.example/"})
	u := out["url"].(string)
	if !strings.HasPrefix(u, "https://bagr.example/#bag=") {
		t.Fatalf("url: got %s", u)
	}

	loaded := mustCall(t, s, "bag_load", map[string]interface{}{"url": u})
	if loaded["name"] != "Weekend" {
		t.Errorf("name: got %v", loaded["name"])
	}
	slots := loaded["bag"].([]interface{})
	if len(slots) != 2 || slots[0].(map[string]interface{})["plastic"] != "Star" {
		t.Errorf("slots: got %v", slots)
	}

	if _, mcpErr := callTool(t, s, "bag_load", map[string]interface{}{"url": "https://bagr.example/"}); mcpErr == nil {
		t.Error("bag_load should fail without a fragment")
	}
	if _, mcpErr := callTool(t, s, "bag_share_url", map[string]interface{}{"base": "x"}); mcpErr == nil {
		t.Error("bag_share_url should require a bag")
	}
}

func TestHandleToolsCall_BagSetPhoto(t *testing.T) {
	s := newTestServer(t)

	out := mustCall(t, s, "bag_set_photo", map[string]interface{}{
		"bag":    bag.New(3),
		"slot":   1,
		"source": redDiscFile(t),
	})
	slot := out["bag"].(map[string]interface{})["bag"].([]interface{})[1].(map[string]interface{})
	if slot["color"] != "#C02020" {
		t.Errorf("color: got %v", slot["color"])
	}
	if photo, _ := slot["photo"].(string); !strings.HasPrefix(photo, "data:image/jpeg;base64,") {
		t.Errorf("photo: %.40v", slot["photo"])
	}

	if _, mcpErr := callTool(t, s, "bag_set_photo", map[string]interface{}{
		"bag": bag.New(1), "slot": 4, "source": redDiscFile(t),
	}); mcpErr == nil {
		t.Error("out of range slot should fail")
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	_, mcpErr := callTool(t, s, "image_crop", map[string]interface{}{})
	if mcpErr == nil || mcpErr.Code != -32000 {
		t.Fatalf("expected -32000, got %v", mcpErr)
	}
	if !strings.Contains(mcpErr.Data.(string), "unknown tool") {
		t.Errorf("data: got %v", mcpErr.Data)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(t.Context(), &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1,2]`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}
