package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPayloadHandler_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", MaxValueLen+1)
	dataURI := "data:image/jpeg;base64," + strings.Repeat("A", 200)

	tests := []struct {
		name      string
		value     string
		wantTrunc bool
	}{
		{"short value is kept", "disc.jpg", false},
		{"value at the limit is kept", strings.Repeat("y", MaxValueLen), false},
		{"long value is truncated", long, true},
		{"data URI is truncated", dataURI, true},
		{"short data URI is kept", "data:,", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelInfo, false)
			logger.Info("test", "v", tt.value)

			out := buf.String()
			if tt.wantTrunc {
				if strings.Contains(out, tt.value) {
					t.Errorf("value was not truncated: %s", out)
				}
				if !strings.Contains(out, "bytes)") {
					t.Errorf("expected the length marker: %s", out)
				}
			} else if !strings.Contains(out, tt.value) {
				t.Errorf("value should be kept: %s", out)
			}
		})
	}
}

func TestPayloadHandler_GroupsAndWithAttrs(t *testing.T) {
	t.Parallel()

	dataURI := "data:image/png;base64," + strings.Repeat("B", 400)

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, true).
		With("photo", dataURI).
		WithGroup("result")
	logger.Info("done", slog.Group("render", slog.String("data", dataURI), slog.Int("width", 512)))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if got := rec["photo"].(string); got != Truncate(dataURI) {
		t.Errorf("photo: got %q", got)
	}
	render := rec["result"].(map[string]any)["render"].(map[string]any)
	if got := render["data"].(string); got != Truncate(dataURI) {
		t.Errorf("render.data: got %q", got)
	}
	if render["width"].(float64) != 512 {
		t.Errorf("render.width: got %v", render["width"])
	}
}

func TestNewLogger_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, false)
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("short"); got != "short" {
		t.Errorf("got %q", got)
	}
	s := strings.Repeat("z", 100)
	if got, want := Truncate(s), strings.Repeat("z", 48)+"...(100 bytes)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// 47 ASCII bytes put the three-byte "€" across the 48-byte cut.
	mixed := strings.Repeat("a", 47) + strings.Repeat("€", 20)
	got := Truncate(mixed)
	if want := strings.Repeat("a", 47) + "...(107 bytes)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated string is not valid UTF-8: %q", got)
	}
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	if Discard().Enabled(t.Context(), slog.LevelError) {
		t.Error("Discard logger should not be enabled")
	}
}
