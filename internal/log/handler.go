package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxValueLen is the longest string attribute written unchanged.
const MaxValueLen = 256

// keepPrefix is how much of a truncated value is kept.
const keepPrefix = 48

// PayloadHandler wraps an slog.Handler and shortens string attributes that
// carry image payloads. Data URIs and any string longer than MaxValueLen are
// replaced by a prefix and the original length, so a base64 photo never
// reaches the log.
type PayloadHandler struct {
	handler slog.Handler
}

// NewPayloadHandler wraps handler. A nil handler uses slog.Default().Handler().
func NewPayloadHandler(handler slog.Handler) *PayloadHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PayloadHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *PayloadHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's attributes and passes it on.
func (h *PayloadHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(truncateAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs truncates attrs before adding them.
func (h *PayloadHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	trimmed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		trimmed[i] = truncateAttr(a)
	}
	return &PayloadHandler{handler: h.handler.WithAttrs(trimmed)}
}

// WithGroup returns a handler for the named group.
func (h *PayloadHandler) WithGroup(name string) slog.Handler {
	return &PayloadHandler{handler: h.handler.WithGroup(name)}
}

func truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		trimmed := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			trimmed[i] = truncateAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(trimmed...)}
	}
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); isPayload(s) {
			return slog.String(a.Key, Truncate(s))
		}
	}
	return a
}

func isPayload(s string) bool {
	return len(s) > MaxValueLen || strings.HasPrefix(s, "data:")
}

// Truncate shortens s to a short prefix followed by its length. The prefix
// never splits a UTF-8 sequence.
func Truncate(s string) string {
	if len(s) <= keepPrefix {
		return s
	}
	cut := keepPrefix
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:cut], len(s))
}

// NewLogger returns a logger writing text, or JSON when json is set, to w
// through a PayloadHandler.
func NewLogger(w io.Writer, level slog.Level, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var inner slog.Handler
	if json {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewPayloadHandler(inner))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
