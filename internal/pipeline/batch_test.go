package pipeline

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
)

func TestNewBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("creates processor with defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(nil)
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected default concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.pipeline == nil || bp.logger == nil {
			t.Error("expected pipeline and logger to be set")
		}
	})

	t.Run("applies WithConcurrency option", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(New(), WithConcurrency(2))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(New(), WithConcurrency(-1))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	t.Parallel()

	red := discPNG(t, 120, 120, color.RGBA{40, 120, 40, 255}, color.RGBA{200, 40, 40, 255}, 40)
	blue := discPNG(t, 160, 120, color.RGBA{250, 250, 250, 255}, color.RGBA{30, 30, 220, 255}, 45)

	sources := []imaging.Source{
		imaging.BytesSource(red, "image/png"),
		imaging.BytesSource([]byte("garbage"), ""),
		imaging.BytesSource(blue, "image/png"),
	}

	p := New(WithLogger(discardLogger()))
	bp := NewBatchProcessor(p, WithConcurrency(2), WithBatchLogger(discardLogger()))

	results, err := bp.ProcessBatch(context.Background(), sources)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if len(results) != len(sources) {
		t.Fatalf("expected %d results, got %d", len(sources), len(results))
	}

	want := []struct {
		hex      string
		fallback Fallback
	}{
		{"#C02020", FallbackNone},
		{imaging.DefaultColorHex, FallbackDecode},
		{"#2020E0", FallbackNone},
	}
	for i, w := range want {
		if results[i] == nil {
			t.Fatalf("result %d is nil", i)
		}
		if results[i].DominantColorHex != w.hex {
			t.Errorf("result %d: color %s, want %s", i, results[i].DominantColorHex, w.hex)
		}
		if results[i].Fallback != w.fallback {
			t.Errorf("result %d: fallback %q, want %q", i, results[i].Fallback, w.fallback)
		}
	}
}

func TestBatchProcessor_MatchesSequential(t *testing.T) {
	t.Parallel()

	var sources []imaging.Source
	for i := 0; i < 6; i++ {
		r := float64(25 + 5*i)
		sources = append(sources, imaging.BytesSource(
			discPNG(t, 100, 100, color.RGBA{10, 80, 10, 255}, color.RGBA{uint8(40 * i), 100, 200, 255}, r), ""))
	}

	p := New(WithLogger(discardLogger()))
	results, err := NewBatchProcessor(p, WithBatchLogger(discardLogger())).ProcessBatch(context.Background(), sources)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}

	for i, src := range sources {
		seq := p.Process(context.Background(), src)
		if results[i].DominantColorHex != seq.DominantColorHex || *results[i].Analysis != *seq.Analysis {
			t.Errorf("source %d: batch result differs from sequential run", i)
		}
	}
}

func TestBatchProcessor_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sources := []imaging.Source{imaging.BytesSource([]byte("x"), ""), imaging.BytesSource([]byte("y"), "")}
	bp := NewBatchProcessor(New(WithLogger(discardLogger())), WithBatchLogger(discardLogger()))

	results, err := bp.ProcessBatch(ctx, sources)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	for i, r := range results {
		if r != nil {
			t.Errorf("result %d should not have run", i)
		}
	}
}

func TestBatchProcessor_ProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	sources := []imaging.Source{
		imaging.BytesSource([]byte("a"), ""),
		imaging.BytesSource([]byte("b"), ""),
		imaging.BytesSource([]byte("c"), ""),
	}
	bp := NewBatchProcessor(New(WithLogger(discardLogger())), WithBatchLogger(discardLogger()))

	var mu sync.Mutex
	seen := make(map[int]bool)
	err := bp.ProcessBatchWithCallback(context.Background(), sources, func(r *Result, i int) {
		mu.Lock()
		defer mu.Unlock()
		seen[i] = true
	})
	if err != nil {
		t.Fatalf("ProcessBatchWithCallback failed: %v", err)
	}
	if len(seen) != len(sources) {
		t.Errorf("callback ran for %d sources, want %d", len(seen), len(sources))
	}
}
