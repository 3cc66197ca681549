package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of photos processed at once when no
// limit is configured.
const DefaultConcurrency = 4

// BatchProcessor processes the photos of several bag slots concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	pipeline    *Pipeline
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent invocations.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor that shares p between all
// invocations.
func NewBatchProcessor(p *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipeline:    p,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	if bp.pipeline == nil {
		bp.pipeline = New(WithLogger(bp.logger))
	}
	return bp
}

// ProcessBatch processes sources concurrently. results[i] belongs to
// sources[i]. Individual failures resolve to fallback results; the error is
// non-nil only when ctx ended before every source was started, in which case
// the entries that never ran are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []imaging.Source) ([]*Result, error) {
	results := make([]*Result, len(sources))
	err := bp.ProcessBatchWithCallback(ctx, sources, func(r *Result, i int) {
		results[i] = r
	})
	return results, err
}

// ProcessBatchWithCallback processes sources and calls callback for each
// completed result with its index in sources. The callback runs on the
// goroutine that finished the work, so it must be safe for concurrent use
// when it touches shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []imaging.Source,
	callback func(result *Result, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total", len(sources),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := bp.pipeline.Process(ctx, src)
			if result.Fallback != FallbackNone {
				bp.logger.Warn("slot resolved to fallback",
					"index", i,
					"fallback", result.Fallback,
				)
			}
			callback(result, i)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total", len(sources),
		"elapsed", time.Since(startTime),
	)
	return err
}
