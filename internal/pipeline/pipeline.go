package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"time"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
)

// Fallback names the failure a Result was resolved from.
type Fallback string

const (
	FallbackNone         Fallback = ""
	FallbackDecode       Fallback = "decode"
	FallbackAccessDenied Fallback = "access_denied"
	FallbackDegenerate   Fallback = "degenerate"
	FallbackLoad         Fallback = "load"
	FallbackCanceled     Fallback = "canceled"
	FallbackRasterize    Fallback = "rasterize"
)

// Result is the outcome of processing one photo.
//
// CroppedImageData and DominantColorHex form the contract with the bag:
// the first is either the rendered data URI or the original reference, the
// second is always a "#RRGGBB" string. The remaining fields are diagnostics.
type Result struct {
	CroppedImageData string `json:"croppedImageData"`
	DominantColorHex string `json:"dominantColorHex"`

	// Cropped is true when CroppedImageData holds the rendered icon.
	Cropped  bool     `json:"cropped"`
	Fallback Fallback `json:"fallback,omitempty"`
	Error    string   `json:"error,omitempty"`

	Source   string                `json:"source"`
	Analysis *Analysis             `json:"analysis,omitempty"`
	Color    imaging.DominantColor `json:"color"`
	Render   *imaging.RenderResult `json:"-"`
	Elapsed  time.Duration         `json:"elapsedNs"`
}

// Analysis holds the outputs of the geometric stages.
type Analysis struct {
	Width      int                        `json:"width"`
	Height     int                        `json:"height"`
	Background imaging.BackgroundEstimate `json:"background"`
	Threshold  float64                    `json:"threshold"`
	DiscRadius float64                    `json:"discRadius"`
	Crop       imaging.CropRect           `json:"crop"`
}

// Analyze runs background sampling, radius detection and crop planning on
// img. It is safe on empty images, which yield a zero Analysis.
func Analyze(img image.Image) Analysis {
	raster := imaging.NewRasterImage(img)
	if raster.Empty() {
		return Analysis{}
	}
	bg := imaging.SampleBackground(raster)
	radius := imaging.DetectDiscRadius(raster, bg)
	return Analysis{
		Width:      raster.Width,
		Height:     raster.Height,
		Background: bg,
		Threshold:  imaging.EdgeThreshold(bg),
		DiscRadius: radius,
		Crop:       imaging.PlanCrop(radius, raster.Width, raster.Height),
	}
}

// Pipeline processes disc photos. It is safe for concurrent use.
type Pipeline struct {
	logger *slog.Logger
	load   imaging.LoadOptions
	render imaging.RenderOptions
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithLoadOptions sets how sources are read and fetched.
func WithLoadOptions(opts imaging.LoadOptions) Option {
	return func(p *Pipeline) {
		p.load = opts
	}
}

// WithRenderOptions sets the output format and quality of the icon.
func WithRenderOptions(opts imaging.RenderOptions) Option {
	return func(p *Pipeline) {
		p.render = opts
	}
}

// New creates a Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// With returns a copy of p with opts applied.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	cp := *p
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// RenderOptions returns the configured output settings.
func (p *Pipeline) RenderOptions() imaging.RenderOptions {
	return p.render
}

// Load reads and decodes src with the pipeline's load settings.
func (p *Pipeline) Load(ctx context.Context, src imaging.Source) (*imaging.Loaded, error) {
	return imaging.LoadSource(ctx, src, p.load)
}

// ProcessRef parses ref as a path, URL or data URI and processes it.
func (p *Pipeline) ProcessRef(ctx context.Context, ref string) *Result {
	return p.Process(ctx, imaging.ParseSource(ref))
}

// Process runs every stage on src and always returns a usable Result.
func (p *Pipeline) Process(ctx context.Context, src imaging.Source) *Result {
	start := time.Now()

	loaded, err := p.Load(ctx, src)
	if err != nil {
		ref := src.Ref()
		if loaded != nil && loaded.Ref != "" {
			ref = loaded.Ref
		}
		result := &Result{
			CroppedImageData: ref,
			DominantColorHex: imaging.DefaultColorHex,
			Fallback:         Classify(err),
			Error:            err.Error(),
			Source:           src.Kind.String(),
			Color:            imaging.DefaultDominantColor(),
			Elapsed:          time.Since(start),
		}
		p.logger.Warn("using original photo",
			"source", src.Kind,
			"fallback", result.Fallback,
			"error", err,
		)
		return result
	}

	analysis := Analyze(loaded.Image)
	result := &Result{
		Source:   src.Kind.String(),
		Analysis: &analysis,
	}

	rendered, err := imaging.Rasterize(loaded.Image, analysis.Crop, p.render)
	if err != nil {
		result.CroppedImageData = loaded.Ref
		result.Fallback = FallbackRasterize
		result.Error = err.Error()
		result.Color = imaging.SampleDominantColor(loaded.Image)
		p.logger.Warn("crop failed, using original photo",
			"source", src.Kind,
			"crop", analysis.Crop,
			"error", err,
		)
	} else {
		result.CroppedImageData = rendered.DataURI
		result.Cropped = true
		result.Render = rendered
		result.Color = imaging.SampleDominantColor(rendered.Image)
	}
	result.DominantColorHex = result.Color.Hex
	result.Elapsed = time.Since(start)

	p.logger.Info("processed disc photo",
		"source", src.Kind,
		"width", analysis.Width,
		"height", analysis.Height,
		"light_background", analysis.Background.IsLight,
		"radius", analysis.DiscRadius,
		"crop_size", analysis.Crop.Size,
		"color", result.DominantColorHex,
		"elapsed", result.Elapsed,
	)
	return result
}

// Classify names the fallback for a load error.
func Classify(err error) Fallback {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FallbackCanceled
	case errors.Is(err, imaging.ErrAccessDenied):
		return FallbackAccessDenied
	case errors.Is(err, imaging.ErrDegenerate):
		return FallbackDegenerate
	case errors.Is(err, imaging.ErrDecode):
		return FallbackDecode
	default:
		return FallbackLoad
	}
}
