package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const (
	// OutputSize is the side length of the rendered slot icon.
	OutputSize = 400

	// DefaultQuality is the lossy encoder quality (0.92 on a 0-1 scale).
	DefaultQuality = 92

	fullFrameRatio = 0.9
	fullFrameClamp = 0.98
	rimInsetRatio  = 0.97
	minCropRatio   = 0.4
)

// Output formats accepted by Rasterize.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// CropRect is a square crop region in source pixel coordinates.
//
// A CropRect produced by PlanCrop always satisfies 0 <= X, 0 <= Y,
// X+Size <= width and Y+Size <= height.
type CropRect struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Size int `json:"size"`
}

// Rect converts the crop into an image.Rectangle.
func (c CropRect) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Size, c.Y+c.Size)
}

// PlanCrop turns a detected disc radius into a square crop centered on the
// image.
//
// The rules are applied in order:
//  1. A radius above 0.9 × maxRadius means the disc fills the frame; it is
//     clamped to 0.98 × maxRadius.
//  2. The radius shrinks by 3% so no background fringe survives the crop.
//  3. The radius never drops below 0.4 × maxRadius.
//  4. The side is ceil(2 × radius), kept within [1, min(width, height)],
//     and the origin is clamped so the square stays inside the image.
//
// A zero-size image yields the zero CropRect.
func PlanCrop(discRadius float64, width, height int) CropRect {
	if width <= 0 || height <= 0 {
		return CropRect{}
	}
	short := min(width, height)
	maxRadius := float64(short) / 2

	if discRadius > fullFrameRatio*maxRadius {
		discRadius = fullFrameClamp * maxRadius
	}
	cropRadius := rimInsetRatio * discRadius
	finalRadius := math.Max(cropRadius, minCropRatio*maxRadius)

	size := clamp(int(math.Ceil(2*finalRadius)), 1, short)
	x := int(math.Round(float64(width)/2 - float64(size)/2))
	y := int(math.Round(float64(height)/2 - float64(size)/2))

	return CropRect{
		X:    clamp(x, 0, width-size),
		Y:    clamp(y, 0, height-size),
		Size: size,
	}
}

// RenderOptions controls how Rasterize encodes its output.
type RenderOptions struct {
	// Format is one of FormatJPEG (default), FormatPNG or FormatWebP.
	Format string

	// Quality is the lossy encoder quality, 1-100. Zero means DefaultQuality.
	Quality int
}

// RenderResult contains the rendered slot icon.
type RenderResult struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`

	// DataURI is the encoded image as "data:<mime>;base64,<payload>".
	DataURI string `json:"data_uri"`

	// Image is the rendered image before encoding.
	Image image.Image `json:"-"`
}

// ErrEmptyCrop is returned when the crop rectangle selects no pixels.
var ErrEmptyCrop = errors.New("empty crop rectangle")

// Rasterize crops src to rect, scales the result to OutputSize × OutputSize
// and encodes it as a data URI.
//
// The crop is intersected with the source bounds first; an empty
// intersection returns ErrEmptyCrop.
func Rasterize(src image.Image, rect CropRect, opts RenderOptions) (*RenderResult, error) {
	if src == nil {
		return nil, ErrEmptyCrop
	}
	b := src.Bounds()
	r := rect.Rect().Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, ErrEmptyCrop
	}

	cropped := imaging.Crop(src, r)
	scaled := imaging.Resize(cropped, OutputSize, OutputSize, imaging.Linear)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	var mime string
	switch strings.ToLower(opts.Format) {
	case FormatPNG:
		mime = "image/png"
		if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
			return nil, fmt.Errorf("failed to encode png: %w", err)
		}
	case FormatWebP:
		mime = "image/webp"
		if err := webp.Encode(&buf, scaled, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("failed to encode webp: %w", err)
		}
	case "", FormatJPEG, "jpg":
		mime = "image/jpeg"
		if err := imaging.Encode(&buf, scaled, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown output format: %s", opts.Format)
	}

	return &RenderResult{
		Width:    OutputSize,
		Height:   OutputSize,
		MimeType: mime,
		DataURI:  EncodeDataURI(mime, buf.Bytes()),
		Image:    scaled,
	}, nil
}

// EncodeDataURI wraps data in a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
