package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// RasterImage is an immutable row-major buffer of non-premultiplied 8-bit
// RGBA samples. Pixel (x, y) starts at Pix[y*Stride+x*4].
type RasterImage struct {
	Width  int
	Height int
	Stride int
	Pix    []uint8
}

// NewRasterImage copies img into a RasterImage. The source bounds are
// translated so the result always starts at (0, 0). A nil image yields an
// empty raster.
func NewRasterImage(img image.Image) *RasterImage {
	if img == nil {
		return &RasterImage{}
	}
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &RasterImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: nrgba.Stride,
		Pix:    nrgba.Pix,
	}
}

// Empty reports whether the raster has no pixels.
func (r *RasterImage) Empty() bool {
	return r == nil || r.Width <= 0 || r.Height <= 0
}

// In reports whether (x, y) addresses a pixel of the raster.
func (r *RasterImage) In(x, y int) bool {
	return !r.Empty() && x >= 0 && y >= 0 && x < r.Width && y < r.Height
}

// RGBAt returns the color channels at (x, y). The caller must ensure the
// coordinate is in bounds.
func (r *RasterImage) RGBAt(x, y int) RGBColor {
	i := y*r.Stride + x*4
	return RGBColor{R: r.Pix[i], G: r.Pix[i+1], B: r.Pix[i+2]}
}

// AlphaAt returns the alpha channel at (x, y).
func (r *RasterImage) AlphaAt(x, y int) uint8 {
	return r.Pix[y*r.Stride+x*4+3]
}

// MaxRadius is half the shorter side, the largest circle centered on the
// image that stays inside it.
func (r *RasterImage) MaxRadius() float64 {
	if r.Empty() {
		return 0
	}
	return float64(min(r.Width, r.Height)) / 2
}
