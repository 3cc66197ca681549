package imaging

import (
	"gonum.org/v1/gonum/stat"
)

const (
	// cornerBandRatio is the corner square size relative to the shorter side.
	cornerBandRatio = 0.08

	// cornerStep is the sampling stride inside each corner square.
	cornerStep = 3

	// lightChannelMin is the level every averaged channel must exceed for the
	// background to count as light.
	lightChannelMin = 200
)

// BackgroundEstimate is the averaged color of the photo's corners.
type BackgroundEstimate struct {
	Color RGBColor `json:"color"`

	// IsLight is true when every channel of Color exceeds 200. Light
	// backgrounds use a tighter edge threshold.
	IsLight bool `json:"is_light"`
}

// SampleBackground estimates the background color from the four corners.
//
// A square band of 0.08 × min(width, height) pixels (at least one) is
// walked in every corner with a stride of 3 in both axes. The channel means
// of all samples form the estimate. An empty raster yields the zero value.
func SampleBackground(img *RasterImage) BackgroundEstimate {
	if img.Empty() {
		return BackgroundEstimate{}
	}

	w, h := img.Width, img.Height
	band := int(cornerBandRatio * float64(min(w, h)))
	if band < 1 {
		band = 1
	}

	var rs, gs, bs []float64
	sample := func(x, y int) {
		c := img.RGBAt(clamp(x, 0, w-1), clamp(y, 0, h-1))
		rs = append(rs, float64(c.R))
		gs = append(gs, float64(c.G))
		bs = append(bs, float64(c.B))
	}

	for dy := 0; dy < band; dy += cornerStep {
		for dx := 0; dx < band; dx += cornerStep {
			sample(dx, dy)         // top-left
			sample(w-1-dx, dy)     // top-right
			sample(dx, h-1-dy)     // bottom-left
			sample(w-1-dx, h-1-dy) // bottom-right
		}
	}

	mr, mg, mb := stat.Mean(rs, nil), stat.Mean(gs, nil), stat.Mean(bs, nil)
	return BackgroundEstimate{
		Color:   RGBColor{R: uint8(mr + 0.5), G: uint8(mg + 0.5), B: uint8(mb + 0.5)},
		IsLight: mr > lightChannelMin && mg > lightChannelMin && mb > lightChannelMin,
	}
}

// clamp constrains an integer value to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
