package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/transform"
)

const (
	// SampleGrid is the side of the square grid the image is reduced to.
	SampleGrid = 100

	// centerRadiusRatio restricts sampling to a disk around the grid center
	// so a contrasting rim cannot dominate the histogram.
	centerRadiusRatio = 0.30

	minAlpha      = 128
	minBrightness = 30
	maxBrightness = 240

	quantStep = 32

	// quantLevels is the number of values a quantized channel can take
	// (0, 32, ..., 224, 255).
	quantLevels = 256/quantStep + 1
)

// DominantColor is the representative color of a disc photo.
type DominantColor struct {
	Hex string   `json:"hex"`
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`

	// Samples is the number of grid pixels that passed the filters.
	Samples int `json:"samples"`

	// Default is true when no pixel qualified and DefaultColorHex was used.
	Default bool `json:"default"`
}

// DefaultDominantColor returns the fallback placeholder color.
func DefaultDominantColor() DominantColor {
	c, _ := ParseHexColor(DefaultColorHex)
	return DominantColor{
		Hex:     DefaultColorHex,
		RGB:     c,
		HSL:     c.HSL(),
		Default: true,
	}
}

// SampleDominantColor extracts one representative color from img.
//
// The image is resized to a SampleGrid × SampleGrid grid. Only pixels
// within 0.30 × SampleGrid of the grid center count. Of those, pixels with
// alpha below 128 or an average brightness outside [30, 240] are treated as
// transparency, shadow or glare and skipped. Each remaining channel is
// rounded to the nearest multiple of 32 (capped at 255) and tallied. The
// most frequent bucket wins; ties go to the bucket seen first in row-major
// order.
//
// If img is nil or no pixel qualifies, DefaultDominantColor is returned.
func SampleDominantColor(img image.Image) DominantColor {
	if img == nil || img.Bounds().Empty() {
		return DefaultDominantColor()
	}

	grid := transform.Resize(img, SampleGrid, SampleGrid, transform.Linear)

	var counts [quantLevels * quantLevels * quantLevels]int
	order := make([]int, 0, 64)

	center := float64(SampleGrid) / 2
	limit := centerRadiusRatio * SampleGrid
	samples := 0

	for y := 0; y < SampleGrid; y++ {
		for x := 0; x < SampleGrid; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy > limit*limit {
				continue
			}
			c := color.NRGBAModel.Convert(grid.At(x, y)).(color.NRGBA)
			if c.A < minAlpha {
				continue
			}
			px := RGBColor{R: c.R, G: c.G, B: c.B}
			if br := px.Brightness(); br < minBrightness || br > maxBrightness {
				continue
			}
			key := bucketKey(px)
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
			samples++
		}
	}

	if samples == 0 {
		return DefaultDominantColor()
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}

	rgb := bucketColor(best)
	return DominantColor{
		Hex:     rgb.Hex(),
		RGB:     rgb,
		HSL:     rgb.HSL(),
		Samples: samples,
	}
}

// Quantize rounds each channel to the nearest multiple of 32, capped at 255.
func Quantize(c RGBColor) RGBColor {
	return RGBColor{R: quantizeChannel(c.R), G: quantizeChannel(c.G), B: quantizeChannel(c.B)}
}

func quantizeChannel(v uint8) uint8 {
	q := int(math.Round(float64(v)/quantStep)) * quantStep
	return uint8(min(q, 255))
}

// bucketKey maps a color to its histogram slot.
func bucketKey(c RGBColor) int {
	level := func(v uint8) int { return int(math.Round(float64(v) / quantStep)) }
	return (level(c.R)*quantLevels+level(c.G))*quantLevels + level(c.B)
}

// bucketColor is the inverse of bucketKey.
func bucketColor(key int) RGBColor {
	ch := func(level int) uint8 { return uint8(min(level*quantStep, 255)) }
	b := key % quantLevels
	g := (key / quantLevels) % quantLevels
	r := key / (quantLevels * quantLevels)
	return RGBColor{R: ch(r), G: ch(g), B: ch(b)}
}
