package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// createInMemoryImage creates a solid in-memory test image
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createDiscImage draws a solid disc of the given radius centered on a
// uniform background.
func createDiscImage(width, height int, bg, disc color.Color, radius float64) *image.RGBA {
	return createRingDiscImage(width, height, bg, disc, disc, radius, radius)
}

// createRingDiscImage draws a disc whose center (up to innerRadius) has one
// color and whose rim (innerRadius to outerRadius) has another.
func createRingDiscImage(width, height int, bg, center, rim color.Color, innerRadius, outerRadius float64) *image.RGBA {
	img := createInMemoryImage(width, height, bg)
	cx, cy := float64(width)/2, float64(height)/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			d2 := dx*dx + dy*dy
			switch {
			case d2 <= innerRadius*innerRadius:
				img.Set(x, y, center)
			case d2 <= outerRadius*outerRadius:
				img.Set(x, y, rim)
			}
		}
	}
	return img
}

// encodePNG encodes img for loader tests
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func withinPercent(got, want, pct float64) bool {
	tol := want * pct / 100
	return got >= want-tol && got <= want+tol
}
