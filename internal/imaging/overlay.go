package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// OverlayResult contains the annotated debug image.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

var (
	rimColor    = color.NRGBA{0, 255, 0, 255}     // detected rim
	cropColor   = color.NRGBA{255, 204, 0, 255}   // crop square
	cornerColor = color.NRGBA{0, 170, 255, 255}   // background sample bands
	labelFg     = color.NRGBA{255, 255, 255, 255} // label text
	labelBg     = color.NRGBA{0, 0, 0, 180}       // label backdrop
)

// Overlay draws the analysis onto a copy of img: the corner bands used for
// the background estimate, the detected rim circle, the crop square and a
// label with the detected radius in pixels.
func Overlay(img image.Image, radius float64, crop CropRect) (*OverlayResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrDegenerate
	}

	result := imaging.Clone(img)
	w, h := result.Bounds().Dx(), result.Bounds().Dy()
	stroke := int(math.Max(1, 0.004*float64(min(w, h))))

	band := int(cornerBandRatio * float64(min(w, h)))
	if band < 1 {
		band = 1
	}
	for _, origin := range []image.Point{{0, 0}, {w - band, 0}, {0, h - band}, {w - band, h - band}} {
		drawRect(result, image.Rect(origin.X, origin.Y, origin.X+band, origin.Y+band), cornerColor, 1)
	}

	drawCircle(result, float64(w)/2, float64(h)/2, radius, rimColor, stroke)
	drawRect(result, crop.Rect(), cropColor, stroke)
	drawLabel(result, crop.X+stroke+2, crop.Y+stroke+2, fmt.Sprintf("%d", int(math.Round(radius))), labelFg, labelBg)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, result, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	return &OverlayResult{
		Width:       w,
		Height:      h,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// setPixel writes c at (x, y) when the point is inside img.
func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

// drawRect outlines r with the given stroke width, drawn inward.
func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setPixel(img, x, r.Min.Y+s, c)
			setPixel(img, x, r.Max.Y-1-s, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setPixel(img, r.Min.X+s, y, c)
			setPixel(img, r.Max.X-1-s, y, c)
		}
	}
}

// drawCircle plots a circle outline by stepping the angle finely enough to
// leave no gaps at the given radius.
func drawCircle(img *image.NRGBA, cx, cy, radius float64, c color.NRGBA, stroke int) {
	if radius <= 0 {
		return
	}
	steps := int(2*math.Pi*radius) + 1
	for s := 0; s < stroke; s++ {
		r := radius - float64(s)
		for i := 0; i < steps; i++ {
			a := float64(i) * 2 * math.Pi / float64(steps)
			setPixel(img, int(math.Round(cx+r*math.Cos(a))), int(math.Round(cy+r*math.Sin(a))), c)
		}
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font that covers digits only.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setPixel(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setPixel(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
