package imaging

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultColorHex is the placeholder color returned whenever no dominant
// color can be sampled from a photo.
const DefaultColorHex = "#6366F1"

// RGBColor represents an RGB color with 8-bit components.
//
// Each component ranges from 0 to 255, where:
//   - 0 represents no intensity (black for all components)
//   - 255 represents full intensity (white for all components)
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// Equal reports whether c and o have identical components.
func (c RGBColor) Equal(o RGBColor) bool {
	return c.R == o.R && c.G == o.G && c.B == o.B
}

// Distance returns the Euclidean distance between c and o in 8-bit RGB space.
// The result ranges from 0 (identical) to about 441.7 (black vs white).
func (c RGBColor) Distance(o RGBColor) float64 {
	dr := float64(c.R) - float64(o.R)
	dg := float64(c.G) - float64(o.G)
	db := float64(c.B) - float64(o.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Hex returns the color as an upper-case "#RRGGBB" string.
func (c RGBColor) Hex() string {
	return strings.ToUpper(c.colorful().Hex())
}

func (c RGBColor) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

func fromColorful(cf colorful.Color) RGBColor {
	r, g, b := cf.RGB255()
	return RGBColor{R: r, G: g, B: b}
}

// Brightness returns the unweighted channel average (r+g+b)/3.
func (c RGBColor) Brightness() float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}

// HSL converts the color to HSL using go-colorful.
//
// Hue is reported in whole degrees, saturation and lightness in whole
// percent. Achromatic colors report a hue of 0.
func (c RGBColor) HSL() HSLColor {
	h, s, l := c.colorful().Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}

// ParseHexColor parses "#RRGGBB", "RRGGBB" or the short "#RGB" form.
func ParseHexColor(s string) (RGBColor, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	// colorful.Hex reads at most two digits per channel and ignores the
	// rest, so the length and digits are checked first.
	if (len(s) != 7 && len(s) != 4) || strings.IndexFunc(s[1:], notHexDigit) >= 0 {
		return RGBColor{}, fmt.Errorf("invalid hex color %q", s)
	}
	cf, err := colorful.Hex(s)
	if err != nil {
		return RGBColor{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return fromColorful(cf), nil
}

func notHexDigit(r rune) bool {
	return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F')
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"` // Hex format "#RRGGBB"
	RGB RGBColor `json:"rgb"` // RGB components
	HSL HSLColor `json:"hsl"` // HSL representation
}

// NewColorResult expands c into all of its representations.
func NewColorResult(c RGBColor) ColorResult {
	return ColorResult{
		Hex: c.Hex(),
		RGB: c,
		HSL: c.HSL(),
	}
}

// SampleColor extracts the color at a pixel of a raster image.
//
// Returns an error if (x, y) lies outside the image.
func SampleColor(img *RasterImage, x, y int) (*ColorResult, error) {
	if !img.In(x, y) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	c := NewColorResult(img.RGBAt(x, y))
	return &c, nil
}
