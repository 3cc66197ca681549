package imaging

import (
	"image"
	"math"
)

const (
	// locateMaxSide bounds the working resolution of LocateDisc.
	locateMaxSide = 160

	// locateAngles is the number of directions each rim pixel votes along.
	locateAngles = 36

	locateMinRadius = 4

	// minLocateConfidence is the share of directions that must agree.
	minLocateConfidence = 0.5

	// CenteredTolerance is the largest Offset still reported as centered.
	CenteredTolerance = 0.1
)

// DiscLocation is where circle voting places the disc.
type DiscLocation struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Radius  float64 `json:"radius"`

	// Confidence is the share of voting directions that agree, 0 to 1.
	Confidence float64 `json:"confidence"`

	// Offset is the distance from the image center in units of Radius.
	Offset float64 `json:"offset"`
}

// Centered reports whether the disc sits close enough to the image center
// for the radial scan to measure it.
func (l DiscLocation) Centered() bool {
	return l.Offset <= CenteredTolerance
}

// LocateDisc finds the disc without assuming it is centered, using circle
// Hough voting on the rim pixels.
//
// The image is subsampled so its longer side is at most 160 pixels. A
// pixel is foreground when its distance to the background color reaches
// EdgeThreshold; rim pixels are foreground pixels with a background
// 4-neighbor. For every candidate radius each rim pixel votes for the
// centers 36 directions away, and a center scores the votes in its 3×3
// neighborhood. The best score wins, larger radii on ties.
//
// It returns false when no circle collects votes from at least half of the
// directions.
func LocateDisc(img *RasterImage, bg BackgroundEstimate) (DiscLocation, bool) {
	if img.Empty() {
		return DiscLocation{}, false
	}

	step := (max(img.Width, img.Height) + locateMaxSide - 1) / locateMaxSide
	w := (img.Width + step - 1) / step
	h := (img.Height + step - 1) / step
	threshold := EdgeThreshold(bg)

	fg := make([]bool, w*h)
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			fg[sy*w+sx] = img.RGBAt(sx*step, sy*step).Distance(bg.Color) >= threshold
		}
	}

	var rim []image.Point
	for sy := 1; sy < h-1; sy++ {
		for sx := 1; sx < w-1; sx++ {
			i := sy*w + sx
			if fg[i] && (!fg[i-1] || !fg[i+1] || !fg[i-w] || !fg[i+w]) {
				rim = append(rim, image.Pt(sx, sy))
			}
		}
	}
	if len(rim) == 0 {
		return DiscLocation{}, false
	}

	var cos, sin [locateAngles]float64
	for k := range locateAngles {
		a := float64(k) * 2 * math.Pi / locateAngles
		cos[k], sin[k] = math.Cos(a), math.Sin(a)
	}

	minR := max(locateMinRadius, min(w, h)/10)
	maxR := max(w, h) / 2

	type candidate struct{ x, y, r, score int }
	var best candidate
	acc := make([]int, w*h)
	for r := minR; r <= maxR; r++ {
		clear(acc)
		for _, p := range rim {
			for k := range locateAngles {
				cx := p.X - int(math.Round(float64(r)*cos[k]))
				cy := p.Y - int(math.Round(float64(r)*sin[k]))
				if cx >= 0 && cx < w && cy >= 0 && cy < h {
					acc[cy*w+cx]++
				}
			}
		}
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				if acc[y*w+x] == 0 {
					continue
				}
				score := 0
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						score += acc[(y+dy)*w+x+dx]
					}
				}
				if score >= best.score {
					best = candidate{x, y, r, score}
				}
			}
		}
	}

	confidence := math.Min(1, float64(best.score)/locateAngles)
	if confidence < minLocateConfidence {
		return DiscLocation{}, false
	}

	half := float64(step-1) / 2
	loc := DiscLocation{
		CenterX:    float64(best.x*step) + half,
		CenterY:    float64(best.y*step) + half,
		Radius:     float64(best.r * step),
		Confidence: confidence,
	}
	loc.Offset = math.Hypot(loc.CenterX-float64(img.Width)/2, loc.CenterY-float64(img.Height)/2) / loc.Radius
	return loc, true
}
