package imaging

import (
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

const (
	// ScanAngles is the number of equally spaced rays cast from the center.
	ScanAngles = 120

	// innerBoundRatio is where a ray gives up, relative to maxRadius.
	innerBoundRatio = 0.15

	// missedEdgeRatio is the radius assigned to a ray that never leaves the
	// background, relative to maxRadius.
	missedEdgeRatio = 0.5

	// keepRatio is the share of the largest radii that are averaged.
	keepRatio = 0.9

	// LightBackgroundThreshold is the background distance cutoff on light
	// backgrounds, where anti-aliased rims blend close to white.
	LightBackgroundThreshold = 25.0

	// DarkBackgroundThreshold is the background distance cutoff otherwise.
	DarkBackgroundThreshold = 40.0
)

// EdgeThreshold returns the color distance below which a pixel is
// classified as background for the given estimate.
func EdgeThreshold(bg BackgroundEstimate) float64 {
	if bg.IsLight {
		return LightBackgroundThreshold
	}
	return DarkBackgroundThreshold
}

// DetectDiscRadius measures the radius of the disc centered in img.
//
// # Algorithm
//
//  1. Cast ScanAngles rays from the image center.
//  2. Walk each ray inward from maxRadius-1 to 0.15 × maxRadius one pixel
//     at a time. The first pixel whose distance to the background color
//     reaches EdgeThreshold marks the rim on that ray. Samples that fall
//     outside the image are skipped. A ray without a rim gets
//     0.5 × maxRadius.
//  3. Sort the radii in descending order and average the largest 90%.
//
// Glare, logos and stamps make some rays stop short; they rarely make a
// ray stop late, so the smallest radii are discarded.
//
// Rays are scanned concurrently. Each goroutine writes only its own slot,
// so the result does not depend on scheduling. An empty raster returns 0.
func DetectDiscRadius(img *RasterImage, bg BackgroundEstimate) float64 {
	radii := ScanRadii(img, bg, EdgeThreshold(bg))
	return aggregateRadii(radii)
}

// ScanRadii casts the rays and returns one radius per angle, in angle order.
// The threshold is the background distance cutoff to apply.
func ScanRadii(img *RasterImage, bg BackgroundEstimate, threshold float64) []float64 {
	if img.Empty() {
		return nil
	}

	maxRadius := img.MaxRadius()
	cx := float64(img.Width) / 2
	cy := float64(img.Height) / 2

	radii := make([]float64, ScanAngles)
	var g errgroup.Group
	for i := 0; i < ScanAngles; i++ {
		g.Go(func() error {
			angle := float64(i) * 2 * math.Pi / ScanAngles
			radii[i] = scanRay(img, bg.Color, threshold, cx, cy, math.Cos(angle), math.Sin(angle), maxRadius)
			return nil
		})
	}
	_ = g.Wait()

	return radii
}

// scanRay walks a single ray inward and returns its rim radius.
func scanRay(img *RasterImage, bg RGBColor, threshold, cx, cy, dx, dy, maxRadius float64) float64 {
	inner := innerBoundRatio * maxRadius
	for r := maxRadius - 1; r >= inner; r-- {
		x := int(math.Round(cx + r*dx))
		y := int(math.Round(cy + r*dy))
		if !img.In(x, y) {
			continue
		}
		if img.RGBAt(x, y).Distance(bg) >= threshold {
			return r
		}
	}
	return missedEdgeRatio * maxRadius
}

// aggregateRadii averages the largest 90% of the radii.
func aggregateRadii(radii []float64) float64 {
	if len(radii) == 0 {
		return 0
	}
	sorted := make([]float64, len(radii))
	copy(sorted, radii)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	keep := int(math.Floor(float64(len(sorted)) * keepRatio))
	if keep < 1 {
		keep = 1
	}
	return stat.Mean(sorted[:keep], nil)
}
