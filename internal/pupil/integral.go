package pupil

import (
	"fmt"
	"image"
)

// integralImage is a summed-area table over a grid's intensities, padded by
// one row and one column of zeros so lookups never need a boundary branch.
// Sums use uint32 accumulators per §5 ("intensity sums use an unsigned
// 32-bit or wider accumulator").
type integralImage struct {
	w, h int // dimensions of the *source* grid (table is (w+1)x(h+1))
	sum  []uint32
}

func newIntegralImage(g grid) (integralImage, error) {
	if g.w <= 0 || g.h <= 0 {
		return integralImage{}, fmt.Errorf("pupil: integral image: %w", ErrInputDimensions)
	}
	stride := g.w + 1
	ii := integralImage{w: g.w, h: g.h, sum: make([]uint32, stride*(g.h+1))}
	for y := 1; y <= g.h; y++ {
		var rowSum uint32
		for x := 1; x <= g.w; x++ {
			rowSum += uint32(g.at(x-1, y-1))
			ii.sum[y*stride+x] = ii.sum[(y-1)*stride+x] + rowSum
		}
	}
	return ii, nil
}

// at returns the cumulative sum over [0,x] x [0,y] in source-grid
// coordinates (inclusive), the definition checked by the integral-image
// correctness property.
func (ii integralImage) at(x, y int) uint32 {
	stride := ii.w + 1
	return ii.sum[(y+1)*stride+(x+1)]
}

// rectSum returns the sum of pixels strictly within r (r clipped to the
// image bounds first), using the standard four-term recurrence.
func (ii integralImage) rectSum(r image.Rectangle) uint32 {
	r = rectClamp(r, ii.w, ii.h)
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return 0
	}
	stride := ii.w + 1
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X, r.Max.Y
	return ii.sum[y1*stride+x1] - ii.sum[y0*stride+x1] - ii.sum[y1*stride+x0] + ii.sum[y0*stride+x0]
}

// locateGlint finds the brightest small specular reflection within the ROI
// grid, per §4.2. gw is glintSize. Returns the glint box top-left in
// ROI-local coordinates, offset by round(0.5*glintSize) toward the centre.
func locateGlint(g grid, gw int) image.Rectangle {
	if gw <= 0 {
		return image.Rectangle{}
	}
	bestRatio := -1.0
	bestX, bestY := gw, gw
	found := false

	for y := gw; y < g.h-gw; y++ {
		for x := gw; x < g.w-gw; x++ {
			var centreSum, outerSum uint32
			centreSum += uint32(g.at(x, y))
			for _, d := range ring8 {
				centreSum += uint32(g.at(x+d.dx, y+d.dy))
				outerSum += uint32(g.at(x+d.dx*gw, y+d.dy*gw))
			}
			if outerSum == 0 {
				continue
			}
			ratio := float64(centreSum) / float64(outerSum)
			if ratio > bestRatio {
				bestRatio = ratio
				bestX, bestY = x, y
				found = true
			}
		}
	}
	if !found {
		return image.Rectangle{}
	}
	off := int(0.5*float64(gw) + 0.5)
	topLeft := image.Pt(bestX-off, bestY-off)
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(gw, gw))}
}
