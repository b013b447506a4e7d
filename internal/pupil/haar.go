package pupil

import "image"

// locateHaar slides a (haarW,haarH) rectangle over the ROI's integral
// image and returns the top-left of the position of minimum adjusted mean
// intensity (§4.3): interior mean minus any overlap with the glint box,
// with both the overlap's area and its integral-image sum subtracted
// before dividing. Ties break to the first-seen (row-major) minimum.
func locateHaar(ii integralImage, haarW, haarH int, glint image.Rectangle) (image.Rectangle, bool) {
	if haarW <= 0 || haarH <= 0 || haarW > ii.w || haarH > ii.h {
		return image.Rectangle{}, false
	}

	best := 0.0
	bestX, bestY := 0, 0
	found := false

	area := float64(haarW * haarH)

	for y := 0; y+haarH <= ii.h; y++ {
		for x := 0; x+haarW <= ii.w; x++ {
			haarRect := image.Rect(x, y, x+haarW, y+haarH)
			sum := float64(ii.rectSum(haarRect))

			overlap := haarRect.Intersect(glint)
			var overlapArea, overlapSum float64
			if overlap.Dx() > 0 && overlap.Dy() > 0 {
				overlapArea = float64(overlap.Dx() * overlap.Dy())
				overlapSum = float64(ii.rectSum(overlap))
			}

			denom := area - overlapArea
			if denom <= 0 {
				continue
			}
			mean := (sum - overlapSum) / denom

			if !found || mean < best {
				best = mean
				bestX, bestY = x, y
				found = true
			}
		}
	}

	if !found {
		return image.Rectangle{}, false
	}
	topLeft := image.Pt(bestX, bestY)
	return image.Rectangle{Min: topLeft, Max: topLeft.Add(image.Pt(haarW, haarH))}, true
}
