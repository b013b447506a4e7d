package pupil

import "image"

// planROI computes the clipped ROI and the extended Haar box for one frame
// (§4.1). haarSize is the nominal (unpadded) Haar rectangle size, derived
// from the prior circumference prediction by the caller (detect.go).
func planROI(imgW, imgH int, prior State, haarSize image.Point, cfg Config, other *OtherPrior) (roi image.Rectangle, haarBox image.Rectangle, ok bool) {
	if imgW <= 0 || imgH <= 0 {
		return image.Rectangle{}, image.Rectangle{}, false
	}

	cx, cy := int(prior.XPosPredicted), int(prior.YPosPredicted)
	r := int(prior.SearchRadius)

	roi = image.Rect(cx-r, cy-r, cx+r, cy+r)

	if other != nil && other.DetectionOn {
		half := imgW / 2
		if other.Center.X <= half {
			// exclude from the left
			excludeTo := other.Center.X + other.SearchRadius
			if roi.Min.X < excludeTo {
				roi.Min.X = excludeTo
			}
		} else {
			excludeFrom := other.Center.X - other.SearchRadius
			if roi.Max.X > excludeFrom {
				roi.Max.X = excludeFrom
			}
		}
	}

	roi = rectClamp(roi, imgW, imgH)
	if roi.Dx() <= 0 || roi.Dy() <= 0 {
		return roi, image.Rectangle{}, false
	}

	// Haar box centred on the prior position within the ROI, padded by
	// PupilOffset, then clipped to the ROI's own bounds.
	hcx, hcy := cx-roi.Min.X, cy-roi.Min.Y
	hw, hh := haarSize.X, haarSize.Y
	pad := cfg.PupilOffset
	haarBox = image.Rect(hcx-hw/2-pad, hcy-hh/2-pad, hcx+hw/2+pad, hcy+hh/2+pad)
	haarBox = rectClamp(haarBox, roi.Dx(), roi.Dy())

	if haarBox.Dx() <= 0 || haarBox.Dy() <= 0 {
		return roi, haarBox, false
	}
	return roi, haarBox, true
}
