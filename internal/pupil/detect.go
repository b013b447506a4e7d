package pupil

import (
	"context"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Logger is the minimal structured-logging surface Detect uses. It is
// defined locally, rather than imported from a logging package, so the
// detection core stays a dependency-light library. Its methods take no
// component argument, so a logger.Logger (see internal/logger) does not
// satisfy it directly; trackloop's pupilLogAdapter bridges the two. A nil
// Logger is valid and silences all stage-boundary events.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warning(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{})   {}
func (noopLogger) Warning(string, map[string]interface{}) {}

// Detect runs the full per-frame pipeline: ROI planning, glint location,
// approximate Haar localization, prior-aware edge extraction, curvature
// segmentation, combinatorial ellipse fitting, and the temporal update. It
// never panics and never leaves PupilDetected stale. For an image with no
// pixels it returns prior with PupilDetected cleared and ErrorDetected set;
// on any other input error it returns prior carried through the miss
// branch. Both cases also return a non-nil error.
func Detect(ctx context.Context, img gocv.Mat, cfg Config, prior State, other *OtherPrior, log Logger) (State, error) {
	if log == nil {
		log = noopLogger{}
	}
	if img.Empty() || img.Cols() <= 0 || img.Rows() <= 0 {
		next := prior
		next.PupilDetected = false
		next.ErrorDetected = true
		return next, fmt.Errorf("pupil: detect: %w", ErrInputDimensions)
	}
	imgW, imgH := img.Cols(), img.Rows()

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	haarSide := math.Sqrt(prior.CircumferencePrediction * prior.CircumferencePrediction * cfg.PupilHaarReductionFactor / math.Pi)
	if haarSide < 1 {
		haarSide = 1
	}
	haarSize := image.Pt(int(haarSide), int(haarSide))

	roi, haarBox, ok := planROI(imgW, imgH, prior, haarSize, cfg, other)
	if !ok {
		log.Warning("roi planning failed", map[string]interface{}{"imgW": imgW, "imgH": imgH})
		next := updateOnMiss(prior, haarSide, imgW, imgH, cfg)
		next.ErrorDetected = true
		return next, fmt.Errorf("pupil: detect: %w", ErrEmptyROI)
	}

	roiMat := gray.Region(roi)
	defer roiMat.Close()
	roiGrid := gridFromMat(roiMat)

	glintBox := locateGlint(roiGrid, cfg.GlintSize)

	ii, err := newIntegralImage(roiGrid)
	if err != nil {
		next := updateOnMiss(prior, haarSide, imgW, imgH, cfg)
		next.ErrorDetected = true
		return next, fmt.Errorf("pupil: detect: %w", err)
	}

	pupilHaar, found := locateHaar(ii, haarBox.Dx(), haarBox.Dy(), glintBox)
	if !found {
		log.Debug("haar search found no candidate", nil)
		next := updateOnMiss(prior, haarSide, imgW, imgH, cfg)
		return next, nil
	}

	extended := image.Rect(
		pupilHaar.Min.X-cfg.PupilOffset, pupilHaar.Min.Y-cfg.PupilOffset,
		pupilHaar.Max.X+cfg.PupilOffset, pupilHaar.Max.Y+cfg.PupilOffset,
	)
	extended = rectClamp(extended, roiGrid.w, roiGrid.h)
	if extended.Dx() <= 0 || extended.Dy() <= 0 {
		next := updateOnMiss(prior, haarSide, imgW, imgH, cfg)
		next.ErrorDetected = true
		return next, fmt.Errorf("pupil: detect: %w", ErrEmptyROI)
	}

	cropMat := roiMat.Region(extended)
	defer cropMat.Close()
	blurred := gocv.NewMat()
	defer blurred.Close()
	k := 2*cfg.CannyBlurLevel - 1
	if k < 1 {
		k = 1
	}
	gocv.GaussianBlur(cropMat, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	cropGrid := gridFromMat(cropMat)
	hasPrior := prior.PriorCertainty >= cfg.CertaintyThreshold

	cx := prior.XPosPredicted - float64(roi.Min.X+extended.Min.X)
	cy := prior.YPosPredicted - float64(roi.Min.Y+extended.Min.Y)

	var edges grid
	if hasPrior {
		edges = edgeMapWithPrior(cropGrid, cx, cy, cfg)
	} else {
		edges = edgeMapNoPrior(blurred, cfg)
	}

	tags := make([]edgeTag, len(edges.px))
	for i, v := range edges.px {
		if v != 0 {
			tags[i] = tagEdge
		}
	}
	sharpened := sharpenEdges(tags, edges.w, edges.h)

	log.Debug("edge extraction complete", map[string]interface{}{"hasPrior": hasPrior})

	arcs := segmentEdges(edges, sharpened, cropGrid, hasPrior, cx, cy, cfg, prior)
	for i := range arcs {
		arcs[i].score = scoreArc(arcs[i], cfg, prior, hasPrior)
	}
	kept := selectTopArcs(arcs, cfg.EllipseFitNumberMaximum)

	log.Debug("segmentation complete", map[string]interface{}{"arcs": len(arcs), "kept": len(kept)})

	// HaarBox and GlintBox are computed in ROI-local coordinates; translate
	// to full-image coordinates before storing, matching §6's draw-overlay
	// fields and cand's own xPos/yPos translation below.
	fullHaarBox := pupilHaar.Add(roi.Min)
	fullGlintBox := glintBox.Add(roi.Min)

	if len(kept) == 0 {
		next := updateOnMiss(prior, haarSide, imgW, imgH, cfg)
		next.HaarBox = fullHaarBox
		next.GlintBox = fullGlintBox
		return next, nil
	}

	cand, ok := fitAndSelect(ctx, kept, cropGrid, hasPrior, prior, cfg)
	if !ok {
		log.Debug("no ellipse candidate accepted", nil)
		next := updateOnMiss(prior, haarSide, imgW, imgH, cfg)
		next.HaarBox = fullHaarBox
		next.GlintBox = fullGlintBox
		return next, nil
	}

	// Translate the fitted centre back to full-image coordinates.
	cand.xPos += float64(roi.Min.X + extended.Min.X)
	cand.yPos += float64(roi.Min.Y + extended.Min.Y)

	next := updateOnDetection(prior, cand, haarSide, imgW, imgH, cfg)
	next.HaarBox = fullHaarBox
	next.GlintBox = fullGlintBox
	return next, nil
}
