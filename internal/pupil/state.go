package pupil

import "image"

// State is the running prediction carried across frames (§3 "Running state
// V"). The caller owns a State value across frames; Detect consumes one and
// returns the next.
type State struct {
	// Predictions.
	XPosPredicted            float64
	YPosPredicted            float64
	WidthPrediction          float64
	HeightPrediction         float64
	CircumferencePrediction  float64
	AspectRatioPrediction    float64
	RadiusPrediction         float64
	EdgeIntensityPrediction  float64

	// Running averages mirroring the predictions.
	WidthAverage         float64
	HeightAverage        float64
	CircumferenceAverage float64
	AspectRatioAverage   float64
	RadiusAverage        float64
	EdgeIntensityAverage float64

	// Momenta.
	XVelocity               float64
	YVelocity               float64
	WidthMomentum           float64
	HeightMomentum          float64
	CircumferenceMomentum   float64
	AspectRatioMomentum     float64
	RadiusMomentum          float64

	// Exact last measurement.
	XPosExact         float64
	YPosExact         float64
	AspectRatioExact  float64
	CircumferenceExact float64

	// Adaptive thresholds.
	SearchRadius                  float64
	CurvatureOffset                float64
	ThresholdCircumferenceChange   float64
	ThresholdAspectRatioChange     float64

	PriorCertainty float64

	EdgeCurvaturePrediction float64

	PupilDetected bool
	ErrorDetected bool

	// Draw-overlay bundle, crop-relative where noted.
	HaarBox        image.Rectangle
	GlintBox       image.Rectangle
	EdgeIndices    []image.Point // crop coordinates
	EllipseCoeffs  [6]float64    // [A,B,C,D,E,F], zero value if no ellipse fit
}

// OtherPrior is the reduced prior of a second, simultaneously tracked
// feature (e.g. a second eye), used only to exclude its search disc from
// this detector's ROI (§4.1).
type OtherPrior struct {
	Center      image.Point
	SearchRadius int
	DetectionOn bool
}

// NewState returns a prior suitable for the first frame: no detection yet,
// certainty at its configured lower bound, the predicted position at the
// image centre, and a search radius of min(imgW, imgH), so the first ROI
// covers the whole frame whenever neither side is more than twice the
// other.
func NewState(cfg Config, imgW, imgH int) State {
	radius := imgW
	if imgH < radius {
		radius = imgH
	}
	return State{
		XPosPredicted:                float64(imgW) / 2,
		YPosPredicted:                float64(imgH) / 2,
		SearchRadius:                 float64(radius),
		CurvatureOffset:              180,
		ThresholdCircumferenceChange: cfg.CircumferenceChangeThreshold,
		ThresholdAspectRatioChange:   cfg.AspectRatioChangeThreshold,
		PriorCertainty:               cfg.CertaintyLowerLimit,
		EdgeCurvaturePrediction:      0,
		CircumferencePrediction:      (cfg.CircumferenceMin + cfg.CircumferenceMax) / 2,
		AspectRatioPrediction:        1,
		RadiusPrediction:             float64(radius) / 4,
	}
}
