package pupil

import "math"

// blend applies the three-term average/prediction/momentum update for one
// scalar feature on detection (§4.9). measurement is the exact value from
// the accepted fit.
func blend(average, prediction, momentum, measurement, alphaAvg, alphaPred, alphaMom float64) (newAverage, newPrediction, newMomentum float64) {
	newAverage = average + alphaAvg*(prediction-average)
	newPrediction = prediction + alphaPred*(measurement-prediction) + momentum
	newMomentum = momentum + alphaMom*(newPrediction-prediction)
	return newAverage, newPrediction, newMomentum
}

// blendNoMomentum applies the average+prediction update without a momentum
// term, used for edgeIntensity (§4.9).
func blendNoMomentum(average, prediction, measurement, alphaAvg, alphaPred float64) (newAverage, newPrediction float64) {
	newAverage = average + alphaAvg*(prediction-average)
	newPrediction = prediction + alphaPred*(measurement-prediction)
	return newAverage, newPrediction
}

// clampFloat clamps v to [lo,hi].
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateOnDetection blends an accepted ellipse fit into the running state
// (§4.9, "on detection").
func updateOnDetection(prior State, cand ellipseCandidate, haarSide float64, imgW, imgH int, cfg Config) State {
	v := prior

	v.AspectRatioAverage, v.AspectRatioPrediction, v.AspectRatioMomentum = blend(
		prior.AspectRatioAverage, prior.AspectRatioPrediction, v.AspectRatioMomentum,
		cand.aspectRatio, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)

	v.CircumferenceAverage, v.CircumferencePrediction, v.CircumferenceMomentum = blend(
		prior.CircumferenceAverage, prior.CircumferencePrediction, v.CircumferenceMomentum,
		cand.circumference, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)

	v.WidthAverage, v.WidthPrediction, v.WidthMomentum = blend(
		prior.WidthAverage, prior.WidthPrediction, v.WidthMomentum,
		cand.width, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)

	v.HeightAverage, v.HeightPrediction, v.HeightMomentum = blend(
		prior.HeightAverage, prior.HeightPrediction, v.HeightMomentum,
		cand.height, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)

	v.RadiusAverage, v.RadiusPrediction, v.RadiusMomentum = blend(
		prior.RadiusAverage, prior.RadiusPrediction, v.RadiusMomentum,
		cand.radius, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)

	v.EdgeIntensityAverage, v.EdgeIntensityPrediction = blendNoMomentum(
		prior.EdgeIntensityAverage, prior.EdgeIntensityPrediction, cand.intensity,
		cfg.AlphaAverage, cfg.AlphaPrediction)

	_, newX, newVx := blend(prior.XPosPredicted, prior.XPosPredicted, v.XVelocity, cand.xPos, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)
	_, newY, newVy := blend(prior.YPosPredicted, prior.YPosPredicted, v.YVelocity, cand.yPos, cfg.AlphaAverage, cfg.AlphaPrediction, cfg.AlphaMomentum)
	v.XPosPredicted, v.XVelocity = newX, newVx
	v.YPosPredicted, v.YVelocity = newY, newVy

	v.XPosExact = cand.xPos
	v.YPosExact = cand.yPos
	v.AspectRatioExact = cand.aspectRatio
	v.CircumferenceExact = cand.circumference

	v.CurvatureOffset = prior.CurvatureOffset * cfg.AlphaMiscellaneous
	v.SearchRadius = prior.SearchRadius * cfg.AlphaMiscellaneous
	v.ThresholdCircumferenceChange = prior.ThresholdCircumferenceChange * cfg.AlphaMiscellaneous
	v.ThresholdAspectRatioChange = prior.ThresholdAspectRatioChange * cfg.AlphaMiscellaneous
	v.PriorCertainty = prior.PriorCertainty / cfg.AlphaMiscellaneous

	v.PupilDetected = true
	v.ErrorDetected = false
	v.EllipseCoeffs = cand.coeffs
	v.EdgeIndices = cand.edgeIndices

	return clampState(v, haarSide, imgW, imgH, cfg)
}

// updateOnMiss takes the prediction itself as the measurement: each average
// moves toward its prediction and the predictions stay where they are. It
// then decays momenta and dilates thresholds/search radius (§4.9, "on miss").
func updateOnMiss(prior State, haarSide float64, imgW, imgH int, cfg Config) State {
	v := prior

	v.AspectRatioAverage += cfg.AlphaAverage * (prior.AspectRatioPrediction - prior.AspectRatioAverage)
	v.CircumferenceAverage += cfg.AlphaAverage * (prior.CircumferencePrediction - prior.CircumferenceAverage)
	v.WidthAverage += cfg.AlphaAverage * (prior.WidthPrediction - prior.WidthAverage)
	v.HeightAverage += cfg.AlphaAverage * (prior.HeightPrediction - prior.HeightAverage)
	v.RadiusAverage += cfg.AlphaAverage * (prior.RadiusPrediction - prior.RadiusAverage)
	v.EdgeIntensityAverage += cfg.AlphaAverage * (prior.EdgeIntensityPrediction - prior.EdgeIntensityAverage)

	v.AspectRatioMomentum *= cfg.AlphaMomentum
	v.CircumferenceMomentum *= cfg.AlphaMomentum
	v.WidthMomentum *= cfg.AlphaMomentum
	v.HeightMomentum *= cfg.AlphaMomentum
	v.RadiusMomentum *= cfg.AlphaMomentum
	v.XVelocity *= cfg.AlphaMomentum
	v.YVelocity *= cfg.AlphaMomentum

	v.CurvatureOffset = prior.CurvatureOffset / cfg.AlphaMiscellaneous
	v.SearchRadius = prior.SearchRadius / cfg.AlphaMiscellaneous
	v.ThresholdCircumferenceChange = prior.ThresholdCircumferenceChange / cfg.AlphaMiscellaneous
	v.ThresholdAspectRatioChange = prior.ThresholdAspectRatioChange / cfg.AlphaMiscellaneous
	v.PriorCertainty = prior.PriorCertainty * cfg.AlphaMiscellaneous

	v.PupilDetected = false

	return clampState(v, haarSide, imgW, imgH, cfg)
}

// clampState enforces the §3/§4.9 interval invariants after an update.
func clampState(v State, haarSide float64, imgW, imgH int, cfg Config) State {
	maxDim := float64(imgW)
	if float64(imgH) < maxDim {
		maxDim = float64(imgH)
	}
	v.SearchRadius = clampFloat(v.SearchRadius, math.Ceil(0.5*haarSide), maxDim)
	v.ThresholdCircumferenceChange = clampFloat(v.ThresholdCircumferenceChange, cfg.CircumferenceChangeThreshold, cfg.CircumferenceMax)
	v.ThresholdAspectRatioChange = clampFloat(v.ThresholdAspectRatioChange, cfg.AspectRatioChangeThreshold, 1)
	v.CurvatureOffset = clampFloat(v.CurvatureOffset, cfg.CurvatureOffsetMin, 180)
	v.PriorCertainty = clampFloat(v.PriorCertainty, cfg.CertaintyLowerLimit, cfg.CertaintyUpperLimit)
	return v
}
