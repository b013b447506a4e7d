package pupil

import (
	"math"
	"testing"
)

func TestTemporalStabilityOnMiss(t *testing.T) {
	cfg := DefaultConfig()
	v := NewState(cfg, 640, 480)
	v.PriorCertainty = 0.8
	initial := v.PriorCertainty

	const k = 5
	for i := 0; i < k; i++ {
		v = updateOnMiss(v, 20, 640, 480, cfg)
	}

	want := initial * math.Pow(cfg.AlphaMiscellaneous, k)
	// clamped to at most CertaintyUpperLimit and at least CertaintyLowerLimit
	want = clampFloat(want, cfg.CertaintyLowerLimit, cfg.CertaintyUpperLimit)

	if math.Abs(v.PriorCertainty-want) > 1e-9 {
		t.Errorf("priorCertainty after %d misses = %v, want %v", k, v.PriorCertainty, want)
	}
}

func TestClampingMonotonicity(t *testing.T) {
	cfg := DefaultConfig()
	v := NewState(cfg, 640, 480)

	v.SearchRadius = -5
	v.ThresholdCircumferenceChange = 1e9
	v.ThresholdAspectRatioChange = -1
	v.CurvatureOffset = 999
	v.PriorCertainty = 50

	v = clampState(v, 20, 640, 480, cfg)

	if v.SearchRadius < math.Ceil(0.5*20) || v.SearchRadius > 480 {
		t.Errorf("SearchRadius out of bounds: %v", v.SearchRadius)
	}
	if v.ThresholdCircumferenceChange < cfg.CircumferenceChangeThreshold || v.ThresholdCircumferenceChange > cfg.CircumferenceMax {
		t.Errorf("ThresholdCircumferenceChange out of bounds: %v", v.ThresholdCircumferenceChange)
	}
	if v.ThresholdAspectRatioChange < cfg.AspectRatioChangeThreshold || v.ThresholdAspectRatioChange > 1 {
		t.Errorf("ThresholdAspectRatioChange out of bounds: %v", v.ThresholdAspectRatioChange)
	}
	if v.CurvatureOffset < cfg.CurvatureOffsetMin || v.CurvatureOffset > 180 {
		t.Errorf("CurvatureOffset out of bounds: %v", v.CurvatureOffset)
	}
	if v.PriorCertainty < cfg.CertaintyLowerLimit || v.PriorCertainty > cfg.CertaintyUpperLimit {
		t.Errorf("PriorCertainty out of bounds: %v", v.PriorCertainty)
	}
}
