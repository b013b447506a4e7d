package pupil

import (
	"image"
	"math"
	"testing"
)

func TestCurvatureSymmetryOnReversal(t *testing.T) {
	// A chain tracing a quarter arc, so it carries genuine curvature rather
	// than a straight run.
	chain := []point{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {3, 3}, {3, 4}, {2, 5}, {1, 5},
	}
	curv, _ := chainCurvature(chain, 2)

	reversed := make([]point, len(chain))
	for i, p := range chain {
		reversed[len(chain)-1-i] = p
	}
	curvRev, _ := chainCurvature(reversed, 2)

	for i := range curv {
		if curv[i] == 360 {
			continue
		}
		j := len(curv) - 1 - i
		if curvRev[j] == 360 {
			continue
		}
		if math.Abs(curv[i]+curvRev[j]) > 1e-6 {
			t.Errorf("position %d: curvature %v, reversed counterpart %v is not its negation", i, curv[i], curvRev[j])
		}
	}
}

func TestScoreArcBounded(t *testing.T) {
	cfg := DefaultConfig()
	prior := NewState(cfg, 320, 240)
	prior.EdgeIntensityPrediction = 100
	prior.CircumferencePrediction = 150
	prior.RadiusPrediction = 24
	prior.EdgeCurvaturePrediction = 10

	cases := []arc{
		{length: 150, intensity: 100, distance: 24, curvatureAvg: 10},
		{length: 10, intensity: 0, distance: 100, curvatureAvg: 100},
		{length: 400, intensity: 255, distance: 0, curvatureAvg: -50},
	}

	for i, a := range cases {
		s := scoreArc(a, cfg, prior, true)
		// components are individually clipped to [0,20],[0,12],[0,15],[0,7]
		if s < 0 || s > 20+12+15+7 {
			t.Errorf("case %d: score %v out of [0, 54]", i, s)
		}
	}
}

func TestSelectTopArcsStableOnTies(t *testing.T) {
	arcs := []arc{
		{score: 5, pixels: []point{{0, 0}}},
		{score: 5, pixels: []point{{1, 1}}},
		{score: 10, pixels: []point{{2, 2}}},
	}
	kept := selectTopArcs(arcs, 2)
	if len(kept) != 2 {
		t.Fatalf("expected 2 arcs, got %d", len(kept))
	}
	if kept[0].pixels[0] != (image.Point{2, 2}) {
		t.Errorf("expected highest score first, got %v", kept[0].pixels[0])
	}
	if kept[1].pixels[0] != (image.Point{0, 0}) {
		t.Errorf("expected first-occurrence tie-break, got %v", kept[1].pixels[0])
	}
}
