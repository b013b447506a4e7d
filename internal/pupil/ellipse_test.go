package pupil

import (
	"math"
	"testing"
)

func ellipsePoints(cx, cy, a, b, phi float64, n int) []point {
	pts := make([]point, n)
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		x := cx + a*math.Cos(t)*math.Cos(phi) - b*math.Sin(t)*math.Sin(phi)
		y := cy + a*math.Cos(t)*math.Sin(phi) + b*math.Sin(t)*math.Cos(phi)
		pts[i] = point{int(math.Round(x)), int(math.Round(y))}
	}
	return pts
}

func TestEllipseRoundTrip(t *testing.T) {
	const cx, cy = 80.0, 60.0
	const a, b = 50.0, 45.0 // semi-major, semi-minor

	pts := ellipsePoints(cx, cy, a, b, 0, 40)

	coeffs, ok := fitEllipse(pts)
	if !ok {
		t.Fatal("fitEllipse failed to converge")
	}
	xPos, yPos, semiMajor, semiMinor, _, _, aspectRatio, circumference, ok := ellipseGeometry(coeffs)
	if !ok {
		t.Fatal("ellipseGeometry rejected the fit")
	}

	wantAspect := b / a
	wantCircumference := math.Pi * (3*(a+b) - math.Sqrt((3*a+b)*(a+3*b)))

	if math.Abs(xPos-cx) > 0.01*cx+1 {
		t.Errorf("xPos = %v, want ~%v", xPos, cx)
	}
	if math.Abs(yPos-cy) > 0.01*cy+1 {
		t.Errorf("yPos = %v, want ~%v", yPos, cy)
	}
	if math.Abs(aspectRatio-wantAspect) > 0.01 {
		t.Errorf("aspectRatio = %v, want ~%v", aspectRatio, wantAspect)
	}
	if math.Abs(circumference-wantCircumference) > 0.01*wantCircumference {
		t.Errorf("circumference = %v, want ~%v", circumference, wantCircumference)
	}
	_ = semiMajor
	_ = semiMinor
}

func TestFitResidualErrorOnExactFit(t *testing.T) {
	pts := ellipsePoints(50, 50, 30, 20, 0.3, 30)
	coeffs, ok := fitEllipse(pts)
	if !ok {
		t.Fatal("fitEllipse failed")
	}
	err := fitResidualError(coeffs, pts, 0.2)
	if err > 1.0 {
		t.Errorf("residual error on noise-free points = %v, want near 0", err)
	}
}
