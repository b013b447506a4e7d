package pupil

import (
	"image"
	"testing"
)

func TestIntegralImageCorrectness(t *testing.T) {
	g := newGrid(4, 3)
	vals := []uint8{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			g.set(x, y, vals[y*4+x])
		}
	}

	ii, err := newIntegralImage(g)
	if err != nil {
		t.Fatalf("newIntegralImage: %v", err)
	}

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			var want uint32
			for yy := 0; yy <= y; yy++ {
				for xx := 0; xx <= x; xx++ {
					want += uint32(g.at(xx, yy))
				}
			}
			got := ii.at(x, y)
			if got != want {
				t.Errorf("at(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestIntegralImageRejectsEmptyInput(t *testing.T) {
	if _, err := newIntegralImage(grid{}); err == nil {
		t.Fatal("expected error for zero-size grid")
	}
}

func TestIntegralImageRectSumMatchesBruteForce(t *testing.T) {
	g := newGrid(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			g.set(x, y, uint8((x+1)*(y+1)))
		}
	}
	ii, err := newIntegralImage(g)
	if err != nil {
		t.Fatalf("newIntegralImage: %v", err)
	}

	r := image.Rect(1, 1, 4, 4)
	var want uint32
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			want += uint32(g.at(x, y))
		}
	}
	if got := ii.rectSum(r); got != want {
		t.Errorf("rectSum = %d, want %d", got, want)
	}
}
