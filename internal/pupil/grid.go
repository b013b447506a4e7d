package pupil

import (
	"image"

	"gocv.io/x/gocv"
)

// grid is a dense row-major plane of 8-bit intensities, decoupled from
// gocv.Mat so the rest of the package can index pixels with plain slice
// arithmetic instead of per-pixel CGo calls.
type grid struct {
	w, h int
	px   []uint8
}

func newGrid(w, h int) grid {
	return grid{w: w, h: h, px: make([]uint8, w*h)}
}

func (g grid) at(x, y int) uint8 {
	return g.px[y*g.w+x]
}

func (g grid) set(x, y int, v uint8) {
	g.px[y*g.w+x] = v
}

func (g grid) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.w && y < g.h
}

// gridFromMat copies a single-channel gocv.Mat into a grid. It is the one
// place per-pixel gocv access is paid for; everything downstream works on
// the plain slice.
func gridFromMat(m gocv.Mat) grid {
	w, h := m.Cols(), m.Rows()
	g := newGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.set(x, y, m.GetUCharAt(y, x))
		}
	}
	return g
}

// rectClamp clips r to the bounds [0,0,w,h).
func rectClamp(r image.Rectangle, w, h int) image.Rectangle {
	return r.Intersect(image.Rect(0, 0, w, h))
}
