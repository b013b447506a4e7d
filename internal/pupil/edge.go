package pupil

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// edgeMapNoPrior runs the standard Canny operator on the blurred crop
// (§4.4, "without prior"), lifting the binary result into a 1/0 grid.
func edgeMapNoPrior(blurred gocv.Mat, cfg Config) grid {
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Canny(blurred, &dst, float32(4*cfg.CannyThresholdHigh), float32(4*cfg.CannyThresholdLow))

	g := gridFromMat(dst)
	for i, v := range g.px {
		if v != 0 {
			g.px[i] = 1
		}
	}
	return g
}

// radialGradient computes the signed radial response (§4.4.1) for every
// interior pixel of the crop, biased toward the predicted centre
// (cx,cy) in crop-local coordinates.
func radialGradient(img grid, cx, cy float64, kernelSize int) []float64 {
	out := make([]float64, img.w*img.h)
	b := (kernelSize - 1) / 2
	if b < 1 {
		b = 1
	}

	for y := b; y < img.h-b; y++ {
		for x := b; x < img.w-b; x++ {
			dxc := cx - float64(x)
			dyc := cy - float64(y)
			theta := math.Atan2(dyc, dxc)
			if theta < 0 {
				theta += 2 * math.Pi
			}
			alpha := theta * 8 / (2 * math.Pi)

			var acc float64
			for i := 0; i < 8; i++ {
				dpos := math.Abs(float64(i) - alpha)
				if dpos > 4 {
					dpos = 8 - dpos
				}
				dneg := 4 - dpos
				w := 6 * (math.Exp(-dpos*dpos) - math.Exp(-dneg*dneg))

				d := radialDirs[i]
				sx, sy := x+d.dx*b, y+d.dy*b
				if !img.in(sx, sy) {
					continue
				}
				acc += w * float64(img.at(sx, sy))
			}
			if acc < 0 {
				acc = 0
			}
			out[y*img.w+x] = acc
		}
	}
	return out
}

// nonMaxSuppressRadial zeroes any non-zero gradient pixel that is not a
// local maximum along its own radial direction (§4.4.2).
func nonMaxSuppressRadial(grad []float64, w, h int, cx, cy float64) []float64 {
	out := make([]float64, len(grad))
	copy(out, grad)

	inBounds := func(x, y int) bool { return x >= 0 && y >= 0 && x < w && y < h }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := grad[y*w+x]
			if v <= 0 {
				continue
			}
			theta := math.Atan2(cy-float64(y), cx-float64(x))
			if theta < 0 {
				theta += 2 * math.Pi
			}
			alpha := theta * 8 / (2 * math.Pi)
			i := int(math.Round(alpha)) % 8
			if i < 0 {
				i += 8
			}
			j := (i + 4) % 8

			di, dj := radialDirs[i], radialDirs[j]
			var nv, pv float64
			if inBounds(x+di.dx, y+di.dy) {
				nv = grad[(y+di.dy)*w+(x+di.dx)]
			}
			if inBounds(x+dj.dx, y+dj.dy) {
				pv = grad[(y+dj.dy)*w+(x+dj.dx)]
			}
			if v < nv || v < pv {
				out[y*w+x] = 0
			}
		}
	}
	return out
}

// hysteresis marks pixels >= thresholdHigh as edges, then BFS-grows over
// 8-connected neighbours >= thresholdLow (§4.4.3). Returns a 1/0 grid.
func hysteresis(vals []float64, w, h int, thresholdLow, thresholdHigh float64) grid {
	g := newGrid(w, h)
	type pt struct{ x, y int }
	var queue []pt

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if vals[y*w+x] >= thresholdHigh {
				g.set(x, y, 1)
				queue = append(queue, pt{x, y})
			}
		}
	}

	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, d := range ring8 {
			nx, ny := p.x+d.dx, p.y+d.dy
			if !g.in(nx, ny) || g.at(nx, ny) != 0 {
				continue
			}
			if vals[ny*w+nx] >= thresholdLow {
				g.set(nx, ny, 1)
				queue = append(queue, pt{nx, ny})
			}
		}
	}
	return g
}

// edgeMapWithPrior runs the three-pass radial edge pipeline (§4.4,
// "with prior") over the crop, biased toward (cx,cy) in crop-local
// coordinates.
func edgeMapWithPrior(img grid, cx, cy float64, cfg Config) grid {
	grad := radialGradient(img, cx, cy, cfg.CannyKernelSize)
	nms := nonMaxSuppressRadial(grad, img.w, img.h, cx, cy)
	return hysteresis(nms, img.w, img.h, cfg.CannyThresholdLow, cfg.CannyThresholdHigh)
}

// cropIndices lifts every non-zero grid pixel into crop-coordinate points.
// The draw-overlay EdgeIndices field is not filled from it; Detect stores
// the selected candidate's edge pixels there instead.
func cropIndices(g grid) []image.Point {
	var pts []image.Point
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			if g.at(x, y) != 0 {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}
