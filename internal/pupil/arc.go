package pupil

import (
	"math"
	"sort"
)

// arc is a maximal 8-connected chain of edge pixels of approximately
// monotone curvature (§3, "Arc").
type arc struct {
	pixels []point

	length int // walk length before reinflation
	size   int // final pixel count after reinflation

	intensity                          float64
	curvatureAvg, curvatureMax, curvatureMin float64
	distance                            float64

	score float64
}

// segmentEdges runs seeding, region growth, linearization, curvature-based
// splitting, and reinflation (§4.6), producing the arc list consumed by
// scoring and fitting. cx,cy are the predicted centre in crop coordinates,
// used only when hasPrior is true.
func segmentEdges(edges grid, sharpened []edgeTag, img grid, hasPrior bool, cx, cy float64, cfg Config, prior State) []arc {
	w, h := edges.w, edges.h
	tags := append([]edgeTag(nil), sharpened...)

	var seeds []point
	if hasPrior {
		seeds = starburstSeeds(tags, w, h, int(cx), int(cy))
	}

	var arcs []arc
	rasterFrom := 0

	for {
		var seed point
		found := false
		if hasPrior && len(seeds) > 0 {
			seed = seeds[0]
			seeds = seeds[1:]
			if tags[idx(w, seed)] == tagEdge {
				found = true
			} else {
				continue
			}
		} else {
			for i := rasterFrom; i < w*h; i++ {
				if tags[i] == tagEdge {
					seed = point{i % w, i / w}
					rasterFrom = i + 1
					found = true
					break
				}
			}
		}
		if !found {
			if hasPrior && len(seeds) > 0 {
				continue
			}
			break
		}

		region := regionGrow(tags, w, h, seed)
		if len(region) == 0 {
			continue
		}
		terminal := region[len(region)-1]
		chain, tags2 := walkChain(tags, w, h, terminal)
		tags = tags2

		// revert residual visited pixels in the region back to tagEdge
		// so later seeds may pass.
		chainSet := make(map[int]bool, len(chain))
		for _, p := range chain {
			chainSet[idx(w, p)] = true
		}
		for _, p := range region {
			i := idx(w, p)
			if tags[i] == tagVisited && !chainSet[i] {
				tags[i] = tagEdge
			}
		}

		curvature, tangent := chainCurvature(chain, cfg.CurvatureWindowLength)
		upper, lower := curvatureLimits(prior.CircumferencePrediction, prior.AspectRatioPrediction, cfg.CurvatureFactor, prior.CurvatureOffset)
		splits := breakpoints(curvature, upper, lower)

		for i := 0; i+1 < len(splits); i++ {
			start, end := splits[i], splits[i+1]
			sub := chain[start+1 : end+1]
			if i == 0 {
				sub = chain[start : end+1]
			}
			if len(sub) < cfg.CurvatureWindowLength {
				continue
			}
			subCurv := curvature[start:end]

			for _, p := range sub {
				tags[idx(w, p)] = tagAccepted
			}
			subTangent := tangent[start : min(end+1, len(tangent))]
			pts, intensity := reinflateArc(img, tags, w, h, sub, subTangent, cfg.EdgeIntensityPositionOffset)

			avgC, minC, maxC := curvatureStats(subCurv)
			a := arc{
				pixels:       pts,
				length:       len(sub),
				size:         len(pts),
				intensity:    intensity,
				curvatureAvg: avgC,
				curvatureMax: maxC,
				curvatureMin: minC,
				distance:     meanDistance(pts, cx, cy),
			}
			arcs = append(arcs, a)
		}
	}

	return arcs
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func curvatureStats(curv []float64) (avg, min, max float64) {
	var sum float64
	n := 0
	min, max = 360, -360
	for _, k := range curv {
		if k == 360 {
			continue
		}
		sum += k
		n++
		if k < min {
			min = k
		}
		if k > max {
			max = k
		}
	}
	if n == 0 {
		return 360, 360, 360
	}
	return sum / float64(n), min, max
}

func meanDistance(pts []point, cx, cy float64) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		dx := float64(p.X) - cx
		dy := float64(p.Y) - cy
		sum += math.Sqrt(dx*dx + dy*dy)
	}
	return sum / float64(len(pts))
}

// starburstSeeds walks outward from (cx,cy) along each of the 8 ring
// directions until leaving the crop, hitting an already-consumed tag, or
// finding an edge pixel (§4.6, "seeding", with prior).
func starburstSeeds(tags []edgeTag, w, h, cx, cy int) []point {
	var seeds []point
	for _, d := range ring8 {
		x, y := cx, cy
		for {
			x += d.dx
			y += d.dy
			if x < 0 || y < 0 || x >= w || y >= h {
				break
			}
			t := tags[idx(w, point{x, y})]
			if t > tagEdge {
				break
			}
			if t == tagEdge {
				seeds = append(seeds, point{x, y})
				break
			}
		}
	}
	return seeds
}

func clip0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// scoreArc computes the additive per-arc score (§4.7).
func scoreArc(a arc, cfg Config, prior State, hasPrior bool) float64 {
	intensityScore := clip0(20 / (1 + 0.01*math.Pow(0.9, prior.EdgeIntensityPrediction-a.intensity)))

	var lengthScore float64
	length := float64(a.length)
	if length <= prior.CircumferencePrediction {
		lengthScore = 12 * (1 - math.Exp(-0.0002*prior.CircumferencePrediction*length))
	} else {
		lengthScore = 12 / (1 + 0.01*math.Pow(0.85, prior.CircumferencePrediction-length))
	}
	lengthScore = clip0(lengthScore)

	var positionScore, curvatureScore float64
	if hasPrior && prior.RadiusPrediction != 0 {
		positionScore = clip0(15 - 15*math.Abs(a.distance-prior.RadiusPrediction)/prior.RadiusPrediction)
	}
	if hasPrior && prior.EdgeCurvaturePrediction != 0 {
		curvatureScore = clip0(7 - 7*math.Abs(a.curvatureAvg-prior.EdgeCurvaturePrediction)/prior.EdgeCurvaturePrediction)
	}

	return intensityScore + lengthScore + positionScore + curvatureScore
}

// selectTopArcs keeps the top n arcs by score, stable on ties (first
// occurrence wins).
func selectTopArcs(arcs []arc, n int) []arc {
	idxs := make([]int, len(arcs))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return arcs[idxs[i]].score > arcs[idxs[j]].score
	})
	if n > len(idxs) {
		n = len(idxs)
	}
	out := make([]arc, n)
	for i := 0; i < n; i++ {
		out[i] = arcs[idxs[i]]
	}
	return out
}
