package pupil

import (
	"image"
	"math"
)

// point is a crop-local pixel coordinate: an alias of image.Point, named
// only for readability.
type point = image.Point

func idx(w int, p point) int { return p.Y*w + p.X }

func visitedNeighbours(tags []edgeTag, w, h int, p point, want edgeTag) []point {
	var out []point
	for _, d := range ring8 {
		n := point{p.X + d.dx, p.Y + d.dy}
		if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
			continue
		}
		if tags[idx(w, n)] == want {
			out = append(out, n)
		}
	}
	return out
}

// regionGrow BFS-marks every tagEdge pixel reachable from seed as
// tagVisited, returning the discovered set in BFS order (§4.6, "region
// grow").
func regionGrow(tags []edgeTag, w, h int, seed point) []point {
	if tags[idx(w, seed)] != tagEdge {
		return nil
	}
	tags[idx(w, seed)] = tagVisited
	queue := []point{seed}
	var region []point
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		region = append(region, p)
		for _, n := range visitedNeighbours(tags, w, h, p, tagEdge) {
			tags[idx(w, n)] = tagVisited
			queue = append(queue, n)
		}
	}
	return region
}

// walkChain resolves branch forks by recursive exploration: each candidate
// branch is walked on a private clone of the tag plane, and the candidate
// producing the longest total resolved chain is committed, reverting the
// discarded candidates' clones (§4.6, "linearization"). This realises the
// design notes' "explicit frontier, prune siblings" rule via recursion
// rather than an explicit queue.
func walkChain(tags []edgeTag, w, h int, start point) (chain []point, out []edgeTag) {
	working := append([]edgeTag(nil), tags...)
	working[idx(w, start)] = tagOnBranch
	chain = []point{start}
	cur := start

	for {
		next := visitedNeighbours(working, w, h, cur, tagVisited)
		switch len(next) {
		case 0:
			return chain, working
		case 1:
			working[idx(w, next[0])] = tagOnBranch
			chain = append(chain, next[0])
			cur = next[0]
		default:
			bestLen := -1
			var bestChain []point
			var bestTags []edgeTag
			for _, n := range next {
				trial := append([]edgeTag(nil), working...)
				subChain, subTags := walkChain(trial, w, h, n)
				if len(subChain) > bestLen {
					bestLen = len(subChain)
					bestChain = subChain
					bestTags = subTags
				}
			}
			chain = append(chain, bestChain...)
			return chain, bestTags
		}
	}
}

// direction8Index returns the ring8 index of the unit step from a to b, or
// -1 if a and b are not 8-adjacent.
func direction8Index(a, b point) int {
	dx, dy := b.X-a.X, b.Y-a.Y
	for i, d := range ring8 {
		if d.dx == dx && d.dy == dy {
			return i
		}
	}
	return -1
}

// chainCurvature computes, for each position in chain, the signed
// curvature in degrees over a centred window of cfg.CurvatureWindowLength
// pixels on each side (§4.6, "curvature"). Positions within the window of
// either end carry the sentinel 360. Also returns the per-pixel tangent
// direction used by reinflateArc for the outward-normal offset.
func chainCurvature(chain []point, windowLen int) (curvature []float64, tangent []int) {
	n := len(chain)
	curvature = make([]float64, n)
	tangent = make([]int, n)

	for i := 0; i < n; i++ {
		if i < n-1 {
			tangent[i] = direction8Index(chain[i], chain[i+1])
		} else if n > 1 {
			tangent[i] = tangent[i-1]
		}
	}

	for i := 0; i < n; i++ {
		if i < windowLen || i >= n-windowLen {
			curvature[i] = 360
			continue
		}
		meanFirst := meanAngle(tangent[i-windowLen : i])
		meanSecond := meanAngle(tangent[i : i+windowLen])
		d := meanSecond - meanFirst
		for d > math.Pi {
			d -= 2 * math.Pi
		}
		for d <= -math.Pi {
			d += 2 * math.Pi
		}
		curvature[i] = d * 180 / math.Pi
	}
	return curvature, tangent
}

// meanAngle averages a window of ring8 direction indices by averaging unit
// vectors, then returns the resulting angle in radians.
func meanAngle(dirIdx []int) float64 {
	var sx, sy float64
	for _, i := range dirIdx {
		d := ring8[i]
		sx += float64(d.dx)
		sy += float64(d.dy)
	}
	return math.Atan2(sy, sx)
}

// breakpoints returns the split positions for a chain given its curvature
// trace and the configured band (§4.6, "breakpoints").
func breakpoints(curvature []float64, upper, lower float64) []int {
	n := len(curvature)
	if n == 0 {
		return nil
	}
	var finite []float64
	for _, k := range curvature {
		if k != 360 {
			finite = append(finite, k)
		}
	}
	sign := majoritySign(finite)

	pts := map[int]bool{0: true, n - 1: true}
	for i, k := range curvature {
		if k == 360 {
			continue
		}
		if math.Abs(k) >= upper || sign*k <= lower {
			pts[i] = true
		}
	}
	out := make([]int, 0, len(pts))
	for p := range pts {
		out = append(out, p)
	}
	sortInts(out)
	return out
}

func majoritySign(vals []float64) float64 {
	pos, neg := 0, 0
	for _, v := range vals {
		if v > 0 {
			pos++
		} else if v < 0 {
			neg++
		}
	}
	if neg > pos {
		return -1
	}
	return 1
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// ceil2 is ceil for non-negative values and floor for negative ones, per
// §4.6's reinflation offset rule.
func ceil2(v float64) float64 {
	if v >= 0 {
		return math.Ceil(v)
	}
	return math.Floor(v)
}

// reinflateArc appends, for each chain pixel, any 8-neighbour tagged
// tagRemoved (retagging it tagAccepted) and computes the arc's intensity
// feature by sampling the image at each pixel's outward-offset position
// (§4.6, "per-arc reinflation").
func reinflateArc(img grid, tags []edgeTag, w, h int, chain []point, tangent []int, offsetFactor float64) (points []point, intensity float64) {
	points = append([]point(nil), chain...)
	var sum float64

	for i, p := range chain {
		d := ring8[tangent[i]%8]
		// outward normal: rotate tangent by 90 degrees (ring8 index +2)
		normalIdx := (tangent[i] + 2) % 8
		nd := ring8[normalIdx]
		ox := p.X + int(ceil2(offsetFactor*float64(nd.dx)))
		oy := p.Y + int(ceil2(offsetFactor*float64(nd.dy)))
		if img.in(ox, oy) {
			sum += float64(img.at(ox, oy))
		} else {
			sum += float64(img.at(p.X, p.Y))
		}

		for _, rd := range ring8 {
			n := point{p.X + rd.dx, p.Y + rd.dy}
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
				continue
			}
			if tags[idx(w, n)] == tagRemoved {
				tags[idx(w, n)] = tagAccepted
				points = append(points, n)
			}
		}
		_ = d
	}
	if len(chain) > 0 {
		intensity = sum / float64(len(chain))
	}
	return points, intensity
}
