package pupil

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ellipseCandidate is a fitted conic plus its derived geometry (§3,
// "Ellipse candidate").
type ellipseCandidate struct {
	coeffs [6]float64 // A,B,C,D,E,F

	xPos, yPos           float64
	semiMajor, semiMinor float64
	width, height        float64
	circumference        float64
	aspectRatio          float64
	radius               float64

	fitError    float64
	edgeIndices []point
	edgeLength  int
	intensity   float64

	score float64
}

// fitEllipse solves the Fitzgibbon constrained direct ellipse problem over
// the concatenated pixels of a subset of arcs (§4.8).
func fitEllipse(pts []point) (coeffs [6]float64, ok bool) {
	n := len(pts)
	if n < 6 {
		return coeffs, false
	}

	design := mat.NewDense(n, 6, nil)
	for i, p := range pts {
		x, y := float64(p.X), float64(p.Y)
		design.SetRow(i, []float64{x * x, x * y, y * y, x, y, 1})
	}

	var scatter mat.Dense
	scatter.Mul(design.T(), design)

	c := mat.NewDense(6, 6, nil)
	c.Set(0, 2, 2)
	c.Set(2, 0, 2)
	c.Set(1, 1, -1)

	var scatterInv mat.Dense
	if err := scatterInv.Inverse(&scatter); err != nil {
		return coeffs, false
	}

	var product mat.Dense
	product.Mul(&scatterInv, c)

	var eig mat.Eigen
	if !eig.Factorize(&product, mat.EigenRight) {
		return coeffs, false
	}
	values := eig.Values(nil)
	var vectors mat.CDense
	eig.VectorsTo(&vectors)

	bestIdx := -1
	bestVal := math.MaxFloat64
	for i, v := range values {
		if imag(v) != 0 {
			continue
		}
		re := real(v)
		if re > 1e-11 && re < bestVal {
			bestVal = re
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return coeffs, false
	}

	var vec [6]float64
	for i := 0; i < 6; i++ {
		vec[i] = real(vectors.At(i, bestIdx))
	}

	// normalize by 1/sqrt(v^T C v)
	var vtCv float64
	for i := 0; i < 6; i++ {
		var row float64
		for j := 0; j < 6; j++ {
			row += c.At(i, j) * vec[j]
		}
		vtCv += vec[i] * row
	}
	if vtCv <= 0 || math.IsNaN(vtCv) {
		return coeffs, false
	}
	norm := 1 / math.Sqrt(vtCv)
	for i := range vec {
		vec[i] *= norm
	}
	return vec, true
}

// ellipseGeometry derives centre, axes, rotation, and aspect ratio from the
// conic coefficients (§4.8, "derive geometry").
func ellipseGeometry(coeffs [6]float64) (xPos, yPos, semiMajor, semiMinor, width, height, aspectRatio, circumference float64, ok bool) {
	A, B, C, D, E, F := coeffs[0], coeffs[1], coeffs[2], coeffs[3], coeffs[4], coeffs[5]

	denom := B*B - 4*A*C
	if denom == 0 {
		return 0, 0, 0, 0, 0, 0, 0, 0, false
	}

	xPos = (2*C*D - B*E) / denom
	yPos = (2*A*E - B*D) / denom

	alpha := 0.5 * math.Atan2(B, A-C)

	common := math.Sqrt((A-C)*(A-C) + B*B)
	up := 2 * (A*E*E + C*D*D - B*D*E + (B*B-4*A*C)*F)
	a2 := up * ((A + C) + common) / (denom * denom)
	b2 := up * ((A + C) - common) / (denom * denom)
	if a2 <= 0 || b2 <= 0 {
		return 0, 0, 0, 0, 0, 0, 0, 0, false
	}
	semiMajor = math.Sqrt(math.Max(a2, b2))
	semiMinor = math.Sqrt(math.Min(a2, b2))

	width = 2 * math.Sqrt(semiMajor*semiMajor*math.Cos(alpha)*math.Cos(alpha)+semiMinor*semiMinor*math.Sin(alpha)*math.Sin(alpha))
	height = 2 * math.Sqrt(semiMajor*semiMajor*math.Sin(alpha)*math.Sin(alpha)+semiMinor*semiMinor*math.Cos(alpha)*math.Cos(alpha))

	if semiMajor == 0 {
		return 0, 0, 0, 0, 0, 0, 0, 0, false
	}
	aspectRatio = semiMinor / semiMajor
	circumference = math.Pi * (3*(semiMajor+semiMinor) - math.Sqrt((3*semiMajor+semiMinor)*(semiMajor+3*semiMinor)))

	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if !finite(xPos) || !finite(yPos) || !finite(semiMajor) || !finite(semiMinor) || !finite(circumference) {
		return 0, 0, 0, 0, 0, 0, 0, 0, false
	}
	return xPos, yPos, semiMajor, semiMinor, width, height, aspectRatio, circumference, true
}

// fitResidualError computes the mean |Ax^2+Bxy+Cy^2+Dx+Ey+F| over the
// worst fitErrorFraction of the edge set's residuals (§4.8, "fit error").
func fitResidualError(coeffs [6]float64, pts []point, fraction float64) float64 {
	if len(pts) == 0 {
		return math.Inf(1)
	}
	residuals := make([]float64, len(pts))
	A, B, C, D, E, F := coeffs[0], coeffs[1], coeffs[2], coeffs[3], coeffs[4], coeffs[5]
	for i, p := range pts {
		x, y := float64(p.X), float64(p.Y)
		residuals[i] = math.Abs(A*x*x + B*x*y + C*y*y + D*x + E*y + F)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(residuals)))
	k := int(math.Ceil(fraction * float64(len(residuals))))
	if k < 1 {
		k = 1
	}
	if k > len(residuals) {
		k = len(residuals)
	}
	var sum float64
	for i := 0; i < k; i++ {
		sum += residuals[i]
	}
	return sum / float64(k)
}

// subsetsDescending enumerates every non-empty subset of indices
// [0,n), largest cardinality first, per §4.8's early-exit ordering.
func subsetsDescending(n int) [][]int {
	total := 1 << uint(n)
	all := make([][]int, 0, total-1)
	for mask := 1; mask < total; mask++ {
		var s []int
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				s = append(s, i)
			}
		}
		all = append(all, s)
	}
	sort.SliceStable(all, func(i, j int) bool { return len(all[i]) > len(all[j]) })
	return all
}

// fitAndSelect enumerates subsets of arcs, fits each, applies the
// acceptance gate, and returns the highest-scoring accepted candidate, or
// ok=false on a detection miss (§4.8).
func fitAndSelect(ctx context.Context, arcs []arc, img grid, hasPrior bool, prior State, cfg Config) (ellipseCandidate, bool) {
	n := len(arcs)
	if n == 0 {
		return ellipseCandidate{}, false
	}
	subsets := subsetsDescending(n)

	nMax := n
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	results := make([]*ellipseCandidate, len(subsets))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for si, subset := range subsets {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(si int, subset []int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[si] = evaluateSubset(subset, arcs, img, hasPrior, prior, cfg, nMax)
		}(si, subset)
	}
	wg.Wait()

	var best *ellipseCandidate
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.score > best.score {
			best = r
		}
	}
	if best == nil {
		return ellipseCandidate{}, false
	}
	return *best, true
}

func evaluateSubset(subset []int, arcs []arc, img grid, hasPrior bool, prior State, cfg Config, nMax int) *ellipseCandidate {
	var edgeSetLength int
	var pts []point
	for _, ai := range subset {
		edgeSetLength += arcs[ai].length
		pts = append(pts, arcs[ai].pixels...)
	}

	minLen := cfg.CircumferenceMin * float64(nMax)
	if hasPrior {
		minLen = prior.CircumferencePrediction * float64(nMax)
	}
	if float64(edgeSetLength) < minLen {
		return nil
	}

	coeffs, ok := fitEllipse(pts)
	if !ok {
		return nil
	}
	xPos, yPos, semiMajor, semiMinor, width, height, aspectRatio, circumference, ok := ellipseGeometry(coeffs)
	if !ok {
		return nil
	}

	if !(circumference >= cfg.CircumferenceMin && circumference <= cfg.CircumferenceMax) {
		return nil
	}
	if aspectRatio < cfg.AspectRatioMin {
		return nil
	}
	if hasPrior {
		if math.Abs(circumference-prior.CircumferencePrediction) > prior.ThresholdCircumferenceChange {
			return nil
		}
		if math.Abs(aspectRatio-prior.AspectRatioPrediction) > prior.ThresholdAspectRatioChange {
			return nil
		}
	}

	fitErr := fitResidualError(coeffs, pts, cfg.FitErrorFraction)
	if fitErr > cfg.EllipseFitErrorMaximum {
		return nil
	}

	var intensity float64
	for _, ai := range subset {
		intensity += arcs[ai].intensity * float64(arcs[ai].length)
	}
	if edgeSetLength > 0 {
		intensity /= float64(edgeSetLength)
	}

	cand := ellipseCandidate{
		coeffs:        coeffs,
		xPos:          xPos,
		yPos:          yPos,
		semiMajor:     semiMajor,
		semiMinor:     semiMinor,
		width:         width,
		height:        height,
		circumference: circumference,
		aspectRatio:   aspectRatio,
		radius:        (semiMajor + semiMinor) / 2,
		fitError:      fitErr,
		edgeIndices:   pts,
		edgeLength:    edgeSetLength,
		intensity:     intensity,
	}
	cand.score = selectionScore(cand, prior, cfg, hasPrior)
	return &cand
}

// selectionScore scores an accepted candidate against the prior (§4.8,
// "selection among accepted candidates").
func selectionScore(c ellipseCandidate, prior State, cfg Config, hasPrior bool) float64 {
	var scoreCircumference, scoreAspectRatio float64
	if hasPrior {
		scoreCircumference = math.Max(0, 20-20*math.Abs(c.circumference-prior.CircumferencePrediction)/cfg.CircumferenceChangeThreshold)
		scoreAspectRatio = math.Max(0, 20-20*math.Abs(c.aspectRatio-prior.AspectRatioPrediction)/cfg.AspectRatioChangeThreshold)
	}
	scoreFitError := math.Max(0, 20-20*c.fitError/cfg.EllipseFitErrorMaximum)

	var scoreLength float64
	if prior.CircumferencePrediction != 0 {
		scoreLength = math.Max(0, 20-40*math.Abs(float64(c.edgeLength)-prior.CircumferencePrediction)/prior.CircumferencePrediction)
	}

	return scoreCircumference + scoreAspectRatio + scoreFitError + scoreLength
}
