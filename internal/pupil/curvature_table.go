package pupil

// Curvature-limit polynomials (§4.10): two empirically-fit degree-5
// bivariate polynomials in (circumference, aspectRatio), modelled as data
// rather than code per the design notes. Coefficient order matches the
// standard bivariate expansion p00 + p10*x + p01*y + p20*x^2 + p11*x*y +
// p02*y^2 + ... up to degree 5, stored as [6][6]float64 indexed
// [xPower][yPower] where xPower+yPower <= 5 (unused entries are zero).
var curvatureUpperCoeffs = [6][6]float64{
	{223.4, 93.66, -129.8, 107.3, -134.4, 70.94},
	{0.8889, -12.66, 11.94, -5.114, 0.8476, 0},
	{0.0014, 0.05832, -0.0296, 0.005287, 0, 0},
	{-5.23e-05, -0.0001222, 2.461e-05, 0, 0, 0},
	{1.981e-07, 1.042e-07, 0, 0, 0, 0},
	{-2.322e-10, 0, 0, 0, 0, 0},
}

var curvatureLowerCoeffs = [6][6]float64{
	{35.26, 89.44, 373.6, -537.1, 706.4, -394.1},
	{-1.282, -3.123, -1.822, -1.537, 2.088, 0},
	{0.01675, 0.02731, 0.01206, -0.007374, 0, 0},
	{-0.0001031, -0.0001016, 7.157e-07, 0, 0, 0},
	{2.98e-07, 1.13e-07, 0, 0, 0, 0},
	{-3.192e-10, 0, 0, 0, 0, 0},
}

// evalBivariate5 evaluates a degree-5 bivariate polynomial stored as
// coeffs[xPower][yPower].
func evalBivariate5(coeffs [6][6]float64, x, y float64) float64 {
	var sum float64
	xp := 1.0
	for i := 0; i < 6; i++ {
		yp := 1.0
		for j := 0; j < 6-i; j++ {
			sum += coeffs[i][j] * xp * yp
			yp *= y
		}
		xp *= x
	}
	return sum
}

// curvatureLimits returns (upper, lower) bounds for the §4.6 breakpoint
// test, evaluated from the prior's (circumferencePrediction,
// aspectRatioPrediction) and modulated by curvatureFactor and
// curvatureOffset (§4.10).
func curvatureLimits(circumference, aspectRatio, curvatureFactor, curvatureOffset float64) (upper, lower float64) {
	upper = evalBivariate5(curvatureUpperCoeffs, circumference, aspectRatio)
	upper = curvatureFactor*upper + curvatureOffset

	lower = evalBivariate5(curvatureLowerCoeffs, circumference, aspectRatio)
	lower = (2-curvatureFactor)*lower - curvatureOffset

	return upper, lower
}
