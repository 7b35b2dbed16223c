package solver

import "math"

const (
	// Clamp bounds the magnitude of a damped correction component.
	Clamp = 5.0

	// RefineThreshold is the step size above which the refine policy is
	// used instead of clamping.
	RefineThreshold = 1e-3
)

// ClampStep shrinks c smoothly toward +/-clamp: c/(1+|c|/clamp).
func ClampStep(c, clamp float64) float64 {
	return c / (1 + math.Abs(c/clamp))
}

// RefineStep is the cautious step used while the correction is large:
//
//	|c| < 1        c/2
//	1 <= |c| < 3.7 sign(c)*|c|^0.2/2
//	|c| >= 3.7     sign(c)*ln|c|/2
func RefineStep(c float64) float64 {
	a := math.Abs(c)
	switch {
	case a < 1:
		return c / 2
	case a < 3.7:
		return math.Copysign(math.Pow(a, 0.2)/2, c)
	default:
		return math.Copysign(math.Log(a)/2, c)
	}
}

// Refine applies RefineStep to every component in place.
func Refine(dx []float64) []float64 {
	for i, c := range dx {
		dx[i] = RefineStep(c)
	}
	return dx
}

// ClampAll applies ClampStep to every component in place.
func ClampAll(dx []float64, clamp float64) []float64 {
	for i, c := range dx {
		dx[i] = ClampStep(c, clamp)
	}
	return dx
}

// ClampRelative damps the quasi-Fermi corrections relative to the potential
// correction of the same site, then damps dv itself. All slices are updated
// in place.
func ClampRelative(defn, defp, dv []float64, clamp float64) {
	for s := range dv {
		defn[s] = dv[s] + ClampStep(defn[s]-dv[s], clamp)
		defp[s] = dv[s] + ClampStep(defp[s]-dv[s], clamp)
		dv[s] = ClampStep(dv[s], clamp)
	}
}
