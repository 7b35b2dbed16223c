package observables

import (
	"math"

	"github.com/edp1096/toy-sesame/pkg/system"
)

// N returns the electron density at site s:
// n = Nc*exp(bl + efn + v).
func N(sys *system.System, efn, v []float64, s int) float64 {
	return sys.Nc[s] * math.Exp(sys.Bl[s]+efn[s]+v[s])
}

// P returns the hole density at site s:
// p = Nv*exp(-bl - Eg - efp - v).
func P(sys *system.System, efp, v []float64, s int) float64 {
	return sys.Nv[s] * math.Exp(-sys.Bl[s]-sys.Eg[s]-efp[s]-v[s])
}

// Densities evaluates n and p on every site.
func Densities(sys *system.System, efn, efp, v []float64) (n, p []float64) {
	nsites := sys.NumSites()
	n = make([]float64, nsites)
	p = make([]float64, nsites)
	for s := 0; s < nsites; s++ {
		n[s] = N(sys, efn, v, s)
		p[s] = P(sys, efp, v, s)
	}
	return n, p
}

// EdgeCurrent is a Scharfetter-Gummel flux from site A to site B together
// with its derivatives with respect to the quasi-Fermi level (F) and the
// potential (V) at both ends.
type EdgeCurrent struct {
	J        float64
	DFa, DFb float64
	DVa, DVb float64
}

// ElectronCurrent returns Jn on the edge a->b of length h.
func ElectronCurrent(sys *system.System, efn, v []float64, a, b int, h float64) EdgeCurrent {
	mu := (sys.MuE[a] + sys.MuE[b]) / 2 / h
	psiA := v[a] + sys.Bl[a] + math.Log(sys.Nc[a])
	psiB := v[b] + sys.Bl[b] + math.Log(sys.Nc[b])
	bern, dA, dB := bernoulli(psiA, psiB)

	ea, eb := math.Exp(efn[a]), math.Exp(efn[b])
	return EdgeCurrent{
		J:   mu * (eb - ea) * bern,
		DFa: -mu * ea * bern,
		DFb: mu * eb * bern,
		DVa: mu * (eb - ea) * dA,
		DVb: mu * (eb - ea) * dB,
	}
}

// HoleCurrent returns Jp on the edge a->b of length h.
func HoleCurrent(sys *system.System, efp, v []float64, a, b int, h float64) EdgeCurrent {
	mu := (sys.MuH[a] + sys.MuH[b]) / 2 / h
	phiA := -v[a] - sys.Bl[a] - sys.Eg[a] + math.Log(sys.Nv[a])
	phiB := -v[b] - sys.Bl[b] - sys.Eg[b] + math.Log(sys.Nv[b])
	bern, dA, dB := bernoulli(phiA, phiB)

	wa, wb := math.Exp(-efp[a]), math.Exp(-efp[b])
	return EdgeCurrent{
		J:   -mu * (wb - wa) * bern,
		DFa: -mu * wa * bern,
		DFb: mu * wb * bern,
		DVa: mu * (wb - wa) * dA,
		DVb: mu * (wb - wa) * dB,
	}
}

// bernoulli evaluates B(a, b) = (b-a)/(exp(-a) - exp(-b)) and its partial
// derivatives. B(a, a) = exp(a).
func bernoulli(a, b float64) (val, dA, dB float64) {
	g, dg := shiftedBernoulli(b - a)
	ea := math.Exp(a)
	return ea * g, ea * (g - dg), ea * dg
}

// shiftedBernoulli returns g(d) = d/(1-exp(-d)) and g'(d).
func shiftedBernoulli(d float64) (g, dg float64) {
	switch {
	case math.Abs(d) < 1e-4:
		return 1 + d/2 + d*d/12, 0.5 + d/6
	case d < -700:
		return 0, 0
	}
	g = d / -math.Expm1(-d)
	dg = g / d * (1 - g*math.Exp(-d))
	return g, dg
}
