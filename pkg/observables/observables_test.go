package observables

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-sesame/pkg/system"
)

func newTestSystem(t *testing.T) *system.System {
	t.Helper()
	b, err := system.NewBuilder([]float64{0, 1e-7, 2.5e-7, 3e-7}, nil)
	require.NoError(t, err)

	mat := system.Material{
		Nc: 1e19, Nv: 2e19, Eg: 0.1, Affinity: 0.05, Epsilon: 10,
		MuE: 100, MuH: 50, TauE: 1e-9, TauH: 2e-9,
		MuEFunc: func(x, y float64) float64 { return 100 + 1e9*x },
	}
	b.AddMaterial(mat, nil)
	b.AddDonor(1e18, nil)

	sys, err := b.Build()
	require.NoError(t, err)
	return sys
}

func TestDensities(t *testing.T) {
	sys := newTestSystem(t)
	efn := []float64{0.1, 0, 0, 0}
	efp := []float64{0, -0.2, 0, 0}
	v := []float64{-1, 0.5, 0, 0}

	n, p := Densities(sys, efn, efp, v)
	assert.InDelta(t, sys.Nc[0]*math.Exp(sys.Bl[0]+0.1-1), n[0], 1e-15)
	assert.InDelta(t, sys.Nv[1]*math.Exp(-sys.Bl[1]-sys.Eg[1]+0.2-0.5), p[1], 1e-15)

	// n*p = ni^2 at equal quasi-Fermi levels.
	ni := sys.Ni[2]
	assert.InDelta(t, ni*ni, n[2]*p[2], 1e-12*ni*ni)
}

func TestBernoulli(t *testing.T) {
	val, dA, dB := bernoulli(0.3, 0.3)
	assert.InDelta(t, math.Exp(0.3), val, 1e-15)
	assert.InDelta(t, math.Exp(0.3)/2, dA, 1e-15)
	assert.InDelta(t, math.Exp(0.3)/2, dB, 1e-15)

	// Closed form away from the series region.
	a, b := 0.2, 2.0
	val, _, _ = bernoulli(a, b)
	assert.InDelta(t, (b-a)/(math.Exp(-a)-math.Exp(-b)), val, 1e-12)

	// Large negative difference underflows to zero without NaN.
	val, dA, dB = bernoulli(0, -800)
	assert.Zero(t, val)
	assert.Zero(t, dA)
	assert.Zero(t, dB)
}

func TestShiftedBernoulliContinuity(t *testing.T) {
	for _, d := range []float64{1e-4, -1e-4} {
		gIn, dgIn := shiftedBernoulli(d * (1 - 1e-6))
		gOut, dgOut := shiftedBernoulli(d * (1 + 1e-6))
		assert.InDelta(t, gIn, gOut, 1e-9)
		assert.InDelta(t, dgIn, dgOut, 1e-6)
	}
}

func TestShiftedBernoulliDerivative(t *testing.T) {
	const h = 1e-6
	for _, d := range []float64{-30, -2, -0.5, 0.01, 0.5, 3, 40} {
		_, dg := shiftedBernoulli(d)
		gp, _ := shiftedBernoulli(d + h)
		gm, _ := shiftedBernoulli(d - h)
		assert.InDeltaf(t, (gp-gm)/(2*h), dg, 1e-6*math.Max(1, math.Abs(dg)), "d=%g", d)
	}
}

func TestEdgeCurrentZeroAtEqualFermiLevels(t *testing.T) {
	sys := newTestSystem(t)
	v := []float64{0, 2, -1, 0}
	ef := []float64{0.3, 0.3, 0.3, 0.3}

	assert.Zero(t, ElectronCurrent(sys, ef, v, 0, 1, sys.Mesh.Dx[0]).J)
	assert.Zero(t, HoleCurrent(sys, ef, v, 1, 2, sys.Mesh.Dx[1]).J)
}

func TestEdgeCurrentDirection(t *testing.T) {
	sys := newTestSystem(t)
	v := make([]float64, 4)

	// Both fluxes are positive along an increasing quasi-Fermi level.
	efn := []float64{0, 0.1, 0, 0}
	assert.Positive(t, ElectronCurrent(sys, efn, v, 0, 1, sys.Mesh.Dx[0]).J)

	efp := []float64{0, 0.1, 0, 0}
	assert.Positive(t, HoleCurrent(sys, efp, v, 0, 1, sys.Mesh.Dx[0]).J)
}

func TestEdgeCurrentDerivatives(t *testing.T) {
	sys := newTestSystem(t)
	const h = 1e-6
	a, b := 1, 2
	dx := sys.Mesh.Dx[1]

	type currentFunc func(ef, v []float64) EdgeCurrent
	currents := map[string]currentFunc{
		"electron": func(ef, v []float64) EdgeCurrent { return ElectronCurrent(sys, ef, v, a, b, dx) },
		"hole":     func(ef, v []float64) EdgeCurrent { return HoleCurrent(sys, ef, v, a, b, dx) },
	}

	for name, current := range currents {
		t.Run(name, func(t *testing.T) {
			ef := []float64{0, 0.2, -0.4, 0}
			v := []float64{0, -1.5, 0.7, 0}
			c := current(ef, v)

			diff := func(x []float64, k int) float64 {
				x[k] += h
				jp := current(ef, v).J
				x[k] -= 2 * h
				jm := current(ef, v).J
				x[k] += h
				return (jp - jm) / (2 * h)
			}

			tol := func(want float64) float64 { return 1e-6 * math.Max(1, math.Abs(want)) }
			assert.InDelta(t, diff(ef, a), c.DFa, tol(c.DFa))
			assert.InDelta(t, diff(ef, b), c.DFb, tol(c.DFb))
			assert.InDelta(t, diff(v, a), c.DVa, tol(c.DVa))
			assert.InDelta(t, diff(v, b), c.DVb, tol(c.DVb))
		})
	}
}
