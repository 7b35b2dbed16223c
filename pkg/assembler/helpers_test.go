package assembler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/edp1096/toy-sesame/pkg/matrix"
	"github.com/edp1096/toy-sesame/pkg/system"
)

// Non-uniform mesh of a few Debye lengths per cell, junction in the middle.
var (
	testX = []float64{0, 1.5e-7, 4e-7, 6e-7, 7e-7, 1e-6}
	testY = []float64{0, 2e-7, 3e-7, 6e-7, 8e-7}
)

func testMaterial() system.Material {
	return system.Material{
		Nc: 1e19, Nv: 1e19, Eg: 0.1, Epsilon: 10,
		MuE: 100, MuH: 50, TauE: 1e-9, TauH: 2e-9, Et: 0.02,
		MuEFunc: func(x, y float64) float64 { return 100 + 1e8*x },
	}
}

type testOptions struct {
	twoD       bool
	defects    bool
	transition system.Transition
}

func newTestSystem(t *testing.T, opts testOptions) *system.System {
	t.Helper()
	var y []float64
	if opts.twoD {
		y = testY
	}

	b, err := system.NewBuilder(testX, y)
	require.NoError(t, err)

	b.AddMaterial(testMaterial(), nil)
	b.AddDonor(1e18, func(x, y float64) bool { return x < 5e-7 })
	b.AddAcceptor(1e18, func(x, y float64) bool { return x >= 5e-7 })
	b.ContactS(1e7, 1e5, 1e4, 1e7)
	b.Generation(func(x, y float64) float64 { return 1e30 * math.Exp(-1e6*x) })

	if opts.defects {
		if opts.twoD {
			b.AddDefects([2]float64{0, 3e-7}, [2]float64{1e-6, 3e-7}, 1e11, 1e-13, 0.01, opts.transition)
		} else {
			b.AddDefects([2]float64{6e-7, 0}, [2]float64{6e-7, 0}, 1e11, 1e-13, 0.01, opts.transition)
		}
	}

	sys, err := b.Build()
	require.NoError(t, err)
	return sys
}

// testState is a smooth non-equilibrium state around the neutral potential.
func testState(sys *system.System) State {
	n := sys.NumSites()
	st := NewState(n)
	for s := 0; s < n; s++ {
		rho := sys.Rho[s]
		ni := sys.Ni[s]
		nn := (rho + math.Sqrt(rho*rho+4*ni*ni)) / 2
		st.V[s] = math.Log(nn/sys.Nc[s]) - sys.Bl[s] + 0.1*math.Sin(float64(s))
		st.Efn[s] = 0.05 * math.Sin(0.7*float64(s))
		st.Efp[s] = -0.03 * math.Cos(1.3*float64(s))
	}
	return st
}

// numericJacobian differentiates f with central differences.
func numericJacobian(x []float64, f func(x []float64) []float64) *mat.Dense {
	const h = 1e-6
	rows := len(f(x))
	J := mat.NewDense(rows, len(x), nil)

	for k := range x {
		orig := x[k]
		x[k] = orig + h
		fp := f(x)
		x[k] = orig - h
		fm := f(x)
		x[k] = orig

		for i := 0; i < rows; i++ {
			J.Set(i, k, (fp[i]-fm[i])/(2*h))
		}
	}
	return J
}

// assertJacobianClose compares an assembled Jacobian with a numeric one.
// Rows in dirichlet have a constant residual and must be identity rows.
func assertJacobianClose(t *testing.T, want *mat.Dense, got *matrix.Triplet, dirichlet map[int]bool) {
	t.Helper()
	dense := got.Finalize().ToDense()

	r, c := want.Dims()
	gr, gc := dense.Dims()
	require.Equal(t, r, gr)
	require.Equal(t, c, gc)

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w, g := want.At(i, j), dense.At(i, j)
			if dirichlet[i] {
				w = 0
				if i == j {
					w = 1
				}
			}
			tol := 1e-6 * math.Max(1, math.Abs(w))
			if math.Abs(w-g) > tol {
				assert.Failf(t, "jacobian mismatch", "entry (%d, %d): numeric %g, assembled %g", i, j, w, g)
			}
		}
	}
}

func packState(st State) []float64 {
	n := len(st.V)
	x := make([]float64, 3*n)
	for s := 0; s < n; s++ {
		x[fnRow(s)], x[fpRow(s)], x[vCol(s)] = st.Efn[s], st.Efp[s], st.V[s]
	}
	return x
}

func unpackState(x []float64) State {
	n := len(x) / 3
	st := NewState(n)
	for s := 0; s < n; s++ {
		st.Efn[s], st.Efp[s], st.V[s] = x[3*s], x[3*s+1], x[3*s+2]
	}
	return st
}
