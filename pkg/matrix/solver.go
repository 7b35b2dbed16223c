package matrix

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// LinearSolver solves A*x = b for a square sparse matrix.
type LinearSolver interface {
	Solve(a *sparse.CSR, b []float64) ([]float64, error)
}

// NewSystemFromCSR copies a and b into a new SystemMatrix. The caller owns
// the result and must Destroy it.
func NewSystemFromCSR(a *sparse.CSR, b []float64) (*SystemMatrix, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("matrix is not square (%dx%d)", r, c)
	}
	if len(b) != r {
		return nil, fmt.Errorf("rhs length %d does not match matrix size %d", len(b), r)
	}

	mat, err := NewSystemMatrix(r)
	if err != nil {
		return nil, err
	}
	a.DoNonZero(func(i, j int, v float64) {
		mat.AddElement(i, j, v)
	})
	mat.SetRHS(b)
	return mat, nil
}

// DirectSolver factorizes every matrix from scratch with Markowitz pivoting.
// The pivot order is not reused across calls since the Jacobian values
// change between Newton steps.
type DirectSolver struct{}

func NewDirectSolver() *DirectSolver { return &DirectSolver{} }

func (DirectSolver) Solve(a *sparse.CSR, b []float64) ([]float64, error) {
	mat, err := NewSystemFromCSR(a, b)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()

	if err := mat.Solve(); err != nil {
		return nil, err
	}
	return mat.Solution(), nil
}
