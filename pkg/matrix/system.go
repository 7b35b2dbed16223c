package matrix

import (
	"fmt"
	"io"

	"github.com/edp1096/sparse"
)

// SystemMatrix wraps a real sparse matrix and its right hand side for a
// single factor-and-solve. Indices are 0-based; the underlying matrix is
// 1-based.
type SystemMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func NewSystemMatrix(size int) (*SystemMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		Translate:      false,
		ModifiedNodal:  false,
		TiesMultiplier: 5,
		PrinterWidth:   140,
		Annotate:       0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &SystemMatrix{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based indexing
		solution: make([]float64, size+1),
		config:   config,
	}, nil
}

func (m *SystemMatrix) AddElement(i, j int, value float64) {
	if i < 0 || j < 0 || i >= m.Size || j >= m.Size {
		panic(fmt.Sprintf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size))
	}
	m.matrix.GetElement(int64(i+1), int64(j+1)).Real += value
}

func (m *SystemMatrix) SetRHS(b []float64) {
	copy(m.rhs[1:], b)
}

func (m *SystemMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}

	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	m.solution = solution
	return nil
}

// Solution returns a 0-based copy of the last solution.
func (m *SystemMatrix) Solution() []float64 {
	x := make([]float64, m.Size)
	copy(x, m.solution[1:])
	return x
}

// PrintSystem writes the assembled equations. Call it before Solve, which
// overwrites the entries with their LU factors.
func (m *SystemMatrix) PrintSystem(w io.Writer) {
	fmt.Fprintf(w, "\nJacobian (%dx%d):\n", m.Size, m.Size)
	for i := 1; i <= m.Size; i++ {
		fmt.Fprintf(w, "Row %d:", i-1)
		for j := 1; j <= m.Size; j++ {
			// GetElement would create missing entries.
			if v, ok := m.at(i, j); ok && v != 0 {
				fmt.Fprintf(w, "  %+g*x%d", v, j-1)
			}
		}
		fmt.Fprintf(w, " = %g\n", m.rhs[i])
	}
}

func (m *SystemMatrix) at(i, j int) (float64, bool) {
	for e := m.matrix.FirstInCol[j]; e != nil; e = e.NextInCol {
		if int(e.Row) == i {
			return e.Real, true
		}
	}
	return 0, false
}

func (m *SystemMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}
