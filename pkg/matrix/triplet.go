package matrix

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// Entry is one (row, column, value) contribution. 0-based.
type Entry struct {
	Row, Col int
	Value    float64
}

// Triplet collects matrix contributions. Entries sharing a position are
// summed when the matrix is finalized.
type Triplet struct {
	rows, cols int
	entries    []Entry
}

func NewTriplet(r, c int) *Triplet {
	return &Triplet{rows: r, cols: c}
}

func (t *Triplet) Dims() (r, c int) {
	return t.rows, t.cols
}

// AddElement appends a contribution at (i, j).
func (t *Triplet) AddElement(i, j int, value float64) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(fmt.Sprintf("matrix index out of bounds (i=%d, j=%d, size=%dx%d)", i, j, t.rows, t.cols))
	}
	t.entries = append(t.entries, Entry{Row: i, Col: j, Value: value})
}

// Len returns the number of raw contributions, duplicates included.
func (t *Triplet) Len() int { return len(t.entries) }

// Entries exposes the raw contributions in insertion order.
func (t *Triplet) Entries() []Entry { return t.entries }

// Finalize sums duplicate positions and compresses the matrix into CSR form.
func (t *Triplet) Finalize() *sparse.CSR {
	dok := sparse.NewDOK(t.rows, t.cols)
	for _, e := range t.entries {
		dok.Set(e.Row, e.Col, dok.At(e.Row, e.Col)+e.Value)
	}
	return dok.ToCSR()
}

// MulVec computes dst = A*x directly from the contributions.
func (t *Triplet) MulVec(dst, x []float64) {
	if len(x) != t.cols || len(dst) != t.rows {
		panic("dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, e := range t.entries {
		dst[e.Row] += e.Value * x[e.Col]
	}
}
