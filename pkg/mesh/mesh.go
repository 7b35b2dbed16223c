package mesh

import (
	"errors"
	"fmt"
)

var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is a structured grid of nodes. Sites are numbered row by row:
// s = i + j*Nx.
type Mesh struct {
	X  []float64 // Node coordinates along x
	Y  []float64 // Node coordinates along y, nil or single node for 1D
	Dx []float64 // Spacings along x, len(X)-1
	Dy []float64 // Spacings along y, len(Y)-1
	Nx int
	Ny int
}

// New builds a mesh from node coordinates. A nil or single-point y axis
// makes a 1D mesh.
func New(x, y []float64) (*Mesh, error) {
	if len(x) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 nodes along x, got %d", ErrInvalidMesh, len(x))
	}
	dx, err := spacings(x)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}

	m := &Mesh{
		X:  append([]float64(nil), x...),
		Dx: dx,
		Nx: len(x),
		Ny: 1,
	}

	if len(y) > 1 {
		if len(y) < 3 {
			return nil, fmt.Errorf("%w: need at least 3 nodes along y, got %d", ErrInvalidMesh, len(y))
		}
		dy, err := spacings(y)
		if err != nil {
			return nil, fmt.Errorf("y axis: %w", err)
		}
		m.Y = append([]float64(nil), y...)
		m.Dy = dy
		m.Ny = len(y)
	}

	return m, nil
}

func spacings(pts []float64) ([]float64, error) {
	d := make([]float64, len(pts)-1)
	for i := range d {
		d[i] = pts[i+1] - pts[i]
		if d[i] <= 0 {
			return nil, fmt.Errorf("%w: coordinates not increasing at node %d", ErrInvalidMesh, i+1)
		}
	}
	return d, nil
}

// Dimension returns 1 or 2.
func (m *Mesh) Dimension() int {
	if m.Ny > 1 {
		return 2
	}
	return 1
}

func (m *Mesh) NumSites() int { return m.Nx * m.Ny }

func (m *Mesh) Site(i, j int) int { return i + j*m.Nx }

func (m *Mesh) Coords(s int) (i, j int) {
	return s % m.Nx, s / m.Nx
}

// Position returns the (x, y) coordinates of site s. y is zero in 1D.
func (m *Mesh) Position(s int) (x, y float64) {
	i, j := m.Coords(s)
	x = m.X[i]
	if m.Ny > 1 {
		y = m.Y[j]
	}
	return x, y
}

// Scale returns a copy of the mesh with every length divided by l.
func (m *Mesh) Scale(l float64) *Mesh {
	scaled := &Mesh{Nx: m.Nx, Ny: m.Ny}
	scaled.X = scaleAll(m.X, l)
	scaled.Dx = scaleAll(m.Dx, l)
	if m.Ny > 1 {
		scaled.Y = scaleAll(m.Y, l)
		scaled.Dy = scaleAll(m.Dy, l)
	}
	return scaled
}

func scaleAll(v []float64, l float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] / l
	}
	return out
}

// Linspace returns num evenly spaced points over [start, stop]. When
// endpoint is false stop is excluded, which lets segments be concatenated.
func Linspace(start, stop float64, num int, endpoint bool) []float64 {
	if num <= 0 {
		return nil
	}
	if num == 1 {
		return []float64{start}
	}
	div := float64(num)
	if endpoint {
		div = float64(num - 1)
	}
	step := (stop - start) / div
	pts := make([]float64, num)
	for i := range pts {
		pts[i] = start + float64(i)*step
	}
	if endpoint {
		pts[num-1] = stop
	}
	return pts
}
