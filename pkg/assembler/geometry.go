package assembler

import (
	"github.com/edp1096/toy-sesame/pkg/matrix"
	"github.com/edp1096/toy-sesame/pkg/mesh"
)

// link is the edge from a site to one of its neighbors.
type link struct {
	site int
	h    float64
}

// stencil describes a site carrying the bulk equations: its x neighbors
// and, in 2D, its y neighbors with the periodic wrap already applied.
type stencil struct {
	s           int
	left, right link
	down, up    link
	dxbar       float64
	dybar       float64
	transverse  bool
}

// contact is a site on the left or right column with the neighbor it
// exchanges current with.
type contact struct {
	s        int
	neighbor link
	side     int // 0 left, 1 right
	nEq, pEq float64
}

// Geometry enumerates the sites of a mesh by boundary regime. It is chosen
// once when the assembler is created.
type Geometry interface {
	Dimension() int
	stencils() []stencil
	contacts() []contact
}

// OneDimensional has two contact sites and an interior line.
type OneDimensional struct {
	interior []stencil
	edges    []contact
}

func newOneDimensional(m *mesh.Mesh) *OneDimensional {
	g := &OneDimensional{}
	nx := m.Nx

	for i := 1; i < nx-1; i++ {
		g.interior = append(g.interior, stencil{
			s:     i,
			left:  link{site: i - 1, h: m.Dx[i-1]},
			right: link{site: i + 1, h: m.Dx[i]},
			dxbar: (m.Dx[i-1] + m.Dx[i]) / 2,
		})
	}

	g.edges = []contact{
		{s: 0, neighbor: link{site: 1, h: m.Dx[0]}, side: 0},
		{s: nx - 1, neighbor: link{site: nx - 2, h: m.Dx[nx-2]}, side: 1},
	}
	return g
}

func (g *OneDimensional) Dimension() int { return 1 }
func (g *OneDimensional) stencils() []stencil { return g.interior }
func (g *OneDimensional) contacts() []contact { return g.edges }

// TwoDimensional has contact columns at i = 0 and i = Nx-1. The top and
// bottom rows are periodic: the row beyond j = Ny-1 is j = 0, across an
// edge of length (dy[0] + dy[Ny-2])/2.
type TwoDimensional struct {
	interior []stencil
	edges    []contact
}

func newTwoDimensional(m *mesh.Mesh) *TwoDimensional {
	g := &TwoDimensional{}
	nx, ny := m.Nx, m.Ny
	wrap := (m.Dy[0] + m.Dy[ny-2]) / 2

	for j := 0; j < ny; j++ {
		down := link{site: m.Site(0, j-1), h: 0}
		up := link{site: m.Site(0, j+1), h: 0}
		switch j {
		case 0:
			down = link{site: m.Site(0, ny-1), h: wrap}
			up.h = m.Dy[0]
		case ny - 1:
			down.h = m.Dy[j-1]
			up = link{site: m.Site(0, 0), h: wrap}
		default:
			down.h = m.Dy[j-1]
			up.h = m.Dy[j]
		}

		for i := 1; i < nx-1; i++ {
			g.interior = append(g.interior, stencil{
				s:          m.Site(i, j),
				left:       link{site: m.Site(i-1, j), h: m.Dx[i-1]},
				right:      link{site: m.Site(i+1, j), h: m.Dx[i]},
				down:       link{site: down.site + i, h: down.h},
				up:         link{site: up.site + i, h: up.h},
				dxbar:      (m.Dx[i-1] + m.Dx[i]) / 2,
				dybar:      (down.h + up.h) / 2,
				transverse: true,
			})
		}
	}

	for j := 0; j < ny; j++ {
		g.edges = append(g.edges, contact{
			s:        m.Site(0, j),
			neighbor: link{site: m.Site(1, j), h: m.Dx[0]},
			side:     0,
		})
	}
	for j := 0; j < ny; j++ {
		g.edges = append(g.edges, contact{
			s:        m.Site(nx-1, j),
			neighbor: link{site: m.Site(nx-2, j), h: m.Dx[nx-2]},
			side:     1,
		})
	}
	return g
}

func (g *TwoDimensional) Dimension() int { return 2 }
func (g *TwoDimensional) stencils() []stencil { return g.interior }
func (g *TwoDimensional) contacts() []contact { return g.edges }

func newGeometry(m *mesh.Mesh) Geometry {
	if m.Dimension() == 2 {
		return newTwoDimensional(m)
	}
	return newOneDimensional(m)
}

// laplacian is the discrete -div(grad v) at the stencil site.
func (st *stencil) laplacian(v []float64) float64 {
	s := st.s
	res := ((v[s]-v[st.left.site])/st.left.h - (v[st.right.site]-v[s])/st.right.h) / st.dxbar
	if st.transverse {
		res += ((v[s]-v[st.down.site])/st.down.h - (v[st.up.site]-v[s])/st.up.h) / st.dybar
	}
	return res
}

// stampLaplacian adds the laplacian coefficients of row. col maps a site
// to the column of its potential unknown.
func (st *stencil) stampLaplacian(J matrix.Stamper, row int, col func(int) int) {
	J.AddElement(row, col(st.left.site), -1/(st.left.h*st.dxbar))
	J.AddElement(row, col(st.right.site), -1/(st.right.h*st.dxbar))
	diag := (1/st.left.h + 1/st.right.h) / st.dxbar
	if st.transverse {
		J.AddElement(row, col(st.down.site), -1/(st.down.h*st.dybar))
		J.AddElement(row, col(st.up.site), -1/(st.up.h*st.dybar))
		diag += (1/st.down.h + 1/st.up.h) / st.dybar
	}
	J.AddElement(row, col(st.s), diag)
}
