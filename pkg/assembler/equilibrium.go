package assembler

import (
	"fmt"

	"github.com/edp1096/toy-sesame/pkg/matrix"
)

// Equilibrium returns the Poisson residual and its Jacobian with respect to
// v, with both quasi-Fermi levels pinned at zero.
//
// Rows are indexed by site. Interior sites carry -lap(v) - rho/eps, the
// left and right columns are Dirichlet rows (residual 0, identity row).
func (a *Assembler) Equilibrium(v []float64) ([]float64, *matrix.Triplet, error) {
	nsites := a.NumSites()
	if len(v) != nsites {
		return nil, nil, fmt.Errorf("%w: potential has %d values, want %d", ErrDimension, len(v), nsites)
	}

	t := a.localTerms(a.zeros, a.zeros, v, false)

	f := make([]float64, nsites)
	J := matrix.NewTriplet(nsites, nsites)
	site := func(s int) int { return s }

	stencils := a.geom.stencils()
	for k := range stencils {
		st := &stencils[k]
		s := st.s

		f[s] = st.laplacian(v) - t.rho[s]

		st.stampLaplacian(J, s, site)
		J.AddElement(s, s, -t.drhoDv(s))
	}

	for _, c := range a.contacts {
		f[c.s] = 0 // Dirichlet
		J.AddElement(c.s, c.s, 1)
	}

	return f, J, nil
}
