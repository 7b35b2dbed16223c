package assembler

import (
	"github.com/edp1096/toy-sesame/pkg/matrix"
	"github.com/edp1096/toy-sesame/pkg/observables"
)

// Rows and columns of the coupled problem are laid out per site as
// (efn, efp, v):
//
//	fn row = 3s, fp row = 3s+1, fv row = 3s+2
//	efn_s col = 3s, efp_s col = 3s+1, v_s col = 3s+2
func fnRow(s int) int { return 3 * s }
func fpRow(s int) int { return 3*s + 1 }
func fvRow(s int) int { return 3*s + 2 }
func vCol(s int) int { return 3*s + 2 }

// edgeCurrents holds the four fluxes of a stencil site, each directed
// from the lower to the higher index along its axis.
type edgeCurrents struct {
	left, right observables.EdgeCurrent
	down, up    observables.EdgeCurrent
}

func (a *Assembler) electronCurrents(st *stencil, efn, v []float64) edgeCurrents {
	sys := a.sys
	c := edgeCurrents{
		left:  observables.ElectronCurrent(sys, efn, v, st.left.site, st.s, st.left.h),
		right: observables.ElectronCurrent(sys, efn, v, st.s, st.right.site, st.right.h),
	}
	if st.transverse {
		c.down = observables.ElectronCurrent(sys, efn, v, st.down.site, st.s, st.down.h)
		c.up = observables.ElectronCurrent(sys, efn, v, st.s, st.up.site, st.up.h)
	}
	return c
}

func (a *Assembler) holeCurrents(st *stencil, efp, v []float64) edgeCurrents {
	sys := a.sys
	c := edgeCurrents{
		left:  observables.HoleCurrent(sys, efp, v, st.left.site, st.s, st.left.h),
		right: observables.HoleCurrent(sys, efp, v, st.s, st.right.site, st.right.h),
	}
	if st.transverse {
		c.down = observables.HoleCurrent(sys, efp, v, st.down.site, st.s, st.down.h)
		c.up = observables.HoleCurrent(sys, efp, v, st.s, st.up.site, st.up.h)
	}
	return c
}

// divergence is the discrete divergence of the fluxes at the stencil site.
func (c *edgeCurrents) divergence(st *stencil) float64 {
	div := (c.right.J - c.left.J) / st.dxbar
	if st.transverse {
		div += (c.up.J - c.down.J) / st.dybar
	}
	return div
}

// Residual returns the coupled residual of length 3*Nsites.
func (a *Assembler) Residual(st State) ([]float64, error) {
	if err := st.check(a.NumSites()); err != nil {
		return nil, err
	}
	t := a.localTerms(st.Efn, st.Efp, st.V, true)
	return a.residual(st, t), nil
}

// Jacobian returns the exact Jacobian of Residual.
func (a *Assembler) Jacobian(st State) (*matrix.Triplet, error) {
	if err := st.check(a.NumSites()); err != nil {
		return nil, err
	}
	t := a.localTerms(st.Efn, st.Efp, st.V, true)
	return a.jacobian(st, t), nil
}

// Coupled returns the residual and the Jacobian sharing one evaluation of
// the local site terms.
func (a *Assembler) Coupled(st State) ([]float64, *matrix.Triplet, error) {
	if err := st.check(a.NumSites()); err != nil {
		return nil, nil, err
	}
	t := a.localTerms(st.Efn, st.Efp, st.V, true)
	return a.residual(st, t), a.jacobian(st, t), nil
}

func (a *Assembler) residual(state State, t *siteTerms) []float64 {
	sys := a.sys
	efn, efp, v := state.Efn, state.Efp, state.V
	f := make([]float64, 3*a.NumSites())

	stencils := a.geom.stencils()
	for k := range stencils {
		st := &stencils[k]
		s := st.s
		r := t.recombine[s].R

		jn := a.electronCurrents(st, efn, v)
		jp := a.holeCurrents(st, efp, v)

		f[fnRow(s)] = jn.divergence(st) + sys.G[s] - r
		f[fpRow(s)] = jp.divergence(st) + r - sys.G[s]
		f[fvRow(s)] = st.laplacian(v) - t.rho[s]
	}

	for _, c := range a.contacts {
		s, nb := c.s, c.neighbor
		n, p := t.n[s], t.p[s]

		if c.side == 0 {
			jn := observables.ElectronCurrent(sys, efn, v, s, nb.site, nb.h)
			jp := observables.HoleCurrent(sys, efp, v, s, nb.site, nb.h)

			f[fnRow(s)] = jn.J - sys.Scn[0]*(n-c.nEq)
			f[fpRow(s)] = jp.J + sys.Scp[0]*(p-c.pEq)
		} else {
			r := t.recombine[s].R
			jn := observables.ElectronCurrent(sys, efn, v, nb.site, s, nb.h)
			jp := observables.HoleCurrent(sys, efp, v, nb.site, s, nb.h)

			// Extend the last edge current through the contact site.
			jnOut := jn.J + nb.h*(r-sys.G[s])
			jpOut := jp.J + nb.h*(sys.G[s]-r)

			f[fnRow(s)] = jnOut + sys.Scn[1]*(n-c.nEq)
			f[fpRow(s)] = jpOut - sys.Scp[1]*(p-c.pEq)
		}
		f[fvRow(s)] = 0 // Dirichlet
	}

	return f
}

// stampEdge adds w times the derivatives of an edge current from site a to
// site b to row. offset selects the quasi-Fermi column: 0 efn, 1 efp.
func stampEdge(J matrix.Stamper, row int, c observables.EdgeCurrent, a, b, offset int, w float64) {
	J.AddElement(row, 3*a+offset, w*c.DFa)
	J.AddElement(row, 3*b+offset, w*c.DFb)
	J.AddElement(row, vCol(a), w*c.DVa)
	J.AddElement(row, vCol(b), w*c.DVb)
}

func stampDivergence(J matrix.Stamper, row int, st *stencil, c *edgeCurrents, offset int) {
	stampEdge(J, row, c.right, st.s, st.right.site, offset, 1/st.dxbar)
	stampEdge(J, row, c.left, st.left.site, st.s, offset, -1/st.dxbar)
	if st.transverse {
		stampEdge(J, row, c.up, st.s, st.up.site, offset, 1/st.dybar)
		stampEdge(J, row, c.down, st.down.site, st.s, offset, -1/st.dybar)
	}
}

// stampLocal adds w times the derivatives of a local quantity q(n, p) at
// site s, given dq/dn and dq/dp.
func stampLocal(J matrix.Stamper, row, s int, dqdn, dqdp, n, p, w float64) {
	J.AddElement(row, 3*s, w*dqdn*n)
	J.AddElement(row, 3*s+1, -w*dqdp*p)
	J.AddElement(row, vCol(s), w*(dqdn*n-dqdp*p))
}

func (a *Assembler) jacobian(state State, t *siteTerms) *matrix.Triplet {
	sys := a.sys
	efn, efp, v := state.Efn, state.Efp, state.V
	size := 3 * a.NumSites()
	J := matrix.NewTriplet(size, size)

	stencils := a.geom.stencils()
	for k := range stencils {
		st := &stencils[k]
		s := st.s
		n, p := t.n[s], t.p[s]
		rate := t.recombine[s]

		jn := a.electronCurrents(st, efn, v)
		stampDivergence(J, fnRow(s), st, &jn, 0)
		stampLocal(J, fnRow(s), s, rate.Dn, rate.Dp, n, p, -1)

		jp := a.holeCurrents(st, efp, v)
		stampDivergence(J, fpRow(s), st, &jp, 1)
		stampLocal(J, fpRow(s), s, rate.Dn, rate.Dp, n, p, 1)

		st.stampLaplacian(J, fvRow(s), vCol)
		stampLocal(J, fvRow(s), s, t.drhoDn[s], t.drhoDp[s], n, p, -1)
	}

	for _, c := range a.contacts {
		s, nb := c.s, c.neighbor
		n, p := t.n[s], t.p[s]

		if c.side == 0 {
			jn := observables.ElectronCurrent(sys, efn, v, s, nb.site, nb.h)
			stampEdge(J, fnRow(s), jn, s, nb.site, 0, 1)
			stampLocal(J, fnRow(s), s, 1, 0, n, p, -sys.Scn[0])

			jp := observables.HoleCurrent(sys, efp, v, s, nb.site, nb.h)
			stampEdge(J, fpRow(s), jp, s, nb.site, 1, 1)
			stampLocal(J, fpRow(s), s, 0, 1, n, p, sys.Scp[0])
		} else {
			rate := t.recombine[s]

			jn := observables.ElectronCurrent(sys, efn, v, nb.site, s, nb.h)
			stampEdge(J, fnRow(s), jn, nb.site, s, 0, 1)
			stampLocal(J, fnRow(s), s, rate.Dn, rate.Dp, n, p, nb.h)
			stampLocal(J, fnRow(s), s, 1, 0, n, p, sys.Scn[1])

			jp := observables.HoleCurrent(sys, efp, v, nb.site, s, nb.h)
			stampEdge(J, fpRow(s), jp, nb.site, s, 1, 1)
			stampLocal(J, fpRow(s), s, rate.Dn, rate.Dp, n, p, -nb.h)
			stampLocal(J, fpRow(s), s, 0, 1, n, p, -sys.Scp[1])
		}
		J.AddElement(fvRow(s), vCol(s), 1)
	}

	return J
}
