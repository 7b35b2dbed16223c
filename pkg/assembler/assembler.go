package assembler

import (
	"errors"
	"fmt"

	"github.com/edp1096/toy-sesame/pkg/observables"
	"github.com/edp1096/toy-sesame/pkg/system"
)

var ErrDimension = errors.New("state dimension mismatch")

// State holds the unknowns of the coupled problem.
type State struct {
	V   []float64 // Electrostatic potential
	Efn []float64 // Electron quasi-Fermi level
	Efp []float64 // Hole quasi-Fermi level
}

// NewState returns a zero state for n sites.
func NewState(n int) State {
	return State{
		V:   make([]float64, n),
		Efn: make([]float64, n),
		Efp: make([]float64, n),
	}
}

func (st State) Clone() State {
	return State{
		V:   append([]float64(nil), st.V...),
		Efn: append([]float64(nil), st.Efn...),
		Efp: append([]float64(nil), st.Efp...),
	}
}

func (st State) check(n int) error {
	if len(st.V) != n || len(st.Efn) != n || len(st.Efp) != n {
		return fmt.Errorf("%w: got (v=%d, efn=%d, efp=%d), want %d", ErrDimension, len(st.V), len(st.Efn), len(st.Efp), n)
	}
	return nil
}

// Assembler builds residuals and Jacobians for a system. The 1D or 2D
// geometry and the contact equilibrium densities are resolved once here.
type Assembler struct {
	sys      *system.System
	geom     Geometry
	contacts []contact
	zeros    []float64
}

func New(sys *system.System) (*Assembler, error) {
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	geom := newGeometry(sys.Mesh)
	contacts := append([]contact(nil), geom.contacts()...)
	for k := range contacts {
		nEq, pEq, err := sys.ContactEquilibrium(contacts[k].s)
		if err != nil {
			return nil, err
		}
		contacts[k].nEq, contacts[k].pEq = nEq, pEq
	}

	return &Assembler{
		sys:      sys,
		geom:     geom,
		contacts: contacts,
		zeros:    make([]float64, sys.NumSites()),
	}, nil
}

func (a *Assembler) System() *system.System { return a.sys }

func (a *Assembler) Geometry() Geometry { return a.geom }

func (a *Assembler) NumSites() int { return a.sys.NumSites() }

// siteTerms are the local quantities shared by every row of a site.
type siteTerms struct {
	n, p []float64

	// Charge density divided by the permittivity, and its derivatives with
	// respect to n and p.
	rho          []float64
	drhoDn       []float64
	drhoDp       []float64
	recombine    []observables.Rate
	hasRecombine bool
}

// drhoDv is the derivative of the scaled charge with respect to the
// potential, using dn/dv = n and dp/dv = -p.
func (t *siteTerms) drhoDv(s int) float64 {
	return t.drhoDn[s]*t.n[s] - t.drhoDp[s]*t.p[s]
}

// localTerms evaluates densities, charge and optionally recombination on
// every site. Defect corrections are applied only on the sites of each
// defect set.
func (a *Assembler) localTerms(efn, efp, v []float64, withRecombination bool) *siteTerms {
	sys := a.sys
	nsites := sys.NumSites()

	n, p := observables.Densities(sys, efn, efp, v)
	t := &siteTerms{
		n:      n,
		p:      p,
		rho:    make([]float64, nsites),
		drhoDn: make([]float64, nsites),
		drhoDp: make([]float64, nsites),
	}

	for s := 0; s < nsites; s++ {
		t.rho[s] = sys.Rho[s] - n[s] + p[s]
		t.drhoDn[s] = -1
		t.drhoDp[s] = 1
	}

	if withRecombination {
		t.hasRecombine = true
		t.recombine = make([]observables.Rate, nsites)
		for s := 0; s < nsites; s++ {
			t.recombine[s] = observables.SRH(n[s], p[s], sys.N1[s], sys.P1[s], sys.TauE[s], sys.TauH[s])
		}
	}

	if sys.HasDefects() {
		for _, d := range sys.Defects {
			for k, s := range d.Sites {
				q, dqdn, dqdp := observables.OccupationCharge(d.Transition, n[s], p[s], d.NExtra[k], d.PExtra[k], d.Density[k])
				t.rho[s] += q
				t.drhoDn[s] += dqdn
				t.drhoDp[s] += dqdp

				if withRecombination {
					t.recombine[s].Add(observables.Capture(n[s], p[s], d.NExtra[k], d.PExtra[k], d.CaptureRate[k]))
				}
			}
		}
	}

	for s := 0; s < nsites; s++ {
		eps := sys.Epsilon[s]
		t.rho[s] /= eps
		t.drhoDn[s] /= eps
		t.drhoDp[s] /= eps
	}
	return t
}
