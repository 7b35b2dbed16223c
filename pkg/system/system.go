package system

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-sesame/pkg/mesh"
)

var (
	ErrZeroDoping   = errors.New("zero net doping at contact")
	ErrInvalidInput = errors.New("invalid system")
)

// Transition selects the charge states of a defect level.
type Transition int

const (
	// Amphoteric states carry +Nt/2 when empty and -Nt/2 when filled.
	Amphoteric Transition = iota
	// DonorLike states are positive when empty and neutral when filled.
	DonorLike
	// AcceptorLike states are neutral when empty and negative when filled.
	AcceptorLike
)

func (t Transition) String() string {
	switch t {
	case Amphoteric:
		return "amphoteric"
	case DonorLike:
		return "donor"
	case AcceptorLike:
		return "acceptor"
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

// ParseTransition reads "amphoteric", "donor" or "acceptor". An empty
// string is amphoteric.
func ParseTransition(s string) (Transition, error) {
	switch s {
	case "", "amphoteric":
		return Amphoteric, nil
	case "donor":
		return DonorLike, nil
	case "acceptor":
		return AcceptorLike, nil
	}
	return 0, fmt.Errorf("%w: unknown defect transition %q", ErrInvalidInput, s)
}

// DefectSet is one family of localized gap states (e.g. a grain boundary)
// restricted to a subset of sites. All arrays are indexed like Sites.
type DefectSet struct {
	Sites       []int
	Density     []float64 // Scaled volume density of states
	NExtra      []float64 // Electron reference density of the level
	PExtra      []float64 // Hole reference density of the level
	CaptureRate []float64 // Scaled capture rate, inverse of an effective lifetime

	Transition Transition
}

func (d *DefectSet) validate(nsites int) error {
	n := len(d.Sites)
	if len(d.Density) != n || len(d.NExtra) != n || len(d.PExtra) != n || len(d.CaptureRate) != n {
		return fmt.Errorf("%w: defect arrays do not match %d sites", ErrInvalidInput, n)
	}
	if d.Transition < Amphoteric || d.Transition > AcceptorLike {
		return fmt.Errorf("%w: unknown defect transition %v", ErrInvalidInput, d.Transition)
	}
	for k, s := range d.Sites {
		if s < 0 || s >= nsites {
			return fmt.Errorf("%w: defect site %d out of range", ErrInvalidInput, s)
		}
		if d.NExtra[k]+d.PExtra[k] <= 0 {
			return fmt.Errorf("%w: defect at site %d has no reference density", ErrInvalidInput, s)
		}
		if d.Density[k] < 0 || d.CaptureRate[k] < 0 {
			return fmt.Errorf("%w: defect at site %d has negative density or capture rate", ErrInvalidInput, s)
		}
	}
	return nil
}

// System is the scaled description of a device on a mesh. It is
// read-only for the assemblers and solvers.
type System struct {
	Mesh    *mesh.Mesh // Scaled mesh
	Scaling Scaling

	Epsilon []float64
	Rho     []float64 // Net dopant density, donors minus acceptors
	Ni      []float64 // Intrinsic density
	N1      []float64 // Bulk trap electron reference density
	P1      []float64 // Bulk trap hole reference density
	TauE    []float64
	TauH    []float64
	G       []float64 // Generation rate
	MuE     []float64
	MuH     []float64
	Nc      []float64
	Nv      []float64
	Eg      []float64
	Bl      []float64 // Electron affinity

	// Surface recombination velocities, index 0 left and 1 right.
	Scn [2]float64
	Scp [2]float64

	// Defects is empty for a device without localized states.
	Defects []DefectSet
}

func (sys *System) NumSites() int { return sys.Mesh.NumSites() }

func (sys *System) Dimension() int { return sys.Mesh.Dimension() }

func (sys *System) HasDefects() bool { return len(sys.Defects) > 0 }

// WithGeneration returns a copy of sys with the generation rate multiplied
// by scale. Every other array is shared with sys.
func (sys *System) WithGeneration(scale float64) *System {
	out := *sys
	out.G = make([]float64, len(sys.G))
	floats.ScaleTo(out.G, scale, sys.G)
	return &out
}

// Validate checks that every per-site array matches the mesh and that the
// defect sets are well formed.
func (sys *System) Validate() error {
	if sys.Mesh == nil {
		return fmt.Errorf("%w: no mesh", ErrInvalidInput)
	}
	nsites := sys.NumSites()

	fields := []struct {
		name string
		data []float64
	}{
		{"epsilon", sys.Epsilon},
		{"rho", sys.Rho},
		{"ni", sys.Ni},
		{"n1", sys.N1},
		{"p1", sys.P1},
		{"tau_e", sys.TauE},
		{"tau_h", sys.TauH},
		{"g", sys.G},
		{"mu_e", sys.MuE},
		{"mu_h", sys.MuH},
		{"Nc", sys.Nc},
		{"Nv", sys.Nv},
		{"Eg", sys.Eg},
		{"bl", sys.Bl},
	}
	for _, f := range fields {
		if len(f.data) != nsites {
			return fmt.Errorf("%w: %s has %d values, mesh has %d sites", ErrInvalidInput, f.name, len(f.data), nsites)
		}
	}
	for s := 0; s < nsites; s++ {
		if sys.Epsilon[s] <= 0 {
			return fmt.Errorf("%w: non-positive permittivity at site %d", ErrInvalidInput, s)
		}
		if sys.Nc[s] <= 0 || sys.Nv[s] <= 0 {
			return fmt.Errorf("%w: non-positive density of states at site %d", ErrInvalidInput, s)
		}
	}

	for k := range sys.Defects {
		if err := sys.Defects[k].validate(nsites); err != nil {
			return fmt.Errorf("defect set %d: %w", k, err)
		}
	}
	return nil
}

// ContactEquilibrium returns the equilibrium carrier densities used by the
// Ohmic boundary condition at site s. The majority density is fixed by the
// net doping; a site without net doping has no defined reference.
func (sys *System) ContactEquilibrium(s int) (nEq, pEq float64, err error) {
	rho := sys.Rho[s]
	ni2 := sys.Ni[s] * sys.Ni[s]

	switch {
	case rho < 0: // p doped
		pEq = -rho
		nEq = ni2 / pEq
	case rho > 0: // n doped
		nEq = rho
		pEq = ni2 / nEq
	default:
		return 0, 0, fmt.Errorf("%w: site %d", ErrZeroDoping, s)
	}
	return nEq, pEq, nil
}

// EquilibriumPotential returns the potential for which the local electron
// density equals the contact equilibrium density at site s.
func (sys *System) EquilibriumPotential(s int) (float64, error) {
	nEq, _, err := sys.ContactEquilibrium(s)
	if err != nil {
		return 0, err
	}
	return math.Log(nEq/sys.Nc[s]) - sys.Bl[s], nil
}
