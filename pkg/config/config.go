package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edp1096/toy-sesame/pkg/mesh"
	"github.com/edp1096/toy-sesame/pkg/solver"
	"github.com/edp1096/toy-sesame/pkg/system"
)

var ErrInvalidConfig = errors.New("invalid device description")

// Device is the YAML description of a simulation. Lengths are in cm,
// densities in cm^-3, energies in eV.
type Device struct {
	Title           string     `yaml:"title"`
	Temperature     *Value     `yaml:"temperature"`
	Density         *Value     `yaml:"density"`          // Scaling density
	ThermalVelocity *Value     `yaml:"thermal_velocity"` // Used for defect capture
	Mesh            MeshSpec   `yaml:"mesh"`
	Materials       []Material `yaml:"materials"`
	Donors          []Doping   `yaml:"donors"`
	Acceptors       []Doping   `yaml:"acceptors"`
	Contacts        Contacts   `yaml:"contacts"`
	Defects         []Defect   `yaml:"defects"`
	Generation      Generation `yaml:"generation"`
	Solver          Solver     `yaml:"solver"`
}

// Segment is a run of evenly spaced nodes. The stop coordinate is included
// only on the last segment of an axis.
type Segment struct {
	Start Value `yaml:"start"`
	Stop  Value `yaml:"stop"`
	Num   int   `yaml:"num"`
}

type MeshSpec struct {
	X []Segment `yaml:"x"`
	Y []Segment `yaml:"y"` // Empty for 1D
}

// Box is an axis-aligned region, an unset bound is open.
type Box struct {
	XMin *Value `yaml:"xmin"`
	XMax *Value `yaml:"xmax"`
	YMin *Value `yaml:"ymin"`
	YMax *Value `yaml:"ymax"`
}

// Material overrides the parameters of system.DefaultMaterial that are set.
type Material struct {
	Name     string `yaml:"name"`
	Nc       *Value `yaml:"Nc"`
	Nv       *Value `yaml:"Nv"`
	Eg       *Value `yaml:"Eg"`
	Affinity *Value `yaml:"affinity"`
	Epsilon  *Value `yaml:"epsilon"`
	MuE      *Value `yaml:"mu_e"`
	MuH      *Value `yaml:"mu_h"`
	TauE     *Value `yaml:"tau_e"`
	TauH     *Value `yaml:"tau_h"`
	Et       *Value `yaml:"Et"`
	Region   *Box   `yaml:"region"`
}

type Doping struct {
	Density Value `yaml:"density"`
	Region  *Box  `yaml:"region"`
}

// Contacts holds surface recombination velocities in cm/s.
type Contacts struct {
	SnLeft  *Value `yaml:"sn_left"`
	SpLeft  *Value `yaml:"sp_left"`
	SnRight *Value `yaml:"sn_right"`
	SpRight *Value `yaml:"sp_right"`
}

// Defect is a line of gap states between P1 and P2.
type Defect struct {
	P1           [2]Value `yaml:"p1"`
	P2           [2]Value `yaml:"p2"`
	Density      Value    `yaml:"density"`       // cm^-2
	CrossSection Value    `yaml:"cross_section"` // cm^2
	Energy       Value    `yaml:"energy"`        // eV from the intrinsic level
	Transition   string   `yaml:"transition"`    // amphoteric (default), donor or acceptor
}

// Generation is either uniform or a Beer-Lambert profile
// G(x) = phi*alpha*exp(-alpha*x) illuminated from x = 0.
type Generation struct {
	Uniform *Value       `yaml:"uniform"`
	Beer    *BeerLambert `yaml:"beer_lambert"`
}

type BeerLambert struct {
	Phi   Value `yaml:"phi"`   // Photon flux, cm^-2 s^-1
	Alpha Value `yaml:"alpha"` // Absorption coefficient, cm^-1
}

type Solver struct {
	Tolerance *Value `yaml:"tolerance"`
	MaxStep   int    `yaml:"max_step"`
	Info      int    `yaml:"info"`
	Ramp      int    `yaml:"ramp"` // Generation steps of the coupled solve
}

func Load(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Device, error) {
	var dev Device
	if err := yaml.Unmarshal(data, &dev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := dev.validate(); err != nil {
		return nil, err
	}
	return &dev, nil
}

func (d *Device) validate() error {
	if len(d.Mesh.X) == 0 {
		return fmt.Errorf("%w: mesh.x has no segments", ErrInvalidConfig)
	}
	if len(d.Materials) == 0 {
		return fmt.Errorf("%w: no materials", ErrInvalidConfig)
	}
	for k, seg := range append(append([]Segment(nil), d.Mesh.X...), d.Mesh.Y...) {
		if seg.Num < 1 {
			return fmt.Errorf("%w: mesh segment %d has %d nodes", ErrInvalidConfig, k, seg.Num)
		}
	}
	for k, df := range d.Defects {
		if _, err := system.ParseTransition(df.Transition); err != nil {
			return fmt.Errorf("%w: defect %d: %v", ErrInvalidConfig, k, err)
		}
	}
	if d.Generation.Uniform != nil && d.Generation.Beer != nil {
		return fmt.Errorf("%w: generation is both uniform and beer_lambert", ErrInvalidConfig)
	}
	return nil
}

// Axis concatenates segments into node coordinates.
func Axis(segments []Segment) []float64 {
	var pts []float64
	for k, seg := range segments {
		last := k == len(segments)-1
		pts = append(pts, mesh.Linspace(seg.Start.Float(), seg.Stop.Float(), seg.Num, last)...)
	}
	return pts
}

func (b *Box) region() system.Region {
	if b == nil {
		return nil
	}
	xmin, xmax := valueOr(b.XMin, math.Inf(-1)), valueOr(b.XMax, math.Inf(1))
	ymin, ymax := valueOr(b.YMin, math.Inf(-1)), valueOr(b.YMax, math.Inf(1))
	return func(x, y float64) bool {
		return x >= xmin && x <= xmax && y >= ymin && y <= ymax
	}
}

func (m *Material) material() system.Material {
	mat := system.DefaultMaterial()
	mat.Nc = valueOr(m.Nc, mat.Nc)
	mat.Nv = valueOr(m.Nv, mat.Nv)
	mat.Eg = valueOr(m.Eg, mat.Eg)
	mat.Affinity = valueOr(m.Affinity, mat.Affinity)
	mat.Epsilon = valueOr(m.Epsilon, mat.Epsilon)
	mat.MuE = valueOr(m.MuE, mat.MuE)
	mat.MuH = valueOr(m.MuH, mat.MuH)
	mat.TauE = valueOr(m.TauE, mat.TauE)
	mat.TauH = valueOr(m.TauH, mat.TauH)
	mat.Et = valueOr(m.Et, mat.Et)
	return mat
}

func (g *Generation) profile() func(x, y float64) float64 {
	switch {
	case g.Uniform != nil:
		v := g.Uniform.Float()
		return func(x, y float64) float64 { return v }
	case g.Beer != nil:
		phi, alpha := g.Beer.Phi.Float(), g.Beer.Alpha.Float()
		return func(x, y float64) float64 { return phi * alpha * math.Exp(-alpha*x) }
	}
	return nil
}

// Builder returns a system builder populated from the description.
func (d *Device) Builder() (*system.Builder, error) {
	x := Axis(d.Mesh.X)
	var y []float64
	if len(d.Mesh.Y) > 0 {
		y = Axis(d.Mesh.Y)
	}

	b, err := system.NewBuilder(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	b.SetTemperature(valueOr(d.Temperature, 0))
	b.SetReferenceDensity(valueOr(d.Density, system.DefaultDensity))
	b.SetThermalVelocity(valueOr(d.ThermalVelocity, system.DefaultThermalVelocity))

	for k := range d.Materials {
		m := &d.Materials[k]
		b.AddMaterial(m.material(), m.Region.region())
	}
	for _, dop := range d.Donors {
		b.AddDonor(dop.Density.Float(), dop.Region.region())
	}
	for _, dop := range d.Acceptors {
		b.AddAcceptor(dop.Density.Float(), dop.Region.region())
	}

	c := d.Contacts
	b.ContactS(
		valueOr(c.SnLeft, system.DefaultContactVelocity),
		valueOr(c.SpLeft, system.DefaultContactVelocity),
		valueOr(c.SnRight, system.DefaultContactVelocity),
		valueOr(c.SpRight, system.DefaultContactVelocity),
	)

	for _, df := range d.Defects {
		tr, err := system.ParseTransition(df.Transition)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		b.AddDefects(
			[2]float64{df.P1[0].Float(), df.P1[1].Float()},
			[2]float64{df.P2[0].Float(), df.P2[1].Float()},
			df.Density.Float(), df.CrossSection.Float(), df.Energy.Float(), tr,
		)
	}

	if g := d.Generation.profile(); g != nil {
		b.Generation(g)
	}
	return b, nil
}

// Build is Builder followed by system.Builder.Build.
func (d *Device) Build() (*system.System, error) {
	b, err := d.Builder()
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func (d *Device) SolverOptions() solver.Options {
	return solver.Options{
		Tolerance: valueOr(d.Solver.Tolerance, solver.DefaultTolerance),
		MaxStep:   d.Solver.MaxStep,
		Info:      d.Solver.Info,
		Ramp:      d.Solver.Ramp,
	}
}
