package system

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-sesame/pkg/mesh"
)

const (
	DefaultDensity         = 1e19 // cm^-3
	DefaultThermalVelocity = 1e7  // cm/s
	DefaultContactVelocity = 1e7  // cm/s

	positionMatchTolerance = 1e-12
)

type lineDefect struct {
	p1, p2       [2]float64
	density      float64 // cm^-2
	crossSection float64 // cm^2
	energy       float64 // eV from the intrinsic level
	transition   Transition
}

// Builder collects physical device parameters on a mesh and produces a
// scaled System.
type Builder struct {
	mesh *mesh.Mesh

	temperature     float64
	density         float64
	thermalVelocity float64

	materials  []Material
	materialOf []int // Index into materials per site, -1 when unset
	muE, muH   []float64
	donors     []float64
	acceptors  []float64
	generation func(x, y float64) float64

	sn, sp [2]float64

	defects []lineDefect
}

// NewBuilder creates a builder on node coordinates in cm. Pass a nil y for
// a 1D device.
func NewBuilder(x, y []float64) (*Builder, error) {
	m, err := mesh.New(x, y)
	if err != nil {
		return nil, err
	}

	n := m.NumSites()
	b := &Builder{
		mesh:            m,
		density:         DefaultDensity,
		thermalVelocity: DefaultThermalVelocity,
		materialOf:      make([]int, n),
		muE:             make([]float64, n),
		muH:             make([]float64, n),
		donors:          make([]float64, n),
		acceptors:       make([]float64, n),
		sn:              [2]float64{DefaultContactVelocity, DefaultContactVelocity},
		sp:              [2]float64{DefaultContactVelocity, DefaultContactVelocity},
	}
	for s := range b.materialOf {
		b.materialOf[s] = -1
	}
	return b, nil
}

func (b *Builder) Mesh() *mesh.Mesh { return b.mesh }

func (b *Builder) SetTemperature(t float64) { b.temperature = t }

// SetReferenceDensity sets the density used to scale the problem.
func (b *Builder) SetReferenceDensity(n float64) {
	if n > 0 {
		b.density = n
	}
}

func (b *Builder) SetThermalVelocity(v float64) {
	if v > 0 {
		b.thermalVelocity = v
	}
}

// AddMaterial assigns mat to every site in region. Later calls override
// earlier ones on overlapping sites.
func (b *Builder) AddMaterial(mat Material, region Region) {
	idx := len(b.materials)
	b.materials = append(b.materials, mat)

	for s := range b.materialOf {
		x, y := b.mesh.Position(s)
		if !region.contains(x, y) {
			continue
		}
		b.materialOf[s] = idx
		b.muE[s] = mat.MuE
		if mat.MuEFunc != nil {
			b.muE[s] = mat.MuEFunc(x, y)
		}
		b.muH[s] = mat.MuH
		if mat.MuHFunc != nil {
			b.muH[s] = mat.MuHFunc(x, y)
		}
	}
}

func (b *Builder) AddDonor(density float64, region Region) {
	b.addDoping(b.donors, density, region)
}

func (b *Builder) AddAcceptor(density float64, region Region) {
	b.addDoping(b.acceptors, density, region)
}

func (b *Builder) addDoping(dst []float64, density float64, region Region) {
	for s := range dst {
		x, y := b.mesh.Position(s)
		if region.contains(x, y) {
			dst[s] += density
		}
	}
}

// ContactS sets the surface recombination velocities (cm/s) of the left and
// right contacts.
func (b *Builder) ContactS(snLeft, spLeft, snRight, spRight float64) {
	b.sn = [2]float64{snLeft, snRight}
	b.sp = [2]float64{spLeft, spRight}
}

// Generation sets the generation profile in cm^-3 s^-1.
func (b *Builder) Generation(f func(x, y float64) float64) {
	b.generation = f
}

// AddLineDefects adds amphoteric gap states of areal density (cm^-2),
// capture cross section (cm^2) and energy relative to the intrinsic level
// (eV) along the segment p1-p2. In 1D only the x coordinate of p1 is used.
func (b *Builder) AddLineDefects(p1, p2 [2]float64, density, crossSection, energy float64) {
	b.AddDefects(p1, p2, density, crossSection, energy, Amphoteric)
}

// AddDefects is AddLineDefects with the charge transition of the level.
// A donor-like and an acceptor-like set of density N on the same line
// carry the same charge as an amphoteric set of density 2N.
func (b *Builder) AddDefects(p1, p2 [2]float64, density, crossSection, energy float64, tr Transition) {
	b.defects = append(b.defects, lineDefect{
		p1:           p1,
		p2:           p2,
		density:      density,
		crossSection: crossSection,
		energy:       energy,
		transition:   tr,
	})
}

// Build scales every parameter and returns the system.
func (b *Builder) Build() (*System, error) {
	sc := NewScaling(b.temperature, b.density)
	n := b.mesh.NumSites()

	sys := &System{
		Mesh:    b.mesh.Scale(sc.Length),
		Scaling: sc,
		Epsilon: make([]float64, n),
		Rho:     make([]float64, n),
		Ni:      make([]float64, n),
		N1:      make([]float64, n),
		P1:      make([]float64, n),
		TauE:    make([]float64, n),
		TauH:    make([]float64, n),
		G:       make([]float64, n),
		MuE:     make([]float64, n),
		MuH:     make([]float64, n),
		Nc:      make([]float64, n),
		Nv:      make([]float64, n),
		Eg:      make([]float64, n),
		Bl:      make([]float64, n),
	}

	for s := 0; s < n; s++ {
		idx := b.materialOf[s]
		if idx < 0 {
			return nil, fmt.Errorf("%w: site %d has no material", ErrInvalidInput, s)
		}
		mat := b.materials[idx]
		if mat.TauE <= 0 || mat.TauH <= 0 {
			return nil, fmt.Errorf("%w: non-positive lifetime at site %d", ErrInvalidInput, s)
		}

		sys.Epsilon[s] = mat.Epsilon
		sys.Nc[s] = mat.Nc / sc.Density
		sys.Nv[s] = mat.Nv / sc.Density
		sys.Eg[s] = mat.Eg / sc.Energy
		sys.Bl[s] = mat.Affinity / sc.Energy
		sys.MuE[s] = b.muE[s] / sc.Mobility
		sys.MuH[s] = b.muH[s] / sc.Mobility
		sys.TauE[s] = mat.TauE / sc.Time
		sys.TauH[s] = mat.TauH / sc.Time

		ni := math.Sqrt(sys.Nc[s]*sys.Nv[s]) * math.Exp(-sys.Eg[s]/2)
		et := mat.Et / sc.Energy
		sys.Ni[s] = ni
		sys.N1[s] = ni * math.Exp(et)
		sys.P1[s] = ni * math.Exp(-et)

		sys.Rho[s] = (b.donors[s] - b.acceptors[s]) / sc.Density

		if b.generation != nil {
			x, y := b.mesh.Position(s)
			sys.G[s] = b.generation(x, y) / sc.Generation
		}
	}

	for k := 0; k < 2; k++ {
		sys.Scn[k] = b.sn[k] / sc.Velocity
		sys.Scp[k] = b.sp[k] / sc.Velocity
	}

	for _, d := range b.defects {
		set, err := b.defectSet(sys, d)
		if err != nil {
			return nil, err
		}
		sys.Defects = append(sys.Defects, set)
	}

	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}

func (b *Builder) defectSet(sys *System, d lineDefect) (DefectSet, error) {
	sc := sys.Scaling
	sites, widths := b.lineSites(d.p1, d.p2)
	if len(sites) == 0 {
		return DefectSet{}, fmt.Errorf("%w: defect line %v-%v does not cross the mesh", ErrInvalidInput, d.p1, d.p2)
	}

	set := DefectSet{
		Sites:       sites,
		Density:     make([]float64, len(sites)),
		NExtra:      make([]float64, len(sites)),
		PExtra:      make([]float64, len(sites)),
		CaptureRate: make([]float64, len(sites)),
		Transition:  d.transition,
	}
	e := d.energy / sc.Energy
	for k, s := range sites {
		nt := d.density / widths[k] // cm^-3
		set.Density[k] = nt / sc.Density
		set.NExtra[k] = sys.Ni[s] * math.Exp(e)
		set.PExtra[k] = sys.Ni[s] * math.Exp(-e)
		set.CaptureRate[k] = d.crossSection * b.thermalVelocity * nt * sc.Time
	}
	return set, nil
}

// lineSites walks the segment along its dominant axis and picks the nearest
// node on the other axis. widths is the thickness across the line over
// which the areal density is spread at each site.
func (b *Builder) lineSites(p1, p2 [2]float64) (sites []int, widths []float64) {
	m := b.mesh

	if m.Dimension() == 1 {
		i := nearest(m.X, p1[0])
		return []int{i}, []float64{cellWidth(m.Dx, i)}
	}

	dx, dy := p2[0]-p1[0], p2[1]-p1[1]
	length := math.Hypot(dx, dy)
	if length == 0 {
		i, j := nearest(m.X, p1[0]), nearest(m.Y, p1[1])
		return []int{m.Site(i, j)}, []float64{rowHeight(m.Dy, j)}
	}

	if math.Abs(dx) >= math.Abs(dy) {
		cos := math.Abs(dx) / length
		lo, hi := math.Min(p1[0], p2[0]), math.Max(p1[0], p2[0])
		for i, x := range m.X {
			if x < lo-positionMatchTolerance || x > hi+positionMatchTolerance {
				continue
			}
			y := p1[1] + (x-p1[0])*dy/dx
			j := nearest(m.Y, y)
			sites = append(sites, m.Site(i, j))
			widths = append(widths, cos*rowHeight(m.Dy, j))
		}
		return sites, widths
	}

	sin := math.Abs(dy) / length
	lo, hi := math.Min(p1[1], p2[1]), math.Max(p1[1], p2[1])
	for j, y := range m.Y {
		if y < lo-positionMatchTolerance || y > hi+positionMatchTolerance {
			continue
		}
		x := p1[0] + (y-p1[1])*dx/dy
		i := nearest(m.X, x)
		sites = append(sites, m.Site(i, j))
		widths = append(widths, sin*cellWidth(m.Dx, i))
	}
	return sites, widths
}

func nearest(pts []float64, v float64) int {
	best := 0
	for i := range pts {
		if math.Abs(pts[i]-v) < math.Abs(pts[best]-v) {
			best = i
		}
	}
	return best
}

// rowHeight is the control volume height around row j. The top and bottom
// rows are periodic neighbors, so every row is a full cell.
func rowHeight(dy []float64, j int) float64 {
	last := len(dy) - 1
	wrap := (dy[0] + dy[last]) / 2
	switch j {
	case 0:
		return (wrap + dy[0]) / 2
	case last + 1:
		return (dy[last] + wrap) / 2
	default:
		return (dy[j-1] + dy[j]) / 2
	}
}

// cellWidth is the control volume width around node i along x, where the
// contact columns carry half a cell.
func cellWidth(d []float64, i int) float64 {
	switch {
	case i == 0:
		return d[0] / 2
	case i == len(d):
		return d[len(d)-1] / 2
	default:
		return (d[i-1] + d[i]) / 2
	}
}
