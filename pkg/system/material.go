package system

// Material holds the physical (unscaled) parameters of a region.
type Material struct {
	Nc       float64 // Conduction band effective density of states (cm^-3)
	Nv       float64 // Valence band effective density of states (cm^-3)
	Eg       float64 // Band gap (eV)
	Affinity float64 // Electron affinity (eV)
	Epsilon  float64 // Relative permittivity
	MuE      float64 // Electron mobility (cm^2/(V s))
	MuH      float64 // Hole mobility (cm^2/(V s))
	TauE     float64 // Electron bulk lifetime (s)
	TauH     float64 // Hole bulk lifetime (s)
	Et       float64 // Bulk trap level measured from the intrinsic level (eV)

	// Optional position dependent mobilities, overriding MuE/MuH.
	MuEFunc func(x, y float64) float64
	MuHFunc func(x, y float64) float64
}

func DefaultMaterial() Material {
	return Material{
		Nc:      8e17,
		Nv:      1.8e19,
		Eg:      1.5,
		Epsilon: 9.4,
		MuE:     320,
		MuH:     40,
		TauE:    10e-9,
		TauH:    10e-9,
	}
}

// Region selects mesh sites by position (physical units). A nil region
// selects every site.
type Region func(x, y float64) bool

func (r Region) contains(x, y float64) bool {
	return r == nil || r(x, y)
}
