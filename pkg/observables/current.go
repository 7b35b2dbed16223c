package observables

import (
	"github.com/edp1096/toy-sesame/pkg/system"
)

// TotalCurrent returns the scaled current Jn + Jp crossing the first column
// of edges. In 2D the row currents are averaged with the width of each row's
// control volume, using the periodic wrap between the top and bottom rows.
func TotalCurrent(sys *system.System, efn, efp, v []float64) float64 {
	m := sys.Mesh
	h := m.Dx[0]

	if m.Dimension() == 1 {
		jn := ElectronCurrent(sys, efn, v, 0, 1, h)
		jp := HoleCurrent(sys, efp, v, 0, 1, h)
		return jn.J + jp.J
	}

	wrap := (m.Dy[0] + m.Dy[m.Ny-2]) / 2
	var total, width float64
	for j := 0; j < m.Ny; j++ {
		below, above := wrap, wrap
		if j > 0 {
			below = m.Dy[j-1]
		}
		if j < m.Ny-1 {
			above = m.Dy[j]
		}
		w := (below + above) / 2

		a, b := m.Site(0, j), m.Site(1, j)
		jn := ElectronCurrent(sys, efn, v, a, b, h)
		jp := HoleCurrent(sys, efp, v, a, b, h)
		total += (jn.J + jp.J) * w
		width += w
	}
	return total / width
}
