package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/toy-sesame/pkg/assembler"
	"github.com/edp1096/toy-sesame/pkg/system"
)

// plotBands draws the band edges and quasi-Fermi levels (eV) along x on the
// middle row of the device.
func plotBands(sys *system.System, st *assembler.State, path string) error {
	m := sys.Mesh
	sc := sys.Scaling
	j := m.Ny / 2

	ec := make(plotter.XYs, m.Nx)
	ev := make(plotter.XYs, m.Nx)
	efn := make(plotter.XYs, m.Nx)
	efp := make(plotter.XYs, m.Nx)
	for i := 0; i < m.Nx; i++ {
		s := m.Site(i, j)
		x := m.X[i] * sc.Length * 1e4 // um

		ec[i].X, ec[i].Y = x, -(st.V[s]+sys.Bl[s])*sc.Energy
		ev[i].X, ev[i].Y = x, ec[i].Y-sys.Eg[s]*sc.Energy
		efn[i].X, efn[i].Y = x, st.Efn[s]*sc.Energy
		efp[i].X, efp[i].Y = x, st.Efp[s]*sc.Energy
	}

	p := plot.New()
	p.Title.Text = "Band diagram"
	p.X.Label.Text = "x (um)"
	p.Y.Label.Text = "Energy (eV)"

	if err := plotutil.AddLines(p, "Ec", ec, "Ev", ev, "Efn", efn, "Efp", efp); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
