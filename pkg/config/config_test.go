package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-sesame/pkg/solver"
	"github.com/edp1096/toy-sesame/pkg/system"
)

const device2D = `
title: test device
temperature: 300
density: 1e18

mesh:
  x:
    - {start: 0, stop: 1e-5, num: 10}
    - {start: 1e-5, stop: 3e-5, num: 11}
  y:
    - {start: 0, stop: 2e-5, num: 5}

materials:
  - name: absorber
    Nc: 8e17
    Eg: 1.5
    tau_e: 10ns
    tau_h: 5n
  - name: window
    Eg: 2.4
    region: {xmax: 5e-6}

donors:
  - {density: 1e17, region: {xmax: 5e-6}}
acceptors:
  - {density: 1e15, region: {xmin: 5.0001e-6}}

contacts:
  sn_left: 1e7
  sp_left: 0
  sn_right: 0
  sp_right: 1meg

defects:
  - p1: [2e-6, 1e-5]
    p2: [2.8e-5, 1e-5]
    density: 1e12
    cross_section: 1e-15
    energy: -0.1
  - p1: [2e-6, 1e-5]
    p2: [2.8e-5, 1e-5]
    density: 1e12
    cross_section: 1e-15
    energy: 0.1
    transition: acceptor

generation:
  beer_lambert: {phi: 1e17, alpha: 2.3e4}

solver:
  tolerance: 1e-8
  max_step: 50
  info: 5
  ramp: 4
`

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1e17", 1e17},
		{"1.5", 1.5},
		{"-0.1", -0.1},
		{"10n", 10e-9},
		{"10ns", 10e-9},
		{"2.3e4", 2.3e4},
		{"1meg", 1e6},
		{"3k", 3e3},
		{" 4u ", 4e-6},
	}
	for _, tt := range tests {
		got, err := ParseValue(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-12*math.Abs(tt.want), tt.in)
	}

	for _, in := range []string{"", "abc", "1e", "1x", "1M", "2Ms"} {
		_, err := ParseValue(in)
		assert.Error(t, err, in)
	}
}

func TestAxis(t *testing.T) {
	x := Axis([]Segment{
		{Start: 0, Stop: 1, Num: 4},
		{Start: 1, Stop: 3, Num: 3},
	})
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1, 2, 3}, x)
}

func TestParseDevice(t *testing.T) {
	dev, err := Parse([]byte(device2D))
	require.NoError(t, err)

	assert.Equal(t, "test device", dev.Title)
	require.Len(t, dev.Materials, 2)
	assert.InDelta(t, 10e-9, dev.Materials[0].TauE.Float(), 1e-20)
	assert.Nil(t, dev.Materials[0].Nv)
	require.NotNil(t, dev.Materials[1].Region)
	assert.Nil(t, dev.Materials[1].Region.XMin)
	assert.InDelta(t, 1e6, dev.Contacts.SpRight.Float(), 1e-6)
	require.NotNil(t, dev.Generation.Beer)
	assert.Nil(t, dev.Generation.Uniform)

	opts := dev.SolverOptions()
	assert.Equal(t, solver.Options{Tolerance: 1e-8, MaxStep: 50, Info: 5, Ramp: 4}, opts)
}

func TestBuildDevice(t *testing.T) {
	dev, err := Parse([]byte(device2D))
	require.NoError(t, err)

	sys, err := dev.Build()
	require.NoError(t, err)
	sc := sys.Scaling
	m := sys.Mesh

	assert.Equal(t, 2, sys.Dimension())
	// 10 nodes before x = 1e-5, then 11 up to and including x = 3e-5.
	assert.Equal(t, 21, m.Nx)
	assert.Equal(t, 5, m.Ny)
	assert.Equal(t, 1e18, sc.Density)

	// Window material overrides the absorber band gap on the left.
	left, right := m.Site(0, 0), m.Site(m.Nx-1, 0)
	assert.InDelta(t, 2.4/sc.Energy, sys.Eg[left], 1e-9)
	assert.InDelta(t, 1.5/sc.Energy, sys.Eg[right], 1e-9)

	// Unset material fields keep their defaults.
	assert.InDelta(t, system.DefaultMaterial().Nv/sc.Density, sys.Nv[right], 1e-12)
	assert.InDelta(t, 5e-9/sc.Time, sys.TauH[right], 1e-6*sys.TauH[right])

	assert.InDelta(t, 1e17/sc.Density, sys.Rho[left], 1e-12)
	assert.InDelta(t, -1e15/sc.Density, sys.Rho[right], 1e-12)

	assert.Zero(t, sys.Scn[1])
	assert.InDelta(t, 1e6/sc.Velocity, sys.Scp[1], 1e-9)

	// Beer-Lambert decays away from x = 0.
	g0 := sys.G[m.Site(0, 2)]
	g1 := sys.G[m.Site(10, 2)]
	assert.InDelta(t, 1e17*2.3e4/sc.Generation, g0, 1e-9*g0)
	assert.Less(t, g1, g0)

	require.Len(t, sys.Defects, 2)
	d := sys.Defects[0]
	assert.NotEmpty(t, d.Sites)
	assert.Less(t, d.NExtra[0], d.PExtra[0])
	assert.Equal(t, system.Amphoteric, d.Transition)
	assert.Equal(t, system.AcceptorLike, sys.Defects[1].Transition)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(device2D), 0o644))

	dev, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test device", dev.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

const twoGenerations = `mesh: {x: [{start: 0, stop: 1, num: 3}]}
materials: [{name: a}]
generation: {uniform: 1e20, beer_lambert: {phi: 1, alpha: 1}}`

const badTransition = `mesh: {x: [{start: 0, stop: 1, num: 3}]}
materials: [{name: a}]
defects: [{p1: [0.5, 0], p2: [0.5, 0], density: 1e12, transition: neutral}]`

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"no mesh":         "materials: [{name: a}]",
		"no materials":    "mesh: {x: [{start: 0, stop: 1, num: 3}]}",
		"bad value":       "temperature: hot\nmesh: {x: [{start: 0, stop: 1, num: 3}]}\nmaterials: [{name: a}]",
		"empty segment":   "mesh: {x: [{start: 0, stop: 1, num: 0}]}\nmaterials: [{name: a}]",
		"two generations": twoGenerations,
		"bad transition":  badTransition,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestExampleDevices(t *testing.T) {
	for _, name := range []string{"pn1d.yaml", "grain2d.yaml"} {
		t.Run(name, func(t *testing.T) {
			dev, err := Load(filepath.Join("..", "..", "examples", "devices", name))
			require.NoError(t, err)
			sys, err := dev.Build()
			require.NoError(t, err)
			assert.NoError(t, sys.Validate())
		})
	}
}
