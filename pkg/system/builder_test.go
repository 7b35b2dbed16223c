package system

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-sesame/pkg/mesh"
)

func newDefectBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(mesh.Linspace(0, 1e-5, 11, true), mesh.Linspace(0, 2e-5, 21, true))
	require.NoError(t, err)
	b.AddMaterial(DefaultMaterial(), nil)
	b.AddDonor(1e17, nil)
	return b
}

func TestHorizontalLineDefects(t *testing.T) {
	b := newDefectBuilder(t)
	b.AddLineDefects([2]float64{2e-6, 1e-5}, [2]float64{8e-6, 1e-5}, 1e12, 1e-15, 0.1)

	sys, err := b.Build()
	require.NoError(t, err)
	require.True(t, sys.HasDefects())
	require.Len(t, sys.Defects, 1)

	d := sys.Defects[0]
	m := sys.Mesh
	// x nodes 2, 3, ..., 8 on row j = 10.
	require.Len(t, d.Sites, 7)
	for k, s := range d.Sites {
		i, j := m.Coords(s)
		assert.Equal(t, k+2, i)
		assert.Equal(t, 10, j)
	}

	sc := sys.Scaling
	nt := 1e12 / 1e-6 // areal density spread over one cell height
	assert.InDelta(t, nt/sc.Density, d.Density[0], 1e-9*d.Density[0])
	assert.InDelta(t, 1e-15*DefaultThermalVelocity*nt*sc.Time, d.CaptureRate[0], 1e-9*d.CaptureRate[0])

	ni := sys.Ni[d.Sites[0]]
	assert.InDelta(t, ni*ni, d.NExtra[0]*d.PExtra[0], 1e-9*ni*ni)
	assert.Greater(t, d.NExtra[0], d.PExtra[0])
	assert.InDelta(t, ni*math.Exp(0.1/sc.Energy), d.NExtra[0], 1e-9*d.NExtra[0])
}

func TestVerticalLineDefects(t *testing.T) {
	b := newDefectBuilder(t)
	b.AddLineDefects([2]float64{5e-6, 0}, [2]float64{5e-6, 2e-5}, 1e12, 1e-15, 0)

	sys, err := b.Build()
	require.NoError(t, err)

	d := sys.Defects[0]
	require.Len(t, d.Sites, 21)
	for _, s := range d.Sites {
		i, _ := sys.Mesh.Coords(s)
		assert.Equal(t, 5, i)
	}
	// The width across a vertical line is the x cell, the same on every row.
	want := 1e12 / 1e-6 / sys.Scaling.Density
	for k := range d.Sites {
		assert.InDelta(t, want, d.Density[k], 1e-9*want, "site %d", k)
	}
}

func TestLineDefectsOnPeriodicRows(t *testing.T) {
	y := []float64{0, 1e-6, 3e-6, 6e-6}
	b, err := NewBuilder(mesh.Linspace(0, 1e-5, 11, true), y)
	require.NoError(t, err)
	b.AddMaterial(DefaultMaterial(), nil)
	b.AddDonor(1e17, nil)
	b.AddLineDefects([2]float64{2e-6, 0}, [2]float64{8e-6, 0}, 1e12, 1e-15, 0)
	b.AddLineDefects([2]float64{2e-6, 6e-6}, [2]float64{8e-6, 6e-6}, 1e12, 1e-15, 0)

	sys, err := b.Build()
	require.NoError(t, err)
	require.Len(t, sys.Defects, 2)

	// Bottom and top rows are full cells across the wrap edge of
	// (dy[0] + dy[2])/2 = 2e-6.
	sc := sys.Scaling
	bottom, top := 1e12/1.5e-6/sc.Density, 1e12/2.5e-6/sc.Density
	for k := range sys.Defects[0].Sites {
		assert.InDelta(t, bottom, sys.Defects[0].Density[k], 1e-9*bottom)
	}
	for k := range sys.Defects[1].Sites {
		assert.InDelta(t, top, sys.Defects[1].Density[k], 1e-9*top)
	}
}

func TestRowHeightCoversPeriod(t *testing.T) {
	dy := []float64{1e-6, 2e-6, 3e-6}
	total := 0.0
	for j := 0; j <= len(dy); j++ {
		total += rowHeight(dy, j)
	}
	// Sum of the spacings plus the wrap edge.
	assert.InDelta(t, 8e-6, total, 1e-18)
}

func TestLineDefects1D(t *testing.T) {
	b, err := NewBuilder(mesh.Linspace(0, 1e-5, 11, true), nil)
	require.NoError(t, err)
	b.AddMaterial(DefaultMaterial(), nil)
	b.AddDonor(1e17, nil)
	b.AddLineDefects([2]float64{4.1e-6, 0}, [2]float64{4.1e-6, 0}, 1e12, 1e-15, 0)

	sys, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []int{4}, sys.Defects[0].Sites)
}

func TestZeroDensityDefects(t *testing.T) {
	b := newDefectBuilder(t)
	b.AddLineDefects([2]float64{0, 1e-5}, [2]float64{1e-5, 1e-5}, 0, 1e-15, 0)

	sys, err := b.Build()
	require.NoError(t, err)

	d := sys.Defects[0]
	for k := range d.Sites {
		assert.Zero(t, d.Density[k])
		assert.Zero(t, d.CaptureRate[k])
	}
}

func TestDefectTransitions(t *testing.T) {
	b := newDefectBuilder(t)
	b.AddLineDefects([2]float64{2e-6, 1e-5}, [2]float64{8e-6, 1e-5}, 1e12, 1e-15, 0)
	b.AddDefects([2]float64{2e-6, 1e-5}, [2]float64{8e-6, 1e-5}, 1e12, 1e-15, 0, DonorLike)
	b.AddDefects([2]float64{2e-6, 1e-5}, [2]float64{8e-6, 1e-5}, 1e12, 1e-15, 0, AcceptorLike)

	sys, err := b.Build()
	require.NoError(t, err)
	require.Len(t, sys.Defects, 3)
	assert.Equal(t, Amphoteric, sys.Defects[0].Transition)
	assert.Equal(t, DonorLike, sys.Defects[1].Transition)
	assert.Equal(t, AcceptorLike, sys.Defects[2].Transition)
	assert.Equal(t, sys.Defects[0].Sites, sys.Defects[2].Sites)

	b = newDefectBuilder(t)
	b.AddDefects([2]float64{2e-6, 1e-5}, [2]float64{8e-6, 1e-5}, 1e12, 1e-15, 0, Transition(7))
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseTransition(t *testing.T) {
	tests := map[string]Transition{
		"":           Amphoteric,
		"amphoteric": Amphoteric,
		"donor":      DonorLike,
		"acceptor":   AcceptorLike,
	}
	for in, want := range tests {
		got, err := ParseTransition(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" {
			assert.Equal(t, in, got.String())
		}
	}

	_, err := ParseTransition("neutral")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
