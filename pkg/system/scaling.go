package system

import (
	"math"

	"github.com/edp1096/toy-sesame/internal/consts"
)

// Scaling holds the reference quantities used to make the equations
// dimensionless. Lengths are in Debye lengths, densities in units of
// Density, energies and potentials in units of kT/q.
type Scaling struct {
	Temperature float64 // K
	Density     float64 // cm^-3
	Energy      float64 // eV (kT/q)
	Length      float64 // cm
	Mobility    float64 // cm^2/(V s)
	Time        float64 // s
	Generation  float64 // cm^-3 s^-1
	Velocity    float64 // cm/s
	Current     float64 // A/cm^2
}

func NewScaling(temp, density float64) Scaling {
	if temp <= 0 {
		temp = consts.ROOM_TEMP
	}

	vt := consts.BOLTZMANN * temp / consts.CHARGE
	length := math.Sqrt(consts.EPSILON0 * vt / (consts.CHARGE * density))
	time := consts.EPSILON0 / (consts.CHARGE * density * consts.MU_REF)

	return Scaling{
		Temperature: temp,
		Density:     density,
		Energy:      vt,
		Length:      length,
		Mobility:    consts.MU_REF,
		Time:        time,
		Generation:  density / time,
		Velocity:    length / time,
		Current:     consts.CHARGE * density * length / time,
	}
}
