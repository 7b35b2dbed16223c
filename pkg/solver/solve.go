package solver

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-sesame/pkg/assembler"
	"github.com/edp1096/toy-sesame/pkg/system"
)

// SolvePoisson builds the assembler for sys and solves the equilibrium
// problem. A nil guess starts from EquilibriumGuess.
func SolvePoisson(sys *system.System, guess []float64, opts Options) ([]float64, error) {
	asm, err := assembler.New(sys)
	if err != nil {
		return nil, err
	}
	if guess == nil {
		guess = EquilibriumGuess(sys)
	}
	return New(asm, opts).Poisson(guess)
}

// Solve builds the assembler for sys and solves the coupled problem. With
// opts.Ramp > 1 the generation is raised in Ramp equal steps, each one
// started from the solution of the previous step.
func Solve(sys *system.System, guess assembler.State, opts Options) (*assembler.State, error) {
	o := opts.withDefaults()
	if o.Ramp == 1 {
		asm, err := assembler.New(sys)
		if err != nil {
			return nil, err
		}
		return New(asm, o).DDP(guess)
	}

	st := &guess
	for k := 1; k <= o.Ramp; k++ {
		step := sys
		if k < o.Ramp {
			step = sys.WithGeneration(float64(k) / float64(o.Ramp))
		}
		asm, err := assembler.New(step)
		if err != nil {
			return nil, err
		}

		if o.Info != 0 {
			fmt.Fprintf(o.Writer, "ddp: generation step %d/%d\n", k, o.Ramp)
		}
		st, err = New(asm, o).DDP(*st)
		if err != nil {
			return nil, fmt.Errorf("generation step %d/%d: %w", k, o.Ramp, err)
		}
	}
	return st, nil
}

// EquilibriumGuess returns the potential of local charge neutrality with
// the majority carrier density equal to the net doping. Undoped sites get
// the intrinsic potential.
func EquilibriumGuess(sys *system.System) []float64 {
	v := make([]float64, sys.NumSites())
	for s := range v {
		rho := sys.Rho[s]
		switch {
		case rho > 0:
			v[s] = math.Log(rho/sys.Nc[s]) - sys.Bl[s]
		case rho < 0:
			v[s] = -math.Log(-rho/sys.Nv[s]) - sys.Bl[s] - sys.Eg[s]
		default:
			v[s] = math.Log(sys.Ni[s]/sys.Nc[s]) - sys.Bl[s]
		}
	}
	return v
}

// StateFromEquilibrium uses an equilibrium potential as the starting point
// of the coupled problem, with flat quasi-Fermi levels.
func StateFromEquilibrium(v []float64) assembler.State {
	st := assembler.NewState(len(v))
	copy(st.V, v)
	return st
}
