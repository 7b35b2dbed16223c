package solver

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/toy-sesame/pkg/assembler"
	"github.com/edp1096/toy-sesame/pkg/matrix"
	"github.com/edp1096/toy-sesame/pkg/util"
)

// ErrNotConverged reports that no solution was found within the step limit.
var ErrNotConverged = errors.New("no solution found")

const (
	DefaultTolerance = 1e-6
	DefaultMaxStep   = 300
)

type Options struct {
	Tolerance float64             // Largest accepted Newton correction
	MaxStep   int                 // Newton iterations before giving up
	Info      int                 // Report progress every Info steps, 0 disables
	Writer    io.Writer           // Progress output, os.Stdout when nil
	Linear    matrix.LinearSolver // Sparse solve of J*x = -f, DirectSolver when nil
	Ramp      int                 // Generation steps taken by Solve, one when zero
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.MaxStep <= 0 {
		o.MaxStep = DefaultMaxStep
	}
	if o.Writer == nil {
		o.Writer = os.Stdout
	}
	if o.Linear == nil {
		o.Linear = matrix.NewDirectSolver()
	}
	if o.Ramp < 1 {
		o.Ramp = 1
	}
	return o
}

// Newton is the damped Newton-Raphson driver for the equilibrium and the
// coupled problems of one system.
type Newton struct {
	asm  *assembler.Assembler
	opts Options

	steps     int
	lastError float64
}

func New(asm *assembler.Assembler, opts Options) *Newton {
	return &Newton{asm: asm, opts: opts.withDefaults()}
}

// Steps returns the number of linear solves of the last run.
func (nw *Newton) Steps() int { return nw.steps }

// LastError returns the largest correction component of the last step.
func (nw *Newton) LastError() float64 { return nw.lastError }

// iterate runs the Newton loop. assemble evaluates the residual and the
// Jacobian at the current state, update applies the damped correction to
// it. The state that produced a correction below tolerance is the
// solution, the correction itself is not applied.
func (nw *Newton) iterate(name string, assemble func() ([]float64, *matrix.Triplet, error), update func(dx []float64, refine bool)) error {
	o := nw.opts
	nw.steps, nw.lastError = 0, math.Inf(1)

	for step := 1; step <= o.MaxStep; step++ {
		f, J, err := assemble()
		if err != nil {
			return fmt.Errorf("%s: assembling step %d: %w", name, step, err)
		}

		floats.Scale(-1, f)
		dx, err := o.Linear.Solve(J.Finalize(), f)
		if err != nil {
			return fmt.Errorf("%s: linear solve at step %d: %w", name, step, err)
		}
		nw.steps = step

		e := floats.Norm(dx, math.Inf(1))
		nw.lastError = e
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: %s correction is not finite at step %d", ErrNotConverged, name, step)
		}

		if e < o.Tolerance {
			if o.Info != 0 {
				fmt.Fprintf(o.Writer, "%s: converged in %d steps, error = %s\n", name, step, util.FormatScientific(e))
			}
			return nil
		}

		update(dx, e >= RefineThreshold)

		if o.Info != 0 && step%o.Info == 0 {
			fmt.Fprintf(o.Writer, "%s: step = %d, error = %s\n", name, step, util.FormatScientific(e))
		}
	}

	if o.Info != 0 {
		fmt.Fprintf(o.Writer, "%s: too many iterations\n", name)
	}
	return fmt.Errorf("%w: %s stopped after %d steps, error = %g", ErrNotConverged, name, o.MaxStep, nw.lastError)
}

// Poisson solves the equilibrium problem from guess. Contact potentials are
// kept at their guessed values.
func (nw *Newton) Poisson(guess []float64) ([]float64, error) {
	n := nw.asm.NumSites()
	if len(guess) != n {
		return nil, fmt.Errorf("%w: guess has %d values, want %d", assembler.ErrDimension, len(guess), n)
	}
	v := append([]float64(nil), guess...)

	err := nw.iterate("poisson",
		func() ([]float64, *matrix.Triplet, error) {
			return nw.asm.Equilibrium(v)
		},
		func(dx []float64, refine bool) {
			if refine {
				Refine(dx)
			} else {
				ClampAll(dx, Clamp)
			}
			floats.Add(v, dx)
		})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DDP solves the coupled drift-diffusion-Poisson problem from guess.
func (nw *Newton) DDP(guess assembler.State) (*assembler.State, error) {
	n := nw.asm.NumSites()
	if len(guess.V) != n || len(guess.Efn) != n || len(guess.Efp) != n {
		return nil, fmt.Errorf("%w: guess does not match %d sites", assembler.ErrDimension, n)
	}
	st := guess.Clone()
	defn := make([]float64, n)
	defp := make([]float64, n)
	dv := make([]float64, n)

	err := nw.iterate("ddp",
		func() ([]float64, *matrix.Triplet, error) {
			return nw.asm.Coupled(st)
		},
		func(dx []float64, refine bool) {
			// Unknowns are stored per site as (efn, efp, v).
			for s := 0; s < n; s++ {
				defn[s], defp[s], dv[s] = dx[3*s], dx[3*s+1], dx[3*s+2]
			}
			if refine {
				Refine(defn)
				Refine(defp)
				Refine(dv)
			} else {
				ClampRelative(defn, defp, dv, Clamp)
			}
			floats.Add(st.Efn, defn)
			floats.Add(st.Efp, defp)
			floats.Add(st.V, dv)
		})
	if err != nil {
		return nil, err
	}
	return &st, nil
}
