package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/edp1096/toy-sesame/pkg/assembler"
	"github.com/edp1096/toy-sesame/pkg/config"
	"github.com/edp1096/toy-sesame/pkg/matrix"
	"github.com/edp1096/toy-sesame/pkg/observables"
	"github.com/edp1096/toy-sesame/pkg/solver"
	"github.com/edp1096/toy-sesame/pkg/system"
	"github.com/edp1096/toy-sesame/pkg/util"
)

var (
	plotPath     = flag.String("plot", "", "write the band diagram to this PNG file")
	info         = flag.Int("info", -1, "report Newton progress every n steps (overrides the device file)")
	ramp         = flag.Int("ramp", 0, "raise the generation in n steps (overrides the device file)")
	printJac     = flag.Bool("jacobian", false, "print the equilibrium system at the initial guess")
	equilibrium  = flag.Bool("eq", false, "stop after the equilibrium solve")
	printProfile = flag.Bool("profile", false, "print the solution at every node along x")
)

func printSummary(dev *config.Device, sys *system.System) {
	m := sys.Mesh
	sc := sys.Scaling

	fmt.Printf("Device: %s\n", dev.Title)
	fmt.Printf("  mesh          : %d x %d nodes (%dD)\n", m.Nx, m.Ny, sys.Dimension())
	fmt.Printf("  temperature   : %.1f K\n", sc.Temperature)
	fmt.Printf("  scaling       : n0=%s  L=%s  t0=%ss\n",
		util.FormatDensity(sc.Density), util.FormatPosition(sc.Length), util.FormatScientific(sc.Time))
	defects := 0
	for _, d := range sys.Defects {
		defects += len(d.Sites)
	}
	fmt.Printf("  defect sites  : %d in %d sets\n", defects, len(sys.Defects))
}

func printJacobian(asm *assembler.Assembler, v []float64) {
	f, J, err := asm.Equilibrium(v)
	if err != nil {
		log.Fatalf("Error assembling equilibrium system: %v", err)
	}
	for i := range f {
		f[i] = -f[i]
	}
	mat, err := matrix.NewSystemFromCSR(J.Finalize(), f)
	if err != nil {
		log.Fatalf("Error loading equilibrium system: %v", err)
	}
	defer mat.Destroy()
	mat.PrintSystem(os.Stdout)
}

// printNodes prints the middle row of the device, in physical units.
func printNodes(sys *system.System, st *assembler.State) {
	m := sys.Mesh
	sc := sys.Scaling
	n, p := observables.Densities(sys, st.Efn, st.Efp, st.V)
	j := m.Ny / 2

	fmt.Println("\n       x          v            n                  p")
	fmt.Println("------------------------------------------------------------")
	for i := 0; i < m.Nx; i++ {
		s := m.Site(i, j)
		fmt.Printf("%s  %-10s  %s  %s\n",
			util.FormatPosition(m.X[i]*sc.Length),
			util.FormatValueFactor(st.V[s]*sc.Energy, "V"),
			util.FormatDensity(n[s]*sc.Density),
			util.FormatDensity(p[s]*sc.Density))
	}
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: sesame [flags] <device.yaml>")
	}

	// 1. Load device description
	dev, err := config.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error loading device: %v", err)
	}

	// 2. Build scaled system
	sys, err := dev.Build()
	if err != nil {
		log.Fatalf("Error building system: %v", err)
	}
	printSummary(dev, sys)

	asm, err := assembler.New(sys)
	if err != nil {
		log.Fatalf("Error creating assembler: %v", err)
	}

	opts := dev.SolverOptions()
	if *info >= 0 {
		opts.Info = *info
	}
	if *ramp > 0 {
		opts.Ramp = *ramp
	}

	guess := solver.EquilibriumGuess(sys)
	if *printJac {
		printJacobian(asm, guess)
	}

	// 3. Equilibrium
	newton := solver.New(asm, opts)
	v, err := newton.Poisson(guess)
	if err != nil {
		log.Fatalf("Equilibrium solve failed: %v", err)
	}
	fmt.Printf("\nEquilibrium converged in %d steps\n", newton.Steps())

	state := solver.StateFromEquilibrium(v)

	// 4. Full problem
	if !*equilibrium {
		result, err := solver.Solve(sys, state, opts)
		if err != nil {
			log.Fatalf("Drift-diffusion solve failed: %v", err)
		}
		fmt.Println("Drift-diffusion converged")
		state = *result

		jtot := observables.TotalCurrent(sys, state.Efn, state.Efp, state.V) * sys.Scaling.Current
		fmt.Printf("Total current   : %s\n", util.FormatCurrentDensity(jtot))
	}

	if *printProfile {
		printNodes(sys, &state)
	}

	// 5. Plot
	if *plotPath != "" {
		if err := plotBands(sys, &state, *plotPath); err != nil {
			log.Fatalf("Error writing plot: %v", err)
		}
		fmt.Printf("Band diagram written to %s\n", *plotPath)
	}
}
