// Command example demonstrates the primal heuristic engine end to end: it
// builds a couple of small MILPs in memory (standing in for the MPS/PBO
// parser this repo does not implement), runs the volume algorithm and the
// parallel fix-and-propagate driver over them, and prints the incumbent
// each stage finds.
package main

import (
	"fmt"
	"time"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/heuristic"
	"github.com/fixprop/heuristic/pkg/volume"
)

func main() {
	runPackingDemo()
	runVolumeWarmStartDemo()
}

// runPackingDemo builds a binary covering problem (c=(3,-5), x1+x2>=1) and
// shows 1-opt walking the starting point (1,0) down to the better (0,1).
func runPackingDemo() {
	a := fixmodel.NewMatrix(1, 2,
		[]int{0, 0},
		[]int{0, 1},
		[]float64{1, 1},
	)
	p, err := fixmodel.NewProblem(
		2, 1,
		[]float64{3, -5}, 0,
		a,
		[]float64{1}, []float64{0}, []fixmodel.RowFlags{fixmodel.RhsInf},
		[]float64{0, 0}, []float64{1, 1},
		[]fixmodel.ColFlags{fixmodel.Integral, fixmodel.Integral},
	)
	if err != nil {
		fmt.Println("packing demo: invalid problem:", err)
		return
	}

	driver := heuristic.New(p, heuristic.WithTimeLimit(2*time.Second), heuristic.WithRandomSeed(1))
	driver.Setup()
	defer driver.Close()

	start := []float64{1, 0}
	startObj := p.Objective(start)
	fmt.Printf("packing demo: start (%.0f, %.0f) obj=%.1f\n", start[0], start[1], startObj)

	sol, obj, improved := driver.PerformOneOpt(start, startObj)
	if improved {
		fmt.Printf("packing demo: 1-opt improved to (%.0f, %.0f) obj=%.1f\n", sol[0], sol[1], obj)
	} else {
		fmt.Println("packing demo: 1-opt found no improving flip")
	}
}

// runVolumeWarmStartDemo runs the volume algorithm alone over a tiny LP
// relaxation and reports the continuous estimate x̄ it converges to.
func runVolumeWarmStartDemo() {
	a := fixmodel.NewMatrix(2, 2,
		[]int{0, 0, 1},
		[]int{0, 1, 1},
		[]float64{-1, -2, -1},
	)
	p, err := fixmodel.NewProblem(
		2, 2,
		[]float64{1, 1}, 0,
		a,
		[]float64{-2, -3}, []float64{0, 0}, []fixmodel.RowFlags{fixmodel.RhsInf, fixmodel.RhsInf},
		[]float64{-1, 0}, []float64{1, 1},
		[]fixmodel.ColFlags{0, 0},
	)
	if err != nil {
		fmt.Println("volume demo: invalid problem:", err)
		return
	}

	num := fixnum.NewNum(fixnum.DefaultTolerances())
	params := volume.DefaultParams()
	xBar, _, stats := volume.Run(p, num, fixnum.NewTimer(500*time.Millisecond), []float64{0, 0}, 10, params)

	fmt.Printf("volume demo: x_bar=(%.3f, %.3f) after %d iterations (feasible=%v gap=%v stable=%v timeout=%v)\n",
		xBar[0], xBar[1], stats.Iterations, stats.StoppedOnFeasible, stats.StoppedOnGap, stats.StoppedOnStable, stats.StoppedOnTimeout)
}
