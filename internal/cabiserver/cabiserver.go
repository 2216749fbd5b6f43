// Package cabiserver holds the host-facing logic behind the C ABI of §6,
// independent of cgo so it can be built and tested with the ordinary Go
// toolchain. cmd/cabi is a thin cgo shim translating C arguments into calls
// against this package.
package cabiserver

import (
	"math"
	"sync"
	"time"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/heuristic"
)

// Status mirrors the out_status codes setup() reports to the host.
type Status int

const (
	StatusOK Status = 0

	// StatusParseError is returned whenever a filename is supplied: the
	// MPS/PBO/OPB parsers are external collaborators this repo does not
	// implement.
	StatusParseError         Status = -1
	StatusPresolveInfeasible Status = -2
	StatusPresolveUnbounded  Status = -3
)

// OneOptMode mirrors the perform_one_opt argument of call_algorithm.
type OneOptMode int

const (
	OneOptNone             OneOptMode = 0
	OneOptFeasibilityOnly  OneOptMode = 1
	OneOptWithPropagation  OneOptMode = 2
)

type Instance struct {
	problem *fixmodel.Problem
	driver  *heuristic.Driver
}

var (
	mu         sync.Mutex
	registry   = map[int64]*Instance{}
	nextHandle int64
)

// Setup is the repo-specific stand-in for a host calling setup(filename,
// ...): since no file parser is wired in, any non-empty filename fails with
// StatusParseError. An empty filename also fails, since there is no default
// problem to construct.
func Setup(filename string) (int64, Status) {
	return 0, StatusParseError
}

// SetupFromProblem registers an already-built Problem and constructs its
// Driver; this is the entry point the in-repo tests use in place of a real
// file-backed setup(). It is not exported through the C ABI.
func SetupFromProblem(p *fixmodel.Problem, opts ...heuristic.OptimizeOption) int64 {
	d := heuristic.New(p, opts...)
	d.Setup()

	mu.Lock()
	defer mu.Unlock()
	nextHandle++
	registry[nextHandle] = &Instance{problem: p, driver: d}
	return nextHandle
}

func lookup(handle int64) *Instance {
	mu.Lock()
	defer mu.Unlock()
	return registry[handle]
}

// DeleteInstance releases the driver and its worker pool and forgets the
// handle.
func DeleteInstance(handle int64) {
	mu.Lock()
	inst, ok := registry[handle]
	if ok {
		delete(registry, handle)
	}
	mu.Unlock()
	if ok {
		inst.driver.Close()
	}
}

// CallAlgorithm runs fix-and-propagate from contSolution, then, if
// oneOptMode requests it, runs 1-opt against every replica's own dive
// result (not just the one fix-and-propagate already picked) before
// re-selecting the best against currentObj. A replica that lost on raw dive
// objective but had a better flip available still gets to compete this way.
func CallAlgorithm(handle int64, contSolution []float64, currentObj float64, oneOptMode OneOptMode, remainingTime float64) (result []float64, newObj float64, found bool) {
	inst := lookup(handle)
	if inst == nil {
		return nil, currentObj, false
	}
	inst.driver.ApplyOptions(heuristic.WithTimeLimit(secondsToDuration(remainingTime)))

	obj, sol, ok := inst.driver.PerformFixAndPropagate(contSolution, true, currentObj)
	if !ok {
		return nil, currentObj, false
	}
	if oneOptMode != OneOptNone {
		if oneOptObj, oneOptSol, improved := inst.driver.PerformOneOptReplicas(true, currentObj); improved {
			obj, sol = oneOptObj, oneOptSol
		}
	}
	return sol, obj, true
}

// PerformOneOpt runs 1-opt alone over a caller-supplied solution.
func PerformOneOpt(handle int64, sol []float64, currentObj float64, remainingTime float64) (result []float64, newObj float64) {
	inst := lookup(handle)
	if inst == nil {
		return sol, currentObj
	}
	inst.driver.ApplyOptions(heuristic.WithTimeLimit(secondsToDuration(remainingTime)))
	newSol, obj, improved := inst.driver.PerformOneOpt(sol, currentObj)
	if !improved {
		return sol, currentObj
	}
	return newSol, obj
}

// CallSimpleHeuristic runs fix-and-propagate without a continuous hint,
// using midpointReference as the reference point.
func CallSimpleHeuristic(handle int64) (result []float64, obj float64, found bool) {
	inst := lookup(handle)
	if inst == nil {
		return nil, 0, false
	}
	xRef := midpointReference(inst.problem)
	o, sol, ok := inst.driver.PerformFixAndPropagate(xRef, false, 0)
	if !ok {
		return nil, 0, false
	}
	return sol, o, true
}

func secondsToDuration(s float64) time.Duration {
	if s < 0 {
		return -1
	}
	return time.Duration(s * float64(time.Second))
}

// midpointReference builds the reference point call_simple_heuristic uses
// when the host has no continuous hint: the domain midpoint where both
// bounds are finite, else whichever bound is finite, else zero.
func midpointReference(p *fixmodel.Problem) []float64 {
	x := make([]float64, p.NumCols)
	for c := 0; c < p.NumCols; c++ {
		lb, ub := p.LowerBound(c), p.UpperBound(c)
		switch {
		case !math.IsInf(lb, -1) && !math.IsInf(ub, 1):
			x[c] = lb + (ub-lb)/2
		case !math.IsInf(lb, -1):
			x[c] = lb
		case !math.IsInf(ub, 1):
			x[c] = ub
		default:
			x[c] = 0
		}
	}
	return x
}
