// Package fixdive implements the depth-first fix-and-propagate engine: given
// a reference continuous point and a rounding strategy, it repeatedly fixes
// one integer column at a time and propagates the consequences, with
// single-level chronological backtracking on infeasibility.
package fixdive

import (
	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/fixprobe"
	"github.com/fixprop/heuristic/pkg/fixround"
)

// Options controls a single fix-and-propagate call.
type Options struct {
	PerformBacktracking bool
	StopAtInfeasibility bool
}

// Result is the outcome of a dive.
type Result struct {
	X                   []float64
	Infeasible          bool
	SuccessfulBacktracks int
}

// Run performs one fix-and-propagate dive over view, using strategy to pick
// fixings and xRef both as the strategy's reference point and as the source
// for continuous columns at the leaf. view is reset at the start. timer is
// checked at every dive-loop iteration for cooperative cancellation.
func Run(view *fixprobe.View, strategy fixround.Strategy, num fixnum.Num, xRef []float64, timer *fixnum.Timer, opts Options) Result {
	view.Reset()
	res := Result{X: make([]float64, view.Problem().NumCols)}

	for {
		if timer != nil && timer.Expired() {
			res.Infeasible = view.IsInfeasible()
			return finalize(view, xRef, res)
		}

		col, val, ok := strategy.SelectRoundingVariable(xRef, view)
		if !ok {
			break
		}

		view.SetProbingColumn(col, val)
		view.PropagateDomains()

		if view.IsInfeasible() {
			if !tryBacktrack(view, num, xRef, opts, &res) {
				res.Infeasible = true
				return res
			}
			if view.IsInfeasible() {
				// Backtracking itself produced an infeasible state; stop
				// diving per stop_at_infeasibility, or give up on further
				// backtracks and keep the current (infeasible) leaf state.
				if opts.StopAtInfeasibility {
					res.Infeasible = true
					return res
				}
				break
			}
		}
	}

	return finalize(view, xRef, res)
}

// tryBacktrack attempts the single-level backtrack described in the
// specification: replay every decision except the last, then flip the last
// decision by one integer unit toward xRef. Returns false if backtracking is
// disabled or not attempted (caller should treat the dive as infeasible).
func tryBacktrack(view *fixprobe.View, num fixnum.Num, xRef []float64, opts Options, res *Result) bool {
	if !opts.PerformBacktracking {
		return false
	}
	fixings := view.GetFixings()
	if len(fixings) == 0 {
		return false
	}
	last := fixings[len(fixings)-1]
	prefix := fixings[:len(fixings)-1]

	flipped, ok := flipFixing(view, xRef, last, num)
	if !ok {
		return false
	}

	view.Reset()
	for _, f := range prefix {
		view.SetProbingColumn(f.Col, f.Value)
		view.PropagateDomains()
		if view.IsInfeasible() {
			// The prefix alone is already infeasible; nothing left to flip.
			return false
		}
	}
	view.SetProbingColumn(flipped.Col, flipped.Value)
	view.PropagateDomains()

	if !view.IsInfeasible() {
		res.SuccessfulBacktracks++
	}
	return true
}

// flipFixing computes the flipped value for the last decision: v-1 if v is
// at or above the reference point xRef[col], else v+1, i.e. one unit toward
// xRef. The flipped value is always exactly one unit from the original; it
// is rejected when it falls outside the column's original bounds.
func flipFixing(view *fixprobe.View, xRef []float64, last fixmodel.Fixing, num fixnum.Num) (fixmodel.Fixing, bool) {
	ref := xRef[last.Col]
	var flipped float64
	if last.Value >= ref {
		flipped = last.Value - 1
	} else {
		flipped = last.Value + 1
	}
	if flipped < view.Problem().LowerBound(last.Col) || flipped > view.Problem().UpperBound(last.Col) {
		return fixmodel.Fixing{}, false
	}
	return fixmodel.Fixing{Col: last.Col, Value: flipped, DecisionLevel: last.DecisionLevel, ReasonRow: -1}, true
}

// finalize assigns continuous columns from xRef (clamped to bounds) and
// copies integer columns from their fixed view bounds, once the dive has
// reached a leaf (or timed out) in a feasible state.
func finalize(view *fixprobe.View, xRef []float64, res Result) Result {
	if view.IsInfeasible() {
		res.Infeasible = true
		return res
	}
	p := view.Problem()
	for c := 0; c < p.NumCols; c++ {
		if p.IsIntegerColumn(c) {
			res.X[c] = view.LB(c)
			continue
		}
		v := xRef[c]
		if v < view.LB(c) {
			v = view.LB(c)
		}
		if v > view.UB(c) {
			v = view.UB(c)
		}
		res.X[c] = v
	}
	return res
}
