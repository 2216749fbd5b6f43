// Package fixprobe implements the reversible probing view: a mutable overlay
// over a fixmodel.Problem's bounds that supports fixing columns and
// propagating the resulting domain reductions through the constraint matrix.
//
// The view never mutates the underlying Problem. It keeps its own current
// bounds, a trail of bound changes keyed by decision level, and a row
// activity cache, and can be rewound to the Problem's original bounds by
// Reset. This mirrors the copy-on-write, trail-based state management used by
// constraint propagation engines: state is cheap to rebuild from scratch but
// never mutated behind a caller's back mid-search.
package fixprobe

import (
	"math"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
)

// State is the probing view's lifecycle state machine: Empty -> Active ->
// Infeasible, with only Reset() returning to Empty.
type State int

const (
	Empty State = iota
	Active
	Infeasible
)

type rowActivity struct {
	minFinite  float64
	minInfCnt  int
	maxFinite  float64
	maxInfCnt  int
}

// View is the reversible domain store. One is allocated per heuristic
// replica and reused across many dives via Reset.
type View struct {
	problem *fixmodel.Problem
	num     fixnum.Num

	lb, ub []float64 // current bounds, may be ±Inf

	act []rowActivity

	trail *fixmodel.Trail

	queue    []int
	inQueue  []bool

	infeasible bool
	level      int
	state      State
}

// NewView allocates a view over problem, already reset to the problem's
// original bounds.
func NewView(problem *fixmodel.Problem, num fixnum.Num) *View {
	v := &View{
		problem: problem,
		num:     num,
		lb:      make([]float64, problem.NumCols),
		ub:      make([]float64, problem.NumCols),
		act:     make([]rowActivity, problem.NumRows),
		trail:   fixmodel.NewTrail(),
		inQueue: make([]bool, problem.NumRows),
	}
	v.Reset()
	return v
}

// Reset restores the view to the problem's original bounds and clears the
// trail, queue, infeasibility flag, and decision level. It is the only
// operation that can leave Active or Infeasible and return to Empty.
func (v *View) Reset() {
	for c := 0; c < v.problem.NumCols; c++ {
		v.lb[c] = v.problem.LowerBound(c)
		v.ub[c] = v.problem.UpperBound(c)
	}
	for r := range v.act {
		v.act[r] = rowActivity{}
	}
	v.trail.Reset()
	v.queue = v.queue[:0]
	for i := range v.inQueue {
		v.inQueue[i] = false
	}
	v.infeasible = false
	v.level = 0
	v.state = Empty
}

// State reports the lifecycle state of the view.
func (v *View) State() State { return v.state }

// IsInfeasible reports whether propagation has detected an empty domain.
func (v *View) IsInfeasible() bool { return v.infeasible }

// LB and UB return the current bounds of column c.
func (v *View) LB(col int) float64 { return v.lb[col] }
func (v *View) UB(col int) float64 { return v.ub[col] }

// IsIntegerVariable delegates to the underlying problem.
func (v *View) IsIntegerVariable(col int) bool { return v.problem.IsIntegerColumn(col) }

// Problem returns the underlying problem.
func (v *View) Problem() *fixmodel.Problem { return v.problem }

// GetTrail returns all bound changes recorded since the last Reset, in
// chronological order.
func (v *View) GetTrail() []fixmodel.BoundChange { return v.trail.Entries() }

// GetFixings returns the chronological list of decision fixings (as opposed
// to propagated consequences) since the last Reset.
func (v *View) GetFixings() []fixmodel.Fixing {
	decisions := v.trail.Decisions()
	out := make([]fixmodel.Fixing, len(decisions))
	for i, d := range decisions {
		out[i] = fixmodel.Fixing{Col: d.Col, Value: d.NewValue, DecisionLevel: d.DecisionLevel, ReasonRow: d.ReasonRow}
	}
	return out
}

// DecisionLevel returns the current decision level.
func (v *View) DecisionLevel() int { return v.level }

// SetProbingColumn fixes column col to v by setting both bounds to v. It
// bumps the decision level (the fixing is treated as a decision, reason row
// -1), appends a trail entry, and enqueues every row touching col for
// propagation.
func (v *View) SetProbingColumn(col int, value float64) {
	v.level++
	v.applyBound(col, value, value, -1, v.level)
	if !v.infeasible {
		v.state = Active
	}
}

func (v *View) applyBound(col int, newLB, newUB float64, reasonRow, level int) {
	loweredLo := newLB > v.lb[col]
	loweredHi := newUB < v.ub[col]
	if loweredLo {
		v.lb[col] = newLB
		v.trail.Append(fixmodel.BoundChange{Col: col, NewValue: newLB, ReasonRow: reasonRow, IsLower: true, DecisionLevel: level})
	}
	if loweredHi {
		v.ub[col] = newUB
		v.trail.Append(fixmodel.BoundChange{Col: col, NewValue: newUB, ReasonRow: reasonRow, IsUpper: true, DecisionLevel: level})
	}
	if v.num.Greater(v.lb[col], v.ub[col]) {
		v.infeasible = true
		v.state = Infeasible
		return
	}
	v.problem.A.EachColEntry(col, func(row int, _ float64) {
		v.enqueue(row)
	})
}

func (v *View) enqueue(row int) {
	if v.inQueue[row] {
		return
	}
	v.inQueue[row] = true
	v.queue = append(v.queue, row)
}

// PropagateDomains drains the propagation queue. For each row it computes
// min/max activity over the current bounds and, via interval arithmetic,
// tightens individual column bounds. Propagation is confluent: the final
// bound state does not depend on the dequeue order (modulo tolerance),
// because every tightening is computed purely from the current cached
// bounds and re-enqueues affected rows until a fixed point is reached.
func (v *View) PropagateDomains() {
	for len(v.queue) > 0 && !v.infeasible {
		row := v.queue[0]
		v.queue = v.queue[1:]
		v.inQueue[row] = false
		v.propagateRow(row)
	}
}

func (v *View) propagateRow(row int) {
	act := v.computeActivity(row)
	v.act[row] = act

	lhs := v.problem.RowLhs(row)
	rhs := v.problem.RowRhs(row)

	minAct := infIf(act.minInfCnt > 0, math.Inf(-1), act.minFinite)
	maxAct := infIf(act.maxInfCnt > 0, math.Inf(1), act.maxFinite)

	if v.num.Greater(lhs, maxAct) || v.num.Less(rhs, minAct) {
		v.infeasible = true
		v.state = Infeasible
		return
	}

	v.problem.A.EachRowEntry(row, func(col int, coef float64) {
		if coef == 0 || v.lb[col] == v.ub[col] {
			return
		}
		v.tightenColumnFromRow(row, col, coef, act, lhs, rhs)
	})
}

func (v *View) tightenColumnFromRow(row, col int, coef float64, act rowActivity, lhs, rhs float64) {
	minContrib, minIsInf := contribution(coef, v.lb[col], v.ub[col], true)
	maxContrib, maxIsInf := contribution(coef, v.lb[col], v.ub[col], false)

	residMinInfCnt := act.minInfCnt
	if minIsInf {
		residMinInfCnt--
	}
	residMaxInfCnt := act.maxInfCnt
	if maxIsInf {
		residMaxInfCnt--
	}

	// Tighten from the rhs constraint: a_col*x_col + rest <= rhs, using the
	// *minimum* possible value of "rest" (the other columns), i.e. excluding
	// col's own minimum contribution from the cached minActivity.
	if !math.IsInf(rhs, 1) && residMinInfCnt == 0 {
		residMin := act.minFinite
		if !minIsInf {
			residMin -= minContrib
		}
		v.tightenFromRhs(col, coef, rhs, residMin, row)
	}
	// Tighten from the lhs constraint: a_col*x_col + rest >= lhs, using the
	// *maximum* possible value of "rest".
	if !math.IsInf(lhs, -1) && residMaxInfCnt == 0 {
		residMax := act.maxFinite
		if !maxIsInf {
			residMax -= maxContrib
		}
		v.tightenFromLhs(col, coef, lhs, residMax, row)
	}
}

func (v *View) tightenFromRhs(col int, coef, rhs, residMin float64, row int) {
	cand := (rhs - residMin) / coef
	if coef > 0 {
		v.proposeUpper(col, cand, row)
	} else {
		v.proposeLower(col, cand, row)
	}
}

func (v *View) tightenFromLhs(col int, coef, lhs, residMax float64, row int) {
	cand := (lhs - residMax) / coef
	if coef > 0 {
		v.proposeLower(col, cand, row)
	} else {
		v.proposeUpper(col, cand, row)
	}
}

func (v *View) proposeUpper(col int, cand float64, row int) {
	if v.IsIntegerVariable(col) {
		cand = v.num.FeasFloor(cand)
	}
	if !v.num.Less(cand, v.ub[col]) {
		return // does not strengthen beyond the feasibility tolerance
	}
	v.applyBound(col, v.lb[col], cand, row, v.level)
}

func (v *View) proposeLower(col int, cand float64, row int) {
	if v.IsIntegerVariable(col) {
		cand = v.num.FeasCeil(cand)
	}
	if !v.num.Greater(cand, v.lb[col]) {
		return
	}
	v.applyBound(col, cand, v.ub[col], row, v.level)
}

// computeActivity recomputes the min/max row activity and infinite-
// contributor counts from the current bounds. It is recomputed fresh on
// every dequeue rather than maintained incrementally: simpler, and the
// invariant only requires correctness at quiescence, not between rows.
func (v *View) computeActivity(row int) rowActivity {
	var act rowActivity
	v.problem.A.EachRowEntry(row, func(col int, coef float64) {
		if minC, isInf := contribution(coef, v.lb[col], v.ub[col], true); isInf {
			act.minInfCnt++
		} else {
			act.minFinite += minC
		}
		if maxC, isInf := contribution(coef, v.lb[col], v.ub[col], false); isInf {
			act.maxInfCnt++
		} else {
			act.maxFinite += maxC
		}
	})
	return act
}

// contribution computes a_col's contribution to the row's min (wantMin=true)
// or max activity, and reports whether that contribution is infinite.
func contribution(coef, lb, ub float64, wantMin bool) (float64, bool) {
	useUpper := (coef > 0) != wantMin
	bound := lb
	if useUpper {
		bound = ub
	}
	if math.IsInf(bound, 0) {
		return 0, true
	}
	return coef * bound, false
}

func infIf(cond bool, inf, finite float64) float64 {
	if cond {
		return inf
	}
	return finite
}
