// Package volume implements the Volume Algorithm: a Lagrangian subgradient
// procedure that drives dual multipliers toward optimality while maintaining
// a running convex combination of primal iterates as a continuous estimate
// of the optimal primal solution.
package volume

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
)

// Params bundles the tunables of the iteration, named after the
// vol.* AlgorithmParameter keys.
type Params struct {
	Alpha, AlphaMax float64
	F, FMin, FMax   float64
	FStrongIncr     float64
	FWeakIncr       float64
	FDecr           float64

	ObjRelTol, ObjAbsTol, ConAbsTol float64

	WeakImprovementIterLimit int
	NonImprovementIterLimit  int

	FixedIntVarThreshold       float64
	NumItersFixedIntVarsCheck  int

	MaxIterations int

	// ThresholdHardConstraints drops rows whose coefficient-range ratio
	// (the largest over the smallest non-zero absolute coefficient in that
	// row) exceeds this value from the relaxation entirely: their dual
	// multiplier is pinned at 0 and their residual never feeds the
	// step/alpha computation. Numerically ill-conditioned rows otherwise
	// dominate the subgradient direction without the iteration making real
	// progress against them.
	ThresholdHardConstraints float64
}

// DefaultParams mirrors the commonly used defaults for the scheme.
func DefaultParams() Params {
	return Params{
		Alpha: 0.1, AlphaMax: 1.0,
		F: 0.1, FMin: 0.0001, FMax: 2.0,
		FStrongIncr: 1.1, FWeakIncr: 1.05, FDecr: 0.95,
		ObjRelTol: 1e-4, ObjAbsTol: 1e-6, ConAbsTol: 1e-4,
		WeakImprovementIterLimit: 5, NonImprovementIterLimit: 2,
		FixedIntVarThreshold: 0.95, NumItersFixedIntVarsCheck: 20,
		MaxIterations: 2000,
		ThresholdHardConstraints: 1e9,
	}
}

// State is the volume algorithm's mutable iteration state, owned by the
// driver for the duration of one call.
type State struct {
	Iter int

	PiBar []float64 // incumbent dual
	XBar  []float64 // averaged primal estimate
	Xt    []float64 // latest subproblem iterate

	ZBar float64

	Alpha, AlphaMax, F float64

	HasFiniteUB bool

	WeakCount, NonImproveCount int

	StuckIters []int // per integer column, consecutive integral iterations
}

// Stats reports why the iteration stopped, for logging/diagnostics.
type Stats struct {
	Iterations       int
	StoppedOnFeasible bool
	StoppedOnGap      bool
	StoppedOnStable   bool
	StoppedOnTimeout  bool
	Unbounded         bool
}

// rowIsInequality reports whether row is one of the caller-guaranteed ">="
// rows (as opposed to an equality), per the iteration's assumptions.
func rowIsInequality(p *fixmodel.Problem, row int) bool {
	return !p.RowFlags[row].Has(fixmodel.Equation)
}

// project clamps every dual on a ">=" row to be non-negative; equality rows
// are left free. Rows active marks false are pinned at 0 regardless, since
// they have been dropped from the relaxation. This is the one projection
// rule used throughout.
func project(p *fixmodel.Problem, pi []float64, active []bool) {
	for r := 0; r < p.NumRows; r++ {
		if !active[r] {
			pi[r] = 0
			continue
		}
		if rowIsInequality(p, r) && pi[r] < 0 {
			pi[r] = 0
		}
	}
}

// rowCoefficientRatio returns the coefficient-range ratio of row: the
// largest over the smallest non-zero absolute coefficient it contains, or
// 0 for an empty row (an empty row carries no numerical risk, so it is
// never dropped by the threshold).
func rowCoefficientRatio(p *fixmodel.Problem, row int) float64 {
	min, max := math.Inf(1), 0.0
	p.A.EachRowEntry(row, func(_ int, coef float64) {
		c := math.Abs(coef)
		if c == 0 {
			return
		}
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	})
	if math.IsInf(min, 1) {
		return 0
	}
	return max / min
}

// activeRows marks every row whose coefficient-range ratio stays at or
// below threshold, per vol.threshold_hard_constraints: rows above it are
// dropped from the relaxation before the iteration starts.
func activeRows(p *fixmodel.Problem, threshold float64) []bool {
	active := make([]bool, p.NumRows)
	for r := range active {
		active[r] = rowCoefficientRatio(p, r) <= threshold
	}
	return active
}

// maskInactive zeroes every entry of v whose row was dropped by
// activeRows, so a dropped row's residual never contributes to the
// step-size or alpha computation that follows.
func maskInactive(v []float64, active []bool) {
	for r, ok := range active {
		if !ok {
			v[r] = 0
		}
	}
}

// rowBound returns the Lagrangian "b" value for row: the equality value, or
// the >= lower bound, per the assumption that every row is one or the other.
func rowBound(p *fixmodel.Problem, row int) float64 {
	return p.RowLhs(row)
}

func rowBounds(p *fixmodel.Problem) []float64 {
	b := make([]float64, p.NumRows)
	for r := range b {
		b[r] = rowBound(p, r)
	}
	return b
}

// solveSubproblem solves min (c - A^T*pi)^T x + b^T*pi over the box [lb,ub]
// by closed form: each coordinate goes to whichever bound minimises its own
// term. Returns the iterate, its Lagrangian value, and whether an unbounded
// direction was detected (free bound paired with a reduced cost that pushes
// toward it).
func solveSubproblem(p *fixmodel.Problem, b, pi []float64, x, reduced []float64) (z float64, unbounded bool) {
	fixnum.ReducedCosts(p.A, pi, p.Obj, reduced)
	for j := 0; j < p.NumCols; j++ {
		lb, ub := p.LowerBound(j), p.UpperBound(j)
		switch {
		case reduced[j] >= 0:
			if math.IsInf(lb, -1) {
				return math.Inf(-1), true
			}
			x[j] = lb
		default:
			if math.IsInf(ub, 1) {
				return math.Inf(-1), true
			}
			x[j] = ub
		}
	}
	z = fixnum.Dot(reduced, x) + fixnum.Dot(b, pi)
	return z, false
}

// Run executes the iteration described in the specification and returns the
// final averaged primal estimate x̄ along with the incumbent dual π̄.
func Run(p *fixmodel.Problem, num fixnum.Num, timer *fixnum.Timer, pi0 []float64, zUB float64, params Params) ([]float64, []float64, Stats) {
	n, m := p.NumCols, p.NumRows
	b := rowBounds(p)
	active := activeRows(p, params.ThresholdHardConstraints)

	st := &State{
		PiBar:       append([]float64(nil), pi0...),
		XBar:        make([]float64, n),
		Xt:          make([]float64, n),
		Alpha:       params.Alpha,
		AlphaMax:    params.AlphaMax,
		F:           params.F,
		HasFiniteUB: !math.IsInf(zUB, 1),
		StuckIters:  make([]int, n),
	}
	project(p, st.PiBar, active)

	reduced := make([]float64, n)
	st.ZBar, _ = solveSubproblem(p, b, st.PiBar, st.XBar, reduced)

	numInt := 0
	for j := 0; j < n; j++ {
		if p.IsIntegerColumn(j) {
			numInt++
		}
	}

	v := make([]float64, m)
	rt := make([]float64, m)
	piT := make([]float64, m)

	var ub float64
	checkpointZBar := st.ZBar
	stats := Stats{}

	for st.Iter = 1; ; st.Iter++ {
		if timer != nil && timer.Expired() {
			stats.StoppedOnTimeout = true
			break
		}
		if params.MaxIterations > 0 && st.Iter > params.MaxIterations {
			break
		}

		fixnum.Residual(p.A, st.XBar, b, v)
		maskInactive(v, active)

		ub = updateUpperBoundTarget(ub, st.ZBar, zUB)

		denom := fixnum.L2NormSq(v)
		var step float64
		if denom > 0 {
			step = st.F * (ub - st.ZBar) / denom
		}

		floats.AddScaledTo(piT, st.PiBar, step, v)
		project(p, piT, active)

		zT, unbounded := solveSubproblem(p, b, piT, st.Xt, reduced)
		if unbounded {
			stats.Unbounded = true
			break
		}
		fixnum.Residual(p.A, st.Xt, b, rt)
		maskInactive(rt, active)

		alpha := closedFormAlpha(v, rt, st.Alpha, st.AlphaMax)
		st.Alpha = alpha

		for j := range st.XBar {
			st.XBar[j] = alpha*st.Xt[j] + (1-alpha)*st.XBar[j]
		}

		improved := zT > st.ZBar
		if improved {
			copy(st.PiBar, piT)
			st.ZBar = zT
		}

		updateStuckCounters(p, num, st.XBar, st.StuckIters)

		updateF(st, improved, fixnum.Dot(v, rt), params)

		if st.Iter%100 == 0 {
			if math.Abs(st.ZBar-checkpointZBar) < 0.01*math.Abs(checkpointZBar) {
				st.AlphaMax = math.Max(st.AlphaMax/2, 1e-4)
			}
			checkpointZBar = st.ZBar
		}

		if fixnum.L1Norm(v)/float64(m) < params.ConAbsTol {
			stats.StoppedOnFeasible = true
			break
		}
		cx := p.Objective(st.XBar) - p.ObjOff
		if gapSatisfied(cx, st.ZBar, num, params) {
			stats.StoppedOnGap = true
			break
		}
		if stabilized(st.StuckIters, p, numInt, params) {
			stats.StoppedOnStable = true
			break
		}
	}

	stats.Iterations = st.Iter
	return st.XBar, st.PiBar, stats
}

// updateUpperBoundTarget implements the schedule of 4.6 step 2: once z̄
// approaches the current target within 5%, the target grows; otherwise it is
// (re)initialised from z̄. A zero z̄ always resets to min(1, zUB).
func updateUpperBoundTarget(current, zBar, zUB float64) float64 {
	if zBar == 0 {
		return math.Min(1, zUB)
	}
	if current != 0 && zBar >= current-0.05*math.Abs(current) {
		return math.Max(current*1.03, zBar*1.06)
	}
	return zBar * 1.06
}

// closedFormAlpha minimises ||alpha*r + (1-alpha)*v||^2 over alpha, clamped
// to [alphaMax/10, alphaMax]. Falls back to the previous alpha if r and v
// coincide (no information to update from).
func closedFormAlpha(v, r []float64, prevAlpha, alphaMax float64) float64 {
	d := make([]float64, len(v))
	for i := range d {
		d[i] = r[i] - v[i]
	}
	denom := fixnum.L2NormSq(d)
	if denom == 0 {
		return clamp(prevAlpha, alphaMax/10, alphaMax)
	}
	num := fixnum.Dot(v, v) - fixnum.Dot(v, r)
	return clamp(num/denom, alphaMax/10, alphaMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func updateStuckCounters(p *fixmodel.Problem, num fixnum.Num, xBar []float64, stuck []int) {
	for j := 0; j < p.NumCols; j++ {
		if !p.IsIntegerColumn(j) {
			continue
		}
		if num.IsIntegral(xBar[j]) {
			stuck[j]++
		} else {
			stuck[j] = 0
		}
	}
}

// updateF applies the three-colour step-size multiplier schedule.
func updateF(st *State, improved bool, vDotR float64, params Params) {
	switch {
	case improved && vDotR >= 0: // green
		st.F *= params.FStrongIncr
		st.WeakCount = 0
		st.NonImproveCount = 0
	case improved: // yellow
		st.WeakCount++
		if st.WeakCount >= params.WeakImprovementIterLimit {
			st.F *= params.FWeakIncr
			st.WeakCount = 0
		}
		st.NonImproveCount = 0
	default: // red
		st.NonImproveCount++
		if st.NonImproveCount >= params.NonImprovementIterLimit {
			st.F *= params.FDecr
			st.NonImproveCount = 0
		}
		st.WeakCount = 0
	}
	st.F = clamp(st.F, params.FMin, params.FMax)
}

func gapSatisfied(cx, zBar float64, num fixnum.Num, params Params) bool {
	if num.IsZero(zBar) {
		return math.Abs(cx) < params.ObjAbsTol
	}
	return math.Abs(cx-zBar) < math.Abs(zBar)*params.ObjRelTol
}

func stabilized(stuck []int, p *fixmodel.Problem, numInt int, params Params) bool {
	if numInt == 0 {
		return false
	}
	count := 0
	for j := 0; j < p.NumCols; j++ {
		if p.IsIntegerColumn(j) && stuck[j] >= params.NumItersFixedIntVarsCheck {
			count++
		}
	}
	return float64(count) >= params.FixedIntVarThreshold*float64(numInt)
}
