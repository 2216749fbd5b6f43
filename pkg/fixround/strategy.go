// Package fixround implements the pluggable rounding strategies consumed by
// the fix-and-propagate dive: given a reference continuous point and the
// current probing view, pick the next integer column to fix and the value to
// fix it to.
package fixround

import (
	"math"
	"math/rand"

	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/fixprobe"
)

// Strategy is the single operation every rounding policy exposes. It reports
// ok=false ("Invalid") when every integer column is already fixed in view.
type Strategy interface {
	SelectRoundingVariable(xRef []float64, view *fixprobe.View) (col int, value float64, ok bool)
	Name() string
}

// unfixedIntegerColumns returns the integer columns of view's problem whose
// bounds are not yet collapsed to a single point.
func unfixedIntegerColumns(view *fixprobe.View) []int {
	p := view.Problem()
	var cols []int
	for c := 0; c < p.NumCols; c++ {
		if !p.IsIntegerColumn(c) {
			continue
		}
		if view.LB(c) == view.UB(c) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// clampToBounds clamps v into [view.LB(col), view.UB(col)].
func clampToBounds(view *fixprobe.View, col int, v float64) float64 {
	if v < view.LB(col) {
		return view.LB(col)
	}
	if v > view.UB(col) {
		return view.UB(col)
	}
	return v
}

// roundNearest rounds v to the nearer integer, breaking exact .5 ties toward
// objDir (+1 rounds up, -1 rounds down, 0 rounds half away from zero via
// math.Round).
func roundNearest(v float64, objDir int) float64 {
	floor := math.Floor(v)
	frac := v - floor
	switch {
	case frac < 0.5:
		return floor
	case frac > 0.5:
		return floor + 1
	default:
		if objDir > 0 {
			return floor + 1
		}
		if objDir < 0 {
			return floor
		}
		return math.Round(v)
	}
}

// Fractional chooses the unfixed integer column whose reference value is
// most fractional, tie-broken by the lowest column index, and rounds to the
// nearer integer with ties broken toward the objective-improving direction.
type Fractional struct {
	num fixnum.Num
}

func NewFractional(num fixnum.Num) *Fractional { return &Fractional{num: num} }

func (s *Fractional) Name() string { return "fractional" }

func (s *Fractional) SelectRoundingVariable(xRef []float64, view *fixprobe.View) (int, float64, bool) {
	cols := unfixedIntegerColumns(view)
	if len(cols) == 0 {
		return 0, 0, false
	}
	best := -1
	bestFrac := -1.0
	for _, c := range cols {
		v := clampToBounds(view, c, xRef[c])
		frac := v - math.Floor(v)
		if frac > 0.5 {
			frac = 1 - frac
		}
		if frac > bestFrac+s.num.FeasibilityTolerance() {
			bestFrac = frac
			best = c
		}
	}
	if best < 0 {
		best = cols[0]
	}
	p := view.Problem()
	objDir := sign(-p.Obj[best]) // minimisation: negative coefficient prefers the higher value
	val := roundNearest(clampToBounds(view, best, xRef[best]), objDir)
	val = clampToBounds(view, best, val)
	return best, val, true
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Random chooses uniformly among the unfixed integer columns using a
// deterministic, caller-seeded generator, and rounds to the nearer integer.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (s *Random) Name() string { return "random" }

func (s *Random) SelectRoundingVariable(xRef []float64, view *fixprobe.View) (int, float64, bool) {
	cols := unfixedIntegerColumns(view)
	if len(cols) == 0 {
		return 0, 0, false
	}
	col := cols[s.rng.Intn(len(cols))]
	val := clampToBounds(view, col, math.Round(clampToBounds(view, col, xRef[col])))
	return col, val, true
}

// FarkasDirection distinguishes the two Farkas flavours: the selected column
// is always fixed to its current lower bound or always to its current upper
// bound.
type FarkasDirection int

const (
	FarkasTowardLower FarkasDirection = iota
	FarkasTowardUpper
)

// Farkas scores each unfixed integer variable by a static stand-in for a
// Farkas proof ray contribution (no LP solver is consulted; see rayScore),
// picks the highest-scoring column, and fixes it to the bound its flavour
// names. The fixing direction does not depend on the score, on xRef (except
// where that bound is infinite), or on which direction would reduce
// infeasibility.
type Farkas struct {
	num fixnum.Num
	dir FarkasDirection
}

func NewFarkas(num fixnum.Num, dir FarkasDirection) *Farkas {
	return &Farkas{num: num, dir: dir}
}

func (s *Farkas) Name() string {
	if s.dir == FarkasTowardUpper {
		return "farkas-upper"
	}
	return "farkas-lower"
}

// rayScore is the sum, over the rows col participates in, of
// |coef|/(1+|side|) for each finite side (rhs and lhs) of that row. It reads
// only the problem's coefficients and row sides: current bounds and row
// activities in view do not affect it.
func (s *Farkas) rayScore(view *fixprobe.View, col int) float64 {
	p := view.Problem()
	var score float64
	p.A.EachColEntry(col, func(row int, coef float64) {
		rhs := p.RowRhs(row)
		lhs := p.RowLhs(row)
		if !math.IsInf(rhs, 1) {
			score += math.Abs(coef) / (1 + math.Abs(rhs))
		}
		if !math.IsInf(lhs, -1) {
			score += math.Abs(coef) / (1 + math.Abs(lhs))
		}
	})
	return score
}

func (s *Farkas) SelectRoundingVariable(xRef []float64, view *fixprobe.View) (int, float64, bool) {
	cols := unfixedIntegerColumns(view)
	if len(cols) == 0 {
		return 0, 0, false
	}
	best := cols[0]
	bestScore := math.Inf(-1)
	for _, c := range cols {
		sc := s.rayScore(view, c)
		if sc > bestScore+s.num.FeasibilityTolerance() {
			bestScore = sc
			best = c
		}
	}
	var val float64
	if s.dir == FarkasTowardUpper {
		val = view.UB(best)
		if math.IsInf(val, 1) {
			val = math.Ceil(clampToBounds(view, best, xRef[best]))
		}
	} else {
		val = view.LB(best)
		if math.IsInf(val, -1) {
			val = math.Floor(clampToBounds(view, best, xRef[best]))
		}
	}
	val = clampToBounds(view, best, val)
	return best, val, true
}
