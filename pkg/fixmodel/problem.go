package fixmodel

import (
	"math"

	"github.com/pkg/errors"
)

// Problem is the immutable input to the core. It is shared read-only by all
// heuristic replicas; nothing downstream of setup mutates it except the
// conflict-row flush path (AddConflictRow), which is only ever called on a
// barrier between parallel phases.
type Problem struct {
	NumCols int
	NumRows int

	Obj    []float64 // objective coefficients, length NumCols
	ObjOff float64   // objective offset/constant term

	A *Matrix

	Lhs, Rhs   []float64 // per-row bounds, length NumRows
	RowFlags   []RowFlags

	Lb, Ub   []float64 // per-column bounds, length NumCols
	ColFlags []ColFlags
}

// NewProblem validates and constructs a Problem. It enforces the two data
// model invariants from the specification: every row has at least one finite
// side, and every integer column has integer-valued finite bounds.
func NewProblem(
	numCols, numRows int,
	obj []float64, objOff float64,
	a *Matrix,
	lhs, rhs []float64, rowFlags []RowFlags,
	lb, ub []float64, colFlags []ColFlags,
) (*Problem, error) {
	p := &Problem{
		NumCols: numCols, NumRows: numRows,
		Obj: obj, ObjOff: objOff,
		A: a,
		Lhs: lhs, Rhs: rhs, RowFlags: rowFlags,
		Lb: lb, Ub: ub, ColFlags: colFlags,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Problem) validate() error {
	for r := 0; r < p.NumRows; r++ {
		f := p.RowFlags[r]
		if f.Has(LhsInf) && f.Has(RhsInf) {
			return errors.Errorf("row %d has both sides at infinity", r)
		}
	}
	for c := 0; c < p.NumCols; c++ {
		f := p.ColFlags[c]
		if !f.Has(Integral) {
			continue
		}
		if !f.Has(LbInf) && !isIntegerValued(p.Lb[c]) {
			return errors.Errorf("integer column %d has non-integer lower bound %v", c, p.Lb[c])
		}
		if !f.Has(UbInf) && !isIntegerValued(p.Ub[c]) {
			return errors.Errorf("integer column %d has non-integer upper bound %v", c, p.Ub[c])
		}
	}
	return nil
}

func isIntegerValued(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1e-9
}

// IsIntegerColumn reports whether column c must take integer values.
func (p *Problem) IsIntegerColumn(c int) bool {
	return p.ColFlags[c].Has(Integral)
}

// LowerBound returns the original lower bound of column c, or -Inf.
func (p *Problem) LowerBound(c int) float64 {
	if p.ColFlags[c].Has(LbInf) {
		return math.Inf(-1)
	}
	return p.Lb[c]
}

// UpperBound returns the original upper bound of column c, or +Inf.
func (p *Problem) UpperBound(c int) float64 {
	if p.ColFlags[c].Has(UbInf) {
		return math.Inf(1)
	}
	return p.Ub[c]
}

// RowLhs and RowRhs are the bound-accessor counterparts for rows.
func (p *Problem) RowLhs(r int) float64 {
	if p.RowFlags[r].Has(LhsInf) {
		return math.Inf(-1)
	}
	return p.Lhs[r]
}

func (p *Problem) RowRhs(r int) float64 {
	if p.RowFlags[r].Has(RhsInf) {
		return math.Inf(1)
	}
	return p.Rhs[r]
}

// AddConflictRow appends a no-good row produced by conflict analysis to the
// problem. It must only be called between parallel phases of the driver, per
// the concurrency model: the Problem is otherwise read-only and shared.
func (p *Problem) AddConflictRow(idx []int, vals []float64, lhs, rhs float64, flags RowFlags) {
	rowIdx := p.NumRows
	row := make([]entry, 0, len(idx))
	for i, c := range idx {
		if vals[i] == 0 {
			continue
		}
		row = append(row, entry{idx: c, coef: vals[i]})
		p.A.cols[c] = append(p.A.cols[c], entry{idx: rowIdx, coef: vals[i]})
	}
	p.A.rows = append(p.A.rows, row)
	p.A.numRows++
	p.NumRows++
	p.Lhs = append(p.Lhs, lhs)
	p.Rhs = append(p.Rhs, rhs)
	p.RowFlags = append(p.RowFlags, flags)
}
