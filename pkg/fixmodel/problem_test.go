package fixmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildS1 builds the scenario-1 fixture from the specification: one row
// x1+x2+x3+x4 = 2, with x1,x2,x3 binary and x4 in [0,3].
func buildS1(t *testing.T) *Problem {
	t.Helper()
	a := NewMatrix(1, 4,
		[]int{0, 0, 0, 0},
		[]int{0, 1, 2, 3},
		[]float64{1, 1, 1, 1},
	)
	p, err := NewProblem(
		4, 1,
		[]float64{0, 0, 0, 0}, 0,
		a,
		[]float64{2}, []float64{2}, []RowFlags{Equation},
		[]float64{0, 0, 0, 0}, []float64{1, 1, 1, 3},
		[]ColFlags{Integral, Integral, Integral, Integral},
	)
	require.NoError(t, err)
	return p
}

func TestNewProblemRejectsBothSidesInfinite(t *testing.T) {
	a := NewMatrix(1, 1, []int{0}, []int{0}, []float64{1})
	_, err := NewProblem(
		1, 1,
		[]float64{1}, 0,
		a,
		[]float64{0}, []float64{0}, []RowFlags{LhsInf | RhsInf},
		[]float64{0}, []float64{1},
		[]ColFlags{0},
	)
	assert.Error(t, err)
}

func TestNewProblemRejectsNonIntegerIntegerBounds(t *testing.T) {
	a := NewMatrix(1, 1, []int{0}, []int{0}, []float64{1})
	_, err := NewProblem(
		1, 1,
		[]float64{1}, 0,
		a,
		[]float64{0}, []float64{1}, []RowFlags{0},
		[]float64{0.5}, []float64{1},
		[]ColFlags{Integral},
	)
	assert.Error(t, err)
}

func TestBoundAccessors(t *testing.T) {
	p := buildS1(t)
	assert.Equal(t, 0.0, p.LowerBound(3))
	assert.Equal(t, 3.0, p.UpperBound(3))
	assert.Equal(t, 2.0, p.RowLhs(0))
	assert.Equal(t, 2.0, p.RowRhs(0))
	assert.True(t, p.IsIntegerColumn(0))
}

func TestObjectiveStableSum(t *testing.T) {
	p := buildS1(t)
	p.Obj = []float64{1, 1, 1, 1}
	x := []float64{1, 0, 1, 0}
	assert.InDelta(t, 2.0, p.Objective(x), 1e-9)
}

func TestAddConflictRowAppendsRowAndMatrix(t *testing.T) {
	p := buildS1(t)
	p.AddConflictRow([]int{0, 1}, []float64{1, 1}, math.Inf(-1), 1, RowFlags(0))
	assert.Equal(t, 2, p.NumRows)
	assert.Equal(t, 1.0, p.A.At(1, 0))
	assert.Equal(t, 1.0, p.A.At(1, 1))
	assert.Equal(t, 2, p.A.ColNNZ(0))
}
