package fixconflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/fixprobe"
)

// buildS2 is the literal five-binary-variable conflict scenario from the
// specification: A1: x1+x3=1, A2: x1+x2+x3=2, A3: x2+x3+x4+x5=3, A4: x4+x5=2.
func buildS2(t *testing.T) *fixmodel.Problem {
	t.Helper()
	rowIdx := []int{0, 0, 1, 1, 1, 2, 2, 2, 2, 3, 3}
	colIdx := []int{0, 2, 0, 1, 2, 1, 2, 3, 4, 3, 4}
	coef := make([]float64, len(rowIdx))
	for i := range coef {
		coef[i] = 1
	}
	a := fixmodel.NewMatrix(4, 5, rowIdx, colIdx, coef)
	// A4: x4+x5=2. The level-2 decision x4:=1 combined with the
	// A3-propagated x5=0 sums to 1, short of 2: that shortfall is the
	// conflict analysis must explain.
	p, err := fixmodel.NewProblem(
		5, 4,
		[]float64{0, 0, 0, 0, 0}, 0,
		a,
		[]float64{1, 2, 3, 2}, []float64{1, 2, 3, 2},
		[]fixmodel.RowFlags{fixmodel.Equation, fixmodel.Equation, fixmodel.Equation, fixmodel.Equation},
		[]float64{0, 0, 0, 0, 0}, []float64{1, 1, 1, 1, 1},
		[]fixmodel.ColFlags{fixmodel.Integral, fixmodel.Integral, fixmodel.Integral, fixmodel.Integral, fixmodel.Integral},
	)
	require.NoError(t, err)
	return p
}

func TestAnalyzeDerivesConflictFromScenarioS2(t *testing.T) {
	p := buildS2(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	v := fixprobe.NewView(p, num)

	v.SetProbingColumn(2, 1) // x3 := 1, level 1
	v.PropagateDomains()
	require.False(t, v.IsInfeasible())

	v.SetProbingColumn(3, 1) // x4 := 1, level 2
	v.PropagateDomains()
	require.True(t, v.IsInfeasible())

	ng, ok := Analyze(v)
	require.True(t, ok)

	// The no-good must forbid exactly (x3=1, x4=1): coefficients +1 on each,
	// rhs = n-1 = 1, violated by the conflicting assignment (1+1=2 > 1).
	assert.Len(t, ng.Idx, 2)
	assert.ElementsMatch(t, []int{2, 3}, ng.Idx)
	for _, val := range ng.Vals {
		assert.Equal(t, 1.0, val)
	}
	assert.Equal(t, 1.0, ng.Rhs)

	var sum float64
	for i, col := range ng.Idx {
		if col == 2 {
			sum += ng.Vals[i] * 1
		}
		if col == 3 {
			sum += ng.Vals[i] * 1
		}
	}
	assert.Greater(t, sum, ng.Rhs)
}

func TestAnalyzeReturnsFalseWhenFeasible(t *testing.T) {
	p := buildS2(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	v := fixprobe.NewView(p, num)
	_, ok := Analyze(v)
	assert.False(t, ok)
}
