package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
)

// buildS4 is the literal warm-start scenario from the specification,
// rewritten in >=-or-equality form (the iteration's stated assumption):
// minimise x1+x2 s.t. -x1-2x2 >= -2, -x2 >= -3, x1 in [-1,1], x2 in [0,1].
func buildS4(t *testing.T) *fixmodel.Problem {
	t.Helper()
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
	require.NoError(t, err)
	return p
}

func TestRunConvergesNearExpectedOptimumS4(t *testing.T) {
	p := buildS4(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	params := DefaultParams()
	params.MaxIterations = 50

	xBar, piBar, stats := Run(p, num, fixnum.NewUnlimitedTimer(), []float64{0, 0}, 10, params)

	require.False(t, stats.Unbounded)
	assert.InDelta(t, -1.0, xBar[0], 0.2)
	assert.InDelta(t, 0.0, xBar[1], 0.2)
	for r := 0; r < p.NumRows; r++ {
		if !p.RowFlags[r].Has(fixmodel.Equation) {
			assert.GreaterOrEqual(t, piBar[r], 0.0)
		}
	}
}

func TestProjectionKeepsInequalityDualsNonNegative(t *testing.T) {
	p := buildS4(t)
	pi := []float64{-5, -5}
	project(p, pi, []bool{true, true})
	for _, v := range pi {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestActiveRowsDropsRowsAboveRatioThreshold(t *testing.T) {
	p := buildS4(t)
	// buildS4's two rows have coefficients {-1, -2} and {-1}; a threshold of
	// 1.5 excludes the first row (ratio 2) but keeps the second (ratio 1).
	active := activeRows(p, 1.5)
	require.Len(t, active, 2)
	assert.False(t, active[0])
	assert.True(t, active[1])
}

func TestActiveRowsKeepsEveryRowWhenThresholdIsPermissive(t *testing.T) {
	p := buildS4(t)
	active := activeRows(p, DefaultParams().ThresholdHardConstraints)
	for _, ok := range active {
		assert.True(t, ok)
	}
}

func TestClosedFormAlphaFallsBackWhenResidualsCoincide(t *testing.T) {
	v := []float64{1, 2, 3}
	r := []float64{1, 2, 3}
	got := closedFormAlpha(v, r, 0.3, 1.0)
	assert.Equal(t, 0.3, got)
}

func TestUpdateUpperBoundTargetResetsAtZero(t *testing.T) {
	got := updateUpperBoundTarget(100, 0, 5)
	assert.Equal(t, 1.0, got) // min(1, zUB)

	got = updateUpperBoundTarget(100, 0, 0.5)
	assert.Equal(t, 0.5, got)
}
