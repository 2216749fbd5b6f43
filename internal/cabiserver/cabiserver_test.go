package cabiserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixprop/heuristic/pkg/fixmodel"
)

func buildS5(t *testing.T) *fixmodel.Problem {
	t.Helper()
	a := fixmodel.NewMatrix(1, 2,
		[]int{0, 0},
		[]int{0, 1},
		[]float64{1, 1},
	)
	p, err := fixmodel.NewProblem(
		2, 1,
		[]float64{3, -5}, 0,
		a,
		[]float64{1}, []float64{0}, []fixmodel.RowFlags{fixmodel.RhsInf},
		[]float64{0, 0}, []float64{1, 1},
		[]fixmodel.ColFlags{fixmodel.Integral, fixmodel.Integral},
	)
	require.NoError(t, err)
	return p
}

func TestSetupRejectsAnyFilename(t *testing.T) {
	_, status := Setup("problem.mps")
	assert.Equal(t, StatusParseError, status)

	_, status = Setup("")
	assert.Equal(t, StatusParseError, status)
}

func TestSetupFromProblemRoundTripsThroughCallSimpleHeuristic(t *testing.T) {
	p := buildS5(t)
	handle := SetupFromProblem(p)
	defer DeleteInstance(handle)

	sol, obj, found := CallSimpleHeuristic(handle)
	require.True(t, found)
	assert.Len(t, sol, 2)
	assert.True(t, obj <= 3)
}

func TestCallAlgorithmReportsNoBetterSolutionAgainstDominantIncumbent(t *testing.T) {
	p := buildS5(t)
	handle := SetupFromProblem(p)
	defer DeleteInstance(handle)

	_, _, found := CallAlgorithm(handle, []float64{0.9, 0.9}, -1e18, OneOptNone, 5)
	assert.False(t, found)
}

func TestCallAlgorithmWithOneOptFindsImprovedSolution(t *testing.T) {
	p := buildS5(t)
	handle := SetupFromProblem(p)
	defer DeleteInstance(handle)

	sol, obj, found := CallAlgorithm(handle, []float64{0.9, 0.1}, 1e18, OneOptFeasibilityOnly, 5)
	require.True(t, found)
	assert.Len(t, sol, 2)
	assert.LessOrEqual(t, obj, 3.0)
}

func TestDeleteInstanceMakesHandleUnusable(t *testing.T) {
	p := buildS5(t)
	handle := SetupFromProblem(p)
	DeleteInstance(handle)

	_, _, found := CallSimpleHeuristic(handle)
	assert.False(t, found)
}

func TestMidpointReferenceUsesDomainMidpointWhenBounded(t *testing.T) {
	p := buildS5(t)
	ref := midpointReference(p)
	require.Len(t, ref, 2)
	assert.Equal(t, 0.5, ref[0])
	assert.Equal(t, 0.5, ref[1])
}
