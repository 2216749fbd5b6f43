package fixround

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixprop/heuristic/pkg/fixmodel"
	"github.com/fixprop/heuristic/pkg/fixnum"
	"github.com/fixprop/heuristic/pkg/fixprobe"
)

func buildS1(t *testing.T) *fixmodel.Problem {
	t.Helper()
	a := fixmodel.NewMatrix(1, 4,
		[]int{0, 0, 0, 0},
		[]int{0, 1, 2, 3},
		[]float64{1, 1, 1, 1},
	)
	p, err := fixmodel.NewProblem(
		4, 1,
		[]float64{0, 0, 0, -1}, 0,
		a,
		[]float64{2}, []float64{2}, []fixmodel.RowFlags{fixmodel.Equation},
		[]float64{0, 0, 0, 0}, []float64{1, 1, 1, 3},
		[]fixmodel.ColFlags{fixmodel.Integral, fixmodel.Integral, fixmodel.Integral, fixmodel.Integral},
	)
	require.NoError(t, err)
	return p
}

func TestFractionalPicksMostFractionalColumn(t *testing.T) {
	p := buildS1(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	v := fixprobe.NewView(p, num)
	xRef := []float64{0.1, 0.9, 0.5, 1.5}

	s := NewFractional(num)
	col, val, ok := s.SelectRoundingVariable(xRef, v)
	require.True(t, ok)
	assert.Equal(t, 2, col) // 0.5 is the most fractional, lowest index among ties at 0.5
	assert.Equal(t, 1.0, val)
}

func TestFractionalReturnsInvalidWhenAllFixed(t *testing.T) {
	p := buildS1(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	v := fixprobe.NewView(p, num)
	for c := 0; c < p.NumCols; c++ {
		v.SetProbingColumn(c, 0)
	}
	s := NewFractional(num)
	_, _, ok := s.SelectRoundingVariable([]float64{0, 0, 0, 0}, v)
	assert.False(t, ok)
}

func TestRandomIsDeterministicGivenSeed(t *testing.T) {
	p := buildS1(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	xRef := []float64{0.2, 0.7, 0.4, 1.1}

	v1 := fixprobe.NewView(p, num)
	s1 := NewRandom(42)
	c1, val1, ok1 := s1.SelectRoundingVariable(xRef, v1)

	v2 := fixprobe.NewView(p, num)
	s2 := NewRandom(42)
	c2, val2, ok2 := s2.SelectRoundingVariable(xRef, v2)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, c1, c2)
	assert.Equal(t, val1, val2)
}

func TestFarkasSelectsWithinBounds(t *testing.T) {
	p := buildS1(t)
	num := fixnum.NewNum(fixnum.DefaultTolerances())
	v := fixprobe.NewView(p, num)
	xRef := []float64{0.5, 0.5, 0.5, 1.5}

	s := NewFarkas(num, FarkasTowardLower)
	col, val, ok := s.SelectRoundingVariable(xRef, v)
	require.True(t, ok)
	assert.GreaterOrEqual(t, val, v.LB(col))
	assert.LessOrEqual(t, val, v.UB(col))
}
