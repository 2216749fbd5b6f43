package fixnum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-9

// sparseRowCol is a minimal RowMatrix/ColMatrix fixture used only by this
// test file, independent of the fixmodel package's richer representation.
type sparseRowCol struct {
	rows, cols int
	entries    [][3]float64 // row, col, coef
}

func (m *sparseRowCol) NumRows() int { return m.rows }
func (m *sparseRowCol) NumCols() int { return m.cols }

func (m *sparseRowCol) EachRowEntry(row int, visit func(col int, coef float64)) {
	for _, e := range m.entries {
		if int(e[0]) == row {
			visit(int(e[1]), e[2])
		}
	}
}

func (m *sparseRowCol) EachColEntry(col int, visit func(row int, coef float64)) {
	for _, e := range m.entries {
		if int(e[1]) == col {
			visit(int(e[0]), e[2])
		}
	}
}

// TestResidualScenarioS3 exercises the literal matrix-vector scenario from the
// specification: A=[[1,2,0],[0,3,4]], x=[2,3,3], b=[1,2] -> Ax-b = [7,19]
// when read as residual-from-subtracted-b (b - A x is the negation).
func TestResidualScenarioS3(t *testing.T) {
	a := &sparseRowCol{
		rows: 2, cols: 3,
		entries: [][3]float64{
			{0, 0, 1}, {0, 1, 2},
			{1, 1, 3}, {1, 2, 4},
		},
	}
	x := []float64{2, 3, 3}
	b := []float64{1, 2}

	dst := make([]float64, 2)
	Residual(a, x, b, dst)

	// b - A x = [1 - 8, 2 - 21] = [-7, -19]; the spec phrases the scenario as
	// Ax - b, i.e. the negation of our residual convention.
	require.Len(t, dst, 2)
	assert.InDelta(t, -7.0, dst[0], delta)
	assert.InDelta(t, -19.0, dst[1], delta)
}

func TestDotPermutationInvariant(t *testing.T) {
	x := []float64{1e10, 1, -1e10, 2, -1}
	y := []float64{1, 1, 1, 1, 1}

	forward := Dot(x, y)

	xr := make([]float64, len(x))
	yr := make([]float64, len(y))
	for i := range x {
		xr[len(x)-1-i] = x[i]
		yr[len(y)-1-i] = y[i]
	}
	reversed := Dot(xr, yr)

	assert.InDelta(t, forward, reversed, 1e-6)
	assert.InDelta(t, 2.0, forward, 1e-6)
}

func TestL1L2Norm(t *testing.T) {
	x := []float64{3, -4}
	assert.InDelta(t, 7.0, L1Norm(x), delta)
	assert.InDelta(t, 5.0, L2Norm(x), delta)
	assert.InDelta(t, 25.0, L2NormSq(x), delta)
}

func TestAXPBY(t *testing.T) {
	x := []float64{1, 2, 3}
	y := []float64{4, 5, 6}
	dst := make([]float64, 3)
	AXPBY(2, x, 0.5, y, dst)
	assert.Equal(t, []float64{4, 6.5, 9}, dst)

	// in-place on y
	AXPBY(0.5, x, 0.5, y, y)
	assert.InDelta(t, 2.5, y[0], delta)
}

func TestInvert(t *testing.T) {
	x := []float64{1, -2, 0}
	Invert(x)
	assert.Equal(t, []float64{-1, 2, 0}, x)
}

func TestReducedCosts(t *testing.T) {
	a := &sparseRowCol{
		rows: 2, cols: 2,
		entries: [][3]float64{{0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {1, 1, -1}},
	}
	c := []float64{5, 5}
	pi := []float64{1, 2}
	dst := make([]float64, 2)
	ReducedCosts(a, pi, c, dst)
	// col0: c0 - (a_00*pi0 + a_10*pi1) = 5 - (1*1 + 1*2) = 2
	// col1: c1 - (a_01*pi0 + a_11*pi1) = 5 - (1*1 + (-1)*2) = 6
	assert.InDelta(t, 2.0, dst[0], delta)
	assert.InDelta(t, 6.0, dst[1], delta)
}

func TestNumTolerances(t *testing.T) {
	n := NewNum(DefaultTolerances())
	assert.True(t, n.IsIntegral(2.9999999999))
	assert.False(t, n.IsIntegral(2.99))
	assert.InDelta(t, 3.0, n.FeasFloor(2.9999999999), delta)
	assert.InDelta(t, 2.0, n.FeasCeil(2.0000000001), delta)
	assert.True(t, n.Greater(1.0+1e-3, 1.0))
	assert.False(t, n.Greater(1.0+1e-12, 1.0))
}
