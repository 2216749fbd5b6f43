package fixnum

import "math"

// RowMatrix and ColMatrix are the narrow interfaces the vector kernel needs
// from the sparse constraint matrix primitive. fixmodel.Matrix implements
// both; the kernel never needs to know about rows/columns/flags beyond this.
type RowMatrix interface {
	NumRows() int
	NumCols() int
	EachRowEntry(row int, visit func(col int, coef float64))
}

type ColMatrix interface {
	NumRows() int
	NumCols() int
	EachColEntry(col int, visit func(row int, coef float64))
}

// compensatedSum implements Neumaier's improved Kahan summation. It is used
// wherever a running total will later be compared against a tolerance, since
// naive summation accumulates rounding error that can flip a feasibility test
// on tightly scaled rows.
type compensatedSum struct {
	sum float64
	c   float64 // running compensation
}

func (s *compensatedSum) add(v float64) {
	t := s.sum + v
	if math.Abs(s.sum) >= math.Abs(v) {
		s.c += (s.sum - t) + v
	} else {
		s.c += (v - t) + s.sum
	}
	s.sum = t
}

func (s *compensatedSum) total() float64 {
	return s.sum + s.c
}

// Dot computes the inner product of x and y using compensated summation. It
// is permutation-invariant up to the compensation tolerance: reordering terms
// does not change the result beyond floating point noise.
func Dot(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var s compensatedSum
	for i := 0; i < n; i++ {
		s.add(x[i] * y[i])
	}
	return s.total()
}

// L1Norm returns the sum of absolute values of x, compensated.
func L1Norm(x []float64) float64 {
	var s compensatedSum
	for _, v := range x {
		s.add(math.Abs(v))
	}
	return s.total()
}

// L2Norm returns the Euclidean norm of x. The norm square itself is
// accumulated with ordinary summation (acceptable per spec, since no
// tolerance comparison happens before the final sqrt), but the sqrt result is
// exact enough for step-size computations.
func L2Norm(x []float64) float64 {
	var sumsq float64
	for _, v := range x {
		sumsq += v * v
	}
	return math.Sqrt(sumsq)
}

// L2NormSq is L2Norm squared, computed directly to avoid a redundant sqrt
// round-trip on hot paths such as the volume algorithm's step-size update.
func L2NormSq(x []float64) float64 {
	var sumsq float64
	for _, v := range x {
		sumsq += v * v
	}
	return sumsq
}

// AXPBY computes alpha*x + beta*y into dst. dst may alias y (the common
// in-place convex-combination update used by the volume algorithm), but must
// not alias x unless x == y.
func AXPBY(alpha float64, x []float64, beta float64, y []float64, dst []float64) {
	for i := range dst {
		dst[i] = alpha*x[i] + beta*y[i]
	}
}

// Invert negates every entry of x in place.
func Invert(x []float64) {
	for i := range x {
		x[i] = -x[i]
	}
}

// Residual computes b - A*x row by row into dst, using compensated summation
// per row so that feasibility checks on ‖residual‖ are not corrupted by
// summation noise.
func Residual(a RowMatrix, x []float64, b []float64, dst []float64) {
	for row := 0; row < a.NumRows(); row++ {
		var s compensatedSum
		a.EachRowEntry(row, func(col int, coef float64) {
			s.add(coef * x[col])
		})
		dst[row] = b[row] - s.total()
	}
}

// ReducedCosts computes c - A^T*pi column by column into dst.
func ReducedCosts(a ColMatrix, pi []float64, c []float64, dst []float64) {
	for col := 0; col < a.NumCols(); col++ {
		var s compensatedSum
		a.EachColEntry(col, func(row int, coef float64) {
			s.add(coef * pi[row])
		})
		dst[col] = c[col] - s.total()
	}
}
