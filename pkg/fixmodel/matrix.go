package fixmodel

// entry is a single non-zero coefficient at (row, col).
type entry struct {
	idx   int
	coef  float64
}

// Matrix is the sparse, row- and column-indexed constraint matrix primitive.
// It is immutable once built: the core never mutates a Matrix, only the
// bounds/domains that sit on top of it (see fixprobe.View). Construction
// builds both a row-major and a column-major adjacency so that row activity
// propagation and column reduced-cost computation are both O(nnz-in-row) /
// O(nnz-in-col) without transposing on the fly.
type Matrix struct {
	numRows, numCols int
	rows             [][]entry // rows[r] = (col, coef) pairs in row r
	cols             [][]entry // cols[c] = (row, coef) pairs in col c
}

// NewMatrix builds a Matrix from a flat list of non-zero triples. Coefficients
// of exactly zero are dropped; rows/cols are left empty if no entry touches
// them.
func NewMatrix(numRows, numCols int, rowIdx, colIdx []int, coef []float64) *Matrix {
	m := &Matrix{
		numRows: numRows,
		numCols: numCols,
		rows:    make([][]entry, numRows),
		cols:    make([][]entry, numCols),
	}
	for i, c := range coef {
		if c == 0 {
			continue
		}
		r, j := rowIdx[i], colIdx[i]
		m.rows[r] = append(m.rows[r], entry{idx: j, coef: c})
		m.cols[j] = append(m.cols[j], entry{idx: r, coef: c})
	}
	return m
}

// NumRows implements fixnum.RowMatrix / fixnum.ColMatrix.
func (m *Matrix) NumRows() int { return m.numRows }

// NumCols implements fixnum.RowMatrix / fixnum.ColMatrix.
func (m *Matrix) NumCols() int { return m.numCols }

// EachRowEntry visits every non-zero (col, coef) pair of the given row.
func (m *Matrix) EachRowEntry(row int, visit func(col int, coef float64)) {
	for _, e := range m.rows[row] {
		visit(e.idx, e.coef)
	}
}

// EachColEntry visits every non-zero (row, coef) pair of the given column.
func (m *Matrix) EachColEntry(col int, visit func(row int, coef float64)) {
	for _, e := range m.cols[col] {
		visit(e.idx, e.coef)
	}
}

// RowNNZ returns the number of non-zero entries in a row.
func (m *Matrix) RowNNZ(row int) int { return len(m.rows[row]) }

// ColNNZ returns the number of non-zero entries in a column.
func (m *Matrix) ColNNZ(col int) int { return len(m.cols[col]) }

// At returns the coefficient at (row, col), or 0 if absent. Linear scan over
// the (typically short) row; not meant for hot loops.
func (m *Matrix) At(row, col int) float64 {
	for _, e := range m.rows[row] {
		if e.idx == col {
			return e.coef
		}
	}
	return 0
}
