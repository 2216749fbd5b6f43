package fixmodel

// RowFlags and ColFlags are small bitsets over the per-row / per-column
// boolean attributes of the data model. They are deliberately a plain
// bitmask rather than a general-purpose domain type: the attribute set is
// fixed and tiny, unlike the arbitrary-width finite domains a CSP solver
// needs.
type RowFlags uint8

const (
	LhsInf RowFlags = 1 << iota
	RhsInf
	Equation
	Redundant
)

// Has reports whether f contains all bits of mask.
func (f RowFlags) Has(mask RowFlags) bool { return f&mask == mask }

// Set returns f with mask bits set.
func (f RowFlags) Set(mask RowFlags) RowFlags { return f | mask }

// Clear returns f with mask bits cleared.
func (f RowFlags) Clear(mask RowFlags) RowFlags { return f &^ mask }

type ColFlags uint8

const (
	LbInf ColFlags = 1 << iota
	UbInf
	Integral
	Inactive
	Fixed
)

func (f ColFlags) Has(mask ColFlags) bool   { return f&mask == mask }
func (f ColFlags) Set(mask ColFlags) ColFlags   { return f | mask }
func (f ColFlags) Clear(mask ColFlags) ColFlags { return f &^ mask }
