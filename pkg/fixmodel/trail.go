package fixmodel

// BoundChange is a single entry in the probing view's trail: either a
// decision (ReasonRow == -1) or the result of propagating ReasonRow at the
// given decision level.
type BoundChange struct {
	Col           int
	NewValue      float64
	ReasonRow     int // -1 for a decision
	IsLower       bool
	IsUpper       bool
	DecisionLevel int
}

// IsDecision reports whether this entry was chosen rather than derived.
func (b BoundChange) IsDecision() bool { return b.ReasonRow == -1 }

// Trail is the ordered list of bound changes produced by a probing view since
// its last reset. Conflict analysis walks it backward from the most recent
// entry.
type Trail struct {
	entries []BoundChange
}

// NewTrail returns an empty trail with some pre-allocated capacity.
func NewTrail() *Trail {
	return &Trail{entries: make([]BoundChange, 0, 64)}
}

// Append records a new bound change.
func (t *Trail) Append(bc BoundChange) {
	t.entries = append(t.entries, bc)
}

// Reset truncates the trail back to empty.
func (t *Trail) Reset() {
	t.entries = t.entries[:0]
}

// Len returns the number of recorded bound changes.
func (t *Trail) Len() int { return len(t.entries) }

// At returns the i-th entry, in chronological order.
func (t *Trail) At(i int) BoundChange { return t.entries[i] }

// Entries returns the full chronological list. The returned slice aliases
// the trail's backing array and must not be retained past the next mutation.
func (t *Trail) Entries() []BoundChange { return t.entries }

// Decisions returns, in chronological order, only the entries that were
// decisions (as opposed to propagated consequences). This is the "fixings
// list" the fix-and-propagate engine replays when backtracking.
func (t *Trail) Decisions() []BoundChange {
	var out []BoundChange
	for _, e := range t.entries {
		if e.IsDecision() {
			out = append(out, e)
		}
	}
	return out
}

// Fixing is a (column, value) pair with the decision-level/reason context
// under which it was produced.
type Fixing struct {
	Col           int
	Value         float64
	DecisionLevel int
	ReasonRow     int
}
