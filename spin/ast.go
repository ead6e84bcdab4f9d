// Package spin implements the SPIN template language of spec §4.5: a
// line-oriented, indentation-structured query over a compiled corpus,
// its planner (cardinality-driven spin ordering), and its executor
// (vectorized candidate materialization, relation-driven joins,
// dedup, lazy result streaming).
package spin

// RelOp names a structural relation between two atoms, either the
// default implied by indentation/sibling order or an explicit operator
// line.
type RelOp string

const (
	// RelBefore is the default sibling relation: strict canonical-order
	// precedence, gaps allowed.
	RelBefore      RelOp = "<"
	RelAfter       RelOp = ">"
	RelImmBefore   RelOp = "<:"
	RelImmAfter    RelOp = ":>"
	RelSlotBefore  RelOp = "<<"
	RelSlotAfter   RelOp = ">>"
	RelEmbeds      RelOp = "[["
	RelEmbeddedIn  RelOp = "]]"
	RelShareFirst  RelOp = "=:"
	RelShareLast   RelOp = ":="
	RelCoextensive RelOp = "::"
	RelSameSlots   RelOp = "=="
)

// relOps lists every explicit operator token recognized at the start of
// a relation line, longest first so "<:" is not mistaken for "<".
var relOps = []RelOp{
	RelImmBefore, RelImmAfter, RelSlotBefore, RelSlotAfter,
	RelEmbeds, RelEmbeddedIn, RelShareFirst, RelShareLast,
	RelCoextensive, RelSameSlots, RelBefore, RelAfter,
}

// PredOp identifies one of the five feature-predicate forms.
type PredOp int

const (
	PredEq PredOp = iota
	PredNE
	PredIn
	PredRegex
	PredPresent
	PredAbsent
)

// Predicate is one feature constraint attached to an atom.
type Predicate struct {
	Feature string
	Op      PredOp
	Values  []string // one value for Eq/NE/Regex, several for In
}

// Atom is one node-type constraint in a template, with its structural
// position recorded as a relation to a parent and/or a preceding
// sibling. AnyType is true for the "." sentinel, matching every type.
type Atom struct {
	ID         int
	TypeName   string
	AnyType    bool
	Predicates []Predicate
	Negated    bool // set by a "/-/" line inside a quantifier body

	ParentID   int // -1 if this atom has no parent in its template/body
	ParentRel  RelOp
	SiblingID  int // -1 if this atom is the first child at its depth
	SiblingRel RelOp

	Quantifiers []*Quantifier
}

// Quantifier is a subordinate constraint attached to an atom: after a
// candidate binding for the host atom is produced, Body is evaluated
// with that binding fixed, and the binding survives iff Keyword's
// semantics hold.
type Quantifier struct {
	ID         int
	HostAtomID int
	Keyword    string // "where", "have", "without", "with", "or"
	Body       *Template
	// OrWithPrev, when true, means this quantifier is an alternative to
	// the immediately preceding quantifier on the same host: the pair is
	// satisfied if either side is.
	OrWithPrev bool
}

// Template is a parsed SPIN query (or quantifier body): a forest of
// top-level atoms (those whose ParentID falls outside this template's
// own atoms — -1 at the outermost level, or the external host atom's ID
// inside a quantifier body) plus every atom nested under them. Atoms is
// in declaration order for tuple output; TopLevel holds the IDs of the
// forest roots. Atom IDs are globally unique across an entire parsed
// query but not contiguous within any one Template, so lookups go
// through byID rather than direct slice indexing.
type Template struct {
	Atoms    []*Atom
	TopLevel []int

	byID map[int]*Atom
}

func (t *Template) Atom(id int) *Atom {
	if t.byID == nil {
		t.byID = make(map[int]*Atom, len(t.Atoms))
		for _, a := range t.Atoms {
			t.byID[a.ID] = a
		}
	}
	return t.byID[id]
}

// Children returns the IDs of id's direct children, in declaration order.
func (t *Template) Children(id int) []int {
	var out []int
	for _, a := range t.Atoms {
		if a.ParentID == id {
			out = append(out, a.ID)
		}
	}
	return out
}
