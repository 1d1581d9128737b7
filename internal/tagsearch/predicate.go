package tagsearch

import "fmt"

// Predicate is a boolean expression tree over tag IDs. A nil Predicate
// matches everything.
type Predicate struct {
	op    op
	tagID int64
	left  *Predicate
	right *Predicate
}

type op int

const (
	opHas op = iota
	opAnd
	opOr
)

// Has matches files carrying the given tag.
func Has(tagID int64) *Predicate {
	return &Predicate{op: opHas, tagID: tagID}
}

// And matches files satisfying both sub-predicates.
func And(left, right *Predicate) *Predicate {
	return &Predicate{op: opAnd, left: left, right: right}
}

// Or matches files satisfying either sub-predicate.
func Or(left, right *Predicate) *Predicate {
	return &Predicate{op: opOr, left: left, right: right}
}

// All combines predicates with And. Returns nil for an empty slice.
func All(preds ...*Predicate) *Predicate {
	var out *Predicate
	for _, p := range preds {
		if out == nil {
			out = p
		} else {
			out = And(out, p)
		}
	}
	return out
}

// Any combines predicates with Or. Returns nil for an empty slice.
func Any(preds ...*Predicate) *Predicate {
	var out *Predicate
	for _, p := range preds {
		if out == nil {
			out = p
		} else {
			out = Or(out, p)
		}
	}
	return out
}

// Matches reports whether a file with the given tag-ID set satisfies
// the predicate. A nil predicate matches any set.
func (p *Predicate) Matches(tagIDs map[int64]bool) bool {
	if p == nil {
		return true
	}
	switch p.op {
	case opHas:
		return tagIDs[p.tagID]
	case opAnd:
		return p.left.Matches(tagIDs) && p.right.Matches(tagIDs)
	case opOr:
		return p.left.Matches(tagIDs) || p.right.Matches(tagIDs)
	}
	return false
}

// String renders the predicate for logging.
func (p *Predicate) String() string {
	if p == nil {
		return "<all>"
	}
	switch p.op {
	case opHas:
		return fmt.Sprintf("has(%d)", p.tagID)
	case opAnd:
		return fmt.Sprintf("(%s AND %s)", p.left, p.right)
	case opOr:
		return fmt.Sprintf("(%s OR %s)", p.left, p.right)
	}
	return "<invalid>"
}
