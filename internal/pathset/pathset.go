// Package pathset is a deterministic, sorted set of gpath.Path values. It
// exists so reconciler logs and tests see the same order on every run
// instead of Go's randomized map iteration order.
//
// Backed by github.com/emirpasic/gods' sorted tree set (the same library
// liudonghua123-reposurgeon uses, via its linked-hash-set sibling, to keep
// an ordered view over a selection of items) rather than gods'
// insertion-ordered linkedhashset, because what determinism here needs is
// sort order, not insertion order.
package pathset

import (
	"strings"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/msolo/gs4/internal/gpath"
)

func compareByText(a, b interface{}) int {
	return strings.Compare(a.(gpath.Path).String(), b.(gpath.Path).String())
}

// Set is a sorted set of gpath.Path.
type Set struct {
	ts *treeset.Set
}

// New returns an empty set, optionally seeded with elems.
func New(elems ...gpath.Path) Set {
	ts := treeset.NewWith(compareByText)
	for _, e := range elems {
		ts.Add(e)
	}
	return Set{ts: ts}
}

func (s Set) ensure() *treeset.Set {
	if s.ts == nil {
		return treeset.NewWith(compareByText)
	}
	return s.ts
}

// Add inserts p into the set, returning the (possibly new) set. Sets are
// value types sharing an underlying tree; Add mutates in place and also
// returns the receiver so call sites can chain, matching how the rest of
// this codebase threads sets through classification.
func (s Set) Add(p gpath.Path) Set {
	if s.ts == nil {
		s.ts = treeset.NewWith(compareByText)
	}
	s.ts.Add(p)
	return s
}

// Remove deletes p from the set, if present.
func (s Set) Remove(p gpath.Path) Set {
	s.ensure().Remove(p)
	return s
}

// Contains reports whether p is a member of the set.
func (s Set) Contains(p gpath.Path) bool {
	if s.ts == nil {
		return false
	}
	return s.ts.Contains(p)
}

// Len returns the number of elements.
func (s Set) Len() int {
	if s.ts == nil {
		return 0
	}
	return s.ts.Size()
}

// Elements returns the set's members in sorted textual order.
func (s Set) Elements() []gpath.Path {
	if s.ts == nil {
		return nil
	}
	vals := s.ts.Values()
	out := make([]gpath.Path, len(vals))
	for i, v := range vals {
		out[i] = v.(gpath.Path)
	}
	return out
}

// Union returns a new set containing every element of s or other.
func (s Set) Union(other Set) Set {
	out := New()
	for _, p := range s.Elements() {
		out = out.Add(p)
	}
	for _, p := range other.Elements() {
		out = out.Add(p)
	}
	return out
}

// Intersect returns a new set containing only elements present in both s
// and other.
func (s Set) Intersect(other Set) Set {
	out := New()
	for _, p := range s.Elements() {
		if other.Contains(p) {
			out = out.Add(p)
		}
	}
	return out
}

// Difference returns a new set of elements in s but not in other.
func (s Set) Difference(other Set) Set {
	out := New()
	for _, p := range s.Elements() {
		if !other.Contains(p) {
			out = out.Add(p)
		}
	}
	return out
}

// SymmetricDifference returns a new set of elements in exactly one of s,
// other.
func (s Set) SymmetricDifference(other Set) Set {
	return s.Difference(other).Union(other.Difference(s))
}

// String renders the set in sorted order, for deterministic logs.
func (s Set) String() string {
	elems := s.Elements()
	parts := make([]string, len(elems))
	for i, p := range elems {
		parts[i] = p.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
