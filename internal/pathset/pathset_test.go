package pathset

import (
	"reflect"
	"testing"

	"github.com/msolo/gs4/internal/gpath"
)

func elems(strs ...string) []string { return strs }

func TestSortedIteration(t *testing.T) {
	s := New(gpath.File("c"), gpath.File("a"), gpath.File("b"))
	var got []string
	for _, p := range s.Elements() {
		got = append(got, p.String())
	}
	want := elems("a", "b", "c")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Elements() = %v, want %v", got, want)
	}
}

func TestSetOps(t *testing.T) {
	a := New(gpath.File("x"), gpath.File("y"), gpath.File("z"))
	b := New(gpath.File("y"), gpath.File("z"), gpath.File("w"))

	union := a.Union(b)
	if union.Len() != 4 {
		t.Fatalf("Union len = %d, want 4", union.Len())
	}

	inter := a.Intersect(b)
	var interNames []string
	for _, p := range inter.Elements() {
		interNames = append(interNames, p.String())
	}
	if !reflect.DeepEqual(interNames, elems("y", "z")) {
		t.Fatalf("Intersect = %v, want [y z]", interNames)
	}

	diff := a.Difference(b)
	var diffNames []string
	for _, p := range diff.Elements() {
		diffNames = append(diffNames, p.String())
	}
	if !reflect.DeepEqual(diffNames, elems("x")) {
		t.Fatalf("Difference = %v, want [x]", diffNames)
	}

	sym := a.SymmetricDifference(b)
	if sym.Len() != 2 {
		t.Fatalf("SymmetricDifference len = %d, want 2", sym.Len())
	}
}

func TestZeroValueIsEmpty(t *testing.T) {
	var s Set
	if s.Len() != 0 {
		t.Fatalf("zero Set Len() = %d, want 0", s.Len())
	}
	if s.Contains(gpath.File("x")) {
		t.Fatal("zero Set should contain nothing")
	}
	s = s.Add(gpath.File("x"))
	if s.Len() != 1 {
		t.Fatalf("Add on zero Set: Len() = %d, want 1", s.Len())
	}
}

func TestRemove(t *testing.T) {
	s := New(gpath.File("a"), gpath.File("b"))
	s = s.Remove(gpath.File("a"))
	if s.Contains(gpath.File("a")) {
		t.Fatal("a should have been removed")
	}
	if !s.Contains(gpath.File("b")) {
		t.Fatal("b should still be present")
	}
}
