package sets

import "testing"

func TestSetBasics(t *testing.T) {
	s := New("a", "b")
	if !s.Has("a") || !s.Has("b") {
		t.Fatal("expected initial members present")
	}
	s.Add("c")
	if !s.Has("c") {
		t.Fatal("expected added member present")
	}
	s.Delete("a")
	if s.Has("a") {
		t.Fatal("expected deleted member absent")
	}
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New(1, 2)
	c := s.Clone()
	c.Add(3)
	if s.Has(3) {
		t.Fatal("clone mutation leaked into original")
	}
}

func TestSortedStrings(t *testing.T) {
	s := New("pear", "apple", "mango")
	got := SortedStrings(s)
	want := []string{"apple", "mango", "pear"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
