package export

import "testing"

func TestDocumentSet_AddContainsLen(t *testing.T) {
	s := NewDocumentSet()
	if s.Len() != 0 {
		t.Fatalf("new set Len() = %d, want 0", s.Len())
	}
	if s.Contains(1) {
		t.Error("empty set should not contain 1")
	}

	s.Add(1)
	s.Add(2)
	s.Add(1) // duplicate add should not grow the set

	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !s.Contains(1) || !s.Contains(2) {
		t.Error("set should contain 1 and 2")
	}
	if s.Contains(3) {
		t.Error("set should not contain 3")
	}
}
