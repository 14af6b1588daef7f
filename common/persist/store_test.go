package persist

import "testing"

func TestSaveLoadDelete(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatal(err)
	}
	s.Save(1, "proc-1")

	v, ok := s.Load(1)
	if !ok || v != "proc-1" {
		t.Fatalf("expected to load proc-1, got %v, %v", v, ok)
	}

	deleted, ok := s.Delete(1)
	if !ok || deleted != "proc-1" {
		t.Fatalf("expected to delete proc-1, got %v, %v", deleted, ok)
	}
	if _, ok := s.Load(1); ok {
		t.Fatal("expected id 1 to be gone after delete")
	}
}

func TestBoundedEviction(t *testing.T) {
	s, err := New(1)
	if err != nil {
		t.Fatal(err)
	}
	s.Save(1, "a")
	s.Save(2, "b")

	if _, ok := s.Load(1); ok {
		t.Fatal("expected oldest entry to be evicted once bound exceeded")
	}
	if v, ok := s.Load(2); !ok || v != "b" {
		t.Fatalf("expected newest entry to survive, got %v, %v", v, ok)
	}
}
