package heap

import (
	"errors"
	"testing"

	"plume/internal/limits"
	"plume/internal/object"
)

func TestCopyStringInterns(t *testing.T) {
	h := New()
	a, err := h.CopyString("hello")
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.CopyString("hel" + "lo")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("equal strings were not interned to one object")
	}
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	c, _ := h.TakeString("world")
	if c == a {
		t.Fatal("different strings share an object")
	}
	if a.Hash != object.HashString("hello") {
		t.Fatal("hash not computed")
	}
}

func TestFreeReleasesEverything(t *testing.T) {
	h := New()
	h.SetBudget(limits.NewBudget(0))
	for _, s := range []string{"a", "b", "c"} {
		if _, err := h.CopyString(s); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := h.NewFunction(); err != nil {
		t.Fatal(err)
	}

	objs := h.Objects()
	if len(objs) != 4 {
		t.Fatalf("Objects = %d, want 4", len(objs))
	}
	if _, ok := objs[0].(*object.Function); !ok {
		t.Fatalf("most recent allocation should come first, got %T", objs[0])
	}

	if n := h.Free(); n != 4 {
		t.Fatalf("Free released %d, want 4", n)
	}
	if h.Len() != 0 || len(h.Objects()) != 0 || h.Strings().Len() != 0 {
		t.Fatal("heap not empty after Free")
	}
	if h.Budget().Used() != 0 {
		t.Fatalf("budget still charged %d bytes", h.Budget().Used())
	}
	for _, o := range objs {
		if o.ObjHeader().Next != nil {
			t.Fatal("freed object still linked")
		}
	}
}

func TestBudgetExhaustion(t *testing.T) {
	h := New()
	h.SetBudget(limits.NewBudget(object.CostString(3)))
	if _, err := h.CopyString("abc"); err != nil {
		t.Fatal(err)
	}
	// Interned hit allocates nothing.
	if _, err := h.CopyString("abc"); err != nil {
		t.Fatal(err)
	}
	_, err := h.CopyString("d")
	var memErr limits.MaxMemoryError
	if !errors.As(err, &memErr) {
		t.Fatalf("expected MaxMemoryError, got %v", err)
	}
}

func TestAdoptInternsStrings(t *testing.T) {
	h := New()
	a, _ := h.CopyString("x")
	got, err := h.Adopt(&object.String{Chars: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got != object.Obj(a) {
		t.Fatal("Adopt did not return the interned string")
	}
	fn := &object.Function{Chunk: object.NewChunk()}
	if _, err := h.Adopt(fn); err != nil {
		t.Fatal(err)
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}
}
