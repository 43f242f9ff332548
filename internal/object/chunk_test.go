package object

import (
	"testing"

	"plume/internal/code"
)

func TestAddConstantDeduplicates(t *testing.T) {
	c := NewChunk()
	s := &String{Chars: "k"}

	i1 := c.AddConstant(NumberVal(1.5))
	i2 := c.AddConstant(ObjVal(s))
	i3 := c.AddConstant(NumberVal(1.5))
	i4 := c.AddConstant(ObjVal(s))
	i5 := c.AddConstant(BoolVal(true))

	if i1 != i3 || i2 != i4 {
		t.Fatalf("duplicates got new slots: %d %d %d %d", i1, i2, i3, i4)
	}
	if i5 != 2 || len(c.Constants) != 3 {
		t.Fatalf("expected 3 constants, got %d (i5=%d)", len(c.Constants), i5)
	}
}

func TestChunkWriteTracksLines(t *testing.T) {
	c := NewChunk()
	c.Emit(code.Make(code.OpConstant, 0), 1)
	c.Emit(code.Make(code.OpNegate), 1)
	pos := c.Emit(code.Make(code.OpPrint), 2)
	c.Emit(code.Make(code.OpReturn), 3)

	if pos != 3 {
		t.Fatalf("OpPrint offset = %d, want 3", pos)
	}
	want := []int{1, 1, 1, 2, 3}
	for off, line := range want {
		if got := c.Line(off); got != line {
			t.Errorf("Line(%d) = %d, want %d", off, got, line)
		}
	}
	if runs := c.Lines.Runs(); len(runs) != 3 {
		t.Fatalf("expected 3 line runs, got %d", len(runs))
	}
}
