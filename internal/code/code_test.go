package code

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMake(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		expected []byte
	}{
		{OpConstant, []int{254}, []byte{byte(OpConstant), 254}},
		{OpJump, []int{65534}, []byte{byte(OpJump), 255, 254}},
		{OpPopN, []int{3}, []byte{byte(OpPopN), 3}},
		{OpAdd, nil, []byte{byte(OpAdd)}},
	}

	for _, tt := range tests {
		ins := Make(tt.op, tt.operands...)
		if diff := cmp.Diff(tt.expected, []byte(ins)); diff != "" {
			t.Errorf("Make(%d) mismatch (-want +got):\n%s", tt.op, diff)
		}
	}
}

func TestReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{OpConstant, []int{255}, 1},
		{OpLoop, []int{513}, 2},
		{OpCall, []int{7}, 1},
	}

	for _, tt := range tests {
		ins := Make(tt.op, tt.operands...)
		def, ok := Lookup(tt.op)
		if !ok {
			t.Fatalf("definition not found: %d", tt.op)
		}

		operandsRead, n := ReadOperands(def, ins[1:])
		if n != tt.bytesRead {
			t.Fatalf("n wrong. want=%d, got=%d", tt.bytesRead, n)
		}
		if diff := cmp.Diff(tt.operands, operandsRead); diff != "" {
			t.Errorf("operands mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEveryOpcodeHasDefinition(t *testing.T) {
	for op := OpConstant; op <= OpReturn; op++ {
		if _, ok := Lookup(op); !ok {
			t.Errorf("opcode %d has no definition", op)
		}
	}
}

func TestLineTable(t *testing.T) {
	var lt LineTable
	lines := []int{1, 1, 1, 2, 2, 4, 4, 4, 4, 5}
	for off, line := range lines {
		lt.Add(off, line)
	}

	want := []LineRun{{0, 1}, {3, 2}, {5, 4}, {9, 5}}
	if diff := cmp.Diff(want, lt.Runs()); diff != "" {
		t.Fatalf("runs mismatch (-want +got):\n%s", diff)
	}

	for off, line := range lines {
		if got := lt.Line(off); got != line {
			t.Errorf("Line(%d) = %d, want %d", off, got, line)
		}
	}
	if got := lt.Line(100); got != 5 {
		t.Errorf("offset past the end should map to the last line, got %d", got)
	}

	for _, off := range []int{0, 3, 5, 9} {
		if !lt.IsRunStart(off) {
			t.Errorf("offset %d should start a run", off)
		}
	}
	for _, off := range []int{1, 4, 6, 10} {
		if lt.IsRunStart(off) {
			t.Errorf("offset %d should not start a run", off)
		}
	}
}

func TestEmptyLineTable(t *testing.T) {
	var lt LineTable
	if got := lt.Line(0); got != 0 {
		t.Fatalf("expected 0 for empty table, got %d", got)
	}
}
