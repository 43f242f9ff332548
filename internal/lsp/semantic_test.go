package lsp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSemanticTokens(t *testing.T) {
	a := Analyze("con k = \"a\";\nprint k;\n")
	want := []uint32{
		0, 0, 3, ttKeyword, 0,
		0, 4, 1, ttVariable, modDecl | modReadonly,
		0, 2, 1, ttOperator, 0,
		0, 2, 3, ttString, 0,
		1, 0, 5, ttKeyword, 0,
		0, 6, 1, ttVariable, modReadonly,
	}
	if diff := cmp.Diff(want, a.SemanticTokens()); diff != "" {
		t.Fatalf("tokens (-want +got):\n%s", diff)
	}
}

func TestClassifyIdentifiers(t *testing.T) {
	a := Analyze("fun f(p) { return p; }\nf(1);\nundefinedCall();\n")
	got := map[Pos]uint32{}
	for _, s := range a.Classify() {
		got[s.Pos] = s.Type
	}
	want := map[Pos]uint32{
		{Line: 1, Col: 5}:  ttFunction,
		{Line: 1, Col: 7}:  ttParameter,
		{Line: 1, Col: 19}: ttParameter,
		{Line: 2, Col: 1}:  ttFunction,
		{Line: 3, Col: 1}:  ttFunction,
	}
	for p, typ := range want {
		if got[p] != typ {
			t.Errorf("at %v: got %s want %s", p, TokenTypes[got[p]], TokenTypes[typ])
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines(Pos{Line: 1, Col: 9}, "\"a\nbc\"", ttString)
	want := []SemTok{
		{Pos: Pos{Line: 1, Col: 9}, Length: 2, Type: ttString},
		{Pos: Pos{Line: 2, Col: 1}, Length: 3, Type: ttString},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
