package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plume/internal/vm"
)

func run(t *testing.T, input string, interactive bool) (progOut, replOut, errOut string) {
	t.Helper()
	var p, r, e bytes.Buffer
	m := vm.New()
	m.SetOutput(&p)
	m.SetErrorOutput(&e)
	Start(strings.NewReader(input), &r, m, interactive)
	return p.String(), r.String(), e.String()
}

func TestGlobalsPersistBetweenLines(t *testing.T) {
	out, _, errOut := run(t, "var a = 1;\nprint a + 1;\n", false)
	if out != "2\n" || errOut != "" {
		t.Fatalf("out=%q err=%q", out, errOut)
	}
}

func TestMultiLineInput(t *testing.T) {
	input := strings.Join([]string{
		"fun add(a,",
		"        b) {",
		"  return a + b;",
		"}",
		`print "multi`,
		`line";`,
		"print add(1, 2);",
	}, "\n") + "\n"
	out, _, errOut := run(t, input, false)
	if diff := cmp.Diff("multi\nline\n3\n", out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s\nstderr: %s", diff, errOut)
	}
}

func TestErrorsDoNotEndSession(t *testing.T) {
	out, _, errOut := run(t, "print ;\nprint nope;\nprint \"ok\";\n", false)
	if out != "ok\n" {
		t.Fatalf("out = %q", out)
	}
	for _, want := range []string{"Expect expression.", "Undefined variable 'nope'."} {
		if !strings.Contains(errOut, want) {
			t.Fatalf("stderr %q missing %q", errOut, want)
		}
	}
}

func TestGlobalsCommand(t *testing.T) {
	_, replOut, _ := run(t, "var b = \"x\";\nvar a = 2;\n:globals\n", false)
	if diff := cmp.Diff("a = 2\nb = x\n", replOut); diff != "" {
		t.Fatalf(":globals mismatch (-want +got):\n%s", diff)
	}
}

func TestExitStopsReading(t *testing.T) {
	out, _, _ := run(t, "print 1;\nexit\nprint 2;\n", false)
	if out != "1\n" {
		t.Fatalf("out = %q", out)
	}
}

func TestPromptsOnlyWhenInteractive(t *testing.T) {
	_, replOut, _ := run(t, "{\n}\n", true)
	want := "plume REPL (Ctrl+D to exit)\n> . > \n"
	if diff := cmp.Diff(want, replOut); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}

	_, replOut, _ = run(t, "{\n}\n", false)
	if replOut != "" {
		t.Fatalf("non-interactive session printed %q", replOut)
	}
}

func TestBalance(t *testing.T) {
	tests := []struct {
		lines    []string
		complete bool
	}{
		{[]string{"print 1;"}, true},
		{[]string{"{"}, false},
		{[]string{"{", "}"}, true},
		{[]string{`print "{";`}, true},
		{[]string{`print "abc`}, false},
		{[]string{"f(1, // )", ")"}, true},
		{[]string{"f(1, // )"}, false},
	}
	for _, tt := range tests {
		var b balance
		for _, l := range tt.lines {
			b.update(l)
		}
		if b.complete() != tt.complete {
			t.Errorf("%q: complete = %v, want %v", tt.lines, b.complete(), tt.complete)
		}
	}
}
