// Package repl runs an interactive session on one persistent VM, so globals
// defined on one line are visible on the next.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"plume/internal/vm"
)

const (
	prompt1 = "> "
	prompt2 = ". "
)

// IsInteractive reports whether f is a terminal. Prompts are only shown when
// it is.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Start reads statements from in until EOF or exit/quit. Input is buffered
// until braces and parentheses balance and no string is open, then handed to
// m.Interpret. Program output and errors go wherever m writes them; prompts
// and command output go to out.
func Start(in io.Reader, out io.Writer, m *vm.VM, interactive bool) {
	scanner := bufio.NewScanner(in)

	if interactive {
		fmt.Fprint(out, "plume REPL (Ctrl+D to exit)\n")
	}

	var buf strings.Builder
	var bal balance

	for {
		if interactive {
			if buf.Len() == 0 {
				fmt.Fprint(out, prompt1)
			} else {
				fmt.Fprint(out, prompt2)
			}
		}

		if !scanner.Scan() {
			if interactive {
				fmt.Fprint(out, "\n")
			}
			if buf.Len() > 0 {
				m.Interpret(buf.String())
			}
			return
		}

		line := scanner.Text()
		trim := strings.TrimSpace(line)

		if buf.Len() == 0 {
			switch trim {
			case "exit", "quit":
				return
			case ":globals":
				printGlobals(out, m)
				continue
			case "":
				continue
			}
		}

		buf.WriteString(line)
		buf.WriteString("\n")

		bal.update(line)
		if !bal.complete() {
			continue
		}

		src := buf.String()
		buf.Reset()
		bal = balance{}

		m.Interpret(src)
	}
}

func printGlobals(out io.Writer, m *vm.VM) {
	for _, g := range m.Globals() {
		fmt.Fprintf(out, "%s = %s\n", g.Name, g.Value)
	}
}

type balance struct {
	braces   int
	parens   int
	inString bool
}

func (b *balance) complete() bool {
	return b.braces <= 0 && b.parens <= 0 && !b.inString
}

func (b *balance) update(line string) {
	for i := 0; i < len(line); i++ {
		ch := line[i]

		if b.inString {
			if ch == '"' {
				b.inString = false
			}
			continue
		}

		if ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return
		}

		switch ch {
		case '"':
			b.inString = true
		case '{':
			b.braces++
		case '}':
			b.braces--
		case '(':
			b.parens++
		case ')':
			b.parens--
		}
	}
}
