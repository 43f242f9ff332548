// Package diag carries compile diagnostics between the compiler, the CLI and
// the language server.
package diag

import (
	"fmt"
	"strings"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

type Range struct {
	Line   int // 1-based
	Col    int // 1-based
	Length int // best-effort; can be 1 if unknown
}

type Diagnostic struct {
	Message  string
	Severity Severity
	Range    Range
	// Where locates the offending token in the report: " at 'x'", " at end",
	// or empty when the lexer itself produced the error.
	Where string
}

// Format renders the diagnostic the way the interpreter reports it on stderr.
func (d Diagnostic) Format() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Range.Line, d.Where, d.Message)
}

// FormatPath renders the diagnostic as path:line:col for editors and tools.
func (d Diagnostic) FormatPath(path string) string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, d.Range.Line, d.Range.Col, d.Severity.String(), d.Message)
}

// List is the error returned by a failed compilation.
type List []Diagnostic

func (l List) Error() string {
	var sb strings.Builder
	for i, d := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.Format())
	}
	return sb.String()
}
