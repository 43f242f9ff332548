package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"plume/internal/diag"
)

const sourceName = "plume"

func toLspSeverity(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

// LspDiagnostics converts the compile diagnostics. The result is never nil
// so publishing it clears stale markers.
func (a *Analysis) LspDiagnostics() []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(a.Diagnostics))
	src := sourceName
	for _, d := range a.Diagnostics {
		sev := toLspSeverity(d.Severity)
		msg := d.Message
		if d.Where != "" {
			msg = "Error" + d.Where + ": " + msg
		}
		out = append(out, protocol.Diagnostic{
			Range:    a.index.rangeOf(Pos{Line: d.Range.Line, Col: d.Range.Col}, d.Range.Length),
			Severity: &sev,
			Source:   &src,
			Message:  msg,
		})
	}
	return out
}
