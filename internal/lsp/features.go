package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Definition locates the declaration of the name under the cursor.
func (a *Analysis) Definition(uri string, at protocol.Position) (protocol.Location, bool) {
	p, ok := a.index.pos(at)
	if !ok {
		return protocol.Location{}, false
	}
	d := a.DeclAt(p)
	if d == nil {
		return protocol.Location{}, false
	}
	return protocol.Location{URI: protocol.DocumentUri(uri), Range: a.index.rangeOf(d.Pos, len(d.Name))}, true
}

// ReferenceLocations lists every use of the name under the cursor, with the
// declaration first when includeDecl is set.
func (a *Analysis) ReferenceLocations(uri string, at protocol.Position, includeDecl bool) []protocol.Location {
	p, ok := a.index.pos(at)
	if !ok {
		return nil
	}
	d := a.DeclAt(p)
	if d == nil {
		return nil
	}
	var out []protocol.Location
	if includeDecl {
		out = append(out, protocol.Location{URI: protocol.DocumentUri(uri), Range: a.index.rangeOf(d.Pos, len(d.Name))})
	}
	for _, r := range a.References(d) {
		out = append(out, protocol.Location{URI: protocol.DocumentUri(uri), Range: a.index.rangeOf(r.Pos, len(r.Name))})
	}
	return out
}

func (a *Analysis) Hover(at protocol.Position) (*protocol.Hover, bool) {
	p, ok := a.index.pos(at)
	if !ok {
		return nil, false
	}
	d := a.DeclAt(p)
	if d == nil {
		return nil, false
	}
	value := fmt.Sprintf("```plume\n%s\n```\n%s declared on line %d", d.Detail(), d.Kind, d.Pos.Line)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: value},
	}, true
}
