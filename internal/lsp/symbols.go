package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DocumentSymbols lists top-level functions, variables and constants in
// source order. Parameters appear as children of their function.
func (a *Analysis) DocumentSymbols() []protocol.DocumentSymbol {
	out := []protocol.DocumentSymbol{}
	for _, d := range a.Decls {
		if !d.TopLevel {
			continue
		}
		sym := a.symbol(d)
		if d.Kind == DeclFunction {
			for _, p := range a.Decls {
				if p.Owner == d {
					sym.Children = append(sym.Children, a.symbol(p))
				}
			}
		}
		out = append(out, sym)
	}
	return out
}

func (a *Analysis) symbol(d *Decl) protocol.DocumentSymbol {
	sel := a.index.rangeOf(d.Pos, len(d.Name))
	full := sel
	if d.End != (Pos{}) {
		full = a.index.span(d.Start, d.End, 1)
	}
	detail := d.Detail()
	return protocol.DocumentSymbol{
		Name:           d.Name,
		Detail:         &detail,
		Kind:           symbolKind(d.Kind),
		Range:          full,
		SelectionRange: sel,
	}
}

func symbolKind(k DeclKind) protocol.SymbolKind {
	switch k {
	case DeclFunction:
		return protocol.SymbolKindFunction
	case DeclConstant:
		return protocol.SymbolKindConstant
	default:
		return protocol.SymbolKindVariable
	}
}
