package lsp

import (
	"sort"
	"strings"

	"plume/internal/token"
)

// Token type indexes into TokenTypes.
const (
	ttKeyword uint32 = iota
	ttString
	ttNumber
	ttOperator
	ttFunction
	ttVariable
	ttParameter
)

var TokenTypes = []string{
	"keyword",
	"string",
	"number",
	"operator",
	"function",
	"variable",
	"parameter",
}

const (
	modDecl     uint32 = 1 << 0
	modReadonly uint32 = 1 << 1
)

var TokenModifiers = []string{
	"declaration",
	"readonly",
}

// SemTok is one highlighted span on a single line, in lexer coordinates.
type SemTok struct {
	Pos    Pos
	Length int // bytes
	Type   uint32
	Mods   uint32
}

// Classify assigns a semantic token to every highlightable lexeme.
func (a *Analysis) Classify() []SemTok {
	decls := map[Pos]*Decl{}
	for _, d := range a.Decls {
		decls[d.Pos] = d
	}
	refs := map[Pos]Ref{}
	for _, r := range a.Refs {
		refs[r.Pos] = r
	}

	var out []SemTok
	for _, t := range a.Tokens {
		p := posOf(t)
		switch {
		case t.Type == token.ERROR:
		case t.Type == token.STRING:
			out = append(out, splitLines(p, t.Literal, ttString)...)
		case t.Type == token.NUMBER:
			out = append(out, SemTok{Pos: p, Length: len(t.Literal), Type: ttNumber})
		case t.Type == token.IDENT:
			if d, ok := decls[p]; ok {
				out = append(out, SemTok{Pos: p, Length: len(t.Literal), Type: declType(d), Mods: modDecl | readonly(d)})
				continue
			}
			r := refs[p]
			typ := ttVariable
			var mods uint32
			switch {
			case r.Decl != nil:
				typ = declType(r.Decl)
				mods = readonly(r.Decl)
			case r.Call:
				typ = ttFunction
			}
			out = append(out, SemTok{Pos: p, Length: len(t.Literal), Type: typ, Mods: mods})
		case token.IsKeyword(t.Type):
			out = append(out, SemTok{Pos: p, Length: len(t.Literal), Type: ttKeyword})
		case isOperator(t.Type):
			out = append(out, SemTok{Pos: p, Length: len(t.Literal), Type: ttOperator})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos.before(out[j].Pos) })
	return out
}

func declType(d *Decl) uint32 {
	switch d.Kind {
	case DeclFunction:
		return ttFunction
	case DeclParameter:
		return ttParameter
	default:
		return ttVariable
	}
}

func readonly(d *Decl) uint32 {
	if d.Kind == DeclConstant {
		return modReadonly
	}
	return 0
}

func isOperator(t token.Type) bool {
	switch t {
	case token.BANG, token.ASSIGN, token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE:
		return true
	}
	return false
}

// splitLines breaks a multi-line lexeme into one token per line; LSP
// semantic tokens may not span lines.
func splitLines(p Pos, lit string, typ uint32) []SemTok {
	parts := strings.Split(lit, "\n")
	out := make([]SemTok, 0, len(parts))
	for i, part := range parts {
		col := 1
		if i == 0 {
			col = p.Col
		}
		if part == "" {
			continue
		}
		out = append(out, SemTok{Pos: Pos{Line: p.Line + i, Col: col}, Length: len(part), Type: typ})
	}
	return out
}

// EncodeSemanticTokens produces the LSP relative encoding: for each token
// deltaLine, deltaStart, length, type, modifiers, with columns and lengths in
// UTF-16 units.
func (a *Analysis) EncodeSemanticTokens(toks []SemTok) []uint32 {
	data := make([]uint32, 0, len(toks)*5)
	var prevLine, prevChar uint32
	for _, t := range toks {
		r := a.index.rangeOf(t.Pos, t.Length)
		line, char := r.Start.Line, r.Start.Character
		length := r.End.Character - r.Start.Character

		deltaLine := line - prevLine
		deltaStart := char
		if deltaLine == 0 {
			deltaStart = char - prevChar
		}
		data = append(data, deltaLine, deltaStart, length, t.Type, t.Mods)
		prevLine, prevChar = line, char
	}
	return data
}

// SemanticTokens is Classify followed by EncodeSemanticTokens.
func (a *Analysis) SemanticTokens() []uint32 {
	return a.EncodeSemanticTokens(a.Classify())
}
