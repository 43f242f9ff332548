// Package lsp implements the editor-facing analysis behind plume-lsp. The
// language has no syntax tree, so declarations and scopes are recovered from
// the token stream and diagnostics come from a real compilation.
package lsp

import (
	"errors"
	"fmt"
	"strings"

	"plume/internal/compiler"
	"plume/internal/diag"
	"plume/internal/heap"
	"plume/internal/lexer"
	"plume/internal/token"
)

type DeclKind int

const (
	DeclFunction DeclKind = iota
	DeclVariable
	DeclConstant
	DeclParameter
)

func (k DeclKind) String() string {
	switch k {
	case DeclFunction:
		return "function"
	case DeclVariable:
		return "variable"
	case DeclConstant:
		return "constant"
	default:
		return "parameter"
	}
}

type Decl struct {
	Name string
	Kind DeclKind
	Pos  Pos // the name token
	// Start is the introducing keyword; End is the closing brace of a
	// function body or the semicolon ending a var/con declaration.
	Start    Pos
	End      Pos
	ScopeEnd Pos
	Params   []string
	Owner    *Decl // function owning a parameter
	TopLevel bool
}

// Detail is the one-line signature shown on hover.
func (d *Decl) Detail() string {
	switch d.Kind {
	case DeclFunction:
		return fmt.Sprintf("fun %s(%s)", d.Name, strings.Join(d.Params, ", "))
	case DeclConstant:
		return "con " + d.Name
	case DeclParameter:
		if d.Owner != nil {
			return fmt.Sprintf("%s (parameter of %s)", d.Name, d.Owner.Name)
		}
		return d.Name + " (parameter)"
	default:
		return "var " + d.Name
	}
}

type Ref struct {
	Name string
	Pos  Pos
	Decl *Decl // nil when nothing in scope declares Name
	Call bool
}

type Analysis struct {
	Text        string
	Tokens      []token.Token
	Decls       []*Decl
	Refs        []Ref
	Diagnostics []diag.Diagnostic

	index lineIndex
}

type scope struct {
	names map[string]*Decl
	decls []*Decl
	// for-loop scopes close with their body: at the body block's brace or,
	// for a single-statement body, at its semicolon.
	forLoop    bool
	headerDone bool
	parenDepth int
	owner      *Decl
}

type analyzer struct {
	a      *Analysis
	scopes []*scope
	parens int

	// parameters waiting for the body block of their function
	pendingFn     *Decl
	pendingParams []*Decl
	// var/con declarations waiting for their semicolon
	pendingEnds []*Decl
}

// Analyze scans and compiles text. It never fails: problems show up as
// Diagnostics.
func Analyze(text string) *Analysis {
	a := &Analysis{Text: text, index: newLineIndex(text)}

	l := lexer.New(text)
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		a.Tokens = append(a.Tokens, tok)
	}

	z := &analyzer{a: a}
	z.walk()
	a.Diagnostics = compileDiagnostics(text)
	return a
}

func compileDiagnostics(text string) []diag.Diagnostic {
	h := heap.New()
	defer h.Free()
	_, err := compiler.Compile(text, h)
	if err == nil {
		return nil
	}
	var list diag.List
	if errors.As(err, &list) {
		return list
	}
	return []diag.Diagnostic{{Message: err.Error(), Severity: diag.SeverityError, Range: diag.Range{Line: 1, Col: 1, Length: 1}}}
}

func (z *analyzer) tok(i int) token.Token {
	if i < 0 || i >= len(z.a.Tokens) {
		return token.Token{Type: token.EOF}
	}
	return z.a.Tokens[i]
}

func (z *analyzer) top() *scope {
	return z.scopes[len(z.scopes)-1]
}

func (z *analyzer) push(forLoop bool) *scope {
	s := &scope{names: map[string]*Decl{}, forLoop: forLoop, parenDepth: z.parens}
	z.scopes = append(z.scopes, s)
	return s
}

func (z *analyzer) pop(at Pos) *scope {
	s := z.top()
	z.scopes = z.scopes[:len(z.scopes)-1]
	for _, d := range s.decls {
		d.ScopeEnd = at
	}
	return s
}

func (z *analyzer) declare(name string, kind DeclKind, at, start Pos) *Decl {
	d := &Decl{Name: name, Kind: kind, Pos: at, Start: start, TopLevel: len(z.scopes) == 1 && kind != DeclParameter}
	z.a.Decls = append(z.a.Decls, d)
	if kind == DeclParameter {
		return d
	}
	s := z.top()
	s.names[name] = d
	s.decls = append(s.decls, d)
	return d
}

func (z *analyzer) resolve(name string) *Decl {
	for i := len(z.scopes) - 1; i >= 0; i-- {
		if d, ok := z.scopes[i].names[name]; ok {
			return d
		}
	}
	// Globals resolve late, so a function body may use one declared below it.
	for _, d := range z.a.Decls {
		if d.TopLevel && d.Name == name {
			return d
		}
	}
	return nil
}

func posOf(t token.Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

func (z *analyzer) walk() {
	z.push(false)
	toks := z.a.Tokens
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case token.FUN:
			name := z.tok(i + 1)
			if name.Type != token.IDENT {
				continue
			}
			fn := z.declare(name.Literal, DeclFunction, posOf(name), posOf(t))
			i++
			if z.tok(i+1).Type != token.LPAREN {
				continue
			}
			i++
			z.parens++
			z.pendingFn = fn
			z.pendingParams = nil
			for i+1 < len(toks) && z.tok(i+1).Type != token.RPAREN && z.tok(i+1).Type != token.LBRACE {
				i++
				p := toks[i]
				if p.Type == token.IDENT {
					d := z.declare(p.Literal, DeclParameter, posOf(p), posOf(p))
					d.Owner = fn
					fn.Params = append(fn.Params, p.Literal)
					z.pendingParams = append(z.pendingParams, d)
				}
			}
		case token.VAR, token.CON:
			name := z.tok(i + 1)
			if name.Type != token.IDENT {
				continue
			}
			kind := DeclVariable
			if t.Type == token.CON {
				kind = DeclConstant
			}
			z.pendingEnds = append(z.pendingEnds, z.declare(name.Literal, kind, posOf(name), posOf(t)))
			i++
		case token.FOR:
			if z.tok(i+1).Type == token.LPAREN {
				z.push(true)
			}
		case token.LPAREN:
			z.parens++
		case token.RPAREN:
			if z.parens > 0 {
				z.parens--
			}
			if s := z.top(); s.forLoop && !s.headerDone && z.parens == s.parenDepth {
				s.headerDone = true
			}
		case token.LBRACE:
			s := z.push(false)
			if z.pendingFn != nil {
				s.owner = z.pendingFn
				for _, p := range z.pendingParams {
					s.names[p.Name] = p
					s.decls = append(s.decls, p)
				}
				z.pendingFn, z.pendingParams = nil, nil
			}
		case token.RBRACE:
			if len(z.scopes) == 1 {
				continue
			}
			closed := z.pop(posOf(t))
			if closed.owner != nil {
				closed.owner.End = posOf(t)
			}
			z.closeForLoops(posOf(t))
		case token.SEMICOLON:
			z.endDecls(posOf(t))
			if s := z.top(); s.forLoop && s.headerDone && z.parens == s.parenDepth {
				z.pop(posOf(t))
				z.closeForLoops(posOf(t))
			}
		case token.IDENT:
			pos := posOf(t)
			z.a.Refs = append(z.a.Refs, Ref{
				Name: t.Literal,
				Pos:  pos,
				Decl: z.resolve(t.Literal),
				Call: z.tok(i+1).Type == token.LPAREN,
			})
		}
	}

	end := z.a.index.end()
	z.endDecls(end)
	for len(z.scopes) > 0 {
		z.pop(end)
	}
}

// closeForLoops ends for-loop scopes whose body just finished.
func (z *analyzer) closeForLoops(at Pos) {
	for len(z.scopes) > 1 {
		s := z.top()
		if !s.forLoop || !s.headerDone {
			return
		}
		z.pop(at)
	}
}

func (z *analyzer) endDecls(at Pos) {
	for _, d := range z.pendingEnds {
		d.End = at
	}
	z.pendingEnds = z.pendingEnds[:0]
}

// DeclAt returns the declaration named or referenced at p.
func (a *Analysis) DeclAt(p Pos) *Decl {
	for _, d := range a.Decls {
		if covers(d.Pos, len(d.Name), p) {
			return d
		}
	}
	for _, r := range a.Refs {
		if covers(r.Pos, len(r.Name), p) {
			return r.Decl
		}
	}
	return nil
}

// References lists every use of d, excluding the declaration itself.
func (a *Analysis) References(d *Decl) []Ref {
	var out []Ref
	for _, r := range a.Refs {
		if r.Decl == d && r.Pos != d.Pos {
			out = append(out, r)
		}
	}
	return out
}

func covers(start Pos, length int, p Pos) bool {
	return p.Line == start.Line && p.Col >= start.Col && p.Col < start.Col+length
}
