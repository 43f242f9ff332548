// Package compiler turns source text straight into bytecode in a single pass.
// Expressions are parsed with a Pratt parser; statements by recursive descent.
package compiler

import (
	"fmt"
	"io"

	"plume/internal/code"
	"plume/internal/diag"
	"plume/internal/heap"
	"plume/internal/lexer"
	"plume/internal/object"
	"plume/internal/token"
)

const (
	maxLocals = 256
	maxArity  = 255
)

type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
)

type local struct {
	name     string
	depth    int // -1 until the initializer has been compiled
	constant bool
}

// funcState is the per-function part of the compiler. Nested declarations
// push a new state linked to the enclosing one.
type funcState struct {
	enclosing  *funcState
	function   *object.Function
	kind       FunctionKind
	locals     []local
	scopeDepth int
}

type Compiler struct {
	l    *lexer.Lexer
	heap *heap.Heap

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	diags     diag.List

	fs    *funcState
	rules map[token.Type]parseRule

	listing io.Writer
}

func New(source string, h *heap.Heap) *Compiler {
	c := &Compiler{
		l:    lexer.New(source),
		heap: h,
	}
	c.registerRules()
	return c
}

// SetListing makes the compiler disassemble every function it finishes.
func (c *Compiler) SetListing(w io.Writer) {
	c.listing = w
}

// Compile parses the whole source. On failure it returns a diag.List holding
// every reported error, and no function.
func (c *Compiler) Compile() (*object.Function, error) {
	c.beginFunction(KindScript)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFunction()
	if c.hadError {
		return nil, c.diags
	}
	return fn, nil
}

// Compile is a shorthand for New(source, h).Compile().
func Compile(source string, h *heap.Heap) (*object.Function, error) {
	return New(source, h).Compile()
}

func (c *Compiler) beginFunction(kind FunctionKind) {
	fn, err := c.heap.NewFunction()
	if err != nil {
		c.error(err.Error())
		fn = &object.Function{Chunk: object.NewChunk()}
	}
	if kind != KindScript {
		fn.Name = c.internString(c.previous.Literal)
	}

	fs := &funcState{
		enclosing: c.fs,
		function:  fn,
		kind:      kind,
		locals:    make([]local, 0, 8),
	}
	// Slot 0 holds the function being called.
	fs.locals = append(fs.locals, local{name: "", depth: 0})
	c.fs = fs
}

func (c *Compiler) endFunction() *object.Function {
	c.emitReturn()
	fn := c.fs.function
	if c.listing != nil && !c.hadError {
		name := fn.DisplayName()
		if fn.Name == nil {
			name = "<script>"
		}
		DisassembleChunk(c.listing, fn.Chunk, name)
	}
	c.fs = c.fs.enclosing
	return fn
}

func (c *Compiler) chunk() *object.Chunk {
	return c.fs.function.Chunk
}

// --- token stream ---

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.l.NextToken()
		if c.current.Type != token.ERROR {
			return
		}
		c.errorAtCurrent(c.current.Literal)
	}
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) check(t token.Type) bool {
	return c.current.Type == t
}

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

// --- errors ---

func (c *Compiler) error(msg string) {
	c.errorAt(c.previous, msg)
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	d := diag.Diagnostic{
		Message:  msg,
		Severity: diag.SeverityError,
		Range:    diag.Range{Line: tok.Line, Col: tok.Col, Length: len(tok.Literal)},
	}
	switch tok.Type {
	case token.EOF:
		d.Where = " at end"
		d.Range.Length = 1
	case token.ERROR:
		d.Range.Length = 1
	default:
		d.Where = fmt.Sprintf(" at '%s'", tok.Literal)
	}
	c.diags = append(c.diags, d)
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMICOLON {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.CON, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN, token.SWITCH:
			return
		}
		c.advance()
	}
}

// --- emission ---

func (c *Compiler) emit(op code.Opcode, operands ...int) int {
	return c.chunk().Emit(code.Make(op, operands...), c.previous.Line)
}

func (c *Compiler) emitReturn() {
	c.emit(code.OpNil)
	c.emit(code.OpReturn)
}

func (c *Compiler) makeConstant(v object.Value) int {
	idx := c.chunk().AddConstant(v)
	if idx >= object.MaxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) emitConstant(v object.Value) {
	c.emit(code.OpConstant, c.makeConstant(v))
}

// emitJump writes a jump with a placeholder offset and returns its position
// for patchJump.
func (c *Compiler) emitJump(op code.Opcode) int {
	return c.emit(op, 0xffff)
}

func (c *Compiler) patchJump(opPos int) {
	// Offsets are relative to the end of the 3-byte jump instruction.
	jump := len(c.chunk().Code) - opPos - 3
	if jump > 0xffff {
		c.error("Too much code to jump over.")
		return
	}
	c.replaceOperand(opPos, jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	offset := len(c.chunk().Code) - loopStart + 3
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emit(code.OpLoop, offset)
}

func (c *Compiler) replaceOperand(opPos int, operand int) {
	ins := c.chunk().Code
	op := code.Opcode(ins[opPos])
	copy(ins[opPos:], code.Make(op, operand))
}

func (c *Compiler) internString(s string) *object.String {
	str, err := c.heap.CopyString(s)
	if err != nil {
		c.error(err.Error())
		return &object.String{Chars: s, Hash: object.HashString(s)}
	}
	return str
}

// --- scopes and variables ---

func (c *Compiler) beginScope() {
	c.fs.scopeDepth++
}

func (c *Compiler) endScope() {
	fs := c.fs
	fs.scopeDepth--

	n := 0
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		fs.locals = fs.locals[:len(fs.locals)-1]
		n++
	}
	switch {
	case n == 1:
		c.emit(code.OpPop)
	case n > 1:
		c.emit(code.OpPopN, n)
	}
}

func (c *Compiler) identifierConstant(name string) int {
	return c.makeConstant(object.ObjVal(c.internString(name)))
}

func (c *Compiler) addLocal(name string, constant bool) {
	if len(c.fs.locals) == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fs.locals = append(c.fs.locals, local{name: name, depth: -1, constant: constant})
}

func (c *Compiler) declareVariable(constant bool) {
	fs := c.fs
	if fs.scopeDepth == 0 {
		return
	}

	name := c.previous.Literal
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name, constant)
}

// parseVariable consumes a declared name and returns its global name constant,
// or 0 for locals.
func (c *Compiler) parseVariable(msg string, constant bool) int {
	c.consume(token.IDENT, msg)
	c.declareVariable(constant)
	if c.fs.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Literal)
}

func (c *Compiler) markInitialized() {
	fs := c.fs
	if fs.scopeDepth == 0 {
		return
	}
	fs.locals[len(fs.locals)-1].depth = fs.scopeDepth
}

func (c *Compiler) defineVariable(global int) {
	if c.fs.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emit(code.OpDefineGlobal, global)
}

// resolveLocal finds name among the current function's locals. A local still
// inside its own initializer resolves like any other.
func (c *Compiler) resolveLocal(name string) (slot int, constant bool, ok bool) {
	locals := c.fs.locals
	for i := len(locals) - 1; i >= 0; i-- {
		if locals[i].name == name {
			return i, locals[i].constant, true
		}
	}
	return 0, false, false
}
