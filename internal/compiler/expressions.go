package compiler

import (
	"strconv"

	"plume/internal/code"
	"plume/internal/object"
	"plume/internal/token"
)

type Precedence int

const (
	precNone Precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

func (c *Compiler) registerRules() {
	c.rules = map[token.Type]parseRule{
		token.LPAREN: {c.grouping, c.call, precCall},
		token.MINUS:  {c.unary, c.binary, precTerm},
		token.PLUS:   {nil, c.binary, precTerm},
		token.SLASH:  {nil, c.binary, precFactor},
		token.STAR:   {nil, c.binary, precFactor},
		token.BANG:   {c.unary, nil, precNone},
		token.NE:     {nil, c.binary, precEquality},
		token.EQ:     {nil, c.binary, precEquality},
		token.GT:     {nil, c.binary, precComparison},
		token.GE:     {nil, c.binary, precComparison},
		token.LT:     {nil, c.binary, precComparison},
		token.LE:     {nil, c.binary, precComparison},
		token.IDENT:  {c.variable, nil, precNone},
		token.STRING: {c.string, nil, precNone},
		token.NUMBER: {c.number, nil, precNone},
		token.AND:    {nil, c.and, precAnd},
		token.OR:     {nil, c.or, precOr},
		token.FALSE:  {c.literal, nil, precNone},
		token.NIL:    {c.literal, nil, precNone},
		token.TRUE:   {c.literal, nil, precNone},
	}
}

func (c *Compiler) getRule(t token.Type) parseRule {
	return c.rules[t]
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := c.getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(canAssign)

	for prec <= c.getRule(c.current.Type).precedence {
		c.advance()
		c.getRule(c.previous.Type).infix(canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) grouping(bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) number(bool) {
	f, err := strconv.ParseFloat(c.previous.Literal, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(object.NumberVal(f))
}

func (c *Compiler) string(bool) {
	lit := c.previous.Literal
	s := c.internString(lit[1 : len(lit)-1])
	c.emitConstant(object.ObjVal(s))
}

func (c *Compiler) literal(bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emit(code.OpFalse)
	case token.NIL:
		c.emit(code.OpNil)
	case token.TRUE:
		c.emit(code.OpTrue)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp code.Opcode
	arg, constant, isLocal := c.resolveLocal(name.Literal)
	if isLocal {
		getOp, setOp = code.OpGetLocal, code.OpSetLocal
	} else {
		arg = c.identifierConstant(name.Literal)
		getOp, setOp = code.OpGetGlobal, code.OpSetGlobal
	}

	if canAssign && c.match(token.ASSIGN) {
		if constant {
			c.error("Can't assign to constant variable.")
		}
		c.expression()
		c.emit(setOp, arg)
		return
	}
	c.emit(getOp, arg)
}

func (c *Compiler) unary(bool) {
	op := c.previous.Type
	c.parsePrecedence(precUnary)

	switch op {
	case token.BANG:
		c.emit(code.OpNot)
	case token.MINUS:
		c.emit(code.OpNegate)
	}
}

func (c *Compiler) binary(bool) {
	op := c.previous.Type
	rule := c.getRule(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.NE:
		c.emit(code.OpEqual)
		c.emit(code.OpNot)
	case token.EQ:
		c.emit(code.OpEqual)
	case token.GT:
		c.emit(code.OpGreater)
	case token.GE:
		c.emit(code.OpLess)
		c.emit(code.OpNot)
	case token.LT:
		c.emit(code.OpLess)
	case token.LE:
		c.emit(code.OpGreater)
		c.emit(code.OpNot)
	case token.PLUS:
		c.emit(code.OpAdd)
	case token.MINUS:
		c.emit(code.OpSubtract)
	case token.STAR:
		c.emit(code.OpMultiply)
	case token.SLASH:
		c.emit(code.OpDivide)
	}
}

func (c *Compiler) and(bool) {
	endJump := c.emitJump(code.OpJumpIfFalse)
	c.emit(code.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(bool) {
	elseJump := c.emitJump(code.OpJumpIfFalse)
	endJump := c.emitJump(code.OpJump)

	c.patchJump(elseJump)
	c.emit(code.OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(bool) {
	argc := c.argumentList()
	c.emit(code.OpCall, argc)
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == maxArity {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return argc
}
