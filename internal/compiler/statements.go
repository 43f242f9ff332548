package compiler

import (
	"plume/internal/code"
	"plume/internal/object"
	"plume/internal/token"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	case c.match(token.CON):
		c.conDeclaration()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.", false)
	// Initialized before the body so the function can call itself.
	c.markInitialized()
	c.function(KindFunction)
	c.defineVariable(global)
}

func (c *Compiler) function(kind FunctionKind) {
	c.beginFunction(kind)
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			c.fs.function.Arity++
			if c.fs.function.Arity > maxArity {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := c.parseVariable("Expect parameter name.", false)
			c.defineVariable(param)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")
	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	// No endScope: OpReturn discards the whole frame.
	fn := c.endFunction()
	c.emitConstant(object.ObjVal(fn))
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.", false)

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emit(code.OpNil)
	}
	c.consume(token.SEMICOLON, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *Compiler) conDeclaration() {
	global := c.parseVariable("Expect constant name.", true)

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.errorAtCurrent("Constant must be initialized.")
	}
	c.consume(token.SEMICOLON, "Expect ';' after constant declaration.")

	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.SWITCH):
		c.switchStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after value.")
	c.emit(code.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after expression.")
	c.emit(code.OpPop)
}

func (c *Compiler) returnStatement() {
	if c.fs.kind == KindScript {
		c.error("Can't return from top-level code.")
	}

	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.SEMICOLON, "Expect ';' after return value.")
	c.emit(code.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(code.OpJumpIfFalse)
	c.emit(code.OpPop)
	c.statement()

	elseJump := c.emitJump(code.OpJump)
	c.patchJump(thenJump)
	c.emit(code.OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(code.OpJumpIfFalse)
	c.emit(code.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emit(code.OpPop)
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMICOLON):
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "Expect ';' after loop condition.")

		exitJump = c.emitJump(code.OpJumpIfFalse)
		c.emit(code.OpPop)
	}

	if !c.match(token.RPAREN) {
		// The increment runs after the body: jump over it now, loop back to
		// it from the end of the body.
		bodyJump := c.emitJump(code.OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emit(code.OpPop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emit(code.OpPop)
	}
	c.endScope()
}

// switchStatement keeps the selector in a hidden local of its own scope.
// Each case compares with OpJumpIfUnequal, which consumes the case value and
// leaves the selector in place. Cases never fall through.
func (c *Compiler) switchStatement() {
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after 'switch'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after value.")
	c.addLocal("", false)
	c.markInitialized()

	c.consume(token.LBRACE, "Expect '{' before switch cases.")

	var endJumps []int
	for c.match(token.CASE) {
		c.expression()
		c.consume(token.COLON, "Expect ':' after case value.")

		nextCase := c.emitJump(code.OpJumpIfUnequal)
		for !c.check(token.CASE) && !c.check(token.DEFAULT) &&
			!c.check(token.RBRACE) && !c.check(token.EOF) {
			c.statement()
		}
		endJumps = append(endJumps, c.emitJump(code.OpJump))
		c.patchJump(nextCase)
	}

	if c.match(token.DEFAULT) {
		c.consume(token.COLON, "Expect ':' after 'default'.")
		for !c.check(token.RBRACE) && !c.check(token.EOF) {
			if c.check(token.CASE) {
				c.errorAtCurrent("Can't have a case after the default case.")
				c.advance()
				continue
			}
			c.statement()
		}
	}

	c.consume(token.RBRACE, "Expect '}' after switch cases.")
	for _, j := range endJumps {
		c.patchJump(j)
	}

	c.endScope()
}
