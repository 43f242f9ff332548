package lexer

import (
	"plume/internal/token"
)

type Lexer struct {
	input string

	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination

	line int // 1-based
	col  int // 1-based column of current char
}

func New(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0, // readChar() will advance to col=1 for first char
	}
	l.readChar()
	return l
}

// NextToken scans one token. Once the input is exhausted it keeps returning
// EOF.
func (l *Lexer) NextToken() token.Token {
	for {
		l.skipWhitespace()

		if l.ch == '/' && l.peekChar() == '/' {
			l.skipLineComment()
			continue
		}
		break
	}

	if l.atEnd() {
		return l.newToken(token.EOF, "", l.line, l.col)
	}

	startLine, startCol := l.line, l.col
	startIdx := l.position

	switch l.ch {
	case '(':
		return l.single(token.LPAREN, startLine, startCol)
	case ')':
		return l.single(token.RPAREN, startLine, startCol)
	case '{':
		return l.single(token.LBRACE, startLine, startCol)
	case '}':
		return l.single(token.RBRACE, startLine, startCol)
	case ';':
		return l.single(token.SEMICOLON, startLine, startCol)
	case ',':
		return l.single(token.COMMA, startLine, startCol)
	case ':':
		return l.single(token.COLON, startLine, startCol)
	case '.':
		return l.single(token.DOT, startLine, startCol)
	case '-':
		return l.single(token.MINUS, startLine, startCol)
	case '+':
		return l.single(token.PLUS, startLine, startCol)
	case '/':
		// // comments were handled above
		return l.single(token.SLASH, startLine, startCol)
	case '*':
		return l.single(token.STAR, startLine, startCol)

	case '!':
		return l.oneOrTwo('=', token.NE, token.BANG, startLine, startCol)
	case '=':
		return l.oneOrTwo('=', token.EQ, token.ASSIGN, startLine, startCol)
	case '<':
		return l.oneOrTwo('=', token.LE, token.LT, startLine, startCol)
	case '>':
		return l.oneOrTwo('=', token.GE, token.GT, startLine, startCol)

	case '"':
		return l.readString(startLine, startCol, startIdx)
	}

	if isAlpha(l.ch) {
		lit := l.readIdentifier()
		return l.newToken(token.LookupIdent(lit), lit, startLine, startCol)
	}

	if isDigit(l.ch) {
		lit := l.readNumber()
		return l.newToken(token.NUMBER, lit, startLine, startCol)
	}

	l.readChar()
	return l.newToken(token.ERROR, "Unexpected character.", startLine, startCol)
}

func (l *Lexer) newToken(t token.Type, lit string, line, col int) token.Token {
	return token.Token{
		Type:    t,
		Literal: lit,
		Line:    line,
		Col:     col,
	}
}

func (l *Lexer) single(t token.Type, line, col int) token.Token {
	tok := l.newToken(t, string(l.ch), line, col)
	l.readChar()
	return tok
}

func (l *Lexer) oneOrTwo(next byte, two, one token.Type, line, col int) token.Token {
	if l.peekChar() == next {
		lit := string([]byte{l.ch, next})
		l.readChar()
		l.readChar()
		return l.newToken(two, lit, line, col)
	}
	return l.single(one, line, col)
}

func (l *Lexer) atEnd() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input)
		return
	}

	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++

	// Track line/col for current char
	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && (l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n') {
		l.readChar()
	}
}

func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.ch != '\n' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for !l.atEnd() && (isAlpha(l.ch) || isDigit(l.ch)) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for !l.atEnd() && isDigit(l.ch) {
		l.readChar()
	}
	// A '.' only belongs to the number when a digit follows it.
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for !l.atEnd() && isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readString(startLine, startCol, startIdx int) token.Token {
	l.readChar() // opening quote
	for !l.atEnd() && l.ch != '"' {
		l.readChar()
	}
	if l.atEnd() {
		return l.newToken(token.ERROR, "Unterminated string.", startLine, startCol)
	}
	l.readChar() // closing quote
	return l.newToken(token.STRING, l.input[startIdx:l.position], startLine, startCol)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
