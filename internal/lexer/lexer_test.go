package lexer

import (
	"testing"

	"plume/internal/token"
)

func TestLexer_TourProgram(t *testing.T) {
	input := `fun add(a, b) {
  return a + b;
}

var x = add(2, 3);
if (x >= 3) print "big"; else print "small";

con limit = 1.5;
while (x != 0) { x = x - 1; }`

	tests := []struct {
		typ token.Type
		lit string
	}{
		{token.FUN, "fun"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},

		{token.RETURN, "return"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},

		{token.VAR, "var"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.NUMBER, "2"},
		{token.COMMA, ","},
		{token.NUMBER, "3"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},

		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.GE, ">="},
		{token.NUMBER, "3"},
		{token.RPAREN, ")"},
		{token.PRINT, "print"},
		{token.STRING, `"big"`},
		{token.SEMICOLON, ";"},
		{token.ELSE, "else"},
		{token.PRINT, "print"},
		{token.STRING, `"small"`},
		{token.SEMICOLON, ";"},

		{token.CON, "con"},
		{token.IDENT, "limit"},
		{token.ASSIGN, "="},
		{token.NUMBER, "1.5"},
		{token.SEMICOLON, ";"},

		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.NE, "!="},
		{token.NUMBER, "0"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.MINUS, "-"},
		{token.NUMBER, "1"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.typ {
			t.Fatalf("tests[%d] - wrong type. expected=%q got=%q (lit=%q line=%d col=%d)",
				i, tt.typ, tok.Type, tok.Literal, tok.Line, tok.Col)
		}
		if tok.Literal != tt.lit {
			t.Fatalf("tests[%d] - wrong literal. expected=%q got=%q", i, tt.lit, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := "and class con else false for fun if nil or print return super this true var while switch case default android"
	want := []token.Type{
		token.AND, token.CLASS, token.CON, token.ELSE, token.FALSE, token.FOR, token.FUN,
		token.IF, token.NIL, token.OR, token.PRINT, token.RETURN, token.SUPER, token.THIS,
		token.TRUE, token.VAR, token.WHILE, token.SWITCH, token.CASE, token.DEFAULT,
		token.IDENT, token.EOF,
	}
	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("i=%d expected=%q got=%q (%q)", i, tt, tok.Type, tok.Literal)
		}
	}
}

func TestComments(t *testing.T) {
	input := "\n" +
		"x = 1 // comment\n" +
		"// whole line\n" +
		"y / 2\n"
	l := New(input)
	types := []token.Type{
		token.IDENT, token.ASSIGN, token.NUMBER,
		token.IDENT, token.SLASH, token.NUMBER,
		token.EOF,
	}

	for i, tt := range types {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("i=%d expected=%q got=%q (%q)", i, tt, tok.Type, tok.Literal)
		}
	}
}

func TestNumberTrailingDot(t *testing.T) {
	l := New("12. 3.25 7.x")
	want := []struct {
		typ token.Type
		lit string
	}{
		{token.NUMBER, "12"},
		{token.DOT, "."},
		{token.NUMBER, "3.25"},
		{token.NUMBER, "7"},
		{token.DOT, "."},
		{token.IDENT, "x"},
		{token.EOF, ""},
	}
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt.typ || tok.Literal != tt.lit {
			t.Fatalf("i=%d expected=%q %q got=%q %q", i, tt.typ, tt.lit, tok.Type, tok.Literal)
		}
	}
}

func TestMultiLineStringCountsLines(t *testing.T) {
	l := New("\"line1\nline2\" after")

	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "\"line1\nline2\"" {
		t.Fatalf("unexpected string token: %q %q", tok.Type, tok.Literal)
	}
	if tok.Line != 1 {
		t.Fatalf("string should start on line 1, got %d", tok.Line)
	}

	tok = l.NextToken()
	if tok.Type != token.IDENT || tok.Line != 2 {
		t.Fatalf("expected IDENT on line 2, got %q line %d", tok.Type, tok.Line)
	}
}

func TestErrorTokens(t *testing.T) {
	l := New("@ \"open")

	tok := l.NextToken()
	if tok.Type != token.ERROR || tok.Literal != "Unexpected character." {
		t.Fatalf("expected unexpected-character error, got %q %q", tok.Type, tok.Literal)
	}

	tok = l.NextToken()
	if tok.Type != token.ERROR || tok.Literal != "Unterminated string." {
		t.Fatalf("expected unterminated-string error, got %q %q", tok.Type, tok.Literal)
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("x")
	l.NextToken()
	for i := 0; i < 3; i++ {
		if tok := l.NextToken(); tok.Type != token.EOF {
			t.Fatalf("call %d: expected EOF, got %q", i, tok.Type)
		}
	}
}

func TestPositions(t *testing.T) {
	l := New("var a;\n  print a;")
	want := []struct {
		line, col int
	}{
		{1, 1}, {1, 5}, {1, 6},
		{2, 3}, {2, 9}, {2, 10},
	}
	for i, w := range want {
		tok := l.NextToken()
		if tok.Line != w.line || tok.Col != w.col {
			t.Fatalf("tok %d (%q): expected %d:%d got %d:%d", i, tok.Literal, w.line, w.col, tok.Line, tok.Col)
		}
	}
}
