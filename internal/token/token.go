package token

type Type string

type Token struct {
	Type Type
	// Literal is the lexeme as written (strings keep their quotes). For ERROR
	// tokens it holds the diagnostic message instead.
	Literal string
	Line    int
	Col     int
}

const (
	// Special
	ERROR Type = "ERROR"
	EOF   Type = "EOF"

	// Identifiers + literals
	IDENT  Type = "IDENT"
	NUMBER Type = "NUMBER"
	STRING Type = "STRING"

	// Keywords
	AND     Type = "AND"
	CLASS   Type = "CLASS"
	CON     Type = "CON"
	ELSE    Type = "ELSE"
	FALSE   Type = "FALSE"
	FOR     Type = "FOR"
	FUN     Type = "FUN"
	IF      Type = "IF"
	NIL     Type = "NIL"
	OR      Type = "OR"
	PRINT   Type = "PRINT"
	RETURN  Type = "RETURN"
	SUPER   Type = "SUPER"
	THIS    Type = "THIS"
	TRUE    Type = "TRUE"
	VAR     Type = "VAR"
	WHILE   Type = "WHILE"
	SWITCH  Type = "SWITCH"
	CASE    Type = "CASE"
	DEFAULT Type = "DEFAULT"

	// Operators
	BANG   Type = "!"
	ASSIGN Type = "="
	PLUS   Type = "+"
	MINUS  Type = "-"
	STAR   Type = "*"
	SLASH  Type = "/"

	EQ Type = "=="
	NE Type = "!="
	LT Type = "<"
	LE Type = "<="
	GT Type = ">"
	GE Type = ">="

	// Delimiters
	SEMICOLON Type = ";"
	COMMA     Type = ","
	COLON     Type = ":"
	DOT       Type = "."
	LPAREN    Type = "("
	RPAREN    Type = ")"
	LBRACE    Type = "{"
	RBRACE    Type = "}"
)

var keywords = map[string]Type{
	"and":     AND,
	"class":   CLASS,
	"con":     CON,
	"else":    ELSE,
	"false":   FALSE,
	"for":     FOR,
	"fun":     FUN,
	"if":      IF,
	"nil":     NIL,
	"or":      OR,
	"print":   PRINT,
	"return":  RETURN,
	"super":   SUPER,
	"this":    THIS,
	"true":    TRUE,
	"var":     VAR,
	"while":   WHILE,
	"switch":  SWITCH,
	"case":    CASE,
	"default": DEFAULT,
}

func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

func IsKeyword(t Type) bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}
