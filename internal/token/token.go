package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // x, total, greet
	NUMBER = "NUMBER" // 42, 3.14
	STRING = "STRING" // "hello"

	// Operators
	BINARY_OPERATOR     = "BINARY_OPERATOR"     // + - * / % plus minus times divide modulo
	RELATIONAL_OPERATOR = "RELATIONAL_OPERATOR" // == != < > <= >=
	EQUALS              = "="
	DOTDOT              = ".."

	// Delimiters
	COMMA = ","

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	SET    = "SET"
	TO     = "TO"
	ALWAYS = "ALWAYS"
	CHANGE = "CHANGE"
	AND    = "AND"
	OR     = "OR"
	TASK   = "TASK"
	IF     = "IF"
	THEN   = "THEN"
	ELSE   = "ELSE"
	FOR    = "FOR"
	FROM   = "FROM"
	IN     = "IN"
	BY     = "BY"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

var keywords = map[string]TokenType{
	// declarations
	"set":    SET,
	"to":     TO,
	"always": ALWAYS,
	"change": CHANGE,
	"task":   TASK,

	// logic
	"and": AND,
	"or":  OR,

	// flow control
	"if":   IF,
	"then": THEN,
	"else": ELSE,
	"for":  FOR,
	"from": FROM,
	"in":   IN,
	"by":   BY,
}

// operatorWords are spelled-out arithmetic operators; they lex as
// BINARY_OPERATOR tokens and keep their word as the literal.
var operatorWords = map[string]bool{
	"plus":   true,
	"minus":  true,
	"times":  true,
	"divide": true,
	"modulo": true,
}

func LookupIdent(ident string) TokenType {
	if operatorWords[ident] {
		return BINARY_OPERATOR
	}
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Operator spellings grouped by the operation they denote.
const (
	OpPlus   = "plus"
	OpMinus  = "minus"
	OpTimes  = "times"
	OpDivide = "divide"
	OpModulo = "modulo"
)

// Canonical maps symbolic and word spellings onto the word form so the
// evaluator only has to switch on one name per operation.
func Canonical(op string) string {
	switch op {
	case "+", OpPlus:
		return OpPlus
	case "-", OpMinus:
		return OpMinus
	case "*", OpTimes:
		return OpTimes
	case "/", OpDivide:
		return OpDivide
	case "%", OpModulo:
		return OpModulo
	}
	return op
}

func IsAdditive(op string) bool {
	c := Canonical(op)
	return c == OpPlus || c == OpMinus
}

func IsMultiplicative(op string) bool {
	c := Canonical(op)
	return c == OpTimes || c == OpDivide || c == OpModulo
}
