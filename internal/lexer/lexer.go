package lexer

import (
	"fmt"
	"tasklang/internal/token"
	"unicode"
	"unicode/utf8"
)

// LexError reports source text that cannot be turned into a token.
type LexError struct {
	Message string
	Token   token.Token // ILLEGAL token covering the offending text
}

func (e *LexError) Error() string { return e.Message }

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Tokenize scans the whole source. The returned slice always ends with an
// EOF token unless an error is returned.
func Tokenize(source string) ([]token.Token, error) {
	l := New(source)
	tokens := make([]token.Token, 0, len(source)/3+1)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()

	startPosition := l.position

	if l.atEOF() {
		return token.Token{Type: token.EOF, Literal: "", Position: startPosition}, nil
	}

	var tok token.Token
	switch l.ch {
	case '.':
		if l.peekChar() != '.' {
			return tok, l.errorf(startPosition, ".", "invalid token: .")
		}
		l.readChar()
		tok = token.Token{Type: token.DOTDOT, Literal: "..", Position: startPosition}
	case ',':
		tok = newToken(token.COMMA, l.ch, startPosition)
	case '(':
		tok = newToken(token.LPAREN, l.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, l.ch, startPosition)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, startPosition)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, startPosition)
	case '{':
		tok = newToken(token.LBRACE, l.ch, startPosition)
	case '}':
		tok = newToken(token.RBRACE, l.ch, startPosition)
	case '=', '<', '>', '!':
		var err error
		tok, err = l.readComparison()
		if err != nil {
			return tok, err
		}
	case '+', '-', '*', '/', '%':
		tok = newToken(token.BINARY_OPERATOR, l.ch, startPosition)
	case '"':
		return l.readString()
	default:
		if isDigit(l.ch) {
			return l.readNumber()
		}
		if isLetter(l.ch) {
			literal := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(literal), Literal: literal, Position: startPosition}, nil
		}
		return tok, l.errorf(startPosition, string(l.ch),
			"unrecognized character found in source: %q (%d)", l.ch, l.ch)
	}

	l.readChar()
	return tok, nil
}

// readComparison handles the `=`, `<`, `>`, `!` family with longest match.
// It leaves the lexer on the last rune of the token.
func (l *Lexer) readComparison() (token.Token, error) {
	startPosition := l.position
	first := l.ch
	if l.peekChar() == '=' {
		l.readChar()
		return token.Token{
			Type:     token.RELATIONAL_OPERATOR,
			Literal:  string(first) + "=",
			Position: startPosition,
		}, nil
	}
	switch first {
	case '=':
		return newToken(token.EQUALS, first, startPosition), nil
	case '!':
		return token.Token{}, l.errorf(startPosition, "!", "invalid token: !")
	default:
		return newToken(token.RELATIONAL_OPERATOR, first, startPosition), nil
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '#':
			l.skipLine()
		default:
			return
		}
	}
}

// skipLine consumes a comment up to and including its line terminator.
func (l *Lexer) skipLine() {
	for !l.atEOF() && l.ch != '\r' && l.ch != '\n' {
		l.readChar()
	}
	l.readChar()
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// readIdentifier returns the substring (bytes) covering the identifier runes
func (l *Lexer) readIdentifier() string {
	start := l.position
	for !l.atEOF() && isLetter(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber accepts digits with at most one decimal point. A point that is
// the first half of `..` ends the number so ranges like 0..10 split cleanly.
func (l *Lexer) readNumber() (token.Token, error) {
	start := l.position
	dots := 0
	for !l.atEOF() && (isDigit(l.ch) || l.ch == '.') {
		l.readChar()
		if l.ch == '.' {
			if l.peekChar() == '.' {
				break
			}
			dots++
		}
	}
	literal := l.input[start:l.position]
	if dots > 1 {
		return token.Token{}, l.errorf(start, literal, "invalid number literal: %s", literal)
	}
	return token.Token{Type: token.NUMBER, Literal: literal, Position: start}, nil
}

// readString consumes a double quoted literal; there are no escape sequences.
func (l *Lexer) readString() (token.Token, error) {
	start := l.position
	l.readChar() // consume opening "
	contentStart := l.position
	for !l.atEOF() && l.ch != '"' {
		l.readChar()
	}
	if l.atEOF() {
		content := l.input[contentStart:]
		return token.Token{}, l.errorf(start, `"`+content,
			"invalid string literal: %q - missing closing \"", content)
	}
	content := l.input[contentStart:l.position]
	l.readChar() // consume closing "
	return token.Token{Type: token.STRING, Literal: content, Position: start}, nil
}

func (l *Lexer) errorf(position int, literal string, format string, args ...any) *LexError {
	return &LexError{
		Message: fmt.Sprintf(format, args...),
		Token:   token.Token{Type: token.ILLEGAL, Literal: literal, Position: position},
	}
}

// Unicode-aware helpers
func isLetter(ch rune) bool {
	return unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
