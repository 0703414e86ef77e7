package parser

import (
	"fmt"
	"strconv"
	"tasklang/internal/ast"
	"tasklang/internal/lexer"
	"tasklang/internal/token"
)

// ParseError reports a token sequence that does not fit the grammar.
type ParseError struct {
	Message string
	Token   token.Token // the offending token
}

func (e *ParseError) Error() string { return e.Message }

// Parser drains a token slice left to right; tokens are never replayed.
type Parser struct {
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse builds a Program from a token stream produced by lexer.Tokenize.
func Parse(tokens []token.Token) (*ast.Program, error) {
	return New(tokens).ParseProgram()
}

// ParseSource lexes and parses src in one step.
func ParseSource(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{Body: []ast.Statement{}}

	for p.notEOF() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Body = append(program.Body, stmt)
	}

	return program, nil
}

// at returns the current token; past the end it keeps returning EOF.
func (p *Parser) at() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	if n := len(p.tokens); n > 0 {
		return token.Token{Type: token.EOF, Position: p.tokens[n-1].Position}
	}
	return token.Token{Type: token.EOF}
}

func (p *Parser) atType(t token.TokenType) bool {
	return p.at().Type == t
}

func (p *Parser) notEOF() bool {
	return !p.atType(token.EOF)
}

func (p *Parser) eat() token.Token {
	tok := p.at()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t token.TokenType, context string) (token.Token, error) {
	tok := p.eat()
	if tok.Type != t {
		return tok, p.errorAt(tok, "%s: expected %s, got %s", context, t, describe(tok))
	}
	return tok, nil
}

func (p *Parser) errorAt(tok token.Token, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Token: tok}
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of file"
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.at().Type {
	case token.SET:
		return p.parseVarDeclaration()
	case token.TASK:
		return p.parseTaskDeclaration()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.FROM:
		return p.parseFromStatement()
	default:
		// `change` and bare expressions both go through assignment
		return p.parseExpression()
	}
}

// parseBody accepts either a braced block or a single statement.
func (p *Parser) parseBody() ([]ast.Statement, error) {
	if p.atType(token.LBRACE) {
		return p.parseBlock()
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return []ast.Statement{stmt}, nil
}

func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(token.LBRACE, "parsing block"); err != nil {
		return nil, err
	}
	body := []ast.Statement{}
	for p.notEOF() && !p.atType(token.RBRACE) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.expect(token.RBRACE, "parsing block, missing closing brace"); err != nil {
		return nil, err
	}
	return body, nil
}

// for i from 0 to 10 [by 2] { ... }
// for x in 0..10 { ... }
func (p *Parser) parseForStatement() (ast.Statement, error) {
	forTok := p.eat()
	identTok, err := p.expect(token.IDENT, "parsing for loop")
	if err != nil {
		return nil, err
	}
	ident := &ast.Identifier{Token: identTok, Symbol: identTok.Literal}

	switch p.at().Type {
	case token.FROM:
		p.eat()
		from, to, by, err := p.parseStepping(forTok)
		if err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		return &ast.ForFromStmt{Token: forTok, Identifier: ident, From: from, To: to, By: by, Body: body}, nil

	case token.IN:
		p.eat()
		iterable, err := p.parseRangeExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		return &ast.ForInStmt{Token: forTok, Identifier: ident, Iterable: iterable, Body: body}, nil
	}

	return nil, p.errorAt(p.at(), "parsing for loop: expected 'from' or 'in', got %s", describe(p.at()))
}

// from 1 to 3 [by 1] { ... }
func (p *Parser) parseFromStatement() (ast.Statement, error) {
	fromTok := p.eat()
	from, to, by, err := p.parseStepping(fromTok)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.FromStmt{Token: fromTok, From: from, To: to, By: by, Body: body}, nil
}

// parseStepping reads `<a> to <b> [by <c>]` after the `from` keyword. A
// missing step defaults to the literal 1.
func (p *Parser) parseStepping(loopTok token.Token) (from, to, by ast.Expression, err error) {
	if from, err = p.parseAdditiveExpression(); err != nil {
		return nil, nil, nil, err
	}
	if _, err = p.expect(token.TO, "parsing loop bounds"); err != nil {
		return nil, nil, nil, err
	}
	if to, err = p.parseAdditiveExpression(); err != nil {
		return nil, nil, nil, err
	}
	by = &ast.NumericLiteral{
		Token: token.Token{Type: token.NUMBER, Literal: "1", Position: loopTok.Position},
		Value: 1,
	}
	if p.atType(token.BY) {
		p.eat()
		if by, err = p.parseAdditiveExpression(); err != nil {
			return nil, nil, nil, err
		}
	}
	return from, to, by, nil
}

// if a < b { ... }
// if a < b then ... else ...
// if a < b { ... } else if b < c { ... } else { ... }
func (p *Parser) parseIfStatement() (ast.Statement, error) {
	ifTok := p.eat()
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.atType(token.THEN) {
		p.eat()
	}
	thenBranch, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	stmt := &ast.IfStmt{
		Token:      ifTok,
		Condition:  condition,
		ThenBranch: thenBranch,
		ElseBranch: []ast.Statement{},
	}

	if !p.atType(token.ELSE) {
		return stmt, nil
	}
	p.eat()

	if p.atType(token.IF) {
		nested, err := p.parseIfStatement()
		if err != nil {
			return nil, err
		}
		stmt.ElseBranch = []ast.Statement{nested}
		return stmt, nil
	}

	if stmt.ElseBranch, err = p.parseBody(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// task name(a, b) { ... }
func (p *Parser) parseTaskDeclaration() (ast.Statement, error) {
	taskTok := p.eat()
	nameTok, err := p.expect(token.IDENT, "parsing task declaration, expected task name")
	if err != nil {
		return nil, err
	}

	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	params := make([]string, len(args))
	for i, arg := range args {
		ident, ok := arg.(*ast.Identifier)
		if !ok {
			return nil, p.errorAt(firstToken(arg),
				"parsing task declaration: expected identifier in parameters, got %s", arg.String())
		}
		params[i] = ident.Symbol
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.TaskDeclaration{Token: taskTok, Name: nameTok.Literal, Params: params, Body: body}, nil
}

// set PI to 3.14
// set PI always = 3.14, TAU always to PI times 2
func (p *Parser) parseVarDeclaration() (ast.Statement, error) {
	decl := &ast.VarDeclaration{Token: p.eat()}

	for {
		variable, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		decl.Variables = append(decl.Variables, variable)

		if !p.atType(token.COMMA) {
			return decl, nil
		}
		p.eat()
	}
}

func (p *Parser) parseVariable() (*ast.Variable, error) {
	identTok, err := p.expect(token.IDENT, "parsing variable declaration, expected identifier name")
	if err != nil {
		return nil, err
	}

	constant := p.atType(token.ALWAYS)
	if constant {
		p.eat()
	}

	if !p.atType(token.TO) && !p.atType(token.EQUALS) {
		return nil, p.errorAt(p.at(),
			"parsing variable declaration: expected 'to' or '=' following %q, got %s", identTok.Literal, describe(p.at()))
	}
	p.eat()

	value, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	return &ast.Variable{
		Identifier: &ast.Identifier{Token: identTok, Symbol: identTok.Literal},
		Constant:   constant,
		Value:      value,
	}, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignmentExpression()
}

// [change] target (to|=) statement
func (p *Parser) parseAssignmentExpression() (ast.Expression, error) {
	if p.atType(token.CHANGE) {
		p.eat()
	}

	left, err := p.parseListCallExpression()
	if err != nil {
		return nil, err
	}

	if p.atType(token.TO) || p.atType(token.EQUALS) {
		tok := p.eat()
		right, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpr{Token: tok, Assignee: left, Value: right}, nil
	}

	return left, nil
}

// parseListCallExpression parses a logical expression followed by at most
// one index: xs[0], "abc"[-1], [1, 2, 3][[0, 2]].
func (p *Parser) parseListCallExpression() (ast.Expression, error) {
	member, err := p.parseLogicalExpression()
	if err != nil {
		return nil, err
	}

	if !p.atType(token.LBRACKET) {
		return member, nil
	}

	tok := p.eat()
	index, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACKET, "parsing list index, missing closing bracket"); err != nil {
		return nil, err
	}

	return &ast.ListCallExpr{Token: tok, Caller: member, Index: index}, nil
}

func (p *Parser) parseListLiteral() (ast.Expression, error) {
	list := &ast.ListExpr{Token: p.eat(), Values: []ast.Statement{}}

	for !p.atType(token.RBRACKET) {
		if !p.notEOF() {
			return nil, p.errorAt(p.at(), "parsing list: expected closing bracket, got end of file")
		}
		value, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, value)
		if p.atType(token.COMMA) {
			p.eat()
		}
	}
	p.eat() // ]

	return list, nil
}

// a and b or c parses as a and (b or c); the right side re-enters here.
func (p *Parser) parseLogicalExpression() (ast.Expression, error) {
	left, err := p.parseConditionalExpression()
	if err != nil {
		return nil, err
	}

	for p.atType(token.AND) || p.atType(token.OR) {
		tok := p.eat()
		right, err := p.parseLogicalExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpr{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	return left, nil
}

// parseConditionalExpression desugars comparison chains:
// a < b < c < d becomes ((a < b) and (b < c)) and (c < d).
func (p *Parser) parseConditionalExpression() (ast.Expression, error) {
	left, err := p.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}

	if !p.atType(token.RELATIONAL_OPERATOR) {
		return left, nil
	}

	opTok := p.eat()
	next, err := p.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}
	left = &ast.ConditionalExpr{Token: opTok, Left: left, Operator: opTok.Literal, Right: next}

	for p.atType(token.RELATIONAL_OPERATOR) {
		opTok := p.eat()
		right, err := p.parseAdditiveExpression()
		if err != nil {
			return nil, err
		}
		comparison := &ast.ConditionalExpr{Token: opTok, Left: next, Operator: opTok.Literal, Right: right}
		left = &ast.LogicalExpr{
			Token:    token.Token{Type: token.AND, Literal: "and", Position: opTok.Position},
			Left:     left,
			Operator: "and",
			Right:    comparison,
		}
		next = right
	}

	return left, nil
}

// The right operand of plus/minus is a full expression, so
// 1 minus 2 minus 3 is 1 minus (2 minus 3).
func (p *Parser) parseAdditiveExpression() (ast.Expression, error) {
	left, err := p.parseMultiplicativeExpression()
	if err != nil {
		return nil, err
	}

	for p.atOperator(token.IsAdditive) {
		tok := p.eat()
		right, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) parseMultiplicativeExpression() (ast.Expression, error) {
	left, err := p.parseCallMemberExpression()
	if err != nil {
		return nil, err
	}

	for p.atOperator(token.IsMultiplicative) {
		tok := p.eat()
		right, err := p.parseCallMemberExpression()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: tok, Left: left, Operator: tok.Literal, Right: right}
	}

	return left, nil
}

func (p *Parser) atOperator(match func(string) bool) bool {
	tok := p.at()
	return tok.Type == token.BINARY_OPERATOR && match(tok.Literal)
}

func (p *Parser) parseCallMemberExpression() (ast.Expression, error) {
	member, err := p.parseRangeExpression()
	if err != nil {
		return nil, err
	}
	if p.atType(token.LPAREN) {
		return p.parseCallExpression(member)
	}
	return member, nil
}

// parseCallExpression handles f(a) and chained calls such as f(a)(b).
func (p *Parser) parseCallExpression(caller ast.Expression) (ast.Expression, error) {
	tok := p.at()
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	call := &ast.CallExpr{Token: tok, Caller: caller, Args: args}
	if p.atType(token.LPAREN) {
		return p.parseCallExpression(call)
	}
	return call, nil
}

func (p *Parser) parseArgs() ([]ast.Expression, error) {
	if _, err := p.expect(token.LPAREN, "parsing arguments"); err != nil {
		return nil, err
	}

	args := []ast.Expression{}
	if !p.atType(token.RPAREN) {
		for {
			arg, err := p.parseAssignmentExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.atType(token.COMMA) {
				break
			}
			p.eat()
		}
	}

	if _, err := p.expect(token.RPAREN, "parsing arguments, missing closing parenthesis"); err != nil {
		return nil, err
	}
	return args, nil
}

// 0..10
func (p *Parser) parseRangeExpression() (ast.Expression, error) {
	from, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	if !p.atType(token.DOTDOT) {
		return from, nil
	}
	tok := p.eat()
	to, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return &ast.RangeExpr{Token: tok, From: from, To: to}, nil
}

func (p *Parser) parseUnaryExpression() (ast.Expression, error) {
	if p.atOperator(token.IsAdditive) {
		tok := p.eat()
		value, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Token: tok, Operator: tok.Literal, Value: value}, nil
	}
	return p.parsePrimaryExpression()
}

func (p *Parser) parsePrimaryExpression() (ast.Expression, error) {
	tok := p.at()
	switch tok.Type {
	case token.IDENT:
		p.eat()
		return &ast.Identifier{Token: tok, Symbol: tok.Literal}, nil

	case token.NUMBER:
		p.eat()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorAt(tok, "could not parse %q as number", tok.Literal)
		}
		return &ast.NumericLiteral{Token: tok, Value: value}, nil

	case token.STRING:
		p.eat()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}, nil

	case token.LBRACKET:
		return p.parseListLiteral()

	case token.LPAREN:
		p.eat()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "parsing parenthesised expression, missing closing parenthesis"); err != nil {
			return nil, err
		}
		return value, nil
	}

	return nil, p.errorAt(tok, "unexpected token found during parsing: %s", describe(tok))
}

// firstToken returns the token the node was built from.
func firstToken(node ast.Node) token.Token {
	switch n := node.(type) {
	case *ast.Identifier:
		return n.Token
	case *ast.NumericLiteral:
		return n.Token
	case *ast.StringLiteral:
		return n.Token
	case *ast.ListExpr:
		return n.Token
	case *ast.ListCallExpr:
		return firstToken(n.Caller)
	case *ast.CallExpr:
		return firstToken(n.Caller)
	case *ast.AssignmentExpr:
		return firstToken(n.Assignee)
	case *ast.LogicalExpr:
		return firstToken(n.Left)
	case *ast.ConditionalExpr:
		return firstToken(n.Left)
	case *ast.BinaryExpr:
		return firstToken(n.Left)
	case *ast.RangeExpr:
		return firstToken(n.From)
	case *ast.UnaryExpr:
		return n.Token
	}
	return token.Token{Type: token.ILLEGAL, Literal: node.TokenLiteral()}
}
