package parser

import (
	"errors"
	"strings"
	"tasklang/internal/ast"
	"tasklang/internal/lexer"
	"tasklang/internal/token"
	"testing"
)

func parseOrFail(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, err := ParseSource(input)
	if err != nil {
		t.Fatalf("ParseSource(%q) returned error: %v", input, err)
	}
	return program
}

func TestOperatorPrecedenceParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 minus 2 minus 3", "(1 minus (2 minus 3))"},
		{"1 - 2 - 3", "(1 - (2 - 3))"},
		{"1 plus 2 times 3", "(1 plus (2 times 3))"},
		{"2 times 3 plus 1", "((2 times 3) plus 1)"},
		{"8 divide 4 divide 2", "((8 divide 4) divide 2)"},
		{"7 % 4 * 2", "((7 % 4) * 2)"},
		{"a and b or c", "(a and (b or c))"},
		{"a or b and c or d", "(a or (b and (c or d)))"},
		{"a < b", "(a < b)"},
		{"a < b < c", "((a < b) and (b < c))"},
		{"a < b < c < d", "(((a < b) and (b < c)) and (c < d))"},
		{"1 plus 1 == 2", "(1 plus (1 == 2))"},
		{"-x", "(-x)"},
		{"minus 5", "(minus 5)"},
		{"- - 5", "(-(-5))"},
		{"0..10", "(0 .. 10)"},
		{"-3..3", "((-3) .. 3)"},
		{"(1 plus 2) times 3", "((1 plus 2) times 3)"},
		{"f(1)(2)", "f(1)(2)"},
		{"add(1, 2 times 3)", "add(1, (2 times 3))"},
		{"xs[0]", "xs[0]"},
		{`"abc"[-1]`, `"abc"[(-1)]`},
		{"[1, 2, 3][[0, 2]]", "[1, 2, 3][[0, 2]]"},
		{"[1 2 3]", "[1, 2, 3]"},
		{"[]", "[]"},
		{`print([1, 2] plus [3])`, "print(([1, 2] plus [3]))"},
		{`"a" plus "b"`, `("a" plus "b")`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseOrFail(t, tt.input)
			if len(program.Body) != 1 {
				t.Fatalf("expected 1 statement, got %d: %s", len(program.Body), program.String())
			}
			if got := program.String(); got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}
		})
	}
}

func TestStatementParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"set x to 5", "set x to 5"},
		{"set x = 5", "set x to 5"},
		{"set PI always to 3.14", "set PI always to 3.14"},
		{"set a always = 1, b to a plus 1", "set a always to 1, b to (a plus 1)"},
		{"set a to set b to 1", "set a to set b to 1"},
		{"change x to x plus 1", "(change x to (x plus 1))"},
		{"x = 3", "(change x to 3)"},
		{"change xs[0] to 9", "(change xs[0] to 9)"},
		{"task add(a, b) { a plus b }", "task add(a, b) { (a plus b) }"},
		{"task nothing() {}", "task nothing() {}"},
		{`if x < 1 then print("a") else print("b")`, `if (x < 1) then { print("a") } else { print("b") }`},
		{"if ok { a b }", "if ok then { a; b }"},
		{"if a { x } else if b { y } else { z }", "if a then { x } else { if b then { y } else { z } }"},
		{"for i from 0 to 10 by 2 { print(i) }", "for i from 0 to 10 by 2 { print(i) }"},
		{"for i from 1 to 3 i", "for i from 1 to 3 by 1 { i }"},
		{"for i from n to 1 by 1 plus 1 { i }", "for i from n to 1 by (1 plus 1) { i }"},
		{"for x in 0..3 { x }", "for x in (0 .. 3) { x }"},
		{"for x in xs { x }", "for x in xs { x }"},
		{`from 1 to 3 { print("hi") }`, `from 1 to 3 by 1 { print("hi") }`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseOrFail(t, tt.input)
			if len(program.Body) != 1 {
				t.Fatalf("expected 1 statement, got %d: %s", len(program.Body), program.String())
			}
			if got := program.String(); got != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, got)
			}
		})
	}
}

func TestProgramWithSeveralStatements(t *testing.T) {
	input := `
set count to 0
task bump(n) {
	change count to count plus n
}
bump(2)
print(count)
`
	program := parseOrFail(t, input)
	if len(program.Body) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(program.Body))
	}
	if _, ok := program.Body[0].(*ast.VarDeclaration); !ok {
		t.Errorf("statement 0: expected *ast.VarDeclaration, got %T", program.Body[0])
	}
	task, ok := program.Body[1].(*ast.TaskDeclaration)
	if !ok {
		t.Fatalf("statement 1: expected *ast.TaskDeclaration, got %T", program.Body[1])
	}
	if task.Name != "bump" || len(task.Params) != 1 || task.Params[0] != "n" {
		t.Errorf("unexpected task header: %s", task.String())
	}
	if _, ok := program.Body[2].(*ast.CallExpr); !ok {
		t.Errorf("statement 2: expected *ast.CallExpr, got %T", program.Body[2])
	}
}

func TestRelationalChainSharesMiddleOperand(t *testing.T) {
	program := parseOrFail(t, "a < f(b) <= c")

	logical, ok := program.Body[0].(*ast.LogicalExpr)
	if !ok {
		t.Fatalf("expected *ast.LogicalExpr, got %T", program.Body[0])
	}
	if logical.Operator != "and" {
		t.Errorf("expected synthesized 'and', got %q", logical.Operator)
	}
	left := logical.Left.(*ast.ConditionalExpr)
	right := logical.Right.(*ast.ConditionalExpr)
	if left.Right != right.Left {
		t.Errorf("expected both comparisons to reference the same middle node")
	}
	if left.Operator != "<" || right.Operator != "<=" {
		t.Errorf("operators wrong: %q, %q", left.Operator, right.Operator)
	}
}

func TestDefaultStepIsOne(t *testing.T) {
	program := parseOrFail(t, "from 1 to 5 { x }")
	loop, ok := program.Body[0].(*ast.FromStmt)
	if !ok {
		t.Fatalf("expected *ast.FromStmt, got %T", program.Body[0])
	}
	by, ok := loop.By.(*ast.NumericLiteral)
	if !ok {
		t.Fatalf("expected *ast.NumericLiteral step, got %T", loop.By)
	}
	if by.Value != 1 {
		t.Errorf("expected step 1, got %v", by.Value)
	}
}

func TestNumericLiteralValues(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"5", 5},
		{"3.25", 3.25},
		{"3.", 3},
		{"007", 7},
	}
	for _, tt := range tests {
		program := parseOrFail(t, tt.input)
		lit, ok := program.Body[0].(*ast.NumericLiteral)
		if !ok {
			t.Fatalf("%q: expected *ast.NumericLiteral, got %T", tt.input, program.Body[0])
		}
		if lit.Value != tt.expected {
			t.Errorf("%q: expected %v, got %v", tt.input, tt.expected, lit.Value)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		position int
		message  string
	}{
		{"declaration without name", "set 5 to 1", 4, "expected identifier name"},
		{"declaration without to", "set x 5", 6, "expected 'to' or '='"},
		{"non identifier parameter", "task f(1) {}", 7, "expected identifier in parameters"},
		{"task without block", "task f(x) x", 10, "parsing block"},
		{"missing closing paren", "(1 plus 2", 9, "missing closing parenthesis"},
		{"unterminated list", "[1, 2", 5, "expected closing bracket"},
		{"missing closing brace", "if x { y", 8, "missing closing brace"},
		{"for without from or in", "for i to 3 {}", 6, "expected 'from' or 'in'"},
		{"for without identifier", "for 1 from 1 to 2 {}", 4, "parsing for loop"},
		{"loop without to", "from 1 by 2 {}", 7, "parsing loop bounds"},
		{"stray closing paren", ")", 0, "unexpected token"},
		{"stray brace", "{ x }", 0, "unexpected token"},
		{"dangling operator", "1 plus", 6, "unexpected token"},
		{"unclosed index", "xs[1", 4, "missing closing bracket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSource(tt.input)
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if parseErr.Token.Position != tt.position {
				t.Errorf("expected error at %d, got %d (%s)", tt.position, parseErr.Token.Position, parseErr.Message)
			}
			if !strings.Contains(parseErr.Message, tt.message) {
				t.Errorf("expected message containing %q, got %q", tt.message, parseErr.Message)
			}
		})
	}
}

func TestParseSourceSurfacesLexErrors(t *testing.T) {
	_, err := ParseSource(`print("oops)`)
	var lexErr *lexer.LexError
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected *lexer.LexError, got %T: %v", err, err)
	}
}

func TestParseEmptyTokenStream(t *testing.T) {
	program, err := Parse([]token.Token{{Type: token.EOF}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(program.Body) != 0 {
		t.Errorf("expected empty program, got %d statements", len(program.Body))
	}
}

func TestRenderASTAsText(t *testing.T) {
	program := parseOrFail(t, "task f(a) { if a { print(a) } }\nf(1 plus 2)")
	expected := "task f(a) {\n  if a then {\n    print(a)\n  }\n}\nf((1 plus 2))"
	if got := RenderASTAsText(program, 0); got != expected {
		t.Errorf("expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestRenderASTAsJSON(t *testing.T) {
	program := parseOrFail(t, "set x always to 1 < 2")
	out, err := RenderASTAsJSON(program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"type": "Program"`, `"type": "VarDeclaration"`, `"constant": true`, `"type": "ConditionalExpr"`, `"operator": "<"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON to contain %s, got:\n%s", want, out)
		}
	}
}
