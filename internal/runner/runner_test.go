package runner

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"tasklang/internal/evaluator"
	"tasklang/internal/hostio"
	"tasklang/internal/lexer"
	"tasklang/internal/object"
	"tasklang/internal/parser"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected []string
	}{
		{"variables", "set x to 3 print(x plus 4)", []string{"7"}},
		{"tasks", "task add(a, b) { a plus b } print(add(2, 3))", []string{"5"}},
		{"loops", "for i from 1 to 3 { print(i) }", []string{"1", "2", "3"}},
		{"indexed assignment", "set L to [1, 2, 3] change L[0] to 9 print(L)", []string{"[9, 2, 3]"}},
		{"if else", `if 5 < 3 then print("a") else print("b")`, []string{"b"}},
		{"list concat", "print([1,2] plus [3])", []string{"[1, 2, 3]"}},
		{"comments", "# nothing to see\nprint(1) # trailing", []string{"1"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := Run(tt.source)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(output) != len(tt.expected) || (len(output) > 0 && !reflect.DeepEqual(output, tt.expected)) {
				t.Errorf("expected %q, got %q", tt.expected, output)
			}
		})
	}
}

func TestRunReturnsOutputBeforeError(t *testing.T) {
	output, err := Run(`print("before") 1 divide 0 print("after")`)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !reflect.DeepEqual(output, []string{"before"}) {
		t.Errorf("expected only the output printed before the error, got %q", output)
	}
}

func TestRunSurfacesEachErrorKind(t *testing.T) {
	var lexErr *lexer.LexError
	if _, err := Run("set x to 1 ; 2"); !errors.As(err, &lexErr) {
		t.Errorf("expected *lexer.LexError, got %T: %v", err, err)
	}

	var parseErr *parser.ParseError
	if _, err := Run("set x to"); !errors.As(err, &parseErr) {
		t.Errorf("expected *parser.ParseError, got %T: %v", err, err)
	}

	var rtErr *object.RuntimeError
	if _, err := Run("print(y)"); !errors.As(err, &rtErr) {
		t.Errorf("expected *object.RuntimeError, got %T: %v", err, err)
	}
}

func TestRunnerWithSharedEnvironment(t *testing.T) {
	buf := hostio.NewBuffer()
	r := &Runner{Name: "session", IO: buf, Env: evaluator.NewRootEnvironment()}

	if _, err := r.Exec(context.Background(), "set count to 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := r.Exec(context.Background(), "change count to count plus 1 count")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inspect() != "2" {
		t.Errorf("expected declarations to persist, got %s", result.Inspect())
	}

	fresh := &Runner{IO: buf}
	if _, err := fresh.Exec(context.Background(), "count"); !errors.Is(err, object.ErrUndefined) {
		t.Errorf("a runner without Env should start from scratch, got %v", err)
	}
}

func TestRunnerStrictAndDepth(t *testing.T) {
	strict := &Runner{IO: hostio.NewBuffer(), Strict: true}
	if _, err := strict.Exec(context.Background(), `"a" minus 1`); err == nil || !strings.Contains(err.Error(), "type mismatch") {
		t.Errorf("expected type mismatch, got %v", err)
	}

	shallow := &Runner{IO: hostio.NewBuffer(), MaxDepth: 5}
	_, err := shallow.Exec(context.Background(), "task down(n) { down(n) } down(1)")
	if err == nil || !strings.Contains(err.Error(), "maximum call depth of 5") {
		t.Errorf("expected depth error, got %v", err)
	}
}

func TestRunnerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	r := &Runner{IO: hostio.NewBuffer()}
	_, err := r.Exec(ctx, "task spin(n) { for i in 1..1000 { i } spin(n) } spin(0)")
	if err == nil {
		t.Fatalf("expected the run to stop")
	}
}

func TestFormatRuntimeError(t *testing.T) {
	source := "task f() {\n  1 divide 0\n}\nf()"
	_, err := Run(source)
	if err == nil {
		t.Fatalf("expected an error")
	}

	expected := "[2:5] division by zero\n" +
		"       1 | task f() {\n" +
		"  >    2 |   1 divide 0\n" +
		strings.Repeat(" ", 15) + "^ here\n" +
		"  in task f called at [4:2]\n"
	if got := FormatError(source, err); got != expected {
		t.Errorf("unexpected rendering:\n%s\nexpected:\n%s", got, expected)
	}
}

func TestFormatParseAndLexErrors(t *testing.T) {
	tests := []struct {
		source string
		prefix string
	}{
		{"set x to 1\nset y to @", "[2:10] unrecognized character"},
		{"print(1", "[1:8] parsing arguments, missing closing parenthesis"},
		{"task f() {\n  1", "[2:4] parsing block, missing closing brace"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, err := Run(tt.source)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got := FormatError(tt.source, err); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestFormatPlainError(t *testing.T) {
	if got := FormatError("", errors.New("boom")); got != "boom" {
		t.Errorf("expected plain message, got %q", got)
	}
}
