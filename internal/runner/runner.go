package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"tasklang/internal/ast"
	"tasklang/internal/evaluator"
	"tasklang/internal/hostio"
	"tasklang/internal/lexer"
	"tasklang/internal/object"
	"tasklang/internal/parser"
	"tasklang/internal/token"
	"tasklang/internal/util"
	"time"
)

// Run evaluates source against a fresh root environment and returns every
// line printed. On failure the lines printed before the error are returned
// with it.
func Run(source string) ([]string, error) {
	buf := hostio.NewBuffer()
	r := &Runner{IO: buf}
	_, err := r.Exec(context.Background(), source)
	return buf.Output(), err
}

// Runner carries the host settings for one or more evaluations. When Env is
// nil every Exec starts from a new root environment; otherwise declarations
// accumulate in Env across calls.
type Runner struct {
	Name     string // script name used in logs
	IO       hostio.IO
	Strict   bool
	MaxDepth int
	Env      *object.Environment
}

func (r *Runner) Parse(source string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return parser.Parse(tokens)
}

func (r *Runner) Exec(ctx context.Context, source string) (object.Object, error) {
	program, err := r.Parse(source)
	if err != nil {
		return nil, err
	}
	return r.ExecProgram(ctx, program)
}

func (r *Runner) ExecProgram(ctx context.Context, program *ast.Program) (object.Object, error) {
	env := r.Env
	if env == nil {
		env = evaluator.NewRootEnvironment()
	}

	e := evaluator.New(r.IO).WithContext(ctx)
	e.Strict = r.Strict
	if r.MaxDepth > 0 {
		e.MaxDepth = r.MaxDepth
	}

	start := time.Now()
	slog.Info(" ---- begin ----",
		slog.String("script", r.Name),
		slog.Int("statements", len(program.Body)))

	result, err := e.Eval(program, env)

	slog.Info(" ---- done ----",
		slog.String("script", r.Name),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("failed", err != nil))
	return result, err
}

// FormatError renders err with the source location it points at:
//
//	[2:5] division by zero
//	       1 | task f() {
//	  >    2 |   1 divide 0
//	               ^ here
//	  in task f called at [4:2]
//
// Errors without a position are returned as their message.
func FormatError(source string, err error) string {
	var (
		message string
		tok     token.Token
		frames  []object.StackFrame
	)

	var lexErr *lexer.LexError
	var parseErr *parser.ParseError
	var rtErr *object.RuntimeError
	switch {
	case errors.As(err, &lexErr):
		message, tok = lexErr.Message, lexErr.Token
	case errors.As(err, &parseErr):
		message, tok = parseErr.Message, parseErr.Token
	case errors.As(err, &rtErr):
		message, tok, frames = rtErr.Message, rtErr.Token, rtErr.Frames
	default:
		return err.Error()
	}

	var out bytes.Buffer
	line, col := util.GetLineAndColumn(source, tok.Position)
	out.WriteString(fmt.Sprintf("[%d:%d] %s\n", line, col, message))

	if lines := util.GetContextLines(source, line, col); lines != "" {
		out.WriteString(lines)
		out.WriteString("\n")
	}

	for _, frame := range frames {
		fl, fc := util.GetLineAndColumn(source, frame.Position)
		out.WriteString(fmt.Sprintf("  in task %s called at [%d:%d]\n", frame.Task, fl, fc))
	}

	return out.String()
}
