package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"tasklang/internal/evaluator"
	"tasklang/internal/hostio"
	"tasklang/internal/lexer"
	"tasklang/internal/object"
	"tasklang/internal/parser"
	"tasklang/internal/runner"
	"tasklang/internal/token"

	"github.com/peterh/liner"
)

const (
	PROMPT      = ">> "
	CONTINUE    = ".. "
	historyFile = ".tasklang_history"
)

const banner = `tasklang REPL
Ctrl+C cancels input, Ctrl+D exits.
  :ast     Toggle printing the parsed AST of each input
  :quit    Exit the REPL`

// LineReader is the part of *liner.State the loop needs.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type Repl struct {
	in      LineReader
	out     io.Writer
	runner  *runner.Runner
	showAST bool
	history func(string)
}

// New builds a REPL whose inputs share one root environment. Script output
// goes through host; values and errors are written to out.
func New(in LineReader, out io.Writer, host hostio.IO, strict bool) *Repl {
	return &Repl{
		in:  in,
		out: out,
		runner: &runner.Runner{
			Name:   "repl",
			IO:     host,
			Strict: strict,
			Env:    evaluator.NewRootEnvironment(),
		},
	}
}

// Start runs an interactive session on the terminal with line editing and a
// history file in the user's home directory.
func Start(ctx context.Context, strict bool) error {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		if _, ok := <-sigc; ok {
			ln.Close()
			os.Exit(130)
		}
	}()

	r := New(ln, os.Stdout, hostio.NewLinerTerminal(os.Stdout, ln), strict)
	r.history = ln.AppendHistory
	ln.SetCompleter(r.complete)

	return r.Run(ctx)
}

// Run reads inputs until end of input or :quit.
func (r *Repl) Run(ctx context.Context) error {
	for {
		code, ok := r.read()
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return nil
			case ":ast":
				r.showAST = !r.showAST
				fmt.Fprintf(r.out, "AST printing %s\n", onOff(r.showAST))
			default:
				fmt.Fprintln(r.out, "unknown command. Type :quit to exit.")
			}
			continue
		}

		if r.history != nil {
			r.history(strings.ReplaceAll(code, "\n", " "))
		}
		r.eval(ctx, code)
	}
}

func (r *Repl) eval(ctx context.Context, code string) {
	program, err := r.runner.Parse(code)
	if err != nil {
		r.printError(code, err)
		return
	}
	if r.showAST {
		fmt.Fprintln(r.out, parser.RenderASTAsText(program, 0))
	}

	result, err := r.runner.ExecProgram(ctx, program)
	if err != nil {
		slog.Debug("repl input failed", slog.Any("error", err))
		r.printError(code, err)
		return
	}
	if result != nil && result != object.NULL {
		fmt.Fprintln(r.out, result.Inspect())
	}
}

func (r *Repl) printError(code string, err error) {
	fmt.Fprintln(r.out, strings.TrimRight(runner.FormatError(code, err), "\n"))
}

// read collects lines until they form a complete program or a definite
// error. ok is false at end of input.
func (r *Repl) read() (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE
		}
		line, err := r.in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, err := parser.ParseSource(src); err != nil && incomplete(err) {
			continue
		}
		return src, true
	}
}

// incomplete reports whether err could go away with more input: the parser
// ran out of tokens, or a string literal is still open.
func incomplete(err error) bool {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Token.Type == token.EOF
	}
	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		return strings.HasPrefix(lexErr.Token.Literal, `"`)
	}
	return false
}

// complete offers the names in scope that extend the last word of line.
func (r *Repl) complete(line string) []string {
	start := len(line)
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	var matches []string
	for _, name := range r.runner.Env.Names() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, line[:start]+name)
		}
	}
	return matches
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
