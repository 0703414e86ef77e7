// Package hostio holds the collaborators a running program uses to talk to
// the outside world: printing lines and asking the user for input.
package hostio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/peterh/liner"
)

// IO is what the natives see. Implementations decide where text goes.
type IO interface {
	Print(text string)
	Readline(prompt string) string
}

// Buffer collects printed lines in memory. Readline serves queued input
// first and echoes the prompt back once the queue is empty.
type Buffer struct {
	mu     sync.Mutex
	output []string
	input  []string
}

func NewBuffer(input ...string) *Buffer {
	return &Buffer{input: append([]string(nil), input...)}
}

func (b *Buffer) Print(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.output = append(b.output, text)
}

func (b *Buffer) Readline(prompt string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.input) == 0 {
		return prompt
	}
	line := b.input[0]
	b.input = b.input[1:]
	return line
}

// Feed queues lines to be returned by subsequent Readline calls.
func (b *Buffer) Feed(lines ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.input = append(b.input, lines...)
}

// Output returns a copy of everything printed so far.
func (b *Buffer) Output() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.output...)
}

// Terminal prints to a writer and reads answers either through a liner
// line editor or, for piped input, a plain buffered reader.
type Terminal struct {
	out    io.Writer
	line   *liner.State
	reader *bufio.Reader
}

// NewTerminal reads answers from in. Pass a nil reader together with a liner
// state to prompt interactively instead.
func NewTerminal(out io.Writer, in io.Reader) *Terminal {
	t := &Terminal{out: out}
	if in != nil {
		t.reader = bufio.NewReader(in)
	}
	return t
}

// NewLinerTerminal shares the line editor owned by the caller (the REPL),
// so prompts and history behave the same inside and outside programs.
func NewLinerTerminal(out io.Writer, line *liner.State) *Terminal {
	return &Terminal{out: out, line: line}
}

func (t *Terminal) Print(text string) {
	fmt.Fprintln(t.out, text)
}

// Readline returns "" when no answer could be read.
func (t *Terminal) Readline(prompt string) string {
	if t.line != nil {
		answer, err := t.line.Prompt(prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, liner.ErrPromptAborted) {
				slog.Warn("failed to read answer", slog.Any("error", err))
			}
			return ""
		}
		return answer
	}

	if t.reader == nil {
		return ""
	}
	fmt.Fprint(t.out, prompt)
	answer, err := t.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		slog.Warn("failed to read answer", slog.Any("error", err))
		return ""
	}
	return strings.TrimRight(answer, "\r\n")
}
