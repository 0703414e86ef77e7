package object

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"tasklang/internal/ast"
	"tasklang/internal/hostio"
)

const (
	NULL_OBJ        = "NULL"
	BOOLEAN_OBJ     = "BOOLEAN"
	NUMBER_OBJ      = "NUMBER"
	STRING_OBJ      = "STRING"
	LIST_OBJ        = "LIST"
	TASK_OBJ        = "TASK"
	NATIVE_TASK_OBJ = "NATIVE_TASK"
)

var (
	NULL  = &Null{}
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
)

type ObjectType string

// Object is a runtime value. Inspect renders the value the way print shows it.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// NativeFunction is the signature of host-implemented tasks. env is the
// environment of the call site.
type NativeFunction func(args []Object, env *Environment, io hostio.IO) (Object, error)

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return FormatNumber(n.Value) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// List has reference semantics: every holder of the pointer sees in-place
// changes.
type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string {
	var out bytes.Buffer

	elements := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		elements[i] = e.Inspect()
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")

	return out.String()
}

// Task is a user-defined callable. Env is the environment the declaration
// was evaluated in; each call runs in a fresh child of it.
type Task struct {
	Name   string
	Params []string
	Body   []ast.Statement
	Env    *Environment
}

func (t *Task) Type() ObjectType { return TASK_OBJ }
func (t *Task) Inspect() string {
	return "task " + t.Name + "(" + strings.Join(t.Params, ", ") + ")"
}

type NativeTask struct {
	Name string
	Fn   NativeFunction
}

func (nt *NativeTask) Type() ObjectType { return NATIVE_TASK_OBJ }
func (nt *NativeTask) Inspect() string  { return "native task " + nt.Name }

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// FormatNumber prints a float the way a JavaScript engine would: integral
// values without a fraction, the shortest round-tripping digits otherwise,
// and exponent notation outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exponent, _ := strings.Cut(s, "e")
	sign := exponent[:1]
	digits := strings.TrimLeft(exponent[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

