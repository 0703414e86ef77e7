package evaluator

import (
	"fmt"
	"strings"
	"tasklang/internal/hostio"
	"tasklang/internal/object"
)

var natives = []*object.NativeTask{
	{Name: "print", Fn: nativePrint},
	{Name: "ask", Fn: nativeAsk},
}

// NewRootEnvironment returns a fresh global scope holding the constants
// null, true, false and the native tasks.
func NewRootEnvironment() *object.Environment {
	env := object.NewEnvironment()

	mustDeclare(env, "null", object.NULL)
	mustDeclare(env, "true", object.TRUE)
	mustDeclare(env, "false", object.FALSE)
	for _, native := range natives {
		mustDeclare(env, native.Name, native)
	}

	return env
}

func mustDeclare(env *object.Environment, name string, val object.Object) {
	if err := env.Declare(name, val, true); err != nil {
		panic(err)
	}
}

// nativePrint joins its arguments with single spaces, prints the line and
// returns it.
func nativePrint(args []object.Object, _ *object.Environment, io hostio.IO) (object.Object, error) {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.Inspect()
	}
	line := strings.Join(parts, " ")
	io.Print(line)
	return &object.String{Value: line}, nil
}

// nativeAsk prompts with its single string argument and returns the answer,
// or an empty string when there is none.
func nativeAsk(args []object.Object, _ *object.Environment, io hostio.IO) (object.Object, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("wrong number of arguments. got=%d, want=1", len(args))
	}
	prompt, ok := args[0].(*object.String)
	if !ok {
		return nil, fmt.Errorf("cannot ask for a non-string prompt, got %s", args[0].Type())
	}
	return &object.String{Value: io.Readline(prompt.Value)}, nil
}
