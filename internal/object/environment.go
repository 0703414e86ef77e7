package object

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
)

var (
	ErrAlreadyDeclared = errors.New("already declared")
	ErrUndefined       = errors.New("not defined")
	ErrConstant        = errors.New("value is constant")
)

var nextID atomic.Uint64

// Environment is one lexical scope. Lookups and assignments walk Outer until
// the name is found; declarations always land in the receiver.
type Environment struct {
	ID        uint64
	Outer     *Environment
	variables map[string]Object
	constants map[string]bool
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:        nextID.Add(1),
		variables: make(map[string]Object),
		constants: make(map[string]bool),
	}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	slog.Debug("new env", slog.Uint64("id", env.ID), slog.Uint64("outer", outer.ID))
	return env
}

// Declare binds name in this scope. A name can be declared once per scope;
// shadowing a name from an outer scope is allowed.
func (e *Environment) Declare(name string, val Object, constant bool) error {
	if _, exists := e.variables[name]; exists {
		return fmt.Errorf("cannot declare %q: %w in this scope", name, ErrAlreadyDeclared)
	}

	e.variables[name] = val
	if constant {
		e.constants[name] = true
	}

	slog.Debug("declare",
		slog.Uint64("env", e.ID),
		slog.String("name", name),
		slog.Any("type", val.Type()),
		slog.Bool("constant", constant))
	return nil
}

// Assign replaces the value of an existing binding in the nearest scope
// that declares it.
func (e *Environment) Assign(name string, val Object) error {
	env, err := e.Resolve(name)
	if err != nil {
		return fmt.Errorf("cannot assign to %q: %w", name, err)
	}
	if env.constants[name] {
		return fmt.Errorf("cannot assign to %q: %w", name, ErrConstant)
	}

	env.variables[name] = val

	slog.Debug("assign",
		slog.Uint64("env", env.ID),
		slog.String("name", name),
		slog.Any("type", val.Type()))
	return nil
}

func (e *Environment) Lookup(name string) (Object, error) {
	env, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	return env.variables[name], nil
}

// Resolve returns the nearest environment declaring name.
func (e *Environment) Resolve(name string) (*Environment, error) {
	for env := e; env != nil; env = env.Outer {
		if _, ok := env.variables[name]; ok {
			return env, nil
		}
	}
	return nil, fmt.Errorf("variable %q is %w", name, ErrUndefined)
}

func (e *Environment) IsConstant(name string) bool {
	return e.constants[name]
}

// Names lists every name visible from this scope, sorted.
func (e *Environment) Names() []string {
	seen := map[string]bool{}
	for env := e; env != nil; env = env.Outer {
		for name := range env.variables {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
