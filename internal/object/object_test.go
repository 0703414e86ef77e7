package object

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{NULL, "null"},
		{TRUE, "true"},
		{FALSE, "false"},
		{&Number{Value: 3}, "3"},
		{&String{Value: "hi there"}, "hi there"},
		{&List{Elements: []Object{}}, "[]"},
		{&List{Elements: []Object{
			&Number{Value: 1},
			&String{Value: "a"},
			&List{Elements: []Object{TRUE, NULL}},
		}}, "[1, a, [true, null]]"},
		{&Task{Name: "add", Params: []string{"a", "b"}}, "task add(a, b)"},
		{&NativeTask{Name: "print"}, "native task print"},
	}

	for _, tt := range tests {
		if got := tt.obj.Inspect(); got != tt.expected {
			t.Errorf("%T: expected %q, got %q", tt.obj, tt.expected, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{42, "42"},
		{-7, "-7"},
		{3.14, "3.14"},
		{0.1 + 0.2, "0.30000000000000004"},
		{1.0 / 3.0, "0.3333333333333333"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1.5e22, "1.5e+22"},
		{0.000001, "0.000001"},
		{1.5e-7, "1.5e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.value); got != tt.expected {
			t.Errorf("FormatNumber(%v): expected %q, got %q", tt.value, tt.expected, got)
		}
	}
}

func TestNativeBoolToBooleanObject(t *testing.T) {
	if NativeBoolToBooleanObject(true) != TRUE || NativeBoolToBooleanObject(false) != FALSE {
		t.Errorf("expected the shared boolean singletons")
	}
}

func TestEnvironmentDeclareAndLookup(t *testing.T) {
	env := NewEnvironment()
	if err := env.Declare("x", &Number{Value: 1}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val, err := env.Lookup("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val.Inspect() != "1" {
		t.Errorf("expected 1, got %s", val.Inspect())
	}

	err = env.Declare("x", &Number{Value: 2}, false)
	if !errors.Is(err, ErrAlreadyDeclared) {
		t.Errorf("expected ErrAlreadyDeclared, got %v", err)
	}

	_, err = env.Lookup("y")
	if !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}
}

func TestEnvironmentShadowingAndAssignment(t *testing.T) {
	outer := NewEnvironment()
	_ = outer.Declare("x", &Number{Value: 1}, false)
	_ = outer.Declare("y", &Number{Value: 10}, false)

	inner := NewEnclosedEnvironment(outer)
	if err := inner.Declare("x", &Number{Value: 2}, false); err != nil {
		t.Fatalf("shadowing an outer name should be allowed: %v", err)
	}

	if err := inner.Assign("y", &Number{Value: 11}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	y, _ := outer.Lookup("y")
	if y.Inspect() != "11" {
		t.Errorf("assignment should reach the declaring scope, got y=%s", y.Inspect())
	}

	x, _ := outer.Lookup("x")
	if x.Inspect() != "1" {
		t.Errorf("shadowed outer binding changed: x=%s", x.Inspect())
	}

	resolved, err := inner.Resolve("y")
	if err != nil || resolved != outer {
		t.Errorf("expected y to resolve to the outer env, got %v, %v", resolved, err)
	}

	if err := inner.Assign("nope", NULL); !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}
}

func TestEnvironmentConstants(t *testing.T) {
	outer := NewEnvironment()
	_ = outer.Declare("PI", &Number{Value: 3.14}, true)
	inner := NewEnclosedEnvironment(outer)

	if err := inner.Assign("PI", &Number{Value: 3}); !errors.Is(err, ErrConstant) {
		t.Errorf("expected ErrConstant, got %v", err)
	}
	if !outer.IsConstant("PI") {
		t.Errorf("expected PI to be constant")
	}

	pi, _ := inner.Lookup("PI")
	if pi.Inspect() != "3.14" {
		t.Errorf("constant changed: %s", pi.Inspect())
	}
}

func TestEnvironmentNames(t *testing.T) {
	outer := NewEnvironment()
	_ = outer.Declare("b", NULL, false)
	_ = outer.Declare("a", NULL, false)
	inner := NewEnclosedEnvironment(outer)
	_ = inner.Declare("c", NULL, false)
	_ = inner.Declare("a", NULL, false)

	expected := []string{"a", "b", "c"}
	if got := inner.Names(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}
