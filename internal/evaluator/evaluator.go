package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"tasklang/internal/ast"
	"tasklang/internal/hostio"
	"tasklang/internal/object"
	"tasklang/internal/token"
)

const (
	// DefaultMaxDepth bounds nested task calls so runaway recursion ends in a
	// RuntimeError instead of exhausting the goroutine stack.
	DefaultMaxDepth = 10000

	maxRangeLength  = 1 << 24
	maxRepeatLength = 1 << 28
)

type Evaluator struct {
	IO       hostio.IO
	Strict   bool // type-mismatched operators raise errors instead of yielding null
	MaxDepth int

	ctx      context.Context
	envStack []*object.Environment // Environment stack encapsulated in an evaluator struct
	depth    int
}

func New(io hostio.IO) *Evaluator {
	if io == nil {
		io = hostio.NewBuffer()
	}
	return &Evaluator{IO: io, MaxDepth: DefaultMaxDepth, ctx: context.Background()}
}

// WithContext makes loops and task calls stop once ctx is done.
func (e *Evaluator) WithContext(ctx context.Context) *Evaluator {
	e.ctx = ctx
	return e
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	if len(e.envStack) == 0 {
		panic("Environment stack is empty")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) == 0 {
		panic("Attempted to pop from an empty environment stack")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

// Eval evaluates node with env as the current scope. The first error aborts
// evaluation and is returned as a *object.RuntimeError.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment) (object.Object, error) {
	if e.ctx == nil {
		e.ctx = context.Background()
	}
	if e.IO == nil {
		e.IO = hostio.NewBuffer()
	}
	e.PushEnv(env)
	defer e.PopEnv()
	return e.eval(node)
}

func (e *Evaluator) eval(node ast.Node) (object.Object, error) {
	switch node := node.(type) {

	// Statements
	case *ast.Program:
		return e.evalStatements(node.Body)

	case *ast.VarDeclaration:
		return e.evalVarDeclaration(node)

	case *ast.TaskDeclaration:
		return e.evalTaskDeclaration(node)

	case *ast.IfStmt:
		return e.evalIfStatement(node)

	case *ast.ForFromStmt:
		return e.evalForFromStatement(node)

	case *ast.ForInStmt:
		return e.evalForInStatement(node)

	case *ast.FromStmt:
		return e.evalFromStatement(node)

	// Expressions
	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.NumericLiteral:
		return &object.Number{Value: node.Value}, nil

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}, nil

	case *ast.ListExpr:
		return e.evalListExpression(node)

	case *ast.ListCallExpr:
		index, err := e.eval(node.Index)
		if err != nil {
			return nil, err
		}
		caller, err := e.eval(node.Caller)
		if err != nil {
			return nil, err
		}
		return e.evalIndexExpression(node.Token, caller, index)

	case *ast.CallExpr:
		return e.evalCallExpression(node)

	case *ast.AssignmentExpr:
		return e.evalAssignmentExpression(node)

	case *ast.LogicalExpr:
		return e.evalLogicalExpression(node)

	case *ast.ConditionalExpr:
		return e.evalConditionalExpression(node)

	case *ast.BinaryExpr:
		left, err := e.eval(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(node.Right)
		if err != nil {
			return nil, err
		}
		return e.evalInfixExpression(node.Token, token.Canonical(node.Operator), left, right)

	case *ast.RangeExpr:
		return e.evalRangeExpression(node)

	case *ast.UnaryExpr:
		right, err := e.eval(node.Value)
		if err != nil {
			return nil, err
		}
		return e.evalPrefixExpression(node.Token, token.Canonical(node.Operator), right)
	}

	return nil, object.NewRuntimeError(token.Token{Type: token.ILLEGAL, Literal: node.TokenLiteral()},
		"cannot evaluate %T", node)
}

// evalStatements runs body in the current environment and yields the value
// of the last statement, or null for an empty body.
func (e *Evaluator) evalStatements(body []ast.Statement) (object.Object, error) {
	var result object.Object = object.NULL
	for _, stmt := range body {
		var err error
		if result, err = e.eval(stmt); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Evaluator) evalVarDeclaration(decl *ast.VarDeclaration) (object.Object, error) {
	var last object.Object = object.NULL
	for _, v := range decl.Variables {
		val, err := e.eval(v.Value)
		if err != nil {
			return nil, err
		}
		if err := e.CurrentEnv().Declare(v.Identifier.Symbol, val, v.Constant); err != nil {
			return nil, object.WrapRuntimeError(v.Identifier.Token, err)
		}
		last = val
	}
	return last, nil
}

// evalTaskDeclaration binds the task before its body can run, so the body
// can call itself by name.
func (e *Evaluator) evalTaskDeclaration(decl *ast.TaskDeclaration) (object.Object, error) {
	task := &object.Task{
		Name:   decl.Name,
		Params: decl.Params,
		Body:   decl.Body,
		Env:    e.CurrentEnv(),
	}
	if err := e.CurrentEnv().Declare(decl.Name, task, true); err != nil {
		return nil, object.WrapRuntimeError(decl.Token, err)
	}
	return task, nil
}

func (e *Evaluator) evalIfStatement(stmt *ast.IfStmt) (object.Object, error) {
	condition, err := e.eval(stmt.Condition)
	if err != nil {
		return nil, err
	}
	b, ok := condition.(*object.Boolean)
	if !ok {
		return nil, object.NewRuntimeError(stmt.Token, "if condition must be a boolean, got %s", condition.Type())
	}

	e.PushEnv(object.NewEnclosedEnvironment(e.CurrentEnv()))
	defer e.PopEnv()

	if b.Value {
		return e.evalStatements(stmt.ThenBranch)
	}
	return e.evalStatements(stmt.ElseBranch)
}

func (e *Evaluator) evalForFromStatement(stmt *ast.ForFromStmt) (object.Object, error) {
	from, to, by, err := e.evalLoopBounds(stmt.Token, stmt.From, stmt.To, stmt.By)
	if err != nil {
		return nil, err
	}

	scope := object.NewEnclosedEnvironment(e.CurrentEnv())
	name := stmt.Identifier.Symbol
	if err := scope.Declare(name, object.NULL, false); err != nil {
		return nil, object.WrapRuntimeError(stmt.Identifier.Token, err)
	}

	e.PushEnv(scope)
	defer e.PopEnv()

	results := []object.Object{}
	err = e.step(stmt.Token, from, to, by, func(i float64) error {
		if err := scope.Assign(name, &object.Number{Value: i}); err != nil {
			return object.WrapRuntimeError(stmt.Identifier.Token, err)
		}
		return e.collect(stmt.Body, &results)
	})
	if err != nil {
		return nil, err
	}
	return &object.List{Elements: results}, nil
}

func (e *Evaluator) evalForInStatement(stmt *ast.ForInStmt) (object.Object, error) {
	iterable, err := e.eval(stmt.Iterable)
	if err != nil {
		return nil, err
	}
	list, ok := iterable.(*object.List)
	if !ok {
		return nil, object.NewRuntimeError(stmt.Token, "for-in expects a list, got %s", iterable.Type())
	}

	scope := object.NewEnclosedEnvironment(e.CurrentEnv())
	name := stmt.Identifier.Symbol
	if err := scope.Declare(name, object.NULL, false); err != nil {
		return nil, object.WrapRuntimeError(stmt.Identifier.Token, err)
	}

	e.PushEnv(scope)
	defer e.PopEnv()

	results := []object.Object{}
	for _, el := range list.Elements {
		if err := e.checkCancelled(stmt.Token); err != nil {
			return nil, err
		}
		if err := scope.Assign(name, el); err != nil {
			return nil, object.WrapRuntimeError(stmt.Identifier.Token, err)
		}
		if err := e.collect(stmt.Body, &results); err != nil {
			return nil, err
		}
	}
	return &object.List{Elements: results}, nil
}

// evalFromStatement shares one scope across all iterations, so declarations
// made by one pass are visible to the next.
func (e *Evaluator) evalFromStatement(stmt *ast.FromStmt) (object.Object, error) {
	from, to, by, err := e.evalLoopBounds(stmt.Token, stmt.From, stmt.To, stmt.By)
	if err != nil {
		return nil, err
	}

	e.PushEnv(object.NewEnclosedEnvironment(e.CurrentEnv()))
	defer e.PopEnv()

	results := []object.Object{}
	err = e.step(stmt.Token, from, to, by, func(float64) error {
		return e.collect(stmt.Body, &results)
	})
	if err != nil {
		return nil, err
	}
	return &object.List{Elements: results}, nil
}

// collect evaluates body and appends every statement's value to results.
func (e *Evaluator) collect(body []ast.Statement, results *[]object.Object) error {
	for _, s := range body {
		val, err := e.eval(s)
		if err != nil {
			return err
		}
		*results = append(*results, val)
	}
	return nil
}

// evalLoopBounds evaluates from, to and by once. The step must be a positive
// number; the loop direction comes from comparing from and to.
func (e *Evaluator) evalLoopBounds(tok token.Token, fromExpr, toExpr, byExpr ast.Expression) (from, to, by float64, err error) {
	values := make([]float64, 3)
	for i, expr := range []ast.Expression{fromExpr, toExpr, byExpr} {
		val, err := e.eval(expr)
		if err != nil {
			return 0, 0, 0, err
		}
		num, ok := val.(*object.Number)
		if !ok {
			return 0, 0, 0, object.NewRuntimeError(tok, "loop bounds must be numbers, got %s", val.Type())
		}
		values[i] = num.Value
	}
	from, to, by = values[0], values[1], values[2]
	if !(by > 0) || math.IsInf(by, 1) {
		return 0, 0, 0, object.NewRuntimeError(tok, "loop step must be a positive number, got %s", object.FormatNumber(by))
	}
	return from, to, by, nil
}

func (e *Evaluator) step(tok token.Token, from, to, by float64, body func(i float64) error) error {
	if from < to {
		for i := from; i <= to; i += by {
			if err := e.checkCancelled(tok); err != nil {
				return err
			}
			if err := body(i); err != nil {
				return err
			}
		}
		return nil
	}
	for i := from; i >= to; i -= by {
		if err := e.checkCancelled(tok); err != nil {
			return err
		}
		if err := body(i); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) checkCancelled(tok token.Token) error {
	if err := e.ctx.Err(); err != nil {
		return object.NewRuntimeError(tok, "evaluation cancelled: %v", err)
	}
	return nil
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) (object.Object, error) {
	val, err := e.CurrentEnv().Lookup(node.Symbol)
	if err != nil {
		return nil, object.WrapRuntimeError(node.Token, err)
	}
	return val, nil
}

// evalListExpression yields a fresh list on every evaluation.
func (e *Evaluator) evalListExpression(node *ast.ListExpr) (object.Object, error) {
	elements := make([]object.Object, len(node.Values))
	for i, v := range node.Values {
		val, err := e.eval(v)
		if err != nil {
			return nil, err
		}
		elements[i] = val
	}
	return &object.List{Elements: elements}, nil
}

func (e *Evaluator) evalIndexExpression(tok token.Token, caller, index object.Object) (object.Object, error) {
	switch idx := index.(type) {
	case *object.Number:
		return e.evalSingleIndex(tok, caller, idx.Value)

	case *object.List:
		positions := make([]float64, len(idx.Elements))
		for i, el := range idx.Elements {
			num, ok := el.(*object.Number)
			if !ok {
				return nil, object.NewRuntimeError(tok, "invalid index expression, expected number, got %s", el.Type())
			}
			positions[i] = num.Value
		}
		return e.evalGatherIndex(tok, caller, positions)
	}

	return nil, object.NewRuntimeError(tok, "invalid index expression, expected number or list of numbers, got %s", index.Type())
}

func (e *Evaluator) evalSingleIndex(tok token.Token, caller object.Object, position float64) (object.Object, error) {
	switch c := caller.(type) {
	case *object.List:
		i, err := resolveIndex(tok, position, len(c.Elements))
		if err != nil {
			return nil, err
		}
		return c.Elements[i], nil

	case *object.String:
		runes := []rune(c.Value)
		i, err := resolveIndex(tok, position, len(runes))
		if err != nil {
			return nil, err
		}
		return &object.String{Value: string(runes[i])}, nil
	}
	return nil, object.NewRuntimeError(tok, "cannot index into %s", caller.Type())
}

// evalGatherIndex picks several positions at once. Lists gather into a new
// list, strings into one concatenated string.
func (e *Evaluator) evalGatherIndex(tok token.Token, caller object.Object, positions []float64) (object.Object, error) {
	switch c := caller.(type) {
	case *object.List:
		gathered := make([]object.Object, 0, len(positions))
		for _, p := range positions {
			i, err := resolveIndex(tok, p, len(c.Elements))
			if err != nil {
				return nil, err
			}
			gathered = append(gathered, c.Elements[i])
		}
		return &object.List{Elements: gathered}, nil

	case *object.String:
		runes := []rune(c.Value)
		var sb strings.Builder
		for _, p := range positions {
			i, err := resolveIndex(tok, p, len(runes))
			if err != nil {
				return nil, err
			}
			sb.WriteRune(runes[i])
		}
		return &object.String{Value: sb.String()}, nil
	}
	return nil, object.NewRuntimeError(tok, "cannot index into %s", caller.Type())
}

// resolveIndex maps a possibly negative index onto [0, length).
func resolveIndex(tok token.Token, position float64, length int) (int, error) {
	if position != math.Trunc(position) {
		return 0, object.NewRuntimeError(tok, "index must be a whole number, got %s", object.FormatNumber(position))
	}
	if position < 0 {
		if -position > float64(length) {
			return 0, object.NewRuntimeError(tok, "index %s out of bounds for length %d", object.FormatNumber(position), length)
		}
		return length + int(position), nil
	}
	if position >= float64(length) {
		return 0, object.NewRuntimeError(tok, "index %s out of bounds for length %d", object.FormatNumber(position), length)
	}
	return int(position), nil
}

func (e *Evaluator) evalAssignmentExpression(node *ast.AssignmentExpr) (object.Object, error) {
	switch target := node.Assignee.(type) {
	case *ast.Identifier:
		val, err := e.eval(node.Value)
		if err != nil {
			return nil, err
		}
		if err := e.CurrentEnv().Assign(target.Symbol, val); err != nil {
			return nil, object.WrapRuntimeError(target.Token, err)
		}
		return val, nil

	case *ast.ListCallExpr:
		return e.evalIndexAssignment(node, target)
	}

	return nil, object.NewRuntimeError(node.Token, "invalid assignment target: %s", node.Assignee.String())
}

// evalIndexAssignment mutates the list in place and then rebinds it to the
// identifier it was read from, if any.
func (e *Evaluator) evalIndexAssignment(node *ast.AssignmentExpr, target *ast.ListCallExpr) (object.Object, error) {
	index, err := e.eval(target.Index)
	if err != nil {
		return nil, err
	}
	caller, err := e.eval(target.Caller)
	if err != nil {
		return nil, err
	}

	num, ok := index.(*object.Number)
	if !ok {
		return nil, object.NewRuntimeError(target.Token, "invalid index expression, expected number, got %s", index.Type())
	}
	list, ok := caller.(*object.List)
	if !ok {
		return nil, object.NewRuntimeError(target.Token, "cannot assign into %s, only lists support indexed assignment", caller.Type())
	}
	i, err := resolveIndex(target.Token, num.Value, len(list.Elements))
	if err != nil {
		return nil, err
	}

	owner, hasOwner := target.Caller.(*ast.Identifier)
	if hasOwner {
		if env, err := e.CurrentEnv().Resolve(owner.Symbol); err == nil && env.IsConstant(owner.Symbol) {
			return nil, object.WrapRuntimeError(owner.Token, fmt.Errorf("cannot assign to %q: %w", owner.Symbol, object.ErrConstant))
		}
	}

	val, err := e.eval(node.Value)
	if err != nil {
		return nil, err
	}
	list.Elements[i] = val

	if hasOwner {
		if err := e.CurrentEnv().Assign(owner.Symbol, list); err != nil {
			return nil, object.WrapRuntimeError(owner.Token, err)
		}
	}
	return list, nil
}

// evalLogicalExpression: `or` stops at a true left side, `and` always
// evaluates both sides. A non-boolean left side skips the right entirely.
func (e *Evaluator) evalLogicalExpression(node *ast.LogicalExpr) (object.Object, error) {
	left, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(*object.Boolean)
	if !ok {
		return e.typeMismatch(node.Token, "%s %s ...", left.Type(), node.Operator)
	}

	if node.Operator == "or" && lb.Value {
		return object.TRUE, nil
	}

	right, err := e.eval(node.Right)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(*object.Boolean)
	if !ok {
		return e.typeMismatch(node.Token, "%s %s %s", left.Type(), node.Operator, right.Type())
	}

	switch node.Operator {
	case "and":
		return object.NativeBoolToBooleanObject(lb.Value && rb.Value), nil
	case "or":
		return object.NativeBoolToBooleanObject(rb.Value), nil
	}
	return nil, object.NewRuntimeError(node.Token, "unknown logical operator: %s", node.Operator)
}

func (e *Evaluator) evalConditionalExpression(node *ast.ConditionalExpr) (object.Object, error) {
	left, err := e.eval(node.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(node.Right)
	if err != nil {
		return nil, err
	}

	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return e.typeMismatch(node.Token, "%s %s %s", left.Type(), node.Operator, right.Type())
	}

	switch node.Operator {
	case "==":
		return object.NativeBoolToBooleanObject(l.Value == r.Value), nil
	case "!=":
		return object.NativeBoolToBooleanObject(l.Value != r.Value), nil
	case "<":
		return object.NativeBoolToBooleanObject(l.Value < r.Value), nil
	case ">":
		return object.NativeBoolToBooleanObject(l.Value > r.Value), nil
	case "<=":
		return object.NativeBoolToBooleanObject(l.Value <= r.Value), nil
	case ">=":
		return object.NativeBoolToBooleanObject(l.Value >= r.Value), nil
	}
	return nil, object.NewRuntimeError(node.Token, "unknown relational operator: %s", node.Operator)
}

func (e *Evaluator) evalInfixExpression(tok token.Token, operator string, left, right object.Object) (object.Object, error) {
	switch l := left.(type) {
	case *object.Number:
		switch r := right.(type) {
		case *object.Number:
			return e.evalNumberInfixExpression(tok, operator, l.Value, r.Value)
		case *object.List:
			if operator == token.OpTimes {
				return e.repeatList(tok, r, l.Value)
			}
		case *object.String:
			if operator == token.OpTimes {
				return e.repeatString(tok, r, l.Value)
			}
		}

	case *object.String:
		switch r := right.(type) {
		case *object.String:
			if operator == token.OpPlus {
				return &object.String{Value: l.Value + r.Value}, nil
			}
			return nil, object.NewRuntimeError(tok, "invalid binary operator for strings: %s", operator)
		case *object.Number:
			if operator == token.OpTimes {
				return e.repeatString(tok, l, r.Value)
			}
		}

	case *object.List:
		switch r := right.(type) {
		case *object.List:
			if operator == token.OpPlus {
				elements := make([]object.Object, 0, len(l.Elements)+len(r.Elements))
				elements = append(elements, l.Elements...)
				elements = append(elements, r.Elements...)
				return &object.List{Elements: elements}, nil
			}
		case *object.Number:
			if operator == token.OpTimes {
				return e.repeatList(tok, l, r.Value)
			}
		}
	}

	return e.typeMismatch(tok, "%s %s %s", left.Type(), operator, right.Type())
}

func (e *Evaluator) evalNumberInfixExpression(tok token.Token, operator string, left, right float64) (object.Object, error) {
	switch operator {
	case token.OpPlus:
		return &object.Number{Value: left + right}, nil
	case token.OpMinus:
		return &object.Number{Value: left - right}, nil
	case token.OpTimes:
		return &object.Number{Value: left * right}, nil
	case token.OpDivide:
		if right == 0 {
			return nil, object.NewRuntimeError(tok, "division by zero")
		}
		return &object.Number{Value: left / right}, nil
	case token.OpModulo:
		return &object.Number{Value: math.Mod(left, right)}, nil
	}
	return nil, object.NewRuntimeError(tok, "unknown operator: %s", operator)
}

// repetitions truncates the count to whole iterations; negative counts
// repeat nothing.
func repetitions(count float64) float64 {
	if !(count > 0) {
		return 0
	}
	return math.Floor(count)
}

func (e *Evaluator) repeatList(tok token.Token, list *object.List, count float64) (object.Object, error) {
	n := repetitions(count)
	if len(list.Elements) == 0 || n == 0 {
		return &object.List{Elements: []object.Object{}}, nil
	}
	if n*float64(len(list.Elements)) > maxRepeatLength {
		return nil, object.NewRuntimeError(tok, "list repetition too large")
	}
	elements := make([]object.Object, 0, int(n)*len(list.Elements))
	for i := 0; i < int(n); i++ {
		elements = append(elements, list.Elements...)
	}
	return &object.List{Elements: elements}, nil
}

func (e *Evaluator) repeatString(tok token.Token, str *object.String, count float64) (object.Object, error) {
	n := repetitions(count)
	if str.Value == "" || n == 0 {
		return &object.String{Value: ""}, nil
	}
	if n*float64(len(str.Value)) > maxRepeatLength {
		return nil, object.NewRuntimeError(tok, "string repetition too large")
	}
	return &object.String{Value: strings.Repeat(str.Value, int(n))}, nil
}

func (e *Evaluator) evalPrefixExpression(tok token.Token, operator string, right object.Object) (object.Object, error) {
	num, ok := right.(*object.Number)
	if !ok {
		return e.typeMismatch(tok, "%s %s", operator, right.Type())
	}
	switch operator {
	case token.OpMinus:
		return &object.Number{Value: -num.Value}, nil
	case token.OpPlus:
		return num, nil
	}
	return nil, object.NewRuntimeError(tok, "unknown prefix operator: %s", operator)
}

func (e *Evaluator) evalRangeExpression(node *ast.RangeExpr) (object.Object, error) {
	from, err := e.eval(node.From)
	if err != nil {
		return nil, err
	}
	to, err := e.eval(node.To)
	if err != nil {
		return nil, err
	}

	f, fromOK := from.(*object.Number)
	t, toOK := to.(*object.Number)
	if !fromOK || !toOK {
		return nil, object.NewRuntimeError(node.Token, "range bounds must be numbers, got %s..%s", from.Type(), to.Type())
	}
	if math.IsInf(f.Value, 0) || math.IsInf(t.Value, 0) || math.Abs(t.Value-f.Value) >= maxRangeLength {
		return nil, object.NewRuntimeError(node.Token, "range %s..%s is too large",
			object.FormatNumber(f.Value), object.FormatNumber(t.Value))
	}

	elements := []object.Object{}
	if f.Value < t.Value {
		for i := f.Value; i <= t.Value; i++ {
			elements = append(elements, &object.Number{Value: i})
		}
	} else {
		for i := f.Value; i >= t.Value; i-- {
			elements = append(elements, &object.Number{Value: i})
		}
	}
	return &object.List{Elements: elements}, nil
}

// evalCallExpression evaluates the arguments before the callee.
func (e *Evaluator) evalCallExpression(node *ast.CallExpr) (object.Object, error) {
	args := make([]object.Object, len(node.Args))
	for i, a := range node.Args {
		val, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	callee, err := e.eval(node.Caller)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case *object.Task:
		return e.applyTask(node, fn, args)

	case *object.NativeTask:
		slog.Debug("calling native task", slog.String("name", fn.Name), slog.Int("args", len(args)))
		result, err := fn.Fn(args, e.CurrentEnv(), e.IO)
		if err != nil {
			return nil, object.WrapRuntimeError(node.Token, fmt.Errorf("%s: %w", fn.Name, err))
		}
		return result, nil
	}

	return nil, object.NewRuntimeError(node.Token, "cannot call %s: %s is not a task", node.Caller.String(), callee.Type())
}

// applyTask runs the body in a child of the task's captured environment, not
// the caller's.
func (e *Evaluator) applyTask(node *ast.CallExpr, task *object.Task, args []object.Object) (object.Object, error) {
	if len(args) != len(task.Params) {
		return nil, object.NewRuntimeError(node.Token, "task %s expects %d argument(s), got %d",
			task.Name, len(task.Params), len(args))
	}
	if e.MaxDepth > 0 && e.depth >= e.MaxDepth {
		return nil, object.NewRuntimeError(node.Token, "maximum call depth of %d exceeded in task %s", e.MaxDepth, task.Name)
	}
	if err := e.checkCancelled(node.Token); err != nil {
		return nil, err
	}

	scope := object.NewEnclosedEnvironment(task.Env)
	for i, param := range task.Params {
		if err := scope.Declare(param, args[i], false); err != nil {
			return nil, object.WrapRuntimeError(node.Token, fmt.Errorf("task %s: %w", task.Name, err))
		}
	}

	slog.Debug("calling task",
		slog.String("name", task.Name),
		slog.Int("args", len(args)),
		slog.Int("depth", e.depth+1))

	e.depth++
	e.PushEnv(scope)
	result, err := e.evalStatements(task.Body)
	e.PopEnv()
	e.depth--

	if err != nil {
		var rtErr *object.RuntimeError
		if errors.As(err, &rtErr) {
			rtErr.Unwinding(task.Name, node.Token.Position)
		}
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) typeMismatch(tok token.Token, format string, args ...interface{}) (object.Object, error) {
	if e.Strict {
		return nil, object.NewRuntimeError(tok, "type mismatch: "+format, args...)
	}
	return object.NULL, nil
}
