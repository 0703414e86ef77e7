package ast

import (
	"bytes"
	"strconv"
	"strings"
	"tasklang/internal/token"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement is anything that may appear in a program or block body.
type Statement interface {
	Node
	statementNode()
}

// Expression nodes are also valid statements: a bare expression is evaluated
// for its value.
type Expression interface {
	Statement
	expressionNode()
}

type Program struct {
	Body []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Body) > 0 {
		return p.Body[0].TokenLiteral()
	} else {
		return ""
	}
}

func (p *Program) String() string {
	parts := make([]string, len(p.Body))
	for i, s := range p.Body {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

// Variable is one `name [always] to value` clause of a `set` statement.
type Variable struct {
	Identifier *Identifier
	Constant   bool
	Value      Statement
}

type VarDeclaration struct {
	Token     token.Token // the 'set' token
	Variables []*Variable
}

func (vd *VarDeclaration) statementNode()       {}
func (vd *VarDeclaration) TokenLiteral() string { return vd.Token.Literal }
func (vd *VarDeclaration) String() string {
	var out bytes.Buffer

	out.WriteString("set ")
	for i, v := range vd.Variables {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(v.Identifier.String())
		if v.Constant {
			out.WriteString(" always")
		}
		out.WriteString(" to ")
		out.WriteString(v.Value.String())
	}

	return out.String()
}

type TaskDeclaration struct {
	Token  token.Token // the 'task' token
	Name   string
	Params []string
	Body   []Statement
}

func (td *TaskDeclaration) statementNode()       {}
func (td *TaskDeclaration) TokenLiteral() string { return td.Token.Literal }
func (td *TaskDeclaration) String() string {
	var out bytes.Buffer

	out.WriteString("task ")
	out.WriteString(td.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(td.Params, ", "))
	out.WriteString(") ")
	out.WriteString(renderBody(td.Body))

	return out.String()
}

type IfStmt struct {
	Token      token.Token // the 'if' token
	Condition  Expression
	ThenBranch []Statement
	ElseBranch []Statement
}

func (is *IfStmt) statementNode()       {}
func (is *IfStmt) TokenLiteral() string { return is.Token.Literal }
func (is *IfStmt) String() string {
	var out bytes.Buffer

	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	out.WriteString(" then ")
	out.WriteString(renderBody(is.ThenBranch))

	if len(is.ElseBranch) > 0 {
		out.WriteString(" else ")
		out.WriteString(renderBody(is.ElseBranch))
	}

	return out.String()
}

type ForFromStmt struct {
	Token      token.Token // the 'for' token
	Identifier *Identifier
	From       Expression
	To         Expression
	By         Expression
	Body       []Statement
}

func (fs *ForFromStmt) statementNode()       {}
func (fs *ForFromStmt) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForFromStmt) String() string {
	var out bytes.Buffer

	out.WriteString("for ")
	out.WriteString(fs.Identifier.String())
	out.WriteString(" ")
	out.WriteString(renderStepping(fs.From, fs.To, fs.By))
	out.WriteString(" ")
	out.WriteString(renderBody(fs.Body))

	return out.String()
}

type ForInStmt struct {
	Token      token.Token // the 'for' token
	Identifier *Identifier
	Iterable   Expression
	Body       []Statement
}

func (fs *ForInStmt) statementNode()       {}
func (fs *ForInStmt) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForInStmt) String() string {
	var out bytes.Buffer

	out.WriteString("for ")
	out.WriteString(fs.Identifier.String())
	out.WriteString(" in ")
	out.WriteString(fs.Iterable.String())
	out.WriteString(" ")
	out.WriteString(renderBody(fs.Body))

	return out.String()
}

// FromStmt is the unbound repeat loop: `from a to b [by c] { ... }`.
type FromStmt struct {
	Token token.Token // the 'from' token
	From  Expression
	To    Expression
	By    Expression
	Body  []Statement
}

func (fs *FromStmt) statementNode()       {}
func (fs *FromStmt) TokenLiteral() string { return fs.Token.Literal }
func (fs *FromStmt) String() string {
	return renderStepping(fs.From, fs.To, fs.By) + " " + renderBody(fs.Body)
}

type Identifier struct {
	Token  token.Token // the token.IDENT token
	Symbol string
}

func (i *Identifier) statementNode()       {}
func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Symbol }

type NumericLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumericLiteral) statementNode()       {}
func (nl *NumericLiteral) expressionNode()      {}
func (nl *NumericLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumericLiteral) String() string {
	return strconv.FormatFloat(nl.Value, 'f', -1, 64)
}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) statementNode()       {}
func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

type ListExpr struct {
	Token  token.Token // the '[' token
	Values []Statement
}

func (le *ListExpr) statementNode()       {}
func (le *ListExpr) expressionNode()      {}
func (le *ListExpr) TokenLiteral() string { return le.Token.Literal }
func (le *ListExpr) String() string {
	values := make([]string, len(le.Values))
	for i, v := range le.Values {
		values[i] = v.String()
	}
	return "[" + strings.Join(values, ", ") + "]"
}

// ListCallExpr indexes a list or string: caller[index].
type ListCallExpr struct {
	Token  token.Token // the '[' token
	Caller Expression
	Index  Expression
}

func (lc *ListCallExpr) statementNode()       {}
func (lc *ListCallExpr) expressionNode()      {}
func (lc *ListCallExpr) TokenLiteral() string { return lc.Token.Literal }
func (lc *ListCallExpr) String() string {
	return lc.Caller.String() + "[" + lc.Index.String() + "]"
}

type CallExpr struct {
	Token  token.Token // the '(' token
	Caller Expression
	Args   []Expression
}

func (ce *CallExpr) statementNode()       {}
func (ce *CallExpr) expressionNode()      {}
func (ce *CallExpr) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpr) String() string {
	var out bytes.Buffer

	args := []string{}
	for _, a := range ce.Args {
		args = append(args, a.String())
	}

	out.WriteString(ce.Caller.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")

	return out.String()
}

type AssignmentExpr struct {
	Token    token.Token // the 'to' or '=' token
	Assignee Expression
	Value    Statement
}

func (ae *AssignmentExpr) statementNode()       {}
func (ae *AssignmentExpr) expressionNode()      {}
func (ae *AssignmentExpr) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignmentExpr) String() string {
	return "(change " + ae.Assignee.String() + " to " + ae.Value.String() + ")"
}

type LogicalExpr struct {
	Token    token.Token // the 'and' / 'or' token
	Left     Expression
	Operator string
	Right    Expression
}

func (le *LogicalExpr) statementNode()       {}
func (le *LogicalExpr) expressionNode()      {}
func (le *LogicalExpr) TokenLiteral() string { return le.Token.Literal }
func (le *LogicalExpr) String() string       { return infix(le.Left, le.Operator, le.Right) }

// ConditionalExpr is a single relational comparison.
type ConditionalExpr struct {
	Token    token.Token // the operator token, e.g. <
	Left     Expression
	Operator string
	Right    Expression
}

func (ce *ConditionalExpr) statementNode()       {}
func (ce *ConditionalExpr) expressionNode()      {}
func (ce *ConditionalExpr) TokenLiteral() string { return ce.Token.Literal }
func (ce *ConditionalExpr) String() string       { return infix(ce.Left, ce.Operator, ce.Right) }

type BinaryExpr struct {
	Token    token.Token // the operator token, e.g. plus
	Left     Expression
	Operator string
	Right    Expression
}

func (be *BinaryExpr) statementNode()       {}
func (be *BinaryExpr) expressionNode()      {}
func (be *BinaryExpr) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpr) String() string       { return infix(be.Left, be.Operator, be.Right) }

type RangeExpr struct {
	Token token.Token // the '..' token
	From  Expression
	To    Expression
}

func (re *RangeExpr) statementNode()       {}
func (re *RangeExpr) expressionNode()      {}
func (re *RangeExpr) TokenLiteral() string { return re.Token.Literal }
func (re *RangeExpr) String() string       { return infix(re.From, "..", re.To) }

type UnaryExpr struct {
	Token    token.Token // the prefix operator token
	Operator string
	Value    Expression
}

func (ue *UnaryExpr) statementNode()       {}
func (ue *UnaryExpr) expressionNode()      {}
func (ue *UnaryExpr) TokenLiteral() string { return ue.Token.Literal }
func (ue *UnaryExpr) String() string {
	sep := ""
	if len(ue.Operator) > 1 {
		sep = " "
	}
	return "(" + ue.Operator + sep + ue.Value.String() + ")"
}

func infix(left Node, operator string, right Node) string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(left.String())
	out.WriteString(" " + operator + " ")
	out.WriteString(right.String())
	out.WriteString(")")

	return out.String()
}

func renderBody(body []Statement) string {
	if len(body) == 0 {
		return "{}"
	}
	parts := make([]string, len(body))
	for i, s := range body {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func renderStepping(from, to, by Expression) string {
	out := "from " + from.String() + " to " + to.String()
	if by != nil {
		out += " by " + by.String()
	}
	return out
}
