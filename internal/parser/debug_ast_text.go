package parser

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"tasklang/internal/ast"
)

// RenderASTAsText produces an indented, source-like rendering of the AST.
// Every operator node is parenthesised so precedence and grouping are visible.
func RenderASTAsText(node ast.Node, indent int) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return "nil"
	}

	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Program:
		var sb strings.Builder
		for i, s := range n.Body {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(renderLine(s, 0))
		}
		return sb.String()

	case *ast.VarDeclaration:
		vars := make([]string, len(n.Variables))
		for i, v := range n.Variables {
			always := ""
			if v.Constant {
				always = " always"
			}
			vars[i] = fmt.Sprintf("%s%s to %s", v.Identifier.Symbol, always, RenderASTAsText(v.Value, indent))
		}
		return "set " + strings.Join(vars, ", ")

	case *ast.TaskDeclaration:
		return fmt.Sprintf("task %s(%s) %s", n.Name, strings.Join(n.Params, ", "), renderBlock(n.Body, indent))

	case *ast.IfStmt:
		res := fmt.Sprintf("if %s then %s", RenderASTAsText(n.Condition, 0), renderBlock(n.ThenBranch, indent))
		if len(n.ElseBranch) > 0 {
			res += " else " + renderBlock(n.ElseBranch, indent)
		}
		return res

	case *ast.ForFromStmt:
		return fmt.Sprintf("for %s %s %s", n.Identifier.Symbol, renderStepping(n.From, n.To, n.By), renderBlock(n.Body, indent))

	case *ast.ForInStmt:
		return fmt.Sprintf("for %s in %s %s", n.Identifier.Symbol, RenderASTAsText(n.Iterable, 0), renderBlock(n.Body, indent))

	case *ast.FromStmt:
		return renderStepping(n.From, n.To, n.By) + " " + renderBlock(n.Body, indent)

	case *ast.AssignmentExpr:
		return fmt.Sprintf("change %s to %s", RenderASTAsText(n.Assignee, 0), RenderASTAsText(n.Value, indent))

	case *ast.CallExpr:
		args := []string{}
		for _, a := range n.Args {
			args = append(args, RenderASTAsText(a, 0))
		}
		return fmt.Sprintf("%s(%s)", RenderASTAsText(n.Caller, 0), strings.Join(args, ", "))

	case *ast.ListCallExpr:
		return fmt.Sprintf("%s[%s]", RenderASTAsText(n.Caller, 0), RenderASTAsText(n.Index, 0))

	case *ast.LogicalExpr:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator, RenderASTAsText(n.Right, 0))
	case *ast.ConditionalExpr:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator, RenderASTAsText(n.Right, 0))
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", RenderASTAsText(n.Left, 0), n.Operator, RenderASTAsText(n.Right, 0))
	case *ast.RangeExpr:
		return fmt.Sprintf("(%s..%s)", RenderASTAsText(n.From, 0), RenderASTAsText(n.To, 0))
	case *ast.UnaryExpr:
		return fmt.Sprintf("(%s %s)", n.Operator, RenderASTAsText(n.Value, 0))

	case *ast.Identifier:
		return n.Symbol
	case *ast.NumericLiteral:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", n.Value)

	case *ast.ListExpr:
		elems := []string{}
		for _, e := range n.Values {
			elems = append(elems, RenderASTAsText(e, 0))
		}
		return "[" + strings.Join(elems, ", ") + "]"

	default:
		return fmt.Sprintf("%s<unknown:%T>", sp, n)
	}
}

// renderLine is a statement on its own line; it carries the indentation.
func renderLine(stmt ast.Statement, indent int) string {
	return strings.Repeat("  ", indent) + RenderASTAsText(stmt, indent)
}

func renderBlock(body []ast.Statement, indent int) string {
	if len(body) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range body {
		sb.WriteString(renderLine(s, indent+1))
		sb.WriteString("\n")
	}
	// closing brace aligns with the owning statement
	sb.WriteString(strings.Repeat("  ", indent) + "}")
	return sb.String()
}

func renderStepping(from, to, by ast.Expression) string {
	return fmt.Sprintf("from %s to %s by %s", RenderASTAsText(from, 0), RenderASTAsText(to, 0), RenderASTAsText(by, 0))
}
