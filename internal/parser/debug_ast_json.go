package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"tasklang/internal/ast"
)

// WalkAST recursively traverses an AST and serializes it into a map structure
// for JSON output. Positions are byte offsets into the source.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type": "Program",
			"body": walkBody(n.Body),
		}

	case *ast.VarDeclaration:
		variables := make([]interface{}, len(n.Variables))
		for i, v := range n.Variables {
			variables[i] = map[string]interface{}{
				"type":       "Variable",
				"identifier": WalkAST(v.Identifier),
				"constant":   v.Constant,
				"value":      WalkAST(v.Value),
			}
		}
		return map[string]interface{}{
			"type":      "VarDeclaration",
			"position":  n.Token.Position,
			"token":     n.TokenLiteral(),
			"variables": variables,
		}

	case *ast.TaskDeclaration:
		return map[string]interface{}{
			"type":       "TaskDeclaration",
			"position":   n.Token.Position,
			"token":      n.TokenLiteral(),
			"name":       n.Name,
			"parameters": n.Params,
			"body":       walkBody(n.Body),
		}

	case *ast.IfStmt:
		return map[string]interface{}{
			"type":      "IfStmt",
			"position":  n.Token.Position,
			"token":     n.TokenLiteral(),
			"condition": WalkAST(n.Condition),
			"then":      walkBody(n.ThenBranch),
			"else":      walkBody(n.ElseBranch),
		}

	case *ast.ForFromStmt:
		return map[string]interface{}{
			"type":       "ForFromStmt",
			"position":   n.Token.Position,
			"token":      n.TokenLiteral(),
			"identifier": WalkAST(n.Identifier),
			"from":       WalkAST(n.From),
			"to":         WalkAST(n.To),
			"by":         WalkAST(n.By),
			"body":       walkBody(n.Body),
		}

	case *ast.ForInStmt:
		return map[string]interface{}{
			"type":       "ForInStmt",
			"position":   n.Token.Position,
			"token":      n.TokenLiteral(),
			"identifier": WalkAST(n.Identifier),
			"iterable":   WalkAST(n.Iterable),
			"body":       walkBody(n.Body),
		}

	case *ast.FromStmt:
		return map[string]interface{}{
			"type":     "FromStmt",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"from":     WalkAST(n.From),
			"to":       WalkAST(n.To),
			"by":       WalkAST(n.By),
			"body":     walkBody(n.Body),
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":     "Identifier",
			"position": n.Token.Position,
			"token":    safeTokenLiteral(n),
			"symbol":   n.Symbol,
		}

	case *ast.NumericLiteral:
		return map[string]interface{}{
			"type":     "NumericLiteral",
			"position": n.Token.Position,
			"token":    safeTokenLiteral(n),
			"value":    n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"type":     "StringLiteral",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"value":    n.Value,
		}

	case *ast.ListExpr:
		return map[string]interface{}{
			"type":     "ListExpr",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"values":   walkBody(n.Values),
		}

	case *ast.ListCallExpr:
		return map[string]interface{}{
			"type":     "ListCallExpr",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"caller":   WalkAST(n.Caller),
			"index":    WalkAST(n.Index),
		}

	case *ast.CallExpr:
		args := make([]interface{}, len(n.Args))
		for i, arg := range n.Args {
			args[i] = WalkAST(arg)
		}
		return map[string]interface{}{
			"type":      "CallExpr",
			"position":  n.Token.Position,
			"token":     n.TokenLiteral(),
			"caller":    WalkAST(n.Caller),
			"arguments": args,
		}

	case *ast.AssignmentExpr:
		return map[string]interface{}{
			"type":     "AssignmentExpr",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"assignee": WalkAST(n.Assignee),
			"value":    WalkAST(n.Value),
		}

	case *ast.LogicalExpr:
		return walkInfix("LogicalExpr", n.Token.Position, n.TokenLiteral(), n.Left, n.Operator, n.Right)

	case *ast.ConditionalExpr:
		return walkInfix("ConditionalExpr", n.Token.Position, n.TokenLiteral(), n.Left, n.Operator, n.Right)

	case *ast.BinaryExpr:
		return walkInfix("BinaryExpr", n.Token.Position, n.TokenLiteral(), n.Left, n.Operator, n.Right)

	case *ast.RangeExpr:
		return map[string]interface{}{
			"type":     "RangeExpr",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"from":     WalkAST(n.From),
			"to":       WalkAST(n.To),
		}

	case *ast.UnaryExpr:
		return map[string]interface{}{
			"type":     "UnaryExpr",
			"position": n.Token.Position,
			"token":    n.TokenLiteral(),
			"operator": n.Operator,
			"value":    WalkAST(n.Value),
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func walkInfix(kind string, position int, literal string, left ast.Node, operator string, right ast.Node) interface{} {
	return map[string]interface{}{
		"type":     kind,
		"position": position,
		"token":    literal,
		"left":     WalkAST(left),
		"operator": operator,
		"right":    WalkAST(right),
	}
}

func walkBody(body []ast.Statement) []interface{} {
	result := make([]interface{}, len(body))
	for i, s := range body {
		result[i] = WalkAST(s)
	}
	return result
}

func safeTokenLiteral(node ast.Node) string {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return ""
	}
	return node.TokenLiteral()
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}

// WriteASTToJSON takes a root AST node and writes it to a JSON file.
func WriteASTToJSON(node ast.Node, filename string) error {
	rendered, err := RenderASTAsJSON(node)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %v", err)
	}
	return nil
}
