package sqlite

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// sqlCondition is a WHERE fragment with positional parameters.
type sqlCondition struct {
	Clause string
	Params []any
}

// signupFilterColumns maps filter identifiers to signup columns.
var signupFilterColumns = map[string]string{
	"status":       "status",
	"role":         "role",
	"user_id":      "user_id",
	"character_id": "character_id",
	"created_at":   "created_at",
}

func signupDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("role", filtering.TypeString),
		filtering.DeclareIdent("user_id", filtering.TypeString),
		filtering.DeclareIdent("character_id", filtering.TypeString),
		filtering.DeclareIdent("created_at", filtering.TypeTimestamp),
	)
}

// parseSignupFilter translates an AIP-160 expression such as
// `status = "committed" AND role = "tank"` into SQL. An empty filter yields
// an empty condition.
func parseSignupFilter(filter string) (sqlCondition, error) {
	if strings.TrimSpace(filter) == "" {
		return sqlCondition{}, nil
	}
	decls, err := signupDeclarations()
	if err != nil {
		return sqlCondition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return sqlCondition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translateExpr(parsed.CheckedExpr.GetExpr())
}

func translateExpr(e *expr.Expr) (sqlCondition, error) {
	if e == nil {
		return sqlCondition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return sqlCondition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}
	args := call.CallExpr.Args
	switch fn := call.CallExpr.Function; fn {
	case filtering.FunctionAnd, "_&&_":
		return translateJunction(args, "AND")
	case filtering.FunctionOr, "_||_":
		return translateJunction(args, "OR")
	case filtering.FunctionNot, "!_":
		if len(args) != 1 {
			return sqlCondition{}, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := translateExpr(args[0])
		if err != nil {
			return sqlCondition{}, err
		}
		return sqlCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
	case filtering.FunctionEquals, "_==_":
		return translateComparison(args, "=")
	case filtering.FunctionNotEquals, "_!=_":
		return translateComparison(args, "!=")
	case filtering.FunctionLessThan, "_<_":
		return translateComparison(args, "<")
	case filtering.FunctionLessEquals, "_<=_":
		return translateComparison(args, "<=")
	case filtering.FunctionGreaterThan, "_>_":
		return translateComparison(args, ">")
	case filtering.FunctionGreaterEquals, "_>=_":
		return translateComparison(args, ">=")
	default:
		return sqlCondition{}, fmt.Errorf("unsupported function: %s", fn)
	}
}

func translateJunction(args []*expr.Expr, op string) (sqlCondition, error) {
	if len(args) != 2 {
		return sqlCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translateExpr(args[0])
	if err != nil {
		return sqlCondition{}, err
	}
	right, err := translateExpr(args[1])
	if err != nil {
		return sqlCondition{}, err
	}
	return sqlCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateComparison(args []*expr.Expr, op string) (sqlCondition, error) {
	if len(args) != 2 {
		return sqlCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return sqlCondition{}, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	column, ok := signupFilterColumns[ident.IdentExpr.GetName()]
	if !ok {
		return sqlCondition{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.GetName())
	}
	value, err := extractValue(args[1])
	if err != nil {
		return sqlCondition{}, err
	}
	if column == "created_at" {
		if raw, ok := value.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return sqlCondition{}, fmt.Errorf("invalid timestamp format: %s", raw)
			}
			value = toMillis(t)
		}
	}
	return sqlCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractValue(e *expr.Expr) (any, error) {
	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		switch c := kind.ConstExpr.GetConstantKind().(type) {
		case *expr.Constant_StringValue:
			return c.StringValue, nil
		case *expr.Constant_Int64Value:
			return c.Int64Value, nil
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", c)
		}
	case *expr.Expr_CallExpr:
		if kind.CallExpr.GetFunction() == filtering.FunctionTimestamp && len(kind.CallExpr.GetArgs()) == 1 {
			return extractTimestamp(kind.CallExpr.GetArgs()[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.GetFunction())
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

// extractTimestamp converts timestamp("RFC3339") into the millisecond form
// the tables store.
func extractTimestamp(e *expr.Expr) (int64, error) {
	c, ok := e.GetConstExpr().GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	t, err := time.Parse(time.RFC3339Nano, c.StringValue)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", c.StringValue)
	}
	return toMillis(t), nil
}
