package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/notargets/formc/expr"
)

// translator turns native HCL syntax into expression nodes. Supported:
// number literals, argument and coefficient names, component indexing v[i],
// + - * / and unary minus, parentheses, and the functions
//
//	dx(f, i)           derivative along reference direction i
//	sqrt(f), abs(f)
//	pow(f, p)
//	variable(f, "label")
type translator struct {
	symbols map[string]*expr.Node
}

func (t *translator) translate(e hcl.Expression) (*expr.Node, error) {
	se, ok := e.(hclsyntax.Expression)
	if !ok {
		return nil, fmt.Errorf("%s: integrand must use native HCL syntax", e.Range())
	}
	n, err := t.node(se)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", se.Range(), err)
	}
	return n, nil
}

var minusOne = expr.Constant(-1)

func (t *translator) node(e hclsyntax.Expression) (*expr.Node, error) {
	switch e := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		if e.Val.Type() != cty.Number {
			return nil, fmt.Errorf("unsupported literal of type %s", e.Val.Type().FriendlyName())
		}
		var f float64
		if err := gocty.FromCtyValue(e.Val, &f); err != nil {
			return nil, err
		}
		return expr.Constant(f), nil

	case *hclsyntax.ScopeTraversalExpr:
		name := e.Traversal.RootName()
		n, ok := t.symbols[name]
		if !ok {
			return nil, fmt.Errorf("unknown symbol %q", name)
		}
		for _, step := range e.Traversal[1:] {
			idx, ok := step.(hcl.TraverseIndex)
			if !ok {
				return nil, fmt.Errorf("%s: only component indexing is supported", name)
			}
			i, err := intValue(idx.Key)
			if err != nil {
				return nil, err
			}
			if n, err = expr.Indexed(n, i); err != nil {
				return nil, err
			}
		}
		return n, nil

	case *hclsyntax.IndexExpr:
		coll, err := t.node(e.Collection)
		if err != nil {
			return nil, err
		}
		i, err := t.intArg(e.Key)
		if err != nil {
			return nil, err
		}
		return expr.Indexed(coll, i)

	case *hclsyntax.ParenthesesExpr:
		return t.node(e.Expression)

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, fmt.Errorf("unsupported unary operator")
		}
		v, err := t.node(e.Val)
		if err != nil {
			return nil, err
		}
		return expr.Product(minusOne, v)

	case *hclsyntax.BinaryOpExpr:
		lhs, err := t.node(e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := t.node(e.RHS)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case hclsyntax.OpAdd:
			return expr.Sum(lhs, rhs)
		case hclsyntax.OpSubtract:
			neg, err := expr.Product(minusOne, rhs)
			if err != nil {
				return nil, err
			}
			return expr.Sum(lhs, neg)
		case hclsyntax.OpMultiply:
			return expr.Product(lhs, rhs)
		case hclsyntax.OpDivide:
			return expr.Division(lhs, rhs)
		}
		return nil, fmt.Errorf("unsupported binary operator")

	case *hclsyntax.FunctionCallExpr:
		return t.call(e)
	}
	return nil, fmt.Errorf("unsupported expression %T", e)
}

func (t *translator) call(e *hclsyntax.FunctionCallExpr) (*expr.Node, error) {
	arity := map[string]int{"dx": 2, "sqrt": 1, "abs": 1, "pow": 2, "variable": 2}
	want, ok := arity[e.Name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", e.Name)
	}
	if len(e.Args) != want {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", e.Name, want, len(e.Args))
	}
	f, err := t.node(e.Args[0])
	if err != nil {
		return nil, err
	}
	switch e.Name {
	case "dx":
		dir, err := t.intArg(e.Args[1])
		if err != nil {
			return nil, err
		}
		return expr.Derivative(f, dir), nil
	case "sqrt":
		return expr.Sqrt(f)
	case "abs":
		return expr.Abs(f)
	case "pow":
		p, err := t.node(e.Args[1])
		if err != nil {
			return nil, err
		}
		return expr.Power(f, p)
	default:
		label, diags := e.Args[1].Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		if label.Type() != cty.String {
			return nil, fmt.Errorf("variable label must be a string")
		}
		return expr.Variable(f, label.AsString()), nil
	}
}

// intArg evaluates a constant integer argument
func (t *translator) intArg(e hclsyntax.Expression) (int, error) {
	v, diags := e.Value(nil)
	if diags.HasErrors() {
		return 0, diags
	}
	return intValue(v)
}

func intValue(v cty.Value) (int, error) {
	var i int
	if err := gocty.FromCtyValue(v, &i); err != nil {
		return 0, fmt.Errorf("expected an integer: %w", err)
	}
	if i < 0 {
		return 0, fmt.Errorf("negative index %d", i)
	}
	return i, nil
}
