// Package graphgen turns integrands into straight-line code. Each integrand
// becomes a DAG of unique subexpressions; every scalar operator vertex is
// assigned to a named temporary once, and the result is wrapped as an
// integral in the target syntax.
package graphgen

import (
	"fmt"
	"strings"

	"github.com/notargets/formc/expr"
	"github.com/notargets/formc/form"
)

// Rules formats expressions and statements for one target syntax
type Rules interface {
	Argument(number int) string
	Coefficient(number int) string
	Constant(value float64) string
	Indexed(operand string, component int) string
	Derivative(operand string, direction int) string
	Sum(operands []string) string
	Product(operands []string) string
	Division(numerator, denominator string) string
	Power(base, exponent string) string
	Sqrt(operand string) string
	Abs(operand string) string

	// Temporary names the n'th temporary of a compile
	Temporary(n int) string
	Assign(target, value string) string
	Integral(domain form.DomainType, id int, integrand string) string
	// Separator joins the integrals of one group
	Separator() string
}

// Statement assigns Value to the temporary Target
type Statement struct {
	Target string
	Value  string
}

// IntegralCode is the compiled form of one integral
type IntegralCode struct {
	Statements []Statement
	// Temporary (or inline code) holding the integrand
	Value string
	// Value wrapped by Rules.Integral
	Code string
}

// GroupCode joins the integrals of one integral group
type GroupCode struct {
	Domain     form.DomainType
	ID         int
	Integrals  []*IntegralCode
	Expression string
}

// FormCode is the compiled form of a whole form
type FormCode struct {
	Name   string
	Groups []*GroupCode
}

// Generator compiles integrands with one set of rules. It keeps no state
// between calls.
type Generator struct {
	Rules Rules
}

// New returns a Generator for rules
func New(rules Rules) *Generator {
	return &Generator{Rules: rules}
}

// CompileIntegral compiles one integral with a fresh temporary counter
func (g *Generator) CompileIntegral(itg *form.Integral) (*IntegralCode, error) {
	return newCompiler(g.Rules).integral(itg)
}

// CompileForm compiles every integral of fd group by group. Temporaries are
// numbered across the whole form and a subexpression shared by two integrals
// is named once.
func (g *Generator) CompileForm(fd *form.FormData) (*FormCode, error) {
	c := newCompiler(g.Rules)
	fc := &FormCode{Name: fd.Name}
	for _, grp := range fd.Groups {
		gc := &GroupCode{Domain: grp.Domain, ID: grp.ID}
		parts := make([]string, 0, len(grp.Integrals))
		for i, itg := range grp.Integrals {
			ic, err := c.integral(itg)
			if err != nil {
				return nil, fmt.Errorf("%s integral %d of %s(%d): %w", fd.Name, i, grp.Domain.Symbol(), grp.ID, err)
			}
			gc.Integrals = append(gc.Integrals, ic)
			parts = append(parts, ic.Code)
		}
		gc.Expression = strings.Join(parts, g.Rules.Separator())
		fc.Groups = append(fc.Groups, gc)
	}
	return fc, nil
}

// Lines renders the statements of every group followed by one assignment of
// the group expression to the form name
func (fc *FormCode) Lines(rules Rules) []string {
	var out []string
	for _, gc := range fc.Groups {
		for _, ic := range gc.Integrals {
			for _, st := range ic.Statements {
				out = append(out, rules.Assign(st.Target, st.Value))
			}
		}
		out = append(out, rules.Assign(fc.Name, gc.Expression))
	}
	return out
}

// compiler holds the naming state of one compile
type compiler struct {
	rules Rules
	names map[string]string // Expression key to temporary
	next  int
}

func newCompiler(rules Rules) *compiler {
	return &compiler{rules: rules, names: make(map[string]string)}
}

func (c *compiler) integral(itg *form.Integral) (*IntegralCode, error) {
	root := expr.StripVariables(itg.Integrand)
	if !root.IsScalar() {
		return nil, fmt.Errorf("integrand %s is not scalar (shape %v)", root.Key(), root.Shape())
	}
	d := buildDAG(root)
	order, err := d.order()
	if err != nil {
		return nil, err
	}

	ic := &IntegralCode{}
	code := make([]string, len(d.nodes))
	for _, id := range order {
		n := d.nodes[id]
		if name, ok := c.names[n.Key()]; ok {
			code[id] = name
			continue
		}
		inline, err := c.format(n, d, code)
		if err != nil {
			return nil, err
		}
		if neverNamed(n) || !n.IsScalar() {
			code[id] = inline
			continue
		}
		name := c.rules.Temporary(c.next)
		c.next++
		c.names[n.Key()] = name
		ic.Statements = append(ic.Statements, Statement{Target: name, Value: inline})
		code[id] = name
	}
	ic.Value = code[d.root]
	ic.Code = c.rules.Integral(itg.Measure.Domain, itg.Measure.ID, ic.Value)
	return ic, nil
}

// format renders n from the code of its operands
func (c *compiler) format(n *expr.Node, d *dag, code []string) (string, error) {
	ops := make([]string, len(n.Operands()))
	for i, o := range n.Operands() {
		ops[i] = code[d.ids[o.Key()]]
	}
	r := c.rules
	switch n.Op() {
	case expr.OpArgument:
		return r.Argument(n.Number()), nil
	case expr.OpCoefficient:
		return r.Coefficient(n.Number()), nil
	case expr.OpConstant:
		return r.Constant(n.Value()), nil
	case expr.OpIndexed:
		return r.Indexed(ops[0], n.Number()), nil
	case expr.OpDerivative:
		return r.Derivative(ops[0], n.Number()), nil
	case expr.OpSum:
		return r.Sum(ops), nil
	case expr.OpProduct:
		return r.Product(ops), nil
	case expr.OpDivision:
		return r.Division(ops[0], ops[1]), nil
	case expr.OpPower:
		return r.Power(ops[0], ops[1]), nil
	case expr.OpSqrt:
		return r.Sqrt(ops[0]), nil
	case expr.OpAbs:
		return r.Abs(ops[0]), nil
	}
	return "", fmt.Errorf("no formatting rule for operator %s", n.Op())
}
