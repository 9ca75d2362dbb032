// Package expr holds the scalar/tensor expression nodes integrands are built
// from. Nodes are immutable; structurally identical nodes share one Key.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notargets/formc/element"
)

// Op is the operator of a node
type Op uint8

const (
	OpArgument Op = iota // Test/trial basis function
	OpCoefficient
	OpConstant
	OpIndexed    // Component of a vector valued operand
	OpDerivative // Spatial derivative of the operand in one direction
	OpSum
	OpProduct
	OpDivision
	OpPower
	OpSqrt
	OpAbs
	OpVariable // Labelled wrapper, removed by StripVariables
)

var opNames = [...]string{
	OpArgument:    "Argument",
	OpCoefficient: "Coefficient",
	OpConstant:    "Constant",
	OpIndexed:     "Indexed",
	OpDerivative:  "Derivative",
	OpSum:         "Sum",
	OpProduct:     "Product",
	OpDivision:    "Division",
	OpPower:       "Power",
	OpSqrt:        "Sqrt",
	OpAbs:         "Abs",
	OpVariable:    "Variable",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// IsTerminal reports whether nodes of this operator have no operands
func (o Op) IsTerminal() bool {
	return o == OpArgument || o == OpCoefficient || o == OpConstant
}

// Node is one expression node
type Node struct {
	op       Op
	operands []*Node
	shape    []int
	element  *element.Element // Argument and Coefficient
	number   int              // Argument/coefficient number, component or direction
	value    float64          // Constant
	label    string           // Variable
	key      string
}

func (n *Node) Op() Op                    { return n.op }
func (n *Node) Operands() []*Node         { return n.operands }
func (n *Node) Element() *element.Element { return n.element }
func (n *Node) Number() int               { return n.number }
func (n *Node) Value() float64            { return n.value }
func (n *Node) Label() string             { return n.label }
func (n *Node) Key() string               { return n.key }
func (n *Node) String() string            { return n.key }

// Shape returns the value shape; an empty shape is a scalar
func (n *Node) Shape() []int { return append([]int(nil), n.shape...) }

// IsScalar reports whether the node has an empty shape
func (n *Node) IsScalar() bool { return len(n.shape) == 0 }

// Argument creates basis function number of the given element
func Argument(number int, el *element.Element) *Node {
	return newNode(&Node{op: OpArgument, number: number, element: el, shape: valueShape(el)})
}

// Coefficient creates coefficient function number of the given element
func Coefficient(number int, el *element.Element) *Node {
	return newNode(&Node{op: OpCoefficient, number: number, element: el, shape: valueShape(el)})
}

// Constant creates a numeric literal
func Constant(v float64) *Node {
	return newNode(&Node{op: OpConstant, value: v})
}

// Indexed selects component i of a rank one operand
func Indexed(operand *Node, i int) (*Node, error) {
	if len(operand.shape) != 1 {
		return nil, fmt.Errorf("cannot index %s with shape %v", operand.key, operand.shape)
	}
	if i < 0 || i >= operand.shape[0] {
		return nil, fmt.Errorf("component %d out of range for %s", i, operand.key)
	}
	return newNode(&Node{op: OpIndexed, operands: []*Node{operand}, number: i}), nil
}

// Derivative differentiates the operand in spatial direction dir
func Derivative(operand *Node, dir int) *Node {
	return newNode(&Node{op: OpDerivative, operands: []*Node{operand}, number: dir, shape: operand.shape})
}

// Sum adds scalar operands
func Sum(operands ...*Node) (*Node, error) { return nary(OpSum, operands) }

// Product multiplies scalar operands
func Product(operands ...*Node) (*Node, error) { return nary(OpProduct, operands) }

// Division divides a by b
func Division(a, b *Node) (*Node, error) { return nary(OpDivision, []*Node{a, b}) }

// Power raises a to the power b
func Power(a, b *Node) (*Node, error) { return nary(OpPower, []*Node{a, b}) }

// Sqrt takes the square root of a scalar
func Sqrt(a *Node) (*Node, error) { return nary(OpSqrt, []*Node{a}) }

// Abs takes the absolute value of a scalar
func Abs(a *Node) (*Node, error) { return nary(OpAbs, []*Node{a}) }

// Variable labels an expression
func Variable(operand *Node, label string) *Node {
	return newNode(&Node{op: OpVariable, operands: []*Node{operand}, label: label, shape: operand.shape})
}

func nary(op Op, operands []*Node) (*Node, error) {
	switch op {
	case OpSum, OpProduct:
		if len(operands) < 2 {
			return nil, fmt.Errorf("%s needs at least two operands, got %d", op, len(operands))
		}
	}
	for _, o := range operands {
		if !o.IsScalar() {
			return nil, fmt.Errorf("%s operand %s is not scalar (shape %v)", op, o.key, o.shape)
		}
	}
	return newNode(&Node{op: op, operands: append([]*Node(nil), operands...)}), nil
}

// MustNode panics on constructor errors; intended for static expressions
func MustNode(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}

func newNode(n *Node) *Node {
	n.key = n.buildKey()
	return n
}

func (n *Node) buildKey() string {
	switch n.op {
	case OpArgument:
		return fmt.Sprintf("v_%d[%s]", n.number, n.element.Key())
	case OpCoefficient:
		return fmt.Sprintf("w_%d[%s]", n.number, n.element.Key())
	case OpConstant:
		return strconv.FormatFloat(n.value, 'g', -1, 64)
	}
	parts := make([]string, len(n.operands))
	for i, o := range n.operands {
		parts[i] = o.key
	}
	args := strings.Join(parts, ", ")
	switch n.op {
	case OpIndexed, OpDerivative:
		return fmt.Sprintf("%s(%s; %d)", n.op, args, n.number)
	case OpVariable:
		return fmt.Sprintf("%s(%s; %s)", n.op, args, n.label)
	}
	return fmt.Sprintf("%s(%s)", n.op, args)
}

// valueShape is scalar for simple elements and one component per direct sub
// element for mixed elements
func valueShape(el *element.Element) []int {
	if el.Kind() == element.Mixed {
		return []int{len(el.SubElements())}
	}
	return nil
}

// withOperands returns a copy of n with its operands replaced
func (n *Node) withOperands(operands []*Node) *Node {
	out := *n
	out.operands = operands
	if n.op == OpDerivative || n.op == OpVariable {
		out.shape = operands[0].shape
	}
	return newNode(&out)
}
