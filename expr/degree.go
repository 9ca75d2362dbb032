package expr

import (
	"math"

	"github.com/notargets/formc/element"
)

// EstimateTotalDegree estimates the polynomial degree of root. Terminals
// whose element has no degree use fallback. Non-polynomial operators add two
// to the degree of their operand.
func EstimateTotalDegree(root *Node, fallback int) int {
	degrees := make(map[*Node]int)
	Walk(root, func(n *Node) {
		degrees[n] = nodeDegree(n, degrees, fallback)
	})
	return degrees[root]
}

func nodeDegree(n *Node, degrees map[*Node]int, fallback int) int {
	operand := func(i int) int { return degrees[n.operands[i]] }
	switch n.op {
	case OpArgument, OpCoefficient:
		if d := n.element.Degree(); d != element.UnsetDegree {
			return min(d, MaxDegree)
		}
		return min(fallback, MaxDegree)
	case OpConstant:
		return 0
	case OpIndexed, OpVariable, OpAbs:
		return operand(0)
	case OpDerivative:
		return max(operand(0)-1, 0)
	case OpSum:
		d := 0
		for i := range n.operands {
			d = max(d, operand(i))
		}
		return d
	case OpProduct, OpDivision:
		d := 0
		for i := range n.operands {
			d = saturatingAdd(d, operand(i))
		}
		return d
	case OpPower:
		if p, ok := integerExponent(n.operands[1]); ok {
			return saturatingMul(operand(0), p)
		}
		return saturatingAdd(operand(0), 2)
	case OpSqrt:
		return saturatingAdd(operand(0), 2)
	}
	return fallback
}

// MaxDegree caps every estimate; larger values saturate
const MaxDegree = math.MaxInt32

// integerExponent reports a constant integer exponent in [0, MaxDegree]
func integerExponent(n *Node) (int, bool) {
	if n.op != OpConstant || n.value < 0 || n.value > MaxDegree || n.value != math.Trunc(n.value) {
		return 0, false
	}
	return int(n.value), true
}

// saturatingAdd and saturatingMul operate on values in [0, MaxDegree]
func saturatingAdd(a, b int) int {
	return min(a+b, MaxDegree)
}

func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > MaxDegree/b {
		return MaxDegree
	}
	return a * b
}
