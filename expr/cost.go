package expr

// CostUnavailable is returned by EstimateCost when the integrand cannot be
// written as a sum of monomials
const CostUnavailable = -1

// maxExpandedPower bounds the integer powers treated as repeated products
const maxExpandedPower = 8

// EstimateCost estimates the tensor contraction cost of an integrand: the
// largest number of coefficients plus derivatives over all monomials of its
// expansion. Integrands with non-polynomial operators, division by a
// non-constant or non-integer powers cost CostUnavailable.
//
// The expansion is never built. The largest monomial of a sum is the largest
// of its terms, and that of a product is the sum of the largest of each
// factor, so one value per node suffices.
func EstimateCost(root *Node) int {
	root = StripVariables(root)
	costs := make(map[*Node]int)
	Walk(root, func(n *Node) {
		costs[n] = nodeCost(n, costs)
	})
	return costs[root]
}

func nodeCost(n *Node, costs map[*Node]int) int {
	for _, o := range n.operands {
		if costs[o] == CostUnavailable {
			return CostUnavailable
		}
	}
	operand := func(i int) int { return costs[n.operands[i]] }
	switch n.op {
	case OpArgument, OpConstant:
		return 0
	case OpCoefficient:
		return 1
	case OpIndexed, OpVariable:
		return operand(0)
	case OpDerivative:
		return saturatingAdd(operand(0), 1)
	case OpSum:
		c := 0
		for i := range n.operands {
			c = max(c, operand(i))
		}
		return c
	case OpProduct:
		c := 0
		for i := range n.operands {
			c = saturatingAdd(c, operand(i))
		}
		return c
	case OpDivision:
		if n.operands[1].op != OpConstant {
			return CostUnavailable
		}
		return operand(0)
	case OpPower:
		p, ok := integerExponent(n.operands[1])
		if !ok || p > maxExpandedPower {
			return CostUnavailable
		}
		return saturatingMul(operand(0), p)
	}
	return CostUnavailable
}
