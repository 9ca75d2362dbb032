package expr

import (
	"sort"

	"github.com/notargets/formc/element"
)

// Transform rebuilds the tree bottom up, replacing every node with f(node)
// after its operands have been transformed. Shared subtrees are visited once.
func Transform(root *Node, f func(*Node) *Node) *Node {
	memo := make(map[*Node]*Node)
	var visit func(n *Node) *Node
	visit = func(n *Node) *Node {
		if out, ok := memo[n]; ok {
			return out
		}
		out := n
		if len(n.operands) > 0 {
			ops := make([]*Node, len(n.operands))
			changed := false
			for i, o := range n.operands {
				ops[i] = visit(o)
				changed = changed || ops[i] != o
			}
			if changed {
				out = n.withOperands(ops)
			}
		}
		out = f(out)
		memo[n] = out
		return out
	}
	return visit(root)
}

// StripVariables removes every Variable wrapper
func StripVariables(root *Node) *Node {
	return Transform(root, func(n *Node) *Node {
		if n.op == OpVariable {
			return n.operands[0]
		}
		return n
	})
}

// MapElements replaces the element of every argument and coefficient
func MapElements(root *Node, f func(*element.Element) *element.Element) *Node {
	return Transform(root, func(n *Node) *Node {
		switch n.op {
		case OpArgument:
			return Argument(n.number, f(n.element))
		case OpCoefficient:
			return Coefficient(n.number, f(n.element))
		}
		return n
	})
}

// Walk visits every node once in operand-first order
func Walk(root *Node, visit func(*Node)) {
	seen := make(map[*Node]bool)
	var rec func(n *Node)
	rec = func(n *Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, o := range n.operands {
			rec(o)
		}
		visit(n)
	}
	rec(root)
}

// Elements lists the elements of the arguments and coefficients of root in
// order of appearance, one entry per distinct terminal
func Elements(root *Node) []*element.Element {
	var (
		out  []*element.Element
		seen = make(map[string]bool)
	)
	Walk(root, func(n *Node) {
		if n.op != OpArgument && n.op != OpCoefficient {
			return
		}
		if seen[n.key] {
			return
		}
		seen[n.key] = true
		out = append(out, n.element)
	})
	return out
}

// Arguments returns the distinct argument numbers of root in ascending order
func Arguments(root *Node) []int {
	seen := make(map[int]bool)
	Walk(root, func(n *Node) {
		if n.op == OpArgument {
			seen[n.number] = true
		}
	})
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
