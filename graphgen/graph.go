package graphgen

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/notargets/formc/expr"
)

// dag is the computation graph of one expression. Structurally identical
// subexpressions share one vertex; edges run from operand to consumer.
type dag struct {
	g     *simple.DirectedGraph
	nodes []*expr.Node // Indexed by vertex id
	ids   map[string]int64
	root  int64
}

// buildDAG discovers vertices operand first, so ids follow a fixed function
// of the expression tree
func buildDAG(root *expr.Node) *dag {
	d := &dag{
		g:   simple.NewDirectedGraph(),
		ids: make(map[string]int64),
	}
	d.root = d.add(root)
	return d
}

func (d *dag) add(n *expr.Node) int64 {
	if id, ok := d.ids[n.Key()]; ok {
		return id
	}
	operands := make([]int64, len(n.Operands()))
	for i, o := range n.Operands() {
		operands[i] = d.add(o)
	}
	id := int64(len(d.nodes))
	d.nodes = append(d.nodes, n)
	d.ids[n.Key()] = id
	d.g.AddNode(simple.Node(id))
	for _, from := range operands {
		if from == id || d.g.HasEdgeFromTo(from, id) {
			continue
		}
		d.g.SetEdge(d.g.NewEdge(simple.Node(from), simple.Node(id)))
	}
	return id
}

// order returns the vertices with every operand before its consumers, ties
// broken by vertex id
func (d *dag) order() ([]int64, error) {
	sorted, err := topo.SortStabilized(d.g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, fmt.Errorf("expression graph is not acyclic: %w", err)
	}
	out := make([]int64, len(sorted))
	for i, n := range sorted {
		out[i] = n.ID()
	}
	return out, nil
}

// neverNamed reports vertices that are always emitted inline
func neverNamed(n *expr.Node) bool {
	switch n.Op() {
	case expr.OpArgument, expr.OpCoefficient, expr.OpConstant, expr.OpIndexed, expr.OpDerivative:
		return true
	}
	return false
}
