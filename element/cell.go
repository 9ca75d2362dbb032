package element

import "fmt"

// Cell identifies the reference simplex an element is defined on
type Cell uint8

const (
	CellUnspecified Cell = iota
	Interval
	Triangle
	Tetrahedron
)

func (c Cell) String() string {
	switch c {
	case Interval:
		return "interval"
	case Triangle:
		return "triangle"
	case Tetrahedron:
		return "tetrahedron"
	}
	return "?"
}

// ParseCell maps a cell name to its Cell
func ParseCell(name string) (Cell, error) {
	switch name {
	case "interval":
		return Interval, nil
	case "triangle":
		return Triangle, nil
	case "tetrahedron":
		return Tetrahedron, nil
	}
	return CellUnspecified, fmt.Errorf("unknown cell %q", name)
}

// Dimension returns the topological dimension, or -1 if unspecified
func (c Cell) Dimension() int {
	switch c {
	case Interval:
		return 1
	case Triangle:
		return 2
	case Tetrahedron:
		return 3
	}
	return -1
}

// NumEntities returns the number of entities of topological dimension dim
func (c Cell) NumEntities(dim int) int {
	top := topology[c]
	if dim < 0 || dim >= len(top) {
		return 0
	}
	return len(top[dim])
}

// NumFacets returns the number of codimension one entities
func (c Cell) NumFacets() int {
	return c.NumEntities(c.Dimension() - 1)
}

// EntityVertices returns the reference vertex numbers of entity (dim, entity)
func (c Cell) EntityVertices(dim, entity int) []int {
	return append([]int(nil), topology[c][dim][entity]...)
}

// Vertices returns the vertex coordinates of the reference cell [0,1]^d simplex
func (c Cell) Vertices() [][]float64 {
	d := c.Dimension()
	if d < 1 {
		return nil
	}
	verts := make([][]float64, d+1)
	for v := range verts {
		verts[v] = make([]float64, d)
		if v > 0 {
			verts[v][v-1] = 1
		}
	}
	return verts
}

// Incident reports whether entity (dim, entity) lies on the closure of facet
func (c Cell) Incident(dim, entity, facet int) bool {
	D := c.Dimension()
	if dim > D-1 {
		return false
	}
	facetVerts := topology[c][D-1][facet]
	for _, v := range topology[c][dim][entity] {
		found := false
		for _, fv := range facetVerts {
			if fv == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// topology lists, per cell, the vertices of every entity by dimension.
// On the triangle and tetrahedron, entity i of dimension D-1 is opposite
// vertex i.
var topology = map[Cell][][][]int{
	Interval: {
		{{0}, {1}},
		{{0, 1}},
	},
	Triangle: {
		{{0}, {1}, {2}},
		{{1, 2}, {0, 2}, {0, 1}},
		{{0, 1, 2}},
	},
	Tetrahedron: {
		{{0}, {1}, {2}, {3}},
		{{2, 3}, {1, 3}, {1, 2}, {0, 3}, {0, 2}, {0, 1}},
		{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}},
		{{0, 1, 2, 3}},
	},
}
