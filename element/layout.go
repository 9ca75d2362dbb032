package element

import (
	"fmt"

	"github.com/notargets/formc/basis"
	"github.com/notargets/formc/crs"
	"github.com/notargets/formc/utils"
)

// EntityDofs classifies the local dofs of one basis element by topological
// entity: EntityDofs[dim][entity] lists the dofs owned by that entity.
type EntityDofs [][][]int

// NumDofsPerEntity returns, per dimension, the number of dofs on each entity
func (ed EntityDofs) NumDofsPerEntity() []int {
	out := make([]int, len(ed))
	for dim := range ed {
		if len(ed[dim]) > 0 {
			out[dim] = len(ed[dim][0])
		}
	}
	return out
}

// NumDofs returns the total number of dofs
func (ed EntityDofs) NumDofs() int {
	n := 0
	for dim := range ed {
		for entity := range ed[dim] {
			n += len(ed[dim][entity])
		}
	}
	return n
}

// Layout is the static local dof description of a resolved element
type Layout struct {
	Element *Element
	Cell    Cell

	// One entry per basis (leaf) element; mixed elements contribute one per
	// flattened sub element
	SubEntityDofs []EntityDofs

	// Number of direct sub elements (1 for simple and enriched elements)
	NumSubElements int

	// Dof coordinates on the [0,1] reference simplex, in local dof order; nil
	// when the element does not provide them
	Points [][]float64

	// Row f lists, in local numbering, the dofs on the closure of facet f
	FacetDofs *crs.Array[int]
}

// NewLayout builds the dof layout of e. Unknown families, unresolved
// cells/degrees and unsupported degrees are configuration errors.
func NewLayout(e *Element) (*Layout, error) {
	if !e.IsResolved() {
		return nil, utils.NewConfigurationError(e.Key(), "element cell and degree must be set")
	}
	lay := &Layout{
		Element:        e,
		Cell:           e.Cell(),
		NumSubElements: 1,
	}
	if e.Kind() == Mixed {
		lay.NumSubElements = len(e.subs)
	}
	points, havePoints, err := lay.collect(e)
	if err != nil {
		return nil, err
	}
	if havePoints {
		lay.Points = points
	}
	if lay.FacetDofs, err = lay.buildFacetDofs(); err != nil {
		return nil, err
	}
	return lay, nil
}

// collect appends the sub layouts of e and returns its dof coordinates
func (lay *Layout) collect(e *Element) ([][]float64, bool, error) {
	if e.Cell() != lay.Cell {
		return nil, false, utils.NewConfigurationError(e.Key(),
			"sub element cell %s differs from %s", e.Cell(), lay.Cell)
	}
	switch e.Kind() {
	case Mixed:
		var (
			points [][]float64
			all    = true
		)
		for _, s := range e.subs {
			p, ok, err := lay.collect(s)
			if err != nil {
				return nil, false, err
			}
			points = append(points, p...)
			all = all && ok
		}
		return points, all, nil
	case Enriched:
		ed, points, ok, err := enrichedDofs(e)
		if err != nil {
			return nil, false, err
		}
		lay.SubEntityDofs = append(lay.SubEntityDofs, ed)
		return points, ok, nil
	}
	ed, points, ok, err := simpleDofs(e)
	if err != nil {
		return nil, false, err
	}
	lay.SubEntityDofs = append(lay.SubEntityDofs, ed)
	return points, ok, nil
}

func (lay *Layout) buildFacetDofs() (*crs.Array[int], error) {
	c := lay.Cell
	D := c.Dimension()
	nf := c.NumFacets()
	rows := make([][]int, nf)
	for f := 0; f < nf; f++ {
		offset := 0
		for _, ed := range lay.SubEntityDofs {
			for dim := 0; dim <= D; dim++ {
				for entity, dofs := range ed[dim] {
					if !c.Incident(dim, entity, f) {
						continue
					}
					for _, dof := range dofs {
						rows[f] = append(rows[f], offset+dof)
					}
				}
			}
			offset += ed.NumDofs()
		}
	}
	return crs.FromRows(rows)
}

// NumDofsPerDim returns the per-entity dof counts summed over sub elements
func (lay *Layout) NumDofsPerDim() []int {
	out := make([]int, lay.Cell.Dimension()+1)
	for _, ed := range lay.SubEntityDofs {
		for dim, n := range ed.NumDofsPerEntity() {
			out[dim] += n
		}
	}
	return out
}

// LocalDimension returns the number of dofs on one cell
func (lay *Layout) LocalDimension() int {
	n := 0
	for _, ed := range lay.SubEntityDofs {
		n += ed.NumDofs()
	}
	return n
}

// NumFacetDofs returns the number of dofs on the closure of one facet
func (lay *Layout) NumFacetDofs() int {
	if lay.FacetDofs.NumRows() == 0 {
		return 0
	}
	n, _ := lay.FacetDofs.RowLen(0)
	return n
}

// Signature identifies the dof map of the element
func (lay *Layout) Signature() string {
	return fmt.Sprintf("dof map for %s", lay.Element.Key())
}

func simpleDofs(e *Element) (EntityDofs, [][]float64, bool, error) {
	c, k, D := e.Cell(), e.Degree(), e.Cell().Dimension()
	ed := emptyEntityDofs(c)
	var points [][]float64
	next := 0
	add := func(dim, entity int, pts [][]float64) {
		for _, p := range pts {
			ed[dim][entity] = append(ed[dim][entity], next)
			points = append(points, p)
			next++
		}
	}

	switch e.Family() {
	case Lagrange:
		if k < 1 {
			return nil, nil, false, utils.NewConfigurationError(e.Key(), "Lagrange degree must be at least 1")
		}
		for dim := 0; dim <= D; dim++ {
			for entity := 0; entity < c.NumEntities(dim); entity++ {
				add(dim, entity, latticePoints(c, dim, entity, k, 1))
			}
		}
	case DiscontinuousLagrange:
		if k == 0 {
			add(D, 0, [][]float64{centroid(c)})
		} else {
			add(D, 0, latticePoints(c, D, 0, k, 0))
		}
	case Bubble:
		if k < D+1 {
			return nil, nil, false, utils.NewConfigurationError(e.Key(),
				"bubble degree must be at least %d", D+1)
		}
		add(D, 0, latticePoints(c, D, 0, k, 1))
	case CrouzeixRaviart:
		if k != 1 {
			return nil, nil, false, utils.NewConfigurationError(e.Key(), "Crouzeix-Raviart is only defined for degree 1")
		}
		for f := 0; f < c.NumFacets(); f++ {
			add(D-1, f, [][]float64{entityMidpoint(c, D-1, f)})
		}
	case Quadrature:
		pts, err := basis.CollapsedGaussPoints(D, basis.PointsForDegree(k))
		if err != nil {
			return nil, nil, false, utils.NewConfigurationError(e.Key(), "%v", err)
		}
		add(D, 0, pts)
	default:
		return nil, nil, false, utils.NewConfigurationError(e.Key(), "no dof layout for family %q", e.Family())
	}
	return ed, points, true, nil
}

// enrichedDofs merges the components entity by entity
func enrichedDofs(e *Element) (EntityDofs, [][]float64, bool, error) {
	c := e.Cell()
	merged := emptyEntityDofs(c)
	var (
		parts  []EntityDofs
		coords [][][]float64
		all    = true
	)
	for _, s := range e.subs {
		if s.Kind() != Simple {
			return nil, nil, false, utils.NewConfigurationError(e.Key(), "enriched components must be simple elements")
		}
		ed, pts, ok, err := simpleDofs(s)
		if err != nil {
			return nil, nil, false, err
		}
		parts = append(parts, ed)
		coords = append(coords, pts)
		all = all && ok
	}
	var points [][]float64
	next := 0
	for dim := range merged {
		for entity := range merged[dim] {
			for i, ed := range parts {
				for _, dof := range ed[dim][entity] {
					merged[dim][entity] = append(merged[dim][entity], next)
					points = append(points, coords[i][dof])
					next++
				}
			}
		}
	}
	return merged, points, all, nil
}

func emptyEntityDofs(c Cell) EntityDofs {
	D := c.Dimension()
	ed := make(EntityDofs, D+1)
	for dim := 0; dim <= D; dim++ {
		ed[dim] = make([][]int, c.NumEntities(dim))
	}
	return ed
}

// latticePoints returns the degree k lattice points of entity (dim, entity)
// whose barycentric indices are all at least minIndex
func latticePoints(c Cell, dim, entity, k, minIndex int) [][]float64 {
	verts := c.Vertices()
	ev := c.EntityVertices(dim, entity)
	var (
		out  [][]float64
		idx  = make([]int, dim+1)
		walk func(pos, remaining int)
	)
	walk = func(pos, remaining int) {
		if pos == 0 {
			if remaining < minIndex {
				return
			}
			idx[0] = remaining
			p := make([]float64, c.Dimension())
			for i, v := range ev {
				w := float64(idx[i]) / float64(k)
				for x := range p {
					p[x] += w * verts[v][x]
				}
			}
			out = append(out, p)
			return
		}
		for a := minIndex; a <= remaining-minIndex*pos; a++ {
			idx[pos] = a
			walk(pos-1, remaining-a)
		}
	}
	walk(dim, k)
	return out
}

func entityMidpoint(c Cell, dim, entity int) []float64 {
	verts := c.Vertices()
	ev := c.EntityVertices(dim, entity)
	p := make([]float64, c.Dimension())
	for _, v := range ev {
		for x := range p {
			p[x] += verts[v][x] / float64(len(ev))
		}
	}
	return p
}

func centroid(c Cell) []float64 {
	return entityMidpoint(c, c.Dimension(), 0)
}
