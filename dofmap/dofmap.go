// Package dofmap generates the code fragments of a dof map: counting dofs
// per mesh entity dimension, numbering them on a cell, restricting them to
// facets and tabulating their physical coordinates.
package dofmap

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/formc/basis"
	"github.com/notargets/formc/element"
	"github.com/notargets/formc/utils"
)

// Assignment is one generated statement
type Assignment struct {
	Target string
	Value  string
}

// Coordinates is the tabulate_coordinates body. Exactly one of Assignments
// or NotImplemented is set.
type Coordinates struct {
	Prelude        string
	Assignments    []Assignment
	NotImplemented string
}

// Code holds every fragment of one dof map
type Code struct {
	Signature           string
	NeedsMeshEntities   []string // One per topological dimension
	GlobalDimension     string
	LocalDimension      string
	NumFacetDofs        string
	NumSubDofMaps       string
	TabulateDofs        []Assignment
	TabulateFacetDofs   [][]Assignment // One case per facet
	TabulateCoordinates Coordinates
}

type entityKey struct{ dim, entity int }

type options struct {
	skip      map[entityKey]bool
	tabulator basis.Tabulator
}

// Option configures Generate
type Option func(*options)

// Skip suppresses the tabulate_dofs statements of one entity. Numbering and
// offsets are unaffected.
func Skip(dim, entity int) Option {
	return func(o *options) { o.skip[entityKey{dim, entity}] = true }
}

// WithTabulator replaces the linear Lagrange basis used to map dof
// coordinates to the physical cell
func WithTabulator(t basis.Tabulator) Option {
	return func(o *options) { o.tabulator = t }
}

// GenerateElement builds the layout of e and generates its dof map
func GenerateElement(e *element.Element, f Format, opts ...Option) (*Code, error) {
	lay, err := element.NewLayout(e)
	if err != nil {
		return nil, err
	}
	return Generate(lay, f, opts...)
}

// Generate produces the dof map fragments of lay in format f
func Generate(lay *element.Layout, f Format, opts ...Option) (*Code, error) {
	if lay == nil || lay.Element == nil {
		return nil, utils.NewConfigurationError("dof map", "missing element layout")
	}
	if len(lay.SubEntityDofs) == 0 || lay.FacetDofs == nil {
		return nil, utils.NewConfigurationError(lay.Element.Key(), "missing entity dofs")
	}
	o := &options{skip: make(map[entityKey]bool)}
	for _, opt := range opts {
		opt(o)
	}
	if o.tabulator == nil {
		o.tabulator = basis.LinearLagrange{Dim: lay.Cell.Dimension()}
	}

	code := &Code{
		Signature:       lay.Signature(),
		GlobalDimension: globalDimension(lay, f),
		LocalDimension:  strconv.Itoa(lay.LocalDimension()),
		NumFacetDofs:    strconv.Itoa(lay.NumFacetDofs()),
		NumSubDofMaps:   strconv.Itoa(lay.NumSubElements),
		TabulateDofs:    tabulateDofs(lay, f, o.skip),
	}
	for _, n := range lay.NumDofsPerDim() {
		code.NeedsMeshEntities = append(code.NeedsMeshEntities, f.Bool(n > 0))
	}
	var err error
	if code.TabulateFacetDofs, err = tabulateFacetDofs(lay, f); err != nil {
		return nil, fmt.Errorf("tabulating facet dofs of %s: %w", lay.Element.Key(), err)
	}
	if code.TabulateCoordinates, err = tabulateCoordinates(lay, f, o.tabulator); err != nil {
		return nil, fmt.Errorf("tabulating coordinates of %s: %w", lay.Element.Key(), err)
	}
	return code, nil
}

// entitiesTimes renders n*(number of entities of dim), dropping a unit factor
func entitiesTimes(n, dim int, f Format) string {
	if n == 1 {
		return f.NumEntities(dim)
	}
	return f.Multiply([]string{strconv.Itoa(n), f.NumEntities(dim)})
}

func globalDimension(lay *element.Layout, f Format) string {
	var terms []string
	for dim, n := range lay.NumDofsPerDim() {
		if n > 0 {
			terms = append(terms, entitiesTimes(n, dim, f))
		}
	}
	if len(terms) == 0 {
		return "0"
	}
	return f.Add(terms)
}

// tabulateDofs numbers each dof as entity index times dofs per entity, plus
// its position on the entity, plus the running offset of the dimensions
// already visited
func tabulateDofs(lay *element.Layout, f Format, skip map[entityKey]bool) []Assignment {
	var (
		code           []Assignment
		offsetDeclared bool
		offsetCode     []Assignment
		localOffset    int
	)
	for _, ed := range lay.SubEntityDofs {
		perDim := ed.NumDofsPerEntity()
		numDofs := 0
		for dim := range ed {
			n := perDim[dim]
			if n == 0 {
				continue
			}
			code = append(code, offsetCode...)
			for entity, dofs := range ed[dim] {
				for pos, dof := range dofs {
					value := f.EntityIndex(dim, entity)
					if n > 1 {
						value = f.Multiply([]string{strconv.Itoa(n), value})
					}
					if pos > 0 {
						value = f.Add([]string{value, strconv.Itoa(pos)})
					}
					if offsetDeclared {
						value = f.Add([]string{f.OffsetAccess(), value})
					}
					if !skip[entityKey{dim, entity}] {
						code = append(code, Assignment{f.Dofs(localOffset + dof), value})
					}
					numDofs++
				}
			}
			value := entitiesTimes(n, dim, f)
			if !offsetDeclared {
				offsetCode = []Assignment{{f.OffsetDeclaration(), value}}
				offsetDeclared = true
			} else {
				offsetCode = []Assignment{{f.OffsetAccess(), f.Add([]string{f.OffsetAccess(), value})}}
			}
		}
		localOffset += numDofs
	}
	return code
}

// tabulateFacetDofs renumbers the facet incident dofs of each facet 0..k-1
func tabulateFacetDofs(lay *element.Layout, f Format) ([][]Assignment, error) {
	cases := make([][]Assignment, lay.FacetDofs.NumRows())
	for facet := range cases {
		row, err := lay.FacetDofs.Row(facet)
		if err != nil {
			return nil, err
		}
		cases[facet] = make([]Assignment, len(row))
		for i, dof := range row {
			cases[facet][i] = Assignment{f.Dofs(i), strconv.Itoa(dof)}
		}
	}
	return cases, nil
}

// tabulateCoordinates maps the reference dof points to the physical cell as
// weighted sums of the cell vertex coordinates
func tabulateCoordinates(lay *element.Layout, f Format, t basis.Tabulator) (Coordinates, error) {
	if lay.Points == nil {
		return Coordinates{
			NotImplemented: f.NotImplemented("tabulate_coordinates not implemented for this type of element"),
		}, nil
	}
	table, err := t.Tabulate(0, basis.ToReference(lay.Points))
	if err != nil {
		return Coordinates{}, err
	}
	values, ok := table[basis.Derivative{}]
	if !ok {
		return Coordinates{}, fmt.Errorf("tabulation has no values")
	}
	// Rows are dofs, columns are cell vertices
	var weights mat.Dense
	weights.CloneFrom(values.T())
	numDofs, numVertices := weights.Dims()

	out := Coordinates{Prelude: f.GetCellVertices()}
	D := lay.Cell.Dimension()
	for i := 0; i < numDofs; i++ {
		row := mat.Row(nil, i, &weights)
		for j := 0; j < D; j++ {
			symbols := make([]string, numVertices)
			for k := range symbols {
				symbols[k] = f.ElementCoordinates(k, j)
			}
			out.Assignments = append(out.Assignments, Assignment{
				Target: f.ArgumentCoordinates() + f.MatrixAccess(i, j),
				Value:  InnerProduct(row, symbols, f),
			})
		}
	}
	return out, nil
}
