package dofmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/formc/basis"
	"github.com/notargets/formc/crs"
	"github.com/notargets/formc/element"
	"github.com/notargets/formc/format"
	"github.com/notargets/formc/utils"
)

var ufc = format.UFC{}

func generate(t *testing.T, e *element.Element, opts ...Option) *Code {
	t.Helper()
	code, err := GenerateElement(e, ufc, opts...)
	require.NoError(t, err)
	return code
}

func TestScalarFragments(t *testing.T) {
	tests := []struct {
		element *element.Element
		needs   []string
		global  string
		local   string
		facet   string
		subs    string
	}{
		{element.New(element.Lagrange, element.Tetrahedron, 1),
			[]string{"true", "false", "false", "false"}, "m.num_entities[0]", "4", "3", "1"},
		{element.New(element.Lagrange, element.Triangle, 2),
			[]string{"true", "true", "false"}, "m.num_entities[0] + m.num_entities[1]", "6", "3", "1"},
		{element.New(element.Lagrange, element.Tetrahedron, 3),
			[]string{"true", "true", "true", "false"},
			"m.num_entities[0] + 2*m.num_entities[1] + m.num_entities[2]", "20", "10", "1"},
		{element.New(element.DiscontinuousLagrange, element.Tetrahedron, 0),
			[]string{"false", "false", "false", "true"}, "m.num_entities[3]", "1", "0", "1"},
		{element.NewMixed(element.NewVector(element.Lagrange, element.Triangle, 2, 2), element.New(element.Lagrange, element.Triangle, 1)),
			[]string{"true", "true", "false"}, "3*m.num_entities[0] + 2*m.num_entities[1]", "15", "8", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.element.Key(), func(t *testing.T) {
			code := generate(t, tt.element)
			assert.Equal(t, "dof map for "+tt.element.Key(), code.Signature)
			assert.Equal(t, tt.needs, code.NeedsMeshEntities)
			assert.Equal(t, tt.global, code.GlobalDimension)
			assert.Equal(t, tt.local, code.LocalDimension)
			assert.Equal(t, tt.facet, code.NumFacetDofs)
			assert.Equal(t, tt.subs, code.NumSubDofMaps)
		})
	}
}

func TestGlobalDimensionWithoutDofs(t *testing.T) {
	facets, err := crs.FromRows([][]int{{}, {}, {}})
	require.NoError(t, err)
	lay := &element.Layout{
		Element:        element.New(element.Lagrange, element.Triangle, 1),
		Cell:           element.Triangle,
		SubEntityDofs:  []element.EntityDofs{{{nil, nil, nil}, {nil, nil, nil}, {nil}}},
		NumSubElements: 1,
		FacetDofs:      facets,
	}
	code, err := Generate(lay, ufc)
	require.NoError(t, err)
	assert.Equal(t, "0", code.GlobalDimension)
	assert.Empty(t, code.TabulateDofs)
	assert.NotEmpty(t, code.TabulateCoordinates.NotImplemented)
}

func TestTabulateDofsP2(t *testing.T) {
	code := generate(t, element.New(element.Lagrange, element.Triangle, 2))
	want := []Assignment{
		{"dofs[0]", "c.entity_indices[0][0]"},
		{"dofs[1]", "c.entity_indices[0][1]"},
		{"dofs[2]", "c.entity_indices[0][2]"},
		{"unsigned int offset", "m.num_entities[0]"},
		{"dofs[3]", "offset + c.entity_indices[1][0]"},
		{"dofs[4]", "offset + c.entity_indices[1][1]"},
		{"dofs[5]", "offset + c.entity_indices[1][2]"},
	}
	if diff := cmp.Diff(want, code.TabulateDofs); diff != "" {
		t.Errorf("tabulate_dofs mismatch (-want +got):\n%s", diff)
	}
}

func TestTabulateDofsP3(t *testing.T) {
	code := generate(t, element.New(element.Lagrange, element.Triangle, 3))
	require.Len(t, code.TabulateDofs, 12)
	assert.Equal(t, Assignment{"dofs[3]", "offset + 2*c.entity_indices[1][0]"}, code.TabulateDofs[4])
	assert.Equal(t, Assignment{"dofs[4]", "offset + 2*c.entity_indices[1][0] + 1"}, code.TabulateDofs[5])
	assert.Equal(t, Assignment{"offset", "offset + 2*m.num_entities[1]"}, code.TabulateDofs[10])
	assert.Equal(t, Assignment{"dofs[9]", "offset + c.entity_indices[2][0]"}, code.TabulateDofs[11])
}

func TestTabulateDofsMixed(t *testing.T) {
	th := element.NewMixed(element.NewVector(element.Lagrange, element.Triangle, 2, 2), element.New(element.Lagrange, element.Triangle, 1))
	code := generate(t, th)
	// Each P2 part emits seven statements; every later part starts with the
	// carried offset
	require.Len(t, code.TabulateDofs, 7+1+7+1+3)
	assert.Equal(t, Assignment{"offset", "offset + m.num_entities[1]"}, code.TabulateDofs[7])
	assert.Equal(t, Assignment{"dofs[6]", "offset + c.entity_indices[0][0]"}, code.TabulateDofs[8])
	assert.Equal(t, Assignment{"dofs[14]", "offset + c.entity_indices[0][2]"}, code.TabulateDofs[18])
}

func TestTabulateDofsSkip(t *testing.T) {
	p2 := element.New(element.Lagrange, element.Triangle, 2)
	full := generate(t, p2)
	skipped := generate(t, p2, Skip(1, 1), Skip(0, 0))
	require.Len(t, skipped.TabulateDofs, len(full.TabulateDofs)-2)
	var targets []string
	for _, a := range skipped.TabulateDofs {
		targets = append(targets, a.Target)
	}
	assert.Equal(t, []string{"dofs[1]", "dofs[2]", "unsigned int offset", "dofs[3]", "dofs[5]"}, targets)
	// Numbering of the remaining dofs is unchanged
	assert.Equal(t, full.TabulateDofs[6], skipped.TabulateDofs[4])
}

func TestTabulateFacetDofs(t *testing.T) {
	code := generate(t, element.New(element.Lagrange, element.Triangle, 2))
	require.Len(t, code.TabulateFacetDofs, 3)
	assert.Equal(t, []Assignment{{"dofs[0]", "1"}, {"dofs[1]", "2"}, {"dofs[2]", "3"}}, code.TabulateFacetDofs[0])
	assert.Equal(t, []Assignment{{"dofs[0]", "0"}, {"dofs[1]", "2"}, {"dofs[2]", "4"}}, code.TabulateFacetDofs[1])
	assert.Equal(t, []Assignment{{"dofs[0]", "0"}, {"dofs[1]", "1"}, {"dofs[2]", "5"}}, code.TabulateFacetDofs[2])
}

func TestTabulateCoordinates(t *testing.T) {
	code := generate(t, element.New(element.Lagrange, element.Triangle, 2))
	coords := code.TabulateCoordinates
	assert.Equal(t, "const double * const * x = c.coordinates;", coords.Prelude)
	assert.Empty(t, coords.NotImplemented)
	require.Len(t, coords.Assignments, 12)
	assert.Equal(t, Assignment{"coordinates[0][0]", "x[0][0]"}, coords.Assignments[0])
	assert.Equal(t, Assignment{"coordinates[1][1]", "x[1][1]"}, coords.Assignments[3])
	assert.Equal(t, Assignment{"coordinates[3][0]",
		"5.000000000000000e-01*x[1][0] + 5.000000000000000e-01*x[2][0]"}, coords.Assignments[6])
	assert.Equal(t, Assignment{"coordinates[4][1]",
		"5.000000000000000e-01*x[0][1] + 5.000000000000000e-01*x[2][1]"}, coords.Assignments[9])
}

func TestTabulateCoordinatesNotImplemented(t *testing.T) {
	lay, err := element.NewLayout(element.New(element.Lagrange, element.Triangle, 1))
	require.NoError(t, err)
	lay.Points = nil
	code, err := Generate(lay, ufc)
	require.NoError(t, err)
	assert.Empty(t, code.TabulateCoordinates.Assignments)
	assert.Empty(t, code.TabulateCoordinates.Prelude)
	assert.Equal(t, `throw std::runtime_error("tabulate_coordinates not implemented for this type of element");`,
		code.TabulateCoordinates.NotImplemented)
}

type failingTabulator struct{}

func (failingTabulator) Tabulate(int, [][]float64) (basis.Table, error) {
	return nil, fmt.Errorf("no basis")
}

func TestGenerateErrors(t *testing.T) {
	var cfgErr *utils.ConfigurationError
	_, err := GenerateElement(element.New(element.Lagrange, element.Triangle, element.UnsetDegree), ufc)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Generate(&element.Layout{Element: element.New(element.Lagrange, element.Triangle, 1)}, ufc)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Generate(nil, ufc)
	assert.True(t, errors.As(err, &cfgErr))

	_, err = GenerateElement(element.New(element.Lagrange, element.Triangle, 1), ufc, WithTabulator(failingTabulator{}))
	assert.ErrorContains(t, err, "no basis")
}

func TestInnerProduct(t *testing.T) {
	tests := []struct {
		a    []float64
		b    []string
		want string
	}{
		{[]float64{0, 1, -1, 0.5, -0.25}, []string{"a", "b", "c", "d", "e"},
			"b - c + 5.000000000000000e-01*d - 2.500000000000000e-01*e"},
		{[]float64{-1, 2}, []string{"x", "y"}, "-x + 2.000000000000000e+00*y"},
		{[]float64{0.5, 0}, []string{"x", "y"}, "5.000000000000000e-01*x"},
		{[]float64{1e-17, 0}, []string{"x", "y"}, "0.000000000000000e+00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InnerProduct(tt.a, tt.b, ufc))
	}
}
