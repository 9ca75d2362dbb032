package form

import (
	"errors"
	"testing"

	"github.com/notargets/formc/element"
	"github.com/notargets/formc/expr"
	"github.com/notargets/formc/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataMerge(t *testing.T) {
	defaults := DefaultParameters().Metadata()
	assert.True(t, defaults.Has(AllFields))
	assert.Equal(t, RepresentationAuto, defaults.Representation)
	assert.Equal(t, AutoDegree, defaults.QuadratureDegree)

	over := Metadata{}.WithQuadratureDegree(4)
	assert.True(t, over.Has(FieldQuadratureDegree))
	assert.False(t, over.Has(FieldRepresentation))

	merged := defaults.Merge(over)
	assert.Equal(t, 4, merged.QuadratureDegree)
	assert.Equal(t, RepresentationAuto, merged.Representation)
	assert.Equal(t, "default", merged.QuadratureRule)
	assert.Equal(t, "{representation=auto, quadrature_degree=4, quadrature_rule=default}", merged.String())

	// The receiver is not modified
	assert.Equal(t, AutoDegree, defaults.QuadratureDegree)
	assert.True(t, Metadata{}.IsZero())
}

func TestMetadataValidate(t *testing.T) {
	var cfgErr *utils.ConfigurationError
	assert.NoError(t, Metadata{}.WithQuadratureDegree(AutoDegree).Validate("a"))
	assert.NoError(t, Metadata{}.WithQuadratureDegree(0).Validate("a"))

	err := Metadata{}.WithQuadratureDegree(-3).Validate("integral 0")
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "integral 0", cfgErr.Subject)

	err = Metadata{}.WithRepresentation(Representation(9)).Validate("integral 1")
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseRepresentation(t *testing.T) {
	for _, r := range []Representation{RepresentationAuto, RepresentationTensor, RepresentationQuadrature} {
		got, err := ParseRepresentation(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRepresentation("uflacs")
	assert.Error(t, err)
}

func TestPreprocess(t *testing.T) {
	p2 := element.New(element.Lagrange, element.CellUnspecified, 2)
	th := element.NewMixed(p2, element.New(element.Lagrange, element.Triangle, 1))
	v, u := expr.Argument(0, p2), expr.Argument(1, p2)
	w := expr.Coefficient(0, th)
	w0 := expr.MustNode(expr.Indexed(w, 0))

	boundary := NewIntegral(expr.MustNode(expr.Product(v, w0)), Measure{ExteriorFacet, 0})
	cell1 := NewIntegral(expr.MustNode(expr.Product(v, u)), Measure{Cell, 1})
	cell0 := NewIntegral(expr.MustNode(expr.Product(expr.Derivative(v, 0), expr.Derivative(u, 0))), Measure{Cell, 0})
	cell0b := NewIntegral(expr.MustNode(expr.Product(v, u, w0)), Measure{Cell, 0})
	f := NewForm("a", boundary, cell1, cell0, cell0b)

	fd, err := Preprocess(f, map[string]string{"a": "bilinear"}, element.CellUnspecified)
	require.NoError(t, err)
	assert.Equal(t, "bilinear", fd.Name)
	assert.Equal(t, 2, fd.Rank)
	// v, w (+2 subs), u
	assert.Len(t, fd.SubElements, 5)
	assert.Len(t, fd.UniqueSubElements, 3)
	assert.Equal(t, element.Triangle, fd.Cell)

	require.Len(t, fd.Groups, 3)
	assert.Equal(t, Measure{Cell, 0}, Measure{fd.Groups[0].Domain, fd.Groups[0].ID})
	assert.Equal(t, []*Integral{cell0, cell0b}, fd.Groups[0].Integrals)
	assert.Equal(t, 1, fd.Groups[1].ID)
	assert.Equal(t, ExteriorFacet, fd.Groups[2].Domain)
	assert.Len(t, fd.Integrals(), 4)
}

func TestPreprocessErrors(t *testing.T) {
	_, err := Preprocess(NewForm("empty"), nil, element.Triangle)
	var cfgErr *utils.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))

	_, err = Preprocess(NewForm("nil", &Integral{}), nil, element.Triangle)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestWithElements(t *testing.T) {
	unset := element.New(element.Lagrange, element.CellUnspecified, element.UnsetDegree)
	itg := NewIntegral(expr.MustNode(expr.Product(expr.Argument(0, unset), expr.Argument(1, unset))), Measure{Cell, 0}).
		WithMetadata(Metadata{}.WithRepresentation(RepresentationTensor))
	fd, err := Preprocess(NewForm("m", itg), nil, element.Tetrahedron)
	require.NoError(t, err)
	fd.Groups[0].Metadata = Metadata{}.WithQuadratureDegree(2)

	resolved := fd.WithElements(func(e *element.Element) *element.Element {
		return e.WithDefaults(fd.Cell, 1)
	})
	for _, e := range resolved.SubElements {
		assert.True(t, e.IsResolved())
	}
	require.Len(t, resolved.UniqueSubElements, 1)
	assert.Equal(t, "Lagrange(tetrahedron,1)", resolved.UniqueSubElements[0].Key())
	for _, e := range expr.Elements(resolved.Groups[0].Integrals[0].Integrand) {
		assert.True(t, e.IsResolved())
	}
	assert.Equal(t, RepresentationTensor, resolved.Groups[0].Integrals[0].Metadata.Representation)
	assert.Equal(t, 2, resolved.Groups[0].Metadata.QuadratureDegree)

	// Source data is untouched
	assert.False(t, fd.SubElements[0].IsResolved())
}
