package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/formc/element"
	"github.com/notargets/formc/expr"
	"github.com/notargets/formc/form"
	"github.com/notargets/formc/utils"
)

func TestParseParameters(t *testing.T) {
	p, err := ParseParameters([]byte(`
representation    = "quadrature"
quadrature_degree = 4
quadrature_rule   = "canonical"
object_names = {
  a = "stiffness"
}
`), "params.hcl")
	require.NoError(t, err)
	assert.Equal(t, form.RepresentationQuadrature, p.Representation)
	assert.Equal(t, 4, p.QuadratureDegree)
	assert.Equal(t, "canonical", p.QuadratureRule)
	assert.Equal(t, map[string]string{"a": "stiffness"}, p.ObjectNames)
}

func TestParseParametersDefaults(t *testing.T) {
	p, err := ParseParameters([]byte(`quadrature_degree = "auto"`), "params.hcl")
	require.NoError(t, err)
	assert.Equal(t, form.DefaultParameters(), p)

	p, err = ParseParameters(nil, "empty.hcl")
	require.NoError(t, err)
	assert.Equal(t, form.DefaultParameters(), p)
}

func TestParseParametersErrors(t *testing.T) {
	var cfgErr *utils.ConfigurationError
	for _, src := range []string{
		`representation = "spectral"`,
		`quadrature_degree = -2`,
		`quadrature_degree = 1.5`,
		`quadrature_degree = "high"`,
		`quadrature_degree = true`,
	} {
		_, err := ParseParameters([]byte(src), "params.hcl")
		assert.True(t, errors.As(err, &cfgErr), src)
	}

	_, err := ParseParameters([]byte(`unknown = 1`), "params.hcl")
	assert.ErrorContains(t, err, "failed to decode")
	_, err = ParseParameters([]byte(`representation = `), "params.hcl")
	assert.ErrorContains(t, err, "failed to parse")
}

func TestLoadParametersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`representation = "tensor"`), 0o644))
	p, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, form.RepresentationTensor, p.Representation)

	_, err = LoadParameters(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.Error(t, err)
}

const poisson = `
element "P1" {
  family = "Lagrange"
  cell   = "triangle"
  degree = 1
}

element "V" {
  family     = "CG"
  cell       = "triangle"
  degree     = 2
  components = 2
}

element "TH" {
  mixed = ["V", "P1"]
}

element "R" {
  family = "DG"
}

form "a" {
  argument "v" {
    number  = 0
    element = "P1"
  }
  argument "u" {
    number  = 1
    element = "P1"
  }
  coefficient "k" {
    number  = 0
    element = "R"
  }

  integral {
    measure   = "dx"
    integrand = k * (dx(v, 0) * dx(u, 0) + dx(v, 1) * dx(u, 1))
  }

  integral {
    measure           = "exterior_facet"
    subdomain         = 2
    integrand         = -v * u
    representation    = "quadrature"
    quadrature_degree = 3
  }
}

form "L" {
  argument "q" {
    number  = 0
    element = "TH"
  }
  coefficient "f" {
    number  = 0
    element = "P1"
  }

  integral {
    measure   = "dx"
    integrand = variable(q[1] - f, "g") / sqrt(abs(pow(f, 2)))
  }
}
`

func TestParseForms(t *testing.T) {
	fs, err := ParseForms([]byte(poisson), "forms.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "V", "TH", "R"}, fs.ElementNames)
	p1 := element.New(element.Lagrange, element.Triangle, 1)
	vec := element.NewVector(element.Lagrange, element.Triangle, 2, 2)
	assert.True(t, fs.Elements[0].Equal(p1))
	assert.True(t, fs.Elements[2].Equal(element.NewMixed(vec, p1)))
	assert.Equal(t, element.UnsetDegree, fs.Elements[3].Degree())
	assert.Equal(t, element.CellUnspecified, fs.Elements[3].Cell())

	require.Len(t, fs.Forms, 2)
	a := fs.Forms[0]
	assert.Equal(t, "a", a.Name)
	require.Len(t, a.Integrals, 2)

	v, u := expr.Argument(0, p1), expr.Argument(1, p1)
	k := expr.Coefficient(0, fs.Elements[3])
	want := expr.MustNode(expr.Product(k, expr.MustNode(expr.Sum(
		expr.MustNode(expr.Product(expr.Derivative(v, 0), expr.Derivative(u, 0))),
		expr.MustNode(expr.Product(expr.Derivative(v, 1), expr.Derivative(u, 1))),
	))))
	assert.Equal(t, want.Key(), a.Integrals[0].Integrand.Key())
	assert.True(t, a.Integrals[0].Metadata.IsZero())

	facet := a.Integrals[1]
	assert.Equal(t, form.Measure{Domain: form.ExteriorFacet, ID: 2}, facet.Measure)
	assert.Equal(t, form.RepresentationQuadrature, facet.Metadata.Representation)
	assert.Equal(t, 3, facet.Metadata.QuadratureDegree)
	assert.False(t, facet.Metadata.Has(form.FieldQuadratureRule))
	assert.Equal(t, []int{0, 1}, expr.Arguments(facet.Integrand))

	L := fs.Forms[1].Integrals[0].Integrand
	assert.Equal(t, expr.OpDivision, L.Op())
	assert.Equal(t, expr.OpVariable, L.Operands()[0].Op())
	assert.Equal(t, "g", L.Operands()[0].Label())
	assert.Equal(t, expr.OpSqrt, L.Operands()[1].Op())
}

func TestParseFormsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown family", `element "E" { family = "Nedelec" }`, "unknown family"},
		{"unknown cell", `element "E" {
  family = "CG"
  cell   = "hexahedron"
}`, "unknown cell"},
		{"unknown part", `element "E" { mixed = ["P"] }`, `unknown element "P"`},
		{"duplicate element", `element "E" { family = "CG" }
element "E" { family = "DG" }`, "declared twice"},
		{"unknown symbol", `form "a" {
  integral {
    measure   = "dx"
    integrand = v
  }
}`, `unknown symbol "v"`},
		{"unknown function", `element "E" { family = "CG" }
form "a" {
  argument "v" {
    number  = 0
    element = "E"
  }
  integral {
    measure   = "dx"
    integrand = grad(v)
  }
}`, `unknown function "grad"`},
		{"non-scalar product", `element "P" { family = "CG" }
element "M" { mixed = ["P", "P"] }
form "a" {
  argument "v" {
    number  = 0
    element = "M"
  }
  integral {
    measure   = "dx"
    integrand = v * v
  }
}`, "scalar"},
		{"non-scalar integrand", `element "P" { family = "CG" }
element "M" { mixed = ["P", "P"] }
form "a" {
  argument "v" {
    number  = 0
    element = "M"
  }
  integral {
    measure   = "dx"
    integrand = v
  }
}`, "integrand is not scalar"},
		{"unknown measure", `form "a" {
  integral {
    measure   = "dX"
    integrand = 1
  }
}`, "unknown domain type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForms([]byte(tt.src), "forms.hcl")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
