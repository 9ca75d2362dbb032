package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const massForms = `
element "P1" {
  family = "Lagrange"
  cell   = "triangle"
  degree = 1
}

element "C" {
  family = "Lagrange"
}

form "m" {
  argument "v" {
    number  = 0
    element = "P1"
  }
  argument "u" {
    number  = 1
    element = "P1"
  }
  coefficient "c" {
    number  = 0
    element = "C"
  }
  integral {
    measure   = "dx"
    integrand = c * v * u
  }
}
`

func writeFile(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunEmitsUnit(t *testing.T) {
	forms := writeFile(t, "forms.hcl", massForms)
	params := writeFile(t, "params.hcl", `quadrature_rule = "canonical"`)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-params", params, "-prefix", "mass", "-log-level", "debug", forms}, &stdout, &stderr))

	unit := stdout.String()
	assert.Contains(t, unit, "typedef double real_t;")
	assert.Contains(t, unit, "unsigned int mass_dofmap_0_local_dimension()")
	assert.Contains(t, unit, "const double dof_coordinates_0[3][2] = {")
	assert.Contains(t, unit, "void mass_tabulate_m(real_t& m)")
	assert.Contains(t, unit, "m += t1*dx_0;")
	// The coefficient element picks up the form's cell and degree
	assert.NotContains(t, unit, "dofmap_1")
	assert.Contains(t, stderr.String(), "adjusting missing element cell and degree")
}

func TestRunLaTeX(t *testing.T) {
	forms := writeFile(t, "forms.hcl", massForms)
	out := filepath.Join(t.TempDir(), "m.tex")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-latex", "-o", out, "-log-format", "json", "-forms", forms}, &stdout, &stderr))
	assert.Empty(t, stdout.String())

	tex, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "\\begin{align}\n"+
		`t_{0} = w_{0} \cdot v_{0} \\`+"\n"+
		`t_{1} = t_{0} \cdot v_{1} \\`+"\n"+
		`m = \int_{\Omega_{0}} t_{1} dx \\`+"\n"+
		"\\end{align}\n", string(tex))
	assert.Contains(t, stderr.String(), `"msg":"wrote output"`)
}

func TestRunElementsOnly(t *testing.T) {
	forms := writeFile(t, "forms.hcl", `
element "P2" {
  family = "Lagrange"
  cell   = "tetrahedron"
  degree = 2
}
`)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{forms}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "return 10;")
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.ErrorContains(t, run(nil, &stdout, &stderr), "no form description")
	assert.True(t, errors.Is(run([]string{"-h"}, &stdout, &stderr), flag.ErrHelp))
	assert.Error(t, run([]string{filepath.Join(t.TempDir(), "missing.hcl")}, &stdout, &stderr))

	unresolved := writeFile(t, "forms.hcl", `element "E" { family = "Lagrange" }`)
	assert.ErrorContains(t, run([]string{unresolved}, &stdout, &stderr), "configuration error")
}
