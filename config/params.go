// Package config loads compiler parameters and form descriptions from HCL
// files.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/notargets/formc/form"
	"github.com/notargets/formc/utils"
)

// hclParameters is the top-level structure of a parameters file
type hclParameters struct {
	Representation   *string           `hcl:"representation,optional"`
	QuadratureDegree hcl.Expression    `hcl:"quadrature_degree,optional"`
	QuadratureRule   *string           `hcl:"quadrature_rule,optional"`
	ObjectNames      map[string]string `hcl:"object_names,optional"`
}

// LoadParameters reads a parameters file. Attributes left out keep their
// form.DefaultParameters value.
func LoadParameters(path string) (form.Parameters, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return form.Parameters{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decodeParameters(file, path)
}

// ParseParameters is LoadParameters for in-memory source
func ParseParameters(src []byte, filename string) (form.Parameters, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return form.Parameters{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeParameters(file, filename)
}

func decodeParameters(file *hcl.File, filename string) (form.Parameters, error) {
	var raw hclParameters
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return form.Parameters{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	p := form.DefaultParameters()
	if raw.Representation != nil {
		r, err := form.ParseRepresentation(*raw.Representation)
		if err != nil {
			return form.Parameters{}, err
		}
		p.Representation = r
	}
	if raw.QuadratureDegree != nil {
		d, ok, err := quadratureDegree(raw.QuadratureDegree)
		if err != nil {
			return form.Parameters{}, err
		}
		if ok {
			p.QuadratureDegree = d
		}
	}
	if raw.QuadratureRule != nil {
		p.QuadratureRule = *raw.QuadratureRule
	}
	for k, v := range raw.ObjectNames {
		p.ObjectNames[k] = v
	}
	return p, nil
}

// quadratureDegree evaluates a degree given either as a non-negative number
// or as "auto". ok is false when the attribute is absent.
func quadratureDegree(e hcl.Expression) (degree int, ok bool, err error) {
	v, diags := e.Value(nil)
	if diags.HasErrors() {
		return 0, false, fmt.Errorf("quadrature_degree: %w", diags)
	}
	if v.IsNull() {
		return 0, false, nil
	}
	switch v.Type() {
	case cty.String:
		if v.AsString() == "auto" {
			return form.AutoDegree, true, nil
		}
		return 0, false, utils.NewConfigurationError("quadrature_degree", "unknown value %q", v.AsString())
	case cty.Number:
		if err := gocty.FromCtyValue(v, &degree); err != nil {
			return 0, false, utils.NewConfigurationError("quadrature_degree", "%v", err)
		}
		if degree < 0 {
			return 0, false, utils.NewConfigurationError("quadrature_degree", "negative degree %d", degree)
		}
		return degree, true, nil
	}
	return 0, false, utils.NewConfigurationError("quadrature_degree", "expected a number or \"auto\", got %s", v.Type().FriendlyName())
}
