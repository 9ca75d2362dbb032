package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/notargets/formc/element"
	"github.com/notargets/formc/expr"
	"github.com/notargets/formc/form"
	"github.com/notargets/formc/utils"
)

// hclFormsFile is the top-level structure of a form description
type hclFormsFile struct {
	Elements []*hclElement `hcl:"element,block"`
	Forms    []*hclForm    `hcl:"form,block"`
}

type hclElement struct {
	Name        string   `hcl:"name,label"`
	Family      *string  `hcl:"family,optional"`
	Cell        *string  `hcl:"cell,optional"`
	Degree      *int     `hcl:"degree,optional"`
	Components  *int     `hcl:"components,optional"`
	Mixed       []string `hcl:"mixed,optional"`
	Enriched    []string `hcl:"enriched,optional"`
	Restriction *string  `hcl:"restriction,optional"`
}

type hclTerminal struct {
	Name    string `hcl:"name,label"`
	Number  int    `hcl:"number"`
	Element string `hcl:"element"`
}

type hclIntegral struct {
	Measure          string         `hcl:"measure"`
	Subdomain        *int           `hcl:"subdomain,optional"`
	Integrand        hcl.Expression `hcl:"integrand"`
	Representation   *string        `hcl:"representation,optional"`
	QuadratureDegree hcl.Expression `hcl:"quadrature_degree,optional"`
	QuadratureRule   *string        `hcl:"quadrature_rule,optional"`
}

type hclForm struct {
	Name         string         `hcl:"name,label"`
	Arguments    []*hclTerminal `hcl:"argument,block"`
	Coefficients []*hclTerminal `hcl:"coefficient,block"`
	Integrals    []*hclIntegral `hcl:"integral,block"`
}

// Forms is the decoded content of a form description file
type Forms struct {
	// Named elements, in declaration order
	Elements     []*element.Element
	ElementNames []string
	Forms        []*form.Form
}

// LoadForms reads the element and form blocks of a description file
func LoadForms(path string) (*Forms, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decodeForms(file, path)
}

// ParseForms is LoadForms for in-memory source
func ParseForms(src []byte, filename string) (*Forms, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decodeForms(file, filename)
}

func decodeForms(file *hcl.File, filename string) (*Forms, error) {
	var raw hclFormsFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	out := &Forms{}
	elements := make(map[string]*element.Element, len(raw.Elements))
	for _, he := range raw.Elements {
		if _, dup := elements[he.Name]; dup {
			return nil, utils.NewConfigurationError("element "+he.Name, "declared twice")
		}
		e, err := he.build(elements)
		if err != nil {
			return nil, err
		}
		elements[he.Name] = e
		out.Elements = append(out.Elements, e)
		out.ElementNames = append(out.ElementNames, he.Name)
	}

	for _, hf := range raw.Forms {
		f, err := hf.build(elements)
		if err != nil {
			return nil, fmt.Errorf("form %s: %w", hf.Name, err)
		}
		out.Forms = append(out.Forms, f)
	}
	return out, nil
}

// build creates the element, resolving mixed and enriched parts among the
// elements declared before it
func (he *hclElement) build(known map[string]*element.Element) (*element.Element, error) {
	subject := "element " + he.Name
	lookup := func(names []string) ([]*element.Element, error) {
		parts := make([]*element.Element, len(names))
		for i, n := range names {
			e, ok := known[n]
			if !ok {
				return nil, utils.NewConfigurationError(subject, "unknown element %q", n)
			}
			parts[i] = e
		}
		return parts, nil
	}

	var e *element.Element
	switch {
	case len(he.Mixed) > 0 && len(he.Enriched) > 0:
		return nil, utils.NewConfigurationError(subject, "mixed and enriched are exclusive")
	case len(he.Mixed) > 0:
		parts, err := lookup(he.Mixed)
		if err != nil {
			return nil, err
		}
		e = element.NewMixed(parts...)
	case len(he.Enriched) > 0:
		parts, err := lookup(he.Enriched)
		if err != nil {
			return nil, err
		}
		e = element.NewEnriched(parts...)
	default:
		if he.Family == nil {
			return nil, utils.NewConfigurationError(subject, "family is required")
		}
		family, err := parseFamily(*he.Family)
		if err != nil {
			return nil, utils.NewConfigurationError(subject, "%v", err)
		}
		cell := element.CellUnspecified
		if he.Cell != nil {
			if cell, err = element.ParseCell(*he.Cell); err != nil {
				return nil, utils.NewConfigurationError(subject, "%v", err)
			}
		}
		degree := element.UnsetDegree
		if he.Degree != nil {
			if *he.Degree < 0 {
				return nil, utils.NewConfigurationError(subject, "negative degree %d", *he.Degree)
			}
			degree = *he.Degree
		}
		if he.Components != nil {
			if *he.Components < 1 {
				return nil, utils.NewConfigurationError(subject, "components must be positive")
			}
			e = element.NewVector(family, cell, degree, *he.Components)
		} else {
			e = element.New(family, cell, degree)
		}
	}

	if he.Restriction != nil {
		switch *he.Restriction {
		case "interior":
			e = element.Restrict(e, element.InteriorRestriction)
		case "measure":
			e = element.Restrict(e, element.MeasureRestriction)
		default:
			return nil, utils.NewConfigurationError(subject, "unknown restriction %q", *he.Restriction)
		}
	}
	return e, nil
}

func parseFamily(s string) (element.Family, error) {
	switch s {
	case "Lagrange", "CG", "P":
		return element.Lagrange, nil
	case "Discontinuous Lagrange", "DG":
		return element.DiscontinuousLagrange, nil
	case "Bubble", "B":
		return element.Bubble, nil
	case "Crouzeix-Raviart", "CR":
		return element.CrouzeixRaviart, nil
	case "Quadrature", "Q":
		return element.Quadrature, nil
	}
	return "", fmt.Errorf("unknown family %q", s)
}

func (hf *hclForm) build(elements map[string]*element.Element) (*form.Form, error) {
	symbols := make(map[string]*expr.Node)
	declare := func(t *hclTerminal, mk func(int, *element.Element) *expr.Node) error {
		if _, dup := symbols[t.Name]; dup {
			return utils.NewConfigurationError(t.Name, "declared twice")
		}
		if t.Number < 0 {
			return utils.NewConfigurationError(t.Name, "negative number %d", t.Number)
		}
		e, ok := elements[t.Element]
		if !ok {
			return utils.NewConfigurationError(t.Name, "unknown element %q", t.Element)
		}
		symbols[t.Name] = mk(t.Number, e)
		return nil
	}
	for _, a := range hf.Arguments {
		if err := declare(a, expr.Argument); err != nil {
			return nil, err
		}
	}
	for _, c := range hf.Coefficients {
		if err := declare(c, expr.Coefficient); err != nil {
			return nil, err
		}
	}

	tr := &translator{symbols: symbols}
	integrals := make([]*form.Integral, 0, len(hf.Integrals))
	for i, hi := range hf.Integrals {
		itg, err := hi.build(tr)
		if err != nil {
			return nil, fmt.Errorf("integral %d: %w", i, err)
		}
		integrals = append(integrals, itg)
	}
	return form.NewForm(hf.Name, integrals...), nil
}

func (hi *hclIntegral) build(tr *translator) (*form.Integral, error) {
	domain, err := form.ParseDomainType(hi.Measure)
	if err != nil {
		return nil, err
	}
	m := form.Measure{Domain: domain}
	if hi.Subdomain != nil {
		if *hi.Subdomain < 0 {
			return nil, utils.NewConfigurationError("measure", "negative subdomain %d", *hi.Subdomain)
		}
		m.ID = *hi.Subdomain
	}

	integrand, err := tr.translate(hi.Integrand)
	if err != nil {
		return nil, err
	}
	if !integrand.IsScalar() {
		return nil, fmt.Errorf("%s: integrand is not scalar (shape %v)", hi.Integrand.Range(), integrand.Shape())
	}

	var md form.Metadata
	if hi.Representation != nil {
		r, err := form.ParseRepresentation(*hi.Representation)
		if err != nil {
			return nil, err
		}
		md = md.WithRepresentation(r)
	}
	if hi.QuadratureDegree != nil {
		d, ok, err := quadratureDegree(hi.QuadratureDegree)
		if err != nil {
			return nil, err
		}
		if ok {
			md = md.WithQuadratureDegree(d)
		}
	}
	if hi.QuadratureRule != nil {
		md = md.WithQuadratureRule(*hi.QuadratureRule)
	}

	itg := form.NewIntegral(integrand, m)
	if !md.IsZero() {
		itg.WithMetadata(md)
	}
	return itg, nil
}
