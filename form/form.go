// Package form holds variational forms: integrals over mesh regions, their
// evaluation metadata, and the preprocessed FormData the analyzer works on.
package form

import (
	"fmt"
	"sort"

	"github.com/notargets/formc/element"
	"github.com/notargets/formc/expr"
	"github.com/notargets/formc/utils"
)

// DomainType is the kind of mesh region an integral runs over
type DomainType uint8

const (
	Cell DomainType = iota
	ExteriorFacet
	InteriorFacet
)

func (d DomainType) String() string {
	switch d {
	case Cell:
		return "cell"
	case ExteriorFacet:
		return "exterior_facet"
	case InteriorFacet:
		return "interior_facet"
	}
	return fmt.Sprintf("DomainType(%d)", uint8(d))
}

// Symbol returns the measure symbol: dx, ds or dS
func (d DomainType) Symbol() string {
	switch d {
	case ExteriorFacet:
		return "ds"
	case InteriorFacet:
		return "dS"
	}
	return "dx"
}

// ParseDomainType accepts the domain name or its measure symbol
func ParseDomainType(s string) (DomainType, error) {
	switch s {
	case "cell", "dx":
		return Cell, nil
	case "exterior_facet", "ds":
		return ExteriorFacet, nil
	case "interior_facet", "dS":
		return InteriorFacet, nil
	}
	return 0, utils.NewConfigurationError("measure", "unknown domain type %q", s)
}

// Measure identifies the region of an integral
type Measure struct {
	Domain DomainType
	ID     int
}

func (m Measure) String() string { return fmt.Sprintf("%s(%d)", m.Domain.Symbol(), m.ID) }

func (m Measure) less(o Measure) bool {
	if m.Domain != o.Domain {
		return m.Domain < o.Domain
	}
	return m.ID < o.ID
}

// Integral is one term of a form
type Integral struct {
	Integrand *expr.Node
	Measure   Measure
	// Caller override, merged over the global parameters
	Metadata Metadata
}

// NewIntegral creates an integral of integrand over m without overrides
func NewIntegral(integrand *expr.Node, m Measure) *Integral {
	return &Integral{Integrand: integrand, Measure: m}
}

// WithMetadata sets the caller metadata override
func (i *Integral) WithMetadata(md Metadata) *Integral {
	i.Metadata = md
	return i
}

func (i *Integral) String() string {
	return fmt.Sprintf("integral over %s of %s", i.Measure, i.Integrand.Key())
}

// IntegralGroup collects the integrals of one form sharing a measure. Its
// Metadata is the reconciled choice for all of them.
type IntegralGroup struct {
	Domain    DomainType
	ID        int
	Integrals []*Integral
	Metadata  Metadata
}

// Form is a named sum of integrals
type Form struct {
	Name      string
	Integrals []*Integral
	// Set once by preprocessing
	Data *FormData
}

// NewForm creates an unpreprocessed form
func NewForm(name string, integrals ...*Integral) *Form {
	return &Form{Name: name, Integrals: integrals}
}

// IsPreprocessed reports whether Data has been populated
func (f *Form) IsPreprocessed() bool { return f.Data != nil }

// FormData is the preprocessed, read-only view of a form
type FormData struct {
	Name string
	// Number of distinct arguments
	Rank int
	Cell element.Cell
	// One element per argument and coefficient, each followed by its nested
	// sub elements; repeats are kept
	SubElements []*element.Element
	// SubElements deduplicated by key, first occurrence order
	UniqueSubElements []*element.Element
	// Ordered by domain type, then subdomain id
	Groups []*IntegralGroup
}

// Preprocess builds the FormData of f. Groups are keyed by measure. When
// commonCell is unspecified the cell of the first element that has one is
// used; objectNames supplies the display name.
func Preprocess(f *Form, objectNames map[string]string, commonCell element.Cell) (*FormData, error) {
	if len(f.Integrals) == 0 {
		return nil, utils.NewConfigurationError(f.Name, "form has no integrals")
	}
	fd := &FormData{Name: f.Name, Cell: commonCell}
	if name, ok := objectNames[f.Name]; ok {
		fd.Name = name
	}

	var (
		terminals = make(map[string]bool)
		arguments = make(map[int]bool)
		groups    = make(map[Measure]*IntegralGroup)
		order     []Measure
	)
	for i, itg := range f.Integrals {
		if itg.Integrand == nil {
			return nil, utils.NewConfigurationError(fmt.Sprintf("%s integral %d", f.Name, i), "missing integrand")
		}
		expr.Walk(itg.Integrand, func(n *expr.Node) {
			switch n.Op() {
			case expr.OpArgument:
				arguments[n.Number()] = true
			case expr.OpCoefficient:
			default:
				return
			}
			if terminals[n.Key()] {
				return
			}
			terminals[n.Key()] = true
			fd.SubElements = append(fd.SubElements, withSubElements(n.Element())...)
		})
		g, ok := groups[itg.Measure]
		if !ok {
			g = &IntegralGroup{Domain: itg.Measure.Domain, ID: itg.Measure.ID}
			groups[itg.Measure] = g
			order = append(order, itg.Measure)
		}
		g.Integrals = append(g.Integrals, itg)
	}
	fd.Rank = len(arguments)
	fd.UniqueSubElements = element.Unique(fd.SubElements)

	if fd.Cell == element.CellUnspecified {
		for _, e := range fd.SubElements {
			if c := e.Cell(); c != element.CellUnspecified {
				fd.Cell = c
				break
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].less(order[j]) })
	for _, m := range order {
		fd.Groups = append(fd.Groups, groups[m])
	}
	return fd, nil
}

// WithElements returns a copy of fd in which every element, including those
// referenced by integrands, has been replaced by resolve(element). Group
// metadata is carried over.
func (fd *FormData) WithElements(resolve func(*element.Element) *element.Element) *FormData {
	out := &FormData{
		Name: fd.Name,
		Rank: fd.Rank,
		Cell: fd.Cell,
	}
	for _, e := range fd.SubElements {
		out.SubElements = append(out.SubElements, resolve(e))
	}
	out.UniqueSubElements = element.Unique(out.SubElements)
	for _, g := range fd.Groups {
		ng := &IntegralGroup{Domain: g.Domain, ID: g.ID, Metadata: g.Metadata}
		for _, itg := range g.Integrals {
			ng.Integrals = append(ng.Integrals, &Integral{
				Integrand: expr.MapElements(itg.Integrand, resolve),
				Measure:   itg.Measure,
				Metadata:  itg.Metadata,
			})
		}
		out.Groups = append(out.Groups, ng)
	}
	return out
}

// Integrals returns the integrals of all groups in group order
func (fd *FormData) Integrals() []*Integral {
	var out []*Integral
	for _, g := range fd.Groups {
		out = append(out, g.Integrals...)
	}
	return out
}

func withSubElements(e *element.Element) []*element.Element {
	out := []*element.Element{e}
	for _, s := range e.SubElements() {
		out = append(out, withSubElements(s)...)
	}
	return out
}
