package form

import (
	"fmt"
	"strings"

	"github.com/notargets/formc/utils"
)

// Representation is the evaluation strategy of an integral
type Representation uint8

const (
	RepresentationAuto Representation = iota
	// Reference tensor contracted per cell
	RepresentationTensor
	// Integrand evaluated at quadrature points per cell
	RepresentationQuadrature
)

func (r Representation) String() string {
	switch r {
	case RepresentationAuto:
		return "auto"
	case RepresentationTensor:
		return "tensor"
	case RepresentationQuadrature:
		return "quadrature"
	}
	return fmt.Sprintf("Representation(%d)", uint8(r))
}

// Valid reports whether r is one of the defined representations
func (r Representation) Valid() bool {
	return r <= RepresentationQuadrature
}

// ParseRepresentation parses "auto", "tensor" or "quadrature"
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(s) {
	case "auto":
		return RepresentationAuto, nil
	case "tensor":
		return RepresentationTensor, nil
	case "quadrature":
		return RepresentationQuadrature, nil
	}
	return 0, utils.NewConfigurationError("representation", "unknown representation %q", s)
}

// AutoDegree requests an estimated quadrature degree
const AutoDegree = -1

// DefaultQuadratureDegree is used when no element specifies a degree
const DefaultQuadratureDegree = 1

// Field selects one metadata field
type Field uint8

const (
	FieldRepresentation Field = 1 << iota
	FieldQuadratureDegree
	FieldQuadratureRule

	AllFields = FieldRepresentation | FieldQuadratureDegree | FieldQuadratureRule
)

// Metadata is the evaluation configuration of an integral or integral group.
// Only fields that were explicitly set take part in Merge.
type Metadata struct {
	Representation   Representation
	QuadratureDegree int
	QuadratureRule   string
	set              Field
}

// WithRepresentation returns a copy of m with the representation set
func (m Metadata) WithRepresentation(r Representation) Metadata {
	m.Representation = r
	m.set |= FieldRepresentation
	return m
}

// WithQuadratureDegree returns a copy of m with the quadrature degree set;
// AutoDegree requests estimation
func (m Metadata) WithQuadratureDegree(d int) Metadata {
	m.QuadratureDegree = d
	m.set |= FieldQuadratureDegree
	return m
}

// WithQuadratureRule returns a copy of m with the quadrature rule set
func (m Metadata) WithQuadratureRule(rule string) Metadata {
	m.QuadratureRule = rule
	m.set |= FieldQuadratureRule
	return m
}

// Has reports whether all fields in f are set
func (m Metadata) Has(f Field) bool { return m.set&f == f }

// IsZero reports whether no field is set
func (m Metadata) IsZero() bool { return m.set == 0 }

// Merge overlays the set fields of over onto m
func (m Metadata) Merge(over Metadata) Metadata {
	if over.Has(FieldRepresentation) {
		m = m.WithRepresentation(over.Representation)
	}
	if over.Has(FieldQuadratureDegree) {
		m = m.WithQuadratureDegree(over.QuadratureDegree)
	}
	if over.Has(FieldQuadratureRule) {
		m = m.WithQuadratureRule(over.QuadratureRule)
	}
	return m
}

// Validate checks the representation and degree of m; subject names the
// owner in the returned ConfigurationError
func (m Metadata) Validate(subject string) error {
	if !m.Representation.Valid() {
		return utils.NewConfigurationError(subject, "illegal choice of representation: %s", m.Representation)
	}
	if m.QuadratureDegree < 0 && m.QuadratureDegree != AutoDegree {
		return utils.NewConfigurationError(subject,
			"illegal quadrature degree %d, must be auto or a non-negative integer", m.QuadratureDegree)
	}
	return nil
}

// Resolved reports whether neither representation nor degree is auto
func (m Metadata) Resolved() bool {
	return m.Representation != RepresentationAuto && m.QuadratureDegree != AutoDegree
}

func (m Metadata) String() string {
	var parts []string
	if m.Has(FieldRepresentation) {
		parts = append(parts, "representation="+m.Representation.String())
	}
	if m.Has(FieldQuadratureDegree) {
		d := "auto"
		if m.QuadratureDegree != AutoDegree {
			d = fmt.Sprintf("%d", m.QuadratureDegree)
		}
		parts = append(parts, "quadrature_degree="+d)
	}
	if m.Has(FieldQuadratureRule) {
		parts = append(parts, "quadrature_rule="+m.QuadratureRule)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Parameters is the global compiler configuration
type Parameters struct {
	Representation   Representation
	QuadratureDegree int
	QuadratureRule   string
	// Display names for forms and functions, used in diagnostics
	ObjectNames map[string]string
}

// DefaultParameters returns auto representation, auto degree and the
// "default" rule
func DefaultParameters() Parameters {
	return Parameters{
		Representation:   RepresentationAuto,
		QuadratureDegree: AutoDegree,
		QuadratureRule:   "default",
		ObjectNames:      map[string]string{},
	}
}

// Metadata returns the parameters as a metadata record with every field set
func (p Parameters) Metadata() Metadata {
	return Metadata{}.
		WithRepresentation(p.Representation).
		WithQuadratureDegree(p.QuadratureDegree).
		WithQuadratureRule(p.QuadratureRule)
}
