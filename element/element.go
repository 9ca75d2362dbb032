package element

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Family names a finite element family
type Family string

const (
	Lagrange              Family = "Lagrange"
	DiscontinuousLagrange Family = "Discontinuous Lagrange"
	Bubble                Family = "Bubble"
	CrouzeixRaviart       Family = "Crouzeix-Raviart"
	Quadrature            Family = "Quadrature" // Point evaluation at quadrature points
	MixedFamily           Family = "Mixed"
	EnrichedFamily        Family = "Enriched"
)

// UnsetDegree marks an element whose degree is filled in during analysis
const UnsetDegree = -1

// Kind distinguishes simple elements from composite ones
type Kind uint8

const (
	Simple Kind = iota
	// Mixed elements hold an ordered sequence of sub elements
	Mixed
	// Enriched elements hold an unordered set of component elements
	Enriched
)

// Restriction limits the support of an element
type Restriction uint8

const (
	Unrestricted Restriction = iota
	// InteriorRestriction restricts the element to the cell interior
	InteriorRestriction
	// MeasureRestriction restricts the element to a measure; used for
	// integrals computed over discontinuities
	MeasureRestriction
)

func (r Restriction) String() string {
	switch r {
	case InteriorRestriction:
		return "interior"
	case MeasureRestriction:
		return "measure"
	}
	return ""
}

// Element is an immutable finite element description. Two elements are equal
// when their canonical keys match, regardless of pointer identity.
type Element struct {
	family      Family
	cell        Cell
	degree      int
	kind        Kind
	subs        []*Element
	restriction Restriction
	key         string
}

// New creates a simple element. Use CellUnspecified and UnsetDegree to let
// analysis fill in the cell and degree from the enclosing form.
func New(family Family, cell Cell, degree int) *Element {
	if degree < UnsetDegree {
		panic(fmt.Sprintf("element: invalid degree %d", degree))
	}
	e := &Element{
		family: family,
		cell:   cell,
		degree: degree,
		kind:   Simple,
	}
	e.key = e.buildKey()
	return e
}

// NewMixed creates a mixed element from an ordered list of sub elements
func NewMixed(subs ...*Element) *Element {
	e := &Element{
		family: MixedFamily,
		kind:   Mixed,
		subs:   append([]*Element(nil), subs...),
	}
	e.key = e.buildKey()
	return e
}

// NewVector creates a vector valued element as the repetition of one scalar
// element; n <= 0 selects one component per spatial dimension.
func NewVector(family Family, cell Cell, degree, n int) *Element {
	if n <= 0 {
		n = cell.Dimension()
	}
	subs := make([]*Element, n)
	for i := range subs {
		subs[i] = New(family, cell, degree)
	}
	return NewMixed(subs...)
}

// NewEnriched creates the enrichment of a set of components. Duplicates are
// dropped and the components are kept in canonical order.
func NewEnriched(components ...*Element) *Element {
	seen := make(map[string]bool)
	var unique []*Element
	for _, c := range components {
		if !seen[c.key] {
			seen[c.key] = true
			unique = append(unique, c)
		}
	}
	slices.SortFunc(unique, Compare)
	e := &Element{
		family: EnrichedFamily,
		kind:   Enriched,
		subs:   unique,
	}
	e.key = e.buildKey()
	return e
}

// Restrict returns a copy of e restricted to the given domain
func Restrict(e *Element, r Restriction) *Element {
	out := *e
	out.subs = append([]*Element(nil), e.subs...)
	out.restriction = r
	out.key = out.buildKey()
	return &out
}

func (e *Element) Family() Family           { return e.family }
func (e *Element) Kind() Kind               { return e.kind }
func (e *Element) Restriction() Restriction { return e.restriction }
func (e *Element) Key() string              { return e.key }
func (e *Element) String() string           { return e.key }

// Cell returns the cell of the element; composite elements report the first
// concrete cell among their sub elements.
func (e *Element) Cell() Cell {
	if e.kind == Simple {
		return e.cell
	}
	for _, s := range e.subs {
		if c := s.Cell(); c != CellUnspecified {
			return c
		}
	}
	return CellUnspecified
}

// Degree returns the polynomial degree; composite elements report the
// maximum degree of their sub elements.
func (e *Element) Degree() int {
	if e.kind == Simple {
		return e.degree
	}
	d := UnsetDegree
	for _, s := range e.subs {
		d = max(d, s.Degree())
	}
	return d
}

// SubElements returns the direct sub elements (nil for simple elements)
func (e *Element) SubElements() []*Element {
	return append([]*Element(nil), e.subs...)
}

// Equal reports structural equality
func (e *Element) Equal(other *Element) bool {
	return other != nil && e.key == other.key
}

// IsResolved reports whether e and all nested elements have a concrete cell
// and degree
func (e *Element) IsResolved() bool {
	if e.kind == Simple {
		return e.cell != CellUnspecified && e.degree != UnsetDegree
	}
	for _, s := range e.subs {
		if !s.IsResolved() {
			return false
		}
	}
	return true
}

// WithDefaults returns an element equal to e except that every unset cell is
// replaced by cell and every unset degree by degree. e is left untouched.
func (e *Element) WithDefaults(cell Cell, degree int) *Element {
	if e.IsResolved() {
		return e
	}
	if e.kind == Simple {
		c, d := e.cell, e.degree
		if c == CellUnspecified {
			c = cell
		}
		if d == UnsetDegree {
			d = degree
		}
		return Restrict(New(e.family, c, d), e.restriction)
	}
	subs := make([]*Element, len(e.subs))
	for i, s := range e.subs {
		subs[i] = s.WithDefaults(cell, degree)
	}
	var out *Element
	if e.kind == Mixed {
		out = NewMixed(subs...)
	} else {
		out = NewEnriched(subs...)
	}
	return Restrict(out, e.restriction)
}

func (e *Element) buildKey() string {
	var sb strings.Builder
	switch e.kind {
	case Simple:
		deg := "?"
		if e.degree != UnsetDegree {
			deg = fmt.Sprintf("%d", e.degree)
		}
		sb.WriteString(fmt.Sprintf("%s(%s,%s)", e.family, e.cell, deg))
	case Mixed, Enriched:
		open, closing := "[", "]"
		if e.kind == Enriched {
			open, closing = "{", "}"
		}
		sb.WriteString(string(e.family))
		sb.WriteString(open)
		for i, s := range e.subs {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(s.key)
		}
		sb.WriteString(closing)
	}
	if e.restriction != Unrestricted {
		sb.WriteString("|" + e.restriction.String())
	}
	return sb.String()
}

// Compare defines the canonical total order over elements: family name, then
// degree, then cell, then restriction, then sub structure (the key).
func Compare(a, b *Element) int {
	if c := cmp.Compare(a.family, b.family); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Degree(), b.Degree()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Cell(), b.Cell()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.restriction, b.restriction); c != 0 {
		return c
	}
	return cmp.Compare(a.key, b.key)
}

// Sort orders elements canonically in place
func Sort(elements []*Element) {
	slices.SortFunc(elements, Compare)
}

// Nested returns e followed by all of its nested sub elements, depth first,
// without repeats
func Nested(e *Element) []*Element {
	var (
		out     []*Element
		visited = make(map[string]bool)
		walk    func(*Element)
	)
	walk = func(el *Element) {
		if visited[el.key] {
			return
		}
		visited[el.key] = true
		out = append(out, el)
		for _, s := range el.subs {
			walk(s)
		}
	}
	walk(e)
	return out
}

// Unique drops structurally equal repeats, keeping first occurrences
func Unique(elements []*Element) []*Element {
	seen := make(map[string]bool, len(elements))
	out := make([]*Element, 0, len(elements))
	for _, e := range elements {
		if !seen[e.key] {
			seen[e.key] = true
			out = append(out, e)
		}
	}
	return out
}
