package dofmap

import "math"

// Format renders the semantic operations of dof map code in a target syntax
type Format interface {
	Bool(v bool) string
	Add(terms []string) string
	Subtract(terms []string) string
	Multiply(factors []string) string
	FloatingPoint(v float64) string
	// Epsilon is the magnitude below which a coefficient counts as zero
	Epsilon() float64

	NumEntities(dim int) string
	EntityIndex(dim, entity int) string
	Dofs(i int) string
	OffsetDeclaration() string
	OffsetAccess() string

	ArgumentCoordinates() string
	ElementCoordinates(vertex, component int) string
	MatrixAccess(i, j int) string
	GetCellVertices() string
	NotImplemented(message string) string
}

// InnerProduct renders sum_i a[i]*b[i], dropping zero coefficients and
// writing unit coefficients as plain additions or subtractions
func InnerProduct(a []float64, b []string, f Format) string {
	var (
		value string
		eps   = f.Epsilon()
	)
	for i := range a {
		if math.Abs(a[i]) <= eps {
			continue
		}
		unit := math.Abs(math.Abs(a[i])-1) < eps
		if value == "" {
			switch {
			case unit && a[i] > 0:
				value = b[i]
			case unit:
				value = "-" + b[i]
			default:
				value = f.Multiply([]string{f.FloatingPoint(a[i]), b[i]})
			}
			continue
		}
		switch {
		case unit && a[i] > 0:
			value = f.Add([]string{value, b[i]})
		case unit:
			value = f.Subtract([]string{value, b[i]})
		case a[i] > 0:
			value = f.Add([]string{value, f.Multiply([]string{f.FloatingPoint(a[i]), b[i]})})
		default:
			value = f.Subtract([]string{value, f.Multiply([]string{f.FloatingPoint(-a[i]), b[i]})})
		}
	}
	if value == "" {
		return f.FloatingPoint(0)
	}
	return value
}
