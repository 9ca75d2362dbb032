// Package format provides target syntaxes for the code generators: a C++
// syntax following the UFC interface conventions, and LaTeX.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notargets/formc/form"
)

// UFC renders C++ statements using the names of the UFC dof map and
// integral interfaces. Scalars are declared as real_t, see builder.
type UFC struct {
	// Type of temporaries; "real_t" when empty
	RealType string
}

func (u UFC) realType() string {
	if u.RealType == "" {
		return "real_t"
	}
	return u.RealType
}

func (UFC) Bool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (UFC) Add(terms []string) string        { return strings.Join(terms, " + ") }
func (UFC) Subtract(terms []string) string   { return strings.Join(terms, " - ") }
func (UFC) Multiply(factors []string) string { return strings.Join(factors, "*") }
func (UFC) FloatingPoint(v float64) string   { return fmt.Sprintf("%.15e", v) }
func (UFC) Epsilon() float64                 { return 1e-14 }

func (UFC) NumEntities(dim int) string { return fmt.Sprintf("m.num_entities[%d]", dim) }
func (UFC) EntityIndex(dim, entity int) string {
	return fmt.Sprintf("c.entity_indices[%d][%d]", dim, entity)
}
func (UFC) Dofs(i int) string            { return fmt.Sprintf("dofs[%d]", i) }
func (UFC) OffsetDeclaration() string    { return "unsigned int offset" }
func (UFC) OffsetAccess() string         { return "offset" }
func (UFC) ArgumentCoordinates() string  { return "coordinates" }
func (UFC) MatrixAccess(i, j int) string { return fmt.Sprintf("[%d][%d]", i, j) }
func (UFC) ElementCoordinates(vertex, component int) string {
	return fmt.Sprintf("x[%d][%d]", vertex, component)
}
func (UFC) GetCellVertices() string { return "const double * const * x = c.coordinates;" }
func (UFC) NotImplemented(message string) string {
	return fmt.Sprintf("throw std::runtime_error(%q);", message)
}

// Expression rules

func (UFC) Argument(number int) string    { return fmt.Sprintf("v%d", number) }
func (UFC) Coefficient(number int) string { return fmt.Sprintf("w%d", number) }
func (UFC) Constant(value float64) string {
	s := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
func (UFC) Indexed(operand string, component int) string {
	return fmt.Sprintf("%s[%d]", operand, component)
}
func (UFC) Derivative(operand string, direction int) string {
	return fmt.Sprintf("D%d(%s)", direction, operand)
}
func (UFC) Sum(operands []string) string     { return strings.Join(operands, " + ") }
func (UFC) Product(operands []string) string { return strings.Join(operands, "*") }
func (UFC) Division(numerator, denominator string) string {
	return numerator + "/" + denominator
}
func (UFC) Power(base, exponent string) string { return fmt.Sprintf("std::pow(%s, %s)", base, exponent) }
func (UFC) Sqrt(operand string) string         { return fmt.Sprintf("std::sqrt(%s)", operand) }
func (UFC) Abs(operand string) string          { return fmt.Sprintf("std::abs(%s)", operand) }
func (UFC) Temporary(n int) string             { return fmt.Sprintf("t%d", n) }

func (u UFC) Assign(target, value string) string {
	return fmt.Sprintf("const %s %s = %s;", u.realType(), target, value)
}

// Integral weights the integrand by the measure of its subdomain
func (UFC) Integral(domain form.DomainType, id int, integrand string) string {
	return fmt.Sprintf("%s*%s_%d", integrand, domain.Symbol(), id)
}

func (UFC) Separator() string { return " + " }

// Statement renders a plain assignment without declaration
func (UFC) Statement(target, value string) string {
	return fmt.Sprintf("%s = %s;", target, value)
}
