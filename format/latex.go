package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notargets/formc/form"
)

// LaTeX renders integrands as an aligned LaTeX derivation
type LaTeX struct{}

func (LaTeX) Argument(number int) string    { return fmt.Sprintf("v_{%d}", number) }
func (LaTeX) Coefficient(number int) string { return fmt.Sprintf("w_{%d}", number) }
func (LaTeX) Constant(value float64) string { return strconv.FormatFloat(value, 'g', -1, 64) }

func (LaTeX) Indexed(operand string, component int) string {
	return fmt.Sprintf("{%s}_{%d}", operand, component)
}

func (LaTeX) Derivative(operand string, direction int) string {
	return fmt.Sprintf(`\frac{\partial %s}{\partial x_{%d}}`, operand, direction)
}

func (LaTeX) Sum(operands []string) string     { return strings.Join(operands, " + ") }
func (LaTeX) Product(operands []string) string { return strings.Join(operands, ` \cdot `) }

func (LaTeX) Division(numerator, denominator string) string {
	return fmt.Sprintf(`\frac{%s}{%s}`, numerator, denominator)
}

func (LaTeX) Power(base, exponent string) string { return fmt.Sprintf("{%s}^{%s}", base, exponent) }
func (LaTeX) Sqrt(operand string) string         { return fmt.Sprintf(`\sqrt{%s}`, operand) }
func (LaTeX) Abs(operand string) string          { return fmt.Sprintf(`\left|%s\right|`, operand) }
func (LaTeX) Temporary(n int) string             { return fmt.Sprintf("t_{%d}", n) }

func (LaTeX) Assign(target, value string) string {
	return fmt.Sprintf(`%s = %s \\`, target, value)
}

// Integral writes \int over the cell, boundary or interior facet domain
func (LaTeX) Integral(domain form.DomainType, id int, integrand string) string {
	var region string
	switch domain {
	case form.ExteriorFacet:
		region = fmt.Sprintf(`\partial\Omega_{%d}`, id)
	case form.InteriorFacet:
		region = fmt.Sprintf(`\Gamma_{%d}`, id)
	default:
		region = fmt.Sprintf(`\Omega_{%d}`, id)
	}
	return fmt.Sprintf(`\int_{%s} %s %s`, region, integrand, domain.Symbol())
}

func (LaTeX) Separator() string { return "\\\\\n    &+" }

// Document wraps rendered lines in an align environment
func (LaTeX) Document(lines []string) string {
	var sb strings.Builder
	sb.WriteString("\\begin{align}\n")
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("\\end{align}\n")
	return sb.String()
}
