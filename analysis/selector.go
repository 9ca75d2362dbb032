package analysis

import (
	"log/slog"
	"sort"

	"github.com/notargets/formc/element"
	"github.com/notargets/formc/expr"
	"github.com/notargets/formc/form"
	"github.com/notargets/formc/utils"
)

// TensorCostThreshold is the largest tensor cost for which the tensor
// representation is selected
const TensorCostThreshold = 3

// DegreeEstimator estimates the total polynomial degree of an integrand
type DegreeEstimator interface {
	EstimateTotalDegree(integrand *expr.Node, fallback int) int
}

// DegreeEstimatorFunc adapts a function to DegreeEstimator
type DegreeEstimatorFunc func(integrand *expr.Node, fallback int) int

func (fn DegreeEstimatorFunc) EstimateTotalDegree(integrand *expr.Node, fallback int) int {
	return fn(integrand, fallback)
}

// CostEstimator estimates the cost of the tensor representation of an
// integral; expr.CostUnavailable means it cannot be computed
type CostEstimator interface {
	EstimateCost(itg *form.Integral) int
}

// CostEstimatorFunc adapts a function to CostEstimator
type CostEstimatorFunc func(itg *form.Integral) int

func (fn CostEstimatorFunc) EstimateCost(itg *form.Integral) int { return fn(itg) }

// Selector chooses the representation and quadrature degree of integrals
type Selector struct {
	Cost   CostEstimator
	Degree DegreeEstimator
	Logger *slog.Logger
}

// NewSelector returns a selector using the expr estimators
func NewSelector(logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		Cost: CostEstimatorFunc(func(itg *form.Integral) int {
			return expr.EstimateCost(itg.Integrand)
		}),
		Degree: DegreeEstimatorFunc(expr.EstimateTotalDegree),
		Logger: logger,
	}
}

// SelectRepresentation picks tensor or quadrature for itg given the unique
// elements of its form. The first matching rule wins: quadrature elements,
// measure restricted elements, an unavailable cost, then the cost threshold.
func (s *Selector) SelectRepresentation(itg *form.Integral, elements []*element.Element) form.Representation {
	subs := nestedElements(elements)
	for _, e := range subs {
		if e.Family() == element.Quadrature {
			return form.RepresentationQuadrature
		}
	}
	for _, e := range subs {
		if e.Restriction() == element.MeasureRestriction {
			return form.RepresentationQuadrature
		}
	}
	cost := s.Cost.EstimateCost(itg)
	s.Logger.Debug("estimated cost of tensor representation", "integral", itg.Measure.String(), "cost", cost)
	if cost == expr.CostUnavailable {
		return form.RepresentationQuadrature
	}
	if cost <= TensorCostThreshold {
		return form.RepresentationTensor
	}
	return form.RepresentationQuadrature
}

// SelectQuadratureDegree picks the quadrature degree of itg. Under the
// quadrature representation the degree of the quadrature elements is used,
// and they must all agree; otherwise the total degree of the integrand is
// estimated.
func (s *Selector) SelectQuadratureDegree(itg *form.Integral, rep form.Representation, elements []*element.Element) (int, error) {
	if rep == form.RepresentationQuadrature {
		var degrees []int
		for _, e := range elements {
			if e.Family() == element.Quadrature {
				degrees = append(degrees, e.Degree())
			}
		}
		if len(degrees) > 0 {
			s.Logger.Debug("found quadrature elements", "integral", itg.Measure.String(), "degrees", degrees)
			sorted := append([]int(nil), degrees...)
			sort.Ints(sorted)
			if sorted[0] != sorted[len(sorted)-1] {
				return 0, &utils.InconsistentDegreeError{Subject: itg.String(), Degrees: degrees}
			}
			return degrees[0], nil
		}
	}
	q := s.Degree.EstimateTotalDegree(itg.Integrand, form.DefaultQuadratureDegree)
	s.Logger.Debug("selecting quadrature degree from total polynomial degree", "integral", itg.Measure.String(), "degree", q)
	return q, nil
}

// nestedElements expands every element into itself and its nested sub
// elements, deduplicated by key
func nestedElements(elements []*element.Element) []*element.Element {
	var all []*element.Element
	for _, e := range elements {
		all = append(all, element.Nested(e)...)
	}
	return element.Unique(all)
}
