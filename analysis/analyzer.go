// Package analysis prepares forms for code generation: it resolves element
// defaults, picks the representation and quadrature degree of every integral,
// reconciles them per integral group, and numbers the elements.
package analysis

import (
	"fmt"
	"log/slog"

	"github.com/notargets/formc/element"
	"github.com/notargets/formc/form"
	"github.com/notargets/formc/utils"
)

// Preprocessor builds the FormData of a form
type Preprocessor interface {
	Preprocess(f *form.Form, objectNames map[string]string, commonCell element.Cell) (*form.FormData, error)
}

// PreprocessorFunc adapts a function to Preprocessor
type PreprocessorFunc func(f *form.Form, objectNames map[string]string, commonCell element.Cell) (*form.FormData, error)

func (fn PreprocessorFunc) Preprocess(f *form.Form, objectNames map[string]string, commonCell element.Cell) (*form.FormData, error) {
	return fn(f, objectNames, commonCell)
}

// Result of an analysis run
type Result struct {
	Forms    []*form.Form
	Elements []*element.Element // Canonical order; index is the element id
	Registry *element.Registry
}

// Analyzer drives preprocessing, element back-fill and metadata extraction
type Analyzer struct {
	Preprocessor Preprocessor
	Selector     *Selector
	// Cell handed to the preprocessor; unspecified lets each form decide
	CommonCell element.Cell
	Logger     *slog.Logger
}

// NewAnalyzer returns an analyzer wired to form.Preprocess and the expr
// estimators. A nil logger uses slog.Default().
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		Preprocessor: PreprocessorFunc(form.Preprocess),
		Selector:     NewSelector(logger),
		Logger:       logger,
	}
}

// AnalyzeForms preprocesses each form that has no FormData yet, resolves its
// element defaults and integral metadata, and numbers the union of the unique
// sub elements of all forms.
func (a *Analyzer) AnalyzeForms(forms []*form.Form, params form.Parameters) (*Result, error) {
	var elements []*element.Element
	for _, f := range forms {
		if err := a.analyzeForm(f, params); err != nil {
			return nil, fmt.Errorf("analyzing form %s: %w", f.Name, err)
		}
		elements = append(elements, f.Data.UniqueSubElements...)
	}
	registry := element.NewRegistry(elements)
	a.Logger.Info("analyzed forms", "forms", len(forms), "elements", registry.Len())
	return &Result{
		Forms:    forms,
		Elements: registry.Elements(),
		Registry: registry,
	}, nil
}

// AnalyzeElements numbers the given elements and all of their nested sub
// elements
func (a *Analyzer) AnalyzeElements(elements []*element.Element) (*Result, error) {
	for _, e := range elements {
		if !e.IsResolved() {
			return nil, utils.NewConfigurationError(e.Key(), "element cell and degree must be set")
		}
	}
	registry := element.NewNestedRegistry(elements)
	a.Logger.Info("analyzed elements", "elements", registry.Len())
	return &Result{
		Elements: registry.Elements(),
		Registry: registry,
	}, nil
}

func (a *Analyzer) analyzeForm(f *form.Form, params form.Parameters) error {
	if !f.IsPreprocessed() {
		fd, err := a.Preprocessor.Preprocess(f, params.ObjectNames, a.CommonCell)
		if err != nil {
			return err
		}
		f.Data = fd
	}
	fd, err := a.adjustElements(f.Data)
	if err != nil {
		return err
	}
	f.Data = fd
	return a.extractMetadata(fd, params)
}

// adjustElements returns fd with every element's missing cell and degree
// filled in from the form's cell and the largest specified degree
func (a *Analyzer) adjustElements(fd *form.FormData) (*form.FormData, error) {
	if fd.Cell == element.CellUnspecified {
		return nil, utils.NewConfigurationError(fd.Name, "missing cell definition in form")
	}
	degree, unresolved := element.UnsetDegree, 0
	for _, e := range fd.SubElements {
		degree = max(degree, e.Degree())
		if !e.IsResolved() {
			unresolved++
		}
	}
	if degree == element.UnsetDegree {
		degree = form.DefaultQuadratureDegree
	}
	if unresolved == 0 {
		return fd, nil
	}
	for _, e := range fd.UniqueSubElements {
		if !e.IsResolved() {
			a.Logger.Info("adjusting missing element cell and degree",
				"form", fd.Name, "element", e.Key(), "cell", fd.Cell.String(), "degree", degree)
		}
	}
	return fd.WithElements(func(e *element.Element) *element.Element {
		return e.WithDefaults(fd.Cell, degree)
	}), nil
}

// extractMetadata resolves the metadata of every integral and stores the
// reconciled result on each group
func (a *Analyzer) extractMetadata(fd *form.FormData, params form.Parameters) error {
	defaults := params.Metadata()
	for _, g := range fd.Groups {
		resolved := make([]form.Metadata, len(g.Integrals))
		for i, itg := range g.Integrals {
			subject := fmt.Sprintf("%s integral %d of %s", fd.Name, i, itg.Measure)
			md, err := a.resolveIntegral(subject, itg, defaults.Merge(itg.Metadata), fd.UniqueSubElements)
			if err != nil {
				return err
			}
			resolved[i] = md
		}
		g.Metadata = a.reconcile(fd.Name, g, resolved, params)
	}
	return nil
}

func (a *Analyzer) resolveIntegral(subject string, itg *form.Integral, md form.Metadata,
	elements []*element.Element) (form.Metadata, error) {
	if err := md.Validate(subject); err != nil {
		return md, err
	}
	if md.Representation == form.RepresentationAuto {
		md = md.WithRepresentation(a.Selector.SelectRepresentation(itg, elements))
		a.Logger.Info("representation: auto", "integral", subject, "selected", md.Representation.String())
	} else {
		a.Logger.Info("representation", "integral", subject, "value", md.Representation.String())
	}
	if md.QuadratureDegree == form.AutoDegree {
		q, err := a.Selector.SelectQuadratureDegree(itg, md.Representation, elements)
		if err != nil {
			return md, err
		}
		if q < 0 {
			return md, utils.NewConfigurationError(subject, "estimated quadrature degree %d is negative", q)
		}
		md = md.WithQuadratureDegree(q)
		a.Logger.Info("quadrature degree: auto", "integral", subject, "selected", q)
	} else {
		a.Logger.Info("quadrature degree", "integral", subject, "value", md.QuadratureDegree)
	}
	return md, nil
}

// reconcile merges the resolved metadata of a group. A single integral is
// taken verbatim; otherwise differing representations fall back to
// quadrature and differing degrees to their maximum.
func (a *Analyzer) reconcile(formName string, g *form.IntegralGroup, resolved []form.Metadata,
	params form.Parameters) form.Metadata {
	if len(resolved) == 1 {
		return resolved[0]
	}
	rep, degree := resolved[0].Representation, resolved[0].QuadratureDegree
	sameRep, sameDegree := true, true
	for _, md := range resolved[1:] {
		sameRep = sameRep && md.Representation == rep
		sameDegree = sameDegree && md.QuadratureDegree == degree
		degree = max(degree, md.QuadratureDegree)
	}
	group := fmt.Sprintf("%s(%d)", g.Domain.Symbol(), g.ID)
	if !sameRep {
		rep = form.RepresentationQuadrature
		a.Logger.Warn("integral representation must be equal within each sub domain",
			"form", formName, "group", group, "using", rep.String())
	}
	if !sameDegree {
		a.Logger.Warn("quadrature degree must be equal within each sub domain",
			"form", formName, "group", group, "using", degree)
	}
	return form.Metadata{}.
		WithRepresentation(rep).
		WithQuadratureDegree(degree).
		WithQuadratureRule(params.QuadratureRule)
}
