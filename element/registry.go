package element

import "fmt"

// Registry numbers a set of unique elements in canonical order. Numbering is
// only stable within one analysis run.
type Registry struct {
	elements []*Element
	ids      map[string]int
}

// NewRegistry deduplicates elements by structural equality, sorts them
// canonically and assigns ids 0..N-1.
func NewRegistry(elements []*Element) *Registry {
	unique := Unique(elements)
	Sort(unique)
	r := &Registry{
		elements: unique,
		ids:      make(map[string]int, len(unique)),
	}
	for i, e := range unique {
		r.ids[e.key] = i
	}
	return r
}

// NewNestedRegistry is NewRegistry over the full nested expansion of every
// element
func NewNestedRegistry(elements []*Element) *Registry {
	var all []*Element
	for _, e := range elements {
		all = append(all, Nested(e)...)
	}
	return NewRegistry(all)
}

// ID returns the number of any element structurally equal to e
func (r *Registry) ID(e *Element) (int, bool) {
	id, ok := r.ids[e.key]
	return id, ok
}

// MustID is ID for elements known to be registered
func (r *Registry) MustID(e *Element) int {
	id, ok := r.ids[e.key]
	if !ok {
		panic(fmt.Sprintf("element %s is not registered", e.key))
	}
	return id
}

// Elements returns the registered elements in id order
func (r *Registry) Elements() []*Element {
	return append([]*Element(nil), r.elements...)
}

// Len returns the number of registered elements
func (r *Registry) Len() int { return len(r.elements) }

// Map returns the element key to id mapping
func (r *Registry) Map() map[string]int {
	out := make(map[string]int, len(r.ids))
	for k, v := range r.ids {
		out[k] = v
	}
	return out
}
