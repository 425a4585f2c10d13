package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"field-publisher/internal/diagnostic"
	"field-publisher/primitive"
)

var (
	ErrNoMappingFound   = errors.New("no type mapping found")
	ErrAmbiguousMapping = errors.New("more than one type mapping matches")
)

// Registry is an append-only set of mappings. Populate it fully before the
// first lookup; registering concurrently with lookups is not supported.
type Registry struct {
	mappings []TypeMapping
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds m. Overlap with existing mappings is detected by Find, not here.
func (r *Registry) Register(m TypeMapping) {
	r.mappings = append(r.mappings, m)
}

// All returns the registered mappings in registration order.
func (r *Registry) All() []TypeMapping {
	return append([]TypeMapping(nil), r.mappings...)
}

// Named returns the first mapping registered under name.
func (r *Registry) Named(name string) (TypeMapping, bool) {
	for _, m := range r.mappings {
		if m.Name() == name {
			return m, true
		}
	}

	return nil, false
}

// Names returns the names of all mappings in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.mappings))
	for i, m := range r.mappings {
		names[i] = m.Name()
	}

	return names
}

// Find returns the one mapping matching t.
func (r *Registry) Find(t reflect.Type) (TypeMapping, error) {
	var found []TypeMapping

	for _, m := range r.mappings {
		if m.Matches(t) {
			found = append(found, m)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w for %s", ErrNoMappingFound, t)
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, m := range found {
			names[i] = m.Name()
		}

		return nil, fmt.Errorf("%w for %s: %s", ErrAmbiguousMapping, t, strings.Join(names, ", "))
	}
}

// FindFor is Find for a static type.
func FindFor[T any](r *Registry) (TypeMapping, error) {
	return r.Find(reflect.TypeFor[T]())
}

// WireShapeOf returns the wire shape t is published as.
func (r *Registry) WireShapeOf(t reflect.Type) (WireShape, error) {
	m, err := r.Find(t)
	if err != nil {
		return WireShape{}, err
	}

	return m.Wire(), nil
}

// Check reports registry problems without performing lookups: duplicate
// names and mappings of the same native type are errors, scalar mappings
// that cannot carry every native value exactly are warnings.
func (r *Registry) Check() diagnostic.Diagnostics {
	var diags diagnostic.Diagnostics

	names := make(map[string]int, len(r.mappings))
	natives := make(map[reflect.Type]string, len(r.mappings))

	for _, m := range r.mappings {
		names[m.Name()]++
		if names[m.Name()] == 2 {
			diags.AddError("duplicate_name", "mapping name registered more than once", m.Name(), "")
		}

		if prev, ok := natives[m.Native()]; ok {
			diags.AddError("duplicate_native",
				fmt.Sprintf("native type %s is also mapped by %s", m.Native(), prev), m.Name(), "")
		} else {
			natives[m.Native()] = m.Name()
		}

		native := m.Native()
		if m.Family() == FamilyArray {
			native = native.Elem()
		}

		from := primitive.FromReflectType(native)
		if from == 0 {
			continue
		}

		if !primitive.IsSafe(from, m.Wire().Kind) {
			diags.AddWarning("lossy_wire",
				fmt.Sprintf("%s values may lose precision as %s", m.Native(), m.Wire()), m.Name(), "")
		}
	}

	return diags
}
