package mapping

import (
	"fmt"
	"reflect"

	"field-publisher/primitive"
)

// Family classifies native types for matching.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyScalar
	FamilyBoxed
	FamilyArray
	FamilyComposite
)

// String returns a human-readable family name.
func (f Family) String() string {
	switch f {
	case FamilyScalar:
		return "scalar"
	case FamilyBoxed:
		return "boxed"
	case FamilyArray:
		return "array"
	case FamilyComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// WireShape is what a mapping puts on the wire: a single primitive or a
// variable-length array of one primitive kind.
type WireShape struct {
	Kind  primitive.KindEnum
	Array bool
}

// Scalar returns the shape of a single value of kind.
func Scalar(kind primitive.KindEnum) WireShape {
	return WireShape{Kind: kind}
}

// ArrayOf returns the shape of an array of kind.
func ArrayOf(kind primitive.KindEnum) WireShape {
	return WireShape{Kind: kind, Array: true}
}

// TypeString is the remote store type string, e.g. "double" or "double[]".
func (s WireShape) TypeString() string {
	if s.Array {
		return s.Kind.Name() + "[]"
	}

	return s.Kind.Name()
}

// GoType is the Go type carrying wire values of this shape.
func (s WireShape) GoType() reflect.Type {
	if s.Array {
		return reflect.SliceOf(s.Kind.GoType())
	}

	return s.Kind.GoType()
}

// String returns the type string.
func (s WireShape) String() string {
	return s.TypeString()
}

// TypeMapping converts between one native type family and one wire shape.
type TypeMapping interface {
	Name() string
	Family() Family
	Native() reflect.Type
	Wire() WireShape
	Matches(t reflect.Type) bool
	ToWire(native any, cfg *Configuration) (any, error)
	FromWire(wire any, cfg *Configuration) (any, error)
}

// Typed is a TypeMapping backed by two statically typed functions.
type Typed[N, W any] struct {
	name   string
	family Family
	wire   WireShape
	to     func(N, *Configuration) W
	from   func(W, *Configuration) N
}

var _ TypeMapping = (*Typed[float64, float64])(nil)

// New creates a mapping from native N to wire W. W must be the Go carrier of
// wire (see WireShape.GoType).
func New[N, W any](
	name string, family Family, wire WireShape,
	to func(N, *Configuration) W, from func(W, *Configuration) N,
) *Typed[N, W] {
	if reflect.TypeFor[W]() != wire.GoType() {
		panic(fmt.Sprintf("mapping %s: wire carrier %s does not match shape %s",
			name, reflect.TypeFor[W](), wire))
	}

	return &Typed[N, W]{name: name, family: family, wire: wire, to: to, from: from}
}

func (m *Typed[N, W]) Name() string         { return m.name }
func (m *Typed[N, W]) Family() Family       { return m.family }
func (m *Typed[N, W]) Native() reflect.Type { return reflect.TypeFor[N]() }
func (m *Typed[N, W]) Wire() WireShape      { return m.wire }

func (m *Typed[N, W]) Matches(t reflect.Type) bool {
	return matches(m.family, m.Native(), t)
}

// Encode is the statically typed form of ToWire.
func (m *Typed[N, W]) Encode(v N, cfg *Configuration) W {
	return m.to(v, cfg)
}

// Decode is the statically typed form of FromWire.
func (m *Typed[N, W]) Decode(w W, cfg *Configuration) N {
	return m.from(w, cfg)
}

func (m *Typed[N, W]) ToWire(native any, cfg *Configuration) (any, error) {
	if native == nil {
		var zero N
		return m.to(zero, cfg), nil
	}

	v, ok := native.(N)
	if !ok {
		return nil, fmt.Errorf("mapping %s: native value %T is not %s", m.name, native, m.Native())
	}

	return m.to(v, cfg), nil
}

func (m *Typed[N, W]) FromWire(wire any, cfg *Configuration) (any, error) {
	w, ok := wire.(W)
	if !ok && !m.wire.Array {
		coerced, err := primitive.Coerce(wire, m.wire.Kind, primitive.CategorySafeNumber)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", m.name, err)
		}

		w, ok = coerced.(W)
	}

	if !ok {
		return nil, fmt.Errorf("mapping %s: wire value %T is not %s", m.name, wire, m.wire)
	}

	return m.from(w, cfg), nil
}

func matches(family Family, native, t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch family {
	case FamilyScalar, FamilyBoxed:
		return t == native
	case FamilyArray:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return false
		}

		return t.Elem() == native.Elem()
	case FamilyComposite:
		if t == native {
			return true
		}

		if native.Kind() == reflect.Interface || t.Kind() == reflect.Interface {
			return t.AssignableTo(native) || native.AssignableTo(t)
		}

		return false
	default:
		return false
	}
}
