// Package entry binds native values to remotely observable keys.
//
// A Slot is one remote primitive (or primitive array) value. A Binding puts a
// mapping.TypeMapping in front of a slot so native values can be published
// and retrieved; Entry is its statically typed form.
package entry

import (
	"errors"
	"fmt"
	"reflect"

	"field-publisher/kv"
	"field-publisher/mapping"
	"field-publisher/primitive"
)

var ErrClosed = errors.New("entry closed")

// Slot is one typed remote key. Reads of a key that disappeared remotely
// return the last value seen.
type Slot struct {
	store  kv.Store
	key    string
	shape  mapping.WireShape
	typ    kv.Type
	last   any
	closed bool
}

// NewSlot publishes initial under key and returns the slot owning it.
func NewSlot(store kv.Store, key string, shape mapping.WireShape, initial any) (*Slot, error) {
	s := &Slot{store: store, key: key, shape: shape, typ: wireType(shape)}

	if err := s.Set(initial); err != nil {
		return nil, err
	}

	return s, nil
}

func wireType(shape mapping.WireShape) kv.Type {
	if shape.Array {
		return kv.ArrayType(shape.Kind)
	}

	return kv.PrimitiveType(shape.Kind)
}

func (s *Slot) Key() string              { return s.key }
func (s *Slot) Shape() mapping.WireShape { return s.shape }
func (s *Slot) Type() kv.Type            { return s.typ }

// Set publishes v. Scalars are coerced to the kind's carrier when the
// conversion is lossless.
func (s *Slot) Set(v any) error {
	if s.closed {
		return fmt.Errorf("set %s: %w", s.key, ErrClosed)
	}

	data, err := s.carrier(v)
	if err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}

	if err := s.store.Set(s.key, kv.Value{Type: s.typ, Data: data}); err != nil {
		return err
	}

	s.last = data

	return nil
}

// Get returns the current remote value, or the last value seen when the key
// is missing.
func (s *Slot) Get() (any, error) {
	if s.closed {
		return nil, fmt.Errorf("get %s: %w", s.key, ErrClosed)
	}

	data, err := kv.GetAs(s.store, s.key, s.typ)
	if errors.Is(err, kv.ErrNotFound) {
		return s.last, nil
	}

	if err != nil {
		return nil, err
	}

	s.last = data

	return data, nil
}

// Close unpublishes the key. Closing twice is a no-op.
func (s *Slot) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.store.Delete(s.key)
}

func (s *Slot) carrier(v any) (any, error) {
	if !s.shape.Array {
		return primitive.Coerce(v, s.shape.Kind, primitive.CategorySafeNumber)
	}

	want := s.shape.GoType()
	if v == nil {
		return reflect.MakeSlice(want, 0, 0).Interface(), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type() == want {
		return v, nil
	}

	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T to %s", primitive.ErrNotConvertible, v, s.shape)
	}

	out := reflect.MakeSlice(want, rv.Len(), rv.Len())
	for i := range rv.Len() {
		elem, err := primitive.Coerce(rv.Index(i).Interface(), s.shape.Kind, primitive.CategorySafeNumber)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}

		out.Index(i).Set(reflect.ValueOf(elem))
	}

	return out.Interface(), nil
}
