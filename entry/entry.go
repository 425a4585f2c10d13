package entry

import (
	"fmt"
	"reflect"

	"field-publisher/kv"
	"field-publisher/mapping"
)

// Binding publishes native values through one mapping into one slot.
type Binding struct {
	slot    *Slot
	mapping mapping.TypeMapping
	cfg     *mapping.Configuration
}

// Bind converts initial through m and publishes it under cfg's key override,
// or key when there is none.
func Bind(store kv.Store, m mapping.TypeMapping, key string, cfg *mapping.Configuration, initial any) (*Binding, error) {
	if cfg == nil {
		cfg = mapping.NewConfiguration()
	}

	key = cfg.ResolveKey(key)

	wire, err := m.ToWire(initial, cfg)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", key, err)
	}

	slot, err := NewSlot(store, key, m.Wire(), wire)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", key, err)
	}

	return &Binding{slot: slot, mapping: m, cfg: cfg}, nil
}

// BindFor finds the one mapping for native's type in reg and binds it.
func BindFor(store kv.Store, reg *mapping.Registry, key string, cfg *mapping.Configuration, native any) (*Binding, error) {
	m, err := reg.Find(reflect.TypeOf(native))
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", key, err)
	}

	return Bind(store, m, key, cfg, native)
}

func (b *Binding) Key() string                   { return b.slot.Key() }
func (b *Binding) Mapping() mapping.TypeMapping  { return b.mapping }
func (b *Binding) Config() *mapping.Configuration { return b.cfg }

// Publish converts v to its wire form and writes it to the store.
func (b *Binding) Publish(v any) error {
	wire, err := b.mapping.ToWire(v, b.cfg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", b.Key(), err)
	}

	return b.slot.Set(wire)
}

// Retrieve reads the remote wire value and converts it back to a native value.
func (b *Binding) Retrieve() (any, error) {
	wire, err := b.slot.Get()
	if err != nil {
		return nil, err
	}

	native, err := b.mapping.FromWire(wire, b.cfg)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", b.Key(), err)
	}

	return native, nil
}

// Close unpublishes the key.
func (b *Binding) Close() error {
	return b.slot.Close()
}

// Entry is a Binding of the static native type T.
type Entry[T any] struct {
	*Binding
}

// New finds the one mapping for T in reg and publishes initial.
func New[T any](store kv.Store, reg *mapping.Registry, key string, cfg *mapping.Configuration, initial T) (*Entry[T], error) {
	m, err := mapping.FindFor[T](reg)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", key, err)
	}

	b, err := Bind(store, m, key, cfg, initial)
	if err != nil {
		return nil, err
	}

	return &Entry[T]{Binding: b}, nil
}

// Publish writes v through the entry's mapping.
func (e *Entry[T]) Publish(v T) error {
	return e.Binding.Publish(v)
}

// Retrieve returns the remote value as T.
func (e *Entry[T]) Retrieve() (T, error) {
	native, err := e.Binding.Retrieve()
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := native.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("retrieve %s: mapping %s produced %T", e.Key(), e.mapping.Name(), native)
	}

	return v, nil
}
