package manifest

import (
	"fmt"
	"reflect"
	"strconv"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"field-publisher/mapping"
	"field-publisher/publisher"
	"field-publisher/schema"
	"field-publisher/units"
)

// Configuration translates an entry's settings into a mapping configuration.
func (e *EntryDef) Configuration() (*mapping.Configuration, error) {
	strategy, ok := mapping.ParseStrategy(e.Strategy)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", e.Strategy)
	}

	cfg := mapping.NewConfiguration().WithStrategy(strategy)

	if e.Config.Key != "" {
		cfg.WithKey(e.Config.Key)
	}

	for name, value := range e.Config.Values {
		cfg.WithValue(name, value)
	}

	if e.Config.Unit != "" {
		cfg.WithValue(mapping.ValueUnit, e.Config.Unit)
	}

	if e.Config.Precision != nil {
		cfg.WithValue(mapping.ValuePrecision, strconv.Itoa(*e.Config.Precision))
	}

	for id, name := range e.Config.Converters {
		u, ok := units.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("converter %q: unknown unit %q", id, name)
		}

		conv := units.For(u)
		if e.Config.Precision != nil {
			conv.Precision = *e.Config.Precision
		}

		cfg.WithConverter(id, conv)
	}

	return cfg, nil
}

// Build adds every entry of f to tbl, in order, with the entry's manifest
// value as its published value. Entries whose struct did not compile are
// recorded with tbl.Skip. Failing entries do not stop the others; all
// failures are returned together.
func Build(f *File, structs *Structs, tbl *publisher.Table) error {
	var err error

	for i := range f.Entries {
		if e := buildEntry(&f.Entries[i], structs, tbl); e != nil {
			err = multierr.Append(err, fmt.Errorf("entry %s: %w", f.Entries[i].Key, e))
		}
	}

	return err
}

func buildEntry(e *EntryDef, structs *Structs, tbl *publisher.Table) error {
	cfg, err := e.Configuration()
	if err != nil {
		return err
	}

	if e.Struct != "" {
		desc, err := structs.Lookup(e.Struct)
		if err != nil {
			tbl.Skip(e.Key, cfg, e.Struct, err)
			return nil
		}

		value, err := decodeRecord(&e.Value, desc)
		if err != nil {
			return err
		}

		return publisher.AddStruct(tbl, e.Key, desc, cfg, func() schema.Record { return value })
	}

	m, ok := tbl.Registry().Named(e.Type)
	if !ok {
		return fmt.Errorf("no mapping named %q", e.Type)
	}

	value, err := decodeNative(&e.Value, m.Native())
	if err != nil {
		return err
	}

	return tbl.AddBinding(e.Key, m, cfg, func() any { return value })
}

// decodeRecord decodes a struct value and checks every field packs.
func decodeRecord(node *yaml.Node, desc *schema.Dynamic) (schema.Record, error) {
	r := schema.Record{}

	if !isEmptyNode(node) {
		var raw map[string]any
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", desc.TypeName(), err)
		}

		r = raw
	}

	if err := desc.Check(r); err != nil {
		return nil, fmt.Errorf("%s value: %w", desc.TypeName(), err)
	}

	return r, nil
}

// decodeNative decodes node into a new value of t. An absent value is t's zero.
func decodeNative(node *yaml.Node, t reflect.Type) (any, error) {
	ptr := reflect.New(t)

	if !isEmptyNode(node) {
		if err := node.Decode(ptr.Interface()); err != nil {
			return nil, fmt.Errorf("decode %s value: %w", t, err)
		}
	}

	return ptr.Elem().Interface(), nil
}

func isEmptyNode(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || node.Tag == "!!null"
}
