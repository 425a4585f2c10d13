package publisher

import (
	"errors"
	"fmt"

	"field-publisher/entry"
	"field-publisher/internal/common"
	"field-publisher/mapping"
	"field-publisher/schema"
	"field-publisher/structcodec"
)

const mappingLabel = "mapping"

// AddValue publishes get() under key through the one mapping registered for T.
func AddValue[T any](t *Table, key string, cfg *mapping.Configuration, get func() T) error {
	m, err := mapping.FindFor[T](t.reg)
	if err != nil {
		return fmt.Errorf("add %s: %w", key, err)
	}

	return t.AddBinding(key, m, cfg, func() any { return get() })
}

// AddBinding publishes get() under key through m.
func (t *Table) AddBinding(key string, m mapping.TypeMapping, cfg *mapping.Configuration, get func() any) error {
	if cfg == nil {
		cfg = mapping.NewConfiguration()
	}

	generated := common.JoinKey(t.opts.prefix, key)
	resolved := cfg.ResolveKey(generated)

	if err := t.reserve(resolved, []string{resolved}); err != nil {
		return err
	}

	b, err := entry.Bind(t.store, m, generated, cfg, get())
	if err != nil {
		return fmt.Errorf("add %s: %w", resolved, err)
	}

	t.add(row{
		key:       resolved,
		strategy:  mapping.StrategyMapping,
		published: []string{resolved},
		publish: func() error {
			if err := b.Publish(get()); err != nil {
				t.opts.metrics.Failed("publish")
				return err
			}

			t.opts.metrics.Published(mappingLabel)

			return nil
		},
		retrieve: func() (any, error) {
			v, err := b.Retrieve()
			if err != nil {
				t.opts.metrics.Failed("retrieve")
				return nil, err
			}

			t.opts.metrics.Retrieved(mappingLabel)

			return v, nil
		},
		close: b.Close,
	})

	return nil
}

// AddStruct publishes get() under key following cfg's strategy:
//   - SubTable (the default) binds one key per primitive leaf;
//   - Struct publishes one packed blob and its schema;
//   - Mapping converts the whole value through the registry like AddValue.
//
// A struct whose schema does not resolve is not bound: the table logs a
// warning, records the key in Skipped and returns nil. Store and mapping
// failures are returned.
func AddStruct[T any](t *Table, key string, desc schema.Struct[T], cfg *mapping.Configuration, get func() T) error {
	if cfg == nil {
		cfg = mapping.NewConfiguration()
	}

	strategy := cfg.Strategy()
	if strategy == mapping.StrategyMapping {
		return AddValue(t, key, cfg, get)
	}

	resolved := t.resolveKey(key, cfg)
	if err := t.reserve(resolved, publishedKeys(resolved, strategy, desc)); err != nil {
		return err
	}

	opts := []structcodec.Option{
		structcodec.WithLogger(t.opts.log),
		structcodec.WithMetrics(t.opts.metrics),
	}

	var (
		r   row
		err error
	)

	if strategy == mapping.StrategyStruct {
		r, err = blobRow(t, resolved, desc, get, opts)
	} else {
		strategy = mapping.StrategySubTable
		r, err = codecRow(t, resolved, desc, get, opts)
	}

	if isSchemaError(err) {
		t.skip(resolved, desc.TypeName(), err)
		return nil
	}

	if err != nil {
		return fmt.Errorf("add %s: %w", resolved, err)
	}

	r.strategy = strategy
	t.add(r)

	return nil
}

func codecRow[T any](t *Table, key string, desc schema.Struct[T], get func() T, opts []structcodec.Option) (row, error) {
	c, err := structcodec.New(t.store, key, desc, get(), opts...)
	if err != nil {
		return row{}, err
	}

	return row{
		key:       key,
		published: c.Keys(),
		publish:   func() error { return c.Publish(get()) },
		retrieve:  func() (any, error) { return c.Retrieve() },
		close:     c.Close,
	}, nil
}

func blobRow[T any](t *Table, key string, desc schema.Struct[T], get func() T, opts []structcodec.Option) (row, error) {
	b, err := structcodec.NewBlob(t.store, key, desc, get(), opts...)
	if err != nil {
		return row{}, err
	}

	return row{
		key:       key,
		published: []string{key},
		publish:   func() error { return b.Publish(get()) },
		retrieve:  func() (any, error) { return b.Retrieve() },
		close:     b.Close,
	}, nil
}

// publishedKeys returns the store keys a struct row at key will write. A
// SubTable row writes one key per leaf; a schema that does not decompose
// writes nothing and is left for the codec to report.
func publishedKeys(key string, strategy mapping.Strategy, desc schema.Description) []string {
	if strategy == mapping.StrategyStruct {
		return []string{key}
	}

	leaves, err := schema.Decompose(key, desc)
	if err != nil {
		return nil
	}

	keys := make([]string, len(leaves))
	for i, l := range leaves {
		keys[i] = l.Key
	}

	return keys
}

func isSchemaError(err error) bool {
	return errors.Is(err, schema.ErrUnresolvedType) ||
		errors.Is(err, schema.ErrRecursionLimit) ||
		errors.Is(err, schema.ErrSizeMismatch) ||
		errors.Is(err, schema.ErrMalformedField) ||
		errors.Is(err, schema.ErrDuplicateLeaf)
}
