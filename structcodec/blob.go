package structcodec

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"field-publisher/kv"
	"field-publisher/primitive"
	"field-publisher/schema"
)

// SchemaPrefix is where struct schemas are published, keyed by type string.
const SchemaPrefix = "/.schema/"

// SchemaKey returns the key desc's schema is published under.
func SchemaKey(desc schema.Description) string {
	return SchemaPrefix + schema.TypeString(desc)
}

// PublishSchemas publishes the schema of desc and of every struct reachable
// from it.
func PublishSchemas(store kv.Store, desc schema.Description) error {
	var err error

	schema.Walk(desc, func(d schema.Description) {
		if err != nil {
			return
		}

		err = store.Set(SchemaKey(d), kv.Value{Type: kv.TypeString, Data: d.Schema()})
	})

	return err
}

// LoadSchema rebuilds struct name, and every struct it nests, from the schemas
// published under SchemaPrefix.
func LoadSchema(store kv.Store, name string) (*schema.Dynamic, error) {
	l := schemaLoader{store: store, loaded: map[string]*schema.Dynamic{}, visiting: map[string]bool{}}
	return l.load(name)
}

type schemaLoader struct {
	store    kv.Store
	loaded   map[string]*schema.Dynamic
	visiting map[string]bool
}

func (l *schemaLoader) load(name string) (*schema.Dynamic, error) {
	if d, ok := l.loaded[name]; ok {
		return d, nil
	}

	if l.visiting[name] {
		return nil, fmt.Errorf("%w: struct %s nests itself", schema.ErrRecursionLimit, name)
	}

	l.visiting[name] = true
	defer delete(l.visiting, name)

	data, err := kv.GetAs(l.store, SchemaPrefix+string(kv.StructType(name)), kv.TypeString)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: no published schema for struct %s", schema.ErrUnresolvedType, name)
	}

	if err != nil {
		return nil, err
	}

	text := data.(string)

	decls, err := schema.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("struct %s: %w", name, err)
	}

	var nested []*schema.Dynamic

	for _, decl := range decls {
		if _, ok := primitive.Lookup(decl.TypeName); ok {
			continue
		}

		d, err := l.load(decl.TypeName)
		if err != nil {
			return nil, err
		}

		if !slices.Contains(nested, d) {
			nested = append(nested, d)
		}
	}

	d, err := schema.NewDynamic(name, text, nested...)
	if err != nil {
		return nil, err
	}

	l.loaded[name] = d

	return d, nil
}

// Blob publishes a struct as one packed value typed "struct:<Name>".
type Blob[T any] struct {
	store  kv.Store
	desc   schema.Struct[T]
	key    string
	typ    kv.Type
	buf    []byte
	opts   options
	closed bool
}

// NewBlob validates desc, publishes its schemas and then initial under key.
func NewBlob[T any](store kv.Store, key string, desc schema.Struct[T], initial T, opts ...Option) (*Blob[T], error) {
	o := newOptions(opts)

	if err := schema.Validate(desc); err != nil {
		o.metrics.Failed("construct")
		return nil, fmt.Errorf("struct blob %s: %w", key, err)
	}

	if err := PublishSchemas(store, desc); err != nil {
		o.metrics.Failed("construct")
		return nil, fmt.Errorf("struct blob %s: schema: %w", key, err)
	}

	b := &Blob[T]{
		store: store,
		desc:  desc,
		key:   key,
		typ:   kv.StructType(desc.TypeName()),
		buf:   make([]byte, desc.Size()),
		opts:  o,
	}

	b.desc.Pack(b.buf, initial)

	if err := store.Set(key, kv.Value{Type: b.typ, Data: b.buf}); err != nil {
		o.metrics.Failed("construct")
		return nil, fmt.Errorf("struct blob %s: %w", key, err)
	}

	o.log.Debug("struct blob bound", zap.String("key", key), zap.String("type", b.typ.String()))

	return b, nil
}

func (b *Blob[T]) Key() string {
	return b.key
}

func (b *Blob[T]) Publish(v T) error {
	if b.closed {
		return ErrClosed
	}

	b.desc.Pack(b.buf, v)

	if err := b.store.Set(b.key, kv.Value{Type: b.typ, Data: b.buf}); err != nil {
		b.opts.metrics.Failed("publish")
		return err
	}

	b.opts.metrics.Published("struct")

	return nil
}

// Retrieve unpacks the remote blob. A missing key yields the last value
// published or retrieved.
func (b *Blob[T]) Retrieve() (T, error) {
	var zero T

	if b.closed {
		return zero, ErrClosed
	}

	data, err := kv.GetAs(b.store, b.key, b.typ)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return b.desc.Unpack(b.buf), nil
	case err != nil:
		b.opts.metrics.Failed("retrieve")
		return zero, err
	}

	raw := data.([]byte)
	if len(raw) != len(b.buf) {
		b.opts.metrics.Failed("retrieve")
		return zero, fmt.Errorf("struct blob %s: %w: got %d bytes, want %d",
			b.key, schema.ErrSizeMismatch, len(raw), len(b.buf))
	}

	copy(b.buf, raw)
	b.opts.metrics.Retrieved("struct")

	return b.desc.Unpack(b.buf), nil
}

// Close unpublishes the blob. Schemas stay published; other blobs may share
// them.
func (b *Blob[T]) Close() error {
	if b.closed {
		return nil
	}

	b.closed = true

	return b.store.Delete(b.key)
}
