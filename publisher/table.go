// Package publisher keeps a table of published values and refreshes them
// once per control cycle.
//
// Each row binds a key to an accessor returning the current native value.
// Update reads every accessor and publishes the result; rows are published
// in the order they were added. A Table is not safe for concurrent use.
package publisher

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"field-publisher/internal/common"
	"field-publisher/internal/metrics"
	"field-publisher/kv"
	"field-publisher/mapping"
)

var (
	ErrDuplicateKey = errors.New("key already published by this table")
	ErrUnknownKey   = errors.New("key not published by this table")
)

type row struct {
	key      string
	strategy mapping.Strategy
	// published lists every store key the row writes.
	published []string
	publish   func() error
	retrieve  func() (any, error)
	close     func() error
}

type options struct {
	prefix  string
	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*options)

// WithPrefix puts every generated key under prefix. Explicit key overrides
// in a row's configuration are used as given.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Table is an ordered set of published rows sharing one store and registry.
type Table struct {
	store   kv.Store
	reg     *mapping.Registry
	opts    options
	rows    []row
	byKey   map[string]int
	claimed map[string]string
	skipped []string
}

func New(store kv.Store, reg *mapping.Registry, opts ...Option) *Table {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Table{
		store: store,
		reg:   reg,
		opts:    o,
		byKey:   make(map[string]int),
		claimed: make(map[string]string),
	}
}

// Registry returns the mapping registry rows are resolved against.
func (t *Table) Registry() *mapping.Registry {
	return t.reg
}

// resolveKey returns the key a row added under key is published at.
func (t *Table) resolveKey(key string, cfg *mapping.Configuration) string {
	return cfg.ResolveKey(common.JoinKey(t.opts.prefix, key))
}

// reserve fails when a row is already keyed at key or already writes one of
// the published store keys.
func (t *Table) reserve(key string, published []string) error {
	if _, ok := t.byKey[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	for _, k := range published {
		if owner, ok := t.claimed[k]; ok {
			return fmt.Errorf("%w: %s (written by row %s)", ErrDuplicateKey, k, owner)
		}
	}

	return nil
}

func (t *Table) add(r row) {
	t.byKey[r.key] = len(t.rows)
	for _, k := range r.published {
		t.claimed[k] = r.key
	}

	t.rows = append(t.rows, r)
	t.opts.log.Debug("row added", zap.String("key", r.key), zap.Stringer("strategy", r.strategy))
}

// Keys returns the keys of all rows in the order they were added.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.rows))
	for i, r := range t.rows {
		keys[i] = r.key
	}

	return keys
}

// Skipped returns the keys of struct rows that were not bound because their
// schema is invalid.
func (t *Table) Skipped() []string {
	return slices.Clone(t.skipped)
}

// Skip records a struct row that cannot be bound because its schema does not
// resolve. The row is reported by Skipped and never published.
func (t *Table) Skip(key string, cfg *mapping.Configuration, structName string, reason error) {
	t.skip(t.resolveKey(key, cfg), structName, reason)
}

func (t *Table) skip(key, structName string, reason error) {
	t.opts.log.Warn("struct not published: invalid schema",
		zap.String("key", key), zap.String("struct", structName), zap.Error(reason))
	t.skipped = append(t.skipped, key)
}

// Update publishes the current value of every row. A failing row does not
// stop the others; all failures are returned together.
func (t *Table) Update() error {
	var err error

	for _, r := range t.rows {
		if rowErr := r.publish(); rowErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.key, rowErr))
		}
	}

	return err
}

// Retrieve returns the current remote value of the row at key.
func (t *Table) Retrieve(key string) (any, error) {
	i, ok := t.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	return t.rows[i].retrieve()
}

// RetrieveAll returns the current remote value of every row by key.
func (t *Table) RetrieveAll() (map[string]any, error) {
	out := make(map[string]any, len(t.rows))

	for _, r := range t.rows {
		v, err := r.retrieve()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.key, err)
		}

		out[r.key] = v
	}

	return out, nil
}

// Close unpublishes every row. The table is empty afterwards.
func (t *Table) Close() error {
	var err error

	for _, r := range t.rows {
		err = multierr.Append(err, r.close())
	}

	t.opts.log.Debug("table closed", zap.Int("rows", len(t.rows)))

	t.rows = nil
	t.byKey = make(map[string]int)
	t.claimed = make(map[string]string)

	return err
}
