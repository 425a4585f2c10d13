// Package structcodec publishes composite values as sets of primitive keys.
//
// A Codec decomposes a struct description into leaves and binds each leaf to
// its own remote key. Publish packs a value into the codec's buffer and
// forwards every leaf; Retrieve reads every leaf back into the buffer and
// unpacks it. A Blob publishes the whole packed buffer under one key instead.
//
// Neither type is safe for concurrent use: the buffer is reused across calls.
package structcodec

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"field-publisher/entry"
	"field-publisher/kv"
	"field-publisher/mapping"
	"field-publisher/schema"
)

var ErrClosed = errors.New("struct codec closed")

const strategyLabel = "subtable"

type leaf struct {
	schema.Leaf
	slot *entry.Slot
}

// Codec binds a struct type to one remote key per primitive leaf.
type Codec[T any] struct {
	desc   schema.Struct[T]
	prefix string
	leaves []leaf
	buf    []byte
	opts   options
	closed bool
}

// New decomposes desc under prefix and publishes initial. On any error no key
// created by New is left behind.
func New[T any](store kv.Store, prefix string, desc schema.Struct[T], initial T, opts ...Option) (*Codec[T], error) {
	o := newOptions(opts)

	c, err := bind(store, prefix, desc, initial, o)
	if err != nil {
		o.metrics.Failed("construct")
		o.log.Warn("struct codec not bound",
			zap.String("prefix", prefix), zap.String("struct", desc.TypeName()), zap.Error(err))

		return nil, err
	}

	o.metrics.LeavesBound(len(c.leaves))
	o.log.Debug("struct codec bound",
		zap.String("prefix", prefix), zap.String("struct", desc.TypeName()), zap.Int("leaves", len(c.leaves)))

	return c, nil
}

func bind[T any](store kv.Store, prefix string, desc schema.Struct[T], initial T, o options) (*Codec[T], error) {
	decomposed, err := schema.Decompose(prefix, desc)
	if err != nil {
		return nil, fmt.Errorf("struct codec %s: %w", prefix, err)
	}

	if err := schema.CheckSize(desc, decomposed); err != nil {
		return nil, fmt.Errorf("struct codec %s: %w", prefix, err)
	}

	c := &Codec[T]{
		desc:   desc,
		prefix: prefix,
		leaves: make([]leaf, 0, len(decomposed)),
		buf:    make([]byte, desc.Size()),
		opts:   o,
	}

	desc.Pack(c.buf, initial)

	for _, l := range decomposed {
		slot, err := entry.NewSlot(store, l.Key, mapping.Scalar(l.Kind), l.Kind.Read(c.buf, l.Offset))
		if err != nil {
			return nil, multierr.Append(
				fmt.Errorf("struct codec %s: leaf %s: %w", prefix, l.Key, err),
				c.closeLeaves(),
			)
		}

		c.leaves = append(c.leaves, leaf{Leaf: l, slot: slot})
	}

	return c, nil
}

// Prefix returns the key prefix the codec was created with.
func (c *Codec[T]) Prefix() string {
	return c.prefix
}

// Leaves returns the decomposed leaves in schema order.
func (c *Codec[T]) Leaves() []schema.Leaf {
	out := make([]schema.Leaf, len(c.leaves))
	for i, l := range c.leaves {
		out[i] = l.Leaf
	}

	return out
}

// Keys returns the remote keys of all leaves in schema order.
func (c *Codec[T]) Keys() []string {
	keys := make([]string, len(c.leaves))
	for i, l := range c.leaves {
		keys[i] = l.Key
	}

	return keys
}

func (c *Codec[T]) mustFitBuffer() {
	if len(c.buf) != c.desc.Size() {
		panic(fmt.Sprintf("structcodec: %s buffer is %d bytes, struct declares %d",
			c.desc.TypeName(), len(c.buf), c.desc.Size()))
	}
}

// Publish packs v and forwards every leaf. Leaves after a failing one are
// still published; all failures are returned together.
func (c *Codec[T]) Publish(v T) error {
	if c.closed {
		return ErrClosed
	}

	c.mustFitBuffer()
	c.desc.Pack(c.buf, v)

	var err error
	for _, l := range c.leaves {
		err = multierr.Append(err, l.slot.Set(l.Kind.Read(c.buf, l.Offset)))
	}

	if err != nil {
		c.opts.metrics.Failed("publish")
		return err
	}

	c.opts.metrics.Published(strategyLabel)

	return nil
}

// Retrieve reads every leaf into the buffer and unpacks the result.
func (c *Codec[T]) Retrieve() (T, error) {
	var zero T

	if c.closed {
		return zero, ErrClosed
	}

	c.mustFitBuffer()

	for _, l := range c.leaves {
		v, err := l.slot.Get()
		if err != nil {
			c.opts.metrics.Failed("retrieve")
			return zero, err
		}

		if err := l.Kind.Write(c.buf, l.Offset, v); err != nil {
			c.opts.metrics.Failed("retrieve")
			return zero, fmt.Errorf("leaf %s: %w", l.Key, err)
		}
	}

	c.opts.metrics.Retrieved(strategyLabel)

	return c.desc.Unpack(c.buf), nil
}

// Close unpublishes every leaf. Closing twice is a no-op.
func (c *Codec[T]) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	n := len(c.leaves)

	err := c.closeLeaves()
	c.opts.metrics.LeavesBound(-n)
	c.opts.log.Debug("struct codec closed", zap.String("prefix", c.prefix), zap.Int("leaves", n))

	return err
}

func (c *Codec[T]) closeLeaves() error {
	var err error
	for _, l := range c.leaves {
		err = multierr.Append(err, l.slot.Close())
	}

	c.leaves = nil

	return err
}
