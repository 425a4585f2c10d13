package kv

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// OpKind is the kind of a recorded mutation.
type OpKind int

const (
	OpSet OpKind = iota + 1
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is one successful mutation of a Memory store.
type Op struct {
	Kind  OpKind
	Key   string
	Value Value
}

// Memory is an in-process Store. It records every successful mutation.
type Memory struct {
	mu     sync.RWMutex
	values map[string]Value
	ops    []Op
	closed bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{values: make(map[string]Value)}
}

func (m *Memory) Set(key string, v Value) error {
	if err := v.Type.Check(v.Data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if prev, ok := m.values[key]; ok && prev.Type != v.Type {
		return fmt.Errorf("%w: %s holds %s, not %s", ErrTypeMismatch, key, prev.Type, v.Type)
	}

	v.Data = Clone(v.Data)
	m.values[key] = v
	m.ops = append(m.ops, Op{Kind: OpSet, Key: key, Value: v})

	return nil
}

func (m *Memory) Get(key string) (Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Value{}, ErrClosed
	}

	v, ok := m.values[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	v.Data = Clone(v.Data)

	return v, nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, ok := m.values[key]; !ok {
		return nil
	}

	delete(m.values, key)
	m.ops = append(m.ops, Op{Kind: OpDelete, Key: key})

	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	var keys []string

	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	slices.Sort(keys)

	return keys, nil
}

// Close makes every later call fail with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

// Ops returns the mutation log.
func (m *Memory) Ops() []Op {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.ops)
}

// Snapshot returns a copy of every stored value.
func (m *Memory) Snapshot() map[string]Value {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Value, len(m.values))
	for k, v := range m.values {
		v.Data = Clone(v.Data)
		out[k] = v
	}

	return out
}
