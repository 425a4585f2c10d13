// Package natskv stores values in a NATS JetStream key/value bucket.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"field-publisher/kv"
)

// DefaultTimeout bounds every bucket operation.
const DefaultTimeout = 2 * time.Second

type options struct {
	timeout time.Duration
	log     *zap.Logger
}

type Option func(*options)

// WithTimeout bounds each bucket operation. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Store is a kv.Store over a JetStream bucket.
type Store struct {
	bucket jetstream.KeyValue
	opts   options
	conn   *nats.Conn

	mu     sync.RWMutex
	closed bool
}

var _ kv.Store = (*Store)(nil)

// New wraps an open bucket. Closing the store does not close the connection
// behind bucket.
func New(bucket jetstream.KeyValue, opts ...Option) *Store {
	o := options{timeout: DefaultTimeout, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{bucket: bucket, opts: o}
}

// Open binds the named bucket, creating it when it does not exist.
func Open(ctx context.Context, js jetstream.JetStream, bucket string, opts ...Option) (*Store, error) {
	kvBucket, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kvBucket, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "field-publisher values",
			History:     1,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}

	return New(kvBucket, opts...), nil
}

// Connect dials url and opens bucket. The store owns the connection and
// drains it on Close.
func Connect(ctx context.Context, url, bucket string, opts ...Option) (*Store, error) {
	nc, err := nats.Connect(url, nats.Name("field-publisher"))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	s, err := Open(ctx, js, bucket, opts...)
	if err != nil {
		nc.Close()
		return nil, err
	}

	s.conn = nc

	return s, nil
}

func (s *Store) applyTimeout() (context.Context, context.CancelFunc) {
	if s.opts.timeout > 0 {
		return context.WithTimeout(context.Background(), s.opts.timeout)
	}

	return context.Background(), func() {}
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return kv.ErrClosed
	}

	return nil
}

func (s *Store) Set(key string, v kv.Value) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	raw, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	ctx, cancel := s.applyTimeout()
	defer cancel()

	escaped := escapeKey(key)

	prev, err := s.bucket.Get(ctx, escaped)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
	case err != nil:
		return fmt.Errorf("kv get %s: %w", key, err)
	default:
		typ, err := decodeType(prev.Value())
		if err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}

		if typ != v.Type {
			return fmt.Errorf("%w: %s holds %s, not %s", kv.ErrTypeMismatch, key, typ, v.Type)
		}
	}

	rev, err := s.bucket.Put(ctx, escaped, raw)
	if err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}

	s.opts.log.Debug("kv put", zap.String("key", key), zap.Uint64("revision", rev))

	return nil
}

func (s *Store) Get(key string) (kv.Value, error) {
	if err := s.checkOpen(); err != nil {
		return kv.Value{}, err
	}

	ctx, cancel := s.applyTimeout()
	defer cancel()

	entry, err := s.bucket.Get(ctx, escapeKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Value{}, fmt.Errorf("%w: %s", kv.ErrNotFound, key)
		}

		return kv.Value{}, fmt.Errorf("kv get %s: %w", key, err)
	}

	v, err := decodeValue(entry.Value())
	if err != nil {
		return kv.Value{}, fmt.Errorf("get %s: %w", key, err)
	}

	return v, nil
}

func (s *Store) Delete(key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	ctx, cancel := s.applyTimeout()
	defer cancel()

	err := s.bucket.Delete(ctx, escapeKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}

	s.opts.log.Debug("kv delete", zap.String("key", key))

	return nil
}

func (s *Store) Keys(prefix string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.applyTimeout()
	defer cancel()

	lister, err := s.bucket.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}

	var keys []string

	for escaped := range lister.Keys() {
		key, err := unescapeKey(escaped)
		if err != nil {
			s.opts.log.Warn("skipping foreign key", zap.String("key", escaped), zap.Error(err))
			continue
		}

		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	if err := lister.Stop(); err != nil {
		s.opts.log.Debug("stop key lister", zap.Error(err))
	}

	slices.Sort(keys)

	return keys, nil
}

// Close marks the store closed and drains the connection if the store owns it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.conn != nil {
		return s.conn.Drain()
	}

	return nil
}
