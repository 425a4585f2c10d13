package structcodec

import (
	"go.uber.org/zap"

	"field-publisher/internal/metrics"
)

type options struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Codec or Blob.
type Option func(*options)

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

func newOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
