package main

import (
	"time"

	"github.com/spf13/pflag"

	"field-publisher/internal/manifest"
)

// DefaultPeriod is the publish interval without --period.
const DefaultPeriod = 20 * time.Millisecond

type options struct {
	manifestPath string
	natsURL      string
	bucket       string
	metricsAddr  string
	logLevel     string
	period       time.Duration
	once         bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.manifestPath, "manifest", "m", "fields.yaml", "path to the manifest")
	fs.StringVar(&o.natsURL, "nats-url", "", "NATS server URL (overrides the manifest; empty keeps values in memory)")
	fs.StringVar(&o.bucket, "bucket", "", "JetStream key/value bucket (overrides the manifest)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "address to serve /metrics on (overrides the manifest)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warning or error (overrides the manifest)")
	fs.DurationVar(&o.period, "period", DefaultPeriod, "publish interval")
	fs.BoolVar(&o.once, "once", false, "publish once and exit")
}

// apply overrides manifest settings with the flags that were given.
func (o *options) apply(f *manifest.File) {
	if o.natsURL != "" {
		f.NATS.URL = o.natsURL
	}

	if o.bucket != "" {
		f.NATS.Bucket = o.bucket
	}

	if o.metricsAddr != "" {
		f.Metrics.Address = o.metricsAddr
	}

	if o.logLevel != "" {
		f.Log.Level = o.logLevel
	}
}
