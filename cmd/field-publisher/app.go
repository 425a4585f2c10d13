package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"field-publisher/internal/logger"
	"field-publisher/internal/manifest"
	"field-publisher/internal/metrics"
	"field-publisher/kv"
	"field-publisher/kv/natskv"
	"field-publisher/mapping"
	"field-publisher/publisher"
)

// app is a loaded manifest bound to its store.
type app struct {
	file     *manifest.File
	log      *zap.Logger
	store    kv.Store
	table    *publisher.Table
	server   *http.Server
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// loadManifest reads and validates the manifest, logging warnings.
func loadManifest(opts *options) (*manifest.File, *zap.Logger, error) {
	f, err := manifest.LoadFile(opts.manifestPath)
	if err != nil {
		return nil, nil, err
	}

	opts.apply(f)

	log, err := logger.New(f.Log)
	if err != nil {
		return nil, nil, err
	}

	res := manifest.Validate(f, mapping.Defaults())
	for _, w := range res.Warnings {
		log.Warn("manifest", zap.String("diagnostic", w.String()))
	}

	if err := res.Error(); err != nil {
		_ = log.Sync()
		return nil, nil, fmt.Errorf("invalid manifest %s: %w", opts.manifestPath, err)
	}

	return f, log, nil
}

// openStore connects to the manifest's bucket, or returns an in-memory store
// when no NATS URL is configured.
func openStore(ctx context.Context, f *manifest.File, log *zap.Logger) (kv.Store, error) {
	if f.NATS.URL == "" {
		log.Info("no NATS URL configured, keeping values in memory")
		return kv.NewMemory(), nil
	}

	store, err := natskv.Connect(ctx, f.NATS.URL, f.NATS.Bucket,
		natskv.WithTimeout(f.NATS.Timeout), natskv.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return store, nil
}

// openApp loads the manifest and binds every entry to store, or to the
// manifest's store when store is nil.
func openApp(ctx context.Context, opts *options, store kv.Store) (*app, error) {
	f, log, err := loadManifest(opts)
	if err != nil {
		return nil, err
	}

	a := &app{file: f, log: log, store: store}

	if a.store == nil {
		if a.store, err = openStore(ctx, f, log); err != nil {
			return nil, multierr.Append(err, a.Close())
		}
	}

	if f.Metrics.Address != "" {
		a.registry = metrics.NewRegistry(f.Metrics)
		a.metrics = metrics.New(a.registry)
	}

	structs, err := manifest.Compile(f)
	if err != nil {
		return nil, multierr.Append(err, a.Close())
	}

	a.table = publisher.New(a.store, mapping.Defaults(),
		publisher.WithPrefix(f.Prefix), publisher.WithLogger(log), publisher.WithMetrics(a.metrics))

	if err := manifest.Build(f, structs, a.table); err != nil {
		return nil, multierr.Append(err, a.Close())
	}

	log.Info("manifest bound",
		zap.String("manifest", opts.manifestPath),
		zap.Int("entries", len(a.table.Keys())),
		zap.Strings("skipped", a.table.Skipped()))

	return a, nil
}

// serveMetrics starts the /metrics endpoint when an address is configured.
func (a *app) serveMetrics() {
	if a.registry == nil {
		return
	}

	a.server = metrics.Server(a.file.Metrics, a.registry)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	a.log.Info("serving metrics", zap.String("address", a.file.Metrics.Address))
}

// Close unbinds every entry, then closes the store and the metrics server.
func (a *app) Close() error {
	var err error

	if a.table != nil {
		err = multierr.Append(err, a.table.Close())
	}

	if a.store != nil {
		err = multierr.Append(err, a.store.Close())
	}

	if a.server != nil {
		err = multierr.Append(err, a.server.Close())
	}

	_ = a.log.Sync()

	return err
}
