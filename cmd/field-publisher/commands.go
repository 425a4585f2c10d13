package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"field-publisher/internal/manifest"
	"field-publisher/kv"
	"field-publisher/mapping"
	"field-publisher/structcodec"
)

type command func(ctx context.Context, opts *options, args []string, out io.Writer) error

var commands = map[string]command{
	"check":   runCheck,
	"leaves":  runLeaves,
	"publish": runPublish,
	"get":     runGet,
	"dump":    runDump,
}

// runCheck prints every diagnostic and fails when the manifest has errors.
func runCheck(_ context.Context, opts *options, _ []string, out io.Writer) error {
	f, err := manifest.LoadFile(opts.manifestPath)
	if err != nil {
		return err
	}

	opts.apply(f)

	res := manifest.Validate(f, mapping.Defaults())
	for _, d := range res.All() {
		fmt.Fprintln(out, d.Severity.String()+": "+d.String())
	}

	if err := res.Error(); err != nil {
		return fmt.Errorf("invalid manifest %s: %d error(s)", opts.manifestPath, len(res.Errors))
	}

	fmt.Fprintf(out, "%s: ok (%d entries, %d warnings)\n", opts.manifestPath, len(f.Entries), len(res.Warnings))

	return nil
}

// runLeaves binds the manifest to an in-memory store and lists every key it
// writes, schemas included.
func runLeaves(ctx context.Context, opts *options, _ []string, out io.Writer) error {
	a, err := openApp(ctx, opts, kv.NewMemory())
	if err != nil {
		return err
	}

	keys, err := a.store.Keys("")
	if err == nil {
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}

		for _, k := range a.table.Skipped() {
			fmt.Fprintf(out, "%s (skipped)\n", k)
		}
	}

	return multierr.Append(err, a.Close())
}

// runPublish publishes every entry each period until ctx is done, or once.
func runPublish(ctx context.Context, opts *options, _ []string, out io.Writer) error {
	a, err := openApp(ctx, opts, nil)
	if err != nil {
		return err
	}

	if opts.once {
		err = a.table.Update()
		if err == nil {
			fmt.Fprintf(out, "published %d entries\n", len(a.table.Keys()))
		}

		return multierr.Append(err, a.Close())
	}

	a.serveMetrics()

	ticker := time.NewTicker(opts.period)
	defer ticker.Stop()

	a.log.Info("publishing", zap.Duration("period", opts.period))

	for {
		select {
		case <-ctx.Done():
			a.log.Info("stopping")
			return a.Close()
		case <-ticker.C:
			if err := a.table.Update(); err != nil {
				a.log.Warn("publish failed", zap.Error(err))
			}
		}
	}
}

// runGet prints the stored value of each key.
func runGet(ctx context.Context, opts *options, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("get: no keys given")
	}

	return withStore(ctx, opts, func(store kv.Store) error {
		var (
			values []storedValue
			err    error
		)

		for _, key := range args {
			v, e := describe(store, key)
			if e != nil {
				err = multierr.Append(err, fmt.Errorf("get %s: %w", key, e))
				continue
			}

			values = append(values, v)
		}

		return multierr.Append(err, writeYAML(out, values))
	})
}

// runDump prints every stored key, or those under the given prefix.
func runDump(ctx context.Context, opts *options, args []string, out io.Writer) error {
	return withStore(ctx, opts, func(store kv.Store) error {
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}

		keys, err := store.Keys(prefix)
		if err != nil {
			return err
		}

		values := make([]storedValue, 0, len(keys))

		for _, key := range keys {
			v, err := describe(store, key)
			if errors.Is(err, kv.ErrNotFound) {
				continue
			}

			if err != nil {
				return fmt.Errorf("dump %s: %w", key, err)
			}

			values = append(values, v)
		}

		return writeYAML(out, values)
	})
}

// withStore opens the manifest's store without binding any entry.
func withStore(ctx context.Context, opts *options, fn func(kv.Store) error) error {
	f, log, err := loadManifest(opts)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, f, log)
	if err != nil {
		return err
	}

	return multierr.Append(fn(store), store.Close())
}

type storedValue struct {
	Key   string `yaml:"key"`
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// describe reads key, unpacking struct blobs through their published schema.
func describe(store kv.Store, key string) (storedValue, error) {
	v, err := store.Get(key)
	if err != nil {
		return storedValue{}, err
	}

	sv := storedValue{Key: key, Type: v.Type.String(), Value: v.Data}

	if name, ok := v.Type.Struct(); ok {
		d, err := structcodec.LoadSchema(store, name)
		if err != nil {
			return storedValue{}, err
		}

		raw := v.Data.([]byte)
		if len(raw) != d.Size() {
			return storedValue{}, fmt.Errorf("struct %s: got %d bytes, want %d", name, len(raw), d.Size())
		}

		sv.Value = map[string]any(d.Unpack(raw))
	}

	return sv, nil
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}
