// Package main provides the CLI entrypoint for field-publisher.
//
// field-publisher binds the values listed in a YAML manifest to a typed
// key/value store (NATS JetStream, or process memory without a URL) and
// publishes them:
//   - check validates the manifest and prints its diagnostics
//   - leaves lists every key the manifest publishes
//   - publish publishes all values once or periodically
//   - get reads keys back through their mappings
//   - dump prints every stored key with its type and value
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("field-publisher", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	opts.addFlags(flagSet)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(out, flagSet)
			return nil
		}

		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(out, flagSet)
		return errors.New("missing command")
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	return cmd(ctx, &opts, rest[1:], out)
}

func printHelp(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(out, `field-publisher publishes the values listed in a manifest to a key/value store.

Usage:
  field-publisher [flags] <command> [args]

Commands:
  check          validate the manifest
  leaves         list the keys the manifest publishes
  publish        publish every value (periodically unless --once)
  get KEY...     read keys back through their mappings
  dump           print every stored key with its type and value

Flags:
`)
	flagSet.SetOutput(out)
	flagSet.PrintDefaults()
}
