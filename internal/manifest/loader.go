package manifest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"field-publisher/internal/logger"
)

const (
	DefaultBucket  = "fields"
	DefaultTimeout = 2 * time.Second
)

// LoadFile loads and parses a manifest from path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = CurrentVersion
	}

	if f.Log.Level == "" {
		f.Log.Level = logger.Info
	}

	if f.NATS.Bucket == "" {
		f.NATS.Bucket = DefaultBucket
	}

	if f.NATS.Timeout == 0 {
		f.NATS.Timeout = DefaultTimeout
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteFile writes f to path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}

	return nil
}
