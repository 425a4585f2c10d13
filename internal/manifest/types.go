package manifest

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"field-publisher/internal/common"
	"field-publisher/internal/logger"
	"field-publisher/internal/metrics"
)

// CurrentVersion is the only manifest version understood.
const CurrentVersion = "1"

// File is the root of a manifest.
type File struct {
	// Version of the manifest schema.
	Version string `yaml:"version,omitempty"`

	// Prefix is prepended to every generated key.
	Prefix string `yaml:"prefix,omitempty"`

	Log     logger.Config  `yaml:"log,omitempty"`
	NATS    NATSConfig     `yaml:"nats,omitempty"`
	Metrics metrics.Config `yaml:"metrics,omitempty"`

	// Structs declares struct types known only to this manifest.
	Structs []StructDef `yaml:"structs,omitempty"`

	// Entries lists the published values in publishing order.
	Entries []EntryDef `yaml:"entries"`
}

// NATSConfig selects the JetStream bucket. An empty URL keeps values in
// process memory.
type NATSConfig struct {
	URL     string        `yaml:"url,omitempty"`
	Bucket  string        `yaml:"bucket,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StructDef declares a struct by schema.
type StructDef struct {
	Name   string    `yaml:"name"`
	Schema string    `yaml:"schema"`
	Nested NameArray `yaml:"nested,omitempty"`
}

// EntryDef is one published value. Exactly one of Struct and Type is set.
type EntryDef struct {
	Key string `yaml:"key"`

	// Struct names a built-in or declared struct.
	Struct string `yaml:"struct,omitempty"`

	// Type names a registered mapping.
	Type string `yaml:"type,omitempty"`

	// Strategy applies to struct entries: subtable, struct or mapping.
	Strategy string `yaml:"strategy,omitempty"`

	// Value is the published value, decoded once the target type is known.
	Value yaml.Node `yaml:"value,omitempty"`

	Config EntryConfig `yaml:"config,omitempty"`
}

// EntryConfig carries the per-entry configuration.
type EntryConfig struct {
	// Key replaces the generated key, prefix included.
	Key string `yaml:"key,omitempty"`
	// Unit is the unit name or symbol values are published in.
	Unit string `yaml:"unit,omitempty"`
	// Precision is the number of decimals published.
	Precision *int `yaml:"precision,omitempty"`
	// Converters maps converter ids to unit names, e.g. {angle: degrees}.
	Converters map[string]string `yaml:"converters,omitempty"`
	// Values are free-form settings read by mappings.
	Values map[string]string `yaml:"values,omitempty"`
}

// NameArray is a list of names written as a single string or a sequence.
type NameArray []string

// UnmarshalYAML accepts either a single string or an array of strings.
func (s *NameArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		if str != "" {
			*s = NameArray{str}
		} else {
			*s = NameArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML writes a single name as a plain string.
func (s NameArray) MarshalYAML() (any, error) {
	if common.IsSingle(s) {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first name or the empty string.
func (s NameArray) First() string {
	if v, ok := common.First(s); ok {
		return v
	}

	return ""
}
