package mapping

import (
	"maps"
	"strconv"
	"strings"

	"field-publisher/units"
)

// Strategy selects how a composite value reaches the wire.
type Strategy int

const (
	// StrategyDefault lets the binding pick; composite structs decompose.
	StrategyDefault Strategy = iota
	// StrategyStruct publishes one opaque packed blob plus its schema.
	StrategyStruct
	// StrategySubTable publishes every primitive leaf under its own key.
	StrategySubTable
	// StrategyMapping converts the whole value through one TypeMapping.
	StrategyMapping
)

// String returns the manifest spelling of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyStruct:
		return "struct"
	case StrategySubTable:
		return "subtable"
	case StrategyMapping:
		return "mapping"
	default:
		return "default"
	}
}

// ParseStrategy is the inverse of Strategy.String. The empty string is
// StrategyDefault.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return StrategyDefault, true
	case "struct":
		return StrategyStruct, true
	case "subtable", "sub_table", "sub-table":
		return StrategySubTable, true
	case "mapping":
		return StrategyMapping, true
	default:
		return StrategyDefault, false
	}
}

// Well-known configuration value names read by the built-in mappings.
const (
	ValueUnit      = "unit"
	ValuePrecision = "precision"
)

// Configuration carries per-entry settings into every conversion. Build it
// with the With* methods before the entry is created; it is read-only after.
type Configuration struct {
	key        string
	hasKey     bool
	strategy   Strategy
	converters map[string]units.Converter
	values     map[string]string
}

// NewConfiguration returns an empty configuration.
func NewConfiguration() *Configuration {
	return &Configuration{
		converters: make(map[string]units.Converter),
		values:     make(map[string]string),
	}
}

// WithKey overrides the generated key.
func (c *Configuration) WithKey(key string) *Configuration {
	c.key, c.hasKey = key, true
	return c
}

func (c *Configuration) WithStrategy(s Strategy) *Configuration {
	c.strategy = s
	return c
}

// WithConverter registers a unit converter. The empty id is the default.
func (c *Configuration) WithConverter(id string, conv units.Converter) *Configuration {
	c.converters[id] = conv
	return c
}

func (c *Configuration) WithValue(name, value string) *Configuration {
	c.values[name] = value
	return c
}

// Key returns the explicit key, if any.
func (c *Configuration) Key() (string, bool) {
	if c == nil {
		return "", false
	}

	return c.key, c.hasKey
}

// ResolveKey returns the explicit key or, without one, generated.
func (c *Configuration) ResolveKey(generated string) string {
	if key, ok := c.Key(); ok {
		return key
	}

	return generated
}

func (c *Configuration) Strategy() Strategy {
	if c == nil {
		return StrategyDefault
	}

	return c.strategy
}

func (c *Configuration) Converter(id string) (units.Converter, bool) {
	if c == nil {
		return nil, false
	}

	conv, ok := c.converters[id]

	return conv, ok
}

func (c *Configuration) Value(name string) (string, bool) {
	if c == nil {
		return "", false
	}

	v, ok := c.values[name]

	return v, ok
}

// Values returns a copy of all free-form values.
func (c *Configuration) Values() map[string]string {
	if c == nil {
		return nil
	}

	return maps.Clone(c.values)
}

// UnitConverter picks the converter for dimension dim: the registered default
// converter first, then the "unit" and "precision" values, then fallback.
// Unknown or mismatched unit names fall back as well.
func (c *Configuration) UnitConverter(dim units.Dimension, fallback units.Unit) units.Converter {
	if conv, ok := c.Converter(""); ok {
		return conv
	}

	sc := units.For(fallback)

	if name, ok := c.Value(ValueUnit); ok {
		if named, err := units.ForName(name, dim); err == nil {
			sc = named
		}
	}

	if p, ok := c.Value(ValuePrecision); ok {
		if n, err := strconv.Atoi(p); err == nil {
			sc.Precision = n
		}
	}

	return sc
}
