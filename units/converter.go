package units

import (
	"fmt"
	"math"
)

// Converter turns a base-unit magnitude into the double published on the wire
// and back.
type Converter interface {
	ToWire(base float64) float64
	FromWire(wire float64) float64
}

// ScaleConverter publishes magnitudes in a fixed unit, optionally rounded to
// a number of decimal places.
type ScaleConverter struct {
	Unit Unit
	// Precision is the number of decimals kept on the wire; negative keeps all.
	Precision int
}

// For returns a converter publishing in u at full precision.
func For(u Unit) ScaleConverter {
	return ScaleConverter{Unit: u, Precision: -1}
}

// ForName resolves a unit name and checks it measures dim.
func ForName(name string, dim Dimension) (ScaleConverter, error) {
	u, ok := Lookup(name)
	if !ok {
		return ScaleConverter{}, fmt.Errorf("unknown unit %q", name)
	}

	if u.Dimension != dim {
		return ScaleConverter{}, fmt.Errorf("unit %q measures %s, not %s", name, u.Dimension, dim)
	}

	return For(u), nil
}

func (c ScaleConverter) ToWire(base float64) float64 {
	v := base / c.Unit.Factor
	if c.Precision < 0 {
		return v
	}

	scale := math.Pow(10, float64(c.Precision))

	return math.Round(v*scale) / scale
}

func (c ScaleConverter) FromWire(wire float64) float64 {
	return wire * c.Unit.Factor
}
