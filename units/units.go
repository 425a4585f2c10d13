// Package units provides unit-carrying measurements and the converters used to
// express them as plain doubles on the wire.
package units

import (
	"fmt"
	"math"
	"strings"
)

// Dimension is the physical quantity a unit measures.
type Dimension int

const (
	DimensionUnknown Dimension = iota
	DimensionDistance
	DimensionAngle
)

// String returns a human-readable dimension name.
func (d Dimension) String() string {
	switch d {
	case DimensionDistance:
		return "distance"
	case DimensionAngle:
		return "angle"
	default:
		return "unknown"
	}
}

// Unit is a named scale for one dimension. Factor is the size of one unit in
// the dimension's base unit (meters, radians).
type Unit struct {
	Name      string
	Symbol    string
	Dimension Dimension
	Factor    float64
}

var (
	Meters      = Unit{Name: "meters", Symbol: "m", Dimension: DimensionDistance, Factor: 1}
	Centimeters = Unit{Name: "centimeters", Symbol: "cm", Dimension: DimensionDistance, Factor: 0.01}
	Inches      = Unit{Name: "inches", Symbol: "in", Dimension: DimensionDistance, Factor: 0.0254}
	Feet        = Unit{Name: "feet", Symbol: "ft", Dimension: DimensionDistance, Factor: 0.3048}

	Radians   = Unit{Name: "radians", Symbol: "rad", Dimension: DimensionAngle, Factor: 1}
	Degrees   = Unit{Name: "degrees", Symbol: "deg", Dimension: DimensionAngle, Factor: math.Pi / 180}
	Rotations = Unit{Name: "rotations", Symbol: "rot", Dimension: DimensionAngle, Factor: 2 * math.Pi}
)

var known = []Unit{Meters, Centimeters, Inches, Feet, Radians, Degrees, Rotations}

// Lookup finds a unit by name or symbol, case-insensitively.
func Lookup(name string) (Unit, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, u := range known {
		if u.Name == name || u.Symbol == name {
			return u, true
		}
	}

	return Unit{}, false
}

// String returns the unit name.
func (u Unit) String() string {
	return u.Name
}

// Distance is a length stored in meters.
type Distance float64

// DistanceOf builds a Distance from a magnitude in the given unit.
func DistanceOf(v float64, u Unit) Distance {
	mustBe(u, DimensionDistance)
	return Distance(v * u.Factor)
}

// In returns the magnitude of d expressed in u.
func (d Distance) In(u Unit) float64 {
	mustBe(u, DimensionDistance)
	return float64(d) / u.Factor
}

// Angle is a rotation stored in radians.
type Angle float64

// AngleOf builds an Angle from a magnitude in the given unit.
func AngleOf(v float64, u Unit) Angle {
	mustBe(u, DimensionAngle)
	return Angle(v * u.Factor)
}

// In returns the magnitude of a expressed in u.
func (a Angle) In(u Unit) float64 {
	mustBe(u, DimensionAngle)
	return float64(a) / u.Factor
}

// Measure is implemented by every measurement type in this package.
type Measure interface {
	Base() float64
	Dimension() Dimension
}

func (d Distance) Base() float64        { return float64(d) }
func (d Distance) Dimension() Dimension { return DimensionDistance }
func (a Angle) Base() float64           { return float64(a) }
func (a Angle) Dimension() Dimension    { return DimensionAngle }

func mustBe(u Unit, dim Dimension) {
	if u.Dimension != dim {
		panic(fmt.Sprintf("unit %s measures %s, not %s", u.Name, u.Dimension, dim))
	}
}
