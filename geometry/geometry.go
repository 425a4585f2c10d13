// Package geometry provides planar geometry values and their packed struct
// descriptions.
package geometry

import (
	"math"

	"field-publisher/units"
)

// Rotation2d is a planar heading.
type Rotation2d struct {
	Radians float64
}

// RotationOf builds a rotation from an angle.
func RotationOf(a units.Angle) Rotation2d {
	return Rotation2d{Radians: float64(a)}
}

// Angle returns the rotation as a unit-carrying angle.
func (r Rotation2d) Angle() units.Angle {
	return units.Angle(r.Radians)
}

// Degrees returns the rotation in degrees.
func (r Rotation2d) Degrees() float64 {
	return r.Radians * 180 / math.Pi
}

// Translation2d is a planar offset in meters.
type Translation2d struct {
	X, Y float64
}

// TranslationOf builds a translation from two distances.
func TranslationOf(x, y units.Distance) Translation2d {
	return Translation2d{X: float64(x), Y: float64(y)}
}

// Norm returns the distance from the origin.
func (t Translation2d) Norm() units.Distance {
	return units.Distance(math.Hypot(t.X, t.Y))
}

// Pose2d is a translation plus heading.
type Pose2d struct {
	Translation Translation2d
	Rotation    Rotation2d
}

// NewPose2d builds a pose from coordinates in meters and a heading.
func NewPose2d(x, y float64, rot Rotation2d) Pose2d {
	return Pose2d{Translation: Translation2d{X: x, Y: y}, Rotation: rot}
}
