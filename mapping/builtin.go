package mapping

import (
	"field-publisher/geometry"
	"field-publisher/primitive"
	"field-publisher/units"
)

// Defaults returns a registry with every built-in mapping registered. No two
// built-ins match the same concrete type.
func Defaults() *Registry {
	r := NewRegistry()
	RegisterScalars(r)
	RegisterBoxed(r)
	RegisterArrays(r)
	RegisterMeasures(r)
	RegisterGeometry(r)

	return r
}

func identity[T any](v T, _ *Configuration) T { return v }

func scalar[T any](name string, kind primitive.KindEnum) *Typed[T, T] {
	return New(name, FamilyScalar, Scalar(kind), identity[T], identity[T])
}

// RegisterScalars maps Go scalars onto the primitive kind carrying them.
func RegisterScalars(r *Registry) {
	r.Register(scalar[float64]("double", primitive.KindDouble))
	r.Register(scalar[float32]("float32", primitive.KindFloat32))
	r.Register(scalar[int32]("int32", primitive.KindInt32))
	r.Register(scalar[int64]("int64", primitive.KindInt64))
	r.Register(scalar[int16]("int16", primitive.KindInt16))
	r.Register(scalar[uint8]("uint8", primitive.KindUint8))
	r.Register(scalar[bool]("bool", primitive.KindBool))
	r.Register(New("int", FamilyScalar, Scalar(primitive.KindInt64),
		func(v int, _ *Configuration) int64 { return int64(v) },
		func(w int64, _ *Configuration) int { return int(w) }))
}

func boxed[T any](name string, kind primitive.KindEnum) *Typed[*T, T] {
	return New(name, FamilyBoxed, Scalar(kind),
		func(v *T, _ *Configuration) T {
			if v == nil {
				var zero T
				return zero
			}

			return *v
		},
		func(w T, _ *Configuration) *T { return &w })
}

// RegisterBoxed maps pointers to scalars; nil publishes the zero value.
func RegisterBoxed(r *Registry) {
	r.Register(boxed[float64]("boxed double", primitive.KindDouble))
	r.Register(boxed[int64]("boxed int64", primitive.KindInt64))
	r.Register(boxed[int32]("boxed int32", primitive.KindInt32))
	r.Register(boxed[bool]("boxed bool", primitive.KindBool))
}

func array[T any](name string, kind primitive.KindEnum) *Typed[[]T, []T] {
	return New(name, FamilyArray, ArrayOf(kind),
		func(v []T, _ *Configuration) []T { return append([]T(nil), v...) },
		func(w []T, _ *Configuration) []T { return append([]T(nil), w...) })
}

// RegisterArrays maps slices of scalars onto primitive arrays.
func RegisterArrays(r *Registry) {
	r.Register(array[float64]("double[]", primitive.KindDouble))
	r.Register(array[float32]("float32[]", primitive.KindFloat32))
	r.Register(array[int32]("int32[]", primitive.KindInt32))
	r.Register(array[int64]("int64[]", primitive.KindInt64))
	r.Register(array[bool]("bool[]", primitive.KindBool))
}

// RegisterMeasures maps unit-carrying measurements to doubles expressed in the
// configured unit (meters and radians by default).
func RegisterMeasures(r *Registry) {
	r.Register(New("distance", FamilyComposite, Scalar(primitive.KindDouble),
		func(v units.Distance, cfg *Configuration) float64 {
			return cfg.UnitConverter(units.DimensionDistance, units.Meters).ToWire(float64(v))
		},
		func(w float64, cfg *Configuration) units.Distance {
			return units.Distance(cfg.UnitConverter(units.DimensionDistance, units.Meters).FromWire(w))
		}))
	r.Register(New("angle", FamilyComposite, Scalar(primitive.KindDouble),
		func(v units.Angle, cfg *Configuration) float64 {
			return cfg.UnitConverter(units.DimensionAngle, units.Radians).ToWire(float64(v))
		},
		func(w float64, cfg *Configuration) units.Angle {
			return units.Angle(cfg.UnitConverter(units.DimensionAngle, units.Radians).FromWire(w))
		}))
}

// RegisterGeometry maps planar geometry values. Rotations publish as a single
// angle; translations as [x, y]; poses as [x, y, heading]. Distances honor the
// "unit" value, headings the converter registered under "angle".
func RegisterGeometry(r *Registry) {
	angleConv := func(cfg *Configuration) units.Converter {
		if conv, ok := cfg.Converter("angle"); ok {
			return conv
		}

		return units.For(units.Radians)
	}
	distConv := func(cfg *Configuration) units.Converter {
		return cfg.UnitConverter(units.DimensionDistance, units.Meters)
	}

	r.Register(New("rotation2d", FamilyComposite, Scalar(primitive.KindDouble),
		func(v geometry.Rotation2d, cfg *Configuration) float64 {
			return cfg.UnitConverter(units.DimensionAngle, units.Radians).ToWire(v.Radians)
		},
		func(w float64, cfg *Configuration) geometry.Rotation2d {
			return geometry.Rotation2d{Radians: cfg.UnitConverter(units.DimensionAngle, units.Radians).FromWire(w)}
		}))
	r.Register(New("translation2d", FamilyComposite, ArrayOf(primitive.KindDouble),
		func(v geometry.Translation2d, cfg *Configuration) []float64 {
			c := distConv(cfg)
			return []float64{c.ToWire(v.X), c.ToWire(v.Y)}
		},
		func(w []float64, cfg *Configuration) geometry.Translation2d {
			c := distConv(cfg)
			w = padded(w, 2)

			return geometry.Translation2d{X: c.FromWire(w[0]), Y: c.FromWire(w[1])}
		}))
	r.Register(New("pose2d", FamilyComposite, ArrayOf(primitive.KindDouble),
		func(v geometry.Pose2d, cfg *Configuration) []float64 {
			c := distConv(cfg)
			return []float64{c.ToWire(v.Translation.X), c.ToWire(v.Translation.Y), angleConv(cfg).ToWire(v.Rotation.Radians)}
		},
		func(w []float64, cfg *Configuration) geometry.Pose2d {
			c := distConv(cfg)
			w = padded(w, 3)

			return geometry.NewPose2d(c.FromWire(w[0]), c.FromWire(w[1]),
				geometry.Rotation2d{Radians: angleConv(cfg).FromWire(w[2])})
		}))
}

// padded returns w extended with zeros to at least n elements.
func padded(w []float64, n int) []float64 {
	if len(w) >= n {
		return w
	}

	out := make([]float64, n)
	copy(out, w)

	return out
}
