package mapping_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-publisher/geometry"
	"field-publisher/mapping"
	"field-publisher/primitive"
	"field-publisher/units"
)

func TestTyped_ToWireFromWire(t *testing.T) {
	t.Parallel()

	m, err := mapping.FindFor[units.Distance](mapping.Defaults())
	require.NoError(t, err)

	cfg := mapping.NewConfiguration().WithValue(mapping.ValueUnit, "inches")

	wire, err := m.ToWire(units.DistanceOf(2, units.Feet), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 24.0, wire, 1e-9)

	native, err := m.FromWire(12.0, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.3048, float64(native.(units.Distance)), 1e-12)

	_, err = m.ToWire(3.0, cfg)
	require.Error(t, err)
}

func TestTyped_FromWireCoercesSafeNumbers(t *testing.T) {
	t.Parallel()

	m, err := mapping.FindFor[float64](mapping.Defaults())
	require.NoError(t, err)

	v, err := m.FromWire(int32(4), nil)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	_, err = m.FromWire("4", nil)
	require.ErrorIs(t, err, primitive.ErrNotConvertible)
}

func TestBoxed_NilPublishesZero(t *testing.T) {
	t.Parallel()

	m, err := mapping.FindFor[*int64](mapping.Defaults())
	require.NoError(t, err)

	wire, err := m.ToWire((*int64)(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wire)

	back, err := m.FromWire(int64(9), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(9), *back.(*int64))
}

func TestGeometry_ConverterOverrides(t *testing.T) {
	t.Parallel()

	m, err := mapping.FindFor[geometry.Pose2d](mapping.Defaults())
	require.NoError(t, err)

	cfg := mapping.NewConfiguration().
		WithConverter("", units.For(units.Centimeters)).
		WithConverter("angle", units.For(units.Degrees))

	pose := geometry.NewPose2d(1, 0.5, geometry.Rotation2d{Radians: math.Pi})

	wire, err := m.ToWire(pose, cfg)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 50, 180}, wire, 1e-9)

	back, err := m.FromWire(wire, cfg)
	require.NoError(t, err)
	got := back.(geometry.Pose2d)
	assert.InDelta(t, 1, got.Translation.X, 1e-12)
	assert.InDelta(t, math.Pi, got.Rotation.Radians, 1e-12)

	short, err := m.FromWire([]float64{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewPose2d(1, 0, geometry.Rotation2d{}), short)
}

func TestConfiguration(t *testing.T) {
	t.Parallel()

	cfg := mapping.NewConfiguration().
		WithKey("arm/length").
		WithStrategy(mapping.StrategyMapping).
		WithValue(mapping.ValuePrecision, "2")

	assert.Equal(t, "arm/length", cfg.ResolveKey("Arm/length"))
	assert.Equal(t, mapping.StrategyMapping, cfg.Strategy())
	assert.Equal(t, map[string]string{"precision": "2"}, cfg.Values())

	conv := cfg.UnitConverter(units.DimensionDistance, units.Inches)
	assert.Equal(t, 1.0, conv.ToWire(0.0254))
	assert.Equal(t, 3.94, mapping.NewConfiguration().
		WithValue(mapping.ValueUnit, "in").
		WithValue(mapping.ValuePrecision, "2").
		UnitConverter(units.DimensionDistance, units.Meters).
		ToWire(0.1))

	var nilCfg *mapping.Configuration
	assert.Equal(t, "generated", nilCfg.ResolveKey("generated"))
	assert.Equal(t, mapping.StrategyDefault, nilCfg.Strategy())
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for _, s := range []mapping.Strategy{mapping.StrategyDefault, mapping.StrategyStruct, mapping.StrategySubTable, mapping.StrategyMapping} {
		got, ok := mapping.ParseStrategy(s.String())
		require.True(t, ok)
		assert.Equal(t, s, got)
	}

	_, ok := mapping.ParseStrategy("blob")
	assert.False(t, ok)
}
