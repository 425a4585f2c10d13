package publisher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"field-publisher/geometry"
	"field-publisher/kv"
	"field-publisher/mapping"
	"field-publisher/publisher"
	"field-publisher/schema"
	"field-publisher/units"
)

type robot struct {
	pose    geometry.Pose2d
	height  units.Distance
	enabled bool
}

func TestTable_StrategiesAndUpdate(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	tbl := publisher.New(store, mapping.Defaults(), publisher.WithPrefix("robot"))

	r := &robot{pose: geometry.NewPose2d(1, 2, geometry.Rotation2d{}), height: 0.5, enabled: true}

	require.NoError(t, publisher.AddStruct(tbl, "pose", geometry.PoseStruct, nil,
		func() geometry.Pose2d { return r.pose }))
	require.NoError(t, publisher.AddStruct(tbl, "blob", geometry.PoseStruct,
		mapping.NewConfiguration().WithStrategy(mapping.StrategyStruct),
		func() geometry.Pose2d { return r.pose }))
	require.NoError(t, publisher.AddStruct(tbl, "flat", geometry.PoseStruct,
		mapping.NewConfiguration().WithStrategy(mapping.StrategyMapping),
		func() geometry.Pose2d { return r.pose }))
	require.NoError(t, publisher.AddValue(tbl, "height",
		mapping.NewConfiguration().WithValue(mapping.ValueUnit, "cm"),
		func() units.Distance { return r.height }))
	require.NoError(t, publisher.AddValue(tbl, "ignored",
		mapping.NewConfiguration().WithKey("status/enabled"),
		func() bool { return r.enabled }))

	assert.Equal(t, []string{"robot/pose", "robot/blob", "robot/flat", "robot/height", "status/enabled"}, tbl.Keys())

	keys, err := store.Keys("robot/pose/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"robot/pose/Rotation2d/value",
		"robot/pose/Translation2d/x",
		"robot/pose/Translation2d/y",
	}, keys)

	r.pose = geometry.NewPose2d(5, 6, geometry.Rotation2d{Radians: 1})
	r.height = 1
	r.enabled = false
	require.NoError(t, tbl.Update())

	snap := store.Snapshot()
	assert.Equal(t, 5.0, snap["robot/pose/Translation2d/x"].Data)
	assert.Equal(t, kv.StructType("Pose2d"), snap["robot/blob"].Type)
	assert.Equal(t, []float64{5, 6, 1}, snap["robot/flat"].Data)
	assert.InDelta(t, 100.0, snap["robot/height"].Data, 1e-9)
	assert.Equal(t, false, snap["status/enabled"].Data)

	all, err := tbl.RetrieveAll()
	require.NoError(t, err)
	assert.Equal(t, r.pose, all["robot/pose"])
	assert.Equal(t, r.pose, all["robot/blob"])
	assert.Equal(t, r.pose, all["robot/flat"])
	assert.InDelta(t, 1.0, float64(all["robot/height"].(units.Distance)), 1e-12)
	assert.Equal(t, false, all["status/enabled"])

	_, err = tbl.Retrieve("robot/missing")
	require.ErrorIs(t, err, publisher.ErrUnknownKey)

	require.NoError(t, tbl.Close())
	assert.Empty(t, tbl.Keys())

	keys, err = store.Keys("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/.schema/struct:Pose2d",
		"/.schema/struct:Rotation2d",
		"/.schema/struct:Translation2d",
	}, keys)
}

func TestTable_InvalidSchemaDegrades(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	store := kv.NewMemory()
	tbl := publisher.New(store, mapping.Defaults(), publisher.WithLogger(zap.New(core)))

	rot, err := schema.NewDynamic("Rotation", "double radians")
	require.NoError(t, err)

	// The schema names Quaternion, which is not among the nested structs.
	broken := &brokenDesc{Dynamic: rot}

	err = publisher.AddStruct(tbl, "arm", schema.Struct[schema.Record](broken), nil,
		func() schema.Record { return schema.Record{} })
	require.NoError(t, err)

	assert.Equal(t, []string{"arm"}, tbl.Skipped())
	assert.Empty(t, tbl.Keys())
	assert.Empty(t, store.Ops())
	assert.Equal(t, 1, logs.FilterMessage("struct not published: invalid schema").Len())

	require.NoError(t, tbl.Update())
}

func TestTable_Skip(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	tbl := publisher.New(kv.NewMemory(), mapping.Defaults(),
		publisher.WithPrefix("robot"), publisher.WithLogger(zap.New(core)))

	tbl.Skip("arm", nil, "Arm", schema.ErrUnresolvedType)
	tbl.Skip("leg", mapping.NewConfiguration().WithKey("limbs/leg"), "Leg", schema.ErrRecursionLimit)

	assert.Equal(t, []string{"robot/arm", "limbs/leg"}, tbl.Skipped())
	assert.Empty(t, tbl.Keys())
	assert.Equal(t, 2, logs.FilterMessage("struct not published: invalid schema").Len())
}

type brokenDesc struct {
	*schema.Dynamic
}

func (*brokenDesc) Schema() string { return "double radians;Quaternion q" }

func TestTable_Failures(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	tbl := publisher.New(store, mapping.Defaults())

	require.NoError(t, publisher.AddValue(tbl, "speed", nil, func() float64 { return 1 }))

	err := publisher.AddValue(tbl, "speed", nil, func() float64 { return 2 })
	require.ErrorIs(t, err, publisher.ErrDuplicateKey)

	err = publisher.AddValue(tbl, "name", nil, func() string { return "robot" })
	require.ErrorIs(t, err, mapping.ErrNoMappingFound)

	rec, err := schema.NewDynamic("Arm", "double x")
	require.NoError(t, err)

	err = publisher.AddStruct(tbl, "arm", schema.Struct[schema.Record](rec),
		mapping.NewConfiguration().WithStrategy(mapping.StrategyMapping),
		func() schema.Record { return nil })
	require.ErrorIs(t, err, mapping.ErrNoMappingFound)

	// A remote writer taking the key with another type makes the row fail.
	require.NoError(t, store.Delete("speed"))
	require.NoError(t, store.Set("speed", kv.Value{Type: kv.TypeString, Data: "fast"}))
	require.ErrorIs(t, tbl.Update(), kv.ErrTypeMismatch)

	assert.Equal(t, []string{"speed"}, tbl.Keys())
}

func TestTable_OverlappingKeys(t *testing.T) {
	t.Parallel()

	pose := func() geometry.Pose2d { return geometry.NewPose2d(1, 2, geometry.Rotation2d{}) }
	leaf := func() float64 { return 99 }

	tests := []struct {
		name  string
		first func(*publisher.Table) error
		then  func(*publisher.Table) error
	}{
		{
			name:  "value under struct leaves",
			first: func(tbl *publisher.Table) error { return publisher.AddStruct(tbl, "pose", geometry.PoseStruct, nil, pose) },
			then:  func(tbl *publisher.Table) error { return publisher.AddValue(tbl, "pose/Translation2d/x", nil, leaf) },
		},
		{
			name:  "struct leaves over value",
			first: func(tbl *publisher.Table) error { return publisher.AddValue(tbl, "pose/Translation2d/x", nil, leaf) },
			then:  func(tbl *publisher.Table) error { return publisher.AddStruct(tbl, "pose", geometry.PoseStruct, nil, pose) },
		},
		{
			name:  "key override onto struct leaf",
			first: func(tbl *publisher.Table) error { return publisher.AddStruct(tbl, "pose", geometry.PoseStruct, nil, pose) },
			then: func(tbl *publisher.Table) error {
				return publisher.AddValue(tbl, "x", mapping.NewConfiguration().WithKey("robot/pose/Rotation2d/value"), leaf)
			},
		},
		{
			name:  "blob at struct key",
			first: func(tbl *publisher.Table) error { return publisher.AddStruct(tbl, "pose", geometry.PoseStruct, nil, pose) },
			then: func(tbl *publisher.Table) error {
				return publisher.AddStruct(tbl, "pose", geometry.PoseStruct,
					mapping.NewConfiguration().WithStrategy(mapping.StrategyStruct), pose)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := kv.NewMemory()
			tbl := publisher.New(store, mapping.Defaults(), publisher.WithPrefix("robot"))

			require.NoError(t, tt.first(tbl))
			before := store.Snapshot()

			require.ErrorIs(t, tt.then(tbl), publisher.ErrDuplicateKey)
			assert.Len(t, tbl.Keys(), 1)
			assert.Equal(t, before, store.Snapshot())
		})
	}
}

func TestTable_SubTableOwnsLeaves(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	tbl := publisher.New(store, mapping.Defaults())

	require.NoError(t, publisher.AddStruct(tbl, "pose", geometry.PoseStruct, nil,
		func() geometry.Pose2d { return geometry.NewPose2d(1, 2, geometry.Rotation2d{}) }))

	err := publisher.AddValue(tbl, "pose/Translation2d/x", nil, func() float64 { return 99 })
	require.ErrorIs(t, err, publisher.ErrDuplicateKey)

	require.NoError(t, tbl.Update())

	got, err := tbl.Retrieve("pose")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewPose2d(1, 2, geometry.Rotation2d{}), got)

	// A sibling outside the leaf set is a distinct key.
	require.NoError(t, publisher.AddValue(tbl, "pose/speed", nil, func() float64 { return 3 }))
}

func TestTable_DuplicateLeafDegrades(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	store := kv.NewMemory()
	tbl := publisher.New(store, mapping.Defaults(), publisher.WithLogger(zap.New(core)))

	rot, err := schema.NewDynamic("Rotation", "double radians")
	require.NoError(t, err)

	twin, err := schema.NewDynamic("Twin", "Rotation a;Rotation b", rot)
	require.NoError(t, err)

	err = publisher.AddStruct(tbl, "twin", schema.Struct[schema.Record](twin), nil,
		func() schema.Record { return schema.Record{} })
	require.NoError(t, err)

	assert.Equal(t, []string{"twin"}, tbl.Skipped())
	assert.Empty(t, tbl.Keys())
	assert.Empty(t, store.Ops())
	assert.Equal(t, 1, logs.FilterMessage("struct not published: invalid schema").Len())
}
