package structcodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-publisher/geometry"
	"field-publisher/kv"
	"field-publisher/schema"
	"field-publisher/structcodec"
)

func TestBlob_PublishRetrieve(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	initial := geometry.NewPose2d(1, 2, geometry.Rotation2d{Radians: 0.5})

	b, err := structcodec.NewBlob(store, "drive/pose", geometry.PoseStruct, initial)
	require.NoError(t, err)
	assert.Equal(t, "drive/pose", b.Key())

	snap := store.Snapshot()
	assert.Equal(t, kv.StructType("Pose2d"), snap["drive/pose"].Type)
	assert.Len(t, snap["drive/pose"].Data, 24)
	assert.Equal(t, "Translation2d translation;Rotation2d rotation", snap["/.schema/struct:Pose2d"].Data)
	assert.Equal(t, "double x;double y", snap["/.schema/struct:Translation2d"].Data)
	assert.Equal(t, "double value", snap["/.schema/struct:Rotation2d"].Data)

	got, err := b.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, initial, got)

	next := geometry.NewPose2d(-3, 4, geometry.Rotation2d{Radians: 1})
	require.NoError(t, b.Publish(next))

	got, err = b.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, next, got)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	keys, err := store.Keys("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/.schema/struct:Pose2d",
		"/.schema/struct:Rotation2d",
		"/.schema/struct:Translation2d",
	}, keys)

	require.ErrorIs(t, b.Publish(next), structcodec.ErrClosed)
}

func TestBlob_RemoteEdits(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	initial := geometry.Translation2d{X: 1, Y: 1}

	b, err := structcodec.NewBlob(store, "target", geometry.TranslationStruct, initial)
	require.NoError(t, err)

	require.NoError(t, store.Delete("target"))

	got, err := b.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, initial, got)

	require.NoError(t, store.Set("target", kv.Value{Type: kv.StructType("Translation2d"), Data: []byte{1, 2}}))

	_, err = b.Retrieve()
	require.ErrorIs(t, err, schema.ErrSizeMismatch)
}

func TestBlob_InvalidSchema(t *testing.T) {
	t.Parallel()

	bad, err := schema.NewDynamic("Bad", "double x")
	require.NoError(t, err)

	store := kv.NewMemory()

	_, err = structcodec.NewBlob(store, "bad", schema.Struct[schema.Record](unsized{bad}), nil)
	require.ErrorIs(t, err, schema.ErrSizeMismatch)

	keys, err := store.Keys("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

// unsized misreports its size.
type unsized struct {
	*schema.Dynamic
}

func (unsized) Size() int { return 4 }

func TestSchemaKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/.schema/struct:Rotation2d", structcodec.SchemaKey(geometry.RotationStruct))
}

func TestLoadSchema(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	pose := geometry.NewPose2d(1, 2, geometry.Rotation2d{Radians: 0.5})

	_, err := structcodec.NewBlob(store, "drive/pose", geometry.PoseStruct, pose)
	require.NoError(t, err)

	d, err := structcodec.LoadSchema(store, "Pose2d")
	require.NoError(t, err)
	assert.Equal(t, geometry.PoseStruct.Size(), d.Size())

	blob, err := kv.GetAs(store, "drive/pose", kv.StructType("Pose2d"))
	require.NoError(t, err)

	assert.Equal(t, schema.Record{
		"translation": schema.Record{"x": 1.0, "y": 2.0},
		"rotation":    schema.Record{"value": 0.5},
	}, d.Unpack(blob.([]byte)))
}

func TestLoadSchema_Unresolved(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()

	_, err := structcodec.LoadSchema(store, "Pose2d")
	require.ErrorIs(t, err, schema.ErrUnresolvedType)

	require.NoError(t, store.Set("/.schema/struct:Loop", kv.Value{Type: kv.TypeString, Data: "Loop next"}))

	_, err = structcodec.LoadSchema(store, "Loop")
	require.ErrorIs(t, err, schema.ErrRecursionLimit)
}
