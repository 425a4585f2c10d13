package structcodec

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"field-publisher/internal/metrics"
	"field-publisher/kv"
	"field-publisher/primitive"
	"field-publisher/schema"
)

// storeMock is a kv.Store whose calls are scripted per test.
type storeMock struct {
	mock.Mock
}

func (s *storeMock) Set(key string, v kv.Value) error {
	return s.Called(key, v).Error(0)
}

func (s *storeMock) Get(key string) (kv.Value, error) {
	args := s.Called(key)
	return args.Get(0).(kv.Value), args.Error(1)
}

func (s *storeMock) Delete(key string) error {
	return s.Called(key).Error(0)
}

func (s *storeMock) Keys(prefix string) ([]string, error) {
	args := s.Called(prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (s *storeMock) Close() error {
	return s.Called().Error(0)
}

func TestNew_PoseLeaves(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()

	c, err := New(store, "Pose", schema.Struct[pose](poseDesc{}), pose{X: 1, Y: 2, Z: rotation{Radians: 3}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Pose/x", "Pose/y", "Pose/Rotation/radians"}, c.Keys())
	assert.Equal(t, "Pose", c.Prefix())
	require.Len(t, c.Leaves(), 3, spew.Sdump(c.Leaves()))

	snap := store.Snapshot()
	assert.Equal(t, kv.Value{Type: "double", Data: 1.0}, snap["Pose/x"])
	assert.Equal(t, kv.Value{Type: "double", Data: 2.0}, snap["Pose/y"])
	assert.Equal(t, kv.Value{Type: "double", Data: 3.0}, snap["Pose/Rotation/radians"])
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()

	c, err := New(store, "robot/status", schema.Struct[status](statusDesc{}), status{})
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 11))

	for range 50 {
		v := status{
			Code:    int16(rng.IntN(1 << 16)),
			Enabled: rng.IntN(2) == 1,
			Mode:    uint8(rng.IntN(256)),
			Stamp:   rng.Int64() - rng.Int64(),
			Ratio:   rng.Float32() * 100,
			Tag:     byte(rng.IntN(256)),
			Count:   rng.Int32() - rng.Int32(),
		}

		require.NoError(t, c.Publish(v))

		got, err := c.Retrieve()
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	tag, err := kv.GetAs(store, "robot/status/tag", "char")
	require.NoError(t, err)
	assert.IsType(t, byte(0), tag)
}

func TestCodec_RetrieveSeesRemoteWrites(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()

	c, err := New(store, "Pose", schema.Struct[pose](poseDesc{}), pose{})
	require.NoError(t, err)

	require.NoError(t, store.Set("Pose/Rotation/radians", kv.Value{Type: "double", Data: 1.5}))

	got, err := c.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, pose{Z: rotation{Radians: 1.5}}, got)

	// A leaf deleted remotely keeps its last known value.
	require.NoError(t, store.Delete("Pose/x"))
	require.NoError(t, c.Publish(pose{X: 4}))
	require.NoError(t, store.Delete("Pose/x"))

	got, err = c.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.X)

	require.NoError(t, store.Set("Pose/y", kv.Value{Type: "double", Data: 0.0}))
	require.NoError(t, store.Delete("Pose/y"))
	require.NoError(t, store.Set("Pose/y", kv.Value{Type: "string", Data: "oops"}))

	_, err = c.Retrieve()
	require.ErrorIs(t, err, kv.ErrTypeMismatch)
}

func TestCodec_LeafOrderMatters(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()

	c, err := New(store, "Pose", schema.Struct[pose](poseDesc{}), pose{})
	require.NoError(t, err)

	// Apply the two same-width leaves x and y in swapped order.
	swapped := *c
	swapped.leaves = append([]leaf(nil), c.leaves...)
	swapped.leaves[0].Offset, swapped.leaves[1].Offset = swapped.leaves[1].Offset, swapped.leaves[0].Offset
	swapped.buf = make([]byte, len(c.buf))

	v := pose{X: 1, Y: 2, Z: rotation{Radians: 3}}
	require.NoError(t, swapped.Publish(v))

	got, err := c.Retrieve()
	require.NoError(t, err)
	assert.NotEqual(t, v, got)
	assert.Equal(t, pose{X: 2, Y: 1, Z: rotation{Radians: 3}}, got)

	require.NoError(t, c.Publish(v))
	got, err = c.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestNew_InvalidSchemaPublishesNothing(t *testing.T) {
	t.Parallel()

	store := &storeMock{}
	desc := statusDesc{schema: "int16 code;Flags flags;int64 stamp"}

	_, err := New(store, "robot/status", schema.Struct[status](desc), status{})
	require.ErrorIs(t, err, schema.ErrUnresolvedType)

	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestNew_DuplicateLeafPublishesNothing(t *testing.T) {
	t.Parallel()

	store := &storeMock{}

	c, err := New(store, "P", schema.Struct[twin](twinDesc{}), twin{A: rotation{Radians: 1}, B: rotation{Radians: 2}})
	require.ErrorIs(t, err, schema.ErrDuplicateLeaf)
	assert.Contains(t, err.Error(), "P/Rotation/radians")
	assert.Nil(t, c)

	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestNew_SizeMismatch(t *testing.T) {
	t.Parallel()

	store := &storeMock{}
	desc := statusDesc{schema: "int16 code;bool enabled"}

	_, err := New(store, "robot/status", schema.Struct[status](desc), status{})
	require.ErrorIs(t, err, schema.ErrSizeMismatch)

	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestNew_StoreFailureClosesCreatedLeaves(t *testing.T) {
	t.Parallel()

	remoteErr := errors.New("remote refused")

	store := &storeMock{}
	store.On("Set", "Pose/x", mock.Anything).Return(nil).Once()
	store.On("Set", "Pose/y", mock.Anything).Return(nil).Once()
	store.On("Set", "Pose/Rotation/radians", mock.Anything).Return(remoteErr).Once()
	store.On("Delete", "Pose/x").Return(nil).Once()
	store.On("Delete", "Pose/y").Return(nil).Once()

	core, logs := observer.New(zap.WarnLevel)
	reg := prometheus.NewRegistry()

	_, err := New(store, "Pose", schema.Struct[pose](poseDesc{}), pose{},
		WithLogger(zap.New(core)), WithMetrics(metrics.New(reg)))
	require.ErrorIs(t, err, remoteErr)

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Delete", "Pose/Rotation/radians")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "struct codec not bound", logs.All()[0].Message)
}

func TestNew_RecursiveSchema(t *testing.T) {
	t.Parallel()

	store := &storeMock{}

	_, err := New(store, "list", schema.Struct[schema.Record](&nodeDesc{}), nil)
	require.ErrorIs(t, err, schema.ErrRecursionLimit)

	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

// nodeDesc references itself through its own schema.
type nodeDesc struct{}

func (*nodeDesc) TypeName() string               { return "Node" }
func (*nodeDesc) Size() int                      { return 8 }
func (*nodeDesc) Schema() string                 { return "double value;Node next" }
func (n *nodeDesc) Nested() []schema.Description { return []schema.Description{n} }
func (*nodeDesc) Pack([]byte, schema.Record)     {}
func (*nodeDesc) Unpack([]byte) schema.Record    { return nil }

func TestCodec_Close(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c, err := New(store, "Pose", schema.Struct[pose](poseDesc{}), pose{}, WithMetrics(m))
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	keys, err := store.Keys("")
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.ErrorIs(t, c.Publish(pose{}), ErrClosed)
	_, err = c.Retrieve()
	require.ErrorIs(t, err, ErrClosed)

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() == "fieldpub_leaves" {
			assert.Equal(t, 0.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestCodec_BufferMismatchPanics(t *testing.T) {
	t.Parallel()

	c, err := New(kv.NewMemory(), "Pose", schema.Struct[pose](poseDesc{}), pose{})
	require.NoError(t, err)

	c.buf = c.buf[:16]

	assert.Panics(t, func() { _ = c.Publish(pose{}) })
	assert.Panics(t, func() { _, _ = c.Retrieve() })
}

func TestCodec_DynamicRecord(t *testing.T) {
	t.Parallel()

	rot, err := schema.NewDynamic("Rotation", "double radians")
	require.NoError(t, err)

	d, err := schema.NewDynamic("Arm", "int32 joint;Rotation angle;bool homed", rot)
	require.NoError(t, err)

	store := kv.NewMemory()

	c, err := New(store, "arm", schema.Struct[schema.Record](d), schema.Record{"joint": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"arm/joint", "arm/Rotation/radians", "arm/homed"}, c.Keys())

	in := schema.Record{"joint": int32(3), "angle": schema.Record{"radians": 0.5}, "homed": true}
	require.NoError(t, c.Publish(in))

	got, err := c.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, in, got)

	joint, err := kv.GetAs(store, "arm/joint", kv.PrimitiveType(primitive.KindInt32))
	require.NoError(t, err)
	assert.Equal(t, int32(3), joint)
}
