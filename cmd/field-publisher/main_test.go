package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"field-publisher/geometry"
	"field-publisher/kv"
	"field-publisher/structcodec"
)

const testManifest = `
prefix: robot
log:
  level: error
structs:
  - {name: Broken, schema: "int32 a;Rotaton2d r"}
entries:
  - key: pose
    struct: Pose2d
    value:
      translation: {x: 1, y: 2}
  - key: blob
    struct: Rotation2d
    strategy: struct
  - key: broken
    struct: Broken
  - key: height
    type: distance
    value: 0.5
`

func writeManifest(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fields.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := run(context.Background(), args, &out)

	return out.String(), err
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
	assert.Contains(t, out, "--manifest")

	_, err = runCLI(t)
	require.EqualError(t, err, "missing command")

	_, err = runCLI(t, "frobnicate")
	require.EqualError(t, err, `unknown command "frobnicate"`)
}

func TestRun_Check(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "--manifest", writeManifest(t, testManifest), "check")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: [Broken]: [unresolved_schema]")
	assert.Contains(t, out, "ok (4 entries, 1 warnings)")

	out, err = runCLI(t, "-m", writeManifest(t, "entries:\n  - {key: a, type: distanse}\n"), "check")
	require.Error(t, err)
	assert.Contains(t, out, "error: [a] a: [unknown_type] no mapping named \"distanse\" (did you mean distance?)")
}

func TestRun_Leaves(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "-m", writeManifest(t, testManifest), "leaves")
	require.NoError(t, err)

	assert.Equal(t, `/.schema/struct:Rotation2d
robot/blob
robot/height
robot/pose/Rotation2d/value
robot/pose/Translation2d/x
robot/pose/Translation2d/y
robot/broken (skipped)
`, out)
}

func TestRun_PublishOnce(t *testing.T) {
	t.Parallel()

	out, err := runCLI(t, "-m", writeManifest(t, testManifest), "publish", "--once")
	require.NoError(t, err)
	assert.Equal(t, "published 3 entries\n", out)
}

func TestRun_InvalidManifest(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, "-m", writeManifest(t, "version: \"9\"\nentries: []\n"), "leaves")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported_version")

	_, err = runCLI(t, "-m", filepath.Join(t.TempDir(), "absent.yaml"), "publish", "--once")
	require.Error(t, err)
}

func TestRun_GetAndDumpInMemory(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, testManifest)

	_, err := runCLI(t, "-m", path, "get")
	require.EqualError(t, err, "get: no keys given")

	_, err = runCLI(t, "-m", path, "get", "robot/height")
	require.ErrorIs(t, err, kv.ErrNotFound)

	out, err := runCLI(t, "-m", path, "dump")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()

	_, err := structcodec.NewBlob(store, "robot/pose", geometry.PoseStruct,
		geometry.NewPose2d(1, 2, geometry.Rotation2d{Radians: 0.25}))
	require.NoError(t, err)
	require.NoError(t, store.Set("robot/speed", kv.Value{Type: kv.TypeString, Data: "fast"}))

	v, err := describe(store, "robot/pose")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeYAML(&out, []storedValue{v}))

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "struct:Pose2d", decoded[0]["type"])
	assert.Equal(t, map[string]any{
		"translation": map[string]any{"x": 1, "y": 2},
		"rotation":    map[string]any{"value": 0.25},
	}, decoded[0]["value"])

	v, err = describe(store, "robot/speed")
	require.NoError(t, err)
	assert.Equal(t, storedValue{Key: "robot/speed", Type: "string", Value: "fast"}, v)

	_, err = describe(store, "robot/absent")
	require.ErrorIs(t, err, kv.ErrNotFound)
}
