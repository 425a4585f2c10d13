package structcodec

import (
	"encoding/binary"
	"math"

	"field-publisher/schema"
)

type rotation struct {
	Radians float64
}

type pose struct {
	X, Y float64
	Z    rotation
}

type rotationDesc struct{}

func (rotationDesc) TypeName() string             { return "Rotation" }
func (rotationDesc) Size() int                    { return 8 }
func (rotationDesc) Schema() string               { return "double radians" }
func (rotationDesc) Nested() []schema.Description { return nil }

type poseDesc struct{}

func (poseDesc) TypeName() string             { return "Pose" }
func (poseDesc) Size() int                    { return 24 }
func (poseDesc) Schema() string               { return "double x;double y;Rotation z" }
func (poseDesc) Nested() []schema.Description { return []schema.Description{rotationDesc{}} }

func (poseDesc) Pack(buf []byte, v pose) {
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(v.X))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(v.Y))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(v.Z.Radians))
}

func (poseDesc) Unpack(buf []byte) pose {
	return pose{
		X: math.Float64frombits(binary.LittleEndian.Uint64(buf[0:])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
		Z: rotation{Radians: math.Float64frombits(binary.LittleEndian.Uint64(buf[16:]))},
	}
}

// twin holds two fields of the same nested type.
type twin struct {
	A, B rotation
}

type twinDesc struct{}

func (twinDesc) TypeName() string             { return "Twin" }
func (twinDesc) Size() int                    { return 16 }
func (twinDesc) Schema() string               { return "Rotation a;Rotation b" }
func (twinDesc) Nested() []schema.Description { return []schema.Description{rotationDesc{}} }

func (twinDesc) Pack(buf []byte, v twin) {
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(v.A.Radians))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(v.B.Radians))
}

func (twinDesc) Unpack(buf []byte) twin {
	return twin{
		A: rotation{Radians: math.Float64frombits(binary.LittleEndian.Uint64(buf[0:]))},
		B: rotation{Radians: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:]))},
	}
}

// status mixes every primitive width.
type status struct {
	Code    int16
	Enabled bool
	Mode    uint8
	Stamp   int64
	Ratio   float32
	Tag     byte
	Count   int32
}

type statusDesc struct {
	schema string
}

func (statusDesc) TypeName() string { return "Status" }
func (statusDesc) Size() int        { return 2 + 1 + 1 + 8 + 4 + 1 + 4 }

func (d statusDesc) Schema() string {
	if d.schema != "" {
		return d.schema
	}

	return "int16 code;bool enabled;uint8 mode;int64 stamp;float32 ratio;char tag;int32 count"
}

func (statusDesc) Nested() []schema.Description { return nil }

func (statusDesc) Pack(buf []byte, v status) {
	binary.LittleEndian.PutUint16(buf[0:], uint16(v.Code))
	buf[2] = 0
	if v.Enabled {
		buf[2] = 1
	}
	buf[3] = v.Mode
	binary.LittleEndian.PutUint64(buf[4:], uint64(v.Stamp))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(v.Ratio))
	buf[16] = v.Tag
	binary.LittleEndian.PutUint32(buf[17:], uint32(v.Count))
}

func (statusDesc) Unpack(buf []byte) status {
	return status{
		Code:    int16(binary.LittleEndian.Uint16(buf[0:])),
		Enabled: buf[2] != 0,
		Mode:    buf[3],
		Stamp:   int64(binary.LittleEndian.Uint64(buf[4:])),
		Ratio:   math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])),
		Tag:     buf[16],
		Count:   int32(binary.LittleEndian.Uint32(buf[17:])),
	}
}
