package geometry

import (
	"encoding/binary"
	"math"

	"field-publisher/schema"
)

var (
	RotationStruct    schema.Struct[Rotation2d]    = rotationStruct{}
	TranslationStruct schema.Struct[Translation2d] = translationStruct{}
	PoseStruct        schema.Struct[Pose2d]        = poseStruct{}
)

func putDouble(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:], math.Float64bits(v))
}

func getDouble(buf []byte, offset int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[offset:]))
}

type rotationStruct struct{}

func (rotationStruct) TypeName() string             { return "Rotation2d" }
func (rotationStruct) Size() int                    { return 8 }
func (rotationStruct) Schema() string               { return "double value" }
func (rotationStruct) Nested() []schema.Description { return nil }

func (rotationStruct) Pack(buf []byte, v Rotation2d) {
	putDouble(buf, 0, v.Radians)
}

func (rotationStruct) Unpack(buf []byte) Rotation2d {
	return Rotation2d{Radians: getDouble(buf, 0)}
}

type translationStruct struct{}

func (translationStruct) TypeName() string             { return "Translation2d" }
func (translationStruct) Size() int                    { return 16 }
func (translationStruct) Schema() string               { return "double x;double y" }
func (translationStruct) Nested() []schema.Description { return nil }

func (translationStruct) Pack(buf []byte, v Translation2d) {
	putDouble(buf, 0, v.X)
	putDouble(buf, 8, v.Y)
}

func (translationStruct) Unpack(buf []byte) Translation2d {
	return Translation2d{X: getDouble(buf, 0), Y: getDouble(buf, 8)}
}

type poseStruct struct{}

func (poseStruct) TypeName() string { return "Pose2d" }
func (poseStruct) Size() int        { return 24 }
func (poseStruct) Schema() string   { return "Translation2d translation;Rotation2d rotation" }

func (poseStruct) Nested() []schema.Description {
	return []schema.Description{TranslationStruct, RotationStruct}
}

func (poseStruct) Pack(buf []byte, v Pose2d) {
	TranslationStruct.Pack(buf[0:16], v.Translation)
	RotationStruct.Pack(buf[16:24], v.Rotation)
}

func (poseStruct) Unpack(buf []byte) Pose2d {
	return Pose2d{
		Translation: TranslationStruct.Unpack(buf[0:16]),
		Rotation:    RotationStruct.Unpack(buf[16:24]),
	}
}
