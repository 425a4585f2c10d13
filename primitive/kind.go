package primitive

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

//go:generate go tool stringer -type=KindEnum -output=kind_string.go

// KindEnum is a wire primitive kind: a fixed-width scalar the remote key/value
// service can carry directly.
type KindEnum int

const (
	_ KindEnum = iota // skip zero value, use it as a default (invalid) value for KindEnum

	KindInt32
	KindFloat64
	KindFloat32
	KindBool
	KindChar
	KindUint8
	KindInt16
	KindInt64
	KindDouble

	// KindTotal is a constant that represents the total number of kinds defined
	KindTotal = int(iota)
)

type descriptor struct {
	name   string
	size   int
	goType reflect.Type
	read   func(b []byte) any
	write  func(b []byte, v any) bool
}

// table is indexed by KindEnum and never mutated after package initialization.
var table = [KindTotal]descriptor{
	KindInt32: {
		name:   "int32",
		size:   4,
		goType: reflect.TypeFor[int32](),
		read:   func(b []byte) any { return int32(binary.LittleEndian.Uint32(b)) },
		write: func(b []byte, v any) bool {
			x, ok := v.(int32)
			binary.LittleEndian.PutUint32(b, uint32(x))
			return ok
		},
	},
	KindFloat64: {
		name:   "float64",
		size:   8,
		goType: reflect.TypeFor[float64](),
		read:   readFloat64,
		write:  writeFloat64,
	},
	KindFloat32: {
		name:   "float32",
		size:   4,
		goType: reflect.TypeFor[float32](),
		read:   func(b []byte) any { return math.Float32frombits(binary.LittleEndian.Uint32(b)) },
		write: func(b []byte, v any) bool {
			x, ok := v.(float32)
			binary.LittleEndian.PutUint32(b, math.Float32bits(x))
			return ok
		},
	},
	KindBool: {
		name:   "bool",
		size:   1,
		goType: reflect.TypeFor[bool](),
		read:   func(b []byte) any { return b[0] != 0 },
		write: func(b []byte, v any) bool {
			x, ok := v.(bool)
			b[0] = 0
			if x {
				b[0] = 1
			}
			return ok
		},
	},
	KindChar: {
		name:   "char",
		size:   1,
		goType: reflect.TypeFor[byte](),
		read:   readByte,
		write:  writeByte,
	},
	KindUint8: {
		name:   "uint8",
		size:   1,
		goType: reflect.TypeFor[uint8](),
		read:   readByte,
		write:  writeByte,
	},
	KindInt16: {
		name:   "int16",
		size:   2,
		goType: reflect.TypeFor[int16](),
		read:   func(b []byte) any { return int16(binary.LittleEndian.Uint16(b)) },
		write: func(b []byte, v any) bool {
			x, ok := v.(int16)
			binary.LittleEndian.PutUint16(b, uint16(x))
			return ok
		},
	},
	KindInt64: {
		name:   "int64",
		size:   8,
		goType: reflect.TypeFor[int64](),
		read:   func(b []byte) any { return int64(binary.LittleEndian.Uint64(b)) },
		write: func(b []byte, v any) bool {
			x, ok := v.(int64)
			binary.LittleEndian.PutUint64(b, uint64(x))
			return ok
		},
	},
	KindDouble: {
		name:   "double",
		size:   8,
		goType: reflect.TypeFor[float64](),
		read:   readFloat64,
		write:  writeFloat64,
	},
}

var byName map[string]KindEnum

func init() {
	byName = make(map[string]KindEnum, KindTotal)
	for k := KindEnum(1); int(k) < KindTotal; k++ {
		byName[table[k].name] = k
	}
}

func readFloat64(b []byte) any { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }

func writeFloat64(b []byte, v any) bool {
	x, ok := v.(float64)
	binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	return ok
}

func readByte(b []byte) any { return b[0] }

func writeByte(b []byte, v any) bool {
	x, ok := v.(byte)
	b[0] = x
	return ok
}

// Lookup resolves a schema-grammar kind name such as "int32" or "double".
// A false result is not an error: the name may refer to a nested struct.
func Lookup(name string) (KindEnum, bool) {
	k, ok := byName[name]
	return k, ok
}

// Names returns the grammar names of all kinds in declaration order.
func Names() []string {
	names := make([]string, 0, KindTotal-1)
	for k := KindEnum(1); int(k) < KindTotal; k++ {
		names = append(names, table[k].name)
	}

	return names
}

func (k KindEnum) IsValid() bool {
	return k > 0 && int(k) < KindTotal
}

// Name returns the schema-grammar name of the kind, which is also its type
// string on the remote store.
func (k KindEnum) Name() string {
	if !k.IsValid() {
		return ""
	}

	return table[k].name
}

// Size returns the packed byte width of the kind.
func (k KindEnum) Size() int {
	if !k.IsValid() {
		panic("size requested for invalid kind: " + k.String())
	}

	return table[k].size
}

// GoType returns the carrier type values of this kind have in memory.
func (k KindEnum) GoType() reflect.Type {
	if !k.IsValid() {
		return nil
	}

	return table[k].goType
}

// Zero returns the zero value of the carrier type.
func (k KindEnum) Zero() any {
	return reflect.Zero(k.GoType()).Interface()
}

func (k KindEnum) IsNumber() bool {
	switch k {
	default:
		return false
	case KindInt32, KindFloat64, KindFloat32, KindChar, KindUint8, KindInt16, KindInt64, KindDouble:
		return true
	}
}

func (k KindEnum) IsInteger() bool {
	switch k {
	default:
		return false
	case KindInt32, KindChar, KindUint8, KindInt16, KindInt64:
		return true
	}
}

func (k KindEnum) IsFloat() bool {
	switch k {
	default:
		return false
	case KindFloat32, KindFloat64, KindDouble:
		return true
	}
}

// Read decodes the value stored at offset in buf.
func (k KindEnum) Read(buf []byte, offset int) any {
	d := table[k]
	return d.read(buf[offset : offset+d.size])
}

// Write encodes v at offset in buf. v must already be of the kind's carrier
// type; use Coerce first for anything else.
func (k KindEnum) Write(buf []byte, offset int, v any) error {
	d := table[k]
	if !d.write(buf[offset:offset+d.size], v) {
		return fmt.Errorf("%w: %T into %s", ErrNotConvertible, v, d.name)
	}

	return nil
}

// FromReflectType maps a Go scalar type onto the kind carrying it. Types
// without an exact wire counterpart (int, uint16, strings, ...) yield zero.
func FromReflectType(rtype reflect.Type) KindEnum {
	if rtype == nil {
		return 0
	}

	switch rtype {
	case reflect.TypeOf(int32(0)):
		return KindInt32
	case reflect.TypeOf(int16(0)):
		return KindInt16
	case reflect.TypeOf(int64(0)):
		return KindInt64
	case reflect.TypeOf(uint8(0)):
		return KindUint8
	case reflect.TypeOf(float32(0)):
		return KindFloat32
	case reflect.TypeOf(float64(0)):
		return KindDouble
	case reflect.TypeOf(false):
		return KindBool
	}

	return 0
}
