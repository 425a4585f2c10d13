package kv

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"field-publisher/primitive"
)

var (
	ErrNotFound     = errors.New("kv: key not found")
	ErrTypeMismatch = errors.New("kv: type mismatch")
	ErrClosed       = errors.New("kv: store closed")
)

const (
	arraySuffix  = "[]"
	structPrefix = "struct:"
)

// Type is the wire type string of a stored value.
type Type string

// TypeString is the type of published schema text.
const TypeString Type = "string"

// PrimitiveType returns the type of a single value of kind.
func PrimitiveType(kind primitive.KindEnum) Type {
	return Type(kind.Name())
}

// ArrayType returns the type of an array of kind.
func ArrayType(kind primitive.KindEnum) Type {
	return Type(kind.Name() + arraySuffix)
}

// StructType returns the type of a packed struct blob.
func StructType(name string) Type {
	return Type(structPrefix + name)
}

// Primitive reports the kind of a primitive or array type.
func (t Type) Primitive() (kind primitive.KindEnum, array bool, ok bool) {
	name, array := strings.CutSuffix(string(t), arraySuffix)

	kind, ok = primitive.Lookup(name)

	return kind, array, ok
}

// Struct reports the struct name of a blob type.
func (t Type) Struct() (string, bool) {
	return strings.CutPrefix(string(t), structPrefix)
}

// GoType is the Go type carrying values of t, or nil for unknown types.
func (t Type) GoType() reflect.Type {
	if t == TypeString {
		return reflect.TypeFor[string]()
	}

	if _, ok := t.Struct(); ok {
		return reflect.TypeFor[[]byte]()
	}

	kind, array, ok := t.Primitive()
	if !ok {
		return nil
	}

	if array {
		return reflect.SliceOf(kind.GoType())
	}

	return kind.GoType()
}

// Check verifies data is carried by the Go type of t.
func (t Type) Check(data any) error {
	goType := t.GoType()
	if goType == nil {
		return fmt.Errorf("%w: unknown type %q", ErrTypeMismatch, t)
	}

	if data == nil || reflect.TypeOf(data) != goType {
		return fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, data, t)
	}

	return nil
}

func (t Type) String() string {
	return string(t)
}

// Value is one typed stored value.
type Value struct {
	Type Type
	Data any
}

// Store is a flat typed key/value service. Implementations are safe for
// concurrent use and never block beyond their own bounded timeouts.
type Store interface {
	// Set creates or overwrites key. It fails with ErrTypeMismatch when the
	// key already holds another type or v.Data is not carried by v.Type.
	Set(key string, v Value) error
	// Get returns the current value, or ErrNotFound.
	Get(key string) (Value, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys lists the keys starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
	Close() error
}

// GetAs reads key and checks it holds typ.
func GetAs(s Store, key string, typ Type) (any, error) {
	v, err := s.Get(key)
	if err != nil {
		return nil, err
	}

	if v.Type != typ {
		return nil, fmt.Errorf("%w: %s holds %s, not %s", ErrTypeMismatch, key, v.Type, typ)
	}

	return v.Data, nil
}

// Clone copies slice data so a stored value never aliases caller memory.
func Clone(data any) any {
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return data
	}

	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)

	return out.Interface()
}
