package natskv

import (
	"fmt"
	"reflect"

	"field-publisher/internal/codec"
	"field-publisher/kv"
)

// envelope is the stored form of a kv.Value. The payload is decoded only once
// the type is known, into that type's Go carrier.
type envelope struct {
	T string           `cbor:"t"`
	D codec.RawMessage `cbor:"d"`
}

func encodeValue(v kv.Value) ([]byte, error) {
	if err := v.Type.Check(v.Data); err != nil {
		return nil, err
	}

	data, err := codec.Marshal(v.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", v.Type, err)
	}

	return codec.Marshal(envelope{T: string(v.Type), D: data})
}

func decodeType(raw []byte) (kv.Type, error) {
	var env envelope
	if err := codec.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode envelope: %w", err)
	}

	return kv.Type(env.T), nil
}

func decodeValue(raw []byte) (kv.Value, error) {
	var env envelope
	if err := codec.Unmarshal(raw, &env); err != nil {
		return kv.Value{}, fmt.Errorf("decode envelope: %w", err)
	}

	typ := kv.Type(env.T)

	goType := typ.GoType()
	if goType == nil {
		return kv.Value{}, fmt.Errorf("%w: unknown stored type %q", kv.ErrTypeMismatch, env.T)
	}

	target := reflect.New(goType)
	if err := codec.Unmarshal(env.D, target.Interface()); err != nil {
		return kv.Value{}, fmt.Errorf("decode %s payload: %w", typ, err)
	}

	return kv.Value{Type: typ, Data: target.Elem().Interface()}, nil
}
