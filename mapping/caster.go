package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

var (
	ErrNotAConverter         = errors.New("provided function is not a recognizable converter")
	ErrConverterNotAFunction = errors.New("provided converter is not a function")
	ErrConverterMismatch     = errors.New("converter signatures do not form a round trip")
)

var (
	configurationType = reflect.TypeFor[*Configuration]()
	errorType         = reflect.TypeFor[error]()
)

// Converter describes a one-way conversion function accepted by FromFuncs.
type Converter struct {
	Src, Dst     reflect.Type
	PackageAlias string
	Name         string
	WithConfig   bool
	HasErr       bool

	fn reflect.Value
}

// ParseConverter inspects fn and returns its Converter description.
//
// Supports signatures:
//   - func(src Type) (dst Type)
//   - func(src Type) (dst Type, error)
//   - func(src Type, cfg *Configuration) (dst Type)
//   - func(src Type, cfg *Configuration) (dst Type, error)
func ParseConverter(fn any) (Converter, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return Converter{}, ErrConverterNotAFunction
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() || fnType.NumIn() == 0 || fnType.NumIn() > 2 || fnType.NumOut() == 0 {
		return Converter{}, ErrNotAConverter
	}

	conv := Converter{
		Src: fnType.In(0),
		Dst: fnType.Out(0),
		fn:  fnVal,
	}

	if fnType.NumIn() == 2 {
		if fnType.In(1) != configurationType {
			return Converter{}, ErrNotAConverter
		}

		conv.WithConfig = true
	}

	switch fnType.NumOut() {
	default:
		return Converter{}, ErrNotAConverter
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return Converter{}, ErrNotAConverter
		}

		conv.HasErr = true
	}

	if pc := runtime.FuncForPC(fnVal.Pointer()); pc != nil {
		full := pc.Name()
		alias, name, _ := strings.Cut(full[strings.LastIndex(full, "/")+1:], ".")
		conv.Name = name
		conv.PackageAlias = alias
	}

	return conv, nil
}

func (c Converter) call(v any, cfg *Configuration) (any, error) {
	in := reflect.ValueOf(v)
	if !in.IsValid() {
		in = reflect.Zero(c.Src)
	}

	if !in.Type().AssignableTo(c.Src) {
		return nil, fmt.Errorf("converter %s: argument %s is not %s", c.Name, in.Type(), c.Src)
	}

	args := []reflect.Value{in}
	if c.WithConfig {
		args = append(args, reflect.ValueOf(cfg))
	}

	out := c.fn.Call(args)
	if c.HasErr && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}

	return out[0].Interface(), nil
}

// funcMapping is a TypeMapping over reflectively called converter functions.
type funcMapping struct {
	name   string
	family Family
	wire   WireShape
	to     Converter
	from   Converter
}

// FromFuncs builds a mapping from two plain functions, to converting native to
// wire and from converting back. The name defaults to the to function's name.
func FromFuncs(name string, family Family, wire WireShape, to, from any) (TypeMapping, error) {
	toConv, err := ParseConverter(to)
	if err != nil {
		return nil, fmt.Errorf("to-wire: %w", err)
	}

	fromConv, err := ParseConverter(from)
	if err != nil {
		return nil, fmt.Errorf("from-wire: %w", err)
	}

	if toConv.Src != fromConv.Dst || toConv.Dst != fromConv.Src {
		return nil, fmt.Errorf("%w: %s -> %s and %s -> %s",
			ErrConverterMismatch, toConv.Src, toConv.Dst, fromConv.Src, fromConv.Dst)
	}

	if toConv.Dst != wire.GoType() {
		return nil, fmt.Errorf("%w: wire type %s is not carried by %s", ErrConverterMismatch, toConv.Dst, wire)
	}

	if name == "" {
		name = toConv.Name
	}

	return &funcMapping{name: name, family: family, wire: wire, to: toConv, from: fromConv}, nil
}

func (m *funcMapping) Name() string         { return m.name }
func (m *funcMapping) Family() Family       { return m.family }
func (m *funcMapping) Native() reflect.Type { return m.to.Src }
func (m *funcMapping) Wire() WireShape      { return m.wire }

func (m *funcMapping) Matches(t reflect.Type) bool {
	return matches(m.family, m.to.Src, t)
}

func (m *funcMapping) ToWire(native any, cfg *Configuration) (any, error) {
	return m.to.call(native, cfg)
}

func (m *funcMapping) FromWire(wire any, cfg *Configuration) (any, error) {
	return m.from.call(wire, cfg)
}
