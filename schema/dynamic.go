package schema

import (
	"fmt"

	"field-publisher/primitive"
)

// Record is the value of a Dynamic struct: primitive fields hold their
// carrier values, nested struct fields hold a Record.
type Record map[string]any

// Dynamic describes a struct known only by name and schema at runtime, such as
// one defined in a manifest file.
type Dynamic struct {
	name   string
	schema string
	nested []Description
	fields []Field
	size   int
}

var _ Struct[Record] = (*Dynamic)(nil)

// NewDynamic resolves schema against the given nested descriptions.
func NewDynamic(name, schema string, nested ...*Dynamic) (*Dynamic, error) {
	d := &Dynamic{name: name, schema: schema}
	for _, n := range nested {
		d.nested = append(d.nested, n)
	}

	fields, err := Fields(d)
	if err != nil {
		return nil, err
	}

	d.fields = fields

	for _, f := range fields {
		if f.IsPrimitive() {
			d.size += f.Kind.Size()
		} else {
			d.size += f.Nested.Size()
		}
	}

	return d, nil
}

// DynamicOf mirrors desc, and every description nested below it, as Dynamic
// descriptions with the same names and schemas.
func DynamicOf(desc Description) (*Dynamic, error) {
	if d, ok := desc.(*Dynamic); ok {
		return d, nil
	}

	return dynamicOf(desc, 0)
}

func dynamicOf(desc Description, depth int) (*Dynamic, error) {
	if depth >= MaxDepth {
		return nil, fmt.Errorf("%w: struct %s", ErrRecursionLimit, desc.TypeName())
	}

	nested := make([]*Dynamic, 0, len(desc.Nested()))

	for _, n := range desc.Nested() {
		d, err := dynamicOf(n, depth+1)
		if err != nil {
			return nil, err
		}

		nested = append(nested, d)
	}

	return NewDynamic(desc.TypeName(), desc.Schema(), nested...)
}

func (d *Dynamic) TypeName() string      { return d.name }
func (d *Dynamic) Size() int             { return d.size }
func (d *Dynamic) Schema() string        { return d.schema }
func (d *Dynamic) Nested() []Description { return d.nested }

// Pack writes r into buf. Numeric values are coerced to the field's kind;
// missing fields and values Check would reject pack as zero.
func (d *Dynamic) Pack(buf []byte, r Record) {
	if _, err := d.pack(buf, 0, r, false); err != nil {
		panic("unreachable: lenient pack failed: " + err.Error())
	}
}

// Check reports the first value in r that cannot be packed.
func (d *Dynamic) Check(r Record) error {
	_, err := d.pack(make([]byte, d.size), 0, r, true)
	return err
}

func (d *Dynamic) pack(buf []byte, offset int, r Record, strict bool) (int, error) {
	for _, f := range d.fields {
		if !f.IsPrimitive() {
			child := f.Nested.(*Dynamic)

			var err error

			offset, err = child.pack(buf, offset, asRecord(r[f.Name]), strict)
			if err != nil {
				return 0, fmt.Errorf("%s.%w", f.Name, err)
			}

			continue
		}

		raw, present := r[f.Name]

		v, err := primitive.Coerce(raw, f.Kind, primitive.CategoryAll)
		if err != nil {
			if strict && present {
				return 0, fmt.Errorf("%s: %w", f.Name, err)
			}

			v = f.Kind.Zero()
		}

		if err := f.Kind.Write(buf, offset, v); err != nil {
			return 0, err
		}

		offset += f.Kind.Size()
	}

	return offset, nil
}

// Unpack reads a Record from buf.
func (d *Dynamic) Unpack(buf []byte) Record {
	r, _ := d.unpack(buf, 0)
	return r
}

func (d *Dynamic) unpack(buf []byte, offset int) (Record, int) {
	r := make(Record, len(d.fields))

	for _, f := range d.fields {
		if f.IsPrimitive() {
			r[f.Name] = f.Kind.Read(buf, offset)
			offset += f.Kind.Size()

			continue
		}

		r[f.Name], offset = f.Nested.(*Dynamic).unpack(buf, offset)
	}

	return r, offset
}

func asRecord(v any) Record {
	switch x := v.(type) {
	case Record:
		return x
	case map[string]any:
		return x
	default:
		return nil
	}
}
