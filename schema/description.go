package schema

// Description is the static shape of a native composite type.
type Description interface {
	// TypeName is the name other schemas use to reference this struct.
	TypeName() string
	// Size is the fixed packed width in bytes.
	Size() int
	// Schema is the field list in packing order.
	Schema() string
	// Nested lists the struct types the schema may reference directly.
	Nested() []Description
}

// Struct is a Description able to pack and unpack values of T. Pack and
// Unpack must follow Schema's order and widths exactly.
type Struct[T any] interface {
	Description
	Pack(buf []byte, v T)
	Unpack(buf []byte) T
}

// TypeString is the remote type string for a packed struct blob.
func TypeString(d Description) string {
	return "struct:" + d.TypeName()
}
