package schema

import (
	"errors"
	"fmt"

	"field-publisher/primitive"
)

// MaxDepth bounds nested-struct resolution. Reaching it means the struct graph
// references itself.
const MaxDepth = 1000

var (
	ErrUnresolvedType = errors.New("schema type is neither a primitive nor a declared nested struct")
	ErrRecursionLimit = errors.New("nested struct depth limit exceeded")
	ErrSizeMismatch   = errors.New("schema leaf widths do not match declared struct size")
	ErrDuplicateLeaf  = errors.New("two schema fields decompose to the same leaf key")
)

// Leaf is one primitive member of a decomposed struct.
type Leaf struct {
	Key    string
	Kind   primitive.KindEnum
	Offset int
}

// Field is a schema declaration resolved against a description.
type Field struct {
	Name string
	// Kind is set for primitive fields.
	Kind primitive.KindEnum
	// Nested is set for struct fields.
	Nested Description
}

// IsPrimitive reports whether the field is a primitive leaf.
func (f Field) IsPrimitive() bool {
	return f.Nested == nil
}

// Fields resolves the declarations of desc's schema.
func Fields(desc Description) ([]Field, error) {
	decls, err := Parse(desc.Schema())
	if err != nil {
		return nil, fmt.Errorf("struct %s: %w", desc.TypeName(), err)
	}

	fields := make([]Field, 0, len(decls))

	for _, decl := range decls {
		if kind, ok := primitive.Lookup(decl.TypeName); ok {
			fields = append(fields, Field{Name: decl.Name, Kind: kind})
			continue
		}

		nested, err := resolveNested(desc, decl.TypeName)
		if err != nil {
			return nil, err
		}

		fields = append(fields, Field{Name: decl.Name, Nested: nested})
	}

	return fields, nil
}

func resolveNested(desc Description, typeName string) (Description, error) {
	var found Description

	for _, n := range desc.Nested() {
		if n.TypeName() != typeName {
			continue
		}

		if found != nil {
			return nil, fmt.Errorf("%w: %q is declared twice as nested struct of %s",
				ErrUnresolvedType, typeName, desc.TypeName())
		}

		found = n
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %q in struct %s", ErrUnresolvedType, typeName, desc.TypeName())
	}

	return found, nil
}

// Decompose walks desc's schema and returns its leaves in packing order, keyed
// under prefix. Any unresolvable segment aborts the whole decomposition.
// Nested leaves are keyed by the nested type name, so two fields of the same
// nested type, or two fields with the same name, fail with ErrDuplicateLeaf.
func Decompose(prefix string, desc Description) ([]Leaf, error) {
	var leaves []Leaf

	if _, err := decompose(prefix, desc, 0, 0, &leaves); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(leaves))

	for _, l := range leaves {
		if _, dup := seen[l.Key]; dup {
			return nil, fmt.Errorf("%w: struct %s: %s", ErrDuplicateLeaf, desc.TypeName(), l.Key)
		}

		seen[l.Key] = struct{}{}
	}

	return leaves, nil
}

func decompose(prefix string, desc Description, offset, depth int, leaves *[]Leaf) (int, error) {
	if depth >= MaxDepth {
		return 0, fmt.Errorf("%w: %d levels reached at struct %s", ErrRecursionLimit, depth, desc.TypeName())
	}

	fields, err := Fields(desc)
	if err != nil {
		return 0, err
	}

	for _, f := range fields {
		if f.IsPrimitive() {
			*leaves = append(*leaves, Leaf{Key: prefix + "/" + f.Name, Kind: f.Kind, Offset: offset})
			offset += f.Kind.Size()

			continue
		}

		offset, err = decompose(prefix+"/"+f.Nested.TypeName(), f.Nested, offset, depth+1, leaves)
		if err != nil {
			return 0, err
		}
	}

	return offset, nil
}

// Width returns the number of bytes the leaves occupy.
func Width(leaves []Leaf) int {
	if len(leaves) == 0 {
		return 0
	}

	last := leaves[len(leaves)-1]

	return last.Offset + last.Kind.Size()
}

// CheckSize verifies leaves exactly cover desc's declared size.
func CheckSize(desc Description, leaves []Leaf) error {
	if w := Width(leaves); w != desc.Size() {
		return fmt.Errorf("%w: struct %s declares %d bytes, schema covers %d",
			ErrSizeMismatch, desc.TypeName(), desc.Size(), w)
	}

	return nil
}
