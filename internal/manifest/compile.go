package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"field-publisher/geometry"
	"field-publisher/schema"
)

// ErrStructCycle is returned when declared structs nest each other.
var ErrStructCycle = errors.New("struct nesting forms a cycle")

// Structs holds the compiled struct descriptions of a manifest.
type Structs struct {
	byName map[string]*schema.Dynamic
	// failed maps a struct name to the reason it could not be compiled.
	failed map[string]error
}

// Builtins returns the struct descriptions available to every manifest.
func Builtins() []schema.Description {
	return []schema.Description{geometry.RotationStruct, geometry.TranslationStruct, geometry.PoseStruct}
}

func isBuiltinStruct(name string) bool {
	for _, b := range Builtins() {
		if b.TypeName() == name {
			return true
		}
	}

	return false
}

// structNames lists built-in and declared struct names.
func structNames(f *File) []string {
	names := make([]string, 0, len(f.Structs)+3)
	for _, b := range Builtins() {
		names = append(names, b.TypeName())
	}

	for _, sd := range f.Structs {
		if sd.Name != "" && !slices.Contains(names, sd.Name) {
			names = append(names, sd.Name)
		}
	}

	return names
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// Compile resolves every struct of f. A struct whose schema does not resolve
// or does not decompose into distinct leaves, or that nests such a struct, is
// recorded as failed; a cycle is an error.
func Compile(f *File) (*Structs, error) {
	s := &Structs{byName: map[string]*schema.Dynamic{}, failed: map[string]error{}}

	for _, b := range Builtins() {
		d, err := schema.DynamicOf(b)
		if err != nil {
			return nil, fmt.Errorf("built-in struct %s: %w", b.TypeName(), err)
		}

		s.byName[b.TypeName()] = d
	}

	declared := map[string]*StructDef{}
	for i := range f.Structs {
		declared[f.Structs[i].Name] = &f.Structs[i]
	}

	if cycles := structCycles(declared); len(cycles) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrStructCycle, cycles[0])
	}

	var compile func(name string) (*schema.Dynamic, error)

	compile = func(name string) (*schema.Dynamic, error) {
		if d, ok := s.byName[name]; ok {
			return d, nil
		}

		if err, ok := s.failed[name]; ok {
			return nil, err
		}

		sd, ok := declared[name]
		if !ok {
			return nil, fmt.Errorf("%w: struct %s", schema.ErrUnresolvedType, name)
		}

		nested := make([]*schema.Dynamic, 0, len(sd.Nested))

		for _, n := range sd.Nested {
			d, err := compile(n)
			if err != nil {
				err = fmt.Errorf("struct %s: nested %w", name, err)
				s.failed[name] = err

				return nil, err
			}

			nested = append(nested, d)
		}

		d, err := schema.NewDynamic(name, sd.Schema, nested...)
		if err == nil {
			_, err = schema.Decompose(name, d)
		}

		if err != nil {
			s.failed[name] = err
			return nil, err
		}

		s.byName[name] = d

		return d, nil
	}

	for _, name := range sortedKeys(declared) {
		_, _ = compile(name)
	}

	return s, nil
}

// Lookup returns the compiled struct name, or why it is unavailable.
func (s *Structs) Lookup(name string) (*schema.Dynamic, error) {
	if d, ok := s.byName[name]; ok {
		return d, nil
	}

	if err, ok := s.failed[name]; ok {
		return nil, err
	}

	return nil, fmt.Errorf("%w: struct %s", schema.ErrUnresolvedType, name)
}

// Failed lists the structs that did not compile, sorted by name.
func (s *Structs) Failed() []string {
	return sortedKeys(s.failed)
}
