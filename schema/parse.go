package schema

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedField = errors.New("malformed schema field")

// Declaration is one "<type> <name>" segment of a schema string.
type Declaration struct {
	TypeName string
	Name     string
}

// Parse splits a schema string into its declarations. Empty segments, such as
// the one after a trailing ';', are dropped.
func Parse(schema string) ([]Declaration, error) {
	var decls []Declaration

	for segment := range strings.SplitSeq(schema, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		typeName, name, ok := strings.Cut(segment, " ")
		name = strings.TrimSpace(name)

		if !ok || typeName == "" || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedField, segment)
		}

		decls = append(decls, Declaration{TypeName: typeName, Name: name})
	}

	return decls, nil
}
