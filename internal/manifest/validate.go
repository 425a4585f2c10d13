package manifest

import (
	"fmt"
	"slices"
	"strings"

	"field-publisher/internal/common"
	"field-publisher/internal/diagnostic"
	"field-publisher/internal/match"
	"field-publisher/mapping"
	"field-publisher/primitive"
	"field-publisher/schema"
	"field-publisher/units"
)

const suggestionLimit = 3

// Validate checks a manifest against the mapping registry. Errors make the
// manifest unusable; a struct whose schema does not resolve is a warning, and
// entries using it are skipped at build time.
func Validate(f *File, reg *mapping.Registry) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("manifest_is_nil", "manifest is nil", "", "")
		return res
	}

	if reg == nil {
		res.AddError("registry_is_nil", "mapping registry is nil", "", "")
		return res
	}

	if f.Version != CurrentVersion {
		res.AddError("unsupported_version",
			fmt.Sprintf("unsupported manifest version %q, expected %q", f.Version, CurrentVersion), "", "")
	}

	validateStructs(res, f)

	// Compile fails only on cycles, which validateStructs already reported.
	structs, _ := Compile(f)
	validateEntries(res, f, reg, structs)

	return res
}

func validateStructs(res *diagnostic.Diagnostics, f *File) {
	declared := map[string]*StructDef{}

	var ordered []*StructDef

	for i := range f.Structs {
		sd := &f.Structs[i]

		switch {
		case sd.Name == "":
			res.AddError("missing_struct_name", fmt.Sprintf("struct #%d has no name", i), "", "")
			continue
		case isBuiltinStruct(sd.Name):
			res.AddError("builtin_struct_redeclared",
				fmt.Sprintf("struct %q shadows a built-in struct", sd.Name), sd.Name, "")

			continue
		case declared[sd.Name] != nil:
			res.AddError("duplicate_struct", fmt.Sprintf("duplicate struct %q", sd.Name), sd.Name, "")
			continue
		}

		declared[sd.Name] = sd
		ordered = append(ordered, sd)
	}

	names := structNames(f)

	for _, sd := range ordered {
		for _, n := range sd.Nested {
			if !slices.Contains(names, n) {
				res.AddErrorWithSuggestions("unknown_nested_struct",
					fmt.Sprintf("nested struct %q is not declared", n), sd.Name, "",
					match.Suggest(n, names, match.DefaultThreshold, suggestionLimit))
			}
		}

		validateSchema(res, sd, names)
	}

	for _, cycle := range structCycles(declared) {
		res.AddError("struct_cycle",
			"struct nesting forms a cycle: "+strings.Join(cycle, " -> "), cycle[0], "")
	}
}

// validateSchema warns about schema fields that name neither a primitive nor
// a nested struct, and about fields that would publish under the same leaf.
func validateSchema(res *diagnostic.Diagnostics, sd *StructDef, names []string) {
	decls, err := schema.Parse(sd.Schema)
	if err != nil {
		res.AddWarning("unresolved_schema", err.Error(), sd.Name, "")
		return
	}

	// Primitive leaves are keyed by field name, nested ones by type name.
	segments := map[string]string{}

	for _, decl := range decls {
		_, isPrimitive := primitive.Lookup(decl.TypeName)

		segment := decl.Name
		if !isPrimitive {
			segment = decl.TypeName + "/"
		}

		if other, dup := segments[segment]; dup {
			res.AddWarning("duplicate_leaf",
				fmt.Sprintf("fields %s and %s publish under the same key %q; the struct will not be published",
					other, decl.Name, strings.TrimSuffix(segment, "/")), sd.Name, "")
		} else {
			segments[segment] = decl.Name
		}

		if isPrimitive {
			continue
		}

		if slices.Contains(sd.Nested, decl.TypeName) {
			continue
		}

		msg := fmt.Sprintf("field %s has unresolved type %q; the struct will not be published", decl.Name, decl.TypeName)
		if s := match.Suggest(decl.TypeName, append(primitive.Names(), names...), match.DefaultThreshold, suggestionLimit); !common.IsEmpty(s) {
			msg += " (did you mean " + strings.Join(s, ", ") + "?)"
		}

		res.AddWarning("unresolved_schema", msg, sd.Name, "")
	}
}

// publishedKeys returns the store keys an entry at key writes: one per leaf
// for a struct published as a subtable, the key itself otherwise.
func publishedKeys(e *EntryDef, key string, strategy mapping.Strategy, structs *Structs) []string {
	subtable := strategy == mapping.StrategyDefault || strategy == mapping.StrategySubTable
	if e.Struct == "" || !subtable || structs == nil {
		return []string{key}
	}

	d, err := structs.Lookup(e.Struct)
	if err != nil {
		return nil
	}

	leaves, err := schema.Decompose(key, d)
	if err != nil {
		return nil
	}

	keys := make([]string, len(leaves))
	for i, l := range leaves {
		keys[i] = l.Key
	}

	return keys
}

func validateEntries(res *diagnostic.Diagnostics, f *File, reg *mapping.Registry, structs *Structs) {
	seen := map[string]struct{}{}
	claimed := map[string]string{}
	names := structNames(f)

	for i := range f.Entries {
		e := &f.Entries[i]
		subject := e.Key

		if subject == "" {
			subject = fmt.Sprintf("entries[%d]", i)
		}

		key := e.Config.Key
		if key == "" {
			key = common.JoinKey(f.Prefix, e.Key)
		}

		strategy, ok := mapping.ParseStrategy(e.Strategy)
		if !ok {
			res.AddError("unknown_strategy", fmt.Sprintf("unknown strategy %q", e.Strategy), subject, key)
		}

		if e.Key == "" && e.Config.Key == "" {
			res.AddError("missing_key", "entry has no key", subject, "")
		} else if _, dup := seen[key]; dup {
			res.AddError("duplicate_key", fmt.Sprintf("key %q is published twice", key), subject, key)
		} else {
			seen[key] = struct{}{}
			claimKeys(res, claimed, publishedKeys(e, key, strategy, structs), subject, key)
		}

		switch {
		case e.Struct != "" && e.Type != "":
			res.AddError("ambiguous_entry", "entry sets both struct and type", subject, key)
		case e.Struct != "":
			if !slices.Contains(names, e.Struct) {
				res.AddErrorWithSuggestions("unknown_struct",
					fmt.Sprintf("struct %q is not declared", e.Struct), subject, key,
					match.Suggest(e.Struct, names, match.DefaultThreshold, suggestionLimit))
			}

			if strategy == mapping.StrategyMapping {
				res.AddError("mapping_strategy_on_struct",
					"struct entries publish as subtable or struct", subject, key)
			}
		case e.Type != "":
			if _, found := reg.Named(e.Type); !found {
				res.AddErrorWithSuggestions("unknown_type",
					fmt.Sprintf("no mapping named %q", e.Type), subject, key,
					match.Suggest(e.Type, reg.Names(), match.DefaultThreshold, suggestionLimit))
			}

			if e.Strategy != "" && strategy != mapping.StrategyMapping {
				res.AddWarning("strategy_ignored",
					fmt.Sprintf("strategy %q applies to struct entries only", e.Strategy), subject, key)
			}
		default:
			res.AddError("missing_type", "entry needs a struct or a type", subject, key)
		}

		validateEntryConfig(res, &e.Config, subject, key)
	}
}

// claimKeys records the store keys written by the entry at subject and
// reports the first one another entry already writes.
func claimKeys(res *diagnostic.Diagnostics, claimed map[string]string, keys []string, subject, key string) {
	for _, k := range keys {
		if owner, dup := claimed[k]; dup {
			res.AddError("duplicate_key",
				fmt.Sprintf("key %q is already written by entry %s", k, owner), subject, key)

			return
		}
	}

	for _, k := range keys {
		claimed[k] = subject
	}
}

func validateEntryConfig(res *diagnostic.Diagnostics, cfg *EntryConfig, subject, key string) {
	if cfg.Unit != "" {
		if _, ok := units.Lookup(cfg.Unit); !ok {
			res.AddError("unknown_unit", fmt.Sprintf("unknown unit %q", cfg.Unit), subject, key)
		}
	}

	for id, name := range cfg.Converters {
		if _, ok := units.Lookup(name); !ok {
			res.AddError("unknown_unit",
				fmt.Sprintf("converter %q uses unknown unit %q", id, name), subject, key)
		}
	}
}

// structCycles returns each nesting cycle once, as the path of names that
// leads back to its first element.
func structCycles(declared map[string]*StructDef) [][]string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := map[string]int{}

	var (
		cycles [][]string
		path   []string
		visit  func(name string)
	)

	visit = func(name string) {
		sd, ok := declared[name]
		if !ok {
			return
		}

		switch state[name] {
		case done:
			return
		case visiting:
			start := slices.Index(path, name)
			cycle := append(slices.Clone(path[start:]), name)
			cycles = append(cycles, cycle)

			return
		}

		state[name] = visiting
		path = append(path, name)

		for _, n := range sd.Nested {
			visit(n)
		}

		path = path[:len(path)-1]
		state[name] = done
	}

	for _, name := range sortedKeys(declared) {
		visit(name)
	}

	return cycles
}
