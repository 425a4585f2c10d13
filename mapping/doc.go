// Package mapping converts native Go values to and from the wire shapes the
// remote key/value store carries.
//
// A TypeMapping binds one native type family to one wire shape and converts in
// both directions under a per-entry Configuration. A Registry holds the
// process-wide set of mappings and resolves the single mapping applicable to
// a concrete type:
//
//	reg := mapping.Defaults()
//	m, err := reg.Find(reflect.TypeFor[units.Distance]())
//	wire, err := m.ToWire(units.DistanceOf(12, units.Inches),
//		mapping.NewConfiguration().WithValue(mapping.ValueUnit, "inches"))
//
// # Matching
//
// Mappings match by family rather than by open-ended assignability:
//
//   - FamilyScalar and FamilyBoxed match their exact native type.
//   - FamilyArray matches any slice or array whose element type equals the
//     native element type.
//   - FamilyComposite matches its exact type and, when either side is an
//     interface, types assignable in either direction.
//
// Registration never rejects overlap. Find fails with ErrAmbiguousMapping when
// more than one mapping matches and ErrNoMappingFound when none does. All
// registration is expected to happen before the first lookup.
package mapping
