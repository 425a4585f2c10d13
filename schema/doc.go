// Package schema parses struct schema strings and decomposes struct
// descriptions into ordered primitive leaves.
//
// A schema is a ';'-separated list of "<type> <name>" declarations in binary
// packing order. The type is either a primitive kind name (see package
// primitive) or the type name of one of the struct's nested descriptions:
//
//	double x;double y;Rotation z
//
// Decomposing the struct above under the prefix "Pose", with Rotation
// declared as "double radians", yields the leaves
//
//	Pose/x                 double  offset 0
//	Pose/y                 double  offset 8
//	Pose/Rotation/radians  double  offset 16
//
// Nested leaves use the nested type name as their key segment. Leaf order is
// the packing order; the struct codec depends on it to round-trip values.
package schema
