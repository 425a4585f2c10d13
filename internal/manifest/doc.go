// Package manifest loads, validates and binds the YAML file describing what a
// field-publisher process publishes.
//
// The manifest replaces source-level discovery: every published value is
// listed explicitly with its key, its native type or struct and its
// configuration.
//
// # Schema Overview
//
//	version: "1"
//	prefix: robot
//	log:
//	  level: info
//	nats:
//	  url: nats://localhost:4222
//	  bucket: fields
//	  timeout: 2s
//	metrics:
//	  address: ":9090"
//	structs:
//	  - name: Arm
//	    schema: "int32 joint;Rotation2d angle;bool homed"
//	    nested: Rotation2d           # or a list
//	entries:
//	  - key: drive/pose
//	    struct: Pose2d               # built-in or declared above
//	    strategy: subtable           # subtable | struct | mapping
//	    value:
//	      translation: {x: 1, y: 2}
//	      rotation: {value: 0.5}
//	  - key: elevator/height
//	    type: distance               # a registered mapping name
//	    value: 0.5
//	    config:
//	      unit: cm
//	      precision: 1
//
// Built-in structs are Rotation2d, Translation2d and Pose2d. Struct values are
// records keyed by schema field name; mapping values decode into the mapping's
// native Go type.
package manifest
