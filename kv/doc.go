// Package kv defines the remote key/value service values are published to.
//
// Every key holds one typed Value. The type of a key is fixed by its first
// Set; later writes with another type fail with ErrTypeMismatch until the
// key is deleted. Types are the primitive kind names ("double", "int32"),
// arrays of them ("double[]"), opaque struct blobs ("struct:Pose2d") and
// plain strings for published schemas.
package kv
