package common

import "strings"

// UnknownStr is the String() of out-of-range enum values.
const UnknownStr = "unknown"

// KeySeparator delimits hierarchical key segments.
const KeySeparator = "/"

// JoinKey appends segment to prefix with a single separator.
func JoinKey(prefix, segment string) string {
	if prefix == "" {
		return segment
	}

	return strings.TrimSuffix(prefix, KeySeparator) + KeySeparator + segment
}

// KeyBase returns the last segment of a hierarchical key.
func KeyBase(key string) string {
	if i := strings.LastIndex(key, KeySeparator); i >= 0 {
		return key[i+1:]
	}

	return key
}
