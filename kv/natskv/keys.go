package natskv

import (
	"fmt"
	"strings"
)

const hexDigits = "0123456789ABCDEF"

// escapeKey maps an arbitrary key onto the JetStream key alphabet. Bytes
// outside [-/_A-Za-z0-9] become "=XX".
func escapeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))

	for i := 0; i < len(key); i++ {
		c := key[i]
		if plainKeyByte(c) {
			b.WriteByte(c)
			continue
		}

		b.WriteByte('=')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}

	return b.String()
}

func unescapeKey(key string) (string, error) {
	if !strings.Contains(key, "=") {
		return key, nil
	}

	var b strings.Builder
	b.Grow(len(key))

	for i := 0; i < len(key); i++ {
		if key[i] != '=' {
			b.WriteByte(key[i])
			continue
		}

		if i+2 >= len(key) {
			return "", fmt.Errorf("truncated escape in key %q", key)
		}

		hi, lo := strings.IndexByte(hexDigits, key[i+1]), strings.IndexByte(hexDigits, key[i+2])
		if hi < 0 || lo < 0 {
			return "", fmt.Errorf("bad escape in key %q", key)
		}

		b.WriteByte(byte(hi<<4 | lo))
		i += 2
	}

	return b.String(), nil
}

func plainKeyByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '/', c == '_':
		return true
	default:
		return false
	}
}
