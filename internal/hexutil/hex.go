// Package hexutil provides unified hexadecimal string handling, mirroring
// the prefix-trimming conventions used across the coordination core's
// debug and test helpers.
package hexutil

import (
	"encoding/hex"
	"strings"
)

// TrimPrefix removes a leading "0x"/"0X" from s, if present.
func TrimPrefix(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	return s
}

// Normalize lowercases s and strips any "0x" prefix.
func Normalize(s string) string {
	return strings.ToLower(TrimPrefix(s))
}

// Decode decodes a hex string, tolerating an optional "0x" prefix.
func Decode(s string) ([]byte, error) {
	return hex.DecodeString(TrimPrefix(s))
}

// Encode returns the "0x"-prefixed lowercase hex encoding of b.
func Encode(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
