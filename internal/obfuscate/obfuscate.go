// Package obfuscate implements the reversible password transform used for
// stored credentials.
//
// This is NOT cryptography and provides no confidentiality whatsoever: it is
// a fixed +3 code-point shift kept solely so that previously written user
// records keep authenticating. Do not reuse it for anything security-related.
package obfuscate

import "strings"

// shift is the fixed code-point offset applied per character.
const shift = 3

// Apply returns the stored form of a plaintext password.
func Apply(password string) string {
	var b strings.Builder
	b.Grow(len(password))
	for _, r := range password {
		b.WriteRune(r + shift)
	}
	return b.String()
}

// Reverse undoes Apply. Round-trips for any input.
func Reverse(stored string) string {
	var b strings.Builder
	b.Grow(len(stored))
	for _, r := range stored {
		b.WriteRune(r - shift)
	}
	return b.String()
}
