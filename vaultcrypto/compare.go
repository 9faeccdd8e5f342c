package vaultcrypto

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b hold identical bytes, comparing
// them in constant time. It is used for any equality check involving a tag,
// derived-key material, or a candidate passphrase, so that timing cannot
// leak information about where two buffers first differ.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	return subtle.ConstantTimeCompare(a, b) == 1
}
