// Package vaultcrypto implements the cryptographic primitives used by the
// vault: Argon2id key derivation, AES-256-GCM authenticated encryption,
// CSPRNG byte generation, and constant-time comparison.
package vaultcrypto

import (
	"golang.org/x/crypto/argon2"
)

// DefaultArgon2idVersion is the Argon2 algorithm version used by vaultx.
const DefaultArgon2idVersion = 19

// KeySize is the length, in bytes, of keys derived for AES-256-GCM.
const KeySize = 32

// SaltSize is the length, in bytes, of the KDF salt stored in the container.
const SaltSize = 32

// NonceSizeGCM is the length, in bytes, of an AES-GCM nonce.
const NonceSizeGCM = 12

// Argon2Params represents the tunable cost parameters of the Argon2id KDF.
type Argon2Params struct {
	Memory      uint32 // Memory cost in KiB
	Time        uint32 // Time cost (iterations)
	Parallelism uint8  // Parallelism factor (number of threads)
}

// DefaultArgon2Params are the fixed KDF parameters mandated for the current
// container version. Unlike the multi-vault teacher design, these are not
// persisted per-container: a version bump is the only sanctioned way to
// change them (see the "version upgrades" open question in DESIGN.md).
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024, // 64 MiB
	Time:        3,
	Parallelism: 4,
}

// DeriveKey derives a KeySize-byte key from password and salt using the
// fixed Argon2id parameters. The caller is responsible for zeroizing both
// the password and the returned key once they are no longer needed.
func DeriveKey(password, salt []byte) []byte {
	p := DefaultArgon2Params
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Parallelism, KeySize)
}

// KDFDescriptor returns a PHC-formatted string describing the fixed KDF
// parameters and the given salt, without a hash component. It is used only
// for diagnostic display (e.g. `vaultx init -v`); it is never persisted
// and plays no role in key derivation or authentication.
func KDFDescriptor(salt []byte) string {
	phc := Argon2idPHC{
		Argon2Params: DefaultArgon2Params,
		Version:      DefaultArgon2idVersion,
		Salt:         salt,
	}

	return phc.String()
}
