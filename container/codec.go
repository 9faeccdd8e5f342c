// Package container implements the on-disk vault container format: a
// fixed-layout header (magic, version, salt, nonce) followed by an opaque
// AES-256-GCM ciphertext. The codec never interprets the ciphertext payload;
// every other component treats it as opaque bytes.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vaultx/vaultx/vaultcrypto"
)

// Magic is the 4-byte marker identifying a vaultx container file.
var Magic = [4]byte{'V', 'X', '0', '1'}

// CurrentVersion is the container format version written by this build.
const CurrentVersion uint32 = 1

const (
	magicSize    = 4
	versionSize  = 4
	reservedSize = 8

	headerSize = magicSize + versionSize + reservedSize + vaultcrypto.SaltSize + vaultcrypto.NonceSizeGCM

	// minContainerSize is the header size plus the minimum possible AEAD
	// output: an empty plaintext still produces a 16-byte GCM tag.
	minContainerSize = headerSize + 16
)

// ErrCorruptContainer indicates the container is too short, or its magic
// marker does not match. It is deliberately indistinguishable, at the
// caller's error-handling level, from a wrong passphrase.
var ErrCorruptContainer = errors.New("corrupt vault container")

// ErrUnsupportedVersion indicates a recognized magic marker but a version
// this build does not know how to read.
var ErrUnsupportedVersion = errors.New("unsupported container version")

// Container is the decoded, still-encrypted on-disk container.
type Container struct {
	Version    uint32
	Salt       []byte // SaltSize bytes
	Nonce      []byte // NonceSizeGCM bytes
	Ciphertext []byte // AES-256-GCM output, tag appended
}

// Encode renders salt, nonce and an AES-GCM ciphertext (with its appended
// tag) into the byte-exact container layout described in the external
// interfaces specification.
func Encode(salt, nonce, ciphertext []byte) ([]byte, error) {
	if len(salt) != vaultcrypto.SaltSize {
		return nil, fmt.Errorf("container encode: salt must be %d bytes, got %d", vaultcrypto.SaltSize, len(salt))
	}

	if len(nonce) != vaultcrypto.NonceSizeGCM {
		return nil, fmt.Errorf("container encode: nonce must be %d bytes, got %d", vaultcrypto.NonceSizeGCM, len(nonce))
	}

	if len(ciphertext) < 16 {
		return nil, fmt.Errorf("container encode: ciphertext shorter than one AEAD tag")
	}

	buf := make([]byte, 0, headerSize+len(ciphertext))
	buf = append(buf, Magic[:]...)

	var versionBytes [versionSize]byte
	binary.LittleEndian.PutUint32(versionBytes[:], CurrentVersion)
	buf = append(buf, versionBytes[:]...)

	buf = append(buf, make([]byte, reservedSize)...)
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, ciphertext...)

	return buf, nil
}

// Decode parses the byte-exact container layout, returning the embedded
// salt, nonce, and ciphertext-with-tag. It rejects inputs shorter than the
// fixed header plus one 16-byte AEAD tag and an unrecognized magic marker
// (both as ErrCorruptContainer), and an unsupported version (as
// ErrUnsupportedVersion). Callers in the vault engine must collapse these
// into the single generic
// InvalidPassphraseOrCorruption error before surfacing them to a user, so
// that a corrupt container cannot be distinguished from a wrong passphrase.
func Decode(data []byte) (*Container, error) {
	if len(data) < minContainerSize {
		return nil, ErrCorruptContainer
	}

	if string(data[:magicSize]) != string(Magic[:]) {
		return nil, ErrCorruptContainer
	}

	version := binary.LittleEndian.Uint32(data[magicSize : magicSize+versionSize])
	if version != CurrentVersion {
		return nil, ErrUnsupportedVersion
	}

	offset := magicSize + versionSize + reservedSize

	salt := make([]byte, vaultcrypto.SaltSize)
	copy(salt, data[offset:offset+vaultcrypto.SaltSize])
	offset += vaultcrypto.SaltSize

	nonce := make([]byte, vaultcrypto.NonceSizeGCM)
	copy(nonce, data[offset:offset+vaultcrypto.NonceSizeGCM])
	offset += vaultcrypto.NonceSizeGCM

	ciphertext := make([]byte, len(data)-offset)
	copy(ciphertext, data[offset:])

	return &Container{
		Version:    version,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}
