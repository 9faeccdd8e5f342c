package container_test

import (
	"bytes"
	"testing"

	"github.com/vaultx/vaultx/container"
	"github.com/vaultx/vaultx/vaultcrypto"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	salt := bytes.Repeat([]byte{0x11}, vaultcrypto.SaltSize)
	nonce := bytes.Repeat([]byte{0x22}, vaultcrypto.NonceSizeGCM)
	ciphertext := bytes.Repeat([]byte{0x33}, 48) // includes a fake 16-byte tag

	raw, err := container.Encode(salt, nonce, ciphertext)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if len(raw) < 60 {
		t.Fatalf("encoded container shorter than the mandated 60-byte minimum: %d", len(raw))
	}

	if got, want := string(raw[:4]), "VX01"; got != want {
		t.Fatalf("magic = %q, want %q", got, want)
	}

	decoded, err := container.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Version != container.CurrentVersion {
		t.Errorf("version = %d, want %d", decoded.Version, container.CurrentVersion)
	}

	if !bytes.Equal(decoded.Salt, salt) {
		t.Errorf("salt mismatch")
	}

	if !bytes.Equal(decoded.Nonce, nonce) {
		t.Errorf("nonce mismatch")
	}

	if !bytes.Equal(decoded.Ciphertext, ciphertext) {
		t.Errorf("ciphertext mismatch")
	}
}

func TestDecode_ShortInput(t *testing.T) {
	if _, err := container.Decode(make([]byte, 59)); err != container.ErrCorruptContainer {
		t.Fatalf("err = %v, want %v", err, container.ErrCorruptContainer)
	}
}

func TestDecode_BadMagic(t *testing.T) {
	raw := make([]byte, 60+16) // long enough to pass the length check
	copy(raw, "XXXX")

	if _, err := container.Decode(raw); err != container.ErrCorruptContainer {
		t.Fatalf("err = %v, want %v", err, container.ErrCorruptContainer)
	}
}

func TestDecode_UnsupportedVersion(t *testing.T) {
	salt := bytes.Repeat([]byte{0x11}, vaultcrypto.SaltSize)
	nonce := bytes.Repeat([]byte{0x22}, vaultcrypto.NonceSizeGCM)
	ciphertext := bytes.Repeat([]byte{0x33}, 16)

	raw, err := container.Encode(salt, nonce, ciphertext)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	raw[4] = 0xFF // corrupt the little-endian version field

	if _, err := container.Decode(raw); err != container.ErrUnsupportedVersion {
		t.Fatalf("err = %v, want %v", err, container.ErrUnsupportedVersion)
	}
}

func TestDecode_TamperDetectedByCaller(t *testing.T) {
	// The codec itself has no way to detect ciphertext tampering; that is
	// the AEAD layer's job. This test documents that Decode succeeds on any
	// well-formed header regardless of ciphertext content.
	salt := bytes.Repeat([]byte{0x11}, vaultcrypto.SaltSize)
	nonce := bytes.Repeat([]byte{0x22}, vaultcrypto.NonceSizeGCM)
	ciphertext := bytes.Repeat([]byte{0x33}, 16)

	raw, err := container.Encode(salt, nonce, ciphertext)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	raw[len(raw)-1] ^= 0xFF

	if _, err := container.Decode(raw); err != nil {
		t.Fatalf("decode should not fail on a tampered tag: %v", err)
	}
}
