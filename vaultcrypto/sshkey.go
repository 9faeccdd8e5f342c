package vaultcrypto

import (
	"crypto/ed25519"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// SSHKeyPair holds a freshly generated Ed25519 identity in the text formats
// the external ssh client expects.
type SSHKeyPair struct {
	// PublicKey is the OpenSSH authorized-keys line: "ssh-ed25519 <base64> <comment>".
	PublicKey string

	// PrivateKeyPEM is the OpenSSH private-key PEM block, unencrypted.
	// Confidentiality is provided by the vault layer, not by this encoding;
	// callers must encrypt it before it touches disk.
	PrivateKeyPEM []byte
}

// GenerateSSHKeyPair creates a new Ed25519 keypair and renders it in OpenSSH
// text format. comment is embedded verbatim in the public-key line.
func GenerateSSHKeyPair(comment string) (*SSHKeyPair, error) {
	seed, err := RandBytes(ed25519.SeedSize)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("derive ssh public key: %w", err)
	}

	authorizedLine := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(sshPub)), "\n")
	if len(comment) > 0 {
		authorizedLine += " " + comment
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("marshal openssh private key: %w", err)
	}

	return &SSHKeyPair{
		PublicKey:     authorizedLine,
		PrivateKeyPEM: pem.EncodeToMemory(block),
	}, nil
}

// ParseSSHPrivateKey parses a decrypted OpenSSH private-key PEM block
// recovered from the vault and returns the raw signer, used to confirm the
// recovered key still corresponds to the stored public key.
func ParseSSHPrivateKey(pemBlock []byte) (ssh.Signer, error) {
	return ssh.ParsePrivateKey(pemBlock)
}
