// Package vaulterrors defines the closed error taxonomy shared by every
// vault component, and the mapping from each error kind to its CLI exit
// code and user-visible message.
package vaulterrors

import "errors"

// Kind identifies one of the closed set of error categories a vault
// operation can fail with.
type Kind int

const (
	_ Kind = iota
	KindInvalidPassphraseOrCorruption
	KindProjectExists
	KindProjectMissing
	KindSecretMissing
	KindIdentityExists
	KindIdentityMissing
	KindExpired
	KindInvalidName
	KindInvalidTTL
	KindIOError
	KindVaultBusy
	KindEntropyFailure
)

// VaultError is the concrete error type carrying a Kind plus enough
// context to build a user-visible message, without ever embedding secret
// material or raw file offsets.
type VaultError struct {
	Kind    Kind
	Context string // e.g. a project, secret, or identity name
	Err     error  // wrapped cause, may be nil
}

func (e *VaultError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Context + ": " + e.Err.Error()
	}

	if len(e.Context) > 0 {
		return e.Kind.String() + ": " + e.Context
	}

	return e.Kind.String()
}

func (e *VaultError) Unwrap() error { return e.Err }

// Is reports whether target is a *VaultError with the same Kind, so that
// errors.Is(err, vaulterrors.New(KindExpired, "", nil)) works without
// requiring exact context equality.
func (e *VaultError) Is(target error) bool {
	t, ok := target.(*VaultError)
	if !ok {
		return false
	}

	return e.Kind == t.Kind
}

// New constructs a VaultError of the given kind.
func New(kind Kind, context string, err error) *VaultError {
	return &VaultError{Kind: kind, Context: context, Err: err}
}

func (k Kind) String() string {
	switch k {
	case KindInvalidPassphraseOrCorruption:
		return "invalid passphrase or corrupt vault"
	case KindProjectExists:
		return "project already exists"
	case KindProjectMissing:
		return "project does not exist"
	case KindSecretMissing:
		return "secret does not exist"
	case KindIdentityExists:
		return "ssh identity already exists"
	case KindIdentityMissing:
		return "ssh identity does not exist"
	case KindExpired:
		return "secret has expired"
	case KindInvalidName:
		return "invalid name"
	case KindInvalidTTL:
		return "invalid ttl"
	case KindIOError:
		return "vault i/o error"
	case KindVaultBusy:
		return "vault is busy"
	case KindEntropyFailure:
		return "entropy source failure"
	default:
		return "unknown vault error"
	}
}

// ExitCode returns the process exit code this error kind maps to, per the
// command-surface contract.
func ExitCode(err error) int {
	var ve *VaultError
	if !errors.As(err, &ve) {
		return 1
	}

	switch ve.Kind {
	case KindProjectExists:
		return 2
	case KindInvalidPassphraseOrCorruption:
		return 3
	case KindProjectMissing:
		return 4
	case KindInvalidTTL:
		return 5
	case KindSecretMissing:
		return 6
	case KindExpired:
		return 7
	case KindIdentityExists:
		return 8
	case KindIdentityMissing:
		return 9
	case KindVaultBusy:
		return 10
	default:
		return 1
	}
}

// Message renders the user-visible message for err. AEAD verification
// failures and corrupt-container errors intentionally render identically,
// so a caller cannot use the message to build a decryption oracle.
func Message(err error) string {
	var ve *VaultError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	switch ve.Kind {
	case KindInvalidPassphraseOrCorruption:
		return "Invalid password or corrupted vault."
	case KindExpired:
		return "Secret '" + ve.Context + "' has expired."
	case KindProjectExists:
		return "Project '" + ve.Context + "' already exists."
	case KindProjectMissing:
		return "Project '" + ve.Context + "' does not exist."
	case KindSecretMissing:
		return "Secret '" + ve.Context + "' does not exist."
	case KindIdentityExists:
		return "SSH identity '" + ve.Context + "' already exists."
	case KindIdentityMissing:
		return "SSH identity '" + ve.Context + "' does not exist."
	case KindInvalidName:
		return "Invalid name: '" + ve.Context + "'."
	case KindInvalidTTL:
		return "Invalid TTL: " + ve.Context
	case KindVaultBusy:
		return "Vault is locked by another process. Try again shortly."
	case KindEntropyFailure:
		return "Fatal: system entropy source failed."
	case KindIOError:
		return "A filesystem error occurred."
	default:
		return ve.Error()
	}
}

// EntropyFailure is a fatal, explicit error representing a CSPRNG failure.
var EntropyFailure = New(KindEntropyFailure, "", nil)
