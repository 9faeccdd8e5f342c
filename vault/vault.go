// Package vault implements the vault engine: the unlock/seal state machine
// sitting atop the container codec, the crypto primitives, and the object
// model. A Vault is loaded entirely into memory once unlocked, mutated
// in-place by its operations, and resealed to disk after every mutation.
package vault

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vaultx/vaultx/container"
	"github.com/vaultx/vaultx/serialize"
	"github.com/vaultx/vaultx/ttl"
	"github.com/vaultx/vaultx/vaultcrypto"
	"github.com/vaultx/vaultx/vaulterrors"
	"github.com/vaultx/vaultx/vaultmodel"
)

// State is the lifecycle state of a Vault handle.
type State int

const (
	// AtRest is the state of a Vault value before Open/New has succeeded,
	// or after Close has run.
	AtRest State = iota
	// Open means the in-memory object graph reflects the on-disk container
	// with no unsealed mutations pending.
	Open
	// Dirty means the in-memory object graph has mutations not yet
	// persisted by Seal.
	Dirty
)

type cleanupFunc func() error

// Vault is a handle to an unlocked vault container: the decrypted object
// model in memory, the key material needed to reseal it, and the advisory
// lock held for the handle's lifetime.
type Vault struct {
	Path  string
	state State

	key   []byte // Argon2id-derived AES-256 key; zeroized on Close.
	salt  []byte // KDF salt embedded in the container header; fixed for the container's lifetime.
	model *vaultmodel.Vault

	lock *container.Lock

	cleanupFuncs []cleanupFunc
	closeOnce    sync.Once
}

// New initializes a brand-new vault container at path, deriving its key
// from password and persisting an empty object graph. It fails with
// KindProjectExists if a container already exists at path — "project" here
// reuses the same taxonomy entry as the per-project name collision,
// since both mean "there is already something at this identity".
func New(ctx context.Context, path string, password []byte) (vlt *Vault, retErr error) {
	if _, err := os.Stat(path); err == nil {
		return nil, vaulterrors.New(vaulterrors.KindProjectExists, path, nil)
	}

	lock, err := container.AcquireLock(ctx, container.LockPathFor(path), container.DefaultLockWait)
	if err != nil {
		return nil, wrapLockErr(path, err)
	}

	defer func() {
		if retErr != nil {
			_ = lock.Release()
		}
	}()

	salt, err := vaultcrypto.RandBytes(vaultcrypto.SaltSize)
	if err != nil {
		return nil, vaulterrors.EntropyFailure
	}

	key := vaultcrypto.DeriveKey(password, salt)

	vlt = &Vault{
		Path:  path,
		state: Dirty,
		key:   key,
		salt:  salt,
		model: vaultmodel.NewVault(),
		lock:  lock,
	}

	vlt.RegisterCleanup(func() error { return vlt.lock.Release() })
	vlt.RegisterCleanup(func() error { vaultmodel.Zero(vlt.key); return nil })

	if err := vlt.reseal(); err != nil {
		return vlt, fmt.Errorf("vault.new: %w", err)
	}

	return vlt, nil
}

// Open unlocks an existing vault container at path, deriving the key from
// password and decrypting and deserializing its contents. A wrong
// password and a corrupted container both surface as
// KindInvalidPassphraseOrCorruption — the AEAD tag is the only
// authentication check, so the two cases are indistinguishable by design.
func Open(ctx context.Context, path string, password []byte) (vlt *Vault, retErr error) {
	lock, err := container.AcquireLock(ctx, container.LockPathFor(path), container.DefaultLockWait)
	if err != nil {
		return nil, wrapLockErr(path, err)
	}

	defer func() {
		if retErr != nil {
			_ = lock.Release()
		}
	}()

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, vaulterrors.New(vaulterrors.KindProjectMissing, path, nil)
		}

		return nil, vaulterrors.New(vaulterrors.KindIOError, path, err)
	}

	c, err := container.Decode(raw)
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.KindInvalidPassphraseOrCorruption, "", nil)
	}

	key := vaultcrypto.DeriveKey(password, c.Salt)

	aesgcm, err := vaultcrypto.NewAESGCM(key)
	if err != nil {
		vaultmodel.Zero(key)
		return nil, fmt.Errorf("vault.open: %w", err)
	}

	plaintext, err := aesgcm.Open(c.Nonce, c.Ciphertext)
	if err != nil {
		vaultmodel.Zero(key)
		return nil, vaulterrors.New(vaulterrors.KindInvalidPassphraseOrCorruption, "", nil)
	}

	defer vaultmodel.Zero(plaintext)

	model, err := serialize.Decode(plaintext)
	if err != nil {
		vaultmodel.Zero(key)
		return nil, vaulterrors.New(vaulterrors.KindInvalidPassphraseOrCorruption, "", nil)
	}

	vlt = &Vault{
		Path:  path,
		state: Open,
		key:   key,
		salt:  c.Salt,
		model: model,
		lock:  lock,
	}

	vlt.RegisterCleanup(func() error { return vlt.lock.Release() })
	vlt.RegisterCleanup(func() error { vaultmodel.Zero(vlt.key); return nil })

	return vlt, nil
}

// Close releases the advisory lock and zeroizes the derived key. It is
// safe to call multiple times; only the first call has an effect.
func (vlt *Vault) Close() (retErr error) {
	if vlt == nil {
		return nil
	}

	vlt.closeOnce.Do(func() {
		retErr = executeCleanup(vlt.cleanupFuncs)
		vlt.state = AtRest
	})

	return retErr
}

// RegisterCleanup registers f to run when the vault closes. Functions run
// in reverse registration order, mirroring a defer stack.
func (vlt *Vault) RegisterCleanup(f func() error) {
	vlt.cleanupFuncs = append(vlt.cleanupFuncs, f)
}

func executeCleanup(fs []cleanupFunc) error {
	var errs []error

	for i := len(fs) - 1; i >= 0; i-- {
		f := fs[i]
		if f == nil {
			continue
		}

		fs[i] = nil

		if err := f(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Seal re-encrypts the current object graph under a fresh nonce (the salt
// and derived key are fixed for the container's lifetime — rotating the
// salt would require the original password, which a Dirty vault does not
// hold) and atomically persists it to Path.
func (vlt *Vault) Seal() error {
	return vlt.reseal()
}

// reseal performs the actual encrypt-then-atomically-write sequence using
// the vault's current in-memory key and salt.
func (vlt *Vault) reseal() error {
	plaintext, err := serialize.Encode(vlt.model)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	defer vaultmodel.Zero(plaintext)

	nonce, err := vaultcrypto.RandBytes(vaultcrypto.NonceSizeGCM)
	if err != nil {
		return vaulterrors.EntropyFailure
	}

	aesgcm, err := vaultcrypto.NewAESGCM(vlt.key)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	ciphertext, err := aesgcm.Seal(nonce, plaintext)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	data, err := container.Encode(vlt.salt, nonce, ciphertext)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	if err := atomicWrite(vlt.Path, data); err != nil {
		return fmt.Errorf("seal: %w", err)
	}

	vlt.state = Open

	return nil
}

// atomicWrite writes data to a temp file in the same directory as path,
// fsyncs it, renames it over path, then fsyncs the containing directory —
// the standard crash-safe replace sequence so a reader never observes a
// partially written container.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".vaultx-tmp-*")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	dirFile, err := os.Open(dir)
	if err != nil {
		return nil //nolint: nilerr // best-effort: rename already succeeded.
	}

	defer dirFile.Close()
	_ = dirFile.Sync()

	return nil
}

// markDirty flips the in-memory state to Dirty after a mutating operation,
// then immediately reseals so every operation leaves the vault durably
// persisted — vaultx has no separate "save" step in its command surface.
func (vlt *Vault) markDirty() error {
	vlt.state = Dirty
	return vlt.reseal()
}

// AddProject creates an empty project. It fails with KindProjectExists if
// a project by that name already exists.
func (vlt *Vault) AddProject(name string) error {
	p, err := vaultmodel.NewProject(name, now())
	if err != nil {
		return err
	}

	if err := vlt.model.AddProject(p); err != nil {
		return err
	}

	return vlt.markDirty()
}

// AddSecret encrypts value under the vault's key and stores it at
// project/key. The project must already exist (see AddProject) and fails
// with KindProjectMissing otherwise. ttlSeconds of zero means no expiry.
func (vlt *Vault) AddSecret(project, key string, value []byte, ttlSeconds int64) error {
	p, ok := vlt.model.Project(project)
	if !ok {
		return vaulterrors.New(vaulterrors.KindProjectMissing, project, nil)
	}

	nonce, err := vaultcrypto.RandBytes(vaultcrypto.NonceSizeGCM)
	if err != nil {
		return vaulterrors.EntropyFailure
	}

	aesgcm, err := vaultcrypto.NewAESGCM(vlt.key)
	if err != nil {
		return fmt.Errorf("add secret: %w", err)
	}

	ciphertext, err := aesgcm.Seal(nonce, value)
	if err != nil {
		return fmt.Errorf("add secret: %w", err)
	}

	created := now()

	var expiresAt *int64

	if ttlSeconds > 0 {
		e := ttl.ExpiresAt(created, ttlSeconds)
		expiresAt = &e
	}

	s, err := vaultmodel.NewSecret(key, ciphertext, nonce, created, expiresAt)
	if err != nil {
		return err
	}

	p.PutSecret(s)

	return vlt.markDirty()
}

// GetSecret decrypts and returns the value stored at project/key. An
// expired secret is reported as KindExpired rather than returned.
func (vlt *Vault) GetSecret(project, key string) ([]byte, error) {
	p, ok := vlt.model.Project(project)
	if !ok {
		return nil, vaulterrors.New(vaulterrors.KindProjectMissing, project, nil)
	}

	s, ok := p.Secret(key)
	if !ok {
		return nil, vaulterrors.New(vaulterrors.KindSecretMissing, key, nil)
	}

	if ttl.IsExpired(s.ExpiresAt, now()) {
		_ = p.RemoveSecret(key)

		if err := vlt.markDirty(); err != nil {
			return nil, err
		}

		return nil, vaulterrors.New(vaulterrors.KindExpired, key, nil)
	}

	aesgcm, err := vaultcrypto.NewAESGCM(vlt.key)
	if err != nil {
		return nil, fmt.Errorf("get secret: %w", err)
	}

	plaintext, err := aesgcm.Open(s.Nonce, s.Ciphertext)
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.KindInvalidPassphraseOrCorruption, "", nil)
	}

	return plaintext, nil
}

// RemoveSecret deletes the secret at project/key.
func (vlt *Vault) RemoveSecret(project, key string) error {
	p, ok := vlt.model.Project(project)
	if !ok {
		return vaulterrors.New(vaulterrors.KindProjectMissing, project, nil)
	}

	if err := p.RemoveSecret(key); err != nil {
		return err
	}

	return vlt.markDirty()
}

// RemoveProject deletes project and all of its secrets.
func (vlt *Vault) RemoveProject(project string) error {
	if err := vlt.model.RemoveProject(project); err != nil {
		return err
	}

	return vlt.markDirty()
}

// ListProjects returns project names in lexicographic order.
func (vlt *Vault) ListProjects() []string {
	return vlt.model.ListProjects()
}

// ListSecrets returns the secret keys of project in lexicographic order.
func (vlt *Vault) ListSecrets(project string) ([]string, error) {
	p, ok := vlt.model.Project(project)
	if !ok {
		return nil, vaulterrors.New(vaulterrors.KindProjectMissing, project, nil)
	}

	return p.ListSecrets(), nil
}

// SecretInfo is a non-secret-bearing view of one secret's metadata, used
// by the `secrets` listing command. Unlike Audit, it never prunes.
type SecretInfo struct {
	Key       string
	CreatedAt int64
	ExpiresAt *int64
}

// SecretInfos returns metadata for every secret in project, in
// lexicographic key order.
func (vlt *Vault) SecretInfos(project string) ([]SecretInfo, error) {
	p, ok := vlt.model.Project(project)
	if !ok {
		return nil, vaulterrors.New(vaulterrors.KindProjectMissing, project, nil)
	}

	keys := p.ListSecrets()
	infos := make([]SecretInfo, 0, len(keys))

	for _, key := range keys {
		s, _ := p.Secret(key)
		infos = append(infos, SecretInfo{Key: s.Key, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt})
	}

	return infos, nil
}

// AuditEntry summarizes one secret's expiry posture for the audit report.
type AuditEntry struct {
	Project   string
	Key       string
	CreatedAt int64
	ExpiresAt *int64
	Status    string // "expiring-soon", "long-lived", "healthy", or "expired"
}

// expiringSoonWindow is the remaining-lifetime threshold under which a
// secret is flagged "expiring-soon" in the audit report.
const expiringSoonWindow = 24 * time.Hour

// longLivedAge is the age threshold over which a secret with no expiry is
// flagged "long-lived" in the audit report.
const longLivedAge = 90 * 24 * time.Hour

// Audit walks every secret in every project, classifies it, and prunes
// any that are expired. It reseals only if at least one secret was
// removed.
func (vlt *Vault) Audit() []AuditEntry {
	nowTS := now()

	var entries []AuditEntry

	var pruned bool

	for _, projectName := range vlt.model.ListProjects() {
		p, _ := vlt.model.Project(projectName)

		for _, key := range p.ListSecrets() {
			s, _ := p.Secret(key)
			status := classify(s, nowTS)

			entries = append(entries, AuditEntry{
				Project:   projectName,
				Key:       key,
				CreatedAt: s.CreatedAt,
				ExpiresAt: s.ExpiresAt,
				Status:    status,
			})

			if status == "expired" {
				_ = p.RemoveSecret(key)
				pruned = true
			}
		}
	}

	if pruned {
		_ = vlt.markDirty()
	}

	return entries
}

func classify(s *vaultmodel.Secret, nowTS int64) string {
	if ttl.IsExpired(s.ExpiresAt, nowTS) {
		return "expired"
	}

	if s.ExpiresAt != nil {
		remaining := time.Duration(*s.ExpiresAt-nowTS) * time.Second
		if remaining <= expiringSoonWindow {
			return "expiring-soon"
		}

		return "healthy"
	}

	if time.Duration(nowTS-s.CreatedAt)*time.Second >= longLivedAge {
		return "long-lived"
	}

	return "healthy"
}

// SshCreate generates a new Ed25519 SSH identity, encrypts its private key
// under the vault's key, and stores it under name.
func (vlt *Vault) SshCreate(name, comment string) (publicKey string, retErr error) {
	if _, exists := vlt.model.Identity(name); exists {
		return "", vaulterrors.New(vaulterrors.KindIdentityExists, name, nil)
	}

	pair, err := vaultcrypto.GenerateSSHKeyPair(comment)
	if err != nil {
		return "", fmt.Errorf("ssh create: %w", err)
	}

	defer vaultmodel.Zero(pair.PrivateKeyPEM)

	nonce, err := vaultcrypto.RandBytes(vaultcrypto.NonceSizeGCM)
	if err != nil {
		return "", vaulterrors.EntropyFailure
	}

	aesgcm, err := vaultcrypto.NewAESGCM(vlt.key)
	if err != nil {
		return "", fmt.Errorf("ssh create: %w", err)
	}

	ciphertext, err := aesgcm.Seal(nonce, pair.PrivateKeyPEM)
	if err != nil {
		return "", fmt.Errorf("ssh create: %w", err)
	}

	id, err := vaultmodel.NewSSHIdentity(name, pair.PublicKey, ciphertext, nonce, now())
	if err != nil {
		return "", err
	}

	if err := vlt.model.AddIdentity(id); err != nil {
		return "", err
	}

	if err := vlt.markDirty(); err != nil {
		return "", err
	}

	return pair.PublicKey, nil
}

// SshPrivateKey decrypts and returns the OpenSSH PEM private key bytes for
// the named identity. Callers must zeroize the returned buffer once done.
func (vlt *Vault) SshPrivateKey(name string) ([]byte, error) {
	id, ok := vlt.model.Identity(name)
	if !ok {
		return nil, vaulterrors.New(vaulterrors.KindIdentityMissing, name, nil)
	}

	aesgcm, err := vaultcrypto.NewAESGCM(vlt.key)
	if err != nil {
		return nil, fmt.Errorf("ssh private key: %w", err)
	}

	plaintext, err := aesgcm.Open(id.Nonce, id.EncryptedPrivateKey)
	if err != nil {
		return nil, vaulterrors.New(vaulterrors.KindInvalidPassphraseOrCorruption, "", nil)
	}

	return plaintext, nil
}

// ListIdentities returns SSH identity names in lexicographic order.
func (vlt *Vault) ListIdentities() []string {
	return vlt.model.ListIdentities()
}

// RemoveIdentity deletes the named SSH identity.
func (vlt *Vault) RemoveIdentity(name string) error {
	if err := vlt.model.RemoveIdentity(name); err != nil {
		return err
	}

	return vlt.markDirty()
}

// State returns the vault handle's current lifecycle state.
func (vlt *Vault) State() State {
	return vlt.state
}

// VerifyPassword re-derives the key from password using the vault's
// current salt and reports whether it matches the key already held in
// memory, in constant time. It never touches disk.
func (vlt *Vault) VerifyPassword(password []byte) bool {
	derived := vaultcrypto.DeriveKey(password, vlt.salt)
	defer vaultmodel.Zero(derived)

	return subtle.ConstantTimeCompare(derived, vlt.key) == 1
}

// KDFDescriptor returns a PHC-formatted description of the container's
// fixed KDF parameters and salt, for diagnostic display only. It carries
// no hash component and plays no role in authentication.
func (vlt *Vault) KDFDescriptor() string {
	return vaultcrypto.KDFDescriptor(vlt.salt)
}

func now() int64 {
	return time.Now().Unix()
}

// wrapLockErr classifies a lock-acquisition failure into the closed error
// taxonomy: a held advisory lock is KindVaultBusy, anything else (e.g. a
// permission error creating the lock file) is KindIOError.
func wrapLockErr(path string, err error) error {
	if errors.Is(err, container.ErrVaultBusy) {
		return vaulterrors.New(vaulterrors.KindVaultBusy, path, err)
	}

	return vaulterrors.New(vaulterrors.KindIOError, path, err)
}
