// Package vaultmodel defines the in-memory vault object graph — projects,
// secrets, and SSH identities — along with the invariants from its
// constructors. It performs no I/O and no cryptography; the vault engine
// decides when and how the model is encrypted, decrypted, and persisted.
package vaultmodel

import (
	"github.com/vaultx/vaultx/vaulterrors"
)

// FormatVersion is the logical vault-content schema version, independent of
// the on-disk container version.
const FormatVersion = 1

// Vault is the fully decrypted logical state: projects and SSH identities,
// keyed by name. The Vault owns its Projects and SSHIdentities exclusively;
// a Project in turn owns its Secrets. There are no back-pointers — every
// relation is a name lookup.
type Vault struct {
	Version    int                      `json:"version"`
	Projects   map[string]*Project      `json:"projects"`
	Identities map[string]*SSHIdentity  `json:"identities"`
}

// NewVault returns an empty Vault at the current format version.
func NewVault() *Vault {
	return &Vault{
		Version:    FormatVersion,
		Projects:   map[string]*Project{},
		Identities: map[string]*SSHIdentity{},
	}
}

// Project holds the secrets belonging to one named project.
type Project struct {
	Name      string             `json:"name"`
	Secrets   map[string]*Secret `json:"secrets"`
	CreatedAt int64              `json:"created_at"`
}

// Secret is one encrypted value within a Project.
type Secret struct {
	Key          string `json:"key"`
	Ciphertext   []byte `json:"ciphertext"`
	Nonce        []byte `json:"nonce"`
	CreatedAt    int64  `json:"created_at"`
	ExpiresAt    *int64 `json:"expires_at"`
}

// SSHIdentity is one Ed25519 SSH identity belonging to the vault.
type SSHIdentity struct {
	Name                 string `json:"name"`
	PublicKey             string `json:"public_key"`
	EncryptedPrivateKey   []byte `json:"encrypted_private_key"`
	Nonce                 []byte `json:"nonce"`
	CreatedAt             int64  `json:"created_at"`
}

// NewProject constructs a Project, enforcing the shared name grammar and
// the invariant that its secret map starts empty.
func NewProject(name string, createdAt int64) (*Project, error) {
	if !ValidName(name) {
		return nil, vaulterrors.New(vaulterrors.KindInvalidName, name, nil)
	}

	return &Project{
		Name:      name,
		Secrets:   map[string]*Secret{},
		CreatedAt: createdAt,
	}, nil
}

// NewSecret constructs a Secret, enforcing the name grammar and the
// expires-after-created invariant.
func NewSecret(key string, ciphertext, nonce []byte, createdAt int64, expiresAt *int64) (*Secret, error) {
	if !ValidName(key) {
		return nil, vaulterrors.New(vaulterrors.KindInvalidName, key, nil)
	}

	if expiresAt != nil && *expiresAt <= createdAt {
		return nil, vaulterrors.New(vaulterrors.KindInvalidTTL, key, nil)
	}

	return &Secret{
		Key:        key,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// NewSSHIdentity constructs an SSHIdentity, enforcing the name grammar.
func NewSSHIdentity(name, publicKey string, encryptedPrivateKey, nonce []byte, createdAt int64) (*SSHIdentity, error) {
	if !ValidName(name) {
		return nil, vaulterrors.New(vaulterrors.KindInvalidName, name, nil)
	}

	return &SSHIdentity{
		Name:                name,
		PublicKey:           publicKey,
		EncryptedPrivateKey: encryptedPrivateKey,
		Nonce:               nonce,
		CreatedAt:           createdAt,
	}, nil
}

// Project looks up a project by name.
func (v *Vault) Project(name string) (*Project, bool) {
	p, ok := v.Projects[name]
	return p, ok
}

// AddProject inserts a new project, failing if one with the same name
// already exists.
func (v *Vault) AddProject(p *Project) error {
	if _, exists := v.Projects[p.Name]; exists {
		return vaulterrors.New(vaulterrors.KindProjectExists, p.Name, nil)
	}

	v.Projects[p.Name] = p

	return nil
}

// RemoveProject deletes a project, zeroizing each of its secrets'
// ciphertext and nonce buffers before release.
func (v *Vault) RemoveProject(name string) error {
	p, ok := v.Projects[name]
	if !ok {
		return vaulterrors.New(vaulterrors.KindProjectMissing, name, nil)
	}

	for _, s := range p.Secrets {
		Zero(s.Ciphertext)
		Zero(s.Nonce)
	}

	delete(v.Projects, name)

	return nil
}

// ListProjects returns project names in lexicographic order.
func (v *Vault) ListProjects() []string {
	names := make([]string, 0, len(v.Projects))
	for name := range v.Projects {
		names = append(names, name)
	}

	sortStrings(names)

	return names
}

// Secret looks up a secret by key within the project.
func (p *Project) Secret(key string) (*Secret, bool) {
	s, ok := p.Secrets[key]
	return s, ok
}

// PutSecret inserts or replaces a secret by key. If a secret with the same
// key already exists, its previous ciphertext and nonce are zeroized
// before being overwritten.
func (p *Project) PutSecret(s *Secret) {
	if old, exists := p.Secrets[s.Key]; exists {
		Zero(old.Ciphertext)
		Zero(old.Nonce)
	}

	p.Secrets[s.Key] = s
}

// RemoveSecret deletes a secret by key, zeroizing its buffers.
func (p *Project) RemoveSecret(key string) error {
	s, ok := p.Secrets[key]
	if !ok {
		return vaulterrors.New(vaulterrors.KindSecretMissing, key, nil)
	}

	Zero(s.Ciphertext)
	Zero(s.Nonce)
	delete(p.Secrets, key)

	return nil
}

// ListSecrets returns secret keys in lexicographic order.
func (p *Project) ListSecrets() []string {
	keys := make([]string, 0, len(p.Secrets))
	for k := range p.Secrets {
		keys = append(keys, k)
	}

	sortStrings(keys)

	return keys
}

// Identity looks up an SSH identity by name.
func (v *Vault) Identity(name string) (*SSHIdentity, bool) {
	id, ok := v.Identities[name]
	return id, ok
}

// AddIdentity inserts a new SSH identity, failing if one with the same
// name already exists.
func (v *Vault) AddIdentity(id *SSHIdentity) error {
	if _, exists := v.Identities[id.Name]; exists {
		return vaulterrors.New(vaulterrors.KindIdentityExists, id.Name, nil)
	}

	v.Identities[id.Name] = id

	return nil
}

// RemoveIdentity deletes an SSH identity, zeroizing its encrypted private
// key buffer before release.
func (v *Vault) RemoveIdentity(name string) error {
	id, ok := v.Identities[name]
	if !ok {
		return vaulterrors.New(vaulterrors.KindIdentityMissing, name, nil)
	}

	Zero(id.EncryptedPrivateKey)
	Zero(id.Nonce)
	delete(v.Identities, name)

	return nil
}

// ListIdentities returns SSH identity names in lexicographic order.
func (v *Vault) ListIdentities() []string {
	names := make([]string, 0, len(v.Identities))
	for name := range v.Identities {
		names = append(names, name)
	}

	sortStrings(names)

	return names
}

// Zero overwrites b with zero bytes in place. It is the hygiene primitive
// used everywhere a buffer held a passphrase, a derived key, decrypted
// plaintext, or a private key before that buffer is released.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func sortStrings(s []string) {
	// insertion sort: these slices are always small (project/secret counts
	// in the tens), and avoids importing "sort" solely for this.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
