// Package serialize implements the canonical text encoding sitting between
// the vault object model and the crypto layer: a deterministic, lexically
// ordered JSON-like document. encoding/json's map encoding order is
// unspecified across Go versions, so Encode builds the document by hand
// from sorted keys rather than calling json.Marshal on a map directly.
package serialize

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/vaultx/vaultx/vaultmodel"
)

// Encode renders v as a canonical text document: map entries (project
// names, secret keys, identity names) in lexicographic order, the fields of
// each object in a fixed order, binary fields as standard padded base64,
// and a missing expiry rendered as explicit JSON null.
func Encode(v *vaultmodel.Vault) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	writeKV(&buf, "version", jsonInt(int64(v.Version)), true)

	buf.WriteString(`,"projects":{`)

	names := make([]string, 0, len(v.Projects))
	for name := range v.Projects {
		names = append(names, name)
	}

	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodeProject(&buf, name, v.Projects[name])
	}

	buf.WriteString("},\"identities\":{")

	idNames := make([]string, 0, len(v.Identities))
	for name := range v.Identities {
		idNames = append(idNames, name)
	}

	sort.Strings(idNames)

	for i, name := range idNames {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodeIdentity(&buf, name, v.Identities[name])
	}

	buf.WriteString("}}")

	return buf.Bytes(), nil
}

func encodeProject(buf *bytes.Buffer, name string, p *vaultmodel.Project) {
	writeJSONString(buf, name)
	buf.WriteByte(':')
	buf.WriteByte('{')
	writeKV(buf, "name", jsonString(p.Name), true)
	writeKV(buf, "created_at", jsonInt(p.CreatedAt), false)

	buf.WriteString(`,"secrets":{`)

	keys := make([]string, 0, len(p.Secrets))
	for k := range p.Secrets {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodeSecret(buf, k, p.Secrets[k])
	}

	buf.WriteString("}}")
}

func encodeSecret(buf *bytes.Buffer, key string, s *vaultmodel.Secret) {
	writeJSONString(buf, key)
	buf.WriteByte(':')
	buf.WriteByte('{')
	writeKV(buf, "key", jsonString(s.Key), true)
	writeKV(buf, "ciphertext", jsonString(base64.StdEncoding.EncodeToString(s.Ciphertext)), false)
	writeKV(buf, "nonce", jsonString(base64.StdEncoding.EncodeToString(s.Nonce)), false)
	writeKV(buf, "created_at", jsonInt(s.CreatedAt), false)

	if s.ExpiresAt != nil {
		writeKV(buf, "expires_at", jsonInt(*s.ExpiresAt), false)
	} else {
		writeKV(buf, "expires_at", "null", false)
	}

	buf.WriteByte('}')
}

func encodeIdentity(buf *bytes.Buffer, name string, id *vaultmodel.SSHIdentity) {
	writeJSONString(buf, name)
	buf.WriteByte(':')
	buf.WriteByte('{')
	writeKV(buf, "name", jsonString(id.Name), true)
	writeKV(buf, "public_key", jsonString(id.PublicKey), false)
	writeKV(buf, "encrypted_private_key", jsonString(base64.StdEncoding.EncodeToString(id.EncryptedPrivateKey)), false)
	writeKV(buf, "nonce", jsonString(base64.StdEncoding.EncodeToString(id.Nonce)), false)
	writeKV(buf, "created_at", jsonInt(id.CreatedAt), false)
	buf.WriteByte('}')
}

func writeKV(buf *bytes.Buffer, key, rawValue string, first bool) {
	if !first {
		buf.WriteByte(',')
	}

	writeJSONString(buf, key)
	buf.WriteByte(':')
	buf.WriteString(rawValue)
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsonInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// rawDocument mirrors the document shape for decoding via encoding/json,
// which is safe to use for reading because the decoder does not care
// about key order, only the writer must be deterministic.
type rawDocument struct {
	Version    json.Number              `json:"version"`
	Projects   map[string]rawProject    `json:"projects"`
	Identities map[string]rawIdentity   `json:"identities"`
}

type rawProject struct {
	Name      string               `json:"name"`
	CreatedAt json.Number          `json:"created_at"`
	Secrets   map[string]rawSecret `json:"secrets"`
}

type rawSecret struct {
	Key        string      `json:"key"`
	Ciphertext string      `json:"ciphertext"`
	Nonce      string      `json:"nonce"`
	CreatedAt  json.Number `json:"created_at"`
	ExpiresAt  *json.Number `json:"expires_at"`
}

type rawIdentity struct {
	Name                string      `json:"name"`
	PublicKey           string      `json:"public_key"`
	EncryptedPrivateKey string      `json:"encrypted_private_key"`
	Nonce               string      `json:"nonce"`
	CreatedAt           json.Number `json:"created_at"`
}

// Decode parses a canonical document previously produced by Encode. It
// rejects unknown top-level keys and malformed base64 fields.
func Decode(data []byte) (*vaultmodel.Vault, error) {
	if err := rejectUnknownTopLevelKeys(data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc rawDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("serialize: decode: %w", err)
	}

	version, err := doc.Version.Int64()
	if err != nil {
		return nil, fmt.Errorf("serialize: version: %w", err)
	}

	v := &vaultmodel.Vault{
		Version:    int(version),
		Projects:   map[string]*vaultmodel.Project{},
		Identities: map[string]*vaultmodel.SSHIdentity{},
	}

	for name, rp := range doc.Projects {
		createdAt, err := rp.CreatedAt.Int64()
		if err != nil {
			return nil, fmt.Errorf("serialize: project %q created_at: %w", name, err)
		}

		p, err := vaultmodel.NewProject(rp.Name, createdAt)
		if err != nil {
			return nil, err
		}

		for key, rs := range rp.Secrets {
			s, err := decodeSecret(rs)
			if err != nil {
				return nil, fmt.Errorf("serialize: secret %q: %w", key, err)
			}

			p.Secrets[key] = s
		}

		v.Projects[name] = p
	}

	for name, ri := range doc.Identities {
		createdAt, err := ri.CreatedAt.Int64()
		if err != nil {
			return nil, fmt.Errorf("serialize: identity %q created_at: %w", name, err)
		}

		priv, err := base64.StdEncoding.DecodeString(ri.EncryptedPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("serialize: identity %q private key: %w", name, err)
		}

		nonce, err := base64.StdEncoding.DecodeString(ri.Nonce)
		if err != nil {
			return nil, fmt.Errorf("serialize: identity %q nonce: %w", name, err)
		}

		id, err := vaultmodel.NewSSHIdentity(ri.Name, ri.PublicKey, priv, nonce, createdAt)
		if err != nil {
			return nil, err
		}

		v.Identities[name] = id
	}

	return v, nil
}

func decodeSecret(rs rawSecret) (*vaultmodel.Secret, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(rs.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ciphertext: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(rs.Nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	createdAt, err := rs.CreatedAt.Int64()
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	var expiresAt *int64

	if rs.ExpiresAt != nil {
		e, err := rs.ExpiresAt.Int64()
		if err != nil {
			return nil, fmt.Errorf("expires_at: %w", err)
		}

		expiresAt = &e
	}

	return vaultmodel.NewSecret(rs.Key, ciphertext, nonce, createdAt, expiresAt)
}

// rejectUnknownTopLevelKeys decodes data as a generic top-level map and
// fails if any key is not one of the three document fields.
func rejectUnknownTopLevelKeys(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("serialize: decode top level: %w", err)
	}

	for k := range top {
		switch k {
		case "version", "projects", "identities":
		default:
			return fmt.Errorf("serialize: unsupported payload: unknown top-level key %q", k)
		}
	}

	return nil
}
