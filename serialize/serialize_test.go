package serialize_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vaultx/vaultx/serialize"
	"github.com/vaultx/vaultx/vaultmodel"
)

func buildVault(t *testing.T) *vaultmodel.Vault {
	t.Helper()

	v := vaultmodel.NewVault()

	p, err := vaultmodel.NewProject("web", 100)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}

	s, err := vaultmodel.NewSecret("api_key", []byte("ct"), []byte("nonce12byte!"), 100, nil)
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}

	p.PutSecret(s)

	exp := int64(200)

	s2, err := vaultmodel.NewSecret("db_pass", []byte("ct2"), []byte("nonce12byte!"), 100, &exp)
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}

	p.PutSecret(s2)

	if err := v.AddProject(p); err != nil {
		t.Fatalf("AddProject: %v", err)
	}

	id, err := vaultmodel.NewSSHIdentity("deploy", "ssh-ed25519 AAAA...", []byte("enc"), []byte("nonce12byte!"), 150)
	if err != nil {
		t.Fatalf("NewSSHIdentity: %v", err)
	}

	if err := v.AddIdentity(id); err != nil {
		t.Fatalf("AddIdentity: %v", err)
	}

	return v
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	v := buildVault(t)

	data, err := serialize.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := serialize.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(v, got); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	v := buildVault(t)

	a, err := serialize.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	b, err := serialize.Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if string(a) != string(b) {
		t.Fatalf("Encode is not deterministic:\n%s\nvs\n%s", a, b)
	}
}

func TestDecode_RejectsUnknownTopLevelKey(t *testing.T) {
	_, err := serialize.Decode([]byte(`{"version":1,"projects":{},"identities":{},"extra":1}`))
	if err == nil {
		t.Fatalf("expected error for unknown top-level key")
	}
}

func TestDecode_RejectsBadBase64(t *testing.T) {
	doc := `{"version":1,"projects":{"p":{"name":"p","created_at":1,"secrets":{"k":{"key":"k","ciphertext":"not-base64!!","nonce":"AAAA","created_at":1,"expires_at":null}}}},"identities":{}}`

	if _, err := serialize.Decode([]byte(doc)); err == nil {
		t.Fatalf("expected error for malformed base64 ciphertext")
	}
}
