package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vaultx/vaultx/cli"
	"github.com/vaultx/vaultx/clierror"
	"github.com/vaultx/vaultx/genericclioptions"
	"github.com/vaultx/vaultx/input"
)

const mockedPassword = "mocked_master_password"

func newTTYFileInfo(name string, size int) os.FileInfo {
	return genericclioptions.NewMockFileInfo(name, int64(size), os.ModeCharDevice, false, time.Now())
}

func newNonTTYFileInfo(name string, size int) os.FileInfo {
	return genericclioptions.NewMockFileInfo(name, int64(size), 0, false, time.Now())
}

// setupIOStreams mirrors the teacher's helper of the same name: it wires a
// mocked stdin with the given content and reports whether it looks like a
// terminal or piped input.
func setupIOStreams(t *testing.T, stdinData []byte, stdinFileInfoFn func(string, int) os.FileInfo) (*genericclioptions.IOStreams, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	buf := bytes.NewBuffer(stdinData)
	info := stdinFileInfoFn("stdin", len(stdinData))
	stdin := genericclioptions.NewTestFdReader(buf, 0, info)

	iostreams, _, out, errOut := genericclioptions.NewTestIOStreams(stdin)

	clierror.SetErrorHandler(clierror.PrintErrHandler)
	clierror.SetErrWriter(iostreams.ErrOut)

	t.Cleanup(func() {
		clierror.ResetErrorHandler()
		clierror.ResetErrWriter()
	})

	return iostreams, out, errOut
}

func withMockedPassword(t *testing.T, password string) {
	t.Helper()

	input.SetDefaultReadPassword(func(int) ([]byte, error) {
		return []byte(password), nil
	})

	t.Cleanup(input.ResetDefaultReadPassword)
}

func runCommand(t *testing.T, iostreams *genericclioptions.IOStreams, args []string) error {
	t.Helper()

	cmd := cli.NewDefaultVaultxCommand(iostreams, args)
	cmd.SetContext(t.Context())

	return cmd.Execute()
}

func mustInit(t *testing.T, configPath, vaultPath, project string) {
	t.Helper()

	withMockedPassword(t, mockedPassword)

	iostreams, _, errOut := setupIOStreams(t, nil, newTTYFileInfo)

	args := []string{"--config", configPath, "--file", vaultPath, "init", project}
	if err := runCommand(t, iostreams, args); err != nil {
		t.Fatalf("init failed: %v\nstderr: %s", err, errOut.String())
	}
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".vaultx.toml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return path
}

func TestInit_CreatesVaultWithProject(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	if _, err := os.Stat(vaultPath); err != nil {
		t.Fatalf("expected vault file at %s: %v", vaultPath, err)
	}
}

func TestInit_ExtendsExistingVaultWithNewProject(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	withMockedPassword(t, mockedPassword)
	iostreams, out, errOut := setupIOStreams(t, nil, newTTYFileInfo)

	args := []string{"--config", configPath, "--file", vaultPath, "init", "api"}
	if err := runCommand(t, iostreams, args); err != nil {
		t.Fatalf("extend init failed: %v\nstderr: %s", err, errOut.String())
	}

	gotOut := out.String()
	if gotOut == "" {
		t.Fatalf("expected confirmation message, got empty output")
	}
}

func TestInit_DuplicateProjectFails(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	withMockedPassword(t, mockedPassword)
	iostreams, _, _ := setupIOStreams(t, nil, newTTYFileInfo)

	args := []string{"--config", configPath, "--file", vaultPath, "init", "web"}
	if err := runCommand(t, iostreams, args); err == nil {
		t.Fatalf("expected error re-adding existing project")
	}
}

func TestAddGetList_RoundTrip(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	withMockedPassword(t, mockedPassword)

	secretValue := "s3cr3t-token"
	addIOStreams, _, addErrOut := setupIOStreams(t, []byte(secretValue), newNonTTYFileInfo)

	addArgs := []string{"--config", configPath, "--file", vaultPath, "add", "web", "api_key"}
	if err := runCommand(t, addIOStreams, addArgs); err != nil {
		t.Fatalf("add failed: %v\nstderr: %s", err, addErrOut.String())
	}

	withMockedPassword(t, mockedPassword)
	getIOStreams, getOut, getErrOut := setupIOStreams(t, nil, newTTYFileInfo)

	getArgs := []string{"--config", configPath, "--file", vaultPath, "get", "web", "api_key"}
	if err := runCommand(t, getIOStreams, getArgs); err != nil {
		t.Fatalf("get failed: %v\nstderr: %s", err, getErrOut.String())
	}

	if got := getOut.String(); got != secretValue {
		t.Fatalf("get output = %q, want %q", got, secretValue)
	}

	withMockedPassword(t, mockedPassword)
	listIOStreams, listOut, listErrOut := setupIOStreams(t, nil, newTTYFileInfo)

	listArgs := []string{"--config", configPath, "--file", vaultPath, "list"}
	if err := runCommand(t, listIOStreams, listArgs); err != nil {
		t.Fatalf("list failed: %v\nstderr: %s", err, listErrOut.String())
	}

	if got := listOut.String(); got != "web\t1 secret(s)\n" {
		t.Fatalf("list output = %q, want %q", got, "web\t1 secret(s)\n")
	}
}

func TestSecrets_ListsSecretWithTTL(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	withMockedPassword(t, mockedPassword)
	addIOStreams, _, addErrOut := setupIOStreams(t, []byte("short-lived-value"), newNonTTYFileInfo)

	addArgs := []string{"--config", configPath, "--file", vaultPath, "add", "web", "soon", "--ttl", "1h"}
	if err := runCommand(t, addIOStreams, addArgs); err != nil {
		t.Fatalf("add failed: %v\nstderr: %s", err, addErrOut.String())
	}

	withMockedPassword(t, mockedPassword)
	secretsIOStreams, secretsOut, secretsErrOut := setupIOStreams(t, nil, newTTYFileInfo)

	secretsArgs := []string{"--config", configPath, "--file", vaultPath, "secrets", "web"}
	if err := runCommand(t, secretsIOStreams, secretsArgs); err != nil {
		t.Fatalf("secrets failed: %v\nstderr: %s", err, secretsErrOut.String())
	}

	if got := secretsOut.String(); got == "" {
		t.Fatalf("expected secrets listing, got empty output")
	}
}

func TestAudit_ReportsEntries(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	withMockedPassword(t, mockedPassword)
	addIOStreams, _, addErrOut := setupIOStreams(t, []byte("v"), newNonTTYFileInfo)

	addArgs := []string{"--config", configPath, "--file", vaultPath, "add", "web", "k"}
	if err := runCommand(t, addIOStreams, addArgs); err != nil {
		t.Fatalf("add failed: %v\nstderr: %s", err, addErrOut.String())
	}

	withMockedPassword(t, mockedPassword)
	auditIOStreams, auditOut, auditErrOut := setupIOStreams(t, nil, newTTYFileInfo)

	auditArgs := []string{"--config", configPath, "--file", vaultPath, "audit"}
	if err := runCommand(t, auditIOStreams, auditArgs); err != nil {
		t.Fatalf("audit failed: %v\nstderr: %s", err, auditErrOut.String())
	}

	if got := auditOut.String(); got == "" {
		t.Fatalf("expected audit report, got empty output")
	}
}

func TestGet_MissingProjectFails(t *testing.T) {
	configPath := writeEmptyConfig(t)
	vaultPath := filepath.Join(t.TempDir(), "vault.vx")

	mustInit(t, configPath, vaultPath, "web")

	withMockedPassword(t, mockedPassword)
	iostreams, _, _ := setupIOStreams(t, nil, newTTYFileInfo)

	args := []string{"--config", configPath, "--file", vaultPath, "get", "ghost", "k"}
	if err := runCommand(t, iostreams, args); err == nil {
		t.Fatalf("expected error for missing project")
	}
}

func TestGenerate_PrintsPasswordMeetingPolicy(t *testing.T) {
	iostreams, out, errOut := setupIOStreams(t, nil, newTTYFileInfo)

	args := []string{"generate"}
	if err := runCommand(t, iostreams, args); err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, errOut.String())
	}

	if out.Len() == 0 {
		t.Fatalf("expected generated password output")
	}
}

func TestConfig_ShowsEffectiveConfiguration(t *testing.T) {
	configPath := writeEmptyConfig(t)

	iostreams, out, errOut := setupIOStreams(t, nil, newTTYFileInfo)

	args := []string{"--config", configPath, "config"}
	if err := runCommand(t, iostreams, args); err != nil {
		t.Fatalf("config failed: %v\nstderr: %s", err, errOut.String())
	}

	if out.Len() == 0 {
		t.Fatalf("expected TOML configuration dump")
	}
}
