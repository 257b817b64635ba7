package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestVault(t *testing.T) (*FileVault, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.json")
	v, err := OpenFileVault(path)
	if err != nil {
		t.Fatalf("open vault: %v", err)
	}
	return v, path
}

func TestVaultSetGetDelete(t *testing.T) {
	v, _ := openTestVault(t)

	if _, ok, err := v.Get("nope"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := v.Set("env_env-1_1", `{"apiKey":"token-123"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := v.Get("env_env-1_1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != `{"apiKey":"token-123"}` {
		t.Fatalf("got %q ok=%v", got, ok)
	}

	if err := v.Delete("env_env-1_1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := v.Get("env_env-1_1"); ok {
		t.Fatalf("key should be gone")
	}
}

func TestVaultEncryptsAtRest(t *testing.T) {
	v, path := openTestVault(t)

	const plaintext = "super-secret-token-abcdef"
	if err := v.Set("env_env-1_1", plaintext); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read vault file: %v", err)
	}
	if strings.Contains(string(raw), plaintext) {
		t.Fatalf("vault file stores the plaintext:\n%s", raw)
	}
}

func TestVaultSurvivesReopen(t *testing.T) {
	v, path := openTestVault(t)
	if err := v.Set("env_env-1_1", "blob"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := OpenFileVault(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := reopened.Get("env_env-1_1")
	if err != nil || !ok {
		t.Fatalf("get after reopen: ok=%v err=%v", ok, err)
	}
	if got != "blob" {
		t.Fatalf("got %q", got)
	}
}

func TestVaultKeyFilePermissions(t *testing.T) {
	v, path := openTestVault(t)
	if err := v.Set("k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}

	info, err := os.Stat(path + ".key")
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("key file perm = %o, want 600", perm)
	}
}
