package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(TokenEnv, "")

	if got := GetToken(); got != "" {
		t.Fatalf("GetToken() = %q before saving, want empty", got)
	}

	if err := SaveToken("  secret-token \n", "abcde"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if got := GetToken(); got != "secret-token" {
		t.Errorf("GetToken() = %q, want %q", got, "secret-token")
	}

	creds, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if creds.PluralKit == nil || creds.PluralKit.SystemID != "abcde" {
		t.Errorf("stored credentials = %+v", creds.PluralKit)
	}

	info, err := os.Stat(filepath.Join(home, ".pkweb", "credentials.json"))
	if err != nil {
		t.Fatalf("credentials file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials permissions = %o, want 600", perm)
	}

	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if got := GetToken(); got != "" {
		t.Errorf("GetToken() = %q after clearing, want empty", got)
	}
}

func TestGetTokenPrefersEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := SaveToken("stored", ""); err != nil {
		t.Fatal(err)
	}
	t.Setenv(TokenEnv, "from-env")
	if got := GetToken(); got != "from-env" {
		t.Errorf("GetToken() = %q, want %q", got, "from-env")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".pkweb")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("expected error for corrupt credentials")
	}
}
