package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.Root != DefaultAPIRoot {
		t.Errorf("expected default api root %q, got %q", DefaultAPIRoot, cfg.API.Root)
	}
	if cfg.API.MemberStrategy != MembersSeparate {
		t.Errorf("expected default member strategy %q, got %q", MembersSeparate, cfg.API.MemberStrategy)
	}
	if cfg.Server.NotFoundDelay != 3*time.Second {
		t.Errorf("expected default not_found_delay 3s, got %s", cfg.Server.NotFoundDelay)
	}
	if cfg.Session.CookieName != "pk_session" {
		t.Errorf("expected default cookie name pk_session, got %q", cfg.Session.CookieName)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pkweb.yml")

	original := DefaultConfig()
	original.API.SystemPath = "/systems/{id}"
	original.API.MemberStrategy = MembersEmbedded
	original.OAuth.ClientID = "466378653216014359"
	original.Server.NotFoundDelay = 10 * time.Second
	original.Session.ProtectedPaths = []string{"/me/**"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.API.SystemPath != original.API.SystemPath {
		t.Errorf("system_path: got %q, want %q", loaded.API.SystemPath, original.API.SystemPath)
	}
	if loaded.API.MemberStrategy != original.API.MemberStrategy {
		t.Errorf("member_strategy: got %q, want %q", loaded.API.MemberStrategy, original.API.MemberStrategy)
	}
	if loaded.OAuth.ClientID != original.OAuth.ClientID {
		t.Errorf("client_id: got %q, want %q", loaded.OAuth.ClientID, original.OAuth.ClientID)
	}
	if loaded.Server.NotFoundDelay != original.Server.NotFoundDelay {
		t.Errorf("not_found_delay: got %s, want %s", loaded.Server.NotFoundDelay, original.Server.NotFoundDelay)
	}
	if len(loaded.Session.ProtectedPaths) != 1 || loaded.Session.ProtectedPaths[0] != "/me/**" {
		t.Errorf("protected_paths: got %v", loaded.Session.ProtectedPaths)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(filepath.Join(dir, "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.API.Root != DefaultAPIRoot {
		t.Errorf("expected default api root, got %q", cfg.API.Root)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PKWEB_OAUTH__CLIENT_ID", "from-env")
	t.Setenv("PKWEB_SERVER__PORT", "9090")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.OAuth.ClientID != "from-env" {
		t.Errorf("env override failed: got %q, want %q", loaded.OAuth.ClientID, "from-env")
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("env override failed: got port %d, want 9090", loaded.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty root", func(c *Config) { c.API.Root = "" }, true},
		{"relative root", func(c *Config) { c.API.Root = "pkapi.astrid.fun" }, true},
		{"bad strategy", func(c *Config) { c.API.MemberStrategy = "sideways" }, true},
		{"separate without members path", func(c *Config) { c.API.MembersPath = "" }, true},
		{"embedded without members path", func(c *Config) {
			c.API.MemberStrategy = MembersEmbedded
			c.API.MembersPath = ""
		}, false},
		{"bad exchange", func(c *Config) { c.OAuth.Exchange = "magic" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"zero not found delay", func(c *Config) { c.Server.NotFoundDelay = 0 }, true},
		{"postgres without dsn", func(c *Config) { c.Session.Driver = DriverPostgres }, true},
		{"bad driver", func(c *Config) { c.Session.Driver = "redis" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestOAuthConfigured(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OAuthConfigured() {
		t.Error("expected login to be unavailable without credentials")
	}

	cfg.OAuth.ClientID = "id"
	cfg.OAuth.RedirectURL = "http://localhost:8080/login"
	if cfg.OAuthConfigured() {
		t.Error("discord exchange needs a client secret")
	}

	cfg.OAuth.ClientSecret = "secret"
	if !cfg.OAuthConfigured() {
		t.Error("expected login to be available")
	}
}
