package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TokenEnv overrides the stored PluralKit token when set.
const TokenEnv = "PKWEB_TOKEN"

// PluralKitCredentials stores the token used by the CLI and MCP tools.
type PluralKitCredentials struct {
	Token    string `json:"token,omitempty"`
	SystemID string `json:"system_id,omitempty"`
	SavedAt  string `json:"saved_at,omitempty"`
}

// Credentials holds stored credentials.
type Credentials struct {
	PluralKit *PluralKitCredentials `json:"pluralkit,omitempty"`
}

// CredentialPath returns the path to the credentials file (~/.pkweb/credentials.json).
func CredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pkweb", "credentials.json"), nil
}

// Load reads credentials from ~/.pkweb/credentials.json.
// Returns empty credentials if the file doesn't exist.
func Load() (*Credentials, error) {
	path, err := CredentialPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials to ~/.pkweb/credentials.json with restricted permissions.
func Save(creds *Credentials) error {
	path, err := CredentialPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// SaveToken stores token together with the system it belongs to.
func SaveToken(token, systemID string) error {
	creds, err := Load()
	if err != nil {
		return err
	}
	creds.PluralKit = &PluralKitCredentials{
		Token:    strings.TrimSpace(token),
		SystemID: systemID,
		SavedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	return Save(creds)
}

// ClearToken removes the stored token.
func ClearToken() error {
	creds, err := Load()
	if err != nil {
		return err
	}
	creds.PluralKit = nil
	return Save(creds)
}

// GetToken returns the PluralKit token.
// It checks the environment variable first, then falls back to stored credentials.
func GetToken() string {
	// Priority 1: Environment variable.
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		return tok
	}

	// Priority 2: Stored credentials.
	creds, err := Load()
	if err != nil || creds.PluralKit == nil {
		return ""
	}
	return creds.PluralKit.Token
}
