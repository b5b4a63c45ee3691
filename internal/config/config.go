package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nested keys: PKWEB_OAUTH__CLIENT_ID -> oauth.client_id.
const EnvPrefix = "PKWEB_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PKWEB_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validStrategies = map[MemberStrategy]bool{
	MembersSeparate: true,
	MembersEmbedded: true,
}

var validExchanges = map[ExchangeMode]bool{
	ExchangeDiscord: true,
	ExchangeLegacy:  true,
}

var validDrivers = map[SessionDriver]bool{
	DriverSQLite:   true,
	DriverPostgres: true,
	DriverMemory:   true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.API.Root == "" {
		return fmt.Errorf("api.root is required")
	}
	if u, err := url.Parse(c.API.Root); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.root %q: must be an absolute URL", c.API.Root)
	}
	if c.API.SystemPath == "" {
		return fmt.Errorf("api.system_path is required")
	}
	if !validStrategies[c.API.MemberStrategy] {
		return fmt.Errorf("invalid api.member_strategy %q: must be one of separate, embedded", c.API.MemberStrategy)
	}
	if c.API.MemberStrategy == MembersSeparate && c.API.MembersPath == "" {
		return fmt.Errorf("api.members_path is required for the separate member strategy")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must be non-negative")
	}

	if !validExchanges[c.OAuth.Exchange] {
		return fmt.Errorf("invalid oauth.exchange %q: must be one of discord, legacy", c.OAuth.Exchange)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.NotFoundDelay <= 0 {
		return fmt.Errorf("server.not_found_delay must be positive")
	}

	if !validDrivers[c.Session.Driver] {
		return fmt.Errorf("invalid session.driver %q: must be one of sqlite, postgres, memory", c.Session.Driver)
	}
	if c.Session.Driver == DriverPostgres && c.Session.DSN == "" {
		return fmt.Errorf("session.dsn is required for the postgres driver")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}

	return nil
}

// OAuthConfigured reports whether Discord login can be offered.
func (c *Config) OAuthConfigured() bool {
	if c.OAuth.ClientID == "" || c.OAuth.RedirectURL == "" {
		return false
	}
	return c.OAuth.Exchange == ExchangeLegacy || c.OAuth.ClientSecret != ""
}
