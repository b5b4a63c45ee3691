package config

import "time"

// MemberStrategy controls how a system's member list is obtained.
type MemberStrategy string

const (
	// MembersSeparate fetches members from their own endpoint, in parallel with the system.
	MembersSeparate MemberStrategy = "separate"
	// MembersEmbedded expects the system payload to carry a "members" array.
	MembersEmbedded MemberStrategy = "embedded"
)

// ExchangeMode selects who turns an OAuth authorization code into a token.
type ExchangeMode string

const (
	ExchangeDiscord ExchangeMode = "discord"
	ExchangeLegacy  ExchangeMode = "legacy"
)

// SessionDriver identifies the backend holding session-scoped data.
type SessionDriver string

const (
	DriverSQLite   SessionDriver = "sqlite"
	DriverPostgres SessionDriver = "postgres"
	DriverMemory   SessionDriver = "memory"
)

// Config is the top-level pkweb configuration, corresponding to .pkweb.yml.
type Config struct {
	DataDir string        `yaml:"data_dir" koanf:"data_dir"`
	API     APIConfig     `yaml:"api" koanf:"api"`
	OAuth   OAuthConfig   `yaml:"oauth" koanf:"oauth"`
	Server  ServerConfig  `yaml:"server" koanf:"server"`
	Session SessionConfig `yaml:"session" koanf:"session"`
	Export  ExportConfig  `yaml:"export" koanf:"export"`
}

// APIConfig describes the remote PluralKit API.
type APIConfig struct {
	Root           string         `yaml:"root" koanf:"root"`
	SystemPath     string         `yaml:"system_path" koanf:"system_path"`
	MembersPath    string         `yaml:"members_path" koanf:"members_path"`
	OwnSystemPath  string         `yaml:"own_system_path" koanf:"own_system_path"`
	ExchangePath   string         `yaml:"exchange_path" koanf:"exchange_path"`
	MemberStrategy MemberStrategy `yaml:"member_strategy" koanf:"member_strategy"`
	Timeout        time.Duration  `yaml:"timeout" koanf:"timeout"` // 0 means no timeout
}

// OAuthConfig holds the Discord application credentials.
type OAuthConfig struct {
	ClientID     string       `yaml:"client_id" koanf:"client_id"`
	ClientSecret string       `yaml:"client_secret" koanf:"client_secret"`
	RedirectURL  string       `yaml:"redirect_url" koanf:"redirect_url"`
	Exchange     ExchangeMode `yaml:"exchange" koanf:"exchange"`
	AuthorizeURL string       `yaml:"authorize_url" koanf:"authorize_url"`
	TokenURL     string       `yaml:"token_url" koanf:"token_url"`
	Scopes       []string     `yaml:"scopes" koanf:"scopes"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int           `yaml:"port" koanf:"port"`
	AllowAll      bool          `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	NotFoundDelay time.Duration `yaml:"not_found_delay" koanf:"not_found_delay"`
	CSRFKey       string        `yaml:"csrf_key" koanf:"csrf_key"`
	SecureCookies bool          `yaml:"secure_cookies" koanf:"secure_cookies"`
}

// SessionConfig controls session-scoped token storage.
type SessionConfig struct {
	Driver         SessionDriver `yaml:"driver" koanf:"driver"`
	DSN            string        `yaml:"dsn" koanf:"dsn"`
	CookieName     string        `yaml:"cookie_name" koanf:"cookie_name"`
	Secret         string        `yaml:"secret" koanf:"secret"`
	IdleTTL        time.Duration `yaml:"idle_ttl" koanf:"idle_ttl"`
	ProtectedPaths []string      `yaml:"protected_paths" koanf:"protected_paths"`
}

// ExportConfig holds settings for static page export.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir" koanf:"output_dir"`
}
