package config

import "time"

// Build-time OAuth settings. Release builds set these with
// -ldflags "-X github.com/ziadkadry99/pkweb/internal/config.ClientID=...".
var (
	ClientID     = ""
	ClientSecret = ""
	RedirectURL  = ""
)

const (
	// DefaultAPIRoot is the public PluralKit API host.
	DefaultAPIRoot = "https://pkapi.astrid.fun"

	// TokenKey is the session-scoped storage key holding the access token.
	TokenKey = "token"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".pkweb",
		API: APIConfig{
			Root:           DefaultAPIRoot,
			SystemPath:     "/s/{id}",
			MembersPath:    "/s/{id}/members",
			OwnSystemPath:  "/s",
			ExchangePath:   "/discord_oauth",
			MemberStrategy: MembersSeparate,
		},
		OAuth: OAuthConfig{
			ClientID:     ClientID,
			ClientSecret: ClientSecret,
			RedirectURL:  RedirectURL,
			Exchange:     ExchangeDiscord,
			AuthorizeURL: "https://discordapp.com/oauth2/authorize",
			TokenURL:     "https://discordapp.com/api/oauth2/token",
			Scopes:       []string{"identify"},
		},
		Server: ServerConfig{
			Port:          8080,
			NotFoundDelay: 3 * time.Second,
		},
		Session: SessionConfig{
			Driver:         DriverSQLite,
			CookieName:     "pk_session",
			IdleTTL:        12 * time.Hour,
			ProtectedPaths: []string{"/me", "/me/**"},
		},
		Export: ExportConfig{
			OutputDir: "site",
		},
	}
}
