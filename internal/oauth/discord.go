package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/ziadkadry99/pkweb/internal/config"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
)

// NewConfig builds the oauth2 configuration for the Discord application.
// Client credentials travel as HTTP Basic auth.
func NewConfig(cfg config.OAuthConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthorizeURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// LoginURL returns the Discord authorize URL the login link points at.
func LoginURL(cfg config.OAuthConfig) string {
	return NewConfig(cfg).AuthCodeURL("")
}

// DiscordExchanger trades codes directly with Discord's token endpoint.
type DiscordExchanger struct {
	conf   *oauth2.Config
	client *http.Client
}

// NewDiscordExchanger creates an exchanger. A nil client uses
// http.DefaultClient.
func NewDiscordExchanger(cfg config.OAuthConfig, client *http.Client) *DiscordExchanger {
	return &DiscordExchanger{conf: NewConfig(cfg), client: client}
}

func (d *DiscordExchanger) Exchange(ctx context.Context, code string) (string, error) {
	if d.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, d.client)
	}
	tok, err := d.conf.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// LegacyExchanger posts the code to the PluralKit API's own exchange
// endpoint.
type LegacyExchanger struct {
	API *pkapi.Client
}

func (l LegacyExchanger) Exchange(ctx context.Context, code string) (string, error) {
	return l.API.ExchangeCode(ctx, code)
}

// NewExchanger picks the exchanger configured by cfg.Exchange.
func NewExchanger(cfg config.OAuthConfig, api *pkapi.Client, client *http.Client) Exchanger {
	if cfg.Exchange == config.ExchangeLegacy {
		return LegacyExchanger{API: api}
	}
	return NewDiscordExchanger(cfg, client)
}
