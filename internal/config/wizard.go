package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the
// resulting Config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pkweb! Let's configure your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. API root.
	rootPrompt := promptui.Prompt{
		Label:   "PluralKit API root",
		Default: cfg.API.Root,
	}
	root, err := rootPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("api root: %w", err)
	}
	cfg.API.Root = strings.TrimRight(strings.TrimSpace(root), "/")

	// 2. Endpoint shape.
	shapePrompt := promptui.Select{
		Label: "System endpoint shape",
		Items: []string{
			"/s/{id} with members at /s/{id}/members",
			"/systems/{id} with members embedded",
		},
	}
	shapeIdx, _, err := shapePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("endpoint shape: %w", err)
	}
	if shapeIdx == 1 {
		cfg.API.SystemPath = "/systems/{id}"
		cfg.API.MemberStrategy = MembersEmbedded
	}

	// 3. Discord application.
	idPrompt := promptui.Prompt{Label: "Discord client ID (blank to disable login)", Default: cfg.OAuth.ClientID}
	if cfg.OAuth.ClientID, err = idPrompt.Run(); err != nil {
		return nil, fmt.Errorf("client id: %w", err)
	}
	if cfg.OAuth.ClientID != "" {
		secretPrompt := promptui.Prompt{Label: "Discord client secret", Mask: '*'}
		if cfg.OAuth.ClientSecret, err = secretPrompt.Run(); err != nil {
			return nil, fmt.Errorf("client secret: %w", err)
		}
		redirectPrompt := promptui.Prompt{
			Label:   "OAuth redirect URL",
			Default: fmt.Sprintf("http://localhost:%d/login", cfg.Server.Port),
		}
		if cfg.OAuth.RedirectURL, err = redirectPrompt.Run(); err != nil {
			return nil, fmt.Errorf("redirect url: %w", err)
		}
	}

	// 4. Session storage.
	driverPrompt := promptui.Select{
		Label: "Session storage",
		Items: []string{string(DriverSQLite), string(DriverPostgres), string(DriverMemory)},
	}
	_, driver, err := driverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("session driver: %w", err)
	}
	cfg.Session.Driver = SessionDriver(driver)
	if cfg.Session.Driver == DriverPostgres {
		dsnPrompt := promptui.Prompt{Label: "Postgres DSN"}
		if cfg.Session.DSN, err = dsnPrompt.Run(); err != nil {
			return nil, fmt.Errorf("postgres dsn: %w", err)
		}
	}

	// 5. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Session.Secret == "" && os.Getenv(EnvPrefix+"SESSION__SECRET") == "" {
		fmt.Printf("\nNote: set session.secret (or %sSESSION__SECRET) to encrypt stored tokens.\n", EnvPrefix)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
