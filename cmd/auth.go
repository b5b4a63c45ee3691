package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pkweb/internal/auth"
	"github.com/ziadkadry99/pkweb/internal/pkapi"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored PluralKit token",
	Long: `Store and manage the PluralKit token used by the CLI and MCP tools.

The token is stored in ~/.pkweb/credentials.json. The PKWEB_TOKEN
environment variable takes precedence when set.`,
}

var authTokenCmd = &cobra.Command{
	Use:   "token [token]",
	Short: "Verify and store a PluralKit token",
	Long: `Stores a PluralKit token after checking it against the API.

Get your token by sending "pk;token" to the PluralKit bot. If no token is
given as an argument you will be prompted for it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthToken,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a PluralKit token is configured",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored PluralKit token",
	RunE:  runAuthLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authTokenCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func runAuthToken(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		prompt := promptui.Prompt{
			Label: "PluralKit token",
			Mask:  '*',
		}
		input, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		token = input
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Print("Verifying token... ")
	sys, err := newAPIClient(cfg).OwnSystem(cmd.Context(), token)
	if err != nil {
		fmt.Println("failed!")
		if pkapi.IsUnauthorized(err) {
			return fmt.Errorf("token was not accepted by PluralKit")
		}
		return fmt.Errorf("token verification failed: %w", err)
	}
	fmt.Println("valid!")

	if err := auth.SaveToken(token, sys.ID); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Printf("Token for system %s stored successfully!\n", sys.ID)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	creds, err := auth.Load()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Println("Credential status:")
	fmt.Println()

	if env := os.Getenv(auth.TokenEnv); env != "" {
		fmt.Printf("pluralkit    configured (env var %s)\n", auth.TokenEnv)
	} else if creds.PluralKit != nil && creds.PluralKit.Token != "" {
		line := "pluralkit    configured (stored"
		if creds.PluralKit.SystemID != "" {
			line += ", system " + creds.PluralKit.SystemID
		}
		fmt.Println(line + ")")
	} else {
		fmt.Println("pluralkit    not configured")
	}

	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	if err := auth.ClearToken(); err != nil {
		return fmt.Errorf("removing credentials: %w", err)
	}
	fmt.Println("Stored PluralKit token removed.")
	return nil
}
