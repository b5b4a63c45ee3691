package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/auth"
	mcpserver "github.com/ziadkadry99/pkweb/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing PluralKit system lookups as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		logger.Info("pkweb MCP server started on stdio",
			zap.String("api", cfg.API.Root),
			zap.Bool("token", auth.GetToken() != ""),
		)

		srv := mcpserver.NewServer(newAPIClient(cfg), cfg.API.MemberStrategy, auth.GetToken)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
