package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pkweb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize pkweb configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure pkweb and writes the config file (.pkweb.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
