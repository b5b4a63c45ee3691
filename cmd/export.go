package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pkweb/internal/export"
	"github.com/ziadkadry99/pkweb/internal/progress"
	"github.com/ziadkadry99/pkweb/internal/view"
	"github.com/ziadkadry99/pkweb/internal/web"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <system-id>...",
	Short: "Export system profiles as a static site",
	Long:  `Fetches each system and its members and writes fully rendered HTML pages, a 404 page and the stylesheet to the output directory.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		outDir := cfg.Export.OutputDir
		if cmd.Flags().Changed("output") {
			outDir = exportOutput
		}

		render, err := web.NewRenderer()
		if err != nil {
			return err
		}

		gen := &export.Generator{
			Loader:        view.NewLoader(newAPIClient(cfg), cfg.API.MemberStrategy, logger),
			Renderer:      render,
			OutputDir:     outDir,
			NotFoundDelay: cfg.Server.NotFoundDelay,
			Reporter:      progress.NewReporter(),
			Logger:        logger,
		}

		n, err := gen.Generate(cmd.Context(), args)
		fmt.Fprintf(os.Stderr, "Wrote %d of %d system page(s) to %s\n", n, len(args), outDir)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output directory (overrides export.output_dir)")
	rootCmd.AddCommand(exportCmd)
}
