package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/blurface"
	"github.com/menta2k/blurface/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool

	cfg *config.Config
}

// NewRootCmd builds the blurface command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "blurface",
		Short: "Blur elliptical regions of photos",
		Long: `blurface places elliptical blur regions on a photo and exports the result.

Edits are described by project documents (YAML or JSON) holding the photo, the
container the shapes were sized in and the shapes themselves. The map and
resize commands expose the editor's coordinate transforms for inspection.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			blurface.SetLogger(logger)

			path := opts.configPath
			if path == "" {
				path = config.GetConfigPath()
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.GetConfigPath()+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newExportCmd(opts),
		newInfoCmd(opts),
		newMapCmd(),
		newResizeCmd(),
		newConfigCmd(opts),
		newRatingCmd(opts),
	)

	return cmd
}
