package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/blurface/internal/config"
	"github.com/menta2k/blurface/internal/utils"
	"github.com/menta2k/blurface/pkg/processing"
	"github.com/menta2k/blurface/pkg/rating"
)

func newInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <image>",
		Short: "Print the size of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := processing.NewProcessorWithConfig(root.cfg.ProcessingConfig())
			img, err := p.LoadImageSmart(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			js, err := json.MarshalIndent(p.GetImageInfo(img), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(js))
			return nil
		},
	}
}

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := root.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.GetConfigPath()
			}
			if utils.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().SaveToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeYAML(cmd.OutOrStdout(), root.cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newRatingCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rating",
		Short: "Inspect the rating prompt counters",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the stored counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			if c, ok := st.(io.Closer); ok {
				defer c.Close()
			}
			state, err := rating.NewWithInterval(st, root.cfg.Rating.Interval).State(cmd.Context())
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), state)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored counters so the next export prompts again",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			if c, ok := st.(io.Closer); ok {
				defer c.Close()
			}
			if err := rating.New(st).Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "rating counters cleared")
			return nil
		},
	}

	cmd.AddCommand(statusCmd, resetCmd)
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
