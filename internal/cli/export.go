package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/blurface"
	"github.com/menta2k/blurface/internal/config"
	"github.com/menta2k/blurface/internal/utils"
	"github.com/menta2k/blurface/pkg/blur"
	"github.com/menta2k/blurface/pkg/exporter"
	"github.com/menta2k/blurface/pkg/project"
	"github.com/menta2k/blurface/pkg/rating"
	"github.com/menta2k/blurface/pkg/store"
	"github.com/menta2k/blurface/pkg/types"
)

type exportOptions struct {
	project   string
	in        string
	outDir    string
	ext       string
	quality   int
	lossless  bool
	debug     bool
	pro       bool
	container string
	backend   string
	radius    float64
	antiAlias bool
}

func newExportCmd(root *rootOptions) *cobra.Command {
	o := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a project to an image file",
		Long: `Loads the photo named by a project document, places its shapes and
writes the blurred export.

Without --pro the export goes through the paywall path and is withheld.`,
		Example: `  # Export with the settings from the config file
  blurface export --project edits.yaml

  # Override the photo and write WebP into ./out
  blurface export --project edits.yaml --in photo.jpg --out out --ext webp

  # Draw the placed ellipses for debugging
  blurface export --project edits.yaml --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), root.cfg, o, cmd.Flags().Changed("anti-alias"))
		},
	}

	cmd.Flags().StringVarP(&o.project, "project", "p", "", "project document (yaml or json)")
	cmd.Flags().StringVarP(&o.in, "in", "i", "", "input image path or URL, overrides the project's image")
	cmd.Flags().StringVarP(&o.outDir, "out", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&o.ext, "ext", "", "output format: jpg|png|webp (default from config)")
	cmd.Flags().IntVar(&o.quality, "quality", 0, "JPEG/WebP quality 1-100 (default from config)")
	cmd.Flags().BoolVar(&o.lossless, "lossless", false, "WebP lossless mode")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "also write a debug overlay of the placed ellipses")
	cmd.Flags().BoolVar(&o.pro, "pro", true, "treat the user as entitled to export")
	cmd.Flags().StringVar(&o.container, "container", "", "edit container WxH, overrides the project's")
	cmd.Flags().StringVar(&o.backend, "backend", "", "blur backend: "+fmt.Sprint(blur.Backends()))
	cmd.Flags().Float64Var(&o.radius, "radius", 0, "blur radius (default from config)")
	cmd.Flags().BoolVar(&o.antiAlias, "anti-alias", false, "smooth ellipse edges")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runExport(ctx context.Context, w io.Writer, cfg *config.Config, o *exportOptions, antiAliasSet bool) error {
	doc, err := project.Load(o.project)
	if err != nil {
		return err
	}
	source := doc.Image
	if o.in != "" {
		source = o.in
	}
	if source == "" {
		return fmt.Errorf("no input image: set image in the project or pass --in")
	}
	if !isURL(source) && !utils.IsImageFile(source) {
		return fmt.Errorf("unsupported input %s: expected jpg, png or webp", source)
	}
	container := doc.Container
	if o.container != "" {
		if container, err = types.ParseSize(o.container); err != nil {
			return err
		}
	}
	if container.IsZero() {
		slog.Warn("project has no edit container, shapes are placed against the legacy reference display")
	}

	if o.backend != "" {
		cfg.Render.BlurBackend = o.backend
	}
	if o.radius > 0 {
		cfg.Render.BlurRadius = o.radius
	}
	if antiAliasSet {
		cfg.Render.AntiAlias = o.antiAlias
	}
	format := cfg.Output.DefaultFormat
	if o.ext != "" {
		format = o.ext
	}
	quality := cfg.Output.Quality
	if o.quality > 0 {
		quality = o.quality
	}
	outDir := cfg.Output.OutputDir
	if o.outDir != "" {
		outDir = o.outDir
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return err
	}

	blurrer, err := blur.New(cfg.Render.BlurBackend)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		defer c.Close()
	}
	ratings := rating.NewWithInterval(st, cfg.Rating.Interval)

	outPath := utils.GenerateOutputFilename(source, outDir, cfg.Output.Prefix, cfg.Output.Suffix, format)
	sink := &exporter.FileSink{
		Path:     outPath,
		Format:   format,
		Quality:  quality,
		Lossless: o.lossless || cfg.Output.Lossless,
	}
	paywall := exporter.PaywallFunc(func(context.Context) error {
		fmt.Fprintln(w, "export requires a subscription")
		return nil
	})

	editor := blurface.NewWithOptions(blurface.Options{
		Session:    cfg.SessionConfig(),
		Render:     cfg.CompositorConfig(),
		Processing: cfg.ProcessingConfig(),
		Blur:       blurrer,
		Gate:       exporter.StaticGate(o.pro),
		Paywall:    paywall,
		Sink:       sink,
		Ratings:    ratings,
	})
	sink.Processor = editor.Processor()
	editor.Exporter().SetPrompter(&textPrompter{w: w}, rating.DefaultTexts())

	density := doc.Density
	if density <= 0 {
		density = 1
	}
	if err := editor.LoadImageWithDensity(ctx, source, density); err != nil {
		return err
	}
	if err := doc.Apply(editor.Session()); err != nil {
		return err
	}
	slog.Info("loaded project", "project", o.project, "image", source, "shapes", editor.Session().ShapeCount())

	report, err := editor.Export(ctx, container)
	if err != nil {
		return err
	}
	if report.Withheld {
		return fmt.Errorf("export withheld: not entitled")
	}

	if info, err := os.Stat(sink.Written); err == nil {
		fmt.Fprintf(w, "wrote %s (%s)\n", sink.Written, utils.FormatFileSize(info.Size()))
	}
	if report.Result.Fallback {
		fmt.Fprintln(w, "warning: blur failed, the exported image is not blurred")
	}

	if o.debug || cfg.Output.DebugOverlay {
		overlay, err := editor.DebugOverlay(container)
		if err != nil {
			return err
		}
		base := filepath.Base(outPath)
		dbgPath := filepath.Join(outDir, "debug_"+base[:len(base)-len(filepath.Ext(base))]+".png")
		if err := editor.Processor().SaveImage(overlay, dbgPath, "png", 0, false); err != nil {
			slog.Error("debug overlay save failed", "err", err)
		} else {
			fmt.Fprintf(w, "wrote %s\n", dbgPath)
		}
	}
	return nil
}

// textPrompter prints the rating prompt. The CLI never blocks on an answer.
type textPrompter struct {
	w io.Writer
}

func (p *textPrompter) Prompt(_ context.Context, texts rating.Texts) (bool, error) {
	_, err := fmt.Fprintf(p.w, "%s %s\n", texts.Title, texts.Message)
	return false, err
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Rating.Store {
	case config.StoreMemory:
		return store.NewMemory(), nil
	case config.StoreRedis:
		return store.NewRedis(ctx, cfg.Rating.RedisAddr, cfg.Rating.RedisPrefix)
	default:
		return store.OpenFile(cfg.Rating.StorePath)
	}
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
