// Package blurface is the editing and export core of an elliptical-blur photo
// editor.
//
// A photo is loaded into an editing session, elliptical shapes are placed on
// it in normalized image coordinates and sized in display units, and the
// export composites a Gaussian-blurred copy of the photo inside every shape.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/blurface"
//		"github.com/menta2k/blurface/pkg/types"
//	)
//
//	func main() {
//		ctx := context.Background()
//		editor := blurface.New()
//
//		if err := editor.LoadImage(ctx, "photo.jpg"); err != nil {
//			log.Fatal(err)
//		}
//
//		// shapes are sized in the container the photo is shown in
//		container := types.Size{Width: 390, Height: 844}
//		shape, _ := editor.Session().AddShape()
//		editor.Session().SetShapeSize(shape.ID, 160, 120)
//
//		result, err := editor.Render(ctx, container)
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := editor.SaveImage(result.Image, "photo_blurred.jpg"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
// 1. Viewport (pkg/viewport): pure transforms between normalized, display and pixel space
// 2. Session (pkg/session): shapes, selection, zoom and pan of one edit
// 3. Compositor (pkg/compositor): downscale, blur and elliptical compositing
// 4. Exporter (pkg/exporter): entitlement gate, background render, sink and rating hook
//
// Blur backends (pkg/blur) are interchangeable; imaging, gift and bild are built in.
package blurface

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/blur"
	"github.com/menta2k/blurface/pkg/compositor"
	"github.com/menta2k/blurface/pkg/exporter"
	"github.com/menta2k/blurface/pkg/processing"
	"github.com/menta2k/blurface/pkg/rating"
	"github.com/menta2k/blurface/pkg/session"
	"github.com/menta2k/blurface/pkg/types"
)

// Version of the blurface library
const Version = "0.1.0"

// SetLogger routes library logging to l. Passing nil silences it again.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Options configures an Editor. Zero values select defaults.
type Options struct {
	Session    session.Config
	Render     compositor.Config
	Processing processing.Config
	// Blur is the blur backend; nil selects imaging.
	Blur blur.Blurrer

	Gate    exporter.EntitlementGate
	Paywall exporter.Paywall
	Sink    exporter.Sink
	Ratings *rating.Manager
}

// DefaultOptions returns the default editor options.
func DefaultOptions() Options {
	return Options{
		Session:    session.DefaultConfig(),
		Render:     compositor.DefaultConfig(),
		Processing: processing.DefaultConfig(),
	}
}

// Editor ties an editing session to image I/O, rendering and export.
type Editor struct {
	session   *session.Session
	processor *processing.Processor
	renderer  *compositor.Renderer
	exporter  *exporter.Exporter
}

// New creates an Editor with default configuration
func New() *Editor {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates an Editor with custom configuration
func NewWithOptions(opts Options) *Editor {
	if opts.Session == (session.Config{}) {
		opts.Session = session.DefaultConfig()
	}
	if opts.Render == (compositor.Config{}) {
		opts.Render = compositor.DefaultConfig()
	}
	if len(opts.Processing.SupportedFormats) == 0 {
		opts.Processing = processing.DefaultConfig()
	}
	renderer := compositor.NewWithConfig(opts.Render, opts.Blur)
	return &Editor{
		session:   session.NewWithConfig(opts.Session),
		processor: processing.NewProcessorWithConfig(opts.Processing),
		renderer:  renderer,
		exporter:  exporter.New(renderer, opts.Gate, opts.Paywall, opts.Sink, opts.Ratings),
	}
}

// Session returns the editing session.
func (e *Editor) Session() *session.Session {
	return e.session
}

// Processor returns the image I/O helper.
func (e *Editor) Processor() *processing.Processor {
	return e.processor
}

// Exporter returns the export coordinator.
func (e *Editor) Exporter() *exporter.Exporter {
	return e.exporter
}

// LoadImage loads a photo from a file path or URL into the session at
// density 1. On failure the session is left as it was.
func (e *Editor) LoadImage(ctx context.Context, source string) error {
	return e.LoadImageWithDensity(ctx, source, 1)
}

// LoadImageWithDensity is LoadImage with an explicit points-to-pixels factor.
func (e *Editor) LoadImageWithDensity(ctx context.Context, source string, density float64) error {
	img, err := e.processor.LoadImageSmart(ctx, source)
	if err != nil {
		logging.Logger().Warn("image load failed", "source", source, "err", err)
		return err
	}
	if err := e.processor.ValidateImage(img); err != nil {
		return err
	}
	return e.session.LoadImage(img, density)
}

// Render composites the current session synchronously, bypassing the
// entitlement gate and sink. container is the edit-time container.
func (e *Editor) Render(ctx context.Context, container types.Size) (compositor.Result, error) {
	if !e.session.HasImage() {
		return compositor.Result{}, session.ErrNoImage
	}
	snap := e.session.Snapshot(container)
	return e.renderer.Render(ctx, compositor.Job{
		Image:         snap.Image,
		Density:       snap.Density,
		Shapes:        snap.Shapes,
		EditContainer: snap.Container,
	})
}

// Export runs the full export flow for the current session.
func (e *Editor) Export(ctx context.Context, container types.Size) (exporter.Report, error) {
	return e.exporter.Run(ctx, e.session, container)
}

// PixelEllipses returns where the current shapes land on the photo.
func (e *Editor) PixelEllipses(container types.Size) []types.Ellipse {
	return compositor.PixelEllipses(e.session.Shapes(), e.session.ImageSize(), container)
}

// DebugOverlay draws the current shapes' ellipses over the photo.
func (e *Editor) DebugOverlay(container types.Size) (image.Image, error) {
	if !e.session.HasImage() {
		return nil, session.ErrNoImage
	}
	return e.processor.CreateDebugOverlay(e.session.Image(), e.PixelEllipses(container)), nil
}

// SaveImage saves an image, choosing the format from the file extension.
func (e *Editor) SaveImage(img image.Image, path string) error {
	if err := e.processor.SaveImage(img, path, "", 0, false); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
