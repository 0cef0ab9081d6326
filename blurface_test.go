package blurface

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/menta2k/blurface/pkg/exporter"
	"github.com/menta2k/blurface/pkg/session"
	"github.com/menta2k/blurface/pkg/types"
)

// createTestImage creates a checkerboard so blurring visibly changes pixels
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/4+y/4)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return img
}

func writeTestImage(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := New().SaveImage(img, path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	editor := New()
	if editor == nil {
		t.Fatal("New() returned nil")
	}
	if editor.Session() == nil || editor.Processor() == nil || editor.Exporter() == nil {
		t.Error("Expected all components to be initialized")
	}
	if editor.Session().Config().DefaultShapeWidth != 100 {
		t.Error("Expected default session config")
	}
}

func TestNewWithZeroOptions(t *testing.T) {
	editor := NewWithOptions(Options{})
	if editor.Session().Config() != session.DefaultConfig() {
		t.Errorf("Expected zero options to select defaults, got %+v", editor.Session().Config())
	}
}

func TestLoadImage(t *testing.T) {
	path := writeTestImage(t, "photo.png", createTestImage(80, 40))
	editor := New()

	if err := editor.LoadImage(context.Background(), path); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if editor.Session().ImageSize() != (types.Size{Width: 80, Height: 40}) {
		t.Errorf("Unexpected image size %v", editor.Session().ImageSize())
	}

	if err := editor.LoadImage(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
	if !editor.Session().HasImage() {
		t.Error("Expected failed load to keep the previous image")
	}
}

func TestRenderWithoutImage(t *testing.T) {
	if _, err := New().Render(context.Background(), types.Size{Width: 10, Height: 10}); !errors.Is(err, session.ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
}

func TestRender(t *testing.T) {
	opts := DefaultOptions()
	opts.Render.BlurRadius = 3
	editor := NewWithOptions(opts)
	img := createTestImage(100, 100)
	editor.Session().LoadImage(img, 2)

	container := types.Size{Width: 100, Height: 100}
	result, err := editor.Render(context.Background(), container)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Image != img {
		t.Error("Expected identity result without shapes")
	}

	shape, _ := editor.Session().AddShape()
	editor.Session().SetShapeSize(shape.ID, 40, 40)
	result, err = editor.Render(context.Background(), container)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if result.Density != 2 || len(result.Ellipses) != 1 {
		t.Errorf("Unexpected result density %v ellipses %d", result.Density, len(result.Ellipses))
	}

	inside := color.NRGBAModel.Convert(result.Image.At(50, 50)).(color.NRGBA)
	if inside.R == 0 || inside.R == 255 {
		t.Errorf("Expected blurred pixel inside the shape, got %v", inside)
	}
	outside := color.NRGBAModel.Convert(result.Image.At(2, 2)).(color.NRGBA)
	if outside != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("Expected sharp pixel outside the shape, got %v", outside)
	}
}

func TestExportToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "photo_blurred.png")
	sink := &exporter.FileSink{Path: out}
	opts := DefaultOptions()
	opts.Sink = sink
	editor := NewWithOptions(opts)

	editor.Session().LoadImage(createTestImage(64, 64), 1)
	editor.Session().AddShape()

	report, err := editor.Export(context.Background(), types.Size{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !report.Share.Completed || sink.Written != out {
		t.Errorf("Expected export written to %s, got %+v", out, report)
	}
}

func TestDebugOverlay(t *testing.T) {
	editor := New()
	if _, err := editor.DebugOverlay(types.Size{}); err == nil {
		t.Error("Expected error without image")
	}
	editor.Session().LoadImage(createTestImage(50, 50), 1)
	editor.Session().AddShape()

	overlay, err := editor.DebugOverlay(types.Size{Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("DebugOverlay failed: %v", err)
	}
	if overlay.Bounds().Dx() != 50 {
		t.Errorf("Expected overlay of the photo size, got %v", overlay.Bounds())
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	editor := New()
	editor.Session().LoadImage(createTestImage(10, 10), 1)
	if !strings.Contains(buf.String(), "image loaded") {
		t.Errorf("Expected library log output, got %q", buf.String())
	}
}
