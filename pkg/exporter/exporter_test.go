package exporter

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/menta2k/blurface/pkg/blur"
	"github.com/menta2k/blurface/pkg/compositor"
	"github.com/menta2k/blurface/pkg/processing"
	"github.com/menta2k/blurface/pkg/rating"
	"github.com/menta2k/blurface/pkg/session"
	"github.com/menta2k/blurface/pkg/store"
	"github.com/menta2k/blurface/pkg/types"
)

var container = types.Size{Width: 100, Height: 100}

func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	return img
}

// grayBlur replaces every pixel with mid gray.
func grayBlur(_ context.Context, img image.Image, _ float64) (image.Image, error) {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = 128, 128, 128, 255
	}
	return out, nil
}

func newRenderer(f blur.Func) *compositor.Renderer {
	return compositor.NewWithConfig(compositor.DefaultConfig(), f)
}

func editedSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New()
	if err := s.LoadImage(createTestImage(100, 100), 2); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if _, err := s.AddShape(); err != nil {
		t.Fatalf("AddShape failed: %v", err)
	}
	return s
}

type recordingSink struct {
	completed  bool
	err        error
	calls      int
	img        image.Image
	density    float64
	sheetShown bool
	sess       *session.Session
}

func (r *recordingSink) Share(_ context.Context, img image.Image, density float64) (bool, error) {
	r.calls++
	r.img = img
	r.density = density
	if r.sess != nil {
		r.sheetShown = r.sess.ShareSheetVisible()
	}
	return r.completed, r.err
}

type gateFunc func() (bool, error)

func (g gateFunc) IsEntitled(context.Context) (bool, error) { return g() }

type promptFunc func(rating.Texts) (bool, error)

func (p promptFunc) Prompt(_ context.Context, texts rating.Texts) (bool, error) { return p(texts) }

func TestStartWithoutImage(t *testing.T) {
	e := New(nil, nil, nil, nil, nil)
	if _, err := e.Start(context.Background(), session.New(), container); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
}

func TestStartRejectsReentrantExport(t *testing.T) {
	release := make(chan struct{})
	blocking := func(ctx context.Context, img image.Image, r float64) (image.Image, error) {
		<-release
		return grayBlur(ctx, img, r)
	}
	e := New(newRenderer(blocking), nil, nil, nil, nil)
	sess := editedSession(t)
	ctx := context.Background()

	ch, err := e.Start(ctx, sess, container)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !sess.IsExporting() {
		t.Error("Expected session to be exporting")
	}
	if _, err := e.Start(ctx, sess, container); !errors.Is(err, ErrExportInProgress) {
		t.Errorf("Expected ErrExportInProgress, got %v", err)
	}

	close(release)
	select {
	case outcome := <-ch:
		if outcome.Err != nil {
			t.Fatalf("Render failed: %v", outcome.Err)
		}
		if outcome.Result.Density != 2 {
			t.Errorf("Expected density 2, got %v", outcome.Result.Density)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for export")
	}
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after the outcome")
	}
	if sess.IsExporting() {
		t.Error("Expected exporting flag to be cleared")
	}
}

func TestSnapshotIgnoresLaterEdits(t *testing.T) {
	release := make(chan struct{})
	blocking := func(ctx context.Context, img image.Image, r float64) (image.Image, error) {
		<-release
		return grayBlur(ctx, img, r)
	}
	e := New(newRenderer(blocking), nil, nil, nil, nil)
	sess := editedSession(t)

	ch, err := e.Start(context.Background(), sess, container)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	sess.AddShape()
	sess.AddShape()
	close(release)

	outcome := <-ch
	if len(outcome.Result.Ellipses) != 1 {
		t.Errorf("Expected 1 ellipse from the snapshot, got %d", len(outcome.Result.Ellipses))
	}
}

func TestRunEntitled(t *testing.T) {
	sess := editedSession(t)
	sink := &recordingSink{completed: true, sess: sess}
	ratings := rating.New(store.NewMemory())
	e := New(newRenderer(grayBlur), StaticGate(true), nil, sink, ratings)

	var promptTitle string
	e.SetPrompter(promptFunc(func(texts rating.Texts) (bool, error) {
		promptTitle = texts.Title
		return true, nil
	}), rating.DefaultTexts())

	report, err := e.Run(context.Background(), sess, container)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Withheld {
		t.Fatal("Expected export not to be withheld")
	}
	if sink.calls != 1 || sink.density != 2 {
		t.Errorf("Expected one share with density 2, got %d calls density %v", sink.calls, sink.density)
	}
	if !sink.sheetShown {
		t.Error("Expected share sheet to be visible while sharing")
	}
	if sess.ShareSheetVisible() {
		t.Error("Expected share sheet hidden after sharing")
	}

	// centre pixel is inside the default shape and shows the blurred copy
	got := color.NRGBAModel.Convert(sink.img.At(50, 50)).(color.NRGBA)
	if got != (color.NRGBA{128, 128, 128, 255}) {
		t.Errorf("Expected blurred centre, got %v", got)
	}

	if report.Share.Rating == nil || !report.Share.Rating.ShouldPrompt {
		t.Fatal("Expected first completed export to prompt")
	}
	if promptTitle != rating.DefaultTexts().Title {
		t.Errorf("Expected prompt with default texts, got %q", promptTitle)
	}
	if !report.Share.Rated {
		t.Error("Expected rated to be reported")
	}
	state, _ := ratings.State(context.Background())
	if !state.HasRated || !state.HasBeenAsked || state.ExportCount != 1 {
		t.Errorf("Unexpected rating state %+v", state)
	}
}

func TestRunWithheldWithoutPaywall(t *testing.T) {
	sess := editedSession(t)
	sink := &recordingSink{completed: true}
	e := New(newRenderer(grayBlur), StaticGate(false), nil, sink, nil)

	report, err := e.Run(context.Background(), sess, container)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Withheld || sink.calls != 0 {
		t.Errorf("Expected withheld export, got %+v with %d shares", report, sink.calls)
	}
	if sess.IsExporting() {
		t.Error("Expected no export to start")
	}
}

func TestRunPaywall(t *testing.T) {
	tests := []struct {
		name      string
		purchases bool
		withheld  bool
	}{
		{"purchase unlocks export", true, false},
		{"dismissed paywall withholds export", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entitled := false
			presented := 0
			paywall := PaywallFunc(func(context.Context) error {
				presented++
				entitled = tt.purchases
				return nil
			})
			gate := gateFunc(func() (bool, error) { return entitled, nil })
			sink := &recordingSink{completed: true}
			e := New(newRenderer(grayBlur), gate, paywall, sink, nil)

			report, err := e.Run(context.Background(), editedSession(t), container)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if presented != 1 {
				t.Errorf("Expected paywall presented once, got %d", presented)
			}
			if report.Withheld != tt.withheld {
				t.Errorf("Expected withheld=%v, got %v", tt.withheld, report.Withheld)
			}
			wantCalls := 1
			if tt.withheld {
				wantCalls = 0
			}
			if sink.calls != wantCalls {
				t.Errorf("Expected %d shares, got %d", wantCalls, sink.calls)
			}
		})
	}
}

func TestPaywallError(t *testing.T) {
	paywall := PaywallFunc(func(context.Context) error { return errors.New("store unavailable") })
	e := New(newRenderer(grayBlur), StaticGate(false), paywall, nil, nil)
	if _, err := e.Run(context.Background(), editedSession(t), container); err == nil {
		t.Error("Expected paywall error")
	}
}

func TestGateErrorAllowsExport(t *testing.T) {
	gate := gateFunc(func() (bool, error) { return false, errors.New("offline") })
	e := New(nil, gate, nil, nil, nil)
	if !e.Authorize(context.Background()) {
		t.Error("Expected gate error to be treated as entitled")
	}
}

func TestIncompleteShareNotRecorded(t *testing.T) {
	ratings := rating.New(store.NewMemory())
	sink := &recordingSink{completed: false}
	e := New(newRenderer(grayBlur), nil, nil, sink, ratings)

	report, err := e.Run(context.Background(), editedSession(t), container)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Share.Completed || report.Share.Rating != nil {
		t.Errorf("Expected cancelled share not to be recorded, got %+v", report.Share)
	}
	if n, _ := ratings.ExportCount(context.Background()); n != 0 {
		t.Errorf("Expected export count 0, got %d", n)
	}
}

func TestSinkError(t *testing.T) {
	sess := editedSession(t)
	sink := &recordingSink{err: errors.New("disk full")}
	e := New(newRenderer(grayBlur), nil, nil, sink, nil)

	if _, err := e.Run(context.Background(), sess, container); err == nil {
		t.Error("Expected sink error")
	}
	if sess.ShareSheetVisible() {
		t.Error("Expected share sheet hidden after a failed share")
	}
}

func TestBlurFailureStillShares(t *testing.T) {
	failing := func(context.Context, image.Image, float64) (image.Image, error) {
		return nil, errors.New("unsupported")
	}
	sess := editedSession(t)
	sink := &recordingSink{completed: true}
	e := New(newRenderer(failing), nil, nil, sink, nil)

	report, err := e.Run(context.Background(), sess, container)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Result.Fallback {
		t.Error("Expected fallback result")
	}
	if sink.img != sess.Image() {
		t.Error("Expected the sharp original to be shared")
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "photo_blurred.png")
	sink := &FileSink{Processor: processing.NewProcessor(), Path: path}
	e := New(newRenderer(grayBlur), nil, nil, sink, nil)

	report, err := e.Run(context.Background(), editedSession(t), container)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Share.Completed || sink.Written != path {
		t.Errorf("Expected file written to %s, got %+v / %q", path, report.Share, sink.Written)
	}

	img, err := processing.NewProcessor().LoadImage(path)
	if err != nil {
		t.Fatalf("Failed to read export back: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Errorf("Expected 100x100 export, got %v", img.Bounds().Size())
	}
}
