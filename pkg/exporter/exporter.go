// Package exporter runs the export flow around the compositor: the
// entitlement check and paywall, rendering on a background goroutine, handing
// the result to a sink and feeding completed shares to the rating heuristic.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/compositor"
	"github.com/menta2k/blurface/pkg/rating"
	"github.com/menta2k/blurface/pkg/session"
	"github.com/menta2k/blurface/pkg/types"
)

var (
	// ErrExportInProgress is returned when an export is requested while
	// another is still running for the same session.
	ErrExportInProgress = errors.New("exporter: export already in progress")
	// ErrNoImage is returned when the session has no photo.
	ErrNoImage = errors.New("exporter: no image to export")
)

// EntitlementGate reports whether the user may export without the paywall.
type EntitlementGate interface {
	IsEntitled(ctx context.Context) (bool, error)
}

// Paywall is shown when the gate denies an export.
type Paywall interface {
	Present(ctx context.Context) error
}

// Sink receives the finished image. completed reports whether the user went
// through with sharing or saving.
type Sink interface {
	Share(ctx context.Context, img image.Image, density float64) (completed bool, err error)
}

// Prompter shows the rating prompt. rated reports whether the user chose to
// rate.
type Prompter interface {
	Prompt(ctx context.Context, texts rating.Texts) (rated bool, err error)
}

// StaticGate is an EntitlementGate with a fixed answer.
type StaticGate bool

func (g StaticGate) IsEntitled(context.Context) (bool, error) {
	return bool(g), nil
}

// PaywallFunc adapts a function to Paywall.
type PaywallFunc func(ctx context.Context) error

func (f PaywallFunc) Present(ctx context.Context) error {
	return f(ctx)
}

// Outcome is delivered once per started export.
type Outcome struct {
	Result compositor.Result
	Err    error
}

// ShareReport describes what happened after the result was handed to the sink.
type ShareReport struct {
	Completed bool
	// Rating is set when a completed share was recorded.
	Rating *rating.Decision
	// Rated is set when a prompt was shown and the user chose to rate.
	Rated bool
}

// Report is the result of a full Run.
type Report struct {
	// Withheld is set when the gate denied the export and the paywall did
	// not change that.
	Withheld bool
	Result   compositor.Result
	Share    ShareReport
}

// Exporter coordinates exports. It keeps no per-export state; the session's
// exporting flag rejects concurrent exports of one session.
type Exporter struct {
	renderer *compositor.Renderer
	gate     EntitlementGate
	paywall  Paywall
	sink     Sink
	ratings  *rating.Manager
	prompter Prompter
	texts    rating.Texts
}

// New creates an Exporter. A nil renderer selects compositor.New(), a nil gate
// allows every export, and paywall, sink and ratings may be nil.
func New(renderer *compositor.Renderer, gate EntitlementGate, paywall Paywall, sink Sink, ratings *rating.Manager) *Exporter {
	if renderer == nil {
		renderer = compositor.New()
	}
	if gate == nil {
		gate = StaticGate(true)
	}
	return &Exporter{
		renderer: renderer,
		gate:     gate,
		paywall:  paywall,
		sink:     sink,
		ratings:  ratings,
		texts:    rating.DefaultTexts(),
	}
}

// SetPrompter installs the rating prompt shown after a completed share.
func (e *Exporter) SetPrompter(p Prompter, texts rating.Texts) {
	e.prompter = p
	e.texts = texts
}

// Authorize asks the gate. A gate error is logged and treated as entitled so a
// broken subscription backend never blocks export.
func (e *Exporter) Authorize(ctx context.Context) bool {
	ok, err := e.gate.IsEntitled(ctx)
	if err != nil {
		logging.Logger().Warn("entitlement check failed, allowing export", "err", err)
		return true
	}
	return ok
}

// Start renders a snapshot of sess on a new goroutine. container is the
// edit-time container the shapes were sized in. The returned channel yields
// exactly one Outcome and is then closed; the session's exporting flag is
// cleared before the Outcome is sent.
func (e *Exporter) Start(ctx context.Context, sess *session.Session, container types.Size) (<-chan Outcome, error) {
	if !sess.HasImage() {
		return nil, ErrNoImage
	}
	if !sess.BeginExport() {
		return nil, ErrExportInProgress
	}
	snap := sess.Snapshot(container)
	job := compositor.Job{
		Image:         snap.Image,
		Density:       snap.Density,
		Shapes:        snap.Shapes,
		EditContainer: snap.Container,
	}

	logging.Logger().Info("export started", "shapes", len(job.Shapes), "container", container.String())

	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		res, err := e.renderer.Render(ctx, job)
		sess.EndExport()
		out <- Outcome{Result: res, Err: err}
	}()
	return out, nil
}

// Share hands a finished export to the sink. While the sink runs the session's
// share-sheet flag is set. A completed share is recorded with the rating
// manager, and the prompt is shown when one is due.
func (e *Exporter) Share(ctx context.Context, sess *session.Session, outcome Outcome) (ShareReport, error) {
	if outcome.Err != nil {
		return ShareReport{}, outcome.Err
	}
	if e.sink == nil {
		return ShareReport{}, nil
	}

	sess.SetShareSheetVisible(true)
	completed, err := e.sink.Share(ctx, outcome.Result.Image, outcome.Result.Density)
	sess.SetShareSheetVisible(false)
	if err != nil {
		return ShareReport{}, fmt.Errorf("share failed: %w", err)
	}

	report := ShareReport{Completed: completed}
	if !completed || e.ratings == nil {
		return report, nil
	}

	decision, err := e.ratings.RecordExport(ctx)
	if err != nil {
		// rating bookkeeping never fails an export
		logging.Logger().Warn("failed to record export", "err", err)
		return report, nil
	}
	report.Rating = &decision

	if decision.ShouldPrompt && e.prompter != nil {
		report.Rated = e.prompt(ctx)
	}
	return report, nil
}

func (e *Exporter) prompt(ctx context.Context) bool {
	log := logging.Logger()
	if err := e.ratings.PromptShown(ctx); err != nil {
		log.Warn("failed to record rating prompt", "err", err)
	}
	rated, err := e.prompter.Prompt(ctx, e.texts)
	if err != nil {
		log.Warn("rating prompt failed", "err", err)
		return false
	}
	if rated {
		if err := e.ratings.MarkRated(ctx); err != nil {
			log.Warn("failed to record rating", "err", err)
		}
	}
	return rated
}

// Run performs the whole flow: authorize (presenting the paywall and asking
// again on denial), render, wait and share.
func (e *Exporter) Run(ctx context.Context, sess *session.Session, container types.Size) (Report, error) {
	log := logging.Logger()

	if !e.Authorize(ctx) {
		if e.paywall == nil {
			log.Info("export withheld, no paywall configured")
			return Report{Withheld: true}, nil
		}
		if err := e.paywall.Present(ctx); err != nil {
			return Report{}, fmt.Errorf("paywall: %w", err)
		}
		if !e.Authorize(ctx) {
			log.Info("export withheld after paywall")
			return Report{Withheld: true}, nil
		}
	}

	ch, err := e.Start(ctx, sess, container)
	if err != nil {
		return Report{}, err
	}

	var outcome Outcome
	select {
	case outcome = <-ch:
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
	if outcome.Err != nil {
		return Report{}, fmt.Errorf("render failed: %w", outcome.Err)
	}
	if outcome.Result.Fallback {
		log.Warn("exporting unblurred image after blur failure")
	}

	share, err := e.Share(ctx, sess, outcome)
	if err != nil {
		return Report{Result: outcome.Result}, err
	}
	log.Info("export finished",
		"completed", share.Completed,
		"fallback", outcome.Result.Fallback,
		"downscaled", outcome.Result.Downscaled)
	return Report{Result: outcome.Result, Share: share}, nil
}
