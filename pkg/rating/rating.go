// Package rating decides when to ask the user to rate the app, based on
// counters kept in an injected store.
//
// The first completed export prompts once. After that a prompt is due every
// Interval exports counted from the last prompt, until the user has rated.
package rating

import (
	"context"
	"fmt"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/store"
)

// Store keys.
const (
	KeyExportCount      = "exportCount"
	KeyLastRequestCount = "lastRatingRequestExportCount"
	KeyHasBeenAsked     = "hasBeenAskedForRating"
	KeyHasRated         = "hasRatedApp"
)

// DefaultInterval is the number of exports between prompts.
const DefaultInterval = 3

// Texts are the strings of the satisfaction prompt.
type Texts struct {
	Title   string
	Message string
	Yes     string
	No      string
}

// DefaultTexts returns the English prompt.
func DefaultTexts() Texts {
	return Texts{
		Title:   "Are you enjoying the app?",
		Message: "Help us make it better!",
		Yes:     "Yes",
		No:      "No",
	}
}

// State is a snapshot of the stored counters.
type State struct {
	ExportCount      int  `json:"export_count" yaml:"export_count"`
	LastRequestCount int  `json:"last_request_count" yaml:"last_request_count"`
	HasBeenAsked     bool `json:"has_been_asked" yaml:"has_been_asked"`
	HasRated         bool `json:"has_rated" yaml:"has_rated"`
}

// Decision is the result of recording an export.
type Decision struct {
	ExportCount  int
	ShouldPrompt bool
}

// Manager applies the prompt heuristic.
type Manager struct {
	store    store.Store
	interval int
}

// New creates a Manager with the default interval.
func New(s store.Store) *Manager {
	return NewWithInterval(s, DefaultInterval)
}

// NewWithInterval creates a Manager with a custom interval. Values below 1
// select DefaultInterval.
func NewWithInterval(s store.Store, interval int) *Manager {
	if interval < 1 {
		interval = DefaultInterval
	}
	return &Manager{store: s, interval: interval}
}

// Interval returns the number of exports between prompts.
func (m *Manager) Interval() int {
	return m.interval
}

// RecordExport counts a completed export and reports whether a prompt is due.
func (m *Manager) RecordExport(ctx context.Context) (Decision, error) {
	count, err := store.GetInt(ctx, m.store, KeyExportCount)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read export count: %w", err)
	}
	count++
	if err := store.SetInt(ctx, m.store, KeyExportCount, count); err != nil {
		return Decision{}, fmt.Errorf("failed to store export count: %w", err)
	}

	state, err := m.State(ctx)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{ExportCount: count, ShouldPrompt: m.due(state)}

	logging.Logger().Debug("export recorded",
		"count", state.ExportCount,
		"rated", state.HasRated,
		"asked", state.HasBeenAsked,
		"last_request", state.LastRequestCount,
		"prompt", d.ShouldPrompt)
	return d, nil
}

func (m *Manager) due(s State) bool {
	if s.HasRated {
		return false
	}
	if s.ExportCount == 1 && !s.HasBeenAsked {
		return true
	}
	return s.ExportCount-s.LastRequestCount >= m.interval
}

// PromptShown records that the prompt was displayed at the current count.
func (m *Manager) PromptShown(ctx context.Context) error {
	count, err := store.GetInt(ctx, m.store, KeyExportCount)
	if err != nil {
		return err
	}
	if err := store.SetInt(ctx, m.store, KeyLastRequestCount, count); err != nil {
		return err
	}
	return store.SetBool(ctx, m.store, KeyHasBeenAsked, true)
}

// MarkRated records that the user went on to rate. No further prompts are due.
func (m *Manager) MarkRated(ctx context.Context) error {
	return store.SetBool(ctx, m.store, KeyHasRated, true)
}

// Reset removes every counter.
func (m *Manager) Reset(ctx context.Context) error {
	return m.store.Delete(ctx, KeyExportCount, KeyLastRequestCount, KeyHasBeenAsked, KeyHasRated)
}

// ExportCount returns the number of recorded exports.
func (m *Manager) ExportCount(ctx context.Context) (int, error) {
	return store.GetInt(ctx, m.store, KeyExportCount)
}

// State reads all counters.
func (m *Manager) State(ctx context.Context) (State, error) {
	var (
		s   State
		err error
	)
	if s.ExportCount, err = store.GetInt(ctx, m.store, KeyExportCount); err != nil {
		return State{}, err
	}
	if s.LastRequestCount, err = store.GetInt(ctx, m.store, KeyLastRequestCount); err != nil {
		return State{}, err
	}
	if s.HasBeenAsked, err = store.GetBool(ctx, m.store, KeyHasBeenAsked); err != nil {
		return State{}, err
	}
	if s.HasRated, err = store.GetBool(ctx, m.store, KeyHasRated); err != nil {
		return State{}, err
	}
	return s, nil
}
