// Package session holds the state of one editing session: the loaded photo,
// the ordered blur shapes, the selection and the zoom/pan of the editor.
//
// A Session is mutated from a single goroutine (the interactive one). The only
// field touched from elsewhere is the exporting flag, which is atomic so a
// background export can clear it when it finishes.
package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync/atomic"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/types"
	"github.com/menta2k/blurface/pkg/viewport"
)

var (
	// ErrNoImage is returned by operations that need a loaded photo.
	ErrNoImage = errors.New("session: no image loaded")
	// ErrShapeNotFound is returned for an id that is not in the shape list.
	ErrShapeNotFound = errors.New("session: shape not found")
	// ErrDegenerateGeometry is returned when a transform cannot be computed
	// (zero-area image or container, invalid scale). Geometry is left unchanged.
	ErrDegenerateGeometry = errors.New("session: degenerate geometry")
)

// Config holds editor defaults.
type Config struct {
	// MinShapeSize floors shape width and height after creation or resize.
	MinShapeSize float64
	// DefaultShapeWidth and DefaultShapeHeight size newly added shapes.
	DefaultShapeWidth  float64
	DefaultShapeHeight float64
}

// DefaultConfig returns the canonical editor defaults.
func DefaultConfig() Config {
	return Config{
		MinShapeSize:       viewport.DefaultMinShapeSize,
		DefaultShapeWidth:  100,
		DefaultShapeHeight: 50,
	}
}

// Decoder turns encoded bytes into an image.
type Decoder func(r io.Reader) (image.Image, error)

// Session is one editing session.
type Session struct {
	config Config

	image   image.Image
	density float64

	shapes   []types.Shape
	selected *types.ShapeID

	scale  float64
	offset types.Point

	exporting  atomic.Bool
	shareShown bool

	observer func(Change)
}

// New creates an empty session with the default configuration.
func New() *Session {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an empty session with custom configuration.
func NewWithConfig(config Config) *Session {
	if config.MinShapeSize <= 0 {
		config.MinShapeSize = viewport.DefaultMinShapeSize
	}
	if config.DefaultShapeWidth < config.MinShapeSize {
		config.DefaultShapeWidth = config.MinShapeSize
	}
	if config.DefaultShapeHeight < config.MinShapeSize {
		config.DefaultShapeHeight = config.MinShapeSize
	}
	return &Session{config: config, scale: 1, density: 1}
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.config
}

// LoadImage replaces the photo. Zoom and pan are reset and every shape and
// the selection are discarded. A density <= 0 is treated as 1.
func (s *Session) LoadImage(img image.Image, density float64) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("load image: %w", ErrNoImage)
	}
	if density <= 0 {
		density = 1
	}
	s.image = img
	s.density = density
	s.scale = 1
	s.offset = types.Point{}
	s.shapes = nil
	s.selected = nil

	logging.Logger().Debug("image loaded",
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "density", density)
	s.notify(Change{Kind: ImageLoaded})
	return nil
}

// LoadImageFromReader decodes r and loads the result. On a decode failure the
// session keeps its previous state and the error is returned.
func (s *Session) LoadImageFromReader(r io.Reader, decode Decoder, density float64) error {
	img, err := decode(r)
	if err != nil {
		logging.Logger().Warn("image decode failed", "err", err)
		return fmt.Errorf("failed to decode image: %w", err)
	}
	return s.LoadImage(img, density)
}

// Image returns the loaded photo, or nil.
func (s *Session) Image() image.Image {
	return s.image
}

// Density returns the photo's points-to-pixels factor.
func (s *Session) Density() float64 {
	return s.density
}

// HasImage reports whether a photo is loaded.
func (s *Session) HasImage() bool {
	return s.image != nil
}

// ImageSize returns the pixel size of the loaded photo.
func (s *Session) ImageSize() types.Size {
	if s.image == nil {
		return types.Size{}
	}
	return types.SizeOf(s.image)
}

// OnChange registers fn to be called after every state change. Passing nil
// removes the observer.
func (s *Session) OnChange(fn func(Change)) {
	s.observer = fn
}

func (s *Session) notify(c Change) {
	if s.observer != nil {
		s.observer(c)
	}
}
