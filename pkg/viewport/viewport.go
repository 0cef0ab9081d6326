// Package viewport maps shape geometry between normalized image space, the
// zoomed and panned on-screen display space, and full-resolution pixel space.
//
// Every function in this package is pure: results depend only on the explicit
// arguments, so they may be called from any goroutine. Degenerate inputs
// (zero-area image or container, non-positive scale) never produce NaN or Inf;
// the functions report ok=false and the caller keeps its previous geometry.
package viewport

import (
	"math"

	"github.com/menta2k/blurface/pkg/types"
)

const (
	// MaxScale is the largest zoom factor the editor allows.
	MaxScale = 4.0

	// DefaultMinShapeSize is the smallest display-space width or height a
	// shape may have after creation or resize.
	DefaultMinShapeSize = 20.0

	// LegacyMinShapeSize is the floor used by an older editor revision.
	LegacyMinShapeSize = 30.0
)

// LegacyReferenceDisplay is the fixed phone viewport the old export path
// assumed when converting display extents to pixels. It is only used when the
// real edit-time container is unknown, and places shapes incorrectly on any
// other screen size.
var LegacyReferenceDisplay = types.Size{Width: 375, Height: 667}

// FitSize returns the size of image after aspect-fit ("contain") scaling into
// container.
func FitSize(image, container types.Size) (types.Size, bool) {
	if image.IsDegenerate() || container.IsDegenerate() {
		return types.Size{}, false
	}

	imageAspect := image.Aspect()
	if imageAspect > container.Aspect() {
		// width constrained
		return types.Size{Width: container.Width, Height: container.Width / imageAspect}, true
	}
	return types.Size{Width: container.Height * imageAspect, Height: container.Height}, true
}

// Mapper holds the transform parameters of one frame. It is a value type;
// every method recomputes the fitted size and placement from the current
// fields.
type Mapper struct {
	Image     types.Size
	Container types.Size
	Scale     float64
	Offset    types.Point
}

// New returns a Mapper at scale 1 with no pan.
func New(image, container types.Size) Mapper {
	return Mapper{Image: image, Container: container, Scale: 1}
}

func (m Mapper) valid() bool {
	return m.Scale > 0 && !math.IsInf(m.Scale, 0) && m.Offset.IsFinite()
}

// Fitted returns the unscaled aspect-fit size of the image in the container.
func (m Mapper) Fitted() (types.Size, bool) {
	return FitSize(m.Image, m.Container)
}

// ScaledSize returns the on-screen size of the image at the current zoom.
func (m Mapper) ScaledSize() (types.Size, bool) {
	if !m.valid() {
		return types.Size{}, false
	}
	fitted, ok := m.Fitted()
	if !ok {
		return types.Size{}, false
	}
	return fitted.Scale(m.Scale), true
}

// TopLeft returns the on-screen position of the image's top-left corner:
// the scaled image is centred in the container and then panned by Offset.
func (m Mapper) TopLeft() (types.Point, bool) {
	scaled, ok := m.ScaledSize()
	if !ok {
		return types.Point{}, false
	}
	return types.Point{
		X: (m.Container.Width-scaled.Width)/2 + m.Offset.X,
		Y: (m.Container.Height-scaled.Height)/2 + m.Offset.Y,
	}, true
}

// NormalizedToScreen converts a normalized image position to a container
// position.
func (m Mapper) NormalizedToScreen(p types.Point) (types.Point, bool) {
	scaled, ok := m.ScaledSize()
	if !ok {
		return types.Point{}, false
	}
	topLeft, _ := m.TopLeft()
	return types.Point{
		X: topLeft.X + p.X*scaled.Width,
		Y: topLeft.Y + p.Y*scaled.Height,
	}, true
}

// ScreenToNormalized converts a container position back to normalized image
// space. The result is clamped to [0,1] on both axes, so points outside the
// image land on its nearest edge.
func (m Mapper) ScreenToNormalized(p types.Point) (types.Point, bool) {
	if !p.IsFinite() {
		return types.Point{}, false
	}
	scaled, ok := m.ScaledSize()
	if !ok {
		return types.Point{}, false
	}
	topLeft, _ := m.TopLeft()
	return types.ClampUnit(types.Point{
		X: (p.X - topLeft.X) / scaled.Width,
		Y: (p.Y - topLeft.Y) / scaled.Height,
	}), true
}

// DisplaySize returns the on-screen extent of a shape at the current zoom.
func (m Mapper) DisplaySize(s types.Shape) types.Size {
	return types.Size{Width: s.Width * m.Scale, Height: s.Height * m.Scale}
}

// HandlePosition returns where a resize handle is drawn: the midpoint of the
// corresponding edge of the shape's on-screen bounding box.
func (m Mapper) HandlePosition(s types.Shape, h types.Handle) (types.Point, bool) {
	center, ok := m.NormalizedToScreen(s.Center)
	if !ok {
		return types.Point{}, false
	}
	size := m.DisplaySize(s)
	switch h {
	case types.HandleTop:
		return types.Point{X: center.X, Y: center.Y - size.Height/2}, true
	case types.HandleBottom:
		return types.Point{X: center.X, Y: center.Y + size.Height/2}, true
	case types.HandleLeading:
		return types.Point{X: center.X - size.Width/2, Y: center.Y}, true
	case types.HandleTrailing:
		return types.Point{X: center.X + size.Width/2, Y: center.Y}, true
	}
	return types.Point{}, false
}

// Move returns s re-centred at the container position screen, as committed at
// the end of a drag.
func (m Mapper) Move(s types.Shape, screen types.Point) (types.Shape, bool) {
	center, ok := m.ScreenToNormalized(screen)
	if !ok {
		return s, false
	}
	s.Center = center
	return s, true
}

// Resize applies a drag of a resize handle by the on-screen translation t.
//
// Exactly one dimension changes. The new dimension is floored at minSize
// (DefaultMinShapeSize when minSize <= 0), and the centre moves by half of the
// size change, normalized against the fitted image size, so that the edge
// opposite the handle stays where it was.
func (m Mapper) Resize(s types.Shape, h types.Handle, t types.Point, minSize float64) (types.Shape, bool) {
	if !m.valid() || !t.IsFinite() {
		return s, false
	}
	fitted, ok := m.Fitted()
	if !ok {
		return s, false
	}
	if minSize <= 0 {
		minSize = DefaultMinShapeSize
	}

	dx := t.X / m.Scale
	dy := t.Y / m.Scale

	out := s
	switch h {
	case types.HandleTop:
		out.Height = math.Max(minSize, s.Height-dy)
		out.Center.Y -= (out.Height - s.Height) / fitted.Height / 2
	case types.HandleBottom:
		out.Height = math.Max(minSize, s.Height+dy)
		out.Center.Y += (out.Height - s.Height) / fitted.Height / 2
	case types.HandleLeading:
		out.Width = math.Max(minSize, s.Width-dx)
		out.Center.X -= (out.Width - s.Width) / fitted.Width / 2
	case types.HandleTrailing:
		out.Width = math.Max(minSize, s.Width+dx)
		out.Center.X += (out.Width - s.Width) / fitted.Width / 2
	default:
		return s, false
	}
	out.Center = types.ClampUnit(out.Center)
	return out, true
}
