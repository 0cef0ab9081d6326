package session

import (
	"fmt"
	"image"

	"github.com/menta2k/blurface/pkg/types"
	"github.com/menta2k/blurface/pkg/viewport"
)

// Scale returns the current zoom factor.
func (s *Session) Scale() float64 {
	return s.scale
}

// Offset returns the current pan offset.
func (s *Session) Offset() types.Point {
	return s.offset
}

// Mapper returns the transform for the current image, zoom and pan in
// container.
func (s *Session) Mapper(container types.Size) viewport.Mapper {
	return viewport.Mapper{
		Image:     s.ImageSize(),
		Container: container,
		Scale:     s.scale,
		Offset:    s.offset,
	}
}

// Zoom applies a pinch gesture value. Zooming out below the current scale
// snaps back to scale 1 with no pan.
func (s *Session) Zoom(requested float64, container types.Size) error {
	if s.image == nil {
		return ErrNoImage
	}
	minScale, ok := viewport.MinScale(s.ImageSize(), container)
	if !ok || !(requested > 0) {
		return fmt.Errorf("zoom: %w", ErrDegenerateGeometry)
	}
	next, reset := viewport.Zoom(s.scale, requested, minScale)
	s.scale = next
	if reset {
		s.offset = types.Point{}
	} else {
		s.offset = viewport.ClampOffset(s.offset, container, s.scale)
	}
	s.notify(Change{Kind: ViewportChanged})
	return nil
}

// SetOffset pans the image, limited to the zoomed overflow.
func (s *Session) SetOffset(offset types.Point, container types.Size) error {
	if !offset.IsFinite() || container.IsDegenerate() {
		return fmt.Errorf("pan: %w", ErrDegenerateGeometry)
	}
	s.offset = viewport.ClampOffset(offset, container, s.scale)
	s.notify(Change{Kind: ViewportChanged})
	return nil
}

// ResetZoom returns to scale 1 with no pan.
func (s *Session) ResetZoom() {
	s.scale = 1
	s.offset = types.Point{}
	s.notify(Change{Kind: ViewportChanged})
}

// BeginExport marks an export as in flight. It returns false if one already
// is; the caller must not start another.
func (s *Session) BeginExport() bool {
	if !s.exporting.CompareAndSwap(false, true) {
		return false
	}
	s.notify(Change{Kind: ExportStateChanged})
	return true
}

// EndExport clears the in-flight flag. It is safe to call from the export
// goroutine; observers are not notified from there.
func (s *Session) EndExport() {
	s.exporting.Store(false)
}

// IsExporting reports whether an export is in flight.
func (s *Session) IsExporting() bool {
	return s.exporting.Load()
}

// SetShareSheetVisible records whether the share sheet is showing.
func (s *Session) SetShareSheetVisible(visible bool) {
	if s.shareShown == visible {
		return
	}
	s.shareShown = visible
	s.notify(Change{Kind: ExportStateChanged})
}

// ShareSheetVisible reports whether the share sheet is showing.
func (s *Session) ShareSheetVisible() bool {
	return s.shareShown
}

// Snapshot is an immutable copy of what an export needs.
type Snapshot struct {
	Image     image.Image
	Density   float64
	Shapes    []types.Shape
	Container types.Size
}

// Snapshot captures the session for rendering. container is the edit-time
// container the shapes were sized in.
func (s *Session) Snapshot(container types.Size) Snapshot {
	return Snapshot{
		Image:     s.image,
		Density:   s.density,
		Shapes:    s.Shapes(),
		Container: container,
	}
}
