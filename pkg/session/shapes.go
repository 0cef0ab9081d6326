package session

import (
	"fmt"
	"math"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/types"
)

// AddShape appends a default-sized shape at the centre of the image and
// selects it.
func (s *Session) AddShape() (types.Shape, error) {
	if s.image == nil {
		return types.Shape{}, ErrNoImage
	}
	shape := types.NewShape(types.Point{X: 0.5, Y: 0.5}, s.config.DefaultShapeWidth, s.config.DefaultShapeHeight)
	s.shapes = append(s.shapes, shape)
	s.notify(Change{Kind: ShapeAdded, ShapeID: shape.ID})
	s.Select(shape.ID)
	return shape, nil
}

// Shapes returns a copy of the shape list in z-order.
func (s *Session) Shapes() []types.Shape {
	out := make([]types.Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// ShapeCount returns the number of shapes.
func (s *Session) ShapeCount() int {
	return len(s.shapes)
}

// Shape looks up a shape by id.
func (s *Session) Shape(id types.ShapeID) (types.Shape, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return types.Shape{}, false
	}
	return s.shapes[i], true
}

func (s *Session) indexOf(id types.ShapeID) int {
	for i := range s.shapes {
		if s.shapes[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveShape deletes a shape. If it was selected the selection is cleared.
func (s *Session) RemoveShape(id types.ShapeID) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrShapeNotFound)
	}
	s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
	s.notify(Change{Kind: ShapeRemoved, ShapeID: id})
	if s.IsSelected(id) {
		s.Deselect()
	}
	return nil
}

// ClearShapes removes every shape and the selection.
func (s *Session) ClearShapes() {
	removed := s.shapes
	s.shapes = nil
	for _, shape := range removed {
		s.notify(Change{Kind: ShapeRemoved, ShapeID: shape.ID})
	}
	s.Deselect()
}

// SetShapeSize sets a shape's display-space size, floored at the minimum.
func (s *Session) SetShapeSize(id types.ShapeID, width, height float64) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("resize %s: %w", id, ErrShapeNotFound)
	}
	if !isFiniteSize(width, height) {
		return fmt.Errorf("resize %s: %w", id, ErrDegenerateGeometry)
	}
	s.shapes[i].Width = math.Max(s.config.MinShapeSize, width)
	s.shapes[i].Height = math.Max(s.config.MinShapeSize, height)
	s.notify(Change{Kind: ShapeUpdated, ShapeID: id})
	return nil
}

// AddShapeAt appends a shape with explicit geometry without selecting it.
// The centre is clamped into the image and the size floored at the minimum.
func (s *Session) AddShapeAt(center types.Point, width, height float64) (types.Shape, error) {
	if s.image == nil {
		return types.Shape{}, ErrNoImage
	}
	if !center.IsFinite() || !isFiniteSize(width, height) {
		return types.Shape{}, ErrDegenerateGeometry
	}
	shape := types.NewShape(center,
		math.Max(s.config.MinShapeSize, width),
		math.Max(s.config.MinShapeSize, height))
	s.shapes = append(s.shapes, shape)
	s.notify(Change{Kind: ShapeAdded, ShapeID: shape.ID})
	return shape, nil
}

// MoveShape commits a drag that ended at the container position screen.
func (s *Session) MoveShape(id types.ShapeID, screen types.Point, container types.Size) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("move %s: %w", id, ErrShapeNotFound)
	}
	moved, ok := s.Mapper(container).Move(s.shapes[i], screen)
	if !ok {
		logging.Logger().Debug("move skipped", "shape", id.String(), "container", container.String())
		return fmt.Errorf("move %s: %w", id, ErrDegenerateGeometry)
	}
	s.shapes[i] = moved
	s.notify(Change{Kind: ShapeUpdated, ShapeID: id})
	return nil
}

// ResizeShape applies a drag of handle h by the on-screen translation t.
func (s *Session) ResizeShape(id types.ShapeID, h types.Handle, t types.Point, container types.Size) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("resize %s: %w", id, ErrShapeNotFound)
	}
	resized, ok := s.Mapper(container).Resize(s.shapes[i], h, t, s.config.MinShapeSize)
	if !ok {
		logging.Logger().Debug("resize skipped",
			"shape", id.String(), "handle", h.String(), "container", container.String())
		return fmt.Errorf("resize %s: %w", id, ErrDegenerateGeometry)
	}
	s.shapes[i] = resized
	s.notify(Change{Kind: ShapeUpdated, ShapeID: id})
	return nil
}

// Select marks a shape as selected. Unknown ids are ignored.
func (s *Session) Select(id types.ShapeID) {
	if s.indexOf(id) < 0 {
		return
	}
	if s.selected != nil && *s.selected == id {
		return
	}
	s.selected = &id
	s.notify(Change{Kind: SelectionChanged, ShapeID: id})
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	if s.selected == nil {
		return
	}
	s.selected = nil
	s.notify(Change{Kind: SelectionChanged})
}

// Selected returns the selected shape id, if any.
func (s *Session) Selected() (types.ShapeID, bool) {
	if s.selected == nil {
		return types.ShapeID{}, false
	}
	return *s.selected, true
}

// IsSelected reports whether id is the selected shape.
func (s *Session) IsSelected(id types.ShapeID) bool {
	return s.selected != nil && *s.selected == id
}

func isFiniteSize(width, height float64) bool {
	return !math.IsNaN(width) && !math.IsNaN(height) && !math.IsInf(width, 0) && !math.IsInf(height, 0)
}
