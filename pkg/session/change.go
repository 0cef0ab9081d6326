package session

import "github.com/menta2k/blurface/pkg/types"

// ChangeKind classifies a session change.
type ChangeKind int

const (
	ImageLoaded ChangeKind = iota
	ShapeAdded
	ShapeUpdated
	ShapeRemoved
	SelectionChanged
	ViewportChanged
	ExportStateChanged
)

func (k ChangeKind) String() string {
	switch k {
	case ImageLoaded:
		return "image_loaded"
	case ShapeAdded:
		return "shape_added"
	case ShapeUpdated:
		return "shape_updated"
	case ShapeRemoved:
		return "shape_removed"
	case SelectionChanged:
		return "selection_changed"
	case ViewportChanged:
		return "viewport_changed"
	case ExportStateChanged:
		return "export_state_changed"
	}
	return "unknown"
}

// Change describes one state change. ShapeID is set for shape and selection
// changes (zero when the selection was cleared).
type Change struct {
	Kind    ChangeKind
	ShapeID types.ShapeID
}
