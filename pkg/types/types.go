package types

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Point is a 2D position. Depending on context it is expressed in normalized
// image space ([0,1] on both axes), display space (points) or pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.X, p.Y)
}

// Size is a 2D extent.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// SizeOf returns the pixel size of an image.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// IsZero reports whether both axes are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// IsDegenerate reports whether s cannot be used as a transform parameter:
// either axis is non-positive, NaN or infinite.
func (s Size) IsDegenerate() bool {
	return !(s.Width > 0 && s.Height > 0) || !isFinite(s.Width) || !isFinite(s.Height)
}

// Aspect returns width/height.
func (s Size) Aspect() float64 {
	return s.Width / s.Height
}

// Scale multiplies both axes by f.
func (s Size) Scale(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// ParseSize parses "WxH" (for example "375x667").
func ParseSize(v string) (Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(v)), "x")
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("invalid size %q: expected WxH", v)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Size{}, fmt.Errorf("invalid size width %q: %w", parts[0], err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Size{}, fmt.Errorf("invalid size height %q: %w", parts[1], err)
	}
	return Size{Width: w, Height: h}, nil
}

// ParsePoint parses "x,y".
func ParsePoint(v string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(v), ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("invalid point %q: expected x,y", v)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid point x %q: %w", parts[0], err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid point y %q: %w", parts[1], err)
	}
	return Point{X: x, Y: y}, nil
}

// ShapeID identifies a shape for its whole lifetime.
type ShapeID = uuid.UUID

// NewShapeID returns a fresh random identifier.
func NewShapeID() ShapeID {
	return uuid.New()
}

// Shape is an elliptical blur region.
//
// Center is in normalized image space. Width and Height are display-space
// extents measured at scale 1, so they depend on the container the shape was
// edited in.
type Shape struct {
	ID     ShapeID `json:"id" yaml:"id"`
	Center Point   `json:"center" yaml:"center"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewShape creates a shape with a fresh identifier.
func NewShape(center Point, width, height float64) Shape {
	return Shape{
		ID:     NewShapeID(),
		Center: ClampUnit(center),
		Width:  width,
		Height: height,
	}
}

// Handle names one of the four resize handles of a shape.
type Handle int

const (
	HandleTop Handle = iota
	HandleBottom
	HandleLeading
	HandleTrailing
)

func (h Handle) String() string {
	switch h {
	case HandleTop:
		return "top"
	case HandleBottom:
		return "bottom"
	case HandleLeading:
		return "leading"
	case HandleTrailing:
		return "trailing"
	default:
		return fmt.Sprintf("Handle(%d)", int(h))
	}
}

// ParseHandle is the inverse of Handle.String. "left" and "right" are
// accepted as aliases for leading and trailing.
func ParseHandle(v string) (Handle, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "top":
		return HandleTop, nil
	case "bottom":
		return HandleBottom, nil
	case "leading", "left":
		return HandleLeading, nil
	case "trailing", "right":
		return HandleTrailing, nil
	}
	return 0, fmt.Errorf("unknown handle %q", v)
}

// Ellipse is an axis-aligned ellipse in pixel space.
type Ellipse struct {
	Center  Point   `json:"center"`
	RadiusX float64 `json:"radius_x"`
	RadiusY float64 `json:"radius_y"`
}

// Bounds returns the smallest integer rectangle enclosing the ellipse.
func (e Ellipse) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(e.Center.X-e.RadiusX)),
		int(math.Floor(e.Center.Y-e.RadiusY)),
		int(math.Ceil(e.Center.X+e.RadiusX)),
		int(math.Ceil(e.Center.Y+e.RadiusY)),
	)
}

// Contains reports whether (x, y) lies inside or on the ellipse.
func (e Ellipse) Contains(x, y float64) bool {
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		return false
	}
	dx := (x - e.Center.X) / e.RadiusX
	dy := (y - e.Center.Y) / e.RadiusY
	return dx*dx+dy*dy <= 1
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit restricts both coordinates of p to [0,1].
func ClampUnit(p Point) Point {
	return Point{X: Clamp(p.X, 0, 1), Y: Clamp(p.Y, 0, 1)}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
