package viewport

import (
	"math"

	"github.com/menta2k/blurface/pkg/types"
)

// ExtentScale returns the per-axis factors that turn display-space extents,
// measured in editContainer at scale 1, into pixel extents of an image with
// the given pixel size.
func ExtentScale(imagePixels, editContainer types.Size) (sx, sy float64, ok bool) {
	fitted, ok := FitSize(imagePixels, editContainer)
	if !ok {
		return 0, 0, false
	}
	return imagePixels.Width / fitted.Width, imagePixels.Height / fitted.Height, true
}

// PixelEllipse converts a shape to a pixel-space ellipse on an image of size
// imagePixels. editContainer is the container the shape was sized in; a zero
// size falls back to LegacyReferenceDisplay.
func PixelEllipse(s types.Shape, imagePixels, editContainer types.Size) (types.Ellipse, bool) {
	if editContainer.IsZero() {
		editContainer = LegacyReferenceDisplay
	}
	sx, sy, ok := ExtentScale(imagePixels, editContainer)
	if !ok {
		return types.Ellipse{}, false
	}
	if !(s.Width > 0 && s.Height > 0) || !s.Center.IsFinite() {
		return types.Ellipse{}, false
	}
	return types.Ellipse{
		Center: types.Point{
			X: s.Center.X * imagePixels.Width,
			Y: s.Center.Y * imagePixels.Height,
		},
		RadiusX: s.Width * sx / 2,
		RadiusY: s.Height * sy / 2,
	}, true
}

// MinScale returns the smallest zoom factor for an image in a container: the
// ratio at which the image's pixel size fits the container exactly.
func MinScale(image, container types.Size) (float64, bool) {
	if image.IsDegenerate() || container.IsDegenerate() {
		return 0, false
	}
	if image.Aspect() > container.Aspect() {
		return container.Width / image.Width, true
	}
	return container.Height / image.Height, true
}

// ClampScale restricts s to [minScale, MaxScale].
func ClampScale(s, minScale float64) float64 {
	if minScale > MaxScale {
		minScale = MaxScale
	}
	return types.Clamp(s, minScale, MaxScale)
}

// Zoom applies a pinch gesture value. The request is clamped to
// [minScale, MaxScale]; zooming out below the current scale snaps back to
// exactly 1, reported by reset, even when minScale is above 1.
func Zoom(current, requested, minScale float64) (scale float64, reset bool) {
	next := ClampScale(requested, minScale)
	if next < current {
		return 1, true
	}
	return next, false
}

// ClampOffset limits a pan offset so the zoomed image cannot be dragged
// further than half of its overflow beyond the container on either axis.
func ClampOffset(offset types.Point, container types.Size, scale float64) types.Point {
	maxX := math.Max(0, (container.Width*scale-container.Width)/2)
	maxY := math.Max(0, (container.Height*scale-container.Height)/2)
	return types.Point{
		X: types.Clamp(offset.X, -maxX, maxX),
		Y: types.Clamp(offset.Y, -maxY, maxY),
	}
}
