package compositor

import (
	"image"

	"golang.org/x/image/vector"

	"github.com/menta2k/blurface/pkg/types"
)

// hardEllipse returns a mask over rect that is opaque where the pixel centre
// lies inside e and transparent elsewhere.
func hardEllipse(e types.Ellipse, rect image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if e.Contains(float64(x)+0.5, float64(y)+0.5) {
				mask.Pix[mask.PixOffset(x, y)] = 0xff
			}
		}
	}
	return mask
}

// kappa places cubic Bézier control points for a quarter ellipse.
const kappa = 0.5522847498

// rasterizeEllipse returns an anti-aliased mask for e covering rect.
func rasterizeEllipse(e types.Ellipse, rect image.Rectangle) *image.Alpha {
	w, h := rect.Dx(), rect.Dy()
	z := vector.NewRasterizer(w, h)

	cx := float32(e.Center.X - float64(rect.Min.X))
	cy := float32(e.Center.Y - float64(rect.Min.Y))
	rx, ry := float32(e.RadiusX), float32(e.RadiusY)
	kx, ky := rx*kappa, ry*kappa

	z.MoveTo(cx+rx, cy)
	z.CubeTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	z.CubeTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	z.CubeTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	z.CubeTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	mask.Rect = rect
	return mask
}
