package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/blurface/pkg/types"
)

// CreateDebugOverlay draws the outline and centre of every ellipse over a
// copy of img, plus a marker at the image centre.
func (p *Processor) CreateDebugOverlay(img image.Image, ellipses []types.Ellipse) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	green := color.NRGBA{0, 255, 0, 255}                  // ellipse outline
	red := color.NRGBA{255, 0, 0, 255}                    // ellipse centre
	blue := color.NRGBA{0, 170, 255, 255}                 // image centre
	stroke := math.Max(2, 0.004*float64(minInt(w, h)))    // ~0.4% of min side
	cross := int(math.Max(4, 0.01*float64(minInt(w, h)))) // ~1% of min side

	for _, e := range ellipses {
		drawEllipse(nrgba, e, green, stroke)
		px := int(e.Center.X + 0.5)
		py := int(e.Center.Y + 0.5)
		drawHLine(nrgba, py, px-cross, px+cross, red)
		drawVLine(nrgba, px, py-cross, py+cross, red)
	}

	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, blue)
	drawVLine(nrgba, ix, iy-6, iy+6, blue)

	return nrgba
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// drawEllipse paints pixels whose centre lies within stroke/2 of the ellipse
// outline, using the radial distance scaled by the smaller radius.
func drawEllipse(img *image.NRGBA, e types.Ellipse, c color.NRGBA, stroke float64) {
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		return
	}
	half := stroke / 2
	pad := int(math.Ceil(half))
	rect := e.Bounds().Inset(-pad).Intersect(img.Bounds())
	r := math.Min(e.RadiusX, e.RadiusY)

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dx := (float64(x) + 0.5 - e.Center.X) / e.RadiusX
			dy := (float64(y) + 0.5 - e.Center.Y) / e.RadiusY
			d := math.Sqrt(dx*dx + dy*dy)
			if math.Abs(d-1)*r <= half {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
