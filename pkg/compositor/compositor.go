// Package compositor renders the exported image: a sharp photo with a
// Gaussian-blurred copy revealed inside each elliptical shape.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/blur"
	"github.com/menta2k/blurface/pkg/types"
	"github.com/menta2k/blurface/pkg/viewport"
)

// ErrNilImage is returned when a job carries no image.
var ErrNilImage = errors.New("compositor: nil image")

// Config holds the tunable rendering parameters.
type Config struct {
	// BlurRadius is the Gaussian sigma applied at full resolution.
	BlurRadius float64
	// MaxDimension bounds the longest side of the working image. Larger
	// images are downscaled before blurring. Zero disables the limit.
	MaxDimension int
	// AntiAlias smooths ellipse edges instead of using a hard clip.
	AntiAlias bool
}

// DefaultConfig returns the canonical rendering parameters.
func DefaultConfig() Config {
	return Config{
		BlurRadius:   50,
		MaxDimension: 4096,
		AntiAlias:    false,
	}
}

// Renderer composites blurred regions onto a sharp image. It holds no
// per-render state and may be shared between goroutines.
type Renderer struct {
	config  Config
	blurrer blur.Blurrer
}

// New creates a Renderer with the default configuration and the imaging blur backend.
func New() *Renderer {
	return NewWithConfig(DefaultConfig(), nil)
}

// NewWithConfig creates a Renderer with custom configuration. A nil blurrer
// selects the imaging backend.
func NewWithConfig(config Config, blurrer blur.Blurrer) *Renderer {
	if blurrer == nil {
		blurrer = blur.Imaging{}
	}
	return &Renderer{config: config, blurrer: blurrer}
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config {
	return r.config
}

// Job is an immutable snapshot of what to render.
type Job struct {
	Image image.Image
	// Density is the image's points-to-pixels factor; the output carries the same value.
	Density float64
	// Shapes are composited in order.
	Shapes []types.Shape
	// EditContainer is the container size the shapes were sized in. A zero
	// size falls back to viewport.LegacyReferenceDisplay.
	EditContainer types.Size
}

// Result is a rendered export.
type Result struct {
	Image      image.Image
	Density    float64
	Ellipses   []types.Ellipse
	Downscaled bool
	// Fallback is set when blurring failed and Image is the unmodified input.
	Fallback bool
}

// Render produces the composited image for job.
//
// With no shapes the input image is returned as is. When blurring fails the
// unmodified input is returned with Fallback set and a nil error; only a nil
// image or a cancelled context are reported as errors.
func (r *Renderer) Render(ctx context.Context, job Job) (Result, error) {
	if job.Image == nil {
		return Result{}, ErrNilImage
	}
	density := job.Density
	if density <= 0 {
		density = 1
	}
	if len(job.Shapes) == 0 {
		return Result{Image: job.Image, Density: density}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	log := logging.Logger()

	base, radius, downscaled := r.workingImage(job.Image)
	canvas := imaging.Clone(base)
	size := types.SizeOf(canvas)

	if job.EditContainer.IsZero() {
		log.Debug("no edit container recorded, using legacy reference display",
			"reference", viewport.LegacyReferenceDisplay.String())
	}
	ellipses := PixelEllipses(job.Shapes, size, job.EditContainer)

	blurred, err := r.blurrer.Blur(ctx, canvas, radius)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return Result{}, fmt.Errorf("blur cancelled: %w", err)
	}
	if err == nil && blurred != nil && blurred.Bounds().Size() != canvas.Bounds().Size() {
		err = fmt.Errorf("blurred image is %v, expected %v", blurred.Bounds().Size(), canvas.Bounds().Size())
	}
	if err != nil || blurred == nil {
		log.Warn("blur failed, exporting sharp image", "err", err)
		return Result{Image: job.Image, Density: density, Fallback: true}, nil
	}
	source := asNRGBA(blurred)

	for _, e := range ellipses {
		r.reveal(canvas, source, e)
	}

	log.Debug("rendered export",
		"width", size.Width, "height", size.Height,
		"shapes", len(job.Shapes), "ellipses", len(ellipses),
		"radius", radius, "downscaled", downscaled)

	return Result{
		Image:      canvas,
		Density:    density,
		Ellipses:   ellipses,
		Downscaled: downscaled,
	}, nil
}

// workingImage applies the MaxDimension limit. The blur radius shrinks with
// the image so the visual strength is unchanged.
func (r *Renderer) workingImage(img image.Image) (image.Image, float64, bool) {
	radius := r.config.BlurRadius
	limit := r.config.MaxDimension
	b := img.Bounds()
	if limit <= 0 || (b.Dx() <= limit && b.Dy() <= limit) {
		return img, radius, false
	}

	resized := imaging.Fit(img, limit, limit, imaging.Lanczos)
	ratio := float64(resized.Bounds().Dx()) / float64(b.Dx())
	logging.Logger().Debug("downscaled export input",
		"from", b.Size().String(), "to", resized.Bounds().Size().String())
	return resized, radius * ratio, true
}

// PixelEllipses converts shapes to pixel-space ellipses on an image of the
// given size. Shapes that cannot be placed are skipped.
func PixelEllipses(shapes []types.Shape, imageSize, editContainer types.Size) []types.Ellipse {
	ellipses := make([]types.Ellipse, 0, len(shapes))
	for _, s := range shapes {
		e, ok := viewport.PixelEllipse(s, imageSize, editContainer)
		if !ok {
			logging.Logger().Warn("skipping shape with degenerate geometry",
				"shape", s.ID.String(), "image", imageSize.String(), "container", editContainer.String())
			continue
		}
		ellipses = append(ellipses, e)
	}
	return ellipses
}

// reveal blends blurred pixels into canvas by the ellipse's coverage. Fully
// covered pixels are copied, so repeated or overlapping reveals are
// idempotent.
func (r *Renderer) reveal(canvas, blurred *image.NRGBA, e types.Ellipse) {
	rect := e.Bounds().Intersect(canvas.Bounds())
	if rect.Empty() {
		return
	}

	var mask *image.Alpha
	if r.config.AntiAlias {
		mask = rasterizeEllipse(e, rect)
	} else {
		mask = hardEllipse(e, rect)
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			a := int(mask.AlphaAt(x, y).A)
			if a == 0 {
				continue
			}
			i := canvas.PixOffset(x, y)
			j := blurred.PixOffset(x, y)
			if a == 0xff {
				copy(canvas.Pix[i:i+4], blurred.Pix[j:j+4])
				continue
			}
			for k := 0; k < 4; k++ {
				d := int(canvas.Pix[i+k])
				canvas.Pix[i+k] = uint8(d + (int(blurred.Pix[j+k])-d)*a/0xff)
			}
		}
	}
}

func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
