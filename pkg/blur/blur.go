// Package blur provides the Gaussian blur primitive used for export.
//
// A Blurrer returns a uniformly blurred copy of its input with exactly the
// input's extent, rebased to the origin. Failure means no output: the image is
// nil and the error says why.
package blur

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

var (
	// ErrEmptyImage is returned for nil or zero-area input.
	ErrEmptyImage = errors.New("blur: empty image")

	// ErrUnknownBackend is returned by New for an unregistered backend name.
	ErrUnknownBackend = errors.New("blur: unknown backend")
)

// Blurrer produces a Gaussian-blurred copy of an image. Radius is the
// Gaussian standard deviation in pixels.
type Blurrer interface {
	Blur(ctx context.Context, img image.Image, radius float64) (image.Image, error)
}

// Func adapts an ordinary function to the Blurrer interface.
type Func func(ctx context.Context, img image.Image, radius float64) (image.Image, error)

// Blur calls f.
func (f Func) Blur(ctx context.Context, img image.Image, radius float64) (image.Image, error) {
	return f(ctx, img, radius)
}

// Backend names accepted by New.
const (
	BackendImaging = "imaging"
	BackendGift    = "gift"
	BackendBild    = "bild"
)

var backends = map[string]func() Blurrer{
	BackendImaging: func() Blurrer { return Imaging{} },
	BackendGift:    func() Blurrer { return Gift{} },
	BackendBild:    func() Blurrer { return Bild{} },
}

// New returns the blur backend registered under name. An empty name selects
// the imaging backend.
func New(name string) (Blurrer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = BackendImaging
	}
	ctor, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	return ctor(), nil
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkInput(ctx context.Context, img image.Image, radius float64) error {
	if img == nil || img.Bounds().Empty() {
		return ErrEmptyImage
	}
	if radius < 0 {
		return fmt.Errorf("blur: negative radius %g", radius)
	}
	return ctx.Err()
}

// Imaging blurs with github.com/disintegration/imaging.
type Imaging struct{}

func (Imaging) Blur(ctx context.Context, img image.Image, radius float64) (image.Image, error) {
	if err := checkInput(ctx, img, radius); err != nil {
		return nil, err
	}
	if radius == 0 {
		return imaging.Clone(img), nil
	}
	return imaging.Blur(img, radius), nil
}

// Gift blurs with a github.com/disintegration/gift filter list.
type Gift struct{}

func (Gift) Blur(ctx context.Context, img image.Image, radius float64) (image.Image, error) {
	if err := checkInput(ctx, img, radius); err != nil {
		return nil, err
	}
	g := gift.New(gift.GaussianBlur(float32(radius)))
	// gift's Bounds already starts at the origin.
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst, nil
}

// Bild blurs with github.com/anthonynsimon/bild.
type Bild struct{}

func (Bild) Blur(ctx context.Context, img image.Image, radius float64) (image.Image, error) {
	if err := checkInput(ctx, img, radius); err != nil {
		return nil, err
	}
	src := img
	if img.Bounds().Min != (image.Point{}) {
		// bild keeps the source offset
		src = imaging.Clone(img)
	}
	out := blur.Gaussian(src, radius)
	if out == nil || out.Bounds().Dx() != img.Bounds().Dx() || out.Bounds().Dy() != img.Bounds().Dy() {
		return nil, fmt.Errorf("blur: bild produced %v for %v input", boundsOf(out), img.Bounds())
	}
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out, nil
}

func boundsOf(img *image.RGBA) image.Rectangle {
	if img == nil {
		return image.Rectangle{}
	}
	return img.Bounds()
}
