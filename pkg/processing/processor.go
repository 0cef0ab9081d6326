package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for images or output formats the processor
// does not handle.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Config holds configuration for image I/O
type Config struct {
	DefaultQuality   int
	SupportedFormats []string
	MinImageSize     int
	HTTPTimeout      time.Duration
	UserAgent        string
}

// DefaultConfig returns the default I/O configuration
func DefaultConfig() Config {
	return Config{
		DefaultQuality:   90,
		SupportedFormats: []string{"jpg", "jpeg", "png", "webp"},
		MinImageSize:     1,
		HTTPTimeout:      30 * time.Second,
		UserAgent:        "blurface/1.0",
	}
}

// Processor handles image loading, encoding and debug rendering
type Processor struct {
	config Config
	client *http.Client
}

// NewProcessor creates a new image processor with default configuration
func NewProcessor() *Processor {
	return NewProcessorWithConfig(DefaultConfig())
}

// NewProcessorWithConfig creates a new image processor with custom configuration
func NewProcessorWithConfig(config Config) *Processor {
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 30 * time.Second
	}
	return &Processor{
		config: config,
		client: &http.Client{Timeout: config.HTTPTimeout},
	}
}

// Config returns the processor configuration
func (p *Processor) Config() Config {
	return p.config
}

// LoadImageFromURL downloads and decodes an image
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return p.DecodeImage(bytes.NewReader(data))
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	img, err := p.DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(ctx, source)
	}
	return p.LoadImage(source)
}

// DecodeImage decodes an image, applying EXIF orientation for JPEGs. WebP
// streams the registered decoder rejects are retried with the libwebp
// decoder.
func (p *Processor) DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return wimg, nil
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if !p.isFormatSupported(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if format == "jpeg" {
		// re-decode through imaging to honour the orientation tag
		if oriented, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
			return oriented, nil
		}
	}
	return img, nil
}

// Decode adapts DecodeImage to a plain decoder function.
func (p *Processor) Decode(r io.Reader) (image.Image, error) {
	return p.DecodeImage(r)
}

// EncodeImage writes img in the given format. Quality <= 0 selects the
// configured default.
func (p *Processor) EncodeImage(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	if quality <= 0 {
		quality = p.config.DefaultQuality
	}
	switch NormalizeFormat(format) {
	case "webp":
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	case "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// SaveImage saves an image to a file with the specified format and quality.
// An empty format is taken from the file extension.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	if quality <= 0 {
		quality = p.config.DefaultQuality
	}

	switch NormalizeFormat(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := p.EncodeImage(f, img, "webp", quality, lossless); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case "png":
		return imaging.Save(img, path, imaging.PNGCompressionLevel(png.BestCompression))
	case "jpg":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// NormalizeFormat maps format names and extensions to jpg, png or webp.
// Anything else is returned lower-cased.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	switch f {
	case "jpg", "jpeg":
		return "jpg"
	}
	return f
}

// FormatFromPath returns the normalized format implied by a file extension.
func FormatFromPath(path string) string {
	return NormalizeFormat(filepath.Ext(path))
}

func (p *Processor) isFormatSupported(format string) bool {
	for _, supported := range p.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}
