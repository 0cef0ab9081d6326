// Package project reads and writes edit documents: the photo, the container
// the shapes were sized in and the shapes themselves. A document lets an edit
// be replayed and exported without the interactive editor.
package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/blurface/pkg/session"
	"github.com/menta2k/blurface/pkg/types"
)

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from a file extension. Anything that is
// not .json is YAML.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ShapeSpec is one shape in a document. Width and Height are display-space
// extents in Container at scale 1.
type ShapeSpec struct {
	Center types.Point `json:"center" yaml:"center"`
	Width  float64     `json:"width" yaml:"width"`
	Height float64     `json:"height" yaml:"height"`
}

// Document is a saved edit.
type Document struct {
	// Image is a file path or http(s) URL. Relative paths are resolved
	// against the document's directory by Load.
	Image   string  `json:"image,omitempty" yaml:"image,omitempty"`
	Density float64 `json:"density,omitempty" yaml:"density,omitempty"`
	// Container is the edit-time container. Zero means unknown, which makes
	// the renderer fall back to the legacy reference display.
	Container types.Size  `json:"container" yaml:"container"`
	Scale     float64     `json:"scale,omitempty" yaml:"scale,omitempty"`
	Offset    types.Point `json:"offset" yaml:"offset"`
	Shapes    []ShapeSpec `json:"shapes" yaml:"shapes"`
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc Document
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	default:
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s document: %w", format, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode writes the document in the given format.
func (d *Document) Encode(w io.Writer, format Format) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(d, "", "  ")
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(d); err == nil {
			err = enc.Close()
		}
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	defer f.Close()

	doc, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Image != "" && !isURL(doc.Image) && !filepath.IsAbs(doc.Image) {
		doc.Image = filepath.Join(filepath.Dir(path), doc.Image)
	}
	return doc, nil
}

// Save writes a document to disk.
func (d *Document) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create project directory: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := d.Encode(&buf, FormatFromPath(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// Validate checks the document for values no session could hold.
func (d *Document) Validate() error {
	if d.Density < 0 {
		return fmt.Errorf("density must be positive, got %v", d.Density)
	}
	if d.Scale < 0 {
		return fmt.Errorf("scale must be positive, got %v", d.Scale)
	}
	if !d.Container.IsZero() && d.Container.IsDegenerate() {
		return fmt.Errorf("invalid container %s", d.Container)
	}
	for i, s := range d.Shapes {
		if !s.Center.IsFinite() {
			return fmt.Errorf("shape %d: invalid center", i)
		}
		if !(s.Width > 0 && s.Height > 0) {
			return fmt.Errorf("shape %d: width and height must be positive", i)
		}
		if math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0) {
			return fmt.Errorf("shape %d: width and height must be finite", i)
		}
	}
	return nil
}

// Apply adds the document's shapes to sess, which must already hold the
// photo, and restores the zoom and pan when a container is known.
func (d *Document) Apply(sess *session.Session) error {
	for i, s := range d.Shapes {
		if _, err := sess.AddShapeAt(s.Center, s.Width, s.Height); err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
	}
	if d.Container.IsZero() || d.Scale <= 1 {
		return nil
	}
	if err := sess.Zoom(d.Scale, d.Container); err != nil {
		return fmt.Errorf("restore zoom: %w", err)
	}
	return sess.SetOffset(d.Offset, d.Container)
}

// FromSession captures the shapes, zoom and pan of sess. container is the
// container the shapes were sized in; imageRef names the photo.
func FromSession(sess *session.Session, container types.Size, imageRef string) *Document {
	doc := &Document{
		Image:     imageRef,
		Density:   sess.Density(),
		Container: container,
		Scale:     sess.Scale(),
		Offset:    sess.Offset(),
	}
	for _, s := range sess.Shapes() {
		doc.Shapes = append(doc.Shapes, ShapeSpec{Center: s.Center, Width: s.Width, Height: s.Height})
	}
	return doc
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
