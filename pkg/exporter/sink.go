package exporter

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/menta2k/blurface/internal/logging"
	"github.com/menta2k/blurface/pkg/processing"
)

// FileSink saves exports to disk.
type FileSink struct {
	Processor *processing.Processor
	// Path is the output file. Its extension selects the format unless
	// Format is set.
	Path     string
	Format   string
	Quality  int
	Lossless bool

	// Written holds the path of the last successful save.
	Written string
}

// Share writes img to Path. Saving always counts as completed.
func (s *FileSink) Share(ctx context.Context, img image.Image, density float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p := s.Processor
	if p == nil {
		p = processing.NewProcessor()
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := p.SaveImage(img, s.Path, s.Format, s.Quality, s.Lossless); err != nil {
		return false, fmt.Errorf("failed to save %s: %w", s.Path, err)
	}
	s.Written = s.Path
	logging.Logger().Info("wrote export", "path", s.Path, "density", density)
	return true, nil
}
