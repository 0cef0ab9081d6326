package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/menta2k/blurface/pkg/types"
	"github.com/menta2k/blurface/pkg/viewport"
)

type mapperFlags struct {
	image     string
	container string
	scale     float64
	offset    string
}

func (f *mapperFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.image, "image", "", "image size WxH in pixels")
	cmd.Flags().StringVar(&f.container, "container", "", "container size WxH in points")
	cmd.Flags().Float64Var(&f.scale, "scale", 1, "zoom factor")
	cmd.Flags().StringVar(&f.offset, "offset", "0,0", "pan offset x,y in points")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("container")
}

func (f *mapperFlags) mapper() (viewport.Mapper, error) {
	img, err := types.ParseSize(f.image)
	if err != nil {
		return viewport.Mapper{}, fmt.Errorf("--image: %w", err)
	}
	container, err := types.ParseSize(f.container)
	if err != nil {
		return viewport.Mapper{}, fmt.Errorf("--container: %w", err)
	}
	offset, err := types.ParsePoint(f.offset)
	if err != nil {
		return viewport.Mapper{}, fmt.Errorf("--offset: %w", err)
	}
	return viewport.Mapper{Image: img, Container: container, Scale: f.scale, Offset: offset}, nil
}

func printPlacement(w io.Writer, m viewport.Mapper) error {
	fitted, ok := m.Fitted()
	if !ok {
		return fmt.Errorf("degenerate geometry: image %s in container %s", m.Image, m.Container)
	}
	scaled, ok := m.ScaledSize()
	if !ok {
		return fmt.Errorf("invalid scale %v", m.Scale)
	}
	topLeft, _ := m.TopLeft()
	minScale, _ := viewport.MinScale(m.Image, m.Container)
	fmt.Fprintf(w, "fitted:    %s\n", fitted)
	fmt.Fprintf(w, "scaled:    %s\n", scaled)
	fmt.Fprintf(w, "top-left:  %s\n", topLeft)
	fmt.Fprintf(w, "min scale: %.4f (max %.1f)\n", minScale, viewport.MaxScale)
	return nil
}

func newMapCmd() *cobra.Command {
	var (
		f       mapperFlags
		point   string
		reverse bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Convert a point between normalized and screen space",
		Example: `  # Where does the image centre appear on screen?
  blurface map --image 4032x3024 --container 390x844 --point 0.5,0.5

  # Which normalized position is under a screen point?
  blurface map --image 4032x3024 --container 390x844 --scale 2 --point 100,400 --reverse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.mapper()
			if err != nil {
				return err
			}
			p, err := types.ParsePoint(point)
			if err != nil {
				return fmt.Errorf("--point: %w", err)
			}
			w := cmd.OutOrStdout()
			if err := printPlacement(w, m); err != nil {
				return err
			}

			if reverse {
				n, ok := m.ScreenToNormalized(p)
				if !ok {
					return fmt.Errorf("cannot map %s", p)
				}
				fmt.Fprintf(w, "normalized: %s\n", n)
				return nil
			}
			s, ok := m.NormalizedToScreen(p)
			if !ok {
				return fmt.Errorf("cannot map %s", p)
			}
			fmt.Fprintf(w, "screen:    %s\n", s)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&point, "point", "0.5,0.5", "point x,y (normalized, or screen with --reverse)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "map a screen point to normalized space")

	return cmd
}

func newResizeCmd() *cobra.Command {
	var (
		f       mapperFlags
		size    string
		center  string
		handle  string
		drag    string
		minSize float64
		legacy  bool
	)

	cmd := &cobra.Command{
		Use:   "resize",
		Short: "Apply a resize-handle drag to a shape",
		Example: `  # Drag the trailing handle of a 100x100 shape 40 points to the right
  blurface resize --image 1000x1000 --container 1000x1000 --size 100x100 --center 0.5,0.5 --handle trailing --drag 40,0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.mapper()
			if err != nil {
				return err
			}
			sz, err := types.ParseSize(size)
			if err != nil {
				return fmt.Errorf("--size: %w", err)
			}
			c, err := types.ParsePoint(center)
			if err != nil {
				return fmt.Errorf("--center: %w", err)
			}
			h, err := types.ParseHandle(handle)
			if err != nil {
				return err
			}
			d, err := types.ParsePoint(drag)
			if err != nil {
				return fmt.Errorf("--drag: %w", err)
			}
			if legacy {
				minSize = viewport.LegacyMinShapeSize
			}

			shape := types.NewShape(c, sz.Width, sz.Height)
			resized, ok := m.Resize(shape, h, d, minSize)
			if !ok {
				return fmt.Errorf("degenerate geometry: image %s in container %s", m.Image, m.Container)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "before: center %s size %.2fx%.2f\n", shape.Center, shape.Width, shape.Height)
			fmt.Fprintf(w, "after:  center %s size %.2fx%.2f\n", resized.Center, resized.Width, resized.Height)
			if e, ok := viewport.PixelEllipse(resized, m.Image, m.Container); ok {
				fmt.Fprintf(w, "pixels: center %s radii %.2fx%.2f\n", e.Center, e.RadiusX, e.RadiusY)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&size, "size", "100x50", "shape size WxH in points")
	cmd.Flags().StringVar(&center, "center", "0.5,0.5", "shape centre x,y (normalized)")
	cmd.Flags().StringVar(&handle, "handle", "trailing", "handle: top|bottom|leading|trailing")
	cmd.Flags().StringVar(&drag, "drag", "0,0", "drag translation dx,dy in screen points")
	cmd.Flags().Float64Var(&minSize, "min", viewport.DefaultMinShapeSize, "minimum shape size")
	cmd.Flags().BoolVar(&legacy, "legacy-min", false, "use the older 30 point minimum")

	return cmd
}
