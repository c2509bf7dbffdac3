// softengine - software 3D rasterizer viewer
// Renders Babylon JSON and glTF/GLB models in the terminal, or to a PNG.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	P           - Pause the demo spin
//	R           - Reset rotation
//	F           - Toggle flat/Gouraud shading
//	T           - Toggle texture on/off
//	X           - Toggle wireframe mode (x-ray)
//	G           - Toggle axes overlay
//	L           - Orbit the light a quarter turn
//	?           - Toggle HUD overlay
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/softengine/internal/scene"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/render"
)

var version = "dev"

type options struct {
	texturePath string
	fps         int
	bg          string
	shading     string
	snapshot    string
	width       int
	height      int
	frames      int
	light       string
	fov         float64
	wireframe   bool
	axes        bool
	verbose     bool

	// Parsed from the flags above.
	bgColor     color.RGBA
	shadingMode render.ShadingMode
	lightPos    math3d.Vec3
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "softengine [model.babylon|model.json|model.glb]",
		Short: "Software 3D rasterizer",
		Long: "softengine renders a mesh with a software rasterizer: perspective projection,\n" +
			"scanline fill, depth buffering and flat or Gouraud lighting.\n" +
			"Without a model it spins the demo cube.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.parse(); err != nil {
				return err
			}
			if opts.verbose {
				render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}

			var modelPath string
			if len(args) > 0 {
				modelPath = args[0]
			}
			if opts.snapshot != "" {
				return runSnapshot(cmd.Context(), modelPath, opts)
			}
			return runViewer(cmd.Context(), modelPath, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.texturePath, "texture", "", "texture image applied to every mesh (PNG/JPEG/GIF/BMP/TIFF/WebP), or \"checker\"")
	f.IntVar(&opts.fps, "fps", 60, "target frames per second")
	f.StringVar(&opts.bg, "bg", "30,30,40", "background color as R,G,B or #rrggbb")
	f.StringVar(&opts.shading, "shading", "gouraud", "shading mode: gouraud or flat")
	f.StringVar(&opts.snapshot, "snapshot", "", "render one frame to this PNG file and exit")
	f.IntVar(&opts.width, "width", 640, "snapshot width in pixels")
	f.IntVar(&opts.height, "height", 480, "snapshot height in pixels")
	f.IntVar(&opts.frames, "frames", 0, "demo spin frames to advance before the snapshot")
	f.StringVar(&opts.light, "light", "", "point light position as X,Y,Z (default 0,10,10)")
	f.Float64Var(&opts.fov, "fov", render.DefaultFOV*180/math.Pi, "vertical field of view in degrees")
	f.BoolVar(&opts.wireframe, "wireframe", false, "draw triangle edges instead of filled faces")
	f.BoolVar(&opts.axes, "axes", false, "overlay the world X/Y/Z axes")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline and loader events to stderr")

	return cmd
}

func (o *options) parse() error {
	if o.fps <= 0 {
		return fmt.Errorf("--fps must be positive, got %d", o.fps)
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("--width and --height must be positive, got %dx%d", o.width, o.height)
	}
	c, err := scene.ParseColor(o.bg)
	if err != nil {
		return fmt.Errorf("--bg: %w", err)
	}
	o.bgColor = c

	m, err := render.ParseShadingMode(o.shading)
	if err != nil {
		return fmt.Errorf("--shading: %w", err)
	}
	o.shadingMode = m

	if !(o.fov > 0 && o.fov < 180) {
		return fmt.Errorf("--fov must be between 0 and 180 degrees, got %v", o.fov)
	}
	o.lightPos = render.DefaultLight
	if o.light != "" {
		if o.lightPos, err = scene.ParseVec3(o.light); err != nil {
			return fmt.Errorf("--light: %w", err)
		}
	}
	return nil
}

// camera returns a camera with the --fov setting applied.
func (o *options) camera() *render.Camera {
	cam := render.NewCamera()
	cam.SetFOV(o.fov * math.Pi / 180)
	return cam
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
