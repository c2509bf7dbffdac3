// softengine-window - software 3D rasterizer in a desktop window
// The pipeline renders on the CPU; ebiten only uploads the finished frame.
//
// Controls:
//
//	Arrows      - Rotate model
//	Space       - Pause the demo spin
//	F           - Toggle flat/Gouraud shading
//	X           - Toggle wireframe mode
//	G           - Toggle axes overlay
//	L           - Orbit the light a quarter turn
//	R           - Reset rotation
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"
	"github.com/taigrr/softengine/internal/scene"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/models"
	"github.com/taigrr/softengine/pkg/render"
)

var version = "dev"

const (
	keyImpulse = 0.004
	axisLength = 1.5
)

var wireColor = color.RGBAModel.Convert(charmtone.Guac).(color.RGBA)

type options struct {
	texturePath string
	width       int
	height      int
	scale       int
	tps         int
	bg          string
	shading     string
	light       string
	fov         float64
	wireframe   bool
	axes        bool
	verbose     bool
}

// game adapts a render.Device to ebiten's update/draw cycle.
type game struct {
	ctx       context.Context
	dev       *render.Device
	cam       *render.Camera
	meshes    []*models.Mesh
	rot       *scene.RotationState
	light     math3d.Vec3
	wireframe bool
	axes      bool
	pixels    []byte
}

func (g *game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.rot.ApplyImpulse(-keyImpulse, 0, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.rot.ApplyImpulse(keyImpulse, 0, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.rot.ApplyImpulse(0, -keyImpulse, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.rot.ApplyImpulse(0, keyImpulse, 0)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.rot.Paused = !g.rot.Paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.rot.Reset()
		g.dev.SetLight(g.light)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		g.wireframe = !g.wireframe
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.axes = !g.axes
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.dev.SetLight(math3d.TransformCoordinates(g.dev.Light(), math3d.RotationY(math.Pi/2)))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		if g.dev.Shading() == render.ShadingFlat {
			g.dev.SetShading(render.ShadingGouraud)
		} else {
			g.dev.SetShading(render.ShadingFlat)
		}
	}

	g.rot.Update()
	g.rot.Apply(g.meshes)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.dev.Clear()
	w := render.NewWireframe(g.cam, g.dev)
	if g.wireframe {
		for _, m := range g.meshes {
			w.DrawMesh(m, wireColor)
		}
	} else {
		g.dev.Render(g.cam, g.meshes)
	}
	if g.axes {
		w.DrawAxes(axisLength)
	}

	n := 4 * g.dev.Width() * g.dev.Height()
	if len(g.pixels) != n {
		g.pixels = make([]byte, n)
	}
	g.dev.Framebuffer().CopyRGBA(g.pixels)
	screen.WritePixels(g.pixels)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.dev.Width(), g.dev.Height()
}

func run(ctx context.Context, modelPath string, opts *options) error {
	bg, err := scene.ParseColor(opts.bg)
	if err != nil {
		return fmt.Errorf("--bg: %w", err)
	}
	shading, err := render.ParseShadingMode(opts.shading)
	if err != nil {
		return fmt.Errorf("--shading: %w", err)
	}
	light := render.DefaultLight
	if opts.light != "" {
		if light, err = scene.ParseVec3(opts.light); err != nil {
			return fmt.Errorf("--light: %w", err)
		}
	}
	if !(opts.fov > 0 && opts.fov < 180) {
		return fmt.Errorf("--fov must be between 0 and 180 degrees, got %v", opts.fov)
	}
	cam := render.NewCamera()
	cam.SetFOV(opts.fov * math.Pi / 180)

	meshes, err := scene.Load(ctx, modelPath)
	if err != nil {
		return err
	}
	if opts.texturePath != "" {
		scene.ApplyTexture(ctx, meshes, opts.texturePath,
			models.BabylonTextureSize, models.BabylonTextureSize)
	}
	scene.LogLoaded(modelPath, meshes)

	dev := render.NewDevice(opts.width, opts.height,
		render.WithShading(shading),
		render.WithClearColor(bg),
		render.WithLight(light))

	g := &game{
		ctx:       ctx,
		dev:       dev,
		cam:       cam,
		meshes:    meshes,
		rot:       scene.NewRotationState(opts.tps),
		light:     light,
		wireframe: opts.wireframe,
		axes:      opts.axes,
	}

	title := "softengine"
	if modelPath != "" {
		title += " - " + filepath.Base(modelPath)
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(opts.width*opts.scale, opts.height*opts.scale)
	ebiten.SetTPS(opts.tps)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "softengine-window [model.babylon|model.json|model.glb]",
		Short: "Software 3D rasterizer in a desktop window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.width <= 0 || opts.height <= 0 || opts.scale <= 0 || opts.tps <= 0 {
				return fmt.Errorf("--width, --height, --scale and --tps must be positive")
			}
			if opts.verbose {
				render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
					&slog.HandlerOptions{Level: slog.LevelDebug})))
			}
			var modelPath string
			if len(args) > 0 {
				modelPath = args[0]
			}
			return run(cmd.Context(), modelPath, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.texturePath, "texture", "", "texture image applied to every mesh, or \"checker\"")
	f.IntVar(&opts.width, "width", 640, "render width in pixels")
	f.IntVar(&opts.height, "height", 480, "render height in pixels")
	f.IntVar(&opts.scale, "scale", 1, "window scale factor")
	f.IntVar(&opts.tps, "tps", 60, "updates per second")
	f.StringVar(&opts.bg, "bg", "0,0,0", "background color as R,G,B or #rrggbb")
	f.StringVar(&opts.shading, "shading", "gouraud", "shading mode: gouraud or flat")
	f.StringVar(&opts.light, "light", "", "point light position as X,Y,Z (default 0,10,10)")
	f.Float64Var(&opts.fov, "fov", render.DefaultFOV*180/math.Pi, "vertical field of view in degrees")
	f.BoolVar(&opts.wireframe, "wireframe", false, "draw triangle edges instead of filled faces")
	f.BoolVar(&opts.axes, "axes", false, "overlay the world X/Y/Z axes")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline and loader events to stderr")
	return cmd
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
