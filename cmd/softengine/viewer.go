package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/softengine/internal/scene"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/models"
	"github.com/taigrr/softengine/pkg/render"
	"github.com/taigrr/softengine/pkg/texture"
)

const (
	torqueStrength = 3.0
	zoomStep       = 0.5
	minZoom        = 2.5
	maxZoom        = 30.0
	dragImpulse    = 0.03
)

// ViewState holds the viewer toggles.
type ViewState struct {
	TextureEnabled bool
	Wireframe      bool
	Axes           bool
	Paused         bool
	ShowHUD        bool
	Shading        render.ShadingMode
}

// viewer owns everything the render loop touches. Only the loop goroutine
// mutates it.
type viewer struct {
	term   *uv.Terminal
	tr     *render.TerminalRenderer
	dev    *render.Device
	cam    *render.Camera
	opts   *options
	meshes []*models.Mesh
	// textures remembers mesh textures while texturing is toggled off.
	textures []*texture.Texture
	rot      *scene.RotationState
	hud      *HUD
	state    ViewState

	width, height int
	torque        struct{ pitch, yaw, roll float64 }
	mouseDown     bool
	lastX, lastY  int
}

func runViewer(ctx context.Context, modelPath string, opts *options) error {
	meshes, err := loadScene(ctx, modelPath, opts)
	if err != nil {
		return err
	}

	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	if err := term.Resize(width, height); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}
	// Any-event mouse tracking with SGR coordinates.
	_, _ = term.WriteString("\x1b[?1003h\x1b[?1006h")

	defer func() {
		_, _ = term.WriteString("\x1b[?1003l\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}()

	name := "cube"
	if modelPath != "" {
		name = filepath.Base(modelPath)
	}
	_, faces := scene.Stats(meshes)

	v := &viewer{
		term:   term,
		cam:    opts.camera(),
		opts:   opts,
		meshes: meshes,
		rot:    scene.NewRotationState(opts.fps),
		hud:    NewHUD(name, faces),
		state: ViewState{
			TextureEnabled: true,
			Wireframe:      opts.wireframe,
			Axes:           opts.axes,
			Shading:        opts.shadingMode,
		},
	}
	v.textures = make([]*texture.Texture, len(meshes))
	for i, m := range meshes {
		v.textures[i] = m.Texture
	}
	v.resize(width, height)
	v.dev = render.NewDevice(v.fbSize())
	v.dev.SetShading(opts.shadingMode)
	v.dev.SetClearColor(opts.bgColor)
	v.dev.SetLight(opts.lightPos)

	return v.loop(ctx, opts.fps)
}

func (v *viewer) fbSize() (int, int) {
	return v.tr.FramebufferSize()
}

func (v *viewer) resize(width, height int) {
	v.width, v.height = width, height
	v.tr = render.NewTerminalRenderer(v.term, width, height)
	if v.dev != nil {
		v.dev.Resize(v.fbSize())
	}
}

// loop renders frames at fps until ctx is done or the user quits. Input
// arrives on a separate goroutine and is applied between frames.
func (v *viewer) loop(ctx context.Context, fps int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan uv.Event, 64)
	go func() {
		for ev := range v.term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if quit := v.handle(ev); quit {
				return nil
			}
		case now := <-ticker.C:
			dt := min(now.Sub(last).Seconds(), 0.1)
			last = now
			if err := v.frame(dt); err != nil {
				return err
			}
		}
	}
}

// frame advances the animation by dt seconds and presents one image.
func (v *viewer) frame(dt float64) error {
	// Key release events are unreliable, so held torque decays on its own.
	v.rot.ApplyImpulse(v.torque.pitch*dt, v.torque.yaw*dt, v.torque.roll*dt)
	v.torque.pitch *= 0.9
	v.torque.yaw *= 0.9
	v.torque.roll *= 0.9

	v.rot.Paused = v.state.Paused
	v.rot.Update()
	v.rot.Apply(v.meshes)

	drawFrame(v.dev, v.cam, v.meshes, v.state.Wireframe, v.state.Axes)
	v.tr.Render(v.dev.Framebuffer())

	v.hud.UpdateFPS()
	v.hud.Draw(v.term, v.width, v.height, &v.state, v.dev.Stats)

	if err := v.term.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func (v *viewer) setTextures(on bool) {
	v.state.TextureEnabled = on
	for i, m := range v.meshes {
		if on {
			m.Texture = v.textures[i]
		} else {
			m.Texture = nil
		}
	}
}

// orbitLight turns the light a quarter turn about the world Y axis.
func (v *viewer) orbitLight() {
	v.dev.SetLight(math3d.TransformCoordinates(v.dev.Light(), math3d.RotationY(math.Pi/2)))
}

func (v *viewer) zoom(delta float64) {
	d := v.cam.Distance() + delta
	v.cam.Dolly(min(d, maxZoom), minZoom)
}

// handle applies one input event. It reports whether the viewer should
// exit.
func (v *viewer) handle(ev uv.Event) bool {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.term.Erase()
		_ = v.term.Resize(ev.Width, ev.Height)
		v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("esc", "ctrl+c"):
			return true
		case ev.MatchString("w", "up"):
			v.torque.pitch = -torqueStrength
		case ev.MatchString("s", "down"):
			v.torque.pitch = torqueStrength
		case ev.MatchString("a", "left"):
			v.torque.yaw = -torqueStrength
		case ev.MatchString("d", "right"):
			v.torque.yaw = torqueStrength
		case ev.MatchString("q"):
			v.torque.roll = -torqueStrength
		case ev.MatchString("e"):
			v.torque.roll = torqueStrength
		case ev.MatchString("space"):
			v.rot.ApplyImpulse(
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
				(rand.Float64()-0.5)*1.5,
			)
		case ev.MatchString("p"):
			v.state.Paused = !v.state.Paused
		case ev.MatchString("r"):
			v.rot.Reset()
			v.cam = v.opts.camera()
			v.dev.SetLight(v.opts.lightPos)
		case ev.MatchString("f"):
			if v.state.Shading == render.ShadingFlat {
				v.state.Shading = render.ShadingGouraud
			} else {
				v.state.Shading = render.ShadingFlat
			}
			v.dev.SetShading(v.state.Shading)
		case ev.MatchString("t"):
			v.setTextures(!v.state.TextureEnabled)
		case ev.MatchString("x"):
			v.state.Wireframe = !v.state.Wireframe
		case ev.MatchString("g"):
			v.state.Axes = !v.state.Axes
		case ev.MatchString("l"):
			v.orbitLight()
		case ev.MatchString("?", "shift+/"):
			v.state.ShowHUD = !v.state.ShowHUD
		case ev.MatchString("+", "="):
			v.zoom(-zoomStep)
		case ev.MatchString("-", "_"):
			v.zoom(zoomStep)
		}

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w", "up", "s", "down"):
			v.torque.pitch = 0
		case ev.MatchString("a", "left", "d", "right"):
			v.torque.yaw = 0
		case ev.MatchString("q", "e"):
			v.torque.roll = 0
		}

	case uv.MouseClickEvent:
		v.mouseDown = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.mouseDown {
			dx, dy := ev.X-v.lastX, ev.Y-v.lastY
			v.rot.ApplyImpulse(float64(dy)*dragImpulse, float64(dx)*dragImpulse, 0)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.zoom(-zoomStep)
		case uv.MouseWheelDown:
			v.zoom(zoomStep)
		}
	}
	return false
}
