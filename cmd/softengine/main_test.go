package main

import (
	"context"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/models"
	"github.com/taigrr/softengine/pkg/render"
)

func TestOptionsParse(t *testing.T) {
	tests := []struct {
		name    string
		opts    options
		wantErr string
	}{
		{"defaults", options{fps: 60, width: 640, height: 480, bg: "30,30,40", shading: "gouraud", fov: 45}, ""},
		{"hex background", options{fps: 30, width: 8, height: 8, bg: "#102030", shading: "flat", fov: 45}, ""},
		{"light", options{fps: 30, width: 8, height: 8, bg: "0,0,0", shading: "flat", fov: 60, light: "5,5,-5"}, ""},
		{"bad fps", options{fps: 0, width: 8, height: 8, bg: "0,0,0", shading: "flat", fov: 45}, "--fps"},
		{"bad size", options{fps: 1, width: 0, height: 8, bg: "0,0,0", shading: "flat", fov: 45}, "--width"},
		{"bad color", options{fps: 1, width: 8, height: 8, bg: "nope", shading: "flat", fov: 45}, "--bg"},
		{"bad shading", options{fps: 1, width: 8, height: 8, bg: "0,0,0", shading: "phong", fov: 45}, "--shading"},
		{"bad fov", options{fps: 1, width: 8, height: 8, bg: "0,0,0", shading: "flat", fov: 180}, "--fov"},
		{"bad light", options{fps: 1, width: 8, height: 8, bg: "0,0,0", shading: "flat", fov: 45, light: "1,2"}, "--light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.parse()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsLightAndFOV(t *testing.T) {
	opts := options{fps: 1, width: 8, height: 8, bg: "0,0,0", shading: "flat", fov: 90}
	if err := opts.parse(); err != nil {
		t.Fatal(err)
	}
	if opts.lightPos != render.DefaultLight {
		t.Errorf("light = %v, want DefaultLight", opts.lightPos)
	}
	if got := opts.camera().FOV; math.Abs(got-math.Pi/2) > 1e-12 {
		t.Errorf("fov = %v rad, want pi/2", got)
	}

	opts.light = "1,2,3"
	if err := opts.parse(); err != nil {
		t.Fatal(err)
	}
	if opts.lightPos != math3d.V3(1, 2, 3) {
		t.Errorf("light = %v, want (1,2,3)", opts.lightPos)
	}
}

func TestDrawFrameAxes(t *testing.T) {
	colors := func(fb *render.Framebuffer) map[color.RGBA]bool {
		found := map[color.RGBA]bool{}
		for y := range fb.Height {
			for x := range fb.Width {
				found[fb.GetPixel(x, y)] = true
			}
		}
		return found
	}

	dev := render.NewDevice(64, 64)
	cam := render.NewCamera()
	drawFrame(dev, cam, []*models.Mesh{}, false, true)
	found := colors(dev.Framebuffer())
	for _, c := range []color.RGBA{render.AxisX, render.AxisY} {
		if !found[c] {
			t.Errorf("axis color %v missing from the frame", c)
		}
	}

	drawFrame(dev, cam, nil, false, false)
	if colors(dev.Framebuffer())[render.AxisX] {
		t.Error("axes drawn with the overlay off")
	}
}

func TestOrbitLight(t *testing.T) {
	v := &viewer{dev: render.NewDevice(4, 4)}
	start := v.dev.Light()
	v.orbitLight()
	turned := v.dev.Light()
	if turned.Sub(start).Len() < 1 {
		t.Fatalf("light did not move: %v", turned)
	}
	if math.Abs(turned.Y-start.Y) > 1e-9 || math.Abs(turned.Len()-start.Len()) > 1e-9 {
		t.Errorf("orbit changed height or distance: %v -> %v", start, turned)
	}
	for range 3 {
		v.orbitLight()
	}
	if v.dev.Light().Sub(start).Len() > 1e-9 {
		t.Errorf("four quarter turns ended at %v, want %v", v.dev.Light(), start)
	}
}

func TestRunSnapshot(t *testing.T) {
	for _, wire := range []bool{false, true} {
		out := filepath.Join(t.TempDir(), "cube.png")
		opts := &options{
			fps: 60, width: 96, height: 64, frames: 10, wireframe: wire, axes: wire,
			bg: "#000000", shading: "flat", snapshot: out, fov: 45, texturePath: "checker",
		}
		if err := opts.parse(); err != nil {
			t.Fatal(err)
		}
		if err := runSnapshot(context.Background(), "", opts); err != nil {
			t.Fatalf("wireframe=%v: %v", wire, err)
		}

		f, err := os.Open(out)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() != 96 || b.Dy() != 64 {
			t.Errorf("snapshot is %v, want 96x64", b)
		}
		bg := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
		if bg != (color.RGBA{0, 0, 0, 255}) {
			t.Errorf("background = %v, want opaque black", bg)
		}
		if c := color.RGBAModel.Convert(img.At(48, 32)).(color.RGBA); !wire && c == bg {
			t.Error("cube missing from the center of the snapshot")
		}
	}
}

func TestHUDLines(t *testing.T) {
	h := NewHUD("monkey.babylon", 968)
	vs := &ViewState{TextureEnabled: true, Shading: render.ShadingFlat}

	top := h.TopLine(80)
	if w := ansi.StringWidth(top); w != 80 {
		t.Errorf("top line width = %d, want 80", w)
	}
	if plain := ansi.Strip(top); !strings.Contains(plain, "monkey.babylon") || !strings.Contains(plain, "968 faces") {
		t.Errorf("top line %q missing model info", plain)
	}

	bottom := ansi.Strip(h.BottomLine(80, vs, render.Stats{PixelsWritten: 12}))
	for _, want := range []string{"[✓] Texture", "[ ] X-Ray", "shading: flat", "12 px"} {
		if !strings.Contains(bottom, want) {
			t.Errorf("bottom line %q missing %q", bottom, want)
		}
	}
}
