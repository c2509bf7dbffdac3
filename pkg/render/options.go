package render

import (
	"image/color"

	"github.com/taigrr/softengine/pkg/math3d"
)

// Option configures a Device during creation.
//
// Example:
//
//	dev := render.NewDevice(640, 480,
//		render.WithShading(render.ShadingFlat),
//		render.WithClearColor(color.RGBA{30, 30, 40, 255}))
type Option func(*config)

// config holds the tunable state of a Device.
type config struct {
	shading ShadingMode
	clear   color.RGBA
	light   math3d.Vec3
}

func defaultConfig() config {
	return config{
		shading: ShadingGouraud,
		clear:   color.RGBA{}, // transparent black
		light:   DefaultLight,
	}
}

// WithShading selects flat or Gouraud shading.
func WithShading(m ShadingMode) Option {
	return func(c *config) {
		c.shading = m
	}
}

// WithClearColor sets the color Clear fills the framebuffer with.
func WithClearColor(clr color.RGBA) Option {
	return func(c *config) {
		c.clear = clr
	}
}

// WithLight moves the point light.
func WithLight(pos math3d.Vec3) Option {
	return func(c *config) {
		c.light = pos
	}
}
