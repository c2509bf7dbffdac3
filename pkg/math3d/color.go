package math3d

import "image/color"

// Color4 is a floating point RGBA color. Channels are conceptually in [0,1]
// but the type does not clamp them.
type Color4 struct {
	R, G, B, A float64
}

// White is opaque white, the fallback texel.
var White = Color4{1, 1, 1, 1}

// C4 creates a new Color4.
func C4(r, g, b, a float64) Color4 {
	return Color4{r, g, b, a}
}

// Mul returns the channel-wise product of two colors.
func (c Color4) Mul(o Color4) Color4 {
	return Color4{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// RGBA8 converts to 8-bit channels (c*255, truncated).
func (c Color4) RGBA8() color.RGBA {
	return color.RGBA{
		R: channel8(c.R),
		G: channel8(c.G),
		B: channel8(c.B),
		A: channel8(c.A),
	}
}

// FromRGBA8 converts 8-bit channels to a Color4.
func FromRGBA8(c color.RGBA) Color4 {
	return Color4{
		float64(c.R) / 255.0,
		float64(c.G) / 255.0,
		float64(c.B) / 255.0,
		float64(c.A) / 255.0,
	}
}

// channel8 truncates v*255 into a byte; out-of-range values saturate
// instead of wrapping.
func channel8(v float64) uint8 {
	v *= 255
	if !(v > 0) { // also catches NaN
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
