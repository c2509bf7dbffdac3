package render

import "math"

// DepthSentinel is the value of an empty depth cell. Any finite depth
// passes the test against it.
const DepthSentinel = math.MaxFloat64

// DepthBuffer holds one depth value per framebuffer pixel, row-major.
// Smaller values are nearer.
type DepthBuffer struct {
	Width  int
	Height int
	Values []float64
}

// NewDepthBuffer creates a cleared depth buffer.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{}
	d.Resize(width, height)
	return d
}

// Resize reallocates the buffer and clears it.
func (d *DepthBuffer) Resize(width, height int) {
	d.Width = width
	d.Height = height
	d.Values = make([]float64, width*height)
	d.Clear()
}

// Clear resets every cell to DepthSentinel.
func (d *DepthBuffer) Clear() {
	// Use copy-doubling for faster clearing
	n := len(d.Values)
	if n == 0 {
		return
	}
	d.Values[0] = DepthSentinel
	for i := 1; i < n; i *= 2 {
		copy(d.Values[i:], d.Values[:i])
	}
}

// At returns the depth at (x, y), or DepthSentinel out of bounds.
func (d *DepthBuffer) At(x, y int) float64 {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return DepthSentinel
	}
	return d.Values[y*d.Width+x]
}

// testAndSet stores z at index i when z is not farther than the stored
// value. Equal depths pass, so the later write wins a tie.
func (d *DepthBuffer) testAndSet(i int, z float64) bool {
	if d.Values[i] < z {
		return false
	}
	d.Values[i] = z
	return true
}
