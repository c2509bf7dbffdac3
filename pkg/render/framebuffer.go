package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Framebuffer is the RGBA8 color target of a Device.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []color.RGBA // Row-major pixel data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Resize reallocates the pixel storage. Contents are discarded.
func (fb *Framebuffer) Resize(width, height int) {
	fb.Width = width
	fb.Height = height
	fb.Pixels = make([]color.RGBA, width*height)
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	fb.Pixels[0] = c
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CopyRGBA writes the pixels as packed RGBA bytes into dst, which must hold
// at least 4*Width*Height bytes. It returns the number of bytes written.
func (fb *Framebuffer) CopyRGBA(dst []byte) int {
	n := 0
	for _, p := range fb.Pixels {
		dst[n] = p.R
		dst[n+1] = p.G
		dst[n+2] = p.B
		dst[n+3] = p.A
		n += 4
	}
	return n
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	fb.CopyRGBA(img.Pix)
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}
