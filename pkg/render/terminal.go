package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// halfBlock is the upper half block: the foreground paints the top pixel
// and the background the bottom one.
const halfBlock = "▀"

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. Each terminal row shows two framebuffer rows, so the framebuffer
// should be twice as tall as area.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1
		if topY >= fb.Height {
			break
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= fb.Width {
				break
			}

			scr.SetCell(col, row, &uv.Cell{
				Content: halfBlock,
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(x, topY)),
					Bg: rgbaToColor(fb.GetPixel(x, botY)),
				},
			})
		}
	}
}

// rgbaToColor maps a fully transparent pixel to the terminal default.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil
	}
	return c
}

// TerminalRenderer presents framebuffers on a cell screen.
type TerminalRenderer struct {
	scr  uv.Screen
	cols int
	rows int
}

// NewTerminalRenderer creates a renderer for a cols x rows cell area.
func NewTerminalRenderer(scr uv.Screen, cols, rows int) *TerminalRenderer {
	return &TerminalRenderer{scr: scr, cols: cols, rows: rows}
}

// FramebufferSize returns the pixel size that fills the cell area.
func (t *TerminalRenderer) FramebufferSize() (width, height int) {
	return t.cols, t.rows * 2
}

// Render draws fb into the top-left of the screen.
func (t *TerminalRenderer) Render(fb *Framebuffer) {
	fb.Draw(t.scr, uv.Rect(0, 0, t.cols, t.rows))
}
