package main

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/taigrr/softengine/pkg/render"
)

// HUD renders an overlay with model info and view toggles.
type HUD struct {
	filename  string
	faceCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time

	bar    lipgloss.Style
	title  lipgloss.Style
	accent lipgloss.Style
	dim    lipgloss.Style
}

// NewHUD creates a HUD for a model.
func NewHUD(filename string, faceCount int) *HUD {
	bar := lipgloss.NewStyle().Background(charmtone.Pepper).Foreground(charmtone.Squid)
	return &HUD{
		filename:  filename,
		faceCount: faceCount,
		fpsTime:   time.Now(),
		bar:       bar,
		title:     bar.Bold(true).Foreground(charmtone.Charple),
		accent:    bar.Foreground(charmtone.Guac),
		dim:       bar.Faint(true),
	}
}

// UpdateFPS counts a frame and refreshes the FPS estimate once a second.
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

func check(on bool) string {
	if on {
		return "[✓]"
	}
	return "[ ]"
}

// TopLine returns the styled header: FPS, file name and face count.
func (h *HUD) TopLine(width int) string {
	left := h.accent.Render(fmt.Sprintf(" %.0f FPS ", h.fps))
	mid := h.title.Render(" " + h.filename + " ")
	right := h.bar.Render(fmt.Sprintf(" %d faces ", h.faceCount))
	return h.spread(width, left, mid, right)
}

// BottomLine returns the styled footer: mode toggles and pipeline counters.
func (h *HUD) BottomLine(width int, vs *ViewState, stats render.Stats) string {
	left := h.bar.Render(fmt.Sprintf(" %s Texture  %s X-Ray  %s Spin  shading: %s ",
		check(vs.TextureEnabled), check(vs.Wireframe), check(!vs.Paused), vs.Shading))
	right := h.dim.Render(fmt.Sprintf(" %d px  %d rejected ", stats.PixelsWritten, stats.DepthRejected))
	return h.spread(width, left, "", right)
}

// spread places left, mid and right across width, padding with the bar
// style.
func (h *HUD) spread(width int, left, mid, right string) string {
	lw, mw, rw := lipgloss.Width(left), lipgloss.Width(mid), lipgloss.Width(right)
	gap := width - lw - mw - rw
	if gap < 0 {
		return left
	}
	leftGap := max((width-mw)/2-lw, 0)
	if leftGap > gap {
		leftGap = gap
	}
	return left + h.bar.Render(strings.Repeat(" ", leftGap)) + mid + h.bar.Render(strings.Repeat(" ", gap-leftGap)) + right
}

// Draw paints the HUD rows over the frame on scr.
func (h *HUD) Draw(scr uv.Screen, width, height int, vs *ViewState, stats render.Stats) {
	if !vs.ShowHUD || height < 2 {
		return
	}
	uv.NewStyledString(h.TopLine(width)).Draw(scr, uv.Rect(0, 0, width, 1))
	uv.NewStyledString(h.BottomLine(width, vs, stats)).Draw(scr, uv.Rect(0, height-1, width, 1))
}
