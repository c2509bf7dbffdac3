// Package render provides the software rasterization pipeline: projection,
// scanline triangle fill, depth testing, shading and pixel writes.
package render

import (
	"image/color"
	"math"

	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/models"
	"github.com/taigrr/softengine/pkg/texture"
)

// ProjectedVertex is a mesh vertex after projection. Coordinates holds the
// pixel position in X and Y and the post-divide depth in Z.
type ProjectedVertex struct {
	Coordinates        math3d.Vec3
	Normal             math3d.Vec3 // world space
	WorldCoordinates   math3d.Vec3
	TextureCoordinates math3d.Vec2
}

// Device rasterizes meshes into a color buffer and a matching depth buffer.
// A Device is not safe for concurrent use.
type Device struct {
	fb    *Framebuffer
	depth *DepthBuffer
	cfg   config

	// Stats accumulates until the next Clear.
	Stats Stats
}

// NewDevice creates a device with a width x height render target.
func NewDevice(width, height int, opts ...Option) *Device {
	d := &Device{
		fb:    NewFramebuffer(width, height),
		depth: NewDepthBuffer(width, height),
		cfg:   defaultConfig(),
	}
	for _, opt := range opts {
		opt(&d.cfg)
	}
	d.fb.Clear(d.cfg.clear)
	Logger().Debug("device created", "width", width, "height", height,
		"shading", d.cfg.shading)
	return d
}

// Width returns the render target width in pixels.
func (d *Device) Width() int { return d.fb.Width }

// Height returns the render target height in pixels.
func (d *Device) Height() int { return d.fb.Height }

// Framebuffer returns the color buffer.
func (d *Device) Framebuffer() *Framebuffer { return d.fb }

// DepthBuffer returns the depth buffer.
func (d *Device) DepthBuffer() *DepthBuffer { return d.depth }

// Shading returns the current shading mode.
func (d *Device) Shading() ShadingMode { return d.cfg.shading }

// SetShading changes the shading mode for subsequent triangles.
func (d *Device) SetShading(m ShadingMode) { d.cfg.shading = m }

// Light returns the point light position.
func (d *Device) Light() math3d.Vec3 { return d.cfg.light }

// SetLight moves the point light.
func (d *Device) SetLight(pos math3d.Vec3) { d.cfg.light = pos }

// SetClearColor changes the color used by Clear.
func (d *Device) SetClearColor(c color.RGBA) { d.cfg.clear = c }

// Resize reallocates the color and depth buffers together. A resize to the
// current size is a no-op.
func (d *Device) Resize(width, height int) {
	if width == d.fb.Width && height == d.fb.Height {
		return
	}
	d.fb.Resize(width, height)
	d.depth.Resize(width, height)
	d.fb.Clear(d.cfg.clear)
	Logger().Debug("device resized", "width", width, "height", height)
}

// Clear fills the color buffer with the clear color, resets every depth
// cell and zeroes Stats.
func (d *Device) Clear() {
	d.fb.Clear(d.cfg.clear)
	d.depth.Clear()
	d.Stats = Stats{}
}

// Render draws every face of every mesh as seen from cam. It does not clear
// the buffers first.
func (d *Device) Render(cam *Camera, meshes []*models.Mesh) {
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(float64(d.fb.Width) / float64(d.fb.Height))

	for _, mesh := range meshes {
		world := worldMatrix(mesh)
		transform := world.Mul(view).Mul(proj)

		for _, f := range mesh.Faces {
			a := d.Project(mesh.Vertices[f.A], transform, world)
			b := d.Project(mesh.Vertices[f.B], transform, world)
			c := d.Project(mesh.Vertices[f.C], transform, world)

			d.DrawTriangle(a, b, c, math3d.White, mesh.Texture)
		}
	}
}

// worldMatrix places a mesh: rotation first, then translation.
func worldMatrix(mesh *models.Mesh) math3d.Mat4 {
	r, p := mesh.Rotation, mesh.Position
	return math3d.RotationYawPitchRoll(r.Y, r.X, r.Z).
		Mul(math3d.Translation(p.X, p.Y, p.Z))
}

// Project maps a vertex to pixel space with transform and carries its world
// position and normal, both transformed as points by world.
func (d *Device) Project(v models.Vertex, transform, world math3d.Mat4) ProjectedVertex {
	p := math3d.TransformCoordinates(v.Coordinates, transform)
	w, h := float64(d.fb.Width), float64(d.fb.Height)

	return ProjectedVertex{
		Coordinates: math3d.Vec3{
			X: p.X*w + w/2.0,
			Y: -p.Y*h + h/2.0,
			Z: p.Z,
		},
		Normal:             math3d.TransformCoordinates(v.Normal, world),
		WorldCoordinates:   math3d.TransformCoordinates(v.Coordinates, world),
		TextureCoordinates: v.TextureCoordinates,
	}
}

// scanLine carries the per-row lighting and texture endpoints of the two
// edges that bound a span: a-b is the start edge, c-d the end edge.
type scanLine struct {
	y int

	ndotla, ndotlb, ndotlc, ndotld float64
	ua, ub, uc, ud                 float64
	va, vb, vc, vd                 float64
}

// edgePair builds the scanLine for edges a-b and c-d with their lighting
// terms.
func edgePair(y int, a, b, c, d *ProjectedVertex, na, nb, nc, nd float64) scanLine {
	return scanLine{
		y:      y,
		ndotla: na, ndotlb: nb, ndotlc: nc, ndotld: nd,
		ua: a.TextureCoordinates.X, ub: b.TextureCoordinates.X,
		uc: c.TextureCoordinates.X, ud: d.TextureCoordinates.X,
		va: a.TextureCoordinates.Y, vb: b.TextureCoordinates.Y,
		vc: c.TextureCoordinates.Y, vd: d.TextureCoordinates.Y,
	}
}

// DrawTriangle rasterizes one triangle with scanline filling. color is the
// base color; tex may be nil. Triangles with a non-finite screen coordinate
// are skipped.
func (d *Device) DrawTriangle(v1, v2, v3 ProjectedVertex, color math3d.Color4, tex *texture.Texture) {
	d.Stats.Triangles++
	if !v1.Coordinates.IsFinite() || !v2.Coordinates.IsFinite() || !v3.Coordinates.IsFinite() {
		d.Stats.Skipped++
		return
	}

	// Sort so that v1 is the top vertex and v3 the bottom one.
	if v1.Coordinates.Y > v2.Coordinates.Y {
		v1, v2 = v2, v1
	}
	if v2.Coordinates.Y > v3.Coordinates.Y {
		v2, v3 = v3, v2
	}
	if v1.Coordinates.Y > v2.Coordinates.Y {
		v1, v2 = v2, v1
	}

	p1, p2, p3 := v1.Coordinates, v2.Coordinates, v3.Coordinates

	var nl1, nl2, nl3 float64
	light := d.cfg.light
	switch d.cfg.shading {
	case ShadingFlat:
		n := v1.Normal.Add(v2.Normal).Add(v3.Normal).Scale(1.0 / 3.0)
		c := v1.WorldCoordinates.Add(v2.WorldCoordinates).Add(v3.WorldCoordinates).Scale(1.0 / 3.0)
		nl := ComputeNDotL(c, n, light)
		nl1, nl2, nl3 = nl, nl, nl
	default:
		nl1 = ComputeNDotL(v1.WorldCoordinates, v1.Normal, light)
		nl2 = ComputeNDotL(v2.WorldCoordinates, v2.Normal, light)
		nl3 = ComputeNDotL(v3.WorldCoordinates, v3.Normal, light)
	}

	// Inverse slopes of the edges leaving the top vertex.
	var dP1P2, dP1P3 float64
	if p2.Y > p1.Y {
		dP1P2 = (p2.X - p1.X) / (p2.Y - p1.Y)
	}
	if p3.Y > p1.Y {
		dP1P3 = (p3.X - p1.X) / (p3.Y - p1.Y)
	}

	top, bottom := math.Floor(p1.Y), math.Floor(p3.Y)
	maxY := float64(d.fb.Height - 1)
	if bottom < 0 || top > maxY {
		return
	}
	yStart := int(math.Max(top, 0))
	yEnd := int(math.Min(bottom, maxY))

	// When P2 lies right of edge P1-P3 the span starts on P1-P3; otherwise
	// it ends there.
	p2Right := dP1P2 > dP1P3

	for y := yStart; y <= yEnd; y++ {
		upper := float64(y) < p2.Y
		switch {
		case p2Right && upper:
			d.processScanLine(edgePair(y, &v1, &v3, &v1, &v2, nl1, nl3, nl1, nl2), &v1, &v3, &v1, &v2, color, tex)
		case p2Right:
			d.processScanLine(edgePair(y, &v1, &v3, &v2, &v3, nl1, nl3, nl2, nl3), &v1, &v3, &v2, &v3, color, tex)
		case upper:
			d.processScanLine(edgePair(y, &v1, &v2, &v1, &v3, nl1, nl2, nl1, nl3), &v1, &v2, &v1, &v3, color, tex)
		default:
			d.processScanLine(edgePair(y, &v2, &v3, &v1, &v3, nl2, nl3, nl1, nl3), &v2, &v3, &v1, &v3, color, tex)
		}
	}
}

// processScanLine fills row s.y between edge a-b and edge c-d. Pixels run
// from the truncated start X up to, but excluding, the truncated end X.
func (d *Device) processScanLine(s scanLine, va, vb, vc, vd *ProjectedVertex, color math3d.Color4, tex *texture.Texture) {
	pa, pb := va.Coordinates, vb.Coordinates
	pc, pd := vc.Coordinates, vd.Coordinates
	y := float64(s.y)

	gradient1 := 1.0
	if pa.Y != pb.Y {
		gradient1 = (y - pa.Y) / (pb.Y - pa.Y)
	}
	gradient2 := 1.0
	if pc.Y != pd.Y {
		gradient2 = (y - pc.Y) / (pd.Y - pc.Y)
	}

	sx := math.Trunc(interpolate(pa.X, pb.X, gradient1))
	ex := math.Trunc(interpolate(pc.X, pd.X, gradient2))

	z1 := interpolate(pa.Z, pb.Z, gradient1)
	z2 := interpolate(pc.Z, pd.Z, gradient2)
	snl := interpolate(s.ndotla, s.ndotlb, gradient1)
	enl := interpolate(s.ndotlc, s.ndotld, gradient2)
	su := interpolate(s.ua, s.ub, gradient1)
	eu := interpolate(s.uc, s.ud, gradient2)
	sv := interpolate(s.va, s.vb, gradient1)
	ev := interpolate(s.vc, s.vd, gradient2)

	// A flat-topped triangle can hand the edges over in right-to-left
	// order; walk the span from its left end.
	if sx > ex {
		sx, ex = ex, sx
		z1, z2 = z2, z1
		snl, enl = enl, snl
		su, eu = eu, su
		sv, ev = ev, sv
	}
	if ex <= 0 || sx >= float64(d.fb.Width) || sx == ex {
		return
	}

	xStart := int(math.Max(sx, 0))
	xEnd := int(math.Min(ex, float64(d.fb.Width)))
	span := ex - sx

	for x := xStart; x < xEnd; x++ {
		gradient := (float64(x) - sx) / span

		z := interpolate(z1, z2, gradient)
		ndotl := interpolate(snl, enl, gradient)

		texel := math3d.White
		if tex != nil {
			u := interpolate(su, eu, gradient)
			v := interpolate(sv, ev, gradient)
			texel = tex.Map(u, v)
		}

		d.Stats.Fragments++
		c := color.Mul(math3d.C4(ndotl, ndotl, ndotl, 1)).Mul(texel)
		c.A = 1
		d.DrawPoint(x, s.y, z, c)
	}
}

// DrawPoint writes one pixel if (x, y) is inside the target and z passes
// the depth test. Points outside the target are discarded.
func (d *Device) DrawPoint(x, y int, z float64, c math3d.Color4) {
	if x < 0 || y < 0 || x >= d.fb.Width || y >= d.fb.Height {
		return
	}
	d.putPixel(x, y, z, c)
}

// putPixel writes when z is not farther than the stored depth.
func (d *Device) putPixel(x, y int, z float64, c math3d.Color4) {
	i := y*d.fb.Width + x
	if !d.depth.testAndSet(i, z) {
		d.Stats.DepthRejected++
		return
	}
	d.fb.Pixels[i] = c.RGBA8()
	d.Stats.PixelsWritten++
}
