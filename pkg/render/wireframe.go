package render

import (
	"image/color"

	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/models"
)

// Axis colors used by DrawAxes.
var (
	AxisX = color.RGBA{255, 64, 64, 255}
	AxisY = color.RGBA{64, 255, 64, 255}
	AxisZ = color.RGBA{64, 128, 255, 255}
)

// Wireframe draws line overlays on a device's framebuffer. Lines ignore the
// depth buffer.
type Wireframe struct {
	camera *Camera
	dev    *Device
}

// NewWireframe creates a wireframe renderer drawing into dev as seen from
// camera.
func NewWireframe(camera *Camera, dev *Device) *Wireframe {
	return &Wireframe{
		camera: camera,
		dev:    dev,
	}
}

func (w *Wireframe) projection() math3d.Mat4 {
	aspect := float64(w.dev.Width()) / float64(w.dev.Height())
	return w.camera.ProjectionMatrix(aspect)
}

// screen maps a view-space point to pixel coordinates. It reports false
// when the result is not finite.
func (w *Wireframe) screen(p math3d.Vec3, proj math3d.Mat4) (math3d.Vec2, bool) {
	pv := w.dev.Project(models.Vertex{Coordinates: p}, proj, math3d.Identity())
	if !pv.Coordinates.IsFinite() {
		return math3d.Vec2{}, false
	}
	return pv.Coordinates.XY(), true
}

// line draws p1-p2 after toView. The part in front of the near plane is
// projected and clipped to the framebuffer before it is rasterized.
func (w *Wireframe) line(p1, p2 math3d.Vec3, toView, proj math3d.Mat4, c color.RGBA) {
	v1 := math3d.TransformCoordinates(p1, toView)
	v2 := math3d.TransformCoordinates(p2, toView)

	near := w.camera.Near
	switch {
	case !(v1.Z >= near) && !(v2.Z >= near):
		return
	case v1.Z < near:
		v1 = v1.Lerp(v2, (near-v1.Z)/(v2.Z-v1.Z))
	case v2.Z < near:
		v2 = v2.Lerp(v1, (near-v2.Z)/(v1.Z-v2.Z))
	}

	a, ok1 := w.screen(v1, proj)
	b, ok2 := w.screen(v2, proj)
	if !ok1 || !ok2 {
		return
	}
	// Clipping to the full extent keeps truncated endpoints on the last
	// pixel; DrawLine drops anything at Width or Height.
	a, b, ok := clipSegment(a, b, float64(w.dev.Width()), float64(w.dev.Height()))
	if !ok {
		return
	}
	w.dev.fb.DrawLine(int(a.X), int(a.Y), int(b.X), int(b.Y), c)
}

// clipSegment clips a-b to the rectangle [0, maxX] x [0, maxY] with the
// Liang-Barsky parametric test. It reports false when nothing is left.
func clipSegment(a, b math3d.Vec2, maxX, maxY float64) (math3d.Vec2, math3d.Vec2, bool) {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-d.X, a.X},
		{d.X, maxX - a.X},
		{-d.Y, a.Y},
		{d.Y, maxY - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = min(t1, r)
		}
	}

	// Untouched endpoints are returned as is so truncation stays exact.
	ca, cb := a, b
	if t0 > 0 {
		ca = a.Add(d.Scale(t0))
	}
	if t1 < 1 {
		cb = a.Add(d.Scale(t1))
	}
	return ca, cb, true
}

// DrawLine3D draws a line between two world-space points.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c color.RGBA) {
	w.line(p1, p2, w.camera.ViewMatrix(), w.projection(), c)
}

// DrawMesh draws every triangle edge of mesh, placed by its position and
// rotation.
func (w *Wireframe) DrawMesh(mesh *models.Mesh, c color.RGBA) {
	toView := worldMatrix(mesh).Mul(w.camera.ViewMatrix())
	proj := w.projection()
	for _, f := range mesh.Faces {
		a := mesh.Vertices[f.A].Coordinates
		b := mesh.Vertices[f.B].Coordinates
		cc := mesh.Vertices[f.C].Coordinates
		w.line(a, b, toView, proj, c)
		w.line(b, cc, toView, proj, c)
		w.line(cc, a, toView, proj, c)
	}
}

// DrawAxes draws the world axes from the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), AxisX)
	w.DrawLine3D(origin, math3d.V3(0, length, 0), AxisY)
	w.DrawLine3D(origin, math3d.V3(0, 0, length), AxisZ)
}
