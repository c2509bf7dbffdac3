package render

import (
	"github.com/taigrr/softengine/pkg/math3d"
)

// Default projection parameters of a new Camera.
const (
	DefaultFOV  = 0.78 // Vertical field of view in radians
	DefaultNear = 0.01
	DefaultFar  = 1.0
)

// Camera looks from Position at Target with world up (0, 1, 0).
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3

	// Projection parameters
	FOV  float64 // Vertical field of view in radians
	Near float64 // Near plane distance
	Far  float64 // Far plane distance

	// Cached matrices, rebuilt when their inputs change
	view    math3d.Mat4
	viewKey [2]math3d.Vec3
	viewOK  bool
	proj    math3d.Mat4
	projKey [4]float64
	projOK  bool
}

// NewCamera creates a camera at (0, 0, 10) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position: math3d.V3(0, 0, 10),
		Target:   math3d.Zero3(),
		FOV:      DefaultFOV,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// SetFOV sets the vertical field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
}

// Forward returns the unit direction from Position to Target.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalized()
}

// Distance returns the distance from Position to Target.
func (c *Camera) Distance() float64 {
	return c.Target.Sub(c.Position).Len()
}

// Dolly moves the camera along its view direction so that it ends up dist
// away from the target. dist is clamped to at least minDist.
func (c *Camera) Dolly(dist, minDist float64) {
	dist = max(dist, minDist)
	back := c.Forward().Negate()
	if back.LenSq() == 0 {
		back = math3d.V3(0, 0, 1)
	}
	c.Position = c.Target.Add(back.Scale(dist))
}

// ViewMatrix returns the left-handed look-at view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	key := [2]math3d.Vec3{c.Position, c.Target}
	if !c.viewOK || key != c.viewKey {
		c.view = math3d.LookAtLH(c.Position, c.Target, math3d.Up())
		c.viewKey = key
		c.viewOK = true
	}
	return c.view
}

// ProjectionMatrix returns the perspective projection for a target with
// the given width/height aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float64) math3d.Mat4 {
	key := [4]float64{c.FOV, aspect, c.Near, c.Far}
	if !c.projOK || key != c.projKey {
		c.proj = math3d.PerspectiveFovLH(c.FOV, aspect, c.Near, c.Far)
		c.projKey = key
		c.projOK = true
	}
	return c.proj
}
