package scene

import (
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/softengine/pkg/math3d"
	"github.com/taigrr/softengine/pkg/models"
)

// DemoSpin is the per-frame rotation the demo applies to X and Y.
const DemoSpin = 0.01

// RotationAxis tracks the angle and angular velocity of one axis. Velocity
// springs back to zero after an impulse.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // spring velocity of Velocity itself
}

// NewRotationAxis creates a critically damped axis for the given frame rate.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update advances the angle by the current velocity plus drift, then decays
// the velocity.
func (a *RotationAxis) Update(drift float64) {
	a.Position += a.Velocity + drift
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState animates a mesh rotation: a constant per-frame spin plus
// spring-damped user impulses.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis

	// Spin is added to (Pitch, Yaw, Roll) every frame.
	Spin   math3d.Vec3
	Paused bool

	fps int
}

// NewRotationState starts at rest with the demo spin.
func NewRotationState(fps int) *RotationState {
	r := &RotationState{fps: fps, Spin: math3d.V3(DemoSpin, DemoSpin, 0)}
	r.Reset()
	return r
}

// Update advances one frame.
func (r *RotationState) Update() {
	spin := r.Spin
	if r.Paused {
		spin = math3d.Zero3()
	}
	r.Pitch.Update(spin.X)
	r.Yaw.Update(spin.Y)
	r.Roll.Update(spin.Z)
}

// ApplyImpulse adds angular velocity in radians per frame.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

// Reset zeroes every angle and velocity.
func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Rotation returns the angles as a mesh rotation: pitch on X, yaw on Y and
// roll on Z.
func (r *RotationState) Rotation() math3d.Vec3 {
	return math3d.V3(r.Pitch.Position, r.Yaw.Position, r.Roll.Position)
}

// Apply sets the rotation of every mesh.
func (r *RotationState) Apply(meshes []*models.Mesh) {
	rot := r.Rotation()
	for _, m := range meshes {
		m.Rotation = rot
	}
}
