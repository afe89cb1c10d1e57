package scene

import (
	"github.com/chewxy/math32"

	"ssao-renderer/core"
	"ssao-renderer/math"
)

// Controls is the per-frame input a camera reads. Implementations return
// nothing pressed while the overlay has captured input.
type Controls interface {
	IsKeyDown(key int) bool
	IsMouseDown(button int) bool
	MouseDelta() (dx, dy float32)
}

// Camera is a free-fly perspective camera. The view looks along the
// transform's forward axis with world +Y as up.
type Camera struct {
	Transform *Transform

	FOV    float32
	Near   float32
	Far    float32
	Aspect float32

	MoveSpeed float32
	LookSpeed float32

	view       math.Mat4
	projection math.Mat4
}

// NewCamera places a camera at position and builds both matrices.
func NewCamera(aspect float32, position math.Vec3, fov float32) *Camera {
	c := &Camera{
		Transform: NewTransform(),
		FOV:       fov,
		Near:      0.1,
		Far:       100,
		MoveSpeed: 1,
		LookSpeed: 0.05,
	}
	c.Transform.SetPosition(position)
	c.UpdateProjectionMatrix(aspect)
	c.UpdateViewMatrix()
	return c
}

func (c *Camera) View() math.Mat4       { return c.view }
func (c *Camera) Projection() math.Mat4 { return c.projection }

// UpdateProjectionMatrix rebuilds the projection for a new aspect ratio.
// Non-positive ratios keep the previous aspect.
func (c *Camera) UpdateProjectionMatrix(aspect float32) {
	if aspect > 0 && !math32.IsInf(aspect, 0) {
		c.Aspect = aspect
	}
	if c.Aspect <= 0 {
		c.Aspect = 1
	}
	c.projection = math.Mat4PerspectiveFovLH(c.FOV, c.Aspect, c.Near, c.Far)
}

// UpdateViewMatrix rebuilds the view from the transform.
func (c *Camera) UpdateViewMatrix() {
	forward := c.Transform.Forward()
	up := math.Vec3Up
	if math32.Abs(forward.Dot(up)) > 0.999 {
		// looking straight up or down
		up = c.Transform.Up()
	}
	c.view = math.Mat4LookToLH(c.Transform.Position(), forward, up)
}

// Update applies one frame of fly controls and rebuilds the view.
func (c *Camera) Update(dt float32, in Controls) {
	speed := c.MoveSpeed * dt
	if in.IsKeyDown(core.KeyLeftShift) || in.IsKeyDown(core.KeyRightShift) {
		speed *= 5
	}
	if in.IsKeyDown(core.KeyLeftControl) || in.IsKeyDown(core.KeyRightControl) {
		speed *= 0.1
	}

	if in.IsKeyDown(core.KeyW) {
		c.Transform.MoveRelative(math.Vec3{Z: speed})
	}
	if in.IsKeyDown(core.KeyS) {
		c.Transform.MoveRelative(math.Vec3{Z: -speed})
	}
	if in.IsKeyDown(core.KeyA) {
		c.Transform.MoveRelative(math.Vec3{X: -speed})
	}
	if in.IsKeyDown(core.KeyD) {
		c.Transform.MoveRelative(math.Vec3{X: speed})
	}
	if in.IsKeyDown(core.KeySpace) {
		c.Transform.MoveAbsolute(math.Vec3{Y: speed})
	}
	if in.IsKeyDown(core.KeyX) {
		c.Transform.MoveAbsolute(math.Vec3{Y: -speed})
	}

	if in.IsMouseDown(core.MouseLeft) {
		dx, dy := in.MouseDelta()
		c.Transform.Rotate(math.Vec3{X: dy * c.LookSpeed, Y: dx * c.LookSpeed})

		// keep pitch within straight up/down
		rot := c.Transform.PitchYawRoll()
		if rot.X > math32.Pi/2 {
			rot.X = math32.Pi / 2
			c.Transform.SetRotation(rot)
		} else if rot.X < -math32.Pi/2 {
			rot.X = -math32.Pi / 2
			c.Transform.SetRotation(rot)
		}
	}

	c.UpdateViewMatrix()
}
