package scene

import (
	"ssao-renderer/math"
)

// Transform holds a position, Euler rotation (pitch, yaw, roll in radians)
// and scale. The world matrices are rebuilt on first access after a change.
type Transform struct {
	position math.Vec3
	rotation math.Vec3
	scale    math.Vec3

	world             math.Mat4
	worldInvTranspose math.Mat4
	dirty             bool
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{
		scale:             math.Vec3One,
		world:             math.Mat4Identity(),
		worldInvTranspose: math.Mat4Identity(),
	}
}

func (t *Transform) Position() math.Vec3     { return t.position }
func (t *Transform) PitchYawRoll() math.Vec3 { return t.rotation }
func (t *Transform) Scale() math.Vec3        { return t.scale }

func (t *Transform) SetPosition(p math.Vec3) {
	t.position = p
	t.dirty = true
}

// SetRotation sets the Euler angles; X is pitch, Y is yaw, Z is roll.
func (t *Transform) SetRotation(pitchYawRoll math.Vec3) {
	t.rotation = pitchYawRoll
	t.dirty = true
}

func (t *Transform) SetScale(s math.Vec3) {
	t.scale = s
	t.dirty = true
}

// MoveAbsolute offsets the position in world space.
func (t *Transform) MoveAbsolute(offset math.Vec3) {
	t.position = t.position.Add(offset)
	t.dirty = true
}

// MoveRelative offsets the position along the transform's own axes.
func (t *Transform) MoveRelative(offset math.Vec3) {
	t.position = t.position.Add(t.orientation().RotateVector(offset))
	t.dirty = true
}

// Rotate adds to the Euler angles.
func (t *Transform) Rotate(pitchYawRoll math.Vec3) {
	t.rotation = t.rotation.Add(pitchYawRoll)
	t.dirty = true
}

// ScaleBy multiplies the scale component-wise.
func (t *Transform) ScaleBy(s math.Vec3) {
	t.scale = t.scale.MulVec(s)
	t.dirty = true
}

func (t *Transform) Right() math.Vec3   { return t.orientation().RotateVector(math.Vec3Right) }
func (t *Transform) Up() math.Vec3      { return t.orientation().RotateVector(math.Vec3Up) }
func (t *Transform) Forward() math.Vec3 { return t.orientation().RotateVector(math.Vec3Forward) }

// World returns scale × rotation × translation.
func (t *Transform) World() math.Mat4 {
	t.update()
	return t.world
}

// WorldInverseTranspose returns the inverse-transpose of World, used to
// carry normals under non-uniform scale.
func (t *Transform) WorldInverseTranspose() math.Mat4 {
	t.update()
	return t.worldInvTranspose
}

func (t *Transform) orientation() math.Quaternion {
	return math.QuaternionRollPitchYaw(t.rotation.X, t.rotation.Y, t.rotation.Z)
}

func (t *Transform) update() {
	if !t.dirty {
		return
	}
	t.world = math.Mat4SRT(t.scale, t.rotation, t.position)
	inv, _ := t.world.Transpose().Inverse()
	t.worldInvTranspose = inv
	t.dirty = false
}
