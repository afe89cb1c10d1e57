package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"ssao-renderer/math"
)

func TestBoundsOfCube(t *testing.T) {
	b := BoundsOf(Cube(2))
	assert.Equal(t, math.NewVec3(-1, -1, -1), b.Min)
	assert.Equal(t, math.NewVec3(1, 1, 1), b.Max)

	moved := b.Transform(math.Mat4SRT(math.NewVec3(2, 1, 1), math.Vec3Zero, math.NewVec3(10, 0, 0)))
	assert.InDelta(t, 8, moved.Min.X, 1e-5)
	assert.InDelta(t, 12, moved.Max.X, 1e-5)
	assert.InDelta(t, -1, moved.Min.Y, 1e-5)
}

func TestFrustumCulling(t *testing.T) {
	cam := NewCamera(1, math.NewVec3(0, 0, -5), math32.Pi/2)
	cam.UpdateViewMatrix()
	f := FrustumFromViewProjection(cam.View().Mul(cam.Projection()))

	unit := BoundsOf(Cube(1))
	at := func(x, y, z float32) AABB {
		return unit.Transform(math.Mat4Translation(math.NewVec3(x, y, z)))
	}

	assert.True(t, at(0, 0, 0).IntersectsFrustum(&f), "in front")
	assert.True(t, at(5, 0, 0).IntersectsFrustum(&f), "straddles the right plane")
	assert.False(t, at(0, 0, -10).IntersectsFrustum(&f), "behind the camera")
	assert.False(t, at(20, 0, 0).IntersectsFrustum(&f), "right of the frustum")
	assert.False(t, at(0, 0, 200).IntersectsFrustum(&f), "beyond the far plane")
}
