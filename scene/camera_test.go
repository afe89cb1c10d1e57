package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/core"
	"ssao-renderer/math"
)

type fakeControls struct {
	keys   map[int]bool
	mouse  map[int]bool
	dx, dy float32
}

func (f *fakeControls) IsKeyDown(k int) bool           { return f.keys[k] }
func (f *fakeControls) IsMouseDown(b int) bool         { return f.mouse[b] }
func (f *fakeControls) MouseDelta() (float32, float32) { return f.dx, f.dy }

func TestCameraMatricesFiniteAndInvertible(t *testing.T) {
	for _, aspect := range []float32{0.01, 0.5, 1, 16.0 / 9, 4, 300} {
		cam := NewCamera(aspect, math.NewVec3(0, 5, -20), math32.Pi/4)
		cam.UpdateProjectionMatrix(aspect)
		cam.UpdateViewMatrix()

		for name, m := range map[string]math.Mat4{"view": cam.View(), "projection": cam.Projection()} {
			require.True(t, m.IsFinite(), "%s aspect %v", name, aspect)
			assert.NotZero(t, m.Determinant(), "%s aspect %v", name, aspect)
			_, ok := m.Inverse()
			assert.True(t, ok, "%s aspect %v", name, aspect)
		}
	}
}

func TestCameraIgnoresInvalidAspect(t *testing.T) {
	cam := NewCamera(2, math.Vec3Zero, math32.Pi/2)
	cam.UpdateProjectionMatrix(0)
	assert.Equal(t, float32(2), cam.Aspect)
	cam.UpdateProjectionMatrix(-1)
	assert.Equal(t, float32(2), cam.Aspect)
	assert.True(t, cam.Projection().IsFinite())
}

func TestCameraViewLooksForward(t *testing.T) {
	cam := NewCamera(1, math.NewVec3(0, 2, -3), math32.Pi/2)
	p := cam.View().TransformPoint(math.NewVec3(0, 2, 7))
	assertVec3(t, math.NewVec3(0, 0, 10), p, "point ahead")
}

func TestCameraUpdateMoves(t *testing.T) {
	cam := NewCamera(1, math.Vec3Zero, math32.Pi/4)
	in := &fakeControls{keys: map[int]bool{core.KeyW: true, core.KeySpace: true}}

	cam.Update(0.5, in)
	assertVec3(t, math.NewVec3(0, 0.5, 0.5), cam.Transform.Position(), "moved")

	in.keys = map[int]bool{core.KeyD: true, core.KeyLeftShift: true}
	cam.Update(1, in)
	assertVec3(t, math.NewVec3(5, 0.5, 0.5), cam.Transform.Position(), "fast strafe")
}

func TestCameraPitchClamped(t *testing.T) {
	cam := NewCamera(1, math.Vec3Zero, math32.Pi/4)
	in := &fakeControls{mouse: map[int]bool{core.MouseLeft: true}, dy: 1000}

	cam.Update(0.016, in)
	assert.InDelta(t, math32.Pi/2, cam.Transform.PitchYawRoll().X, 1e-6)
	assert.True(t, cam.View().IsFinite())
	_, ok := cam.View().Inverse()
	assert.True(t, ok)

	in.dy = -5000
	cam.Update(0.016, in)
	assert.InDelta(t, -math32.Pi/2, cam.Transform.PitchYawRoll().X, 1e-6)
}

func TestCameraMouseLookNeedsButton(t *testing.T) {
	cam := NewCamera(1, math.Vec3Zero, math32.Pi/4)
	cam.Update(0.016, &fakeControls{dx: 50, dy: 50})
	assertVec3(t, math.Vec3Zero, cam.Transform.PitchYawRoll(), "rotation")
}
