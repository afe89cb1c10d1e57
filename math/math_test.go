package math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-5

func assertVec3(t *testing.T, expected, got Vec3, msg string) {
	t.Helper()
	assert.InDelta(t, expected.X, got.X, tol, "%s: X", msg)
	assert.InDelta(t, expected.Y, got.Y, tol, "%s: Y", msg)
	assert.InDelta(t, expected.Z, got.Z, tol, "%s: Z", msg)
}

func assertMat4(t *testing.T, expected, got Mat4, msg string) {
	t.Helper()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, expected[i][j], got[i][j], 1e-4, "%s: [%d][%d]", msg, i, j)
		}
	}
}

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2), "Add")
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1), "Sub")
	assert.Equal(t, NewVec3(2, 4, 6), v1.Mul(2), "Mul")
	assert.Equal(t, NewVec3(4, 10, 18), v1.MulVec(v2), "MulVec")
	assert.Equal(t, float32(32), v1.Dot(v2), "Dot")

	// Right x Up = Forward (+Z) with the standard cross product.
	assert.Equal(t, Vec3Forward, Vec3Right.Cross(Vec3Up), "Cross")
}

func TestVec3Normalize(t *testing.T) {
	n := NewVec3(3, 0, 4).Normalize()
	assertVec3(t, NewVec3(0.6, 0, 0.8), n, "Normalize")
	assert.InDelta(t, 1, n.Length(), tol)

	assert.Equal(t, Vec3Zero, Vec3Zero.Normalize(), "zero vector stays zero")
}

func TestMat4Inverse(t *testing.T) {
	m := Mat4SRT(NewVec3(2, 3, 0.5), NewVec3(0.3, -1.2, 0.7), NewVec3(4, -5, 6))

	inv, ok := m.Inverse()
	require.True(t, ok)
	assertMat4(t, Mat4Identity(), m.Mul(inv), "m × m⁻¹")
	assertMat4(t, Mat4Identity(), inv.Mul(m), "m⁻¹ × m")

	p := NewVec3(1, 2, 3)
	assertVec3(t, p, inv.TransformPoint(m.TransformPoint(p)), "point round trip")
}

func TestMat4InverseTranslation(t *testing.T) {
	m := Mat4Translation(NewVec3(3, -2, 7))
	inv, ok := m.Inverse()
	require.True(t, ok)
	assertMat4(t, Mat4Translation(NewVec3(-3, 2, -7)), inv, "translation inverse")
}

func TestMat4InverseSingular(t *testing.T) {
	_, ok := Mat4Scale(NewVec3(1, 0, 1)).Inverse()
	assert.False(t, ok)
}

func TestMat4Determinant(t *testing.T) {
	assert.InDelta(t, 24, Mat4Scale(NewVec3(2, 3, 4)).Determinant(), tol)
	assert.InDelta(t, 1, Mat4RotationRollPitchYaw(0.4, 1.1, -0.2).Determinant(), tol)
}

func TestSRTOrder(t *testing.T) {
	// Scale happens before rotation and translation: +X scaled by 2, turned
	// a quarter yaw onto -Z, then moved.
	m := Mat4SRT(NewVec3(2, 1, 1), NewVec3(0, math32.Pi/2, 0), NewVec3(10, 0, 0))
	assertVec3(t, NewVec3(10, 0, -2), m.TransformPoint(Vec3Right), "S×R×T")
}

func TestQuaternionMatchesMatrix(t *testing.T) {
	pitch, yaw, roll := float32(0.5), float32(-0.8), float32(1.3)
	q := QuaternionRollPitchYaw(pitch, yaw, roll)
	m := Mat4RotationRollPitchYaw(pitch, yaw, roll)

	for _, v := range []Vec3{Vec3Right, Vec3Up, Vec3Forward, NewVec3(1, 2, 3)} {
		assertVec3(t, m.TransformDirection(v), q.RotateVector(v), "rotate")
	}
	assertMat4(t, m, q.ToMat4(), "ToMat4")
}

func TestLookToLH(t *testing.T) {
	eye := NewVec3(0, 5, -20)
	view := Mat4LookToLH(eye, Vec3Forward, Vec3Up)

	assertVec3(t, Vec3Zero, view.TransformPoint(eye), "eye at origin")
	assertVec3(t, NewVec3(0, 0, 10), view.TransformPoint(eye.Add(NewVec3(0, 0, 10))), "ahead is +Z")
	assertVec3(t, NewVec3(1, 0, 0), view.TransformPoint(eye.Add(Vec3Right)), "right is +X")
}

func TestPerspectiveFovLHDepthRange(t *testing.T) {
	proj := Mat4PerspectiveFovLH(math32.Pi/4, 16.0/9.0, 0.1, 100)

	near := NewVec3(0, 0, 0.1).ToVec4(1).MulMat(proj)
	far := NewVec3(0, 0, 100).ToVec4(1).MulMat(proj)
	assert.InDelta(t, 0, near.Z/near.W, tol)
	assert.InDelta(t, 1, far.Z/far.W, tol)
	assert.InDelta(t, 0.1, near.W, tol, "w carries view depth")
}

func TestOrthographicLH(t *testing.T) {
	proj := Mat4OrthographicLH(15, 15, 1, 100)

	p := proj.TransformPoint(NewVec3(7.5, -7.5, 1))
	assertVec3(t, NewVec3(1, -1, 0), p, "corner at near")
	assert.InDelta(t, 1, proj.TransformPoint(NewVec3(0, 0, 100)).Z, tol)
}

func TestMat4GLLayout(t *testing.T) {
	m := Mat4Translation(NewVec3(1, 2, 3))
	g := m.GL()
	// Column-vector form keeps translation in the last column.
	assert.Equal(t, float32(1), g.At(0, 3))
	assert.Equal(t, float32(2), g.At(1, 3))
	assert.Equal(t, float32(3), g.At(2, 3))
}

func TestVec3GL(t *testing.T) {
	g := NewVec3(1, -2, 3).GL()
	assert.Equal(t, float32(1), g.X())
	assert.Equal(t, float32(-2), g.Y())
	assert.Equal(t, float32(3), g.Z())
}
