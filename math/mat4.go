package math

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Mat4 is a row-major matrix used with row vectors (v × M). Translation
// lives in row 3, and M1.Mul(M2) applies M1 first.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				result[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return result
}

// TransformPoint transforms p (w = 1) and divides by w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return p.ToVec4(1).MulMat(m).ToVec3DivW()
}

// TransformDirection transforms d (w = 0), ignoring translation.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return d.ToVec4(0).MulMat(m).ToVec3()
}

func (m Mat4) Transpose() Mat4 {
	return Mat4{
		{m[0][0], m[1][0], m[2][0], m[3][0]},
		{m[0][1], m[1][1], m[2][1], m[3][1]},
		{m[0][2], m[1][2], m[2][2], m[3][2]},
		{m[0][3], m[1][3], m[2][3], m[3][3]},
	}
}

// subDets returns the 2×2 minors of the top and bottom row pairs.
func (m Mat4) subDets() (s [6]float32, c [6]float32) {
	s[0] = m[0][0]*m[1][1] - m[1][0]*m[0][1]
	s[1] = m[0][0]*m[1][2] - m[1][0]*m[0][2]
	s[2] = m[0][0]*m[1][3] - m[1][0]*m[0][3]
	s[3] = m[0][1]*m[1][2] - m[1][1]*m[0][2]
	s[4] = m[0][1]*m[1][3] - m[1][1]*m[0][3]
	s[5] = m[0][2]*m[1][3] - m[1][2]*m[0][3]

	c[5] = m[2][2]*m[3][3] - m[3][2]*m[2][3]
	c[4] = m[2][1]*m[3][3] - m[3][1]*m[2][3]
	c[3] = m[2][1]*m[3][2] - m[3][1]*m[2][2]
	c[2] = m[2][0]*m[3][3] - m[3][0]*m[2][3]
	c[1] = m[2][0]*m[3][2] - m[3][0]*m[2][2]
	c[0] = m[2][0]*m[3][1] - m[3][0]*m[2][1]
	return s, c
}

func (m Mat4) Determinant() float32 {
	s, c := m.subDets()
	return s[0]*c[5] - s[1]*c[4] + s[2]*c[3] + s[3]*c[2] - s[4]*c[1] + s[5]*c[0]
}

// Inverse returns the inverse of m. ok is false when m is singular, in which
// case the identity is returned.
func (m Mat4) Inverse() (inv Mat4, ok bool) {
	s, c := m.subDets()
	det := s[0]*c[5] - s[1]*c[4] + s[2]*c[3] + s[3]*c[2] - s[4]*c[1] + s[5]*c[0]
	if det == 0 || math32.IsNaN(det) || math32.IsInf(det, 0) {
		return Mat4Identity(), false
	}
	d := 1 / det

	inv[0][0] = (m[1][1]*c[5] - m[1][2]*c[4] + m[1][3]*c[3]) * d
	inv[0][1] = (-m[0][1]*c[5] + m[0][2]*c[4] - m[0][3]*c[3]) * d
	inv[0][2] = (m[3][1]*s[5] - m[3][2]*s[4] + m[3][3]*s[3]) * d
	inv[0][3] = (-m[2][1]*s[5] + m[2][2]*s[4] - m[2][3]*s[3]) * d

	inv[1][0] = (-m[1][0]*c[5] + m[1][2]*c[2] - m[1][3]*c[1]) * d
	inv[1][1] = (m[0][0]*c[5] - m[0][2]*c[2] + m[0][3]*c[1]) * d
	inv[1][2] = (-m[3][0]*s[5] + m[3][2]*s[2] - m[3][3]*s[1]) * d
	inv[1][3] = (m[2][0]*s[5] - m[2][2]*s[2] + m[2][3]*s[1]) * d

	inv[2][0] = (m[1][0]*c[4] - m[1][1]*c[2] + m[1][3]*c[0]) * d
	inv[2][1] = (-m[0][0]*c[4] + m[0][1]*c[2] - m[0][3]*c[0]) * d
	inv[2][2] = (m[3][0]*s[4] - m[3][1]*s[2] + m[3][3]*s[0]) * d
	inv[2][3] = (-m[2][0]*s[4] + m[2][1]*s[2] - m[2][3]*s[0]) * d

	inv[3][0] = (-m[1][0]*c[3] + m[1][1]*c[1] - m[1][2]*c[0]) * d
	inv[3][1] = (m[0][0]*c[3] - m[0][1]*c[1] + m[0][2]*c[0]) * d
	inv[3][2] = (-m[3][0]*s[3] + m[3][1]*s[1] - m[3][2]*s[0]) * d
	inv[3][3] = (m[2][0]*s[3] - m[2][1]*s[1] + m[2][2]*s[0]) * d

	return inv, true
}

// IsFinite reports whether every element is a finite number.
func (m Mat4) IsFinite() bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math32.IsNaN(m[i][j]) || math32.IsInf(m[i][j], 0) {
				return false
			}
		}
	}
	return true
}

// WithoutTranslation zeroes row 3's translation (used for the sky view).
func (m Mat4) WithoutTranslation() Mat4 {
	m[3][0], m[3][1], m[3][2] = 0, 0, 0
	return m
}

// GL returns m as the column-major column-vector matrix OpenGL expects, so it
// can be uploaded with transpose = false.
func (m Mat4) GL() mgl32.Mat4 {
	return mgl32.Mat4{
		m[0][0], m[0][1], m[0][2], m[0][3],
		m[1][0], m[1][1], m[1][2], m[1][3],
		m[2][0], m[2][1], m[2][2], m[2][3],
		m[3][0], m[3][1], m[3][2], m[3][3],
	}
}

func Mat4Translation(translation Vec3) Mat4 {
	m := Mat4Identity()
	m[3][0] = translation.X
	m[3][1] = translation.Y
	m[3][2] = translation.Z
	return m
}

func Mat4Scale(scale Vec3) Mat4 {
	m := Mat4Identity()
	m[0][0] = scale.X
	m[1][1] = scale.Y
	m[2][2] = scale.Z
	return m
}

func Mat4RotationX(angle float32) Mat4 {
	c, s := math32.Cos(angle), math32.Sin(angle)
	return Mat4{
		{1, 0, 0, 0},
		{0, c, s, 0},
		{0, -s, c, 0},
		{0, 0, 0, 1},
	}
}

func Mat4RotationY(angle float32) Mat4 {
	c, s := math32.Cos(angle), math32.Sin(angle)
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

func Mat4RotationZ(angle float32) Mat4 {
	c, s := math32.Cos(angle), math32.Sin(angle)
	return Mat4{
		{c, s, 0, 0},
		{-s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mat4RotationRollPitchYaw rotates by roll (Z), then pitch (X), then yaw (Y).
func Mat4RotationRollPitchYaw(pitch, yaw, roll float32) Mat4 {
	return Mat4RotationZ(roll).Mul(Mat4RotationX(pitch)).Mul(Mat4RotationY(yaw))
}

// Mat4PerspectiveFovLH builds a left-handed perspective projection mapping
// view z in [near, far] to depth [0, 1].
func Mat4PerspectiveFovLH(fovY, aspect, near, far float32) Mat4 {
	h := 1 / math32.Tan(fovY/2)
	w := h / aspect
	r := far / (far - near)

	var m Mat4
	m[0][0] = w
	m[1][1] = h
	m[2][2] = r
	m[2][3] = 1
	m[3][2] = -r * near
	return m
}

// Mat4OrthographicLH builds a left-handed orthographic projection of the
// given view width and height, mapping z in [near, far] to [0, 1].
func Mat4OrthographicLH(width, height, near, far float32) Mat4 {
	r := 1 / (far - near)

	m := Mat4Identity()
	m[0][0] = 2 / width
	m[1][1] = 2 / height
	m[2][2] = r
	m[3][2] = -r * near
	return m
}

// Mat4LookToLH builds a left-handed view matrix at eye looking along dir.
func Mat4LookToLH(eye, dir, up Vec3) Mat4 {
	zAxis := dir.Normalize()
	xAxis := up.Cross(zAxis).Normalize()
	yAxis := zAxis.Cross(xAxis)

	return Mat4{
		{xAxis.X, yAxis.X, zAxis.X, 0},
		{xAxis.Y, yAxis.Y, zAxis.Y, 0},
		{xAxis.Z, yAxis.Z, zAxis.Z, 0},
		{-xAxis.Dot(eye), -yAxis.Dot(eye), -zAxis.Dot(eye), 1},
	}
}

// Mat4SRT composes scale, then rotation (pitch, yaw, roll), then translation.
func Mat4SRT(scale, pitchYawRoll, translation Vec3) Mat4 {
	return Mat4Scale(scale).
		Mul(Mat4RotationRollPitchYaw(pitchYawRoll.X, pitchYawRoll.Y, pitchYawRoll.Z)).
		Mul(Mat4Translation(translation))
}
