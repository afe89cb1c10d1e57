package scene

import (
	"github.com/chewxy/math32"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

// LightType tags a light. Only directional lights are rendered.
type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

// DirectionalLight is the single scene light and shadow caster.
type DirectionalLight struct {
	Type      LightType
	Direction math.Vec3
	Color     core.Color
	Intensity float32
}

// LightViewVolume is the light's view and orthographic projection.
type LightViewVolume struct {
	View       math.Mat4
	Projection math.Mat4
}

// NewDirectionalLight returns a normalized directional light.
func NewDirectionalLight(dir math.Vec3, color core.Color, intensity float32) DirectionalLight {
	return DirectionalLight{
		Type:      LightDirectional,
		Direction: dir.Normalize(),
		Color:     color,
		Intensity: intensity,
	}
}

// ViewVolume places the light distance units back along its direction and
// looks along it through a size×size orthographic frustum.
func (l DirectionalLight) ViewVolume(size, near, far, distance float32) LightViewVolume {
	dir := l.Direction.Normalize()
	up := math.Vec3Up
	if math32.Abs(dir.Dot(up)) > 0.999 {
		up = math.Vec3Forward
	}
	eye := dir.Mul(-distance)
	return LightViewVolume{
		View:       math.Mat4LookToLH(eye, dir, up),
		Projection: math.Mat4OrthographicLH(size, size, near, far),
	}
}

// Uniform returns the light block uploaded to the geometry program.
func (l DirectionalLight) Uniform() gpu.DirectionalLight {
	return gpu.DirectionalLight{
		Direction: l.Direction.Normalize(),
		Color:     l.Color,
		Intensity: l.Intensity,
	}
}
