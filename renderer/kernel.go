package renderer

import (
	"math/rand"

	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

const (
	KernelSize = gpu.KernelSize
	// NoiseSize is the edge of the tiled rotation texture.
	NoiseSize = 4
)

// GenerateKernel returns hemisphere offsets around +Z. Offsets are scaled
// by a random length and by lerp(0.1, 1, (i/64)²) so that samples cluster
// near the origin.
func GenerateKernel(seed int64) [KernelSize]math.Vec4 {
	rng := rand.New(rand.NewSource(seed))

	var kernel [KernelSize]math.Vec4
	for i := range kernel {
		v := math.Vec3{
			X: rng.Float32()*2 - 1,
			Y: rng.Float32()*2 - 1,
			Z: rng.Float32(),
		}.Normalize()
		v = v.Mul(rng.Float32())

		t := float32(i) / KernelSize
		v = v.Mul(0.1 + 0.9*t*t)
		kernel[i] = v.ToVec4(0)
	}
	return kernel
}

// GenerateNoise returns NoiseSize² unit rotation vectors in the XY plane as
// RGBA texels.
func GenerateNoise(seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))

	noise := make([]float32, NoiseSize*NoiseSize*4)
	for i := 0; i < NoiseSize*NoiseSize; i++ {
		v := math.Vec2{X: rng.Float32()*2 - 1, Y: rng.Float32()*2 - 1}
		for v.Length() == 0 {
			v = math.Vec2{X: rng.Float32()*2 - 1, Y: rng.Float32()*2 - 1}
		}
		v = v.Normalize()
		noise[i*4+0] = v.X
		noise[i*4+1] = v.Y
	}
	return noise
}
