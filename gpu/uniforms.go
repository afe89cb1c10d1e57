package gpu

import (
	"ssao-renderer/core"
	"ssao-renderer/math"
)

// Program identifies one of the shader programs every backend implements.
type Program int

const (
	ProgramShadow Program = iota
	ProgramGBuffer
	ProgramSky
	ProgramSSAO
	ProgramSSAOBlur
	ProgramCombine
	ProgramPost
)

var programNames = [...]string{"shadow", "gbuffer", "sky", "ssao", "ssao-blur", "combine", "post"}

func (p Program) String() string {
	if p < 0 || int(p) >= len(programNames) {
		return "unknown"
	}
	return programNames[p]
}

// KernelSize is the number of SSAO hemisphere samples uploaded per frame.
const KernelSize = 64

// GBuffer output slots.
const (
	GBufferColor = iota
	GBufferAmbient
	GBufferNormal
	GBufferDepth
	GBufferTargets
)

// Uniforms is the complete input of one program for one draw. Each program
// has its own struct, so a missing or mistyped binding is a compile error.
type Uniforms interface {
	Program() Program
	// Sampled lists every texture the draw reads, nil entries included.
	Sampled() []Texture
}

// DirectionalLight is the light block consumed by the geometry program.
type DirectionalLight struct {
	Direction math.Vec3
	Color     core.Color
	Intensity float32
}

// ShadowUniforms feed the depth-only light pass.
type ShadowUniforms struct {
	World      math.Mat4
	View       math.Mat4
	Projection math.Mat4
}

func (*ShadowUniforms) Program() Program   { return ProgramShadow }
func (*ShadowUniforms) Sampled() []Texture { return nil }

// GBufferUniforms feed the 4-target geometry pass.
type GBufferUniforms struct {
	World             math.Mat4
	WorldInvTranspose math.Mat4
	View              math.Mat4
	Projection        math.Mat4
	LightView         math.Mat4
	LightProjection   math.Mat4
	CameraPosition    math.Vec3

	Ambient   core.Color
	Light     DirectionalLight
	Tint      core.Color
	Roughness float32

	// Material maps; nil maps fall back to white albedo, the vertex normal,
	// the Roughness scalar and zero metalness.
	Albedo       Texture
	NormalMap    Texture
	RoughnessMap Texture
	MetalnessMap Texture
	Sampler      Sampler

	ShadowMap     Texture
	ShadowSampler Sampler
}

func (*GBufferUniforms) Program() Program { return ProgramGBuffer }
func (u *GBufferUniforms) Sampled() []Texture {
	return []Texture{u.Albedo, u.NormalMap, u.RoughnessMap, u.MetalnessMap, u.ShadowMap}
}

// SkyUniforms feed the cube-map background pass.
type SkyUniforms struct {
	View       math.Mat4
	Projection math.Mat4
	Sky        CubeMap
	Sampler    Sampler
}

func (*SkyUniforms) Program() Program   { return ProgramSky }
func (*SkyUniforms) Sampled() []Texture { return nil }

// SSAOUniforms feed the occlusion pass.
type SSAOUniforms struct {
	View          math.Mat4
	Projection    math.Mat4
	InvProjection math.Mat4
	Kernel        [KernelSize]math.Vec4
	Radius        float32
	SampleCount   int
	Bias          float32
	// NoiseScale is the target size divided by the noise texture size.
	NoiseScale math.Vec2

	Normals      Texture
	Depth        Texture
	Noise        Texture
	Sampler      Sampler
	NoiseSampler Sampler
}

func (*SSAOUniforms) Program() Program { return ProgramSSAO }
func (u *SSAOUniforms) Sampled() []Texture {
	return []Texture{u.Normals, u.Depth, u.Noise}
}

// SSAOBlurUniforms feed the fixed box blur over raw occlusion.
type SSAOBlurUniforms struct {
	SSAO        Texture
	PixelWidth  float32
	PixelHeight float32
	Sampler     Sampler
}

func (*SSAOBlurUniforms) Program() Program     { return ProgramSSAOBlur }
func (u *SSAOBlurUniforms) Sampled() []Texture { return []Texture{u.SSAO} }

// CombineUniforms feed color + ambient×occlusion.
type CombineUniforms struct {
	Color   Texture
	Ambient Texture
	SSAO    Texture
	Sampler Sampler
}

func (*CombineUniforms) Program() Program { return ProgramCombine }
func (u *CombineUniforms) Sampled() []Texture {
	return []Texture{u.Color, u.Ambient, u.SSAO}
}

// PostUniforms feed the final box blur into the back buffer.
type PostUniforms struct {
	Pixels      Texture
	BlurRadius  int
	PixelWidth  float32
	PixelHeight float32
	Sampler     Sampler
}

func (*PostUniforms) Program() Program     { return ProgramPost }
func (u *PostUniforms) Sampled() []Texture { return []Texture{u.Pixels} }
