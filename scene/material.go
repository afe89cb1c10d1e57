package scene

import (
	"ssao-renderer/core"
	"ssao-renderer/gpu"
)

// Texture and sampler binding names understood by the geometry program.
const (
	TextureAlbedo    = "Albedo"
	TextureNormal    = "NormalMap"
	TextureRoughness = "RoughnessMap"
	TextureMetalness = "MetalnessMap"
	SamplerBasic     = "BasicSampler"
)

// Material is a shared surface description. Entities refer to it by handle
// and never modify it.
type Material struct {
	Name      string
	Tint      core.Color
	Roughness float32
	Program   gpu.Program

	Textures map[string]gpu.Texture
	Samplers map[string]gpu.Sampler
}

// NewMaterial returns a geometry-pass material with no bindings.
func NewMaterial(name string, tint core.Color, roughness float32) *Material {
	return &Material{
		Name:      name,
		Tint:      tint,
		Roughness: roughness,
		Program:   gpu.ProgramGBuffer,
		Textures:  make(map[string]gpu.Texture),
		Samplers:  make(map[string]gpu.Sampler),
	}
}

func (m *Material) AddTexture(name string, t gpu.Texture) { m.Textures[name] = t }
func (m *Material) AddSampler(name string, s gpu.Sampler) { m.Samplers[name] = s }

// Bind copies the material's state into the geometry uniforms.
func (m *Material) Bind(u *gpu.GBufferUniforms) {
	u.Tint = m.Tint
	u.Roughness = m.Roughness
	u.Albedo = m.Textures[TextureAlbedo]
	u.NormalMap = m.Textures[TextureNormal]
	u.RoughnessMap = m.Textures[TextureRoughness]
	u.MetalnessMap = m.Textures[TextureMetalness]
	u.Sampler = m.Samplers[SamplerBasic]
}
