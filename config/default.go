package config

import (
	"github.com/chewxy/math32"

	"ssao-renderer/internal/logger"
	"ssao-renderer/renderer"
)

const (
	modelDir   = "assets/models/"
	textureDir = "assets/textures/"
)

// Default returns the demo scene: five textured entities on a wooden floor
// under a pink cloud sky, lit by one directional light.
func Default() *File {
	s := renderer.DefaultSettings()
	f := &File{
		Window: Window{Title: "SSAO Renderer", Width: 1280, Height: 720, VSync: true},
		Log:    logger.Config{Level: "info"},
		Pipeline: Pipeline{
			ShadowResolution: s.ShadowResolution,
			DepthBias:        s.DepthBias,
			SlopeBias:        s.SlopeBias,
			LightVolumeSize:  s.LightVolumeSize,
			LightNear:        s.LightNear,
			LightFar:         s.LightFar,
			LightDistance:    s.LightDistance,
			SSAORadius:       s.SSAORadius,
			SSAOSamples:      s.SSAOSamples,
			SSAOBias:         s.SSAOBias,
			KernelSeed:       s.KernelSeed,
			NoiseSeed:        s.NoiseSeed,
			BlurRadius:       s.BlurRadius,
			ClearColor:       [3]float32{s.ClearColor.R, s.ClearColor.G, s.ClearColor.B},
			FrustumCull:      s.FrustumCull,
		},
		Light:   Light{Direction: [3]float32{0, -1, 1}, Color: [3]float32{1, 1, 1}, Intensity: 0.8},
		Ambient: [3]float32{0.1, 0.1, 0.25},
		Sky: Sky{
			Faces: []string{
				textureDir + "Clouds_Pink/right.png",
				textureDir + "Clouds_Pink/left.png",
				textureDir + "Clouds_Pink/up.png",
				textureDir + "Clouds_Pink/down.png",
				textureDir + "Clouds_Pink/front.png",
				textureDir + "Clouds_Pink/back.png",
			},
			Size:    64,
			Zenith:  [3]float32{0.55, 0.45, 0.75},
			Horizon: [3]float32{0.95, 0.75, 0.8},
			Ground:  [3]float32{0.35, 0.3, 0.35},
		},
		Cameras: []Camera{
			{Position: [3]float32{0, 5, -20}, FOV: math32.Pi / 4, Near: 0.1, Far: 100, MoveSpeed: 1, LookSpeed: 0.05},
			{Position: [3]float32{0, 2, -3}, FOV: math32.Pi / 2, Near: 0.1, Far: 100, MoveSpeed: 1, LookSpeed: 0.05},
		},
	}

	for _, name := range []string{"bronze", "cobblestone", "paint", "scratched", "wood"} {
		f.Materials = append(f.Materials, Material{
			Name:         name,
			Tint:         [3]float32{1, 1, 1},
			Roughness:    0.15,
			Albedo:       textureDir + name + "_albedo.png",
			NormalMap:    textureDir + name + "_normals.png",
			RoughnessMap: textureDir + name + "_roughness.png",
			MetalnessMap: textureDir + name + "_metal.png",
			Anisotropy:   8,
		})
	}
	for _, name := range []string{"sphere", "cylinder", "helix", "quad", "quad_double_sided", "cube", "torus"} {
		f.Meshes = append(f.Meshes, Mesh{Name: name, Path: modelDir + name + ".obj"})
	}

	one := [3]float32{1, 1, 1}
	f.Entities = []Entity{
		{Name: "floor", Mesh: "quad_double_sided", Material: "wood", Position: [3]float32{0, -1.5, 0}, Scale: [3]float32{10, 1, 10}},
		{Name: "helix", Mesh: "helix", Material: "scratched", Position: [3]float32{-2, 0, 0}, Scale: one, Spin: 0.5},
		{Name: "torus", Mesh: "torus", Material: "paint", Position: [3]float32{6, 0, 0}, Scale: one},
		{Name: "cobble-sphere", Mesh: "sphere", Material: "cobblestone", Position: [3]float32{-6, 0, 0}, Scale: one, Spin: 0.5},
		{Name: "bronze-sphere", Mesh: "sphere", Material: "bronze", Position: [3]float32{2, 0, 0}, Scale: one},
	}
	return f
}
