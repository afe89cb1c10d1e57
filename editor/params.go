package editor

import (
	"ssao-renderer/core"
	"ssao-renderer/renderer"
)

// Params are the values the overlay edits. The game applies them once per
// frame before drawing.
type Params struct {
	BlurRadius   int
	SSAORadius   float32
	SSAOSamples  int
	ActiveCamera int
	View         renderer.View
	LightColor   core.Color
}

// ParamsFrom seeds the overlay from pipeline settings.
func ParamsFrom(s renderer.Settings, light core.Color) Params {
	return Params{
		BlurRadius:  s.BlurRadius,
		SSAORadius:  s.SSAORadius,
		SSAOSamples: s.SSAOSamples,
		LightColor:  light,
	}
}

// Clamp forces every field into its range. cameras is the number of
// cameras in the scene.
func (p Params) Clamp(cameras int) Params {
	p.BlurRadius = min(max(p.BlurRadius, 0), renderer.MaxBlurRadius)
	p.SSAORadius = min(max(p.SSAORadius, 0), renderer.MaxSSAORadius)
	p.SSAOSamples = min(max(p.SSAOSamples, 0), renderer.KernelSize)
	p.ActiveCamera = min(max(p.ActiveCamera, 0), max(cameras-1, 0))
	p.LightColor.R = min(max(p.LightColor.R, 0), 1)
	p.LightColor.G = min(max(p.LightColor.G, 0), 1)
	p.LightColor.B = min(max(p.LightColor.B, 0), 1)
	return p
}
