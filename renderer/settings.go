package renderer

import (
	"ssao-renderer/core"
)

// Parameter ranges exposed to the overlay.
const (
	MaxBlurRadius = 10
	MaxSSAORadius = 1.0
)

// Settings configures a Pipeline. The shadow and kernel fields are fixed at
// creation; the SSAO and blur fields may change every frame.
type Settings struct {
	ShadowResolution int
	DepthBias        int32
	SlopeBias        float32

	// Orthographic light volume.
	LightVolumeSize float32
	LightNear       float32
	LightFar        float32
	LightDistance   float32

	SSAORadius  float32
	SSAOSamples int
	SSAOBias    float32
	KernelSeed  int64
	NoiseSeed   int64

	BlurRadius int
	ClearColor core.Color

	// FrustumCull skips G-buffer draws whose world bounds are outside the
	// camera frustum. Shadow casters are never culled.
	FrustumCull bool
}

// DefaultSettings returns the values the demo scene was tuned with.
func DefaultSettings() Settings {
	return Settings{
		ShadowResolution: 1024,
		DepthBias:        1000,
		SlopeBias:        1.0,
		LightVolumeSize:  15,
		LightNear:        1,
		LightFar:         100,
		LightDistance:    20,
		SSAORadius:       1.0,
		SSAOSamples:      64,
		SSAOBias:         0.025,
		KernelSeed:       42,
		NoiseSeed:        123,
		BlurRadius:       0,
		ClearColor:       core.RGB(0.4, 0.6, 0.75),
		FrustumCull:      true,
	}
}

// Clamped returns s with the tunable fields forced into range.
func (s Settings) Clamped() Settings {
	s.SSAORadius = min(max(s.SSAORadius, 0), MaxSSAORadius)
	s.SSAOSamples = min(max(s.SSAOSamples, 0), KernelSize)
	s.BlurRadius = min(max(s.BlurRadius, 0), MaxBlurRadius)
	s.ShadowResolution = max(s.ShadowResolution, 1)
	return s
}
