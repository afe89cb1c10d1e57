package renderer

import (
	"fmt"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
	"ssao-renderer/scene"
)

// Frame is the scene state the passes read for one frame.
type Frame struct {
	Camera    *scene.Camera
	Light     scene.DirectionalLight
	Ambient   core.Color
	Entities  []*scene.Entity
	Meshes    *scene.MeshArena
	Materials *scene.MaterialArena
	Sky       gpu.CubeMap
}

// Stats counts what the geometry pass drew.
type Stats struct {
	Entities  int
	Triangles int
	Skipped   int
	Culled    int
}

// runPass brackets draw with BeginPass and EndPass. The pass is always
// ended, and the first error wins.
func runPass(dev gpu.Device, p gpu.PassDesc, draw func() error) error {
	if err := dev.BeginPass(p); err != nil {
		return fmt.Errorf("%s pass: %w", p.Label, err)
	}
	err := draw()
	if endErr := dev.EndPass(); err == nil {
		err = endErr
	}
	if err != nil {
		return fmt.Errorf("%s pass: %w", p.Label, err)
	}
	return nil
}

var fullscreenRaster = gpu.RasterState{Cull: gpu.CullNone}

// ClearPass clears the back buffer to the background color.
func ClearPass(dev gpu.Device, s Settings) error {
	return runPass(dev, gpu.PassDesc{
		Label:      "clear",
		BackBuffer: true,
		ColorLoad:  gpu.LoadClear,
		ClearColor: s.ClearColor,
	}, func() error { return nil })
}

// ShadowPass renders every entity's depth from the light into the shadow
// map. Entities with empty meshes are skipped.
func ShadowPass(dev gpu.Device, r *FrameResources, s Settings, f *Frame, light scene.LightViewVolume) error {
	size := r.ShadowMap.Desc().Width
	return runPass(dev, gpu.PassDesc{
		Label:      "shadow",
		Depth:      r.ShadowMap,
		DepthLoad:  gpu.LoadClear,
		ClearDepth: 1,
		Viewport:   core.Viewport{Width: size, Height: size},
		Raster: gpu.RasterState{
			Cull:                 gpu.CullBack,
			DepthBias:            s.DepthBias,
			SlopeScaledDepthBias: s.SlopeBias,
		},
		DepthTest: gpu.DefaultDepth,
	}, func() error {
		for _, e := range f.Entities {
			m := f.Meshes.Get(e.Mesh)
			if m == nil || m.GPU == nil {
				continue
			}
			u := &gpu.ShadowUniforms{
				World:      e.Transform.World(),
				View:       light.View,
				Projection: light.Projection,
			}
			if err := dev.Draw(u, m.GPU); err != nil {
				return fmt.Errorf("entity %q: %w", e.Name, err)
			}
		}
		return nil
	})
}

// GeometryPass fills the G-buffer: lit color, ambient, view-space normals
// and linear view depth.
func GeometryPass(dev gpu.Device, r *FrameResources, s Settings, f *Frame, light scene.LightViewVolume) (Stats, error) {
	var stats Stats
	t := &r.Targets
	err := runPass(dev, gpu.PassDesc{
		Label:      "geometry",
		Color:      t.GBuffer[:],
		ColorLoad:  gpu.LoadClear,
		ClearColor: core.ColorClear,
		Depth:      t.Depth,
		DepthLoad:  gpu.LoadClear,
		ClearDepth: 1,
		Raster:     gpu.DefaultRaster,
		DepthTest:  gpu.DefaultDepth,
	}, func() error {
		cam := f.Camera
		frustum := scene.FrustumFromViewProjection(cam.View().Mul(cam.Projection()))
		for _, e := range f.Entities {
			m := f.Meshes.Get(e.Mesh)
			mat := f.Materials.Get(e.Material)
			if m == nil || m.GPU == nil || mat == nil {
				stats.Skipped++
				continue
			}
			if s.FrustumCull && !m.Bounds.Transform(e.Transform.World()).IntersectsFrustum(&frustum) {
				stats.Culled++
				continue
			}
			u := &gpu.GBufferUniforms{
				World:             e.Transform.World(),
				WorldInvTranspose: e.Transform.WorldInverseTranspose(),
				View:              cam.View(),
				Projection:        cam.Projection(),
				LightView:         light.View,
				LightProjection:   light.Projection,
				CameraPosition:    cam.Transform.Position(),
				Ambient:           f.Ambient,
				Light:             f.Light.Uniform(),
				ShadowMap:         r.ShadowMap,
				ShadowSampler:     r.ShadowSampler,
			}
			mat.Bind(u)
			if err := dev.Draw(u, m.GPU); err != nil {
				return fmt.Errorf("entity %q: %w", e.Name, err)
			}
			stats.Entities++
			stats.Triangles += m.GPU.IndexCount() / 3
		}
		return nil
	})
	return stats, err
}

// SkyPass draws the cube map behind everything already in the color
// target. It tests against the geometry depth without writing it.
func SkyPass(dev gpu.Device, r *FrameResources, f *Frame) error {
	if f.Sky == nil {
		return nil
	}
	t := &r.Targets
	return runPass(dev, gpu.PassDesc{
		Label:     "sky",
		Color:     []gpu.Texture{t.GBuffer[gpu.GBufferColor]},
		Depth:     t.Depth,
		Raster:    gpu.RasterState{Cull: gpu.CullFront},
		DepthTest: gpu.DepthState{Test: true, Write: false, Func: gpu.CompareLessEqual},
	}, func() error {
		return dev.Draw(&gpu.SkyUniforms{
			View:       f.Camera.View(),
			Projection: f.Camera.Projection(),
			Sky:        f.Sky,
			Sampler:    r.ClampSampler,
		}, r.SkyMesh)
	})
}

func fullscreen(dev gpu.Device, label string, dst gpu.Texture, u gpu.Uniforms) error {
	return runPass(dev, gpu.PassDesc{
		Label:  label,
		Color:  []gpu.Texture{dst},
		Raster: fullscreenRaster,
	}, func() error { return dev.DrawFullscreen(u) })
}

// SSAOPass writes raw ambient accessibility from the normal and depth
// targets.
func SSAOPass(dev gpu.Device, r *FrameResources, s Settings, cam *scene.Camera) error {
	t := &r.Targets
	proj := cam.Projection()
	inv, ok := proj.Inverse()
	if !ok {
		return fmt.Errorf("ssao pass: projection is not invertible")
	}
	return fullscreen(dev, "ssao", t.SSAO, &gpu.SSAOUniforms{
		View:          cam.View(),
		Projection:    proj,
		InvProjection: inv,
		Kernel:        r.Kernel,
		Radius:        s.SSAORadius,
		SampleCount:   s.SSAOSamples,
		Bias:          s.SSAOBias,
		NoiseScale:    math.Vec2{X: float32(t.Width) / NoiseSize, Y: float32(t.Height) / NoiseSize},
		Normals:       t.GBuffer[gpu.GBufferNormal],
		Depth:         t.GBuffer[gpu.GBufferDepth],
		Noise:         r.Noise,
		Sampler:       r.PointSampler,
		NoiseSampler:  r.NoiseSampler,
	})
}

// SSAOBlurPass smooths raw occlusion with a fixed 5×5 box.
func SSAOBlurPass(dev gpu.Device, r *FrameResources) error {
	t := &r.Targets
	return fullscreen(dev, "ssao-blur", t.SSAOBlur, &gpu.SSAOBlurUniforms{
		SSAO:        t.SSAO,
		PixelWidth:  1 / float32(t.Width),
		PixelHeight: 1 / float32(t.Height),
		Sampler:     r.ClampSampler,
	})
}

// CombinePass writes color + ambient × occlusion.
func CombinePass(dev gpu.Device, r *FrameResources) error {
	t := &r.Targets
	return fullscreen(dev, "combine", t.Combined, &gpu.CombineUniforms{
		Color:   t.GBuffer[gpu.GBufferColor],
		Ambient: t.GBuffer[gpu.GBufferAmbient],
		SSAO:    t.SSAOBlur,
		Sampler: r.ClampSampler,
	})
}

// FinalPass box-blurs src by radius into the back buffer. Radius 0 copies.
func FinalPass(dev gpu.Device, r *FrameResources, src gpu.Texture, radius int) error {
	w, h := dev.BackBufferSize()
	return runPass(dev, gpu.PassDesc{
		Label:      "final",
		BackBuffer: true,
		Raster:     fullscreenRaster,
	}, func() error {
		return dev.DrawFullscreen(&gpu.PostUniforms{
			Pixels:      src,
			BlurRadius:  min(max(radius, 0), MaxBlurRadius),
			PixelWidth:  1 / float32(w),
			PixelHeight: 1 / float32(h),
			Sampler:     r.ClampSampler,
		})
	})
}
