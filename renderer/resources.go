package renderer

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
	"ssao-renderer/math"
	"ssao-renderer/scene"
)

// RenderTargets are the textures whose size follows the back buffer.
type RenderTargets struct {
	Width, Height int

	GBuffer  [gpu.GBufferTargets]gpu.Texture
	Depth    gpu.Texture
	SSAO     gpu.Texture
	SSAOBlur gpu.Texture
	Combined gpu.Texture
}

func (t *RenderTargets) all() []gpu.Texture {
	out := append([]gpu.Texture(nil), t.GBuffer[:]...)
	return append(out, t.Depth, t.SSAO, t.SSAOBlur, t.Combined)
}

// FrameResources owns every GPU object the passes share. Only Targets
// changes on resize.
type FrameResources struct {
	dev gpu.Device

	Targets RenderTargets

	ShadowMap gpu.Texture
	Noise     gpu.Texture
	Kernel    [KernelSize]math.Vec4
	SkyMesh   gpu.Mesh

	ClampSampler  gpu.Sampler
	PointSampler  gpu.Sampler
	NoiseSampler  gpu.Sampler
	ShadowSampler gpu.Sampler
}

type targetSpec struct {
	name   string
	format gpu.Format
	usage  gpu.Usage
}

const (
	colorUsage = gpu.UsageSampled | gpu.UsageRenderTarget
	depthUsage = gpu.UsageSampled | gpu.UsageDepthTarget
)

var gbufferSpecs = [gpu.GBufferTargets]targetSpec{
	{"gbuffer.color", gpu.FormatRGBA16F, colorUsage},
	{"gbuffer.ambient", gpu.FormatRGBA16F, colorUsage},
	{"gbuffer.normal", gpu.FormatRGBA16F, colorUsage},
	{"gbuffer.depth", gpu.FormatR32F, colorUsage},
}

var (
	depthSpec    = targetSpec{"depth", gpu.FormatDepth32F, depthUsage}
	ssaoSpec     = targetSpec{"ssao", gpu.FormatR32F, colorUsage}
	ssaoBlurSpec = targetSpec{"ssao.blur", gpu.FormatR32F, colorUsage}
	combinedSpec = targetSpec{"combined", gpu.FormatRGBA16F, colorUsage}
)

// label makes every (re)created resource distinguishable in logs and
// debuggers.
func label(name string) string {
	return name + "#" + uuid.NewString()
}

func newTarget(dev gpu.Device, s targetSpec, w, h int) (gpu.Texture, error) {
	t, err := dev.NewTexture(gpu.TextureDesc{
		Label:  label(s.name),
		Width:  w,
		Height: h,
		Format: s.format,
		Usage:  s.usage,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s target: %w", s.name, err)
	}
	return t, nil
}

// NewFrameResources creates the shadow map, samplers, SSAO kernel and noise
// and a first set of w×h targets.
func NewFrameResources(dev gpu.Device, w, h int, s Settings) (*FrameResources, error) {
	s = s.Clamped()
	r := &FrameResources{dev: dev, Kernel: GenerateKernel(s.KernelSeed)}

	var err error
	r.ShadowMap, err = newTarget(dev, targetSpec{"shadow", gpu.FormatDepth32F, depthUsage}, s.ShadowResolution, s.ShadowResolution)
	if err != nil {
		return nil, err
	}
	r.Noise, err = dev.NewTexture(gpu.TextureDesc{
		Label:  label("ssao.noise"),
		Width:  NoiseSize,
		Height: NoiseSize,
		Format: gpu.FormatRGBA16F,
		Usage:  gpu.UsageSampled,
	}, GenerateNoise(s.NoiseSeed))
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("ssao noise: %w", err)
	}

	samplers := []struct {
		dst  *gpu.Sampler
		desc gpu.SamplerDesc
	}{
		{&r.ClampSampler, gpu.SamplerDesc{Label: "clamp", Filter: gpu.FilterLinear, Address: gpu.AddressClamp}},
		{&r.PointSampler, gpu.SamplerDesc{Label: "point", Filter: gpu.FilterPoint, Address: gpu.AddressClamp}},
		{&r.NoiseSampler, gpu.SamplerDesc{Label: "noise", Filter: gpu.FilterPoint, Address: gpu.AddressWrap}},
		{&r.ShadowSampler, gpu.SamplerDesc{
			Label:   "shadow",
			Filter:  gpu.FilterLinear,
			Address: gpu.AddressBorder,
			Compare: gpu.CompareLess,
			Border:  core.ColorWhite,
		}},
	}
	for _, smp := range samplers {
		if *smp.dst, err = dev.NewSampler(smp.desc); err != nil {
			r.Release()
			return nil, fmt.Errorf("%s sampler: %w", smp.desc.Label, err)
		}
	}

	if r.SkyMesh, err = dev.NewMesh(label("sky"), scene.Cube(2)); err != nil {
		r.Release()
		return nil, fmt.Errorf("sky mesh: %w", err)
	}

	if err := r.Resize(w, h); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// Resize recreates every size-dependent target. The shadow map, noise and
// samplers are untouched. The old targets are released only once the whole
// new set exists; on error the old set stays in place. Must not be called
// inside a pass.
func (r *FrameResources) Resize(w, h int) error {
	w, h = max(w, 1), max(h, 1)

	var t RenderTargets
	t.Width, t.Height = w, h
	fail := func(err error) error {
		release(r.dev, t.all())
		return fmt.Errorf("resize: %w", err)
	}
	var err error
	for i, s := range gbufferSpecs {
		if t.GBuffer[i], err = newTarget(r.dev, s, w, h); err != nil {
			return fail(err)
		}
	}
	for _, p := range []struct {
		dst  *gpu.Texture
		spec targetSpec
	}{
		{&t.Depth, depthSpec},
		{&t.SSAO, ssaoSpec},
		{&t.SSAOBlur, ssaoBlurSpec},
		{&t.Combined, combinedSpec},
	} {
		if *p.dst, err = newTarget(r.dev, p.spec, w, h); err != nil {
			return fail(err)
		}
	}
	r.releaseTargets()
	r.Targets = t
	logger.Log.Debug("frame targets resized", zap.Int("width", w), zap.Int("height", h))
	return nil
}

func release(dev gpu.Device, textures []gpu.Texture) {
	for _, t := range textures {
		if t != nil {
			dev.Release(t)
		}
	}
}

func (r *FrameResources) releaseTargets() {
	release(r.dev, r.Targets.all())
	r.Targets = RenderTargets{}
}

// Release frees everything the resources own.
func (r *FrameResources) Release() {
	r.releaseTargets()
	for _, res := range []gpu.Resource{r.ShadowMap, r.Noise, r.SkyMesh, r.ClampSampler, r.PointSampler, r.NoiseSampler, r.ShadowSampler} {
		if res != nil {
			r.dev.Release(res)
		}
	}
}
