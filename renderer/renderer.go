// Package renderer runs the deferred SSAO frame: shadow map, G-buffer, sky,
// occlusion, blur, combine and the final box blur into the back buffer.
package renderer

import (
	"fmt"

	"go.uber.org/zap"

	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
)

// View selects what the final pass presents.
type View int

const (
	ViewFinal View = iota
	ViewColor
	ViewAmbient
	ViewNormals
	ViewDepth
	ViewSSAO
	ViewSSAOBlur
	ViewCombined
	ViewShadowMap
	viewCount
)

var viewNames = [...]string{"final", "color", "ambient", "normals", "depth", "ssao", "ssao-blur", "combined", "shadow-map"}

func (v View) String() string {
	if v < 0 || v >= viewCount {
		return "unknown"
	}
	return viewNames[v]
}

// Next cycles through the views.
func (v View) Next() View {
	return (v + 1) % viewCount
}

// Target is an intermediate texture exposed for inspection.
type Target struct {
	View    View
	Texture gpu.Texture
}

// Pipeline owns the frame resources and runs the passes in order.
type Pipeline struct {
	dev      gpu.Device
	res      *FrameResources
	settings Settings
	view     View
	stats    Stats
}

// NewPipeline creates the resources for a w×h back buffer.
func NewPipeline(dev gpu.Device, w, h int, s Settings) (*Pipeline, error) {
	s = s.Clamped()
	res, err := NewFrameResources(dev, w, h, s)
	if err != nil {
		return nil, fmt.Errorf("frame resources: %w", err)
	}
	dev.ResizeBackBuffer(w, h)
	return &Pipeline{dev: dev, res: res, settings: s}, nil
}

func (p *Pipeline) Resources() *FrameResources { return p.res }
func (p *Pipeline) Settings() Settings         { return p.settings }
func (p *Pipeline) Stats() Stats               { return p.stats }
func (p *Pipeline) View() View                 { return p.view }

// SetView selects the presented target. Unknown views fall back to the
// final image.
func (p *Pipeline) SetView(v View) {
	if v < 0 || v >= viewCount {
		v = ViewFinal
	}
	p.view = v
}

// Tune updates the per-frame parameters. Values are clamped to their UI
// ranges.
func (p *Pipeline) Tune(ssaoRadius float32, ssaoSamples, blurRadius int) {
	s := p.settings
	s.SSAORadius = ssaoRadius
	s.SSAOSamples = ssaoSamples
	s.BlurRadius = blurRadius
	p.settings = s.Clamped()
}

// Targets lists every intermediate texture of the current frame.
func (p *Pipeline) Targets() []Target {
	t := &p.res.Targets
	return []Target{
		{ViewColor, t.GBuffer[gpu.GBufferColor]},
		{ViewAmbient, t.GBuffer[gpu.GBufferAmbient]},
		{ViewNormals, t.GBuffer[gpu.GBufferNormal]},
		{ViewDepth, t.GBuffer[gpu.GBufferDepth]},
		{ViewSSAO, t.SSAO},
		{ViewSSAOBlur, t.SSAOBlur},
		{ViewCombined, t.Combined},
		{ViewShadowMap, p.res.ShadowMap},
	}
}

func (p *Pipeline) presented() gpu.Texture {
	for _, t := range p.Targets() {
		if t.View == p.view {
			return t.Texture
		}
	}
	return p.res.Targets.Combined
}

// Resize recreates the size-dependent targets and the back buffer. The
// shadow map keeps its resolution.
func (p *Pipeline) Resize(w, h int) error {
	if err := p.res.Resize(w, h); err != nil {
		return err
	}
	p.dev.ResizeBackBuffer(w, h)
	logger.Log.Debug("pipeline resized", zap.Int("width", w), zap.Int("height", h))
	return nil
}

// Render draws one frame into the back buffer. It does not present.
func (p *Pipeline) Render(f *Frame) error {
	if f == nil || f.Camera == nil {
		return fmt.Errorf("render: no camera")
	}
	s := p.settings
	light := f.Light.ViewVolume(s.LightVolumeSize, s.LightNear, s.LightFar, s.LightDistance)

	// ── Clear ─────────────────────────────────────────────────────────────────
	if err := ClearPass(p.dev, s); err != nil {
		return err
	}

	// ── Shadow map ────────────────────────────────────────────────────────────
	if err := ShadowPass(p.dev, p.res, s, f, light); err != nil {
		return err
	}

	// ── G-buffer and sky ──────────────────────────────────────────────────────
	stats, err := GeometryPass(p.dev, p.res, s, f, light)
	if err != nil {
		return err
	}
	p.stats = stats
	if err := SkyPass(p.dev, p.res, f); err != nil {
		return err
	}

	// ── Occlusion ─────────────────────────────────────────────────────────────
	if err := SSAOPass(p.dev, p.res, s, f.Camera); err != nil {
		return err
	}
	if err := SSAOBlurPass(p.dev, p.res); err != nil {
		return err
	}
	if err := CombinePass(p.dev, p.res); err != nil {
		return err
	}

	// ── Final ─────────────────────────────────────────────────────────────────
	radius := s.BlurRadius
	if p.view != ViewFinal {
		radius = 0
	}
	return FinalPass(p.dev, p.res, p.presented(), radius)
}

// Destroy releases every resource the pipeline created.
func (p *Pipeline) Destroy() {
	if p.res != nil {
		p.res.Release()
		p.res = nil
	}
}
