package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

const programCount = int(gpu.ProgramPost) + 1

// programSource is one program's GLSL and the texture unit of each of its
// samplers.
type programSource struct {
	vert, frag string
	units      map[string]int32
}

var programSources = [programCount]programSource{
	gpu.ProgramShadow:   {vert: shadowVertSrc, frag: shadowFragSrc},
	gpu.ProgramGBuffer:  {vert: gbufferVertSrc, frag: gbufferFragSrc, units: gbufferUnits},
	gpu.ProgramSky:      {vert: skyVertSrc, frag: skyFragSrc, units: map[string]int32{"skyCube": 0}},
	gpu.ProgramSSAO:     {vert: fullscreenVertSrc, frag: ssaoFragSrc, units: ssaoUnits},
	gpu.ProgramSSAOBlur: {vert: fullscreenVertSrc, frag: ssaoBlurFragSrc, units: map[string]int32{"ssaoTex": 0}},
	gpu.ProgramCombine:  {vert: fullscreenVertSrc, frag: combineFragSrc, units: combineUnits},
	gpu.ProgramPost:     {vert: fullscreenVertSrc, frag: postFragSrc, units: map[string]int32{"pixels": 0}},
}

// clipToGL is prepended to every raster vertex shader. It mirrors y so
// row 0 of a target is the top of the image, and remaps z from [0,w] to
// [-w,w] so window depth equals z/w.
const clipToGL = `
vec4 toGL(vec4 c) {
    return vec4(c.x, -c.y, 2.0 * c.z - c.w, c.w);
}
`

// program is a linked GL program with a lazily filled uniform location
// cache.
type program struct {
	id   uint32
	locs map[string]int32
}

func bindUnits(id uint32, units map[string]int32) *program {
	p := &program{id: id, locs: make(map[string]int32)}
	gl.UseProgram(id)
	for name, unit := range units {
		gl.Uniform1i(p.loc(name), unit)
	}
	gl.UseProgram(0)
	return p
}

func (p *program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	l := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locs[name] = l
	return l
}

func (p *program) mat4(name string, m math.Mat4) {
	g := m.GL()
	gl.UniformMatrix4fv(p.loc(name), 1, false, &g[0])
}

func (p *program) vec2(name string, x, y float32) { gl.Uniform2f(p.loc(name), x, y) }

func (p *program) vec3(name string, v math.Vec3) {
	g := v.GL()
	gl.Uniform3fv(p.loc(name), 1, &g[0])
}

func (p *program) color(name string, c core.Color) { p.vec3(name, c.Vec3()) }
func (p *program) float(name string, f float32)    { gl.Uniform1f(p.loc(name), f) }
func (p *program) int(name string, i int)          { gl.Uniform1i(p.loc(name), int32(i)) }

func (p *program) bool(name string, b bool) {
	var v int32
	if b {
		v = 1
	}
	gl.Uniform1i(p.loc(name), v)
}

// bindTexture binds t and its sampler to unit and sets the program's has flag.
// A nil sampler falls back to the device sampler given.
func (d *Device) bindTexture(p *program, unit uint32, has string, t gpu.Texture, s gpu.Sampler, fallback uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gt, ok := t.(*texture)
	if t == nil || !ok {
		gl.BindTexture(gl.TEXTURE_2D, 0)
		gl.BindSampler(unit, 0)
		if has != "" {
			p.bool(has, false)
		}
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, gt.id)
	gl.BindSampler(unit, samplerID(s, fallback))
	if has != "" {
		p.bool(has, true)
	}
}

// ── Dispatch ──────────────────────────────────────────────────────────────────

// useRaster makes u's program current and uploads its uniforms.
func (d *Device) useRaster(u gpu.Uniforms) error {
	switch u := u.(type) {
	case *gpu.ShadowUniforms:
		d.useShadow(u)
	case *gpu.GBufferUniforms:
		d.useGBuffer(u)
	case *gpu.SkyUniforms:
		d.useSky(u)
	default:
		return fmt.Errorf("draw %s: %w", u.Program(), gpu.ErrUnknownProgram)
	}
	return nil
}

// useFullscreen is useRaster for the full-screen programs.
func (d *Device) useFullscreen(u gpu.Uniforms) (*program, error) {
	switch u := u.(type) {
	case *gpu.SSAOUniforms:
		return d.useSSAO(u), nil
	case *gpu.SSAOBlurUniforms:
		return d.useSSAOBlur(u), nil
	case *gpu.CombineUniforms:
		return d.useCombine(u), nil
	case *gpu.PostUniforms:
		return d.usePost(u), nil
	}
	return nil, fmt.Errorf("full-screen draw %s: %w", u.Program(), gpu.ErrUnknownProgram)
}

func (d *Device) use(prog gpu.Program) *program {
	p := d.programs[prog]
	gl.UseProgram(p.id)
	return p
}
