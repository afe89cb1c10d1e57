package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
)

// fboKey identifies a cached framebuffer by its attachments.
type fboKey struct {
	color [gpu.GBufferTargets]uint32
	depth uint32
}

func keyOf(color []*texture, depth *texture) (fboKey, error) {
	var k fboKey
	if len(color) > len(k.color) {
		return k, fmt.Errorf("%d colour targets, at most %d supported", len(color), len(k.color))
	}
	for i, t := range color {
		k.color[i] = t.id
	}
	if depth != nil {
		k.depth = depth.id
	}
	return k, nil
}

func (k fboKey) uses(id uint32) bool {
	if k.depth == id {
		return true
	}
	for _, c := range k.color {
		if c == id {
			return true
		}
	}
	return false
}

// pass is the state of the open render pass.
type pass struct {
	desc          gpu.PassDesc
	color         []*texture
	depth         *texture
	width, height int
}

// ── Passes ────────────────────────────────────────────────────────────────────

// BeginPass binds the pass targets, sets the viewport and fixed-function
// state, and performs the requested clears.
func (d *Device) BeginPass(p gpu.PassDesc) error {
	if d.active != nil {
		return fmt.Errorf("begin pass %q: pass %q still open", p.Label, d.active.desc.Label)
	}
	ps := &pass{desc: p, width: -1}

	bind := func(t *texture) error {
		if t.released {
			return fmt.Errorf("pass %q: target %q: %w", p.Label, t.desc.Label, gpu.ErrReleased)
		}
		if ps.width < 0 {
			ps.width, ps.height = t.desc.Width, t.desc.Height
		} else if t.desc.Width != ps.width || t.desc.Height != ps.height {
			return fmt.Errorf("pass %q: target %q is %dx%d, want %dx%d",
				p.Label, t.desc.Label, t.desc.Width, t.desc.Height, ps.width, ps.height)
		}
		return nil
	}

	if !p.BackBuffer {
		for _, c := range p.Color {
			t, err := d.own(c)
			if err != nil {
				return err
			}
			if t.desc.Format.IsDepth() {
				return fmt.Errorf("pass %q: depth texture %q bound as color", p.Label, t.desc.Label)
			}
			if err := bind(t); err != nil {
				return err
			}
			ps.color = append(ps.color, t)
		}
	}
	if p.Depth != nil {
		t, err := d.own(p.Depth)
		if err != nil {
			return err
		}
		if !t.desc.Format.IsDepth() {
			return fmt.Errorf("pass %q: %q is not a depth texture", p.Label, t.desc.Label)
		}
		if err := bind(t); err != nil {
			return err
		}
		ps.depth = t
	}

	if p.BackBuffer {
		if ps.depth != nil {
			return fmt.Errorf("pass %q: the back buffer has no depth attachment", p.Label)
		}
		ps.width, ps.height = d.width, d.height
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	} else {
		if ps.width < 0 {
			return fmt.Errorf("pass %q: no attachments", p.Label)
		}
		fbo, err := d.framebuffer(p.Label, ps.color, ps.depth)
		if err != nil {
			return err
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	}

	vp := gpu.Bounds(p.Viewport, ps.width, ps.height)
	y := vp.Min.Y
	if p.BackBuffer {
		// Window rows run bottom-up.
		y = ps.height - vp.Max.Y
	}
	gl.Viewport(int32(vp.Min.X), int32(y), int32(vp.Dx()), int32(vp.Dy()))

	if p.ColorLoad == gpu.LoadClear {
		c := [4]float32{p.ClearColor.R, p.ClearColor.G, p.ClearColor.B, p.ClearColor.A}
		n := max(len(ps.color), 1)
		for i := 0; i < n; i++ {
			gl.ClearBufferfv(gl.COLOR, int32(i), &c[0])
		}
	}
	if ps.depth != nil && p.DepthLoad == gpu.LoadClear {
		gl.DepthMask(true)
		depth := p.ClearDepth
		gl.ClearBufferfv(gl.DEPTH, 0, &depth)
	}

	d.applyRaster(p.Raster)
	d.applyDepth(p.DepthTest, ps.depth != nil)
	d.active = ps
	return nil
}

// EndPass closes the pass and restores the default state.
func (d *Device) EndPass() error {
	if d.active == nil {
		return gpu.ErrNoPass
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.applyRaster(gpu.DefaultRaster)
	d.applyDepth(gpu.DefaultDepth, true)
	d.active = nil
	return nil
}

// framebuffer returns the cached FBO for the attachment set, creating it on
// first use.
func (d *Device) framebuffer(label string, color []*texture, depth *texture) (uint32, error) {
	key, err := keyOf(color, depth)
	if err != nil {
		return 0, fmt.Errorf("pass %q: %w", label, err)
	}
	if fbo, ok := d.framebuffers[key]; ok {
		return fbo, nil
	}

	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	bufs := make([]uint32, len(color))
	for i, t := range color {
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, bufs[i], gl.TEXTURE_2D, t.id, 0)
	}
	if depth != nil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, depth.id, 0)
	}
	if len(bufs) == 0 {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	} else {
		gl.DrawBuffers(int32(len(bufs)), &bufs[0])
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.DeleteFramebuffers(1, &fbo)
		logger.Log.Warn("framebuffer incomplete", zap.String("pass", label), zap.Uint32("status", status))
		return 0, fmt.Errorf("pass %q: framebuffer incomplete: status=0x%X", label, status)
	}
	d.framebuffers[key] = fbo
	return fbo, nil
}

// dropFramebuffers deletes every cached FBO that has texture id attached.
func (d *Device) dropFramebuffers(id uint32) {
	for key, fbo := range d.framebuffers {
		if key.uses(id) {
			gl.DeleteFramebuffers(1, &fbo)
			delete(d.framebuffers, key)
		}
	}
}

// ── Fixed-function state ──────────────────────────────────────────────────────

func (d *Device) applyRaster(r gpu.RasterState) {
	switch r.Cull {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	if r.DepthBias != 0 || r.SlopeScaledDepthBias != 0 {
		gl.Enable(gl.POLYGON_OFFSET_FILL)
		gl.PolygonOffset(r.SlopeScaledDepthBias, float32(r.DepthBias))
	} else {
		gl.Disable(gl.POLYGON_OFFSET_FILL)
	}
}

// applyDepth sets the depth test. GL only writes depth with the test
// enabled, so a write-only state tests with ALWAYS.
func (d *Device) applyDepth(s gpu.DepthState, hasDepth bool) {
	if !hasDepth || (!s.Test && !s.Write) {
		gl.Disable(gl.DEPTH_TEST)
		gl.DepthMask(false)
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	fn := compareFunc(s.Func)
	if !s.Test {
		fn = gl.ALWAYS
	}
	gl.DepthFunc(fn)
	gl.DepthMask(s.Write)
}

// ── Draws ─────────────────────────────────────────────────────────────────────

// checkDraw validates that a draw may run in the active pass.
func (d *Device) checkDraw(u gpu.Uniforms) error {
	if d.active == nil {
		return gpu.ErrNoPass
	}
	for _, s := range u.Sampled() {
		if s == nil {
			continue
		}
		t, err := d.own(s)
		if err != nil {
			return err
		}
		if t.released {
			return fmt.Errorf("sample %q: %w", t.desc.Label, gpu.ErrReleased)
		}
		for _, c := range d.active.color {
			if c == t {
				return fmt.Errorf("%s reads %q: %w", u.Program(), t.desc.Label, gpu.ErrHazard)
			}
		}
		if d.active.depth == t {
			return fmt.Errorf("%s reads %q: %w", u.Program(), t.desc.Label, gpu.ErrHazard)
		}
	}
	return nil
}

// Draw draws mesh with one of the raster programs.
func (d *Device) Draw(u gpu.Uniforms, m gpu.Mesh) error {
	if err := d.checkDraw(u); err != nil {
		return err
	}
	if m == nil || m.IndexCount() == 0 {
		return nil
	}
	gm, ok := m.(*glMesh)
	if !ok {
		return fmt.Errorf("mesh %q was not created by the OpenGL device", m.Label())
	}
	if gm.vao == 0 {
		return fmt.Errorf("draw %q: %w", gm.label, gpu.ErrReleased)
	}
	if err := d.useRaster(u); err != nil {
		return err
	}
	gl.BindVertexArray(gm.vao)
	gl.DrawElements(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	return nil
}

// DrawFullscreen draws the full-screen triangle with one of the
// post-processing programs.
func (d *Device) DrawFullscreen(u gpu.Uniforms) error {
	if err := d.checkDraw(u); err != nil {
		return err
	}
	p, err := d.useFullscreen(u)
	if err != nil {
		return err
	}
	p.bool("flipY", d.active.desc.BackBuffer)
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	return nil
}
