// Package opengl is the windowed gpu.Device, built on OpenGL 4.1 core.
//
// Matrices are row-vector (v×M); uploading them untransposed makes GLSL's
// M*v compute the same product. Textures and render targets store their top
// row first, so raster shaders mirror clip-space y and the final pass flips
// it back for the window.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
)

// Config configures the device. The GL context must already be current on
// the calling goroutine.
type Config struct {
	Width  int
	Height int
	// Swap presents the default framebuffer, usually Window.SwapBuffers.
	Swap func()
}

// ── Resources ─────────────────────────────────────────────────────────────────

type texture struct {
	desc     gpu.TextureDesc
	id       uint32
	released bool
}

func (t *texture) Label() string         { return t.desc.Label }
func (t *texture) Desc() gpu.TextureDesc { return t.desc }

type cubeMap struct {
	label string
	size  int
	id    uint32
}

func (c *cubeMap) Label() string { return c.label }
func (c *cubeMap) Size() int     { return c.size }

type sampler struct {
	desc gpu.SamplerDesc
	id   uint32
}

func (s *sampler) Label() string         { return s.desc.Label }
func (s *sampler) Desc() gpu.SamplerDesc { return s.desc }

// glMesh holds the OpenGL buffer objects for an uploaded mesh.
type glMesh struct {
	label      string
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

func (m *glMesh) Label() string   { return m.label }
func (m *glMesh) IndexCount() int { return int(m.indexCount) }

// ── Device ────────────────────────────────────────────────────────────────────

// Device is the OpenGL backend.
type Device struct {
	swap          func()
	width, height int
	frames        int

	programs [programCount]*program
	emptyVAO uint32

	// linear clamp is bound when a draw passes no sampler; point clamp is
	// always used for the SSAO depth and normal reads.
	linearSampler uint32
	pointSampler  uint32
	shadowSampler uint32
	maxAnisotropy float32

	framebuffers map[fboKey]uint32
	active       *pass
}

var _ gpu.Device = (*Device)(nil)

// New initialises OpenGL and compiles every program.
// Must be called after the GLFW window context is made current.
func New(cfg Config) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Log.Info("OpenGL initialised",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	d := &Device{
		swap:         cfg.Swap,
		framebuffers: make(map[fboKey]uint32),
	}
	d.ResizeBackBuffer(cfg.Width, cfg.Height)

	for p, src := range programSources {
		prog, err := newProgram(src.vert, src.frag)
		if err != nil {
			d.Destroy()
			return nil, fmt.Errorf("%s shader: %w", gpu.Program(p), err)
		}
		d.programs[p] = bindUnits(prog, src.units)
	}

	// Fullscreen-triangle VAO (no vertex data, uses gl_VertexID)
	gl.GenVertexArrays(1, &d.emptyVAO)

	if hasExtension("GL_EXT_texture_filter_anisotropic") || hasExtension("GL_ARB_texture_filter_anisotropic") {
		gl.GetFloatv(maxTextureMaxAnisotropy, &d.maxAnisotropy)
	}
	d.linearSampler = d.newSamplerObject(gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressClamp})
	d.pointSampler = d.newSamplerObject(gpu.SamplerDesc{Filter: gpu.FilterPoint, Address: gpu.AddressClamp})
	d.shadowSampler = d.newSamplerObject(gpu.SamplerDesc{
		Filter:  gpu.FilterLinear,
		Address: gpu.AddressBorder,
		Compare: gpu.CompareLess,
		Border:  core.ColorWhite,
	})

	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)

	// Clip-space y is mirrored by every raster program, which turns
	// clockwise-on-screen into counter-clockwise in window coordinates.
	gl.FrontFace(gl.CCW)
	d.applyRaster(gpu.DefaultRaster)
	d.applyDepth(gpu.DefaultDepth, true)
	return d, nil
}

// NewMesh uploads vertex and index data. Empty meshes upload nothing and
// draw as a no-op.
func (d *Device) NewMesh(label string, data core.MeshData) (gpu.Mesh, error) {
	for _, idx := range data.Indices {
		if int(idx) >= len(data.Vertices) {
			return nil, fmt.Errorf("mesh %q: index %d out of range", label, idx)
		}
	}
	m := &glMesh{label: label, indexCount: int32(len(data.Indices))}
	if data.Empty() {
		m.indexCount = 0
		return m, nil
	}

	stride := int32(unsafe.Sizeof(core.Vertex{}))

	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.BindVertexArray(m.vao)

	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*int(stride), gl.Ptr(data.Vertices), gl.STATIC_DRAW)

	var v core.Vertex
	attribs := []struct {
		size   int32
		offset uintptr
	}{
		{3, unsafe.Offsetof(v.Position)},
		{3, unsafe.Offsetof(v.Normal)},
		{2, unsafe.Offsetof(v.UV)},
		{3, unsafe.Offsetof(v.Tangent)},
		{3, unsafe.Offsetof(v.Bitangent)},
	}
	for i, a := range attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(int(a.offset)))
	}

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	logger.Log.Debug("mesh uploaded", zap.String("label", label),
		zap.Int("vertices", len(data.Vertices)), zap.Int("indices", len(data.Indices)))
	return m, nil
}

// Release frees the GPU objects behind r. Framebuffers that used a released
// texture are dropped.
func (d *Device) Release(r gpu.Resource) {
	switch r := r.(type) {
	case *texture:
		if r.released {
			return
		}
		d.dropFramebuffers(r.id)
		gl.DeleteTextures(1, &r.id)
		r.released = true
	case *cubeMap:
		if r.id != 0 {
			gl.DeleteTextures(1, &r.id)
			r.id = 0
		}
	case *sampler:
		if r.id != 0 {
			gl.DeleteSamplers(1, &r.id)
			r.id = 0
		}
	case *glMesh:
		if r.vao != 0 {
			gl.DeleteVertexArrays(1, &r.vao)
			gl.DeleteBuffers(1, &r.vbo)
			gl.DeleteBuffers(1, &r.ebo)
			r.vao, r.vbo, r.ebo = 0, 0, 0
		}
	}
}

// ── Back buffer ───────────────────────────────────────────────────────────────

// ResizeBackBuffer records the window framebuffer size; GLFW resizes the
// default framebuffer itself.
func (d *Device) ResizeBackBuffer(width, height int) {
	d.width, d.height = max(width, 1), max(height, 1)
}

func (d *Device) BackBufferSize() (int, int) { return d.width, d.height }

// ReadBackBuffer returns the default framebuffer, top row first.
func (d *Device) ReadBackBuffer() ([]float32, error) {
	if d.active != nil {
		return nil, fmt.Errorf("read back buffer: pass %q still open", d.active.desc.Label)
	}
	px := make([]float32, d.width*d.height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.ReadPixels(0, 0, int32(d.width), int32(d.height), gl.RGBA, gl.FLOAT, gl.Ptr(px))
	flipRows(px, d.width*4)
	return px, nil
}

// Present swaps the window buffers.
func (d *Device) Present() error {
	if d.active != nil {
		return fmt.Errorf("present: pass %q still open", d.active.desc.Label)
	}
	if d.swap != nil {
		d.swap()
	}
	d.frames++
	return nil
}

func (d *Device) Frames() int { return d.frames }

// Destroy frees the programs, the cached framebuffers and the device
// samplers. Resources handed out by New* must be released by their owner.
func (d *Device) Destroy() {
	for key, fbo := range d.framebuffers {
		gl.DeleteFramebuffers(1, &fbo)
		delete(d.framebuffers, key)
	}
	for i, p := range d.programs {
		if p != nil {
			gl.DeleteProgram(p.id)
			d.programs[i] = nil
		}
	}
	if d.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &d.emptyVAO)
		d.emptyVAO = 0
	}
	for _, s := range []*uint32{&d.linearSampler, &d.pointSampler, &d.shadowSampler} {
		if *s != 0 {
			gl.DeleteSamplers(1, s)
			*s = 0
		}
	}
}

// flipRows reverses the row order of a tightly packed image in place.
func flipRows(px []float32, rowLen int) {
	if rowLen <= 0 {
		return
	}
	rows := len(px) / rowLen
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := px[top*rowLen : (top+1)*rowLen]
		b := px[bottom*rowLen : (bottom+1)*rowLen]
		for i := range a {
			a[i], b[i] = b[i], a[i]
		}
	}
}

func hasExtension(name string) bool {
	var n int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &n)
	for i := int32(0); i < n; i++ {
		if gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))) == name {
			return true
		}
	}
	return false
}

// ── Shader helpers ────────────────────────────────────────────────────────────

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		logger.Log.Error("program link failed", zap.String("log", log))
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		logger.Log.Error("shader compile failed", zap.String("log", log))
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}
