// Package software is a CPU implementation of gpu.Device. It rasterizes
// with the same conventions as the OpenGL backend (left-handed clip space,
// depth in [0,1], clockwise front faces) and is used for headless rendering
// and for tests.
package software

import (
	"fmt"
	"image"
	"runtime"

	"github.com/anthonynsimon/bild/clone"
	"go.uber.org/zap"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
)

type texture struct {
	desc     gpu.TextureDesc
	data     []float32
	released bool
}

func (t *texture) Label() string         { return t.desc.Label }
func (t *texture) Desc() gpu.TextureDesc { return t.desc }
func (t *texture) stride() int           { return t.desc.Format.Channels() }
func (t *texture) texel(x, y int) []float32 {
	c := t.stride()
	o := (y*t.desc.Width + x) * c
	return t.data[o : o+c]
}

type cubeMap struct {
	label string
	size  int
	faces [6][]float32
}

func (c *cubeMap) Label() string { return c.label }
func (c *cubeMap) Size() int     { return c.size }

type sampler struct {
	desc gpu.SamplerDesc
}

func (s *sampler) Label() string         { return s.desc.Label }
func (s *sampler) Desc() gpu.SamplerDesc { return s.desc }

type mesh struct {
	label    string
	vertices []core.Vertex
	indices  []uint32
}

func (m *mesh) Label() string   { return m.label }
func (m *mesh) IndexCount() int { return len(m.indices) }

// pass is the state bound between BeginPass and EndPass.
type pass struct {
	desc     gpu.PassDesc
	color    []*texture
	depth    *texture
	width    int
	height   int
	viewport image.Rectangle
}

// Device renders into memory. The back buffer holds unquantized RGBA floats;
// Present snapshots it.
type Device struct {
	back      *texture
	presented []float32
	frames    int
	active    *pass
	workers   int
}

// Config tunes a Device.
type Config struct {
	Width  int
	Height int
	// Workers bounds full-screen shading parallelism; 0 uses GOMAXPROCS.
	Workers int
}

// New returns a device with a back buffer of the configured size.
func New(cfg Config) *Device {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	d := &Device{workers: workers}
	d.ResizeBackBuffer(cfg.Width, cfg.Height)
	return d
}

var _ gpu.Device = (*Device)(nil)

func (d *Device) NewTexture(desc gpu.TextureDesc, data []float32) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	n := desc.Width * desc.Height * desc.Format.Channels()
	t := &texture{desc: desc, data: make([]float32, n)}
	if data != nil {
		if len(data) != n {
			return nil, fmt.Errorf("texture %q: got %d floats, want %d", desc.Label, len(data), n)
		}
		copy(t.data, data)
		if desc.Format == gpu.FormatRGBA8 {
			for i, v := range t.data {
				t.data[i] = saturate(v)
			}
		}
	}
	logger.Log.Debug("texture created",
		zap.String("label", desc.Label),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Stringer("format", desc.Format))
	return t, nil
}

func (d *Device) NewCubeMap(label string, faces [6]image.Image) (gpu.CubeMap, error) {
	c := &cubeMap{label: label}
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("cube map %q: face %d missing", label, i)
		}
		b := f.Bounds()
		if b.Dx() != b.Dy() {
			return nil, fmt.Errorf("cube map %q: face %d is not square", label, i)
		}
		if i == 0 {
			c.size = b.Dx()
		} else if b.Dx() != c.size {
			return nil, fmt.Errorf("cube map %q: face %d is %d wide, want %d", label, i, b.Dx(), c.size)
		}
		c.faces[i] = imageFloats(f)
	}
	return c, nil
}

func (d *Device) NewSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	return &sampler{desc: desc}, nil
}

func (d *Device) NewMesh(label string, data core.MeshData) (gpu.Mesh, error) {
	for _, idx := range data.Indices {
		if int(idx) >= len(data.Vertices) {
			return nil, fmt.Errorf("mesh %q: index %d out of range", label, idx)
		}
	}
	m := &mesh{
		label:    label,
		vertices: append([]core.Vertex(nil), data.Vertices...),
		indices:  append([]uint32(nil), data.Indices...),
	}
	return m, nil
}

func (d *Device) Release(r gpu.Resource) {
	if t, ok := r.(*texture); ok {
		t.released = true
		t.data = nil
	}
}

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

	if p.BackBuffer {
		ps.color = []*texture{d.back}
	} else {
		for _, c := range p.Color {
			t, err := d.own(c)
			if err != nil {
				return err
			}
			if t.desc.Format.IsDepth() {
				return fmt.Errorf("pass %q: depth texture %q bound as color", p.Label, t.desc.Label)
			}
			ps.color = append(ps.color, t)
		}
	}
	for _, t := range ps.color {
		if err := bind(t); err != nil {
			return err
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
	if ps.width < 0 {
		return fmt.Errorf("pass %q: no attachments", p.Label)
	}
	ps.viewport = gpu.Bounds(p.Viewport, ps.width, ps.height)

	if p.ColorLoad == gpu.LoadClear {
		c := p.ClearColor
		for _, t := range ps.color {
			fill(t, [4]float32{c.R, c.G, c.B, c.A})
		}
	}
	if ps.depth != nil && p.DepthLoad == gpu.LoadClear {
		fill(ps.depth, [4]float32{p.ClearDepth})
	}

	d.active = ps
	return nil
}

func (d *Device) EndPass() error {
	if d.active == nil {
		return gpu.ErrNoPass
	}
	d.active = nil
	return nil
}

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

func (d *Device) Draw(u gpu.Uniforms, m gpu.Mesh) error {
	if err := d.checkDraw(u); err != nil {
		return err
	}
	if m == nil || m.IndexCount() == 0 {
		return nil
	}
	sm, ok := m.(*mesh)
	if !ok {
		return fmt.Errorf("mesh %q was not created by the software device", m.Label())
	}
	prog, err := rasterProgram(u)
	if err != nil {
		return err
	}
	d.rasterize(prog, sm)
	return nil
}

func (d *Device) DrawFullscreen(u gpu.Uniforms) error {
	if err := d.checkDraw(u); err != nil {
		return err
	}
	shade, err := fullscreenProgram(u)
	if err != nil {
		return err
	}
	return d.shadeFullscreen(shade)
}

func (d *Device) ReadTexture(t gpu.Texture) ([]float32, error) {
	st, err := d.own(t)
	if err != nil {
		return nil, err
	}
	if st.released {
		return nil, fmt.Errorf("read %q: %w", st.desc.Label, gpu.ErrReleased)
	}
	return append([]float32(nil), st.data...), nil
}

func (d *Device) ReadBackBuffer() ([]float32, error) {
	return append([]float32(nil), d.back.data...), nil
}

func (d *Device) ResizeBackBuffer(width, height int) {
	width, height = max(width, 1), max(height, 1)
	if d.back != nil && d.back.desc.Width == width && d.back.desc.Height == height {
		return
	}
	d.back = &texture{
		desc: gpu.TextureDesc{
			Label:  "back-buffer",
			Width:  width,
			Height: height,
			Format: gpu.FormatRGBA16F,
			Usage:  gpu.UsageRenderTarget,
		},
		data: make([]float32, width*height*4),
	}
}

func (d *Device) BackBufferSize() (int, int) {
	return d.back.desc.Width, d.back.desc.Height
}

func (d *Device) Present() error {
	if d.active != nil {
		return fmt.Errorf("present: pass %q still open", d.active.desc.Label)
	}
	d.presented = append(d.presented[:0], d.back.data...)
	d.frames++
	return nil
}

func (d *Device) Destroy() {
	d.back = nil
	d.presented = nil
	d.active = nil
}

// Frames returns how many frames have been presented.
func (d *Device) Frames() int { return d.frames }

// Snapshot returns the last presented frame as an 8-bit image.
func (d *Device) Snapshot() *image.RGBA {
	w, h := d.BackBufferSize()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	src := d.presented
	if len(src) != w*h*4 {
		src = d.back.data
	}
	for i, v := range src {
		img.Pix[i] = uint8(saturate(v)*255 + 0.5)
	}
	return img
}

func (d *Device) own(t gpu.Texture) (*texture, error) {
	if t == nil {
		return nil, fmt.Errorf("nil texture")
	}
	st, ok := t.(*texture)
	if !ok {
		return nil, fmt.Errorf("texture %q was not created by the software device", t.Label())
	}
	return st, nil
}

func fill(t *texture, v [4]float32) {
	c := t.stride()
	for i := 0; i < len(t.data); i += c {
		copy(t.data[i:i+c], v[:c])
	}
}

func imageFloats(img image.Image) []float32 {
	rgba := clone.AsRGBA(img)
	out := make([]float32, len(rgba.Pix))
	for i, v := range rgba.Pix {
		out[i] = float32(v) / 255
	}
	return out
}

func saturate(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
