package opengl

import (
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
)

// EXT_texture_filter_anisotropic tokens; the 4.1 core bindings do not
// export them.
const (
	textureMaxAnisotropy    = 0x84FE
	maxTextureMaxAnisotropy = 0x84FF
)

// texFormat is the GL triple a gpu.Format uploads and reads back with.
type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

func formatOf(f gpu.Format) (texFormat, error) {
	switch f {
	case gpu.FormatRGBA8:
		return texFormat{gl.RGBA8, gl.RGBA, gl.FLOAT}, nil
	case gpu.FormatRGBA16F:
		return texFormat{gl.RGBA16F, gl.RGBA, gl.FLOAT}, nil
	case gpu.FormatR32F:
		return texFormat{gl.R32F, gl.RED, gl.FLOAT}, nil
	case gpu.FormatDepth32F:
		return texFormat{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT}, nil
	}
	return texFormat{}, fmt.Errorf("unsupported format %d", f)
}

// hasMips reports whether a texture gets a mip chain: only sampled colour
// textures that are never rendered to.
func hasMips(desc gpu.TextureDesc) bool {
	return desc.Format == gpu.FormatRGBA8 &&
		desc.Usage&gpu.UsageSampled != 0 &&
		desc.Usage&(gpu.UsageRenderTarget|gpu.UsageDepthTarget) == 0
}

// NewTexture allocates a 2-D texture, uploading data when it is non-nil.
// Row 0 of data is stored at t = 0.
func (d *Device) NewTexture(desc gpu.TextureDesc, data []float32) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	f, err := formatOf(desc.Format)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", desc.Label, err)
	}
	if n := desc.Width * desc.Height * desc.Format.Channels(); data != nil && len(data) != n {
		return nil, fmt.Errorf("texture %q: got %d floats, want %d", desc.Label, len(data), n)
	}

	t := &texture{desc: desc}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	var pixels unsafe.Pointer
	if len(data) > 0 {
		pixels = gl.Ptr(data)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, f.internal, int32(desc.Width), int32(desc.Height), 0, f.format, f.xtype, pixels)

	if hasMips(desc) && len(data) > 0 {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	logger.Log.Debug("texture created",
		zap.String("label", desc.Label),
		zap.Int("width", desc.Width),
		zap.Int("height", desc.Height),
		zap.Stringer("format", desc.Format))
	return t, nil
}

// ReadTexture downloads every texel of t, row 0 first.
func (d *Device) ReadTexture(t gpu.Texture) ([]float32, error) {
	gt, err := d.own(t)
	if err != nil {
		return nil, err
	}
	if gt.released {
		return nil, fmt.Errorf("read %q: %w", gt.desc.Label, gpu.ErrReleased)
	}
	f, err := formatOf(gt.desc.Format)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", gt.desc.Label, err)
	}
	out := make([]float32, gt.desc.Width*gt.desc.Height*gt.desc.Format.Channels())
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.BindTexture(gl.TEXTURE_2D, gt.id)
	gl.GetTexImage(gl.TEXTURE_2D, 0, f.format, gl.FLOAT, gl.Ptr(out))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return out, nil
}

// own returns the backend texture behind t.
func (d *Device) own(t gpu.Texture) (*texture, error) {
	if t == nil {
		return nil, fmt.Errorf("nil texture")
	}
	gt, ok := t.(*texture)
	if !ok {
		return nil, fmt.Errorf("texture %q was not created by the OpenGL device", t.Label())
	}
	return gt, nil
}

// ── Samplers ──────────────────────────────────────────────────────────────────

// NewSampler creates a sampler object. Anisotropy is clamped to what the
// driver reports and ignored when the extension is missing.
func (d *Device) NewSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	return &sampler{desc: desc, id: d.newSamplerObject(desc)}, nil
}

func filterModes(f gpu.Filter) (minFilter, magFilter int32) {
	switch f {
	case gpu.FilterPoint:
		return gl.NEAREST, gl.NEAREST
	case gpu.FilterAnisotropic:
		return gl.LINEAR_MIPMAP_LINEAR, gl.LINEAR
	}
	return gl.LINEAR, gl.LINEAR
}

func addressMode(a gpu.AddressMode) int32 {
	switch a {
	case gpu.AddressClamp:
		return gl.CLAMP_TO_EDGE
	case gpu.AddressBorder:
		return gl.CLAMP_TO_BORDER
	}
	return gl.REPEAT
}

func compareFunc(c gpu.CompareFunc) uint32 {
	switch c {
	case gpu.CompareLess:
		return gl.LESS
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareGreater:
		return gl.GREATER
	case gpu.CompareAlways:
		return gl.ALWAYS
	}
	return gl.NEVER
}

func (d *Device) newSamplerObject(desc gpu.SamplerDesc) uint32 {
	var id uint32
	gl.GenSamplers(1, &id)

	minF, magF := filterModes(desc.Filter)
	gl.SamplerParameteri(id, gl.TEXTURE_MIN_FILTER, minF)
	gl.SamplerParameteri(id, gl.TEXTURE_MAG_FILTER, magF)

	wrap := addressMode(desc.Address)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_S, wrap)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_T, wrap)
	gl.SamplerParameteri(id, gl.TEXTURE_WRAP_R, wrap)
	if desc.Address == gpu.AddressBorder {
		border := [4]float32{desc.Border.R, desc.Border.G, desc.Border.B, desc.Border.A}
		gl.SamplerParameterfv(id, gl.TEXTURE_BORDER_COLOR, &border[0])
	}

	if desc.Filter == gpu.FilterAnisotropic && d.maxAnisotropy > 1 {
		aniso := min(max(float32(desc.MaxAnisotropy), 1), d.maxAnisotropy)
		gl.SamplerParameterf(id, textureMaxAnisotropy, aniso)
	}

	if desc.Compare != gpu.CompareNever {
		gl.SamplerParameteri(id, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.SamplerParameteri(id, gl.TEXTURE_COMPARE_FUNC, int32(compareFunc(desc.Compare)))
	}
	return id
}

// samplerID returns the object behind s, or fallback when s is nil.
func samplerID(s gpu.Sampler, fallback uint32) uint32 {
	if gs, ok := s.(*sampler); ok && gs.id != 0 {
		return gs.id
	}
	return fallback
}
