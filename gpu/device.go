// Package gpu describes the small device surface the renderer draws through.
// Backends live in internal/opengl (windowed) and internal/software (CPU
// reference, used headless and by tests).
package gpu

import (
	"errors"
	"image"

	"ssao-renderer/core"
)

var (
	// ErrHazard is returned when a draw samples a texture that is bound as
	// a render target of the active pass.
	ErrHazard = errors.New("gpu: texture sampled while bound as render target")
	// ErrUnknownProgram is returned for uniforms naming a program the
	// backend does not implement.
	ErrUnknownProgram = errors.New("gpu: unknown program")
	// ErrNoPass is returned by draws issued outside BeginPass/EndPass.
	ErrNoPass = errors.New("gpu: draw outside of a pass")
	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpu: resource already released")
)

// Format is the pixel format of a texture.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatRGBA16F
	FormatR32F
	FormatDepth32F
)

// Channels returns the number of float components stored per texel.
func (f Format) Channels() int {
	switch f {
	case FormatR32F, FormatDepth32F:
		return 1
	default:
		return 4
	}
}

// IsDepth reports whether the format is a depth format.
func (f Format) IsDepth() bool { return f == FormatDepth32F }

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatR32F:
		return "R32F"
	case FormatDepth32F:
		return "Depth32F"
	}
	return "unknown"
}

// Usage flags say how a texture will be bound.
type Usage uint8

const (
	UsageSampled Usage = 1 << iota
	UsageRenderTarget
	UsageDepthTarget
)

// TextureDesc describes a 2-D texture.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format Format
	Usage  Usage
}

// SameShape reports whether two descriptors differ only in their label.
func (d TextureDesc) SameShape(o TextureDesc) bool {
	return d.Width == o.Width && d.Height == o.Height && d.Format == o.Format && d.Usage == o.Usage
}

// Resource is anything a Device hands out and later releases.
type Resource interface {
	Label() string
}

// Texture is a 2-D texture. The same object is both the writable surface
// and the readable view.
type Texture interface {
	Resource
	Desc() TextureDesc
}

// CubeMap is a six-face texture sampled by direction.
type CubeMap interface {
	Resource
	Size() int
}

// Sampler is an immutable sampling state.
type Sampler interface {
	Resource
	Desc() SamplerDesc
}

// Mesh is an uploaded, indexed triangle list.
type Mesh interface {
	Resource
	IndexCount() int
}

// Filter selects texel filtering.
type Filter int

const (
	FilterPoint Filter = iota
	FilterLinear
	FilterAnisotropic
)

// AddressMode selects how coordinates outside [0,1] are resolved.
type AddressMode int

const (
	AddressWrap AddressMode = iota
	AddressClamp
	AddressBorder
)

// CompareFunc is used for depth testing and comparison samplers.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareAlways
)

// Test reports whether value passes against ref.
func (c CompareFunc) Test(value, ref float32) bool {
	switch c {
	case CompareLess:
		return value < ref
	case CompareLessEqual:
		return value <= ref
	case CompareGreater:
		return value > ref
	case CompareAlways:
		return true
	}
	return false
}

// SamplerDesc describes a sampler. A Compare other than CompareNever makes
// it a comparison sampler.
type SamplerDesc struct {
	Label         string
	Filter        Filter
	Address       AddressMode
	MaxAnisotropy int
	Compare       CompareFunc
	Border        core.Color
}

// CullMode selects which faces the rasterizer discards.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// RasterState is the rasterizer configuration of a pass. Front faces wind
// clockwise on screen.
type RasterState struct {
	Cull                 CullMode
	DepthBias            int32
	SlopeScaledDepthBias float32
}

// DefaultRaster is the state restored after every pass.
var DefaultRaster = RasterState{Cull: CullBack}

// DepthState configures the depth test.
type DepthState struct {
	Test  bool
	Write bool
	Func  CompareFunc
}

// DefaultDepth is LESS with writes on.
var DefaultDepth = DepthState{Test: true, Write: true, Func: CompareLess}

// LoadOp says what happens to an attachment when a pass begins.
type LoadOp int

const (
	LoadKeep LoadOp = iota
	LoadClear
)

// PassDesc describes one render pass: its attachments, how they are loaded
// and the fixed-function state used by every draw inside it.
type PassDesc struct {
	Label string

	// Color targets, in output order. Ignored when BackBuffer is set.
	Color      []Texture
	BackBuffer bool
	ColorLoad  LoadOp
	ClearColor core.Color

	Depth      Texture
	DepthLoad  LoadOp
	ClearDepth float32

	// Viewport covers the whole target when zero.
	Viewport core.Viewport
	Raster    RasterState
	DepthTest DepthState
}

// Device is the drawing surface. All methods must be called from the
// goroutine that owns the device.
type Device interface {
	NewTexture(desc TextureDesc, data []float32) (Texture, error)
	NewCubeMap(label string, faces [6]image.Image) (CubeMap, error)
	NewSampler(desc SamplerDesc) (Sampler, error)
	NewMesh(label string, data core.MeshData) (Mesh, error)
	Release(r Resource)

	BeginPass(p PassDesc) error
	// Draw uploads u and draws mesh. A nil or empty mesh draws nothing.
	Draw(u Uniforms, mesh Mesh) error
	// DrawFullscreen draws one full-screen triangle with u.
	DrawFullscreen(u Uniforms) error
	EndPass() error

	// ReadTexture returns the texels of t, row 0 first, Channels() floats
	// per texel.
	ReadTexture(t Texture) ([]float32, error)
	// ReadBackBuffer returns the back buffer as RGBA floats.
	ReadBackBuffer() ([]float32, error)
	ResizeBackBuffer(width, height int)
	BackBufferSize() (width, height int)
	Present() error
	Destroy()
}

// Bounds returns the rectangle covered by a viewport, falling back to the
// full w×h target when the viewport is empty.
func Bounds(v core.Viewport, w, h int) image.Rectangle {
	if v.Width <= 0 || v.Height <= 0 {
		return image.Rect(0, 0, w, h)
	}
	return image.Rect(v.X, v.Y, v.X+v.Width, v.Y+v.Height).Intersect(image.Rect(0, 0, w, h))
}
