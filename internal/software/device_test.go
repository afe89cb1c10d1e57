package software

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
	"ssao-renderer/scene"
)

func newTarget(t *testing.T, d *Device, w, h int, f gpu.Format) gpu.Texture {
	t.Helper()
	usage := gpu.UsageSampled | gpu.UsageRenderTarget
	if f.IsDepth() {
		usage = gpu.UsageSampled | gpu.UsageDepthTarget
	}
	tex, err := d.NewTexture(gpu.TextureDesc{Label: f.String(), Width: w, Height: h, Format: f, Usage: usage}, nil)
	require.NoError(t, err)
	return tex
}

// clipTriangle builds a mesh whose positions are already in clip space.
func clipTriangle(t *testing.T, d *Device, z float32, idx ...uint32) gpu.Mesh {
	t.Helper()
	m, err := d.NewMesh("tri", core.MeshData{
		Vertices: []core.Vertex{
			{Position: math.NewVec3(-1, -1, z)},
			{Position: math.NewVec3(-1, 1, z)},
			{Position: math.NewVec3(1, -1, z)},
		},
		Indices: idx,
	})
	require.NoError(t, err)
	return m
}

func identityShadow() *gpu.ShadowUniforms {
	return &gpu.ShadowUniforms{World: math.Mat4Identity(), View: math.Mat4Identity(), Projection: math.Mat4Identity()}
}

func depthPass(depth gpu.Texture, cull gpu.CullMode) gpu.PassDesc {
	return gpu.PassDesc{
		Label:      "depth",
		Depth:      depth,
		DepthLoad:  gpu.LoadClear,
		ClearDepth: 1,
		Raster:     gpu.RasterState{Cull: cull},
		DepthTest:  gpu.DefaultDepth,
	}
}

func TestClearAndRead(t *testing.T) {
	d := New(Config{Width: 4, Height: 4})
	c := newTarget(t, d, 3, 2, gpu.FormatRGBA16F)
	require.NoError(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{c}, ColorLoad: gpu.LoadClear, ClearColor: core.RGB(0.4, 0.6, 0.75)}))
	require.NoError(t, d.EndPass())

	px, err := d.ReadTexture(c)
	require.NoError(t, err)
	require.Len(t, px, 3*2*4)
	for i := 0; i < len(px); i += 4 {
		assert.Equal(t, []float32{0.4, 0.6, 0.75, 1}, px[i:i+4])
	}
}

func TestPassErrors(t *testing.T) {
	d := New(Config{Width: 4, Height: 4})
	a := newTarget(t, d, 4, 4, gpu.FormatRGBA16F)
	b := newTarget(t, d, 2, 2, gpu.FormatRGBA16F)

	assert.ErrorIs(t, d.DrawFullscreen(&gpu.PostUniforms{}), gpu.ErrNoPass)
	assert.ErrorIs(t, d.EndPass(), gpu.ErrNoPass)
	assert.Error(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{a, b}}), "mismatched sizes")

	require.NoError(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{a}}))
	assert.Error(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{b}}), "nested pass")
	assert.ErrorIs(t, d.DrawFullscreen(&gpu.PostUniforms{Pixels: a}), gpu.ErrHazard)
	assert.NoError(t, d.Draw(&gpu.ShadowUniforms{}, nil), "nil mesh is a no-op")
	assert.Error(t, d.Present(), "present inside a pass")
	require.NoError(t, d.EndPass())

	d.Release(b)
	assert.ErrorIs(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{b}}), gpu.ErrReleased)
	_, err := d.ReadTexture(b)
	assert.ErrorIs(t, err, gpu.ErrReleased)
}

func TestRasterCulling(t *testing.T) {
	cases := []struct {
		name  string
		idx   []uint32
		cull  gpu.CullMode
		drawn bool
	}{
		{"front face, back cull", []uint32{0, 1, 2}, gpu.CullBack, true},
		{"back face, back cull", []uint32{0, 2, 1}, gpu.CullBack, false},
		{"back face, front cull", []uint32{0, 2, 1}, gpu.CullFront, true},
		{"front face, front cull", []uint32{0, 1, 2}, gpu.CullFront, false},
		{"back face, no cull", []uint32{0, 2, 1}, gpu.CullNone, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(Config{Width: 4, Height: 4})
			depth := newTarget(t, d, 4, 4, gpu.FormatDepth32F)
			require.NoError(t, d.BeginPass(depthPass(depth, tc.cull)))
			require.NoError(t, d.Draw(identityShadow(), clipTriangle(t, d, 0.5, tc.idx...)))
			require.NoError(t, d.EndPass())

			px, err := d.ReadTexture(depth)
			require.NoError(t, err)
			// Bottom-left texel is inside the triangle, top-right is not.
			if tc.drawn {
				assert.InDelta(t, 0.5, px[3*4+0], 1e-6)
			} else {
				assert.Equal(t, float32(1), px[3*4+0])
			}
			assert.Equal(t, float32(1), px[0*4+3])
		})
	}
}

func TestDepthBiasFollowsFloatRule(t *testing.T) {
	d := New(Config{Width: 4, Height: 4})
	depth := newTarget(t, d, 4, 4, gpu.FormatDepth32F)
	p := depthPass(depth, gpu.CullBack)
	p.Raster.DepthBias = 1000
	p.Raster.SlopeScaledDepthBias = 1
	require.NoError(t, d.BeginPass(p))
	require.NoError(t, d.Draw(identityShadow(), clipTriangle(t, d, 0.5, 0, 1, 2)))
	require.NoError(t, d.EndPass())

	px, err := d.ReadTexture(depth)
	require.NoError(t, err)
	// 0.5 has exponent -1 and the triangle has no slope.
	want := 0.5 + 1000*math32.Ldexp(1, -24)
	assert.InDelta(t, want, px[3*4], 1e-7)
}

func TestDepthTestKeepsNearest(t *testing.T) {
	d := New(Config{Width: 4, Height: 4})
	depth := newTarget(t, d, 4, 4, gpu.FormatDepth32F)
	require.NoError(t, d.BeginPass(depthPass(depth, gpu.CullBack)))
	require.NoError(t, d.Draw(identityShadow(), clipTriangle(t, d, 0.3, 0, 1, 2)))
	require.NoError(t, d.Draw(identityShadow(), clipTriangle(t, d, 0.7, 0, 1, 2)))
	require.NoError(t, d.EndPass())

	px, err := d.ReadTexture(depth)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, px[3*4], 1e-6)
}

func TestNearClippingKeepsDepthInRange(t *testing.T) {
	d := New(Config{Width: 8, Height: 8})
	depth := newTarget(t, d, 8, 8, gpu.FormatDepth32F)
	m, err := d.NewMesh("crossing", core.MeshData{
		Vertices: []core.Vertex{
			{Position: math.NewVec3(-1, -1, -1)},
			{Position: math.NewVec3(-1, 1, 0.5)},
			{Position: math.NewVec3(1, -1, 0.5)},
		},
		Indices: []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	require.NoError(t, d.BeginPass(depthPass(depth, gpu.CullNone)))
	require.NoError(t, d.Draw(identityShadow(), m))
	require.NoError(t, d.EndPass())

	px, err := d.ReadTexture(depth)
	require.NoError(t, err)
	drawn := 0
	for _, z := range px {
		assert.GreaterOrEqual(t, z, float32(0))
		assert.LessOrEqual(t, z, float32(1))
		if z < 1 {
			drawn++
		}
	}
	assert.Positive(t, drawn)
}

func TestPostPassThroughIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, workers := range []int{1, 3, 16} {
		d := New(Config{Width: 7, Height: 5, Workers: workers})
		data := make([]float32, 7*5*4)
		for i := range data {
			data[i] = rng.Float32() * 4
		}
		src, err := d.NewTexture(gpu.TextureDesc{Label: "src", Width: 7, Height: 5, Format: gpu.FormatRGBA16F, Usage: gpu.UsageSampled}, data)
		require.NoError(t, err)
		smp, err := d.NewSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressClamp})
		require.NoError(t, err)

		require.NoError(t, d.BeginPass(gpu.PassDesc{BackBuffer: true}))
		require.NoError(t, d.DrawFullscreen(&gpu.PostUniforms{Pixels: src, PixelWidth: 1.0 / 7, PixelHeight: 1.0 / 5, Sampler: smp}))
		require.NoError(t, d.EndPass())

		out, err := d.ReadBackBuffer()
		require.NoError(t, err)
		assert.Equal(t, data, out, "workers=%d", workers)
	}
}

func TestPostBoxBlurAverages(t *testing.T) {
	d := New(Config{Width: 3, Height: 3})
	data := make([]float32, 3*3*4)
	data[(1*3+1)*4] = 9
	src, err := d.NewTexture(gpu.TextureDesc{Label: "src", Width: 3, Height: 3, Format: gpu.FormatRGBA16F}, data)
	require.NoError(t, err)
	smp, err := d.NewSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressClamp})
	require.NoError(t, err)

	require.NoError(t, d.BeginPass(gpu.PassDesc{BackBuffer: true}))
	require.NoError(t, d.DrawFullscreen(&gpu.PostUniforms{Pixels: src, BlurRadius: 1, PixelWidth: 1.0 / 3, PixelHeight: 1.0 / 3, Sampler: smp}))
	require.NoError(t, d.EndPass())

	out, err := d.ReadBackBuffer()
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		assert.InDelta(t, 1, out[i*4], 1e-5, "texel %d", i)
	}
}

func TestComparisonSampler(t *testing.T) {
	d := New(Config{Width: 1, Height: 1})
	sm, err := d.NewTexture(gpu.TextureDesc{Label: "shadow", Width: 2, Height: 1, Format: gpu.FormatDepth32F}, []float32{0.2, 0.8})
	require.NoError(t, err)
	smp, err := d.NewSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressBorder, Compare: gpu.CompareLess, Border: core.ColorWhite})
	require.NoError(t, err)
	st := sm.(*texture)

	assert.Equal(t, float32(0), sampleCompare(st, smp, math.NewVec2(0.25, 0.5), 0.5), "behind the occluder")
	assert.Equal(t, float32(1), sampleCompare(st, smp, math.NewVec2(0.75, 0.5), 0.5), "in front")
	assert.InDelta(t, 0.5, sampleCompare(st, smp, math.NewVec2(0.5, 0.5), 0.5), 1e-6, "filtered edge")
	assert.Equal(t, float32(1), sampleCompare(st, smp, math.NewVec2(2, 2), 0.99), "border is lit")
}

func TestCubeFaceSelection(t *testing.T) {
	d := New(Config{Width: 1, Height: 1})
	var faces [6]image.Image
	for i := range faces {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		for p := 0; p < 4; p++ {
			img.Set(p%2, p/2, color.RGBA{R: uint8(i * 40), A: 255})
		}
		faces[i] = img
	}
	cm, err := d.NewCubeMap("sky", faces)
	require.NoError(t, err)
	c := cm.(*cubeMap)

	dirs := []math.Vec3{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1}}
	for i, dir := range dirs {
		assert.InDelta(t, float32(i*40)/255, sampleCube(c, dir)[0], 1e-6, "face %d", i)
	}

	faces[3] = image.NewRGBA(image.Rect(0, 0, 3, 3))
	_, err = d.NewCubeMap("bad", faces)
	assert.Error(t, err)
}

func TestSSAOFlatWallIsUnoccluded(t *testing.T) {
	const w, h = 16, 12
	d := New(Config{Width: w, Height: h, Workers: 4})
	proj := math.Mat4PerspectiveFovLH(math32.Pi/4, float32(w)/h, 0.1, 100)
	inv, ok := proj.Inverse()
	require.True(t, ok)

	depthData := make([]float32, w*h)
	normalData := make([]float32, w*h*4)
	for i := range depthData {
		depthData[i] = 5
		normalData[i*4+2] = -1
	}
	depth, err := d.NewTexture(gpu.TextureDesc{Label: "depth", Width: w, Height: h, Format: gpu.FormatR32F}, depthData)
	require.NoError(t, err)
	normals, err := d.NewTexture(gpu.TextureDesc{Label: "normals", Width: w, Height: h, Format: gpu.FormatRGBA16F}, normalData)
	require.NoError(t, err)
	out := newTarget(t, d, w, h, gpu.FormatR32F)

	u := &gpu.SSAOUniforms{
		Projection:    proj,
		InvProjection: inv,
		Radius:        0.5,
		SampleCount:   gpu.KernelSize,
		Bias:          0.025,
		Normals:       normals,
		Depth:         depth,
	}
	rng := rand.New(rand.NewSource(1))
	for i := range u.Kernel {
		u.Kernel[i] = math.NewVec4(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32(), 0)
	}
	require.NoError(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{out}}))
	require.NoError(t, d.DrawFullscreen(u))
	require.NoError(t, d.EndPass())

	px, err := d.ReadTexture(out)
	require.NoError(t, err)
	for i, v := range px {
		assert.InDelta(t, 1, v, 1e-6, "texel %d", i)
	}
}

func TestBackBufferLifecycle(t *testing.T) {
	d := New(Config{Width: 0, Height: 0})
	w, h := d.BackBufferSize()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)

	d.ResizeBackBuffer(4, 2)
	require.NoError(t, d.BeginPass(gpu.PassDesc{BackBuffer: true, ColorLoad: gpu.LoadClear, ClearColor: core.ColorWhite}))
	require.NoError(t, d.EndPass())
	require.NoError(t, d.Present())
	assert.Equal(t, 1, d.Frames())

	img := d.Snapshot()
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(3, 1))
}

func TestSkyCoversEveryDirection(t *testing.T) {
	const w, h = 48, 32
	var faces [6]image.Image
	for i := range faces {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.RGBA{B: 200, A: 255})
		faces[i] = img
	}
	cases := []struct {
		name    string
		dir, up math.Vec3
	}{
		{"ahead", math.NewVec3(0, 0, 1), math.NewVec3(0, 1, 0)},
		{"up", math.NewVec3(0, 1, 0), math.NewVec3(0, 0, 1)},
		{"down", math.NewVec3(0, -1, 0), math.NewVec3(0, 0, 1)},
		{"diagonal", math.NewVec3(1, 0.5, -1).Normalize(), math.NewVec3(0, 1, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(Config{Width: w, Height: h})
			sky, err := d.NewCubeMap("sky", faces)
			require.NoError(t, err)
			cube, err := d.NewMesh("cube", scene.Cube(2))
			require.NoError(t, err)
			c := newTarget(t, d, w, h, gpu.FormatRGBA16F)
			depth := newTarget(t, d, w, h, gpu.FormatDepth32F)

			require.NoError(t, d.BeginPass(gpu.PassDesc{
				Color:      []gpu.Texture{c},
				ColorLoad:  gpu.LoadClear,
				Depth:      depth,
				DepthLoad:  gpu.LoadClear,
				ClearDepth: 1,
				Raster:     gpu.RasterState{Cull: gpu.CullFront},
				DepthTest:  gpu.DepthState{Test: true, Func: gpu.CompareLessEqual},
			}))
			require.NoError(t, d.Draw(&gpu.SkyUniforms{
				View:       math.Mat4LookToLH(math.Vec3Zero, tc.dir, tc.up),
				Projection: math.Mat4PerspectiveFovLH(math32.Pi/2, float32(w)/h, 0.1, 100),
				Sky:        sky,
			}, cube))
			require.NoError(t, d.EndPass())

			px, err := d.ReadTexture(c)
			require.NoError(t, err)
			covered := 0
			for i := 0; i < len(px); i += 4 {
				if px[i+3] == 1 {
					covered++
				}
			}
			assert.Equal(t, w*h, covered)
			assert.InDelta(t, 200.0/255, px[2], 1e-6)

			zs, err := d.ReadTexture(depth)
			require.NoError(t, err)
			for _, z := range zs {
				require.Equal(t, float32(1), z, "sky must not write depth")
			}
		})
	}
}

func TestSharedEdgeShadedOnce(t *testing.T) {
	// Both triangles share the vertical edge x = -0.25, which runs through
	// the centers of column 1 on a 4×4 target.
	d := New(Config{Width: 4, Height: 4})
	left, err := d.NewMesh("left", core.MeshData{
		Vertices: []core.Vertex{
			{Position: math.NewVec3(-1, 0, 0.5)},
			{Position: math.NewVec3(-0.25, 1, 0.5)},
			{Position: math.NewVec3(-0.25, -1, 0.5)},
		},
		Indices: []uint32{0, 1, 2},
	})
	require.NoError(t, err)
	right, err := d.NewMesh("right", core.MeshData{
		Vertices: []core.Vertex{
			{Position: math.NewVec3(0.5, 0, 0.5)},
			{Position: math.NewVec3(-0.25, -1, 0.5)},
			{Position: math.NewVec3(-0.25, 1, 0.5)},
		},
		Indices: []uint32{0, 1, 2},
	})
	require.NoError(t, err)

	coverage := func(m gpu.Mesh) []float32 {
		depth := newTarget(t, d, 4, 4, gpu.FormatDepth32F)
		require.NoError(t, d.BeginPass(depthPass(depth, gpu.CullNone)))
		require.NoError(t, d.Draw(identityShadow(), m))
		require.NoError(t, d.EndPass())
		px, err := d.ReadTexture(depth)
		require.NoError(t, err)
		return px
	}
	a, b := coverage(left), coverage(right)
	for y := 0; y < 4; y++ {
		i := y*4 + 1
		drawn := 0
		for _, px := range [][]float32{a, b} {
			if px[i] < 1 {
				drawn++
			}
		}
		assert.Equal(t, 1, drawn, "row %d", y)
	}
}

func TestClipNearDropsPointsBehindEye(t *testing.T) {
	tri := [3]vertexOut{
		{clip: math.Vec4{X: 0, Y: 0, Z: 0.5, W: 1}},
		{clip: math.Vec4{X: 1, Y: 0, Z: 0.5, W: -1}},
		{clip: math.Vec4{X: 0, Y: 1, Z: 0.5, W: 1}},
	}
	var poly [maxClipped]vertexOut
	n := clipNear(tri, 0, &poly)
	require.Equal(t, 4, n)
	for _, v := range poly[:n] {
		assert.GreaterOrEqual(t, v.clip.W, float32(minClipW)-1e-7)
		assert.GreaterOrEqual(t, v.clip.Z, float32(0))
	}

	behind := [3]vertexOut{
		{clip: math.Vec4{Z: 1, W: -1}},
		{clip: math.Vec4{X: 1, Z: 1, W: -2}},
		{clip: math.Vec4{Y: 1, Z: 1, W: -1}},
	}
	assert.Zero(t, clipNear(behind, 0, &poly))
}

func TestNilTargetIsAnError(t *testing.T) {
	d := New(Config{Width: 4, Height: 4})
	depth := newTarget(t, d, 4, 4, gpu.FormatDepth32F)
	assert.Error(t, d.BeginPass(gpu.PassDesc{Color: []gpu.Texture{nil}, Depth: depth}))
	assert.Error(t, d.BeginPass(gpu.PassDesc{Depth: depth, Color: make([]gpu.Texture, 2)}))
	assert.ErrorIs(t, d.EndPass(), gpu.ErrNoPass, "a failed pass is not left open")
}
