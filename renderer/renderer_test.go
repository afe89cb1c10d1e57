package renderer

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/internal/software"
	"ssao-renderer/math"
	"ssao-renderer/scene"
)

const (
	testWidth  = 48
	testHeight = 32
)

func testSettings() Settings {
	s := DefaultSettings()
	s.ShadowResolution = 64
	return s
}

func newTestPipeline(t *testing.T, s Settings) (*software.Device, *Pipeline) {
	t.Helper()
	dev := software.New(software.Config{Width: testWidth, Height: testHeight, Workers: 4})
	p, err := NewPipeline(dev, testWidth, testHeight, s)
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return dev, p
}

// testFrame is a floor, a sphere resting above it and a gradient sky, seen
// from slightly above and behind.
func testFrame(t *testing.T, dev gpu.Device, light math.Vec3) *Frame {
	t.Helper()
	meshes := scene.NewMeshArena()
	materials := scene.NewMaterialArena()

	floorMesh := scene.NewMesh("quad_double_sided", scene.DoubleSidedQuad(2))
	sphereMesh := scene.NewMesh("sphere", scene.Sphere(0.5, 16, 12))
	emptyMesh := scene.NewMesh("empty", core.MeshData{})
	for _, m := range []*scene.Mesh{floorMesh, sphereMesh, emptyMesh} {
		require.NoError(t, m.Upload(dev))
	}
	floorH, sphereH, emptyH := meshes.Add(floorMesh), meshes.Add(sphereMesh), meshes.Add(emptyMesh)
	mat := materials.Add(scene.NewMaterial("plain", core.RGB(0.8, 0.7, 0.6), 0.5))

	floor := scene.NewEntity("floor", floorH, mat)
	floor.Transform.SetPosition(math.NewVec3(0, -1.5, 0))
	floor.Transform.SetScale(math.NewVec3(10, 1, 10))
	ball := scene.NewEntity("ball", sphereH, mat)
	ball.Transform.SetPosition(math.NewVec3(0, -1, 2))
	empty := scene.NewEntity("empty", emptyH, mat)

	sky, err := dev.NewCubeMap("sky", scene.GradientCubeFaces(8, core.RGB(0.2, 0.4, 0.9), core.RGB(0.8, 0.9, 1), core.RGB(0.3, 0.3, 0.3)))
	require.NoError(t, err)

	return &Frame{
		Camera:    scene.NewCamera(float32(testWidth)/testHeight, math.NewVec3(0, 2, -3), math32.Pi/2),
		Light:     scene.NewDirectionalLight(light, core.ColorWhite, 0.8),
		Ambient:   core.RGB(0.1, 0.1, 0.25),
		Entities:  []*scene.Entity{floor, ball, empty},
		Meshes:    meshes,
		Materials: materials,
		Sky:       sky,
	}
}

func read(t *testing.T, dev gpu.Device, tex gpu.Texture) []float32 {
	t.Helper()
	px, err := dev.ReadTexture(tex)
	require.NoError(t, err)
	return px
}

func TestKernelHemisphere(t *testing.T) {
	k := GenerateKernel(42)
	assert.Equal(t, k, GenerateKernel(42), "deterministic for a seed")

	var head, tail float32
	for i, v := range k {
		assert.GreaterOrEqual(t, v.Z, float32(0), "offset %d", i)
		assert.LessOrEqual(t, v.ToVec3().Length(), float32(1)+1e-6, "offset %d", i)
		l := v.ToVec3().Length()
		switch {
		case i < KernelSize/4:
			head += l
		case i >= KernelSize*3/4:
			tail += l
		}
	}
	assert.Less(t, head, tail, "offsets grow with index")
}

func TestNoiseIsUnitXY(t *testing.T) {
	n := GenerateNoise(123)
	require.Len(t, n, NoiseSize*NoiseSize*4)
	for i := 0; i < NoiseSize*NoiseSize; i++ {
		v := math.NewVec2(n[i*4], n[i*4+1])
		assert.InDelta(t, 1, v.Length(), 1e-5)
		assert.Zero(t, n[i*4+2])
	}
}

func TestSettingsClamped(t *testing.T) {
	s := Settings{SSAORadius: 3, SSAOSamples: 500, BlurRadius: -2}.Clamped()
	assert.Equal(t, float32(MaxSSAORadius), s.SSAORadius)
	assert.Equal(t, KernelSize, s.SSAOSamples)
	assert.Equal(t, 0, s.BlurRadius)
	assert.Equal(t, 1, s.ShadowResolution)
}

func TestShadowMapMatchesAnalyticDepth(t *testing.T) {
	s := testSettings()
	s.DepthBias, s.SlopeBias = 0, 0
	dev, p := newTestPipeline(t, s)
	f := testFrame(t, dev, math.NewVec3(0, -1, 0))
	f.Entities = f.Entities[:1]

	require.NoError(t, p.Render(f))

	// Floor at y = -1.5 seen from y = 20 through near 1 and far 100.
	want := float32(21.5-1) / 99
	for i, z := range read(t, dev, p.Resources().ShadowMap) {
		require.InDelta(t, want, z, 1e-5, "texel %d", i)
	}
}

func TestShadowMapDepthBias(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 0))
	f.Entities = f.Entities[:1]

	require.NoError(t, p.Render(f))

	// The floor is flat in light space, so only the constant term applies.
	base := float32(21.5-1) / 99
	_, exp := math32.Frexp(base)
	want := base + 1000*math32.Ldexp(1, exp-1-23)
	px := read(t, dev, p.Resources().ShadowMap)
	assert.InDelta(t, want, px[len(px)/2], 1e-6)
}

func TestResizeIsIdempotent(t *testing.T) {
	_, p := newTestPipeline(t, testSettings())
	shadow := p.Resources().ShadowMap

	require.NoError(t, p.Resize(40, 20))
	once := p.Resources().Targets
	require.NoError(t, p.Resize(40, 20))
	twice := p.Resources().Targets

	assert.Equal(t, once.Width, twice.Width)
	assert.Equal(t, once.Height, twice.Height)
	a, b := once.all(), twice.all()
	require.Len(t, b, len(a))
	for i := range a {
		assert.True(t, a[i].Desc().SameShape(b[i].Desc()), "target %s", a[i].Label())
		assert.Equal(t, 40, b[i].Desc().Width)
		assert.Equal(t, 20, b[i].Desc().Height)
	}
	assert.Same(t, shadow, p.Resources().ShadowMap, "shadow map is never recreated")
	assert.Equal(t, 64, shadow.Desc().Width)
}

func TestResizeReleasesOldTargets(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	old := p.Resources().Targets.Combined
	require.NoError(t, p.Resize(16, 16))
	_, err := dev.ReadTexture(old)
	assert.ErrorIs(t, err, gpu.ErrReleased)

	w, h := dev.BackBufferSize()
	assert.Equal(t, 16, w)
	assert.Equal(t, 16, h)
}

// flakyDevice fails NewTexture once its budget of textures is spent.
type flakyDevice struct {
	gpu.Device
	budget  int
	limited bool
	created []gpu.Texture
}

var errOutOfMemory = errors.New("out of video memory")

func (d *flakyDevice) NewTexture(desc gpu.TextureDesc, data []float32) (gpu.Texture, error) {
	if d.limited {
		if d.budget == 0 {
			return nil, errOutOfMemory
		}
		d.budget--
	}
	t, err := d.Device.NewTexture(desc, data)
	if err == nil {
		d.created = append(d.created, t)
	}
	return t, err
}

func TestFailedResizeKeepsTargets(t *testing.T) {
	soft := software.New(software.Config{Width: testWidth, Height: testHeight})
	dev := &flakyDevice{Device: soft}
	p, err := NewPipeline(dev, testWidth, testHeight, testSettings())
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))

	before := p.Resources().Targets
	dev.created = nil
	dev.limited, dev.budget = true, 3

	err = p.Resize(64, 64)
	require.ErrorIs(t, err, errOutOfMemory)
	assert.Equal(t, before, p.Resources().Targets)
	w, h := soft.BackBufferSize()
	assert.Equal(t, [2]int{testWidth, testHeight}, [2]int{w, h}, "back buffer keeps its size")

	require.Len(t, dev.created, 3)
	for _, tex := range dev.created {
		_, err := soft.ReadTexture(tex)
		assert.ErrorIs(t, err, gpu.ErrReleased, "partial target %s", tex.Label())
	}
	for _, tex := range before.all() {
		_, err := soft.ReadTexture(tex)
		assert.NoError(t, err, "old target %s", tex.Label())
	}

	assert.NoError(t, p.Render(f), "the old targets still render")
}

func TestBlurRadiusZeroIsPassThrough(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))
	p.Tune(1, 64, 0)

	require.NoError(t, p.Render(f))

	back, err := dev.ReadBackBuffer()
	require.NoError(t, err)
	assert.Equal(t, read(t, dev, p.Resources().Targets.Combined), back)
}

func TestBlurSmoothsFinalImage(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))
	p.Tune(1, 64, 3)

	require.NoError(t, p.Render(f))

	back, err := dev.ReadBackBuffer()
	require.NoError(t, err)
	assert.NotEqual(t, read(t, dev, p.Resources().Targets.Combined), back)
}

func TestSSAORadiusZeroIsUnoccluded(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))
	p.Tune(0, 64, 0)

	require.NoError(t, p.Render(f))

	for i, v := range read(t, dev, p.Resources().Targets.SSAO) {
		require.InDelta(t, 1, v, 1e-6, "texel %d", i)
	}
}

func TestSSAOStaysInRange(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))
	r := p.Resources()
	rng := rand.New(rand.NewSource(9))

	depth := make([]float32, testWidth*testHeight)
	normals := make([]float32, testWidth*testHeight*4)
	for i := range depth {
		depth[i] = rng.Float32()*20 - 2
		for k := 0; k < 3; k++ {
			normals[i*4+k] = rng.Float32()*2 - 1
		}
	}
	var err error
	r.Targets.GBuffer[gpu.GBufferDepth], err = dev.NewTexture(gpu.TextureDesc{Label: "random-depth", Width: testWidth, Height: testHeight, Format: gpu.FormatR32F, Usage: gpu.UsageSampled}, depth)
	require.NoError(t, err)
	r.Targets.GBuffer[gpu.GBufferNormal], err = dev.NewTexture(gpu.TextureDesc{Label: "random-normals", Width: testWidth, Height: testHeight, Format: gpu.FormatRGBA16F, Usage: gpu.UsageSampled}, normals)
	require.NoError(t, err)

	for _, samples := range []int{0, 1, 17, 64} {
		s := p.Settings()
		s.SSAOSamples = samples
		require.NoError(t, SSAOPass(dev, r, s, f.Camera))
		for i, v := range read(t, dev, r.Targets.SSAO) {
			require.GreaterOrEqual(t, v, float32(0), "samples %d texel %d", samples, i)
			require.LessOrEqual(t, v, float32(1), "samples %d texel %d", samples, i)
		}
	}
}

func TestSSAODarkensContact(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))

	require.NoError(t, p.Render(f))

	var sum float32
	px := read(t, dev, p.Resources().Targets.SSAO)
	for _, v := range px {
		sum += v
	}
	assert.Less(t, sum, float32(len(px)), "some occlusion near the ball")
}

func TestRenderSkipsEmptyMeshes(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))

	require.NoError(t, p.Render(f))

	st := p.Stats()
	assert.Equal(t, 2, st.Entities)
	assert.Equal(t, 1, st.Skipped)
	assert.Positive(t, st.Triangles)
}

func TestSkyFillsBackground(t *testing.T) {
	dev, p := newTestPipeline(t, testSettings())
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))
	require.NoError(t, p.Render(f))

	// The top row looks above the horizon: no geometry, sky color only.
	color := read(t, dev, p.Resources().Targets.GBuffer[gpu.GBufferColor])
	depth := read(t, dev, p.Resources().Targets.GBuffer[gpu.GBufferDepth])
	assert.Zero(t, depth[0])
	assert.Greater(t, color[2], float32(0.1), "blue sky")
	assert.Equal(t, float32(1), color[3])
}

func TestDebugViewPresentsTarget(t *testing.T) {
	s := testSettings()
	s.ShadowResolution = testWidth
	dev := software.New(software.Config{Width: testWidth, Height: testWidth})
	p, err := NewPipeline(dev, testWidth, testWidth, s)
	require.NoError(t, err)
	defer p.Destroy()
	f := testFrame(t, dev, math.NewVec3(0, -1, 1))

	p.SetView(ViewShadowMap)
	require.NoError(t, p.Render(f))

	shadow := read(t, dev, p.Resources().ShadowMap)
	back, err := dev.ReadBackBuffer()
	require.NoError(t, err)
	for i, z := range shadow {
		require.Equal(t, z, back[i*4], "texel %d", i)
	}

	p.SetView(View(99))
	assert.Equal(t, ViewFinal, p.View())
	assert.Equal(t, ViewColor, ViewFinal.Next())
	assert.Equal(t, ViewFinal, ViewShadowMap.Next())
	assert.Len(t, p.Targets(), 8)
}

func TestRenderWithoutCamera(t *testing.T) {
	_, p := newTestPipeline(t, testSettings())
	assert.Error(t, p.Render(&Frame{}))
}
