package opengl

import (
	"strings"
	"testing"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/gpu"
)

// These tests cover the parts of the backend that need no GL context.

func TestFlipRows(t *testing.T) {
	px := []float32{
		1, 2,
		3, 4,
		5, 6,
	}
	flipRows(px, 2)
	assert.Equal(t, []float32{5, 6, 3, 4, 1, 2}, px)

	flipRows(px, 0)
	assert.Equal(t, []float32{5, 6, 3, 4, 1, 2}, px, "zero row length is a no-op")
}

func TestFormatOf(t *testing.T) {
	cases := []struct {
		format gpu.Format
		want   texFormat
	}{
		{gpu.FormatRGBA8, texFormat{gl.RGBA8, gl.RGBA, gl.FLOAT}},
		{gpu.FormatRGBA16F, texFormat{gl.RGBA16F, gl.RGBA, gl.FLOAT}},
		{gpu.FormatR32F, texFormat{gl.R32F, gl.RED, gl.FLOAT}},
		{gpu.FormatDepth32F, texFormat{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT}},
	}
	for _, c := range cases {
		got, err := formatOf(c.format)
		require.NoError(t, err, c.format.String())
		assert.Equal(t, c.want, got, c.format.String())
	}
	_, err := formatOf(gpu.Format(99))
	assert.Error(t, err)
}

func TestHasMips(t *testing.T) {
	assert.True(t, hasMips(gpu.TextureDesc{Format: gpu.FormatRGBA8, Usage: gpu.UsageSampled}))
	assert.False(t, hasMips(gpu.TextureDesc{Format: gpu.FormatRGBA8, Usage: gpu.UsageSampled | gpu.UsageRenderTarget}))
	assert.False(t, hasMips(gpu.TextureDesc{Format: gpu.FormatRGBA16F, Usage: gpu.UsageSampled}))
	assert.False(t, hasMips(gpu.TextureDesc{Format: gpu.FormatDepth32F, Usage: gpu.UsageSampled | gpu.UsageDepthTarget}))
}

func TestFramebufferKey(t *testing.T) {
	a, b, depth := &texture{id: 3}, &texture{id: 7}, &texture{id: 9}

	k, err := keyOf([]*texture{a, b}, depth)
	require.NoError(t, err)
	assert.Equal(t, fboKey{color: [gpu.GBufferTargets]uint32{3, 7}, depth: 9}, k)
	assert.True(t, k.uses(3))
	assert.True(t, k.uses(9))
	assert.False(t, k.uses(4))

	same, err := keyOf([]*texture{a, b}, depth)
	require.NoError(t, err)
	assert.Equal(t, k, same, "identical attachments share one framebuffer")

	_, err = keyOf(make([]*texture, gpu.GBufferTargets+1), nil)
	assert.Error(t, err)
}

func TestSamplerModes(t *testing.T) {
	minF, magF := filterModes(gpu.FilterPoint)
	assert.Equal(t, [2]int32{gl.NEAREST, gl.NEAREST}, [2]int32{minF, magF})
	minF, _ = filterModes(gpu.FilterAnisotropic)
	assert.Equal(t, int32(gl.LINEAR_MIPMAP_LINEAR), minF)

	assert.Equal(t, int32(gl.REPEAT), addressMode(gpu.AddressWrap))
	assert.Equal(t, int32(gl.CLAMP_TO_BORDER), addressMode(gpu.AddressBorder))
	assert.Equal(t, uint32(gl.LESS), compareFunc(gpu.CompareLess))
	assert.Equal(t, uint32(gl.LEQUAL), compareFunc(gpu.CompareLessEqual))
	assert.Equal(t, uint32(gl.NEVER), compareFunc(gpu.CompareNever))
}

func TestSamplerIDFallback(t *testing.T) {
	assert.Equal(t, uint32(5), samplerID(nil, 5))
	assert.Equal(t, uint32(8), samplerID(&sampler{id: 8}, 5))
	assert.Equal(t, uint32(5), samplerID(&sampler{}, 5), "released sampler")
}

func TestProgramSources(t *testing.T) {
	for p, src := range programSources {
		name := gpu.Program(p).String()
		for _, s := range []string{src.vert, src.frag} {
			require.NotEmpty(t, s, name)
			assert.True(t, strings.HasPrefix(strings.TrimSpace(s), "#version 410 core"), name)
			assert.True(t, strings.HasSuffix(s, "\x00"), name)
		}
		for uniform := range src.units {
			assert.Contains(t, src.frag, uniform, name)
		}
	}
	assert.Contains(t, programSources[gpu.ProgramGBuffer].vert, "toGL(")
	assert.Contains(t, programSources[gpu.ProgramSky].vert, "c.z     = c.w")
}
