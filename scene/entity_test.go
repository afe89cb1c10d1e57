package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

func TestArenasShareByHandle(t *testing.T) {
	meshes := NewMeshArena()
	materials := NewMaterialArena()

	sphere := meshes.Add(NewMesh("sphere", Sphere(1, 8, 4)))
	wood := materials.Add(NewMaterial("wood", core.ColorWhite, 0.15))

	a := NewEntity("a", sphere, wood)
	b := NewEntity("b", sphere, wood)
	assert.Same(t, meshes.Get(a.Mesh), meshes.Get(b.Mesh))
	assert.Same(t, materials.Get(a.Material), materials.Get(b.Material))

	h, err := meshes.Lookup("sphere")
	require.NoError(t, err)
	assert.Equal(t, sphere, h)
	_, err = materials.Lookup("marble")
	assert.Error(t, err)

	assert.Nil(t, meshes.Get(0))
	assert.Nil(t, materials.Get(MaterialHandle(99)))
}

func TestLightViewVolumeStraightDown(t *testing.T) {
	light := NewDirectionalLight(math.NewVec3(0, -1, 0), core.ColorWhite, 1)
	vol := light.ViewVolume(15, 1, 100, 20)

	require.True(t, vol.View.IsFinite())
	p := vol.View.TransformPoint(math.NewVec3(0, -1.5, 0))
	assert.InDelta(t, 21.5, p.Z, 1e-5)

	clip := p.ToVec4(1).MulMat(vol.Projection)
	assert.InDelta(t, (21.5-1)/99, clip.Z/clip.W, 1e-6)
}

func TestMaterialBind(t *testing.T) {
	m := NewMaterial("paint", core.RGB(1, 0.5, 0.25), 0.3)

	var u gpu.GBufferUniforms
	m.Bind(&u)
	assert.Equal(t, core.RGB(1, 0.5, 0.25), u.Tint)
	assert.Equal(t, float32(0.3), u.Roughness)
	assert.Nil(t, u.Albedo)
	assert.Nil(t, u.Sampler)
	assert.Equal(t, gpu.ProgramGBuffer, m.Program)
}
