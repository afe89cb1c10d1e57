package scene

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/math"
)

const triangleOBJ = `
# one triangle facing +Z in a right-handed file
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func TestParseOBJConvertsToLeftHanded(t *testing.T) {
	d, err := ParseOBJ(strings.NewReader(triangleOBJ))
	require.NoError(t, err)
	require.Len(t, d.Vertices, 3)
	require.Len(t, d.Indices, 3)

	for _, v := range d.Vertices {
		assertVec3(t, math.NewVec3(0, 0, -1), v.Normal, "normal")
	}
	assert.InDelta(t, 1, d.Vertices[0].UV.Y, 1e-6)

	p0 := d.Vertices[d.Indices[0]].Position
	g := d.Vertices[d.Indices[1]].Position.Sub(p0).Cross(d.Vertices[d.Indices[2]].Position.Sub(p0))
	assert.Greater(t, g.Dot(d.Vertices[0].Normal), float32(0), "winding follows the normal")
}

func TestParseOBJQuadAndNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf -4 -3 -2 -1\n"
	d, err := ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, d.Indices, 6)
	assert.Len(t, d.Vertices, 4)
	for _, v := range d.Vertices {
		assert.InDelta(t, 1, v.Normal.Length(), 1e-5, "generated normal")
	}
}

func TestParseOBJErrors(t *testing.T) {
	_, err := ParseOBJ(strings.NewReader("v 1 2\n"))
	assert.Error(t, err)

	_, err = ParseOBJ(strings.NewReader("# nothing\n"))
	assert.Error(t, err)
}

func TestLoadOBJMissingFile(t *testing.T) {
	_, err := LoadOBJ("does/not/exist.obj")
	assert.Error(t, err)
}

func TestImageTexels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, B: 255, A: 255})

	texels, w, h := ImageTexels(img)
	assert.Equal(t, 2, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, []float32{1, 0, 0, 1, 0, 1, 1, 1}, texels)
}

func TestNormalizeCubeFaces(t *testing.T) {
	var faces [6]image.Image
	for i := range faces {
		faces[i] = image.NewRGBA(image.Rect(0, 0, 8, 8))
	}
	faces[3] = image.NewRGBA(image.Rect(0, 0, 4, 6))

	out := NormalizeCubeFaces(faces)
	for i, f := range out {
		assert.Equal(t, image.Rect(0, 0, 8, 8), f.Bounds(), "face %d", i)
	}
}
