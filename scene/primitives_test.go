package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssao-renderer/core"
	"ssao-renderer/math"
)

// outwardFraction is the share of non-degenerate triangles whose winding
// normal points away from the origin.
func outwardFraction(d core.MeshData) float64 {
	var out, total int
	for i := 0; i+2 < len(d.Indices); i += 3 {
		p0 := d.Vertices[d.Indices[i]].Position
		p1 := d.Vertices[d.Indices[i+1]].Position
		p2 := d.Vertices[d.Indices[i+2]].Position
		g := p1.Sub(p0).Cross(p2.Sub(p0))
		if g.LengthSqr() < 1e-12 {
			continue
		}
		total++
		centroid := p0.Add(p1).Add(p2).Mul(1.0 / 3)
		if g.Dot(centroid) > 0 {
			out++
		}
	}
	return float64(out) / float64(total)
}

func TestClosedPrimitivesWindOutward(t *testing.T) {
	for name, d := range map[string]core.MeshData{
		"sphere":   Sphere(1, 16, 8),
		"cube":     Cube(2),
		"cylinder": Cylinder(1, 2, 16),
	} {
		require.False(t, d.Empty(), name)
		assert.Equal(t, 1.0, outwardFraction(d), name)
	}
}

func TestPrimitiveIndicesInRange(t *testing.T) {
	for _, name := range []string{"sphere", "cylinder", "helix", "quad", "quad_double_sided", "cube", "torus"} {
		d, ok := Primitive(name)
		require.True(t, ok, name)
		require.Zero(t, len(d.Indices)%3, name)
		for _, idx := range d.Indices {
			require.Less(t, int(idx), len(d.Vertices), name)
		}
	}
	_, ok := Primitive("teapot")
	assert.False(t, ok)
}

func TestQuadFacesUp(t *testing.T) {
	d := Quad(2)
	require.Len(t, d.Indices, 6)
	for i := 0; i < 6; i += 3 {
		p0 := d.Vertices[d.Indices[i]].Position
		g := d.Vertices[d.Indices[i+1]].Position.Sub(p0).Cross(d.Vertices[d.Indices[i+2]].Position.Sub(p0))
		assert.Greater(t, g.Y, float32(0))
	}

	both := DoubleSidedQuad(2)
	assert.Len(t, both.Indices, 12)
}

func TestMeshTangentsPerpendicular(t *testing.T) {
	m := NewMesh("sphere", Sphere(1, 12, 6))
	for _, v := range m.Data.Vertices {
		assert.InDelta(t, 0, v.Normal.Dot(v.Tangent), 1e-3)
		assert.InDelta(t, 1, v.Tangent.Length(), 1e-3)
	}
}

func TestEmptyMeshUploadsNothing(t *testing.T) {
	m := NewMesh("empty", core.MeshData{Vertices: []core.Vertex{{Position: math.Vec3One}}})
	require.NoError(t, m.Upload(nil))
	assert.Nil(t, m.GPU)
}
