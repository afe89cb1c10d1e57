package scene

import (
	"github.com/chewxy/math32"

	"ssao-renderer/core"
	"ssao-renderer/math"
)

// ComputeTangents fills per-vertex tangent and bitangent vectors from the
// UV layout. Triangles with a degenerate UV area contribute nothing; vertices
// left without a tangent get an arbitrary one perpendicular to the normal.
func ComputeTangents(d *core.MeshData) {
	for i := range d.Vertices {
		d.Vertices[i].Tangent = math.Vec3{}
		d.Vertices[i].Bitangent = math.Vec3{}
	}

	for i := 0; i+2 < len(d.Indices); i += 3 {
		i0, i1, i2 := d.Indices[i], d.Indices[i+1], d.Indices[i+2]
		if int(i0) >= len(d.Vertices) || int(i1) >= len(d.Vertices) || int(i2) >= len(d.Vertices) {
			continue
		}
		v0, v1, v2 := d.Vertices[i0], d.Vertices[i1], d.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		du1, dv1 := v1.UV.X-v0.UV.X, v1.UV.Y-v0.UV.Y
		du2, dv2 := v2.UV.X-v0.UV.X, v2.UV.Y-v0.UV.Y

		denom := du1*dv2 - du2*dv1
		if denom == 0 {
			continue
		}
		r := 1 / denom
		t := e1.Mul(dv2 * r).Sub(e2.Mul(dv1 * r))
		b := e2.Mul(du1 * r).Sub(e1.Mul(du2 * r))

		for _, idx := range [3]uint32{i0, i1, i2} {
			d.Vertices[idx].Tangent = d.Vertices[idx].Tangent.Add(t)
			d.Vertices[idx].Bitangent = d.Vertices[idx].Bitangent.Add(b)
		}
	}

	// Gram-Schmidt against the normal.
	for i := range d.Vertices {
		v := &d.Vertices[i]
		n := v.Normal
		t := v.Tangent.Sub(n.Mul(n.Dot(v.Tangent)))
		if t.LengthSqr() < 1e-8 {
			if math32.Abs(n.X) < 0.9 {
				t = math.Vec3{X: 1}.Sub(n.Mul(n.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(n.Mul(n.Y))
			}
		}
		v.Tangent = t.Normalize()

		b := v.Bitangent
		if b.LengthSqr() < 1e-8 {
			b = n.Cross(v.Tangent)
		}
		v.Bitangent = b.Normalize()
	}
}
