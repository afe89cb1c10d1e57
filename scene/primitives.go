package scene

import (
	"github.com/chewxy/math32"

	"ssao-renderer/core"
	"ssao-renderer/math"
)

// Procedural stand-ins for the demo's OBJ meshes. Every generator returns
// triangles whose (v1-v0)×(v2-v0) points out of the surface, which is the
// clockwise front face of the left-handed pipeline.

// surface samples f over a (uSeg+1)×(vSeg+1) grid with u,v in [0,1].
func surface(uSeg, vSeg int, f func(u, v float32) (pos, normal math.Vec3)) core.MeshData {
	var d core.MeshData
	for j := 0; j <= vSeg; j++ {
		v := float32(j) / float32(vSeg)
		for i := 0; i <= uSeg; i++ {
			u := float32(i) / float32(uSeg)
			p, n := f(u, v)
			d.Vertices = append(d.Vertices, core.Vertex{
				Position: p,
				Normal:   n.Normalize(),
				UV:       math.Vec2{X: u, Y: v},
			})
		}
	}
	row := uint32(uSeg + 1)
	for j := 0; j < vSeg; j++ {
		for i := 0; i < uSeg; i++ {
			a := uint32(j)*row + uint32(i)
			b := a + 1
			c := a + row
			e := c + 1
			d.Indices = append(d.Indices, a, c, b, b, c, e)
		}
	}
	orient(&d, 0)
	return d
}

// orient flips every triangle from index first on whose winding disagrees
// with its vertex normals. Degenerate triangles are left alone.
func orient(d *core.MeshData, first int) {
	for i := first; i+2 < len(d.Indices); i += 3 {
		v0 := d.Vertices[d.Indices[i]]
		v1 := d.Vertices[d.Indices[i+1]]
		v2 := d.Vertices[d.Indices[i+2]]
		g := v1.Position.Sub(v0.Position).Cross(v2.Position.Sub(v0.Position))
		n := v0.Normal.Add(v1.Normal).Add(v2.Normal)
		if g.Dot(n) < 0 {
			d.Indices[i+1], d.Indices[i+2] = d.Indices[i+2], d.Indices[i+1]
		}
	}
}

// appendQuad adds a two-triangle rectangle centred at c spanning the half
// extents du and dv, facing n.
func appendQuad(d *core.MeshData, c, du, dv, n math.Vec3) {
	base := uint32(len(d.Vertices))
	corners := [4]struct {
		su, sv float32
	}{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, k := range corners {
		d.Vertices = append(d.Vertices, core.Vertex{
			Position: c.Add(du.Mul(k.su)).Add(dv.Mul(k.sv)),
			Normal:   n,
			UV:       math.Vec2{X: (k.su + 1) / 2, Y: (1 - k.sv) / 2},
		})
	}
	first := len(d.Indices)
	d.Indices = append(d.Indices, base, base+1, base+2, base, base+2, base+3)
	orient(d, first)
}

// appendDisc adds a flat triangle fan of the given radius at height y.
func appendDisc(d *core.MeshData, radius, y float32, segments int, n math.Vec3) {
	center := uint32(len(d.Vertices))
	d.Vertices = append(d.Vertices, core.Vertex{
		Position: math.Vec3{Y: y},
		Normal:   n,
		UV:       math.Vec2{X: 0.5, Y: 0.5},
	})
	for i := 0; i <= segments; i++ {
		theta := float32(i) / float32(segments) * 2 * math32.Pi
		s, c := math32.Sincos(theta)
		d.Vertices = append(d.Vertices, core.Vertex{
			Position: math.Vec3{X: c * radius, Y: y, Z: s * radius},
			Normal:   n,
			UV:       math.Vec2{X: 0.5 + c*0.5, Y: 0.5 + s*0.5},
		})
	}
	first := len(d.Indices)
	for i := 0; i < segments; i++ {
		d.Indices = append(d.Indices, center, center+1+uint32(i), center+2+uint32(i))
	}
	orient(d, first)
}

// Sphere is a UV sphere.
func Sphere(radius float32, segments, rings int) core.MeshData {
	return surface(max(segments, 3), max(rings, 2), func(u, v float32) (math.Vec3, math.Vec3) {
		st, ct := math32.Sincos(u * 2 * math32.Pi)
		sp, cp := math32.Sincos(v * math32.Pi)
		n := math.Vec3{X: sp * ct, Y: cp, Z: sp * st}
		return n.Mul(radius), n
	})
}

// Cylinder is a capped cylinder centred on the origin along Y.
func Cylinder(radius, height float32, segments int) core.MeshData {
	segments = max(segments, 3)
	half := height / 2
	d := surface(segments, 1, func(u, v float32) (math.Vec3, math.Vec3) {
		s, c := math32.Sincos(u * 2 * math32.Pi)
		n := math.Vec3{X: c, Z: s}
		return math.Vec3{X: c * radius, Y: (v - 0.5) * height, Z: s * radius}, n
	})
	appendDisc(&d, radius, half, segments, math.Vec3Up)
	appendDisc(&d, radius, -half, segments, math.Vec3Up.Negate())
	return d
}

// Torus lies in the XZ plane around the Y axis.
func Torus(major, minor float32, majorSeg, minorSeg int) core.MeshData {
	return surface(max(majorSeg, 3), max(minorSeg, 3), func(u, v float32) (math.Vec3, math.Vec3) {
		st, ct := math32.Sincos(u * 2 * math32.Pi)
		sp, cp := math32.Sincos(v * 2 * math32.Pi)
		n := math.Vec3{X: cp * ct, Y: sp, Z: cp * st}
		center := math.Vec3{X: major * ct, Z: major * st}
		return center.Add(n.Mul(minor)), n
	})
}

// Helix is a tube of radius tube wound turns times around the Y axis.
func Helix(radius, tube, height float32, turns float32, segments, tubeSeg int) core.MeshData {
	return surface(max(segments, 3), max(tubeSeg, 3), func(u, v float32) (math.Vec3, math.Vec3) {
		a := u * turns * 2 * math32.Pi
		sa, ca := math32.Sincos(a)
		center := math.Vec3{X: radius * ca, Y: (u - 0.5) * height, Z: radius * sa}

		tangent := math.Vec3{
			X: -radius * sa * turns * 2 * math32.Pi,
			Y: height,
			Z: radius * ca * turns * 2 * math32.Pi,
		}.Normalize()
		outward := math.Vec3{X: ca, Z: sa}
		binormal := tangent.Cross(outward).Normalize()
		normalAxis := binormal.Cross(tangent).Normalize()

		sb, cb := math32.Sincos(v * 2 * math32.Pi)
		n := normalAxis.Mul(cb).Add(binormal.Mul(sb))
		return center.Add(n.Mul(tube)), n
	})
}

// Quad is a size×size square in the XZ plane facing +Y.
func Quad(size float32) core.MeshData {
	var d core.MeshData
	h := size / 2
	appendQuad(&d, math.Vec3Zero, math.Vec3{X: h}, math.Vec3{Z: h}, math.Vec3Up)
	return d
}

// DoubleSidedQuad is Quad with a second, downward-facing copy.
func DoubleSidedQuad(size float32) core.MeshData {
	d := Quad(size)
	h := size / 2
	appendQuad(&d, math.Vec3Zero, math.Vec3{X: h}, math.Vec3{Z: h}, math.Vec3Up.Negate())
	return d
}

// Cube is an axis-aligned cube with per-face normals.
func Cube(size float32) core.MeshData {
	var d core.MeshData
	h := size / 2
	x, y, z := math.Vec3{X: h}, math.Vec3{Y: h}, math.Vec3{Z: h}
	faces := [6]struct{ n, du, dv math.Vec3 }{
		{math.Vec3{X: 1}, z, y},
		{math.Vec3{X: -1}, z, y},
		{math.Vec3{Y: 1}, x, z},
		{math.Vec3{Y: -1}, x, z},
		{math.Vec3{Z: 1}, x, y},
		{math.Vec3{Z: -1}, x, y},
	}
	for _, f := range faces {
		appendQuad(&d, f.n.Mul(h), f.du, f.dv, f.n)
	}
	return d
}

// Primitive returns a default-sized procedural mesh by name, used when the
// scene names a mesh without an OBJ file.
func Primitive(name string) (core.MeshData, bool) {
	switch name {
	case "sphere":
		return Sphere(0.5, 32, 16), true
	case "cylinder":
		return Cylinder(0.5, 1, 32), true
	case "helix":
		return Helix(0.5, 0.15, 2, 2, 128, 12), true
	case "quad":
		return Quad(2), true
	case "quad_double_sided":
		return DoubleSidedQuad(2), true
	case "cube":
		return Cube(1), true
	case "torus":
		return Torus(0.75, 0.25, 48, 16), true
	}
	return core.MeshData{}, false
}
