package software

import (
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

const maxVaryings = 24

// depthEpsilon absorbs rounding in interpolated depth at the far plane.
const depthEpsilon = 1e-5

// minClipW keeps clipped vertices strictly in front of the eye.
const minClipW = 1e-5

// maxClipped is the vertex bound of a triangle clipped by two planes.
const maxClipped = 5

type varyings [maxVaryings]float32

type vertexOut struct {
	clip math.Vec4
	v    varyings
}

type fragmentOut [gpu.GBufferTargets][4]float32

// rasterProgram is a mesh program: a vertex stage and an optional pixel
// stage writing one value per bound color target. farDepth pins every
// fragment to depth 1 after clipping.
type rasterProg struct {
	varyings int
	vertex   func(core.Vertex) vertexOut
	fragment func(v *varyings) fragmentOut
	farDepth bool
}

// fullscreenShader shades one pixel of a full-screen draw from its
// viewport-relative coordinate.
type fullscreenShader func(uv math.Vec2) [4]float32

func (d *Device) rasterize(p rasterProg, m *mesh) {
	shaded := make([]vertexOut, len(m.vertices))
	for i, v := range m.vertices {
		shaded[i] = p.vertex(v)
	}
	var poly [maxClipped]vertexOut
	for i := 0; i+2 < len(m.indices); i += 3 {
		tri := [3]vertexOut{shaded[m.indices[i]], shaded[m.indices[i+1]], shaded[m.indices[i+2]]}
		n := clipNear(tri, p.varyings, &poly)
		for k := 1; k+1 < n; k++ {
			d.drawTriangle(p, [3]vertexOut{poly[0], poly[k], poly[k+1]})
		}
	}
}

type clipPlane func(c math.Vec4) float32

var nearPlanes = [...]clipPlane{
	func(c math.Vec4) float32 { return c.Z },
	func(c math.Vec4) float32 { return c.W - minClipW },
}

// clipNear clips a triangle against z >= 0 and w >= minClipW and returns
// the vertex count of the resulting convex polygon.
func clipNear(tri [3]vertexOut, nv int, out *[maxClipped]vertexOut) int {
	var tmp [maxClipped]vertexOut
	n := copy(tmp[:], tri[:])
	src, dst := tmp[:], out[:]
	for _, plane := range nearPlanes {
		n = clipAgainst(src[:n], nv, plane, dst)
		src, dst = dst, src
	}
	copy(out[:], src[:n])
	return n
}

func clipAgainst(poly []vertexOut, nv int, dist clipPlane, out []vertexOut) int {
	n := 0
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		da, db := dist(a.clip), dist(b.clip)
		if da >= 0 {
			out[n] = a
			n++
		}
		if (da >= 0) != (db >= 0) {
			// Interpolate from the inside vertex so both triangles of a
			// shared edge get the same point.
			in, outside, din, dout := a, b, da, db
			if da < 0 {
				in, outside, din, dout = b, a, db, da
			}
			t := din / (din - dout)
			var c vertexOut
			c.clip = in.clip.Add(outside.clip.Add(in.clip.Mul(-1)).Mul(t))
			for k := 0; k < nv; k++ {
				c.v[k] = in.v[k] + (outside.v[k]-in.v[k])*t
			}
			out[n] = c
			n++
		}
	}
	return n
}

// depthBias follows the float depth buffer rule: DepthBias units of
// 2^(e-23), e being the exponent of the largest depth in the primitive,
// plus the slope term.
func depthBias(r gpu.RasterState, maxZ, dzdx, dzdy float32) float32 {
	var bias float32
	if r.DepthBias != 0 && maxZ > 0 {
		_, exp := math32.Frexp(maxZ)
		bias = float32(r.DepthBias) * math32.Ldexp(1, exp-1-23)
	}
	return bias + r.SlopeScaledDepthBias*max(math32.Abs(dzdx), math32.Abs(dzdy))
}

func (d *Device) drawTriangle(p rasterProg, tri [3]vertexOut) {
	ps := d.active
	vp := ps.viewport
	var sx, sy, sz, iw [3]float32
	for k, v := range tri {
		if v.clip.W <= 0 {
			return
		}
		iw[k] = 1 / v.clip.W
		sx[k] = float32(vp.Min.X) + (v.clip.X*iw[k]*0.5+0.5)*float32(vp.Dx())
		sy[k] = float32(vp.Min.Y) + (0.5-v.clip.Y*iw[k]*0.5)*float32(vp.Dy())
		sz[k] = v.clip.Z / v.clip.W
		if p.farDepth {
			sz[k] = 1
		}
	}

	// Positive area is clockwise in clip space, which is the front face.
	area := (sx[1]-sx[0])*(sy[2]-sy[0]) - (sx[2]-sx[0])*(sy[1]-sy[0])
	if area == 0 || math32.IsNaN(area) || math32.IsInf(area, 0) {
		return
	}
	switch ps.desc.Raster.Cull {
	case gpu.CullBack:
		if area < 0 {
			return
		}
	case gpu.CullFront:
		if area > 0 {
			return
		}
	}

	dzdx := ((sz[1]-sz[0])*(sy[2]-sy[0]) - (sz[2]-sz[0])*(sy[1]-sy[0])) / area
	dzdy := ((sx[1]-sx[0])*(sz[2]-sz[0]) - (sx[2]-sx[0])*(sz[1]-sz[0])) / area
	bias := depthBias(ps.desc.Raster, max(sz[0], sz[1], sz[2]), dzdx, dzdy)

	minX := max(int(math32.Floor(max(min(sx[0], sx[1], sx[2]), float32(vp.Min.X)))), vp.Min.X)
	maxX := min(int(math32.Ceil(min(max(sx[0], sx[1], sx[2]), float32(vp.Max.X)))), vp.Max.X)
	minY := max(int(math32.Floor(max(min(sy[0], sy[1], sy[2]), float32(vp.Min.Y)))), vp.Min.Y)
	maxY := min(int(math32.Ceil(min(max(sy[0], sy[1], sy[2]), float32(vp.Max.Y)))), vp.Max.Y)

	own0 := ownsEdge(sx[1], sy[1], sx[2], sy[2], area)
	own1 := ownsEdge(sx[2], sy[2], sx[0], sy[0], area)
	own2 := ownsEdge(sx[0], sy[0], sx[1], sy[1], area)

	dt := ps.desc.DepthTest
	var in varyings
	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			b0 := edge(sx[1], sy[1], sx[2], sy[2], px, py) / area
			b1 := edge(sx[2], sy[2], sx[0], sy[0], px, py) / area
			b2 := edge(sx[0], sy[0], sx[1], sy[1], px, py) / area
			if !covers(b0, own0) || !covers(b1, own1) || !covers(b2, own2) {
				continue
			}
			z := b0*sz[0] + b1*sz[1] + b2*sz[2]
			if z < -depthEpsilon || z > 1+depthEpsilon {
				continue
			}
			z = saturate(z + bias)

			di := y*ps.width + x
			if ps.depth != nil && dt.Test && !dt.Func.Test(z, ps.depth.data[di]) {
				continue
			}
			if p.fragment != nil && len(ps.color) > 0 {
				w0, w1, w2 := b0*iw[0], b1*iw[1], b2*iw[2]
				inv := 1 / (w0 + w1 + w2)
				for k := 0; k < p.varyings; k++ {
					in[k] = (w0*tri[0].v[k] + w1*tri[1].v[k] + w2*tri[2].v[k]) * inv
				}
				out := p.fragment(&in)
				for k, t := range ps.color {
					if k < len(out) {
						write(t, x, y, out[k])
					}
				}
			}
			if ps.depth != nil && dt.Write {
				ps.depth.data[di] = z
			}
		}
	}
}

// edge is evaluated with the endpoints in a fixed order, so the two
// triangles sharing an edge see exactly opposite values.
func edge(ax, ay, bx, by, px, py float32) float32 {
	if ax > bx || (ax == bx && ay > by) {
		return -((ax-bx)*(py-by) - (ay-by)*(px-bx))
	}
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// ownsEdge reports whether pixel centers lying exactly on edge a→b belong
// to the triangle. Left edges and top edges do, so a pixel on an edge
// shared by two triangles is shaded once.
func ownsEdge(ax, ay, bx, by, area float32) bool {
	dx := -(by - ay) / area
	dy := (bx - ax) / area
	return dx > 0 || (dx == 0 && dy > 0)
}

func covers(b float32, owned bool) bool {
	return b > 0 || (b == 0 && owned)
}

func write(t *texture, x, y int, c [4]float32) {
	tx := t.texel(x, y)
	if t.desc.Format == gpu.FormatRGBA8 {
		for k := range tx {
			tx[k] = saturate(c[k])
		}
		return
	}
	copy(tx, c[:len(tx)])
}

// shadeFullscreen runs shade over the viewport of the active pass, one row
// band per goroutine. Bands write disjoint rows.
func (d *Device) shadeFullscreen(shade fullscreenShader) error {
	ps := d.active
	if len(ps.color) == 0 {
		return fmt.Errorf("pass %q: full-screen draw without a color target", ps.desc.Label)
	}
	vp := ps.viewport
	w, h := float32(vp.Dx()), float32(vp.Dy())
	band := max(1, (vp.Dy()+d.workers-1)/d.workers)

	var g errgroup.Group
	g.SetLimit(d.workers)
	for y0 := vp.Min.Y; y0 < vp.Max.Y; y0 += band {
		y1 := min(y0+band, vp.Max.Y)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				v := (float32(y-vp.Min.Y) + 0.5) / h
				for x := vp.Min.X; x < vp.Max.X; x++ {
					c := shade(math.Vec2{X: (float32(x-vp.Min.X) + 0.5) / w, Y: v})
					for _, t := range ps.color {
						write(t, x, y, c)
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}
