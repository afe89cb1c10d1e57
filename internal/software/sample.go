package software

import (
	"github.com/chewxy/math32"

	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

// snap is how close to a texel center a linear lookup must land to read
// that texel alone. It keeps same-size copies exact.
const snap = 1.0 / 4096

// read returns texel (x, y) widened to RGBA. Single-channel formats
// replicate into R with zero G and B and A = 1.
func read(t *texture, x, y int) [4]float32 {
	tx := t.texel(x, y)
	if len(tx) == 1 {
		return [4]float32{tx[0], 0, 0, 1}
	}
	return [4]float32{tx[0], tx[1], tx[2], tx[3]}
}

// resolve maps an integer texel coordinate through the address mode. ok is
// false when the coordinate falls on the border.
func resolve(i, n int, mode gpu.AddressMode) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch mode {
	case gpu.AddressWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i, true
	case gpu.AddressBorder:
		return 0, false
	}
	return min(max(i, 0), n-1), true
}

func fetch(t *texture, s gpu.SamplerDesc, x, y int) [4]float32 {
	xi, okx := resolve(x, t.desc.Width, s.Address)
	yi, oky := resolve(y, t.desc.Height, s.Address)
	if !okx || !oky {
		return [4]float32{s.Border.R, s.Border.G, s.Border.B, s.Border.A}
	}
	return read(t, xi, yi)
}

// footprint returns the two texels and the weight of the second for a
// normalized coordinate along an axis of n texels.
func footprint(u float32, n int) (int, int, float32) {
	f := u*float32(n) - 0.5
	i := math32.Floor(f)
	w := f - i
	i0 := int(i)
	if w < snap {
		return i0, i0, 0
	}
	if w > 1-snap {
		return i0 + 1, i0 + 1, 0
	}
	return i0, i0 + 1, w
}

// sample2D performs a filtered lookup. Anisotropic filtering degrades to
// bilinear.
func sample2D(t *texture, smp gpu.Sampler, uv math.Vec2) [4]float32 {
	s := samplerDesc(smp)
	if s.Filter == gpu.FilterPoint {
		x := int(math32.Floor(uv.X * float32(t.desc.Width)))
		y := int(math32.Floor(uv.Y * float32(t.desc.Height)))
		return fetch(t, s, x, y)
	}
	x0, x1, wx := footprint(uv.X, t.desc.Width)
	y0, y1, wy := footprint(uv.Y, t.desc.Height)
	a, b := fetch(t, s, x0, y0), fetch(t, s, x1, y0)
	c, d := fetch(t, s, x0, y1), fetch(t, s, x1, y1)
	var out [4]float32
	for k := range out {
		top := a[k] + (b[k]-a[k])*wx
		bottom := c[k] + (d[k]-c[k])*wx
		out[k] = top + (bottom-top)*wy
	}
	return out
}

// sampleCompare is a comparison lookup returning the lit fraction: each
// texel in the footprint passes when ref compares true against it.
func sampleCompare(t *texture, smp gpu.Sampler, uv math.Vec2, ref float32) float32 {
	s := samplerDesc(smp)
	test := func(x, y int) float32 {
		if s.Compare.Test(ref, fetch(t, s, x, y)[0]) {
			return 1
		}
		return 0
	}
	if s.Filter == gpu.FilterPoint {
		x := int(math32.Floor(uv.X * float32(t.desc.Width)))
		y := int(math32.Floor(uv.Y * float32(t.desc.Height)))
		return test(x, y)
	}
	x0, x1, wx := footprint(uv.X, t.desc.Width)
	y0, y1, wy := footprint(uv.Y, t.desc.Height)
	top := test(x0, y0) + (test(x1, y0)-test(x0, y0))*wx
	bottom := test(x0, y1) + (test(x1, y1)-test(x0, y1))*wx
	return top + (bottom-top)*wy
}

// sampleCube looks up direction dir using the usual face order
// +X, -X, +Y, -Y, +Z, -Z with row 0 at the top of each face.
func sampleCube(c *cubeMap, dir math.Vec3) [4]float32 {
	ax, ay, az := math32.Abs(dir.X), math32.Abs(dir.Y), math32.Abs(dir.Z)
	var face int
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if dir.X > 0 {
			face, sc, tc = 0, -dir.Z, -dir.Y
		} else {
			face, sc, tc = 1, dir.Z, -dir.Y
		}
	case ay >= az:
		ma = ay
		if dir.Y > 0 {
			face, sc, tc = 2, dir.X, dir.Z
		} else {
			face, sc, tc = 3, dir.X, -dir.Z
		}
	default:
		ma = az
		if dir.Z > 0 {
			face, sc, tc = 4, dir.X, -dir.Y
		} else {
			face, sc, tc = 5, -dir.X, -dir.Y
		}
	}
	if ma == 0 {
		return [4]float32{}
	}
	u := (sc/ma + 1) * 0.5
	v := (tc/ma + 1) * 0.5
	x := min(max(int(u*float32(c.size)), 0), c.size-1)
	y := min(max(int(v*float32(c.size)), 0), c.size-1)
	o := (y*c.size + x) * 4
	p := c.faces[face][o : o+4]
	return [4]float32{p[0], p[1], p[2], p[3]}
}

func samplerDesc(s gpu.Sampler) gpu.SamplerDesc {
	if s == nil {
		return gpu.SamplerDesc{Filter: gpu.FilterLinear, Address: gpu.AddressClamp}
	}
	return s.Desc()
}
