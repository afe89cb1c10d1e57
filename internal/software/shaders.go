package software

import (
	"fmt"

	"github.com/chewxy/math32"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/math"
)

func rasterProgram(u gpu.Uniforms) (rasterProg, error) {
	switch u := u.(type) {
	case *gpu.ShadowUniforms:
		return shadowProgram(*u), nil
	case *gpu.GBufferUniforms:
		return gbufferProgram(*u), nil
	case *gpu.SkyUniforms:
		return skyProgram(*u), nil
	}
	return rasterProg{}, fmt.Errorf("draw %s: %w", u.Program(), gpu.ErrUnknownProgram)
}

func fullscreenProgram(u gpu.Uniforms) (fullscreenShader, error) {
	switch u := u.(type) {
	case *gpu.SSAOUniforms:
		return ssaoShader(*u), nil
	case *gpu.SSAOBlurUniforms:
		return ssaoBlurShader(*u), nil
	case *gpu.CombineUniforms:
		return combineShader(*u), nil
	case *gpu.PostUniforms:
		return postShader(*u), nil
	}
	return nil, fmt.Errorf("full-screen draw %s: %w", u.Program(), gpu.ErrUnknownProgram)
}

func shadowProgram(u gpu.ShadowUniforms) rasterProg {
	wvp := u.World.Mul(u.View).Mul(u.Projection)
	return rasterProg{
		vertex: func(v core.Vertex) vertexOut {
			return vertexOut{clip: v.Position.ToVec4(1).MulMat(wvp)}
		},
	}
}

// G-buffer varying layout.
const (
	gvWorld     = 0
	gvNormal    = 3
	gvTangent   = 6
	gvBitangent = 9
	gvUV        = 12
	gvLight     = 14
	gvViewZ     = 18
	gvCount     = 19
)

func putVec3(v *varyings, at int, x math.Vec3) {
	v[at], v[at+1], v[at+2] = x.X, x.Y, x.Z
}

func getVec3(v *varyings, at int) math.Vec3 {
	return math.Vec3{X: v[at], Y: v[at+1], Z: v[at+2]}
}

func gbufferProgram(u gpu.GBufferUniforms) rasterProg {
	viewProj := u.View.Mul(u.Projection)
	lightViewProj := u.LightView.Mul(u.LightProjection)
	albedo, normalMap := tex(u.Albedo), tex(u.NormalMap)
	roughMap, metalMap := tex(u.RoughnessMap), tex(u.MetalnessMap)
	shadowMap := tex(u.ShadowMap)
	toLight := u.Light.Direction.Negate().Normalize()
	radiance := u.Light.Color.Vec3().Mul(u.Light.Intensity)

	vertex := func(v core.Vertex) vertexOut {
		world := v.Position.ToVec4(1).MulMat(u.World)
		var o vertexOut
		o.clip = world.MulMat(viewProj)
		putVec3(&o.v, gvWorld, world.ToVec3())
		putVec3(&o.v, gvNormal, u.WorldInvTranspose.TransformDirection(v.Normal))
		putVec3(&o.v, gvTangent, u.World.TransformDirection(v.Tangent))
		putVec3(&o.v, gvBitangent, u.World.TransformDirection(v.Bitangent))
		o.v[gvUV], o.v[gvUV+1] = v.UV.X, v.UV.Y
		lc := world.MulMat(lightViewProj)
		o.v[gvLight], o.v[gvLight+1], o.v[gvLight+2], o.v[gvLight+3] = lc.X, lc.Y, lc.Z, lc.W
		o.v[gvViewZ] = world.MulMat(u.View).Z
		return o
	}

	fragment := func(in *varyings) fragmentOut {
		uv := math.Vec2{X: in[gvUV], Y: in[gvUV+1]}
		worldPos := getVec3(in, gvWorld)
		n := getVec3(in, gvNormal).Normalize()

		if normalMap != nil {
			t := getVec3(in, gvTangent)
			t = t.Sub(n.Mul(n.Dot(t))).Normalize()
			b := getVec3(in, gvBitangent).Normalize()
			if t.LengthSqr() > 0 && b.LengthSqr() > 0 {
				s := sample2D(normalMap, u.Sampler, uv)
				ts := math.Vec3{X: s[0]*2 - 1, Y: s[1]*2 - 1, Z: s[2]*2 - 1}
				n = t.Mul(ts.X).Add(b.Mul(ts.Y)).Add(n.Mul(ts.Z)).Normalize()
			}
		}

		base := u.Tint.Vec3()
		if albedo != nil {
			s := sample2D(albedo, u.Sampler, uv)
			base = base.MulVec(math.Vec3{X: s[0], Y: s[1], Z: s[2]})
		}
		roughness := u.Roughness
		if roughMap != nil {
			roughness = sample2D(roughMap, u.Sampler, uv)[0]
		}
		var metal float32
		if metalMap != nil {
			metal = sample2D(metalMap, u.Sampler, uv)[0]
		}

		visibility := float32(1)
		if shadowMap != nil {
			w := in[gvLight+3]
			if w != 0 {
				suv := math.Vec2{X: in[gvLight]/w*0.5 + 0.5, Y: 0.5 - in[gvLight+1]/w*0.5}
				visibility = sampleCompare(shadowMap, u.ShadowSampler, suv, in[gvLight+2]/w)
			}
		}

		nDotL := max(n.Dot(toLight), 0)
		toEye := u.CameraPosition.Sub(worldPos).Normalize()
		half := toLight.Add(toEye).Normalize()
		gloss := 1 - roughness
		power := 2 + gloss*gloss*254
		spec := math32.Pow(max(n.Dot(half), 0), power) * nDotL
		specColor := math.Vec3{X: 0.04, Y: 0.04, Z: 0.04}.Lerp(base, metal)

		direct := base.Mul(1 - metal).Mul(nDotL).Add(specColor.Mul(spec))
		direct = direct.MulVec(radiance).Mul(visibility)
		ambient := base.MulVec(u.Ambient.Vec3())
		viewNormal := u.View.TransformDirection(n).Normalize()

		var out fragmentOut
		out[gpu.GBufferColor] = [4]float32{direct.X, direct.Y, direct.Z, 1}
		out[gpu.GBufferAmbient] = [4]float32{ambient.X, ambient.Y, ambient.Z, 1}
		out[gpu.GBufferNormal] = [4]float32{viewNormal.X, viewNormal.Y, viewNormal.Z, 1}
		out[gpu.GBufferDepth] = [4]float32{in[gvViewZ], 0, 0, 1}
		return out
	}

	return rasterProg{varyings: gvCount, vertex: vertex, fragment: fragment}
}

func skyProgram(u gpu.SkyUniforms) rasterProg {
	viewProj := u.View.WithoutTranslation().Mul(u.Projection)
	cube, _ := u.Sky.(*cubeMap)
	return rasterProg{
		varyings: 3,
		vertex: func(v core.Vertex) vertexOut {
			var o vertexOut
			o.clip = v.Position.ToVec4(1).MulMat(viewProj)
			putVec3(&o.v, 0, v.Position)
			return o
		},
		fragment: func(in *varyings) fragmentOut {
			var out fragmentOut
			if cube != nil {
				out[0] = sampleCube(cube, getVec3(in, 0))
			}
			out[0][3] = 1
			return out
		},
		farDepth: true,
	}
}

func smoothstep(e0, e1, x float32) float32 {
	t := min(max((x-e0)/(e1-e0), 0), 1)
	return t * t * (3 - 2*t)
}

func ssaoShader(u gpu.SSAOUniforms) fullscreenShader {
	normals, depth, noise := tex(u.Normals), tex(u.Depth), tex(u.Noise)
	count := min(max(u.SampleCount, 0), gpu.KernelSize)
	point := &sampler{desc: gpu.SamplerDesc{Filter: gpu.FilterPoint, Address: gpu.AddressClamp}}

	return func(uv math.Vec2) [4]float32 {
		if count == 0 || depth == nil || normals == nil {
			return [4]float32{1, 1, 1, 1}
		}
		stored := sample2D(depth, point, uv)[0]
		if stored <= 0 {
			return [4]float32{1, 1, 1, 1}
		}
		ns := sample2D(normals, point, uv)
		n := math.Vec3{X: ns[0], Y: ns[1], Z: ns[2]}
		if n.LengthSqr() == 0 {
			return [4]float32{1, 1, 1, 1}
		}
		n = n.Normalize()

		far := math.Vec4{X: uv.X*2 - 1, Y: 1 - uv.Y*2, Z: 1, W: 1}.MulMat(u.InvProjection).ToVec3DivW()
		if far.Z == 0 {
			return [4]float32{1, 1, 1, 1}
		}
		p := far.Mul(stored / far.Z)

		rnd := math.Vec3{X: 1}
		if noise != nil {
			s := sample2D(noise, u.NoiseSampler, math.Vec2{X: uv.X * u.NoiseScale.X, Y: uv.Y * u.NoiseScale.Y})
			rnd = math.Vec3{X: s[0], Y: s[1]}
		}
		t := rnd.Sub(n.Mul(rnd.Dot(n)))
		if t.LengthSqr() < 1e-8 {
			t = math.Vec3Up.Sub(n.Mul(n.Y))
			if t.LengthSqr() < 1e-8 {
				t = math.Vec3Right.Sub(n.Mul(n.X))
			}
		}
		t = t.Normalize()
		b := n.Cross(t)

		var occlusion float32
		for i := 0; i < count; i++ {
			k := u.Kernel[i]
			s := p.Add(t.Mul(k.X).Add(b.Mul(k.Y)).Add(n.Mul(k.Z)).Mul(u.Radius))
			c := s.ToVec4(1).MulMat(u.Projection)
			if c.W <= 0 {
				continue
			}
			suv := math.Vec2{X: c.X/c.W*0.5 + 0.5, Y: 0.5 - c.Y/c.W*0.5}
			sd := sample2D(depth, point, suv)[0]
			if sd <= 0 {
				continue
			}
			rangeCheck := smoothstep(0, 1, u.Radius/max(math32.Abs(p.Z-sd), 1e-4))
			if sd+u.Bias < s.Z {
				occlusion += rangeCheck
			}
		}
		a := min(max(1-occlusion/float32(count), 0), 1)
		if math32.IsNaN(a) {
			a = 1
		}
		return [4]float32{a, a, a, 1}
	}
}

func boxAverage(t *texture, smp gpu.Sampler, uv math.Vec2, r int, dx, dy float32) [4]float32 {
	var sum [4]float32
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			s := sample2D(t, smp, math.Vec2{X: uv.X + float32(x)*dx, Y: uv.Y + float32(y)*dy})
			for k := range sum {
				sum[k] += s[k]
			}
		}
	}
	n := float32((2*r + 1) * (2*r + 1))
	for k := range sum {
		sum[k] /= n
	}
	return sum
}

func ssaoBlurShader(u gpu.SSAOBlurUniforms) fullscreenShader {
	src := tex(u.SSAO)
	return func(uv math.Vec2) [4]float32 {
		if src == nil {
			return [4]float32{1, 1, 1, 1}
		}
		return boxAverage(src, u.Sampler, uv, 2, u.PixelWidth, u.PixelHeight)
	}
}

func combineShader(u gpu.CombineUniforms) fullscreenShader {
	color, ambient, ssao := tex(u.Color), tex(u.Ambient), tex(u.SSAO)
	return func(uv math.Vec2) [4]float32 {
		var c, a [4]float32
		if color != nil {
			c = sample2D(color, u.Sampler, uv)
		}
		if ambient != nil {
			a = sample2D(ambient, u.Sampler, uv)
		}
		occ := float32(1)
		if ssao != nil {
			occ = sample2D(ssao, u.Sampler, uv)[0]
		}
		return [4]float32{c[0] + a[0]*occ, c[1] + a[1]*occ, c[2] + a[2]*occ, 1}
	}
}

func postShader(u gpu.PostUniforms) fullscreenShader {
	src := tex(u.Pixels)
	r := min(max(u.BlurRadius, 0), 10)
	return func(uv math.Vec2) [4]float32 {
		if src == nil {
			return [4]float32{}
		}
		if r == 0 {
			return sample2D(src, u.Sampler, uv)
		}
		return boxAverage(src, u.Sampler, uv, r, u.PixelWidth, u.PixelHeight)
	}
}

func tex(t gpu.Texture) *texture {
	if t == nil {
		return nil
	}
	st, _ := t.(*texture)
	return st
}
