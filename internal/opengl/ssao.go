package opengl

import (
	gl "github.com/go-gl/gl/v4.1-core/gl"

	"ssao-renderer/gpu"
)

var ssaoUnits = map[string]int32{
	"normalTex": 0,
	"depthTex":  1,
	"noiseTex":  2,
}

// ssaoFragSrc rebuilds the view-space position from the stored view depth
// along the far-plane ray and accumulates hemisphere occlusion over the
// first sampleCount kernel entries.
const ssaoFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outAO;

uniform sampler2D normalTex;  // unit 0, view-space normals
uniform sampler2D depthTex;   // unit 1, view-space depth
uniform sampler2D noiseTex;   // unit 2, 4x4 XY rotation noise
uniform bool  hasNoise;
uniform vec4  kernel[64];
uniform int   sampleCount;
uniform mat4  projection;
uniform mat4  invProjection;
uniform float radius;
uniform float bias;
uniform vec2  noiseScale;

void main() {
    if (sampleCount <= 0) { outAO = vec4(1.0); return; }

    float stored = texture(depthTex, fragUV).r;
    vec3  n      = texture(normalTex, fragUV).xyz;
    if (stored <= 0.0 || dot(n, n) == 0.0) { outAO = vec4(1.0); return; }
    n = normalize(n);

    vec4 f   = invProjection * vec4(fragUV.x * 2.0 - 1.0, 1.0 - fragUV.y * 2.0, 1.0, 1.0);
    vec3 far = f.xyz / f.w;
    if (far.z == 0.0) { outAO = vec4(1.0); return; }
    vec3 p = far * (stored / far.z);

    vec3 rnd = vec3(1.0, 0.0, 0.0);
    if (hasNoise) rnd = vec3(texture(noiseTex, fragUV * noiseScale).xy, 0.0);

    // Gram-Schmidt, falling back to the world axes when the noise vector is
    // parallel to the normal.
    vec3 t = rnd - n * dot(rnd, n);
    if (dot(t, t) < 1e-8) {
        t = vec3(0.0, 1.0, 0.0) - n * n.y;
        if (dot(t, t) < 1e-8) t = vec3(1.0, 0.0, 0.0) - n * n.x;
    }
    t = normalize(t);
    vec3 b = cross(n, t);

    float occlusion = 0.0;
    for (int i = 0; i < sampleCount; i++) {
        vec3 k = kernel[i].xyz;
        vec3 s = p + (t * k.x + b * k.y + n * k.z) * radius;

        vec4 c = projection * vec4(s, 1.0);
        if (c.w <= 0.0) continue;
        vec2 suv = vec2(c.x / c.w * 0.5 + 0.5, 0.5 - c.y / c.w * 0.5);

        float sd = texture(depthTex, suv).r;
        if (sd <= 0.0) continue;

        float rangeCheck = smoothstep(0.0, 1.0, radius / max(abs(p.z - sd), 1e-4));
        if (sd + bias < s.z) occlusion += rangeCheck;
    }

    float a = clamp(1.0 - occlusion / float(sampleCount), 0.0, 1.0);
    if (isnan(a)) a = 1.0;
    outAO = vec4(a, a, a, 1.0);
}
` + "\x00"

// ssaoBlurFragSrc applies a 5×5 box blur to reduce SSAO noise.
const ssaoBlurFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outAO;

uniform sampler2D ssaoTex;
uniform bool hasSource;
uniform vec2 texel;

void main() {
    if (!hasSource) { outAO = vec4(1.0); return; }
    vec4 result = vec4(0.0);
    for (int y = -2; y <= 2; y++) {
        for (int x = -2; x <= 2; x++) {
            result += texture(ssaoTex, fragUV + vec2(x, y) * texel);
        }
    }
    outAO = result / 25.0;
}
` + "\x00"

func (d *Device) useSSAO(u *gpu.SSAOUniforms) *program {
	p := d.use(gpu.ProgramSSAO)
	p.mat4("projection", u.Projection)
	p.mat4("invProjection", u.InvProjection)
	gl.Uniform4fv(p.loc("kernel[0]"), gpu.KernelSize, &u.Kernel[0].X)
	p.int("sampleCount", min(max(u.SampleCount, 0), gpu.KernelSize))
	p.float("radius", u.Radius)
	p.float("bias", u.Bias)
	p.vec2("noiseScale", u.NoiseScale.X, u.NoiseScale.Y)

	// Depth and normals are never filtered.
	d.bindTexture(p, 0, "", u.Normals, nil, d.pointSampler)
	d.bindTexture(p, 1, "", u.Depth, nil, d.pointSampler)
	d.bindTexture(p, 2, "hasNoise", u.Noise, u.NoiseSampler, d.pointSampler)

	if u.Normals == nil || u.Depth == nil {
		p.int("sampleCount", 0)
	}
	return p
}

func (d *Device) useSSAOBlur(u *gpu.SSAOBlurUniforms) *program {
	p := d.use(gpu.ProgramSSAOBlur)
	p.vec2("texel", u.PixelWidth, u.PixelHeight)
	d.bindTexture(p, 0, "hasSource", u.SSAO, u.Sampler, d.linearSampler)
	return p
}
