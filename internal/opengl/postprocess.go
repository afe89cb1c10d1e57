package opengl

import "ssao-renderer/gpu"

var combineUnits = map[string]int32{
	"colorTex":   0,
	"ambientTex": 1,
	"ssaoTex":    2,
}

// fullscreenVertSrc is a fullscreen triangle via gl_VertexID (no VBO
// needed). Offscreen targets keep row 0 at uv.y = 0; the window's rows run
// bottom-up, so flipY is set when drawing to it.
const fullscreenVertSrc = `
#version 410 core
out vec2 fragUV;

uniform bool flipY;

void main() {
    const vec2 pos[3] = vec2[3](
        vec2(-1.0, -1.0),
        vec2( 3.0, -1.0),
        vec2(-1.0,  3.0)
    );
    gl_Position = vec4(pos[gl_VertexID], 0.0, 1.0);
    fragUV      = pos[gl_VertexID] * 0.5 + 0.5;
    if (flipY) fragUV.y = 1.0 - fragUV.y;
}
` + "\x00"

// combineFragSrc adds the occluded ambient term to the direct light.
const combineFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D colorTex;
uniform sampler2D ambientTex;
uniform sampler2D ssaoTex;
uniform bool hasColor;
uniform bool hasAmbient;
uniform bool hasSSAO;

void main() {
    vec3  c   = hasColor   ? texture(colorTex, fragUV).rgb   : vec3(0.0);
    vec3  a   = hasAmbient ? texture(ambientTex, fragUV).rgb : vec3(0.0);
    float occ = hasSSAO    ? texture(ssaoTex, fragUV).r      : 1.0;
    outColor = vec4(c + a * occ, 1.0);
}
` + "\x00"

// postFragSrc box-blurs the combined image into the back buffer. Radius 0
// is a straight copy.
const postFragSrc = `
#version 410 core
in  vec2 fragUV;
out vec4 outColor;

uniform sampler2D pixels;
uniform bool hasSource;
uniform int  blurRadius;
uniform vec2 texel;

void main() {
    if (!hasSource) { outColor = vec4(0.0); return; }
    if (blurRadius == 0) { outColor = texture(pixels, fragUV); return; }

    vec4 sum = vec4(0.0);
    for (int y = -blurRadius; y <= blurRadius; y++) {
        for (int x = -blurRadius; x <= blurRadius; x++) {
            sum += texture(pixels, fragUV + vec2(x, y) * texel);
        }
    }
    float n = float((2 * blurRadius + 1) * (2 * blurRadius + 1));
    outColor = sum / n;
}
` + "\x00"

func (d *Device) useCombine(u *gpu.CombineUniforms) *program {
	p := d.use(gpu.ProgramCombine)
	d.bindTexture(p, 0, "hasColor", u.Color, u.Sampler, d.linearSampler)
	d.bindTexture(p, 1, "hasAmbient", u.Ambient, u.Sampler, d.linearSampler)
	d.bindTexture(p, 2, "hasSSAO", u.SSAO, u.Sampler, d.linearSampler)
	return p
}

// maxBlurRadius bounds the post blur loop.
const maxBlurRadius = 10

func (d *Device) usePost(u *gpu.PostUniforms) *program {
	p := d.use(gpu.ProgramPost)
	p.int("blurRadius", min(max(u.BlurRadius, 0), maxBlurRadius))
	p.vec2("texel", u.PixelWidth, u.PixelHeight)
	d.bindTexture(p, 0, "hasSource", u.Pixels, u.Sampler, d.linearSampler)
	return p
}
