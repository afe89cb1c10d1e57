package opengl

import "ssao-renderer/gpu"

var gbufferUnits = map[string]int32{
	"albedoMap":    0,
	"normalMap":    1,
	"roughnessMap": 2,
	"metalnessMap": 3,
	"shadowMap":    4,
}

const gbufferVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;
layout(location = 3) in vec3 inTangent;
layout(location = 4) in vec3 inBitangent;

uniform mat4 world;
uniform mat4 worldInvTranspose;
uniform mat4 view;
uniform mat4 viewProj;
uniform mat4 lightViewProj;

out vec3  fragWorld;
out vec3  fragNormal;
out vec3  fragTangent;
out vec3  fragBitangent;
out vec2  fragUV;
out vec4  fragLight;
out float fragViewZ;
` + clipToGL + `
void main() {
    vec4 w        = world * vec4(inPosition, 1.0);
    fragWorld     = w.xyz;
    fragNormal    = mat3(worldInvTranspose) * inNormal;
    fragTangent   = mat3(world) * inTangent;
    fragBitangent = mat3(world) * inBitangent;
    fragUV        = inUV;
    fragLight     = lightViewProj * w;
    fragViewZ     = (view * w).z;
    gl_Position   = toGL(viewProj * w);
}
` + "\x00"

// gbufferFragSrc lights the surface with the directional light and writes
// direct colour, ambient colour, the view-space normal and view depth.
const gbufferFragSrc = `
#version 410 core
in vec3  fragWorld;
in vec3  fragNormal;
in vec3  fragTangent;
in vec3  fragBitangent;
in vec2  fragUV;
in vec4  fragLight;
in float fragViewZ;

layout(location = 0) out vec4 outColor;
layout(location = 1) out vec4 outAmbient;
layout(location = 2) out vec4 outNormal;
layout(location = 3) out vec4 outDepth;

uniform sampler2D       albedoMap;
uniform sampler2D       normalMap;
uniform sampler2D       roughnessMap;
uniform sampler2D       metalnessMap;
uniform sampler2DShadow shadowMap;
uniform bool hasAlbedo;
uniform bool hasNormalMap;
uniform bool hasRoughnessMap;
uniform bool hasMetalnessMap;
uniform bool hasShadowMap;

uniform mat4  view;
uniform vec3  cameraPos;
uniform vec3  ambient;
uniform vec3  lightDir;
uniform vec3  lightColor;
uniform float lightIntensity;
uniform vec3  tint;
uniform float roughness;

void main() {
    vec3 n = normalize(fragNormal);
    if (hasNormalMap) {
        vec3 t = fragTangent - n * dot(n, fragTangent);
        vec3 b = fragBitangent;
        if (dot(t, t) > 0.0 && dot(b, b) > 0.0) {
            vec3 ts = texture(normalMap, fragUV).xyz * 2.0 - 1.0;
            n = normalize(normalize(t) * ts.x + normalize(b) * ts.y + n * ts.z);
        }
    }

    vec3 base = tint;
    if (hasAlbedo) base *= texture(albedoMap, fragUV).rgb;
    float r = hasRoughnessMap ? texture(roughnessMap, fragUV).r : roughness;
    float metal = hasMetalnessMap ? texture(metalnessMap, fragUV).r : 0.0;

    float visibility = 1.0;
    if (hasShadowMap && fragLight.w != 0.0) {
        vec3 l = fragLight.xyz / fragLight.w;
        visibility = texture(shadowMap, vec3(l.x * 0.5 + 0.5, 0.5 - l.y * 0.5, l.z));
    }

    vec3  toLight = normalize(-lightDir);
    float nDotL   = max(dot(n, toLight), 0.0);
    vec3  toEye   = normalize(cameraPos - fragWorld);
    vec3  halfVec = normalize(toLight + toEye);
    float gloss   = 1.0 - r;
    float spec    = pow(max(dot(n, halfVec), 0.0), 2.0 + gloss * gloss * 254.0) * nDotL;
    vec3  specCol = mix(vec3(0.04), base, metal);

    vec3 direct = (base * (1.0 - metal) * nDotL + specCol * spec) * lightColor * lightIntensity * visibility;

    outColor   = vec4(direct, 1.0);
    outAmbient = vec4(base * ambient, 1.0);
    outNormal  = vec4(normalize(mat3(view) * n), 1.0);
    outDepth   = vec4(fragViewZ, 0.0, 0.0, 1.0);
}
` + "\x00"

func (d *Device) useGBuffer(u *gpu.GBufferUniforms) {
	p := d.use(gpu.ProgramGBuffer)
	p.mat4("world", u.World)
	p.mat4("worldInvTranspose", u.WorldInvTranspose)
	p.mat4("view", u.View)
	p.mat4("viewProj", u.View.Mul(u.Projection))
	p.mat4("lightViewProj", u.LightView.Mul(u.LightProjection))
	p.vec3("cameraPos", u.CameraPosition)
	p.color("ambient", u.Ambient)
	p.vec3("lightDir", u.Light.Direction)
	p.color("lightColor", u.Light.Color)
	p.float("lightIntensity", u.Light.Intensity)
	p.color("tint", u.Tint)
	p.float("roughness", u.Roughness)

	d.bindTexture(p, 0, "hasAlbedo", u.Albedo, u.Sampler, d.linearSampler)
	d.bindTexture(p, 1, "hasNormalMap", u.NormalMap, u.Sampler, d.linearSampler)
	d.bindTexture(p, 2, "hasRoughnessMap", u.RoughnessMap, u.Sampler, d.linearSampler)
	d.bindTexture(p, 3, "hasMetalnessMap", u.MetalnessMap, u.Sampler, d.linearSampler)
	d.bindTexture(p, 4, "hasShadowMap", u.ShadowMap, u.ShadowSampler, d.shadowSampler)
}
