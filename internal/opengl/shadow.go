package opengl

import "ssao-renderer/gpu"

// shadowVertSrc writes light-space depth only; the pass has no colour
// targets.
const shadowVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 worldViewProj;
` + clipToGL + `
void main() {
    gl_Position = toGL(worldViewProj * vec4(inPosition, 1.0));
}
` + "\x00"

const shadowFragSrc = `
#version 410 core
void main() {}
` + "\x00"

func (d *Device) useShadow(u *gpu.ShadowUniforms) {
	p := d.use(gpu.ProgramShadow)
	p.mat4("worldViewProj", u.World.Mul(u.View).Mul(u.Projection))
}
