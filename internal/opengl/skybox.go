package opengl

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	gl "github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
)

// skyVertSrc drops the view translation on the CPU side and pins every
// vertex to the far plane (window depth 1).
const skyVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 skyViewProj;

out vec3 fragDir;
` + clipToGL + `
void main() {
    fragDir = inPosition;
    vec4 c  = skyViewProj * vec4(inPosition, 1.0);
    c.z     = c.w;
    gl_Position = toGL(c);
}
` + "\x00"

const skyFragSrc = `
#version 410 core
in  vec3 fragDir;
out vec4 outColor;

uniform samplerCube skyCube;
uniform bool hasSky;

void main() {
    vec3 color = hasSky ? texture(skyCube, fragDir).rgb : vec3(0.0);
    outColor = vec4(color, 1.0);
}
` + "\x00"

func (d *Device) useSky(u *gpu.SkyUniforms) {
	p := d.use(gpu.ProgramSky)
	p.mat4("skyViewProj", u.View.WithoutTranslation().Mul(u.Projection))

	gl.ActiveTexture(gl.TEXTURE0)
	c, ok := u.Sky.(*cubeMap)
	if !ok || c.id == 0 {
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
		p.bool("hasSky", false)
		return
	}
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.id)
	gl.BindSampler(0, samplerID(u.Sampler, d.linearSampler))
	p.bool("hasSky", true)
}

// NewCubeMap uploads six square faces in +X, -X, +Y, -Y, +Z, -Z order.
func (d *Device) NewCubeMap(label string, faces [6]image.Image) (gpu.CubeMap, error) {
	c := &cubeMap{label: label}
	var pixels [6]*image.RGBA
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("cube map %q: face %d missing", label, i)
		}
		b := f.Bounds()
		if b.Dx() != b.Dy() {
			return nil, fmt.Errorf("cube map %q: face %d is not square", label, i)
		}
		if i == 0 {
			c.size = b.Dx()
		} else if b.Dx() != c.size {
			return nil, fmt.Errorf("cube map %q: face %d is %d wide, want %d", label, i, b.Dx(), c.size)
		}
		pixels[i] = clone.AsRGBA(f)
	}
	if c.size == 0 {
		return nil, fmt.Errorf("cube map %q: empty faces", label)
	}

	gl.GenTextures(1, &c.id)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, c.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, px := range pixels {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, gl.RGBA8,
			int32(c.size), int32(c.size), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(px.Pix))
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAX_LEVEL, 0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)

	logger.Log.Debug("cube map created", zap.String("label", label), zap.Int("size", c.size))
	return c, nil
}
