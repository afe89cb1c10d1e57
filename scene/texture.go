package scene

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
)

// LoadImage decodes a PNG, JPEG, BMP, TIFF or WebP file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}
	return img, nil
}

// ImageTexels converts img to RGBA floats in [0,1], top row first.
func ImageTexels(img image.Image) (texels []float32, width, height int) {
	rgba := clone.AsRGBA(img)
	width, height = rgba.Rect.Dx(), rgba.Rect.Dy()
	texels = make([]float32, 0, width*height*4)
	for y := 0; y < height; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+width*4]
		for _, b := range row {
			texels = append(texels, float32(b)/255)
		}
	}
	return texels, width, height
}

// NewImageTexture uploads img as a sampled RGBA8 texture.
func NewImageTexture(dev gpu.Device, label string, img image.Image) (gpu.Texture, error) {
	texels, w, h := ImageTexels(img)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("texture %q is empty", label)
	}
	return dev.NewTexture(gpu.TextureDesc{
		Label:  label,
		Width:  w,
		Height: h,
		Format: gpu.FormatRGBA8,
		Usage:  gpu.UsageSampled,
	}, texels)
}

// LoadTexture reads an image file and uploads it.
func LoadTexture(dev gpu.Device, path string) (gpu.Texture, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return NewImageTexture(dev, path, img)
}

// NewSolidTexture uploads a 1×1 texture of color c.
func NewSolidTexture(dev gpu.Device, label string, c core.Color) (gpu.Texture, error) {
	return dev.NewTexture(gpu.TextureDesc{
		Label:  label,
		Width:  1,
		Height: 1,
		Format: gpu.FormatRGBA8,
		Usage:  gpu.UsageSampled,
	}, []float32{c.R, c.G, c.B, c.A})
}

// LoadCubeFaces reads six face images in +X, -X, +Y, -Y, +Z, -Z order and
// resizes any face that does not match the first one.
func LoadCubeFaces(paths [6]string) ([6]image.Image, error) {
	var faces [6]image.Image
	for i, p := range paths {
		img, err := LoadImage(p)
		if err != nil {
			return faces, fmt.Errorf("cube face %d: %w", i, err)
		}
		faces[i] = img
	}
	return NormalizeCubeFaces(faces), nil
}

// NormalizeCubeFaces makes every face square and the size of face 0.
func NormalizeCubeFaces(faces [6]image.Image) [6]image.Image {
	b := faces[0].Bounds()
	size := max(b.Dx(), b.Dy())
	for i, f := range faces {
		fb := f.Bounds()
		if fb.Dx() != size || fb.Dy() != size {
			faces[i] = transform.Resize(f, size, size, transform.Linear)
		}
	}
	return faces
}

// GradientCubeFaces builds a simple sky for scenes without cube-map files:
// zenith on +Y, ground on -Y and a vertical blend on the side faces.
func GradientCubeFaces(size int, zenith, horizon, ground core.Color) [6]image.Image {
	var faces [6]image.Image
	for i := range faces {
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		for y := 0; y < size; y++ {
			t := (float32(y) + 0.5) / float32(size)
			var c core.Color
			switch i {
			case 2:
				c = zenith
			case 3:
				c = ground
			default:
				if t < 0.5 {
					c = lerpColor(zenith, horizon, t*2)
				} else {
					c = lerpColor(horizon, ground, (t-0.5)*2)
				}
			}
			for x := 0; x < size; x++ {
				o := img.PixOffset(x, y)
				img.Pix[o+0] = toByte(c.R)
				img.Pix[o+1] = toByte(c.G)
				img.Pix[o+2] = toByte(c.B)
				img.Pix[o+3] = 255
			}
		}
		faces[i] = img
	}
	return faces
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return a.Scale(1 - t).Add(b.Scale(t))
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
