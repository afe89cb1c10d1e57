// Package config reads and writes the TOML scene and settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"ssao-renderer/core"
	"ssao-renderer/internal/logger"
	"ssao-renderer/math"
	"ssao-renderer/renderer"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// File is the top-level structure of a scene file.
type File struct {
	Window    Window        `toml:"window"`
	Log       logger.Config `toml:"log"`
	Pipeline  Pipeline      `toml:"pipeline"`
	Light     Light         `toml:"light"`
	Ambient   [3]float32    `toml:"ambient"`
	Sky       Sky           `toml:"sky"`
	Cameras   []Camera      `toml:"camera"`
	Materials []Material    `toml:"material"`
	Meshes    []Mesh        `toml:"mesh"`
	Entities  []Entity      `toml:"entity"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

// Pipeline mirrors renderer.Settings.
type Pipeline struct {
	ShadowResolution int        `toml:"shadow_resolution"`
	DepthBias        int32      `toml:"depth_bias"`
	SlopeBias        float32    `toml:"slope_bias"`
	LightVolumeSize  float32    `toml:"light_volume_size"`
	LightNear        float32    `toml:"light_near"`
	LightFar         float32    `toml:"light_far"`
	LightDistance    float32    `toml:"light_distance"`
	SSAORadius       float32    `toml:"ssao_radius"`
	SSAOSamples      int        `toml:"ssao_samples"`
	SSAOBias         float32    `toml:"ssao_bias"`
	KernelSeed       int64      `toml:"kernel_seed"`
	NoiseSeed        int64      `toml:"noise_seed"`
	BlurRadius       int        `toml:"blur_radius"`
	ClearColor       [3]float32 `toml:"clear_color"`
	FrustumCull      bool       `toml:"frustum_cull"`
}

type Light struct {
	Direction [3]float32 `toml:"direction"`
	Color     [3]float32 `toml:"color"`
	Intensity float32    `toml:"intensity"`
}

// Sky names six cube faces in +X, -X, +Y, -Y, +Z, -Z order. Without faces
// a gradient sky is generated from the three colors.
type Sky struct {
	Faces   []string   `toml:"faces,omitempty"`
	Size    int        `toml:"size"`
	Zenith  [3]float32 `toml:"zenith"`
	Horizon [3]float32 `toml:"horizon"`
	Ground  [3]float32 `toml:"ground"`
}

type Camera struct {
	Position  [3]float32 `toml:"position"`
	Rotation  [3]float32 `toml:"rotation"`
	FOV       float32    `toml:"fov"`
	Near      float32    `toml:"near"`
	Far       float32    `toml:"far"`
	MoveSpeed float32    `toml:"move_speed"`
	LookSpeed float32    `toml:"look_speed"`
}

// Material lists texture files by binding. Missing files fall back to
// generated textures.
type Material struct {
	Name         string     `toml:"name"`
	Tint         [3]float32 `toml:"tint"`
	Roughness    float32    `toml:"roughness"`
	Albedo       string     `toml:"albedo,omitempty"`
	NormalMap    string     `toml:"normal_map,omitempty"`
	RoughnessMap string     `toml:"roughness_map,omitempty"`
	MetalnessMap string     `toml:"metalness_map,omitempty"`
	Anisotropy   int        `toml:"anisotropy"`
}

// Mesh is loaded from Path (.obj, .gltf or .glb). A mesh without a
// loadable path uses the procedural primitive of the same name.
type Mesh struct {
	Name string `toml:"name"`
	Path string `toml:"path,omitempty"`
}

type Entity struct {
	Name     string     `toml:"name"`
	Mesh     string     `toml:"mesh"`
	Material string     `toml:"material"`
	Position [3]float32 `toml:"position"`
	Rotation [3]float32 `toml:"rotation"`
	Scale    [3]float32 `toml:"scale"`
	// Spin is a yaw rate in radians per second.
	Spin float32 `toml:"spin,omitempty"`
}

// Settings converts the pipeline section.
func (p Pipeline) Settings() renderer.Settings {
	return renderer.Settings{
		ShadowResolution: p.ShadowResolution,
		DepthBias:        p.DepthBias,
		SlopeBias:        p.SlopeBias,
		LightVolumeSize:  p.LightVolumeSize,
		LightNear:        p.LightNear,
		LightFar:         p.LightFar,
		LightDistance:    p.LightDistance,
		SSAORadius:       p.SSAORadius,
		SSAOSamples:      p.SSAOSamples,
		SSAOBias:         p.SSAOBias,
		KernelSeed:       p.KernelSeed,
		NoiseSeed:        p.NoiseSeed,
		BlurRadius:       p.BlurRadius,
		ClearColor:       RGB(p.ClearColor),
		FrustumCull:      p.FrustumCull,
	}
}

// Load reads path over Default and validates the result. Keys in the file
// override single fields; arrays of tables replace the default list.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML over Default and validates the result.
func Parse(data []byte) (*File, error) {
	var present map[string]any
	if err := toml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	f := Default()
	// Lists in the file replace the defaults instead of extending them.
	if _, ok := present["camera"]; ok {
		f.Cameras = nil
	}
	if _, ok := present["material"]; ok {
		f.Materials = nil
	}
	if _, ok := present["mesh"]; ok {
		f.Meshes = nil
	}
	if _, ok := present["entity"]; ok {
		f.Entities = nil
	}
	if sky, ok := present["sky"].(map[string]any); ok {
		if _, ok := sky["faces"]; ok {
			f.Sky.Faces = nil
		}
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Save writes f as TOML.
func Save(path string, f *File) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks ranges and cross references.
func (f *File) Validate() error {
	if f.Window.Width <= 0 || f.Window.Height <= 0 {
		return invalid("window size %dx%d", f.Window.Width, f.Window.Height)
	}
	p := f.Pipeline
	if p.ShadowResolution <= 0 {
		return invalid("pipeline.shadow_resolution %d", p.ShadowResolution)
	}
	if p.SSAORadius < 0 || p.SSAORadius > renderer.MaxSSAORadius {
		return invalid("pipeline.ssao_radius %g outside [0, %g]", p.SSAORadius, renderer.MaxSSAORadius)
	}
	if p.SSAOSamples < 0 || p.SSAOSamples > renderer.KernelSize {
		return invalid("pipeline.ssao_samples %d outside [0, %d]", p.SSAOSamples, renderer.KernelSize)
	}
	if p.BlurRadius < 0 || p.BlurRadius > renderer.MaxBlurRadius {
		return invalid("pipeline.blur_radius %d outside [0, %d]", p.BlurRadius, renderer.MaxBlurRadius)
	}
	if p.LightNear <= 0 || p.LightFar <= p.LightNear || p.LightVolumeSize <= 0 {
		return invalid("pipeline light volume size %g near %g far %g", p.LightVolumeSize, p.LightNear, p.LightFar)
	}
	if Vec3(f.Light.Direction).LengthSqr() == 0 {
		return invalid("light.direction is zero")
	}
	if n := len(f.Sky.Faces); n != 0 && n != 6 {
		return invalid("sky.faces has %d entries, want 6", n)
	}
	if len(f.Cameras) == 0 {
		return invalid("no [[camera]]")
	}
	for i, c := range f.Cameras {
		if c.FOV <= 0 || c.Near <= 0 || c.Far <= c.Near {
			return invalid("camera %d: fov %g near %g far %g", i, c.FOV, c.Near, c.Far)
		}
	}

	materials := make(map[string]bool, len(f.Materials))
	for _, m := range f.Materials {
		if m.Name == "" || materials[m.Name] {
			return invalid("material name %q empty or repeated", m.Name)
		}
		materials[m.Name] = true
	}
	meshes := make(map[string]bool, len(f.Meshes))
	for _, m := range f.Meshes {
		if m.Name == "" || meshes[m.Name] {
			return invalid("mesh name %q empty or repeated", m.Name)
		}
		meshes[m.Name] = true
	}
	for _, e := range f.Entities {
		if !meshes[e.Mesh] {
			return invalid("entity %q: unknown mesh %q", e.Name, e.Mesh)
		}
		if !materials[e.Material] {
			return invalid("entity %q: unknown material %q", e.Name, e.Material)
		}
	}
	return nil
}

// Vec3 converts a TOML triple.
func Vec3(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// RGB converts a TOML triple to an opaque color.
func RGB(a [3]float32) core.Color {
	return core.RGB(a[0], a[1], a[2])
}
