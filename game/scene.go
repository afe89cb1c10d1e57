package game

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ssao-renderer/config"
	"ssao-renderer/core"
	"ssao-renderer/gpu"
	"ssao-renderer/internal/logger"
	"ssao-renderer/scene"
)

// world is everything built from the config file that the frame reads.
type world struct {
	cameras   []*scene.Camera
	entities  []*scene.Entity
	spins     []float32
	meshes    *scene.MeshArena
	materials *scene.MaterialArena
	light     scene.DirectionalLight
	ambient   core.Color
	sky       gpu.CubeMap

	// owned are textures and samplers released on Destroy.
	owned []gpu.Resource
}

func buildWorld(dev gpu.Device, cfg *config.File, aspect float32) (*world, error) {
	w := &world{
		meshes:    scene.NewMeshArena(),
		materials: scene.NewMaterialArena(),
		light:     scene.NewDirectionalLight(config.Vec3(cfg.Light.Direction), config.RGB(cfg.Light.Color), cfg.Light.Intensity),
		ambient:   config.RGB(cfg.Ambient),
	}

	for _, c := range cfg.Cameras {
		cam := scene.NewCamera(aspect, config.Vec3(c.Position), c.FOV)
		cam.Near, cam.Far = c.Near, c.Far
		cam.MoveSpeed, cam.LookSpeed = c.MoveSpeed, c.LookSpeed
		cam.Transform.SetRotation(config.Vec3(c.Rotation))
		cam.UpdateProjectionMatrix(aspect)
		cam.UpdateViewMatrix()
		w.cameras = append(w.cameras, cam)
	}

	for _, m := range cfg.Meshes {
		mesh := scene.NewMesh(m.Name, loadMeshData(m))
		if err := mesh.Upload(dev); err != nil {
			w.release(dev)
			return nil, err
		}
		w.meshes.Add(mesh)
	}

	for _, m := range cfg.Materials {
		mat, err := w.buildMaterial(dev, m)
		if err != nil {
			w.release(dev)
			return nil, err
		}
		w.materials.Add(mat)
	}

	for _, e := range cfg.Entities {
		mh, err := w.meshes.Lookup(e.Mesh)
		if err != nil {
			w.release(dev)
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		th, err := w.materials.Lookup(e.Material)
		if err != nil {
			w.release(dev)
			return nil, fmt.Errorf("entity %q: %w", e.Name, err)
		}
		ent := scene.NewEntity(e.Name, mh, th)
		ent.Transform.SetPosition(config.Vec3(e.Position))
		ent.Transform.SetRotation(config.Vec3(e.Rotation))
		ent.Transform.SetScale(config.Vec3(e.Scale))
		w.entities = append(w.entities, ent)
		w.spins = append(w.spins, e.Spin)
	}

	sky, err := dev.NewCubeMap("sky", skyFaces(cfg.Sky))
	if err != nil {
		w.release(dev)
		return nil, fmt.Errorf("sky: %w", err)
	}
	w.sky = sky
	w.owned = append(w.owned, sky)

	logger.Log.Info("scene built",
		zap.Int("cameras", len(w.cameras)),
		zap.Int("meshes", w.meshes.Len()),
		zap.Int("materials", w.materials.Len()),
		zap.Int("entities", len(w.entities)))
	return w, nil
}

// loadMeshData reads the mesh file, falling back to the procedural
// primitive of the same name. A mesh with neither stays empty and is
// skipped when drawn.
func loadMeshData(m config.Mesh) core.MeshData {
	if m.Path != "" {
		var (
			data core.MeshData
			err  error
		)
		switch strings.ToLower(filepath.Ext(m.Path)) {
		case ".gltf", ".glb":
			data, err = scene.LoadGLTF(m.Path)
		default:
			data, err = scene.LoadOBJ(m.Path)
		}
		if err == nil {
			return data
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Log.Warn("mesh load failed", zap.String("mesh", m.Name), zap.Error(err))
		}
	}
	data, ok := scene.Primitive(m.Name)
	if !ok {
		logger.Log.Warn("mesh has no geometry", zap.String("mesh", m.Name))
	}
	return data
}

func (w *world) buildMaterial(dev gpu.Device, m config.Material) (*scene.Material, error) {
	mat := scene.NewMaterial(m.Name, config.RGB(m.Tint), m.Roughness)

	filter := gpu.FilterLinear
	if m.Anisotropy > 1 {
		filter = gpu.FilterAnisotropic
	}
	smp, err := dev.NewSampler(gpu.SamplerDesc{
		Label:         m.Name + "-sampler",
		Filter:        filter,
		Address:       gpu.AddressWrap,
		MaxAnisotropy: m.Anisotropy,
	})
	if err != nil {
		return nil, fmt.Errorf("material %q sampler: %w", m.Name, err)
	}
	w.owned = append(w.owned, smp)
	mat.AddSampler(scene.SamplerBasic, smp)

	for name, path := range map[string]string{
		scene.TextureAlbedo:    m.Albedo,
		scene.TextureNormal:    m.NormalMap,
		scene.TextureRoughness: m.RoughnessMap,
		scene.TextureMetalness: m.MetalnessMap,
	} {
		if path == "" {
			continue
		}
		tex, err := scene.LoadTexture(dev, path)
		if err != nil {
			// The geometry program falls back to tint, roughness and zero
			// metalness for unbound maps.
			logger.Log.Warn("texture unavailable", zap.String("material", m.Name), zap.String("slot", name), zap.Error(err))
			continue
		}
		w.owned = append(w.owned, tex)
		mat.AddTexture(name, tex)
	}
	return mat, nil
}

// skyFaces loads the configured cube faces or builds the gradient sky.
func skyFaces(s config.Sky) [6]image.Image {
	if len(s.Faces) == 6 {
		faces, err := scene.LoadCubeFaces([6]string(s.Faces))
		if err == nil {
			return faces
		}
		logger.Log.Warn("sky faces unavailable, using gradient", zap.Error(err))
	}
	size := s.Size
	if size <= 0 {
		size = 64
	}
	return scene.GradientCubeFaces(size, config.RGB(s.Zenith), config.RGB(s.Horizon), config.RGB(s.Ground))
}

func (w *world) release(dev gpu.Device) {
	if w.meshes != nil {
		w.meshes.Each(func(_ scene.MeshHandle, m *scene.Mesh) { m.Release(dev) })
	}
	for _, r := range w.owned {
		dev.Release(r)
	}
	w.owned = nil
	w.sky = nil
}
