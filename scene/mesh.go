package scene

import (
	"fmt"

	"ssao-renderer/core"
	"ssao-renderer/gpu"
)

// Mesh pairs CPU-side geometry with its uploaded GPU buffers.
type Mesh struct {
	Name   string
	Data   core.MeshData
	Bounds AABB
	GPU    gpu.Mesh
}

// NewMesh wraps mesh data. Tangents are computed when the data has UVs.
func NewMesh(name string, data core.MeshData) *Mesh {
	m := &Mesh{Name: name, Data: data, Bounds: BoundsOf(data)}
	if !data.Empty() {
		ComputeTangents(&m.Data)
	}
	return m
}

// Upload creates the GPU buffers. Empty meshes upload nothing and draw as
// a no-op.
func (m *Mesh) Upload(dev gpu.Device) error {
	if m.Data.Empty() {
		return nil
	}
	buf, err := dev.NewMesh(m.Name, m.Data)
	if err != nil {
		return fmt.Errorf("upload mesh %q: %w", m.Name, err)
	}
	m.GPU = buf
	return nil
}

// Release frees the GPU buffers.
func (m *Mesh) Release(dev gpu.Device) {
	if m.GPU != nil {
		dev.Release(m.GPU)
		m.GPU = nil
	}
}
