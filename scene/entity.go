package scene

import (
	"fmt"
)

// MeshHandle and MaterialHandle index the arenas. The zero handle is never
// valid, so an unset field is caught on lookup.
type (
	MeshHandle     uint32
	MaterialHandle uint32
)

// Entity is one drawable: shared mesh and material plus its own transform.
type Entity struct {
	Name      string
	Mesh      MeshHandle
	Material  MaterialHandle
	Transform *Transform
}

// NewEntity returns an entity with an identity transform.
func NewEntity(name string, mesh MeshHandle, material MaterialHandle) *Entity {
	return &Entity{Name: name, Mesh: mesh, Material: material, Transform: NewTransform()}
}

// MeshArena owns every mesh in the scene.
type MeshArena struct {
	items  []*Mesh
	byName map[string]MeshHandle
}

func NewMeshArena() *MeshArena {
	return &MeshArena{byName: make(map[string]MeshHandle)}
}

// Add stores m and returns its handle.
func (a *MeshArena) Add(m *Mesh) MeshHandle {
	a.items = append(a.items, m)
	h := MeshHandle(len(a.items))
	a.byName[m.Name] = h
	return h
}

// Get returns the mesh for h, or nil for an unknown handle.
func (a *MeshArena) Get(h MeshHandle) *Mesh {
	if h == 0 || int(h) > len(a.items) {
		return nil
	}
	return a.items[h-1]
}

// Lookup finds a mesh handle by name.
func (a *MeshArena) Lookup(name string) (MeshHandle, error) {
	h, ok := a.byName[name]
	if !ok {
		return 0, fmt.Errorf("mesh %q not found", name)
	}
	return h, nil
}

func (a *MeshArena) Len() int { return len(a.items) }

// Each calls fn for every mesh in insertion order.
func (a *MeshArena) Each(fn func(MeshHandle, *Mesh)) {
	for i, m := range a.items {
		fn(MeshHandle(i+1), m)
	}
}

// MaterialArena owns every material in the scene.
type MaterialArena struct {
	items  []*Material
	byName map[string]MaterialHandle
}

func NewMaterialArena() *MaterialArena {
	return &MaterialArena{byName: make(map[string]MaterialHandle)}
}

func (a *MaterialArena) Add(m *Material) MaterialHandle {
	a.items = append(a.items, m)
	h := MaterialHandle(len(a.items))
	a.byName[m.Name] = h
	return h
}

func (a *MaterialArena) Get(h MaterialHandle) *Material {
	if h == 0 || int(h) > len(a.items) {
		return nil
	}
	return a.items[h-1]
}

func (a *MaterialArena) Lookup(name string) (MaterialHandle, error) {
	h, ok := a.byName[name]
	if !ok {
		return 0, fmt.Errorf("material %q not found", name)
	}
	return h, nil
}

func (a *MaterialArena) Len() int { return len(a.items) }
