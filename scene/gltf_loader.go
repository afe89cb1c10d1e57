package scene

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"ssao-renderer/core"
	"ssao-renderer/internal/logger"
	"ssao-renderer/math"
)

// LoadGLTF reads a .gltf or .glb file and flattens every triangle primitive
// of the default scene into one left-handed mesh, baking node transforms.
func LoadGLTF(path string) (core.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return core.MeshData{}, fmt.Errorf("gltf open %q: %w", path, err)
	}

	var d core.MeshData
	var visit func(idx int, parent math.Mat4)
	visit = func(idx int, parent math.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) {
			return
		}
		gn := doc.Nodes[idx]
		world := nodeMatrix(gn).Mul(parent)
		if gn.Mesh != nil && *gn.Mesh < len(doc.Meshes) {
			for pi, prim := range doc.Meshes[*gn.Mesh].Primitives {
				if err := appendGLTFPrimitive(&d, doc, prim, world); err != nil {
					logger.Log.Warn("gltf primitive skipped",
						zap.String("path", path), zap.Int("node", idx), zap.Int("primitive", pi), zap.Error(err))
				}
			}
		}
		for _, c := range gn.Children {
			visit(c, world)
		}
	}
	for _, root := range sceneRoots(doc) {
		visit(root, math.Mat4Identity())
	}

	if d.Empty() {
		return core.MeshData{}, fmt.Errorf("gltf %q: no triangle geometry", path)
	}
	return d, nil
}

// sceneRoots returns the default scene's roots, or every parentless node.
func sceneRoots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeMatrix builds the node's local row-vector matrix from its TRS.
func nodeMatrix(n *gltf.Node) math.Mat4 {
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
	return math.Mat4Scale(math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])}).
		Mul(rot.ToMat4()).
		Mul(math.Mat4Translation(math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])}))
}

func appendGLTFPrimitive(d *core.MeshData, doc *gltf.Document, prim *gltf.Primitive, world math.Mat4) error {
	if prim.Mode != gltf.PrimitiveTriangles {
		return fmt.Errorf("mode %v is not triangles", prim.Mode)
	}
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return fmt.Errorf("uvs: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	normalMat, _ := world.Inverse()
	normalMat = normalMat.Transpose()

	base := uint32(len(d.Vertices))
	firstIndex := len(d.Indices)
	for i, p := range positions {
		v := core.Vertex{Position: world.TransformPoint(math.Vec3{X: p[0], Y: p[1], Z: p[2]})}
		if i < len(normals) {
			n := normals[i]
			v.Normal = normalMat.TransformDirection(math.Vec3{X: n[0], Y: n[1], Z: n[2]}).Normalize()
		}
		if i < len(uvs) {
			v.UV = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		v.Position.Z = -v.Position.Z
		v.Normal.Z = -v.Normal.Z
		d.Vertices = append(d.Vertices, v)
	}
	for i := 0; i+2 < len(indices); i += 3 {
		d.Indices = append(d.Indices, base+indices[i], base+indices[i+2], base+indices[i+1])
	}
	if len(normals) == 0 {
		smoothNormals(d, base, firstIndex)
	}
	return nil
}
