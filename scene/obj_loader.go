package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ssao-renderer/core"
	"ssao-renderer/math"
)

// LoadOBJ reads a Wavefront OBJ file into a single left-handed mesh.
func LoadOBJ(path string) (core.MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.MeshData{}, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	d, err := ParseOBJ(f)
	if err != nil {
		return core.MeshData{}, fmt.Errorf("obj %q: %w", path, err)
	}
	return d, nil
}

type objRef struct{ v, vt, vn int }

// ParseOBJ reads OBJ text. Every group is merged into one mesh, polygons
// are fan-triangulated, and the right-handed file data is converted to the
// left-handed pipeline: Z is negated, V is flipped and the winding reversed.
func ParseOBJ(r io.Reader) (core.MeshData, error) {
	var (
		positions []math.Vec3
		normals   []math.Vec3
		uvs       []math.Vec2
		tris      [][3]objRef
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v", "vn":
			if len(fields) < 4 {
				return core.MeshData{}, fmt.Errorf("line %d: %s needs 3 components", line, fields[0])
			}
			v, err := parseFloats(fields[1:4])
			if err != nil {
				return core.MeshData{}, fmt.Errorf("line %d: %w", line, err)
			}
			p := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
			if fields[0] == "v" {
				positions = append(positions, p)
			} else {
				normals = append(normals, p)
			}

		case "vt":
			if len(fields) < 3 {
				return core.MeshData{}, fmt.Errorf("line %d: vt needs 2 components", line)
			}
			v, err := parseFloats(fields[1:3])
			if err != nil {
				return core.MeshData{}, fmt.Errorf("line %d: %w", line, err)
			}
			uvs = append(uvs, math.Vec2{X: v[0], Y: v[1]})

		case "f":
			if len(fields) < 4 {
				continue
			}
			refs := make([]objRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				refs = append(refs, parseFaceRef(tok, len(positions), len(uvs), len(normals)))
			}
			for i := 1; i+1 < len(refs); i++ {
				tris = append(tris, [3]objRef{refs[0], refs[i], refs[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return core.MeshData{}, fmt.Errorf("scan obj: %w", err)
	}
	if len(tris) == 0 {
		return core.MeshData{}, fmt.Errorf("no faces")
	}

	var d core.MeshData
	seen := make(map[objRef]uint32)
	vertex := func(ref objRef) uint32 {
		if idx, ok := seen[ref]; ok {
			return idx
		}
		var v core.Vertex
		if ref.v >= 0 && ref.v < len(positions) {
			v.Position = positions[ref.v]
		}
		if ref.vn >= 0 && ref.vn < len(normals) {
			v.Normal = normals[ref.vn]
		}
		if ref.vt >= 0 && ref.vt < len(uvs) {
			v.UV = uvs[ref.vt]
		}
		v.Position.Z = -v.Position.Z
		v.Normal.Z = -v.Normal.Z
		v.UV.Y = 1 - v.UV.Y

		idx := uint32(len(d.Vertices))
		d.Vertices = append(d.Vertices, v)
		seen[ref] = idx
		return idx
	}
	for _, t := range tris {
		// reversed to keep the front face after the Z flip
		d.Indices = append(d.Indices, vertex(t[0]), vertex(t[2]), vertex(t[1]))
	}

	if len(normals) == 0 {
		smoothNormals(&d, 0, 0)
	}
	return d, nil
}

func parseFloats(fields []string) ([]float32, error) {
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}

// parseFaceRef parses "v", "v/vt", "v//vn" or "v/vt/vn" into 0-based
// indices (-1 when absent). Negative OBJ indices count back from the end.
func parseFaceRef(tok string, nv, nvt, nvn int) objRef {
	idx := func(s string, n int) int {
		if s == "" {
			return -1
		}
		i, err := strconv.Atoi(s)
		switch {
		case err != nil:
			return -1
		case i > 0:
			return i - 1
		case i < 0:
			return n + i
		}
		return -1
	}
	parts := strings.Split(tok, "/")
	ref := objRef{v: -1, vt: -1, vn: -1}
	ref.v = idx(parts[0], nv)
	if len(parts) > 1 {
		ref.vt = idx(parts[1], nvt)
	}
	if len(parts) > 2 {
		ref.vn = idx(parts[2], nvn)
	}
	return ref
}

// smoothNormals writes area-weighted normals for the vertices from
// firstVertex on, using the triangles from firstIndex on.
func smoothNormals(d *core.MeshData, firstVertex uint32, firstIndex int) {
	acc := make([]math.Vec3, len(d.Vertices)-int(firstVertex))
	for i := firstIndex; i+2 < len(d.Indices); i += 3 {
		i0, i1, i2 := d.Indices[i], d.Indices[i+1], d.Indices[i+2]
		if i0 < firstVertex || i1 < firstVertex || i2 < firstVertex {
			continue
		}
		p0 := d.Vertices[i0].Position
		n := d.Vertices[i1].Position.Sub(p0).Cross(d.Vertices[i2].Position.Sub(p0))
		acc[i0-firstVertex] = acc[i0-firstVertex].Add(n)
		acc[i1-firstVertex] = acc[i1-firstVertex].Add(n)
		acc[i2-firstVertex] = acc[i2-firstVertex].Add(n)
	}
	for i, n := range acc {
		d.Vertices[int(firstVertex)+i].Normal = n.Normalize()
	}
}
