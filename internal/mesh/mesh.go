// Package mesh builds triangle meshes for country borders and fills on the globe.
package mesh

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"
)

// epsilon below which a vector is treated as zero length.
const epsilon = 1e-12

// Mesh is an indexed triangle list. Indices holds one triple per triangle,
// all with the same winding. Normals is either empty or parallel to Vertices.
type Mesh struct {
	Vertices []r3.Vector
	Normals  []r3.Vector
	Indices  []uint32
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) [3]uint32 {
	return [3]uint32{m.Indices[3*i], m.Indices[3*i+1], m.Indices[3*i+2]}
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Indices) == 0
}

// Validate checks index bounds and buffer lengths.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(m.Indices))
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Vertices) {
		return fmt.Errorf("normal count %d does not match vertex count %d", len(m.Normals), len(m.Vertices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("index %d at %d out of range (%d vertices)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// computeNormals sets every normal to the normalized vertex position, which
// is the surface normal of a sphere centered at the origin.
func (m *Mesh) computeNormals() {
	m.Normals = make([]r3.Vector, len(m.Vertices))
	for i, v := range m.Vertices {
		m.Normals[i] = v.Normalize()
	}
}

// Merge concatenates meshes into a new one, rebasing indices.
// Nil meshes are ignored.
func Merge(meshes ...*Mesh) *Mesh {
	var nv, ni int
	for _, m := range meshes {
		if m == nil {
			continue
		}
		nv += len(m.Vertices)
		ni += len(m.Indices)
	}

	out := &Mesh{
		Vertices: make([]r3.Vector, 0, nv),
		Normals:  make([]r3.Vector, 0, nv),
		Indices:  make([]uint32, 0, ni),
	}
	for _, m := range meshes {
		if m == nil {
			continue
		}
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, m.Vertices...)
		if len(m.Normals) == len(m.Vertices) {
			out.Normals = append(out.Normals, m.Normals...)
		} else {
			for _, v := range m.Vertices {
				out.Normals = append(out.Normals, v.Normalize())
			}
		}
		for _, idx := range m.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}

	return out
}

type meshJSON struct {
	Vertices  []float64 `json:"vertices"`
	Normals   []float64 `json:"normals,omitempty"`
	Indices   []uint32  `json:"indices"`
	Triangles int       `json:"triangles"`
}

// MarshalJSON encodes the mesh as flat xyz buffers, the layout GPU vertex
// buffers expect.
func (m *Mesh) MarshalJSON() ([]byte, error) {
	out := meshJSON{
		Vertices:  flatten(m.Vertices),
		Normals:   flatten(m.Normals),
		Indices:   m.Indices,
		Triangles: m.TriangleCount(),
	}
	if out.Indices == nil {
		out.Indices = []uint32{}
	}
	return json.Marshal(out)
}

func flatten(vs []r3.Vector) []float64 {
	out := make([]float64, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v.X, v.Y, v.Z)
	}
	return out
}
