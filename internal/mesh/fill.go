package mesh

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/woozymasta/globle/internal/geo"
)

// MaxRefineDepth caps recursive refinement; every level multiplies the
// triangle count by four.
const MaxRefineDepth = 4

// BuildFill triangulates the interior of a ring as a fan around its centroid
// and refines the result depth times, splitting each triangle into four with
// midpoints pushed onto the sphere.
//
// This is not a constrained triangulation: concave or self-intersecting rings
// can produce overlapping triangles, and holes are not subtracted.
func BuildFill(ring []r3.Vector, radius float64, depth int) (*Mesh, error) {
	n := len(ring)
	if n < 3 {
		return nil, fmt.Errorf("%w: fill needs at least 3 points, got %d", geo.ErrEmptyRing, n)
	}

	var sum r3.Vector
	for _, p := range ring {
		sum = sum.Add(p)
	}
	center := sum.Mul(1 / float64(n))
	if center.Norm() < epsilon {
		return nil, fmt.Errorf("%w: ring centroid is at the sphere center", geo.ErrInvalidCoordinate)
	}

	m := &Mesh{
		Vertices: make([]r3.Vector, 0, n+1),
		Indices:  make([]uint32, 0, n*3),
	}
	m.Vertices = append(m.Vertices, geo.ToSurface(center, radius))
	for _, p := range ring {
		m.Vertices = append(m.Vertices, geo.ToSurface(p, radius))
	}

	for i := 0; i < n; i++ {
		m.Indices = append(m.Indices, 0, uint32(1+i), uint32(1+(i+1)%n))
	}

	if depth > MaxRefineDepth {
		depth = MaxRefineDepth
	}
	for d := 0; d < depth; d++ {
		m.refine(radius)
	}

	m.computeNormals()
	return m, nil
}

// refine splits every triangle into four. Midpoints are shared between
// neighbouring triangles so the mesh stays watertight.
func (m *Mesh) refine(radius float64) {
	midpoints := make(map[[2]uint32]uint32, len(m.Indices))
	midpoint := func(a, b uint32) uint32 {
		key := [2]uint32{min(a, b), max(a, b)}
		if idx, ok := midpoints[key]; ok {
			return idx
		}
		v := geo.ToSurface(m.Vertices[a].Add(m.Vertices[b]).Mul(0.5), radius)
		idx := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, v)
		midpoints[key] = idx
		return idx
	}

	out := make([]uint32, 0, len(m.Indices)*4)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
		out = append(out,
			a, ab, ca,
			ab, b, bc,
			ca, bc, c,
			ab, bc, ca,
		)
	}
	m.Indices = out
}
