package mesh

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/woozymasta/globle/internal/geo"
)

// BuildBorder builds a ribbon of the given width along a closed ring of
// points on the sphere. Every edge becomes a quad of two triangles whose
// corners are offset by width/2 to each side of the edge and projected back
// onto the sphere of the given radius. Degenerate edges are skipped.
func BuildBorder(ring []r3.Vector, radius, width float64) (*Mesh, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: border needs at least 3 points, got %d", geo.ErrEmptyRing, len(ring))
	}

	half := width / 2
	m := &Mesh{
		Vertices: make([]r3.Vector, 0, len(ring)*4),
		Indices:  make([]uint32, 0, len(ring)*6),
	}

	for i, p1 := range ring {
		p2 := ring[(i+1)%len(ring)]

		direction := p2.Sub(p1)
		if direction.Norm() < epsilon {
			continue
		}

		up := p1.Normalize()
		right := direction.Cross(up)
		if right.Norm() < epsilon {
			continue
		}
		offset := right.Normalize().Mul(half)

		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			geo.ToSurface(p1.Add(offset), radius),
			geo.ToSurface(p1.Sub(offset), radius),
			geo.ToSurface(p2.Add(offset), radius),
			geo.ToSurface(p2.Sub(offset), radius),
		)
		m.Indices = append(m.Indices,
			base, base+1, base+2,
			base+1, base+3, base+2,
		)
	}

	if len(m.Indices) == 0 {
		return nil, fmt.Errorf("%w: ring has no usable edges", geo.ErrEmptyRing)
	}

	m.computeNormals()
	return m, nil
}
