package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"github.com/woozymasta/globle/internal/geo"
)

func projected(t *testing.T, ring orb.Ring) []r3.Vector {
	t.Helper()
	points := geo.ProjectRing(ring, geo.OverlayRadius)
	if len(points) != len(ring) {
		t.Fatalf("projection dropped points")
	}
	return points
}

func TestBuildBorder_TwoTrianglesPerEdge(t *testing.T) {
	ring := projected(t, orb.Ring{{0, 0}, {0, 2}, {2, 2}, {2, 0}})

	m, err := BuildBorder(ring, geo.OverlayRadius, 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Vertices) != 16 {
		t.Fatalf("expected 16 vertices, got %d", len(m.Vertices))
	}
	if m.TriangleCount() != 8 {
		t.Fatalf("expected 8 triangles, got %d", m.TriangleCount())
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("invalid mesh: %v", err)
	}

	for i, v := range m.Vertices {
		if math.Abs(v.Norm()-geo.OverlayRadius) > 1e-9 {
			t.Fatalf("vertex %d off the sphere: %v", i, v.Norm())
		}
		if m.Normals[i].Sub(v.Normalize()).Norm() > 1e-12 {
			t.Fatalf("normal %d is not radial", i)
		}
	}
}

func TestBuildBorder_Width(t *testing.T) {
	ring := projected(t, orb.Ring{{0, 0}, {0, 1}, {1, 1}})
	const width = 0.1

	m, err := BuildBorder(ring, geo.OverlayRadius, width)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// v1 and v2 straddle p1; their chord is close to the requested width
	d := m.Vertices[0].Sub(m.Vertices[1]).Norm()
	if math.Abs(d-width) > width*0.01 {
		t.Fatalf("expected ribbon width ≈%v, got %v", width, d)
	}
}

func TestBuildBorder_SkipsDegenerateEdges(t *testing.T) {
	ring := projected(t, orb.Ring{{0, 0}, {0, 0}, {0, 2}, {2, 2}})

	m, err := BuildBorder(ring, geo.OverlayRadius, 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TriangleCount() != 6 {
		t.Fatalf("expected 3 edges (6 triangles), got %d", m.TriangleCount())
	}
	for _, v := range m.Vertices {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) {
			t.Fatalf("NaN vertex %v", v)
		}
	}
}

func TestBuildBorder_Empty(t *testing.T) {
	if _, err := BuildBorder(nil, geo.OverlayRadius, 0.04); !errors.Is(err, geo.ErrEmptyRing) {
		t.Fatalf("expected ErrEmptyRing, got %v", err)
	}

	p, _ := geo.Project(10, 10, geo.OverlayRadius)
	if _, err := BuildBorder([]r3.Vector{p, p, p}, geo.OverlayRadius, 0.04); !errors.Is(err, geo.ErrEmptyRing) {
		t.Fatalf("expected ErrEmptyRing for coincident points, got %v", err)
	}
}
