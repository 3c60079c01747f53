package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/paulmach/orb"
)

func squareRing(t *testing.T, size float64) []r3.Vector {
	t.Helper()
	ring := ProjectRing(orb.Ring{{0, 0}, {0, size}, {size, size}, {size, 0}}, OverlayRadius)
	if len(ring) != 4 {
		t.Fatalf("projection dropped points")
	}
	return ring
}

func TestSubdivide_InsertsPointsOnLongEdges(t *testing.T) {
	s := DefaultSubdivider()
	in := squareRing(t, 10)

	out := s.Subdivide(in)
	if len(out) <= len(in) {
		t.Fatalf("expected inserted points, got %d from %d", len(out), len(in))
	}

	// original points are kept in order
	if out[0] != in[0] {
		t.Fatalf("first point changed")
	}

	for i, p := range out {
		if math.Abs(p.Norm()-OverlayRadius) > 1e-9 {
			t.Fatalf("point %d off the sphere: %v", i, p.Norm())
		}
		next := out[(i+1)%len(out)]
		if a := ArcAngle(p, next); a > s.Threshold {
			t.Fatalf("edge %d still spans %v", i, a.Degrees())
		}
	}
}

func TestSubdivide_Idempotent(t *testing.T) {
	s := DefaultSubdivider()

	once := s.Subdivide(squareRing(t, 15))
	twice := s.Subdivide(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass inserted %d points", len(twice)-len(once))
	}
}

func TestSubdivide_ShortEdgesUntouched(t *testing.T) {
	s := DefaultSubdivider()
	in := squareRing(t, 0.5)

	if out := s.Subdivide(in); len(out) != len(in) {
		t.Fatalf("expected %d points, got %d", len(in), len(out))
	}
}

func TestSubdivide_SegmentCountScalesWithAngle(t *testing.T) {
	s := &Subdivider{Threshold: 1 * s1.Degree, Step: 1 * s1.Degree, MaxSegments: 100}
	a, _ := Project(0, 0, 1)
	b, _ := Project(0, 9.5, 1)

	out := s.Subdivide([]r3.Vector{a, b})
	// 10 segments a->b (9 inserted) and 10 back
	if len(out) != 2+9+9 {
		t.Fatalf("expected 20 points, got %d", len(out))
	}
}

func TestSubdivide_MaxSegments(t *testing.T) {
	s := &Subdivider{Threshold: 0.1 * s1.Degree, Step: 0.1 * s1.Degree, MaxSegments: 4}
	a, _ := Project(0, 0, 1)
	b, _ := Project(0, 40, 1)

	if out := s.Subdivide([]r3.Vector{a, b}); len(out) != 2+3+3 {
		t.Fatalf("expected 8 points, got %d", len(out))
	}
}

func TestSubdivide_Degenerate(t *testing.T) {
	var s *Subdivider
	one := []r3.Vector{{X: 1}}
	if out := s.Subdivide(one); len(out) != 1 {
		t.Fatalf("nil subdivider must copy input")
	}
	if out := DefaultSubdivider().Subdivide(nil); len(out) != 0 {
		t.Fatalf("expected empty output")
	}

	withZero := []r3.Vector{{}, {X: 5}, {Y: 5}}
	if out := DefaultSubdivider().Subdivide(withZero); len(out) < 3 {
		t.Fatalf("zero vector must not break subdivision")
	}
}

func TestArcAngle_Clamped(t *testing.T) {
	v := r3.Vector{X: 1e-300, Y: 1, Z: 0}
	if a := ArcAngle(v, v); math.IsNaN(float64(a)) {
		t.Fatalf("angle must not be NaN")
	}
	if a := ArcAngle(r3.Vector{X: 1}, r3.Vector{X: -1}); math.Abs(a.Radians()-math.Pi) > 1e-12 {
		t.Fatalf("expected pi, got %v", a)
	}
}
