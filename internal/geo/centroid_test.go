package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestCentroid_Square(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {0, 2}, {2, 2}, {2, 0}}}

	c, ok := Centroid(poly)
	if !ok {
		t.Fatalf("expected centroid")
	}
	if c != (orb.Point{1, 1}) {
		t.Fatalf("expected (1,1), got %v", c)
	}
}

func TestCentroid_IgnoresHoles(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
		{{50, 50}, {50, 51}, {51, 51}},
	}

	c, _ := Centroid(poly)
	if c != (orb.Point{1, 1}) {
		t.Fatalf("holes must not move the centroid, got %v", c)
	}
}

func TestCentroid_MultiPolygonAveragesParts(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{0, 0}, {0, 2}, {2, 2}, {2, 0}}},
		// many points, same weight as the square above
		{{{10, 0}, {10, 1}, {10, 2}, {11, 2}, {12, 2}, {12, 1}, {12, 0}, {11, 0}}},
		{},
		{{}},
	}

	c, ok := Centroid(mp)
	if !ok {
		t.Fatalf("expected centroid")
	}
	if c != (orb.Point{6, 1}) {
		t.Fatalf("expected (6,1), got %v", c)
	}
}

func TestCentroid_Empty(t *testing.T) {
	for name, g := range map[string]orb.Geometry{
		"polygon":       orb.Polygon{},
		"empty ring":    orb.Polygon{{}},
		"multi-polygon": orb.MultiPolygon{{}, {{}}},
		"nil":           nil,
		"point":         orb.Point{1, 2},
	} {
		if _, ok := Centroid(g); ok {
			t.Errorf("%s: expected no centroid", name)
		}
	}
}

func TestSphereCentroid(t *testing.T) {
	mp := orb.MultiPolygon{
		{{{0, 0}, {0, 2}, {2, 2}, {2, 0}}},
		{{{10, 0}, {10, 2}, {12, 2}, {12, 0}}},
	}

	got, err := SphereCentroid(mp, GlobeRadius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, _ := Project(1, 6, GlobeRadius)
	if got.Sub(want).Norm() > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := SphereCentroid(orb.Polygon{}, GlobeRadius); !errors.Is(err, ErrEmptyRing) {
		t.Fatalf("expected ErrEmptyRing, got %v", err)
	}
}

func TestBound(t *testing.T) {
	b := Bound(orb.Polygon{{{-5, 1}, {3, 1}, {3, 7}}})
	if b.Min != (orb.Point{-5, 1}) || b.Max != (orb.Point{3, 7}) {
		t.Fatalf("unexpected bound %v", b)
	}
	if math.IsNaN(Bound(nil).Min[0]) {
		t.Fatalf("nil geometry bound must be zero")
	}
}
