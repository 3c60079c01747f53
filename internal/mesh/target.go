package mesh

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"github.com/woozymasta/globle/internal/geo"
)

// Default render settings.
const (
	DefaultBorderWidth = 0.04
	DefaultRefineDepth = 2
)

// RenderTarget carries the settings a mesh is built for. It replaces any
// handle to a scene graph: callers pass it explicitly and attach the result
// to their own scene.
type RenderTarget struct {
	// Subdivider is applied to every projected ring. Nil disables subdivision.
	Subdivider  *geo.Subdivider
	Radius      float64
	BorderWidth float64
	RefineDepth int
}

// DefaultTarget returns the overlay settings used by the globe view.
func DefaultTarget() RenderTarget {
	return RenderTarget{
		Radius:      geo.OverlayRadius,
		BorderWidth: DefaultBorderWidth,
		RefineDepth: DefaultRefineDepth,
		Subdivider:  geo.DefaultSubdivider(),
	}
}

// Border builds the border ribbons of every ring of every polygon and merges
// them into one mesh. Rings that cannot be meshed are skipped and reported.
func Border(g orb.Geometry, t RenderTarget) (*Mesh, []error) {
	var parts []*Mesh
	var errs []error

	for pi, poly := range geo.Polygons(g) {
		for ri, ring := range poly {
			points, err := t.prepare(ring)
			if err != nil {
				errs = append(errs, fmt.Errorf("polygon %d ring %d: %w", pi, ri, err))
				continue
			}
			m, err := BuildBorder(points, t.Radius, t.BorderWidth)
			if err != nil {
				errs = append(errs, fmt.Errorf("polygon %d ring %d: %w", pi, ri, err))
				continue
			}
			parts = append(parts, m)
		}
	}

	return Merge(parts...), errs
}

// Fill builds the fill of the outer ring of every polygon and merges them
// into one mesh. Holes are not subtracted.
func Fill(g orb.Geometry, t RenderTarget) (*Mesh, []error) {
	var parts []*Mesh
	var errs []error

	for pi, poly := range geo.Polygons(g) {
		if len(poly) == 0 {
			errs = append(errs, fmt.Errorf("polygon %d: %w", pi, geo.ErrEmptyRing))
			continue
		}
		points, err := t.prepare(poly[0])
		if err != nil {
			errs = append(errs, fmt.Errorf("polygon %d: %w", pi, err))
			continue
		}
		m, err := BuildFill(points, t.Radius, t.RefineDepth)
		if err != nil {
			errs = append(errs, fmt.Errorf("polygon %d: %w", pi, err))
			continue
		}
		parts = append(parts, m)
	}

	return Merge(parts...), errs
}

// prepare projects a ring onto the target sphere and subdivides it. Rings
// with less than three distinct projectable points fail with ErrEmptyRing
// before subdivision can pad them.
func (t RenderTarget) prepare(ring orb.Ring) ([]r3.Vector, error) {
	points := geo.ProjectRing(distinct(ring), t.Radius)
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: ring needs at least 3 distinct points, got %d", geo.ErrEmptyRing, len(points))
	}
	if t.Subdivider != nil {
		points = t.Subdivider.Subdivide(points)
	}
	return points, nil
}

// distinct drops consecutive duplicate points and the closing point that
// GeoJSON rings repeat at the end.
func distinct(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1].Equal(p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1].Equal(out[0]) {
		out = out[:len(out)-1]
	}
	return out
}
