package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

const (
	// GlobeRadius is the radius of the base globe in scene units.
	GlobeRadius = 5.0

	// OverlayRadius sits slightly above the globe so border and fill meshes
	// do not z-fight with the globe surface.
	OverlayRadius = 5.02
)

// Project converts a latitude/longitude pair (degrees) to a point on a sphere
// of the given radius centered at the origin.
//
//	phi = (90 - lat) rad, theta = (lon + 180) rad
//	x = -r sin(phi) cos(theta), y = r cos(phi), z = r sin(phi) sin(theta)
func Project(lat, lon, radius float64) (r3.Vector, error) {
	phi := (90 - lat) * math.Pi / 180
	theta := (lon + 180) * math.Pi / 180

	v := r3.Vector{
		X: -radius * math.Sin(phi) * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
	if !finite(v.X) || !finite(v.Y) || !finite(v.Z) {
		return r3.Vector{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}

	return v, nil
}

// ProjectRing projects every point of a ring, dropping points that fail.
func ProjectRing(ring orb.Ring, radius float64) []r3.Vector {
	out := make([]r3.Vector, 0, len(ring))
	for _, pt := range ring {
		v, err := Project(pt.Lat(), pt.Lon(), radius)
		if err != nil {
			continue
		}
		out = append(out, v)
	}

	return out
}

// ToSurface rescales v to lie on a sphere of the given radius.
// The zero vector is returned unchanged.
func ToSurface(v r3.Vector, radius float64) r3.Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Mul(radius / n)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
