package geo

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

// Centroid returns an approximate center of a country geometry.
//
// For a polygon it is the mean of the points of the first ring, other rings
// are ignored. For a multi-polygon it is the mean of the part centroids, so
// it is not area weighted. The second value is false when there are no
// points to average.
func Centroid(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return polygonCentroid(v)
	case orb.MultiPolygon:
		var sumLon, sumLat float64
		count := 0
		for _, p := range v {
			c, ok := polygonCentroid(p)
			if !ok {
				continue
			}
			sumLon += c.Lon()
			sumLat += c.Lat()
			count++
		}
		if count == 0 {
			return orb.Point{}, false
		}
		return orb.Point{sumLon / float64(count), sumLat / float64(count)}, true
	default:
		return orb.Point{}, false
	}
}

func polygonCentroid(p orb.Polygon) (orb.Point, bool) {
	if len(p) == 0 || len(p[0]) == 0 {
		return orb.Point{}, false
	}

	var sumLon, sumLat float64
	for _, pt := range p[0] {
		sumLon += pt.Lon()
		sumLat += pt.Lat()
	}
	n := float64(len(p[0]))

	return orb.Point{sumLon / n, sumLat / n}, true
}

// SphereCentroid averages every point of every ring and projects the mean
// onto a sphere of the given radius. The globe uses it to place the country
// marker and to aim the camera.
func SphereCentroid(g orb.Geometry, radius float64) (r3.Vector, error) {
	var sumLon, sumLat float64
	count := 0
	for _, p := range Polygons(g) {
		for _, ring := range p {
			for _, pt := range ring {
				sumLon += pt.Lon()
				sumLat += pt.Lat()
				count++
			}
		}
	}
	if count == 0 {
		return r3.Vector{}, fmt.Errorf("%w: geometry has no points", ErrEmptyRing)
	}

	return Project(sumLat/float64(count), sumLon/float64(count), radius)
}

// Bound returns the lon/lat bounding box of a geometry.
func Bound(g orb.Geometry) orb.Bound {
	if g == nil {
		return orb.Bound{}
	}
	return g.Bound()
}
