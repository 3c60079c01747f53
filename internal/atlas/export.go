package atlas

import (
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/globle/internal/geo"
)

// CentroidCollection exports the centroid of every feature as a point
// feature. Features without a centroid are left out. The sphere centroid at
// radius is added as the "sphere" property when it can be computed.
func (a *Atlas) CentroidCollection(radius float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, f := range a.features {
		c, ok := f.Centroid()
		if !ok {
			continue
		}

		feature := geojson.NewFeature(c)
		feature.ID = f.ID
		feature.Properties["id"] = f.ID
		if n := Normalize(f.Name()); n != "" {
			feature.Properties["name"] = n
		}
		if v, err := geo.SphereCentroid(f.Geometry, radius); err == nil {
			feature.Properties["sphere"] = []float64{v.X, v.Y, v.Z}
		}

		fc.Append(feature)
	}

	return fc
}
