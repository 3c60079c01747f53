package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius used for distance feedback.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between two points in kilometres.
// It returns 0 instead of NaN on degenerate input.
func Haversine(a, b orb.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lon1 := a.Lon() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	lon2 := b.Lon() * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Max(0, math.Min(1, h))

	d := EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	if math.IsNaN(d) {
		return 0
	}

	return d
}
