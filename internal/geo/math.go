package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// MaxMercatorLat is the latitude where the square Mercator world ends.
const MaxMercatorLat = 85.05112878

// Viewport is the pixel size of the flat map.
type Viewport struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Project maps lon/lat (degrees) onto the viewport using an equirectangular
// x axis and a Mercator y axis centered on the viewport:
//
//	x = (lon + 180) * width / 360
//	y = height/2 - width * ln(tan(pi/4 + lat*pi/360)) / (2*pi)
//
// Latitude is clamped to MaxMercatorLat since the tangent diverges at the poles.
func (vp Viewport) Project(lon, lat float64) (r2.Point, error) {
	if !finite(lon) || !finite(lat) {
		return r2.Point{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, lat, lon)
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		return r2.Point{}, fmt.Errorf("%w: empty viewport %vx%v", ErrInvalidCoordinate, vp.Width, vp.Height)
	}

	lat = clampLat(lat)

	x := (lon + 180) * (vp.Width / 360)
	mercatorY := math.Log(math.Tan(math.Pi/4 + lat*math.Pi/360))
	y := vp.Height/2 - vp.Width*mercatorY/(2*math.Pi)

	return r2.Point{X: x, Y: y}, nil
}

// Unproject is the inverse of Project. It maps a viewport point back to
// lon/lat, clamping latitude to MaxMercatorLat.
func (vp Viewport) Unproject(p r2.Point) (lon, lat float64) {
	// x: [0..width] -> lon: [-180..180]
	lon = p.X*(360/vp.Width) - 180

	// y: distance from the center line in Mercator units
	mercatorY := (vp.Height/2 - p.Y) * (2 * math.Pi) / vp.Width

	latRad := (2.0 * math.Atan(math.Exp(mercatorY))) - (math.Pi * 0.5)
	lat = clampLat(latRad * (180.0 / math.Pi))

	return lon, lat
}

func clampLat(lat float64) float64 {
	if lat > MaxMercatorLat {
		return MaxMercatorLat
	} else if lat < -MaxMercatorLat {
		return -MaxMercatorLat
	}
	return lat
}
