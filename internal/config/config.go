// Package config handles configuration loading and default values.
package config

import (
	"os"

	"github.com/golang/geo/s1"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/globle/internal/geo"
	"github.com/woozymasta/globle/internal/mesh"
)

// Config represents the root configuration file structure.
type Config struct {
	Data        string      `yaml:"data" json:"data"`
	Globe       Globe       `yaml:"globe" json:"globe"`
	Subdivision Subdivision `yaml:"subdivision" json:"subdivision"`
	Flat        Flat        `yaml:"flat" json:"flat"`
}

// Globe holds the 3D overlay settings.
type Globe struct {
	Radius      float64 `yaml:"radius,omitempty" json:"radius"`
	BorderWidth float64 `yaml:"border_width,omitempty" json:"border_width"`
	RefineDepth *int    `yaml:"refine_depth,omitempty" json:"refine_depth"`
}

// Subdivision holds the great-circle subdivision constants in degrees.
type Subdivision struct {
	Disabled     bool    `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	ThresholdDeg float64 `yaml:"threshold_deg,omitempty" json:"threshold_deg"`
	StepDeg      float64 `yaml:"step_deg,omitempty" json:"step_deg"`
	MaxSegments  int     `yaml:"max_segments,omitempty" json:"max_segments"`
}

// Flat holds the flat map rendering settings.
type Flat struct {
	Width       int `yaml:"width,omitempty" json:"width"`
	Height      int `yaml:"height,omitempty" json:"height"`
	WebPQuality int `yaml:"webp_quality,omitempty" json:"webp_quality"`
	TileSize    int `yaml:"tile_size,omitempty" json:"tile_size"`
	ZoomLimit   *int `yaml:"zoom_limit,omitempty" json:"zoom_limit"`
}

// DefaultZoomLimit is the deepest tile zoom level served when unset.
const DefaultZoomLimit = 6

// Zoom returns the tile zoom limit, DefaultZoomLimit when unset.
func (f Flat) Zoom() int {
	if f.ZoomLimit == nil {
		return DefaultZoomLimit
	}
	return *f.ZoomLimit
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing values are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Data == "" {
		c.Data = "geo.geojson"
	}

	if c.Globe.Radius <= 0 {
		c.Globe.Radius = geo.OverlayRadius
	}
	if c.Globe.BorderWidth <= 0 {
		c.Globe.BorderWidth = mesh.DefaultBorderWidth
	}
	if c.Globe.RefineDepth == nil {
		depth := mesh.DefaultRefineDepth
		c.Globe.RefineDepth = &depth
	}

	if c.Subdivision.ThresholdDeg <= 0 {
		c.Subdivision.ThresholdDeg = geo.DefaultSubdivideThreshold.Degrees()
	}
	if c.Subdivision.StepDeg <= 0 {
		c.Subdivision.StepDeg = geo.DefaultSubdivideStep.Degrees()
	}
	if c.Subdivision.MaxSegments <= 0 {
		c.Subdivision.MaxSegments = geo.DefaultMaxSegments
	}

	if c.Flat.Width <= 0 {
		c.Flat.Width = 1024
	}
	if c.Flat.Height <= 0 {
		c.Flat.Height = c.Flat.Width
	}
	if c.Flat.WebPQuality <= 0 || c.Flat.WebPQuality > 100 {
		c.Flat.WebPQuality = 85
	}
	if c.Flat.TileSize <= 0 {
		c.Flat.TileSize = 256
	}
	if c.Flat.ZoomLimit == nil || *c.Flat.ZoomLimit < 0 {
		zoom := DefaultZoomLimit
		c.Flat.ZoomLimit = &zoom
	}
}

// RenderTarget builds the mesh target described by the configuration.
func (c *Config) RenderTarget() mesh.RenderTarget {
	t := mesh.RenderTarget{
		Radius:      c.Globe.Radius,
		BorderWidth: c.Globe.BorderWidth,
	}
	if c.Globe.RefineDepth != nil {
		t.RefineDepth = *c.Globe.RefineDepth
	}
	if !c.Subdivision.Disabled {
		t.Subdivider = &geo.Subdivider{
			Threshold:   s1.Angle(c.Subdivision.ThresholdDeg) * s1.Degree,
			Step:        s1.Angle(c.Subdivision.StepDeg) * s1.Degree,
			MaxSegments: c.Subdivision.MaxSegments,
		}
	}
	return t
}

// Viewport returns the flat map viewport.
func (c *Config) Viewport() geo.Viewport {
	return geo.Viewport{Width: float64(c.Flat.Width), Height: float64(c.Flat.Height)}
}
