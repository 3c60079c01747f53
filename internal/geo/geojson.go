// Package geo handles country geometry decoding, projections and distances.
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// Collection is a decoded country document.
type Collection struct {
	Type     string
	Features []Feature

	// Skipped lists the features dropped because they could not be decoded.
	Skipped []SkippedFeature
}

// SkippedFeature records a feature that was dropped during decoding.
type SkippedFeature struct {
	Err   error
	Index int
}

// Feature is a single country with its geometry.
// Geometry is always either orb.Polygon or orb.MultiPolygon.
type Feature struct {
	Geometry     orb.Geometry
	Properties   Properties
	Type         string
	GeometryType string // declared "type" tag, informational only
}

// Properties holds the known feature properties. Every field is optional.
type Properties struct {
	Name         *string  `json:"name,omitempty" yaml:"name,omitempty"`
	FeatureClass *string  `json:"featurecla,omitempty" yaml:"featurecla,omitempty"`
	Sovereignty  *string  `json:"sovereignt,omitempty" yaml:"sovereignt,omitempty"`
	ScaleRank    *float64 `json:"scalerank,omitempty" yaml:"scalerank,omitempty"`
	LabelRank    *float64 `json:"labelrank,omitempty" yaml:"labelrank,omitempty"`
}

// Name returns the trimmed feature name, or an empty string when absent.
func (f Feature) Name() string {
	if f.Properties.Name == nil {
		return ""
	}
	return strings.TrimSpace(*f.Properties.Name)
}

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

type rawFeature struct {
	Geometry   *rawGeometry `json:"geometry"`
	Type       string       `json:"type"`
	Properties Properties   `json:"properties"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// LoadFile reads and decodes a country document from disk.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentLoad, err)
	}

	return Decode(data)
}

// Decode parses a GeoJSON-shaped document.
//
// The top level must be an object with a features array, otherwise the whole
// load fails with ErrDocumentLoad. Features are decoded one by one and a
// feature that fails is recorded in Skipped instead of aborting the load.
func Decode(data []byte) (*Collection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentLoad, err)
	}
	if raw.Features == nil {
		return nil, fmt.Errorf("%w: features array not found", ErrDocumentLoad)
	}

	col := &Collection{
		Type:     raw.Type,
		Features: make([]Feature, 0, len(raw.Features)),
	}

	for i, msg := range raw.Features {
		f, err := decodeFeature(msg)
		if err != nil {
			log.Warn().
				Err(err).
				Int("index", i).
				Msg("Skipping feature with invalid data")

			col.Skipped = append(col.Skipped, SkippedFeature{Index: i, Err: err})
			continue
		}

		col.Features = append(col.Features, f)
	}

	return col, nil
}

func decodeFeature(msg json.RawMessage) (Feature, error) {
	var rf rawFeature
	if err := json.Unmarshal(msg, &rf); err != nil {
		return Feature{}, fmt.Errorf("decode feature: %w", err)
	}
	if rf.Geometry == nil {
		return Feature{}, fmt.Errorf("%w: geometry is missing", ErrMalformedGeometry)
	}

	g, err := DecodeGeometry(rf.Geometry.Coordinates)
	if err != nil {
		return Feature{}, err
	}

	f := Feature{
		Type:         rf.Type,
		Properties:   rf.Properties,
		Geometry:     g,
		GeometryType: rf.Geometry.Type,
	}

	if rf.Geometry.Type != "" && rf.Geometry.Type != g.GeoJSONType() {
		log.Debug().
			Str("name", f.Name()).
			Str("declared", rf.Geometry.Type).
			Str("decoded", g.GeoJSONType()).
			Msg("Geometry type tag does not match coordinates shape")
	}

	return f, nil
}

// DecodeGeometry decodes a coordinates payload by shape: first as a polygon
// (three levels of arrays), then as a multi-polygon (four levels).
// The returned geometry is orb.Polygon or orb.MultiPolygon.
func DecodeGeometry(coordinates []byte) (orb.Geometry, error) {
	trimmed := bytes.TrimSpace(coordinates)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: coordinates are empty", ErrMalformedGeometry)
	}

	var polygon [][][]float64
	if err := json.Unmarshal(trimmed, &polygon); err == nil {
		return toPolygon(polygon), nil
	}

	var multi [][][][]float64
	if err := json.Unmarshal(trimmed, &multi); err == nil {
		mp := make(orb.MultiPolygon, 0, len(multi))
		for _, p := range multi {
			mp = append(mp, toPolygon(p))
		}
		return mp, nil
	}

	return nil, fmt.Errorf("%w: coordinates are neither polygon nor multi-polygon", ErrMalformedGeometry)
}

// toPolygon converts raw rings, dropping positions with less than two values.
func toPolygon(rings [][][]float64) orb.Polygon {
	poly := make(orb.Polygon, 0, len(rings))
	for _, ring := range rings {
		r := make(orb.Ring, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				continue
			}
			r = append(r, orb.Point{pos[0], pos[1]})
		}
		poly = append(poly, r)
	}

	return poly
}

// Polygons returns the polygons of a feature geometry.
func Polygons(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return v
	default:
		return nil
	}
}
