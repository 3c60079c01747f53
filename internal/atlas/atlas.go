// Package atlas indexes the loaded countries and serves their derived geometry.
package atlas

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/woozymasta/globle/internal/geo"
	"github.com/woozymasta/globle/internal/mesh"
	"github.com/woozymasta/globle/internal/metrics"
)

var (
	// ErrNotFound is returned when no feature matches a name or id.
	ErrNotFound = errors.New("feature not found")

	// ErrNoFeatures is returned when the atlas has no named features.
	ErrNoFeatures = errors.New("no named features loaded")
)

// Feature is a loaded country with its stable identifier.
type Feature struct {
	geo.Feature

	// ID is the normalized name, or "feature-<index>" for features without
	// a usable or unique name.
	ID    string
	Index int

	centroid    orb.Point
	hasCentroid bool
}

// Centroid returns the geographic centroid of the feature.
func (f *Feature) Centroid() (orb.Point, bool) {
	return f.centroid, f.hasCentroid
}

// Atlas is an immutable, name-indexed collection of countries. Derived
// meshes are memoized, so an Atlas is safe for concurrent use.
type Atlas struct {
	byID     map[string]*Feature
	meshes   map[meshKey]*mesh.Mesh
	features []*Feature
	names    []string
	skipped  []geo.SkippedFeature
	mu       sync.Mutex

	cacheLimit int
}

// Load reads a country document and builds an atlas from it.
func Load(path string) (*Atlas, error) {
	col, err := geo.LoadFile(path)
	if err != nil {
		return nil, err
	}

	a := New(col)
	log.Info().
		Str("path", path).
		Int("features", len(a.features)).
		Int("named", len(a.names)).
		Int("skipped", len(a.skipped)).
		Msg("Countries loaded")

	return a, nil
}

// New indexes a decoded collection.
func New(col *geo.Collection) *Atlas {
	a := &Atlas{
		byID:     make(map[string]*Feature, len(col.Features)),
		meshes:   make(map[meshKey]*mesh.Mesh),
		features: make([]*Feature, 0, len(col.Features)),
		skipped:  col.Skipped,

		cacheLimit: DefaultMeshCacheLimit,
	}

	for i, gf := range col.Features {
		f := &Feature{Feature: gf, Index: i}
		f.centroid, f.hasCentroid = geo.Centroid(gf.Geometry)

		id := Normalize(gf.Name())
		switch {
		case id == "":
			log.Debug().
				Int("index", i).
				Err(geo.ErrMissingName).
				Msg("Feature excluded from name lookup")
			id = indexID(i)
		case a.byID[id] != nil:
			log.Warn().
				Int("index", i).
				Str("name", gf.Name()).
				Msg("Duplicate country name, keeping the first one for lookup")
			id = indexID(i)
		default:
			a.names = append(a.names, id)
		}

		f.ID = id
		a.byID[id] = f
		a.features = append(a.features, f)
	}

	sort.Strings(a.names)

	metrics.FeaturesLoaded.Set(float64(len(a.features)))
	metrics.FeaturesSkipped.Set(float64(len(a.skipped)))

	return a
}

func indexID(i int) string {
	return fmt.Sprintf("feature-%d", i)
}

// Normalize trims a country name and capitalizes every word, the form names
// are matched in.
func Normalize(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	// a Caser keeps state and must not be shared between goroutines
	return cases.Title(language.Und).String(name)
}

// Features returns every loaded feature in document order.
func (a *Atlas) Features() []*Feature {
	return a.features
}

// Names returns the sorted normalized names of all named features.
func (a *Atlas) Names() []string {
	return a.names
}

// Skipped returns the features dropped while decoding the document.
func (a *Atlas) Skipped() []geo.SkippedFeature {
	return a.skipped
}

// Len returns the number of loaded features.
func (a *Atlas) Len() int {
	return len(a.features)
}

// Get returns a feature by id.
func (a *Atlas) Get(id string) (*Feature, error) {
	if f, ok := a.byID[id]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Lookup returns the named feature matching name after normalization.
// Features without a name are never returned.
func (a *Atlas) Lookup(name string) (*Feature, error) {
	id := Normalize(name)
	if id == "" {
		return nil, geo.ErrMissingName
	}
	f, ok := a.byID[id]
	if !ok || f.Name() == "" {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return f, nil
}

// PickRandomFeature returns a random named feature. A nil source uses the
// global generator.
func (a *Atlas) PickRandomFeature(r *rand.Rand) (*Feature, error) {
	if len(a.names) == 0 {
		return nil, ErrNoFeatures
	}

	var i int
	if r == nil {
		i = rand.IntN(len(a.names))
	} else {
		i = r.IntN(len(a.names))
	}

	return a.byID[a.names[i]], nil
}

// DistanceBetween returns the haversine distance in kilometres between the
// centroids of two named features. It is false when either name is unknown
// or has no centroid.
func (a *Atlas) DistanceBetween(nameA, nameB string) (float64, bool) {
	fa, err := a.Lookup(nameA)
	if err != nil {
		return 0, false
	}
	fb, err := a.Lookup(nameB)
	if err != nil {
		return 0, false
	}

	ca, okA := fa.Centroid()
	cb, okB := fb.Centroid()
	if !okA || !okB {
		return 0, false
	}

	return geo.Haversine(ca, cb), true
}

// Centroid returns the centroid of a feature by id.
func (a *Atlas) Centroid(id string) (orb.Point, bool) {
	f, ok := a.byID[id]
	if !ok {
		return orb.Point{}, false
	}
	return f.Centroid()
}

// FeatureAt returns the first feature whose polygons contain the point.
// Containment is planar in lon/lat, which matches the flat map.
func (a *Atlas) FeatureAt(lon, lat float64) (*Feature, bool) {
	pt := orb.Point{lon, lat}
	for _, f := range a.features {
		if !f.Geometry.Bound().Contains(pt) {
			continue
		}
		for _, poly := range geo.Polygons(f.Geometry) {
			if len(poly) > 0 && planar.PolygonContains(poly, pt) {
				return f, true
			}
		}
	}
	return nil, false
}
