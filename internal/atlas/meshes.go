package atlas

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s1"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/globle/internal/geo"
	"github.com/woozymasta/globle/internal/mesh"
	"github.com/woozymasta/globle/internal/metrics"
)

const (
	kindBorder = "border"
	kindFill   = "fill"
)

// DefaultMeshCacheLimit is the number of meshes an atlas keeps. Once full,
// meshes for new targets are built on every call and not stored.
const DefaultMeshCacheLimit = 4096

type meshKey struct {
	id          string
	kind        string
	radius      float64
	width       float64
	depth       int
	threshold   s1.Angle
	step        s1.Angle
	maxSegments int
}

func newMeshKey(id, kind string, t mesh.RenderTarget) meshKey {
	k := meshKey{id: id, kind: kind, radius: t.Radius}
	switch kind {
	case kindBorder:
		k.width = t.BorderWidth
	case kindFill:
		k.depth = t.RefineDepth
	}
	if t.Subdivider != nil {
		k.threshold = t.Subdivider.Threshold
		k.step = t.Subdivider.Step
		k.maxSegments = t.Subdivider.MaxSegments
	}
	return k
}

// Border returns the border mesh of a feature for the given target.
func (a *Atlas) Border(id string, t mesh.RenderTarget) (*mesh.Mesh, error) {
	return a.cachedMesh(id, kindBorder, t)
}

// Fill returns the fill mesh of a feature for the given target.
func (a *Atlas) Fill(id string, t mesh.RenderTarget) (*mesh.Mesh, error) {
	return a.cachedMesh(id, kindFill, t)
}

func (a *Atlas) cachedMesh(id, kind string, t mesh.RenderTarget) (*mesh.Mesh, error) {
	f, err := a.Get(id)
	if err != nil {
		return nil, err
	}
	if err := checkTarget(kind, t); err != nil {
		return nil, err
	}

	key := newMeshKey(id, kind, t)

	a.mu.Lock()
	cached, ok := a.meshes[key]
	a.mu.Unlock()
	if ok {
		metrics.MeshCacheHitsTotal.Inc()
		return cached, nil
	}
	metrics.MeshCacheMissesTotal.Inc()

	start := time.Now()
	var (
		m    *mesh.Mesh
		errs []error
	)
	if kind == kindBorder {
		m, errs = mesh.Border(f.Geometry, t)
	} else {
		m, errs = mesh.Fill(f.Geometry, t)
	}
	metrics.MeshBuildsTotal.WithLabelValues(kind).Inc()
	metrics.MeshBuildDurationMs.WithLabelValues(kind).Observe(float64(time.Since(start).Microseconds()) / 1000)

	for _, err := range errs {
		metrics.SkippedRingsTotal.WithLabelValues(kind).Inc()
		log.Debug().
			Err(err).
			Str("id", id).
			Str("kind", kind).
			Msg("Ring skipped during mesh generation")
	}

	// Concurrent callers may build the same mesh; the first stored wins.
	a.mu.Lock()
	if existing, ok := a.meshes[key]; ok {
		m = existing
	} else if len(a.meshes) < a.cacheLimit {
		a.meshes[key] = m
	} else {
		log.Debug().
			Str("id", id).
			Str("kind", kind).
			Int("limit", a.cacheLimit).
			Msg("Mesh cache full, mesh not stored")
	}
	a.mu.Unlock()

	return m, nil
}

// checkTarget rejects targets that cannot produce a mesh or a usable cache key.
func checkTarget(kind string, t mesh.RenderTarget) error {
	if !positive(t.Radius) {
		return fmt.Errorf("%w: radius %v", geo.ErrInvalidCoordinate, t.Radius)
	}
	if kind == kindBorder && !positive(t.BorderWidth) {
		return fmt.Errorf("%w: border width %v", geo.ErrInvalidCoordinate, t.BorderWidth)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
