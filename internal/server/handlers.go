// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/game"
	"github.com/woozymasta/globle/internal/geo"
	"github.com/woozymasta/globle/internal/mesh"
	"github.com/woozymasta/globle/internal/render"
)

// Country is the list entry of a loaded feature.
type Country struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Index int    `json:"index"`
}

// CountryDetail adds the derived geometry of a feature.
type CountryDetail struct {
	Centroid       *[2]float64   `json:"centroid,omitempty"`
	SphereCentroid *[3]float64   `json:"sphere_centroid,omitempty"`
	GeometryType   string        `json:"geometry_type,omitempty"`
	Bound          [2][2]float64 `json:"bound"`
	Country
}

// Distance is the answer of the distance route.
type Distance struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
}

type guessRequest struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func countryOf(f *atlas.Feature) Country {
	return Country{ID: f.ID, Name: atlas.Normalize(f.Name()), Index: f.Index}
}

// HandleCountries lists every loaded feature.
func (s *ServerContext) HandleCountries(w http.ResponseWriter, r *http.Request) {
	features := s.Atlas.Features()
	out := make([]Country, 0, len(features))
	for _, f := range features {
		out = append(out, countryOf(f))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCountry serves the centroids and bound of a feature.
func (s *ServerContext) HandleCountry(w http.ResponseWriter, r *http.Request) {
	f, err := s.Atlas.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	b := geo.Bound(f.Geometry)
	out := CountryDetail{
		Country:      countryOf(f),
		GeometryType: f.GeometryType,
		Bound:        [2][2]float64{{b.Min.Lon(), b.Min.Lat()}, {b.Max.Lon(), b.Max.Lat()}},
	}
	if c, ok := f.Centroid(); ok {
		out.Centroid = &[2]float64{c.Lon(), c.Lat()}
	}
	if v, err := geo.SphereCentroid(f.Geometry, s.Target.Radius); err == nil {
		out.SphereCentroid = &[3]float64{v.X, v.Y, v.Z}
	}

	writeJSON(w, http.StatusOK, out)
}

// HandleBorder serves the border mesh of a feature. The radius and width
// query parameters override the configured target.
func (s *ServerContext) HandleBorder(w http.ResponseWriter, r *http.Request) {
	t := s.Target
	q := r.URL.Query()

	var err error
	if t.Radius, err = floatParam(q.Get("radius"), t.Radius, maxRadius); err != nil {
		writeError(w, err)
		return
	}
	if t.BorderWidth, err = floatParam(q.Get("width"), t.BorderWidth, maxBorderWidth); err != nil {
		writeError(w, err)
		return
	}

	m, err := s.Atlas.Border(r.PathValue("id"), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleFill serves the fill mesh of a feature. The radius and depth query
// parameters override the configured target.
func (s *ServerContext) HandleFill(w http.ResponseWriter, r *http.Request) {
	t := s.Target
	q := r.URL.Query()

	var err error
	if t.Radius, err = floatParam(q.Get("radius"), t.Radius, maxRadius); err != nil {
		writeError(w, err)
		return
	}
	if v := q.Get("depth"); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil || depth < 0 {
			writeError(w, fmt.Errorf("%w: depth %q", errBadRequest, v))
			return
		}
		t.RefineDepth = min(depth, mesh.MaxRefineDepth)
	}

	m, err := s.Atlas.Fill(r.PathValue("id"), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleDistance serves the centroid distance between two named countries.
func (s *ServerContext) HandleDistance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		writeError(w, fmt.Errorf("%w: from and to are required", geo.ErrMissingName))
		return
	}

	d, ok := s.Atlas.DistanceBetween(from, to)
	if !ok {
		writeError(w, fmt.Errorf("%w: %q or %q", atlas.ErrNotFound, from, to))
		return
	}

	writeJSON(w, http.StatusOK, Distance{
		From:       atlas.Normalize(from),
		To:         atlas.Normalize(to),
		DistanceKm: d,
	})
}

// HandleLocate serves the feature under a lon/lat point.
func (s *ServerContext) HandleLocate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil {
		writeError(w, fmt.Errorf("%w: lon=%q lat=%q", geo.ErrInvalidCoordinate, q.Get("lon"), q.Get("lat")))
		return
	}

	f, ok := s.Atlas.FeatureAt(lon, lat)
	if !ok {
		writeError(w, fmt.Errorf("%w: nothing at %v,%v", atlas.ErrNotFound, lon, lat))
		return
	}
	writeJSON(w, http.StatusOK, countryOf(f))
}

// HandleGame serves the current game state.
func (s *ServerContext) HandleGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Game.State())
}

// HandleGuess records a guess sent as JSON {"name": ...} or as a form value.
func (s *ServerContext) HandleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
	} else {
		req.Name = r.FormValue("name")
	}

	res, err := s.Game.Guess(req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleEnd gives up the current game and reveals the secret.
func (s *ServerContext) HandleEnd(w http.ResponseWriter, r *http.Request) {
	s.Game.End()
	writeJSON(w, http.StatusOK, s.Game.State())
}

// HandleRestart starts a new game.
func (s *ServerContext) HandleRestart(w http.ResponseWriter, r *http.Request) {
	if err := s.Game.Restart(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Game.State())
}

// HandleMapSVG serves the flat map colored by the game state.
func (s *ServerContext) HandleMapSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := render.SVG(&buf, s.Atlas.Features(), s.Config.Viewport(), s.Game); err != nil {
		writeError(w, err)
		return
	}
	serveBytes(w, r, buf.Bytes(), "image/svg+xml")
}

// HandleMapWebP serves the raster flat map colored by the game state.
func (s *ServerContext) HandleMapWebP(w http.ResponseWriter, r *http.Request) {
	img := render.Raster(s.Atlas.Features(), s.Config.Viewport(), s.Game)

	var buf bytes.Buffer
	if err := render.EncodeWebP(&buf, img, s.Config.Flat.WebPQuality); err != nil {
		writeError(w, err)
		return
	}
	serveBytes(w, r, buf.Bytes(), "image/webp")
}

// HandleTile renders a z/x/y.webp tile of the flat map.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	y, ok := strings.CutSuffix(r.PathValue("y"), ".webp")
	if !ok {
		http.NotFound(w, r)
		return
	}

	var c render.TileCoordinate
	var errZ, errX, errY error
	c.Z, errZ = strconv.Atoi(r.PathValue("z"))
	c.X, errX = strconv.Atoi(r.PathValue("x"))
	c.Y, errY = strconv.Atoi(y)
	if errZ != nil || errX != nil || errY != nil || c.Z < 0 || c.Z > s.Config.Flat.Zoom() {
		http.NotFound(w, r)
		return
	}

	img, err := render.RenderTile(s.Atlas.Features(), s.Game, c, s.Config.Flat.TileSize)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := render.EncodeWebP(&buf, img, s.Config.Flat.WebPQuality); err != nil {
		writeError(w, err)
		return
	}
	serveBytes(w, r, buf.Bytes(), "image/webp")
}

// serveBytes writes a generated body with a content hash ETag.
func serveBytes(w http.ResponseWriter, r *http.Request, body []byte, contentType string) {
	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(body)
}

var errBadRequest = errors.New("bad request")

// Upper bounds of the mesh query overrides.
const (
	maxRadius      = 100.0
	maxBorderWidth = 1.0
)

// floatParam parses a query value in (0, limit], returning fallback when empty.
func floatParam(v string, fallback, limit float64) (float64, error) {
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || f <= 0 || f > limit {
		return 0, fmt.Errorf("%w: %q is not a number in (0, %v]", errBadRequest, v, limit)
	}
	return f, nil
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, atlas.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, geo.ErrMissingName),
		errors.Is(err, geo.ErrInvalidCoordinate):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, game.ErrNoSecret):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}
