package server

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/config"
	"github.com/woozymasta/globle/internal/game"
	"github.com/woozymasta/globle/internal/geo"
	"github.com/woozymasta/globle/internal/metrics"
)

func name(s string) *string { return &s }

func square(lon, lat float64) orb.Polygon {
	return orb.Polygon{{{lon - 1, lat - 1}, {lon - 1, lat + 1}, {lon + 1, lat + 1}, {lon + 1, lat - 1}}}
}

func testServer(t *testing.T, names ...string) http.Handler {
	t.Helper()

	col := &geo.Collection{}
	for i, n := range names {
		col.Features = append(col.Features, geo.Feature{
			Properties: geo.Properties{Name: name(n)},
			Geometry:   square(float64(i*20), 0),
		})
	}
	col.Features = append(col.Features, geo.Feature{Geometry: square(100, 50)})

	a := atlas.New(col)
	g, err := game.New(a, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := config.Default()
	cfg.Flat.Width = 128
	cfg.Flat.Height = 128
	cfg.Flat.TileSize = 32
	zoom := 2
	cfg.Flat.ZoomLimit = &zoom

	return NewServerContext(cfg, a, g).Routes()
}

func do(t *testing.T, h http.Handler, method, target string, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return v
}

func TestCountries(t *testing.T) {
	h := testServer(t, "alpha", "beta")

	rec := do(t, h, http.MethodGet, "/api/countries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	list := decode[[]Country](t, rec)
	if len(list) != 3 || list[0].ID != "Alpha" || list[1].Name != "Beta" || list[2].ID != "feature-2" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCountry(t *testing.T) {
	h := testServer(t, "alpha", "beta")

	rec := do(t, h, http.MethodGet, "/api/countries/Beta", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}

	d := decode[CountryDetail](t, rec)
	if d.Centroid == nil || d.Centroid[0] != 20 || d.Centroid[1] != 0 {
		t.Errorf("unexpected centroid %v", d.Centroid)
	}
	if d.SphereCentroid == nil {
		t.Errorf("expected a sphere centroid")
	}
	if d.Bound[0][0] != 19 || d.Bound[1][0] != 21 {
		t.Errorf("unexpected bound %v", d.Bound)
	}

	rec = do(t, h, http.MethodGet, "/api/countries/Atlantis", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if e := decode[errorResponse](t, rec); e.Error == "" {
		t.Errorf("expected an error message")
	}
}

type meshBody struct {
	Vertices  []float64 `json:"vertices"`
	Normals   []float64 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	Triangles int       `json:"triangles"`
}

func TestMeshes(t *testing.T) {
	h := testServer(t, "alpha")

	tests := []struct {
		target string
		status int
	}{
		{"/api/countries/Alpha/border", http.StatusOK},
		{"/api/countries/Alpha/border?radius=6&width=0.1", http.StatusOK},
		{"/api/countries/Alpha/fill?depth=1", http.StatusOK},
		{"/api/countries/Alpha/fill?depth=99", http.StatusOK},
		{"/api/countries/Alpha/border?width=-1", http.StatusBadRequest},
		{"/api/countries/Alpha/fill?radius=abc", http.StatusBadRequest},
		{"/api/countries/Alpha/fill?depth=-1", http.StatusBadRequest},
		{"/api/countries/Alpha/border?radius=NaN", http.StatusBadRequest},
		{"/api/countries/Alpha/border?radius=Inf", http.StatusBadRequest},
		{"/api/countries/Alpha/fill?radius=1e300", http.StatusBadRequest},
		{"/api/countries/Alpha/border?width=5", http.StatusBadRequest},
		{"/api/countries/Nope/fill", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}

			m := decode[meshBody](t, rec)
			if m.Triangles == 0 || len(m.Indices) != m.Triangles*3 {
				t.Fatalf("unexpected mesh: %d triangles, %d indices", m.Triangles, len(m.Indices))
			}
			if len(m.Vertices)%3 != 0 || len(m.Normals) != len(m.Vertices) {
				t.Fatalf("unexpected buffers: %d vertices, %d normals", len(m.Vertices), len(m.Normals))
			}
		})
	}
}

func TestDistance(t *testing.T) {
	h := testServer(t, "alpha", "beta")

	rec := do(t, h, http.MethodGet, "/api/distance?from=alpha&to=%20beta", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	d := decode[Distance](t, rec)
	if d.From != "Alpha" || d.To != "Beta" || d.DistanceKm < 2200 || d.DistanceKm > 2250 {
		t.Fatalf("unexpected distance %+v", d)
	}

	if rec := do(t, h, http.MethodGet, "/api/distance?from=alpha", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/distance?from=alpha&to=atlantis", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestLocate(t *testing.T) {
	h := testServer(t, "alpha", "beta")

	rec := do(t, h, http.MethodGet, "/api/locate?lon=20.5&lat=-0.5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if c := decode[Country](t, rec); c.ID != "Beta" {
		t.Fatalf("expected Beta, got %+v", c)
	}

	if rec := do(t, h, http.MethodGet, "/api/locate?lon=-100&lat=0", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/locate?lon=east&lat=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestGame_WinFlow(t *testing.T) {
	h := testServer(t, "alpha")

	res := decode[game.Result](t, do(t, h, http.MethodPost, "/api/game/guess", `{"name":"atlantis"}`, "Content-Type", "application/json"))
	if res.Known || res.Won || res.Attempts != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	form := url.Values{"name": {" alpha "}}.Encode()
	rec := do(t, h, http.MethodPost, "/api/game/guess", form, "Content-Type", "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if res := decode[game.Result](t, rec); !res.Won || res.Attempts != 2 || res.Distance == nil || *res.Distance != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	st := decode[game.State](t, do(t, h, http.MethodGet, "/api/game", ""))
	if !st.Won || st.Secret != "Alpha" {
		t.Fatalf("unexpected state %+v", st)
	}

	if rec := do(t, h, http.MethodPost, "/api/game/guess", `{"name":"alpha"}`, "Content-Type", "application/json"); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after a win, got %d", rec.Code)
	}

	st = decode[game.State](t, do(t, h, http.MethodPost, "/api/game/restart", ""))
	if st.Won || st.Attempts != 0 || st.Secret != "" {
		t.Fatalf("unexpected state after restart %+v", st)
	}
}

func TestGame_BadRequests(t *testing.T) {
	h := testServer(t, "alpha")

	if rec := do(t, h, http.MethodPost, "/api/game/guess", `{"name":`, "Content-Type", "application/json"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for broken JSON, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/game/guess", `{"name":"  "}`, "Content-Type", "application/json"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an empty guess, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/game/guess", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if st := decode[game.State](t, do(t, h, http.MethodGet, "/api/game", "")); st.Attempts != 0 {
		t.Errorf("rejected guesses must not count, got %d attempts", st.Attempts)
	}
}

func TestGame_End(t *testing.T) {
	h := testServer(t, "alpha", "beta")

	st := decode[game.State](t, do(t, h, http.MethodPost, "/api/game/end", ""))
	if !st.Over || st.Secret == "" {
		t.Fatalf("expected the secret to be revealed, got %+v", st)
	}
	if rec := do(t, h, http.MethodPost, "/api/game/guess", "name=alpha", "Content-Type", "application/x-www-form-urlencoded"); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestMapSVG_ETag(t *testing.T) {
	h := testServer(t, "alpha", "beta")

	rec := do(t, h, http.MethodGet, "/map.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Errorf("expected an SVG document")
	}

	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected an ETag")
	}
	if rec := do(t, h, http.MethodGet, "/map.svg", "", "If-None-Match", etag); rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", rec.Code)
	}

	do(t, h, http.MethodPost, "/api/game/guess", "name=beta", "Content-Type", "application/x-www-form-urlencoded")
	if rec := do(t, h, http.MethodGet, "/map.svg", "", "If-None-Match", etag); rec.Code != http.StatusOK {
		t.Fatalf("expected a new map after a guess, got %d", rec.Code)
	}
}

func TestMapWebP(t *testing.T) {
	h := testServer(t, "alpha")

	rec := do(t, h, http.MethodGet, "/map.webp", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if b := rec.Body.Bytes(); len(b) < 12 || string(b[:4]) != "RIFF" || string(b[8:12]) != "WEBP" {
		t.Fatalf("expected a WebP body")
	}
}

func TestTiles(t *testing.T) {
	h := testServer(t, "alpha")

	tests := []struct {
		target string
		status int
	}{
		{"/tiles/0/0/0.webp", http.StatusOK},
		{"/tiles/2/3/1.webp", http.StatusOK},
		{"/tiles/2/4/0.webp", http.StatusNotFound},
		{"/tiles/-1/0/0.webp", http.StatusNotFound},
		{"/tiles/3/0/0.webp", http.StatusNotFound},
		{"/tiles/0/0/0.png", http.StatusNotFound},
		{"/tiles/a/0/0.webp", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodGet, tt.target, ""); rec.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.target, tt.status, rec.Code)
		}
	}
}

func TestMetrics(t *testing.T) {
	h := testServer(t, "alpha")

	counter := metrics.RequestsTotal.WithLabelValues("GET /api/game", "200")
	before := testutil.ToFloat64(counter)

	do(t, h, http.MethodGet, "/api/game", "")
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected the request to be counted, got %v -> %v", before, got)
	}

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "globle_http_requests_total") {
		t.Fatalf("expected the request counters to be exposed")
	}
}

func TestMeshes_RejectedOverridesNotBuilt(t *testing.T) {
	h := testServer(t, "alpha")

	builds := testutil.ToFloat64(metrics.MeshBuildsTotal.WithLabelValues("border"))
	for _, q := range []string{"NaN", "Inf", "-Inf", "0", "101"} {
		if rec := do(t, h, http.MethodGet, "/api/countries/Alpha/border?radius="+q, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("radius=%s: expected 400, got %d", q, rec.Code)
		}
	}
	if got := testutil.ToFloat64(metrics.MeshBuildsTotal.WithLabelValues("border")); got != builds {
		t.Fatalf("rejected overrides must not build meshes, got %v builds", got-builds)
	}
}
