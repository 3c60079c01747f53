package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/config"
	"github.com/woozymasta/globle/internal/game"
	"github.com/woozymasta/globle/internal/mesh"
	"github.com/woozymasta/globle/internal/metrics"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config *config.Config
	Atlas  *atlas.Atlas
	Game   *game.Session
	Target mesh.RenderTarget
}

// NewServerContext wires the loaded countries and the running game together.
func NewServerContext(cfg *config.Config, a *atlas.Atlas, g *game.Session) *ServerContext {
	target := cfg.RenderTarget()

	log.Info().
		Int("features", a.Len()).
		Int("named", len(a.Names())).
		Float64("radius", target.Radius).
		Float64("border_width", target.BorderWidth).
		Int("refine_depth", target.RefineDepth).
		Bool("subdivision", target.Subdivider != nil).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config: cfg,
		Atlas:  a,
		Game:   g,
		Target: target,
	}
}

// Routes returns the request handler with every route and the logging
// middleware attached.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/countries", s.HandleCountries)
	mux.HandleFunc("GET /api/countries/{id}", s.HandleCountry)
	mux.HandleFunc("GET /api/countries/{id}/border", s.HandleBorder)
	mux.HandleFunc("GET /api/countries/{id}/fill", s.HandleFill)
	mux.HandleFunc("GET /api/distance", s.HandleDistance)
	mux.HandleFunc("GET /api/locate", s.HandleLocate)
	mux.HandleFunc("GET /api/game", s.HandleGame)
	mux.HandleFunc("POST /api/game/guess", s.HandleGuess)
	mux.HandleFunc("POST /api/game/end", s.HandleEnd)
	mux.HandleFunc("POST /api/game/restart", s.HandleRestart)
	mux.HandleFunc("GET /map.svg", s.HandleMapSVG)
	mux.HandleFunc("GET /map.webp", s.HandleMapWebP)
	mux.HandleFunc("GET /tiles/{z}/{x}/{y}", s.HandleTile)
	mux.Handle("GET /metrics", metrics.Handler())

	return RequestLogger(mux)
}
