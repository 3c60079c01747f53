// Package game keeps the state of a single guessing game.
package game

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/geo"
	"github.com/woozymasta/globle/internal/metrics"
)

var (
	// ErrNoSecret is returned when no secret country can be selected.
	ErrNoSecret = errors.New("no secret country available")

	// ErrGameOver is returned when guessing after the game has ended.
	ErrGameOver = errors.New("game is over")
)

// FarDistanceKm is the distance at which the guess color stops changing.
const FarDistanceKm = 10000.0

// Highlight colors.
var (
	ColorFound   = color.NRGBA{R: 0, G: 200, B: 0, A: 255}
	ColorGuess   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
	ColorDefault = color.NRGBA{R: 0, G: 0, B: 255, A: 77}
)

// Catalog is the country source a game is played on.
type Catalog interface {
	PickRandomFeature(r *rand.Rand) (*atlas.Feature, error)
	Lookup(name string) (*atlas.Feature, error)
	DistanceBetween(nameA, nameB string) (float64, bool)
}

// Result describes the outcome of a single guess.
type Result struct {
	Distance *float64 `json:"distance_km,omitempty"`
	Guess    string   `json:"guess"`
	Attempts int      `json:"attempts"`
	Known    bool     `json:"known"`
	Won      bool     `json:"won"`
}

// State is a snapshot of the game. Secret is only set once the game is won
// or over.
type State struct {
	Distance    *float64 `json:"distance_km,omitempty"`
	Highlighted string   `json:"highlighted,omitempty"`
	Secret      string   `json:"secret,omitempty"`
	Attempts    int      `json:"attempts"`
	Won         bool     `json:"won"`
	Over        bool     `json:"over"`
}

// Session is a running game. It is safe for concurrent use.
type Session struct {
	catalog     Catalog
	rnd         *rand.Rand
	distance    *float64
	secret      string
	highlighted string
	attempts    int
	won         bool
	over        bool
	mu          sync.Mutex
}

// New starts a game with a random secret country. A nil rnd uses the global
// generator.
func New(c Catalog, rnd *rand.Rand) (*Session, error) {
	s := &Session{catalog: c, rnd: rnd}
	if err := s.pickSecret(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) pickSecret() error {
	f, err := s.catalog.PickRandomFeature(s.rnd)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoSecret, err)
	}

	s.secret = atlas.Normalize(f.Name())
	log.Debug().Str("secret", s.secret).Msg("Secret country selected")
	return nil
}

// Guess records a guess. Every non-empty guess counts as an attempt, even
// when the country is unknown.
func (s *Session) Guess(name string) (Result, error) {
	guess := atlas.Normalize(name)
	if guess == "" {
		return Result{}, geo.ErrMissingName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.won || s.over {
		return Result{}, ErrGameOver
	}

	s.attempts++
	s.highlighted = guess
	s.won = guess == s.secret

	_, err := s.catalog.Lookup(guess)
	known := err == nil

	s.distance = nil
	if d, ok := s.catalog.DistanceBetween(guess, s.secret); ok {
		s.distance = &d
	}

	outcome := "miss"
	switch {
	case s.won:
		outcome = "won"
	case !known:
		outcome = "unknown"
	}
	metrics.GuessesTotal.WithLabelValues(outcome).Inc()

	log.Debug().
		Str("guess", guess).
		Int("attempts", s.attempts).
		Bool("won", s.won).
		Msg("Guess recorded")

	return Result{
		Guess:    guess,
		Attempts: s.attempts,
		Known:    known,
		Won:      s.won,
		Distance: copyDistance(s.distance),
	}, nil
}

// End marks the game as over without restarting it.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.over = true
}

// Restart picks a new secret country and resets the counters.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pickSecret(); err != nil {
		return err
	}
	s.attempts = 0
	s.won = false
	s.over = false
	s.highlighted = ""
	s.distance = nil

	return nil
}

// State returns a snapshot of the game.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Attempts:    s.attempts,
		Won:         s.won,
		Over:        s.over,
		Highlighted: s.highlighted,
		Distance:    copyDistance(s.distance),
	}
	if s.won || s.over {
		st.Secret = s.secret
	}
	return st
}

// FillColor returns the map color of a country: green once the secret is
// found, a red to yellow ramp by distance for the current guess and
// translucent blue otherwise.
func (s *Session) FillColor(name string) color.Color {
	n := atlas.Normalize(name)
	if n == "" {
		return ColorDefault
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case n == s.secret && s.won:
		return ColorFound
	case n == s.highlighted:
		if s.distance == nil || math.IsNaN(*s.distance) {
			return ColorGuess
		}
		ratio := math.Min(math.Max(*s.distance/FarDistanceKm, 0), 1)
		return color.NRGBA{R: 255, G: uint8(math.Round(ratio * 255)), B: 0, A: 255}
	default:
		return ColorDefault
	}
}

func copyDistance(d *float64) *float64 {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
