package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"os"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/config"
	"github.com/woozymasta/globle/internal/game"
	"github.com/woozymasta/globle/internal/logger"
	"github.com/woozymasta/globle/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Data       string `short:"d" long:"data"   env:"DATA_FILE"      description:"Path to the countries GeoJSON, overrides the configuration"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	Seed       uint64 `short:"s" long:"seed"   env:"GAME_SEED"      description:"Seed of the secret country picker, random if zero"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg = config.Default()
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.Data != "" {
		cfg.Data = opts.Data
	}

	countries, err := atlas.Load(cfg.Data)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data).Msg("Failed to load countries")
	}

	var rnd *rand.Rand
	if opts.Seed != 0 {
		rnd = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}
	session, err := game.New(countries, rnd)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start the game")
	}

	srvCtx := server.NewServerContext(cfg, countries, session)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("countries_loaded", countries.Len()).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, srvCtx.Routes()); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
