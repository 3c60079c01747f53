package main

import (
	"context"
	"errors"
	"image/color"
	"io/fs"
	"os"
	"os/signal"
	"time"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/config"
	"github.com/woozymasta/globle/internal/game"
	"github.com/woozymasta/globle/internal/logger"
	"github.com/woozymasta/globle/internal/render"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Data        string   `short:"d" long:"data"        env:"DATA_FILE"   description:"Path to the countries GeoJSON, overrides the configuration"`
	SVG         string   `short:"s" long:"svg"                           description:"Write the flat map as SVG to this path"`
	WebP        string   `short:"w" long:"webp"                          description:"Write the flat map as WebP to this path"`
	TilesDir    string   `short:"t" long:"tiles"                         description:"Write a z/x/y.webp tile pyramid into this directory"`
	Highlight   []string `short:"H" long:"highlight"                     description:"Country names painted with the guess color"`
	Concurrency int      `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"8"`
	ZoomLimit   int      `short:"z" long:"zoom-limit"  env:"ZOOM_LIMIT"  description:"Tiles zoom limit, the configured one if negative" default:"-1"`
	Force       bool     `short:"f" long:"force"                         description:"Force overwrite of existing tiles"`
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

	opts.Logger.Setup()

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
	if opts.ZoomLimit >= 0 {
		cfg.Flat.ZoomLimit = &opts.ZoomLimit
	}

	if opts.SVG == "" && opts.WebP == "" && opts.TilesDir == "" {
		log.Fatal().Msg("Nothing to do: set at least one of --svg, --webp or --tiles")
	}

	countries, err := atlas.Load(cfg.Data)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data).Msg("Failed to load countries")
	}

	style := highlighter(countries, opts.Highlight)
	features := countries.Features()
	vp := cfg.Viewport()

	if opts.SVG != "" {
		if err := writeFile(opts.SVG, func(f *os.File) error {
			return render.SVG(f, features, vp, style)
		}); err != nil {
			log.Fatal().Err(err).Str("path", opts.SVG).Msg("Failed to write SVG map")
		}
		log.Info().Str("path", opts.SVG).Msg("SVG map written")
	}

	if opts.WebP != "" {
		if err := writeFile(opts.WebP, func(f *os.File) error {
			return render.EncodeWebP(f, render.Raster(features, vp, style), cfg.Flat.WebPQuality)
		}); err != nil {
			log.Fatal().Err(err).Str("path", opts.WebP).Msg("Failed to write WebP map")
		}
		log.Info().Str("path", opts.WebP).Msg("WebP map written")
	}

	if opts.TilesDir == "" {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	log.Info().
		Str("dir", opts.TilesDir).
		Int("zoom_limit", cfg.Flat.Zoom()).
		Int("tile_size", cfg.Flat.TileSize).
		Int("concurrency", opts.Concurrency).
		Msg("Starting tile generation")

	n, err := render.Tiles(ctx, features, style, render.TileOptions{
		Dir:         opts.TilesDir,
		ZoomLimit:   cfg.Flat.Zoom(),
		TileSize:    cfg.Flat.TileSize,
		Quality:     cfg.Flat.WebPQuality,
		Concurrency: opts.Concurrency,
		Force:       opts.Force,
	})
	if err != nil {
		log.Fatal().Err(err).Int("written", n).Msg("Tile generation failed")
	}

	log.Info().
		Int("written", n).
		Dur("duration", time.Since(start)).
		Msg("Tile generation finished successfully")
}

// highlighter paints the named countries with the guess color and every
// other one with the default color. Unknown names are reported and ignored.
func highlighter(a *atlas.Atlas, names []string) render.Styler {
	marked := make(map[string]bool, len(names))
	for _, n := range names {
		f, err := a.Lookup(n)
		if err != nil {
			log.Error().Err(err).Str("name", n).Msg("Highlighted country not found")
			continue
		}
		marked[f.ID] = true
	}

	return render.StyleFunc(func(name string) color.Color {
		if marked[atlas.Normalize(name)] {
			return game.ColorGuess
		}
		return game.ColorDefault
	})
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
