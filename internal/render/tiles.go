package render

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/vector"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/geo"
)

// maxZoom keeps the world width of a tile pyramid within an int.
const maxZoom = 24

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

// TileOptions configures tile pyramid generation.
type TileOptions struct {
	Dir         string
	ZoomLimit   int
	TileSize    int
	Quality     int
	Concurrency int
	Force       bool
}

// encodeTile writes a rendered tile; replaced in tests.
var encodeTile = EncodeWebP

// worldViewport returns the square Mercator world at zoom z.
func worldViewport(z, tileSize int) geo.Viewport {
	size := float64(tileSize * (1 << z))
	return geo.Viewport{Width: size, Height: size}
}

// RenderTile draws a single z/x/y tile.
func RenderTile(features []*atlas.Feature, style Styler, c TileCoordinate, tileSize int) (*image.RGBA, error) {
	if c.Z < 0 || c.Z > maxZoom {
		return nil, fmt.Errorf("tile %d/%d/%d out of range", c.Z, c.X, c.Y)
	}
	grid := 1 << c.Z
	if c.X < 0 || c.Y < 0 || c.X >= grid || c.Y >= grid {
		return nil, fmt.Errorf("tile %d/%d/%d out of range", c.Z, c.X, c.Y)
	}

	shapes := project(features, worldViewport(c.Z, tileSize), style)
	return renderTile(shapes, vector.NewRasterizer(tileSize, tileSize), c, tileSize), nil
}

func renderTile(shapes []shape, r *vector.Rasterizer, c TileCoordinate, tileSize int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	origin := r2.Point{X: float64(c.X * tileSize), Y: float64(c.Y * tileSize)}
	drawShapes(img, r, shapes, origin)
	return img
}

// Tiles renders the z/x/y.webp tile pyramid from zoom 0 to opts.ZoomLimit.
// Existing non-empty tiles are kept unless opts.Force is set. It returns the
// number of tiles written.
func Tiles(ctx context.Context, features []*atlas.Feature, style Styler, opts TileOptions) (int, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}

	if opts.ZoomLimit < 0 || opts.ZoomLimit > maxZoom {
		return 0, fmt.Errorf("zoom limit %d out of range [0, %d]", opts.ZoomLimit, maxZoom)
	}

	written := 0
	for z := 0; z <= opts.ZoomLimit; z++ {
		shapes := project(features, worldViewport(z, opts.TileSize), style)
		gridSize := 1 << z

		log.Debug().
			Int("zoom", z).
			Int("grid", gridSize).
			Int("shapes", len(shapes)).
			Msg("Processing zoom level")

		n, err := renderLevel(ctx, shapes, z, gridSize, opts)
		written += n
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

func renderLevel(ctx context.Context, shapes []shape, z, gridSize int, opts TileOptions) (int, error) {
	jobs := make(chan TileCoordinate)
	go func() {
		defer close(jobs)
		for x := 0; x < gridSize; x++ {
			for y := 0; y < gridSize; y++ {
				select {
				case jobs <- TileCoordinate{Z: z, X: x, Y: y}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		written  int
		firstErr error
	)
	for i := 0; i < opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := vector.NewRasterizer(opts.TileSize, opts.TileSize)
			for c := range jobs {
				ok, err := writeTile(shapes, r, c, opts)
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if ok {
					written++
				}
				mu.Unlock()
				if err != nil {
					log.Error().
						Err(err).
						Int("z", c.Z).Int("x", c.X).Int("y", c.Y).
						Msg("Failed to write tile")
				}
			}
		}()
	}
	wg.Wait()

	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return written, firstErr
}

func writeTile(shapes []shape, r *vector.Rasterizer, c TileCoordinate, opts TileOptions) (bool, error) {
	outPath := TilePath(opts.Dir, c)

	if !opts.Force {
		if info, err := os.Stat(outPath); err == nil && info.Size() > 0 {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return false, err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return false, err
	}

	img := renderTile(shapes, r, c, opts.TileSize)
	if err := encodeTile(f, img, opts.Quality); err != nil {
		_ = f.Close()
		// a partial tile would be kept by the next run
		_ = os.Remove(outPath)
		return false, err
	}

	return true, closeFile(f, outPath)
}

// TilePath returns dir/z/x/y.webp.
func TilePath(dir string, c TileCoordinate) string {
	return filepath.Join(
		dir,
		fmt.Sprintf("%d", c.Z),
		fmt.Sprintf("%d", c.X),
		fmt.Sprintf("%d", c.Y)+".webp",
	)
}

func closeFile(c io.Closer, path string) error {
	if err := c.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
