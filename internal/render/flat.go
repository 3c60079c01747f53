// Package render draws the flat (non-3D) world map.
package render

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	"io"
	"strconv"

	"github.com/chai2010/webp"
	"github.com/golang/geo/r2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"golang.org/x/image/vector"

	"github.com/woozymasta/globle/internal/atlas"
	"github.com/woozymasta/globle/internal/geo"
)

// Styler picks the fill color of a country by name. Unnamed features get an
// empty name.
type Styler interface {
	FillColor(name string) color.Color
}

// StyleFunc adapts a function to the Styler interface.
type StyleFunc func(name string) color.Color

// FillColor calls f(name).
func (f StyleFunc) FillColor(name string) color.Color { return f(name) }

// Uniform returns a Styler painting every country with c.
func Uniform(c color.Color) Styler {
	return StyleFunc(func(string) color.Color { return c })
}

// Background is the sea color of the flat map.
var Background color.Color = color.White

// shape is a projected ring ready to be drawn.
type shape struct {
	fill   color.Color
	id     string
	points []r2.Point
	bound  r2.Rect
}

// project converts every ring of every feature to viewport coordinates.
// Points that cannot be projected are dropped, rings with less than three
// points are skipped.
func project(features []*atlas.Feature, vp geo.Viewport, style Styler) []shape {
	var shapes []shape
	for _, f := range features {
		fill := style.FillColor(f.Name())
		for _, poly := range geo.Polygons(f.Geometry) {
			for _, ring := range poly {
				pts := make([]r2.Point, 0, len(ring))
				for _, c := range ring {
					p, err := vp.Project(c.Lon(), c.Lat())
					if err != nil {
						continue
					}
					pts = append(pts, p)
				}
				if len(pts) < 3 {
					continue
				}
				shapes = append(shapes, shape{
					fill:   fill,
					id:     f.ID,
					points: pts,
					bound:  r2.RectFromPoints(pts...),
				})
			}
		}
	}
	return shapes
}

// SVG writes the flat map as a minified SVG document.
func SVG(w io.Writer, features []*atlas.Feature, vp geo.Viewport, style Styler) error {
	var buf bytes.Buffer
	writeSVG(&buf, project(features, vp, style), vp)

	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)

	return m.Minify("image/svg+xml", w, &buf)
}

func writeSVG(buf *bytes.Buffer, shapes []shape, vp geo.Viewport) {
	width := strconv.FormatFloat(vp.Width, 'f', -1, 64)
	height := strconv.FormatFloat(vp.Height, 'f', -1, 64)

	fmt.Fprintf(buf,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" style="background:%s">`,
		width, height, width, height, hexColor(Background))

	for _, s := range shapes {
		fill := color.NRGBAModel.Convert(s.fill).(color.NRGBA)

		buf.WriteString(`<path data-id="`)
		buf.WriteString(html.EscapeString(s.id))
		buf.WriteString(`" d="`)
		for i, p := range s.points {
			if i == 0 {
				buf.WriteByte('M')
			} else {
				buf.WriteByte('L')
			}
			buf.WriteString(strconv.FormatFloat(p.X, 'f', 2, 64))
			buf.WriteByte(' ')
			buf.WriteString(strconv.FormatFloat(p.Y, 'f', 2, 64))
		}
		fmt.Fprintf(buf, `Z" fill="%s" fill-opacity="%s" stroke="#000" stroke-width="0.5"/>`,
			hexColor(fill), strconv.FormatFloat(float64(fill.A)/255, 'f', 2, 64))
	}

	buf.WriteString(`</svg>`)
}

func hexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// Raster fills every country into a new image of the viewport size.
func Raster(features []*atlas.Feature, vp geo.Viewport, style Styler) *image.RGBA {
	w, h := int(vp.Width), int(vp.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if w == 0 || h == 0 {
		return img
	}

	drawShapes(img, vector.NewRasterizer(w, h), project(features, vp, style), r2.Point{})
	return img
}

// drawShapes fills shapes into dst, translated by -origin. Shapes outside
// dst are skipped.
func drawShapes(dst *image.RGBA, r *vector.Rasterizer, shapes []shape, origin r2.Point) {
	b := dst.Bounds()
	view := r2.RectFromPoints(origin, r2.Point{X: origin.X + float64(b.Dx()), Y: origin.Y + float64(b.Dy())})

	for _, s := range shapes {
		if !s.bound.Intersects(view) {
			continue
		}

		r.Reset(b.Dx(), b.Dy())
		for i, p := range s.points {
			x, y := float32(p.X-origin.X), float32(p.Y-origin.Y)
			if i == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		r.ClosePath()
		r.Draw(dst, b, image.NewUniform(s.fill), image.Point{})
	}
}

// EncodeWebP writes img as lossy WebP.
func EncodeWebP(w io.Writer, img image.Image, quality int) error {
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: float32(quality)})
}
