package sink

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	errs "github.com/matzehuels/blockglyph/pkg/errors"
	"github.com/matzehuels/blockglyph/pkg/fonts"
	"github.com/matzehuels/blockglyph/pkg/transcode"
)

// PNGOption configures PNG rendering via [RenderPNG].
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	glyphSize  int
	font       *truetype.Font
	glow       float64
	background color.Color
}

// WithPNGGlyphSize sets the cell pitch in pixels.
func WithPNGGlyphSize(size int) PNGOption { return func(r *pngRenderer) { r.glyphSize = size } }

// WithPNGFont draws with f instead of the embedded Go Mono face.
func WithPNGFont(f *truetype.Font) PNGOption { return func(r *pngRenderer) { r.font = f } }

// WithPNGGlow adds a Gaussian halo of the given sigma behind each symbol.
func WithPNGGlow(sigma float64) PNGOption { return func(r *pngRenderer) { r.glow = sigma } }

// WithPNGBackground sets the canvas color (default opaque black).
func WithPNGBackground(c color.Color) PNGOption { return func(r *pngRenderer) { r.background = c } }

// RenderPNG rasterises the grid onto a cols*glyph x rows*glyph canvas.
func RenderPNG(grid *transcode.Grid, opts ...PNGOption) ([]byte, error) {
	img, err := RenderImage(grid, opts...)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderImage is [RenderPNG] without the final encode.
func RenderImage(grid *transcode.Grid, opts ...PNGOption) (*image.NRGBA, error) {
	r := pngRenderer{glyphSize: DefaultGlyphSize, background: color.Black}
	for _, opt := range opts {
		opt(&r)
	}
	if r.glyphSize < 1 {
		r.glyphSize = DefaultGlyphSize
	}
	if r.font == nil {
		f, err := fonts.Embedded(fonts.Default)
		if err != nil {
			return nil, err
		}
		r.font = f
	}

	g := r.glyphSize
	if err := errs.ValidateCanvasSize(grid.Cols, grid.Rows, g); err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, grid.Cols*g, grid.Rows*g)
	canvas := image.NewNRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(r.background), image.Point{}, draw.Src)

	glyphs := image.NewNRGBA(bounds)
	r.drawGlyphs(glyphs, grid)

	if r.glow > 0 {
		halo := imaging.Blur(glyphs, r.glow)
		draw.Draw(canvas, bounds, halo, image.Point{}, draw.Over)
	}
	draw.Draw(canvas, bounds, glyphs, image.Point{}, draw.Over)
	return canvas, nil
}

func (r *pngRenderer) drawGlyphs(dst draw.Image, grid *transcode.Grid) {
	g := r.glyphSize
	face := fonts.Face(r.font, float64(g))
	defer face.Close()

	metrics := face.Metrics()
	// Offset from the cell centre to the baseline that vertically centres
	// the em box.
	baseline := (metrics.Ascent - metrics.Descent) / 2

	d := &font.Drawer{Dst: dst, Face: face}
	for y, row := range grid.Cells {
		for x, c := range row {
			if c.Symbol == ' ' || c.Symbol == 0 {
				continue
			}
			fill := image.NewUniform(color.NRGBA{c.R, c.G, c.B, 255})

			if !fonts.HasGlyph(r.font, c.Symbol) {
				cell := image.Rect(x*g, y*g, (x+1)*g, (y+1)*g)
				draw.Draw(dst, cell, fill, image.Point{}, draw.Src)
				continue
			}

			s := string(c.Symbol)
			adv := d.MeasureString(s)
			d.Src = fill
			d.Dot = fixed.Point26_6{
				X: fixed.I(x*g+g/2) - adv/2,
				Y: fixed.I(y*g+g/2) + baseline,
			}
			d.DrawString(s)
		}
	}
}
