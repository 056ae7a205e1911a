package player

import (
	"fmt"
	"image"

	"github.com/disintegration/gift"
)

// Transcoder turns a raw decoded image into a glyph frame sized to the
// terminal grid. In color mode the character and the paint of each cell
// are chosen independently: the character from per-pixel luminance, the
// paint from the raw RGB through the quantizer.
type Transcoder struct {
	quant *ColorQuantizer
	color bool
}

// NewTranscoder creates a transcoder. quant may be nil when color is
// disabled.
func NewTranscoder(quant *ColorQuantizer, color bool) *Transcoder {
	return &Transcoder{quant: quant, color: color}
}

// Transcode produces a glyph frame of exactly rows x cols from a raw
// image of any size. The source is force-fit with a nearest-neighbor
// resize; blocky artifacts read better as discrete glyphs than blurred
// gradients do.
func (t *Transcoder) Transcode(src image.Image, rows, cols int) (*GlyphFrame, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid target grid %dx%d", rows, cols)
	}

	rgba := t.fit(src, rows, cols)

	frame := newGlyphFrame(rows, cols)
	for r := 0; r < rows; r++ {
		row := frame.cells[r]
		for c := 0; c < cols; c++ {
			i := rgba.PixOffset(c, r)
			pr, pg, pb := rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2]

			lum := uint8((int(pr) + int(pg) + int(pb)) / 3)
			cell := GlyphCell{Char: CharForLuminance(lum)}

			if t.color {
				p, err := t.quant.PaintFor(t.quant.Quantize(pr, pg, pb))
				if err != nil {
					return nil, fmt.Errorf("paint lookup: %w", err)
				}
				cell.Paint = p
			}
			row[c] = cell
		}
	}
	return frame, nil
}

// fit resizes src to cols x rows, converting to grayscale first when
// color mode is off. A source already at the target size skips the
// resize pass (the disk source stores pre-resized frames).
func (t *Transcoder) fit(src image.Image, rows, cols int) *image.RGBA {
	var filters []gift.Filter
	b := src.Bounds()
	if b.Dx() != cols || b.Dy() != rows {
		filters = append(filters, gift.Resize(cols, rows, gift.NearestNeighborResampling))
	}
	if !t.color {
		filters = append(filters, gift.Grayscale())
	}

	if len(filters) == 0 {
		if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
			return rgba
		}
	}

	g := gift.New(filters...)
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// ResizeForCache pre-resizes a raw frame to the grid for the disk cache.
// Glyph mapping happens later, per display, from the stored image.
func ResizeForCache(src image.Image, rows, cols int) *image.RGBA {
	g := gift.New(gift.Resize(cols, rows, gift.NearestNeighborResampling))
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}
