package player

// Paint is an opaque handle to a renderer-allocated color. The zero value
// PaintNone means the terminal's default attributes.
type Paint int

// PaintNone is the absent paint handle (grayscale cells)
const PaintNone Paint = 0

// GlyphCell is one terminal cell: a shading character plus an optional
// paint handle. Immutable once produced.
type GlyphCell struct {
	Char  byte
	Paint Paint
}

// GlyphFrame is one displayable frame: rows × cols of glyph cells, sized
// to the terminal grid captured at transcode time. Immutable.
type GlyphFrame struct {
	cells [][]GlyphCell
}

func newGlyphFrame(rows, cols int) *GlyphFrame {
	cells := make([][]GlyphCell, rows)
	backing := make([]GlyphCell, rows*cols)
	for r := range cells {
		cells[r] = backing[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return &GlyphFrame{cells: cells}
}

// Rows returns the frame height in cells
func (f *GlyphFrame) Rows() int {
	return len(f.cells)
}

// Cols returns the frame width in cells
func (f *GlyphFrame) Cols() int {
	if len(f.cells) == 0 {
		return 0
	}
	return len(f.cells[0])
}

// Row returns one row of cells. Callers must not mutate it.
func (f *GlyphFrame) Row(r int) []GlyphCell {
	return f.cells[r]
}

// Cell returns the cell at (row, col)
func (f *GlyphFrame) Cell(r, c int) GlyphCell {
	return f.cells[r][c]
}

// shadeAlphabet maps luminance buckets to characters, visually heavy to
// light, so darker pixels read as denser glyphs.
var shadeAlphabet = [11]byte{'B', 'S', '#', '&', '@', '$', '%', '*', '!', '.', ' '}

// CharForLuminance maps a luminance sample to one of the 11 shading
// characters. The 0-255 range is split into equal-width buckets of 25,
// with 250-255 sharing the last bucket.
func CharForLuminance(lum uint8) byte {
	i := int(lum) / 25
	if i >= len(shadeAlphabet) {
		i = len(shadeAlphabet) - 1
	}
	return shadeAlphabet[i]
}
