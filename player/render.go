package player

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// maxPaints is the bounded paint pool size: one handle per distinct
// palette key, so 256 covers the extended palette exactly.
const maxPaints = 256

// TermRenderer paints glyph frames as ANSI escape sequences. Paint
// handles index a bounded pool of precomputed SGR sequences, allocated
// lazily through the PaintAllocator contract.
type TermRenderer struct {
	mu   sync.Mutex
	out  io.Writer
	mode PaletteMode

	// seqs[0] is reserved for PaintNone
	seqs []string
}

// NewTermRenderer creates a renderer writing to out, allocating paints
// for the given palette mode.
func NewTermRenderer(out io.Writer, mode PaletteMode) *TermRenderer {
	return &TermRenderer{
		out:  out,
		mode: mode,
		seqs: []string{"\x1b[0m"},
	}
}

// AllocPaint allocates a paint handle for a palette key. The pool is
// bounded; past maxPaints allocation fails with ErrPaintPoolExhausted.
func (r *TermRenderer) AllocPaint(key uint8) (Paint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.seqs) > maxPaints {
		return PaintNone, ErrPaintPoolExhausted
	}

	var seq string
	if r.mode == Palette8 {
		seq = fmt.Sprintf("\x1b[3%dm", key%8)
	} else {
		seq = fmt.Sprintf("\x1b[38;5;%dm", key)
	}

	r.seqs = append(r.seqs, seq)
	return Paint(len(r.seqs) - 1), nil
}

// PaintGrid paints a full frame from the home position. The write is
// bracketed in a synchronized update so the terminal swaps it in one
// piece, and consecutive cells sharing a paint reuse the active SGR.
func (r *TermRenderer) PaintGrid(f *GlyphFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString("\x1b[?2026h")
	buf.WriteString("\x1b[H")

	current := PaintNone
	buf.WriteString(r.seqs[0])

	for row := 0; row < f.Rows(); row++ {
		if row > 0 {
			buf.WriteString("\r\n")
		}
		for _, cell := range f.Row(row) {
			if cell.Paint != current {
				if int(cell.Paint) < len(r.seqs) {
					buf.WriteString(r.seqs[cell.Paint])
				}
				current = cell.Paint
			}
			buf.WriteByte(cell.Char)
		}
	}

	buf.WriteString("\x1b[0m")
	buf.WriteString("\x1b[?2026l")

	_, err := r.out.Write(buf.Bytes())
	return err
}

// PaintOverlay writes text at a 1-indexed cell position, preserving the
// cursor so the next grid paint is unaffected.
func (r *TermRenderer) PaintOverlay(row, col int, text string, p Paint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if row < 1 {
		row = 1
	}
	if col < 1 {
		col = 1
	}

	var buf bytes.Buffer
	buf.WriteString("\x1b7")
	fmt.Fprintf(&buf, "\x1b[%d;%dH", row, col)
	if int(p) > 0 && int(p) < len(r.seqs) {
		buf.WriteString(r.seqs[p])
	}
	buf.WriteString(text)
	buf.WriteString("\x1b[0m")
	buf.WriteString("\x1b8")

	_, err := r.out.Write(buf.Bytes())
	return err
}

// GridSize returns the current terminal size in cells
func (r *TermRenderer) GridSize() (rows, cols int, err error) {
	c, ro, err := terminalSize()
	if err != nil {
		return 0, 0, err
	}
	return ro, c, nil
}

// Setup hides the cursor and clears the screen for playback
func (r *TermRenderer) Setup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.out.Write([]byte("\x1b[2J\x1b[H\x1b[?25l"))
	return err
}

// Restore undoes Setup: attributes reset, cursor shown. Always attempted
// on the shutdown path, whatever caused it.
func (r *TermRenderer) Restore() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.out.Write([]byte("\x1b[0m\x1b[?25h\x1b[2J\x1b[H"))
	return err
}
