package buffer

// Layout describes how prompt, buffer and hint occupy the terminal when the
// line wraps at a fixed column count. Rows and columns are zero based and
// relative to the row holding the prompt.
type Layout struct {
	Cols int
	// Rows is the number of terminal rows the rendered line occupies.
	Rows int
	// CursorRow and CursorCol locate the logical cursor.
	CursorRow int
	CursorCol int
	// EndRow is the row the terminal cursor rests on once everything has
	// been written, before it is moved back to the logical cursor.
	EndRow int
	// Newline is set when the cursor sits at the very end of a line that
	// exactly fills its last row; the renderer must emit a newline so the
	// cursor can be shown at the start of the next row.
	Newline bool
}

// Layout computes the wrapped geometry for the buffer behind a prompt of
// promptWidth columns, followed by hintWidth columns of hint text. It is pure
// and cheap, so callers derive it afresh on every render.
func (b *Buffer) Layout(promptWidth, cols, hintWidth int) Layout {
	return Compute(promptWidth, b.Width(), b.CursorWidth(), hintWidth, cols)
}

// Compute is Layout over plain widths.
func Compute(promptWidth, textWidth, cursorWidth, hintWidth, cols int) Layout {
	if cols <= 0 {
		cols = 1
	}
	total := promptWidth + textWidth + hintWidth
	pos := promptWidth + cursorWidth

	l := Layout{
		Cols:      cols,
		Rows:      1,
		CursorRow: pos / cols,
		CursorCol: pos % cols,
	}
	if total > 0 {
		l.Rows = (total + cols - 1) / cols
		l.EndRow = (total - 1) / cols
	}
	if pos == total && total > 0 && total%cols == 0 {
		l.Newline = true
		l.Rows++
		l.EndRow = l.Rows - 1
	}
	return l
}
