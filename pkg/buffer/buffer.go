// Package buffer holds the editable line: its characters, the cursor and the
// mapping of both onto terminal rows and columns.
package buffer

import (
	"unicode"

	"github.com/mattn/go-runewidth"
)

// Buffer is an editable sequence of runes with a cursor. The cursor is an
// index into the runes and always satisfies 0 <= cursor <= Len(); every
// method leaves that invariant intact.
type Buffer struct {
	runes  []rune
	cursor int
}

// New creates an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	return string(b.runes)
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Cursor returns the cursor offset in runes.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Empty reports whether the buffer holds no text.
func (b *Buffer) Empty() bool {
	return len(b.runes) == 0
}

// BeforeCursor returns the text left of the cursor.
func (b *Buffer) BeforeCursor() string {
	return string(b.runes[:b.cursor])
}

// AfterCursor returns the text from the cursor to the end.
func (b *Buffer) AfterCursor() string {
	return string(b.runes[b.cursor:])
}

// SetCursor moves the cursor, clamping to the valid range.
func (b *Buffer) SetCursor(pos int) {
	b.cursor = clamp(pos, 0, len(b.runes))
}

// SetContents replaces the text and puts the cursor at the end.
func (b *Buffer) SetContents(text string) {
	b.runes = []rune(text)
	b.cursor = len(b.runes)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.runes = b.runes[:0]
	b.cursor = 0
}

// Insert adds text at the cursor and moves the cursor past it.
func (b *Buffer) Insert(text string) {
	ins := []rune(text)
	if len(ins) == 0 {
		return
	}
	out := make([]rune, 0, len(b.runes)+len(ins))
	out = append(out, b.runes[:b.cursor]...)
	out = append(out, ins...)
	out = append(out, b.runes[b.cursor:]...)
	b.runes = out
	b.cursor += len(ins)
}

// InsertRune adds a single rune at the cursor.
func (b *Buffer) InsertRune(r rune) {
	b.runes = append(b.runes, 0)
	copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
	b.runes[b.cursor] = r
	b.cursor++
}

// DeleteBackward removes up to n runes left of the cursor and returns how
// many were removed.
func (b *Buffer) DeleteBackward(n int) int {
	n = clamp(n, 0, b.cursor)
	if n == 0 {
		return 0
	}
	b.runes = append(b.runes[:b.cursor-n], b.runes[b.cursor:]...)
	b.cursor -= n
	return n
}

// DeleteForward removes up to n runes at and after the cursor and returns how
// many were removed.
func (b *Buffer) DeleteForward(n int) int {
	n = clamp(n, 0, len(b.runes)-b.cursor)
	if n == 0 {
		return 0
	}
	b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+n:]...)
	return n
}

// MoveCursor shifts the cursor by delta. With clamp set a move past either end
// stops at the end; without it such a move is rejected and nothing changes.
// It reports whether the cursor moved.
func (b *Buffer) MoveCursor(delta int, clampToBounds bool) bool {
	target := b.cursor + delta
	if target < 0 || target > len(b.runes) {
		if !clampToBounds {
			return false
		}
		target = clamp(target, 0, len(b.runes))
	}
	moved := target != b.cursor
	b.cursor = target
	return moved
}

// Home moves the cursor to the start and reports whether it moved.
func (b *Buffer) Home() bool {
	return b.MoveCursor(-b.cursor, true)
}

// End moves the cursor to the end and reports whether it moved.
func (b *Buffer) End() bool {
	return b.MoveCursor(len(b.runes)-b.cursor, true)
}

// KillToEnd deletes from the cursor to the end of the line.
func (b *Buffer) KillToEnd() bool {
	if b.cursor == len(b.runes) {
		return false
	}
	b.runes = b.runes[:b.cursor]
	return true
}

// KillLine deletes the whole line.
func (b *Buffer) KillLine() bool {
	if len(b.runes) == 0 {
		return false
	}
	b.Clear()
	return true
}

// DeleteWordBackward deletes the space-delimited word left of the cursor,
// together with any spaces between it and the cursor.
func (b *Buffer) DeleteWordBackward() bool {
	start := b.cursor
	for start > 0 && b.runes[start-1] == ' ' {
		start--
	}
	for start > 0 && b.runes[start-1] != ' ' {
		start--
	}
	return b.DeleteBackward(b.cursor-start) > 0
}

// WordLeft moves the cursor to the start of the previous word.
func (b *Buffer) WordLeft() bool {
	pos := b.cursor
	for pos > 0 && unicode.IsSpace(b.runes[pos-1]) {
		pos--
	}
	for pos > 0 && !unicode.IsSpace(b.runes[pos-1]) {
		pos--
	}
	return b.MoveCursor(pos-b.cursor, true)
}

// WordRight moves the cursor past the end of the next word.
func (b *Buffer) WordRight() bool {
	pos := b.cursor
	for pos < len(b.runes) && unicode.IsSpace(b.runes[pos]) {
		pos++
	}
	for pos < len(b.runes) && !unicode.IsSpace(b.runes[pos]) {
		pos++
	}
	return b.MoveCursor(pos-b.cursor, true)
}

// Transpose swaps the rune before the cursor with the one under it and
// advances the cursor, unless it sits on the last rune.
func (b *Buffer) Transpose() bool {
	if b.cursor == 0 || b.cursor >= len(b.runes) {
		return false
	}
	b.runes[b.cursor-1], b.runes[b.cursor] = b.runes[b.cursor], b.runes[b.cursor-1]
	if b.cursor != len(b.runes)-1 {
		b.cursor++
	}
	return true
}

// Width returns the display width of the whole buffer in columns.
func (b *Buffer) Width() int {
	return runesWidth(b.runes)
}

// CursorWidth returns the display width of the text left of the cursor.
func (b *Buffer) CursorWidth() int {
	return runesWidth(b.runes[:b.cursor])
}

// Runes returns a copy of the buffer contents.
func (b *Buffer) Runes() []rune {
	return append([]rune(nil), b.runes...)
}

func runesWidth(rs []rune) int {
	w := 0
	for _, r := range rs {
		w += runewidth.RuneWidth(r)
	}
	return w
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
