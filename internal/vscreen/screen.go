// Package vscreen is a minimal virtual terminal for tests. It interprets the
// subset of output the line editor produces (carriage return, line feed,
// autowrap and a handful of CSI sequences) so tests can assert on what a user
// would see instead of on raw escape bytes.
package vscreen

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const wideTail = -1

type parseState int

const (
	stGround parseState = iota
	stEsc
	stCSI
)

// Screen is a fixed-size grid with a cursor. It implements io.Writer.
type Screen struct {
	cols, rows int
	cells      [][]rune
	row, col   int
	wrapNext   bool

	state   parseState
	params  []byte
	pending []byte

	bells    int
	scrolled int
}

// New creates a blank screen of the given size.
func New(cols, rows int) *Screen {
	s := &Screen{cols: cols, rows: rows}
	s.cells = make([][]rune, rows)
	for i := range s.cells {
		s.cells[i] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []rune {
	r := make([]rune, cols)
	for i := range r {
		r[i] = ' '
	}
	return r
}

// Write interprets p. Sequences split across writes are carried over.
func (s *Screen) Write(p []byte) (int, error) {
	for _, b := range p {
		s.feed(b)
	}
	return len(p), nil
}

func (s *Screen) feed(b byte) {
	switch s.state {
	case stEsc:
		if b == '[' {
			s.state = stCSI
			s.params = s.params[:0]
			return
		}
		s.state = stGround
		return
	case stCSI:
		if b >= 0x40 && b <= 0x7e {
			s.csi(b, string(s.params))
			s.state = stGround
			return
		}
		s.params = append(s.params, b)
		return
	}

	if len(s.pending) > 0 || b >= 0x80 {
		s.pending = append(s.pending, b)
		if !utf8.FullRune(s.pending) {
			return
		}
		r, _ := utf8.DecodeRune(s.pending)
		s.pending = s.pending[:0]
		s.put(r)
		return
	}

	switch b {
	case 0x1b:
		s.state = stEsc
	case '\r':
		s.col = 0
		s.wrapNext = false
	case '\n':
		s.lineFeed()
		s.wrapNext = false
	case '\a':
		s.bells++
	case '\b':
		if s.col > 0 {
			s.col--
		}
		s.wrapNext = false
	default:
		if b >= 0x20 {
			s.put(rune(b))
		}
	}
}

func (s *Screen) lineFeed() {
	if s.row < s.rows-1 {
		s.row++
		return
	}
	copy(s.cells, s.cells[1:])
	s.cells[s.rows-1] = blankRow(s.cols)
	s.scrolled++
}

func (s *Screen) put(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if s.wrapNext || s.col+w > s.cols {
		s.col = 0
		s.lineFeed()
		s.wrapNext = false
	}
	s.cells[s.row][s.col] = r
	if w == 2 {
		s.cells[s.row][s.col+1] = wideTail
	}
	s.col += w
	if s.col >= s.cols {
		s.col = s.cols - 1
		s.wrapNext = true
	}
}

func (s *Screen) csi(final byte, params string) {
	n := 1
	if v, err := strconv.Atoi(params); err == nil && v > 0 {
		n = v
	}
	switch final {
	case 'A':
		s.row = max(s.row-n, 0)
	case 'B':
		s.row = min(s.row+n, s.rows-1)
	case 'C':
		s.col = min(s.col+n, s.cols-1)
	case 'D':
		s.col = max(s.col-n, 0)
	case 'G':
		s.col = min(n-1, s.cols-1)
	case 'H':
		s.row, s.col = 0, 0
		if parts := strings.Split(params, ";"); len(parts) == 2 {
			r, _ := strconv.Atoi(parts[0])
			c, _ := strconv.Atoi(parts[1])
			s.row = min(max(r-1, 0), s.rows-1)
			s.col = min(max(c-1, 0), s.cols-1)
		}
	case 'K':
		s.eraseLine(params)
	case 'J':
		s.eraseScreen(params)
	default:
		// SGR, mode switches and reports do not move anything.
		return
	}
	s.wrapNext = false
}

func (s *Screen) eraseLine(mode string) {
	line := s.cells[s.row]
	switch mode {
	case "", "0":
		for i := s.col; i < s.cols; i++ {
			line[i] = ' '
		}
	case "1":
		for i := 0; i <= s.col; i++ {
			line[i] = ' '
		}
	case "2":
		s.cells[s.row] = blankRow(s.cols)
	}
}

func (s *Screen) eraseScreen(mode string) {
	switch mode {
	case "", "0":
		s.eraseLine("0")
		for i := s.row + 1; i < s.rows; i++ {
			s.cells[i] = blankRow(s.cols)
		}
	case "2", "3":
		for i := range s.cells {
			s.cells[i] = blankRow(s.cols)
		}
	}
}

// Line returns row i with trailing blanks removed.
func (s *Screen) Line(i int) string {
	if i < 0 || i >= s.rows {
		return ""
	}
	var sb strings.Builder
	for _, r := range s.cells[i] {
		if r == wideTail {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), " ")
}

// Lines returns every row up to the last non-blank one.
func (s *Screen) Lines() []string {
	last := -1
	lines := make([]string, s.rows)
	for i := range lines {
		lines[i] = s.Line(i)
		if lines[i] != "" {
			last = i
		}
	}
	return lines[:last+1]
}

// String joins Lines with newlines.
func (s *Screen) String() string {
	return strings.Join(s.Lines(), "\n")
}

// Cursor returns the cursor row and column.
func (s *Screen) Cursor() (row, col int) {
	return s.row, s.col
}

// Bells counts BEL bytes written so far.
func (s *Screen) Bells() int {
	return s.bells
}

// Scrolled counts lines pushed off the top.
func (s *Screen) Scrolled() int {
	return s.scrolled
}

// Cols returns the screen width.
func (s *Screen) Cols() int {
	return s.cols
}
