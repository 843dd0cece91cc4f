// Package render repaints the edit line. It keeps the geometry of what it drew
// last so that a shorter or longer redraw never leaves stale rows behind.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/kcaldas/linenoise/pkg/buffer"
	"github.com/kcaldas/linenoise/pkg/logging"
)

// DefaultCols is used when a frame carries no usable width.
const DefaultCols = 80

// Frame is everything needed to draw the line once.
type Frame struct {
	Prompt string
	Text   string
	// Cursor is a rune offset into Text.
	Cursor int
	Hint   *Hint
	Cols   int
}

func (f Frame) equal(o Frame) bool {
	return f.Prompt == o.Prompt && f.Text == o.Text && f.Cursor == o.Cursor &&
		f.Cols == o.Cols && f.Hint.equal(o.Hint)
}

// Renderer draws frames to an output stream.
type Renderer struct {
	out       io.Writer
	multiline bool
	styles    styler
	logger    logging.Logger

	// rows and cursorRow describe the region painted by the last Render,
	// relative to its first row.
	rows      int
	cursorRow int
	// lineStart is set when the last frame ended with a forced newline.
	lineStart bool
	last      Frame
	drawn     bool
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	multiline bool
	profile   termenv.Profile
	logger    logging.Logger
}

// WithMultiline wraps long lines over several rows instead of scrolling
// horizontally.
func WithMultiline(enabled bool) Option {
	return func(c *rendererConfig) {
		c.multiline = enabled
	}
}

// WithColorProfile sets the profile used to style hints.
func WithColorProfile(p termenv.Profile) Option {
	return func(c *rendererConfig) {
		c.profile = p
	}
}

// WithLogger sets the renderer logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *rendererConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Renderer writing to out.
func New(out io.Writer, opts ...Option) *Renderer {
	cfg := rendererConfig{
		profile: termenv.ANSI,
		logger:  logging.NewDisabledLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Renderer{
		out:       out,
		multiline: cfg.multiline,
		styles:    newStyler(lipgloss.NewRenderer(out), cfg.profile),
		logger:    cfg.logger,
	}
}

// SetMultiline switches mode. The next Render repaints from scratch.
func (r *Renderer) SetMultiline(enabled bool) {
	if r.multiline != enabled {
		r.multiline = enabled
		r.drawn = false
	}
}

// Multiline reports the current mode.
func (r *Renderer) Multiline() bool {
	return r.multiline
}

// Rows returns how many rows the last frame occupied.
func (r *Renderer) Rows() int {
	return r.rows
}

// Reset forgets the painted region. The next Render starts a new region on
// the row the terminal cursor is on.
func (r *Renderer) Reset() {
	r.rows = 0
	r.cursorRow = 0
	r.lineStart = false
	r.drawn = false
}

// Invalidate forces the next Render to repaint even if the frame is unchanged.
func (r *Renderer) Invalidate() {
	r.drawn = false
}

// Render paints f, replacing whatever the previous frame left on screen.
// An unchanged frame writes nothing.
func (r *Renderer) Render(f Frame) error {
	if f.Cols <= 0 {
		f.Cols = DefaultCols
	}
	if r.drawn && f.equal(r.last) {
		return nil
	}

	var seq string
	if r.multiline {
		seq = r.multilineSeq(f)
	} else {
		seq = r.singleLineSeq(f)
	}
	r.last = f
	r.drawn = true
	return r.write(seq)
}

// Finish repaints f without its hint, leaves the cursor after the text and
// moves to a fresh line. The renderer is reset afterwards.
func (r *Renderer) Finish(f Frame) error {
	f.Hint = nil
	f.Cursor = len([]rune(f.Text))
	if err := r.Render(f); err != nil {
		return err
	}
	onFreshLine := r.multiline && r.lineStart
	r.Reset()
	if onFreshLine {
		return nil
	}
	return r.write("\r\n")
}

func (r *Renderer) write(seq string) error {
	if seq == "" {
		return nil
	}
	if _, err := io.WriteString(r.out, seq); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func (r *Renderer) multilineSeq(f Frame) string {
	text := []rune(f.Text)
	cursor := min(max(f.Cursor, 0), len(text))
	promptW := ansi.StringWidth(f.Prompt)
	hintText := ""
	if f.Hint != nil {
		hintText = f.Hint.Text
	}
	l := buffer.Compute(promptW, runesWidth(text), runesWidth(text[:cursor]),
		runewidth.StringWidth(hintText), f.Cols)

	var sb strings.Builder
	// Go to the last row of the old region, then clear upwards.
	if down := r.rows - 1 - r.cursorRow; down > 0 {
		sb.WriteString(ansi.CursorDown(down))
	}
	for i := 0; i < r.rows-1; i++ {
		sb.WriteString("\r" + ansi.EraseLineRight + ansi.CursorUp(1))
	}
	sb.WriteString("\r" + ansi.EraseLineRight)

	sb.WriteString(f.Prompt)
	sb.WriteString(string(text))
	if hintText != "" {
		sb.WriteString(r.styles.render(f.Hint, hintText))
	}
	if l.Newline {
		sb.WriteString("\r\n")
	}

	if up := l.EndRow - l.CursorRow; up > 0 {
		sb.WriteString(ansi.CursorUp(up))
	}
	sb.WriteString("\r")
	if l.CursorCol > 0 {
		sb.WriteString(ansi.CursorForward(l.CursorCol))
	}

	r.logger.Debug("multiline refresh", "old_rows", r.rows, "rows", l.Rows,
		"cursor_row", l.CursorRow, "cursor_col", l.CursorCol)
	r.rows = l.Rows
	r.cursorRow = l.CursorRow
	r.lineStart = l.Newline
	return sb.String()
}

func (r *Renderer) singleLineSeq(f Frame) string {
	text := []rune(f.Text)
	cursor := min(max(f.Cursor, 0), len(text))
	promptW := ansi.StringWidth(f.Prompt)

	// Scroll so the cursor stays visible, then trim what runs off the right.
	start, end := 0, len(text)
	posW := runesWidth(text[:cursor])
	for start < cursor && promptW+posW >= f.Cols {
		start++
		posW = runesWidth(text[start:cursor])
	}
	visW := runesWidth(text[start:end])
	for end > cursor && promptW+visW >= f.Cols {
		end--
		visW = runesWidth(text[start:end])
	}

	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(f.Prompt)
	sb.WriteString(string(text[start:end]))
	if f.Hint != nil && f.Hint.Text != "" {
		room := f.Cols - promptW - visW - 1
		if room > 0 {
			sb.WriteString(r.styles.render(f.Hint, runewidth.Truncate(f.Hint.Text, room, "")))
		}
	}
	sb.WriteString(ansi.EraseLineRight)
	sb.WriteString("\r")
	if col := promptW + posW; col > 0 {
		sb.WriteString(ansi.CursorForward(col))
	}

	r.rows = 1
	r.cursorRow = 0
	return sb.String()
}

func runesWidth(rs []rune) int {
	w := 0
	for _, r := range rs {
		w += runewidth.RuneWidth(r)
	}
	return w
}
