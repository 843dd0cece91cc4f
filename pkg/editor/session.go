package editor

import (
	"io"

	"github.com/google/uuid"

	"github.com/kcaldas/linenoise/pkg/buffer"
	"github.com/kcaldas/linenoise/pkg/completion"
	"github.com/kcaldas/linenoise/pkg/history"
	"github.com/kcaldas/linenoise/pkg/keys"
	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/render"
)

// Policy holds the key policies that vary between programs.
type Policy struct {
	// CancelKey is the Ctrl letter that cancels the session. Zero disables it.
	CancelKey byte
	// HotKey ends the session and returns the line with the key appended.
	// Printable runes match typed characters, 0x01-0x1a match Ctrl letters.
	// Zero disables it.
	HotKey rune
	// EOFOnCtrlD ends the session with StatusEOF on Ctrl-D with an empty line.
	EOFOnCtrlD bool
	// IgnoreEmpty refuses Enter on an empty line.
	IgnoreEmpty bool
	// AutoHistory appends accepted non-empty lines to the history.
	AutoHistory bool
}

// DefaultPolicy cancels on Ctrl-C, ends input on Ctrl-D and records history.
func DefaultPolicy() Policy {
	return Policy{
		CancelKey:   keys.CtrlC,
		EOFOnCtrlD:  true,
		AutoHistory: true,
	}
}

// SessionConfig is everything a Session needs. Only Prompt is required.
type SessionConfig struct {
	Prompt    string
	Initial   string
	Cols      int
	History   *history.List
	Completer completion.Completer
	Hinter    Hinter
	Renderer  *render.Renderer
	Decoder   *keys.Decoder
	Policy    Policy
	// Bell is called when an edit is impossible.
	Bell func()
	// ClearScreen is called for Ctrl-L before the line is redrawn.
	ClearScreen func() error
	Logger      logging.Logger
}

// Session edits one line. It consumes key events, updates the buffer and
// browsing state, and repaints after each event. A finished session ignores
// further input.
type Session struct {
	id     string
	cfg    SessionConfig
	buf    *buffer.Buffer
	nav    *history.Navigator
	comp   *completion.Engine
	dec    *keys.Decoder
	render *render.Renderer
	logger logging.Logger

	mode     Mode
	status   Status
	leftover []byte
	err      error
}

// NewSession creates a session. Nothing is drawn until Start.
func NewSession(cfg SessionConfig) *Session {
	id := uuid.NewString()
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDisabledLogger()
	}
	logger := logging.NewSessionLogger(cfg.Logger, id)
	if cfg.History == nil {
		cfg.History = history.New(history.DefaultMax)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(io.Discard)
	}
	if cfg.Decoder == nil {
		cfg.Decoder = keys.NewDecoder(keys.WithLogger(logger))
	}
	if cfg.Bell == nil {
		cfg.Bell = func() {}
	}

	s := &Session{
		id:     id,
		cfg:    cfg,
		buf:    buffer.New(),
		nav:    history.NewNavigator(cfg.History),
		comp:   completion.New(cfg.Completer, completion.WithLogger(logger)),
		dec:    cfg.Decoder,
		render: cfg.Renderer,
		logger: logger,
	}
	s.buf.SetContents(cfg.Initial)
	return s
}

// ID identifies the session in logs and events.
func (s *Session) ID() string { return s.id }

// Prompt returns the prompt text.
func (s *Session) Prompt() string { return s.cfg.Prompt }

// Status returns the current status.
func (s *Session) Status() Status { return s.status }

// Mode returns the browsing mode.
func (s *Session) Mode() Mode { return s.mode }

// Done reports whether the session finished.
func (s *Session) Done() bool { return s.status.Done() }

// Line returns the buffer contents.
func (s *Session) Line() string { return s.buf.String() }

// Buffer exposes the line buffer.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

// Leftover returns bytes fed after the session finished. They belong to the
// next session.
func (s *Session) Leftover() []byte { return s.leftover }

// Err returns the first output error, if any.
func (s *Session) Err() error { return s.err }

// Start draws the prompt and any initial text.
func (s *Session) Start() error {
	s.logger.Debug("session started", "prompt", s.cfg.Prompt, "cols", s.cfg.Cols)
	s.render.Reset()
	s.repaint()
	return s.err
}

// Refresh repaints the line even if nothing changed, e.g. after other
// output went to the terminal.
func (s *Session) Refresh() error {
	if s.Done() {
		return nil
	}
	s.render.Reset()
	s.repaint()
	return s.err
}

// SetCols changes the wrap width and repaints.
func (s *Session) SetCols(cols int) {
	if cols == s.cfg.Cols {
		return
	}
	s.cfg.Cols = cols
	if !s.Done() {
		s.repaint()
	}
}

// Feed decodes p and handles every completed event. Bytes after the event
// that finished the session are kept in Leftover.
func (s *Session) Feed(p []byte) Status {
	for i, b := range p {
		if s.Done() {
			s.leftover = append(s.leftover, p[i:]...)
			break
		}
		if ev, ok := s.dec.Feed(b); ok {
			s.Handle(ev)
		}
		if ev, ok := s.dec.Queued(); ok {
			s.Handle(ev)
		}
	}
	return s.status
}

// Expire tells the session the escape timeout passed without input.
func (s *Session) Expire() Status {
	if s.Done() {
		return s.status
	}
	if ev, ok := s.dec.Expire(); ok {
		return s.Handle(ev)
	}
	return s.status
}

// Handle applies one key event.
func (s *Session) Handle(ev keys.Event) Status {
	if s.Done() {
		s.logger.Debug("event after session end", "event", ev.String())
		return s.status
	}

	switch s.mode {
	case ModeCompletion:
		if s.handleCompletion(ev) {
			s.repaint()
			return s.status
		}
	case ModeHistory:
		if !isHistoryKey(ev) {
			// Whatever entry is shown becomes ordinary content.
			s.nav.Reset()
			s.mode = ModeNormal
		}
	}

	s.handleNormal(ev)
	if !s.Done() {
		s.repaint()
	}
	return s.status
}

func isHistoryKey(ev keys.Event) bool {
	return ev.Kind == keys.KindUp || ev.Kind == keys.KindDown ||
		ev.IsCtrl(keys.CtrlP) || ev.IsCtrl(keys.CtrlN)
}

// handleCompletion reports whether ev was consumed by the completion browser.
func (s *Session) handleCompletion(ev keys.Event) bool {
	switch ev.Kind {
	case keys.KindTab:
		s.buf.SetContents(s.comp.Next())
		return true
	case keys.KindEscape:
		s.buf.SetContents(s.comp.Cancel())
		s.mode = ModeNormal
		return true
	}
	s.comp.Commit()
	s.mode = ModeNormal
	return false
}

func (s *Session) handleNormal(ev keys.Event) {
	switch ev.Kind {
	case keys.KindEnter:
		s.accept()
	case keys.KindRune:
		if s.isHotKey(ev) {
			s.hotKey()
			return
		}
		s.buf.InsertRune(ev.Rune)
		s.changed()
	case keys.KindBackspace:
		s.backspace()
	case keys.KindDelete:
		s.deleteForward()
	case keys.KindLeft:
		s.buf.MoveCursor(-1, false)
	case keys.KindRight:
		s.buf.MoveCursor(1, false)
	case keys.KindHome:
		s.buf.Home()
	case keys.KindEnd:
		s.buf.End()
	case keys.KindWordLeft:
		s.buf.WordLeft()
	case keys.KindWordRight:
		s.buf.WordRight()
	case keys.KindUp:
		s.historyPrev()
	case keys.KindDown:
		s.historyNext()
	case keys.KindTab:
		s.startCompletion()
	case keys.KindCtrl:
		s.handleCtrl(ev)
	case keys.KindEOF:
		s.finish(StatusEOF)
	case keys.KindEscape:
	default:
		s.logger.Debug("ignoring key", "event", ev.String())
	}
}

func (s *Session) handleCtrl(ev keys.Event) {
	if s.isHotKey(ev) {
		s.hotKey()
		return
	}
	if s.cfg.Policy.CancelKey != 0 && ev.IsCtrl(s.cfg.Policy.CancelKey) {
		s.finish(StatusCancelled)
		return
	}

	switch ev.Ctrl {
	case keys.CtrlA:
		s.buf.Home()
	case keys.CtrlE:
		s.buf.End()
	case keys.CtrlB:
		s.buf.MoveCursor(-1, false)
	case keys.CtrlF:
		s.buf.MoveCursor(1, false)
	case keys.CtrlD:
		if !s.buf.Empty() {
			s.deleteForward()
			return
		}
		if s.cfg.Policy.EOFOnCtrlD {
			s.finish(StatusEOF)
			return
		}
		s.bell()
	case keys.CtrlH:
		s.backspace()
	case keys.CtrlK:
		s.edited(s.buf.KillToEnd())
	case keys.CtrlU:
		s.edited(s.buf.KillLine())
	case keys.CtrlW:
		s.edited(s.buf.DeleteWordBackward())
	case keys.CtrlT:
		s.edited(s.buf.Transpose())
	case keys.CtrlP:
		s.historyPrev()
	case keys.CtrlN:
		s.historyNext()
	case keys.CtrlL:
		s.clearScreen()
	default:
		s.logger.Debug("unbound control key", "event", ev.String())
	}
}

func (s *Session) isHotKey(ev keys.Event) bool {
	hk := s.cfg.Policy.HotKey
	switch {
	case hk == 0:
		return false
	case hk >= 0x01 && hk <= 0x1a:
		return ev.Kind == keys.KindCtrl && ev.Ctrl == byte(hk)-1+'A'
	}
	return ev.Kind == keys.KindRune && ev.Rune == hk
}

// hotKey ends the session with the key appended to the returned line but
// not drawn. The line is not recorded in history.
func (s *Session) hotKey() {
	s.finish(StatusAccepted)
	s.buf.End()
	s.buf.InsertRune(s.cfg.Policy.HotKey)
}

func (s *Session) accept() {
	line := s.buf.String()
	if line == "" && s.cfg.Policy.IgnoreEmpty {
		s.bell()
		return
	}
	if s.cfg.Policy.AutoHistory && line != "" {
		s.cfg.History.Append(line)
	}
	s.finish(StatusAccepted)
}

func (s *Session) backspace() {
	s.edited(s.buf.DeleteBackward(1) > 0)
}

func (s *Session) deleteForward() {
	s.edited(s.buf.DeleteForward(1) > 0)
}

// edited records the outcome of an edit: content changes invalidate the
// completion candidates, impossible edits ring the bell.
func (s *Session) edited(ok bool) {
	if !ok {
		s.bell()
		return
	}
	s.changed()
}

func (s *Session) changed() {
	s.comp.Invalidate()
}

func (s *Session) historyPrev() {
	line, ok := s.nav.Prev(s.buf.String())
	if !ok {
		s.bell()
		return
	}
	s.mode = ModeHistory
	s.buf.SetContents(line)
	s.changed()
}

func (s *Session) historyNext() {
	line, ok := s.nav.Next()
	if !ok {
		s.mode = ModeNormal
		return
	}
	if !s.nav.Active() {
		s.mode = ModeNormal
	} else {
		s.mode = ModeHistory
	}
	s.buf.SetContents(line)
	s.changed()
}

func (s *Session) startCompletion() {
	candidate, ok := s.comp.Start(s.buf.String())
	if !ok {
		s.bell()
		return
	}
	s.mode = ModeCompletion
	s.buf.SetContents(candidate)
}

func (s *Session) clearScreen() {
	if s.cfg.ClearScreen != nil {
		if err := s.cfg.ClearScreen(); err != nil {
			s.fail(err)
			return
		}
	}
	s.render.Reset()
}

func (s *Session) bell() {
	s.cfg.Bell()
}

func (s *Session) frame() render.Frame {
	return render.Frame{
		Prompt: s.cfg.Prompt,
		Text:   s.buf.String(),
		Cursor: s.buf.Cursor(),
		Hint:   safeHint(s.cfg.Hinter, s.buf.String(), s.logger),
		Cols:   s.cfg.Cols,
	}
}

func (s *Session) repaint() {
	if err := s.render.Render(s.frame()); err != nil {
		s.fail(err)
	}
}

func (s *Session) finish(status Status) {
	s.status = status
	s.mode = ModeNormal
	s.nav.Reset()
	if err := s.render.Finish(render.Frame{
		Prompt: s.cfg.Prompt,
		Text:   s.buf.String(),
		Cols:   s.cfg.Cols,
	}); err != nil {
		s.fail(err)
	}
	s.logger.Debug("session finished", "status", status.String(), "length", s.buf.Len())
}

// abort ends an unfinished session as cancelled, moving the terminal past the
// edited line.
func (s *Session) abort() {
	if !s.Done() {
		s.finish(StatusCancelled)
	}
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
		logging.LogError(s.logger, "terminal output failed", err)
	}
}
