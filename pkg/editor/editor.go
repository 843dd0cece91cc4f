// Package editor edits lines on a terminal: in raw mode with history,
// completion and hints when it can, as plain line reads when it cannot.
package editor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muesli/termenv"

	"github.com/kcaldas/linenoise/pkg/completion"
	"github.com/kcaldas/linenoise/pkg/events"
	"github.com/kcaldas/linenoise/pkg/history"
	"github.com/kcaldas/linenoise/pkg/keys"
	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/render"
	"github.com/kcaldas/linenoise/pkg/terminal"
)

const (
	// DefaultEscapeTimeout is how long a lone ESC waits for the rest of a
	// sequence before it counts as the Escape key.
	DefaultEscapeTimeout = 50 * time.Millisecond
	// DefaultPollInterval is how often the poll function and context are
	// checked while no input arrives.
	DefaultPollInterval = 10 * time.Millisecond

	readChunk = 256
)

// PollFunc is called while the read loop waits for input. Returning false
// stops the loop.
type PollFunc func() bool

// Editor reads lines from one terminal. It keeps the history, the callbacks
// and the decoder between lines. An Editor runs at most one session at a time
// and is not safe for concurrent use.
type Editor struct {
	term          *terminal.Driver
	decoder       *keys.Decoder
	renderer      *render.Renderer
	history       *history.List
	completer     completion.Completer
	hinter        Hinter
	poll          PollFunc
	policy        Policy
	escapeTimeout time.Duration
	pollInterval  time.Duration
	publisher     events.Publisher
	logger        logging.Logger

	termOpts  []terminal.Option
	multiline bool
	profile   termenv.Profile

	fallback  *bufio.Reader
	pending   []byte
	active    *Session
	release   func()
	lastInput time.Time
}

// Option configures an Editor.
type Option func(*Editor)

// WithHistory shares a history list with the editor.
func WithHistory(list *history.List) Option {
	return func(e *Editor) {
		if list != nil {
			e.history = list
		}
	}
}

// WithCompleter sets the Tab completion source.
func WithCompleter(c completion.Completer) Option {
	return func(e *Editor) { e.completer = c }
}

// WithHinter sets the hint source.
func WithHinter(h Hinter) Option {
	return func(e *Editor) { e.hinter = h }
}

// WithPoll sets the function called while waiting for input.
func WithPoll(fn PollFunc) Option {
	return func(e *Editor) { e.poll = fn }
}

// WithMultiline wraps long lines instead of scrolling them.
func WithMultiline(enabled bool) Option {
	return func(e *Editor) { e.multiline = enabled }
}

// WithPolicy replaces the whole key policy.
func WithPolicy(p Policy) Option {
	return func(e *Editor) { e.policy = p }
}

// WithCancelKey sets the Ctrl letter that cancels a line; 0 disables it.
func WithCancelKey(letter byte) Option {
	return func(e *Editor) {
		if letter != 0 {
			letter = keys.Ctrl(letter).Ctrl
		}
		e.policy.CancelKey = letter
	}
}

// WithHotKey sets a key that ends the line and is appended to it.
func WithHotKey(key rune) Option {
	return func(e *Editor) { e.policy.HotKey = key }
}

// WithEOFOnCtrlD controls whether Ctrl-D on an empty line ends input.
func WithEOFOnCtrlD(enabled bool) Option {
	return func(e *Editor) { e.policy.EOFOnCtrlD = enabled }
}

// WithIgnoreEmpty makes Enter on an empty line ring the bell instead of
// returning it.
func WithIgnoreEmpty(enabled bool) Option {
	return func(e *Editor) { e.policy.IgnoreEmpty = enabled }
}

// WithAutoHistory controls whether accepted lines are recorded.
func WithAutoHistory(enabled bool) Option {
	return func(e *Editor) { e.policy.AutoHistory = enabled }
}

// WithEscapeTimeout sets how long an incomplete escape sequence may wait.
func WithEscapeTimeout(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.escapeTimeout = d
		}
	}
}

// WithPollInterval sets how often the poll function runs while idle.
func WithPollInterval(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithPublisher publishes LineAccepted and SessionEnded events.
func WithPublisher(p events.Publisher) Option {
	return func(e *Editor) { e.publisher = p }
}

// WithColorProfile sets the color profile used for hints.
func WithColorProfile(p termenv.Profile) Option {
	return func(e *Editor) { e.profile = p }
}

// WithTerminalOptions passes options to the terminal driver.
func WithTerminalOptions(opts ...terminal.Option) Option {
	return func(e *Editor) { e.termOpts = append(e.termOpts, opts...) }
}

// WithLogger sets the editor logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Editor reading in and drawing on out.
func New(in, out *os.File, opts ...Option) *Editor {
	e := &Editor{
		history:       history.New(history.DefaultMax),
		policy:        DefaultPolicy(),
		escapeTimeout: DefaultEscapeTimeout,
		pollInterval:  DefaultPollInterval,
		profile:       termenv.ANSI,
		logger:        logging.NewDisabledLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.term = terminal.New(in, out, append([]terminal.Option{terminal.WithLogger(e.logger)}, e.termOpts...)...)
	e.decoder = keys.NewDecoder(keys.WithLogger(e.logger))
	e.renderer = render.New(e.term,
		render.WithMultiline(e.multiline),
		render.WithColorProfile(e.profile),
		render.WithLogger(e.logger))
	return e
}

// Terminal exposes the driver.
func (e *Editor) Terminal() *terminal.Driver { return e.term }

// History returns the history list.
func (e *Editor) History() *history.List { return e.history }

// SetCompleter replaces the completion source for later sessions.
func (e *Editor) SetCompleter(c completion.Completer) { e.completer = c }

// SetHinter replaces the hint source for later sessions.
func (e *Editor) SetHinter(h Hinter) { e.hinter = h }

// SetPoll replaces the poll function.
func (e *Editor) SetPoll(fn PollFunc) { e.poll = fn }

// SetHotKey changes the hot key; 0 disables it.
func (e *Editor) SetHotKey(key rune) { e.policy.HotKey = key }

// SetAutoHistory controls whether accepted lines are recorded.
func (e *Editor) SetAutoHistory(enabled bool) { e.policy.AutoHistory = enabled }

// SetMultiline switches between wrapping and scrolling.
func (e *Editor) SetMultiline(enabled bool) {
	e.multiline = enabled
	e.renderer.SetMultiline(enabled)
}

// Multiline reports the render mode.
func (e *Editor) Multiline() bool { return e.multiline }

// ReadLine reads one line. It returns io.EOF at end of input and
// ErrCancelled when the cancel key was pressed. The terminal is always back
// in its original mode when ReadLine returns.
func (e *Editor) ReadLine(ctx context.Context, prompt string) (string, error) {
	return e.Edit(ctx, prompt, "")
}

// Edit is ReadLine with the buffer initialised to initial.
func (e *Editor) Edit(ctx context.Context, prompt, initial string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !e.term.IsTerminal() {
		return e.readFallback(prompt, false)
	}
	if e.term.Unsupported() {
		return e.readFallback(prompt, true)
	}

	s, err := e.Begin(prompt, initial)
	if errors.Is(err, terminal.ErrTerminalUnsupported) {
		return e.readFallback(prompt, true)
	}
	if err != nil {
		return "", err
	}

	if runErr := e.run(ctx, s); runErr != nil {
		s.abort()
		_, _ = e.End(s)
		return "", runErr
	}
	return e.End(s)
}

// run is the blocking read loop.
func (e *Editor) run(ctx context.Context, s *Session) error {
	buf := make([]byte, readChunk)
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		timeout := e.pollInterval
		if e.poll == nil && ctx.Done() == nil {
			timeout = -1
		}
		if e.decoder.Pending() {
			timeout = e.escapeTimeout
		}

		ready, err := e.term.WaitReadable(timeout)
		if err != nil {
			return err
		}
		if !ready {
			if e.decoder.Pending() {
				s.Expire()
				continue
			}
			if e.poll != nil && !e.poll() {
				return ErrStopped
			}
			continue
		}

		if err := e.readInto(s, buf); err != nil {
			return err
		}
		if err := s.Err(); err != nil {
			return err
		}
	}
	return nil
}

// readInto performs one read and feeds the result to s.
func (e *Editor) readInto(s *Session, buf []byte) error {
	n, err := e.term.Read(buf)
	if n > 0 {
		e.lastInput = time.Now()
		s.Feed(buf[:n])
	}
	switch {
	case errors.Is(err, io.EOF) || (err == nil && n == 0):
		if !s.Done() {
			s.Handle(keys.EOF())
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read terminal: %w", err)
	}
	return nil
}

// Begin starts a non-blocking session: raw mode is entered and the prompt
// drawn, then the caller drives the session with Step (or Session.Feed) and
// must call End.
func (e *Editor) Begin(prompt, initial string) (*Session, error) {
	if e.active != nil {
		return nil, ErrSessionActive
	}
	release, err := e.term.Acquire()
	if err != nil {
		return nil, err
	}

	s := NewSession(SessionConfig{
		Prompt:      prompt,
		Initial:     initial,
		Cols:        e.term.Width(),
		History:     e.history,
		Completer:   e.completer,
		Hinter:      e.hinter,
		Renderer:    e.renderer,
		Decoder:     e.decoder,
		Policy:      e.policy,
		Bell:        e.beep,
		ClearScreen: e.term.ClearScreen,
		Logger:      e.logger,
	})
	e.active = s
	e.release = release
	if e.decoder.Pending() {
		e.decoder.Reset()
	}

	if err := s.Start(); err != nil {
		e.finishActive()
		return nil, err
	}
	if len(e.pending) > 0 {
		pending := e.pending
		e.pending = nil
		s.Feed(pending)
	}
	e.lastInput = time.Now()
	return s, nil
}

// Step processes whatever input is available right now without blocking and
// returns the session status. A lone ESC that has waited longer than the
// escape timeout is resolved here.
func (e *Editor) Step(s *Session) (Status, error) {
	if s != e.active {
		return s.Status(), ErrSessionDone
	}
	if s.Done() {
		return s.Status(), nil
	}
	// Input arriving after the timeout must not extend a stale ESC.
	if e.decoder.Pending() && time.Since(e.lastInput) >= e.escapeTimeout {
		s.Expire()
	}

	buf := make([]byte, readChunk)
	for !s.Done() {
		ready, err := e.term.WaitReadable(0)
		if err != nil {
			return s.Status(), err
		}
		if !ready {
			break
		}
		if err := e.readInto(s, buf); err != nil {
			return s.Status(), err
		}
	}
	if !s.Done() && e.decoder.Pending() && time.Since(e.lastInput) >= e.escapeTimeout {
		s.Expire()
	}
	return s.Status(), s.Err()
}

// End closes a session started by Begin, restores the terminal and returns
// the session result. A session that has not finished is abandoned and
// reported as cancelled.
func (e *Editor) End(s *Session) (string, error) {
	if s != e.active {
		return "", ErrSessionDone
	}
	if !s.Done() {
		s.abort()
	}
	e.pending = append(e.pending, s.Leftover()...)
	e.finishActive()
	return e.result(s)
}

func (e *Editor) finishActive() {
	if e.release != nil {
		e.release()
	}
	e.release = nil
	e.active = nil
}

func (e *Editor) result(s *Session) (string, error) {
	if err := s.Err(); err != nil {
		return "", err
	}
	switch s.Status() {
	case StatusAccepted:
		e.publishAccepted(s.ID(), s.Prompt(), s.Line())
		return s.Line(), nil
	case StatusEOF:
		events.PublishEvent(e.publisher, events.SessionEnded{SessionID: s.ID(), Status: StatusEOF.String()})
		return "", io.EOF
	default:
		events.PublishEvent(e.publisher, events.SessionEnded{SessionID: s.ID(), Status: StatusCancelled.String()})
		return "", ErrCancelled
	}
}

func (e *Editor) publishAccepted(id, prompt, line string) {
	events.PublishEvent(e.publisher, events.LineAccepted{
		SessionID: id,
		Prompt:    prompt,
		Line:      line,
		History:   e.history.Snapshot(),
	})
}

// readFallback reads a whole line without editing, for pipes, files and
// terminals that cannot do raw mode.
func (e *Editor) readFallback(prompt string, showPrompt bool) (string, error) {
	if showPrompt {
		if _, err := e.term.WriteString(prompt); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}
	}
	if e.fallback == nil {
		e.fallback = bufio.NewReader(e.term.In())
	}

	line, err := e.fallback.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			if showPrompt {
				_, _ = e.term.WriteString("\n")
			}
			return "", io.EOF
		}
		return "", fmt.Errorf("failed to read line: %w", err)
	}
	line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

	if e.policy.AutoHistory && line != "" {
		e.history.Append(line)
	}
	e.publishAccepted("", prompt, line)
	return line, nil
}

func (e *Editor) beep() {
	if err := e.term.Beep(); err != nil {
		e.logger.Debug("bell failed", "error", err)
	}
}

// ClearScreen clears the terminal and redraws the active session, if any.
func (e *Editor) ClearScreen() error {
	if err := e.term.ClearScreen(); err != nil {
		return err
	}
	if e.active != nil {
		return e.active.Refresh()
	}
	return nil
}

// Loop enters raw mode and calls fn until it returns true, or until exitKey
// is typed. It reports whether fn completed.
func (e *Editor) Loop(ctx context.Context, fn func() bool, exitKey byte) (bool, error) {
	release, err := e.term.Acquire()
	if err != nil {
		return false, err
	}
	defer release()

	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		ready, err := e.term.WaitReadable(e.pollInterval)
		if err != nil {
			return false, err
		}
		if ready {
			n, err := e.term.Read(buf)
			if err != nil && !errors.Is(err, io.EOF) {
				return false, fmt.Errorf("failed to read terminal: %w", err)
			}
			for _, b := range buf[:n] {
				if b == exitKey {
					return false, nil
				}
			}
		}
		if fn() {
			return true, nil
		}
	}
}

// PrintKeycodes shows the bytes each key produces and the event they decode
// to, until "quit" is typed.
func (e *Editor) PrintKeycodes(ctx context.Context, w io.Writer) error {
	if w == nil {
		w = e.term
	}
	fmt.Fprint(w, "Linenoise key codes debugging mode.\r\n")
	fmt.Fprint(w, "Press keys to see scan codes. Type 'quit' at any time to exit.\r\n")

	release, err := e.term.Acquire()
	if err != nil {
		return err
	}
	defer release()

	dec := keys.NewDecoder(keys.WithLogger(e.logger))
	var last [4]byte
	buf := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ready, err := e.term.WaitReadable(e.pollInterval)
		if err != nil {
			return err
		}
		if !ready {
			if ev, ok := dec.Expire(); ok {
				fmt.Fprintf(w, "  => %s\r\n", ev)
			}
			continue
		}
		n, err := e.term.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read terminal: %w", err)
		}
		if n == 0 {
			return nil
		}
		for _, b := range buf[:n] {
			fmt.Fprintf(w, "'%s' 0x%02x (%d)", keycodeLabel(b), b, b)
			if ev, ok := dec.Feed(b); ok {
				fmt.Fprintf(w, " => %s", ev)
			}
			if ev, ok := dec.Queued(); ok {
				fmt.Fprintf(w, " => %s", ev)
			}
			fmt.Fprint(w, "\r\n")

			copy(last[:], last[1:])
			last[3] = b
			if string(last[:]) == "quit" {
				return nil
			}
		}
	}
}

func keycodeLabel(b byte) string {
	switch {
	case b == '\r':
		return `\r`
	case b == '\n':
		return `\n`
	case b == '\t':
		return `\t`
	case b == 0x1b:
		return "ESC"
	case b == 0x7f:
		return "BS"
	case b >= 0x20 && b < 0x7f:
		return string(rune(b))
	}
	return "?"
}
