// Package terminal owns the controlling terminal: raw mode, width, and
// unbuffered input and output.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/kcaldas/linenoise/pkg/logging"
)

// DefaultFallbackCols is the width assumed when it cannot be measured.
const DefaultFallbackCols = 80

const (
	cursorHome   = "\x1b[H"
	bell         = "\a"
	probeTimeout = 100 * time.Millisecond
)

var (
	// ErrTerminalUnsupported means the input cannot be put in raw mode.
	// Callers fall back to plain line input.
	ErrTerminalUnsupported = errors.New("terminal: raw mode unsupported")
	// ErrBusy means another Driver already holds the terminal in raw mode.
	ErrBusy = errors.New("terminal: already in raw mode")
)

var unsupportedTerms = []string{"dumb", "cons25", "emacs"}

// Raw mode is a property of the terminal device, not of a Driver, so the
// saved states live in one place. RestoreAll uses it from signal handlers.
var (
	rawMu  sync.Mutex
	rawFds = map[int]*term.State{}
)

// RestoreAll returns every terminal put in raw mode by this process to its
// saved state.
func RestoreAll() error {
	rawMu.Lock()
	defer rawMu.Unlock()
	var errs []error
	for fd, st := range rawFds {
		if err := term.Restore(fd, st); err != nil {
			errs = append(errs, fmt.Errorf("restore fd %d: %w", fd, err))
		}
		delete(rawFds, fd)
	}
	return errors.Join(errs...)
}

// Driver reads from and writes to one terminal.
type Driver struct {
	in, out      *os.File
	fd           int
	state        *term.State
	fallbackCols int
	termEnv      string
	logger       logging.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFallbackCols sets the width used when the terminal cannot report one.
func WithFallbackCols(cols int) Option {
	return func(d *Driver) {
		if cols > 0 {
			d.fallbackCols = cols
		}
	}
}

// WithTermEnv overrides the TERM value used to detect unsupported terminals.
func WithTermEnv(value string) Option {
	return func(d *Driver) {
		d.termEnv = value
	}
}

// New creates a Driver reading in and writing out.
func New(in, out *os.File, opts ...Option) *Driver {
	d := &Driver{
		in:           in,
		out:          out,
		fd:           int(in.Fd()),
		fallbackCols: DefaultFallbackCols,
		termEnv:      os.Getenv("TERM"),
		logger:       logging.NewDisabledLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// In returns the input file.
func (d *Driver) In() *os.File {
	return d.in
}

// Out returns the output file.
func (d *Driver) Out() *os.File {
	return d.out
}

// IsTerminal reports whether the input is a terminal.
func (d *Driver) IsTerminal() bool {
	fd := d.in.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Unsupported reports whether TERM names a terminal that cannot handle the
// escape sequences used for editing.
func (d *Driver) Unsupported() bool {
	name := strings.ToLower(strings.TrimSpace(d.termEnv))
	for _, t := range unsupportedTerms {
		if name == t {
			return true
		}
	}
	return false
}

// EnterRawMode switches the input terminal to raw mode. Entering twice
// through the same Driver is a no-op.
func (d *Driver) EnterRawMode() error {
	if !d.IsTerminal() {
		return ErrTerminalUnsupported
	}

	rawMu.Lock()
	defer rawMu.Unlock()
	if d.state != nil {
		return nil
	}
	if _, held := rawFds[d.fd]; held {
		return ErrBusy
	}

	st, err := term.MakeRaw(d.fd)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTerminalUnsupported, err)
	}
	rawFds[d.fd] = st
	d.state = st
	d.logger.Debug("raw mode entered", "fd", d.fd)
	return nil
}

// ExitRawMode restores the terminal. It is safe to call at any time and
// more than once.
func (d *Driver) ExitRawMode() error {
	rawMu.Lock()
	defer rawMu.Unlock()
	if d.state == nil {
		return nil
	}
	st := d.state
	d.state = nil
	// RestoreAll may have beaten us to it.
	if _, held := rawFds[d.fd]; !held {
		return nil
	}
	delete(rawFds, d.fd)
	if err := term.Restore(d.fd, st); err != nil {
		return fmt.Errorf("failed to restore terminal: %w", err)
	}
	d.logger.Debug("raw mode left", "fd", d.fd)
	return nil
}

// Acquire enters raw mode and returns the function that leaves it.
func (d *Driver) Acquire() (func(), error) {
	if err := d.EnterRawMode(); err != nil {
		return func() {}, err
	}
	return func() {
		if err := d.ExitRawMode(); err != nil {
			logging.LogError(d.logger, "raw mode release failed", err)
		}
	}, nil
}

// IsRaw reports whether this Driver holds the terminal in raw mode.
func (d *Driver) IsRaw() bool {
	rawMu.Lock()
	defer rawMu.Unlock()
	return d.state != nil
}

// Width returns the column count: the window size if the terminal reports
// one, otherwise the result of probing the cursor position, otherwise the
// fallback width.
func (d *Driver) Width() int {
	if cols, _, err := term.GetSize(int(d.out.Fd())); err == nil && cols > 0 {
		return cols
	}
	if cols, ok := d.probeWidth(); ok {
		return cols
	}
	d.logger.Debug("using fallback width", "cols", d.fallbackCols)
	return d.fallbackCols
}

// probeWidth moves the cursor far right and asks where it ended up. It only
// works in raw mode, where the reply can be read back without echo.
func (d *Driver) probeWidth() (int, bool) {
	if !d.IsRaw() || !isatty.IsTerminal(d.out.Fd()) {
		return 0, false
	}
	start, ok := d.cursorColumn()
	if !ok {
		return 0, false
	}
	if _, err := d.WriteString(ansi.CursorForward(999)); err != nil {
		return 0, false
	}
	cols, ok := d.cursorColumn()
	if !ok || cols <= 0 {
		return 0, false
	}
	if cols > start {
		_, _ = d.WriteString(ansi.CursorBackward(cols - start))
	}
	return cols, true
}

// cursorColumn issues a cursor position report and parses ESC [ row ; col R.
func (d *Driver) cursorColumn() (int, bool) {
	if _, err := d.WriteString(ansi.RequestCursorPosition); err != nil {
		return 0, false
	}
	reply := make([]byte, 0, 32)
	var b [1]byte
	for len(reply) < cap(reply) {
		ready, err := d.WaitReadable(probeTimeout)
		if err != nil || !ready {
			return 0, false
		}
		if n, err := d.in.Read(b[:]); err != nil || n == 0 {
			return 0, false
		}
		if b[0] == 'R' {
			break
		}
		reply = append(reply, b[0])
	}
	s, ok := strings.CutPrefix(string(reply), "\x1b[")
	if !ok {
		return 0, false
	}
	_, colText, ok := strings.Cut(s, ";")
	if !ok {
		return 0, false
	}
	col, err := strconv.Atoi(colText)
	return col, err == nil
}

// Read reads raw input bytes.
func (d *Driver) Read(p []byte) (int, error) {
	return d.in.Read(p)
}

// Write writes p to the terminal without buffering.
func (d *Driver) Write(p []byte) (int, error) {
	return d.out.Write(p)
}

// WriteString writes s to the terminal.
func (d *Driver) WriteString(s string) (int, error) {
	return d.out.WriteString(s)
}

// Beep rings the bell.
func (d *Driver) Beep() error {
	_, err := d.WriteString(bell)
	return err
}

// ClearScreen erases the display and homes the cursor.
func (d *Driver) ClearScreen() error {
	_, err := d.WriteString(cursorHome + ansi.EraseEntireScreen)
	return err
}

// WaitReadable waits up to timeout for input. A negative timeout waits
// indefinitely. An interrupted wait reports false with no error.
func (d *Driver) WaitReadable(timeout time.Duration) (bool, error) {
	return waitReadable(d.fd, timeout)
}
