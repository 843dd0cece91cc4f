package keys

import (
	"unicode"
	"unicode/utf8"

	"github.com/kcaldas/linenoise/pkg/logging"
)

const (
	esc = 0x1b
	del = 0x7f

	// DefaultMaxSequence bounds the bytes collected for one escape sequence.
	DefaultMaxSequence = 16
)

type state int

const (
	stateGround state = iota
	stateEsc
	stateCSI
	stateSS3
	stateUTF8
)

// Decoder is a byte-at-a-time state machine. Partial escape sequences and
// partial UTF-8 characters survive between calls, so callers may feed input
// in arbitrary chunks. A Decoder is not safe for concurrent use.
type Decoder struct {
	state  state
	seq    []byte
	need   int
	lastCR bool
	max    int
	// queued holds a second event completed by the same byte.
	queued *Event
	logger logging.Logger
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used to report dropped input.
func WithLogger(logger logging.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMaxSequence bounds the escape sequence lookahead.
func WithMaxSequence(n int) Option {
	return func(d *Decoder) {
		if n >= 3 {
			d.max = n
		}
	}
}

// NewDecoder returns a decoder in the ground state.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		max:    DefaultMaxSequence,
		logger: logging.NewDisabledLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seq = make([]byte, 0, d.max)
	return d
}

// Pending reports whether the decoder holds bytes of an unfinished sequence.
func (d *Decoder) Pending() bool {
	return d.state != stateGround
}

// Reset drops any partial input.
func (d *Decoder) Reset() {
	d.state = stateGround
	d.seq = d.seq[:0]
	d.need = 0
	d.lastCR = false
	d.queued = nil
}

// Queued returns the event left over when one byte completed two events, as
// a control byte does after a lone ESC. Callers drain it after every Feed.
func (d *Decoder) Queued() (Event, bool) {
	if d.queued == nil {
		return Event{}, false
	}
	ev := *d.queued
	d.queued = nil
	return ev, true
}

// FeedBytes decodes p and returns the completed events in order.
func (d *Decoder) FeedBytes(p []byte) []Event {
	var events []Event
	for _, b := range p {
		if ev, ok := d.Feed(b); ok {
			events = append(events, ev)
		}
		if ev, ok := d.Queued(); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Expire is called when no byte arrived within the escape timeout. A lone ESC
// becomes an Escape event; any other partial sequence is discarded silently.
func (d *Decoder) Expire() (Event, bool) {
	switch d.state {
	case stateGround:
		return Event{}, false
	case stateEsc:
		d.toGround()
		return Key(KindEscape), true
	default:
		d.drop("expired")
		return Event{}, false
	}
}

// Feed consumes one byte and returns an event when the byte completes one.
func (d *Decoder) Feed(b byte) (Event, bool) {
	switch d.state {
	case stateEsc:
		return d.feedEsc(b)
	case stateCSI:
		return d.feedCSI(b)
	case stateSS3:
		return d.feedSS3(b)
	case stateUTF8:
		return d.feedUTF8(b)
	}
	return d.feedGround(b)
}

func (d *Decoder) feedGround(b byte) (Event, bool) {
	afterCR := d.lastCR
	d.lastCR = false

	switch {
	case b == esc:
		d.state = stateEsc
		d.seq = append(d.seq[:0], b)
		return Event{}, false
	case b == '\r':
		d.lastCR = true
		return Key(KindEnter), true
	case b == '\n':
		if afterCR {
			return Event{}, false
		}
		return Key(KindEnter), true
	case b == '\t':
		return Key(KindTab), true
	case b == del:
		return Key(KindBackspace), true
	case b >= 0x01 && b <= 0x1a:
		return Event{Kind: KindCtrl, Ctrl: b - 1 + 'A'}, true
	case b >= 0x20 && b < del:
		return Rune(rune(b)), true
	case b >= 0xc0 && b <= 0xf7:
		d.state = stateUTF8
		d.seq = append(d.seq[:0], b)
		switch {
		case b < 0xe0:
			d.need = 2
		case b < 0xf0:
			d.need = 3
		default:
			d.need = 4
		}
		return Event{}, false
	case b >= 0x80:
		d.logger.Debug("dropping stray utf-8 byte", "byte", b)
		return Event{}, false
	}
	return Event{Kind: KindUnknown, Seq: []byte{b}}, true
}

func (d *Decoder) feedUTF8(b byte) (Event, bool) {
	if b&0xc0 != 0x80 {
		d.drop("truncated utf-8")
		return d.feedGround(b)
	}
	d.seq = append(d.seq, b)
	if len(d.seq) < d.need {
		return Event{}, false
	}
	r, _ := utf8.DecodeRune(d.seq)
	d.toGround()
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return Event{}, false
	}
	return Rune(r), true
}

func (d *Decoder) feedEsc(b byte) (Event, bool) {
	switch b {
	case '[':
		d.state = stateCSI
		d.seq = append(d.seq, b)
		return Event{}, false
	case 'O':
		d.state = stateSS3
		d.seq = append(d.seq, b)
		return Event{}, false
	case esc:
		// The first ESC stood alone; the second starts a new sequence.
		d.seq = d.seq[:1]
		return Key(KindEscape), true
	case 'b', 'B':
		d.toGround()
		return Key(KindWordLeft), true
	case 'f', 'F':
		d.toGround()
		return Key(KindWordRight), true
	}
	if b < 0x20 || b == del {
		// Control keys never continue a sequence: the ESC stood alone.
		d.toGround()
		if ev, ok := d.feedGround(b); ok {
			d.queued = &ev
		}
		return Key(KindEscape), true
	}
	seq := []byte{esc, b}
	d.toGround()
	return Event{Kind: KindUnknown, Seq: seq}, true
}

func (d *Decoder) feedCSI(b byte) (Event, bool) {
	switch {
	case b >= 0x20 && b <= 0x3f:
		d.seq = append(d.seq, b)
		if len(d.seq) >= d.max {
			d.drop("sequence too long")
		}
		return Event{}, false
	case b >= 0x40 && b <= 0x7e:
		d.seq = append(d.seq, b)
		ev := csiEvent(d.seq)
		d.toGround()
		return ev, true
	}
	d.drop("interrupted sequence")
	return d.feedGround(b)
}

func (d *Decoder) feedSS3(b byte) (Event, bool) {
	if b < 0x40 || b > 0x7e {
		d.drop("interrupted sequence")
		return d.feedGround(b)
	}
	d.seq = append(d.seq, b)
	ev := Event{Kind: KindUnknown, Seq: append([]byte(nil), d.seq...)}
	if kind, ok := cursorKeys[b]; ok {
		ev = Key(kind)
	}
	d.toGround()
	return ev, true
}

var cursorKeys = map[byte]Kind{
	'A': KindUp,
	'B': KindDown,
	'C': KindRight,
	'D': KindLeft,
	'H': KindHome,
	'F': KindEnd,
}

var tildeKeys = map[string]Kind{
	"1": KindHome,
	"7": KindHome,
	"3": KindDelete,
	"4": KindEnd,
	"8": KindEnd,
}

// csiEvent maps a complete ESC [ params final sequence to an event.
func csiEvent(seq []byte) Event {
	final := seq[len(seq)-1]
	params := string(seq[2 : len(seq)-1])

	if kind, ok := cursorKeys[final]; ok {
		switch params {
		case "", "1":
			return Key(kind)
		case "1;3", "1;5":
			// Alt or Ctrl held: word motion on left/right.
			switch kind {
			case KindLeft:
				return Key(KindWordLeft)
			case KindRight:
				return Key(KindWordRight)
			}
			return Key(kind)
		}
	}
	if final == '~' {
		if kind, ok := tildeKeys[params]; ok {
			return Key(kind)
		}
	}
	return Event{Kind: KindUnknown, Seq: append([]byte(nil), seq...)}
}

func (d *Decoder) drop(reason string) {
	d.logger.Debug("dropping partial input", "reason", reason, "bytes", len(d.seq))
	d.toGround()
}

func (d *Decoder) toGround() {
	d.state = stateGround
	d.seq = d.seq[:0]
	d.need = 0
}
