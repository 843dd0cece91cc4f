// Package keys turns the raw byte stream of a terminal in raw mode into
// logical key events.
package keys

import (
	"fmt"
	"unicode"
)

// Kind identifies the logical key carried by an Event.
type Kind int

const (
	KindRune Kind = iota
	KindEnter
	KindBackspace
	KindDelete
	KindLeft
	KindRight
	KindUp
	KindDown
	KindHome
	KindEnd
	KindTab
	KindCtrl
	KindWordLeft
	KindWordRight
	KindEscape
	KindUnknown
	KindEOF
)

var kindNames = map[Kind]string{
	KindRune:      "Rune",
	KindEnter:     "Enter",
	KindBackspace: "Backspace",
	KindDelete:    "Delete",
	KindLeft:      "Left",
	KindRight:     "Right",
	KindUp:        "Up",
	KindDown:      "Down",
	KindHome:      "Home",
	KindEnd:       "End",
	KindTab:       "Tab",
	KindCtrl:      "Ctrl",
	KindWordLeft:  "WordLeft",
	KindWordRight: "WordRight",
	KindEscape:    "Escape",
	KindUnknown:   "Unknown",
	KindEOF:       "EOF",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Control letters as delivered by the terminal: Ctrl-A is 0x01 and so on.
const (
	CtrlA byte = 'A'
	CtrlB byte = 'B'
	CtrlC byte = 'C'
	CtrlD byte = 'D'
	CtrlE byte = 'E'
	CtrlF byte = 'F'
	CtrlH byte = 'H'
	CtrlK byte = 'K'
	CtrlL byte = 'L'
	CtrlN byte = 'N'
	CtrlP byte = 'P'
	CtrlT byte = 'T'
	CtrlU byte = 'U'
	CtrlW byte = 'W'
)

// Event is one decoded key press. Events are values; the Seq slice is owned
// by the event.
type Event struct {
	Kind Kind
	// Rune is set for KindRune.
	Rune rune
	// Ctrl is the upper-case letter for KindCtrl (Ctrl-C has Ctrl == 'C').
	Ctrl byte
	// Seq holds the raw bytes of a KindUnknown escape sequence.
	Seq []byte
}

// Rune builds a printable character event.
func Rune(r rune) Event { return Event{Kind: KindRune, Rune: r} }

// Ctrl builds a control letter event; letter may be given in either case.
func Ctrl(letter byte) Event {
	return Event{Kind: KindCtrl, Ctrl: byte(unicode.ToUpper(rune(letter)))}
}

// Key builds an event for a kind that carries no payload.
func Key(kind Kind) Event { return Event{Kind: kind} }

// EOF is the event produced by a zero-length read.
func EOF() Event { return Event{Kind: KindEOF} }

// IsCtrl reports whether e is the given control letter.
func (e Event) IsCtrl(letter byte) bool {
	return e.Kind == KindCtrl && e.Ctrl == byte(unicode.ToUpper(rune(letter)))
}

// Byte returns the control code of a KindCtrl event, e.g. 0x03 for Ctrl-C.
func (e Event) Byte() byte {
	if e.Kind != KindCtrl {
		return 0
	}
	return e.Ctrl - 'A' + 1
}

func (e Event) String() string {
	switch e.Kind {
	case KindRune:
		return fmt.Sprintf("Rune(%q)", e.Rune)
	case KindCtrl:
		return fmt.Sprintf("Ctrl-%c", e.Ctrl)
	case KindUnknown:
		return fmt.Sprintf("Unknown(%q)", e.Seq)
	default:
		return e.Kind.String()
	}
}
