package editor

import "fmt"

// Status is where a session stands.
type Status int

const (
	// StatusEditing means more input is needed.
	StatusEditing Status = iota
	// StatusAccepted means Enter (or the hot key) produced a line.
	StatusAccepted
	// StatusCancelled means the cancel key ended the session.
	StatusCancelled
	// StatusEOF means end of input: Ctrl-D on an empty line or a closed input.
	StatusEOF
)

// Done reports whether the session has finished.
func (s Status) Done() bool {
	return s != StatusEditing
}

func (s Status) String() string {
	switch s {
	case StatusEditing:
		return "editing"
	case StatusAccepted:
		return "accepted"
	case StatusCancelled:
		return "cancelled"
	case StatusEOF:
		return "eof"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Mode is the browsing state of a session that is still editing.
type Mode int

const (
	ModeNormal Mode = iota
	ModeHistory
	ModeCompletion
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeHistory:
		return "history"
	case ModeCompletion:
		return "completion"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}
