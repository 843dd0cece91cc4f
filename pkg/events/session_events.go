package events

// LineAccepted is published after a session returns a line.
type LineAccepted struct {
	SessionID string
	Prompt    string
	Line      string
	// History is a snapshot of the history list after the line was recorded.
	History []string
}

// Topic returns the event topic for accepted lines
func (e LineAccepted) Topic() string {
	return "line.accepted"
}

// SessionEnded is published when a session finishes without a line.
type SessionEnded struct {
	SessionID string
	Status    string
}

// Topic returns the event topic for ended sessions
func (e SessionEnded) Topic() string {
	return "session.ended"
}
